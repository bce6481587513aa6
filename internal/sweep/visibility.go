package sweep

import (
	"math"

	"github.com/vantagecv/synthgen/internal/config"
	"github.com/vantagecv/synthgen/internal/geom"
)

// VisibilityPercent estimates how much of box the camera sees: the share of
// the 8 box corners in front of the camera whose angle to the view axis is
// within margin × half the FOV. Occlusion is ignored.
func VisibilityPercent(cam config.Camera, box geom.Box) float64 {
	forward := cam.Rotation.Forward()
	limit := cam.Margin * cam.FOV / 2

	visible := 0
	for _, c := range box.Corners() {
		dir := c.Sub(cam.Position)
		if dir.Dot(forward) < 0 {
			continue
		}
		cos := dir.SafeNormal().Dot(forward)
		angle := geom.Degrees(math.Acos(min(max(cos, -1), 1)))
		if angle <= limit {
			visible++
		}
	}
	return float64(visible) / 8 * 100
}

// Usable reports whether box reaches the minimum visibility percentage.
func Usable(cam config.Camera, box geom.Box, minPercent float64) bool {
	return VisibilityPercent(cam, box) >= minPercent
}
