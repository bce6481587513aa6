package placement

import (
	"log/slog"

	"github.com/vantagecv/synthgen/internal/geom"
	"github.com/vantagecv/synthgen/internal/random"
	"github.com/vantagecv/synthgen/internal/scene"
)

// AreaPosition draws a uniform planar point inside bounds at the box
// mid-height. Draw order: X, Y.
func AreaPosition(src *random.Source, bounds geom.Box) geom.Vec3 {
	return geom.Vec3{
		X: src.FloatRange(bounds.Min.X, bounds.Max.X),
		Y: src.FloatRange(bounds.Min.Y, bounds.Max.Y),
		Z: (bounds.Min.Z + bounds.Max.Z) * 0.5,
	}
}

// groundZ projects p onto the ground, keeping p.Z when no probe is wired or
// the trace misses.
func (e *Engine) groundZ(p geom.Vec3) float64 {
	if e.ground == nil {
		return p.Z
	}
	r := scene.SearchRange{
		Top:    p.Z + e.cfg.Area.GroundSearchUp,
		Bottom: p.Z - e.cfg.Area.GroundSearchDown,
	}
	if z, ok := e.ground.ProjectToGround(p.X, p.Y, r); ok {
		return z
	}
	return p.Z
}

// PlaceInArea scatters count props uniformly inside the resolved area
// bounds. Props are not overlap-checked.
func (e *Engine) PlaceInArea(assets []string, count int) []Result {
	e.lastErr = nil

	area := e.anchors.Set().Area
	if !area.Valid {
		e.lastErr = ErrInvalidArea
		slog.Error("area placement skipped", "error", ErrInvalidArea, "hint", "ensure area corner anchors are resolved")
		return nil
	}
	if len(assets) == 0 {
		e.lastErr = ErrNoAssets
		slog.Error("area placement skipped", "error", ErrNoAssets)
		return nil
	}

	count = max(count, 0)
	slog.Info("placing area props", "count", count, "asset_types", len(assets))

	results := make([]Result, 0, count)
	for range count {
		loc := AreaPosition(e.src, area.Bounds)
		loc.Z = e.groundZ(loc)
		yaw := geom.NormalizeYaw(e.src.FloatRange(0, 360))
		asset := assets[e.src.IntRange(0, len(assets)-1)]

		res := Result{
			Anchor:    "area",
			Asset:     asset,
			Strategy:  StrategyArea,
			Transform: geom.NewTransform(loc, geom.Rotator{Yaw: yaw}),
		}
		res = e.spawn(res, "prop", FootprintRadius(e.assetExtent(asset, geom.Vec3{})))
		e.observe(res)
		results = append(results, res)
	}

	spawned := countSuccess(results)
	slog.Info("area placement complete", "requested", count, "spawned", spawned)
	return results
}
