package ledger

import (
	"math"

	"github.com/vantagecv/synthgen/internal/geom"
)

// CellSize is the edge length of one index cell in world units.
const CellSize = 2048

type cellKey struct {
	x, y int
}

func cellOf(x, y float64) cellKey {
	return cellKey{int(math.Floor(x / CellSize)), int(math.Floor(y / CellSize))}
}

// cellIndex buckets entry indices by planar cell so overlap checks only look
// at the cells around a candidate.
type cellIndex struct {
	cells     map[cellKey][]int
	maxRadius float64
}

func (ix *cellIndex) add(i int, fp Footprint) {
	if ix.cells == nil {
		ix.cells = make(map[cellKey][]int)
	}
	k := cellOf(fp.Position.X, fp.Position.Y)
	ix.cells[k] = append(ix.cells[k], i)
	ix.maxRadius = max(ix.maxRadius, fp.Radius)
}

func (ix *cellIndex) reset() {
	ix.cells = nil
	ix.maxRadius = 0
}

// around calls fn for every indexed entry whose cell intersects the square
// of half-size reach centred on p. It reports false without calling fn when
// that square spans more than limit cells or is not finite; the caller then
// scans linearly.
func (ix *cellIndex) around(p geom.Vec3, reach float64, limit int, fn func(i int)) bool {
	x0, x1 := math.Floor((p.X-reach)/CellSize), math.Floor((p.X+reach)/CellSize)
	y0, y1 := math.Floor((p.Y-reach)/CellSize), math.Floor((p.Y+reach)/CellSize)
	cells := max(x1-x0+1, 0) * max(y1-y0+1, 0)
	if math.IsNaN(cells) || math.IsInf(cells, 0) || math.IsInf(x0, 0) || math.IsInf(y0, 0) || cells > float64(limit) {
		return false
	}

	for cx := int(x0); cx <= int(x1); cx++ {
		for cy := int(y0); cy <= int(y1); cy++ {
			for _, i := range ix.cells[cellKey{cx, cy}] {
				fn(i)
			}
		}
	}
	return true
}
