package placement

import (
	"math"

	"github.com/vantagecv/synthgen/internal/config"
	"github.com/vantagecv/synthgen/internal/geom"
	"github.com/vantagecv/synthgen/internal/ledger"
)

// Guard rejects candidates that come too close to occupied footprints.
// Distances are planar (XY); Z is ignored.
type Guard struct {
	Mode        string
	MinDistance float64
}

// NewGuard creates a guard from config. An unknown mode falls back to disk.
func NewGuard(cfg config.Overlap) Guard {
	mode := cfg.Mode
	if mode != config.OverlapExtent {
		mode = config.OverlapDisk
	}
	return Guard{Mode: mode, MinDistance: cfg.MinDistance}
}

// Threshold returns the minimum allowed distance between a and b.
func (g Guard) Threshold(a, b ledger.Footprint) float64 {
	if g.Mode == config.OverlapExtent {
		return math.Max(g.MinDistance, a.Radius+b.Radius)
	}
	return g.MinDistance
}

// Reach returns the largest threshold candidate can have against any
// footprint whose radius is at most maxRadius.
func (g Guard) Reach(candidate ledger.Footprint, maxRadius float64) float64 {
	return g.Threshold(candidate, ledger.Footprint{Radius: maxRadius})
}

// Rejected reports whether candidate lies strictly closer than the
// threshold to any occupied footprint. Exactly-at-threshold is accepted.
func (g Guard) Rejected(candidate ledger.Footprint, occupied []ledger.Footprint) bool {
	for _, o := range occupied {
		if geom.Distance2D(candidate.Position, o.Position) < g.Threshold(candidate, o) {
			return true
		}
	}
	return false
}

// Sample draws candidates from gen until one is accepted or maxAttempts is
// exhausted. It returns the last candidate, the attempts used and whether
// it was accepted.
func (g Guard) Sample(maxAttempts int, occupied []ledger.Footprint, gen func() ledger.Footprint) (ledger.Footprint, int, bool) {
	var c ledger.Footprint
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		c = gen()
		if !g.Rejected(c, occupied) {
			return c, attempt, true
		}
	}
	return c, maxAttempts, false
}
