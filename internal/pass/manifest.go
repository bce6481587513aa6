package pass

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vantagecv/synthgen/internal/placement"
)

// Manifest records the provenance of one generation pass: enough to replay
// it (seed) and to check it (random draws, placements).
type Manifest struct {
	ID         uuid.UUID
	Index      int
	Seed       int64
	RandCalls  int64
	Anchors    int
	Hidden     int
	StartedAt  time.Time
	FinishedAt time.Time
	Placements []Placement
}

// Placement is a placement result scored against the pass camera.
type Placement struct {
	placement.Result
	Visibility float64
	Usable     bool
}

// Succeeded returns the number of successful placements.
func (m *Manifest) Succeeded() int {
	n := 0
	for _, p := range m.Placements {
		if p.Success {
			n++
		}
	}
	return n
}

// ByStrategy returns the placements made by one strategy, in order.
func (m *Manifest) ByStrategy(s placement.Strategy) []Placement {
	var out []Placement
	for _, p := range m.Placements {
		if p.Strategy == s {
			out = append(out, p)
		}
	}
	return out
}

// ManifestStore persists finished manifests.
type ManifestStore interface {
	SaveManifest(ctx context.Context, m *Manifest) error
}
