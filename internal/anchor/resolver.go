package anchor

import (
	"log/slog"
	"sync/atomic"

	"github.com/vantagecv/synthgen/internal/config"
	"github.com/vantagecv/synthgen/internal/geom"
	"github.com/vantagecv/synthgen/internal/scene"
)

const fixHint = "verify name matches exactly"

// Resolver looks up anchor names in the scene and owns the anchor cache.
type Resolver struct {
	query scene.Query
	set   atomic.Pointer[Set]
}

// NewResolver creates a resolver with an empty cache.
func NewResolver(query scene.Query) *Resolver {
	r := &Resolver{query: query}
	r.set.Store(&Set{})
	return r
}

// Set returns the current anchor cache. Never nil.
func (r *Resolver) Set() *Set {
	return r.set.Load()
}

// Resolve rebuilds the cache from cfg and returns the number of resolved
// anchors. Unresolved names are logged and skipped; they never abort the call.
// The previous cache is replaced only after the whole rebuild.
func (r *Resolver) Resolve(cfg config.Anchors) int {
	next := &Set{}

	for _, name := range cfg.Slots {
		obj, ok := r.query.FindByIdentifier(name)
		if !ok {
			slog.Error("parking slot not found", "name", name, "hint", fixHint)
			continue
		}
		slot := Anchor{
			Name:      name,
			Kind:      ParkingSlot,
			Transform: obj.Transform,
			Valid:     true,
		}
		next.Slots = append(next.Slots, slot)
		next.index(slot)
	}

	for _, lc := range cfg.Lanes {
		lane := r.resolveLane(lc)
		next.Lanes = append(next.Lanes, lane)
		if !lane.Valid {
			continue
		}
		for _, a := range laneEndpoints(lane) {
			next.Endpoints = append(next.Endpoints, a)
			next.index(a)
		}
	}

	next.Corners, next.Area = r.resolveArea(cfg.AreaCorner1, cfg.AreaCorner2)
	for _, c := range next.Corners {
		next.index(c)
	}

	r.set.Store(next)

	count := next.Count()
	slog.Info("anchors resolved",
		"count", count,
		"slots", len(next.Slots),
		"lanes", len(next.ValidLanes()),
		"area", next.Area.Valid)
	return count
}

func (r *Resolver) resolveLane(lc config.Lane) Lane {
	lane := Lane{ID: lc.ID, StartName: lc.Start, EndName: lc.End, Width: lc.Width}

	start, okStart := r.query.FindByIdentifier(lc.Start)
	if !okStart {
		slog.Error("lane start not found", "lane", lc.ID, "name", lc.Start, "hint", fixHint)
	}
	end, okEnd := r.query.FindByIdentifier(lc.End)
	if !okEnd {
		slog.Error("lane end not found", "lane", lc.ID, "name", lc.End, "hint", fixHint)
	}
	if !okStart || !okEnd {
		return lane
	}

	return NewLane(lc.ID, lc.Start, lc.End, start.Transform, end.Transform, lc.Width)
}

func laneEndpoints(l Lane) [2]Anchor {
	return [2]Anchor{
		{Name: l.StartName, Kind: LaneStart, Transform: l.Start, GroupID: l.ID, Valid: true},
		{Name: l.EndName, Kind: LaneEnd, Transform: l.End, GroupID: l.ID, Valid: true},
	}
}

func (r *Resolver) resolveArea(name1, name2 string) ([]Anchor, Area) {
	if name1 == "" && name2 == "" {
		return nil, Area{}
	}

	c1, ok1 := r.query.FindByIdentifier(name1)
	c2, ok2 := r.query.FindByIdentifier(name2)
	if !ok1 || !ok2 {
		slog.Error("area bounds not resolved",
			"corner1", name1, "found1", ok1,
			"corner2", name2, "found2", ok2,
			"hint", fixHint)
		return nil, Area{}
	}

	corners := []Anchor{
		{Name: name1, Kind: AreaCorner, Transform: c1.Transform, Valid: true},
		{Name: name2, Kind: AreaCorner, Transform: c2.Transform, Valid: true},
	}
	area := NewArea(c1.Transform.Location, c2.Transform.Location)
	slog.Debug("area bounds resolved", "min", fmtVec(area.Bounds.Min), "max", fmtVec(area.Bounds.Max))
	return corners, area
}

func fmtVec(v geom.Vec3) []float64 {
	return []float64{v.X, v.Y, v.Z}
}
