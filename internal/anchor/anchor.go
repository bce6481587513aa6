// Package anchor resolves named scene objects into cached coordinate frames
// (parking slots, lane endpoints and area corners).
package anchor

import (
	"github.com/vantagecv/synthgen/internal/geom"
)

// Kind classifies an anchor.
type Kind uint8

const (
	ParkingSlot Kind = iota + 1
	LaneStart
	LaneEnd
	AreaCorner
)

// String returns the kind name used in logs and manifests.
func (k Kind) String() string {
	switch k {
	case ParkingSlot:
		return "parking_slot"
	case LaneStart:
		return "lane_start"
	case LaneEnd:
		return "lane_end"
	case AreaCorner:
		return "area_corner"
	default:
		return "unknown"
	}
}

// DefaultLaneWidth is used when a lane declares no width.
const DefaultLaneWidth = 350.0

// Anchor is a named, resolved reference pose.
type Anchor struct {
	Name      string
	Kind      Kind
	Transform geom.Transform
	GroupID   string // lane id for lane endpoints
	Valid     bool
}

// Location is shorthand for the anchor position.
func (a Anchor) Location() geom.Vec3 {
	return a.Transform.Location
}

// Yaw is shorthand for the anchor yaw in degrees.
func (a Anchor) Yaw() float64 {
	return a.Transform.Rotation.Yaw
}

// Lane is a directed path between two anchors.
type Lane struct {
	ID        string
	StartName string
	EndName   string
	Start     geom.Transform
	End       geom.Transform
	Direction geom.Vec3 // unit vector start → end
	Length    float64
	Width     float64
	Valid     bool
}

// NewLane builds a valid lane between two resolved endpoints.
func NewLane(id, startName, endName string, start, end geom.Transform, width float64) Lane {
	if width <= 0 {
		width = DefaultLaneWidth
	}
	delta := end.Location.Sub(start.Location)
	return Lane{
		ID:        id,
		StartName: startName,
		EndName:   endName,
		Start:     start,
		End:       end,
		Direction: delta.SafeNormal(),
		Length:    delta.Length(),
		Width:     width,
		Valid:     true,
	}
}

// PointAt returns the position at parameter t along the lane (0 = start).
func (l Lane) PointAt(t float64) geom.Vec3 {
	return geom.Lerp(l.Start.Location, l.End.Location, t)
}

// Area is an axis-aligned placement box derived from two corner anchors.
type Area struct {
	Bounds geom.Box
	Valid  bool
}

// NewArea returns the componentwise min/max box of two corner positions.
func NewArea(a, b geom.Vec3) Area {
	return Area{Bounds: geom.BoxFromPoints(a, b), Valid: true}
}

// Set is an immutable snapshot of resolved anchors. Strategies read it,
// the Resolver replaces it wholesale.
type Set struct {
	Slots     []Anchor
	Lanes     []Lane
	Endpoints []Anchor // start/end pair of every valid lane, GroupID = lane id
	Corners   []Anchor
	Area      Area

	named map[string]Anchor
}

func (s *Set) index(a Anchor) {
	if s.named == nil {
		s.named = make(map[string]Anchor)
	}
	if _, dup := s.named[a.Name]; !dup {
		s.named[a.Name] = a
	}
}

// Anchor returns the resolved anchor registered under name. The first
// registration wins: slots, then lane endpoints, then area corners.
func (s *Set) Anchor(name string) (Anchor, bool) {
	if s == nil {
		return Anchor{}, false
	}
	a, ok := s.named[name]
	return a, ok && a.Valid
}

// Lane returns the first valid lane declared with id, or the first invalid
// one when none resolved.
func (s *Set) Lane(id string) (Lane, bool) {
	if s == nil {
		return Lane{}, false
	}
	var (
		fallback Lane
		found    bool
	)
	for _, l := range s.Lanes {
		if l.ID != id {
			continue
		}
		if l.Valid {
			return l, true
		}
		if !found {
			fallback, found = l, true
		}
	}
	return fallback, found
}

// Count returns the resolved-anchor count: 1 per slot, 2 per valid lane,
// 2 for a valid area.
func (s *Set) Count() int {
	if s == nil {
		return 0
	}
	n := len(s.Slots)
	for _, l := range s.Lanes {
		if l.Valid {
			n += 2
		}
	}
	if s.Area.Valid {
		n += 2
	}
	return n
}

// ValidLanes returns lanes whose endpoints both resolved.
func (s *Set) ValidLanes() []Lane {
	if s == nil {
		return nil
	}
	out := make([]Lane, 0, len(s.Lanes))
	for _, l := range s.Lanes {
		if l.Valid {
			out = append(out, l)
		}
	}
	return out
}
