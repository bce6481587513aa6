// Package scene defines the host-engine contracts the placement engine
// consumes, plus an in-memory World implementing all of them.
package scene

import (
	"slices"

	"github.com/vantagecv/synthgen/internal/geom"
)

// ObjectID is a scene handle. Zero is never a valid handle.
type ObjectID uint32

// Object is a snapshot of one scene entity.
type Object struct {
	ID        ObjectID
	Name      string
	Asset     string
	Transform geom.Transform
	// Extent is the half-size of the local bounding box.
	Extent    geom.Vec3
	Tags      []string
	Visible   bool
	Collision bool
}

// HasTag reports whether the object carries tag.
func (o Object) HasTag(tag string) bool {
	return slices.Contains(o.Tags, tag)
}

// Bounds returns the world-space axis-aligned box around the object.
// Rotation is ignored.
func (o Object) Bounds() geom.Box {
	return geom.BoxFromCenter(o.Transform.Location, o.Extent)
}

// SearchRange is the vertical segment a ground probe traces along,
// from Top down to Bottom (absolute Z).
type SearchRange struct {
	Top    float64
	Bottom float64
}

// Query looks up scene objects by identifier.
type Query interface {
	FindByIdentifier(name string) (Object, bool)
}

// GroundProbe projects a planar point down onto walkable ground.
type GroundProbe interface {
	ProjectToGround(x, y float64, r SearchRange) (float64, bool)
}

// Spawner creates a new entity from an asset reference.
type Spawner interface {
	Spawn(asset string, t geom.Transform, instanceID string) (ObjectID, bool)
}

// Toggle mutates visibility, collision and position of existing entities.
type Toggle interface {
	SetVisible(id ObjectID, visible bool) error
	SetCollisionEnabled(id ObjectID, enabled bool) error
	SetWorldPosition(id ObjectID, pos geom.Vec3) error
}

// Scanner iterates every entity carrying a tag.
type Scanner interface {
	ForEachTagged(tag string, fn func(Object))
}
