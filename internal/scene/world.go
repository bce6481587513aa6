package scene

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/vantagecv/synthgen/internal/geom"
)

// ErrUnknownObject is returned when a handle does not name a live object.
var ErrUnknownObject = errors.New("unknown object")

// World is an in-memory scene. It stands in for the host engine in the CLI
// and in tests and implements Query, GroundProbe, Spawner, Toggle and Scanner.
type World struct {
	mu      sync.RWMutex
	objects map[ObjectID]*Object
	byName  map[string]ObjectID // exact name → id
	byNorm  map[string]ObjectID // NormalizeName(name) → id, first registration wins

	ids *IDGenerator

	// spawnTags are attached to every spawned instance (the managed marker).
	spawnTags []string

	// assets maps spawnable asset references to their half-extent.
	// When empty, any non-empty asset spawns with a zero extent.
	assets map[string]geom.Vec3

	groundZ   float64
	hasGround bool
}

// NewWorld creates an empty world. spawnTags are attached to spawned instances.
func NewWorld(spawnTags ...string) *World {
	return &World{
		objects:   make(map[ObjectID]*Object),
		byName:    make(map[string]ObjectID),
		byNorm:    make(map[string]ObjectID),
		ids:       NewIDGenerator(),
		spawnTags: slices.Clone(spawnTags),
		assets:    make(map[string]geom.Vec3),
	}
}

// SetGround installs a flat ground plane at height z.
func (w *World) SetGround(z float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.groundZ = z
	w.hasGround = true
}

// RegisterAsset adds a spawnable asset with its half-extent.
func (w *World) RegisterAsset(asset string, extent geom.Vec3) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.assets[asset] = extent
}

// AssetExtent returns the catalogued half-extent of asset.
func (w *World) AssetExtent(asset string) (geom.Vec3, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.assets[asset]
	return e, ok
}

// Add registers a fixture object and returns its handle.
// The object's ID field is ignored and overwritten.
func (w *World) Add(obj Object) ObjectID {
	obj.ID = w.ids.NextFixtureID()
	w.mu.Lock()
	defer w.mu.Unlock()
	w.insertLocked(&obj)
	return obj.ID
}

func (w *World) insertLocked(obj *Object) {
	obj.Tags = slices.Clone(obj.Tags)
	w.objects[obj.ID] = obj
	if obj.Name == "" {
		return
	}
	if _, ok := w.byName[obj.Name]; !ok {
		w.byName[obj.Name] = obj.ID
	}
	norm := NormalizeName(obj.Name)
	if _, ok := w.byNorm[norm]; !ok {
		w.byNorm[norm] = obj.ID
	}
}

// Remove deletes an object and its index entries.
func (w *World) Remove(id ObjectID) {
	w.mu.Lock()
	defer w.mu.Unlock()

	obj, ok := w.objects[id]
	if !ok {
		return
	}
	delete(w.objects, id)
	if w.byName[obj.Name] == id {
		delete(w.byName, obj.Name)
	}
	norm := NormalizeName(obj.Name)
	if w.byNorm[norm] == id {
		delete(w.byNorm, norm)
	}
}

// Get returns a snapshot of the object with the given handle.
func (w *World) Get(id ObjectID) (Object, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	obj, ok := w.objects[id]
	if !ok {
		return Object{}, false
	}
	return snapshot(obj), true
}

// Objects returns snapshots of every object ordered by handle.
func (w *World) Objects() []Object {
	w.mu.RLock()
	out := make([]Object, 0, len(w.objects))
	for _, obj := range w.objects {
		out = append(out, snapshot(obj))
	}
	w.mu.RUnlock()

	slices.SortFunc(out, func(a, b Object) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// ObjectCount returns the number of objects in the world.
func (w *World) ObjectCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.objects)
}

// FindByIdentifier resolves name exactly first, then by NormalizeName.
func (w *World) FindByIdentifier(name string) (Object, bool) {
	if name == "" {
		return Object{}, false
	}

	w.mu.RLock()
	defer w.mu.RUnlock()

	id, ok := w.byName[name]
	if !ok {
		id, ok = w.byNorm[NormalizeName(name)]
	}
	if !ok {
		return Object{}, false
	}
	return snapshot(w.objects[id]), true
}

// ProjectToGround returns the ground height under (x, y) if the flat ground
// plane lies inside the search range.
func (w *World) ProjectToGround(x, y float64, r SearchRange) (float64, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if !w.hasGround {
		return 0, false
	}
	if w.groundZ > r.Top || w.groundZ < r.Bottom {
		return 0, false
	}
	return w.groundZ, true
}

// Spawn creates a visible, collidable instance named instanceID.
// Fails for an empty asset, or for an asset missing from a non-empty catalogue.
func (w *World) Spawn(asset string, t geom.Transform, instanceID string) (ObjectID, bool) {
	if asset == "" {
		return 0, false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	extent, known := w.assets[asset]
	if len(w.assets) > 0 && !known {
		return 0, false
	}

	obj := &Object{
		ID:        w.ids.NextSpawnID(),
		Name:      instanceID,
		Asset:     asset,
		Transform: t,
		Extent:    extent,
		Tags:      w.spawnTags,
		Visible:   true,
		Collision: true,
	}
	w.insertLocked(obj)
	return obj.ID, true
}

// SetVisible toggles rendering of an object.
func (w *World) SetVisible(id ObjectID, visible bool) error {
	return w.mutate(id, func(o *Object) { o.Visible = visible })
}

// SetCollisionEnabled toggles collision of an object.
func (w *World) SetCollisionEnabled(id ObjectID, enabled bool) error {
	return w.mutate(id, func(o *Object) { o.Collision = enabled })
}

// SetWorldPosition moves an object, keeping its rotation.
func (w *World) SetWorldPosition(id ObjectID, pos geom.Vec3) error {
	return w.mutate(id, func(o *Object) { o.Transform.Location = pos })
}

// SetWorldTransform replaces the full transform of an object.
func (w *World) SetWorldTransform(id ObjectID, t geom.Transform) error {
	return w.mutate(id, func(o *Object) { o.Transform = t })
}

func (w *World) mutate(id ObjectID, fn func(*Object)) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	obj, ok := w.objects[id]
	if !ok {
		return fmt.Errorf("object %d: %w", id, ErrUnknownObject)
	}
	fn(obj)
	return nil
}

// ForEachTagged calls fn for every object carrying tag, in handle order.
// fn runs without the world lock held, so it may mutate the world.
func (w *World) ForEachTagged(tag string, fn func(Object)) {
	for _, obj := range w.Objects() {
		if obj.HasTag(tag) {
			fn(obj)
		}
	}
}

func snapshot(o *Object) Object {
	c := *o
	c.Tags = slices.Clone(o.Tags)
	return c
}
