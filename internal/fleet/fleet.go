// Package fleet keeps the set of pre-placed vehicles the grid strategy
// composes, together with their discovery-time transforms.
package fleet

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/vantagecv/synthgen/internal/geom"
	"github.com/vantagecv/synthgen/internal/scene"
)

// Scene is what the fleet needs from the host.
type Scene interface {
	scene.Scanner
	Get(id scene.ObjectID) (scene.Object, bool)
	SetWorldTransform(id scene.ObjectID, t geom.Transform) error
	SetVisible(id scene.ObjectID, visible bool) error
	SetCollisionEnabled(id scene.ObjectID, enabled bool) error
}

type member struct {
	id       scene.ObjectID
	name     string
	original geom.Transform
}

// Fleet is the managed-vehicle registry.
type Fleet struct {
	mu         sync.RWMutex
	scene      Scene
	tag        string
	members    []member
	discovered bool
}

// New creates an empty fleet discovering vehicles by tag.
func New(sc Scene, tag string) *Fleet {
	return &Fleet{scene: sc, tag: tag}
}

// Discover registers every tagged vehicle on the first call only.
// Later calls are no-ops so state captured at discovery survives passes.
func (f *Fleet) Discover() int {
	f.mu.Lock()
	if f.discovered {
		n := len(f.members)
		f.mu.Unlock()
		return n
	}
	f.discovered = true
	f.mu.Unlock()

	var found []scene.Object
	f.scene.ForEachTagged(f.tag, func(o scene.Object) {
		found = append(found, o)
	})

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range found {
		f.addLocked(o)
	}
	slog.Info("fleet discovered", "tag", f.tag, "vehicles", len(f.members))
	return len(f.members)
}

// Register adds one vehicle explicitly. Registering twice is a no-op.
func (f *Fleet) Register(id scene.ObjectID) error {
	obj, ok := f.scene.Get(id)
	if !ok {
		return fmt.Errorf("registering vehicle %d: %w", id, scene.ErrUnknownObject)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addLocked(obj) {
		slog.Debug("vehicle registered", "name", obj.Name, "total", len(f.members))
	}
	return nil
}

func (f *Fleet) addLocked(o scene.Object) bool {
	if slices.ContainsFunc(f.members, func(m member) bool { return m.id == o.ID }) {
		return false
	}
	f.members = append(f.members, member{id: o.ID, name: o.Name, original: o.Transform})
	return true
}

// Unregister removes a vehicle together with its original transform.
func (f *Fleet) Unregister(id scene.ObjectID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := slices.IndexFunc(f.members, func(m member) bool { return m.id == id })
	if i < 0 {
		return false
	}
	slog.Debug("vehicle unregistered", "name", f.members[i].name)
	f.members = slices.Delete(f.members, i, i+1)
	return true
}

// Len returns the number of registered vehicles.
func (f *Fleet) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.members)
}

// Vehicles returns current snapshots of registered vehicles in registration
// order. Vehicles removed from the scene are skipped.
func (f *Fleet) Vehicles() []scene.Object {
	f.mu.RLock()
	ids := make([]scene.ObjectID, len(f.members))
	for i, m := range f.members {
		ids[i] = m.id
	}
	f.mu.RUnlock()

	out := make([]scene.Object, 0, len(ids))
	for _, id := range ids {
		if obj, ok := f.scene.Get(id); ok {
			out = append(out, obj)
		}
	}
	return out
}

// Original returns the discovery-time transform of a vehicle.
func (f *Fleet) Original(id scene.ObjectID) (geom.Transform, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, m := range f.members {
		if m.id == id {
			return m.original, true
		}
	}
	return geom.Transform{}, false
}

// Reset restores every vehicle to its original transform and makes it
// visible again. Returns the number restored.
func (f *Fleet) Reset() int {
	f.mu.RLock()
	members := slices.Clone(f.members)
	f.mu.RUnlock()

	restored := 0
	for _, m := range members {
		if err := f.restore(m); err != nil {
			slog.Warn("vehicle not restored", "name", m.name, "error", err)
			continue
		}
		restored++
	}
	slog.Info("fleet reset to original positions", "restored", restored, "total", len(members))
	return restored
}

func (f *Fleet) restore(m member) error {
	if err := f.scene.SetWorldTransform(m.id, m.original); err != nil {
		return err
	}
	if err := f.scene.SetVisible(m.id, true); err != nil {
		return err
	}
	return f.scene.SetCollisionEnabled(m.id, true)
}
