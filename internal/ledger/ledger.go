// Package ledger tracks the instances the placement engine spawned.
package ledger

import (
	"fmt"
	"slices"

	"github.com/vantagecv/synthgen/internal/geom"
	"github.com/vantagecv/synthgen/internal/scene"
)

// Footprint is the planar disk an instance occupies.
type Footprint struct {
	Position geom.Vec3
	Radius   float64
}

// Entry records one live spawned instance.
type Entry struct {
	InstanceID string
	Object     scene.ObjectID
	Asset      string
	Original   geom.Transform
	Radius     float64
}

// Footprint returns the entry's occupied disk.
func (e Entry) Footprint() Footprint {
	return Footprint{Position: e.Original.Location, Radius: e.Radius}
}

// Ledger owns the list of live instances of one engine.
// Not safe for concurrent use; engines never share a ledger.
type Ledger struct {
	entries []Entry
	counter int
	index   cellIndex
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// NextID returns a fresh instance id such as "parking_0000".
// The counter is shared by all prefixes and only reset by Clear.
func (l *Ledger) NextID(prefix string) string {
	id := fmt.Sprintf("%s_%04d", prefix, l.counter)
	l.counter++
	return id
}

// Record appends a live instance.
func (l *Ledger) Record(e Entry) {
	l.index.add(len(l.entries), e.Footprint())
	l.entries = append(l.entries, e)
}

// Entries returns a copy of all live instances in spawn order.
func (l *Ledger) Entries() []Entry {
	return slices.Clone(l.entries)
}

// Footprints returns the occupied disks of all live instances.
func (l *Ledger) Footprints() []Footprint {
	out := make([]Footprint, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Footprint()
	}
	return out
}

// Near returns the footprints of instances within reach of p on the XY
// plane (a superset: whole index cells are scanned), in spawn order.
func (l *Ledger) Near(p geom.Vec3, reach float64) []Footprint {
	if len(l.entries) == 0 {
		return nil
	}

	var idx []int
	if !l.index.around(p, reach, len(l.entries), func(i int) { idx = append(idx, i) }) {
		return l.Footprints()
	}
	slices.Sort(idx)

	out := make([]Footprint, len(idx))
	for n, i := range idx {
		out[n] = l.entries[i].Footprint()
	}
	return out
}

// MaxRadius returns the largest footprint radius recorded since Clear.
func (l *Ledger) MaxRadius() float64 {
	return l.index.maxRadius
}

// Len returns the number of live instances.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Clear forgets every instance and resets the id counter.
func (l *Ledger) Clear() {
	l.entries = nil
	l.counter = 0
	l.index.reset()
}
