package testutil

import (
	"testing"

	"github.com/vantagecv/synthgen/internal/geom"
	"github.com/vantagecv/synthgen/internal/scene"
)

// ManagedTag is the marker the test worlds attach to spawned instances.
const ManagedTag = "SynthgenManaged"

// VehicleTag marks pre-placed fleet vehicles in test worlds.
const VehicleTag = "Vehicle"

// NewWorld creates an in-memory scene whose spawned instances carry ManagedTag.
// The ground plane sits at z=0.
func NewWorld(tb testing.TB, objects ...scene.Object) *scene.World {
	tb.Helper()

	w := scene.NewWorld(ManagedTag)
	w.SetGround(0)
	for _, o := range objects {
		w.Add(o)
	}
	return w
}

// Marker returns a named scene object at (x, y, z) facing yaw.
func Marker(name string, x, y, z, yaw float64) scene.Object {
	return scene.Object{
		Name:      name,
		Transform: geom.NewTransform(geom.V3(x, y, z), geom.Rotator{Yaw: yaw}),
		Visible:   true,
	}
}

// Vehicle returns a visible, collidable fleet vehicle tagged with VehicleTag
// and ManagedTag.
func Vehicle(name string, x, y float64) scene.Object {
	return scene.Object{
		Name:      name,
		Asset:     "/Game/Vehicles/" + name,
		Transform: geom.NewTransform(geom.V3(x, y, 0), geom.Rotator{}),
		Extent:    geom.V3(230, 90, 70),
		Tags:      []string{VehicleTag, ManagedTag},
		Visible:   true,
		Collision: true,
	}
}

// ParkingLot returns four slot markers 1000 units apart along X, all facing +Y.
func ParkingLot() []scene.Object {
	return []scene.Object{
		Marker("Slot_0", 0, 0, 0, 90),
		Marker("Slot_1", 1000, 0, 0, 90),
		Marker("Slot_2", 2000, 0, 0, 90),
		Marker("Slot_3", 3000, 0, 0, 90),
	}
}

// SlotNames returns the marker names of ParkingLot.
func SlotNames() []string {
	return []string{"Slot_0", "Slot_1", "Slot_2", "Slot_3"}
}
