package sweep

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantagecv/synthgen/internal/config"
	"github.com/vantagecv/synthgen/internal/geom"
	"github.com/vantagecv/synthgen/internal/scene"
	"github.com/vantagecv/synthgen/internal/testutil"
)

func sweepConfig() config.Sweep {
	cfg := config.Default().Sweep
	cfg.Marker = testutil.ManagedTag
	return cfg
}

type recordingObserver struct {
	hidden, leaked int
}

func (o *recordingObserver) ObserveSweep(hidden, leaked int) {
	o.hidden += hidden
	o.leaked += leaked
}

func TestHideAll(t *testing.T) {
	w := testutil.NewWorld(t,
		testutil.Vehicle("Car_A", 0, 0),
		testutil.Vehicle("Car_B", 1000, 0),
		testutil.Marker("Slot_0", 0, 0, 0, 0),
	)
	spawned, ok := w.Spawn("/Game/Props/Bench", geom.Transform{}, "prop_0000")
	require.True(t, ok)

	s := New(w, sweepConfig())
	obs := &recordingObserver{}
	s.SetObserver(obs)

	hidden, err := s.HideAll()
	require.NoError(t, err)
	assert.Equal(t, 3, hidden)
	assert.Equal(t, 3, obs.hidden)

	n, names := s.CountVisible()
	assert.Equal(t, 0, n)
	assert.Empty(t, names)

	obj, _ := w.Get(spawned)
	assert.False(t, obj.Visible)
	assert.False(t, obj.Collision)
	assert.Equal(t, geom.V3(0, 0, -100000), obj.Transform.Location)

	slot, _ := w.FindByIdentifier("Slot_0")
	assert.True(t, slot.Visible, "unmarked objects are left alone")
}

func TestHideAll_Idempotent(t *testing.T) {
	w := testutil.NewWorld(t, testutil.Vehicle("Car_A", 0, 0), testutil.Vehicle("Car_B", 1000, 0))
	s := New(w, sweepConfig())

	for range 2 {
		_, err := s.HideAll()
		require.NoError(t, err)
		n, _ := s.CountVisible()
		assert.Equal(t, 0, n)
	}
}

func TestHideAll_EmptyScene(t *testing.T) {
	s := New(testutil.NewWorld(t), sweepConfig())
	hidden, err := s.HideAll()
	require.NoError(t, err)
	assert.Equal(t, 0, hidden)
}

// stickyScene ignores visibility changes for one object.
type stickyScene struct {
	*scene.World
	stuck scene.ObjectID
}

func (s stickyScene) SetVisible(id scene.ObjectID, visible bool) error {
	if id == s.stuck {
		return nil
	}
	return s.World.SetVisible(id, visible)
}

func TestHideAll_Leak(t *testing.T) {
	w := testutil.NewWorld(t)
	w.Add(testutil.Vehicle("Car_A", 0, 0))
	stuck := w.Add(testutil.Vehicle("Car_Stuck", 1000, 0))

	s := New(stickyScene{World: w, stuck: stuck}, sweepConfig())
	obs := &recordingObserver{}
	s.SetObserver(obs)
	logs := testutil.CaptureLogs(t)

	_, err := s.HideAll()
	require.Error(t, err)

	var leak *LeakError
	require.True(t, errors.As(err, &leak))
	assert.Equal(t, []string{"Car_Stuck"}, leak.Names)
	assert.Contains(t, err.Error(), "Car_Stuck")
	assert.Equal(t, 1, obs.leaked)
	assert.Contains(t, logs.String(), "level=ERROR")
}

func TestVisibilityPercent(t *testing.T) {
	cam := config.Camera{
		Position: geom.V3(0, 0, 0),
		Rotation: geom.Rotator{}, // looking down +X
		FOV:      90,
		Margin:   0.8,
	}

	tests := []struct {
		name string
		box  geom.Box
		want float64
	}{
		{"ahead", geom.BoxFromCenter(geom.V3(1000, 0, 0), geom.V3(50, 50, 50)), 100},
		{"behind", geom.BoxFromCenter(geom.V3(-1000, 0, 0), geom.V3(50, 50, 50)), 0},
		{"straddling camera plane", geom.Box{Min: geom.V3(-1000, -10, -10), Max: geom.V3(1000, 10, 10)}, 50},
		{"outside margin", pointBox(40), 0},
		{"inside margin", pointBox(30), 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, VisibilityPercent(cam, tt.box), 1e-9)
		})
	}
}

func TestVisibilityPercent_MarginWidensCone(t *testing.T) {
	cam := config.Camera{FOV: 90, Margin: 0.8}
	assert.InDelta(t, 0.0, VisibilityPercent(cam, pointBox(40)), 1e-9)

	cam.Margin = 1
	assert.InDelta(t, 100.0, VisibilityPercent(cam, pointBox(40)), 1e-9)
}

func TestUsable(t *testing.T) {
	cam := config.Camera{FOV: 90, Margin: 0.8}
	straddle := geom.Box{Min: geom.V3(-1000, -10, -10), Max: geom.V3(1000, 10, 10)}

	assert.True(t, Usable(cam, straddle, 50))
	assert.False(t, Usable(cam, straddle, 50.1))
}

// pointBox is a degenerate box at 1000 units, angleDeg off the +X axis.
func pointBox(angleDeg float64) geom.Box {
	rad := geom.Radians(angleDeg)
	p := geom.V3(1000*math.Cos(rad), 1000*math.Sin(rad), 0)
	return geom.Box{Min: p, Max: p}
}
