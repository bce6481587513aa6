package anchor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantagecv/synthgen/internal/config"
	"github.com/vantagecv/synthgen/internal/geom"
	"github.com/vantagecv/synthgen/internal/testutil"
)

func TestResolver_EmptyCacheBeforeResolve(t *testing.T) {
	r := NewResolver(testutil.NewWorld(t))
	require.NotNil(t, r.Set())
	assert.Equal(t, 0, r.Set().Count())
}

func TestResolver_ResolveAll(t *testing.T) {
	objs := append(testutil.ParkingLot(),
		testutil.Marker("Lane_A_Start", 0, 0, 0, 0),
		testutil.Marker("Lane_A_End", 1000, 0, 0, 0),
		testutil.Marker("Corner_1", 500, -200, 0, 0),
		testutil.Marker("Corner_2", -500, 200, 40, 0),
	)
	w := testutil.NewWorld(t, objs...)
	r := NewResolver(w)

	count := r.Resolve(config.Anchors{
		Slots:       testutil.SlotNames(),
		Lanes:       []config.Lane{{ID: "a", Start: "Lane_A_Start", End: "Lane_A_End"}},
		AreaCorner1: "Corner_1",
		AreaCorner2: "Corner_2",
	})

	// 4 slots + 2 lane endpoints + 2 area corners
	assert.Equal(t, 8, count)

	set := r.Set()
	require.Len(t, set.Slots, 4)
	for _, s := range set.Slots {
		assert.Equal(t, ParkingSlot, s.Kind)
		assert.True(t, s.Valid)
		assert.InDelta(t, 90.0, s.Yaw(), 1e-9)
	}

	require.Len(t, set.Lanes, 1)
	lane := set.Lanes[0]
	assert.True(t, lane.Valid)
	assert.InDelta(t, 1000.0, lane.Length, 1e-9)
	assert.InDelta(t, 1.0, lane.Direction.X, 1e-9)
	assert.InDelta(t, DefaultLaneWidth, lane.Width, 1e-9)

	require.True(t, set.Area.Valid)
	assert.Equal(t, geom.V3(-500, -200, 0), set.Area.Bounds.Min)
	assert.Equal(t, geom.V3(500, 200, 40), set.Area.Bounds.Max)
	assert.Len(t, set.Corners, 2)
}

func TestResolver_PartialFailureIndependence(t *testing.T) {
	objs := append(testutil.ParkingLot(),
		testutil.Marker("Lane_A_Start", 0, 0, 0, 0),
		testutil.Marker("Lane_A_End", 0, 1000, 0, 0),
		testutil.Marker("Lane_B_Start", 0, 0, 0, 0),
		// Lane_B_End is missing
	)
	w := testutil.NewWorld(t, objs...)
	r := NewResolver(w)
	logs := testutil.CaptureLogs(t)

	count := r.Resolve(config.Anchors{
		Slots: append(testutil.SlotNames(), "Slot_Missing"),
		Lanes: []config.Lane{
			{ID: "a", Start: "Lane_A_Start", End: "Lane_A_End"},
			{ID: "b", Start: "Lane_B_Start", End: "Lane_B_End"},
		},
	})

	assert.Equal(t, 4+2, count)

	set := r.Set()
	assert.Len(t, set.Slots, 4)
	require.Len(t, set.Lanes, 2)
	assert.True(t, set.Lanes[0].Valid)
	assert.False(t, set.Lanes[1].Valid)
	assert.Len(t, set.ValidLanes(), 1)
	assert.False(t, set.Area.Valid)

	out := logs.String()
	assert.Contains(t, out, "Slot_Missing")
	assert.Contains(t, out, "Lane_B_End")
	assert.Contains(t, out, fixHint)
}

func TestResolver_LaneEndpoints(t *testing.T) {
	w := testutil.NewWorld(t,
		testutil.Marker("Lane_A_Start", 0, 0, 0, 0),
		testutil.Marker("Lane_A_End", 1000, 0, 0, 0),
		testutil.Marker("Lane_B_Start", 0, 500, 0, 0),
	)
	r := NewResolver(w)

	r.Resolve(config.Anchors{
		Lanes: []config.Lane{
			{ID: "a", Start: "Lane_A_Start", End: "Lane_A_End"},
			{ID: "b", Start: "Lane_B_Start", End: "Lane_B_End"},
		},
	})
	set := r.Set()

	require.Len(t, set.Endpoints, 2, "only the valid lane contributes endpoints")
	assert.Equal(t, set.Count(), len(set.Endpoints))

	tests := []struct {
		name string
		kind Kind
		loc  geom.Vec3
	}{
		{"Lane_A_Start", LaneStart, geom.V3(0, 0, 0)},
		{"Lane_A_End", LaneEnd, geom.V3(1000, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, ok := set.Anchor(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.kind, a.Kind)
			assert.Equal(t, "a", a.GroupID)
			assert.Equal(t, tt.loc, a.Location())
		})
	}

	_, ok := set.Anchor("Lane_B_Start")
	assert.False(t, ok, "endpoints of an invalid lane are not cached")

	lane, ok := set.Lane("b")
	require.True(t, ok)
	assert.False(t, lane.Valid)
	_, ok = set.Lane("missing")
	assert.False(t, ok)
}

func TestResolver_AreaErrorOnlyWhenNamed(t *testing.T) {
	w := testutil.NewWorld(t, testutil.Marker("Corner_1", 0, 0, 0, 0))
	r := NewResolver(w)

	logs := testutil.CaptureLogs(t)
	r.Resolve(config.Anchors{})
	assert.NotContains(t, logs.String(), "area bounds not resolved")

	r.Resolve(config.Anchors{AreaCorner1: "Corner_1"})
	assert.Contains(t, logs.String(), "area bounds not resolved")
	assert.False(t, r.Set().Area.Valid)
}

func TestResolver_NormalizedLookup(t *testing.T) {
	w := testutil.NewWorld(t, testutil.Marker("Parking_Slot_01_UAID_00AB12", 10, 20, 0, 180))
	r := NewResolver(w)

	count := r.Resolve(config.Anchors{Slots: []string{"parking slot 01"}})
	require.Equal(t, 1, count)
	assert.Equal(t, geom.V3(10, 20, 0), r.Set().Slots[0].Location())
}

func TestResolver_ReplacesCacheWholesale(t *testing.T) {
	w := testutil.NewWorld(t, testutil.ParkingLot()...)
	r := NewResolver(w)

	r.Resolve(config.Anchors{Slots: testutil.SlotNames()})
	first := r.Set()
	require.Len(t, first.Slots, 4)

	r.Resolve(config.Anchors{Slots: []string{"Slot_2"}})
	second := r.Set()

	assert.NotSame(t, first, second)
	assert.Len(t, first.Slots, 4, "old snapshot must stay intact")
	require.Len(t, second.Slots, 1)
	assert.Equal(t, "Slot_2", second.Slots[0].Name)
}

func TestNewLane_Diagonal(t *testing.T) {
	start := geom.NewTransform(geom.V3(0, 0, 0), geom.Rotator{})
	end := geom.NewTransform(geom.V3(300, 400, 0), geom.Rotator{})

	l := NewLane("d", "s", "e", start, end, 500)
	assert.InDelta(t, 500.0, l.Length, 1e-9)
	assert.InDelta(t, 1.0, l.Direction.Length(), 1e-9)
	assert.InDelta(t, 0.6, l.Direction.X, 1e-9)
	assert.InDelta(t, 0.8, l.Direction.Y, 1e-9)
	assert.InDelta(t, 500.0, l.Width, 1e-9)

	mid := l.PointAt(0.5)
	assert.InDelta(t, 150.0, mid.X, 1e-9)
	assert.InDelta(t, 200.0, mid.Y, 1e-9)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "parking_slot", ParkingSlot.String())
	assert.Equal(t, "lane_end", LaneEnd.String())
	assert.Equal(t, "unknown", Kind(0).String())
}

func TestSet_CountNil(t *testing.T) {
	var s *Set
	assert.Equal(t, 0, s.Count())
	assert.Empty(t, s.ValidLanes())
	_, ok := s.Anchor("Slot_1")
	assert.False(t, ok)
	_, ok = s.Lane("a")
	assert.False(t, ok)
}
