package placement

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantagecv/synthgen/internal/anchor"
	"github.com/vantagecv/synthgen/internal/config"
	"github.com/vantagecv/synthgen/internal/geom"
	"github.com/vantagecv/synthgen/internal/ledger"
	"github.com/vantagecv/synthgen/internal/random"
	"github.com/vantagecv/synthgen/internal/scene"
	"github.com/vantagecv/synthgen/internal/testutil"
)

var testEntities = []config.Entity{
	{Asset: "/Game/Vehicles/Sedan", Scale: 1},
	{Asset: "/Game/Vehicles/Hatchback", Scale: 1},
}

func newTestEngine(t *testing.T, cfg config.Generator, seed int64, objs ...scene.Object) (*Engine, *scene.World) {
	t.Helper()

	w := testutil.NewWorld(t, objs...)
	r := anchor.NewResolver(w)
	r.Resolve(cfg.Anchors)
	return NewEngine(cfg, w, r, seed), w
}

type countingObserver struct {
	calls   int
	success int
	reasons map[string]int
}

func (o *countingObserver) ObservePlacement(strategy string, success bool, reason string) {
	if o.reasons == nil {
		o.reasons = make(map[string]int)
	}
	o.calls++
	if success {
		o.success++
		return
	}
	o.reasons[reason]++
}

func TestPlaceSlots_Scenario(t *testing.T) {
	cfg := config.Default()
	cfg.Anchors.Slots = testutil.SlotNames()
	cfg.Parking.ReverseProbability = 0

	e, w := newTestEngine(t, cfg, 42, testutil.ParkingLot()...)
	results := e.PlaceSlots(testEntities, -1)

	require.Len(t, results, 4)
	require.NoError(t, e.LastError())
	for i, r := range results {
		assert.True(t, r.Success, "result %d: %s", i, r.FailureReason)
		assert.Equal(t, PullIn, r.Mode)
		assert.Equal(t, testEntities[i%2].Asset, r.Asset)
		assert.Equal(t, StrategyParking, r.Strategy)

		obj, ok := w.Get(r.Object)
		require.True(t, ok)
		assert.Equal(t, r.InstanceID, obj.Name)
		assert.True(t, obj.Visible)
	}

	ids := []string{results[0].InstanceID, results[1].InstanceID, results[2].InstanceID, results[3].InstanceID}
	assert.Equal(t, []string{"parking_0000", "parking_0001", "parking_0002", "parking_0003"}, ids)
	assert.Equal(t, 4, e.Ledger().Len())
}

func TestPlaceSlots_MaxCount(t *testing.T) {
	cfg := config.Default()
	cfg.Anchors.Slots = testutil.SlotNames()

	tests := []struct {
		name     string
		maxCount int
		want     int
	}{
		{"fill all", -1, 4},
		{"fewer than slots", 2, 2},
		{"more than slots", 10, 4},
		{"zero", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t, cfg, 1, testutil.ParkingLot()...)
			assert.Len(t, e.PlaceSlots(testEntities, tt.maxCount), tt.want)
		})
	}
}

func TestPlaceSlots_VisitsEverySlotOnce(t *testing.T) {
	cfg := config.Default()
	cfg.Anchors.Slots = testutil.SlotNames()

	e, _ := newTestEngine(t, cfg, 99, testutil.ParkingLot()...)
	results := e.PlaceSlots(testEntities, -1)

	seen := make(map[string]bool)
	for _, r := range results {
		seen[r.Anchor] = true
	}
	assert.Len(t, seen, 4)
}

func TestPlaceSlots_NoEntities(t *testing.T) {
	cfg := config.Default()
	cfg.Anchors.Slots = testutil.SlotNames()

	e, _ := newTestEngine(t, cfg, 1, testutil.ParkingLot()...)
	assert.Empty(t, e.PlaceSlots(nil, -1))
	assert.ErrorIs(t, e.LastError(), ErrNoEntities)
	assert.Equal(t, int64(0), e.Random().Calls())
}

func TestPlaceSlots_OverlapScenario(t *testing.T) {
	cfg := config.Default()
	cfg.Anchors.Slots = []string{"Slot_A", "Slot_B"}
	cfg.Overlap.MinDistance = 500

	obs := &countingObserver{}
	e, _ := newTestEngine(t, cfg, 5,
		testutil.Marker("Slot_A", 0, 0, 0, 0),
		testutil.Marker("Slot_B", 50, 0, 0, 0),
	)
	e.SetObserver(obs)

	results := e.PlaceSlots(testEntities, -1)
	require.Len(t, results, 2)

	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Equal(t, ReasonOverlap, results[1].FailureReason)
	assert.Empty(t, results[1].InstanceID)
	assert.Equal(t, 1, e.Ledger().Len())

	assert.Equal(t, 2, obs.calls)
	assert.Equal(t, 1, obs.success)
	assert.Equal(t, 1, obs.reasons[ReasonOverlap])
}

func TestPlaceSlots_UnboundedMinDistance(t *testing.T) {
	for _, minDistance := range []float64{1e6, 4e6, 1e12, math.Inf(1)} {
		cfg := config.Default()
		cfg.Anchors.Slots = testutil.SlotNames()
		cfg.Overlap.MinDistance = minDistance

		e, _ := newTestEngine(t, cfg, 6, testutil.ParkingLot()...)
		results := e.PlaceSlots(testEntities, -1)

		require.Len(t, results, 4)
		assert.Equal(t, 1, countSuccess(results), "min_distance=%g", minDistance)
		for _, r := range results[1:] {
			assert.Equal(t, ReasonOverlap, r.FailureReason)
		}
	}
}

func TestPlaceSlots_SpawnFailure(t *testing.T) {
	cfg := config.Default()
	cfg.Anchors.Slots = []string{"Slot_0"}

	e, w := newTestEngine(t, cfg, 3, testutil.ParkingLot()...)
	w.RegisterAsset("/Game/Vehicles/Other", geom.V3(200, 80, 60))

	results := e.PlaceSlots(testEntities, -1)
	require.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Equal(t, ReasonSpawnFailed, results[0].FailureReason)
	assert.Equal(t, "parking_0000", results[0].InstanceID)
	assert.Equal(t, 0, e.Ledger().Len())
}

func TestPlaceAtSlot(t *testing.T) {
	cfg := config.Default()
	cfg.Anchors.Slots = []string{"Slot_0"}
	cfg.Anchors.Lanes = []config.Lane{{ID: "east", Start: "Lane_Start", End: "Lane_End"}}
	objs := append(testutil.ParkingLot(), laneObjects()...)

	tests := []struct {
		name   string
		anchor string
		reason string
	}{
		{"resolved slot", "Slot_0", ""},
		{"unknown name", "Slot_Missing", "anchor 'Slot_Missing' not found or invalid"},
		{"unresolved config name", "Slot_1", "anchor 'Slot_1' not found or invalid"},
		{"lane endpoint is not a slot", "Lane_Start", "anchor 'Lane_Start' not found or invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := &countingObserver{}
			e, _ := newTestEngine(t, cfg, 8, objs...)
			e.SetObserver(obs)

			res := e.PlaceAtSlot(tt.anchor, testEntities[0], Reverse)
			assert.Equal(t, tt.anchor, res.Anchor)
			assert.Equal(t, StrategyParking, res.Strategy)
			assert.Equal(t, Reverse, res.Mode)
			assert.Equal(t, 1, obs.calls)

			if tt.reason == "" {
				require.True(t, res.Success, res.FailureReason)
				assert.Equal(t, "parking_0000", res.InstanceID)
				assert.Equal(t, int64(3), e.Random().Calls())
				return
			}
			assert.False(t, res.Success)
			assert.Equal(t, tt.reason, res.FailureReason)
			assert.Empty(t, res.InstanceID)
			assert.Equal(t, 1, obs.reasons[ReasonNotFound])
			assert.Equal(t, int64(0), e.Random().Calls(), "no draws for a missing slot")
			assert.Equal(t, 0, e.Ledger().Len())
		})
	}
}

func TestParkingPose_Bounds(t *testing.T) {
	a := anchor.Anchor{
		Name:      "Slot",
		Kind:      anchor.ParkingSlot,
		Transform: geom.NewTransform(geom.V3(100, -200, 15), geom.Rotator{Yaw: 170}),
		Valid:     true,
	}
	const px, yj = 10.0, 5.0

	for seed := range int64(500) {
		src := random.New(seed)
		for _, mode := range []ParkingMode{PullIn, Reverse} {
			tr := ParkingPose(src, a, mode, px, yj)

			assert.LessOrEqual(t, math.Abs(tr.Location.X-100), px)
			assert.LessOrEqual(t, math.Abs(tr.Location.Y+200), px)
			assert.InDelta(t, 15.0, tr.Location.Z, 1e-12)

			yaw := tr.Rotation.Yaw
			assert.GreaterOrEqual(t, yaw, -180.0)
			assert.Less(t, yaw, 180.0)

			facing := 170.0
			if mode == Reverse {
				facing += 180
			}
			assert.LessOrEqual(t, math.Abs(geom.YawDelta(yaw, facing)), yj+1e-9)
		}
	}
}

func TestParkingPose_KeepsPitchAndRoll(t *testing.T) {
	a := anchor.Anchor{
		Name:      "Ramp_Slot",
		Kind:      anchor.ParkingSlot,
		Transform: geom.NewTransform(geom.V3(0, 0, 0), geom.Rotator{Pitch: 4, Yaw: 170, Roll: -2}),
		Valid:     true,
	}
	got := ParkingPose(random.New(1), a, Reverse, 0, 0)
	assert.InDelta(t, 4.0, got.Rotation.Pitch, 1e-12)
	assert.InDelta(t, -2.0, got.Rotation.Roll, 1e-12)
	assert.InDelta(t, -10.0, got.Rotation.Yaw, 1e-9)
}

func TestParkingPose_DrawsThreeValues(t *testing.T) {
	src := random.New(7)
	ParkingPose(src, anchor.Anchor{}, PullIn, 10, 5)
	assert.Equal(t, int64(3), src.Calls())
}

func TestEngine_Determinism(t *testing.T) {
	cfg := config.Default()
	cfg.Anchors.Slots = testutil.SlotNames()
	cfg.Anchors.Lanes = []config.Lane{{ID: "a", Start: "L_Start", End: "L_End"}}
	objs := append(testutil.ParkingLot(),
		testutil.Marker("L_Start", 0, 5000, 0, 0),
		testutil.Marker("L_End", 4000, 5000, 0, 0),
	)

	run := func() ([]Result, int64) {
		e, _ := newTestEngine(t, cfg, 1234, objs...)
		out := e.PlaceSlots(testEntities, -1)
		out = append(out, e.PlaceAlongLanes(testEntities, 3)...)
		return out, e.Random().Calls()
	}

	a, callsA := run()
	b, callsB := run()
	require.Equal(t, len(a), len(b))
	assert.Equal(t, callsA, callsB)
	for i := range a {
		assert.Equal(t, a[i].Transform, b[i].Transform)
		assert.Equal(t, a[i].InstanceID, b[i].InstanceID)
		assert.Equal(t, a[i].Anchor, b[i].Anchor)
	}
}

func TestEngine_ResetAndReseed(t *testing.T) {
	cfg := config.Default()
	cfg.Anchors.Slots = testutil.SlotNames()

	e, w := newTestEngine(t, cfg, 8, testutil.ParkingLot()...)
	results := e.PlaceSlots(testEntities, -1)
	require.Len(t, results, 4)

	assert.Equal(t, 4, e.Reset())
	assert.Equal(t, 0, e.Ledger().Len())
	for _, r := range results {
		obj, ok := w.Get(r.Object)
		require.True(t, ok)
		assert.False(t, obj.Visible)
		assert.False(t, obj.Collision)
		assert.Equal(t, cfg.Sweep.ExcludedPosition, obj.Transform.Location)
	}

	e.Reseed(8)
	assert.Equal(t, int64(0), e.Random().Calls())
	again := e.PlaceSlots(testEntities, -1)
	require.Len(t, again, 4)
	assert.Equal(t, "parking_0000", again[0].InstanceID)
	for i := range results {
		assert.Equal(t, results[i].Transform, again[i].Transform, "reseeding must replay the same poses")
	}
}

func TestGuard_Boundary(t *testing.T) {
	g := NewGuard(config.Overlap{Mode: config.OverlapDisk, MinDistance: 500})
	occupied := []ledger.Footprint{{Position: geom.V3(0, 0, 0)}}

	assert.False(t, g.Rejected(ledger.Footprint{Position: geom.V3(500, 0, 0)}, occupied), "exactly D apart is accepted")
	assert.False(t, g.Rejected(ledger.Footprint{Position: geom.V3(300, 400, 0)}, occupied))
	assert.True(t, g.Rejected(ledger.Footprint{Position: geom.V3(499.999, 0, 0)}, occupied))
	assert.False(t, g.Rejected(ledger.Footprint{Position: geom.V3(0, 0, 0)}, nil))
}

func TestGuard_IgnoresHeight(t *testing.T) {
	g := NewGuard(config.Overlap{Mode: config.OverlapDisk, MinDistance: 500})
	occupied := []ledger.Footprint{{Position: geom.V3(0, 0, 0)}}
	assert.True(t, g.Rejected(ledger.Footprint{Position: geom.V3(10, 0, 5000)}, occupied))
}

func TestGuard_ExtentMode(t *testing.T) {
	g := NewGuard(config.Overlap{Mode: config.OverlapExtent, MinDistance: 500})
	occupied := []ledger.Footprint{{Position: geom.V3(0, 0, 0), Radius: 300}}

	assert.True(t, g.Rejected(ledger.Footprint{Position: geom.V3(550, 0, 0), Radius: 300}, occupied))
	assert.False(t, g.Rejected(ledger.Footprint{Position: geom.V3(600, 0, 0), Radius: 300}, occupied))

	// small radii fall back to the minimum distance
	assert.True(t, g.Rejected(ledger.Footprint{Position: geom.V3(450, 0, 0), Radius: 10}, []ledger.Footprint{{Radius: 10}}))
}

func TestGuard_Reach(t *testing.T) {
	disk := NewGuard(config.Overlap{Mode: config.OverlapDisk, MinDistance: 500})
	assert.InDelta(t, 500.0, disk.Reach(ledger.Footprint{Radius: 400}, 400), 1e-9)

	ext := NewGuard(config.Overlap{Mode: config.OverlapExtent, MinDistance: 500})
	assert.InDelta(t, 800.0, ext.Reach(ledger.Footprint{Radius: 400}, 400), 1e-9)
	assert.InDelta(t, 500.0, ext.Reach(ledger.Footprint{Radius: 10}, 20), 1e-9)
}

func TestNewGuard_UnknownModeIsDisk(t *testing.T) {
	g := NewGuard(config.Overlap{Mode: "sphere", MinDistance: 100})
	assert.Equal(t, config.OverlapDisk, g.Mode)
}

func TestGuard_Sample(t *testing.T) {
	g := NewGuard(config.Overlap{Mode: config.OverlapDisk, MinDistance: 500})
	occupied := []ledger.Footprint{{Position: geom.V3(0, 0, 0)}}

	x := 0.0
	gen := func() ledger.Footprint {
		x += 200
		return ledger.Footprint{Position: geom.V3(x, 0, 0)}
	}

	fp, attempts, ok := g.Sample(10, occupied, gen)
	require.True(t, ok)
	assert.Equal(t, 3, attempts)
	assert.InDelta(t, 600.0, fp.Position.X, 1e-9)

	stuck := func() ledger.Footprint { return ledger.Footprint{Position: geom.V3(1, 1, 0)} }
	_, attempts, ok = g.Sample(4, occupied, stuck)
	assert.False(t, ok)
	assert.Equal(t, 4, attempts)
}

func TestFootprintRadius(t *testing.T) {
	assert.InDelta(t, 5.0, FootprintRadius(geom.V3(3, 4, 100)), 1e-12)
}
