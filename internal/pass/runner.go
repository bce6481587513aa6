// Package pass runs complete generation passes: reset, sweep, resolve,
// place and score.
package pass

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vantagecv/synthgen/internal/anchor"
	"github.com/vantagecv/synthgen/internal/config"
	"github.com/vantagecv/synthgen/internal/fleet"
	"github.com/vantagecv/synthgen/internal/geom"
	"github.com/vantagecv/synthgen/internal/placement"
	"github.com/vantagecv/synthgen/internal/random"
	"github.com/vantagecv/synthgen/internal/scene"
	"github.com/vantagecv/synthgen/internal/sweep"
)

// Scene is everything a pass touches in the host scene.
type Scene interface {
	placement.Scene
	scene.Query
	scene.Scanner
	Get(id scene.ObjectID) (scene.Object, bool)
}

// Observer receives placement, sweep and pass outcomes.
type Observer interface {
	placement.Observer
	sweep.Observer
	ObservePass(d time.Duration, draws int64, err error)
}

// Runner owns one scene and the engine state placed into it. Passes on a
// runner run sequentially; parallel passes need separate runners.
type Runner struct {
	cfg    config.Generator
	master int64
	scene  Scene

	resolver *anchor.Resolver
	engine   *placement.Engine
	sweeper  *sweep.Sweeper
	fleet    *fleet.Fleet

	store    ManifestStore
	observer Observer
}

// NewRunner wires a runner for sc. Pass seeds derive from master.
func NewRunner(cfg config.Generator, sc Scene, master int64) *Runner {
	resolver := anchor.NewResolver(sc)
	return &Runner{
		cfg:      cfg,
		master:   master,
		scene:    sc,
		resolver: resolver,
		engine:   placement.NewEngine(cfg, sc, resolver, master),
		sweeper:  sweep.New(sc, cfg.Sweep),
		fleet:    fleet.New(sc, cfg.Grid.Marker),
	}
}

// SetStore installs a manifest store. Nil disables persistence.
func (r *Runner) SetStore(s ManifestStore) {
	r.store = s
}

// SetObserver installs an observer on the runner and its components.
func (r *Runner) SetObserver(o Observer) {
	r.observer = o
	r.engine.SetObserver(o)
	r.sweeper.SetObserver(o)
}

// Engine returns the placement engine.
func (r *Runner) Engine() *placement.Engine {
	return r.engine
}

// Sweeper returns the world sweeper.
func (r *Runner) Sweeper() *sweep.Sweeper {
	return r.sweeper
}

// Seed returns the seed pass index runs with.
func (r *Runner) Seed(index int) int64 {
	return random.DeriveSeed(r.master, fmt.Sprintf("pass-%d", index))
}

// Run executes pass index. A sweep leak fails the pass before anything is
// placed.
func (r *Runner) Run(ctx context.Context, index int) (m *Manifest, err error) {
	start := time.Now()
	defer func() {
		if r.observer != nil {
			r.observer.ObservePass(time.Since(start), r.engine.Draws(), err)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seed := r.Seed(index)
	log := slog.With("pass", index, "seed", seed)

	r.engine.Reset()
	r.fleet.Discover()
	r.fleet.Reset()

	hidden, err := r.sweeper.HideAll()
	if err != nil {
		return nil, fmt.Errorf("sweeping scene for pass %d: %w", index, err)
	}

	r.engine.Reseed(seed)
	m = &Manifest{
		ID:        uuid.New(),
		Index:     index,
		Seed:      seed,
		Hidden:    hidden,
		StartedAt: start.UTC(),
		Anchors:   r.resolver.Resolve(r.cfg.Anchors),
	}

	if err := r.place(ctx, m); err != nil {
		return nil, err
	}

	m.RandCalls = r.engine.Draws()
	m.FinishedAt = time.Now().UTC()

	if r.store != nil {
		if err := r.store.SaveManifest(ctx, m); err != nil {
			return nil, fmt.Errorf("saving manifest for pass %d: %w", index, err)
		}
	}

	log.Info("pass complete",
		"id", m.ID,
		"placed", m.Succeeded(),
		"attempted", len(m.Placements),
		"rand_calls", m.RandCalls,
		"duration", time.Since(start))
	return m, nil
}

// place runs the enabled strategies in fixed order: parking, lanes, area,
// grid. An enabled split replaces the parking and lane steps.
func (r *Runner) place(ctx context.Context, m *Manifest) error {
	split := r.cfg.Split.Enabled
	steps := []struct {
		enabled bool
		run     func() []placement.Result
	}{
		{split, func() []placement.Result {
			return r.placeSplit(m.Seed)
		}},
		{r.cfg.Parking.Enabled && !split, func() []placement.Result {
			return r.engine.PlaceSlots(r.cfg.Parking.Vehicles, r.cfg.Parking.MaxVehicles)
		}},
		{r.cfg.Lanes.Enabled && !split, func() []placement.Result {
			return r.engine.PlaceAlongLanes(r.cfg.Lanes.Vehicles, r.cfg.Lanes.PerLane)
		}},
		{r.cfg.Area.Enabled, func() []placement.Result {
			return r.engine.PlaceInArea(r.cfg.Area.Assets, r.cfg.Area.Count)
		}},
		{r.cfg.Grid.Enabled, func() []placement.Result {
			return r.engine.PlaceGrid(r.fleet.Vehicles(), r.cfg.Grid.Requested)
		}},
	}

	for _, step := range steps {
		if !step.enabled {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, res := range step.run() {
			m.Placements = append(m.Placements, r.score(res))
		}
	}
	return nil
}

// placeSplit divides the split total between parking and lanes with one coin
// per vehicle, parks its share on the pass stream and places the lane share
// on a stream offset from the pass seed.
func (r *Runner) placeSplit(seed int64) []placement.Result {
	sc := r.cfg.Split
	parking, lanes := r.engine.SplitCount(sc.Total, sc.ParkingRatio)

	var results []placement.Result
	if parking > 0 {
		results = append(results, r.engine.PlaceSlots(r.cfg.Parking.Vehicles, parking)...)
	}
	if lanes > 0 {
		r.engine.ReseedRandom(seed + sc.LaneSeedOffset)
		results = append(results, r.engine.PlaceLaneVehicles(r.cfg.Lanes.Vehicles, lanes)...)
	}
	return results
}

// score estimates how much of a successful placement the camera sees.
func (r *Runner) score(res placement.Result) Placement {
	p := Placement{Result: res}
	if !res.Success {
		return p
	}

	extent := placement.DefaultVehicleExtent
	if obj, ok := r.scene.Get(res.Object); ok && obj.Extent != (geom.Vec3{}) {
		extent = obj.Extent
	}
	box := geom.BoxFromCenter(res.Transform.Location, extent)

	p.Visibility = sweep.VisibilityPercent(r.cfg.Camera, box)
	p.Usable = p.Visibility >= r.cfg.Camera.MinVisibility
	return p
}
