// Package placement derives object poses from resolved anchors and spawns
// them into the scene: slot (parking), path (lane), area and grid strategies.
package placement

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/vantagecv/synthgen/internal/anchor"
	"github.com/vantagecv/synthgen/internal/config"
	"github.com/vantagecv/synthgen/internal/geom"
	"github.com/vantagecv/synthgen/internal/ledger"
	"github.com/vantagecv/synthgen/internal/random"
	"github.com/vantagecv/synthgen/internal/scene"
)

// Failure reasons recorded on results.
const (
	ReasonOverlap     = "overlap"
	ReasonSpawnFailed = "actor spawn failed"
	ReasonNotFound    = "not found"
)

// Missing prerequisite inputs. Reported through LastError; the placement
// call itself returns an empty result slice.
var (
	ErrNoEntities  = errors.New("no entity configs provided")
	ErrNoAssets    = errors.New("no assets provided")
	ErrInvalidArea = errors.New("area bounds not valid")
	ErrNoVehicles  = errors.New("no fleet vehicles registered")
)

// DefaultVehicleExtent approximates a car's half-size when neither the
// entity config nor the asset catalogue provides one.
var DefaultVehicleExtent = geom.V3(250, 100, 75)

// Strategy names a placement algorithm.
type Strategy string

const (
	StrategyParking Strategy = "parking"
	StrategyLane    Strategy = "lane"
	StrategyArea    Strategy = "area"
	StrategyGrid    Strategy = "grid"
)

// Result is the outcome of one placement attempt. Never mutated after creation.
type Result struct {
	Success       bool
	InstanceID    string
	Anchor        string // anchor name, lane id or "area"/"grid"
	Asset         string
	Strategy      Strategy
	Mode          ParkingMode
	Transform     geom.Transform
	FailureReason string
	Object        scene.ObjectID
}

// Scene is what the engine needs from the host.
type Scene interface {
	scene.Spawner
	scene.Toggle
	SetWorldTransform(id scene.ObjectID, t geom.Transform) error
}

// AnchorSource exposes the current anchor cache.
type AnchorSource interface {
	Set() *anchor.Set
}

// Observer receives one call per placement attempt.
type Observer interface {
	ObservePlacement(strategy string, success bool, reason string)
}

// Engine runs placement strategies against one scene.
// Not safe for concurrent use; each pass owns its own engine.
type Engine struct {
	cfg     config.Generator
	scene   Scene
	ground  scene.GroundProbe
	anchors AnchorSource

	src     *random.Source
	carried int64 // draws made on streams replaced by ReseedRandom
	ledger  *ledger.Ledger
	guard  Guard

	observer Observer
	lastErr  error
}

// NewEngine creates an engine seeded with seed. If sc also implements
// scene.GroundProbe it is used for area ground projection.
func NewEngine(cfg config.Generator, sc Scene, anchors AnchorSource, seed int64) *Engine {
	e := &Engine{
		cfg:     cfg,
		scene:   sc,
		anchors: anchors,
		src:     random.New(seed),
		ledger:  ledger.New(),
		guard:   NewGuard(cfg.Overlap),
	}
	if gp, ok := sc.(scene.GroundProbe); ok {
		e.ground = gp
	}
	return e
}

// SetObserver installs a placement observer (metrics).
func (e *Engine) SetObserver(o Observer) {
	e.observer = o
}

// Random returns the engine's random source.
func (e *Engine) Random() *random.Source {
	return e.src
}

// Ledger returns the engine's spawn ledger.
func (e *Engine) Ledger() *ledger.Ledger {
	return e.ledger
}

// Guard returns the overlap guard in use.
func (e *Engine) Guard() Guard {
	return e.guard
}

// LastError returns the prerequisite error of the most recent placement
// call, or nil.
func (e *Engine) LastError() error {
	return e.lastErr
}

// Draws returns the number of random draws since the last Reseed, across
// every stream ReseedRandom switched to.
func (e *Engine) Draws() int64 {
	return e.carried + e.src.Calls()
}

// Reseed re-initializes the random source and clears the ledger
// (instance ids restart at zero). Anchors must be re-resolved by the caller.
func (e *Engine) Reseed(seed int64) {
	e.src.Initialize(seed)
	e.carried = 0
	e.ledger.Clear()
	e.lastErr = nil
	slog.Info("placement engine reseeded", "seed", seed)
}

// ReseedRandom switches to a fresh stream for seed and keeps the ledger, so
// later placements still see earlier ones.
func (e *Engine) ReseedRandom(seed int64) {
	e.carried += e.src.Calls()
	e.src.Initialize(seed)
	slog.Debug("placement stream reseeded", "seed", seed)
}

// Reset moves every ledger instance to the excluded state and clears the
// ledger. The world sweep should run afterwards to confirm.
func (e *Engine) Reset() int {
	entries := e.ledger.Entries()
	for _, en := range entries {
		e.exclude(en.Object, en.InstanceID)
	}
	e.ledger.Clear()
	slog.Info("cleared all spawned instances", "count", len(entries))
	return len(entries)
}

// exclude hides an entity, disables its collision and relocates it to the
// excluded region. Toggle errors are logged; the remaining steps still run.
func (e *Engine) exclude(id scene.ObjectID, name string) {
	if err := e.scene.SetVisible(id, false); err != nil {
		slog.Warn("hiding entity", "name", name, "error", err)
	}
	if err := e.scene.SetCollisionEnabled(id, false); err != nil {
		slog.Warn("disabling collision", "name", name, "error", err)
	}
	if err := e.scene.SetWorldPosition(id, e.cfg.Sweep.ExcludedPosition); err != nil {
		slog.Warn("relocating entity", "name", name, "error", err)
	}
}

// guardAndSpawn makes a single overlap-checked spawn attempt.
func (e *Engine) guardAndSpawn(res Result, prefix string, radius float64) Result {
	candidate := ledger.Footprint{Position: res.Transform.Location, Radius: radius}
	occupied := e.ledger.Near(candidate.Position, e.guard.Reach(candidate, e.ledger.MaxRadius()))
	if e.guard.Rejected(candidate, occupied) {
		res.FailureReason = ReasonOverlap
		slog.Warn("placement rejected",
			"strategy", res.Strategy,
			"anchor", res.Anchor,
			"reason", ReasonOverlap,
			"transform", res.Transform.String())
	} else {
		res = e.spawn(res, prefix, radius)
	}
	e.observe(res)
	return res
}

// spawn hands an accepted pose to the scene and records it in the ledger.
func (e *Engine) spawn(res Result, prefix string, radius float64) Result {
	res.InstanceID = e.ledger.NextID(prefix)

	id, ok := e.scene.Spawn(res.Asset, res.Transform, res.InstanceID)
	if !ok {
		res.FailureReason = ReasonSpawnFailed
		slog.Error("spawn failed",
			"strategy", res.Strategy,
			"anchor", res.Anchor,
			"asset", res.Asset,
			"instance", res.InstanceID)
		return res
	}

	res.Success = true
	res.Object = id
	e.ledger.Record(ledger.Entry{
		InstanceID: res.InstanceID,
		Object:     id,
		Asset:      res.Asset,
		Original:   res.Transform,
		Radius:     radius,
	})
	slog.Debug("instance spawned",
		"strategy", res.Strategy,
		"instance", res.InstanceID,
		"anchor", res.Anchor,
		"transform", res.Transform.String())
	return res
}

func (e *Engine) observe(res Result) {
	if e.observer != nil {
		e.observer.ObservePlacement(string(res.Strategy), res.Success, res.FailureReason)
	}
}

// notFound builds the failed result of a single-target call whose anchor or
// lane is missing. The observer sees ReasonNotFound so the name stays out of
// metric labels.
func (e *Engine) notFound(res Result, format string) Result {
	res.FailureReason = fmt.Sprintf(format, res.Anchor)
	slog.Error("placement failed", "strategy", res.Strategy, "reason", res.FailureReason)
	if e.observer != nil {
		e.observer.ObservePlacement(string(res.Strategy), false, ReasonNotFound)
	}
	return res
}

// footprintRadius returns the planar radius of an entity, from its config
// extent, then the scene asset catalogue, then DefaultVehicleExtent.
func (e *Engine) footprintRadius(ent config.Entity) float64 {
	ext := ent.Extent
	if ext == (geom.Vec3{}) {
		ext = e.assetExtent(ent.Asset, DefaultVehicleExtent)
	}
	return FootprintRadius(ext)
}

func (e *Engine) assetExtent(asset string, fallback geom.Vec3) geom.Vec3 {
	type extentSource interface {
		AssetExtent(asset string) (geom.Vec3, bool)
	}
	if es, ok := e.scene.(extentSource); ok {
		if ext, found := es.AssetExtent(asset); found && ext != (geom.Vec3{}) {
			return ext
		}
	}
	return fallback
}

// entityTransform applies the configured entity scale to a computed pose.
func entityTransform(t geom.Transform, ent config.Entity) geom.Transform {
	if ent.Scale > 0 {
		t.Scale = ent.Scale
	}
	return t
}

// FootprintRadius is the radius of the planar disk circumscribing a
// bounding extent.
func FootprintRadius(extent geom.Vec3) float64 {
	return math.Hypot(extent.X, extent.Y)
}

func countSuccess(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Success {
			n++
		}
	}
	return n
}
