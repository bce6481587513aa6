package placement

import (
	"log/slog"

	"github.com/vantagecv/synthgen/internal/anchor"
	"github.com/vantagecv/synthgen/internal/config"
	"github.com/vantagecv/synthgen/internal/geom"
	"github.com/vantagecv/synthgen/internal/random"
)

// ParkingMode is the orientation of a parked vehicle relative to its slot.
type ParkingMode string

const (
	PullIn  ParkingMode = "pull_in"
	Reverse ParkingMode = "reverse"
)

// ParkingPose jitters an anchor pose for a parked vehicle.
// Draw order: jitterX, jitterY, yaw jitter. Z is untouched. The 180° flip
// for Reverse happens before the yaw jitter, then yaw is normalized.
func ParkingPose(src *random.Source, a anchor.Anchor, mode ParkingMode, posJitter, yawJitter float64) geom.Transform {
	t := a.Transform

	jx := src.FloatRange(-posJitter, posJitter)
	jy := src.FloatRange(-posJitter, posJitter)
	t.Location.X += jx
	t.Location.Y += jy

	yaw := t.Rotation.Yaw
	if mode == Reverse {
		yaw += 180
	}
	yaw += src.FloatRange(-yawJitter, yawJitter)
	t.Rotation = t.Rotation.WithYaw(geom.NormalizeYaw(yaw))

	return t
}

// PlaceSlots parks entities on resolved parking slots.
// maxCount < 0 fills every slot. Slots are visited in shuffled order and
// entity configs cycle by attempt index. One result per attempted slot.
func (e *Engine) PlaceSlots(entities []config.Entity, maxCount int) []Result {
	e.lastErr = nil
	if len(entities) == 0 {
		e.lastErr = ErrNoEntities
		slog.Error("parking placement skipped", "error", ErrNoEntities)
		return nil
	}

	slots := e.anchors.Set().Slots
	n := len(slots)
	if maxCount >= 0 {
		n = min(maxCount, len(slots))
	}

	order := random.Perm(e.src, len(slots))

	slog.Info("placing parked vehicles",
		"slots", len(slots),
		"requested", n,
		"seed", e.src.Seed())

	pc := e.cfg.Parking
	results := make([]Result, 0, n)
	for i := range n {
		slot := slots[order[i]]
		ent := entities[i%len(entities)]

		mode := PullIn
		if e.src.Bool(pc.ReverseProbability) {
			mode = Reverse
		}

		results = append(results, e.PlaceAtSlot(slot.Name, ent, mode))
	}

	spawned := countSuccess(results)
	slog.Info("parking placement complete",
		"requested", n,
		"spawned", spawned,
		"failed", len(results)-spawned)
	return results
}

// PlaceAtSlot parks one entity on the named slot in the given mode. Draws
// the pose jitter only when the slot resolves.
func (e *Engine) PlaceAtSlot(name string, ent config.Entity, mode ParkingMode) Result {
	res := Result{
		Anchor:   name,
		Asset:    ent.Asset,
		Strategy: StrategyParking,
		Mode:     mode,
	}

	slot, ok := e.anchors.Set().Anchor(name)
	if !ok || slot.Kind != anchor.ParkingSlot {
		return e.notFound(res, "anchor '%s' not found or invalid")
	}

	pc := e.cfg.Parking
	res.Transform = entityTransform(ParkingPose(e.src, slot, mode, pc.PositionJitter, pc.YawJitter), ent)
	return e.guardAndSpawn(res, "parking", e.footprintRadius(ent))
}
