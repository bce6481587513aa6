package placement

import (
	"log/slog"

	"github.com/vantagecv/synthgen/internal/geom"
	"github.com/vantagecv/synthgen/internal/ledger"
	"github.com/vantagecv/synthgen/internal/random"
	"github.com/vantagecv/synthgen/internal/scene"
)

// GridSlots returns the 3×3 candidate slots (center, cross and diagonals)
// around center, spacing apart.
func GridSlots(center geom.Vec3, spacing float64) []geom.Vec3 {
	slots := make([]geom.Vec3, 0, 9)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			slots = append(slots, center.Add(geom.V3(float64(dx)*spacing, float64(dy)*spacing, 0)))
		}
	}
	return slots
}

// gridCount resolves how many vehicles to show. requested < 0 draws the
// count from the configured range, capped by the fleet size.
func (e *Engine) gridCount(requested, fleetSize int) int {
	if requested >= 0 {
		return requested
	}
	cr := e.cfg.Grid.CountRange
	return e.src.IntRange(cr[0], min(cr[1], fleetSize))
}

// PlaceGrid composes fleet vehicles onto shuffled grid slots. Every vehicle
// that is not placed this pass is moved to the excluded state.
func (e *Engine) PlaceGrid(vehicles []scene.Object, requested int) []Result {
	e.lastErr = nil
	if len(vehicles) == 0 {
		e.lastErr = ErrNoVehicles
		slog.Warn("grid placement skipped", "error", ErrNoVehicles)
		return nil
	}

	gc := e.cfg.Grid
	slots := GridSlots(gc.Center, gc.Spacing)

	count := e.gridCount(requested, len(vehicles))
	n := min(max(count, 0), len(slots), len(vehicles))

	random.Shuffle(e.src, len(slots), func(i, j int) { slots[i], slots[j] = slots[j], slots[i] })
	order := random.Perm(e.src, len(vehicles))

	occupied := e.ledger.Footprints()
	var results []Result
	excluded := 0

	for i, idx := range order {
		v := vehicles[idx]
		if i >= n {
			e.exclude(v.ID, v.Name)
			excluded++
			continue
		}

		slot := slots[i]
		radius := FootprintRadius(v.Extent)
		if v.Extent == (geom.Vec3{}) {
			radius = FootprintRadius(DefaultVehicleExtent)
		}

		fp, attempts, ok := e.guard.Sample(e.cfg.Overlap.MaxAttempts, occupied, func() ledger.Footprint {
			return ledger.Footprint{
				Position: geom.Vec3{
					X: slot.X + e.src.FloatRange(-gc.Jitter, gc.Jitter),
					Y: slot.Y + e.src.FloatRange(-gc.Jitter, gc.Jitter),
					Z: slot.Z,
				},
				Radius: radius,
			}
		})

		res := Result{
			InstanceID: v.Name,
			Anchor:     "grid",
			Asset:      v.Asset,
			Strategy:   StrategyGrid,
			Object:     v.ID,
		}
		if !ok {
			res.FailureReason = ReasonOverlap
			res.Transform = v.Transform.WithLocation(fp.Position)
			slog.Warn("grid placement rejected", "vehicle", v.Name, "attempts", attempts, "reason", ReasonOverlap)
			e.exclude(v.ID, v.Name)
			excluded++
			e.observe(res)
			results = append(results, res)
			continue
		}

		yaw := geom.NormalizeYaw(e.src.FloatRange(gc.YawRange[0], gc.YawRange[1]))
		t := v.Transform
		t.Location = fp.Position
		t.Rotation = geom.Rotator{Yaw: yaw}
		res.Transform = t

		if err := e.show(v.ID, t); err != nil {
			res.FailureReason = err.Error()
			slog.Error("grid vehicle not moved", "vehicle", v.Name, "error", err)
			e.exclude(v.ID, v.Name)
			excluded++
		} else {
			res.Success = true
			occupied = append(occupied, fp)
		}
		e.observe(res)
		results = append(results, res)
	}

	slog.Info("grid placement complete",
		"fleet", len(vehicles),
		"requested", count,
		"positioned", countSuccess(results),
		"excluded", excluded)
	return results
}

// show moves a fleet vehicle into place and makes it visible and collidable.
func (e *Engine) show(id scene.ObjectID, t geom.Transform) error {
	if err := e.scene.SetWorldTransform(id, t); err != nil {
		return err
	}
	if err := e.scene.SetVisible(id, true); err != nil {
		return err
	}
	return e.scene.SetCollisionEnabled(id, true)
}
