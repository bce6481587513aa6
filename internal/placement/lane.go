package placement

import (
	"log/slog"

	"github.com/vantagecv/synthgen/internal/anchor"
	"github.com/vantagecv/synthgen/internal/config"
	"github.com/vantagecv/synthgen/internal/geom"
	"github.com/vantagecv/synthgen/internal/random"
)

// Lane parameter clamp keeps vehicles off the lane ends.
const (
	laneTMin = 0.05
	laneTMax = 0.95
)

// LaneBaseT returns the evenly spaced parameter of vehicle i out of perLane.
func LaneBaseT(i, perLane int) float64 {
	return float64(i+1) / float64(perLane+1)
}

// laneParameter perturbs the base parameter by up to ±jitter and clamps it
// to [0.05, 0.95]. One draw.
func laneParameter(src *random.Source, i, perLane int, jitter float64) float64 {
	t := LaneBaseT(i, perLane) + src.FloatRange(-jitter, jitter)
	return min(max(t, laneTMin), laneTMax)
}

// LanePose places a vehicle at parameter t along a lane, facing the lane
// direction, offset sideways by a lateral jitter. Draw order: lateral
// offset, yaw jitter.
func LanePose(src *random.Source, l anchor.Lane, t, lateralJitter, yawJitter float64) geom.Transform {
	loc := l.PointAt(t)
	rot := geom.Rotator{Yaw: geom.Heading(l.Direction)}

	right := l.Direction.Cross(geom.Up).SafeNormal()
	loc = loc.Add(right.Scale(src.FloatRange(-lateralJitter, lateralJitter)))

	rot = rot.WithYaw(geom.NormalizeYaw(rot.Yaw + src.FloatRange(-yawJitter, yawJitter)))
	return geom.NewTransform(loc, rot)
}

// PlaceAlongLanes distributes perLane vehicles along every valid lane.
// Entity configs cycle by a counter running across all lanes.
func (e *Engine) PlaceAlongLanes(entities []config.Entity, perLane int) []Result {
	return e.placeLanes(entities, perLane, -1)
}

// PlaceLaneVehicles places total vehicles across the valid lanes, filling
// lanes in declaration order with ceil(total/valid) vehicles each.
func (e *Engine) PlaceLaneVehicles(entities []config.Entity, total int) []Result {
	valid := len(e.anchors.Set().ValidLanes())
	if total <= 0 || valid == 0 {
		e.lastErr = nil
		slog.Info("lane placement skipped", "requested", total, "valid_lanes", valid)
		return nil
	}
	return e.placeLanes(entities, (total+valid-1)/valid, total)
}

// placeLanes stops after limit attempts; limit < 0 places every vehicle.
func (e *Engine) placeLanes(entities []config.Entity, perLane, limit int) []Result {
	e.lastErr = nil
	if len(entities) == 0 {
		e.lastErr = ErrNoEntities
		slog.Error("lane placement skipped", "error", ErrNoEntities)
		return nil
	}

	lanes := e.anchors.Set().Lanes
	lc := e.cfg.Lanes

	slog.Info("placing lane vehicles",
		"valid_lanes", len(e.anchors.Set().ValidLanes()),
		"per_lane", perLane,
		"seed", e.src.Seed())

	var results []Result
	vehicle := 0
	for _, lane := range lanes {
		if !lane.Valid {
			slog.Error("skipping invalid lane", "lane", lane.ID)
			continue
		}

		for i := range perLane {
			if vehicle == limit {
				break
			}
			t := laneParameter(e.src, i, perLane, lc.LongitudinalJitter)
			ent := entities[vehicle%len(entities)]
			vehicle++

			results = append(results, e.PlaceOnLane(lane.ID, t, ent))
		}
	}

	spawned := countSuccess(results)
	slog.Info("lane placement complete",
		"attempted", len(results),
		"spawned", spawned,
		"failed", len(results)-spawned)
	return results
}

// PlaceOnLane places one entity at parameter t along the lane with id.
// t is used as given; the batch clamp does not apply.
func (e *Engine) PlaceOnLane(id string, t float64, ent config.Entity) Result {
	res := Result{
		Anchor:   id,
		Asset:    ent.Asset,
		Strategy: StrategyLane,
	}

	lane, ok := e.anchors.Set().Lane(id)
	if !ok || !lane.Valid {
		return e.notFound(res, "lane '%s' not found or invalid")
	}

	lc := e.cfg.Lanes
	res.Transform = entityTransform(LanePose(e.src, lane, t, lc.LateralJitter, lc.YawJitter), ent)
	slog.Debug("lane pose computed", "lane", id, "t", t, "transform", res.Transform.String())
	return e.guardAndSpawn(res, "lane", e.footprintRadius(ent))
}
