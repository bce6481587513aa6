package placement

import "log/slog"

// SplitCount flips one weighted coin per vehicle: heads (probability
// parkingRatio) parks it, tails puts it on a lane. total draws.
func (e *Engine) SplitCount(total int, parkingRatio float64) (parking, lanes int) {
	for range max(total, 0) {
		if e.src.Bool(parkingRatio) {
			parking++
		}
	}
	lanes = max(total, 0) - parking
	slog.Info("vehicle distribution", "total", total, "parking", parking, "lanes", lanes)
	return parking, lanes
}
