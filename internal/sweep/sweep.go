// Package sweep enforces the "no managed entity left visible" invariant by
// rescanning the whole scene instead of trusting any ledger.
package sweep

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/vantagecv/synthgen/internal/config"
	"github.com/vantagecv/synthgen/internal/geom"
	"github.com/vantagecv/synthgen/internal/scene"
)

// Scene is what the sweeper needs from the host.
type Scene interface {
	scene.Scanner
	scene.Toggle
}

// LeakError reports managed entities still visible after a sweep.
type LeakError struct {
	Names []string
}

func (e *LeakError) Error() string {
	return fmt.Sprintf("%d managed entities still visible after sweep: %s",
		len(e.Names), strings.Join(e.Names, ", "))
}

// Observer receives the outcome of every HideAll call.
type Observer interface {
	ObserveSweep(hidden, leaked int)
}

// Sweeper hides every marked entity in the scene.
type Sweeper struct {
	scene    Scene
	marker   string
	excluded geom.Vec3
	observer Observer
}

// New creates a sweeper for entities carrying cfg.Marker.
func New(sc Scene, cfg config.Sweep) *Sweeper {
	return &Sweeper{scene: sc, marker: cfg.Marker, excluded: cfg.ExcludedPosition}
}

// SetObserver installs a sweep observer (metrics).
func (s *Sweeper) SetObserver(o Observer) {
	s.observer = o
}

// HideAll scans the scene for marked entities and moves each one to the
// excluded state: hidden, collision off, relocated to the excluded region.
// It then re-scans; any entity still visible is logged and returned as a
// *LeakError. Not retried.
func (s *Sweeper) HideAll() (int, error) {
	hidden := 0
	s.scene.ForEachTagged(s.marker, func(o scene.Object) {
		if err := s.hide(o.ID); err != nil {
			slog.Warn("sweep could not hide entity", "name", o.Name, "error", err)
			return
		}
		hidden++
	})

	leaked, names := s.CountVisible()
	if s.observer != nil {
		s.observer.ObserveSweep(hidden, leaked)
	}
	if leaked > 0 {
		slog.Error("sweep left visible entities", "marker", s.marker, "leaked", leaked, "names", names)
		return hidden, &LeakError{Names: names}
	}

	slog.Info("sweep complete", "marker", s.marker, "hidden", hidden)
	return hidden, nil
}

func (s *Sweeper) hide(id scene.ObjectID) error {
	if err := s.scene.SetVisible(id, false); err != nil {
		return fmt.Errorf("hiding: %w", err)
	}
	if err := s.scene.SetCollisionEnabled(id, false); err != nil {
		return fmt.Errorf("disabling collision: %w", err)
	}
	if err := s.scene.SetWorldPosition(id, s.excluded); err != nil {
		return fmt.Errorf("relocating: %w", err)
	}
	return nil
}

// CountVisible scans the scene and returns the number and names of marked
// entities that are visible.
func (s *Sweeper) CountVisible() (int, []string) {
	var names []string
	s.scene.ForEachTagged(s.marker, func(o scene.Object) {
		if o.Visible {
			names = append(names, o.Name)
		}
	})
	return len(names), names
}
