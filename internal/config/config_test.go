package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, -1, cfg.Parking.MaxVehicles)
	assert.InDelta(t, 10.0, cfg.Parking.PositionJitter, 1e-9)
	assert.InDelta(t, 5.0, cfg.Parking.YawJitter, 1e-9)
	assert.InDelta(t, 0.3, cfg.Parking.ReverseProbability, 1e-9)
	assert.InDelta(t, 30.0, cfg.Lanes.LateralJitter, 1e-9)
	assert.InDelta(t, 2.0, cfg.Lanes.YawJitter, 1e-9)
	assert.InDelta(t, 0.1, cfg.Lanes.LongitudinalJitter, 1e-9)
	assert.Equal(t, OverlapDisk, cfg.Overlap.Mode)
	assert.InDelta(t, 500.0, cfg.Overlap.MinDistance, 1e-9)
	assert.InDelta(t, -100000.0, cfg.Sweep.ExcludedPosition.Z, 1e-9)
	assert.InDelta(t, 0.8, cfg.Camera.Margin, 1e-9)

	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synthgen.yaml")
	data := `
log_level: debug
seed: 7
passes: 3
anchors:
  slots: [Slot_A, Slot_B]
  lanes:
    - id: north
      start: Lane_N_Start
      end: Lane_N_End
      width: 350
parking:
  reverse_probability: 0.5
  vehicles:
    - asset: /Game/Vehicles/Sedan
      extent: {x: 230, y: 90, z: 70}
overlap:
  mode: extent
  min_distance: 400
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, 3, cfg.Passes)
	assert.Equal(t, []string{"Slot_A", "Slot_B"}, cfg.Anchors.Slots)
	require.Len(t, cfg.Anchors.Lanes, 1)
	assert.Equal(t, "north", cfg.Anchors.Lanes[0].ID)
	assert.InDelta(t, 0.5, cfg.Parking.ReverseProbability, 1e-9)
	require.Len(t, cfg.Parking.Vehicles, 1)
	assert.InDelta(t, 230.0, cfg.Parking.Vehicles[0].Extent.X, 1e-9)
	assert.Equal(t, OverlapExtent, cfg.Overlap.Mode)

	// untouched sections keep defaults
	assert.InDelta(t, 30.0, cfg.Lanes.LateralJitter, 1e-9)
	assert.Equal(t, 50, cfg.Overlap.MaxAttempts)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "passes: [1, 2"},
		{"probability above one", "parking:\n  reverse_probability: 1.5\n"},
		{"unknown overlap mode", "overlap:\n  mode: sphere\n"},
		{"zero passes", "passes: 0\n"},
		{"lane without id", "anchors:\n  lanes:\n    - start: A\n      end: B\n"},
		{"inverted count range", "grid:\n  count_range: [5, 2]\n"},
		{"vehicle without asset", "lanes:\n  vehicles:\n    - class: sedan\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cfg.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.data), 0o644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db",
		Port:     5433,
		User:     "u",
		Password: "p",
		DBName:   "synth",
		SSLMode:  "disable",
	}
	assert.Equal(t, "postgres://u:p@db:5433/synth?sslmode=disable", d.DSN())
}
