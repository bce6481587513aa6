package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/vantagecv/synthgen/internal/geom"
)

// Overlap guard modes.
const (
	OverlapDisk   = "disk"   // fixed minimum planar distance
	OverlapExtent = "extent" // opt-in: footprint radii derived from bounding extents
)

// Generator holds all configuration for a generation run.
type Generator struct {
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// Seed is the master seed. Negative means "draw one from system entropy"
	// (the drawn seed is logged, the run is then reproducible from the log).
	Seed    int64 `yaml:"seed"`
	Passes  int   `yaml:"passes" validate:"gte=1"`
	Workers int   `yaml:"workers" validate:"gte=1"`

	// Scene fixture used by the in-memory scene (host engine stand-in).
	ScenePath string `yaml:"scene_path"`

	Anchors Anchors `yaml:"anchors"`
	Parking Parking `yaml:"parking"`
	Lanes   Lanes   `yaml:"lanes"`
	Area    Area    `yaml:"area"`
	Grid    Grid    `yaml:"grid"`
	Split   Split   `yaml:"split"`
	Overlap Overlap `yaml:"overlap"`
	Sweep   Sweep   `yaml:"sweep"`
	Camera  Camera  `yaml:"camera"`

	Database DatabaseConfig `yaml:"database"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// Anchors names the scene objects the resolver looks up.
type Anchors struct {
	Slots       []string `yaml:"slots"`
	Lanes       []Lane   `yaml:"lanes" validate:"dive"`
	AreaCorner1 string   `yaml:"area_corner_1"`
	AreaCorner2 string   `yaml:"area_corner_2"`
}

// Lane declares a directed path between two anchor objects.
type Lane struct {
	ID    string  `yaml:"id" validate:"required"`
	Start string  `yaml:"start" validate:"required"`
	End   string  `yaml:"end" validate:"required"`
	Width float64 `yaml:"width" validate:"gte=0"`
}

// Entity is one spawnable vehicle or prop configuration.
type Entity struct {
	Asset string  `yaml:"asset" validate:"required"`
	Class string  `yaml:"class"`
	Scale float64 `yaml:"scale" validate:"gte=0"`
	// Extent is the half-size used by the opt-in extent overlap mode.
	Extent geom.Vec3 `yaml:"extent"`
}

// Parking configures slot placement.
type Parking struct {
	Enabled            bool     `yaml:"enabled"`
	MaxVehicles        int      `yaml:"max_vehicles"` // -1 fills every slot
	PositionJitter     float64  `yaml:"position_jitter" validate:"gte=0"`
	YawJitter          float64  `yaml:"yaw_jitter" validate:"gte=0"`
	ReverseProbability float64  `yaml:"reverse_probability" validate:"gte=0,lte=1"`
	Vehicles           []Entity `yaml:"vehicles" validate:"dive"`
}

// Lanes configures path placement.
type Lanes struct {
	Enabled            bool     `yaml:"enabled"`
	PerLane            int      `yaml:"per_lane" validate:"gte=0"`
	LateralJitter      float64  `yaml:"lateral_jitter" validate:"gte=0"`
	YawJitter          float64  `yaml:"yaw_jitter" validate:"gte=0"`
	LongitudinalJitter float64  `yaml:"longitudinal_jitter" validate:"gte=0,lte=0.45"`
	Vehicles           []Entity `yaml:"vehicles" validate:"dive"`
}

// Area configures sidewalk/prop placement.
type Area struct {
	Enabled          bool     `yaml:"enabled"`
	Count            int      `yaml:"count" validate:"gte=0"`
	Assets           []string `yaml:"assets"`
	GroundSearchUp   float64  `yaml:"ground_search_up" validate:"gte=0"`
	GroundSearchDown float64  `yaml:"ground_search_down" validate:"gte=0"`
}

// Grid configures the multi-vehicle grid-slot variant.
type Grid struct {
	Enabled bool      `yaml:"enabled"`
	Center  geom.Vec3 `yaml:"center"`
	Spacing float64   `yaml:"spacing" validate:"gt=0"`
	Jitter  float64   `yaml:"jitter" validate:"gte=0"`
	// YawRange is [min, max] in degrees.
	YawRange [2]float64 `yaml:"yaw_range"`
	// CountRange is used when Requested is negative.
	CountRange [2]int `yaml:"count_range"`
	Requested  int    `yaml:"requested"`
	// Marker is the tag carried by fleet vehicles.
	Marker string `yaml:"marker"`
}

// Split distributes a fixed vehicle total between parking slots and lanes.
// When enabled it replaces the separate parking and lane steps.
type Split struct {
	Enabled      bool    `yaml:"enabled"`
	Total        int     `yaml:"total" validate:"gte=0"`
	ParkingRatio float64 `yaml:"parking_ratio" validate:"gte=0,lte=1"`
	// LaneSeedOffset is added to the pass seed for the lane half.
	LaneSeedOffset int64 `yaml:"lane_seed_offset"`
}

// Overlap configures the overlap guard.
type Overlap struct {
	Mode        string  `yaml:"mode" validate:"oneof=disk extent"`
	MinDistance float64 `yaml:"min_distance" validate:"gte=0"`
	MaxAttempts int     `yaml:"max_attempts" validate:"gte=1"`
}

// Sweep configures the authoritative world sweep.
type Sweep struct {
	Marker           string    `yaml:"marker" validate:"required"`
	ExcludedPosition geom.Vec3 `yaml:"excluded_position"`
}

// Camera is the reference camera used to score placed objects.
type Camera struct {
	Position geom.Vec3    `yaml:"position"`
	Rotation geom.Rotator `yaml:"rotation"`
	FOV      float64      `yaml:"fov" validate:"gt=0,lt=180"`
	// Margin is the fraction of the half-FOV a corner must fall within.
	Margin        float64 `yaml:"margin" validate:"gt=0,lte=1"`
	MinVisibility float64 `yaml:"min_visibility" validate:"gte=0,lte=100"`
}

// DatabaseConfig holds PostgreSQL connection parameters for the manifest store.
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the endpoint
}

// Default returns Generator config with sensible defaults.
// Jitter values are in centimeters / degrees, matching the host engine units.
func Default() Generator {
	return Generator{
		LogLevel: "info",
		Seed:     42,
		Passes:   1,
		Workers:  1,
		Parking: Parking{
			Enabled:            true,
			MaxVehicles:        -1,
			PositionJitter:     10,
			YawJitter:          5,
			ReverseProbability: 0.3,
		},
		Lanes: Lanes{
			Enabled:            true,
			PerLane:            2,
			LateralJitter:      30,
			YawJitter:          2,
			LongitudinalJitter: 0.1,
		},
		Area: Area{
			Enabled:          true,
			Count:            5,
			GroundSearchUp:   500,
			GroundSearchDown: 1000,
		},
		Grid: Grid{
			Spacing:    600,
			Jitter:     50,
			YawRange:   [2]float64{-180, 180},
			CountRange: [2]int{1, 6},
			Requested:  -1,
			Marker:     "Vehicle",
		},
		Split: Split{
			Total:          5,
			ParkingRatio:   0.5,
			LaneSeedOffset: 1000,
		},
		Overlap: Overlap{
			Mode:        OverlapDisk,
			MinDistance: 500, // twice the approximate car half-length (250)
			MaxAttempts: 50,
		},
		Sweep: Sweep{
			Marker:           "SynthgenManaged",
			ExcludedPosition: geom.V3(0, 0, -100000),
		},
		Camera: Camera{
			Position:      geom.V3(0, 0, 1000),
			Rotation:      geom.Rotator{Pitch: -30},
			FOV:           90,
			Margin:        0.8,
			MinVisibility: 50,
		},
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "synthgen",
			Password: "synthgen",
			DBName:   "synthgen",
			SSLMode:  "disable",
		},
	}
}

var validate = validator.New()

// Validate checks field constraints and cross-field rules.
func (g Generator) Validate() error {
	if err := validate.Struct(g); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	if g.Grid.CountRange[0] > g.Grid.CountRange[1] {
		return fmt.Errorf("validating config: grid count_range %v is inverted", g.Grid.CountRange)
	}
	if g.Grid.YawRange[0] > g.Grid.YawRange[1] {
		return fmt.Errorf("validating config: grid yaw_range %v is inverted", g.Grid.YawRange)
	}
	return nil
}

// Load loads generator config from a YAML file.
// If the file doesn't exist, returns defaults.
func Load(path string) (Generator, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}
