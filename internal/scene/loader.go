package scene

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vantagecv/synthgen/internal/geom"
)

// Fixture is the YAML form of a scene.
type Fixture struct {
	// Ground is the height of the flat ground plane. Nil means no ground,
	// so every probe misses.
	Ground  *float64             `yaml:"ground_z"`
	Assets  map[string]geom.Vec3 `yaml:"assets"`
	Objects []FixtureObject      `yaml:"objects"`
}

// FixtureObject is one pre-placed scene object.
type FixtureObject struct {
	Name     string       `yaml:"name"`
	Asset    string       `yaml:"asset"`
	Position geom.Vec3    `yaml:"position"`
	Rotation geom.Rotator `yaml:"rotation"`
	Extent   geom.Vec3    `yaml:"extent"`
	Tags     []string     `yaml:"tags"`
	Hidden   bool         `yaml:"hidden"`
}

// Build creates a World from the fixture.
func (f Fixture) Build(spawnTags ...string) *World {
	w := NewWorld(spawnTags...)
	if f.Ground != nil {
		w.SetGround(*f.Ground)
	}
	for asset, extent := range f.Assets {
		w.RegisterAsset(asset, extent)
	}
	for _, o := range f.Objects {
		w.Add(Object{
			Name:      o.Name,
			Asset:     o.Asset,
			Transform: geom.NewTransform(o.Position, o.Rotation),
			Extent:    o.Extent,
			Tags:      o.Tags,
			Visible:   !o.Hidden,
			Collision: !o.Hidden,
		})
	}
	return w
}

// ParseFixture decodes a YAML scene fixture.
func ParseFixture(data []byte) (Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Fixture{}, fmt.Errorf("parsing scene fixture: %w", err)
	}
	for i, o := range f.Objects {
		if o.Name == "" {
			return Fixture{}, fmt.Errorf("scene object %d: name is required", i)
		}
	}
	return f, nil
}

// LoadFixture reads a YAML scene fixture from path.
func LoadFixture(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("reading scene %s: %w", path, err)
	}
	f, err := ParseFixture(data)
	if err != nil {
		return Fixture{}, fmt.Errorf("scene %s: %w", path, err)
	}
	return f, nil
}

// Load reads a fixture and builds a World from it.
func Load(path string, spawnTags ...string) (*World, error) {
	f, err := LoadFixture(path)
	if err != nil {
		return nil, err
	}
	return f.Build(spawnTags...), nil
}
