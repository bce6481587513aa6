package geom

import "fmt"

// Transform is a world pose. Scale is carried for the spawner but never
// randomized by placement.
type Transform struct {
	Location Vec3    `yaml:"location" json:"location"`
	Rotation Rotator `yaml:"rotation" json:"rotation"`
	Scale    float64 `yaml:"scale,omitempty" json:"scale,omitempty"`
}

// NewTransform creates a unit-scale transform.
func NewTransform(loc Vec3, rot Rotator) Transform {
	return Transform{Location: loc, Rotation: rot, Scale: 1}
}

// WithLocation returns a copy with the location replaced (immutable pattern).
func (t Transform) WithLocation(loc Vec3) Transform {
	t.Location = loc
	return t
}

// String formats the transform for log lines.
func (t Transform) String() string {
	return fmt.Sprintf("(%.1f, %.1f, %.1f) yaw=%.1f",
		t.Location.X, t.Location.Y, t.Location.Z, t.Rotation.Yaw)
}

// Box is an axis-aligned bounding box.
type Box struct {
	Min Vec3 `yaml:"min" json:"min"`
	Max Vec3 `yaml:"max" json:"max"`
}

// BoxFromPoints returns the box spanned by two corners in any order.
func BoxFromPoints(a, b Vec3) Box {
	return Box{Min: Min(a, b), Max: Max(a, b)}
}

// BoxFromCenter returns the box centered at c with half-extent e.
func BoxFromCenter(c, e Vec3) Box {
	return Box{Min: c.Sub(e), Max: c.Add(e)}
}

// Center returns the box midpoint.
func (b Box) Center() Vec3 {
	return Lerp(b.Min, b.Max, 0.5)
}

// Corners returns the 8 corners of the box.
func (b Box) Corners() [8]Vec3 {
	return [8]Vec3{
		{b.Max.X, b.Max.Y, b.Max.Z},
		{b.Max.X, b.Max.Y, b.Min.Z},
		{b.Max.X, b.Min.Y, b.Max.Z},
		{b.Max.X, b.Min.Y, b.Min.Z},
		{b.Min.X, b.Max.Y, b.Max.Z},
		{b.Min.X, b.Max.Y, b.Min.Z},
		{b.Min.X, b.Min.Y, b.Max.Z},
		{b.Min.X, b.Min.Y, b.Min.Z},
	}
}

// ContainsXY reports whether (x, y) lies inside the box footprint.
func (b Box) ContainsXY(x, y float64) bool {
	return x >= b.Min.X && x <= b.Max.X && y >= b.Min.Y && y <= b.Max.Y
}
