package geom

import "math"

// Rotator is an orientation in degrees (engine convention: yaw about Z,
// pitch about Y, roll about X).
type Rotator struct {
	Pitch float64 `yaml:"pitch" json:"pitch"`
	Yaw   float64 `yaml:"yaw" json:"yaw"`
	Roll  float64 `yaml:"roll" json:"roll"`
}

// WithYaw returns a copy with the yaw replaced.
func (r Rotator) WithYaw(yaw float64) Rotator {
	r.Yaw = yaw
	return r
}

// Forward returns the unit direction the rotator faces.
func (r Rotator) Forward() Vec3 {
	p := Radians(r.Pitch)
	y := Radians(r.Yaw)
	cp := math.Cos(p)
	return Vec3{X: cp * math.Cos(y), Y: cp * math.Sin(y), Z: math.Sin(p)}
}

// NormalizeYaw maps any angle in degrees into [-180, 180)
// via ((yaw + 180) mod 360) - 180.
// Values already in range are returned unchanged, so the function is idempotent
// bit for bit.
func NormalizeYaw(yaw float64) float64 {
	if yaw >= -180 && yaw < 180 {
		return yaw
	}
	m := math.Mod(yaw+180, 360)
	if m < 0 {
		m += 360
	}
	if m >= 360 {
		m -= 360
	}
	return m - 180
}

// YawDelta returns the signed smallest difference a - b in degrees, in [-180, 180).
func YawDelta(a, b float64) float64 {
	return NormalizeYaw(a - b)
}

// Heading returns the yaw in degrees of a direction's XY projection.
func Heading(dir Vec3) float64 {
	return Degrees(math.Atan2(dir.Y, dir.X))
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
