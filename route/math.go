package route

import (
	"math"

	"golang.org/x/exp/constraints"
)

const (
	epsilon = 1e-9
	twoPi   = 2 * math.Pi

	// HeadingStep is the angle between two adjacent discrete headings.
	HeadingStep = math.Pi / 4
	// NumHeadings 离散朝向数量, 0=E 2=N 4=W 6=S.
	NumHeadings = 8
)

// Vec2 is a position or displacement in tile units.
type Vec2 struct {
	X, Y float64
}

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) Dot(o Vec2) float64   { return v.X*o.X + v.Y*o.Y }
func (v Vec2) Len() float64         { return math.Hypot(v.X, v.Y) }
func (v Vec2) Dist(o Vec2) float64  { return v.Sub(o).Len() }
func (v Vec2) Angle() float64       { return math.Atan2(v.Y, v.X) }
func (v Vec2) Cell() (x, y int)     { return int(math.Floor(v.X)), int(math.Floor(v.Y)) }
func (v Vec2) Equal(o Vec2) bool    { return Abs(v.X-o.X) < epsilon && Abs(v.Y-o.Y) < epsilon }

func (v Vec2) Lerp(o Vec2, t float64) Vec2 {
	return v.Add(o.Sub(v).Scale(t))
}

// Unit returns the unit vector for angle a.
func Unit(a float64) Vec2 {
	return Vec2{math.Cos(a), math.Sin(a)}
}

// CellCenter returns the centre of tile (x, y).
func CellCenter(x, y int) Vec2 {
	return Vec2{float64(x) + 0.5, float64(y) + 0.5}
}

// HeadingAngle converts a discrete heading index to radians.
func HeadingAngle(h int) float64 {
	return float64(h) * HeadingStep
}

// NearestHeading quantizes an angle to the closest discrete heading.
func NearestHeading(a float64) int {
	h := int(math.Round(Mod2Pi(a) / HeadingStep))
	return h % NumHeadings
}

// Mod2Pi wraps a into [0, 2π).
func Mod2Pi(a float64) float64 {
	a = a - twoPi*math.Floor(a/twoPi)
	if a >= twoPi {
		a = 0
	}
	return a
}

// AngleDiff returns the absolute difference of two angles in [0, π].
func AngleDiff(a, b float64) float64 {
	d := Mod2Pi(a - b)
	if d > math.Pi {
		d = twoPi - d
	}
	return d
}

func Abs[V constraints.Integer | constraints.Float](x V) V {
	if x < 0 {
		return -x
	}
	return x
}

func Sign[V constraints.Signed | constraints.Float](x V) V {
	if x < 0 {
		return -1
	}
	return 1
}

func Clamp[T constraints.Ordered](x, low, high T) T {
	if x < low {
		return low
	}
	if x > high {
		return high
	}
	return x
}
