package route

import "math"

// DefaultRayStep is the ray-march step used when none is configured.
const DefaultRayStep = 0.25

// Grid is the blocking-tile map. Coordinates outside [0,Width)x[0,Height)
// are outside the play area; Blocked is only asked about inside cells.
type Grid interface {
	Width() int
	Height() int
	Blocked(x, y int) bool
}

// OOBPolicy decides whether leaving the play area counts as a collision.
type OOBPolicy uint8

const (
	// OOBBlock treats every cell outside the grid as blocked.
	OOBBlock OOBPolicy = iota
	// OOBAllow treats every cell outside the grid as open water.
	OOBAllow
	// OOBTolerate allows excursions up to a tolerance distance outside.
	OOBTolerate
)

func (p OOBPolicy) String() string {
	switch p {
	case OOBAllow:
		return "allow"
	case OOBTolerate:
		return "tolerate"
	default:
		return "block"
	}
}

// ParseOOBPolicy is the inverse of OOBPolicy.String.
func ParseOOBPolicy(s string) (OOBPolicy, bool) {
	switch s {
	case "block", "":
		return OOBBlock, true
	case "allow":
		return OOBAllow, true
	case "tolerate":
		return OOBTolerate, true
	}
	return OOBBlock, false
}

// DiskCells calls fn for every cell overlapped by the disk of radius half
// around p. With half == 0 only the cell containing p is visited.
func DiskCells(p Vec2, half float64, fn func(x, y int) bool) bool {
	x0, y0 := int(math.Floor(p.X-half)), int(math.Floor(p.Y-half))
	x1, y1 := int(math.Floor(p.X+half)), int(math.Floor(p.Y+half))
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			// nearest point of the cell to p
			nx := Clamp(p.X, float64(x), float64(x+1))
			ny := Clamp(p.Y, float64(y), float64(y+1))
			if math.Hypot(p.X-nx, p.Y-ny) > half+epsilon {
				continue
			}
			if !fn(x, y) {
				return false
			}
		}
	}
	return true
}

// Collider ray-marches routes against a grid.
type Collider struct {
	Grid      Grid
	Width     float64 // ship width in tiles
	Step      float64 // ray-march step in tiles
	Policy    OOBPolicy
	Tolerance float64 // only for OOBTolerate
}

func (c *Collider) inside(x, y int) bool {
	return x >= 0 && y >= 0 && x < c.Grid.Width() && y < c.Grid.Height()
}

// outside returns how far p lies outside the play area.
func (c *Collider) outside(p Vec2) float64 {
	w, h := float64(c.Grid.Width()), float64(c.Grid.Height())
	dx := math.Max(0, math.Max(-p.X, p.X-w))
	dy := math.Max(0, math.Max(-p.Y, p.Y-h))
	return math.Hypot(dx, dy)
}

// PointClear reports whether the ship footprint centred on p is clear.
func (c *Collider) PointClear(p Vec2) bool {
	if c.Policy == OOBTolerate && c.outside(p) > c.Tolerance {
		return false
	}
	return DiskCells(p, c.Width/2, func(x, y int) bool {
		if c.inside(x, y) {
			return !c.Grid.Blocked(x, y)
		}
		return c.Policy != OOBBlock
	})
}

// Clear ray-marches rt and reports whether no sample collides.
func (c *Collider) Clear(rt *Route) bool {
	return rt.Sample(c.Step, func(p Pose) bool {
		return c.PointClear(p.Pos)
	})
}
