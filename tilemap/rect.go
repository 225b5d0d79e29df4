package tilemap

import "fmt"

// Point is a tile coordinate.
type Point struct {
	X, Y uint16
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Rect 是一块 tile 区域, Min 包含, Max 不包含.
type Rect struct {
	Min, Max Point
}

func (r Rect) Width() uint16  { return r.Max.X - r.Min.X }
func (r Rect) Height() uint16 { return r.Max.Y - r.Min.Y }

// Cells calls fn for every tile of r, row by row.
func (r Rect) Cells(fn func(x, y int)) {
	for y := int(r.Min.Y); y < int(r.Max.Y); y++ {
		for x := int(r.Min.X); x < int(r.Max.X); x++ {
			fn(x, y)
		}
	}
}

// Intersect clips r to other. Disjoint rects give the zero Rect.
func (r Rect) Intersect(other Rect) Rect {
	out := Rect{
		Min: Point{max(r.Min.X, other.Min.X), max(r.Min.Y, other.Min.Y)},
		Max: Point{min(r.Max.X, other.Max.X), min(r.Max.Y, other.Max.Y)},
	}
	if out.Empty() {
		return Rect{}
	}
	return out
}

func (r Rect) Empty() bool {
	return r.Min.X >= r.Max.X || r.Min.Y >= r.Max.Y
}

func (r Rect) String() string {
	return fmt.Sprintf("[%v, %v)", r.Min, r.Max)
}
