package tables

import (
	"math"
	"sort"
)

const (
	// Reach is the half size of the local window a sub-path may sweep.
	Reach = 5
	// WindowDim is the side of the local window, 11 cells.
	WindowDim = 2*Reach + 1

	// NumHeadings is the number of discrete headings.
	NumHeadings = 8
	// NumOffsets is the number of neighbour offsets of the curved search:
	// every cell at Chebyshev distance 1..3.
	NumOffsets = 48

	// CostScale converts tile lengths to fixed point costs.
	CostScale = 100
	// StraightCost / DiagonalCost are the plain 8-direction step costs.
	StraightCost = 100
	DiagonalCost = 141

	// MaxEdgeCost is the largest cost a SubPath entry can hold.
	MaxEdgeCost = math.MaxUint16
)

// Offset is a neighbour position relative to the current cell.
type Offset struct {
	DX, DY int
}

// Ring is the Chebyshev distance of the offset.
func (o Offset) Ring() int {
	return max(abs(o.DX), abs(o.DY))
}

// Diagonal reports whether o is a ring-1 diagonal step.
func (o Offset) Diagonal() bool {
	return o.DX != 0 && o.DY != 0 && o.Ring() == 1
}

// Offsets lists the 48 neighbours: ring 1 first, then ring 2, then ring 3,
// each ring ordered by angle starting at +X. Offsets[h] for h < 8 is the
// unit step of discrete heading h.
var Offsets = buildOffsets()

// OffsetIndex maps (dx+3, dy+3) to the index in Offsets, or -1.
var OffsetIndex = buildOffsetIndex()

func buildOffsets() [NumOffsets]Offset {
	var all []Offset
	for dy := -3; dy <= 3; dy++ {
		for dx := -3; dx <= 3; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			all = append(all, Offset{dx, dy})
		}
	}
	angle := func(o Offset) float64 {
		a := math.Atan2(float64(o.DY), float64(o.DX))
		if a < 0 {
			a += 2 * math.Pi
		}
		return a
	}
	sort.Slice(all, func(i, j int) bool {
		ri, rj := all[i].Ring(), all[j].Ring()
		if ri != rj {
			return ri < rj
		}
		return angle(all[i]) < angle(all[j])
	})
	var out [NumOffsets]Offset
	copy(out[:], all)
	return out
}

func buildOffsetIndex() [7][7]int8 {
	var idx [7][7]int8
	for i := range idx {
		for j := range idx[i] {
			idx[i][j] = -1
		}
	}
	for k, o := range Offsets {
		idx[o.DX+3][o.DY+3] = int8(k)
	}
	return idx
}

// Lookup returns the index of (dx, dy) in Offsets.
func Lookup(dx, dy int) (int, bool) {
	if dx < -3 || dx > 3 || dy < -3 || dy > 3 {
		return 0, false
	}
	k := OffsetIndex[dx+3][dy+3]
	return int(k), k >= 0
}

func abs(a int) int {
	if a < 0 {
		return -a
	}
	return a
}
