package tables

import "math/bits"

// Footprint is a 121-bit occupancy mask over the 11x11 window centred on
// the origin cell. Bit (dy+Reach)*WindowDim + (dx+Reach) marks cell (dx,dy).
type Footprint [2]uint64

func footprintBit(dx, dy int) (int, bool) {
	if dx < -Reach || dx > Reach || dy < -Reach || dy > Reach {
		return 0, false
	}
	return (dy+Reach)*WindowDim + (dx + Reach), true
}

func (f *Footprint) Set(dx, dy int) bool {
	b, ok := footprintBit(dx, dy)
	if ok {
		f[b>>6] |= 1 << (b & 63)
	}
	return ok
}

func (f Footprint) Has(dx, dy int) bool {
	b, ok := footprintBit(dx, dy)
	return ok && f[b>>6]&(1<<(b&63)) != 0
}

func (f Footprint) Count() int {
	return bits.OnesCount64(f[0]) + bits.OnesCount64(f[1])
}

func (f Footprint) Overlaps(o Footprint) bool {
	return f[0]&o[0] != 0 || f[1]&o[1] != 0
}

// Each calls fn for every set cell and stops when fn returns false.
func (f Footprint) Each(fn func(dx, dy int) bool) bool {
	for w := 0; w < 2; w++ {
		m := f[w]
		for m != 0 {
			b := w<<6 + bits.TrailingZeros64(m)
			m &= m - 1
			if !fn(b%WindowDim-Reach, b/WindowDim-Reach) {
				return false
			}
		}
	}
	return true
}
