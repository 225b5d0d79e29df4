package tilemap

import (
	"errors"
	"fmt"
	"math/bits"
)

// ChunkDim 地形分块边长.
const ChunkDim = 32 // 必须为2的n次幂
const chunkCells = ChunkDim * ChunkDim
const chunkWords = chunkCells / 64

// MaxDim is the largest width or height a grid may have.
const MaxDim = 1 << 15

var ErrBadSize = errors.New("tilemap: invalid grid size")

// chunk is the blocking bitset of a ChunkDim x ChunkDim block. A nil
// chunk is entirely open water.
type chunk struct {
	bits    [chunkWords]uint64
	blocked int
}

// Grid is a static blocking-tile map stored in chunks. It is safe for
// concurrent reads once built; SetBlocked must not race with readers.
type Grid struct {
	bounds Rect
	cw, ch int // chunk columns / rows
	chunks []*chunk
}

// New creates an open grid of w x h tiles.
func New(w, h int) (*Grid, error) {
	if w <= 0 || h <= 0 || w > MaxDim || h > MaxDim {
		return nil, fmt.Errorf("%dx%d: %w", w, h, ErrBadSize)
	}
	cw := (w + ChunkDim - 1) / ChunkDim
	ch := (h + ChunkDim - 1) / ChunkDim
	return &Grid{
		bounds: Rect{Max: Point{uint16(w), uint16(h)}},
		cw:     cw,
		ch:     ch,
		chunks: make([]*chunk, cw*ch),
	}, nil
}

func (g *Grid) Width() int   { return int(g.bounds.Width()) }
func (g *Grid) Height() int  { return int(g.bounds.Height()) }
func (g *Grid) Bounds() Rect { return g.bounds }

func (g *Grid) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.Width() && y < g.Height()
}

func (g *Grid) locate(x, y int) (ci int, bit int) {
	cx, cy := x/ChunkDim, y/ChunkDim
	lx, ly := x&(ChunkDim-1), y&(ChunkDim-1)
	return cy*g.cw + cx, ly*ChunkDim + lx
}

// Blocked reports whether tile (x, y) is impassable. Tiles outside the
// grid report false; callers decide the out-of-bounds policy.
func (g *Grid) Blocked(x, y int) bool {
	if !g.Contains(x, y) {
		return false
	}
	ci, b := g.locate(x, y)
	c := g.chunks[ci]
	return c != nil && c.bits[b>>6]&(1<<(b&63)) != 0
}

// SetBlocked marks tile (x, y). Out of range tiles are ignored.
func (g *Grid) SetBlocked(x, y int, blocked bool) {
	if !g.Contains(x, y) {
		return
	}
	ci, b := g.locate(x, y)
	c := g.chunks[ci]
	if c == nil {
		if !blocked {
			return
		}
		c = &chunk{}
		g.chunks[ci] = c
	}
	mask := uint64(1) << (b & 63)
	was := c.bits[b>>6]&mask != 0
	switch {
	case blocked && !was:
		c.bits[b>>6] |= mask
		c.blocked++
	case !blocked && was:
		c.bits[b>>6] &^= mask
		c.blocked--
		if c.blocked == 0 {
			// 整块可通行时回收
			g.chunks[ci] = nil
		}
	}
}

// FillRect sets every tile of r.
func (g *Grid) FillRect(r Rect, blocked bool) {
	r.Intersect(g.bounds).Cells(func(x, y int) {
		g.SetBlocked(x, y, blocked)
	})
}

// BlockedCount is the number of blocked tiles.
func (g *Grid) BlockedCount() int {
	n := 0
	for _, c := range g.chunks {
		if c != nil {
			n += c.blocked
		}
	}
	return n
}

// Equal reports whether both grids have the same size and tiles.
func (g *Grid) Equal(o *Grid) bool {
	if g.bounds != o.bounds {
		return false
	}
	for i := range g.chunks {
		a, b := g.chunks[i], o.chunks[i]
		if (a == nil) != (b == nil) || (a != nil && a.bits != b.bits) {
			return false
		}
	}
	return true
}

func (c *chunk) count() int {
	n := 0
	for _, w := range c.bits {
		n += bits.OnesCount64(w)
	}
	return n
}
