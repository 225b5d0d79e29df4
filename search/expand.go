package search

import (
	"math"

	"shipnav/route"
	"shipnav/tables"
)

// expandPlain relaxes the 8 unit steps around cur. A diagonal step needs
// both orthogonal cells it passes between to be open.
func (e *Engine) expandPlain(cur int32) {
	st := e.nodes[cur]
	x, y := int(st.X), int(st.Y)
	for _, o := range tables.Offsets[:8] {
		nx, ny := x+o.DX, y+o.DY
		if e.blocked(nx, ny) {
			continue
		}
		cost := int32(tables.StraightCost)
		if o.Diagonal() {
			// 反剪角
			if e.blocked(x+o.DX, y) || e.blocked(x, y+o.DY) {
				continue
			}
			cost = tables.DiagonalCost
		}
		e.relax(nx, ny, 0, st.G+cost, x, y, 0)
	}
}

func (e *Engine) numOffsets() int {
	if e.req.Mode == ModeDirectional8 {
		return tables.NumHeadings
	}
	return tables.NumOffsets
}

// target returns the neighbour cell for offset k of (x, y), or false when
// it is outside the window, blocked, or (restricted) not ahead on the
// coarse path.
func (e *Engine) target(x, y, k int, cand int16) (nx, ny int, ok bool) {
	o := tables.Offsets[k]
	nx, ny = x+o.DX, y+o.DY
	lx, ly, in := e.local(nx, ny)
	if !in || e.blocked(nx, ny) {
		return nx, ny, false
	}
	if e.req.Mode == ModeRestricted && e.candAt(lx, ly) <= cand {
		return nx, ny, false
	}
	return nx, ny, true
}

func (e *Engine) candOf(st *TileState) int16 {
	if e.req.Mode != ModeRestricted {
		return noCand
	}
	lx, ly, _ := e.local(int(st.X), int(st.Y))
	return e.candAt(lx, ly)
}

// loadObstacles rasterises the blocked cells of the 11x11 window around
// (x, y) into e.obstacles.
func (e *Engine) loadObstacles(x, y int) {
	e.obstacles = tables.Footprint{}
	for dy := -tables.Reach; dy <= tables.Reach; dy++ {
		for dx := -tables.Reach; dx <= tables.Reach; dx++ {
			if e.blocked(x+dx, y+dy) {
				e.obstacles.Set(dx, dy)
			}
		}
	}
}

// expandDirectional relaxes every precomputed sub-path leaving cur whose
// footprint misses all blocked cells.
func (e *Engine) expandDirectional(cur int32) {
	st := e.nodes[cur]
	x, y, h := int(st.X), int(st.Y), int(st.Heading)
	cand := e.candOf(&st)
	e.loadObstacles(x, y)
	for k := 0; k < e.numOffsets(); k++ {
		nx, ny, ok := e.target(x, y, k, cand)
		if !ok {
			continue
		}
		for h1 := 0; h1 < tables.NumHeadings; h1++ {
			sp := e.tabs.SubPath(h, k, h1)
			if !sp.Valid || sp.Footprint.Overlaps(e.obstacles) {
				continue
			}
			e.relax(nx, ny, h1, st.G+int32(sp.Cost), x, y, int8(h))
		}
	}
}

// expandOrigin is expandDirectional for the root: the ship is rarely on a
// cell centre or a discrete heading, so every edge is planned and
// ray-marched from the continuous origin pose.
func (e *Engine) expandOrigin(cur int32) {
	st := e.nodes[cur]
	x, y, h := int(st.X), int(st.Y), int(st.Heading)
	cand := e.candOf(&st)
	p := e.tabs.Params
	for k := 0; k < e.numOffsets(); k++ {
		nx, ny, ok := e.target(x, y, k, cand)
		if !ok {
			continue
		}
		for h1 := 0; h1 < tables.NumHeadings; h1++ {
			end := route.At(route.CellCenter(nx, ny), route.HeadingAngle(h1))
			for _, rt := range route.PlanAll(e.req.Origin, end, p.TurnRadius, p.Discretize) {
				if !e.collider.Clear(&rt) {
					continue
				}
				cost := int32(math.Round(rt.Length * tables.CostScale))
				e.relax(nx, ny, h1, st.G+cost, x, y, int8(h))
				break
			}
		}
	}
}
