package search

import (
	"fmt"
	"math"

	"shipnav/route"
	"shipnav/tables"
)

// Grid is the blocking-tile map the engine searches.
type Grid = route.Grid

type Mode uint8

const (
	// ModePlain searches cells with 8 unit steps, no heading.
	ModePlain Mode = iota
	// ModeDirectional8 searches (cell, heading) with ring-1 sub-paths.
	ModeDirectional8
	// ModeDirectional48 searches (cell, heading) with all 48 sub-paths.
	ModeDirectional48
	// ModeRestricted is a directional search limited to the cells of a
	// coarse path, always moving forward along it.
	ModeRestricted
)

func (m Mode) String() string {
	switch m {
	case ModePlain:
		return "plain"
	case ModeDirectional8:
		return "directional8"
	case ModeDirectional48:
		return "directional48"
	case ModeRestricted:
		return "restricted"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

func (m Mode) directional() bool { return m != ModePlain }

// HeadingMask is a set of allowed discrete headings; zero allows any.
type HeadingMask uint8

func MaskOf(headings ...int) HeadingMask {
	var m HeadingMask
	for _, h := range headings {
		m |= 1 << (h & 7)
	}
	return m
}

func (m HeadingMask) Allows(h int) bool {
	return m == 0 || m&(1<<(h&7)) != 0
}

// Request is one search query.
type Request struct {
	Origin      route.Pose
	Dest        route.Vec2
	EndHeadings HeadingMask
	Mode        Mode
	// Candidates is the coarse path for ModeRestricted, origin first. The
	// last candidate is the goal cell.
	Candidates []route.Vec2
}

// Options configures an Engine. Turn radius and width come from the tables.
type Options struct {
	WindowSize   int
	MaxWaypoints int
	RayStep      float64
	Policy       route.OOBPolicy
	Tolerance    float64
}

const (
	DefaultWindowSize   = 64
	DefaultMaxWaypoints = 256
)

// MinWindowSize is the smallest window that still fits one local sub-path
// window around each endpoint.
const MinWindowSize = 2*tables.Reach + 2

const (
	nilRef   int32 = -1
	noParent int8  = -1
	noCand   int16 = -1
)

const numStates = tables.NumHeadings

// NodeRef identifies a search state inside the engine's window.
type NodeRef int32

// TileState is the search state of one (x, y, heading). X and Y are grid
// coordinates. In plain mode Heading is always 0.
type TileState struct {
	X, Y    int32
	Heading int8
	Open    bool

	G, F int32

	ParentX, ParentY int32
	ParentHeading    int8

	// open list links
	Prev, Next int32
}

// Engine is a bounded-window A* over a blocking grid. It owns its state
// arrays and is not safe for concurrent use; see Pool.
type Engine struct {
	grid     Grid
	tabs     *tables.Set
	opts     Options
	collider route.Collider

	size   int
	ox, oy int // grid coordinates of window cell (0,0)

	nodes   []TileState
	visited []uint64

	first, last int32

	// per call
	req          Request
	root         int32
	goalX, goalY int
	candIndex    []int16
	remaining    []int32
	best         int32
	bestCand     int16
	obstacles    tables.Footprint

	// Expanded counts the nodes popped by the last search.
	Expanded int
}

// New creates an engine for grid using the sub-path and heuristic tables
// in tabs.
func New(grid Grid, tabs *tables.Set, opts Options) *Engine {
	if opts.WindowSize < MinWindowSize {
		opts.WindowSize = max(DefaultWindowSize, MinWindowSize)
	}
	if opts.MaxWaypoints <= 0 {
		opts.MaxWaypoints = DefaultMaxWaypoints
	}
	if opts.RayStep <= 0 {
		opts.RayStep = route.DefaultRayStep
	}
	n := opts.WindowSize * opts.WindowSize
	return &Engine{
		grid: grid,
		tabs: tabs,
		opts: opts,
		collider: route.Collider{
			Grid:      grid,
			Width:     tabs.Params.Width,
			Step:      opts.RayStep,
			Policy:    opts.Policy,
			Tolerance: opts.Tolerance,
		},
		size:      opts.WindowSize,
		nodes:     make([]TileState, n*numStates),
		visited:   make([]uint64, (n*numStates+63)/64),
		candIndex: make([]int16, n),
	}
}

func (e *Engine) Grid() Grid {
	return e.grid
}

func (e *Engine) Tables() *tables.Set {
	return e.tabs
}

func (e *Engine) Options() Options {
	return e.opts
}

// State returns the state behind ref. It is valid until the next search.
func (e *Engine) State(ref NodeRef) *TileState {
	return &e.nodes[ref]
}

// Cost is the cost-from-start of ref.
func (e *Engine) Cost(ref NodeRef) int32 {
	return e.nodes[ref].G
}

// BestReached returns the node of the last restricted search that got
// farthest along the candidate list, lowest cost first.
func (e *Engine) BestReached() (NodeRef, bool) {
	return NodeRef(e.best), e.best != nilRef
}

func (e *Engine) local(x, y int) (lx, ly int, ok bool) {
	lx, ly = x-e.ox, y-e.oy
	return lx, ly, lx >= 0 && ly >= 0 && lx < e.size && ly < e.size
}

func (e *Engine) index(lx, ly, h int) int32 {
	return int32((ly*e.size+lx)*numStates + h)
}

func (e *Engine) isVisited(i int32) bool {
	return e.visited[i>>6]&(1<<(i&63)) != 0
}

func (e *Engine) markVisited(i int32) {
	e.visited[i>>6] |= 1 << (i & 63)
}

// blocked reports whether grid cell (x, y) is impassable. Cells outside
// the grid are blocked unless the policy allows leaving the play area;
// under OOBTolerate a cell is open while its centre is within the
// tolerance of the edge.
func (e *Engine) blocked(x, y int) bool {
	if x < 0 || y < 0 || x >= e.grid.Width() || y >= e.grid.Height() {
		switch e.opts.Policy {
		case route.OOBAllow:
			return false
		case route.OOBTolerate:
			return !e.collider.PointClear(route.CellCenter(x, y))
		}
		return true
	}
	return e.grid.Blocked(x, y)
}

// setup positions the window and resets all per-call state.
func (e *Engine) setup(req Request) error {
	e.req = req
	e.Expanded = 0
	e.best, e.bestCand = nilRef, noCand
	e.first, e.last = nilRef, nilRef
	clear(e.visited)

	sx, sy := req.Origin.Pos.Cell()
	dx, dy := req.Dest.Cell()
	if req.Mode == ModeRestricted {
		if len(req.Candidates) == 0 {
			return fmt.Errorf("restricted search without candidates: %w", ErrPathNotFound)
		}
		dx, dy = req.Candidates[len(req.Candidates)-1].Cell()
	}
	e.goalX, e.goalY = dx, dy

	e.ox = floorDiv(sx+dx, 2) - e.size/2
	e.oy = floorDiv(sy+dy, 2) - e.size/2
	for _, p := range [2][2]int{{sx, sy}, {dx, dy}} {
		lx, ly, _ := e.local(p[0], p[1])
		if lx < tables.Reach || ly < tables.Reach || lx >= e.size-tables.Reach || ly >= e.size-tables.Reach {
			return fmt.Errorf("(%d,%d) -> (%d,%d) with window %d: %w", sx, sy, dx, dy, e.size, ErrEndpointsTooFarApart)
		}
	}

	if req.Mode == ModeRestricted {
		e.indexCandidates(req.Candidates)
	}
	return nil
}

// indexCandidates fills candIndex and the remaining-length table.
func (e *Engine) indexCandidates(cands []route.Vec2) {
	for i := range e.candIndex {
		e.candIndex[i] = noCand
	}
	e.remaining = e.remaining[:0]
	e.remaining = append(e.remaining, make([]int32, len(cands))...)
	for i := len(cands) - 2; i >= 0; i-- {
		step := int32(math.Round(cands[i].Dist(cands[i+1]) * tables.CostScale))
		e.remaining[i] = e.remaining[i+1] + step
	}
	for i, c := range cands {
		if i > math.MaxInt16 {
			break
		}
		x, y := c.Cell()
		if lx, ly, ok := e.local(x, y); ok {
			e.candIndex[ly*e.size+lx] = int16(i)
		}
	}
}

func (e *Engine) candAt(lx, ly int) int16 {
	return e.candIndex[ly*e.size+lx]
}

// Search runs one query and returns the goal node.
func (e *Engine) Search(req Request) (NodeRef, error) {
	if err := e.setup(req); err != nil {
		return NodeRef(nilRef), err
	}

	sx, sy := req.Origin.Pos.Cell()
	h0 := 0
	if req.Mode.directional() && req.Origin.HasHeading {
		h0 = route.NearestHeading(req.Origin.Heading)
	}
	lx, ly, _ := e.local(sx, sy)
	e.root = e.index(lx, ly, h0)
	if req.Mode == ModeRestricted && e.candAt(lx, ly) == noCand {
		return NodeRef(nilRef), fmt.Errorf("origin (%d,%d) is not on the coarse path: %w", sx, sy, ErrPathNotFound)
	}
	e.relax(sx, sy, h0, 0, sx, sy, noParent)

	for e.first != nilRef {
		cur := e.popMin()
		st := &e.nodes[cur]
		e.Expanded++
		if int(st.X) == e.goalX && int(st.Y) == e.goalY && (!req.Mode.directional() || req.EndHeadings.Allows(int(st.Heading))) {
			return NodeRef(cur), nil
		}
		switch {
		case !req.Mode.directional():
			e.expandPlain(cur)
		case cur == e.root:
			e.expandOrigin(cur)
		default:
			e.expandDirectional(cur)
		}
	}
	return NodeRef(nilRef), fmt.Errorf("%s search after %d expansions: %w", req.Mode, e.Expanded, ErrPathNotFound)
}

// Find runs one query and reconstructs its waypoints.
func (e *Engine) Find(req Request) ([]route.Pose, error) {
	ref, err := e.Search(req)
	if err != nil {
		return nil, err
	}
	return e.Reconstruct(ref)
}

// relax records cost g for state (x, y, h) reached from parent (px, py,
// ph). Unvisited states are initialised; visited ones, closed included,
// are only updated on a strict improvement.
func (e *Engine) relax(x, y, h int, g int32, px, py int, ph int8) {
	lx, ly, ok := e.local(x, y)
	if !ok {
		return
	}
	i := e.index(lx, ly, h)
	st := &e.nodes[i]
	if !e.isVisited(i) {
		e.markVisited(i)
		*st = TileState{
			X:       int32(x),
			Y:       int32(y),
			Heading: int8(h),
			G:       g,
			F:       g + e.heuristic(x, y, h),
			Prev:    nilRef,
			Next:    nilRef,
		}
	} else if st.G > g {
		st.F = g + (st.F - st.G)
		st.G = g
	} else {
		return
	}
	st.ParentX, st.ParentY, st.ParentHeading = int32(px), int32(py), ph
	if !st.Open {
		e.push(i)
	}
	if e.req.Mode == ModeRestricted {
		e.trackBest(i, e.candAt(lx, ly))
	}
}

func (e *Engine) trackBest(i int32, c int16) {
	if e.best == nilRef || c > e.bestCand || (c == e.bestCand && e.nodes[i].G < e.nodes[e.best].G) {
		e.best, e.bestCand = i, c
	}
}

// heuristic estimates the remaining cost from state (x, y, h).
func (e *Engine) heuristic(x, y, h int) int32 {
	switch e.req.Mode {
	case ModePlain:
		return octile(x-e.goalX, y-e.goalY)
	case ModeRestricted:
		lx, ly, _ := e.local(x, y)
		if c := e.candAt(lx, ly); c != noCand {
			return e.remaining[c]
		}
		return 0
	default:
		from := route.CellCenter(x, y)
		to := route.CellCenter(e.goalX, e.goalY)
		d := to.Sub(from)
		if d.Len() == 0 {
			return 0
		}
		return e.tabs.Estimate(d.Len(), route.HeadingAngle(h)-d.Angle())
	}
}

func octile(dx, dy int) int32 {
	dx, dy = route.Abs(dx), route.Abs(dy)
	lo, hi := min(dx, dy), max(dx, dy)
	return int32((hi-lo)*tables.StraightCost + lo*tables.DiagonalCost)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// push appends node i to the open list.
func (e *Engine) push(i int32) {
	st := &e.nodes[i]
	st.Open = true
	st.Prev, st.Next = e.last, nilRef
	if e.last != nilRef {
		e.nodes[e.last].Next = i
	} else {
		e.first = i
	}
	e.last = i
}

func (e *Engine) unlink(i int32) {
	st := &e.nodes[i]
	if st.Prev != nilRef {
		e.nodes[st.Prev].Next = st.Next
	} else {
		e.first = st.Next
	}
	if st.Next != nilRef {
		e.nodes[st.Next].Prev = st.Prev
	} else {
		e.last = st.Prev
	}
	st.Prev, st.Next = nilRef, nilRef
	st.Open = false
}

// popMin removes and returns the open node with the lowest F. Ties go to
// the node inserted first.
func (e *Engine) popMin() int32 {
	best := e.first
	for i := e.nodes[best].Next; i != nilRef; i = e.nodes[i].Next {
		if e.nodes[i].F < e.nodes[best].F {
			best = i
		}
	}
	e.unlink(best)
	return best
}
