package search

import (
	"context"
	"errors"
	"math/rand"
	"reflect"
	"sync"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"shipnav/route"
	"shipnav/tables"
	"shipnav/tilemap"
)

var (
	unitOnce sync.Once
	unitSet  *tables.Set
	unitErr  error
)

// unitTables: turn radius 1, zero width
func unitTables(tb testing.TB) *tables.Set {
	tb.Helper()
	unitOnce.Do(func() {
		unitSet, unitErr = tables.Build(context.Background(), tables.Params{TurnRadius: 1})
	})
	if unitErr != nil {
		tb.Fatalf("tables.Build: %v", unitErr)
	}
	return unitSet
}

func newEngine(tb testing.TB, g Grid, opts Options) *Engine {
	if opts.WindowSize == 0 {
		opts.WindowSize = 32
	}
	return New(g, unitTables(tb), opts)
}

func open(tb testing.TB, w, h int) *tilemap.Grid {
	g, err := tilemap.New(w, h)
	if err != nil {
		tb.Fatalf("tilemap.New: %v", err)
	}
	return g
}

func plainReq(sx, sy, dx, dy int) Request {
	return Request{
		Origin: route.Free(route.CellCenter(sx, sy)),
		Dest:   route.CellCenter(dx, dy),
		Mode:   ModePlain,
	}
}

func TestPlainDiagonal(t *testing.T) {
	e := newEngine(t, open(t, 10, 10), Options{})
	ref, err := e.Search(plainReq(1, 1, 8, 8))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got := e.Cost(ref); got != 7*tables.DiagonalCost {
		t.Fatalf("cost = %d, want %d", got, 7*tables.DiagonalCost)
	}
	wps, err := e.Reconstruct(ref)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	if len(wps) != 8 {
		t.Fatalf("%d waypoints, want 8\n%s", len(wps), spew.Sdump(wps))
	}
	for i, wp := range wps {
		if wp.HasHeading {
			t.Fatalf("plain waypoint %d has a heading", i)
		}
		if want := route.CellCenter(1+i, 1+i); !wp.Pos.Equal(want) {
			t.Fatalf("waypoint %d at %v, want %v", i, wp.Pos, want)
		}
	}
}

func TestPlainEndpointsExact(t *testing.T) {
	e := newEngine(t, open(t, 10, 10), Options{})
	req := Request{
		Origin: route.Free(route.Vec2{X: 1.2, Y: 1.7}),
		Dest:   route.Vec2{X: 6.9, Y: 2.1},
		Mode:   ModePlain,
	}
	wps, err := e.Find(req)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if !wps[0].Pos.Equal(req.Origin.Pos) || !wps[len(wps)-1].Pos.Equal(req.Dest) {
		t.Fatalf("endpoints %v .. %v", wps[0].Pos, wps[len(wps)-1].Pos)
	}
}

func TestSameCell(t *testing.T) {
	e := newEngine(t, open(t, 10, 10), Options{})
	req := Request{
		Origin: route.Free(route.Vec2{X: 4.2, Y: 4.2}),
		Dest:   route.Vec2{X: 4.8, Y: 4.7},
		Mode:   ModePlain,
	}
	wps, err := e.Find(req)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(wps) != 2 || !wps[1].Pos.Equal(req.Dest) {
		t.Fatalf("got %s", spew.Sdump(wps))
	}
}

// dijkstra is a reference for plain mode costs.
func dijkstra(g *tilemap.Grid, sx, sy, dx, dy int) int32 {
	w, h := g.Width(), g.Height()
	const inf = int32(1 << 30)
	dist := make([]int32, w*h)
	done := make([]bool, w*h)
	for i := range dist {
		dist[i] = inf
	}
	dist[sy*w+sx] = 0
	free := func(x, y int) bool { return g.Contains(x, y) && !g.Blocked(x, y) }
	for {
		best := -1
		for i := range dist {
			if !done[i] && dist[i] < inf && (best < 0 || dist[i] < dist[best]) {
				best = i
			}
		}
		if best < 0 {
			return -1
		}
		if best == dy*w+dx {
			return dist[best]
		}
		done[best] = true
		x, y := best%w, best/w
		for _, o := range tables.Offsets[:8] {
			nx, ny := x+o.DX, y+o.DY
			if !free(nx, ny) {
				continue
			}
			c := int32(tables.StraightCost)
			if o.Diagonal() {
				if !free(x+o.DX, y) || !free(x, y+o.DY) {
					continue
				}
				c = tables.DiagonalCost
			}
			if d := dist[best] + c; d < dist[ny*w+nx] {
				dist[ny*w+nx] = d
			}
		}
	}
}

func TestPlainOptimal(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for trial := 0; trial < 40; trial++ {
		g := open(t, 9, 9)
		for i := 0; i < 18; i++ {
			g.SetBlocked(rng.Intn(9), rng.Intn(9), true)
		}
		g.SetBlocked(0, 0, false)
		g.SetBlocked(8, 8, false)
		want := dijkstra(g, 0, 0, 8, 8)
		e := newEngine(t, g, Options{})
		ref, err := e.Search(plainReq(0, 0, 8, 8))
		if want < 0 {
			if !errors.Is(err, ErrPathNotFound) {
				t.Fatalf("trial %d: err = %v, want not found\n%s", trial, err, g)
			}
			continue
		}
		if err != nil {
			t.Fatalf("trial %d: %v\n%s", trial, err, g)
		}
		if got := e.Cost(ref); got != want {
			t.Fatalf("trial %d: cost %d, want %d\n%s", trial, got, want, g)
		}
	}
}

const wall = `
..........
..........
.....#....
.....#....
.....#....
.....#....
.....#....
..........
..........
..........`

func TestPlainWallDetour(t *testing.T) {
	g := tilemap.MustParse(wall)
	e := newEngine(t, g, Options{})
	wps, err := e.Find(plainReq(2, 4, 8, 4))
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	for i, wp := range wps {
		x, y := wp.Pos.Cell()
		if g.Blocked(x, y) {
			t.Fatalf("waypoint %d on blocked cell (%d,%d)", i, x, y)
		}
		if i > 0 {
			px, py := wps[i-1].Pos.Cell()
			if route.Abs(x-px) > 1 || route.Abs(y-py) > 1 {
				t.Fatalf("waypoints %d and %d are not neighbours", i-1, i)
			}
		}
	}
}

func TestReconstructDeterministic(t *testing.T) {
	g := tilemap.MustParse(wall)
	a := newEngine(t, g, Options{})
	b := newEngine(t, g, Options{})
	req := plainReq(1, 1, 8, 8)
	first, err := a.Find(req)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	again, _ := a.Find(req)
	other, _ := b.Find(req)
	if !reflect.DeepEqual(first, again) || !reflect.DeepEqual(first, other) {
		t.Fatalf("non-deterministic reconstruction:\n%s\n%s", spew.Sdump(first), spew.Sdump(other))
	}
}

func TestPathNotFound(t *testing.T) {
	g := tilemap.MustParse(`
..........
..........
......###.
......#.#.
......###.
..........`)
	e := newEngine(t, g, Options{})
	_, err := e.Search(plainReq(1, 1, 7, 3))
	if !errors.Is(err, ErrPathNotFound) || Code(err) != CodePathNotFound {
		t.Fatalf("err = %v", err)
	}
}

func TestEndpointsTooFarApart(t *testing.T) {
	e := newEngine(t, open(t, 60, 4), Options{WindowSize: 16})
	_, err := e.Search(plainReq(1, 1, 50, 1))
	if !errors.Is(err, ErrEndpointsTooFarApart) || Code(err) != CodeEndpointsTooFar {
		t.Fatalf("err = %v", err)
	}
}

func TestWaypointCapacity(t *testing.T) {
	// the diagonal has seven steps; the origin waypoint counts too
	tests := []struct {
		max int
		ok  bool
	}{
		{3, false},
		{7, false},
		{8, true},
	}
	for _, tt := range tests {
		e := newEngine(t, open(t, 10, 10), Options{MaxWaypoints: tt.max})
		wps, err := e.Find(plainReq(1, 1, 8, 8))
		if tt.ok {
			if err != nil || len(wps) != tt.max {
				t.Fatalf("max %d: %d waypoints, err = %v", tt.max, len(wps), err)
			}
			continue
		}
		if !errors.Is(err, ErrWaypointCapacity) || Code(err) != CodeWaypointCapacity {
			t.Fatalf("max %d: err = %v", tt.max, err)
		}
	}
}

func TestNodeReopening(t *testing.T) {
	e := newEngine(t, open(t, 10, 10), Options{})
	if err := e.setup(plainReq(1, 1, 8, 8)); err != nil {
		t.Fatalf("setup: %v", err)
	}
	e.relax(4, 4, 0, 500, 3, 3, 0)
	i := e.popMin()
	st := e.State(NodeRef(i))
	if st.Open || e.first != nilRef {
		t.Fatalf("node still open after pop")
	}
	h := st.F - st.G

	e.relax(4, 4, 0, 600, 3, 4, 0)
	if st.G != 500 || st.Open {
		t.Fatalf("worse cost must not reopen: %s", spew.Sdump(st))
	}
	e.relax(4, 4, 0, 300, 4, 3, 0)
	if st.G != 300 || st.F != 300+h || !st.Open || st.ParentX != 4 || st.ParentY != 3 {
		t.Fatalf("better cost must reopen: %s", spew.Sdump(st))
	}
	if e.first != i || e.last != i {
		t.Fatalf("reopened node not on the open list")
	}
}

func TestOpenListTieOrder(t *testing.T) {
	e := newEngine(t, open(t, 10, 10), Options{})
	if err := e.setup(plainReq(4, 4, 4, 4)); err != nil {
		t.Fatalf("setup: %v", err)
	}
	// same distance to the goal, same cost: insertion order decides
	e.relax(3, 4, 0, 100, 4, 4, 0)
	e.relax(5, 4, 0, 100, 4, 4, 0)
	e.relax(4, 3, 0, 100, 4, 4, 0)
	for _, want := range [][2]int32{{3, 4}, {5, 4}, {4, 3}} {
		st := e.State(NodeRef(e.popMin()))
		if st.X != want[0] || st.Y != want[1] {
			t.Fatalf("popped (%d,%d), want %v", st.X, st.Y, want)
		}
	}
}

func TestOutOfBoundsPolicy(t *testing.T) {
	// the only way round the wall is outside the map
	g := tilemap.MustParse(`
.....#....
.....#....
.....#....
.....#....`)
	e := newEngine(t, g, Options{})
	if _, err := e.Search(plainReq(1, 1, 8, 1)); !errors.Is(err, ErrPathNotFound) {
		t.Fatalf("blocked policy: err = %v", err)
	}
	e = newEngine(t, g, Options{Policy: route.OOBAllow})
	if _, err := e.Search(plainReq(1, 1, 8, 1)); err != nil {
		t.Fatalf("allow policy: %v", err)
	}

	// the row just outside has its centres half a tile off the map
	e = newEngine(t, g, Options{Policy: route.OOBTolerate, Tolerance: 0.5})
	wps, err := e.Find(plainReq(1, 1, 8, 1))
	if err != nil {
		t.Fatalf("tolerate 0.5: %v", err)
	}
	for i, wp := range wps {
		if wp.Pos.Y > 4.5 || wp.Pos.Y < -0.5 {
			t.Fatalf("waypoint %d at %v is beyond the tolerance", i, wp.Pos)
		}
	}
	e = newEngine(t, g, Options{Policy: route.OOBTolerate, Tolerance: 0.4})
	if _, err := e.Search(plainReq(1, 1, 8, 1)); !errors.Is(err, ErrPathNotFound) {
		t.Fatalf("tolerate 0.4: err = %v", err)
	}
}

func TestDirectionalStraight(t *testing.T) {
	e := newEngine(t, open(t, 20, 20), Options{})
	req := Request{
		Origin: route.At(route.CellCenter(2, 10), 0),
		Dest:   route.CellCenter(12, 10),
		Mode:   ModeDirectional48,
	}
	ref, err := e.Search(req)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got := e.Cost(ref); got != 1000 {
		t.Fatalf("cost = %d, want 1000", got)
	}
	wps, err := e.Reconstruct(ref)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	for i, wp := range wps {
		if !wp.HasHeading || wp.Heading != 0 {
			t.Fatalf("waypoint %d: %s", i, spew.Sdump(wp))
		}
	}
	if !wps[len(wps)-1].Pos.Equal(req.Dest) {
		t.Fatalf("last waypoint %v", wps[len(wps)-1].Pos)
	}
}

func TestDirectionalEndHeading(t *testing.T) {
	for _, mode := range []Mode{ModeDirectional8, ModeDirectional48} {
		t.Run(mode.String(), func(t *testing.T) {
			e := newEngine(t, open(t, 20, 20), Options{})
			req := Request{
				Origin:      route.At(route.CellCenter(3, 3), 0),
				Dest:        route.CellCenter(12, 12),
				EndHeadings: MaskOf(2),
				Mode:        mode,
			}
			wps, err := e.Find(req)
			if err != nil {
				t.Fatalf("Find: %v", err)
			}
			last := wps[len(wps)-1]
			if route.NearestHeading(last.Heading) != 2 {
				t.Fatalf("arrived with heading %v", last.Heading)
			}
			if mode == ModeDirectional8 {
				for i := 2; i < len(wps); i++ {
					if d := wps[i].Pos.Sub(wps[i-1].Pos); route.Abs(d.X) > 1+1e-9 || route.Abs(d.Y) > 1+1e-9 {
						t.Fatalf("directional8 step %d is %v", i, d)
					}
				}
			}
		})
	}
}

func TestDirectionalAvoidsRock(t *testing.T) {
	g := tilemap.MustParse(`
....................
....................
....................
....................
....................
....................
..........#.........
..........#.........
..........#.........
..........#.........
..........#.........
....................
....................
....................
....................
....................`)
	e := newEngine(t, g, Options{})
	req := Request{
		Origin: route.At(route.CellCenter(4, 8), 0),
		Dest:   route.CellCenter(16, 8),
		Mode:   ModeDirectional48,
	}
	ref, err := e.Search(req)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	// follow the sub-paths and check every cell they sweep
	wps, _ := e.Reconstruct(ref)
	for i := 2; i < len(wps); i++ {
		px, py := wps[i-1].Pos.Cell()
		x, y := wps[i].Pos.Cell()
		k, ok := tables.Lookup(x-px, y-py)
		if !ok {
			t.Fatalf("step %d is not a neighbour offset", i)
		}
		sp := e.tabs.SubPath(route.NearestHeading(wps[i-1].Heading), k, route.NearestHeading(wps[i].Heading))
		sp.Footprint.Each(func(dx, dy int) bool {
			if g.Blocked(px+dx, py+dy) {
				t.Fatalf("step %d sweeps blocked cell (%d,%d)", i, px+dx, py+dy)
			}
			return true
		})
	}
}

func TestRestrictedFollowsCoarsePath(t *testing.T) {
	g := open(t, 20, 20)
	e := newEngine(t, g, Options{})
	coarse, err := e.Find(plainReq(2, 2, 14, 10))
	if err != nil {
		t.Fatalf("coarse: %v", err)
	}
	cands := make([]route.Vec2, len(coarse))
	for i, wp := range coarse {
		cands[i] = wp.Pos
	}
	req := Request{
		Origin:     route.At(coarse[0].Pos, 0),
		Dest:       coarse[len(coarse)-1].Pos,
		Mode:       ModeRestricted,
		Candidates: cands,
	}
	wps, err := e.Find(req)
	if err != nil {
		t.Fatalf("restricted: %v", err)
	}
	onPath := map[[2]int]bool{}
	for _, c := range cands {
		x, y := c.Cell()
		onPath[[2]int{x, y}] = true
	}
	for i, wp := range wps {
		x, y := wp.Pos.Cell()
		if !onPath[[2]int{x, y}] {
			t.Fatalf("waypoint %d (%d,%d) left the coarse path", i, x, y)
		}
	}
	ref, ok := e.BestReached()
	if !ok {
		t.Fatalf("no best node")
	}
	if st := e.State(ref); int(st.X) != 14 || int(st.Y) != 10 {
		t.Fatalf("best node (%d,%d)", st.X, st.Y)
	}
}

func TestRestrictedBestReached(t *testing.T) {
	// a one tile channel: the ship can never turn round to face west
	g := tilemap.MustParse(`
####################
....................
####################`)
	e := newEngine(t, g, Options{})
	var cands []route.Vec2
	for x := 1; x <= 15; x++ {
		cands = append(cands, route.CellCenter(x, 1))
	}
	req := Request{
		Origin:      route.At(cands[0], 0),
		Dest:        cands[len(cands)-1],
		EndHeadings: MaskOf(4),
		Mode:        ModeRestricted,
		Candidates:  cands,
	}
	_, err := e.Search(req)
	if !errors.Is(err, ErrPathNotFound) {
		t.Fatalf("err = %v", err)
	}
	ref, ok := e.BestReached()
	if !ok {
		t.Fatalf("no best node")
	}
	st := e.State(ref)
	if st.X != 15 || st.Y != 1 || st.Heading != 0 {
		t.Fatalf("best node %s", spew.Sdump(st))
	}
	wps, err := e.Reconstruct(ref)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	if !wps[len(wps)-1].Pos.Equal(req.Dest) {
		t.Fatalf("partial path ends at %v", wps[len(wps)-1].Pos)
	}
}

func TestCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, CodeOK},
		{ErrPathNotFound, CodePathNotFound},
		{errors.New("other"), CodePathNotFound},
		{ErrEndpointsTooFarApart, CodeEndpointsTooFar},
		{route.ErrInfeasible, CodeInfeasibleRoute},
		{ErrBridgeTooFar, CodeBridgeTooFar},
		{ErrWaypointCapacity, CodeWaypointCapacity},
	}
	for _, tt := range tests {
		if got := Code(tt.err); got != tt.want {
			t.Errorf("Code(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func BenchmarkDirectional48(b *testing.B) {
	g := tilemap.MustParse(wall)
	e := newEngine(b, g, Options{})
	req := Request{
		Origin: route.At(route.CellCenter(2, 4), 0),
		Dest:   route.CellCenter(8, 4),
		Mode:   ModeDirectional48,
	}
	for i := 0; i < b.N; i++ {
		if _, err := e.Search(req); err != nil {
			b.Fatal(err)
		}
	}
}
