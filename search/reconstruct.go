package search

import (
	"fmt"

	"shipnav/route"
)

func (e *Engine) parent(i int32) (int32, bool) {
	st := &e.nodes[i]
	if st.ParentHeading == noParent {
		return nilRef, false
	}
	lx, ly, _ := e.local(int(st.ParentX), int(st.ParentY))
	return e.index(lx, ly, int(st.ParentHeading)), true
}

// goalPoint is the exact point the goal waypoint is placed on.
func (e *Engine) goalPoint() route.Vec2 {
	if e.req.Mode != ModeRestricted {
		return e.req.Dest
	}
	if x, y := e.req.Dest.Cell(); x == e.goalX && y == e.goalY {
		return e.req.Dest
	}
	return e.req.Candidates[len(e.req.Candidates)-1]
}

func (e *Engine) waypoint(i int32) route.Pose {
	st := &e.nodes[i]
	if i == e.root {
		return e.req.Origin
	}
	pos := route.CellCenter(int(st.X), int(st.Y))
	if int(st.X) == e.goalX && int(st.Y) == e.goalY {
		pos = e.goalPoint()
	}
	if !e.req.Mode.directional() {
		return route.Free(pos)
	}
	return route.At(pos, route.HeadingAngle(int(st.Heading)))
}

// Reconstruct walks the parent links from ref back to the origin and
// returns the waypoints in travel order. The origin waypoint is the
// continuous origin pose, the goal waypoint sits on the exact destination.
func (e *Engine) Reconstruct(ref NodeRef) ([]route.Pose, error) {
	n := 0
	for i, ok := int32(ref), true; ok; i, ok = e.parent(i) {
		n++
		if n > e.opts.MaxWaypoints {
			return nil, fmt.Errorf("more than %d waypoints: %w", e.opts.MaxWaypoints, ErrWaypointCapacity)
		}
	}

	out := make([]route.Pose, n)
	i := int32(ref)
	for k := n - 1; k >= 0; k-- {
		out[k] = e.waypoint(i)
		i, _ = e.parent(i)
	}

	// origin and destination share a cell
	if n == 1 && int32(ref) == e.root {
		if gp := e.goalPoint(); !gp.Equal(e.req.Origin.Pos) {
			if e.opts.MaxWaypoints < 2 {
				return nil, fmt.Errorf("more than %d waypoints: %w", e.opts.MaxWaypoints, ErrWaypointCapacity)
			}
			out = append(out, route.Free(gp))
		}
	}
	return out, nil
}
