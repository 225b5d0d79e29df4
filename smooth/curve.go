package smooth

import (
	"container/list"

	"shipnav/route"
)

// Options describes the ship the curve is smoothed for.
type Options struct {
	TurnRadius float64
	Discretize bool
	// Straight joins waypoints with straight runs whatever their headings
	// and leaves headings as they are.
	Straight bool
	// Collider ray-marches candidate routes; its width, step and
	// out-of-bounds policy apply.
	Collider *route.Collider
}

// Connect returns the shortest route from a to b that the collider
// accepts.
func Connect(a, b route.Pose, opts Options) (route.Route, bool) {
	if opts.Straight {
		a, b = route.Free(a.Pos), route.Free(b.Pos)
	}
	for _, rt := range route.PlanAll(a, b, opts.TurnRadius, opts.Discretize && !opts.Straight) {
		if opts.Collider == nil || opts.Collider.Clear(&rt) {
			return rt, true
		}
	}
	return route.Infeasible, false
}

func poseOf(e *list.Element) route.Pose {
	return e.Value.(route.Pose)
}

// Curve removes every waypoint a turn-radius limited route can skip and
// gives each remaining waypoint a heading. Starting at the origin it
// connects to successively farther waypoints until a connection fails,
// erases the ones in between and continues from the last reachable one.
// A waypoint that cannot even reach its neighbour is left as is, facing
// the neighbour. With opts.Straight the connections are straight runs
// and no heading is filled in.
//
// The result never has more waypoints than wps, starts at wps[0] and ends
// at wps[len(wps)-1].
func Curve(wps []route.Pose, opts Options) []route.Pose {
	if len(wps) < 2 {
		return append([]route.Pose(nil), wps...)
	}

	// 终点在前, 起点在后
	l := list.New()
	for i := len(wps) - 1; i >= 0; i-- {
		l.PushBack(wps[i])
	}

	origin := l.Back()
	confirmed := origin
	for confirmed != l.Front() {
		from := poseOf(confirmed)

		var reached *list.Element
		var rt route.Route
		for cand := confirmed.Prev(); cand != nil; cand = cand.Prev() {
			r, ok := Connect(from, poseOf(cand), opts)
			if !ok {
				break
			}
			reached, rt = cand, r
		}

		if reached == nil {
			next := confirmed.Prev()
			to := poseOf(next)
			bearing := to.Pos.Sub(from.Pos).Angle()
			if !from.HasHeading && !opts.Straight {
				confirmed.Value = from.WithHeading(bearing)
			}
			if !to.HasHeading && !opts.Straight {
				next.Value = to.WithHeading(bearing)
			}
			confirmed = next
			continue
		}

		for e := confirmed.Prev(); e != reached; {
			p := e.Prev()
			l.Remove(e)
			e = p
		}
		if opts.Straight {
			confirmed = reached
			continue
		}
		if !from.HasHeading {
			confirmed.Value = from.WithHeading(rt.StartHeading())
		}
		if to := poseOf(reached); !to.HasHeading {
			reached.Value = to.WithHeading(rt.EndHeading())
		}
		confirmed = reached
	}

	out := make([]route.Pose, 0, l.Len())
	for e := l.Back(); e != nil; e = e.Prev() {
		out = append(out, poseOf(e))
	}
	return out
}

// Routes returns the connecting routes between consecutive waypoints of a
// smoothed path; a leg that cannot be connected is a straight line.
func Routes(wps []route.Pose, opts Options) []route.Route {
	var out []route.Route
	for i := 1; i < len(wps); i++ {
		rt, ok := Connect(wps[i-1], wps[i], opts)
		if !ok {
			rt, _ = route.Plan(route.Free(wps[i-1].Pos), route.Free(wps[i].Pos), 0, false)
		}
		out = append(out, rt)
	}
	return out
}
