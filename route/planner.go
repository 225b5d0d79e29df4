package route

import (
	"errors"
	"math"
	"slices"
)

// ErrInfeasible is returned when no turn combination connects two poses.
var ErrInfeasible = errors.New("route: no feasible turn combination")

// turn directions: +1 turns left (counter-clockwise), -1 turns right.
var turnDirs = [2]float64{1, -1}

// turnCircle returns the centre of the circle a ship at pos/heading turns
// around, and the polar angle of pos about that centre.
func turnCircle(pos Vec2, heading, dir, r float64) (center Vec2, startAngle float64) {
	center = pos.Add(Unit(heading + dir*math.Pi/2).Scale(r))
	startAngle = heading - dir*math.Pi/2
	return
}

// sweepTo returns the signed sweep turning in dir from heading a to b.
func sweepTo(a, b, dir float64) float64 {
	sw := Mod2Pi(dir * (b - a))
	if sw > twoPi-1e-9 {
		sw = 0
	}
	return dir * sw
}

func straightRoute(from, to Vec2) Route {
	var rt Route
	rt.add(newLine(from, to.Sub(from).Angle(), from.Dist(to)))
	return rt
}

// arcToPoint turns from p in dir, then runs straight along the tangent to
// target. Infeasible when target lies inside the turn circle.
func arcToPoint(p Pose, dir, r float64, target Vec2) Route {
	c, a0 := turnCircle(p.Pos, p.Heading, dir, r)
	v := target.Sub(c)
	d := v.Len()
	if d < epsilon {
		if r < epsilon {
			return Route{}
		}
		return Infeasible
	}
	if d < r-epsilon {
		return Infeasible
	}
	psi := v.Angle() + dir*math.Asin(Clamp(r/d, -1, 1))
	arc := newArc(c, a0, sweepTo(p.Heading, psi, dir), r)

	var rt Route
	rt.add(arc)
	rt.add(newLine(arc.EndPose().Pos, psi, math.Sqrt(math.Max(0, d*d-r*r))))
	return rt
}

// arcLineArc connects two fixed poses with arc, tangent, arc. Same turn
// directions use the outer tangent, parallel to the centre line. Opposite
// directions use the inner tangent through the midpoint of the centres:
// the right triangle with hypotenuse D/2 and side r gives cos α = 2r/D, so
// the centres must be at least 2r apart.
func arcLineArc(p0, p1 Pose, d1, d2, r float64) Route {
	c1, a1 := turnCircle(p0.Pos, p0.Heading, d1, r)
	c2, _ := turnCircle(p1.Pos, p1.Heading, d2, r)
	v := c2.Sub(c1)
	dist := v.Len()

	var psi, lineLen float64
	switch {
	case dist < epsilon:
		if d1 != d2 && r > epsilon {
			return Infeasible
		}
		psi = p1.Heading
	case d1 == d2:
		psi = v.Angle()
		lineLen = dist
	default:
		if dist < 2*r-epsilon {
			return Infeasible
		}
		psi = v.Angle() + d1*math.Asin(Clamp(2*r/dist, -1, 1))
		lineLen = math.Sqrt(math.Max(0, dist*dist-4*r*r))
	}

	arc1 := newArc(c1, a1, sweepTo(p0.Heading, psi, d1), r)
	arc2 := newArc(c2, psi-d2*math.Pi/2, sweepTo(psi, p1.Heading, d2), r)

	var rt Route
	rt.add(arc1)
	rt.add(newLine(arc1.EndPose().Pos, psi, lineLen))
	rt.add(arc2)
	return rt
}

// PlanAll returns every feasible route from start to end, shortest first.
// Both headings free gives a straight line, one free heading gives two
// candidates (turn left or right at the fixed end) and two fixed headings
// give four.
func PlanAll(start, end Pose, r float64, discretize bool) []Route {
	out := make([]Route, 0, 4)
	push := func(rt Route) {
		if rt.Feasible() {
			out = append(out, rt)
		}
	}

	switch {
	case !start.HasHeading && !end.HasHeading:
		push(straightRoute(start.Pos, end.Pos))
	case start.HasHeading && !end.HasHeading:
		for _, d := range turnDirs {
			push(arcToPoint(start, d, r, end.Pos))
		}
	case !start.HasHeading && end.HasHeading:
		back := end.Reversed()
		for _, d := range turnDirs {
			rt := arcToPoint(back, d, r, start.Pos)
			if rt.Feasible() {
				push(rt.Reverse())
			}
		}
	default:
		for _, d1 := range turnDirs {
			for _, d2 := range turnDirs {
				push(arcLineArc(start, end, d1, d2, r))
			}
		}
	}

	if discretize {
		for i := range out {
			out[i] = discretizeRoute(out[i])
		}
	}
	slices.SortStableFunc(out, func(a, b Route) int {
		switch {
		case a.Length < b.Length:
			return -1
		case a.Length > b.Length:
			return 1
		}
		return 0
	})
	return out
}

// Plan returns the shortest route from start to end.
func Plan(start, end Pose, r float64, discretize bool) (Route, error) {
	all := PlanAll(start, end, r, discretize)
	if len(all) == 0 {
		return Infeasible, ErrInfeasible
	}
	return all[0], nil
}
