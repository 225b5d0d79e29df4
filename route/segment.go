package route

import "math"

// Pose is a position with an optional heading. A Pose without a heading
// lets the planner pick whichever heading gives the shortest route.
type Pose struct {
	Pos        Vec2
	Heading    float64
	HasHeading bool
}

// At returns a pose with a fixed heading.
func At(pos Vec2, heading float64) Pose {
	return Pose{Pos: pos, Heading: heading, HasHeading: true}
}

// Free returns a pose whose heading is left to the planner.
func Free(pos Vec2) Pose {
	return Pose{Pos: pos}
}

// WithHeading returns p with its heading fixed to h.
func (p Pose) WithHeading(h float64) Pose {
	p.Heading = Mod2Pi(h)
	p.HasHeading = true
	return p
}

// Reversed 反向位姿: 位置不变, 朝向+π.
func (p Pose) Reversed() Pose {
	if p.HasHeading {
		p.Heading = Mod2Pi(p.Heading + math.Pi)
	}
	return p
}

type SegmentKind uint8

const (
	Straight SegmentKind = iota
	Arc
)

func (k SegmentKind) String() string {
	if k == Arc {
		return "arc"
	}
	return "line"
}

// LineSegment is either a circular arc or a straight run.
//
// Arc fields: Center, Radius, StartAngle (polar angle of the start point
// about Center), Sweep (signed, positive is counter-clockwise) and
// Clockwise. Straight fields: Start and Heading.
//
// Length is the travelled length used for costs. In discretized mode it
// can exceed the geometric extent returned by Span.
type LineSegment struct {
	Kind SegmentKind

	Start   Vec2
	Heading float64

	Center     Vec2
	Radius     float64
	StartAngle float64
	Sweep      float64
	Clockwise  bool

	Length float64
}

func newArc(center Vec2, startAngle, sweep, radius float64) LineSegment {
	return LineSegment{
		Kind:       Arc,
		Center:     center,
		Radius:     radius,
		StartAngle: startAngle,
		Sweep:      sweep,
		Clockwise:  sweep < 0,
		Length:     radius * Abs(sweep),
	}
}

func newLine(start Vec2, heading, length float64) LineSegment {
	return LineSegment{
		Kind:    Straight,
		Start:   start,
		Heading: Mod2Pi(heading),
		Length:  length,
	}
}

// Span is the geometric length of the segment.
func (s LineSegment) Span() float64 {
	if s.Kind == Arc {
		return s.Radius * Abs(s.Sweep)
	}
	return s.Length
}

func (s LineSegment) turnDir() float64 {
	if s.Clockwise {
		return -1
	}
	return 1
}

// PoseAt returns the position and heading after travelling d along the
// segment. d is clamped to [0, Span].
func (s LineSegment) PoseAt(d float64) Pose {
	span := s.Span()
	d = Clamp(d, 0, span)
	if s.Kind == Straight {
		return At(s.Start.Add(Unit(s.Heading).Scale(d)), s.Heading)
	}
	t := 1.0
	if span > epsilon {
		t = d / span
	}
	ang := s.StartAngle + s.Sweep*t
	pos := s.Center.Add(Unit(ang).Scale(s.Radius))
	return At(pos, Mod2Pi(ang+s.turnDir()*math.Pi/2))
}

func (s LineSegment) StartPose() Pose { return s.PoseAt(0) }
func (s LineSegment) EndPose() Pose   { return s.PoseAt(s.Span()) }

func (s LineSegment) reversed() LineSegment {
	if s.Kind == Straight {
		r := s
		r.Start = s.EndPose().Pos
		r.Heading = Mod2Pi(s.Heading + math.Pi)
		return r
	}
	r := s
	r.StartAngle = s.StartAngle + s.Sweep
	r.Sweep = -s.Sweep
	r.Clockwise = !s.Clockwise
	return r
}

// MaxSegments is the most segments a Route holds: arc, line, arc, line.
const MaxSegments = 4

// Route is an ordered sequence of at most MaxSegments segments.
// Length is -1 for an infeasible route.
type Route struct {
	Segs   [MaxSegments]LineSegment
	N      int
	Length float64
}

// Infeasible is the sentinel for "no route for this turn combination".
var Infeasible = Route{Length: -1}

func (r Route) Feasible() bool { return r.Length >= 0 }

// Segments returns the used segments.
func (r *Route) Segments() []LineSegment {
	return r.Segs[:r.N]
}

func (r *Route) add(s LineSegment) {
	if s.Length < epsilon && s.Span() < epsilon {
		return
	}
	r.Segs[r.N] = s
	r.N++
	r.Length += s.Length
}

func (r *Route) recalc() {
	r.Length = 0
	for _, s := range r.Segments() {
		r.Length += s.Length
	}
}

// Span is the geometric length of the route.
func (r *Route) Span() float64 {
	var sum float64
	for _, s := range r.Segments() {
		sum += s.Span()
	}
	return sum
}

// PoseAt returns the pose after travelling d along the route.
func (r *Route) PoseAt(d float64) Pose {
	if r.N == 0 {
		return Pose{}
	}
	for i, s := range r.Segments() {
		span := s.Span()
		if d <= span || i == r.N-1 {
			return s.PoseAt(d)
		}
		d -= span
	}
	return r.Segs[r.N-1].EndPose()
}

// StartHeading is the heading the route departs with.
func (r *Route) StartHeading() float64 {
	if r.N == 0 {
		return 0
	}
	return r.Segs[0].StartPose().Heading
}

// EndHeading is the heading the route arrives with.
func (r *Route) EndHeading() float64 {
	if r.N == 0 {
		return 0
	}
	return r.Segs[r.N-1].EndPose().Heading
}

// Sample calls fn every step along the route, always including both ends,
// and stops early when fn returns false. It reports whether every call
// returned true.
func (r *Route) Sample(step float64, fn func(p Pose) bool) bool {
	if r.N == 0 {
		return true
	}
	if step <= 0 {
		step = DefaultRayStep
	}
	for _, s := range r.Segments() {
		span := s.Span()
		for d := 0.0; d < span; d += step {
			if !fn(s.PoseAt(d)) {
				return false
			}
		}
	}
	return fn(r.Segs[r.N-1].EndPose())
}

// Reverse returns the route travelled backwards.
func (r Route) Reverse() Route {
	out := Route{Length: r.Length, N: r.N}
	for i := 0; i < r.N; i++ {
		out.Segs[i] = r.Segs[r.N-1-i].reversed()
	}
	return out
}
