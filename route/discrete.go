package route

import "math"

const (
	// FixedHeadingStep is the angle between two headings a discretized
	// ship can hold.
	FixedHeadingStep = math.Pi / 8
	// NumFixedHeadings 固定朝向数量, 每 22.5° 一个.
	NumFixedHeadings = 16
)

// discretizeRoute re-costs a route for a ship that can only hold the 16
// fixed headings. An arc becomes a walk along the edges of the 16-gon
// circumscribing its turn circle; a straight run between two fixed
// headings is split into one run along each, meeting where they cross.
//
// The arc geometry itself is left continuous, so positions sampled near an
// arc-to-line transition are an approximation of the discrete motion.
func discretizeRoute(rt Route) Route {
	out := Route{}
	for _, s := range rt.Segments() {
		switch s.Kind {
		case Arc:
			s.Length = polygonArcLength(s)
			out.Segs[out.N] = s
			out.N++
		case Straight:
			a, b, split := splitLine(s)
			out.Segs[out.N] = a
			out.N++
			if split && out.N < MaxSegments {
				out.Segs[out.N] = b
				out.N++
			}
		}
	}
	out.recalc()
	return out
}

// fixedSector returns the 16-gon edge whose normal is nearest to the
// polar angle a.
func fixedSector(a float64) int {
	return int((Mod2Pi(a)+FixedHeadingStep/2)/FixedHeadingStep) % NumFixedHeadings
}

// polygonArcLength is the distance travelled along the 16-gon around the
// arc's circle from its start point to its end point. Each edge is 2·dmax
// long; the partial first and last edges are measured from the point's
// projection onto its edge.
func polygonArcLength(s LineSegment) float64 {
	if s.Sweep == 0 {
		return 0
	}
	dlen := s.Radius / math.Cos(FixedHeadingStep/2)
	dmax := dlen * math.Sin(FixedHeadingStep/2)

	dir := Sign(s.Sweep)
	from, to := s.StartAngle, s.StartAngle+s.Sweep
	secA, secB := fixedSector(from), fixedSector(to)
	sdiff := (secB - secA) * int(dir)
	if sdiff < 0 {
		sdiff += NumFixedHeadings
	}
	d1 := dlen * math.Sin(Mod2Pi(from)-float64(secA)*FixedHeadingStep)
	d2 := dlen * math.Sin(Mod2Pi(to)-float64(secB)*FixedHeadingStep)
	return 2*float64(sdiff)*dmax + dir*(d2-d1)
}

// splitLine decomposes a straight run into components along the two
// fixed headings that bracket its heading. A run already within 1e-4
// sectors of a fixed heading is kept whole.
func splitLine(s LineSegment) (a, b LineSegment, split bool) {
	h := Mod2Pi(s.Heading)
	sec := h / FixedHeadingStep
	if math.Abs(sec-math.Round(sec)) < 1e-4 {
		return s, LineSegment{}, false
	}
	k := math.Floor(sec + 1e-4)
	ha := k * FixedHeadingStep
	hb := (k + 1) * FixedHeadingStep
	w := Unit(h).Scale(s.Length)
	ua, ub := Unit(ha), Unit(hb)
	den := cross(ua, ub)
	alpha := cross(w, ub) / den
	beta := cross(ua, w) / den

	a = newLine(s.Start, ha, alpha)
	b = newLine(s.Start.Add(ua.Scale(alpha)), hb, beta)
	return a, b, true
}

func cross(a, b Vec2) float64 {
	return a.X*b.Y - a.Y*b.X
}
