package tables

import (
	"math"

	"shipnav/route"
)

const (
	// HeuristicQuantum is the distance resolution of the heuristic table.
	HeuristicQuantum = 0.25
	// HeuristicRange is the farthest distance the table covers, in tiles.
	HeuristicRange = 10
	// HeuristicRows = HeuristicRange/HeuristicQuantum + 1.
	HeuristicRows = 41
	// NumBuckets is the number of heading-difference buckets.
	NumBuckets = NumHeadings
)

// bucketSamples are the angular offsets sampled inside one bucket; the
// table keeps the minimum so the estimate stays below every heading the
// bucket rounds to.
var bucketSamples = [3]float64{-math.Pi / 8, 0, math.Pi / 8}

func buildHeuristic(p Params) []int32 {
	out := make([]int32, HeuristicRows*NumBuckets)
	for d := 1; d < HeuristicRows; d++ {
		dist := float64(d) * HeuristicQuantum
		target := route.Free(route.Vec2{X: dist})
		for b := 0; b < NumBuckets; b++ {
			best := math.Inf(1)
			for _, off := range bucketSamples {
				a := route.HeadingAngle(b) + off
				rt, err := route.Plan(route.At(route.Vec2{}, a), target, p.TurnRadius, p.Discretize)
				if err == nil && rt.Length < best {
					best = rt.Length
				}
			}
			if math.IsInf(best, 1) {
				best = dist
			}
			out[d*NumBuckets+b] = int32(math.Floor(best * CostScale))
		}
	}
	return out
}

// Bucket maps a heading difference in radians to a table bucket.
func Bucket(diff float64) int {
	return route.NearestHeading(diff)
}

// Estimate returns the lower bound on the cost of reaching a point dist
// tiles away when the current heading differs from the bearing to that
// point by diff radians. Beyond the table range the last row is used and
// the excess distance is added as straight travel.
func (s *Set) Estimate(dist, diff float64) int32 {
	b := Bucket(diff)
	q := int(dist / HeuristicQuantum)
	if q < HeuristicRows-1 {
		return s.Heuristic[q*NumBuckets+b]
	}
	base := s.Heuristic[(HeuristicRows-1)*NumBuckets+b]
	return base + int32((dist-HeuristicRange)*CostScale)
}
