package tables

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"shipnav/route"
)

// FootprintStep is the sampling step used to rasterise sub-path footprints.
const FootprintStep = 0.1

// NumSubPaths is the size of the SubPath table: heading x offset x heading.
const NumSubPaths = NumHeadings * NumOffsets * NumHeadings

// Params identifies one table set. Two ships with equal Params share tables.
type Params struct {
	TurnRadius float64
	Width      float64
	Discretize bool
}

func (p Params) String() string {
	return fmt.Sprintf("r=%g w=%g discrete=%t", p.TurnRadius, p.Width, p.Discretize)
}

// SubPath is the precomputed move from the centre of cell (0,0) facing h0
// to the centre of an offset cell facing h1.
type SubPath struct {
	Valid     bool
	Cost      uint16
	Length    float64
	Footprint Footprint
}

// Set is a complete, immutable group of precomputed tables for one Params.
type Set struct {
	Version   int
	Params    Params
	Heuristic []int32   // HeuristicRows x NumBuckets
	SubPaths  []SubPath // NumHeadings x NumOffsets x NumHeadings
}

func subPathIndex(h0, k, h1 int) int {
	return (h0*NumOffsets+k)*NumHeadings + h1
}

// SubPath returns the entry for leaving with heading h0 towards Offsets[k]
// and arriving with heading h1.
func (s *Set) SubPath(h0, k, h1 int) *SubPath {
	return &s.SubPaths[subPathIndex(h0, k, h1)]
}

// Build computes a table set. Each origin heading is built on its own
// goroutine; the heuristic table on another.
func Build(ctx context.Context, p Params) (*Set, error) {
	if p.TurnRadius < 0 || p.Width < 0 {
		return nil, fmt.Errorf("tables: invalid params %v", p)
	}
	s := &Set{
		Version:  FormatVersion,
		Params:   p,
		SubPaths: make([]SubPath, NumSubPaths),
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.Heuristic = buildHeuristic(p)
		return nil
	})
	for h0 := 0; h0 < NumHeadings; h0++ {
		g.Go(func() error {
			for k := 0; k < NumOffsets; k++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				for h1 := 0; h1 < NumHeadings; h1++ {
					sp, err := buildSubPath(p, h0, k, h1)
					if err != nil {
						return err
					}
					s.SubPaths[subPathIndex(h0, k, h1)] = sp
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return s, nil
}

func buildSubPath(p Params, h0, k, h1 int) (SubPath, error) {
	o := Offsets[k]
	start := route.At(route.CellCenter(0, 0), route.HeadingAngle(h0))
	end := route.At(route.CellCenter(o.DX, o.DY), route.HeadingAngle(h1))
	for _, rt := range route.PlanAll(start, end, p.TurnRadius, p.Discretize) {
		fp, ok := rasterize(&rt, p.Width)
		if !ok {
			continue
		}
		cost := math.Round(rt.Length * CostScale)
		if cost > MaxEdgeCost {
			return SubPath{}, fmt.Errorf("tables: sub-path (%d,%d,%d) cost %v exceeds %d", h0, k, h1, cost, MaxEdgeCost)
		}
		return SubPath{Valid: true, Cost: uint16(cost), Length: rt.Length, Footprint: fp}, nil
	}
	return SubPath{}, nil
}

// rasterize collects the cells swept by a ship of the given width along rt.
// ok is false when the sweep leaves the local window.
func rasterize(rt *route.Route, width float64) (fp Footprint, ok bool) {
	ok = rt.Sample(FootprintStep, func(p route.Pose) bool {
		return route.DiskCells(p.Pos, width/2, fp.Set)
	})
	return fp, ok
}
