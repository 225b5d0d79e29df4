package planner

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"shipnav/route"
	"shipnav/search"
)

// hybrid joins two partial curved paths with a directional bridge. The
// forward part is what the failed restricted search in e reached; the
// backward part is a restricted search from the destination along the
// reversed coarse path. The result is in travel order and not yet
// smoothed.
func (p *Planner) hybrid(e *search.Engine, fwdReq search.Request, endHeading *float64) ([]route.Pose, error) {
	ref, ok := e.BestReached()
	if !ok {
		return nil, fmt.Errorf("forward search reached nothing: %w", search.ErrPathNotFound)
	}
	fwd, err := e.Reconstruct(ref)
	if err != nil {
		return nil, err
	}

	bwdReq := search.Request{
		Origin:     route.Free(fwdReq.Dest),
		Dest:       fwdReq.Origin.Pos,
		Mode:       search.ModeRestricted,
		Candidates: slices.Clone(fwdReq.Candidates),
	}
	slices.Reverse(bwdReq.Candidates)
	if endHeading != nil {
		// 终点朝向反过来作为反向搜索的起点朝向
		bwdReq.Origin = route.At(fwdReq.Dest, *endHeading+math.Pi)
	}
	if fwdReq.Origin.HasHeading {
		bwdReq.EndHeadings = search.MaskOf(route.NearestHeading(fwdReq.Origin.Heading + math.Pi))
	}

	bwd, err := e.Find(bwdReq)
	switch {
	case err == nil:
		// the backward search made it all the way
		p.lg.Debug("hybrid: backward search complete", slog.Int("waypoints", len(bwd)))
		out := flip(bwd)
		slices.Reverse(out)
		out[0] = fwdReq.Origin
		return out, nil
	case !errors.Is(err, search.ErrPathNotFound):
		return nil, err
	}
	bref, ok := e.BestReached()
	if !ok {
		return nil, fmt.Errorf("backward search reached nothing: %w", search.ErrPathNotFound)
	}
	if bwd, err = e.Reconstruct(bref); err != nil {
		return nil, err
	}
	bwd = flip(bwd)

	ai, bi, err := matchFrontiers(positions(fwd), positions(bwd), p.cfg.MaxBridge)
	if err != nil {
		return nil, err
	}

	// the bridge keeps the forward heading at A and arrives at B heading
	// the way the backward path continues
	breq := search.Request{
		Origin: fwd[ai],
		Dest:   bwd[bi].Pos,
		Mode:   search.ModeDirectional8,
	}
	if bi == 0 {
		breq.EndHeadings = fwdReq.EndHeadings
	} else {
		breq.EndHeadings = search.MaskOf(route.NearestHeading(bwd[bi].Heading))
	}
	bridge, err := e.Find(breq)
	if err != nil {
		return nil, fmt.Errorf("bridge %v -> %v: %w", breq.Origin.Pos, breq.Dest, err)
	}
	p.lg.Debug("hybrid: bridged", slog.Int("forward", ai), slog.Int("backward", bi), slog.Int("bridge", len(bridge)))

	out := stitch(fwd[:ai], bridge, bwd[:bi])
	if len(out) > p.cfg.MaxWaypoints {
		return nil, fmt.Errorf("hybrid path of %d waypoints: %w", len(out), search.ErrWaypointCapacity)
	}
	return out, nil
}

// matchFrontiers picks the two waypoints the bridge runs between. fwd runs
// origin first and bwd destination first; both end at their frontier.
// Starting from the frontiers it steps back along fwd and bwd in turn for
// as long as the two points stay within maxGap tiles on each axis.
func matchFrontiers(fwd, bwd []route.Vec2, maxGap float64) (ai, bi int, err error) {
	far := func(ai, bi int) bool {
		d := fwd[ai].Sub(bwd[bi])
		return math.Abs(d.X) > maxGap || math.Abs(d.Y) > maxGap
	}
	ai, bi = len(fwd)-1, len(bwd)-1
	if far(ai, bi) {
		return 0, 0, fmt.Errorf("frontiers %v and %v more than %g tiles apart: %w", fwd[ai], bwd[bi], maxGap, ErrBridgeTooFar)
	}
	stepA := true
	for ai > 0 || bi > 0 {
		pa, pb := ai, bi
		if stepA && ai > 0 {
			ai--
		} else if bi > 0 {
			bi--
		}
		stepA = !stepA
		if far(ai, bi) {
			ai, bi = pa, pb
			break
		}
	}
	return ai, bi, nil
}

// stitch joins the forward path up to the bridge, the bridge and the rest
// of the backward path into one path in travel order. head runs origin
// first and tail destination first; neither holds a bridge end.
func stitch(head, bridge, tail []route.Pose) []route.Pose {
	out := make([]route.Pose, 0, len(head)+len(bridge)+len(tail))
	out = append(out, head...)
	out = append(out, bridge...)
	for i := len(tail) - 1; i >= 0; i-- {
		out = append(out, tail[i])
	}
	return out
}

// flip turns backward-travel poses into forward-travel ones.
func flip(wps []route.Pose) []route.Pose {
	for i := range wps {
		wps[i] = wps[i].Reversed()
	}
	return wps
}
