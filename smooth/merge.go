package smooth

import "shipnav/route"

// MergeAdjacent drops every waypoint whose incoming and outgoing step
// vectors are equal, so runs of identical grid steps become one leg.
// The first and last waypoints are always kept.
func MergeAdjacent(wps []route.Pose) []route.Pose {
	if len(wps) < 3 {
		return append([]route.Pose(nil), wps...)
	}
	out := make([]route.Pose, 0, len(wps))
	out = append(out, wps[0])
	for i := 1; i < len(wps)-1; i++ {
		in := wps[i].Pos.Sub(wps[i-1].Pos)
		next := wps[i+1].Pos.Sub(wps[i].Pos)
		if in.Equal(next) {
			continue
		}
		out = append(out, wps[i])
	}
	return append(out, wps[len(wps)-1])
}
