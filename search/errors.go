package search

import (
	"errors"

	"shipnav/route"
)

var (
	ErrPathNotFound         = errors.New("search: path not found")
	ErrEndpointsTooFarApart = errors.New("search: endpoints too far apart for the search window")
	ErrBridgeTooFar         = errors.New("search: partial paths too far apart to bridge")
	ErrWaypointCapacity     = errors.New("search: waypoint capacity exceeded")
)

// Numeric result codes handed to callers that need them.
const (
	CodeOK               = 0
	CodePathNotFound     = -1
	CodeEndpointsTooFar  = -2
	CodeInfeasibleRoute  = -3
	CodeBridgeTooFar     = -4
	CodeWaypointCapacity = -5
)

// Code maps err to its numeric result code. Unknown errors map to
// CodePathNotFound.
func Code(err error) int {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, ErrEndpointsTooFarApart):
		return CodeEndpointsTooFar
	case errors.Is(err, route.ErrInfeasible):
		return CodeInfeasibleRoute
	case errors.Is(err, ErrBridgeTooFar):
		return CodeBridgeTooFar
	case errors.Is(err, ErrWaypointCapacity):
		return CodeWaypointCapacity
	default:
		return CodePathNotFound
	}
}
