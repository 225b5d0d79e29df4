// Package planner answers ship path queries on a blocking-tile grid. It
// picks the search pipeline from its Config, smooths the result, and
// caches answers for repeated queries.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brunoga/deep"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"shipnav/log"
	"shipnav/route"
	"shipnav/search"
	"shipnav/smooth"
	"shipnav/tables"
)

// ErrBlockedEndpoint is returned for an origin or destination outside
// the grid or on a blocked tile. It is a path-not-found failure.
var ErrBlockedEndpoint = fmt.Errorf("%w: endpoint blocked", search.ErrPathNotFound)

// ErrBridgeTooFar is returned when the hybrid fallback cannot join its
// forward and backward partial paths.
var ErrBridgeTooFar = search.ErrBridgeTooFar

type cacheKey struct {
	origin route.Pose
	dest   route.Vec2
	end    float64
	hasEnd bool
}

// Planner is safe for concurrent use. Each query runs on an engine taken
// from a pool; the tables are shared read-only.
type Planner struct {
	cfg      Config
	grid     route.Grid
	tabs     *tables.Set
	pool     *search.Pool
	cache    *expirable.LRU[cacheKey, []route.Pose]
	collider route.Collider
	lg       *log.Logger
}

// New validates cfg and prepares the tables for it, loading them from
// cfg.TableCacheDir when a matching file is there.
func New(ctx context.Context, grid route.Grid, cfg Config, lg *log.Logger) (*Planner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	tabs, err := tables.Shared(ctx, cfg.TableCacheDir, cfg.tableParams())
	if tabs == nil {
		return nil, err
	} else if err != nil {
		lg.Warn("table cache not written", slog.String("dir", cfg.TableCacheDir), slog.Any("error", err))
	}
	lg.Debug("tables ready", slog.String("params", tabs.Params.String()), slog.Duration("elapsed", time.Since(start)))

	p := &Planner{
		cfg:  cfg,
		grid: grid,
		tabs: tabs,
		lg:   lg,
		collider: route.Collider{
			Grid:      grid,
			Width:     cfg.Width,
			Step:      cfg.RayStep,
			Policy:    cfg.policy(),
			Tolerance: cfg.OOBTolerance,
		},
	}
	opts := cfg.engineOptions()
	p.pool = search.NewPool(cfg.PoolSize, 2*cfg.PoolSize, func() *search.Engine {
		return search.New(grid, tabs, opts)
	})
	if cfg.CacheSize > 0 {
		p.cache = expirable.NewLRU[cacheKey, []route.Pose](cfg.CacheSize, nil, cfg.CacheTTL)
	}
	return p, nil
}

func (p *Planner) Config() Config {
	return p.cfg
}

func (p *Planner) Tables() *tables.Set {
	return p.tabs
}

// Purge drops all cached answers, e.g. after the grid changed.
func (p *Planner) Purge() {
	if p.cache != nil {
		p.cache.Purge()
	}
}

func (p *Planner) smoothOptions() smooth.Options {
	return smooth.Options{
		TurnRadius: p.cfg.TurnRadius,
		Discretize: p.cfg.Discretize,
		Straight:   !p.cfg.Curved,
		Collider:   &p.collider,
	}
}

// Routes returns the connecting routes of a path returned by FindPath.
func (p *Planner) Routes(wps []route.Pose) []route.Route {
	return smooth.Routes(wps, p.smoothOptions())
}

func (p *Planner) open(v route.Vec2) bool {
	x, y := v.Cell()
	return x >= 0 && y >= 0 && x < p.grid.Width() && y < p.grid.Height() && !p.grid.Blocked(x, y)
}

// FindPath returns the waypoints from origin to dest. A nil endHeading
// leaves the arrival heading free. The returned slice belongs to the
// caller.
func (p *Planner) FindPath(origin route.Pose, dest route.Vec2, endHeading *float64) ([]route.Pose, error) {
	if !p.open(origin.Pos) {
		return nil, fmt.Errorf("origin %v: %w", origin.Pos, ErrBlockedEndpoint)
	}
	if !p.open(dest) {
		return nil, fmt.Errorf("destination %v: %w", dest, ErrBlockedEndpoint)
	}

	key := cacheKey{origin: origin, dest: dest}
	if endHeading != nil {
		key.end, key.hasEnd = route.Mod2Pi(*endHeading), true
	}
	if p.cache != nil {
		if wps, ok := p.cache.Get(key); ok {
			p.lg.Debug("path cache hit", slog.Any("origin", origin.Pos), slog.Any("dest", dest))
			return deep.MustCopy(wps), nil
		}
	}

	start := time.Now()
	var wps []route.Pose
	err := p.pool.With(func(e *search.Engine) error {
		var err error
		wps, err = p.find(e, origin, dest, endHeading)
		return err
	})
	if err != nil {
		p.lg.Debug("no path", slog.Any("origin", origin.Pos), slog.Any("dest", dest),
			slog.Int("code", search.Code(err)), slog.Any("error", err))
		return nil, err
	}
	p.lg.Debug("path found", slog.Any("origin", origin.Pos), slog.Any("dest", dest),
		slog.Int("waypoints", len(wps)), slog.Duration("elapsed", time.Since(start)))

	if p.cache != nil {
		p.cache.Add(key, deep.MustCopy(wps))
	}
	return wps, nil
}

func endMask(endHeading *float64) search.HeadingMask {
	if endHeading == nil {
		return 0
	}
	return search.MaskOf(route.NearestHeading(*endHeading))
}

func (p *Planner) find(e *search.Engine, origin route.Pose, dest route.Vec2, endHeading *float64) ([]route.Pose, error) {
	req := search.Request{
		Origin:      origin,
		Dest:        dest,
		EndHeadings: endMask(endHeading),
	}

	var wps []route.Pose
	var err error
	switch {
	case !p.cfg.Curved:
		req.Mode = search.ModePlain
		wps, err = e.Find(req)
	case p.cfg.Granularity == Directional48:
		req.Mode = search.ModeDirectional48
		wps, err = e.Find(req)
	default:
		wps, err = p.findRestricted(e, req, endHeading)
	}
	if err != nil {
		return nil, err
	}
	return p.finish(wps, endHeading), nil
}

// findRestricted plans a coarse path and then a curved one along it,
// falling back to the hybrid search.
func (p *Planner) findRestricted(e *search.Engine, req search.Request, endHeading *float64) ([]route.Pose, error) {
	coarse := req
	coarse.Mode = search.ModePlain
	coarse.EndHeadings = 0
	cwps, err := e.Find(coarse)
	if err != nil {
		return nil, err
	}

	req.Mode = search.ModeRestricted
	req.Candidates = positions(cwps)
	wps, err := e.Find(req)
	if !errors.Is(err, search.ErrPathNotFound) {
		return wps, err
	}
	p.lg.Debug("restricted search failed, trying hybrid", slog.Any("error", err), slog.Int("coarse", len(cwps)))
	wps, herr := p.hybrid(e, req, endHeading)
	if herr != nil {
		p.lg.Warn("hybrid search failed", slog.Any("origin", req.Origin.Pos), slog.Any("dest", req.Dest),
			slog.Any("error", herr))
		return nil, herr
	}
	return wps, nil
}

// finish pins the arrival heading and smooths. A ship that ignores its
// turn radius is smoothed with straight runs.
func (p *Planner) finish(wps []route.Pose, endHeading *float64) []route.Pose {
	if endHeading != nil && len(wps) > 0 {
		last := &wps[len(wps)-1]
		*last = last.WithHeading(*endHeading)
	}
	if p.cfg.Smoothing == SmoothMerge {
		return smooth.MergeAdjacent(wps)
	}
	return smooth.Curve(wps, p.smoothOptions())
}

func positions(wps []route.Pose) []route.Vec2 {
	out := make([]route.Vec2, len(wps))
	for i, wp := range wps {
		out[i] = wp.Pos
	}
	return out
}
