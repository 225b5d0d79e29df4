// shipnav plans a ship route on a tile map and prints it.
//
//	shipnav -map harbour.txt -ox 2 -oy 3 -oh 0 -dx 40 -dy 17
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/goforj/godump"

	"shipnav/log"
	"shipnav/planner"
	"shipnav/route"
	"shipnav/search"
	"shipnav/tilemap"
)

var (
	mapFile     = flag.String("map", "", "tile map: ASCII ('#' blocked, '.' open) or .bin")
	configFile  = flag.String("config", "", "JSON planner config")
	logLevel    = flag.String("loglevel", "info", "logging level: debug, info, warn, error")
	logDir      = flag.String("logdir", "", "log file directory")
	tableCache  = flag.String("tablecache", "", "directory for cached sub-path tables")
	convertTo   = flag.String("convert", "", "write the map to this file (.bin for binary) and exit")
	dumpFile    = flag.String("dump", "", "dump the config and result to this file")
	granularity = flag.String("granularity", "", "plain8 or directional48")
	smoothing   = flag.String("smoothing", "", "merge or curve")
	straight    = flag.Bool("straight", false, "ignore the turn radius")
	turnRadius  = flag.Float64("radius", 0, "turn radius in tiles")
	width       = flag.Float64("width", 0, "ship width in tiles")
	originX     = flag.Float64("ox", 0, "origin x (tiles)")
	originY     = flag.Float64("oy", 0, "origin y (tiles)")
	originH     = flag.Float64("oh", math.NaN(), "origin heading in degrees, NaN for free")
	destX       = flag.Float64("dx", 0, "destination x (tiles)")
	destY       = flag.Float64("dy", 0, "destination y (tiles)")
	destH       = flag.Float64("dh", math.NaN(), "arrival heading in degrees, NaN for free")
)

func main() {
	flag.Parse()

	lg := log.New(*logLevel, *logDir)

	if *mapFile == "" {
		fmt.Fprintln(os.Stderr, "shipnav: -map is required")
		flag.Usage()
		os.Exit(2)
	}
	grid, err := tilemap.Load(*mapFile)
	if err != nil {
		fail(lg, err)
	}
	if *convertTo != "" {
		if err := grid.Save(*convertTo); err != nil {
			fail(lg, err)
		}
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		fail(lg, err)
	}

	start := time.Now()
	p, err := planner.New(context.Background(), grid, cfg, lg)
	if err != nil {
		fail(lg, err)
	}
	lg.Infof("planner ready in %s", time.Since(start))

	origin := route.Free(route.Vec2{X: *originX, Y: *originY})
	if !math.IsNaN(*originH) {
		origin = route.At(origin.Pos, degrees(*originH))
	}
	var end *float64
	if !math.IsNaN(*destH) {
		h := degrees(*destH)
		end = &h
	}
	dest := route.Vec2{X: *destX, Y: *destY}

	wps, err := p.FindPath(origin, dest, end)
	if *dumpFile != "" {
		dump(lg, cfg, wps, err)
	}
	if err != nil {
		fmt.Printf("no path (code %d): %v\n", search.Code(err), err)
		os.Exit(1)
	}

	for i, wp := range wps {
		fmt.Printf("%3d  %8.3f %8.3f  %7.2f\n", i, wp.Pos.X, wp.Pos.Y, wp.Heading*180/math.Pi)
	}
	fmt.Print(render(grid, p.Routes(wps), wps))
}

func degrees(d float64) float64 {
	return route.Mod2Pi(d * math.Pi / 180)
}

// loadConfig reads -config and applies the flags given on the command
// line on top.
func loadConfig() (planner.Config, error) {
	cfg := planner.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = planner.LoadConfig(*configFile); err != nil {
			return cfg, err
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "granularity":
			cfg.Granularity = planner.Granularity(*granularity)
		case "smoothing":
			cfg.Smoothing = planner.Smoothing(*smoothing)
		case "straight":
			cfg.Curved = !*straight
		case "radius":
			cfg.TurnRadius = *turnRadius
		case "width":
			cfg.Width = *width
		case "tablecache":
			cfg.TableCacheDir = *tableCache
		}
	})
	return cfg, cfg.Validate()
}

func render(g *tilemap.Grid, legs []route.Route, wps []route.Pose) string {
	marks := map[[2]int]byte{}
	for i := range legs {
		legs[i].Sample(0.25, func(p route.Pose) bool {
			x, y := p.Pos.Cell()
			marks[[2]int{x, y}] = '*'
			return true
		})
	}
	for i, wp := range wps {
		x, y := wp.Pos.Cell()
		switch i {
		case 0:
			marks[[2]int{x, y}] = 'S'
		case len(wps) - 1:
			marks[[2]int{x, y}] = 'D'
		default:
			marks[[2]int{x, y}] = 'o'
		}
	}
	return g.Render(func(x, y int) byte { return marks[[2]int{x, y}] })
}

func dump(lg *log.Logger, cfg planner.Config, wps []route.Pose, err error) {
	f, ferr := os.Create(*dumpFile)
	if ferr != nil {
		lg.Errorf("%s: %v", *dumpFile, ferr)
		return
	}
	defer f.Close()

	godump.Fdump(f, cfg)
	if err != nil {
		fmt.Fprintf(f, "error (code %d): %v\n", search.Code(err), err)
	} else {
		godump.Fdump(f, wps)
	}
}

func fail(lg *log.Logger, err error) {
	lg.Error("shipnav", "error", err)
	fmt.Fprintln(os.Stderr, "shipnav:", err)
	os.Exit(1)
}
