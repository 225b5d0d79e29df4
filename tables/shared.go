package tables

import (
	"context"

	"golang.org/x/sync/syncmap"
)

// 全局表缓存, 相同参数的船共享同一份只读表
var _globalSets syncmap.Map

// Shared returns the process-wide set for p, building it on first use.
// Sets are immutable once built and may be read from many goroutines.
// A non-nil set returned with an error could not be written to dir.
func Shared(ctx context.Context, dir string, p Params) (*Set, error) {
	if v, ok := _globalSets.Load(p); ok {
		return v.(*Set), nil
	}
	s, err := LoadOrBuild(ctx, dir, p)
	if s == nil {
		return nil, err
	}
	// 并发构建时以先存入者为准
	v, _ := _globalSets.LoadOrStore(p, s)
	return v.(*Set), err
}

// Forget drops the shared set for p.
func Forget(p Params) {
	_globalSets.Delete(p)
}
