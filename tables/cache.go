package tables

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// FormatVersion is bumped whenever the table layout or build rules change;
// cached sets with another version are rebuilt.
const FormatVersion = 1

var ErrStaleCache = errors.New("tables: cached set does not match")

// Save writes s as zstd compressed msgpack.
func (s *Set) Save(w io.Writer) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}
	if err := msgpack.NewEncoder(zw).Encode(s); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// Load reads a set written by Save and checks its shape.
func Load(r io.Reader) (*Set, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var s Set
	if err := msgpack.NewDecoder(zr).Decode(&s); err != nil {
		return nil, err
	}
	if s.Version != FormatVersion || len(s.SubPaths) != NumSubPaths || len(s.Heuristic) != HeuristicRows*NumBuckets {
		return nil, ErrStaleCache
	}
	return &s, nil
}

// CachePath is the file name a set for p is cached under inside dir.
func CachePath(dir string, p Params) string {
	name := fmt.Sprintf("tables-v%d-r%g-w%g-d%t.msgpack.zst", FormatVersion, p.TurnRadius, p.Width, p.Discretize)
	return filepath.Join(dir, name)
}

// LoadOrBuild returns the set cached in dir for p, building and storing it
// when the cache is missing or stale. An empty dir disables the cache.
func LoadOrBuild(ctx context.Context, dir string, p Params) (*Set, error) {
	if dir == "" {
		return Build(ctx, p)
	}
	path := CachePath(dir, p)
	if f, err := os.Open(path); err == nil {
		s, err := Load(f)
		f.Close()
		if err == nil && s.Params == p {
			return s, nil
		}
	}

	s, err := Build(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return s, err
	}
	f, err := os.Create(path)
	if err != nil {
		return s, err
	}
	defer f.Close()
	return s, s.Save(f)
}
