package search

import (
	"sync"
	"testing"
)

func TestPoolReuse(t *testing.T) {
	g := open(t, 10, 10)
	p := NewPool(2, 100, func() *Engine { return newEngine(t, g, Options{}) })
	a := p.Get()
	p.Put(a)
	if p.Length() != 1 {
		t.Fatalf("Length = %d, want 1", p.Length())
	}
	if b := p.Get(); b != a {
		t.Fatalf("pooled engine not reused")
	}
	if p.Created() != 1 {
		t.Fatalf("Created = %d, want 1", p.Created())
	}

	// over capacity engines are dropped
	p.Put(p.Get())
	p.Put(newEngine(t, g, Options{}))
	p.Put(newEngine(t, g, Options{}))
	if p.Length() != p.Capacity() {
		t.Fatalf("Length = %d, Capacity = %d", p.Length(), p.Capacity())
	}
}

func TestPoolConcurrent(t *testing.T) {
	g := open(t, 10, 10)
	unitTables(t)
	p := NewPool(4, 100, func() *Engine { return New(g, unitSet, Options{WindowSize: 32}) })
	var wg sync.WaitGroup
	costs := make([]int32, 16)
	for i := range costs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := p.With(func(e *Engine) error {
				ref, err := e.Search(plainReq(1, 1, 8, 8))
				if err == nil {
					costs[i] = e.Cost(ref)
				}
				return err
			})
			if err != nil {
				t.Errorf("search %d: %v", i, err)
			}
		}()
	}
	wg.Wait()
	for i, c := range costs {
		if c != 987 {
			t.Fatalf("search %d cost %d", i, c)
		}
	}
	if p.Created() > len(costs) || p.Length() > p.Capacity() {
		t.Fatalf("created %d engines, %d idle", p.Created(), p.Length())
	}
}
