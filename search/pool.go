package search

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	recycleDelay    = 60 * time.Second
	recycleInterval = 30 * time.Minute
)

// Pool 基于channel的引擎池. Engines are large, so idle ones are kept for
// reuse; when far more are returned than taken, a timer trims 10% of the
// idle engines at a time.
type Pool struct {
	pool     chan *Engine
	newFn    func() *Engine
	getCnt   atomic.Uint32
	putCnt   atomic.Uint32
	newCnt   atomic.Uint32
	limitCnt uint32

	mu           sync.Mutex
	recycleTimer *time.Timer
}

// NewPool keeps up to poolSize idle engines created by newFn. limitCnt is
// the surplus of puts over gets that arms the recycle timer.
func NewPool(poolSize, limitCnt int, newFn func() *Engine) *Pool {
	return &Pool{
		pool:     make(chan *Engine, poolSize),
		newFn:    newFn,
		limitCnt: uint32(limitCnt),
	}
}

// Get returns an idle engine or a new one.
func (p *Pool) Get() *Engine {
	select {
	case e := <-p.pool:
		p.getCnt.Add(1)
		return e
	default:
		p.newCnt.Add(1)
		return p.newFn()
	}
}

// Put returns e to the pool. Engines beyond the pool capacity are dropped.
func (p *Pool) Put(e *Engine) {
	if e == nil {
		return
	}
	select {
	case p.pool <- e:
		p.putCnt.Add(1)
	default:
		// 池已满，丢弃
	}

	getCnt := p.getCnt.Load()
	putCnt := p.putCnt.Load()
	p.mu.Lock()
	defer p.mu.Unlock()
	if putCnt-getCnt > p.limitCnt {
		// 触发回收机制
		if p.recycleTimer == nil {
			p.recycleTimer = time.AfterFunc(recycleDelay, p.triggerRecycle)
		} else {
			p.recycleTimer.Reset(recycleDelay)
		}
	} else if p.recycleTimer != nil {
		p.recycleTimer.Stop()
	}
}

// With runs fn with an exclusive engine.
func (p *Pool) With(fn func(e *Engine) error) error {
	e := p.Get()
	defer p.Put(e)
	return fn(e)
}

func (p *Pool) Length() int {
	return len(p.pool)
}

func (p *Pool) Capacity() int {
	return cap(p.pool)
}

// Created is the number of engines newFn has built.
func (p *Pool) Created() int {
	return int(p.newCnt.Load())
}

// triggerRecycle 每次回收10%
func (p *Pool) triggerRecycle() {
	n := len(p.pool) / 10
	for i := 0; i < n; i++ {
		select {
		case <-p.pool:
			p.getCnt.Add(1)
		default:
		}
	}

	// 30分钟后再次触发回收
	p.mu.Lock()
	p.recycleTimer.Reset(recycleInterval)
	p.mu.Unlock()
}
