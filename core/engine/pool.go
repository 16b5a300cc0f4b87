package engine

import (
	"context"
	"fmt"
)

// Pool manages a fixed set of UCI engine processes and hands one out per
// Analyze call, bounding concurrent engine usage the same way the teacher's
// retriever bounds concurrent fan-out: a buffered channel used as a
// semaphore over a fixed worker count.
type Pool struct {
	engines chan *UCIEngine
}

// NewPool spawns count engine processes at path and returns a Pool ready to
// serve concurrent Analyze calls up to count at a time.
func NewPool(ctx context.Context, path string, count int, args ...string) (*Pool, error) {
	if count <= 0 {
		return nil, fmt.Errorf("engine: pool size must be positive, got %d", count)
	}
	p := &Pool{engines: make(chan *UCIEngine, count)}
	for i := 0; i < count; i++ {
		e, err := Spawn(ctx, path, args...)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("engine: spawning pool member %d/%d: %w", i+1, count, err)
		}
		p.engines <- e
	}
	return p, nil
}

// Analyze borrows an engine from the pool, runs the analysis, and returns
// the engine to the pool. Blocks until an engine is free or ctx is done.
func (p *Pool) Analyze(ctx context.Context, fen string, depth, multiPV int) (Analysis, error) {
	select {
	case e := <-p.engines:
		defer func() { p.engines <- e }()
		return e.Analyze(ctx, fen, depth, multiPV)
	case <-ctx.Done():
		return Analysis{}, ctx.Err()
	}
}

// Close terminates every pooled engine process. Safe to call once all
// in-flight Analyze calls have returned.
func (p *Pool) Close() {
	for {
		select {
		case e := <-p.engines:
			_ = e.Close()
		default:
			return
		}
	}
}
