package sim

import (
	"runtime"
	"sync"
)

// PoolBackend executes lane updates on a fixed pool of persistent worker
// goroutines, handing each worker a contiguous chunk of lanes per launch.
// Launches are barrier-synchronized; concurrent launches from different
// engine runs interleave safely because each carries its own wait group.
type PoolBackend struct {
	workers int
	tasks   chan poolTask
	once    sync.Once
}

type poolTask struct {
	from, to int
	run      func(lane int)
	done     *sync.WaitGroup
}

// NewPool creates a pool backend. Non-positive workers defaults to
// runtime.NumCPU().
func NewPool(workers int) *PoolBackend {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	p := &PoolBackend{
		workers: workers,
		tasks:   make(chan poolTask),
	}
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *PoolBackend) Name() string { return "pool" }

func (p *PoolBackend) worker() {
	for t := range p.tasks {
		for lane := t.from; lane < t.to; lane++ {
			t.run(lane)
		}
		t.done.Done()
	}
}

// Launch splits the lanes into one contiguous chunk per worker and blocks
// until every chunk has been processed.
func (p *PoolBackend) Launch(lanes int, run func(lane int)) {
	if lanes <= 0 {
		return
	}

	chunk := (lanes + p.workers - 1) / p.workers
	var done sync.WaitGroup
	for from := 0; from < lanes; from += chunk {
		to := from + chunk
		if to > lanes {
			to = lanes
		}
		done.Add(1)
		p.tasks <- poolTask{from: from, to: to, run: run, done: &done}
	}
	done.Wait()
}

// Close stops the worker goroutines. The backend must not be launched
// after Close.
func (p *PoolBackend) Close() {
	p.once.Do(func() { close(p.tasks) })
}
