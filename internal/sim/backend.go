package sim

// Backend dispatches one bar's worth of lane updates across goroutines.
// Implementations only differ in how lanes are partitioned; every lane
// runs the same arena kernel, which is what keeps trade decisions
// identical across backends. Launch returns once all lanes have run.
type Backend interface {
	Name() string
	Launch(lanes int, run func(lane int))
	Close()
}

// NewBackend constructs a backend by name: "pool" (worker pool) or
// "grid" (block-per-goroutine kernel grid). Unknown names fall back to
// the pool backend.
func NewBackend(name string, workers, blockSize int) Backend {
	if name == "grid" {
		return NewGrid(blockSize)
	}
	return NewPool(workers)
}
