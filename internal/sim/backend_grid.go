package sim

import "sync"

// GridBackend mimics a SIMT kernel launch: every Launch spawns a grid of
// fixed-size blocks, one goroutine per block, each block covering
// blockSize consecutive lanes. The grid is torn down when the launch
// returns, like a kernel completing.
type GridBackend struct {
	blockSize int
}

// NewGrid creates a grid backend. Non-positive block sizes default to 256
// lanes per block.
func NewGrid(blockSize int) *GridBackend {
	if blockSize <= 0 {
		blockSize = 256
	}
	return &GridBackend{blockSize: blockSize}
}

func (g *GridBackend) Name() string { return "grid" }

func (g *GridBackend) Launch(lanes int, run func(lane int)) {
	if lanes <= 0 {
		return
	}

	blocks := (lanes + g.blockSize - 1) / g.blockSize
	var wg sync.WaitGroup
	wg.Add(blocks)
	for b := 0; b < blocks; b++ {
		go func(block int) {
			defer wg.Done()
			from := block * g.blockSize
			to := from + g.blockSize
			if to > lanes {
				to = lanes
			}
			for lane := from; lane < to; lane++ {
				run(lane)
			}
		}(b)
	}
	wg.Wait()
}

func (g *GridBackend) Close() {}
