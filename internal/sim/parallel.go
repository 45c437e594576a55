package sim

import (
	"context"
	"sync"
)

// Factory builds an independent simulation for one ensemble member.
type Factory func(seed uint64) (*Simulation, error)

// Ensemble runs several seeded simulations concurrently, one goroutine
// each. The members share nothing but the displacement buffer pool.
type Ensemble struct {
	factory   Factory
	numRuns   int
	seedStart uint64
}

func NewEnsemble(factory Factory, numRuns int, seedStart uint64) *Ensemble {
	return &Ensemble{factory: factory, numRuns: numRuns, seedStart: seedStart}
}

// Run returns one result per member, indexed by seed offset.
func (e *Ensemble) Run(ctx context.Context, maxTicks int) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			s, err := e.factory(e.seedStart + uint64(idx))
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = s.Run(ctx, maxTicks)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
