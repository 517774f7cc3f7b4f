package dynamo

import (
	"context"
	"sync"
)

// Member is one run of an ensemble. Members must not share a System.
type Member struct {
	Sim *Simulator
	X0  State
}

type Ensemble struct {
	members []Member
	workers int
}

// NewEnsemble runs members with at most workers concurrent runs
// (workers <= 0 runs all at once).
func NewEnsemble(members []Member, workers int) *Ensemble {
	return &Ensemble{members: members, workers: workers}
}

func (e *Ensemble) Len() int { return len(e.members) }

// Run returns results in member order. The first error, in member order,
// is returned after every run has finished.
func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results, errs := e.RunAll(ctx, cfg)
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// RunAll is Run without the early error: errs[i] belongs to member i and
// results[i] holds whatever member i recorded before failing.
func (e *Ensemble) RunAll(ctx context.Context, cfg Config) ([]*Result, []error) {
	results := make([]*Result, len(e.members))
	errs := make([]error, len(e.members))

	workers := e.workers
	if workers <= 0 || workers > len(e.members) {
		workers = len(e.members)
	}
	sem := make(chan struct{}, max(workers, 1))

	var wg sync.WaitGroup
	for i := range e.members {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			m := e.members[idx]
			results[idx], errs[idx] = m.Sim.Run(ctx, m.X0, cfg)
		}(i)
	}

	wg.Wait()
	return results, errs
}
