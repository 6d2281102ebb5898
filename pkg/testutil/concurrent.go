package testutil

import (
	"errors"
	"sync"
	"sync/atomic"

	dErrors "voicegate/pkg/domain-errors"
	"voicegate/pkg/platform/sentinel"
)

// ConcurrentResult buckets the outcomes of a RunConcurrent call.
type ConcurrentResult struct {
	Successes int32
	Conflicts int32
	Locked    int32
	Errors    int32
}

func (r *ConcurrentResult) Total() int32 {
	return r.Successes + r.Conflicts + r.Locked + r.Errors
}

// RunConcurrent starts goroutines calling fn at once and sorts the results.
// Store conflicts count as Conflicts whether they arrive as the sentinel or
// as a translated domain error.
func RunConcurrent(goroutines int, fn func(idx int) error) *ConcurrentResult {
	var wg sync.WaitGroup
	var successes, conflicts, locked, errs atomic.Int32
	start := make(chan struct{})

	for i := range goroutines {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			<-start
			err := fn(idx)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, sentinel.ErrConflict), dErrors.HasCode(err, dErrors.CodeConflict):
				conflicts.Add(1)
			case dErrors.HasCode(err, dErrors.CodeProfileLocked):
				locked.Add(1)
			default:
				errs.Add(1)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	return &ConcurrentResult{
		Successes: successes.Load(),
		Conflicts: conflicts.Load(),
		Locked:    locked.Load(),
		Errors:    errs.Load(),
	}
}
