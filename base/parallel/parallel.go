// Copyright 2026 mlens Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package parallel

import (
	"context"
	"sync"

	"github.com/juju/errors"
	"github.com/mlens-io/mlens/common/util"
	"go.uber.org/atomic"
	"modernc.org/mathutil"
)

const chanSize = 1024

/* Parallel Schedulers */

// Parallel schedules and runs jobs in parallel. nJobs is the number of jobs,
// nWorkers the number of executors. The ctx argument allows callers to cancel
// outstanding work.
func Parallel(ctx context.Context, nJobs, nWorkers int, worker func(workerId, jobId int) error) error {
	if nWorkers <= 1 {
		for i := 0; i < nJobs; i++ {
			if err := ctx.Err(); err != nil {
				return errors.Trace(err)
			}
			if err := worker(0, i); err != nil {
				return errors.Trace(err)
			}
		}
		return nil
	}
	c := make(chan int, chanSize)
	// producer
	go func() {
		defer close(c)
		for i := 0; i < nJobs; i++ {
			select {
			case <-ctx.Done():
				return
			case c <- i:
			}
		}
	}()
	// consumer
	var wg sync.WaitGroup
	errs := make([]error, nJobs)
	for j := 0; j < nWorkers; j++ {
		// start workers
		workerId := j
		wg.Go(func() {
			defer util.CheckPanic()
			for {
				select {
				case <-ctx.Done():
					return
				case jobId, ok := <-c:
					if !ok {
						return
					}
					if err := worker(workerId, jobId); err != nil {
						errs[jobId] = err
						return
					}
				}
			}
		})
	}
	wg.Wait()
	// check errors
	for _, err := range errs {
		if err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

type batchJob struct {
	beginId int
	endId   int
}

// BatchParallel runs parallel jobs in batches to reduce the cost of context
// switches. Workers stop pulling batches once any batch fails.
func BatchParallel(nJobs, nWorkers, batchSize int, worker func(workerId, beginJobId, endJobId int) error) error {
	if nWorkers <= 1 {
		return worker(0, 0, nJobs)
	}
	c := make(chan batchJob, chanSize)
	// producer
	go func() {
		for i := 0; i < nJobs; i += batchSize {
			c <- batchJob{beginId: i, endId: mathutil.Min(i+batchSize, nJobs)}
		}
		close(c)
	}()
	// consumer
	var wg sync.WaitGroup
	failed := atomic.NewBool(false)
	errs := make([]error, nJobs)
	for j := 0; j < nWorkers; j++ {
		// start workers
		workerId := j
		wg.Go(func() {
			defer util.CheckPanic()
			for {
				job, ok := <-c
				if !ok {
					return
				}
				if failed.Load() {
					return
				}
				if err := worker(workerId, job.beginId, job.endId); err != nil {
					errs[job.beginId] = err
					failed.Store(true)
					return
				}
			}
		})
	}
	wg.Wait()
	// check errors
	for _, err := range errs {
		if err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}
