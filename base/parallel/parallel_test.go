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
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"go.uber.org/atomic"
)

func TestParallel(t *testing.T) {
	visited := make([]atomic.Bool, 100)
	err := Parallel(context.Background(), 100, 4, func(workerId, jobId int) error {
		visited[jobId].Store(true)
		return nil
	})
	assert.NoError(t, err)
	for i := range visited {
		assert.True(t, visited[i].Load())
	}
}

func TestParallel_Sequential(t *testing.T) {
	count := 0
	err := Parallel(context.Background(), 10, 1, func(workerId, jobId int) error {
		assert.Equal(t, 0, workerId)
		count++
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 10, count)
}

func TestParallel_Error(t *testing.T) {
	err := Parallel(context.Background(), 100, 4, func(workerId, jobId int) error {
		if jobId == 42 {
			return errors.New("boom")
		}
		return nil
	})
	assert.Error(t, err)
}

func TestParallel_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Parallel(ctx, 10, 1, func(workerId, jobId int) error {
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBatchParallel(t *testing.T) {
	visited := make([]atomic.Bool, 100)
	err := BatchParallel(100, 4, 10, func(workerId, beginJobId, endJobId int) error {
		for i := beginJobId; i < endJobId; i++ {
			visited[i].Store(true)
		}
		return nil
	})
	assert.NoError(t, err)
	for i := range visited {
		assert.True(t, visited[i].Load())
	}
}
