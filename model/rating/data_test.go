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

package rating

import (
	"io"
	"testing"

	"github.com/mlens-io/mlens/base"
	"github.com/stretchr/testify/assert"
)

func TestRatingDataset(t *testing.T) {
	data := newTestDataset(5, 5) // 25 ratings
	ds := newRatingDataset(data, 10, base.NewRandomGenerator(0))
	assert.Equal(t, "RatingDataset", ds.Name())
	assert.Equal(t, 2, ds.Steps())

	// two full batches, then EOF: the trailing 5 ratings are dropped
	for i := 0; i < 2; i++ {
		_, inputs, labels, err := ds.Yield()
		assert.NoError(t, err)
		assert.Len(t, inputs, 2)
		assert.Len(t, labels, 1)
		assert.Equal(t, []int{10}, inputs[0].Shape().Dimensions)
		assert.Equal(t, []int{10}, inputs[1].Shape().Dimensions)
		assert.Equal(t, []int{10}, labels[0].Shape().Dimensions)
	}
	_, _, _, err := ds.Yield()
	assert.ErrorIs(t, err, io.EOF)

	// Reset starts a new epoch
	ds.Reset()
	_, _, _, err = ds.Yield()
	assert.NoError(t, err)
}

func TestRatingDataset_Shuffle(t *testing.T) {
	data := newTestDataset(10, 10)
	ds := newRatingDataset(data, 100, base.NewRandomGenerator(0))
	firstEpoch := append([]int(nil), ds.perm...)
	ds.Reset()
	secondEpoch := append([]int(nil), ds.perm...)
	assert.NotEqual(t, firstEpoch, secondEpoch)

	// the same seed yields the same shuffle
	other := newRatingDataset(data, 100, base.NewRandomGenerator(0))
	assert.Equal(t, firstEpoch, other.perm)
}
