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

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/mlens-io/mlens/base"
	"github.com/mlens-io/mlens/dataset"
)

// ratingDataset feeds shuffled fixed-size batches of (user, item, rating)
// triples to the training loop. The training set is reshuffled on every
// Reset. The trailing ratings that don't fill a batch are skipped so every
// step sees the same tensor shapes.
type ratingDataset struct {
	trainSet      *dataset.Dataset
	batchSize     int
	rng           base.RandomGenerator
	perm          []int
	currentOffset int
}

func newRatingDataset(trainSet *dataset.Dataset, batchSize int, rng base.RandomGenerator) *ratingDataset {
	d := &ratingDataset{
		trainSet:  trainSet,
		batchSize: batchSize,
		rng:       rng,
	}
	d.Reset()
	return d
}

// Steps returns the number of full batches per epoch.
func (d *ratingDataset) Steps() int {
	return d.trainSet.Count() / d.batchSize
}

func (d *ratingDataset) Name() string { return "RatingDataset" }

func (d *ratingDataset) Reset() {
	d.currentOffset = 0
	d.perm = d.rng.Perm(d.trainSet.Count())
}

func (d *ratingDataset) Yield() (spec any, inputs []*tensors.Tensor, labels []*tensors.Tensor, err error) {
	if d.currentOffset+d.batchSize > d.trainSet.Count() {
		return nil, nil, nil, io.EOF
	}

	usersData := make([]int32, d.batchSize)
	itemsData := make([]int32, d.batchSize)
	labelsData := make([]float32, d.batchSize)
	for i := 0; i < d.batchSize; i++ {
		userIndex, itemIndex, target := d.trainSet.Get(d.perm[d.currentOffset+i])
		usersData[i] = userIndex
		itemsData[i] = itemIndex
		labelsData[i] = target
	}
	d.currentOffset += d.batchSize

	inputs = []*tensors.Tensor{
		tensors.FromFlatDataAndDimensions(usersData, d.batchSize),
		tensors.FromFlatDataAndDimensions(itemsData, d.batchSize),
	}
	labels = []*tensors.Tensor{tensors.FromFlatDataAndDimensions(labelsData, d.batchSize)}
	return nil, inputs, labels, nil
}
