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
	"context"
	"testing"

	"github.com/mlens-io/mlens/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridSearchCV(t *testing.T) {
	trainSet := newTestDataset(8, 8)
	testSet := newTestDataset(8, 8)
	mf := NewMF(model.Params{
		model.NEpochs:   1,
		model.BatchSize: 8,
	})
	grid := model.ParamsGrid{
		model.NFactors: []interface{}{2, 4},
		model.UseBias:  []interface{}{true, false},
	}
	result := GridSearchCV(context.Background(), mf, trainSet, testSet, grid, 0,
		newFitConfigForTest())
	assert.Len(t, result.Scores, 4)
	assert.Len(t, result.Params, 4)
	assert.Equal(t, result.Scores[result.BestIndex], result.BestScore)
	assert.Equal(t, result.Params[result.BestIndex], result.BestParams)
	for _, score := range result.Scores {
		assert.False(t, result.BestScore.RMSE > score.RMSE)
	}
	require.NotNil(t, result.BestModel)
	assert.False(t, result.BestModel.Invalid())
}

func TestRandomSearchCV(t *testing.T) {
	trainSet := newTestDataset(8, 8)
	testSet := newTestDataset(8, 8)
	mf := NewMF(model.Params{
		model.NEpochs:   1,
		model.BatchSize: 8,
	})
	grid := model.ParamsGrid{
		model.NFactors: []interface{}{2, 4, 8},
		model.Lr:       []interface{}{0.001, 0.01, 0.1},
		model.UseBias:  []interface{}{true, false},
	}
	result := RandomSearchCV(context.Background(), mf, trainSet, testSet, grid, 3, 42,
		newFitConfigForTest())
	assert.Len(t, result.Scores, 3)
	assert.Len(t, result.Params, 3)
	assert.Equal(t, result.Scores[result.BestIndex], result.BestScore)
	require.NotNil(t, result.BestModel)
	assert.False(t, result.BestModel.Invalid())
}

func TestRandomSearchCV_UsesGridWhenSmall(t *testing.T) {
	trainSet := newTestDataset(8, 8)
	testSet := newTestDataset(8, 8)
	mf := NewMF(model.Params{
		model.NEpochs:   1,
		model.BatchSize: 8,
	})
	grid := model.ParamsGrid{
		model.NFactors: []interface{}{2, 4},
	}
	// two combinations, ten trials: the whole grid is searched once
	result := RandomSearchCV(context.Background(), mf, trainSet, testSet, grid, 10, 42,
		newFitConfigForTest())
	assert.Len(t, result.Scores, 2)
}
