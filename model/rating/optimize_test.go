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
	"testing"

	"github.com/c-bata/goptuna"
	"github.com/c-bata/goptuna/tpe"
	"github.com/mlens-io/mlens/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelSearch(t *testing.T) {
	trainSet := newTestDataset(8, 8)
	testSet := newTestDataset(8, 8)
	search := NewModelSearch(map[string]ModelCreator{
		"mf": func() MatrixFactorization {
			return NewMF(model.Params{
				model.NEpochs:   1,
				model.BatchSize: 8,
			})
		},
	}, trainSet, testSet, newFitConfigForTest())

	study, err := goptuna.CreateStudy("test",
		goptuna.StudyOptionDirection(goptuna.StudyDirectionMinimize),
		goptuna.StudyOptionSampler(tpe.NewSampler()))
	require.NoError(t, err)
	require.NoError(t, study.Optimize(search.Objective, 2))

	result := search.Result()
	assert.Equal(t, "mf", result.Type)
	assert.NotEmpty(t, result.Params)
	assert.Greater(t, result.Score.RMSE, float32(0))

	bestValue, err := study.GetBestValue()
	require.NoError(t, err)
	assert.InDelta(t, float64(result.Score.RMSE), bestValue, 1e-6)
}

func TestModelSearch_Empty(t *testing.T) {
	search := NewModelSearch(nil, nil, nil, nil)
	study, err := goptuna.CreateStudy("test",
		goptuna.StudyOptionDirection(goptuna.StudyDirectionMinimize))
	require.NoError(t, err)
	assert.Error(t, study.Optimize(search.Objective, 1))
}
