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

	"github.com/c-bata/goptuna"
	"github.com/chewxy/math32"
	"github.com/juju/errors"
	"github.com/mlens-io/mlens/dataset"
	"github.com/mlens-io/mlens/model"
	"golang.org/x/exp/maps"
)

type ModelCreator func() MatrixFactorization

// SearchedModel is the best model type and parameters found so far.
type SearchedModel struct {
	Type   string
	Params model.Params
	Score  Score
}

// ModelSearch is a goptuna objective searching over model types and their
// hyper-parameters at once. Trials minimize the test RMSE.
type ModelSearch struct {
	modelCreators map[string]ModelCreator
	modelTypes    []string
	trainSet      *dataset.Dataset
	testSet       *dataset.Dataset
	config        *FitConfig
	result        SearchedModel
}

func NewModelSearch(models map[string]ModelCreator, trainSet, testSet *dataset.Dataset, config *FitConfig) *ModelSearch {
	return &ModelSearch{
		modelCreators: models,
		modelTypes:    maps.Keys(models),
		trainSet:      trainSet,
		testSet:       testSet,
		config:        config,
		result:        SearchedModel{Score: Score{RMSE: math32.MaxFloat32}},
	}
}

func (ms *ModelSearch) Objective(trial goptuna.Trial) (float64, error) {
	if len(ms.modelCreators) == 0 {
		return 0, errors.New("no model to search")
	}
	modelType, err := trial.SuggestCategorical("Model", ms.modelTypes)
	if err != nil {
		return 0, errors.Trace(err)
	}
	m := ms.modelCreators[modelType]()
	m.SetParams(m.SuggestParams(trial))
	score := m.Fit(context.Background(), ms.trainSet, ms.testSet, ms.config)
	if score.BetterThan(ms.result.Score) {
		ms.result = SearchedModel{
			Type:   modelType,
			Params: m.GetParams(),
			Score:  score,
		}
	}
	return float64(score.RMSE), nil
}

func (ms *ModelSearch) Result() SearchedModel {
	return ms.result
}
