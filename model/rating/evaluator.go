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

	"github.com/chewxy/math32"
	"github.com/mlens-io/mlens/base/log"
	"github.com/mlens-io/mlens/base/parallel"
	"github.com/mlens-io/mlens/dataset"
	"go.uber.org/zap"
)

// EvaluateRegression evaluates a rating model on a test set. RMSE is the
// square root of the mean squared prediction error, MAE the mean absolute
// error. Predictions run on jobs workers, batched when the model supports
// batch inference.
func EvaluateRegression(estimator MatrixFactorization, testSet *dataset.Dataset, jobs int) Score {
	if testSet.Count() == 0 {
		return Score{}
	}
	userIndices := make([]int32, testSet.Count())
	itemIndices := make([]int32, testSet.Count())
	targets := make([]float32, testSet.Count())
	for i := 0; i < testSet.Count(); i++ {
		userIndices[i], itemIndices[i], targets[i] = testSet.Get(i)
	}
	predictions := make([]float32, testSet.Count())
	if batchInference, ok := estimator.(BatchInference); ok {
		if err := parallel.BatchParallel(testSet.Count(), jobs, 128, func(_, beginJobId, endJobId int) error {
			copy(predictions[beginJobId:endJobId],
				batchInference.BatchInternalPredict(userIndices[beginJobId:endJobId], itemIndices[beginJobId:endJobId]))
			return nil
		}); err != nil {
			log.Logger().Error("failed to evaluate regression", zap.Error(err))
			return Score{}
		}
	} else {
		if err := parallel.Parallel(context.Background(), testSet.Count(), jobs, func(_, jobId int) error {
			predictions[jobId] = estimator.InternalPredict(userIndices[jobId], itemIndices[jobId])
			return nil
		}); err != nil {
			log.Logger().Error("failed to evaluate regression", zap.Error(err))
			return Score{}
		}
	}
	var squaredSum, absoluteSum float32
	for i := range predictions {
		diff := targets[i] - predictions[i]
		squaredSum += diff * diff
		absoluteSum += math32.Abs(diff)
	}
	return Score{
		RMSE: math32.Sqrt(squaredSum / float32(testSet.Count())),
		MAE:  absoluteSum / float32(testSet.Count()),
	}
}
