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
	"bytes"
	"context"
	"testing"

	"github.com/chewxy/math32"
	"github.com/mlens-io/mlens/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMLP_Fit(t *testing.T) {
	trainSet := newTestDataset(10, 10)
	testSet := newTestDataset(10, 10)
	mlp := NewMLP(model.Params{
		model.NFactors:   4,
		model.NEpochs:    2,
		model.BatchSize:  10,
		model.HiddenSize: 8,
		model.NHidden:    2,
		model.Dropout:    0.25,
		model.Lr:         0.01,
	})
	assert.True(t, mlp.Invalid())
	score := mlp.Fit(context.Background(), trainSet, testSet, newFitConfigForTest())
	assert.False(t, mlp.Invalid())
	assert.Greater(t, score.RMSE, float32(0))
	assert.False(t, math32.IsNaN(score.RMSE))
	assert.False(t, math32.IsNaN(score.MAE))

	prediction := mlp.Predict("1", "2")
	assert.False(t, math32.IsNaN(prediction))
	assert.Equal(t, mlp.GlobalMean, mlp.Predict("unknown", "2"))
	assert.Equal(t, mlp.GlobalMean, mlp.Predict("1", "unknown"))

	mlp.Clear()
	assert.True(t, mlp.Invalid())
}

func TestMLP_Marshal(t *testing.T) {
	trainSet := newTestDataset(8, 8)
	mlp := NewMLP(model.Params{
		model.NFactors:   4,
		model.NEpochs:    1,
		model.BatchSize:  8,
		model.HiddenSize: 8,
	})
	mlp.Fit(context.Background(), trainSet, trainSet, newFitConfigForTest())

	buf := bytes.NewBuffer(nil)
	require.NoError(t, MarshalModel(buf, mlp))
	loaded, err := UnmarshalModel(buf)
	require.NoError(t, err)
	copied, ok := loaded.(*MLP)
	require.True(t, ok)

	assert.Equal(t, mlp.GetParams(), copied.GetParams())
	assert.Equal(t, mlp.GlobalMean, copied.GlobalMean)
	for u := 0; u < 8; u++ {
		for i := 0; i < 8; i++ {
			assert.InDelta(t, mlp.InternalPredict(int32(u), int32(i)), copied.InternalPredict(int32(u), int32(i)), 1e-5)
		}
	}
}
