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

func newFitConfigForTest() *FitConfig {
	return NewFitConfig().SetVerbose(1).SetPatience(0)
}

func TestMF_Fit(t *testing.T) {
	trainSet := newTestDataset(10, 10)
	testSet := newTestDataset(10, 10)
	mf := NewMF(model.Params{
		model.NFactors:  4,
		model.NEpochs:   2,
		model.BatchSize: 10,
		model.Lr:        0.01,
	})
	assert.True(t, mf.Invalid())
	score := mf.Fit(context.Background(), trainSet, testSet, newFitConfigForTest())
	assert.False(t, mf.Invalid())
	assert.Greater(t, score.RMSE, float32(0))
	assert.False(t, math32.IsNaN(score.RMSE))
	assert.False(t, math32.IsNaN(score.MAE))

	// known users and items predict through the model
	prediction := mf.Predict("1", "2")
	assert.False(t, math32.IsNaN(prediction))
	// unknown users and items fall back to the global mean
	assert.Equal(t, mf.GlobalMean, mf.Predict("unknown", "2"))
	assert.Equal(t, mf.GlobalMean, mf.Predict("1", "unknown"))

	mf.Clear()
	assert.True(t, mf.Invalid())
}

func TestMF_Marshal(t *testing.T) {
	trainSet := newTestDataset(8, 8)
	mf := NewMF(model.Params{
		model.NFactors:  4,
		model.NEpochs:   1,
		model.BatchSize: 8,
	})
	mf.Fit(context.Background(), trainSet, trainSet, newFitConfigForTest())

	buf := bytes.NewBuffer(nil)
	require.NoError(t, MarshalModel(buf, mf))
	loaded, err := UnmarshalModel(buf)
	require.NoError(t, err)
	copied, ok := loaded.(*MF)
	require.True(t, ok)

	assert.Equal(t, mf.GetParams(), copied.GetParams())
	assert.Equal(t, mf.GlobalMean, copied.GlobalMean)
	for u := 0; u < 8; u++ {
		for i := 0; i < 8; i++ {
			assert.InDelta(t, mf.InternalPredict(int32(u), int32(i)), copied.InternalPredict(int32(u), int32(i)), 1e-5)
		}
	}
}

func TestMF_Clone(t *testing.T) {
	trainSet := newTestDataset(8, 8)
	mf := NewMF(model.Params{
		model.NFactors:  4,
		model.NEpochs:   1,
		model.BatchSize: 8,
		model.UseBias:   false,
		model.Optimizer: model.SGD,
	})
	mf.Fit(context.Background(), trainSet, trainSet, newFitConfigForTest())

	copied := Clone(mf)
	assert.IsType(t, &MF{}, copied)
	assert.InDelta(t, mf.InternalPredict(1, 2), copied.InternalPredict(1, 2), 1e-5)
}
