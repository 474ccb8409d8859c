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

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParams_GetInt(t *testing.T) {
	p := Params{}
	// Empty case
	assert.Equal(t, 10, p.GetInt(NEpochs, 10))
	// Normal case
	p[NEpochs] = 0
	assert.Equal(t, 0, p.GetInt(NEpochs, 10))
	// Convert from float64
	p[NEpochs] = float64(5)
	assert.Equal(t, 5, p.GetInt(NEpochs, 10))
	// Wrong type case
	p[NEpochs] = "hello"
	assert.Equal(t, 10, p.GetInt(NEpochs, 10))
}

func TestParams_GetInt64(t *testing.T) {
	p := Params{}
	assert.Equal(t, int64(10), p.GetInt64(RandomState, 10))
	p[RandomState] = int64(0)
	assert.Equal(t, int64(0), p.GetInt64(RandomState, 10))
	// Convert from int
	p[RandomState] = 42
	assert.Equal(t, int64(42), p.GetInt64(RandomState, 10))
}

func TestParams_GetFloat32(t *testing.T) {
	p := Params{}
	assert.Equal(t, float32(0.1), p.GetFloat32(Lr, 0.1))
	p[Lr] = float32(1)
	assert.Equal(t, float32(1), p.GetFloat32(Lr, 0.1))
	// Convert from float64 and int
	p[Lr] = float64(0.5)
	assert.Equal(t, float32(0.5), p.GetFloat32(Lr, 0.1))
	p[Lr] = 2
	assert.Equal(t, float32(2), p.GetFloat32(Lr, 0.1))
}

func TestParams_GetBool(t *testing.T) {
	p := Params{}
	assert.True(t, p.GetBool(UseBias, true))
	p[UseBias] = false
	assert.False(t, p.GetBool(UseBias, true))
}

func TestParams_GetString(t *testing.T) {
	p := Params{}
	assert.Equal(t, Adam, p.GetString(Optimizer, Adam))
	p[Optimizer] = SGD
	assert.Equal(t, SGD, p.GetString(Optimizer, Adam))
}

func TestParams_Copy_Overwrite(t *testing.T) {
	p := Params{NFactors: 8, Lr: float32(0.01)}
	copied := p.Copy()
	copied[NFactors] = 16
	assert.Equal(t, 8, p.GetInt(NFactors, 0))

	merged := p.Overwrite(Params{NFactors: 32, NEpochs: 5})
	assert.Equal(t, 32, merged.GetInt(NFactors, 0))
	assert.Equal(t, 5, merged.GetInt(NEpochs, 0))
	assert.Equal(t, float32(0.01), merged.GetFloat32(Lr, 0))
}

func TestParamsGrid(t *testing.T) {
	grid := ParamsGrid{
		NFactors: []interface{}{8, 16},
		Lr:       []interface{}{0.001, 0.005, 0.01},
	}
	assert.Equal(t, 2, grid.Len())
	assert.Equal(t, 6, grid.NumCombinations())

	grid.Fill(ParamsGrid{Lr: []interface{}{0.1}, NEpochs: []interface{}{10, 20}})
	assert.Equal(t, 3, grid.Len())
	// existing entries are kept
	assert.Len(t, grid[Lr], 3)
	assert.Len(t, grid[NEpochs], 2)
}
