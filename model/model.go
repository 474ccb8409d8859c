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
	"github.com/c-bata/goptuna"
	"github.com/mlens-io/mlens/base"
)

// Model is the interface for all models. Any model in this package should
// implement it.
type Model interface {
	// SetParams sets hyper-parameters.
	SetParams(params Params)
	// GetParams returns all hyper-parameters.
	GetParams() Params
	// SuggestParams suggests hyper-parameters for the next trial.
	SuggestParams(trial goptuna.Trial) Params
	// GetParamsGrid returns the default candidates of hyper-parameters.
	GetParamsGrid() ParamsGrid
	// Clear drops model weights.
	Clear()
	// Invalid reports whether the model hasn't been fitted.
	Invalid() bool
}

// BaseModel is embedded by every model. Hyper-parameters and the random
// generator are managed by BaseModel.
type BaseModel struct {
	Params    Params
	rng       base.RandomGenerator
	randState int64
}

// SetParams sets hyper-parameters for the BaseModel.
func (model *BaseModel) SetParams(params Params) {
	model.Params = params
	model.randState = model.Params.GetInt64(RandomState, 0)
	model.rng = base.NewRandomGenerator(model.randState)
}

// GetParams returns all hyper-parameters.
func (model *BaseModel) GetParams() Params {
	return model.Params
}

// GetRandomGenerator returns the random generator of the model.
func (model *BaseModel) GetRandomGenerator() base.RandomGenerator {
	return model.rng
}

// GetRandomState returns the random seed of the model.
func (model *BaseModel) GetRandomState() int64 {
	return model.randState
}
