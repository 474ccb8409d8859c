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
	"encoding/json"
	"reflect"

	"github.com/mlens-io/mlens/base/log"
	"go.uber.org/zap"
)

/* ParamName */

// ParamName is the type of hyper-parameter names.
type ParamName string

// Predefined hyper-parameter names
const (
	Lr          ParamName = "Lr"          // learning rate
	Reg         ParamName = "Reg"         // regularization strength (weight decay)
	NEpochs     ParamName = "NEpochs"     // number of epochs
	NFactors    ParamName = "NFactors"    // number of latent factors
	BatchSize   ParamName = "BatchSize"   // batch size
	HiddenSize  ParamName = "HiddenSize"  // width of MLP hidden layers
	NHidden     ParamName = "NHidden"     // number of MLP hidden layers
	Dropout     ParamName = "Dropout"     // dropout rate between hidden layers
	UseBias     ParamName = "UseBias"     // add user/item bias terms
	Optimizer   ParamName = "Optimizer"   // optimizer name
	RandomState ParamName = "RandomState" // random state (seed)
)

// Predefined values for the Optimizer hyper-parameter.
const (
	SGD  = "sgd"
	Adam = "adam"
)

// Params stores hyper-parameters for a model. It is a map between strings
// (names) and interface{}s (values). For example, hyper-parameters for MF
// are given by:
//
//	model.Params{
//		model.Lr:       0.05,
//		model.NEpochs:  10,
//		model.NFactors: 64,
//		model.Reg:      0.01,
//	}
type Params map[ParamName]interface{}

// Copy hyper-parameters.
func (parameters Params) Copy() Params {
	newParams := make(Params)
	for k, v := range parameters {
		newParams[k] = v
	}
	return newParams
}

// GetInt gets an integer parameter by name. Returns _default if not exists
// or type doesn't match.
func (parameters Params) GetInt(name ParamName, _default int) int {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case int:
			return val
		case int64:
			return int(val)
		case float64:
			return int(val)
		default:
			log.Logger().Error("invalid parameter type",
				zap.String("name", string(name)),
				zap.String("expect", "int"),
				zap.String("actual", reflect.TypeOf(val).String()))
		}
	}
	return _default
}

// GetInt64 gets an int64 parameter by name. Returns _default if not exists
// or type doesn't match. The type will be converted if given int.
func (parameters Params) GetInt64(name ParamName, _default int64) int64 {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case int64:
			return val
		case int:
			return int64(val)
		default:
			log.Logger().Error("invalid parameter type",
				zap.String("name", string(name)),
				zap.String("expect", "int64"),
				zap.String("actual", reflect.TypeOf(val).String()))
		}
	}
	return _default
}

// GetBool gets a bool parameter by name. Returns _default if not exists or
// type doesn't match.
func (parameters Params) GetBool(name ParamName, _default bool) bool {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case bool:
			return val
		default:
			log.Logger().Error("invalid parameter type",
				zap.String("name", string(name)),
				zap.String("expect", "bool"),
				zap.String("actual", reflect.TypeOf(val).String()))
		}
	}
	return _default
}

// GetFloat32 gets a float32 parameter by name. Returns _default if not
// exists or type doesn't match.
func (parameters Params) GetFloat32(name ParamName, _default float32) float32 {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case float32:
			return val
		case float64:
			return float32(val)
		case int:
			return float32(val)
		default:
			log.Logger().Error("invalid parameter type",
				zap.String("name", string(name)),
				zap.String("expect", "float32"),
				zap.String("actual", reflect.TypeOf(val).String()))
		}
	}
	return _default
}

// GetString gets a string parameter. Returns _default if not exists or type
// doesn't match.
func (parameters Params) GetString(name ParamName, _default string) string {
	if val, exist := parameters[name]; exist {
		switch val := val.(type) {
		case string:
			return val
		default:
			log.Logger().Error("invalid parameter type",
				zap.String("name", string(name)),
				zap.String("expect", "string"),
				zap.String("actual", reflect.TypeOf(val).String()))
		}
	}
	return _default
}

// Overwrite returns a new Params with the receiver's values overwritten by
// params.
func (parameters Params) Overwrite(params Params) Params {
	merged := make(Params)
	for k, v := range parameters {
		merged[k] = v
	}
	for k, v := range params {
		merged[k] = v
	}
	return merged
}

func (parameters Params) ToString() string {
	b, err := json.Marshal(parameters)
	if err != nil {
		log.Logger().Fatal("failed to marshal params", zap.Error(err))
	}
	return string(b)
}

// ParamsGrid contains candidates for grid search.
type ParamsGrid map[ParamName][]interface{}

func (grid ParamsGrid) Len() int {
	return len(grid)
}

// NumCombinations returns the number of combinations in the grid.
func (grid ParamsGrid) NumCombinations() int {
	count := 1
	for _, values := range grid {
		count *= len(values)
	}
	return count
}

// Fill adds candidates from _default for parameters absent from the grid.
func (grid ParamsGrid) Fill(_default ParamsGrid) {
	for param, values := range _default {
		if _, exist := grid[param]; !exist {
			grid[param] = values
		}
	}
}
