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

	"github.com/gomlx/gomlx/pkg/core/dtypes"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	mlx_context "github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/juju/errors"
	"github.com/mlens-io/mlens/base/encoding"
	"github.com/mlens-io/mlens/base/log"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// variableKey identifies a gomlx variable by its absolute scope and name.
// Variables in different layers share names ("weights", "biases"), so the
// scope has to be part of the key.
type variableKey struct {
	Scope string
	Name  string
}

// marshalVariables writes all trained variables of a gomlx context as a gob
// map of flat float32 data keyed by scope and name.
func marshalVariables(w io.Writer, ctx *mlx_context.Context) error {
	variables := make(map[variableKey]lo.Tuple2[[]int, []float32])
	ctx.EnumerateVariables(func(v *mlx_context.Variable) {
		if v.DType() != dtypes.F32 {
			// skip optimizer step counters
			return
		}
		val, err := v.Value()
		if err != nil {
			log.Logger().Error("failed to get variable value", zap.Error(err))
			return
		}
		var flatData []float32
		val.MustConstFlatData(func(flat any) {
			flatData = append(flatData, flat.([]float32)...)
		})
		variables[variableKey{Scope: v.Scope(), Name: v.Name()}] = lo.Tuple2[[]int, []float32]{
			A: val.Shape().Dimensions,
			B: flatData,
		}
	})
	return errors.Trace(encoding.WriteGob(w, variables))
}

// unmarshalVariables restores a gomlx context from the gob map written by
// marshalVariables.
func unmarshalVariables(r io.Reader) (*mlx_context.Context, error) {
	var variables map[variableKey]lo.Tuple2[[]int, []float32]
	if err := encoding.ReadGob(r, &variables); err != nil {
		return nil, errors.Trace(err)
	}
	ctx := mlx_context.New()
	for key, data := range variables {
		t := tensors.FromFlatDataAndDimensions(data.B, data.A...)
		ctx.InAbsPath(key.Scope).VariableWithValue(key.Name, t)
	}
	return ctx, nil
}
