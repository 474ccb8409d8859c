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
	std_context "context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/c-bata/goptuna"
	"github.com/gomlx/gomlx/backends"
	"github.com/gomlx/gomlx/pkg/core/dtypes"
	"github.com/gomlx/gomlx/pkg/core/graph"
	mlx_context "github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gomlx/pkg/ml/layers"
	"github.com/gomlx/gomlx/pkg/ml/layers/activations"
	"github.com/gomlx/gomlx/pkg/ml/train"
	"github.com/gomlx/gomlx/pkg/ml/train/losses"
	"github.com/juju/errors"
	"github.com/mlens-io/mlens/base/encoding"
	"github.com/mlens-io/mlens/base/log"
	"github.com/mlens-io/mlens/base/progress"
	"github.com/mlens-io/mlens/dataset"
	"github.com/mlens-io/mlens/model"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"modernc.org/mathutil"
)

const headerMLP = "MLP"

// MLP predicts ratings with a multi-layer perceptron over concatenated user
// and item embeddings. NHidden dense+ReLU blocks of width HiddenSize are
// stacked before a linear regression head. A Dropout rate above zero inserts
// dropout after every hidden activation during training.
type MLP struct {
	BaseMatrixFactorization
	mu  sync.RWMutex
	ctx *mlx_context.Context
	// hyper parameters
	batchSize  int
	nFactors   int
	nEpochs    int
	lr         float32
	reg        float32
	hiddenSize int
	nHidden    int
	dropout    float32
	optimizer  string
	// dataset stats
	numUsers int
	numItems int

	// compiled executors
	predictExecutor *mlx_context.Exec
}

// NewMLP creates a multi-layer perceptron rating model.
func NewMLP(params model.Params) *MLP {
	mlp := new(MLP)
	mlp.SetParams(params)
	return mlp
}

func (mlp *MLP) SuggestParams(trial goptuna.Trial) model.Params {
	return model.Params{
		model.NFactors:   int(lo.Must(trial.SuggestStepInt(string(model.NFactors), 8, 64, 8))),
		model.Lr:         lo.Must(trial.SuggestLogFloat(string(model.Lr), 0.001, 0.1)),
		model.Reg:        lo.Must(trial.SuggestLogFloat(string(model.Reg), 1e-6, 0.1)),
		model.HiddenSize: int(lo.Must(trial.SuggestStepInt(string(model.HiddenSize), 32, 256, 32))),
		model.NHidden:    int(lo.Must(trial.SuggestInt(string(model.NHidden), 1, 3))),
		model.Dropout:    lo.Must(trial.SuggestDiscreteFloat(string(model.Dropout), 0, 0.5, 0.25)),
		model.NEpochs:    mlp.nEpochs,
		model.BatchSize:  mlp.batchSize,
	}
}

func (mlp *MLP) GetParamsGrid() model.ParamsGrid {
	return model.ParamsGrid{
		model.NFactors:   []interface{}{8, 16, 32},
		model.Lr:         []interface{}{0.001, 0.005, 0.01},
		model.HiddenSize: []interface{}{64, 128},
		model.NHidden:    []interface{}{1, 2},
		model.Dropout:    []interface{}{0.0, 0.25, 0.5},
	}
}

func (mlp *MLP) SetParams(params model.Params) {
	mlp.BaseModel.SetParams(params)
	mlp.batchSize = mlp.Params.GetInt(model.BatchSize, 1024)
	mlp.nFactors = mlp.Params.GetInt(model.NFactors, 16)
	mlp.nEpochs = mlp.Params.GetInt(model.NEpochs, 20)
	mlp.lr = mlp.Params.GetFloat32(model.Lr, 0.002)
	mlp.reg = mlp.Params.GetFloat32(model.Reg, 1e-5)
	mlp.hiddenSize = mlp.Params.GetInt(model.HiddenSize, 128)
	mlp.nHidden = mlp.Params.GetInt(model.NHidden, 1)
	mlp.dropout = mlp.Params.GetFloat32(model.Dropout, 0)
	mlp.optimizer = mlp.Params.GetString(model.Optimizer, model.Adam)
}

func (mlp *MLP) Clear() {
	mlp.mu.Lock()
	defer mlp.mu.Unlock()
	mlp.UserIndex = nil
	mlp.ItemIndex = nil
	mlp.ctx = nil
	mlp.predictExecutor = nil
}

func (mlp *MLP) Invalid() bool {
	return mlp == nil || mlp.UserIndex == nil || mlp.ItemIndex == nil || mlp.ctx == nil
}

func (mlp *MLP) Init(trainSet *dataset.Dataset) {
	mlp.numUsers = trainSet.CountUsers()
	mlp.numItems = trainSet.CountItems()
	if mlp.ctx == nil {
		mlp.ctx = mlx_context.New()
	}
	mlp.BaseMatrixFactorization.Init(trainSet)
}

func (mlp *MLP) forwardGraph(ctx *mlx_context.Context, users, items *graph.Node) *graph.Node {
	batchSize := users.Shape().Dimensions[0]

	// P: Embedding(numUsers, nFactors)
	p := layers.Embedding(ctx.In("P"), users, dtypes.F32, mlp.numUsers, mlp.nFactors) // [batchSize, nFactors]
	// Q: Embedding(numItems, nFactors)
	q := layers.Embedding(ctx.In("Q"), items, dtypes.F32, mlp.numItems, mlp.nFactors) // [batchSize, nFactors]

	// x: [p_u, q_i]
	x := graph.Concatenate([]*graph.Node{p, q}, -1) // [batchSize, 2*nFactors]

	for i := 0; i < mlp.nHidden; i++ {
		hCtx := ctx.In(fmt.Sprintf("W_%d", i))
		x = layers.Dense(hCtx, x, true, mlp.hiddenSize)
		x = activations.Relu(x)
		if mlp.dropout > 0 {
			x = layers.DropoutStatic(hCtx.In("dropout"), x, float64(mlp.dropout))
		}
	}

	output := layers.Dense(ctx.In("out"), x, true, 1) // [batchSize, 1]
	return graph.Reshape(output, batchSize)
}

// Predict the rating of a user for an item by their raw string ids. Users or
// items unseen during training fall back to the global mean rating.
func (mlp *MLP) Predict(userId, itemId string) float32 {
	userIndex := mlp.UserIndex.Lookup(userId)
	itemIndex := mlp.ItemIndex.Lookup(itemId)
	if userIndex == dataset.NotId {
		log.Logger().Warn("unknown user", zap.String("user_id", userId))
	}
	if itemIndex == dataset.NotId {
		log.Logger().Warn("unknown item", zap.String("item_id", itemId))
	}
	return mlp.InternalPredict(userIndex, itemIndex)
}

// ensurePredictExecutor compiles the prediction graph once.
func (mlp *MLP) ensurePredictExecutor() {
	mlp.mu.Lock()
	defer mlp.mu.Unlock()
	if mlp.predictExecutor != nil {
		return
	}
	backend, err := backends.New()
	if err != nil {
		panic(err)
	}
	mlp.predictExecutor, err = mlx_context.NewExec(backend, mlp.ctx, func(ctx *mlx_context.Context, nodes []*graph.Node) *graph.Node {
		return mlp.forwardGraph(ctx, nodes[0], nodes[1])
	})
	if err != nil {
		panic(err)
	}
}

func (mlp *MLP) InternalPredict(userIndex, itemIndex int32) float32 {
	if !mlp.IsUserPredictable(userIndex) || !mlp.IsItemPredictable(itemIndex) {
		return mlp.GlobalMean
	}
	return mlp.BatchInternalPredict([]int32{userIndex}, []int32{itemIndex})[0]
}

// BatchInternalPredict predicts ratings for user/item index pairs through the
// compiled executor, batch by batch.
func (mlp *MLP) BatchInternalPredict(userIndices, itemIndices []int32) []float32 {
	mlp.ensurePredictExecutor()
	mlp.mu.RLock()
	defer mlp.mu.RUnlock()

	numBatches := (len(userIndices) + mlp.batchSize - 1) / mlp.batchSize
	predictions := make([]float32, 0, len(userIndices))
	for b := 0; b < numBatches; b++ {
		start := b * mlp.batchSize
		end := mathutil.Min(start+mlp.batchSize, len(userIndices))
		outputs := mlp.predictExecutor.MustExec(userIndices[start:end], itemIndices[start:end])
		predictions = append(predictions, outputs[0].Value().([]float32)...)
	}

	// fall back to the global mean for unpredictable pairs
	for i := range predictions {
		if !mlp.IsUserPredictable(userIndices[i]) || !mlp.IsItemPredictable(itemIndices[i]) {
			predictions[i] = mlp.GlobalMean
		}
	}
	return predictions
}

func (mlp *MLP) Fit(ctx std_context.Context, trainSet, testSet *dataset.Dataset, config *FitConfig) Score {
	config = config.LoadDefaultIfNil()
	log.Logger().Info("fit MLP",
		zap.Int("train_set_size", trainSet.Count()),
		zap.Int("test_set_size", testSet.Count()),
		zap.Any("params", mlp.GetParams()),
		zap.Any("config", config))
	mlp.Init(trainSet)

	evalStart := time.Now()
	score := EvaluateRegression(mlp, testSet, config.Jobs)
	scores := []lo.Tuple2[int, float32]{{A: 0, B: score.RMSE}}
	evalTime := time.Since(evalStart)
	fields := append([]zap.Field{zap.String("eval_time", evalTime.String())}, score.ZapFields()...)
	log.Logger().Info(fmt.Sprintf("fit MLP %v/%v", 0, mlp.nEpochs), fields...)

	backend, err := backends.New()
	if err != nil {
		panic(err)
	}
	modelFn := func(ctx *mlx_context.Context, spec any, inputs []*graph.Node) []*graph.Node {
		return []*graph.Node{mlp.forwardGraph(ctx, inputs[0], inputs[1])}
	}
	lossFn := func(labels, predictions []*graph.Node) *graph.Node {
		return losses.MeanSquaredError(labels, predictions)
	}

	trainer := train.NewTrainer(backend, mlp.ctx, modelFn, lossFn, newOptimizer(mlp.optimizer, mlp.lr, mlp.reg), nil, nil)
	loop := train.NewLoop(trainer)

	ds := newRatingDataset(trainSet, mlp.batchSize, mlp.GetRandomGenerator())

	_, span := progress.Start(ctx, "MLP.Fit", mlp.nEpochs)
	defer span.End()

	for epoch := 1; epoch <= mlp.nEpochs; epoch++ {
		fitStart := time.Now()
		ds.Reset()
		if _, err := loop.RunSteps(ds, ds.Steps()); err != nil {
			log.Logger().Error("fit MLP failed", zap.Error(err))
			span.Error(err)
			break
		}
		fitTime := time.Since(fitStart)

		if epoch%config.Verbose == 0 || epoch == mlp.nEpochs {
			evalStart = time.Now()
			score = EvaluateRegression(mlp, testSet, config.Jobs)
			scores = append(scores, lo.Tuple2[int, float32]{A: epoch, B: score.RMSE})
			evalTime = time.Since(evalStart)
			fields = append([]zap.Field{
				zap.String("fit_time", fitTime.String()),
				zap.String("eval_time", evalTime.String()),
			}, score.ZapFields()...)
			log.Logger().Info(fmt.Sprintf("fit MLP %v/%v", epoch, mlp.nEpochs), fields...)

			if best, stop := earlyStopping(scores, epoch, config.Patience); stop {
				log.Logger().Info("early stopping",
					zap.Int("best_epoch", best.A),
					zap.Float32("best_rmse", best.B),
					zap.Int("patience", config.Patience))
				break
			}
		}
		span.Add(1)
	}

	return score
}

// Marshal model into byte stream.
func (mlp *MLP) Marshal(w io.Writer) error {
	mlp.mu.RLock()
	defer mlp.mu.RUnlock()
	if err := mlp.BaseMatrixFactorization.Marshal(w); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteGob(w, mlp.numUsers); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteGob(w, mlp.numItems); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(marshalVariables(w, mlp.ctx))
}

// Unmarshal model from byte stream.
func (mlp *MLP) Unmarshal(r io.Reader) error {
	if err := mlp.BaseMatrixFactorization.Unmarshal(r); err != nil {
		return errors.Trace(err)
	}
	mlp.SetParams(mlp.Params)
	if err := encoding.ReadGob(r, &mlp.numUsers); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.ReadGob(r, &mlp.numItems); err != nil {
		return errors.Trace(err)
	}
	var err error
	mlp.ctx, err = unmarshalVariables(r)
	return errors.Trace(err)
}
