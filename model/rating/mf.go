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
	_ "github.com/gomlx/gomlx/backends/default"
	"github.com/gomlx/gomlx/pkg/core/dtypes"
	"github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/core/shapes"
	mlx_context "github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gomlx/pkg/ml/layers"
	"github.com/gomlx/gomlx/pkg/ml/train"
	"github.com/gomlx/gomlx/pkg/ml/train/losses"
	"github.com/gomlx/gomlx/pkg/ml/train/optimizers"
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

const headerMF = "MF"

// MF is the classic matrix factorization model. The predicted rating is the
// dot product of the user and item embeddings, optionally shifted by user,
// item and global bias terms:
//
//	r^(u, i) = <p_u, q_i> + b_u + b_i + b
type MF struct {
	BaseMatrixFactorization
	mu  sync.RWMutex
	ctx *mlx_context.Context
	// hyper parameters
	batchSize int
	nFactors  int
	nEpochs   int
	lr        float32
	reg       float32
	useBias   bool
	optimizer string
	// dataset stats
	numUsers int
	numItems int

	// compiled executors
	predictExecutor *mlx_context.Exec
}

// NewMF creates a matrix factorization model.
func NewMF(params model.Params) *MF {
	mf := new(MF)
	mf.SetParams(params)
	return mf
}

func (mf *MF) SuggestParams(trial goptuna.Trial) model.Params {
	return model.Params{
		model.NFactors:  int(lo.Must(trial.SuggestStepInt(string(model.NFactors), 8, 64, 8))),
		model.Lr:        lo.Must(trial.SuggestLogFloat(string(model.Lr), 0.001, 0.1)),
		model.Reg:       lo.Must(trial.SuggestLogFloat(string(model.Reg), 1e-6, 0.1)),
		model.UseBias:   lo.Must(trial.SuggestCategorical(string(model.UseBias), []string{"true", "false"})) == "true",
		model.NEpochs:   mf.nEpochs,
		model.BatchSize: mf.batchSize,
	}
}

func (mf *MF) GetParamsGrid() model.ParamsGrid {
	return model.ParamsGrid{
		model.NFactors: []interface{}{8, 16, 32, 64},
		model.Lr:       []interface{}{0.001, 0.005, 0.01},
		model.Reg:      []interface{}{0.0001, 0.001, 0.01},
		model.UseBias:  []interface{}{true, false},
	}
}

func (mf *MF) SetParams(params model.Params) {
	mf.BaseModel.SetParams(params)
	mf.batchSize = mf.Params.GetInt(model.BatchSize, 1024)
	mf.nFactors = mf.Params.GetInt(model.NFactors, 16)
	mf.nEpochs = mf.Params.GetInt(model.NEpochs, 20)
	mf.lr = mf.Params.GetFloat32(model.Lr, 0.002)
	mf.reg = mf.Params.GetFloat32(model.Reg, 1e-5)
	mf.useBias = mf.Params.GetBool(model.UseBias, true)
	mf.optimizer = mf.Params.GetString(model.Optimizer, model.Adam)
}

func (mf *MF) Clear() {
	mf.mu.Lock()
	defer mf.mu.Unlock()
	mf.UserIndex = nil
	mf.ItemIndex = nil
	mf.ctx = nil
	mf.predictExecutor = nil
}

func (mf *MF) Invalid() bool {
	return mf == nil || mf.UserIndex == nil || mf.ItemIndex == nil || mf.ctx == nil
}

func (mf *MF) Init(trainSet *dataset.Dataset) {
	mf.numUsers = trainSet.CountUsers()
	mf.numItems = trainSet.CountItems()
	if mf.ctx == nil {
		mf.ctx = mlx_context.New()
	}
	mf.BaseMatrixFactorization.Init(trainSet)
}

func (mf *MF) forwardGraph(ctx *mlx_context.Context, users, items *graph.Node) *graph.Node {
	g := users.Graph()
	batchSize := users.Shape().Dimensions[0]

	// P: Embedding(numUsers, nFactors)
	p := layers.Embedding(ctx.In("P"), users, dtypes.F32, mf.numUsers, mf.nFactors) // [batchSize, nFactors]
	// Q: Embedding(numItems, nFactors)
	q := layers.Embedding(ctx.In("Q"), items, dtypes.F32, mf.numItems, mf.nFactors) // [batchSize, nFactors]

	// <p_u, q_i>
	output := graph.ReduceSum(graph.Mul(p, q), -1) // [batchSize]

	if mf.useBias {
		// b_u, b_i: Embedding(n, 1)
		userBias := layers.Embedding(ctx.In("user_bias"), users, dtypes.F32, mf.numUsers, 1) // [batchSize, 1]
		itemBias := layers.Embedding(ctx.In("item_bias"), items, dtypes.F32, mf.numItems, 1) // [batchSize, 1]
		// b: global bias
		bVar := ctx.In("B").VariableWithShape("bias", shapes.Make(dtypes.F32, 1))
		bias := bVar.ValueGraph(g)
		output = graph.Add(output, graph.Reshape(userBias, batchSize))
		output = graph.Add(output, graph.Reshape(itemBias, batchSize))
		output = graph.Add(output, bias)
	}
	return output
}

// Predict the rating of a user for an item by their raw string ids. Users or
// items unseen during training fall back to the global mean rating.
func (mf *MF) Predict(userId, itemId string) float32 {
	userIndex := mf.UserIndex.Lookup(userId)
	itemIndex := mf.ItemIndex.Lookup(itemId)
	if userIndex == dataset.NotId {
		log.Logger().Warn("unknown user", zap.String("user_id", userId))
	}
	if itemIndex == dataset.NotId {
		log.Logger().Warn("unknown item", zap.String("item_id", itemId))
	}
	return mf.InternalPredict(userIndex, itemIndex)
}

// ensurePredictExecutor compiles the prediction graph once.
func (mf *MF) ensurePredictExecutor() {
	mf.mu.Lock()
	defer mf.mu.Unlock()
	if mf.predictExecutor != nil {
		return
	}
	backend, err := backends.New()
	if err != nil {
		panic(err)
	}
	mf.predictExecutor, err = mlx_context.NewExec(backend, mf.ctx, func(ctx *mlx_context.Context, nodes []*graph.Node) *graph.Node {
		return mf.forwardGraph(ctx, nodes[0], nodes[1])
	})
	if err != nil {
		panic(err)
	}
}

func (mf *MF) InternalPredict(userIndex, itemIndex int32) float32 {
	if !mf.IsUserPredictable(userIndex) || !mf.IsItemPredictable(itemIndex) {
		return mf.GlobalMean
	}
	return mf.BatchInternalPredict([]int32{userIndex}, []int32{itemIndex})[0]
}

// BatchInternalPredict predicts ratings for user/item index pairs through the
// compiled executor, batch by batch.
func (mf *MF) BatchInternalPredict(userIndices, itemIndices []int32) []float32 {
	mf.ensurePredictExecutor()
	mf.mu.RLock()
	defer mf.mu.RUnlock()

	numBatches := (len(userIndices) + mf.batchSize - 1) / mf.batchSize
	predictions := make([]float32, 0, len(userIndices))
	for b := 0; b < numBatches; b++ {
		start := b * mf.batchSize
		end := mathutil.Min(start+mf.batchSize, len(userIndices))
		outputs := mf.predictExecutor.MustExec(userIndices[start:end], itemIndices[start:end])
		predictions = append(predictions, outputs[0].Value().([]float32)...)
	}

	// fall back to the global mean for unpredictable pairs
	for i := range predictions {
		if !mf.IsUserPredictable(userIndices[i]) || !mf.IsItemPredictable(itemIndices[i]) {
			predictions[i] = mf.GlobalMean
		}
	}
	return predictions
}

func (mf *MF) Fit(ctx std_context.Context, trainSet, testSet *dataset.Dataset, config *FitConfig) Score {
	config = config.LoadDefaultIfNil()
	log.Logger().Info("fit MF",
		zap.Int("train_set_size", trainSet.Count()),
		zap.Int("test_set_size", testSet.Count()),
		zap.Any("params", mf.GetParams()),
		zap.Any("config", config))
	mf.Init(trainSet)

	evalStart := time.Now()
	score := EvaluateRegression(mf, testSet, config.Jobs)
	scores := []lo.Tuple2[int, float32]{{A: 0, B: score.RMSE}}
	evalTime := time.Since(evalStart)
	fields := append([]zap.Field{zap.String("eval_time", evalTime.String())}, score.ZapFields()...)
	log.Logger().Info(fmt.Sprintf("fit MF %v/%v", 0, mf.nEpochs), fields...)

	backend, err := backends.New()
	if err != nil {
		panic(err)
	}
	modelFn := func(ctx *mlx_context.Context, spec any, inputs []*graph.Node) []*graph.Node {
		return []*graph.Node{mf.forwardGraph(ctx, inputs[0], inputs[1])}
	}
	lossFn := func(labels, predictions []*graph.Node) *graph.Node {
		return losses.MeanSquaredError(labels, predictions)
	}

	trainer := train.NewTrainer(backend, mf.ctx, modelFn, lossFn, newOptimizer(mf.optimizer, mf.lr, mf.reg), nil, nil)
	loop := train.NewLoop(trainer)

	ds := newRatingDataset(trainSet, mf.batchSize, mf.GetRandomGenerator())

	_, span := progress.Start(ctx, "MF.Fit", mf.nEpochs)
	defer span.End()

	for epoch := 1; epoch <= mf.nEpochs; epoch++ {
		fitStart := time.Now()
		ds.Reset()
		if _, err := loop.RunSteps(ds, ds.Steps()); err != nil {
			log.Logger().Error("fit MF failed", zap.Error(err))
			span.Error(err)
			break
		}
		fitTime := time.Since(fitStart)

		if epoch%config.Verbose == 0 || epoch == mf.nEpochs {
			evalStart = time.Now()
			score = EvaluateRegression(mf, testSet, config.Jobs)
			scores = append(scores, lo.Tuple2[int, float32]{A: epoch, B: score.RMSE})
			evalTime = time.Since(evalStart)
			fields = append([]zap.Field{
				zap.String("fit_time", fitTime.String()),
				zap.String("eval_time", evalTime.String()),
			}, score.ZapFields()...)
			log.Logger().Info(fmt.Sprintf("fit MF %v/%v", epoch, mf.nEpochs), fields...)

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
func (mf *MF) Marshal(w io.Writer) error {
	mf.mu.RLock()
	defer mf.mu.RUnlock()
	if err := mf.BaseMatrixFactorization.Marshal(w); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteGob(w, mf.numUsers); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteGob(w, mf.numItems); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(marshalVariables(w, mf.ctx))
}

// Unmarshal model from byte stream.
func (mf *MF) Unmarshal(r io.Reader) error {
	if err := mf.BaseMatrixFactorization.Unmarshal(r); err != nil {
		return errors.Trace(err)
	}
	mf.SetParams(mf.Params)
	if err := encoding.ReadGob(r, &mf.numUsers); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.ReadGob(r, &mf.numItems); err != nil {
		return errors.Trace(err)
	}
	var err error
	mf.ctx, err = unmarshalVariables(r)
	return errors.Trace(err)
}

// newOptimizer builds the gomlx optimizer selected by the Optimizer
// hyper-parameter. Regularization is applied as decoupled weight decay, hence
// it is only effective with the adam optimizer.
func newOptimizer(name string, lr, reg float32) optimizers.Interface {
	switch name {
	case model.SGD:
		return optimizers.StochasticGradientDescent().WithLearningRate(float64(lr)).Done()
	default:
		return optimizers.Adam().LearningRate(float64(lr)).WeightDecay(float64(reg)).Done()
	}
}
