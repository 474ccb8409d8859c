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
	"fmt"
	"io"
	"reflect"

	"github.com/bits-and-blooms/bitset"
	"github.com/juju/errors"
	"github.com/mlens-io/mlens/base/encoding"
	"github.com/mlens-io/mlens/base/log"
	"github.com/mlens-io/mlens/dataset"
	"github.com/mlens-io/mlens/model"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Score is the result of evaluating a rating model on a test set.
type Score struct {
	RMSE float32
	MAE  float32
}

func (score Score) ZapFields() []zap.Field {
	return []zap.Field{
		zap.Float32("RMSE", score.RMSE),
		zap.Float32("MAE", score.MAE),
	}
}

func (score Score) GetValue() float32 {
	return score.RMSE
}

// BetterThan compares ratings models by RMSE. Lower is better.
func (score Score) BetterThan(s Score) bool {
	return score.RMSE < s.RMSE
}

type FitConfig struct {
	Jobs     int
	Verbose  int
	Patience int
}

func NewFitConfig() *FitConfig {
	return &FitConfig{
		Jobs:     1,
		Verbose:  10,
		Patience: 10,
	}
}

func (config *FitConfig) SetVerbose(verbose int) *FitConfig {
	config.Verbose = verbose
	return config
}

func (config *FitConfig) SetJobs(jobs int) *FitConfig {
	config.Jobs = jobs
	return config
}

func (config *FitConfig) SetPatience(patience int) *FitConfig {
	config.Patience = patience
	return config
}

func (config *FitConfig) LoadDefaultIfNil() *FitConfig {
	if config == nil {
		return NewFitConfig()
	}
	return config
}

// earlyStopping returns the epoch with the lowest RMSE recorded so far and
// whether training should stop because no epoch within the patience window
// improved on it. Patience 0 disables stopping.
func earlyStopping(scores []lo.Tuple2[int, float32], epoch, patience int) (lo.Tuple2[int, float32], bool) {
	best := lo.MaxBy(scores, func(a, b lo.Tuple2[int, float32]) bool { return a.B < b.B })
	if patience > 0 && epoch > patience && best.A <= epoch-patience {
		return best, true
	}
	return best, false
}

// MatrixFactorization is the interface of models predicting ratings from
// user/item pairs via latent embeddings.
type MatrixFactorization interface {
	model.Model
	// Predict the rating given by a user to an item from their raw string ids.
	Predict(userId, itemId string) float32
	// InternalPredict the rating from dense user/item indices.
	InternalPredict(userIndex, itemIndex int32) float32
	// Fit the model on the train set, evaluating on the test set during training.
	Fit(ctx context.Context, trainSet, testSet *dataset.Dataset, config *FitConfig) Score
	// GetUserIndex returns the user dictionary shared with the train set.
	GetUserIndex() *dataset.FreqDict
	// GetItemIndex returns the item dictionary shared with the train set.
	GetItemIndex() *dataset.FreqDict
	// IsUserPredictable returns false if the user has no ratings in the train set.
	IsUserPredictable(userIndex int32) bool
	// IsItemPredictable returns false if the item has no ratings in the train set.
	IsItemPredictable(itemIndex int32) bool
	// Marshal the model into a writer.
	Marshal(w io.Writer) error
	// Unmarshal the model from a reader.
	Unmarshal(r io.Reader) error
}

// BatchInference is implemented by models that predict batches more
// efficiently than repeated single predictions.
type BatchInference interface {
	BatchInternalPredict(userIndices, itemIndices []int32) []float32
}

type BaseMatrixFactorization struct {
	model.BaseModel
	UserIndex  *dataset.FreqDict
	ItemIndex  *dataset.FreqDict
	GlobalMean float32
	// UserPredictable and ItemPredictable mark indices that appeared in the
	// train set. Predictions for the others fall back to the global mean.
	UserPredictable *bitset.BitSet
	ItemPredictable *bitset.BitSet
}

func (baseModel *BaseMatrixFactorization) Init(trainSet *dataset.Dataset) {
	baseModel.UserIndex = trainSet.GetUserDict()
	baseModel.ItemIndex = trainSet.GetItemDict()
	baseModel.GlobalMean = trainSet.GlobalMean()
	// collect predictable users and items
	baseModel.UserPredictable = bitset.New(uint(baseModel.UserIndex.Count()))
	baseModel.ItemPredictable = bitset.New(uint(baseModel.ItemIndex.Count()))
	for userIndex := int32(0); userIndex < baseModel.UserIndex.Count(); userIndex++ {
		if baseModel.UserIndex.Freq(userIndex) > 0 {
			baseModel.UserPredictable.Set(uint(userIndex))
		}
	}
	for itemIndex := int32(0); itemIndex < baseModel.ItemIndex.Count(); itemIndex++ {
		if baseModel.ItemIndex.Freq(itemIndex) > 0 {
			baseModel.ItemPredictable.Set(uint(itemIndex))
		}
	}
}

// GetUserIndex returns the user dictionary shared with the train set.
func (baseModel *BaseMatrixFactorization) GetUserIndex() *dataset.FreqDict {
	return baseModel.UserIndex
}

// GetItemIndex returns the item dictionary shared with the train set.
func (baseModel *BaseMatrixFactorization) GetItemIndex() *dataset.FreqDict {
	return baseModel.ItemIndex
}

// IsUserPredictable returns false if the user is not in the dictionary or
// has no ratings in the train set.
func (baseModel *BaseMatrixFactorization) IsUserPredictable(userIndex int32) bool {
	if userIndex < 0 || userIndex >= baseModel.UserIndex.Count() {
		return false
	}
	return baseModel.UserPredictable.Test(uint(userIndex))
}

// IsItemPredictable returns false if the item is not in the dictionary or
// has no ratings in the train set.
func (baseModel *BaseMatrixFactorization) IsItemPredictable(itemIndex int32) bool {
	if itemIndex < 0 || itemIndex >= baseModel.ItemIndex.Count() {
		return false
	}
	return baseModel.ItemPredictable.Test(uint(itemIndex))
}

// Marshal the base model into a writer.
func (baseModel *BaseMatrixFactorization) Marshal(w io.Writer) error {
	if err := encoding.WriteGob(w, baseModel.Params); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteGob(w, baseModel.UserIndex); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteGob(w, baseModel.ItemIndex); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteGob(w, baseModel.GlobalMean); err != nil {
		return errors.Trace(err)
	}
	userPredictable, err := baseModel.UserPredictable.MarshalBinary()
	if err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteBytes(w, userPredictable); err != nil {
		return errors.Trace(err)
	}
	itemPredictable, err := baseModel.ItemPredictable.MarshalBinary()
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(encoding.WriteBytes(w, itemPredictable))
}

// Unmarshal the base model from a reader.
func (baseModel *BaseMatrixFactorization) Unmarshal(r io.Reader) error {
	if err := encoding.ReadGob(r, &baseModel.Params); err != nil {
		return errors.Trace(err)
	}
	baseModel.UserIndex = dataset.NewFreqDict()
	if err := encoding.ReadGob(r, baseModel.UserIndex); err != nil {
		return errors.Trace(err)
	}
	baseModel.ItemIndex = dataset.NewFreqDict()
	if err := encoding.ReadGob(r, baseModel.ItemIndex); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.ReadGob(r, &baseModel.GlobalMean); err != nil {
		return errors.Trace(err)
	}
	userPredictable, err := encoding.ReadBytes(r)
	if err != nil {
		return errors.Trace(err)
	}
	baseModel.UserPredictable = new(bitset.BitSet)
	if err := baseModel.UserPredictable.UnmarshalBinary(userPredictable); err != nil {
		return errors.Trace(err)
	}
	itemPredictable, err := encoding.ReadBytes(r)
	if err != nil {
		return errors.Trace(err)
	}
	baseModel.ItemPredictable = new(bitset.BitSet)
	return errors.Trace(baseModel.ItemPredictable.UnmarshalBinary(itemPredictable))
}

// MarshalModel saves a model into a writer with a header identifying its type.
func MarshalModel(w io.Writer, m MatrixFactorization) error {
	var err error
	switch m.(type) {
	case *MF:
		err = encoding.WriteString(w, headerMF)
	case *MLP:
		err = encoding.WriteString(w, headerMLP)
	default:
		return fmt.Errorf("unknown model: %v", reflect.TypeOf(m))
	}
	if err != nil {
		return err
	}
	return m.Marshal(w)
}

// UnmarshalModel loads a model from a reader.
func UnmarshalModel(r io.Reader) (MatrixFactorization, error) {
	header, err := encoding.ReadString(r)
	if err != nil {
		return nil, err
	}
	switch header {
	case headerMF:
		var mf MF
		if err := mf.Unmarshal(r); err != nil {
			return nil, errors.Trace(err)
		}
		return &mf, nil
	case headerMLP:
		var mlp MLP
		if err := mlp.Unmarshal(r); err != nil {
			return nil, errors.Trace(err)
		}
		return &mlp, nil
	}
	return nil, fmt.Errorf("unknown model: %v", header)
}

// Clone a model with deep copy via serialization. The clone keeps the fitted
// weights of the source model.
func Clone(m MatrixFactorization) MatrixFactorization {
	var buf bytes.Buffer
	if err := MarshalModel(&buf, m); err != nil {
		panic(err)
	}
	copied, err := UnmarshalModel(&buf)
	if err != nil {
		panic(err)
	}
	return copied
}

// GetModelName returns the short name of a rating model.
func GetModelName(m model.Model) string {
	switch m.(type) {
	case *MF:
		return "mf"
	case *MLP:
		return "mlp"
	default:
		log.Logger().Error("unknown model", zap.String("type", reflect.TypeOf(m).String()))
		return ""
	}
}
