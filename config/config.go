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

package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/juju/errors"
	"github.com/mlens-io/mlens/model"
	"github.com/mlens-io/mlens/model/rating"
	"github.com/spf13/viper"
)

// Config is the configuration of the mlens command line.
type Config struct {
	Data   DataConfig   `mapstructure:"data"`
	Train  TrainConfig  `mapstructure:"train"`
	Search SearchConfig `mapstructure:"search"`
}

// DataConfig describes where ratings come from and how they are split.
type DataConfig struct {
	// Dataset is the name of a built-in MovieLens dataset. Ignored when Path
	// is set.
	Dataset string `mapstructure:"dataset"`
	// Path of a ratings file on the local filesystem.
	Path      string  `mapstructure:"path"`
	Separator string  `mapstructure:"separator"`
	Header    bool    `mapstructure:"header"`
	TestRatio float32 `mapstructure:"test_ratio" validate:"gt=0,lt=1"`
}

// TrainConfig carries the model type and its hyper-parameters.
type TrainConfig struct {
	Model       string  `mapstructure:"model" validate:"oneof=mf mlp"`
	NEpochs     int     `mapstructure:"n_epochs" validate:"gt=0"`
	NFactors    int     `mapstructure:"n_factors" validate:"gt=0"`
	Lr          float32 `mapstructure:"lr" validate:"gt=0"`
	Reg         float32 `mapstructure:"reg" validate:"gte=0"`
	BatchSize   int     `mapstructure:"batch_size" validate:"gt=0"`
	HiddenSize  int     `mapstructure:"hidden_size" validate:"gt=0"`
	NHidden     int     `mapstructure:"n_hidden" validate:"gt=0"`
	Dropout     float32 `mapstructure:"dropout" validate:"gte=0,lt=1"`
	UseBias     bool    `mapstructure:"use_bias"`
	Optimizer   string  `mapstructure:"optimizer" validate:"oneof=sgd adam"`
	RandomState int64   `mapstructure:"random_state"`
	// fit config
	Jobs     int `mapstructure:"jobs" validate:"gt=0"`
	Verbose  int `mapstructure:"verbose" validate:"gt=0"`
	Patience int `mapstructure:"patience" validate:"gte=0"`
}

// SearchConfig controls hyper-parameter search.
type SearchConfig struct {
	NumTrials int `mapstructure:"n_trials" validate:"gt=0"`
	NumEpochs int `mapstructure:"n_epochs" validate:"gt=0"`
}

// GetDefaultConfig returns the default configuration.
func GetDefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Dataset:   "ml-100k",
			Separator: "\t",
			TestRatio: 0.1,
		},
		Train: TrainConfig{
			Model:      "mf",
			NEpochs:    20,
			NFactors:   16,
			Lr:         0.002,
			Reg:        1e-5,
			BatchSize:  1024,
			HiddenSize: 128,
			NHidden:    1,
			UseBias:    true,
			Optimizer:  model.Adam,
			Jobs:       1,
			Verbose:    10,
			Patience:   10,
		},
		Search: SearchConfig{
			NumTrials: 10,
			NumEpochs: 20,
		},
	}
}

func setDefault() {
	defaultConfig := GetDefaultConfig()
	// [data]
	viper.SetDefault("data.dataset", defaultConfig.Data.Dataset)
	viper.SetDefault("data.separator", defaultConfig.Data.Separator)
	viper.SetDefault("data.header", defaultConfig.Data.Header)
	viper.SetDefault("data.test_ratio", defaultConfig.Data.TestRatio)
	// [train]
	viper.SetDefault("train.model", defaultConfig.Train.Model)
	viper.SetDefault("train.n_epochs", defaultConfig.Train.NEpochs)
	viper.SetDefault("train.n_factors", defaultConfig.Train.NFactors)
	viper.SetDefault("train.lr", defaultConfig.Train.Lr)
	viper.SetDefault("train.reg", defaultConfig.Train.Reg)
	viper.SetDefault("train.batch_size", defaultConfig.Train.BatchSize)
	viper.SetDefault("train.hidden_size", defaultConfig.Train.HiddenSize)
	viper.SetDefault("train.n_hidden", defaultConfig.Train.NHidden)
	viper.SetDefault("train.dropout", defaultConfig.Train.Dropout)
	viper.SetDefault("train.use_bias", defaultConfig.Train.UseBias)
	viper.SetDefault("train.optimizer", defaultConfig.Train.Optimizer)
	viper.SetDefault("train.random_state", defaultConfig.Train.RandomState)
	viper.SetDefault("train.jobs", defaultConfig.Train.Jobs)
	viper.SetDefault("train.verbose", defaultConfig.Train.Verbose)
	viper.SetDefault("train.patience", defaultConfig.Train.Patience)
	// [search]
	viper.SetDefault("search.n_trials", defaultConfig.Search.NumTrials)
	viper.SetDefault("search.n_epochs", defaultConfig.Search.NumEpochs)
}

// LoadConfig loads and validates the configuration from a TOML file. An
// empty path returns the default configuration.
func LoadConfig(path string) (*Config, error) {
	setDefault()
	if path != "" {
		viper.SetConfigType("toml")
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return nil, errors.Trace(err)
		}
	}
	var conf Config
	if err := viper.Unmarshal(&conf); err != nil {
		return nil, errors.Trace(err)
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}

// Validate checks field constraints.
func (config *Config) Validate() error {
	validate := validator.New()
	return errors.Trace(validate.Struct(config))
}

// ModelParams converts the train section into model hyper-parameters.
func (config *Config) ModelParams() model.Params {
	return model.Params{
		model.NEpochs:     config.Train.NEpochs,
		model.NFactors:    config.Train.NFactors,
		model.Lr:          config.Train.Lr,
		model.Reg:         config.Train.Reg,
		model.BatchSize:   config.Train.BatchSize,
		model.HiddenSize:  config.Train.HiddenSize,
		model.NHidden:     config.Train.NHidden,
		model.Dropout:     config.Train.Dropout,
		model.UseBias:     config.Train.UseBias,
		model.Optimizer:   config.Train.Optimizer,
		model.RandomState: config.Train.RandomState,
	}
}

// FitConfig converts the train section into a fit configuration.
func (config *Config) FitConfig() *rating.FitConfig {
	return rating.NewFitConfig().
		SetJobs(config.Train.Jobs).
		SetVerbose(config.Train.Verbose).
		SetPatience(config.Train.Patience)
}

// NewModel creates the rating model selected by the train section.
func (config *Config) NewModel() rating.MatrixFactorization {
	switch strings.ToLower(config.Train.Model) {
	case "mlp":
		return rating.NewMLP(config.ModelParams())
	default:
		return rating.NewMF(config.ModelParams())
	}
}
