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

package main

import (
	"fmt"

	"github.com/juju/errors"
	"github.com/mlens-io/mlens/base/log"
	"github.com/mlens-io/mlens/cmd/version"
	"github.com/mlens-io/mlens/config"
	"github.com/mlens-io/mlens/dataset"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var mlensCommand = &cobra.Command{
	Use:   "mlens",
	Short: "Rating prediction on MovieLens with matrix factorization models.",
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion, _ := cmd.PersistentFlags().GetBool("version"); showVersion {
			fmt.Println(version.BuildInfo())
			return
		}
		_ = cmd.Help()
	},
}

func init() {
	log.AddFlags(mlensCommand.PersistentFlags())
	mlensCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	mlensCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	mlensCommand.PersistentFlags().BoolP("version", "v", false, "mlens version")
}

// setupCommand initializes the logger and loads the configuration shared by
// all subcommands.
func setupCommand(cmd *cobra.Command) *config.Config {
	debug, _ := cmd.Root().PersistentFlags().GetBool("debug")
	log.SetLogger(cmd.Root().PersistentFlags(), debug)
	configPath, _ := cmd.Root().PersistentFlags().GetString("config")
	if configPath != "" {
		log.Logger().Info("load config", zap.String("config", configPath))
	}
	conf, err := config.LoadConfig(configPath)
	if err != nil {
		log.Logger().Fatal("failed to load config", zap.Error(err))
	}
	return conf
}

// loadData loads the ratings selected by the data section and splits them
// into train and test sets.
func loadData(conf *config.Config) (trainSet, testSet *dataset.Dataset, err error) {
	var data *dataset.Dataset
	if conf.Data.Path != "" {
		data, err = dataset.LoadRatingsFile(conf.Data.Path, conf.Data.Separator, conf.Data.Header)
	} else {
		data, err = dataset.LoadDataFromBuiltIn(conf.Data.Dataset)
	}
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	trainSet, testSet = data.Split(conf.Data.TestRatio, conf.Train.RandomState)
	log.Logger().Info("load dataset",
		zap.Int("n_users", data.CountUsers()),
		zap.Int("n_items", data.CountItems()),
		zap.Int("train_set_size", trainSet.Count()),
		zap.Int("test_set_size", testSet.Count()),
		zap.Float32("global_mean", trainSet.GlobalMean()))
	return trainSet, testSet, nil
}

func main() {
	if err := mlensCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}
