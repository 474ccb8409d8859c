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
	"github.com/c-bata/goptuna"
	"github.com/c-bata/goptuna/tpe"
	"github.com/mlens-io/mlens/base/log"
	"github.com/mlens-io/mlens/model"
	"github.com/mlens-io/mlens/model/rating"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	mlensCommand.AddCommand(searchCommand)
	searchCommand.PersistentFlags().Int("n-trials", 0, "number of search trials (overrides the config)")
}

var searchCommand = &cobra.Command{
	Use:   "search",
	Short: "Search models and hyper-parameters minimizing RMSE.",
	Run: func(cmd *cobra.Command, args []string) {
		conf := setupCommand(cmd)
		trainSet, testSet, err := loadData(conf)
		if err != nil {
			log.Logger().Fatal("failed to load dataset", zap.Error(err))
		}

		numTrials := conf.Search.NumTrials
		if n, _ := cmd.PersistentFlags().GetInt("n-trials"); n > 0 {
			numTrials = n
		}
		searchParams := model.Params{
			model.NEpochs:     conf.Search.NumEpochs,
			model.RandomState: conf.Train.RandomState,
		}
		search := rating.NewModelSearch(map[string]rating.ModelCreator{
			"mf":  func() rating.MatrixFactorization { return rating.NewMF(searchParams.Copy()) },
			"mlp": func() rating.MatrixFactorization { return rating.NewMLP(searchParams.Copy()) },
		}, trainSet, testSet, conf.FitConfig())

		study, err := goptuna.CreateStudy("mlens",
			goptuna.StudyOptionDirection(goptuna.StudyDirectionMinimize),
			goptuna.StudyOptionSampler(tpe.NewSampler()))
		if err != nil {
			log.Logger().Fatal("failed to create study", zap.Error(err))
		}
		if err = study.Optimize(search.Objective, numTrials); err != nil {
			log.Logger().Fatal("failed to search models", zap.Error(err))
		}

		result := search.Result()
		log.Logger().Info("search complete",
			zap.String("model", result.Type),
			zap.Any("params", result.Params),
			zap.Float32("best_rmse", result.Score.RMSE))
	},
}
