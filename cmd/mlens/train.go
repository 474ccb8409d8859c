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
	"context"
	"os"

	"github.com/mlens-io/mlens/base/log"
	"github.com/mlens-io/mlens/model/rating"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	mlensCommand.AddCommand(trainCommand)
	trainCommand.PersistentFlags().String("model-path", "", "save the fitted model to this path")
}

var trainCommand = &cobra.Command{
	Use:   "train",
	Short: "Fit a rating model and report RMSE on the test set.",
	Run: func(cmd *cobra.Command, args []string) {
		conf := setupCommand(cmd)
		trainSet, testSet, err := loadData(conf)
		if err != nil {
			log.Logger().Fatal("failed to load dataset", zap.Error(err))
		}

		m := conf.NewModel()
		score := m.Fit(context.Background(), trainSet, testSet, conf.FitConfig())
		log.Logger().Info("training complete", score.ZapFields()...)

		if modelPath, _ := cmd.PersistentFlags().GetString("model-path"); modelPath != "" {
			w, err := os.Create(modelPath)
			if err != nil {
				log.Logger().Fatal("failed to create model file", zap.Error(err))
			}
			defer w.Close()
			if err := rating.MarshalModel(w, m); err != nil {
				log.Logger().Fatal("failed to save model", zap.Error(err))
			}
			log.Logger().Info("model saved", zap.String("model_path", modelPath))
		}
	},
}
