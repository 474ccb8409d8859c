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
	"os"

	"github.com/mlens-io/mlens/base/log"
	"github.com/mlens-io/mlens/model/rating"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	mlensCommand.AddCommand(testCommand)
	testCommand.PersistentFlags().String("model-path", "", "load the fitted model from this path")
}

var testCommand = &cobra.Command{
	Use:   "test",
	Short: "Evaluate a saved rating model on the test set.",
	Run: func(cmd *cobra.Command, args []string) {
		conf := setupCommand(cmd)
		modelPath, _ := cmd.PersistentFlags().GetString("model-path")
		if modelPath == "" {
			log.Logger().Fatal("--model-path is required")
		}
		r, err := os.Open(modelPath)
		if err != nil {
			log.Logger().Fatal("failed to open model file", zap.Error(err))
		}
		defer r.Close()
		m, err := rating.UnmarshalModel(r)
		if err != nil {
			log.Logger().Fatal("failed to load model", zap.Error(err))
		}
		log.Logger().Info("model loaded",
			zap.String("model", rating.GetModelName(m)),
			zap.Any("params", m.GetParams()))

		_, testSet, err := loadData(conf)
		if err != nil {
			log.Logger().Fatal("failed to load dataset", zap.Error(err))
		}
		score := rating.EvaluateRegression(m, testSet, conf.Train.Jobs)
		log.Logger().Info("evaluation complete", score.ZapFields()...)
	},
}
