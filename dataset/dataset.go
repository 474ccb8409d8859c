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

package dataset

import (
	"bufio"
	"os"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"github.com/mlens-io/mlens/base"
	"github.com/mlens-io/mlens/base/log"
	"github.com/mlens-io/mlens/common/util"
	"go.uber.org/zap"
)

// Dataset is a columnar list of (user, item, rating) tuples with shared
// user/item dictionaries. Indices stored in users and items are dense.
type Dataset struct {
	users    []int32
	items    []int32
	ratings  []float32
	sum      float64
	userDict *FreqDict
	itemDict *FreqDict
}

func NewDataset(capacity int) *Dataset {
	return &Dataset{
		users:    make([]int32, 0, capacity),
		items:    make([]int32, 0, capacity),
		ratings:  make([]float32, 0, capacity),
		userDict: NewFreqDict(),
		itemDict: NewFreqDict(),
	}
}

// AddRating appends a rating tuple, registering unseen users and items.
func (d *Dataset) AddRating(userId, itemId string, rating float32) {
	d.users = append(d.users, d.userDict.Id(userId))
	d.items = append(d.items, d.itemDict.Id(itemId))
	d.ratings = append(d.ratings, rating)
	d.sum += float64(rating)
}

// Get returns the i-th tuple as dense indices and rating.
func (d *Dataset) Get(i int) (userIndex, itemIndex int32, rating float32) {
	return d.users[i], d.items[i], d.ratings[i]
}

func (d *Dataset) Count() int {
	return len(d.ratings)
}

func (d *Dataset) CountUsers() int {
	return int(d.userDict.Count())
}

func (d *Dataset) CountItems() int {
	return int(d.itemDict.Count())
}

// GlobalMean returns the mean rating of the dataset.
func (d *Dataset) GlobalMean() float32 {
	if len(d.ratings) == 0 {
		return 0
	}
	return float32(d.sum / float64(len(d.ratings)))
}

func (d *Dataset) GetUserDict() *FreqDict {
	return d.userDict
}

func (d *Dataset) GetItemDict() *FreqDict {
	return d.itemDict
}

// LoadRatingsFile reads a delimiter-separated ratings file with columns
// (user, item, rating, ...). Malformed lines are skipped with a warning.
func LoadRatingsFile(path, sep string, header bool) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer file.Close()
	data := NewDataset(0)
	scanner := bufio.NewScanner(file)
	line := 0
	for scanner.Scan() {
		line++
		if header && line == 1 {
			continue
		}
		text := scanner.Text()
		if len(strings.TrimSpace(text)) == 0 {
			continue
		}
		fields := strings.Split(text, sep)
		if len(fields) < 3 {
			log.Logger().Warn("skip malformed line",
				zap.String("path", path), zap.Int("line", line))
			continue
		}
		rating, err := util.ParseFloat[float32](fields[2])
		if err != nil {
			log.Logger().Warn("skip malformed rating",
				zap.String("path", path), zap.Int("line", line), zap.Error(err))
			continue
		}
		data.AddRating(fields[0], fields[1], rating)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	return data, nil
}

// Split splits the dataset into a training set and a test set by random
// sampling. Both splits share the same user and item dictionaries so dense
// indices stay comparable across them.
func (d *Dataset) Split(ratio float32, seed int64) (train, test *Dataset) {
	numTestSize := int(float32(d.Count()) * ratio)
	rng := base.NewRandomGenerator(seed)
	sampledIndex := mapset.NewSet(rng.Sample(0, d.Count(), numTestSize)...)
	train = &Dataset{userDict: d.userDict, itemDict: d.itemDict}
	test = &Dataset{userDict: d.userDict, itemDict: d.itemDict}
	for i := 0; i < d.Count(); i++ {
		if sampledIndex.Contains(i) {
			test.users = append(test.users, d.users[i])
			test.items = append(test.items, d.items[i])
			test.ratings = append(test.ratings, d.ratings[i])
			test.sum += float64(d.ratings[i])
		} else {
			train.users = append(train.users, d.users[i])
			train.items = append(train.items, d.items[i])
			train.ratings = append(train.ratings, d.ratings[i])
			train.sum += float64(d.ratings[i])
		}
	}
	return train, test
}
