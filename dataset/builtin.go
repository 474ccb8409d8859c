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
	"path/filepath"

	"github.com/juju/errors"
	"github.com/mlens-io/mlens/common/datautil"
)

type builtInDataset struct {
	url    string
	path   string
	sep    string
	header bool
}

// MovieLens: https://grouplens.org/datasets/movielens/
var builtInDatasets = map[string]builtInDataset{
	"ml-100k": {
		url:  "https://files.grouplens.org/datasets/movielens/ml-100k.zip",
		path: "ml-100k/u.data",
		sep:  "\t",
	},
	"ml-1m": {
		url:  "https://files.grouplens.org/datasets/movielens/ml-1m.zip",
		path: "ml-1m/ratings.dat",
		sep:  "::",
	},
	"ml-10m": {
		url:  "https://files.grouplens.org/datasets/movielens/ml-10m.zip",
		path: "ml-10M100K/ratings.dat",
		sep:  "::",
	},
	"ml-20m": {
		url:    "https://files.grouplens.org/datasets/movielens/ml-20m.zip",
		path:   "ml-20m/ratings.csv",
		sep:    ",",
		header: true,
	},
	"ml-latest-small": {
		url:    "https://files.grouplens.org/datasets/movielens/ml-latest-small.zip",
		path:   "ml-latest-small/ratings.csv",
		sep:    ",",
		header: true,
	},
}

// LocateBuiltInDataset downloads the named dataset if needed and returns the
// local path of its ratings file together with separator and header settings.
func LocateBuiltInDataset(name string) (path, sep string, header bool, err error) {
	ds, exist := builtInDatasets[name]
	if !exist {
		return "", "", false, errors.NotFoundf("built-in dataset %s", name)
	}
	// the extracted directory is the first component of the ratings path
	if _, err := datautil.DownloadAndUnzip(filepath.Dir(ds.path), ds.url); err != nil {
		return "", "", false, errors.Trace(err)
	}
	return filepath.Join(datautil.DatasetDir(), ds.path), ds.sep, ds.header, nil
}

// LoadDataFromBuiltIn downloads and loads a built-in dataset.
func LoadDataFromBuiltIn(name string) (*Dataset, error) {
	path, sep, header, err := LocateBuiltInDataset(name)
	if err != nil {
		return nil, errors.Trace(err)
	}
	data, err := LoadRatingsFile(path, sep, header)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return data, nil
}
