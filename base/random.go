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

package base

import (
	"math/rand"

	mapset "github.com/deckarep/golang-set/v2"
)

// RandomGenerator is the random generator for mlens.
type RandomGenerator struct {
	*rand.Rand
}

// NewRandomGenerator creates a RandomGenerator.
func NewRandomGenerator(seed int64) RandomGenerator {
	return RandomGenerator{rand.New(rand.NewSource(seed))}
}

// Sample n values between low and high, but not in exclude.
func (rng RandomGenerator) Sample(low, high, n int, exclude ...mapset.Set[int]) []int {
	intervalLength := high - low
	excludeSet := mapset.NewSet[int]()
	for _, set := range exclude {
		excludeSet = excludeSet.Union(set)
	}
	sampled := make([]int, 0, n)
	if n >= intervalLength-excludeSet.Cardinality() {
		for i := low; i < high; i++ {
			if !excludeSet.Contains(i) {
				sampled = append(sampled, i)
				excludeSet.Add(i)
			}
		}
		return sampled
	}
	for len(sampled) < n {
		v := rng.Intn(intervalLength) + low
		if !excludeSet.Contains(v) {
			sampled = append(sampled, v)
			excludeSet.Add(v)
		}
	}
	return sampled
}
