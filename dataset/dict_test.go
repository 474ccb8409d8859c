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
	"bytes"
	"encoding/gob"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFreqDict(t *testing.T) {
	dict := NewFreqDict()
	assert.Equal(t, int32(0), dict.Id("a"))
	assert.Equal(t, int32(1), dict.Id("b"))
	assert.Equal(t, int32(1), dict.Id("b"))
	assert.Equal(t, int32(2), dict.Id("c"))
	assert.Equal(t, int32(2), dict.Id("c"))
	assert.Equal(t, int32(2), dict.Id("c"))
	assert.Equal(t, int32(3), dict.Count())
	assert.Equal(t, int32(1), dict.Freq(0))
	assert.Equal(t, int32(2), dict.Freq(1))
	assert.Equal(t, int32(3), dict.Freq(2))
}


func TestFreqDict_Lookup(t *testing.T) {
	dict := NewFreqDict()
	assert.Equal(t, NotId, dict.Lookup("a"))
	assert.Equal(t, int32(0), dict.Id("a"))
	assert.Equal(t, int32(0), dict.Lookup("a"))
	s, ok := dict.String(0)
	assert.True(t, ok)
	assert.Equal(t, "a", s)
	_, ok = dict.String(1)
	assert.False(t, ok)
}

func TestFreqDict_Gob(t *testing.T) {
	dict := NewFreqDict()
	dict.Id("a")
	dict.Id("b")
	dict.Id("b")

	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(dict)
	assert.NoError(t, err)
	decoded := NewFreqDict()
	err = gob.NewDecoder(&buf).Decode(decoded)
	assert.NoError(t, err)

	assert.Equal(t, int32(2), decoded.Count())
	assert.Equal(t, int32(0), decoded.Lookup("a"))
	assert.Equal(t, int32(1), decoded.Lookup("b"))
	assert.Equal(t, int32(2), decoded.Freq(1))
}
