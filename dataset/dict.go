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

	"github.com/juju/errors"
)

// NotId is returned by Lookup when the key was never added.
const NotId = int32(-1)

// FreqDict maps string ids to dense int32 indices and counts how many times
// each id was seen.
type FreqDict struct {
	si  map[string]int32
	is  []string
	cnt []int32
}

func NewFreqDict() (d *FreqDict) {
	d = &FreqDict{map[string]int32{}, []string{}, []int32{}}
	return
}

func (d *FreqDict) Count() int32 {
	return int32(len(d.is))
}

// Id returns the dense index of s, adding it to the dictionary and bumping
// its frequency.
func (d *FreqDict) Id(s string) (y int32) {
	if y, ok := d.si[s]; ok {
		d.cnt[y]++
		return y
	}

	y = int32(len(d.is))
	d.si[s] = y
	d.is = append(d.is, s)
	d.cnt = append(d.cnt, 1)
	return
}


// Lookup returns the dense index of s, or NotId if s was never added.
func (d *FreqDict) Lookup(s string) int32 {
	if y, ok := d.si[s]; ok {
		return y
	}
	return NotId
}

func (d *FreqDict) String(id int32) (s string, ok bool) {
	if id < 0 || id >= int32(len(d.is)) {
		return "", false
	}
	return d.is[id], true
}

func (d *FreqDict) Freq(id int32) int32 {
	if id < 0 || id >= int32(len(d.cnt)) {
		return 0
	}
	return d.cnt[id]
}

type freqDictData struct {
	Is  []string
	Cnt []int32
}

// GobEncode implements gob.GobEncoder.
func (d *FreqDict) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(freqDictData{Is: d.is, Cnt: d.cnt}); err != nil {
		return nil, errors.Trace(err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (d *FreqDict) GobDecode(data []byte) error {
	var serialized freqDictData
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&serialized); err != nil {
		return errors.Trace(err)
	}
	d.is = serialized.Is
	d.cnt = serialized.Cnt
	d.si = make(map[string]int32, len(d.is))
	for i, s := range d.is {
		d.si[s] = int32(i)
	}
	return nil
}
