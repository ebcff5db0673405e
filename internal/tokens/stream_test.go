// Copyright (C) 2025 foldset.io. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License
// is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express
// or implied. See the License for the specific language governing permissions and limitations under the License.

package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numberedToken(n int32) Token {
	t := Token{ResType: n, ChainID: n % 3}
	t.Coords[0] = [3]float32{float32(n), 0, 0}
	t.Mask[0] = 1
	t.Elements[0] = 6
	return t
}

func TestStreamAppend(t *testing.T) {
	s := NewStream("1abc", 4)
	for n := int32(0); n < 4; n++ {
		s.Append(numberedToken(n))
	}

	assert.Equal(t, 4, s.Len())
	assert.Equal(t, []int32{0, 1, 2, 3}, s.ResType)
	assert.Equal(t, []int32{0, 1, 2, 0}, s.ChainIDs)
	assert.Equal(t, float32(2), s.Coords[2][0][0])
	require.NoError(t, s.Validate())
}

func TestStreamSelect(t *testing.T) {
	s := NewStream("1abc", 5)
	for n := int32(0); n < 5; n++ {
		s.Append(numberedToken(n))
	}

	out := s.Select([]int{4, 0, 2})
	assert.Equal(t, "1abc", out.ID)
	assert.Equal(t, []int32{4, 0, 2}, out.ResType)
	assert.Equal(t, float32(4), out.Coords[0][0][0])
	require.NoError(t, out.Validate())

	// The gathered stream is a copy, not a view.
	out.ResType[0] = 99
	assert.Equal(t, int32(4), s.ResType[4])
}

func TestStreamSlice(t *testing.T) {
	s := NewStream("1abc", 5)
	for n := int32(0); n < 5; n++ {
		s.Append(numberedToken(n))
	}

	out := s.Slice(1, 4)
	assert.Equal(t, []int32{1, 2, 3}, out.ResType)
	require.NoError(t, out.Validate())

	empty := s.Slice(2, 2)
	assert.Equal(t, 0, empty.Len())
}

func TestStreamValidateMisaligned(t *testing.T) {
	s := NewStream("1abc", 2)
	s.Append(numberedToken(0))
	s.ChainIDs = append(s.ChainIDs, 7)

	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "misaligned")
}
