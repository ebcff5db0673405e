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

// Package tokens defines the flat token representation of a structure.
// A token is either one polymer residue carrying up to MaxAtomCount atom
// slots, or one ligand heavy atom occupying slot 0 of its token.
package tokens

import (
	"github.com/cockroachdb/errors"

	"github.com/foldset-io/foldset/internal/vocab"
)

// Coords is the per-token atom coordinate block.
type Coords [vocab.MaxAtomCount][3]float32

// Mask marks which atom slots are resolved in the source structure.
type Mask [vocab.MaxAtomCount]float32

// Elements carries the atomic number occupying each slot, 0 for empty slots.
type Elements [vocab.MaxAtomCount]int32

// Token is one row of a stream.
type Token struct {
	ResType  int32
	ChainID  int32
	Coords   Coords
	Mask     Mask
	Elements Elements
}

// Stream is the ordered token sequence of one structure. All slices are
// indexed in parallel by token position. A persisted stream is immutable;
// transformations return new streams.
type Stream struct {
	ID       string
	ResType  []int32
	ChainIDs []int32
	Coords   []Coords
	Mask     []Mask
	Elements []Elements
}

// NewStream returns an empty stream with room for capacity tokens.
func NewStream(id string, capacity int) *Stream {
	return &Stream{
		ID:       id,
		ResType:  make([]int32, 0, capacity),
		ChainIDs: make([]int32, 0, capacity),
		Coords:   make([]Coords, 0, capacity),
		Mask:     make([]Mask, 0, capacity),
		Elements: make([]Elements, 0, capacity),
	}
}

// Len returns the number of tokens.
func (s *Stream) Len() int {
	return len(s.ResType)
}

// Append adds one token to the end of the stream.
func (s *Stream) Append(t Token) {
	s.ResType = append(s.ResType, t.ResType)
	s.ChainIDs = append(s.ChainIDs, t.ChainID)
	s.Coords = append(s.Coords, t.Coords)
	s.Mask = append(s.Mask, t.Mask)
	s.Elements = append(s.Elements, t.Elements)
}

// Select gathers the rows at idx, in the given order, into a new stream.
func (s *Stream) Select(idx []int) *Stream {
	out := NewStream(s.ID, len(idx))
	for _, i := range idx {
		out.ResType = append(out.ResType, s.ResType[i])
		out.ChainIDs = append(out.ChainIDs, s.ChainIDs[i])
		out.Coords = append(out.Coords, s.Coords[i])
		out.Mask = append(out.Mask, s.Mask[i])
		out.Elements = append(out.Elements, s.Elements[i])
	}
	return out
}

// Slice copies the half-open token range [lo, hi) into a new stream.
func (s *Stream) Slice(lo, hi int) *Stream {
	out := NewStream(s.ID, hi-lo)
	out.ResType = append(out.ResType, s.ResType[lo:hi]...)
	out.ChainIDs = append(out.ChainIDs, s.ChainIDs[lo:hi]...)
	out.Coords = append(out.Coords, s.Coords[lo:hi]...)
	out.Mask = append(out.Mask, s.Mask[lo:hi]...)
	out.Elements = append(out.Elements, s.Elements[lo:hi]...)
	return out
}

// Validate checks the parallel-array alignment invariant.
func (s *Stream) Validate() error {
	n := len(s.ResType)
	if len(s.ChainIDs) != n || len(s.Coords) != n || len(s.Mask) != n || len(s.Elements) != n {
		return errors.Newf("stream %s is misaligned: res_type=%d chain_ids=%d coords=%d mask=%d elements=%d",
			s.ID, n, len(s.ChainIDs), len(s.Coords), len(s.Mask), len(s.Elements))
	}
	return nil
}
