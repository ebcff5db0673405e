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

// Package cropper reduces or pads token streams to a fixed length for
// fixed-shape model input. All croppers draw randomness from an injected
// rand source, so a fixed seed reproduces the crop exactly.
package cropper

import (
	"math"
	"math/rand"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/foldset-io/foldset/internal/tokens"
	"github.com/foldset-io/foldset/internal/util/merr"
	"github.com/foldset-io/foldset/internal/vocab"
)

// padTokenID is the res_type written into pure padding tokens.
const padTokenID int32 = 0

const (
	// DefaultInterfaceCutoff is the inter-chain contact distance, in
	// Angstroms, that marks a token as an interface token.
	DefaultInterfaceCutoff = 8.0
	// DefaultLigandProb is the chance of centering on a ligand atom when the
	// stream contains any.
	DefaultLigandProb = 0.5
)

// Cropper produces a view of exactly the configured length: a padded copy if
// the stream is short enough, a selected subsequence otherwise.
type Cropper interface {
	Crop(s *tokens.Stream, rng *rand.Rand) *tokens.Stream
}

// PadToSize right-pads every per-token array of s to size. Padding tokens get
// the pad res_type, chain id -1 and zeros everywhere else. Callers must not
// pass a stream longer than size.
func PadToSize(s *tokens.Stream, size int) *tokens.Stream {
	out := tokens.NewStream(s.ID, size)
	out.ResType = append(out.ResType, s.ResType...)
	out.ChainIDs = append(out.ChainIDs, s.ChainIDs...)
	out.Coords = append(out.Coords, s.Coords...)
	out.Mask = append(out.Mask, s.Mask...)
	out.Elements = append(out.Elements, s.Elements...)
	for i := s.Len(); i < size; i++ {
		out.Append(tokens.Token{ResType: padTokenID, ChainID: -1})
	}
	return out
}

// representativeCoords extracts one xyz per token for distance math, taking
// the first resolved atom slot. Fully unresolved tokens sit at the origin.
func representativeCoords(s *tokens.Stream) [][3]float32 {
	rep := make([][3]float32, s.Len())
	for i := 0; i < s.Len(); i++ {
		for slot := 0; slot < vocab.MaxAtomCount; slot++ {
			if s.Mask[i][slot] > 0 {
				rep[i] = s.Coords[i][slot]
				break
			}
		}
	}
	return rep
}

func sqDist(a, b [3]float32) float64 {
	dx := float64(a[0] - b[0])
	dy := float64(a[1] - b[1])
	dz := float64(a[2] - b[2])
	return dx*dx + dy*dy + dz*dz
}

// spatialCropFromCenter selects the cropSize tokens closest to the center
// token while keeping ligand molecules whole: a ligand atom pulls in all
// atoms of its molecule, or the whole molecule is skipped when it does not
// fit. Any shortfall is filled with the next closest tokens regardless of
// grouping, and the final selection is re-sorted into original stream order.
func spatialCropFromCenter(s *tokens.Stream, centerIdx, cropSize int, rep [][3]float32) *tokens.Stream {
	L := s.Len()
	order := make([]int, L)
	for i := range order {
		order[i] = i
	}
	center := rep[centerIdx]
	dists := make([]float64, L)
	for i := range dists {
		dists[i] = sqDist(rep[i], center)
	}
	sort.SliceStable(order, func(a, b int) bool { return dists[order[a]] < dists[order[b]] })

	selected := make(map[int]bool, cropSize)
	for _, idx := range order {
		if len(selected) >= cropSize {
			break
		}
		if selected[idx] {
			continue
		}
		if s.ResType[idx] == vocab.LigandIdx {
			group := ligandMolecule(s, s.ChainIDs[idx])
			if len(selected)+len(group) > cropSize {
				continue
			}
			for _, g := range group {
				selected[g] = true
			}
		} else {
			selected[idx] = true
		}
	}

	picked := make([]int, 0, cropSize)
	for idx := range selected {
		picked = append(picked, idx)
	}
	if len(picked) < cropSize {
		for _, idx := range order {
			if len(picked) >= cropSize {
				break
			}
			if !selected[idx] {
				picked = append(picked, idx)
				selected[idx] = true
			}
		}
	}
	sort.Ints(picked)
	return s.Select(picked)
}

// ligandMolecule returns the indices of every ligand atom token sharing a
// chain id, which is the whole-molecule unit the croppers must not split.
func ligandMolecule(s *tokens.Stream, chainID int32) []int {
	var group []int
	for i := 0; i < s.Len(); i++ {
		if s.ChainIDs[i] == chainID && s.ResType[i] == vocab.LigandIdx {
			group = append(group, i)
		}
	}
	return group
}

// Contiguous slices a random continuous chunk of the stream. The slice is
// taken verbatim, so a ligand molecule straddling the boundary is cut.
type Contiguous struct {
	cropSize int
}

func NewContiguous(cropSize int) (*Contiguous, error) {
	if cropSize <= 0 {
		return nil, errors.Wrapf(merr.ErrCropSizeInvalid, "contiguous: %d", cropSize)
	}
	return &Contiguous{cropSize: cropSize}, nil
}

func (c *Contiguous) Crop(s *tokens.Stream, rng *rand.Rand) *tokens.Stream {
	L := s.Len()
	if L <= c.cropSize {
		return PadToSize(s, c.cropSize)
	}
	start := rng.Intn(L - c.cropSize + 1)
	return s.Slice(start, start+c.cropSize)
}

// Spatial centers on a uniformly random token and takes the closest tokens.
type Spatial struct {
	cropSize int
}

func NewSpatial(cropSize int) (*Spatial, error) {
	if cropSize <= 0 {
		return nil, errors.Wrapf(merr.ErrCropSizeInvalid, "spatial: %d", cropSize)
	}
	return &Spatial{cropSize: cropSize}, nil
}

func (c *Spatial) Crop(s *tokens.Stream, rng *rand.Rand) *tokens.Stream {
	L := s.Len()
	if L <= c.cropSize {
		return PadToSize(s, c.cropSize)
	}
	rep := representativeCoords(s)
	return spatialCropFromCenter(s, rng.Intn(L), c.cropSize, rep)
}

// InterfaceBiased centers on a token with an inter-chain contact inside the
// cutoff, falling back to a uniform center when no interface exists.
type InterfaceBiased struct {
	cropSize int
	cutoff   float64
}

func NewInterfaceBiased(cropSize int, cutoff float64) (*InterfaceBiased, error) {
	if cropSize <= 0 {
		return nil, errors.Wrapf(merr.ErrCropSizeInvalid, "interface biased: %d", cropSize)
	}
	if cutoff <= 0 {
		cutoff = DefaultInterfaceCutoff
	}
	return &InterfaceBiased{cropSize: cropSize, cutoff: cutoff}, nil
}

func (c *InterfaceBiased) Crop(s *tokens.Stream, rng *rand.Rand) *tokens.Stream {
	L := s.Len()
	if L <= c.cropSize {
		return PadToSize(s, c.cropSize)
	}
	rep := representativeCoords(s)

	cutoffSq := c.cutoff * c.cutoff
	var interfaceTokens []int
	for i := 0; i < L; i++ {
		nearest := math.Inf(1)
		for j := 0; j < L; j++ {
			if s.ChainIDs[i] == s.ChainIDs[j] {
				continue
			}
			if d := sqDist(rep[i], rep[j]); d < nearest {
				nearest = d
			}
		}
		if nearest < cutoffSq {
			interfaceTokens = append(interfaceTokens, i)
		}
	}

	centerIdx := 0
	if len(interfaceTokens) > 0 {
		centerIdx = interfaceTokens[rng.Intn(len(interfaceTokens))]
	} else {
		centerIdx = rng.Intn(L)
	}
	return spatialCropFromCenter(s, centerIdx, c.cropSize, rep)
}

// EntityStratified flips a weighted coin between centering on a ligand atom
// and centering on a polymer token, so small molecules are not starved of
// crops in ligand-poor complexes.
type EntityStratified struct {
	cropSize   int
	ligandProb float64
}

func NewEntityStratified(cropSize int, ligandProb float64) (*EntityStratified, error) {
	if cropSize <= 0 {
		return nil, errors.Wrapf(merr.ErrCropSizeInvalid, "entity stratified: %d", cropSize)
	}
	if ligandProb < 0 || ligandProb > 1 {
		ligandProb = DefaultLigandProb
	}
	return &EntityStratified{cropSize: cropSize, ligandProb: ligandProb}, nil
}

func (c *EntityStratified) Crop(s *tokens.Stream, rng *rand.Rand) *tokens.Stream {
	L := s.Len()
	if L <= c.cropSize {
		return PadToSize(s, c.cropSize)
	}
	rep := representativeCoords(s)

	var ligand, polymer []int
	for i := 0; i < L; i++ {
		if s.ResType[i] == vocab.LigandIdx {
			ligand = append(ligand, i)
		} else {
			polymer = append(polymer, i)
		}
	}

	var centerIdx int
	switch {
	case len(ligand) > 0 && rng.Float64() < c.ligandProb:
		centerIdx = ligand[rng.Intn(len(ligand))]
	case len(polymer) > 0:
		centerIdx = polymer[rng.Intn(len(polymer))]
	default:
		centerIdx = rng.Intn(L)
	}
	return spatialCropFromCenter(s, centerIdx, c.cropSize, rep)
}
