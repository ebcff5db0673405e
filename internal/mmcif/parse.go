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

package mmcif

import (
	"bytes"
	"io"
	"strconv"

	"github.com/BurntSushi/cif"
	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/gzip"

	"github.com/foldset-io/foldset/internal/util/merr"
)

// Parse reads one mmCIF document and builds the structure model from its
// first data block.
func Parse(r io.Reader, id string) (*Structure, error) {
	doc, err := cif.Read(r)
	if err != nil {
		return nil, errors.Wrapf(merr.ErrStructureParse, "%s: %v", id, err)
	}

	var block *cif.DataBlock
	for _, b := range doc.Blocks {
		block = b
		break
	}
	if block == nil {
		return nil, errors.Wrapf(merr.ErrStructureParse, "%s: no data block", id)
	}
	return fromBlock(block, id)
}

// ParseBytes parses an in-memory mmCIF document.
func ParseBytes(data []byte, id string) (*Structure, error) {
	return Parse(bytes.NewReader(data), id)
}

// ParseGzip parses a gzip-compressed mmCIF document.
func ParseGzip(data []byte, id string) (*Structure, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(merr.ErrStructureParse, "%s: %v", id, err)
	}
	defer gz.Close()
	return Parse(gz, id)
}

func fromBlock(block *cif.DataBlock, id string) (*Structure, error) {
	atomNames := loopStrings(block, "atom_site.label_atom_id")
	if atomNames == nil {
		return nil, errors.Wrapf(merr.ErrStructureParse, "%s: no atom_site records", id)
	}
	comps := loopStrings(block, "atom_site.label_comp_id")
	asyms := loopStrings(block, "atom_site.label_asym_id")
	symbols := loopStrings(block, "atom_site.type_symbol")
	xs := loopFloats(block, "atom_site.cartn_x")
	ys := loopFloats(block, "atom_site.cartn_y")
	zs := loopFloats(block, "atom_site.cartn_z")
	if comps == nil || asyms == nil || symbols == nil || xs == nil || ys == nil || zs == nil {
		return nil, errors.Wrapf(merr.ErrStructureParse, "%s: incomplete atom_site loop", id)
	}

	n := len(atomNames)
	seqs := loopStrings(block, "atom_site.label_seq_id")
	authSeqs := loopStrings(block, "atom_site.auth_seq_id")
	entities := loopStrings(block, "atom_site.label_entity_id")
	models := loopStrings(block, "atom_site.pdbx_pdb_model_num")

	st := &Structure{
		ID:             id,
		EntityPolymers: parseEntityPoly(block),
	}

	var (
		chain     *Chain
		residue   *Residue
		firstModel string
	)
	for i := 0; i < n; i++ {
		if models != nil {
			if firstModel == "" {
				firstModel = models[i]
			} else if models[i] != firstModel {
				continue
			}
		}

		seq := ""
		if seqs != nil {
			seq = seqs[i]
		}
		if (seq == "" || seq == "." || seq == "?") && authSeqs != nil {
			seq = authSeqs[i]
		}

		if chain == nil || chain.Name != asyms[i] {
			st.Chains = append(st.Chains, Chain{Name: asyms[i]})
			chain = &st.Chains[len(st.Chains)-1]
			if entities != nil {
				chain.EntityID = entities[i]
			}
			residue = nil
		}
		if residue == nil || residue.Seq != seq || residue.Name != comps[i] {
			chain.Residues = append(chain.Residues, Residue{Name: comps[i], Seq: seq})
			residue = &chain.Residues[len(chain.Residues)-1]
		}
		residue.Atoms = append(residue.Atoms, Atom{
			Name:    atomNames[i],
			Element: symbols[i],
			X:       xs[i],
			Y:       ys[i],
			Z:       zs[i],
		})
	}

	if len(st.Chains) == 0 {
		return nil, errors.Wrapf(merr.ErrStructureParse, "%s: no chains", id)
	}
	return st, nil
}

// parseEntityPoly reads the entity_poly loop when present. Files that carry
// the category as a single key/value block (or not at all) yield an empty
// map, which sends classification down the residue-vote fallback.
func parseEntityPoly(b *cif.DataBlock) map[string]PolymerClass {
	ids := loopStrings(b, "entity_poly.entity_id")
	types := loopStrings(b, "entity_poly.type")
	if ids == nil || types == nil || len(ids) != len(types) {
		return nil
	}
	m := make(map[string]PolymerClass, len(ids))
	for i := range ids {
		m[ids[i]] = classifyPolymerType(types[i])
	}
	return m
}

// loopStrings reads one loop column as strings regardless of how the reader
// typed it.
func loopStrings(b *cif.DataBlock, tag string) []string {
	lp, ok := b.Loops[tag]
	if !ok {
		return nil
	}
	vs := lp.Get(tag)
	if s := vs.Strings(); s != nil {
		return s
	}
	if is := vs.Ints(); is != nil {
		out := make([]string, len(is))
		for i, v := range is {
			out[i] = strconv.Itoa(v)
		}
		return out
	}
	if fs := vs.Floats(); fs != nil {
		out := make([]string, len(fs))
		for i, v := range fs {
			out[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		return out
	}
	return nil
}

// loopFloats reads one loop column as floats regardless of how the reader
// typed it.
func loopFloats(b *cif.DataBlock, tag string) []float64 {
	lp, ok := b.Loops[tag]
	if !ok {
		return nil
	}
	vs := lp.Get(tag)
	if fs := vs.Floats(); fs != nil {
		return fs
	}
	if is := vs.Ints(); is != nil {
		out := make([]float64, len(is))
		for i, v := range is {
			out[i] = float64(v)
		}
		return out
	}
	if ss := vs.Strings(); ss != nil {
		out := make([]float64, len(ss))
		for i, s := range ss {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil
			}
			out[i] = v
		}
		return out
	}
	return nil
}
