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

package ccd

import (
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/cif"
	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/foldset-io/foldset/internal/log"
	"github.com/foldset-io/foldset/internal/vocab"
)

// Build parses the chemical component dictionary and extracts, per
// component, the heavy atom list and the best available SMILES string.
// Components without an atom loop are skipped.
func Build(r io.Reader) (*Reference, map[string]string, error) {
	doc, err := cif.Read(r)
	if err != nil {
		return nil, nil, errors.Wrap(err, "read component dictionary")
	}

	atoms := make(map[string][]ReferenceAtom, len(doc.Blocks))
	smiles := make(map[string]string, len(doc.Blocks))
	for _, block := range doc.Blocks {
		code := strings.ToUpper(block.Name)

		names := columnStrings(block, "chem_comp_atom.atom_id")
		symbols := columnStrings(block, "chem_comp_atom.type_symbol")
		if names != nil && symbols != nil && len(names) == len(symbols) {
			heavy := make([]ReferenceAtom, 0, len(names))
			for i := range names {
				el := strings.ToUpper(trimQuotes(symbols[i]))
				if vocab.IsHydrogen(el) {
					continue
				}
				heavy = append(heavy, ReferenceAtom{
					Name:    trimQuotes(names[i]),
					Element: el,
				})
			}
			if len(heavy) > 0 {
				atoms[code] = heavy
			}
		}

		if s := bestSMILES(block); s != "" {
			smiles[code] = s
		}
	}

	log.Info("built chemical component reference",
		zap.Int("components", len(atoms)),
		zap.Int("smiles", len(smiles)))
	return NewReference(atoms), smiles, nil
}

// BuildFromFile builds the reference from a dictionary file, transparently
// decompressing .gz input.
func BuildFromFile(path string) (*Reference, map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "open %s", path)
		}
		defer gz.Close()
		r = gz
	}
	return Build(r)
}

// bestSMILES prefers the canonical descriptor over the generic one.
func bestSMILES(block *cif.DataBlock) string {
	types := columnStrings(block, "pdbx_chem_comp_descriptor.type")
	vals := columnStrings(block, "pdbx_chem_comp_descriptor.descriptor")
	if types == nil || vals == nil || len(types) != len(vals) {
		return ""
	}
	for i := range types {
		if strings.Contains(types[i], "SMILES_CANONICAL") {
			return trimQuotes(vals[i])
		}
	}
	for i := range types {
		if strings.Contains(types[i], "SMILES") {
			return trimQuotes(vals[i])
		}
	}
	return ""
}

func columnStrings(b *cif.DataBlock, tag string) []string {
	lp, ok := b.Loops[tag]
	if !ok {
		return nil
	}
	return lp.Get(tag).Strings()
}

func trimQuotes(s string) string {
	return strings.Trim(s, `"'`)
}
