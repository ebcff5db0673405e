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

// Package split partitions the processed dataset into train, val and test so
// that no similarity cluster straddles two splits.
package split

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/foldset-io/foldset/internal/archive"
	"github.com/foldset-io/foldset/internal/log"
	"github.com/foldset-io/foldset/internal/mmcif"
	"github.com/foldset-io/foldset/internal/util/merr"
	"github.com/foldset-io/foldset/internal/vocab"
)

// Entry lists what one structure contains, keyed the way the clustering
// stage wants it: sequences by structure_chain, ligands by
// structure_chain_residue.
type Entry struct {
	ProteinSequences map[string]string `json:"protein_sequences"`
	NucleicSequences map[string]string `json:"nucleic_sequences"`
	LigandSMILES     map[string]string `json:"ligand_smiles"`
}

// Manifest maps uppercase structure ids to their contents.
type Manifest map[string]Entry

// Save writes the manifest as indented JSON.
func (m Manifest) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadManifest reads a manifest written by Save.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "parse manifest %s", path)
	}
	return m, nil
}

// ManifestBuilder re-reads the raw archives for the structures confirmed in
// the store and extracts their sequences and ligand identities.
type ManifestBuilder struct {
	validKeys      map[string]struct{}
	smiles         map[string]string
	minChainLength int
}

// NewManifestBuilder limits the scan to validKeys, the ids actually present
// in the processed store. Chains at or below minChainLength residues are
// left out of the sequence pools.
func NewManifestBuilder(validKeys []string, smiles map[string]string, minChainLength int) *ManifestBuilder {
	keys := make(map[string]struct{}, len(validKeys))
	for _, k := range validKeys {
		keys[strings.ToUpper(k)] = struct{}{}
	}
	return &ManifestBuilder{
		validKeys:      keys,
		smiles:         smiles,
		minChainLength: minChainLength,
	}
}

// Build scans the archives and returns one entry per confirmed structure.
// Parse failures are counted and skipped. The scan short-circuits once every
// confirmed key has been seen.
func (b *ManifestBuilder) Build(r *archive.Reader) (Manifest, error) {
	manifest := make(Manifest, len(b.validKeys))
	remaining := make(map[string]struct{}, len(b.validKeys))
	for k := range b.validKeys {
		remaining[k] = struct{}{}
	}
	parseErrors := 0

	err := r.Walk(func(id string, data []byte) error {
		key := strings.ToUpper(id)
		if _, ok := remaining[key]; !ok {
			return nil
		}
		st, err := mmcif.ParseBytes(data, key)
		if err != nil {
			parseErrors++
			log.Warn("manifest scan failed to parse structure", zap.String("id", key), zap.Error(err))
			return nil
		}
		manifest[key] = b.entryFor(key, st)
		delete(remaining, key)
		if len(remaining) == 0 {
			return archive.ErrStopWalk
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(manifest) == 0 {
		return nil, errors.Wrap(merr.ErrManifestEmpty, "no confirmed structures found in archives")
	}
	log.Info("manifest built",
		zap.Int("structures", len(manifest)),
		zap.Int("missing", len(remaining)),
		zap.Int("parseErrors", parseErrors))
	return manifest, nil
}

func (b *ManifestBuilder) entryFor(key string, st *mmcif.Structure) Entry {
	entry := Entry{
		ProteinSequences: map[string]string{},
		NucleicSequences: map[string]string{},
		LigandSMILES:     map[string]string{},
	}
	for ci := range st.Chains {
		chain := &st.Chains[ci]
		protein, nucleic, residues := 0, 0, 0
		for ri := range chain.Residues {
			name := chain.Residues[ri].Name
			if vocab.IsWaterCode(name) {
				continue
			}
			residues++
			if vocab.IsProteinCode(name) {
				protein++
			}
			if vocab.IsNucleicCode(name) {
				nucleic++
			}
		}

		if protein == 0 && nucleic == 0 {
			for ri := range chain.Residues {
				res := &chain.Residues[ri]
				if vocab.IsWaterCode(res.Name) {
					continue
				}
				s, ok := b.smiles[res.Name]
				if !ok {
					continue
				}
				entry.LigandSMILES[key+"_"+chain.Name+"_"+res.Seq] = s
			}
			continue
		}

		if residues <= b.minChainLength {
			continue
		}
		chainKey := key + "_" + chain.Name
		if protein >= nucleic {
			entry.ProteinSequences[chainKey] = proteinSequence(chain)
		} else {
			entry.NucleicSequences[chainKey] = nucleicSequence(chain)
		}
	}
	return entry
}

func proteinSequence(chain *mmcif.Chain) string {
	var sb strings.Builder
	for ri := range chain.Residues {
		name := chain.Residues[ri].Name
		if vocab.IsWaterCode(name) {
			continue
		}
		if c, ok := vocab.AAThreeToOne[name]; ok {
			sb.WriteByte(c)
		} else {
			sb.WriteByte('X')
		}
	}
	return sb.String()
}

// nucleicSequence spells a chain with one letter per nucleotide, dropping
// the deoxy prefix so DA and A both read A.
func nucleicSequence(chain *mmcif.Chain) string {
	var sb strings.Builder
	for ri := range chain.Residues {
		name := chain.Residues[ri].Name
		switch {
		case vocab.IsWaterCode(name):
		case vocab.IsNucleicCode(name):
			sb.WriteByte(name[len(name)-1])
		default:
			sb.WriteByte('N')
		}
	}
	return sb.String()
}
