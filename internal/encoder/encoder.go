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

// Package encoder turns parsed structures into fixed-width token streams.
//
// Each token is either one polymer residue, with its atoms placed into the
// per-residue slot layout from the vocab package, or one ligand heavy atom
// occupying slot 0. Ligand residues are expanded against the chemical
// component reference, so every reference atom yields a token whether or not
// it was resolved in the experiment.
package encoder

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/foldset-io/foldset/internal/ccd"
	"github.com/foldset-io/foldset/internal/log"
	"github.com/foldset-io/foldset/internal/metrics"
	"github.com/foldset-io/foldset/internal/mmcif"
	"github.com/foldset-io/foldset/internal/tokens"
	"github.com/foldset-io/foldset/internal/util/merr"
	"github.com/foldset-io/foldset/internal/vocab"
)

// polymerVoteThreshold is the residue-name majority needed to call a chain
// protein or nucleic when the file carries no usable entity metadata.
const polymerVoteThreshold = 0.8

type chainClass int

const (
	classProtein chainClass = iota
	classNucleic
	classLigand
)

// Encoder maps structures onto token streams using a chemical component
// reference for ligand expansion. It is safe for concurrent use.
type Encoder struct {
	ref *ccd.Reference
}

func New(ref *ccd.Reference) *Encoder {
	return &Encoder{ref: ref}
}

// Encode walks the chains of st in file order and emits one stream of
// residue and ligand-atom tokens. Water residues and hydrogens are dropped.
// A structure that yields no tokens at all is an error.
func (e *Encoder) Encode(st *mmcif.Structure) (*tokens.Stream, error) {
	stream := tokens.NewStream(st.ID, 64)
	var chainID int32
	for ci := range st.Chains {
		chain := &st.Chains[ci]
		if len(chain.Residues) == 0 {
			continue
		}
		switch e.classify(st, chain) {
		case classProtein, classNucleic:
			for ri := range chain.Residues {
				e.appendPolymer(stream, &chain.Residues[ri], chainID)
			}
		default:
			for ri := range chain.Residues {
				e.appendLigand(stream, st.ID, &chain.Residues[ri], chainID)
			}
		}
		chainID++
	}
	if stream.Len() == 0 {
		return nil, errors.Wrap(merr.ErrStructureEmpty, st.ID)
	}
	return stream, nil
}

// classify prefers the entity polymer metadata when the file declares any.
// Chains whose entity is not declared as a polymer are ligands. Without
// metadata, for chains carrying no entity id at all, or for polymer types
// the vocabulary does not cover, it falls back to a majority vote over the
// chain's residue names.
func (e *Encoder) classify(st *mmcif.Structure, chain *mmcif.Chain) chainClass {
	if len(st.EntityPolymers) > 0 && chain.EntityID != "" {
		cls, ok := st.EntityPolymers[chain.EntityID]
		if !ok {
			return classLigand
		}
		switch cls {
		case mmcif.PolymerPeptide:
			return classProtein
		case mmcif.PolymerNucleic:
			return classNucleic
		}
		// Declared polymer of a type we do not model. Vote on the names.
	}
	// Waters never become tokens, so they do not dilute the vote either.
	var protein, nucleic, voters int
	for ri := range chain.Residues {
		name := chain.Residues[ri].Name
		if vocab.IsWaterCode(name) {
			continue
		}
		voters++
		if vocab.IsProteinCode(name) {
			protein++
		}
		if vocab.IsNucleicCode(name) {
			nucleic++
		}
	}
	if voters == 0 {
		return classLigand
	}
	total := float64(voters)
	switch {
	case float64(protein)/total >= polymerVoteThreshold:
		return classProtein
	case float64(nucleic)/total >= polymerVoteThreshold:
		return classNucleic
	default:
		return classLigand
	}
}

// appendPolymer emits a single residue token. Atoms whose normalized name is
// not in the residue's slot layout are dropped; duplicate names keep the last
// occurrence in file order.
func (e *Encoder) appendPolymer(stream *tokens.Stream, res *mmcif.Residue, chainID int32) {
	if vocab.IsWaterCode(res.Name) {
		return
	}
	resType, ok := vocab.ResToIdx[res.Name]
	if !ok {
		resType = vocab.UnknownIdx
	}
	slots, ok := vocab.AtomSlots[res.Name]
	if !ok {
		slots = vocab.AtomSlots[vocab.UnknownRestype]
	}

	var tok tokens.Token
	tok.ResType = resType
	tok.ChainID = chainID
	for ai := range res.Atoms {
		atom := &res.Atoms[ai]
		if vocab.IsHydrogen(atom.Element) {
			continue
		}
		slot, ok := slots[vocab.NormalizeAtomName(atom.Name)]
		if !ok {
			continue
		}
		tok.Coords[slot] = [3]float32{float32(atom.X), float32(atom.Y), float32(atom.Z)}
		tok.Mask[slot] = 1
		tok.Elements[slot] = vocab.ElementID(atom.Element)
	}
	stream.Append(tok)
}

// appendLigand expands one ligand residue into per-atom tokens, one per heavy
// atom of the component reference. Reference atoms missing from the model get
// a zero mask but keep their element, so the chemistry of the full component
// survives partial resolution.
func (e *Encoder) appendLigand(stream *tokens.Stream, structID string, res *mmcif.Residue, chainID int32) {
	if vocab.IsWaterCode(res.Name) {
		return
	}
	refAtoms, ok := e.ref.Atoms(res.Name)
	if !ok {
		metrics.LigandsMissingReference.Inc()
		log.Debug("dropping ligand residue",
			zap.String("structure", structID), zap.String("component", res.Name),
			zap.Error(errors.Wrap(merr.ErrLigandNoRef, res.Name)))
		return
	}
	observed := make(map[string]*mmcif.Atom, len(res.Atoms))
	for ai := range res.Atoms {
		atom := &res.Atoms[ai]
		if vocab.IsHydrogen(atom.Element) {
			continue
		}
		observed[atom.Name] = atom
	}
	for _, ra := range refAtoms {
		var tok tokens.Token
		tok.ResType = vocab.LigandIdx
		tok.ChainID = chainID
		tok.Elements[0] = vocab.ElementID(ra.Element)
		if atom, ok := observed[ra.Name]; ok {
			tok.Coords[0] = [3]float32{float32(atom.X), float32(atom.Y), float32(atom.Z)}
			tok.Mask[0] = 1
		}
		stream.Append(tok)
	}
}
