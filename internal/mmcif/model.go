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

// Package mmcif parses macromolecular structure files into a small
// chain/residue/atom model. Only the first model of multi-model files is
// kept.
package mmcif

// PolymerClass is the declared polymer type of an entity.
type PolymerClass int

const (
	// PolymerNone marks non-polymer entities (ligands, ions, solvent).
	PolymerNone PolymerClass = iota
	// PolymerPeptide marks polypeptide entities.
	PolymerPeptide
	// PolymerNucleic marks RNA, DNA and hybrid nucleic entities.
	PolymerNucleic
	// PolymerOther marks declared polymers of any other kind.
	PolymerOther
)

// Atom is one atom record with its orthogonal coordinates in Angstroms.
type Atom struct {
	Name    string
	Element string
	X, Y, Z float64
}

// Residue is one residue or one ligand molecule instance.
type Residue struct {
	Name  string
	Seq   string
	Atoms []Atom
}

// Chain groups the residues sharing one label_asym_id, in file order.
type Chain struct {
	Name     string
	EntityID string
	Residues []Residue
}

// Structure is one parsed assembly.
type Structure struct {
	ID     string
	Chains []Chain
	// EntityPolymers maps entity id to its declared polymer class. Empty
	// when the file carries no entity_poly category.
	EntityPolymers map[string]PolymerClass
}

// classifyPolymerType maps an _entity_poly.type value to a PolymerClass.
func classifyPolymerType(t string) PolymerClass {
	switch t {
	case "polypeptide(L)", "polypeptide(D)":
		return PolymerPeptide
	case "polyribonucleotide", "polydeoxyribonucleotide",
		"polydeoxyribonucleotide/polyribonucleotide hybrid":
		return PolymerNucleic
	default:
		return PolymerOther
	}
}
