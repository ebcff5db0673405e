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

// Package vocab holds the static token vocabulary: residue type ids, the
// per-residue canonical atom slot maps, and the periodic table. Everything
// here is immutable after package init and safe to share across workers.
package vocab

import "strings"

// MaxAtomCount is the number of atom slots carried by every token.
const MaxAtomCount = 27

// UnknownRestype is the slot-map key used for non-standard polymer residues.
const UnknownRestype = "UNK"

// Restypes enumerates the token classes in id order: the 20 standard amino
// acids, the 8 standard nucleotides (DNA then RNA), the unknown residue and
// the generic ligand class.
var Restypes = []string{
	"ALA", "ARG", "ASN", "ASP", "CYS", "GLN", "GLU", "GLY", "HIS", "ILE",
	"LEU", "LYS", "MET", "PHE", "PRO", "SER", "THR", "TRP", "TYR", "VAL",
	"DA", "DC", "DG", "DT", "A", "C", "G", "U",
	"UNK",
	"LIGAND",
}

// ResToIdx maps a residue code to its token class id.
var ResToIdx = func() map[string]int32 {
	m := make(map[string]int32, len(Restypes))
	for i, res := range Restypes {
		m[res] = int32(i)
	}
	return m
}()

var (
	// UnknownIdx is the token class id of non-standard polymer residues.
	UnknownIdx = ResToIdx["UNK"]
	// LigandIdx is the token class id shared by all ligand atom tokens.
	LigandIdx = ResToIdx["LIGAND"]
)

// AAThreeToOne maps three letter amino acid codes to one letter codes.
// Selenomethionine folds into methionine.
var AAThreeToOne = map[string]byte{
	"ALA": 'A', "ARG": 'R', "ASN": 'N', "ASP": 'D', "CYS": 'C',
	"GLN": 'Q', "GLU": 'E', "GLY": 'G', "HIS": 'H', "ILE": 'I',
	"LEU": 'L', "LYS": 'K', "MET": 'M', "PHE": 'F', "PRO": 'P',
	"SER": 'S', "THR": 'T', "TRP": 'W', "TYR": 'Y', "VAL": 'V',
	"MSE": 'M', "UNK": 'X',
}

// NucleicCodes is the set of standard nucleotide residue codes. One letter
// codes are RNA, the D-prefixed two letter codes are DNA.
var NucleicCodes = map[string]bool{
	"DA": true, "DC": true, "DG": true, "DT": true,
	"A": true, "C": true, "G": true, "U": true,
}

// WaterCodes is the set of solvent residue codes dropped during encoding.
var WaterCodes = map[string]bool{
	"HOH": true, "DOD": true, "WAT": true,
}

var proteinBackbone = []string{"N", "CA", "C", "O"}

var dnaBackbone = []string{
	"P", "OP1", "OP2", "O5'", "C5'", "C4'", "O4'", "C3'", "O3'", "C2'", "C1'",
}

// rnaBackbone adds the ribose O2' the deoxyribose lacks.
var rnaBackbone = append(append([]string{}, dnaBackbone...), "O2'")

var slotOrder = map[string][]string{
	"ALA": append(append([]string{}, proteinBackbone...), "CB"),
	"ARG": append(append([]string{}, proteinBackbone...), "CB", "CG", "CD", "NE", "CZ", "NH1", "NH2"),
	"ASN": append(append([]string{}, proteinBackbone...), "CB", "CG", "OD1", "ND2"),
	"ASP": append(append([]string{}, proteinBackbone...), "CB", "CG", "OD1", "OD2"),
	"CYS": append(append([]string{}, proteinBackbone...), "CB", "SG"),
	"GLN": append(append([]string{}, proteinBackbone...), "CB", "CG", "CD", "OE1", "NE2"),
	"GLU": append(append([]string{}, proteinBackbone...), "CB", "CG", "CD", "OE1", "OE2"),
	"GLY": append([]string{}, proteinBackbone...),
	"HIS": append(append([]string{}, proteinBackbone...), "CB", "CG", "ND1", "CD2", "CE1", "NE2"),
	"ILE": append(append([]string{}, proteinBackbone...), "CB", "CG1", "CG2", "CD1"),
	"LEU": append(append([]string{}, proteinBackbone...), "CB", "CG", "CD1", "CD2"),
	"LYS": append(append([]string{}, proteinBackbone...), "CB", "CG", "CD", "CE", "NZ"),
	"MET": append(append([]string{}, proteinBackbone...), "CB", "CG", "SD", "CE"),
	"PHE": append(append([]string{}, proteinBackbone...), "CB", "CG", "CD1", "CD2", "CE1", "CE2", "CZ"),
	"PRO": append(append([]string{}, proteinBackbone...), "CB", "CG", "CD"),
	"SER": append(append([]string{}, proteinBackbone...), "CB", "OG"),
	"THR": append(append([]string{}, proteinBackbone...), "CB", "OG1", "CG2"),
	"TRP": append(append([]string{}, proteinBackbone...), "CB", "CG", "CD1", "CD2", "NE1", "CE2", "CE3", "CZ2", "CZ3", "CH2"),
	"TYR": append(append([]string{}, proteinBackbone...), "CB", "CG", "CD1", "CD2", "CE1", "CE2", "CZ", "OH"),
	"VAL": append(append([]string{}, proteinBackbone...), "CB", "CG1", "CG2"),
	"UNK": append(append([]string{}, proteinBackbone...), "CB"),

	"A":  append(append([]string{}, rnaBackbone...), "N9", "C8", "N7", "C5", "C6", "N6", "N1", "C2", "N3", "C4"),
	"G":  append(append([]string{}, rnaBackbone...), "N9", "C8", "N7", "C5", "C6", "O6", "N1", "C2", "N2", "N3", "C4"),
	"C":  append(append([]string{}, rnaBackbone...), "N1", "C2", "O2", "N3", "C4", "N4", "C5", "C6"),
	"U":  append(append([]string{}, rnaBackbone...), "N1", "C2", "O2", "N3", "C4", "O4", "C5", "C6"),
	"DA": append(append([]string{}, dnaBackbone...), "N9", "C8", "N7", "C5", "C6", "N6", "N1", "C2", "N3", "C4"),
	"DG": append(append([]string{}, dnaBackbone...), "N9", "C8", "N7", "C5", "C6", "O6", "N1", "C2", "N2", "N3", "C4"),
	"DC": append(append([]string{}, dnaBackbone...), "N1", "C2", "O2", "N3", "C4", "N4", "C5", "C6"),
	"DT": append(append([]string{}, dnaBackbone...), "N1", "C2", "O2", "N3", "C4", "O4", "C5", "C7", "C6"),
}

// AtomSlots maps a residue code to its canonical atom name to slot index
// assignment. Slot assignment is fixed per residue type; it never varies
// per structure.
var AtomSlots = func() map[string]map[string]int {
	m := make(map[string]map[string]int, len(slotOrder))
	for res, names := range slotOrder {
		slots := make(map[string]int, len(names))
		for i, name := range names {
			slots[name] = i
		}
		m[res] = slots
	}
	return m
}()

// NormalizeAtomName rewrites legacy atom naming variants to their canonical
// forms before slot lookup: star ribose markers to primes and the old
// phosphate oxygen names to OP1/OP2.
func NormalizeAtomName(name string) string {
	name = strings.ReplaceAll(name, "*", "'")
	switch name {
	case "O1P":
		return "OP1"
	case "O2P":
		return "OP2"
	}
	return name
}

// IsProteinCode reports whether code belongs to the amino acid vocabulary.
func IsProteinCode(code string) bool {
	_, ok := AAThreeToOne[code]
	return ok
}

// IsNucleicCode reports whether code belongs to the nucleotide vocabulary.
func IsNucleicCode(code string) bool {
	return NucleicCodes[code]
}

// IsWaterCode reports whether code names a solvent residue.
func IsWaterCode(code string) bool {
	return WaterCodes[code]
}
