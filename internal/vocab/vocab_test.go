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

package vocab

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRestypeIds(t *testing.T) {
	assert.Len(t, Restypes, 30)
	assert.Equal(t, int32(0), ResToIdx["ALA"])
	assert.Equal(t, int32(28), UnknownIdx)
	assert.Equal(t, int32(29), LigandIdx)
	// DNA comes before RNA in the nucleotide block.
	assert.Equal(t, int32(20), ResToIdx["DA"])
	assert.Equal(t, int32(24), ResToIdx["A"])
}

func TestAtomSlotsFitTokenWidth(t *testing.T) {
	for res, slots := range AtomSlots {
		assert.LessOrEqual(t, len(slots), MaxAtomCount, "residue %s overflows its token", res)
		for name, slot := range slots {
			assert.GreaterOrEqual(t, slot, 0, "%s/%s", res, name)
			assert.Less(t, slot, MaxAtomCount, "%s/%s", res, name)
		}
	}
}

func TestBackboneSlots(t *testing.T) {
	// Amino acids keep CA at slot 1, nucleotides keep P at slot 0.
	for _, res := range []string{"ALA", "GLY", "TRP", "UNK"} {
		assert.Equal(t, 1, AtomSlots[res]["CA"], res)
		assert.Equal(t, 0, AtomSlots[res]["N"], res)
	}
	for _, res := range []string{"A", "U", "DA", "DT"} {
		assert.Equal(t, 0, AtomSlots[res]["P"], res)
		assert.Equal(t, 1, AtomSlots[res]["OP1"], res)
	}
}

func TestRiboseOxygenOnlyInRNA(t *testing.T) {
	for _, res := range []string{"A", "C", "G", "U"} {
		_, ok := AtomSlots[res]["O2'"]
		assert.True(t, ok, "%s should carry O2'", res)
	}
	for _, res := range []string{"DA", "DC", "DG", "DT"} {
		_, ok := AtomSlots[res]["O2'"]
		assert.False(t, ok, "%s should not carry O2'", res)
	}
}

func TestNormalizeAtomName(t *testing.T) {
	assert.Equal(t, "O5'", NormalizeAtomName("O5*"))
	assert.Equal(t, "OP1", NormalizeAtomName("O1P"))
	assert.Equal(t, "OP2", NormalizeAtomName("O2P"))
	assert.Equal(t, "CA", NormalizeAtomName("CA"))
}

func TestElementID(t *testing.T) {
	assert.Equal(t, int32(1), ElementID("H"))
	assert.Equal(t, int32(1), ElementID("D"), "deuterium folds into hydrogen")
	assert.Equal(t, int32(6), ElementID("C"))
	assert.Equal(t, int32(26), ElementID("fe"))
	assert.Equal(t, int32(30), ElementID(" Zn "))
	assert.Equal(t, int32(0), ElementID("??"))
}

func TestIsHydrogen(t *testing.T) {
	assert.True(t, IsHydrogen("H"))
	assert.True(t, IsHydrogen("D"))
	assert.False(t, IsHydrogen("HE"))
	assert.False(t, IsHydrogen("C"))
}

func TestResidueClassPredicates(t *testing.T) {
	assert.True(t, IsProteinCode("ALA"))
	assert.True(t, IsProteinCode("MSE"))
	assert.False(t, IsProteinCode("HEM"))
	assert.True(t, IsNucleicCode("DA"))
	assert.True(t, IsNucleicCode("U"))
	assert.False(t, IsNucleicCode("ALA"))
}
