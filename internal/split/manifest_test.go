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

package split

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foldset-io/foldset/internal/archive"
	"github.com/foldset-io/foldset/internal/util/merr"
)

const complexCIF = `data_1XYZ
_entry.id 1XYZ
loop_
_atom_site.group_PDB
_atom_site.label_atom_id
_atom_site.label_comp_id
_atom_site.label_asym_id
_atom_site.label_seq_id
_atom_site.type_symbol
_atom_site.Cartn_x
_atom_site.Cartn_y
_atom_site.Cartn_z
ATOM   CA ALA A 1 C 1.0 2.0 3.0
ATOM   CA GLY A 2 C 2.0 2.0 3.0
ATOM   CA MET A 3 C 3.0 2.0 3.0
ATOM   P  DA  B 1 P 4.0 2.0 3.0
ATOM   P  DT  B 2 P 5.0 2.0 3.0
ATOM   P  G   B 3 P 6.0 2.0 3.0
HETATM FE HEM C 1 FE 9.0 9.0 9.0
HETATM O  HOH D 1 O 8.0 8.0 8.0
`

func buildBatch(t *testing.T, dir string, members map[string]string) *archive.Reader {
	t.Helper()
	path := filepath.Join(dir, "assemblies_batch_0.tar.gz")
	w, err := archive.NewWriter(path)
	require.NoError(t, err)
	for name, content := range members {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		_, err := gz.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, gz.Close())
		require.NoError(t, w.AddBytes(name, buf.Bytes()))
	}
	require.NoError(t, w.Close())
	return archive.NewReader([]string{path}, 0)
}

func TestManifestBuilder(t *testing.T) {
	reader := buildBatch(t, t.TempDir(), map[string]string{
		"1xyz-assembly1.cif.gz": complexCIF,
		"2skp-assembly1.cif.gz": complexCIF,
	})

	smiles := map[string]string{"HEM": "CC1=C(CCC(O)=O)C2=CC3=NC(=CC4=NC(=C1)N2[Fe])C=C34"}
	b := NewManifestBuilder([]string{"1xyz"}, smiles, 2)
	manifest, err := b.Build(reader)
	require.NoError(t, err)
	require.Len(t, manifest, 1)

	entry, ok := manifest["1XYZ"]
	require.True(t, ok)
	assert.Equal(t, map[string]string{"1XYZ_A": "AGM"}, entry.ProteinSequences)
	assert.Equal(t, map[string]string{"1XYZ_B": "ATG"}, entry.NucleicSequences)
	assert.Equal(t, map[string]string{"1XYZ_C_1": smiles["HEM"]}, entry.LigandSMILES)
}

func TestManifestBuilderShortChainsExcluded(t *testing.T) {
	reader := buildBatch(t, t.TempDir(), map[string]string{
		"1xyz-assembly1.cif.gz": complexCIF,
	})
	b := NewManifestBuilder([]string{"1XYZ"}, nil, 10)
	manifest, err := b.Build(reader)
	require.NoError(t, err)
	assert.Empty(t, manifest["1XYZ"].ProteinSequences)
	assert.Empty(t, manifest["1XYZ"].NucleicSequences)
}

func TestManifestBuilderNoneFound(t *testing.T) {
	reader := buildBatch(t, t.TempDir(), map[string]string{
		"1xyz-assembly1.cif.gz": complexCIF,
	})
	b := NewManifestBuilder([]string{"9zzz"}, nil, 2)
	_, err := b.Build(reader)
	assert.ErrorIs(t, err, merr.ErrManifestEmpty)
}

func TestManifestSaveLoad(t *testing.T) {
	manifest := Manifest{"1AAA": entryWithProtein("1AAA_A", "MKTAYI")}
	path := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, manifest.Save(path))

	loaded, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, manifest, loaded)
}
