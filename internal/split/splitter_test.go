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
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foldset-io/foldset/internal/util/merr"
)

// stubRunner clusters by exact sequence equality, with the lexicographically
// first member as representative. Deterministic stand-in for the external
// tool.
type stubRunner struct{}

func (stubRunner) Cluster(_ context.Context, sequences map[string]string) (map[string][]string, error) {
	bySeq := map[string][]string{}
	for id, seq := range sequences {
		bySeq[seq] = append(bySeq[seq], id)
	}
	clusters := map[string][]string{}
	for _, members := range bySeq {
		sort.Strings(members)
		clusters[members[0]] = members
	}
	return clusters, nil
}

func entryWithProtein(chain, seq string) Entry {
	return Entry{
		ProteinSequences: map[string]string{chain: seq},
		NucleicSequences: map[string]string{},
		LigandSMILES:     map[string]string{},
	}
}

func splitOf(r *Result, key string) string {
	for name, keys := range map[string][]string{"train": r.Train, "val": r.Val, "test": r.Test} {
		for _, k := range keys {
			if k == key {
				return name
			}
		}
	}
	return ""
}

func TestSplitClusteredPairStaysTogether(t *testing.T) {
	// 1AAA and 1BBB share an identical sequence, so they share a cluster.
	manifest := Manifest{
		"1AAA": entryWithProtein("1AAA_A", "MKTAYIAKQRQISFVKSHFSRQLEERLGLIEVQ"),
		"1BBB": entryWithProtein("1BBB_A", "MKTAYIAKQRQISFVKSHFSRQLEERLGLIEVQ"),
		"1CCC": entryWithProtein("1CCC_A", "GSHMSLFDFFKNKGSAAATA"),
	}

	s := NewSplitter(stubRunner{}, Ratios{Train: 0.6, Val: 0.2, Test: 0.2}, 42)
	result, err := s.Create(context.Background(), manifest)
	require.NoError(t, err)

	pairSplit := splitOf(result, "1AAA")
	require.NotEmpty(t, pairSplit)
	assert.Equal(t, pairSplit, splitOf(result, "1BBB"))
}

func TestSplitCompleteness(t *testing.T) {
	manifest := Manifest{
		"1AAA": entryWithProtein("1AAA_A", "AAAAAAAAAAAA"),
		"1BBB": entryWithProtein("1BBB_A", "CCCCCCCCCCCC"),
		"1CCC": entryWithProtein("1CCC_A", "DDDDDDDDDDDD"),
		"1DDD": entryWithProtein("1DDD_A", "EEEEEEEEEEEE"),
		"1EEE": entryWithProtein("1EEE_A", "FFFFFFFFFFFF"),
	}

	s := NewSplitter(stubRunner{}, Ratios{Train: 0.6, Val: 0.2, Test: 0.2}, 7)
	result, err := s.Create(context.Background(), manifest)
	require.NoError(t, err)

	total := len(result.Train) + len(result.Val) + len(result.Test)
	assert.Equal(t, len(manifest), total)
	for key := range manifest {
		assert.NotEmpty(t, splitOf(result, key), key)
	}
}

func TestSplitLigandScaffoldNoLeakage(t *testing.T) {
	// 1AAA and 1BBB have unrelated sequences but the identical ligand, so
	// the shared ligand cluster must keep them in the same split.
	a := entryWithProtein("1AAA_A", "AAAAAAAAAAAA")
	a.LigandSMILES["1AAA_B_1"] = "c1ccccc1"
	b := entryWithProtein("1BBB_A", "CCCCCCCCCCCC")
	b.LigandSMILES["1BBB_B_1"] = "c1ccccc1"
	manifest := Manifest{"1AAA": a, "1BBB": b, "1CCC": entryWithProtein("1CCC_A", "DDDDDDDDDDDD")}

	s := NewSplitter(stubRunner{}, Ratios{Train: 0.4, Val: 0.3, Test: 0.3}, 3)
	result, err := s.Create(context.Background(), manifest)
	require.NoError(t, err)
	assert.Equal(t, splitOf(result, "1AAA"), splitOf(result, "1BBB"))
}

func TestSplitDeterminism(t *testing.T) {
	manifest := Manifest{
		"1AAA": entryWithProtein("1AAA_A", "AAAAAAAAAAAA"),
		"1BBB": entryWithProtein("1BBB_A", "CCCCCCCCCCCC"),
		"1CCC": entryWithProtein("1CCC_A", "DDDDDDDDDDDD"),
	}
	s := NewSplitter(stubRunner{}, Ratios{Train: 0.6, Val: 0.2, Test: 0.2}, 42)

	first, err := s.Create(context.Background(), manifest)
	require.NoError(t, err)
	second, err := s.Create(context.Background(), manifest)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	dirA, dirB := t.TempDir(), t.TempDir()
	require.NoError(t, first.WriteKeyFiles(dirA))
	require.NoError(t, second.WriteKeyFiles(dirB))
	for _, name := range []string{"train_keys.txt", "val_keys.txt", "test_keys.txt"} {
		a, err := os.ReadFile(filepath.Join(dirA, name))
		require.NoError(t, err)
		b, err := os.ReadFile(filepath.Join(dirB, name))
		require.NoError(t, err)
		assert.Equal(t, a, b, name)
	}
}

func TestSplitAllTestRatio(t *testing.T) {
	manifest := Manifest{
		"1AAA": entryWithProtein("1AAA_A", "AAAAAAAAAAAA"),
		"1BBB": entryWithProtein("1BBB_A", "CCCCCCCCCCCC"),
	}
	s := NewSplitter(stubRunner{}, Ratios{Train: 0, Val: 0, Test: 1}, 1)
	result, err := s.Create(context.Background(), manifest)
	require.NoError(t, err)
	assert.Empty(t, result.Train)
	assert.Empty(t, result.Val)
	assert.Equal(t, []string{"1AAA", "1BBB"}, result.Test)
}

func TestSplitEmptyManifest(t *testing.T) {
	s := NewSplitter(stubRunner{}, Ratios{Train: 0.9, Val: 0.05, Test: 0.05}, 1)
	_, err := s.Create(context.Background(), Manifest{})
	assert.ErrorIs(t, err, merr.ErrManifestEmpty)
}

func TestSplitNoProteinSequences(t *testing.T) {
	manifest := Manifest{"1AAA": {
		ProteinSequences: map[string]string{},
		NucleicSequences: map[string]string{"1AAA_A": "ACGU"},
		LigandSMILES:     map[string]string{},
	}}
	s := NewSplitter(stubRunner{}, Ratios{Train: 0.9, Val: 0.05, Test: 0.05}, 1)
	_, err := s.Create(context.Background(), manifest)
	assert.ErrorIs(t, err, merr.ErrManifestEmpty)
}

func TestSplitBadRatios(t *testing.T) {
	s := NewSplitter(stubRunner{}, Ratios{Train: 0.9, Val: 0.3, Test: 0.05}, 1)
	_, err := s.Create(context.Background(), Manifest{"1AAA": entryWithProtein("1AAA_A", "AAAA")})
	assert.ErrorIs(t, err, merr.ErrSplitRatios)
}

func TestWriteKeyFiles(t *testing.T) {
	r := &Result{Train: []string{"1AAA", "1BBB"}, Val: []string{"1CCC"}, Test: nil}
	dir := t.TempDir()
	require.NoError(t, r.WriteKeyFiles(dir))

	train, err := os.ReadFile(filepath.Join(dir, "train_keys.txt"))
	require.NoError(t, err)
	assert.Equal(t, "1AAA\n1BBB\n", string(train))

	test, err := os.ReadFile(filepath.Join(dir, "test_keys.txt"))
	require.NoError(t, err)
	assert.Empty(t, test)
}

func TestMMseqsMissingBinary(t *testing.T) {
	m := NewMMseqs(MMseqsConfig{Binary: "definitely-not-a-real-binary-7f3a"})
	_, err := m.Cluster(context.Background(), map[string]string{"A": "MKT"})
	assert.ErrorIs(t, err, merr.ErrClusterToolFailed)
}
