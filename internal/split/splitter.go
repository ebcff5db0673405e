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
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/foldset-io/foldset/internal/log"
	"github.com/foldset-io/foldset/internal/util/merr"
)

// Ratios are the target split fractions over the cluster count. They must
// sum to 1.
type Ratios struct {
	Train float64
	Val   float64
	Test  float64
}

func (r Ratios) validate() error {
	sum := r.Train + r.Val + r.Test
	if r.Train < 0 || r.Val < 0 || r.Test < 0 || math.Abs(sum-1.0) > 1e-6 {
		return errors.Wrapf(merr.ErrSplitRatios, "train=%v val=%v test=%v", r.Train, r.Val, r.Test)
	}
	return nil
}

type segment int

const (
	segTrain segment = iota
	segVal
	segTest
)

// Splitter assigns every manifest structure to exactly one split such that
// no similarity cluster is divided between splits.
type Splitter struct {
	runner ClusterRunner
	ratios Ratios
	seed   int64
}

func NewSplitter(runner ClusterRunner, ratios Ratios, seed int64) *Splitter {
	return &Splitter{runner: runner, ratios: ratios, seed: seed}
}

// Result holds the final split membership, each list uppercase, deduplicated
// and sorted.
type Result struct {
	Train []string
	Val   []string
	Test  []string
}

// Create clusters the manifest's three pools, shuffles the combined cluster
// id set with the configured seed, slices it by the ratios, and assigns each
// structure by precedence: any test cluster wins over any val cluster, which
// wins over train. Structures touching no cluster at all default to train.
func (s *Splitter) Create(ctx context.Context, manifest Manifest) (*Result, error) {
	if err := s.ratios.validate(); err != nil {
		return nil, err
	}
	if len(manifest) == 0 {
		return nil, errors.Wrap(merr.ErrManifestEmpty, "nothing to split")
	}

	proteinPool := make(map[string]string)
	nucleicPool := make(map[string]string)
	ligandPool := make(map[string]string)
	for _, entry := range manifest {
		for k, v := range entry.ProteinSequences {
			proteinPool[k] = v
		}
		for k, v := range entry.NucleicSequences {
			nucleicPool[k] = v
		}
		for k, v := range entry.LigandSMILES {
			ligandPool[k] = v
		}
	}
	if len(proteinPool) == 0 {
		return nil, errors.Wrap(merr.ErrManifestEmpty, "no protein sequences in manifest")
	}

	// memberCluster maps a pool member key to its namespaced cluster id.
	memberCluster := make(map[string]string)
	addClusters := func(prefix string, clusters map[string][]string) {
		for rep, members := range clusters {
			id := prefix + ":" + rep
			for _, m := range members {
				memberCluster[m] = id
			}
		}
	}

	proteinClusters, err := s.runner.Cluster(ctx, proteinPool)
	if err != nil {
		return nil, errors.Wrap(err, "cluster protein sequences")
	}
	addClusters("protein", proteinClusters)

	if len(nucleicPool) > 0 {
		nucleicClusters, err := s.runner.Cluster(ctx, nucleicPool)
		if err != nil {
			return nil, errors.Wrap(err, "cluster nucleic sequences")
		}
		addClusters("nucleic", nucleicClusters)
	}
	addClusters("ligand", identityClusters(ligandPool))

	// Per structure, the set of cluster ids it touches.
	structClusters := make(map[string][]string, len(manifest))
	for key, entry := range manifest {
		var ids []string
		for member := range entry.ProteinSequences {
			if id, ok := memberCluster[member]; ok {
				ids = append(ids, id)
			}
		}
		for member := range entry.NucleicSequences {
			if id, ok := memberCluster[member]; ok {
				ids = append(ids, id)
			}
		}
		for member := range entry.LigandSMILES {
			if id, ok := memberCluster[member]; ok {
				ids = append(ids, id)
			}
		}
		structClusters[strings.ToUpper(key)] = lo.Uniq(ids)
	}

	clusterSegments := s.sliceClusters(memberCluster)
	log.Info("assigning structures to splits",
		zap.Int("structures", len(structClusters)), zap.Int("clusters", len(clusterSegments)))

	var result Result
	for key, ids := range structClusters {
		seg := segTrain
		for _, id := range ids {
			switch clusterSegments[id] {
			case segTest:
				seg = segTest
			case segVal:
				if seg != segTest {
					seg = segVal
				}
			}
		}
		switch seg {
		case segTest:
			result.Test = append(result.Test, key)
		case segVal:
			result.Val = append(result.Val, key)
		default:
			result.Train = append(result.Train, key)
		}
	}

	result.Train = sortedUnique(result.Train)
	result.Val = sortedUnique(result.Val)
	result.Test = sortedUnique(result.Test)
	log.Info("splits assigned",
		zap.Int("train", len(result.Train)),
		zap.Int("val", len(result.Val)),
		zap.Int("test", len(result.Test)))
	return &result, nil
}

// sliceClusters shuffles the distinct cluster ids with the configured seed
// and slices the shuffled order by the ratios over the cluster count.
func (s *Splitter) sliceClusters(memberCluster map[string]string) map[string]segment {
	ids := lo.Uniq(lo.Values(memberCluster))
	sort.Strings(ids)
	rng := rand.New(rand.NewSource(s.seed))
	rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

	n := len(ids)
	trainEnd := int(s.ratios.Train * float64(n))
	valEnd := trainEnd + int(s.ratios.Val*float64(n))

	segments := make(map[string]segment, n)
	for i, id := range ids {
		switch {
		case i < trainEnd:
			segments[id] = segTrain
		case i < valEnd:
			segments[id] = segVal
		default:
			segments[id] = segTest
		}
	}
	return segments
}

// WriteKeyFiles persists the three split lists under dir as train_keys.txt,
// val_keys.txt and test_keys.txt, one uppercase id per line.
func (r *Result) WriteKeyFiles(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, part := range []struct {
		name string
		keys []string
	}{
		{"train_keys.txt", r.Train},
		{"val_keys.txt", r.Val},
		{"test_keys.txt", r.Test},
	} {
		path := filepath.Join(dir, part.name)
		content := strings.Join(part.keys, "\n")
		if content != "" {
			content += "\n"
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return errors.Wrapf(err, "write %s", path)
		}
	}
	return nil
}

func sortedUnique(keys []string) []string {
	out := lo.Uniq(keys)
	sort.Strings(out)
	return out
}
