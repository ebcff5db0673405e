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
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/TuftsBCB/io/fasta"
	"github.com/TuftsBCB/seq"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/foldset-io/foldset/internal/log"
	"github.com/foldset-io/foldset/internal/util/merr"
)

// ClusterRunner groups sequences into similarity clusters. The returned map
// goes from cluster representative to the member ids, representatives
// included.
type ClusterRunner interface {
	Cluster(ctx context.Context, sequences map[string]string) (map[string][]string, error)
}

// MMseqsConfig carries the clustering parameters, forwarded verbatim to the
// external tool.
type MMseqsConfig struct {
	Binary      string
	MinSeqID    float64
	Coverage    float64
	CovMode     int
	ClusterMode int
	Threads     int
}

// MMseqs shells out to the mmseqs binary. The exchange protocol is a FASTA
// file in and a representative<TAB>member TSV out, via a temporary workdir.
type MMseqs struct {
	cfg MMseqsConfig
}

func NewMMseqs(cfg MMseqsConfig) *MMseqs {
	if cfg.Binary == "" {
		cfg.Binary = "mmseqs"
	}
	if cfg.Threads <= 0 {
		cfg.Threads = 8
	}
	return &MMseqs{cfg: cfg}
}

func (m *MMseqs) Cluster(ctx context.Context, sequences map[string]string) (map[string][]string, error) {
	workDir, err := os.MkdirTemp("", "foldset-cluster-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(workDir)

	fastaPath := filepath.Join(workDir, "sequences.fasta")
	if err := writeFasta(fastaPath, sequences); err != nil {
		return nil, err
	}
	log.Info("clustering sequences", zap.Int("count", len(sequences)))

	dbPath := filepath.Join(workDir, "DB")
	cluPath := filepath.Join(workDir, "clu")
	tmpPath := filepath.Join(workDir, "tmp")
	tsvPath := filepath.Join(workDir, "clusters.tsv")

	commands := [][]string{
		{m.cfg.Binary, "createdb", fastaPath, dbPath, "-v", "0"},
		{m.cfg.Binary, "cluster", dbPath, cluPath, tmpPath,
			"--min-seq-id", strconv.FormatFloat(m.cfg.MinSeqID, 'f', -1, 64),
			"-c", strconv.FormatFloat(m.cfg.Coverage, 'f', -1, 64),
			"--cov-mode", strconv.Itoa(m.cfg.CovMode),
			"--cluster-mode", strconv.Itoa(m.cfg.ClusterMode),
			"--threads", strconv.Itoa(m.cfg.Threads),
			"-v", "0"},
		{m.cfg.Binary, "createtsv", dbPath, dbPath, cluPath, tsvPath, "-v", "0"},
	}
	for _, argv := range commands {
		cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
		if out, err := cmd.CombinedOutput(); err != nil {
			return nil, errors.Wrapf(merr.ErrClusterToolFailed,
				"%s: %v: %s", strings.Join(argv, " "), err, strings.TrimSpace(string(out)))
		}
	}

	return readClusterTSV(tsvPath)
}

// writeFasta emits entries in sorted id order, so the tool sees a
// reproducible input for a given pool.
func writeFasta(path string, sequences map[string]string) error {
	ids := make([]string, 0, len(sequences))
	for id := range sequences {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := fasta.NewWriter(f)
	for _, id := range ids {
		if err := w.Write(seq.NewSequenceString(id, sequences[id])); err != nil {
			return errors.Wrapf(err, "write fasta entry %s", id)
		}
	}
	return w.Flush()
}

func readClusterTSV(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(merr.ErrClusterToolFailed, "read cluster output: %v", err)
	}
	clusters := make(map[string][]string)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		rep, member, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, errors.Wrapf(merr.ErrClusterToolFailed, "malformed cluster line %q", line)
		}
		clusters[rep] = append(clusters[rep], member)
	}
	return clusters, nil
}

// identityClusters groups ligand identity strings by exact match. Identities
// are already canonical, so string equality is the clustering rule.
func identityClusters(identities map[string]string) map[string][]string {
	clusters := make(map[string][]string)
	for member, identity := range identities {
		clusters[identity] = append(clusters[identity], member)
	}
	return clusters
}
