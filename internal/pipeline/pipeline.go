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

// Package pipeline drives the batch stages: downloading assembly batches
// into tar.gz archives, building the component reference, and encoding every
// archived structure into the store.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/remeh/sizedwaitgroup"
	"github.com/samber/lo"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/foldset-io/foldset/internal/archive"
	"github.com/foldset-io/foldset/internal/ccd"
	"github.com/foldset-io/foldset/internal/downloader"
	"github.com/foldset-io/foldset/internal/encoder"
	"github.com/foldset-io/foldset/internal/kv"
	"github.com/foldset-io/foldset/internal/log"
	"github.com/foldset-io/foldset/internal/metrics"
	"github.com/foldset-io/foldset/internal/mmcif"
	"github.com/foldset-io/foldset/internal/storage"
)

// batchArchiveName names the nth assembly batch archive.
func batchArchiveName(n int) string {
	return fmt.Sprintf("assemblies_batch_%d.tar.gz", n)
}

// BatchArchives lists the batch archives under dir in batch order.
func BatchArchives(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "assemblies_batch_*.tar.gz"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// DownloadBatches splits ids into batches, downloads each batch's assembly
// files and folds them into one tar.gz archive per batch, removing the loose
// files afterwards. A batch whose archive already exists is skipped, so an
// interrupted run resumes at batch granularity.
func DownloadBatches(ctx context.Context, d *downloader.Downloader, ids []string, dir string, batchSize int) error {
	if batchSize <= 0 {
		batchSize = len(ids)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	batches := lo.Chunk(ids, batchSize)
	for i, batch := range batches {
		archivePath := filepath.Join(dir, batchArchiveName(i))
		if _, err := os.Stat(archivePath); err == nil {
			log.Info("batch archive exists, skipping",
				zap.Int("batch", i), zap.String("path", archivePath))
			continue
		}

		log.Info("downloading batch",
			zap.Int("batch", i), zap.Int("batches", len(batches)), zap.Int("ids", len(batch)))
		failLog := filepath.Join(dir, fmt.Sprintf("download_log_batch_%d.txt", i))
		failed, err := d.DownloadAssemblies(ctx, batch, dir, failLog)
		if err != nil {
			return errors.Wrapf(err, "download batch %d", i)
		}
		if failed > 0 {
			log.Warn("batch had failed downloads", zap.Int("batch", i), zap.Int("failed", failed))
		}

		w, err := archive.NewWriter(archivePath)
		if err != nil {
			return err
		}
		archived := 0
		for _, id := range batch {
			path := filepath.Join(dir, downloader.AssemblyFileName(id))
			if _, err := os.Stat(path); err != nil {
				continue
			}
			if err := w.AddFile(path, "", true); err != nil {
				w.Close()
				return errors.Wrapf(err, "archive batch %d", i)
			}
			archived++
		}
		if err := w.Close(); err != nil {
			return err
		}
		log.Info("batch archived", zap.Int("batch", i), zap.Int("files", archived))
	}
	return nil
}

// BuildCCD parses the component dictionary and persists the atom reference
// and the SMILES map next to the store.
func BuildCCD(dictPath, atomsOut, smilesOut string) error {
	ref, smiles, err := ccd.BuildFromFile(dictPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(atomsOut), 0o755); err != nil {
		return err
	}
	if err := ref.Save(atomsOut); err != nil {
		return errors.Wrap(err, "save atom reference")
	}
	if err := ccd.SaveSMILES(smiles, smilesOut); err != nil {
		return errors.Wrap(err, "save smiles map")
	}
	return nil
}

// Stats reports a processing run.
type Stats struct {
	Processed int64
	Skipped   int64
}

// Process walks the batch archives and encodes every structure into the
// store. Structures are independent, so parsing and encoding fan out over
// workerNum workers; per-structure failures are counted and skipped.
// fileLimit > 0 caps the number of structures consumed.
func Process(ctx context.Context, archives []string, enc *encoder.Encoder, store kv.BaseKV, workerNum, fileLimit int) (Stats, error) {
	if len(archives) == 0 {
		return Stats{}, errors.New("no batch archives to process")
	}
	if workerNum <= 0 {
		workerNum = 1
	}

	var processed, skipped atomic.Int64
	swg := sizedwaitgroup.New(workerNum)
	reader := archive.NewReader(archives, fileLimit)

	err := reader.Walk(func(id string, data []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := swg.AddWithContext(ctx); err != nil {
			return err
		}
		go func() {
			defer swg.Done()
			if encodeOne(id, data, enc, store) {
				processed.Inc()
			} else {
				skipped.Inc()
			}
		}()
		return nil
	})
	swg.Wait()
	if err != nil {
		return Stats{Processed: processed.Load(), Skipped: skipped.Load()}, err
	}

	stats := Stats{Processed: processed.Load(), Skipped: skipped.Load()}
	log.Info("processing run finished",
		zap.Int64("processed", stats.Processed), zap.Int64("skipped", stats.Skipped))
	return stats, nil
}

func encodeOne(id string, data []byte, enc *encoder.Encoder, store kv.BaseKV) bool {
	st, err := mmcif.ParseBytes(data, id)
	if err != nil {
		metrics.StructuresSkipped.Inc()
		log.Warn("failed to parse structure", zap.String("id", id), zap.Error(err))
		return false
	}
	stream, err := enc.Encode(st)
	if err != nil {
		metrics.StructuresSkipped.Inc()
		log.Warn("failed to encode structure", zap.String("id", id), zap.Error(err))
		return false
	}
	blob, err := storage.EncodeStream(stream)
	if err != nil {
		metrics.StructuresSkipped.Inc()
		log.Warn("failed to serialize stream", zap.String("id", id), zap.Error(err))
		return false
	}
	if err := store.Save(id, blob); err != nil {
		metrics.StructuresSkipped.Inc()
		log.Error("failed to store stream", zap.String("id", id), zap.Error(err))
		return false
	}
	metrics.StructuresProcessed.Inc()
	return true
}
