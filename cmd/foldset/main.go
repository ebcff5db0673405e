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

// foldset builds machine-learning-ready datasets from the public structure
// archive: it downloads assembly files, encodes them into token streams in a
// local store, and derives leakage-free train/val/test splits.
//
// Usage:
//
//	foldset download     fetch entry ids, assemblies and the component dictionary
//	foldset build-ccd    build the component atom reference and smiles map
//	foldset process      encode archived structures into the store
//	foldset manifest     scan archives for the contents of stored structures
//	foldset split        cluster and assign train/val/test membership
//	foldset inspect ID   print a summary of one stored structure
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/foldset-io/foldset/internal/archive"
	"github.com/foldset-io/foldset/internal/ccd"
	"github.com/foldset-io/foldset/internal/cropper"
	"github.com/foldset-io/foldset/internal/downloader"
	"github.com/foldset-io/foldset/internal/encoder"
	"github.com/foldset-io/foldset/internal/kv/bolt"
	"github.com/foldset-io/foldset/internal/log"
	"github.com/foldset-io/foldset/internal/metrics"
	"github.com/foldset-io/foldset/internal/pipeline"
	"github.com/foldset-io/foldset/internal/split"
	"github.com/foldset-io/foldset/internal/storage"
	"github.com/foldset-io/foldset/internal/util/paramtable"
	"github.com/foldset-io/foldset/internal/vocab"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: foldset <download|build-ccd|process|manifest|split|inspect> [args]")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	paramtable.Params.InitOnce()
	if _, err := log.InitLogger(&paramtable.Params.LogCfg.Config); err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	if addr := paramtable.Params.MetricsCfg.ListenAddr; addr != "" {
		go func() {
			if serveErr := metrics.ServeHTTP(addr); serveErr != nil {
				log.Warn("metrics listener stopped", zap.Error(serveErr))
			}
		}()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "download":
		err = runDownload(ctx)
	case "build-ccd":
		err = runBuildCCD()
	case "process":
		err = runProcess(ctx)
	case "manifest":
		err = runManifest()
	case "split":
		err = runSplit(ctx)
	case "inspect":
		if len(os.Args) < 3 {
			usage()
		}
		err = runInspect(os.Args[2])
	default:
		usage()
	}
	if err != nil {
		log.Fatal("command failed", zap.String("command", os.Args[1]), zap.Error(err))
	}
}

func newDownloader() *downloader.Downloader {
	cfg := &paramtable.Params.DownloadCfg
	return downloader.New(downloader.Config{
		SearchURL:      cfg.SearchURL,
		DownloadURL:    cfg.DownloadURL,
		CCDURL:         cfg.CCDURL,
		MaxReleaseDate: cfg.MaxReleaseDate,
		MaxResolution:  cfg.MaxResolution,
		Method:         cfg.Method,
		PageSize:       cfg.PageSize,
		Concurrency:    cfg.Concurrency,
	})
}

func runDownload(ctx context.Context) error {
	cfg := &paramtable.Params.DownloadCfg
	d := newDownloader()

	ids, err := downloader.LoadIDs(cfg.IDFile())
	if err != nil {
		ids, err = d.FetchIDs(ctx)
		if err != nil {
			return err
		}
		if err := downloader.SaveIDs(ids, cfg.IDFile()); err != nil {
			return err
		}
		log.Info("saved id list", zap.String("path", cfg.IDFile()), zap.Int("count", len(ids)))
	} else {
		log.Info("using existing id list", zap.String("path", cfg.IDFile()), zap.Int("count", len(ids)))
	}

	if _, err := d.DownloadCCD(ctx, cfg.CCDDir()); err != nil {
		return err
	}

	if cfg.Limit > 0 && cfg.Limit < len(ids) {
		log.Info("limiting download", zap.Int("limit", cfg.Limit))
		ids = ids[:cfg.Limit]
	}
	return pipeline.DownloadBatches(ctx, d, ids, cfg.AssembliesDir(), cfg.BatchSize)
}

func runBuildCCD() error {
	download := &paramtable.Params.DownloadCfg
	process := &paramtable.Params.ProcessCfg
	dict := filepath.Join(download.CCDDir(), "components.cif.gz")
	return pipeline.BuildCCD(dict, process.CCDAtomsPath, process.CCDSMILESMap)
}

func runProcess(ctx context.Context) error {
	cfg := &paramtable.Params.ProcessCfg

	ref, err := ccd.LoadReference(cfg.CCDAtomsPath)
	if err != nil {
		return err
	}
	archives, err := pipeline.BatchArchives(paramtable.Params.DownloadCfg.AssembliesDir())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.ProcessedDir, 0o755); err != nil {
		return err
	}
	store, err := bolt.Open(cfg.StorePath)
	if err != nil {
		return err
	}
	defer store.Close()

	_, err = pipeline.Process(ctx, archives, encoder.New(ref), store, cfg.WorkerNum, cfg.FileLimit)
	return err
}

func runManifest() error {
	process := &paramtable.Params.ProcessCfg
	splitCfg := &paramtable.Params.SplitCfg

	store, err := bolt.Open(process.StorePath)
	if err != nil {
		return err
	}
	keys, err := store.GetKeys()
	store.Close()
	if err != nil {
		return err
	}

	smiles, err := ccd.LoadSMILES(process.CCDSMILESMap)
	if err != nil {
		return err
	}
	archives, err := pipeline.BatchArchives(paramtable.Params.DownloadCfg.AssembliesDir())
	if err != nil {
		return err
	}

	builder := split.NewManifestBuilder(keys, smiles, splitCfg.MinChainLength)
	manifest, err := builder.Build(archive.NewReader(archives, 0))
	if err != nil {
		return err
	}
	path := filepath.Join(process.ProcessedDir, "manifest.json")
	if err := manifest.Save(path); err != nil {
		return err
	}
	log.Info("manifest saved", zap.String("path", path), zap.Int("structures", len(manifest)))
	return nil
}

func runSplit(ctx context.Context) error {
	cfg := &paramtable.Params.SplitCfg
	process := &paramtable.Params.ProcessCfg

	manifest, err := split.LoadManifest(filepath.Join(process.ProcessedDir, "manifest.json"))
	if err != nil {
		return err
	}

	runner := split.NewMMseqs(split.MMseqsConfig{
		Binary:      cfg.Binary,
		MinSeqID:    cfg.MinSeqID,
		Coverage:    cfg.Coverage,
		CovMode:     cfg.CovMode,
		ClusterMode: cfg.ClusterMode,
		Threads:     cfg.Threads,
	})
	ratios := split.Ratios{Train: cfg.TrainRatio, Val: cfg.ValRatio, Test: cfg.TestRatio}
	result, err := split.NewSplitter(runner, ratios, cfg.Seed).Create(ctx, manifest)
	if err != nil {
		return err
	}
	return result.WriteKeyFiles(cfg.OutputDir)
}

func cropperFromConfig() (cropper.Cropper, error) {
	cfg := &paramtable.Params.CropCfg
	switch cfg.Variant {
	case "contiguous":
		return cropper.NewContiguous(cfg.CropSize)
	case "spatial":
		return cropper.NewSpatial(cfg.CropSize)
	case "interface":
		return cropper.NewInterfaceBiased(cfg.CropSize, cfg.InterfaceCutoff)
	case "entity":
		return cropper.NewEntityStratified(cfg.CropSize, cfg.LigandProb)
	default:
		return nil, errors.Newf("unknown crop variant %q", cfg.Variant)
	}
}

func runInspect(id string) error {
	cfg := &paramtable.Params.ProcessCfg
	store, err := bolt.Open(cfg.StorePath)
	if err != nil {
		return err
	}
	defer store.Close()

	keys, err := store.GetKeys()
	if err != nil {
		return err
	}

	blob, err := store.Load(id)
	if err != nil {
		return err
	}
	stream, err := storage.DecodeStream(blob)
	if err != nil {
		return err
	}

	chains := map[int32]struct{}{}
	ligandTokens, resolvedSlots := 0, 0
	for i := 0; i < stream.Len(); i++ {
		chains[stream.ChainIDs[i]] = struct{}{}
		if stream.ResType[i] == vocab.LigandIdx {
			ligandTokens++
		}
		for _, m := range stream.Mask[i] {
			if m > 0 {
				resolvedSlots++
			}
		}
	}
	l := stream.Len()
	fmt.Printf("store entries:  %d\n", len(keys))
	fmt.Printf("id:             %s\n", stream.ID)
	fmt.Printf("tokens:         %d\n", l)
	fmt.Printf("chains:         %d\n", len(chains))
	fmt.Printf("ligand tokens:  %d\n", ligandTokens)
	fmt.Printf("resolved slots: %d\n", resolvedSlots)
	fmt.Printf("res_type:       [%d]\n", l)
	fmt.Printf("chain_ids:      [%d]\n", l)
	fmt.Printf("coords:         [%d 27 3]\n", l)
	fmt.Printf("mask:           [%d 27]\n", l)
	fmt.Printf("atom_elements:  [%d 27]\n", l)

	crop, err := cropperFromConfig()
	if err != nil {
		return err
	}
	cropCfg := &paramtable.Params.CropCfg
	ds, err := storage.NewDataset(store, storage.WithCropper(crop, cropCfg.Seed))
	if err != nil {
		return err
	}
	for i := 0; i < ds.Len(); i++ {
		if ds.Key(i) != strings.ToLower(id) && ds.Key(i) != id {
			continue
		}
		cropped, err := ds.Get(i)
		if err != nil {
			return err
		}
		fmt.Printf("cropped (%s, size %d): %d tokens\n", cropCfg.Variant, cropCfg.CropSize, cropped.Len())
		break
	}
	return nil
}
