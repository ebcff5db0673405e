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

package paramtable

import (
	"strings"
	"sync"

	"github.com/foldset-io/foldset/internal/log"
)

// Params is the global parameter table. Call Params.InitOnce before use.
var Params ParamTable

// ParamTable aggregates the typed config sections.
type ParamTable struct {
	once sync.Once
	BaseTable

	LogCfg      logConfig
	MetricsCfg  metricsConfig
	DownloadCfg downloadConfig
	ProcessCfg  processConfig
	CropCfg     cropConfig
	SplitCfg    splitConfig
}

// InitOnce loads the config file and fills every section exactly once.
func (pt *ParamTable) InitOnce() {
	pt.once.Do(pt.Init)
}

func (pt *ParamTable) Init() {
	pt.BaseTable.Init()
	pt.LogCfg.init(&pt.BaseTable)
	pt.MetricsCfg.init(&pt.BaseTable)
	pt.DownloadCfg.init(&pt.BaseTable)
	pt.ProcessCfg.init(&pt.BaseTable)
	pt.CropCfg.init(&pt.BaseTable)
	pt.SplitCfg.init(&pt.BaseTable)
}

// --- log ---

type logConfig struct {
	Config log.Config
}

func (c *logConfig) init(bt *BaseTable) {
	c.Config.Level = bt.loadWithDefault("log.level", "info")
	c.Config.Format = bt.loadWithDefault("log.format", "text")
	c.Config.DisableCaller = bt.parseBool("log.disableCaller", false)
	c.Config.File.Filename = bt.loadWithDefault("log.file.filename", "")
	c.Config.File.MaxSize = bt.parseInt("log.file.maxSize", 300)
	c.Config.File.MaxDays = bt.parseInt("log.file.maxDays", 0)
	c.Config.File.MaxBackups = bt.parseInt("log.file.maxBackups", 0)
}

// --- metrics ---

type metricsConfig struct {
	// ListenAddr exposes prometheus metrics when non-empty, e.g. ":9091".
	ListenAddr string
}

func (c *metricsConfig) init(bt *BaseTable) {
	c.ListenAddr = bt.loadWithDefault("metrics.listenAddr", "")
}

// --- download ---

type downloadConfig struct {
	SearchURL   string
	DownloadURL string
	CCDURL      string

	MaxReleaseDate string
	MaxResolution  float64
	Method         string

	PageSize    int
	BatchSize   int
	Concurrency int
	Limit       int

	RawDir string
}

func (c *downloadConfig) init(bt *BaseTable) {
	c.SearchURL = bt.loadWithDefault("download.searchUrl", "https://search.rcsb.org/rcsbsearch/v2/query")
	c.DownloadURL = bt.loadWithDefault("download.fileUrl", "https://files.rcsb.org/download/")
	c.CCDURL = bt.loadWithDefault("download.ccdUrl", "https://files.rcsb.org/pub/pdb/data/monomers/components.cif.gz")
	c.MaxReleaseDate = bt.loadWithDefault("download.filters.maxReleaseDate", "")
	c.MaxResolution = bt.parseFloat("download.filters.maxResolution", 9.0)
	c.Method = bt.loadWithDefault("download.filters.method", "")
	c.PageSize = bt.parseInt("download.pageSize", 10000)
	c.BatchSize = bt.parseInt("download.batchSize", 20000)
	c.Concurrency = bt.parseInt("download.concurrency", 100)
	c.Limit = bt.parseInt("download.limit", 0)
	c.RawDir = bt.loadWithDefault("download.rawDir", "data/raw")
}

// AssembliesDir is where downloaded assembly batches land.
func (c *downloadConfig) AssembliesDir() string {
	return joinPath(c.RawDir, "assemblies")
}

// CCDDir is where the chemical component dictionary lands.
func (c *downloadConfig) CCDDir() string {
	return joinPath(c.RawDir, "ccd")
}

// IDFile is the persisted structure id list.
func (c *downloadConfig) IDFile() string {
	return joinPath(c.RawDir, "pdb_ids.txt")
}

// --- process ---

type processConfig struct {
	ProcessedDir string
	StorePath    string
	CCDAtomsPath string
	CCDSMILESMap string

	WorkerNum int
	FileLimit int
}

func (c *processConfig) init(bt *BaseTable) {
	c.ProcessedDir = bt.loadWithDefault("process.processedDir", "data/processed")
	c.StorePath = bt.loadWithDefault("process.storePath", joinPath(c.ProcessedDir, "structures.db"))
	c.CCDAtomsPath = bt.loadWithDefault("process.ccdAtomsPath", joinPath(c.ProcessedDir, "ccd_atoms.json"))
	c.CCDSMILESMap = bt.loadWithDefault("process.ccdSmilesPath", joinPath(c.ProcessedDir, "ccd_smiles.json"))
	c.WorkerNum = bt.parseInt("process.workerNum", 0)
	if c.WorkerNum <= 0 {
		c.WorkerNum = defaultWorkerNum()
	}
	c.FileLimit = bt.parseInt("process.fileLimit", 0)
}

// --- crop ---

type cropConfig struct {
	CropSize        int
	Variant         string
	InterfaceCutoff float64
	LigandProb      float64
	Seed            int64
}

func (c *cropConfig) init(bt *BaseTable) {
	c.CropSize = bt.parseInt("crop.cropSize", 384)
	c.Variant = strings.ToLower(bt.loadWithDefault("crop.variant", "spatial"))
	c.InterfaceCutoff = bt.parseFloat("crop.interfaceCutoff", 8.0)
	c.LigandProb = bt.parseFloat("crop.ligandProb", 0.5)
	c.Seed = bt.parseInt64("crop.seed", 42)
}

// --- split ---

type splitConfig struct {
	Binary      string
	MinSeqID    float64
	Coverage    float64
	CovMode     int
	ClusterMode int
	Threads     int

	TrainRatio float64
	ValRatio   float64
	TestRatio  float64
	Seed       int64

	MinChainLength int
	OutputDir      string
}

func (c *splitConfig) init(bt *BaseTable) {
	c.Binary = bt.loadWithDefault("split.mmseqs.binary", "mmseqs")
	c.MinSeqID = bt.parseFloat("split.mmseqs.minSeqId", 0.3)
	c.Coverage = bt.parseFloat("split.mmseqs.coverage", 0.8)
	c.CovMode = bt.parseInt("split.mmseqs.covMode", 0)
	c.ClusterMode = bt.parseInt("split.mmseqs.clusterMode", 0)
	c.Threads = bt.parseInt("split.mmseqs.threads", 8)
	c.TrainRatio = bt.parseFloat("split.ratios.train", 0.9)
	c.ValRatio = bt.parseFloat("split.ratios.val", 0.05)
	c.TestRatio = bt.parseFloat("split.ratios.test", 0.05)
	c.Seed = bt.parseInt64("split.seed", 42)
	c.MinChainLength = bt.parseInt("split.minChainLength", 10)
	c.OutputDir = bt.loadWithDefault("split.outputDir", "data/processed")
}
