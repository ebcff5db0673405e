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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
log:
  level: debug
download:
  batchSize: 500
  filters:
    maxResolution: 3.5
crop:
  cropSize: 256
  variant: Contiguous
split:
  ratios:
    train: 0.8
    val: 0.1
    test: 0.1
`

func TestParamTableFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "foldset.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o644))
	t.Setenv(configPathEnv, path)

	var pt ParamTable
	pt.Init()

	assert.Equal(t, "debug", pt.LogCfg.Config.Level)
	assert.Equal(t, 500, pt.DownloadCfg.BatchSize)
	assert.InDelta(t, 3.5, pt.DownloadCfg.MaxResolution, 1e-9)
	assert.Equal(t, 256, pt.CropCfg.CropSize)
	assert.Equal(t, "contiguous", pt.CropCfg.Variant)
	assert.InDelta(t, 0.8, pt.SplitCfg.TrainRatio, 1e-9)
	assert.InDelta(t, 0.1, pt.SplitCfg.TestRatio, 1e-9)
}

func TestParamTableDefaults(t *testing.T) {
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "absent.yaml"))

	var pt ParamTable
	pt.Init()

	assert.Equal(t, "info", pt.LogCfg.Config.Level)
	assert.Equal(t, 10000, pt.DownloadCfg.PageSize)
	assert.Equal(t, 384, pt.CropCfg.CropSize)
	assert.Equal(t, "mmseqs", pt.SplitCfg.Binary)
	assert.InDelta(t, 0.9, pt.SplitCfg.TrainRatio, 1e-9)
	assert.Equal(t, filepath.Join("data", "raw", "assemblies"), pt.DownloadCfg.AssembliesDir())
}

func TestBaseTableSaveOverrides(t *testing.T) {
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "absent.yaml"))

	var pt ParamTable
	pt.BaseTable.Init()
	pt.Save("crop.cropSize", "128")
	pt.CropCfg.init(&pt.BaseTable)

	assert.Equal(t, 128, pt.CropCfg.CropSize)
}
