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

// Package paramtable loads the process configuration from a yaml file and
// serves it to the rest of the program as typed sections.
package paramtable

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// configPathEnv overrides the config file location when set.
const configPathEnv = "FOLDSET_CONFIG"

const defaultConfigFile = "configs/foldset.yaml"

// BaseTable wraps the raw key-value view of the config file. Section configs
// pull their fields out of it during Init.
type BaseTable struct {
	mu     sync.RWMutex
	params *viper.Viper
}

// Init reads the config file. A missing file is not fatal: every key has a
// default, so an empty table serves defaults only.
func (bt *BaseTable) Init() {
	bt.mu.Lock()
	defer bt.mu.Unlock()
	bt.params = viper.New()
	bt.params.SetConfigType("yaml")

	path := os.Getenv(configPathEnv)
	if path == "" {
		path = defaultConfigFile
	}
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	_ = bt.params.ReadConfig(f)
}

// Load returns the raw string value of key.
func (bt *BaseTable) Load(key string) (string, error) {
	bt.mu.RLock()
	defer bt.mu.RUnlock()
	if !bt.params.IsSet(key) {
		return "", errors.Newf("config key %s not set", key)
	}
	return cast.ToStringE(bt.params.Get(key))
}

// Save overrides key with value, used by tests and command line flags.
func (bt *BaseTable) Save(key, value string) {
	bt.mu.Lock()
	defer bt.mu.Unlock()
	bt.params.Set(key, value)
}

func (bt *BaseTable) loadWithDefault(key, def string) string {
	v, err := bt.Load(key)
	if err != nil {
		return def
	}
	return v
}

func (bt *BaseTable) parseInt(key string, def int) int {
	return cast.ToInt(bt.loadWithDefault(key, cast.ToString(def)))
}

func (bt *BaseTable) parseInt64(key string, def int64) int64 {
	return cast.ToInt64(bt.loadWithDefault(key, cast.ToString(def)))
}

func (bt *BaseTable) parseFloat(key string, def float64) float64 {
	return cast.ToFloat64(bt.loadWithDefault(key, cast.ToString(def)))
}

func (bt *BaseTable) parseBool(key string, def bool) bool {
	return cast.ToBool(bt.loadWithDefault(key, cast.ToString(def)))
}

func defaultWorkerNum() int {
	return runtime.GOMAXPROCS(0)
}

func joinPath(parts ...string) string {
	return filepath.Join(parts...)
}
