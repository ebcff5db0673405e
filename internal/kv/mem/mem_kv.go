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

// Package mem is an in-process store backend for tests and small runs.
package mem

import (
	"sort"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/foldset-io/foldset/internal/util/merr"
)

// MemoryKV keeps everything in a map guarded by a RWMutex.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (kv *MemoryKV) Load(key string) ([]byte, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	value, ok := kv.data[key]
	if !ok {
		return nil, errors.Wrap(merr.ErrKeyNotFound, key)
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (kv *MemoryKV) MultiLoad(keys []string) ([][]byte, error) {
	out := make([][]byte, 0, len(keys))
	for _, key := range keys {
		value, err := kv.Load(key)
		if err != nil {
			return nil, err
		}
		out = append(out, value)
	}
	return out, nil
}

func (kv *MemoryKV) Save(key string, value []byte) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	kv.data[key] = stored
	return nil
}

func (kv *MemoryKV) MultiSave(kvs map[string][]byte) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	for key, value := range kvs {
		stored := make([]byte, len(value))
		copy(stored, value)
		kv.data[key] = stored
	}
	return nil
}

func (kv *MemoryKV) Has(key string) (bool, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	_, ok := kv.data[key]
	return ok, nil
}

func (kv *MemoryKV) GetKeys() ([]string, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	keys := make([]string, 0, len(kv.data))
	for key := range kv.data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (kv *MemoryKV) Remove(key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	delete(kv.data, key)
	return nil
}

func (kv *MemoryKV) Close() error {
	return nil
}
