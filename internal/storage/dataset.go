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

package storage

import (
	"math/rand"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/foldset-io/foldset/internal/cropper"
	"github.com/foldset-io/foldset/internal/kv"
	"github.com/foldset-io/foldset/internal/tokens"
)

// Dataset is the read side of the store. It snapshots the key list at
// construction, so Len and index positions stay stable while a store is
// concurrently written. The persisted streams are immutable; an optional
// cropper derives a fixed-size view at read time.
type Dataset struct {
	store kv.BaseKV
	keys  []string

	crop cropper.Cropper
	mu   sync.Mutex
	rng  *rand.Rand
}

// DatasetOption tunes dataset construction.
type DatasetOption func(*Dataset)

// WithCropper applies c to every sample read. The seed fixes the crop
// randomness, so two datasets built with the same seed over the same store
// yield identical samples in identical read order.
func WithCropper(c cropper.Cropper, seed int64) DatasetOption {
	return func(d *Dataset) {
		d.crop = c
		d.rng = rand.New(rand.NewSource(seed))
	}
}

// NewDataset snapshots the store's keys and returns a dataset over them.
func NewDataset(store kv.BaseKV, opts ...DatasetOption) (*Dataset, error) {
	keys, err := store.GetKeys()
	if err != nil {
		return nil, errors.Wrap(err, "snapshot store keys")
	}
	d := &Dataset{store: store, keys: keys}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.keys)
}

// Key returns the structure id at index i.
func (d *Dataset) Key(i int) string {
	return d.keys[i]
}

// Get loads, decodes and optionally crops the sample at index i.
func (d *Dataset) Get(i int) (*tokens.Stream, error) {
	value, err := d.store.Load(d.keys[i])
	if err != nil {
		return nil, err
	}
	stream, err := DecodeStream(value)
	if err != nil {
		return nil, err
	}
	if d.crop == nil {
		return stream, nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.crop.Crop(stream, d.rng), nil
}
