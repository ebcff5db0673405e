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

// Package kv abstracts the byte-oriented key-value store the dataset is
// persisted in.
package kv

// BaseKV is the contract shared by all store backends. Keys are ASCII
// structure ids, values are opaque encoded blobs. Implementations must be
// safe for concurrent use.
type BaseKV interface {
	Load(key string) ([]byte, error)
	MultiLoad(keys []string) ([][]byte, error)
	Save(key string, value []byte) error
	MultiSave(kvs map[string][]byte) error
	Has(key string) (bool, error)
	GetKeys() ([]string, error)
	Remove(key string) error
	Close() error
}
