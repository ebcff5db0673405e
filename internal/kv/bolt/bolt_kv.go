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

// Package bolt is the on-disk store backend. One bbolt file, one bucket,
// single writer with concurrent readers, which matches the pipeline's
// many-readers-one-writer access pattern.
package bolt

import (
	"time"

	"github.com/cockroachdb/errors"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/foldset-io/foldset/internal/log"
	"github.com/foldset-io/foldset/internal/util/merr"
)

var bucketName = []byte("structures")

// BoltKV stores encoded structures in a single bbolt bucket.
type BoltKV struct {
	db *bolt.DB
}

// Open creates or opens the database file at path.
func Open(path string) (*BoltKV, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "open store %s", path)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "create bucket in %s", path)
	}
	log.Info("opened structure store", zap.String("path", path))
	return &BoltKV{db: db}, nil
}

func (kv *BoltKV) Load(key string) ([]byte, error) {
	var out []byte
	err := kv.db.View(func(tx *bolt.Tx) error {
		value := tx.Bucket(bucketName).Get([]byte(key))
		if value == nil {
			return errors.Wrap(merr.ErrKeyNotFound, key)
		}
		out = make([]byte, len(value))
		copy(out, value)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (kv *BoltKV) MultiLoad(keys []string) ([][]byte, error) {
	out := make([][]byte, 0, len(keys))
	err := kv.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketName)
		for _, key := range keys {
			value := bucket.Get([]byte(key))
			if value == nil {
				return errors.Wrap(merr.ErrKeyNotFound, key)
			}
			copied := make([]byte, len(value))
			copy(copied, value)
			out = append(out, copied)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (kv *BoltKV) Save(key string, value []byte) error {
	return kv.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), value)
	})
}

func (kv *BoltKV) MultiSave(kvs map[string][]byte) error {
	return kv.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketName)
		for key, value := range kvs {
			if err := bucket.Put([]byte(key), value); err != nil {
				return err
			}
		}
		return nil
	})
}

func (kv *BoltKV) Has(key string) (bool, error) {
	var found bool
	err := kv.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(bucketName).Get([]byte(key)) != nil
		return nil
	})
	return found, err
}

// GetKeys returns every stored key in bbolt's byte order, which for the
// ASCII structure ids used here is lexicographic.
func (kv *BoltKV) GetKeys() ([]string, error) {
	var keys []string
	err := kv.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (kv *BoltKV) Remove(key string) error {
	return kv.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Delete([]byte(key))
	})
}

func (kv *BoltKV) Close() error {
	return kv.db.Close()
}
