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

package archive

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzippedBytes(t *testing.T, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func writeBatch(t *testing.T, path string, members map[string]string) {
	t.Helper()
	w, err := NewWriter(path)
	require.NoError(t, err)
	for name, content := range members {
		require.NoError(t, w.AddBytes(name, gzippedBytes(t, content)))
	}
	require.NoError(t, w.Close())
}

func collect(t *testing.T, r *Reader) map[string]string {
	t.Helper()
	got := map[string]string{}
	require.NoError(t, r.Walk(func(id string, data []byte) error {
		got[id] = string(data)
		return nil
	}))
	return got
}

func TestWriterReaderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	batch := filepath.Join(dir, "batch_0.tar.gz")
	writeBatch(t, batch, map[string]string{
		"1abc-assembly1.cif.gz": "data_1ABC",
		"2xyz-assembly1.cif.gz": "data_2XYZ",
	})

	got := collect(t, NewReader([]string{batch}, 0))
	assert.Equal(t, map[string]string{"1abc": "data_1ABC", "2xyz": "data_2XYZ"}, got)
}

func TestReaderSpansArchivesAndHonorsLimit(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "batch_0.tar.gz")
	b := filepath.Join(dir, "batch_1.tar.gz")
	writeBatch(t, a, map[string]string{
		"1aaa-assembly1.cif.gz": "a",
		"1bbb-assembly1.cif.gz": "b",
	})
	writeBatch(t, b, map[string]string{
		"1ccc-assembly1.cif.gz": "c",
	})

	got := collect(t, NewReader([]string{a, b}, 0))
	assert.Len(t, got, 3)

	limited := 0
	require.NoError(t, NewReader([]string{a, b}, 2).Walk(func(string, []byte) error {
		limited++
		return nil
	}))
	assert.Equal(t, 2, limited)
}

func TestReaderSkipsNonGzMembers(t *testing.T) {
	dir := t.TempDir()
	batch := filepath.Join(dir, "batch_0.tar.gz")
	w, err := NewWriter(batch)
	require.NoError(t, err)
	require.NoError(t, w.AddBytes("README.txt", []byte("not a structure")))
	require.NoError(t, w.AddBytes("1abc-assembly1.cif.gz", gzippedBytes(t, "data_1ABC")))
	// A .gz member with garbage inside is skipped, not fatal.
	require.NoError(t, w.AddBytes("2bad-assembly1.cif.gz", []byte("not gzip")))
	require.NoError(t, w.Close())

	got := collect(t, NewReader([]string{batch}, 0))
	assert.Equal(t, map[string]string{"1abc": "data_1ABC"}, got)
}

func TestReaderSurvivesMissingArchive(t *testing.T) {
	dir := t.TempDir()
	batch := filepath.Join(dir, "batch_0.tar.gz")
	writeBatch(t, batch, map[string]string{"1abc-assembly1.cif.gz": "data_1ABC"})

	got := collect(t, NewReader([]string{filepath.Join(dir, "missing.tar.gz"), batch}, 0))
	assert.Equal(t, map[string]string{"1abc": "data_1ABC"}, got)
}

func TestReaderStopWalk(t *testing.T) {
	dir := t.TempDir()
	batch := filepath.Join(dir, "batch_0.tar.gz")
	writeBatch(t, batch, map[string]string{
		"1aaa-assembly1.cif.gz": "a",
		"1bbb-assembly1.cif.gz": "b",
	})

	seen := 0
	require.NoError(t, NewReader([]string{batch}, 0).Walk(func(string, []byte) error {
		seen++
		return ErrStopWalk
	}))
	assert.Equal(t, 1, seen)
}

func TestWriterAddFileDeleteOriginal(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "1abc-assembly1.cif.gz")
	require.NoError(t, os.WriteFile(src, gzippedBytes(t, "data_1ABC"), 0o644))

	batch := filepath.Join(dir, "batch_0.tar.gz")
	w, err := NewWriter(batch)
	require.NoError(t, err)
	require.NoError(t, w.AddFile(src, "", true))
	require.NoError(t, w.Close())

	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err))

	got := collect(t, NewReader([]string{batch}, 0))
	assert.Equal(t, map[string]string{"1abc": "data_1ABC"}, got)
}
