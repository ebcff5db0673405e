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

package downloader

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchIDsPaginates(t *testing.T) {
	all := []string{"1AAA", "1BBB", "1CCC", "1DDD", "1EEE"}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		// Filters from the config must reach the query.
		require.NotEmpty(t, req.Query.Nodes)

		start := req.RequestOptions.Paginate.Start
		end := start + req.RequestOptions.Paginate.Rows
		if end > len(all) {
			end = len(all)
		}
		resp := searchResponse{TotalCount: len(all)}
		for _, id := range all[start:end] {
			resp.ResultSet = append(resp.ResultSet, struct {
				Identifier string `json:"identifier"`
			}{id})
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	d := New(Config{SearchURL: srv.URL, MaxResolution: 4.0, PageSize: 2})
	ids, err := d.FetchIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, all, ids)
}

func TestSaveLoadIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "pdb_ids.txt")
	require.NoError(t, SaveIDs([]string{"1AAA", "1BBB"}, path))

	ids, err := LoadIDs(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"1AAA", "1BBB"}, ids)
}

func TestDownloadAssemblies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/")
		if strings.HasPrefix(name, "1bad") {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, "content of %s", name)
	}))
	defer srv.Close()

	dir := t.TempDir()
	failLog := filepath.Join(dir, "download_log.txt")
	d := New(Config{DownloadURL: srv.URL + "/", Concurrency: 4})

	failed, err := d.DownloadAssemblies(context.Background(), []string{"1AAA", "1BAD", "1CCC"}, dir, failLog)
	require.NoError(t, err)
	assert.Equal(t, 1, failed)

	data, err := os.ReadFile(filepath.Join(dir, "1aaa-assembly1.cif.gz"))
	require.NoError(t, err)
	assert.Equal(t, "content of 1aaa-assembly1.cif.gz", string(data))

	_, err = os.Stat(filepath.Join(dir, "1bad-assembly1.cif.gz"))
	assert.True(t, os.IsNotExist(err))

	logged, err := os.ReadFile(failLog)
	require.NoError(t, err)
	assert.Contains(t, string(logged), "1bad-assembly1.cif.gz")
}

func TestDownloadAssembliesSkipsExisting(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, "fresh")
	}))
	defer srv.Close()

	dir := t.TempDir()
	existing := filepath.Join(dir, "1aaa-assembly1.cif.gz")
	require.NoError(t, os.WriteFile(existing, []byte("stale"), 0o644))

	d := New(Config{DownloadURL: srv.URL + "/", Concurrency: 1})
	failed, err := d.DownloadAssemblies(context.Background(), []string{"1AAA"}, dir, "")
	require.NoError(t, err)
	assert.Zero(t, failed)
	assert.Zero(t, hits)

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "stale", string(data))
}

func TestDownloadCCD(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "dictionary bytes")
	}))
	defer srv.Close()

	dir := t.TempDir()
	d := New(Config{CCDURL: srv.URL + "/components.cif.gz"})
	path, err := d.DownloadCCD(context.Background(), dir)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "dictionary bytes", string(data))
}
