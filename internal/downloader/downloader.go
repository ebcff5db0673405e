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

// Package downloader talks to the structure archive: it queries the search
// API for entry ids matching the configured filters, pulls biological
// assembly files concurrently, and fetches the chemical component
// dictionary.
package downloader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/foldset-io/foldset/internal/log"
	"github.com/foldset-io/foldset/internal/metrics"
	"github.com/foldset-io/foldset/internal/util/merr"
	"github.com/foldset-io/foldset/internal/util/retry"
)

// Config carries the endpoints and query filters. Zero-value filters are
// omitted from the search request.
type Config struct {
	SearchURL   string
	DownloadURL string
	CCDURL      string

	MaxReleaseDate string
	MaxResolution  float64
	Method         string

	PageSize    int
	Concurrency int
}

// Downloader is safe for concurrent use; it holds no mutable state beyond
// the shared http client.
type Downloader struct {
	cfg    Config
	client *http.Client
}

func New(cfg Config) *Downloader {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10000
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 100
	}
	return &Downloader{
		cfg:    cfg,
		client: &http.Client{Timeout: 5 * time.Minute},
	}
}

type searchRequest struct {
	Query          searchGroup    `json:"query"`
	ReturnType     string         `json:"return_type"`
	RequestOptions requestOptions `json:"request_options"`
}

type searchGroup struct {
	Type            string       `json:"type"`
	LogicalOperator string       `json:"logical_operator"`
	Nodes           []searchNode `json:"nodes"`
}

type searchNode struct {
	Type       string           `json:"type"`
	Service    string           `json:"service"`
	Parameters searchParameters `json:"parameters"`
}

type searchParameters struct {
	Attribute string      `json:"attribute"`
	Operator  string      `json:"operator"`
	Value     interface{} `json:"value"`
}

type requestOptions struct {
	Paginate paginate   `json:"paginate"`
	Sort     []sortSpec `json:"sort"`
}

type paginate struct {
	Start int `json:"start"`
	Rows  int `json:"rows"`
}

type sortSpec struct {
	SortBy    string `json:"sort_by"`
	Direction string `json:"direction"`
}

type searchResponse struct {
	TotalCount int `json:"total_count"`
	ResultSet  []struct {
		Identifier string `json:"identifier"`
	} `json:"result_set"`
}

// buildSearchRequest assembles the entry query from the configured filters.
// With no filters at all, a permissive resolution bound keeps the request
// valid.
func (d *Downloader) buildSearchRequest(start int) *searchRequest {
	var nodes []searchNode
	if d.cfg.MaxReleaseDate != "" {
		nodes = append(nodes, searchNode{
			Type: "terminal", Service: "text",
			Parameters: searchParameters{
				Attribute: "rcsb_accession_info.initial_release_date",
				Operator:  "less_or_equal",
				Value:     d.cfg.MaxReleaseDate,
			},
		})
	}
	if d.cfg.MaxResolution > 0 {
		nodes = append(nodes, searchNode{
			Type: "terminal", Service: "text",
			Parameters: searchParameters{
				Attribute: "rcsb_entry_info.resolution_combined",
				Operator:  "less_or_equal",
				Value:     d.cfg.MaxResolution,
			},
		})
	}
	if d.cfg.Method != "" {
		nodes = append(nodes, searchNode{
			Type: "terminal", Service: "text",
			Parameters: searchParameters{
				Attribute: "exptl.method",
				Operator:  "exact_match",
				Value:     d.cfg.Method,
			},
		})
	}
	if len(nodes) == 0 {
		nodes = append(nodes, searchNode{
			Type: "terminal", Service: "text",
			Parameters: searchParameters{
				Attribute: "rcsb_entry_info.resolution_combined",
				Operator:  "less_or_equal",
				Value:     9.0,
			},
		})
	}
	return &searchRequest{
		Query:      searchGroup{Type: "group", LogicalOperator: "and", Nodes: nodes},
		ReturnType: "entry",
		RequestOptions: requestOptions{
			Paginate: paginate{Start: start, Rows: d.cfg.PageSize},
			Sort: []sortSpec{{
				SortBy:    "rcsb_accession_info.initial_release_date",
				Direction: "asc",
			}},
		},
	}
}

// FetchIDs pages through the search API and returns the full sorted,
// deduplicated id list.
func (d *Downloader) FetchIDs(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	start, total := 0, -1
	for total < 0 || start < total {
		page, count, err := d.fetchPage(ctx, start)
		if err != nil {
			return nil, err
		}
		if total < 0 {
			total = count
			log.Info("search query matched entries", zap.Int("total", total))
		}
		if len(page) == 0 {
			break
		}
		for _, id := range page {
			seen[id] = struct{}{}
		}
		start += len(page)
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, strings.ToUpper(id))
	}
	sort.Strings(ids)
	return ids, nil
}

func (d *Downloader) fetchPage(ctx context.Context, start int) ([]string, int, error) {
	body, err := json.Marshal(d.buildSearchRequest(start))
	if err != nil {
		return nil, 0, err
	}
	var parsed searchResponse
	err = retry.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.SearchURL, bytes.NewReader(body))
		if err != nil {
			return retry.Unrecoverable(err)
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := d.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return errors.Newf("search returned HTTP %d", resp.StatusCode)
		}
		parsed = searchResponse{}
		return json.NewDecoder(resp.Body).Decode(&parsed)
	}, retry.Attempts(5))
	if err != nil {
		return nil, 0, errors.Wrapf(err, "search page at %d", start)
	}
	ids := make([]string, 0, len(parsed.ResultSet))
	for _, r := range parsed.ResultSet {
		ids = append(ids, r.Identifier)
	}
	return ids, parsed.TotalCount, nil
}

// SaveIDs writes one id per line, the format LoadIDs reads back.
func SaveIDs(ids []string, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strings.Join(ids, "\n")+"\n"), 0o644)
}

// LoadIDs reads an id list file, uppercasing and skipping blank lines.
func LoadIDs(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			ids = append(ids, strings.ToUpper(line))
		}
	}
	return ids, nil
}

// AssemblyFileName is the archive's naming convention for first assemblies.
func AssemblyFileName(id string) string {
	return strings.ToLower(id) + "-assembly1.cif.gz"
}

// DownloadAssemblies fetches the first biological assembly of every id into
// outDir, skipping files that already exist. Individual failures are logged
// to failLog and counted, never fatal; the returned count is the number of
// failures.
func (d *Downloader) DownloadAssemblies(ctx context.Context, ids []string, outDir, failLog string) (int, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return 0, err
	}

	var mu sync.Mutex
	var failures []string

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Concurrency)
	for _, id := range ids {
		path := filepath.Join(outDir, AssemblyFileName(id))
		if _, err := os.Stat(path); err == nil {
			continue
		}
		url := d.cfg.DownloadURL + AssemblyFileName(id)
		g.Go(func() error {
			if err := d.downloadFile(ctx, url, path); err != nil {
				metrics.DownloadFailures.Inc()
				log.Warn("assembly download failed", zap.String("url", url), zap.Error(err))
				mu.Lock()
				failures = append(failures, fmt.Sprintf("%s: %v", url, err))
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return len(failures), err
	}

	if len(failures) > 0 && failLog != "" {
		sort.Strings(failures)
		f, err := os.OpenFile(failLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return len(failures), errors.Wrapf(err, "open failure log %s", failLog)
		}
		defer f.Close()
		if _, err := f.WriteString(strings.Join(failures, "\n") + "\n"); err != nil {
			return len(failures), err
		}
	}
	return len(failures), nil
}

// DownloadCCD fetches the chemical component dictionary into dir and returns
// the downloaded file path.
func (d *Downloader) DownloadCCD(ctx context.Context, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, "components.cif.gz")
	if err := d.downloadFile(ctx, d.cfg.CCDURL, path); err != nil {
		return "", errors.Wrap(err, "download component dictionary")
	}
	log.Info("downloaded component dictionary", zap.String("path", path))
	return path, nil
}

// downloadFile writes the response body to path via a temp file, so a
// partial download never masquerades as a complete one. Client errors are
// not retried; everything else is.
func (d *Downloader) downloadFile(ctx context.Context, url, path string) error {
	return retry.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return retry.Unrecoverable(err)
		}
		resp, err := d.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			err := errors.Wrapf(merr.ErrDownloadFailed, "%s: HTTP %d", url, resp.StatusCode)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return retry.Unrecoverable(err)
			}
			return err
		}

		tmp, err := os.CreateTemp(filepath.Dir(path), ".download-*")
		if err != nil {
			return retry.Unrecoverable(err)
		}
		defer os.Remove(tmp.Name())
		if _, err := io.Copy(tmp, resp.Body); err != nil {
			tmp.Close()
			return err
		}
		if err := tmp.Close(); err != nil {
			return err
		}
		return os.Rename(tmp.Name(), path)
	}, retry.Attempts(3))
}
