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

// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "foldset"

var (
	// StructuresProcessed counts structures successfully encoded and stored.
	StructuresProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "structures_processed_total",
		Help:      "Number of structures successfully encoded and stored.",
	})

	// StructuresSkipped counts structures that produced no token stream.
	StructuresSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "structures_skipped_total",
		Help:      "Number of structures skipped because they could not be encoded.",
	})

	// LigandsMissingReference counts ligand residues dropped for lack of a
	// chemical component reference entry.
	LigandsMissingReference = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ligands_missing_reference_total",
		Help:      "Number of ligand residues dropped for lack of a component reference.",
	})

	// DownloadFailures counts failed archive downloads.
	DownloadFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "download_failures_total",
		Help:      "Number of failed structure file downloads.",
	})
)

// ServeHTTP exposes the default registry on addr. It blocks; run it in its
// own goroutine.
func ServeHTTP(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
