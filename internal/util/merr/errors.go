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

// Package merr holds the leaf errors shared across package boundaries.
// Wrap these with errors.Wrap/Wrapf at the call site and classify with
// errors.Is; do not compare messages.
package merr

import "github.com/cockroachdb/errors"

var (
	// Structure encoding related.
	ErrStructureParse   = errors.New("structure could not be parsed")
	ErrStructureEmpty   = errors.New("structure produced no tokens")
	ErrLigandNoRef      = errors.New("ligand has no chemical component reference")
	ErrReferenceCorrupt = errors.New("chemical component reference is corrupt")

	// Cropping related.
	ErrCropSizeInvalid = errors.New("crop size must be positive")

	// Storage related.
	ErrKeyNotFound  = errors.New("key not found")
	ErrCodecCorrupt = errors.New("stored token stream is corrupt")

	// Split related.
	ErrManifestEmpty     = errors.New("manifest holds no clusterable sequences")
	ErrClusterToolFailed = errors.New("clustering tool invocation failed")
	ErrSplitRatios       = errors.New("split ratios must be positive and sum to 1")

	// Download related.
	ErrDownloadFailed = errors.New("download failed")
)
