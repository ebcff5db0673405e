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
	"archive/tar"
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/foldset-io/foldset/internal/log"
)

// ErrStopWalk lets a walk callback end iteration early without error.
var ErrStopWalk = errors.New("archive: stop walk")

// Reader flattens a set of tar.gz batch archives into the gzipped structure
// files they contain. Member names follow the {id}-assembly1.cif.gz pattern;
// the id is everything before the first dash.
type Reader struct {
	paths     []string
	fileLimit int
}

// NewReader iterates paths in order. fileLimit > 0 caps the total number of
// members yielded across all archives.
func NewReader(paths []string, fileLimit int) *Reader {
	return &Reader{paths: paths, fileLimit: fileLimit}
}

// Walk calls fn with each member's structure id and decompressed content.
// A member that cannot be decompressed is logged and skipped, as is an
// archive that cannot be opened, so one corrupt batch does not sink a run.
// fn returning ErrStopWalk stops cleanly; any other error aborts the walk.
func (r *Reader) Walk(fn func(id string, data []byte) error) error {
	count := 0
	for _, path := range r.paths {
		stop, err := r.walkOne(path, fn, &count)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
	return nil
}

func (r *Reader) walkOne(path string, fn func(id string, data []byte) error, count *int) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		log.Error("failed to open batch archive", zap.String("path", path), zap.Error(err))
		return false, nil
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		log.Error("failed to read batch archive", zap.String("path", path), zap.Error(err))
		return false, nil
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return false, nil
		}
		if err != nil {
			log.Error("batch archive truncated", zap.String("path", path), zap.Error(err))
			return false, nil
		}
		if hdr.Typeflag != tar.TypeReg || !strings.HasSuffix(hdr.Name, ".gz") {
			continue
		}
		if r.fileLimit > 0 && *count >= r.fileLimit {
			return true, nil
		}
		id := hdr.Name
		if dash := strings.IndexByte(id, '-'); dash >= 0 {
			id = id[:dash]
		}

		data, err := decompressMember(tr)
		if err != nil {
			log.Warn("failed to extract member",
				zap.String("path", path), zap.String("member", hdr.Name), zap.Error(err))
			continue
		}
		*count++
		if err := fn(id, data); err != nil {
			if errors.Is(err, ErrStopWalk) {
				return true, nil
			}
			return false, err
		}
	}
}

func decompressMember(r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	gz, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer gz.Close()
	return io.ReadAll(gz)
}
