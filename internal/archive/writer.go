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

// Package archive bundles downloaded structure files into tar.gz batches and
// streams them back out without touching disk for the members.
package archive

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/gzip"
)

// Writer appends files to a single tar.gz archive. Not safe for concurrent
// use; the download batcher owns one writer at a time.
type Writer struct {
	f  *os.File
	gz *gzip.Writer
	tw *tar.Writer
}

// NewWriter creates the archive file at path, truncating any existing one.
func NewWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "create archive %s", path)
	}
	gz := gzip.NewWriter(f)
	return &Writer{f: f, gz: gz, tw: tar.NewWriter(gz)}, nil
}

// AddFile copies the file at path into the archive under arcname, or its
// base name when arcname is empty. With deleteOriginal the source file is
// removed after a successful copy.
func (w *Writer) AddFile(path, arcname string, deleteOriginal bool) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return errors.Wrapf(err, "stat %s", path)
	}
	if arcname == "" {
		arcname = filepath.Base(path)
	}
	if err := w.tw.WriteHeader(&tar.Header{
		Name:    arcname,
		Mode:    0o644,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}); err != nil {
		return errors.Wrapf(err, "write header %s", arcname)
	}
	if _, err := io.Copy(w.tw, f); err != nil {
		return errors.Wrapf(err, "copy %s", arcname)
	}
	if deleteOriginal {
		f.Close()
		if err := os.Remove(path); err != nil {
			return errors.Wrapf(err, "remove %s", path)
		}
	}
	return nil
}

// AddBytes writes an in-memory blob into the archive under arcname.
func (w *Writer) AddBytes(arcname string, data []byte) error {
	if err := w.tw.WriteHeader(&tar.Header{
		Name:    arcname,
		Mode:    0o644,
		Size:    int64(len(data)),
		ModTime: time.Now(),
	}); err != nil {
		return errors.Wrapf(err, "write header %s", arcname)
	}
	_, err := w.tw.Write(data)
	return errors.Wrapf(err, "write %s", arcname)
}

// Close flushes the tar and gzip layers and closes the file.
func (w *Writer) Close() error {
	if err := w.tw.Close(); err != nil {
		w.f.Close()
		return err
	}
	if err := w.gz.Close(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}
