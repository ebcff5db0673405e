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

// Package storage persists token streams as numpy archive blobs and serves
// them back as dataset samples.
//
// The wire format is a zip archive of .npy members, one per parallel array,
// plus a meta.json member carrying the structure id and token count. Arrays
// are stored flat; the fixed slot width makes the shapes recoverable from
// the token count alone. The mask travels as uint8 and is widened to float
// on read.
package storage

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/sbinet/npyio"

	"github.com/foldset-io/foldset/internal/tokens"
	"github.com/foldset-io/foldset/internal/util/merr"
	"github.com/foldset-io/foldset/internal/vocab"
)

const (
	memberResType  = "res_type.npy"
	memberChainIDs = "chain_ids.npy"
	memberCoords   = "coords.npy"
	memberMask     = "mask.npy"
	memberElements = "atom_elements.npy"
	memberMeta     = "meta.json"
)

type streamMeta struct {
	ID     string `json:"id"`
	Length int    `json:"length"`
}

// EncodeStream serializes s into a self-describing blob.
func EncodeStream(s *tokens.Stream) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	L := s.Len()

	coords := make([]float32, 0, L*vocab.MaxAtomCount*3)
	mask := make([]uint8, 0, L*vocab.MaxAtomCount)
	elements := make([]int32, 0, L*vocab.MaxAtomCount)
	for i := 0; i < L; i++ {
		for slot := 0; slot < vocab.MaxAtomCount; slot++ {
			coords = append(coords, s.Coords[i][slot][0], s.Coords[i][slot][1], s.Coords[i][slot][2])
			mask = append(mask, uint8(s.Mask[i][slot]))
			elements = append(elements, s.Elements[i][slot])
		}
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	members := []struct {
		name string
		data interface{}
	}{
		{memberResType, s.ResType},
		{memberChainIDs, s.ChainIDs},
		{memberCoords, coords},
		{memberMask, mask},
		{memberElements, elements},
	}
	for _, m := range members {
		w, err := zw.Create(m.name)
		if err != nil {
			return nil, errors.Wrapf(err, "create member %s", m.name)
		}
		if err := npyio.Write(w, m.data); err != nil {
			return nil, errors.Wrapf(err, "write member %s", m.name)
		}
	}

	metaBytes, err := json.Marshal(streamMeta{ID: s.ID, Length: L})
	if err != nil {
		return nil, err
	}
	w, err := zw.Create(memberMeta)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(metaBytes); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeStream parses a blob written by EncodeStream.
func DecodeStream(data []byte) (*tokens.Stream, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.Wrapf(merr.ErrCodecCorrupt, "open archive: %v", err)
	}
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	metaBytes, err := readMember(files, memberMeta)
	if err != nil {
		return nil, err
	}
	var meta streamMeta
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return nil, errors.Wrapf(merr.ErrCodecCorrupt, "meta: %v", err)
	}
	L := meta.Length

	var resType, chainIDs []int32
	if err := readNpy(files, memberResType, &resType); err != nil {
		return nil, err
	}
	if err := readNpy(files, memberChainIDs, &chainIDs); err != nil {
		return nil, err
	}
	var coords []float32
	if err := readNpy(files, memberCoords, &coords); err != nil {
		return nil, err
	}
	var mask []uint8
	if err := readNpy(files, memberMask, &mask); err != nil {
		return nil, err
	}
	var elements []int32
	if err := readNpy(files, memberElements, &elements); err != nil {
		return nil, err
	}

	if len(resType) != L || len(chainIDs) != L ||
		len(coords) != L*vocab.MaxAtomCount*3 ||
		len(mask) != L*vocab.MaxAtomCount ||
		len(elements) != L*vocab.MaxAtomCount {
		return nil, errors.Wrapf(merr.ErrCodecCorrupt, "%s: member sizes disagree with length %d", meta.ID, L)
	}

	s := tokens.NewStream(meta.ID, L)
	s.ResType = resType
	s.ChainIDs = chainIDs
	s.Coords = make([]tokens.Coords, L)
	s.Mask = make([]tokens.Mask, L)
	s.Elements = make([]tokens.Elements, L)
	for i := 0; i < L; i++ {
		for slot := 0; slot < vocab.MaxAtomCount; slot++ {
			base := (i*vocab.MaxAtomCount + slot) * 3
			s.Coords[i][slot] = [3]float32{coords[base], coords[base+1], coords[base+2]}
			s.Mask[i][slot] = float32(mask[i*vocab.MaxAtomCount+slot])
			s.Elements[i][slot] = elements[i*vocab.MaxAtomCount+slot]
		}
	}
	return s, nil
}

func readMember(files map[string]*zip.File, name string) ([]byte, error) {
	f, ok := files[name]
	if !ok {
		return nil, errors.Wrapf(merr.ErrCodecCorrupt, "member %s missing", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, errors.Wrapf(merr.ErrCodecCorrupt, "member %s: %v", name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func readNpy(files map[string]*zip.File, name string, out interface{}) error {
	raw, err := readMember(files, name)
	if err != nil {
		return err
	}
	if err := npyio.Read(bytes.NewReader(raw), out); err != nil {
		return errors.Wrapf(merr.ErrCodecCorrupt, "member %s: %v", name, err)
	}
	return nil
}
