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

package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foldset-io/foldset/internal/cropper"
	"github.com/foldset-io/foldset/internal/kv/mem"
	"github.com/foldset-io/foldset/internal/tokens"
	"github.com/foldset-io/foldset/internal/util/merr"
	"github.com/foldset-io/foldset/internal/vocab"
)

func sampleStream(id string, n int) *tokens.Stream {
	s := tokens.NewStream(id, n)
	for i := 0; i < n; i++ {
		var tok tokens.Token
		tok.ResType = int32(i % len(vocab.Restypes))
		tok.ChainID = int32(i / 10)
		tok.Coords[0] = [3]float32{float32(i), float32(i) * 0.5, -float32(i)}
		tok.Coords[3] = [3]float32{1.25, -2.5, 3.75}
		tok.Mask[0] = 1
		tok.Mask[3] = 1
		tok.Elements[0] = 7
		tok.Elements[3] = 8
		s.Append(tok)
	}
	return s
}

func TestStreamRoundTrip(t *testing.T) {
	in := sampleStream("1abc", 37)
	blob, err := EncodeStream(in)
	require.NoError(t, err)

	out, err := DecodeStream(blob)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestEncodeEmptyStream(t *testing.T) {
	in := tokens.NewStream("0len", 0)
	blob, err := EncodeStream(in)
	require.NoError(t, err)
	out, err := DecodeStream(blob)
	require.NoError(t, err)
	assert.Equal(t, "0len", out.ID)
	assert.Zero(t, out.Len())
}

func TestDecodeCorruptBlob(t *testing.T) {
	_, err := DecodeStream([]byte("not a zip archive"))
	assert.ErrorIs(t, err, merr.ErrCodecCorrupt)
}

func TestDecodeTruncatedBlob(t *testing.T) {
	blob, err := EncodeStream(sampleStream("1abc", 5))
	require.NoError(t, err)
	_, err = DecodeStream(blob[:len(blob)/2])
	assert.ErrorIs(t, err, merr.ErrCodecCorrupt)
}

func TestDatasetReadBack(t *testing.T) {
	store := mem.NewMemoryKV()
	for _, id := range []string{"2xyz", "1abc", "3qrs"} {
		blob, err := EncodeStream(sampleStream(id, 20))
		require.NoError(t, err)
		require.NoError(t, store.Save(id, blob))
	}

	ds, err := NewDataset(store)
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())
	// Keys snapshot in sorted order.
	assert.Equal(t, "1abc", ds.Key(0))

	s, err := ds.Get(2)
	require.NoError(t, err)
	assert.Equal(t, "3qrs", s.ID)
	assert.Equal(t, 20, s.Len())
}

func TestDatasetWithCropper(t *testing.T) {
	store := mem.NewMemoryKV()
	blob, err := EncodeStream(sampleStream("1abc", 100))
	require.NoError(t, err)
	require.NoError(t, store.Save("1abc", blob))

	crop, err := cropper.NewContiguous(16)
	require.NoError(t, err)

	a, err := NewDataset(store, WithCropper(crop, 9))
	require.NoError(t, err)
	b, err := NewDataset(store, WithCropper(crop, 9))
	require.NoError(t, err)

	sa, err := a.Get(0)
	require.NoError(t, err)
	sb, err := b.Get(0)
	require.NoError(t, err)
	assert.Equal(t, 16, sa.Len())
	assert.Equal(t, sa, sb)
}
