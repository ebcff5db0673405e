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

// Package ccd builds and serves the chemical component reference: for every
// component code, the ordered list of heavy atoms its ideal description
// carries, and optionally its canonical SMILES string. The reference is
// loaded once at startup and shared read-only across workers.
package ccd

import (
	"encoding/json"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/foldset-io/foldset/internal/util/merr"
)

// ReferenceAtom is one heavy atom of a component's ideal description.
type ReferenceAtom struct {
	Name    string
	Element string
}

// MarshalJSON encodes the atom as a [name, element] pair.
func (a ReferenceAtom) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{a.Name, a.Element})
}

// UnmarshalJSON decodes a [name, element] pair.
func (a *ReferenceAtom) UnmarshalJSON(data []byte) error {
	var pair [2]string
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	a.Name, a.Element = pair[0], pair[1]
	return nil
}

// Reference maps component codes to their heavy atom lists.
type Reference struct {
	atoms map[string][]ReferenceAtom
}

// NewReference wraps an already built code to atom-list map.
func NewReference(atoms map[string][]ReferenceAtom) *Reference {
	if atoms == nil {
		atoms = map[string][]ReferenceAtom{}
	}
	return &Reference{atoms: atoms}
}

// Atoms returns the heavy atom list for a component code.
func (r *Reference) Atoms(code string) ([]ReferenceAtom, bool) {
	a, ok := r.atoms[code]
	return a, ok
}

// Len returns the number of known components.
func (r *Reference) Len() int {
	return len(r.atoms)
}

// Save persists the reference as compact JSON.
func (r *Reference) Save(path string) error {
	data, err := json.Marshal(r.atoms)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadReference reads a reference previously written by Save.
func LoadReference(path string) (*Reference, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	atoms := map[string][]ReferenceAtom{}
	if err := json.Unmarshal(data, &atoms); err != nil {
		return nil, errors.Wrapf(merr.ErrReferenceCorrupt, "%s: %v", path, err)
	}
	return &Reference{atoms: atoms}, nil
}

// SaveSMILES persists a code to SMILES map as compact JSON.
func SaveSMILES(smiles map[string]string, path string) error {
	data, err := json.Marshal(smiles)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadSMILES reads a SMILES map previously written by SaveSMILES.
func LoadSMILES(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	smiles := map[string]string{}
	if err := json.Unmarshal(data, &smiles); err != nil {
		return nil, errors.Wrapf(merr.ErrReferenceCorrupt, "%s: %v", path, err)
	}
	return smiles, nil
}
