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

package vocab

import "strings"

// elements lists the periodic table by atomic number; index 0 is the
// unknown element.
var elements = []string{
	"X", "H", "HE", "LI", "BE", "B", "C", "N", "O", "F", "NE",
	"NA", "MG", "AL", "SI", "P", "S", "CL", "AR", "K", "CA",
	"SC", "TI", "V", "CR", "MN", "FE", "CO", "NI", "CU", "ZN",
	"GA", "GE", "AS", "SE", "BR", "KR", "RB", "SR", "Y", "ZR",
	"NB", "MO", "TC", "RU", "RH", "PD", "AG", "CD", "IN", "SN",
	"SB", "TE", "I", "XE", "CS", "BA", "LA", "CE", "PR", "ND",
	"PM", "SM", "EU", "GD", "TB", "DY", "HO", "ER", "TM", "YB",
	"LU", "HF", "TA", "W", "RE", "OS", "IR", "PT", "AU", "HG",
	"TL", "PB", "BI", "PO", "AT", "RN", "FR", "RA", "AC", "TH",
	"PA", "U", "NP", "PU", "AM", "CM", "BK", "CF", "ES", "FM",
	"MD", "NO", "LR", "RF", "DB", "SG", "BH", "HS", "MT", "DS",
	"RG", "CN", "NH", "FL", "MC", "LV", "TS", "OG",
}

var elementToIdx = func() map[string]int32 {
	m := make(map[string]int32, len(elements))
	for i, e := range elements {
		m[e] = int32(i)
	}
	return m
}()

// ElementID resolves an element symbol to its atomic number. Deuterium maps
// to hydrogen; unrecognized symbols map to 0.
func ElementID(symbol string) int32 {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "D" {
		symbol = "H"
	}
	return elementToIdx[symbol]
}

// IsHydrogen reports whether the symbol denotes hydrogen or deuterium.
// Hydrogens never become tokens and never count toward heavy atom totals.
func IsHydrogen(symbol string) bool {
	switch strings.ToUpper(strings.TrimSpace(symbol)) {
	case "H", "D":
		return true
	}
	return false
}
