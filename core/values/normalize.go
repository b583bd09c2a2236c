/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Tabula Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package values

import (
	"math"
	"strings"
)

type comparableKind uint8

const (
	comparableNull comparableKind = iota
	comparableNumber
	comparableText
)

// Comparable is the normalized, totally ordered form of a cell value: a
// number, a lowercased string, or null.
type Comparable struct {
	kind comparableKind
	num  float64
	str  string
}

// NullComparable is the null sentinel.
var NullComparable = Comparable{}

// NumberComparable returns a numeric comparable.
func NumberComparable(f float64) Comparable { return Comparable{kind: comparableNumber, num: f} }

// TextComparable returns a text comparable. The caller is responsible for
// lowercasing.
func TextComparable(s string) Comparable { return Comparable{kind: comparableText, str: s} }

// IsNull reports whether c is the null sentinel.
func (c Comparable) IsNull() bool { return c.kind == comparableNull }

// Number returns the numeric form, if any.
func (c Comparable) Number() (float64, bool) { return c.num, c.kind == comparableNumber }

// Text returns the text form, if any.
func (c Comparable) Text() (string, bool) { return c.str, c.kind == comparableText }

// Normalize converts v into its comparable form. dateColumn is set when the
// owning column declares the date filter type; text on such a column is
// parsed as a date and unparsable values become null.
func Normalize(v Value, dateColumn bool) Comparable {
	switch {
	case v.kind == KindNull:
		return NullComparable
	case v.kind == KindDateTime:
		return NumberComparable(float64(v.t.UnixMilli()))
	case dateColumn:
		t, err := ParseDate(v.String())
		if err != nil {
			return NullComparable
		}
		return NumberComparable(float64(t.UnixMilli()))
	case v.kind == KindBool:
		if v.b {
			return NumberComparable(1)
		}
		return NumberComparable(0)
	}
	if f, ok := ParseNumber(v); ok {
		return NumberComparable(f)
	}
	return TextComparable(strings.ToLower(v.String()))
}

// Compare orders two comparables: numbers before text, nulls last. Callers
// that need direction-aware null placement must handle nulls first.
func Compare(a, b Comparable) int {
	if a.kind != b.kind {
		if rank(a.kind) < rank(b.kind) {
			return -1
		}
		return 1
	}
	switch a.kind {
	case comparableNumber:
		return compareFloat64s(a.num, b.num)
	case comparableText:
		return strings.Compare(a.str, b.str)
	default:
		return 0
	}
}

func rank(k comparableKind) int {
	switch k {
	case comparableNumber:
		return 0
	case comparableText:
		return 1
	default:
		return 2
	}
}

// compareFloat64s compares two float64 values; NaN sorts after everything.
func compareFloat64s(a, b float64) int {
	aNaN := math.IsNaN(a)
	bNaN := math.IsNaN(b)
	if aNaN && bNaN {
		return 0
	}
	if aNaN {
		return 1
	}
	if bNaN {
		return -1
	}
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
