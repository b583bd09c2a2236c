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

package filters

import (
	"sort"
	"strings"
	"time"

	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/values"
)

// TextCondition is a substring test on lowercased text.
type TextCondition string

const (
	Contains    TextCondition = "contains"
	Equals      TextCondition = "equals"
	StartsWith  TextCondition = "startsWith"
	EndsWith    TextCondition = "endsWith"
	NotContains TextCondition = "notContains"
)

// TextFilter matches the cell's string form. An empty Value places no
// restriction; an empty Condition means Contains.
type TextFilter struct {
	Condition TextCondition
	Value     string
}

func (f TextFilter) Type() columns.FilterType { return columns.FilterText }

func (f TextFilter) Keep(v values.Value) bool {
	if f.Value == "" {
		return true
	}
	needle := strings.ToLower(f.Value)
	cell := strings.ToLower(v.String())
	switch f.Condition {
	case Contains, "":
		return strings.Contains(cell, needle)
	case Equals:
		return cell == needle
	case StartsWith:
		return strings.HasPrefix(cell, needle)
	case EndsWith:
		return strings.HasSuffix(cell, needle)
	case NotContains:
		return !strings.Contains(cell, needle)
	default:
		return true
	}
}

// NumberCondition is a numeric comparison.
type NumberCondition string

const (
	NumEquals             NumberCondition = "equals"
	NumNotEquals          NumberCondition = "notEquals"
	NumGreaterThan        NumberCondition = "greaterThan"
	NumGreaterThanOrEqual NumberCondition = "greaterThanOrEqual"
	NumLessThan           NumberCondition = "lessThan"
	NumLessThanOrEqual    NumberCondition = "lessThanOrEqual"
	NumInRange            NumberCondition = "inRange"
)

// NumberFilter compares the cell's parsed number. A cell that does not parse
// is kept. A nil Value keeps every row for the non-range conditions; for
// InRange, From and To are inclusive and each may be nil.
type NumberFilter struct {
	Condition NumberCondition
	Value     *float64
	From      *float64
	To        *float64
}

// Float returns a pointer to f, for building NumberFilter literals.
func Float(f float64) *float64 { return &f }

func (f NumberFilter) Type() columns.FilterType { return columns.FilterNumber }

func (f NumberFilter) Keep(v values.Value) bool {
	cell, ok := values.ParseFloat(v)
	if !ok {
		return true
	}
	if f.Condition == NumInRange {
		if f.From != nil && cell < *f.From {
			return false
		}
		if f.To != nil && cell > *f.To {
			return false
		}
		return true
	}
	if f.Value == nil {
		return true
	}
	want := *f.Value
	switch f.Condition {
	case NumEquals, "":
		return cell == want
	case NumNotEquals:
		return cell != want
	case NumGreaterThan:
		return cell > want
	case NumGreaterThanOrEqual:
		return cell >= want
	case NumLessThan:
		return cell < want
	case NumLessThanOrEqual:
		return cell <= want
	default:
		return true
	}
}

// SetFilter keeps cells whose string form is one of Values. An empty set
// keeps everything.
type SetFilter struct {
	Values map[string]struct{}
}

// NewSetFilter builds a SetFilter from the selected values.
func NewSetFilter(selected ...string) SetFilter {
	set := make(map[string]struct{}, len(selected))
	for _, s := range selected {
		set[s] = struct{}{}
	}
	return SetFilter{Values: set}
}

func (f SetFilter) Type() columns.FilterType { return columns.FilterSet }

func (f SetFilter) Keep(v values.Value) bool {
	if len(f.Values) == 0 {
		return true
	}
	_, ok := f.Values[v.String()]
	return ok
}

// Selected returns the selected values in sorted order.
func (f SetFilter) Selected() []string {
	out := make([]string, 0, len(f.Values))
	for s := range f.Values {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// DateCondition is a comparison on dates.
type DateCondition string

const (
	DateOn      DateCondition = "equals"
	DateBefore  DateCondition = "before"
	DateAfter   DateCondition = "after"
	DateInRange DateCondition = "inRange"
)

// DateFilter compares the cell's date. Equals matches the same UTC calendar
// day; InRange is inclusive of both bounds. Cells or bounds that do not parse
// as dates place no restriction.
type DateFilter struct {
	Condition DateCondition
	Value     string
	From      string
	To        string
}

func (f DateFilter) Type() columns.FilterType { return columns.FilterDate }

func (f DateFilter) Keep(v values.Value) bool {
	cell, ok := cellTime(v)
	if !ok {
		return true
	}
	if f.Condition == DateInRange {
		if from, ok := boundTime(f.From); ok && cell.Before(from) {
			return false
		}
		if to, ok := boundTime(f.To); ok && cell.After(to) {
			return false
		}
		return true
	}
	want, ok := boundTime(f.Value)
	if !ok {
		return true
	}
	switch f.Condition {
	case DateOn, "":
		return sameDay(cell, want)
	case DateBefore:
		return cell.Before(want)
	case DateAfter:
		return cell.After(want)
	default:
		return true
	}
}

func cellTime(v values.Value) (time.Time, bool) {
	if t, ok := v.AsTime(); ok {
		return t.UTC(), true
	}
	if v.IsNull() {
		return time.Time{}, false
	}
	t, err := values.ParseDate(v.String())
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

func boundTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := values.ParseDate(s)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
