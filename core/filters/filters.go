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

// Package filters evaluates per-column filter specifications against rows.
//
// Evaluation is permissive: a value that cannot be interpreted, a filter on
// a column that does not exist, or a filter that does not match its column's
// filter type never excludes a row.
package filters

import (
	"sort"

	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/values"
)

// Filter decides whether a single cell value is kept.
type Filter interface {
	// Type is the column filter type this specification applies to.
	Type() columns.FilterType
	Keep(v values.Value) bool
}

// Model maps column id to its filter. An absent key means the column is not
// filtered. Models are replaced, never mutated, once handed to the store.
type Model map[string]Filter

// With returns a copy of m with colID set to f. A nil f removes the entry.
func (m Model) With(colID string, f Filter) Model {
	out := make(Model, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	if f == nil {
		delete(out, colID)
	} else {
		out[colID] = f
	}
	return out
}

// Without returns a copy of m without colID.
func (m Model) Without(colID string) Model {
	return m.With(colID, nil)
}

// Active returns the number of filter entries.
func (m Model) Active() int {
	return len(m)
}

// ColumnIDs returns the filtered column ids in sorted order.
func (m Model) ColumnIDs() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// boundFilter is a model entry resolved against its column.
type boundFilter struct {
	field  string
	filter Filter
}

// bind resolves each entry to its column, dropping entries that cannot
// exclude anything: unknown columns, unfiltered columns and type mismatches.
func bind(model Model, defs columns.Defs) []boundFilter {
	index := defs.Index()
	bound := make([]boundFilter, 0, len(model))
	for _, colID := range model.ColumnIDs() {
		f := model[colID]
		if f == nil {
			continue
		}
		col, ok := index[colID]
		if !ok || col.FilterType == columns.FilterNone || col.FilterType != f.Type() {
			continue
		}
		bound = append(bound, boundFilter{field: col.Field, filter: f})
	}
	return bound
}

func keepRow(row columns.Row, bound []boundFilter) bool {
	for _, b := range bound {
		if !b.filter.Keep(row.Get(b.field)) {
			return false
		}
	}
	return true
}

// Indices returns the positions in rows that pass every filter in model,
// in ascending order.
func Indices(rows []columns.Row, model Model, defs columns.Defs) []int {
	bound := bind(model, defs)
	indices := make([]int, 0, len(rows))
	for i, row := range rows {
		if keepRow(row, bound) {
			indices = append(indices, i)
		}
	}
	return indices
}

// Apply returns a new slice holding the rows that pass every filter in
// model, in input order. rows is not modified.
func Apply(rows []columns.Row, model Model, defs columns.Defs) []columns.Row {
	bound := bind(model, defs)
	out := make([]columns.Row, 0, len(rows))
	for _, row := range rows {
		if keepRow(row, bound) {
			out = append(out, row)
		}
	}
	return out
}
