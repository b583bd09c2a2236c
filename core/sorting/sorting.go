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

// Package sorting orders rows by a prioritized list of column sort
// instructions.
package sorting

import (
	"slices"

	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/values"
)

// sortableColumn holds a resolved column and its sort direction
type sortableColumn struct {
	col        *columns.ColumnDef
	dateColumn bool
	descending bool
}

// resolve maps model entries to their columns, skipping unknown columns.
func resolve(model Model, defs columns.Defs) []sortableColumn {
	index := defs.Index()
	cols := make([]sortableColumn, 0, len(model))
	for _, sc := range model {
		col, ok := index[sc.ColID]
		if !ok {
			continue
		}
		cols = append(cols, sortableColumn{
			col:        col,
			dateColumn: col.FilterType == columns.FilterDate,
			descending: sc.Direction == Desc,
		})
	}
	return cols
}

// compareRows compares two rows under one sort column, direction applied.
// Nulls sort last ascending and first descending.
func (sc sortableColumn) compareRows(a, b columns.Row) int {
	rawA := sc.col.RawValue(a)
	rawB := sc.col.RawValue(b)

	if sc.col.Comparator != nil {
		return sc.direct(sc.col.Comparator.Compare(rawA, rawB))
	}

	va := values.Normalize(rawA, sc.dateColumn)
	vb := values.Normalize(rawB, sc.dateColumn)
	switch {
	case va.IsNull() && vb.IsNull():
		return 0
	case va.IsNull():
		return sc.direct(1)
	case vb.IsNull():
		return sc.direct(-1)
	}
	return sc.direct(values.Compare(va, vb))
}

func (sc sortableColumn) direct(cmp int) int {
	if sc.descending {
		return -cmp
	}
	return cmp
}

// Indices returns idx reordered by model. idx holds positions into rows;
// positions that compare equal on every sort column keep their relative
// order in idx. Neither rows nor idx is modified.
func Indices(rows []columns.Row, idx []int, model Model, defs columns.Defs) []int {
	out := slices.Clone(idx)
	cols := resolve(model, defs)
	if len(cols) == 0 || len(out) < 2 {
		return out
	}

	// Stability comes from the explicit position fallback, not from the sort.
	position := make(map[int]int, len(out))
	for p, i := range out {
		position[i] = p
	}
	slices.SortFunc(out, func(i, j int) int {
		for _, sc := range cols {
			if cmp := sc.compareRows(rows[i], rows[j]); cmp != 0 {
				return cmp
			}
		}
		return position[i] - position[j]
	})
	return out
}

// Apply returns a new slice with rows ordered by model. Rows that tie on
// every sort column keep their input order.
func Apply(rows []columns.Row, model Model, defs columns.Defs) []columns.Row {
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	sorted := Indices(rows, idx, model, defs)
	out := make([]columns.Row, len(sorted))
	for p, i := range sorted {
		out[p] = rows[i]
	}
	return out
}
