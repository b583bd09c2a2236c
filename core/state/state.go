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

// Package state holds the grid's view state and the closed set of
// transitions over it. Reduce is the only way a State changes; Store wraps
// it with a single writer for concurrent callers.
package state

import (
	"cmp"
	"slices"
	"sync/atomic"

	"github.com/google/tabula/core/aggregates"
	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/filters"
	"github.com/google/tabula/core/sorting"
)

const (
	DefaultRowHeight    = 28
	DefaultHeaderHeight = 32
)

// Set is an unordered set of keys. States never modify a Set in place; a
// transition that changes one installs a fresh copy.
type Set[T cmp.Ordered] map[T]struct{}

// NewSet returns a set holding items.
func NewSet[T cmp.Ordered](items ...T) Set[T] {
	s := make(Set[T], len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

// Sorted returns the members in ascending order.
func (s Set[T]) Sorted() []T {
	out := make([]T, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

func (s Set[T]) Clone() Set[T] {
	out := make(Set[T], len(s))
	for v := range s {
		out[v] = struct{}{}
	}
	return out
}

// toggled returns a copy of s with v added if absent or removed if present.
func (s Set[T]) toggled(v T) Set[T] {
	out := s.Clone()
	if out.Has(v) {
		delete(out, v)
	} else {
		out[v] = struct{}{}
	}
	return out
}

// GroupConfiguration lists the row-group keys and which groups are open.
type GroupConfiguration struct {
	GroupKeys      []string
	ExpandedGroups Set[string]
}

// PivotConfiguration lists the columns used when pivot mode is on.
type PivotConfiguration struct {
	RowGroupCols []string
	PivotCols    []string
	ValueCols    []string
}

// AnalysisConfig is a user-chosen column subset with aggregation choices.
// While a configuration is active only VisibleColumns are shown; an empty
// set shows none. ContributionColumn names the column whose per-row share
// of the total is shown; it is only kept when VisibleColumns contains it.
type AnalysisConfig struct {
	VisibleColumns     Set[string]
	Aggregations       aggregates.Spec
	ContributionColumn string
}

// Revisions stamps each replaceable input of the state. A transition that
// replaces an input gives it a new stamp; stamps are unique within the
// process, so equal stamps mean the same value even across states forked
// from a common ancestor. Derivations key their caches on these stamps.
type Revisions struct {
	Rows      uint64
	Defs      uint64
	Sort      uint64
	Filter    uint64
	Selection uint64
	Order     uint64
	Widths    uint64
	Pins      uint64
	Hidden    uint64
	Group     uint64
	Pivot     uint64
	Analysis  uint64
}

var revisionSeq atomic.Uint64

func nextRevision() uint64 { return revisionSeq.Add(1) }

// State is the grid's view state. Treat a State as immutable: derive new
// states with Reduce.
type State struct {
	RowData []columns.Row
	// OriginalRowData is the pristine copy installed with the row data.
	OriginalRowData []columns.Row
	ColumnDefs      columns.Defs

	SortModel   sorting.Model
	FilterModel filters.Model

	// SelectedRows holds source row indices into RowData.
	SelectedRows Set[int]

	ColumnOrder []string
	// ColumnWidths holds base (unzoomed) widths by field.
	ColumnWidths  map[string]int
	PinnedColumns map[string]columns.Pinned
	HiddenColumns Set[string]

	Group          GroupConfiguration
	Pivot          PivotConfiguration
	ExpandedGroups Set[string]
	PivotMode      bool

	Analysis *AnalysisConfig

	RowHeight    int
	HeaderHeight int
	Loading      bool
	Error        string

	Revisions Revisions
}

// New returns the initial state for defs and rows. Column order follows
// defs; pins and hidden columns are seeded from the definitions.
func New(defs columns.Defs, rows []columns.Row) State {
	s := State{
		RowData:         rows,
		OriginalRowData: rows,
		ColumnDefs:      defs,
		SortModel:       sorting.Model{},
		FilterModel:     filters.Model{},
		SelectedRows:    Set[int]{},
		ColumnOrder:     defs.Fields(),
		ColumnWidths:    map[string]int{},
		PinnedColumns:   map[string]columns.Pinned{},
		HiddenColumns:   Set[string]{},
		Group:           GroupConfiguration{ExpandedGroups: Set[string]{}},
		ExpandedGroups:  Set[string]{},
		RowHeight:       DefaultRowHeight,
		HeaderHeight:    DefaultHeaderHeight,
	}
	for _, cd := range defs {
		if cd == nil {
			continue
		}
		if cd.Pinned != columns.PinNone {
			s.PinnedColumns[cd.Field] = cd.Pinned
		}
		if cd.Hide {
			s.HiddenColumns[cd.Field] = struct{}{}
		}
	}
	s.Revisions = Revisions{
		Rows:      nextRevision(),
		Defs:      nextRevision(),
		Sort:      nextRevision(),
		Filter:    nextRevision(),
		Selection: nextRevision(),
		Order:     nextRevision(),
		Widths:    nextRevision(),
		Pins:      nextRevision(),
		Hidden:    nextRevision(),
		Group:     nextRevision(),
		Pivot:     nextRevision(),
		Analysis:  nextRevision(),
	}
	return s
}
