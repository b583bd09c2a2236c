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

package state

import (
	"fmt"
	"math"
	"slices"

	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/filters"
)

const (
	autoSizeSample   = 100
	autoSizeCharPx   = 8
	autoSizePadding  = 20
	autoSizeMinWidth = 100
	autoSizeMaxWidth = 300
	fitMinWidth      = 100
)

// RowNode describes a selected row.
type RowNode struct {
	ID       int
	Index    int
	Data     columns.Row
	Level    int
	Selected bool
}

func (s *Store) SetRowData(rows []columns.Row) error {
	return s.Dispatch(SetRowData{Rows: rows})
}

// RefreshRows reinstalls the current rows under a new revision, forcing
// every derivation that depends on them to recompute.
func (s *Store) RefreshRows() error {
	return s.Update(func(st State) []Action {
		return []Action{SetRowData{Rows: slices.Clone(st.RowData)}}
	})
}

// ToggleSort cycles colID's sort as a header activation would.
func (s *Store) ToggleSort(colID string, multi bool) error {
	return s.Update(func(st State) []Action {
		return []Action{SetSortModel{Model: st.SortModel.Toggle(colID, multi)}}
	})
}

// SetFilter installs f for colID; a nil f removes the column's filter.
func (s *Store) SetFilter(colID string, f filters.Filter) error {
	return s.Update(func(st State) []Action {
		return []Action{SetFilterModel{Model: st.FilterModel.With(colID, f)}}
	})
}

// ResizeColumn stores the base width for a width measured on screen at
// zoom.
func (s *Store) ResizeColumn(colID string, displayed int, zoom float64) error {
	return s.Dispatch(ResizeColumn{ColID: colID, Width: BaseWidth(displayed, zoom)})
}

// MoveColumn moves key to position toIndex of the column order. toIndex is
// clamped to the order's bounds.
func (s *Store) MoveColumn(key string, toIndex int) error {
	var err error
	update := s.Update(func(st State) []Action {
		from := slices.Index(st.ColumnOrder, key)
		if from < 0 {
			err = fmt.Errorf("move column: unknown column %q", key)
			return nil
		}
		order := slices.Delete(slices.Clone(st.ColumnOrder), from, from+1)
		toIndex = min(max(toIndex, 0), len(order))
		order = slices.Insert(order, toIndex, key)
		return []Action{ReorderColumns{Order: order}}
	})
	if update != nil {
		return update
	}
	return err
}

// SetColumnVisible shows or hides key. It does nothing when key is already
// in the requested state.
func (s *Store) SetColumnVisible(key string, visible bool) error {
	return s.Update(func(st State) []Action {
		if st.HiddenColumns.Has(key) == !visible {
			return nil
		}
		return []Action{ToggleColumnVisibility{ColID: key}}
	})
}

func (s *Store) SetColumnPinned(key string, side columns.Pinned) error {
	return s.Dispatch(PinColumn{ColID: key, Side: side})
}

func (s *Store) SelectAll() error   { return s.Dispatch(SelectAllRows{}) }
func (s *Store) DeselectAll() error { return s.Dispatch(DeselectAllRows{}) }

// SelectedRows returns the selected rows in id order. Ids that no longer
// address a row are skipped.
func (s *Store) SelectedRows() []columns.Row {
	nodes := s.SelectedNodes()
	rows := make([]columns.Row, len(nodes))
	for i, n := range nodes {
		rows[i] = n.Data
	}
	return rows
}

// SelectedNodes returns a node per selected row in id order.
func (s *Store) SelectedNodes() []RowNode {
	st := s.Snapshot()
	var nodes []RowNode
	for _, id := range st.SelectedRows.Sorted() {
		if id < 0 || id >= len(st.RowData) {
			continue
		}
		nodes = append(nodes, RowNode{ID: id, Index: id, Data: st.RowData[id], Selected: true})
	}
	return nodes
}

// AutoSizeColumns sets each key's width from the longest of its field name
// and its first values.
func (s *Store) AutoSizeColumns(keys ...string) error {
	return s.Update(func(st State) []Action {
		actions := make([]Action, 0, len(keys))
		for _, key := range keys {
			actions = append(actions, ResizeColumn{ColID: key, Width: contentWidth(st.RowData, key)})
		}
		return actions
	})
}

func contentWidth(rows []columns.Row, field string) int {
	longest := len([]rune(field))
	for _, row := range rows[:min(len(rows), autoSizeSample)] {
		longest = max(longest, len([]rune(row.Get(field).String())))
	}
	return min(max(longest*autoSizeCharPx+autoSizePadding, autoSizeMinWidth), autoSizeMaxWidth)
}

// SizeColumnsToFit divides containerWidth evenly across the columns that
// are not hidden, giving each at least fitMinWidth.
func (s *Store) SizeColumnsToFit(containerWidth int) error {
	return s.Update(func(st State) []Action {
		var visible []string
		for _, field := range st.ColumnDefs.Fields() {
			if !st.HiddenColumns.Has(field) {
				visible = append(visible, field)
			}
		}
		if len(visible) == 0 {
			return nil
		}
		width := max(int(math.Round(float64(containerWidth)/float64(len(visible)))), fitMinWidth)
		actions := make([]Action, len(visible))
		for i, field := range visible {
			actions[i] = ResizeColumn{ColID: field, Width: width}
		}
		return actions
	})
}

func (s *Store) ShowLoading() error { return s.Dispatch(SetLoading{Loading: true}) }
func (s *Store) HideOverlay() error { return s.Dispatch(SetLoading{Loading: false}) }

// CollapseAll closes every row group.
func (s *Store) CollapseAll() error {
	return s.Update(func(st State) []Action {
		cfg := st.Group
		cfg.ExpandedGroups = Set[string]{}
		actions := []Action{SetGroupConfiguration{Config: cfg}}
		for _, key := range st.ExpandedGroups.Sorted() {
			actions = append(actions, ToggleGroupExpansion{Key: key})
		}
		return actions
	})
}
