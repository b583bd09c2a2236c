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
	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/filters"
	"github.com/google/tabula/core/sorting"
)

// Action is a state transition request. The set of actions is closed: only
// the types in this file implement it.
type Action interface {
	// Kind names the action for logs.
	Kind() string
	sealed()
}

// SetRowData replaces the row data and its pristine copy.
type SetRowData struct{ Rows []columns.Row }

// SetColumnDefs replaces the column definitions and resets the column order
// to the definitions' field order.
type SetColumnDefs struct{ Defs columns.Defs }

type SetSortModel struct{ Model sorting.Model }

type SetFilterModel struct{ Model filters.Model }

// ToggleRowSelection adds or removes one source row index.
type ToggleRowSelection struct{ ID int }

type SelectAllRows struct{}

type DeselectAllRows struct{}

// ResizeColumn stores a base width. Callers apply the minimum width and
// undo any zoom before dispatching; see BaseWidth.
type ResizeColumn struct {
	ColID string
	Width int
}

type ReorderColumns struct{ Order []string }

// PinColumn pins a column to a side; PinNone removes the pin.
type PinColumn struct {
	ColID string
	Side  columns.Pinned
}

type ToggleColumnVisibility struct{ ColID string }

type SetGroupConfiguration struct{ Config GroupConfiguration }

type SetPivotConfiguration struct{ Config PivotConfiguration }

type ToggleGroupExpansion struct{ Key string }

type TogglePivotMode struct{ Enabled bool }

// SetAnalysisConfig installs an analysis configuration; nil clears it.
type SetAnalysisConfig struct{ Config *AnalysisConfig }

type SetLoading struct{ Loading bool }

// SetError records an error message; the empty string clears it.
type SetError struct{ Message string }

func (SetRowData) Kind() string             { return "SET_ROW_DATA" }
func (SetColumnDefs) Kind() string          { return "SET_COLUMN_DEFS" }
func (SetSortModel) Kind() string           { return "SET_SORT_MODEL" }
func (SetFilterModel) Kind() string         { return "SET_FILTER_MODEL" }
func (ToggleRowSelection) Kind() string     { return "TOGGLE_ROW_SELECTION" }
func (SelectAllRows) Kind() string          { return "SELECT_ALL_ROWS" }
func (DeselectAllRows) Kind() string        { return "DESELECT_ALL_ROWS" }
func (ResizeColumn) Kind() string           { return "RESIZE_COLUMN" }
func (ReorderColumns) Kind() string         { return "REORDER_COLUMNS" }
func (PinColumn) Kind() string              { return "PIN_COLUMN" }
func (ToggleColumnVisibility) Kind() string { return "TOGGLE_COLUMN_VISIBILITY" }
func (SetGroupConfiguration) Kind() string  { return "SET_GROUP_CONFIGURATION" }
func (SetPivotConfiguration) Kind() string  { return "SET_PIVOT_CONFIGURATION" }
func (ToggleGroupExpansion) Kind() string   { return "TOGGLE_GROUP_EXPANSION" }
func (TogglePivotMode) Kind() string        { return "TOGGLE_PIVOT_MODE" }
func (SetAnalysisConfig) Kind() string      { return "SET_ANALYSIS_CONFIG" }
func (SetLoading) Kind() string             { return "SET_LOADING" }
func (SetError) Kind() string               { return "SET_ERROR" }

func (SetRowData) sealed()             {}
func (SetColumnDefs) sealed()          {}
func (SetSortModel) sealed()           {}
func (SetFilterModel) sealed()         {}
func (ToggleRowSelection) sealed()     {}
func (SelectAllRows) sealed()          {}
func (DeselectAllRows) sealed()        {}
func (ResizeColumn) sealed()           {}
func (ReorderColumns) sealed()         {}
func (PinColumn) sealed()              {}
func (ToggleColumnVisibility) sealed() {}
func (SetGroupConfiguration) sealed()  {}
func (SetPivotConfiguration) sealed()  {}
func (ToggleGroupExpansion) sealed()   {}
func (TogglePivotMode) sealed()        {}
func (SetAnalysisConfig) sealed()      {}
func (SetLoading) sealed()             {}
func (SetError) sealed()               {}
