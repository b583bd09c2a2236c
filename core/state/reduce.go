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
	"maps"
	"slices"

	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/filters"
	"github.com/google/tabula/core/sorting"
)

// Reduce returns the state that results from applying a to s. s is not
// modified: every collection the action touches is replaced by a new one.
// Row slices are taken by reference; the caller hands over ownership.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case SetRowData:
		s.RowData = a.Rows
		s.OriginalRowData = a.Rows
		s.Revisions.Rows = nextRevision()

	case SetColumnDefs:
		s.ColumnDefs = slices.Clone(a.Defs)
		s.ColumnOrder = a.Defs.Fields()
		s.Revisions.Defs = nextRevision()
		s.Revisions.Order = nextRevision()

	case SetSortModel:
		s.SortModel = slices.Clone(a.Model)
		if s.SortModel == nil {
			s.SortModel = sorting.Model{}
		}
		s.Revisions.Sort = nextRevision()

	case SetFilterModel:
		s.FilterModel = maps.Clone(a.Model)
		if s.FilterModel == nil {
			s.FilterModel = filters.Model{}
		}
		s.Revisions.Filter = nextRevision()

	case ToggleRowSelection:
		s.SelectedRows = s.SelectedRows.toggled(a.ID)
		s.Revisions.Selection = nextRevision()

	case SelectAllRows:
		all := make(Set[int], len(s.RowData))
		for i := range s.RowData {
			all[i] = struct{}{}
		}
		s.SelectedRows = all
		s.Revisions.Selection = nextRevision()

	case DeselectAllRows:
		s.SelectedRows = Set[int]{}
		s.Revisions.Selection = nextRevision()

	case ResizeColumn:
		widths := maps.Clone(s.ColumnWidths)
		if widths == nil {
			widths = map[string]int{}
		}
		widths[a.ColID] = a.Width
		s.ColumnWidths = widths
		s.Revisions.Widths = nextRevision()

	case ReorderColumns:
		s.ColumnOrder = slices.Clone(a.Order)
		s.Revisions.Order = nextRevision()

	case PinColumn:
		pins := maps.Clone(s.PinnedColumns)
		if pins == nil {
			pins = map[string]columns.Pinned{}
		}
		if a.Side == columns.PinNone {
			delete(pins, a.ColID)
		} else {
			pins[a.ColID] = a.Side
		}
		s.PinnedColumns = pins
		s.Revisions.Pins = nextRevision()

	case ToggleColumnVisibility:
		s.HiddenColumns = s.HiddenColumns.toggled(a.ColID)
		s.Revisions.Hidden = nextRevision()

	case SetGroupConfiguration:
		s.Group = GroupConfiguration{
			GroupKeys:      slices.Clone(a.Config.GroupKeys),
			ExpandedGroups: a.Config.ExpandedGroups.Clone(),
		}
		s.Revisions.Group = nextRevision()

	case SetPivotConfiguration:
		s.Pivot = PivotConfiguration{
			RowGroupCols: slices.Clone(a.Config.RowGroupCols),
			PivotCols:    slices.Clone(a.Config.PivotCols),
			ValueCols:    slices.Clone(a.Config.ValueCols),
		}
		s.Revisions.Pivot = nextRevision()

	case ToggleGroupExpansion:
		s.ExpandedGroups = s.ExpandedGroups.toggled(a.Key)
		s.Revisions.Group = nextRevision()

	case TogglePivotMode:
		s.PivotMode = a.Enabled
		s.Revisions.Pivot = nextRevision()

	case SetAnalysisConfig:
		s.Analysis = normalizeAnalysis(a.Config)
		s.Revisions.Analysis = nextRevision()

	case SetLoading:
		s.Loading = a.Loading

	case SetError:
		s.Error = a.Message
	}
	return s
}

// normalizeAnalysis copies c and drops a contribution column that the
// configuration does not show.
func normalizeAnalysis(c *AnalysisConfig) *AnalysisConfig {
	if c == nil {
		return nil
	}
	out := &AnalysisConfig{
		VisibleColumns:     c.VisibleColumns.Clone(),
		Aggregations:       maps.Clone(c.Aggregations),
		ContributionColumn: c.ContributionColumn,
	}
	if !out.VisibleColumns.Has(out.ContributionColumn) {
		out.ContributionColumn = ""
	}
	return out
}
