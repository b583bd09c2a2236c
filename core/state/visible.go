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
	"math"

	"github.com/google/tabula/core/aggregates"
	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/values"
)

const (
	// ContributionColID is the field of the synthetic contribution column.
	ContributionColID = "__contribution__"
	// ContributionWidth is the contribution column's base width.
	ContributionWidth = 120
	// MinColumnWidth is the smallest base width a resize may store.
	MinColumnWidth = 50
)

// VisibleColumn is a column as laid out for display.
type VisibleColumn struct {
	Def *columns.ColumnDef
	// Width is the display width: the base width scaled by zoom.
	Width  int
	Pinned columns.Pinned
	// Synthetic marks columns that do not exist in the row data.
	Synthetic bool
}

// ScaleWidth applies zoom to a base width. A non-positive zoom means 1.
func ScaleWidth(base int, zoom float64) int {
	if zoom <= 0 {
		zoom = 1
	}
	return int(math.Round(float64(base) * zoom))
}

// BaseWidth converts a width measured on screen at zoom back to the base
// width stored in state, never below MinColumnWidth.
func BaseWidth(displayed int, zoom float64) int {
	if zoom <= 0 {
		zoom = 1
	}
	return max(MinColumnWidth, int(math.Round(float64(displayed)/zoom)))
}

// ContributionDef builds the read-only column showing each row's share of
// field's total. header is the source column's display name.
func ContributionDef(field, header string, total float64) *columns.ColumnDef {
	return &columns.ColumnDef{
		Field:      ContributionColID,
		HeaderName: "% of " + header,
		Width:      ContributionWidth,
		ValueFormatter: columns.ValueFormatterFunc(func(_ values.Value, row columns.Row) string {
			return aggregates.ContributionPercent(row.Get(field), total)
		}),
	}
}

// VisibleColumns derives the displayed columns from s: the column order
// mapped to definitions, without hidden columns, narrowed to the analysis
// configuration's columns when one is active. The contribution column is
// appended when the configuration names one and analysis has a usable total
// for it. s is not modified.
func VisibleColumns(s State, analysis aggregates.Analysis, zoom float64) []VisibleColumn {
	index := s.ColumnDefs.Index()
	out := make([]VisibleColumn, 0, len(s.ColumnOrder)+1)
	for _, field := range s.ColumnOrder {
		cd, ok := index[field]
		if !ok || s.HiddenColumns.Has(field) {
			continue
		}
		if s.Analysis != nil && !s.Analysis.VisibleColumns.Has(field) {
			continue
		}
		base, ok := s.ColumnWidths[field]
		if !ok {
			base = cd.DefaultWidth()
		}
		out = append(out, VisibleColumn{
			Def:    cd,
			Width:  ScaleWidth(base, zoom),
			Pinned: s.PinnedColumns[field],
		})
	}

	if s.Analysis == nil || s.Analysis.ContributionColumn == "" {
		return out
	}
	field := s.Analysis.ContributionColumn
	if analysis.ContributionField != field || !analysis.ContributionUsable() {
		return out
	}
	header := field
	if cd, ok := index[field]; ok {
		header = cd.DisplayName()
	}
	out = append(out, VisibleColumn{
		Def:       ContributionDef(field, header, analysis.ContributionTotal),
		Width:     ScaleWidth(ContributionWidth, zoom),
		Synthetic: true,
	})
	return out
}

// SplitPinned partitions cols into left-pinned, unpinned and right-pinned
// sections, keeping their order within each section.
func SplitPinned(cols []VisibleColumn) (left, center, right []VisibleColumn) {
	for _, c := range cols {
		switch c.Pinned {
		case columns.PinLeft:
			left = append(left, c)
		case columns.PinRight:
			right = append(right, c)
		default:
			center = append(center, c)
		}
	}
	return left, center, right
}
