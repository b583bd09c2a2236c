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

package views

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/google/tabula/core/aggregates"
	"github.com/google/tabula/core/pipeline"
	"github.com/google/tabula/core/state"
	"github.com/google/tabula/core/values"
)

// PivotStats counts the columns in each pivot role.
type PivotStats struct {
	RowGroups int
	Pivots    int
	Values    int
}

// ColumnSum is the sum of a value column over the selected rows.
type ColumnSum struct {
	Header string
	Sum    float64
}

// StatusSummary is the content of the grid's status bar.
type StatusSummary struct {
	TotalRows      int
	DisplayedRows  int
	VisibleColumns int
	TotalColumns   int
	Selected       int
	ActiveFilters  int
	// Pivot is set only in pivot mode.
	Pivot        *PivotStats
	SelectedSums []ColumnSum
}

// Status builds the status bar for s and its processed view v. Selected
// sums cover every value-enabled column; cells that do not parse count as 0.
func Status(s state.State, v *pipeline.View) StatusSummary {
	sum := StatusSummary{
		TotalRows:     len(s.RowData),
		DisplayedRows: len(v.Rows),
		TotalColumns:  len(s.ColumnDefs),
		Selected:      len(s.SelectedRows),
		ActiveFilters: s.FilterModel.Active(),
	}
	for _, cd := range s.ColumnDefs {
		if cd != nil && !s.HiddenColumns.Has(cd.Field) {
			sum.VisibleColumns++
		}
	}
	if s.PivotMode {
		sum.Pivot = &PivotStats{
			RowGroups: len(s.Pivot.RowGroupCols),
			Pivots:    len(s.Pivot.PivotCols),
			Values:    len(s.Pivot.ValueCols),
		}
	}
	if len(s.SelectedRows) == 0 {
		return sum
	}
	for _, cd := range s.ColumnDefs {
		if cd == nil || !cd.EnableValue {
			continue
		}
		total := 0.0
		for _, id := range s.SelectedRows.Sorted() {
			if id < 0 || id >= len(s.RowData) {
				continue
			}
			if f, ok := values.ParseFloat(s.RowData[id].Get(cd.Field)); ok {
				total += f
			}
		}
		sum.SelectedSums = append(sum.SelectedSums, ColumnSum{Header: cd.DisplayName(), Sum: total})
	}
	return sum
}

// DefaultPrinter formats numbers with English digit grouping.
func DefaultPrinter() *message.Printer {
	return message.NewPrinter(language.English)
}

// Format renders the summary as a single status line.
func (s StatusSummary) Format(p *message.Printer) string {
	if p == nil {
		p = DefaultPrinter()
	}
	parts := []string{
		p.Sprintf("Rows: %d", s.TotalRows),
		p.Sprintf("Cols: %d/%d", s.VisibleColumns, s.TotalColumns),
	}
	if s.DisplayedRows != s.TotalRows {
		parts = append(parts, p.Sprintf("Showing: %d", s.DisplayedRows))
	}
	if s.Selected > 0 {
		parts = append(parts, p.Sprintf("Selected: %d", s.Selected))
	}
	if s.ActiveFilters > 0 {
		parts = append(parts, p.Sprintf("Filters: %d", s.ActiveFilters))
	}
	if s.Pivot != nil {
		parts = append(parts, p.Sprintf("Pivot: RG %d | P %d | V %d", s.Pivot.RowGroups, s.Pivot.Pivots, s.Pivot.Values))
	}
	for _, cs := range s.SelectedSums {
		parts = append(parts, cs.Header+" Σ "+formatSum(p, cs.Sum))
	}
	return strings.Join(parts, "  ")
}

func formatSum(p *message.Printer, f float64) string {
	if f == float64(int64(f)) {
		return p.Sprintf("%d", int64(f))
	}
	return p.Sprintf("%.2f", f)
}

// SummaryLine is one aggregate in the analysis summary.
type SummaryLine struct {
	Field  string
	Header string
	Type   string
	Value  string
}

// AnalysisSummary lists each requested aggregate of v in field order,
// followed by the contribution total when it was not requested. Fields with
// no numeric data show "no data".
func AnalysisSummary(s state.State, v *pipeline.View) []SummaryLine {
	spec, contribution := pipeline.AggregationSpec(s)
	header := func(field string) string {
		if cd := s.ColumnDefs.Find(field); cd != nil {
			return cd.DisplayName()
		}
		return field
	}

	var lines []SummaryLine
	for _, field := range spec.Fields() {
		line := SummaryLine{Field: field, Header: header(field), Type: spec[field].String(), Value: "no data"}
		if val, ok := v.Analysis.Aggregates[field]; ok {
			line.Value = aggregates.FormatNumber(val)
		}
		lines = append(lines, line)
	}
	if _, requested := spec[contribution]; contribution != "" && !requested && v.Analysis.HasContribution {
		lines = append(lines, SummaryLine{
			Field:  contribution,
			Header: header(contribution),
			Type:   "sum",
			Value:  aggregates.FormatNumber(v.Analysis.ContributionTotal),
		})
	}
	return lines
}
