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
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/filters"
	"github.com/google/tabula/core/pipeline"
	"github.com/google/tabula/core/query"
	"github.com/google/tabula/core/sorting"
	"github.com/google/tabula/core/state"
)

func gridState(t *testing.T, actions ...state.Action) state.State {
	t.Helper()
	defs := columns.Defs{
		{Field: "name", HeaderName: "Name", FilterType: columns.FilterText, Sortable: true},
		{Field: "dept", HeaderName: "Dept", FilterType: columns.FilterSet, Sortable: true},
		{Field: "sal", HeaderName: "Salary", FilterType: columns.FilterNumber, Sortable: true, EnableValue: true, AggregationFunction: columns.AggSum},
		{Field: "notes", Hide: true},
	}
	rows := []columns.Row{
		columns.NewRow(map[string]any{"name": "Ann", "dept": "Eng", "sal": 100}),
		columns.NewRow(map[string]any{"name": "Bob", "dept": "Eng", "sal": 200}),
		columns.NewRow(map[string]any{"name": "Cy", "dept": "Ops", "sal": "x"}),
		columns.NewRow(map[string]any{"name": "Di", "dept": "Eng", "sal": 50}),
	}
	s := state.New(defs, rows)
	for _, a := range actions {
		s = state.Reduce(s, a)
	}
	return s
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name              string
		total, page, size int
		want              Page
	}{
		{"empty", 0, 1, 25, Page{Page: 1, Size: 25, TotalPages: 1, Numbers: []int{1}}},
		{"middle", 101, 3, 25, Page{Page: 3, Size: 25, TotalPages: 5, TotalRows: 101, Start: 51, End: 75, Numbers: []int{1, 2, 3, 4, 5}}},
		{"last partial", 101, 5, 25, Page{Page: 5, Size: 25, TotalPages: 5, TotalRows: 101, Start: 101, End: 101, Numbers: []int{1, 2, 3, 4, 5}}},
		{"clamped", 30, 9, 10, Page{Page: 3, Size: 10, TotalPages: 3, TotalRows: 30, Start: 21, End: 30, Numbers: []int{1, 2, 3}}},
		{"all rows", 42, 2, 0, Page{Page: 1, Size: 42, TotalPages: 1, TotalRows: 42, Start: 1, End: 42, Numbers: []int{1}}},
		{"window centred", 1000, 10, 10, Page{Page: 10, Size: 10, TotalPages: 100, TotalRows: 1000, Start: 91, End: 100, Numbers: []int{7, 8, 9, 10, 11, 12, 13}}},
		{"window at end", 1000, 100, 10, Page{Page: 100, Size: 10, TotalPages: 100, TotalRows: 1000, Start: 991, End: 1000, Numbers: []int{94, 95, 96, 97, 98, 99, 100}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Paginate(tt.total, tt.page, tt.size)); diff != "" {
				t.Errorf("Paginate(%d, %d, %d) mismatch (-want +got):\n%s", tt.total, tt.page, tt.size, diff)
			}
		})
	}

	p := Paginate(101, 3, 25)
	from, to := p.Bounds()
	assert.Equal(t, 50, from)
	assert.Equal(t, 75, to)
	assert.True(t, p.HasPrev())
	assert.True(t, p.HasNext())
}

func TestWindow(t *testing.T) {
	assert.Equal(t, 18, ScaledRowHeight(28, 0.5))
	assert.Equal(t, 42, ScaledRowHeight(28, 1.5))
	assert.Equal(t, 28, ScaledRowHeight(28, 0))

	w := Window(100, 0, 280, 28, 1, 0)
	assert.Equal(t, RowWindow{First: 0, Last: 10, RowHeight: 28, Offset: 0, TotalHeight: 2800}, w)

	w = Window(100, 280, 280, 28, 1, 2)
	assert.Equal(t, RowWindow{First: 8, Last: 22, RowHeight: 28, Offset: 224, TotalHeight: 2800}, w)

	w = Window(5, 1000, 280, 28, 1, 0)
	assert.Equal(t, 5, w.First)
	assert.Equal(t, 5, w.Last)

	assert.Equal(t, RowWindow{RowHeight: 28}, Window(0, 0, 280, 28, 1, -1))
}

func TestStatus(t *testing.T) {
	s := gridState(t,
		state.SetFilterModel{Model: filters.Model{"dept": filters.NewSetFilter("Eng")}},
		state.ToggleRowSelection{ID: 0},
		state.ToggleRowSelection{ID: 2},
	)
	v := pipeline.New().Run(s, 1)

	got := Status(s, v)
	want := StatusSummary{
		TotalRows:      4,
		DisplayedRows:  3,
		VisibleColumns: 3,
		TotalColumns:   4,
		Selected:       2,
		ActiveFilters:  1,
		SelectedSums:   []ColumnSum{{Header: "Salary", Sum: 100}},
	}
	assert.Equal(t, want, got)
	assert.Equal(t, "Rows: 4  Cols: 3/4  Showing: 3  Selected: 2  Filters: 1  Salary Σ 100", got.Format(nil))
}

func TestStatusFormat(t *testing.T) {
	s := StatusSummary{
		TotalRows:      1234,
		DisplayedRows:  1234,
		VisibleColumns: 2,
		TotalColumns:   2,
		Pivot:          &PivotStats{RowGroups: 1, Values: 2},
		SelectedSums:   []ColumnSum{{Header: "Salary", Sum: 1234.5}},
	}
	assert.Equal(t, "Rows: 1,234  Cols: 2/2  Pivot: RG 1 | P 0 | V 2  Salary Σ 1,234.50", s.Format(DefaultPrinter()))
}

func TestStatusPivotMode(t *testing.T) {
	s := gridState(t,
		state.TogglePivotMode{Enabled: true},
		state.SetPivotConfiguration{Config: state.PivotConfiguration{RowGroupCols: []string{"dept"}, ValueCols: []string{"sal"}}},
	)
	got := Status(s, pipeline.New().Run(s, 1))
	require.NotNil(t, got.Pivot)
	assert.Equal(t, PivotStats{RowGroups: 1, Values: 1}, *got.Pivot)
}

func TestAnalysisSummary(t *testing.T) {
	t.Run("declared aggregation", func(t *testing.T) {
		s := gridState(t)
		got := AnalysisSummary(s, pipeline.New().Run(s, 1))
		assert.Equal(t, []SummaryLine{{Field: "sal", Header: "Salary", Type: "sum", Value: "350"}}, got)
	})

	t.Run("override and missing data", func(t *testing.T) {
		s := gridState(t, state.SetAnalysisConfig{Config: &state.AnalysisConfig{
			Aggregations: map[string]columns.AggregationType{"sal": columns.AggAvg, "notes": columns.AggMax},
		}})
		got := AnalysisSummary(s, pipeline.New().Run(s, 1))
		assert.Equal(t, []SummaryLine{
			{Field: "notes", Header: "notes", Type: "max", Value: "no data"},
			{Field: "sal", Header: "Salary", Type: "avg", Value: "116.67"},
		}, got)
	})

	t.Run("contribution total", func(t *testing.T) {
		s := gridState(t, state.SetAnalysisConfig{Config: &state.AnalysisConfig{
			VisibleColumns:     state.NewSet("name", "sal"),
			Aggregations:       map[string]columns.AggregationType{"sal": columns.AggNone},
			ContributionColumn: "sal",
		}})
		got := AnalysisSummary(s, pipeline.New().Run(s, 1))
		assert.Equal(t, []SummaryLine{{Field: "sal", Header: "Salary", Type: "sum", Value: "350"}}, got)
	})
}

func TestBuildGridViewModel(t *testing.T) {
	s := gridState(t,
		state.SetSortModel{Model: sorting.Model{{ColID: "sal", Direction: sorting.Asc}}},
		state.PinColumn{ColID: "sal", Side: columns.PinLeft},
		state.ToggleRowSelection{ID: 3},
		state.SetFilterModel{Model: filters.Model{"name": filters.TextFilter{Condition: filters.NotContains, Value: "z"}}},
	)
	u, err := url.Parse("/grid?size=2&page=1")
	require.NoError(t, err)
	q := query.NewQuery(u)

	vm := BuildGridViewModel("Employees", s, pipeline.New().Run(s, q.Zoom), q, nil)

	assert.Equal(t, "Employees", vm.Title)
	var names []string
	for _, h := range vm.Headers {
		names = append(names, h.Name)
	}
	assert.Equal(t, []string{"Salary", "Name", "Dept"}, names)
	assert.Equal(t, "left", vm.Headers[0].Pinned)
	assert.Equal(t, "▲", vm.Headers[0].SortIndicator)
	assert.Contains(t, vm.Headers[0].SortURL.String(), "sort=sal")

	require.Len(t, vm.Rows, 2)
	assert.Equal(t, RowView{ID: 3, Selected: true, Cells: []string{"50", "Di", "Eng"}}, vm.Rows[0])
	assert.Equal(t, RowView{ID: 0, Cells: []string{"100", "Ann", "Eng"}}, vm.Rows[1])

	assert.Equal(t, 2, vm.Page.TotalPages)
	assert.Len(t, vm.PageLinks, 2)
	assert.True(t, vm.PageLinks[0].Current)
	assert.Empty(t, vm.PrevURL.String())
	assert.Contains(t, vm.NextURL.String(), "page=2")

	require.Len(t, vm.Filters, 1)
	assert.Equal(t, "notContains:z", vm.Filters[0].Value)
	assert.NotContains(t, vm.Filters[0].ClearURL.String(), "filter")

	require.Len(t, vm.Columns, 4)
	assert.False(t, vm.Columns[3].Visible)
	assert.True(t, strings.Contains(vm.Columns[3].ToggleURL.String(), "hidden="))
	assert.Equal(t, 28, vm.RowHeight)
	assert.True(t, strings.HasPrefix(vm.Status, "Rows: 4"))
}
