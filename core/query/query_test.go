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

package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/filters"
	"github.com/google/tabula/core/state"
)

func mustParse(t *testing.T, raw string) *Query {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return NewQuery(u)
}

func baseState() state.State {
	defs := columns.Defs{
		{Field: "name", FilterType: columns.FilterText},
		{Field: "dept", FilterType: columns.FilterSet, EnableRowGroup: true},
		{Field: "sal", FilterType: columns.FilterNumber},
		{Field: "hired", FilterType: columns.FilterDate},
		{Field: "notes", Hide: true},
	}
	return state.New(defs, nil)
}

func apply(t *testing.T, q *Query) state.State {
	t.Helper()
	base := baseState()
	actions, err := q.Actions(base)
	require.NoError(t, err)
	s := base
	for _, a := range actions {
		s = state.Reduce(s, a)
	}
	return s
}

func TestNewQuery(t *testing.T) {
	q := mustParse(t, "/grid?sort=sal:desc,name&columns=sal:120,name,bad:x&hidden=&page=3&size=10&zoom=1.25&filter:name=ann&pin:sal=left&agg:sal=sum&contribution=sal&selected=2,x,0")

	assert.Equal(t, "/grid", q.Path)
	assert.Equal(t, "sal:desc,name", q.Sort)
	assert.Equal(t, []string{"sal", "name", "bad:x"}, q.Columns)
	assert.Equal(t, map[string]int{"sal": 120}, q.ColumnWidths)
	assert.NotNil(t, q.Hidden)
	assert.Empty(t, q.Hidden)
	assert.Equal(t, 3, q.Page)
	assert.Equal(t, 10, q.Size)
	assert.Equal(t, 1.25, q.Zoom)
	assert.Equal(t, map[string]string{"name": "ann"}, q.Filters)
	assert.Equal(t, map[string]string{"sal": "left"}, q.Pins)
	assert.Equal(t, map[string]string{"sal": "sum"}, q.Aggregations)
	assert.Equal(t, []int{2, 0}, q.Selected)
}

func TestNewQueryDefaults(t *testing.T) {
	q := mustParse(t, "/grid?page=0&size=-1&zoom=abc")
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, DefaultPageSize, q.Size)
	assert.Equal(t, 1.0, q.Zoom)
	assert.Nil(t, q.Hidden)
}

func TestActions(t *testing.T) {
	q := mustParse(t, "/grid?sort=sal:desc&columns=sal:30,name&hidden=name"+
		"&filter:name=startsWith:a&filter:dept=in:Eng|Ops&filter:sal=range:10..&filter:hired=after:2020-01-01"+
		"&pin:name=right&analysis=sal,name&agg:sal=avg&contribution=sal&selected=1")
	s := apply(t, q)

	assert.Equal(t, "sal:desc", s.SortModel.String())
	assert.Equal(t, []string{"sal", "name"}, s.ColumnOrder)
	assert.Equal(t, state.MinColumnWidth, s.ColumnWidths["sal"])
	assert.Equal(t, []string{"name"}, s.HiddenColumns.Sorted())
	assert.Equal(t, columns.PinRight, s.PinnedColumns["name"])
	assert.Equal(t, []int{1}, s.SelectedRows.Sorted())

	assert.Equal(t, filters.TextFilter{Condition: filters.StartsWith, Value: "a"}, s.FilterModel["name"])
	assert.Equal(t, []string{"Eng", "Ops"}, s.FilterModel["dept"].(filters.SetFilter).Selected())
	nf := s.FilterModel["sal"].(filters.NumberFilter)
	assert.Equal(t, filters.NumInRange, nf.Condition)
	assert.Equal(t, 10.0, *nf.From)
	assert.Nil(t, nf.To)
	assert.Equal(t, filters.DateFilter{Condition: filters.DateAfter, Value: "2020-01-01"}, s.FilterModel["hired"])

	require.NotNil(t, s.Analysis)
	assert.Equal(t, "sal", s.Analysis.ContributionColumn)
	assert.Equal(t, columns.AggAvg, s.Analysis.Aggregations["sal"])
}

func TestAggregationsWithoutSubsetKeepColumns(t *testing.T) {
	s := apply(t, mustParse(t, "/grid?agg:sal=sum&contribution=sal"))
	require.NotNil(t, s.Analysis)
	assert.Equal(t, []string{"dept", "hired", "name", "notes", "sal"}, s.Analysis.VisibleColumns.Sorted())
	assert.Equal(t, "sal", s.Analysis.ContributionColumn)
	assert.Equal(t, columns.AggSum, s.Analysis.Aggregations["sal"])
}

func TestActionsErrors(t *testing.T) {
	q := mustParse(t, "/grid?sort=a:up&filter:ghost=x&filter:sal=around:3&filter:dept=eq:1&pin:name=top&agg:sal=median&filter:notes=x")
	_, err := q.Actions(baseState())
	require.Error(t, err)
	for _, want := range []string{"sort", "ghost", `filter "sal"`, `filter "dept"`, `pin "name"`, `aggregation "sal"`, `filter "notes"`} {
		assert.ErrorContains(t, err, want)
	}
}

func TestGroupActions(t *testing.T) {
	s := apply(t, mustParse(t, "/grid?group=dept&expanded=Eng,Eng/Berlin"))
	assert.Equal(t, []string{"dept"}, s.Group.GroupKeys)
	assert.Equal(t, []string{"Eng", "Eng/Berlin"}, s.Group.ExpandedGroups.Sorted())

	s = apply(t, mustParse(t, "/grid?group="))
	assert.Empty(t, s.Group.GroupKeys)

	_, err := mustParse(t, "/grid?group=dept,name,ghost").Actions(baseState())
	assert.ErrorContains(t, err, `group "name": column does not allow row grouping`)
	assert.ErrorContains(t, err, `group "ghost": unknown column`)
}

func TestHiddenResetsToRequested(t *testing.T) {
	s := apply(t, mustParse(t, "/grid?hidden="))
	assert.Empty(t, s.HiddenColumns)

	s = apply(t, mustParse(t, "/grid"))
	assert.True(t, s.HiddenColumns.Has("notes"))
}

func TestParseFilterRoundTrip(t *testing.T) {
	tests := []struct {
		ft  columns.FilterType
		raw string
	}{
		{columns.FilterText, "notContains:x"},
		{columns.FilterNumber, "gte:2.5"},
		{columns.FilterNumber, "range:..7"},
		{columns.FilterDate, "between:2020-01-01..2020-12-31"},
		{columns.FilterDate, "on:2021-05-05"},
		{columns.FilterSet, "in:a|b"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			f, err := ParseFilter(tt.ft, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.raw, FormatFilter(f))
		})
	}

	f, err := ParseFilter(columns.FilterText, "ann")
	require.NoError(t, err)
	assert.Equal(t, "contains:ann", FormatFilter(f))

	f, err = ParseFilter(columns.FilterText, "time:12:30")
	require.NoError(t, err)
	assert.Equal(t, filters.TextFilter{Condition: filters.Contains, Value: "time:12:30"}, f)

	_, err = ParseFilter(columns.FilterNumber, "range:5")
	assert.Error(t, err)
	_, err = ParseFilter(columns.FilterNumber, "gt:abc")
	assert.Error(t, err)
}

func TestURLRoundTrip(t *testing.T) {
	q := mustParse(t, "/grid?sort=sal:desc&columns=sal:120,name&hidden=notes&filter:name=contains:a&pin:sal=left&page=2&size=50&zoom=2&selected=1,3&group=dept&expanded=Eng,Ops")
	again := mustParse(t, q.ToURL())
	assert.Equal(t, q, again)
}

func TestWithHelpers(t *testing.T) {
	q := mustParse(t, "/grid?sort=sal:asc&page=4&filter:name=contains:a")

	next := mustParse(t, q.WithSortToggled("sal", false).String())
	assert.Equal(t, "sal:desc", next.Sort)
	assert.Equal(t, 1, next.Page)

	next = mustParse(t, q.WithSortToggled("name", true).String())
	assert.Equal(t, "name:asc,sal:asc", next.Sort)

	next = mustParse(t, q.WithFilter("name", "").String())
	assert.Empty(t, next.Filters)

	next = mustParse(t, q.WithColumnHiddenToggled("notes", []string{"notes"}).String())
	assert.NotNil(t, next.Hidden)
	assert.Empty(t, next.Hidden)

	next = mustParse(t, q.WithPage(0).String())
	assert.Equal(t, 1, next.Page)
	next = mustParse(t, q.WithSize(100).String())
	assert.Equal(t, 100, next.Size)
	assert.Equal(t, 1, next.Page)

	// The original query is untouched.
	assert.Equal(t, "sal:asc", q.Sort)
	assert.Equal(t, 4, q.Page)
}
