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

package pipeline

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/tabula/core/aggregates"
	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/filters"
	"github.com/google/tabula/core/sorting"
	"github.com/google/tabula/core/state"
)

func employeeDefs() columns.Defs {
	return columns.Defs{
		{Field: "dept", FilterType: columns.FilterSet, Filter: true, Sortable: true},
		{Field: "sal", FilterType: columns.FilterNumber, Filter: true, Sortable: true},
	}
}

func employeeRows() []columns.Row {
	return []columns.Row{
		columns.NewRow(map[string]any{"dept": "Eng", "sal": 100}),
		columns.NewRow(map[string]any{"dept": "Eng", "sal": 200}),
		columns.NewRow(map[string]any{"dept": "Sales", "sal": 50}),
	}
}

func salaries(v *View) []string {
	out := make([]string, len(v.Rows))
	for i, r := range v.Rows {
		out[i] = r.Row.Get("sal").String()
	}
	return out
}

func TestEndToEnd(t *testing.T) {
	s := state.New(employeeDefs(), employeeRows())
	s = state.Reduce(s, state.SetFilterModel{Model: filters.Model{"dept": filters.NewSetFilter("Eng")}})
	s = state.Reduce(s, state.SetSortModel{Model: sorting.Model{{ColID: "sal", Direction: sorting.Desc}}})
	s = state.Reduce(s, state.SetAnalysisConfig{Config: &state.AnalysisConfig{
		VisibleColumns: state.NewSet("dept", "sal"),
		Aggregations:   aggregates.Spec{"sal": columns.AggSum},
	}})

	v := New().Run(s, 1)

	assert.Equal(t, []string{"200", "100"}, salaries(v))
	assert.Equal(t, []int{1, 0}, []int{v.Rows[0].ID, v.Rows[1].ID})
	assert.Equal(t, []int{0, 1}, []int{v.Rows[0].Index, v.Rows[1].Index})
	assert.Equal(t, aggregates.Aggregates{"sal": 300}, v.Analysis.Aggregates)
	assert.Equal(t, 3, v.TotalRows)
	assert.Len(t, v.Columns, 2)
}

func TestFilterPrecedesSort(t *testing.T) {
	rows := []columns.Row{
		columns.NewRow(map[string]any{"dept": "b", "sal": "7"}),
		columns.NewRow(map[string]any{"dept": "a", "sal": 3}),
		columns.NewRow(map[string]any{"dept": "c", "sal": "n/a"}),
		columns.NewRow(map[string]any{"dept": "a", "sal": 9}),
		columns.NewRow(map[string]any{"dept": "b", "sal": nil}),
		columns.NewRow(map[string]any{"dept": "a", "sal": 1}),
	}
	defs := employeeDefs()
	fm := filters.Model{
		"dept": filters.NewSetFilter("a", "b"),
		"sal":  filters.NumberFilter{Condition: filters.NumGreaterThan, Value: filters.Float(2)},
	}
	sm := sorting.Model{{ColID: "dept"}, {ColID: "sal", Direction: sorting.Desc}}

	s := state.New(defs, rows)
	s = state.Reduce(s, state.SetFilterModel{Model: fm})
	s = state.Reduce(s, state.SetSortModel{Model: sm})

	want := sorting.Apply(filters.Apply(rows, fm, defs), sm, defs)
	got := New().Run(s, 1).Data()
	if diff := cmp.Diff(want, got, cmp.Comparer(func(a, b columns.Row) bool {
		return a.Get("dept").Equal(b.Get("dept")) && a.Get("sal").Equal(b.Get("sal"))
	})); diff != "" {
		t.Errorf("pipeline output mismatch (-want +got):\n%s", diff)
	}
}

func TestStagesRecomputeOnlyOnChange(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)
	p := New(WithMetrics(m))

	stages := []string{StageFilter, StageSort, StageAggregate, StageColumns}
	counts := func() map[string]float64 {
		out := map[string]float64{}
		for _, stage := range stages {
			for _, result := range []string{"hit", "miss"} {
				out[stage+"/"+result] = testutil.ToFloat64(m.runs.WithLabelValues(stage, result))
			}
		}
		return out
	}
	// run reports which stages recomputed during one Run.
	run := func(s state.State, zoom float64) (*View, []string) {
		before := counts()
		v := p.Run(s, zoom)
		after := counts()
		var missed []string
		for _, stage := range stages {
			if after[stage+"/miss"] > before[stage+"/miss"] {
				missed = append(missed, stage)
			} else {
				assert.Equal(t, before[stage+"/hit"]+1, after[stage+"/hit"], "stage %s", stage)
			}
		}
		return v, missed
	}

	s := state.New(employeeDefs(), employeeRows())
	_, missed := run(s, 1)
	assert.Equal(t, stages, missed)
	_, missed = run(s, 1)
	assert.Empty(t, missed)

	// Sorting leaves filtering and aggregation cached.
	s = state.Reduce(s, state.SetSortModel{Model: sorting.Model{{ColID: "sal"}}})
	_, missed = run(s, 1)
	assert.Equal(t, []string{StageSort}, missed)

	// Selection and loading feed no stage.
	s = state.Reduce(s, state.ToggleRowSelection{ID: 1})
	s = state.Reduce(s, state.SetLoading{Loading: true})
	v, missed := run(s, 1)
	assert.Empty(t, missed)
	assert.Equal(t, []int{1}, v.Selection)

	// Zoom only affects column layout.
	v, missed = run(s, 2)
	assert.Equal(t, []string{StageColumns}, missed)
	assert.Equal(t, 2*columns.DefaultWidth, v.Columns[0].Width)

	// Replacing rows invalidates everything downstream.
	s = state.Reduce(s, state.SetRowData{Rows: employeeRows()[:2]})
	v, missed = run(s, 2)
	assert.Equal(t, stages, missed)
	assert.Len(t, v.Rows, 2)
}

func TestContributionColumn(t *testing.T) {
	s := state.New(employeeDefs(), employeeRows())
	s = state.Reduce(s, state.SetAnalysisConfig{Config: &state.AnalysisConfig{
		VisibleColumns:     state.NewSet("dept", "sal"),
		ContributionColumn: "sal",
	}})
	v := New().Run(s, 1)

	require.Len(t, v.Columns, 3)
	contrib := v.Columns[2]
	assert.Equal(t, state.ContributionColID, contrib.Def.Field)
	assert.Equal(t, 350.0, v.Analysis.ContributionTotal)
	assert.Equal(t, "57.14%", contrib.Def.DisplayValue(v.Rows[1].Row))
}

func TestAggregationSpec(t *testing.T) {
	defs := columns.Defs{
		{Field: "a", EnableValue: true, AggregationFunction: columns.AggAvg},
		{Field: "b", EnableValue: true, AggregationFunction: columns.AggSum},
		{Field: "c", AggregationFunction: columns.AggMax},
	}
	s := state.New(defs, nil)

	spec, contribution := AggregationSpec(s)
	assert.Equal(t, aggregates.Spec{"a": columns.AggAvg, "b": columns.AggSum}, spec)
	assert.Empty(t, contribution)

	s = state.Reduce(s, state.SetAnalysisConfig{Config: &state.AnalysisConfig{
		VisibleColumns:     state.NewSet("a", "b", "c"),
		Aggregations:       aggregates.Spec{"a": columns.AggMin, "b": columns.AggNone},
		ContributionColumn: "a",
	}})
	spec, contribution = AggregationSpec(s)
	assert.Equal(t, aggregates.Spec{"a": columns.AggMin}, spec)
	assert.Equal(t, "a", contribution)

	// Declared column aggregations do not leak into an analysis.
	s = state.Reduce(s, state.SetAnalysisConfig{Config: &state.AnalysisConfig{
		VisibleColumns: state.NewSet("a", "b"),
		Aggregations:   aggregates.Spec{"c": columns.AggMax},
	}})
	spec, _ = AggregationSpec(s)
	assert.Equal(t, aggregates.Spec{"c": columns.AggMax}, spec)
}

func TestNewMetricsRejectsDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics(reg)
	require.NoError(t, err)
	_, err = NewMetrics(reg)
	assert.Error(t, err)
}
