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

package export

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/pipeline"
	"github.com/google/tabula/core/sorting"
	"github.com/google/tabula/core/state"
	"github.com/google/tabula/core/values"
)

func TestTable(t *testing.T) {
	defs := columns.Defs{
		{Field: "name", HeaderName: "Name", CellRenderer: columns.CellRendererFunc(func(v values.Value, _ columns.Row) string {
			return strings.ToUpper(v.String())
		})},
		{Field: "sal", HeaderName: "Salary", ValueFormatter: columns.ValueFormatterFunc(func(v values.Value, _ columns.Row) string {
			return "$" + v.String()
		})},
		{Field: "bonus", ValueGetter: columns.ValueGetterFunc(func(r columns.Row) values.Value {
			f, _ := values.ParseFloat(r.Get("sal"))
			return values.Number(f / 10)
		})},
		{Field: "dept"},
	}
	rows := []columns.Row{
		columns.NewRow(map[string]any{"name": "ann", "sal": 100, "dept": "Eng"}),
		columns.NewRow(map[string]any{"name": "bob", "sal": 250}),
	}
	s := state.New(defs, rows)
	s = state.Reduce(s, state.SetSortModel{Model: sorting.Model{{ColID: "sal", Direction: sorting.Desc}}})
	s = state.Reduce(s, state.ToggleRowSelection{ID: 0})
	v := pipeline.New().Run(s, 1)

	want := Grid{
		Headers: []string{"Name", "Salary", "bonus", "dept"},
		Rows: [][]string{
			{"BOB", "$250", "25", ""},
			{"ANN", "$100", "10", "Eng"},
		},
	}
	if diff := cmp.Diff(want, Table(v)); diff != "" {
		t.Errorf("Table mismatch (-want +got):\n%s", diff)
	}

	selected := Selected(v)
	if diff := cmp.Diff(want.Rows[1:], selected.Rows); diff != "" {
		t.Errorf("Selected mismatch (-want +got):\n%s", diff)
	}
}

func TestTableIncludesContribution(t *testing.T) {
	defs := columns.Defs{{Field: "k"}, {Field: "n", HeaderName: "Amount"}}
	var rows []columns.Row
	for i, n := range []int{1, 3} {
		rows = append(rows, columns.NewRow(map[string]any{"k": fmt.Sprint(i), "n": n}))
	}
	s := state.New(defs, rows)
	s = state.Reduce(s, state.SetAnalysisConfig{Config: &state.AnalysisConfig{VisibleColumns: state.NewSet("k", "n"), ContributionColumn: "n"}})

	g := Table(pipeline.New().Run(s, 1))
	if diff := cmp.Diff([]string{"k", "Amount", "% of Amount"}, g.Headers); diff != "" {
		t.Errorf("headers mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]string{{"0", "1", "25.00%"}, {"1", "3", "75.00%"}}, g.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}
