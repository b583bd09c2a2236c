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

package sorting

import (
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/values"
)

func column(rows []columns.Row, field string) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Get(field).String()
	}
	return out
}

func TestNullOrdering(t *testing.T) {
	defs := columns.Defs{{Field: "n", FilterType: columns.FilterNumber}}
	rows := []columns.Row{
		{"n": values.Number(5)},
		{"n": values.Null()},
		{"n": values.Number(1)},
	}

	asc := Apply(rows, Model{{ColID: "n", Direction: Asc}}, defs)
	assert.Equal(t, []string{"1", "5", ""}, column(asc, "n"))

	desc := Apply(rows, Model{{ColID: "n", Direction: Desc}}, defs)
	assert.Equal(t, []string{"", "5", "1"}, column(desc, "n"))
}

func TestStability(t *testing.T) {
	defs := columns.Defs{{Field: "dept"}, {Field: "id"}}
	rows := []columns.Row{
		columns.NewRow(map[string]any{"dept": "Sales", "id": "a"}),
		columns.NewRow(map[string]any{"dept": "Eng", "id": "b"}),
		columns.NewRow(map[string]any{"dept": "sales", "id": "c"}),
		columns.NewRow(map[string]any{"dept": "Eng", "id": "d"}),
		columns.NewRow(map[string]any{"dept": "eng", "id": "e"}),
	}

	for _, dir := range []Direction{Asc, Desc} {
		t.Run(dir.String(), func(t *testing.T) {
			got := Apply(rows, Model{{ColID: "dept", Direction: dir}}, defs)
			// Comparison is case-insensitive, so ties keep input order.
			want := []string{"b", "d", "e", "a", "c"}
			if dir == Desc {
				want = []string{"a", "c", "b", "d", "e"}
			}
			if diff := cmp.Diff(want, column(got, "id")); diff != "" {
				t.Errorf("order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMonotonicity(t *testing.T) {
	defs := columns.Defs{{Field: "v"}}
	rows := []columns.Row{
		{"v": values.Number(3)},
		{"v": values.Text("10")},
		{"v": values.Number(-2)},
		{"v": values.Text("beta")},
		{"v": values.Text("Alpha")},
		{"v": values.Bool(true)},
	}
	asc := column(Apply(rows, Model{{ColID: "v", Direction: Asc}}, defs), "v")
	desc := column(Apply(rows, Model{{ColID: "v", Direction: Desc}}, defs), "v")
	assert.Equal(t, []string{"-2", "true", "3", "10", "Alpha", "beta"}, asc)
	slices.Reverse(desc)
	assert.Equal(t, asc, desc)
}

func TestMultiColumnAndSkipping(t *testing.T) {
	defs := columns.Defs{{Field: "dept"}, {Field: "sal"}}
	rows := []columns.Row{
		columns.NewRow(map[string]any{"dept": "Eng", "sal": 100}),
		columns.NewRow(map[string]any{"dept": "Sales", "sal": 50}),
		columns.NewRow(map[string]any{"dept": "Eng", "sal": 200}),
	}
	model := Model{
		{ColID: "missing", Direction: Desc},
		{ColID: "dept", Direction: Asc},
		{ColID: "sal", Direction: Desc},
	}
	got := Apply(rows, model, defs)
	assert.Equal(t, []string{"200", "100", "50"}, column(got, "sal"))
}

func TestValueGetterAndComparator(t *testing.T) {
	byLength := columns.ComparatorFunc(func(a, b values.Value) int {
		return len(a.String()) - len(b.String())
	})
	defs := columns.Defs{
		{Field: "word", Comparator: byLength},
		{Field: "total", ValueGetter: columns.ValueGetterFunc(func(r columns.Row) values.Value {
			p, _ := values.ParseFloat(r.Get("price"))
			q, _ := values.ParseFloat(r.Get("qty"))
			return values.Number(p * q)
		})},
	}
	rows := []columns.Row{
		columns.NewRow(map[string]any{"word": "ccc", "price": 2, "qty": 10}),
		columns.NewRow(map[string]any{"word": "a", "price": 5, "qty": 1}),
		columns.NewRow(map[string]any{"word": "bb", "price": 1, "qty": 3}),
		columns.NewRow(map[string]any{"word": "zz", "price": 1, "qty": 1}),
	}

	byWord := Apply(rows, Model{{ColID: "word", Direction: Desc}}, defs)
	assert.Equal(t, []string{"ccc", "bb", "zz", "a"}, column(byWord, "word"))

	// Comparator ties fall through to the next sort entry.
	byWordThenTotal := Apply(rows, Model{{ColID: "word"}, {ColID: "total"}}, defs)
	assert.Equal(t, []string{"a", "zz", "bb", "ccc"}, column(byWordThenTotal, "word"))

	byTotal := Apply(rows, Model{{ColID: "total", Direction: Desc}}, defs)
	assert.Equal(t, []string{"ccc", "a", "bb", "zz"}, column(byTotal, "word"))
}

func TestDateColumn(t *testing.T) {
	defs := columns.Defs{{Field: "d", FilterType: columns.FilterDate}}
	rows := []columns.Row{
		{"d": values.Text("2021-03-01")},
		{"d": values.Text("garbage")},
		{"d": values.Text("Jan 2, 2020")},
	}
	got := Apply(rows, Model{{ColID: "d"}}, defs)
	assert.Equal(t, []string{"Jan 2, 2020", "2021-03-01", "garbage"}, column(got, "d"))
}

func TestApplyDoesNotMutate(t *testing.T) {
	defs := columns.Defs{{Field: "n"}}
	rows := []columns.Row{{"n": values.Number(2)}, {"n": values.Number(1)}}
	_ = Apply(rows, Model{{ColID: "n"}}, defs)
	assert.Equal(t, []string{"2", "1"}, column(rows, "n"))

	idx := []int{0, 1}
	_ = Indices(rows, idx, Model{{ColID: "n"}}, defs)
	assert.Equal(t, []int{0, 1}, idx)
}

func TestToggle(t *testing.T) {
	tests := []struct {
		name  string
		model Model
		col   string
		multi bool
		want  string
	}{
		{"plain from none", Model{}, "a", false, "a:asc"},
		{"plain asc to desc", Model{{"a", Asc}}, "a", false, "a:desc"},
		{"plain desc to none", Model{{"a", Desc}}, "a", false, ""},
		{"plain replaces others", Model{{"b", Asc}, {"c", Desc}}, "a", false, "a:asc"},
		{"multi adds first", Model{{"b", Asc}}, "a", true, "a:asc,b:asc"},
		{"multi asc to desc moves first", Model{{"b", Asc}, {"a", Asc}}, "a", true, "a:desc,b:asc"},
		{"multi desc removes", Model{{"b", Asc}, {"a", Desc}, {"c", Asc}}, "a", true, "b:asc,c:asc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.model.Toggle(tt.col, tt.multi)
			assert.Equal(t, tt.want, got.String())
			assert.NoError(t, got.Validate())
		})
	}
}

func TestParseModel(t *testing.T) {
	m, err := ParseModel("sal:desc, dept")
	require.NoError(t, err)
	assert.Equal(t, Model{{"sal", Desc}, {"dept", Asc}}, m)

	_, err = ParseModel("a,a:desc")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "duplicate"))

	_, err = ParseModel("a:sideways")
	assert.Error(t, err)
}
