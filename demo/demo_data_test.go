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

package demo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/csvimport"
	"github.com/google/tabula/core/pipeline"
	"github.com/google/tabula/core/sorting"
	"github.com/google/tabula/core/state"
	"github.com/google/tabula/datasources"
)

func TestEmployees(t *testing.T) {
	res, err := Employees()
	require.NoError(t, err)
	require.NoError(t, res.Defs.Validate())

	assert.Len(t, res.Rows, 40)
	assert.Equal(t, []string{
		"id", "name", "department", "title", "city", "salary", "bonus",
		"total_comp", "start_date", "rating", "remote", "notes",
	}, res.Defs.Fields())

	assert.Equal(t, columns.PinLeft, res.Defs.Find("name").Pinned)
	assert.Equal(t, columns.FilterDate, res.Defs.Find("start_date").FilterType)
	assert.Equal(t, columns.FilterSet, res.Defs.Find("department").FilterType)
	assert.Equal(t, columns.AggSum, res.Defs.Find("salary").AggregationFunction)
	assert.True(t, res.Defs.Find("notes").Hide)
	assert.Equal(t, []csvimport.CsvColumnType{
		csvimport.CsvColumnTypeNumber,
		csvimport.CsvColumnTypeString,
		csvimport.CsvColumnTypeString,
		csvimport.CsvColumnTypeString,
		csvimport.CsvColumnTypeString,
		csvimport.CsvColumnTypeNumber,
		csvimport.CsvColumnTypeNumber,
		csvimport.CsvColumnTypeDate,
		csvimport.CsvColumnTypeNumber,
		csvimport.CsvColumnTypeBool,
		csvimport.CsvColumnTypeString,
	}, res.Types)

	first := res.Rows[0]
	assert.Equal(t, "Ann Ito", first.Get("name").String())
	assert.Equal(t, "Yes", res.Defs.Find("remote").DisplayValue(first))
	assert.Equal(t, "77700", res.Defs.Find("total_comp").DisplayValue(first))
}

func TestEmployeesSortByComputedColumn(t *testing.T) {
	res, err := Employees()
	require.NoError(t, err)

	s := state.New(res.Defs, res.Rows)
	s = state.Reduce(s, state.SetSortModel{Model: sorting.Model{{ColID: "total_comp", Direction: sorting.Desc}}})
	v := pipeline.New().Run(s, 1)
	require.Len(t, v.Rows, 40)

	total := res.Defs.Find("total_comp")
	prev := total.RawValue(v.Rows[0].Row)
	for _, row := range v.Rows[1:] {
		cur := total.RawValue(row.Row)
		a, _ := prev.AsNumber()
		b, _ := cur.AsNumber()
		assert.GreaterOrEqual(t, a, b)
		prev = cur
	}
}

func TestLoader(t *testing.T) {
	m := datasources.NewManager()
	m.RegisterLoader(Loader{})
	require.NoError(t, m.AddSource(datasources.Source{Name: "employees", Kind: SourceType}))

	res, err := m.LoadData("employees")
	require.NoError(t, err)
	assert.Len(t, res.Rows, 40)
}
