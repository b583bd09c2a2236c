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

// Package demo provides the built-in employee data set served when no data
// source is configured.
package demo

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"

	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/csvimport"
	"github.com/google/tabula/core/values"
	"github.com/google/tabula/datasources"
)

//go:embed data/employees.csv
var employeesCSV string

// SourceType is the data source kind served by Loader.
const SourceType = "demo"

var employeeSources = map[string]csvimport.CsvColumnSource{
	"id":         {DisplayName: "ID"},
	"name":       {DisplayName: "Name"},
	"department": {DisplayName: "Department"},
	"title":      {DisplayName: "Title"},
	"city":       {DisplayName: "City"},
	"salary":     {DisplayName: "Salary"},
	"bonus":      {DisplayName: "Bonus"},
	"start_date": {DisplayName: "Start Date"},
	"rating":     {DisplayName: "Rating"},
	"remote":     {DisplayName: "Remote"},
	"notes":      {DisplayName: "Notes", Type: csvimport.CsvColumnTypeString, Hide: true},
}

// Employees imports the embedded employee data set and annotates its
// columns: the name is pinned, pay columns aggregate as sums and a
// computed total compensation column is added. The computed column sorts
// by its value but has no field, so it is neither filtered nor aggregated.
func Employees() (*csvimport.Result, error) {
	options := csvimport.DefaultOptions()
	options.ColumnSources = employeeSources

	res, err := csvimport.ImportFromReader(strings.NewReader(employeesCSV), options)
	if err != nil {
		return nil, fmt.Errorf("failed to import employees: %w", err)
	}
	annotate(res)
	return res, nil
}

func annotate(res *csvimport.Result) {
	defs := res.Defs
	if id := defs.Find("id"); id != nil {
		id.Width = 70
		id.EnableValue = false
	}
	if name := defs.Find("name"); name != nil {
		name.Pinned = columns.PinLeft
		name.Width = 160
		name.MinWidth = 100
	}
	for _, field := range []string{"department", "city", "title"} {
		if cd := defs.Find(field); cd != nil {
			cd.FilterType = columns.FilterSet
			cd.EnableRowGroup = true
			cd.EnablePivot = true
		}
	}
	for _, field := range []string{"salary", "bonus"} {
		if cd := defs.Find(field); cd != nil {
			cd.AggregationFunction = columns.AggSum
		}
	}
	if rating := defs.Find("rating"); rating != nil {
		rating.AggregationFunction = columns.AggAvg
		rating.Width = 90
	}
	if remote := defs.Find("remote"); remote != nil {
		remote.Width = 90
		remote.CellRenderer = columns.CellRendererFunc(func(v values.Value, _ columns.Row) string {
			switch b, ok := v.AsBool(); {
			case !ok:
				return ""
			case b:
				return "Yes"
			default:
				return "No"
			}
		})
	}

	total := &columns.ColumnDef{
		Field:      "total_comp",
		HeaderName: "Total Comp",
		Resizable:  true,
		Sortable:   true,
		ValueGetter: columns.ValueGetterFunc(func(row columns.Row) values.Value {
			salary, ok := values.ParseFloat(row.Get("salary"))
			if !ok {
				return values.Null()
			}
			bonus, _ := values.ParseFloat(row.Get("bonus"))
			return values.Number(salary + bonus)
		}),
	}
	at := slices.IndexFunc(defs, func(cd *columns.ColumnDef) bool { return cd.Field == "bonus" })
	res.Defs = slices.Insert(defs, at+1, total)
}

// Loader serves the embedded data set as data source kind "demo".
type Loader struct{}

// SourceType returns "demo".
func (Loader) SourceType() string { return SourceType }

// Load ignores the source's path and returns the employee data set.
func (Loader) Load(datasources.Source) (*csvimport.Result, error) {
	return Employees()
}
