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

package rendering

import (
	"bytes"
	"testing"

	"github.com/google/safehtml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/tabula/core/views"
)

func sampleViewModel() views.GridViewModel {
	return views.GridViewModel{
		Title: "Team",
		Headers: []views.HeaderCell{
			{Field: "name", Name: "Name", Width: 120, Sortable: true, SortIndicator: "▲",
				SortURL: safehtml.URLSanitized("/grid?sort=name%3Adesc"), HideURL: safehtml.URLSanitized("/grid?hidden=name")},
			{Field: "sal", Name: "Salary", Width: 100, Pinned: "left"},
		},
		Rows: []views.RowView{
			{ID: 0, Selected: true, Cells: []string{"Ann", "100"}},
			{ID: 1, Cells: []string{"Bob", "200"}},
		},
		Status:    "Rows: 2  Cols: 2/2",
		Summary:   []views.SummaryLine{{Field: "sal", Header: "Salary", Type: "sum", Value: "300"}},
		Page:      views.Paginate(2, 1, 25),
		RowHeight: 28,
	}
}

func TestRender(t *testing.T) {
	r, err := NewGridRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, sampleViewModel()))
	html := buf.String()

	assert.Contains(t, html, "<title>Team</title>")
	assert.Contains(t, html, `href="/grid?sort=name%3Adesc"`)
	assert.Contains(t, html, "pinned-left")
	assert.Contains(t, html, `class="selected"`)
	assert.Contains(t, html, "<td>Bob</td>")
	assert.Contains(t, html, "<td>300</td>")
	assert.Contains(t, html, "Rows: 2  Cols: 2/2")
}

func TestRenderEscapesCells(t *testing.T) {
	r, err := NewGridRenderer()
	require.NoError(t, err)

	vm := sampleViewModel()
	vm.Rows[0].Cells[0] = "<script>alert(1)</script>"
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, vm))
	assert.NotContains(t, buf.String(), "<script>alert(1)</script>")
	assert.Contains(t, buf.String(), "&lt;script&gt;")
}

func TestRenderLanding(t *testing.T) {
	r, err := NewGridRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	err = r.RenderLanding(&buf, views.LandingViewModel{
		Title: "Tabula",
		Grids: []views.GridLink{{Name: "employees", Title: "Employees", Rows: 3, URL: safehtml.URLSanitized("/grid/employees")}},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `href="/grid/employees"`)
	assert.Contains(t, buf.String(), "(3 rows)")
}

func TestRenderASCII(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderASCII(&buf, sampleViewModel()))

	want := "" +
		"+---+--------+--------+\n" +
		"|   | Name ▲ | Salary |\n" +
		"+---+--------+--------+\n" +
		"| * | Ann    | 100    |\n" +
		"|   | Bob    | 200    |\n" +
		"+---+--------+--------+\n" +
		"Salary sum: 300\n" +
		"Rows: 2  Cols: 2/2\n"
	assert.Equal(t, want, buf.String())
}

func TestRenderASCIIPages(t *testing.T) {
	vm := sampleViewModel()
	vm.Page = views.Paginate(60, 2, 25)
	var buf bytes.Buffer
	require.NoError(t, RenderASCII(&buf, vm))
	assert.Contains(t, buf.String(), "Page 2 of 3 (rows 26-50 of 60)\n")
}
