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

// Package export resolves the processed view into the strings an export
// writer emits. Values are resolved exactly as the grid displays them.
package export

import (
	"github.com/google/tabula/core/pipeline"
	"github.com/google/tabula/core/state"
)

// Grid is a header row plus one row of display strings per processed row.
type Grid struct {
	Headers []string
	Rows    [][]string
}

// Table resolves every visible column of v over its processed rows, in
// display order.
func Table(v *pipeline.View) Grid {
	return Columns(v, v.Columns)
}

// Columns resolves cols over v's processed rows.
func Columns(v *pipeline.View, cols []state.VisibleColumn) Grid {
	g := Grid{
		Headers: make([]string, len(cols)),
		Rows:    make([][]string, len(v.Rows)),
	}
	for i, c := range cols {
		g.Headers[i] = c.Def.DisplayName()
	}
	for r, pr := range v.Rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = c.Def.DisplayValue(pr.Row)
		}
		g.Rows[r] = cells
	}
	return g
}

// Selected resolves only the selected rows of v, in display order.
func Selected(v *pipeline.View) Grid {
	selected := make(map[int]bool, len(v.Selection))
	for _, id := range v.Selection {
		selected[id] = true
	}
	sub := *v
	sub.Rows = nil
	for _, pr := range v.Rows {
		if selected[pr.ID] {
			sub.Rows = append(sub.Rows, pr)
		}
	}
	return Table(&sub)
}
