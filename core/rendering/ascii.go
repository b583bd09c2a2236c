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
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/google/tabula/core/views"
)

// RenderASCII writes the grid as a bordered text table followed by the
// analysis summary, the page range and the status line. Selected rows are
// marked with "*".
func RenderASCII(w io.Writer, vm views.GridViewModel) error {
	widths := make([]int, len(vm.Headers))
	for i, h := range vm.Headers {
		widths[i] = utf8.RuneCountInString(headerLabel(h))
	}
	for _, row := range vm.Rows {
		for i, cell := range row.Cells {
			if i < len(widths) {
				widths[i] = max(widths[i], utf8.RuneCountInString(cell))
			}
		}
	}

	var sb strings.Builder
	border := func() {
		sb.WriteString("+---")
		for _, width := range widths {
			sb.WriteString("+")
			sb.WriteString(strings.Repeat("-", width+2))
		}
		sb.WriteString("+\n")
	}
	line := func(marker string, cells []string) {
		sb.WriteString("| " + marker + " ")
		for i, width := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			fmt.Fprintf(&sb, "| %-*s ", width, cell)
		}
		sb.WriteString("|\n")
	}

	labels := make([]string, len(vm.Headers))
	for i, h := range vm.Headers {
		labels[i] = headerLabel(h)
	}
	border()
	line(" ", labels)
	border()
	for _, row := range vm.Rows {
		marker := " "
		if row.Selected {
			marker = "*"
		}
		line(marker, row.Cells)
	}
	border()

	for _, s := range vm.Summary {
		fmt.Fprintf(&sb, "%s %s: %s\n", s.Header, s.Type, s.Value)
	}
	if vm.Page.TotalPages > 1 {
		fmt.Fprintf(&sb, "Page %d of %d (rows %d-%d of %d)\n", vm.Page.Page, vm.Page.TotalPages, vm.Page.Start, vm.Page.End, vm.Page.TotalRows)
	}
	sb.WriteString(vm.Status)
	sb.WriteString("\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func headerLabel(h views.HeaderCell) string {
	if h.SortIndicator == "" {
		return h.Name
	}
	return h.Name + " " + h.SortIndicator
}
