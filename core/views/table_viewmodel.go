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
	"fmt"
	"strconv"

	"github.com/google/safehtml"
	"golang.org/x/text/message"

	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/pipeline"
	"github.com/google/tabula/core/query"
	"github.com/google/tabula/core/sorting"
	"github.com/google/tabula/core/state"
)

// GridViewModel contains the processed grid formatted for template consumption
type GridViewModel struct {
	Title   string
	Headers []HeaderCell // Displayed columns, left pinned first and right pinned last
	Rows    []RowView    // Rows of the current page

	Status  string        // Status bar line
	Summary []SummaryLine // Analysis aggregates

	Filters []FilterChip   // Active filters
	Columns []ColumnToggle // Every defined column with its visibility toggle

	Page      Page
	PageLinks []PageLink
	PrevURL   safehtml.URL
	NextURL   safehtml.URL

	CurrentURL safehtml.URL // Current URL for building links
	RowHeight  int          // Row height in pixels at the current zoom
	Zoom       string
	Loading    bool
	Error      string

	// Timing info, filled in by the server
	RenderTimeMs    string
	TimingBreakdown []TimingEntry
}

// HeaderCell is one column header.
type HeaderCell struct {
	Field         string
	Name          string
	Width         int
	Pinned        string // "left", "right" or empty
	Synthetic     bool
	Sortable      bool
	SortIndicator string       // "▲", "▼", suffixed with the priority in multi-column sorts
	SortURL       safehtml.URL // URL cycling this column's sort alone
	AddSortURL    safehtml.URL // URL cycling it within the current sort
	HideURL       safehtml.URL // URL hiding this column
}

// RowView is one displayed row.
type RowView struct {
	ID       int // Source row index
	Selected bool
	Cells    []string // Formatted values, aligned with Headers
}

// FilterChip describes an active filter.
type FilterChip struct {
	Field    string
	Name     string
	Value    string
	ClearURL safehtml.URL
}

// ColumnToggle lists a column in the column chooser.
type ColumnToggle struct {
	Field     string
	Name      string
	Visible   bool
	ToggleURL safehtml.URL
}

// PageLink is a link to one page.
type PageLink struct {
	Number  int
	Current bool
	URL     safehtml.URL
}

// TimingEntry represents a single timing measurement
type TimingEntry struct {
	Operation  string
	DurationMs string
}

// LandingViewModel lists the grids a server offers.
type LandingViewModel struct {
	Title    string
	Subtitle string
	Grids    []GridLink
}

// GridLink describes one grid on the landing page.
type GridLink struct {
	Name        string
	Title       string
	Description string
	Rows        int
	URL         safehtml.URL
}

// BuildGridViewModel lays out the processed view v of grid state s for the
// page that q asks for. p formats the status bar; nil uses English.
func BuildGridViewModel(title string, s state.State, v *pipeline.View, q *query.Query, p *message.Printer) GridViewModel {
	if p == nil {
		p = DefaultPrinter()
	}
	zoom := q.Zoom
	if zoom <= 0 {
		zoom = 1
	}

	vm := GridViewModel{
		Title:      title,
		Status:     Status(s, v).Format(p),
		Summary:    AnalysisSummary(s, v),
		CurrentURL: q.ToSafeURL(),
		RowHeight:  ScaledRowHeight(s.RowHeight, zoom),
		Zoom:       strconv.FormatFloat(zoom, 'f', -1, 64),
		Loading:    s.Loading,
		Error:      s.Error,
	}

	hidden := s.HiddenColumns.Sorted()
	left, center, right := state.SplitPinned(v.Columns)
	ordered := make([]state.VisibleColumn, 0, len(v.Columns))
	ordered = append(append(append(ordered, left...), center...), right...)
	for _, col := range ordered {
		vm.Headers = append(vm.Headers, headerCell(col, s.SortModel, q, hidden))
	}

	vm.Page = Paginate(len(v.Rows), q.Page, q.Size)
	from, to := vm.Page.Bounds()
	for _, pr := range v.Rows[from:to] {
		rv := RowView{ID: pr.ID, Selected: s.SelectedRows.Has(pr.ID)}
		for _, col := range ordered {
			rv.Cells = append(rv.Cells, col.Def.DisplayValue(pr.Row))
		}
		vm.Rows = append(vm.Rows, rv)
	}
	for _, n := range vm.Page.Numbers {
		vm.PageLinks = append(vm.PageLinks, PageLink{Number: n, Current: n == vm.Page.Page, URL: q.WithPage(n)})
	}
	if vm.Page.HasPrev() {
		vm.PrevURL = q.WithPage(vm.Page.Page - 1)
	}
	if vm.Page.HasNext() {
		vm.NextURL = q.WithPage(vm.Page.Page + 1)
	}

	for _, field := range s.FilterModel.ColumnIDs() {
		name := field
		if cd := s.ColumnDefs.Find(field); cd != nil {
			name = cd.DisplayName()
		}
		vm.Filters = append(vm.Filters, FilterChip{
			Field:    field,
			Name:     name,
			Value:    query.FormatFilter(s.FilterModel[field]),
			ClearURL: q.WithFilter(field, ""),
		})
	}

	for _, cd := range s.ColumnDefs {
		if cd == nil {
			continue
		}
		vm.Columns = append(vm.Columns, ColumnToggle{
			Field:     cd.Field,
			Name:      cd.DisplayName(),
			Visible:   !s.HiddenColumns.Has(cd.Field),
			ToggleURL: q.WithColumnHiddenToggled(cd.Field, hidden),
		})
	}
	return vm
}

func headerCell(col state.VisibleColumn, model sorting.Model, q *query.Query, hidden []string) HeaderCell {
	h := HeaderCell{
		Field:     col.Def.Field,
		Name:      col.Def.DisplayName(),
		Width:     col.Width,
		Synthetic: col.Synthetic,
	}
	if col.Pinned != columns.PinNone {
		h.Pinned = col.Pinned.String()
	}
	if col.Synthetic {
		return h
	}
	if sc, i := model.Find(h.Field); i >= 0 {
		h.SortIndicator = "▲"
		if sc.Direction == sorting.Desc {
			h.SortIndicator = "▼"
		}
		if len(model) > 1 {
			h.SortIndicator += fmt.Sprint(i + 1)
		}
	}
	if col.Def.Sortable {
		h.Sortable = true
		h.SortURL = q.WithSortToggled(h.Field, false)
		h.AddSortURL = q.WithSortToggled(h.Field, true)
	}
	h.HideURL = q.WithColumnHiddenToggled(h.Field, hidden)
	return h
}
