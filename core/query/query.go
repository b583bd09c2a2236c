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

// Package query maps grid view URLs to state transitions and back.
package query

import (
	"errors"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/google/safehtml"

	"github.com/google/tabula/core/aggregates"
	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/filters"
	"github.com/google/tabula/core/sorting"
	"github.com/google/tabula/core/state"
)

const (
	DefaultPageSize = 25
	filterPrefix    = "filter:"
	pinPrefix       = "pin:"
	aggPrefix       = "agg:"
)

// Query represents the parsed state of a grid view URL
type Query struct {
	// Base path (e.g., "/grid")
	Path string

	Sort         string            // Sort model, "col:desc,col2"
	Filters      map[string]string // Column filters (columnName -> "op:args")
	Columns      []string          // Column order; empty keeps the grid's order
	ColumnWidths map[string]int    // Base column widths in pixels
	Hidden       []string          // Hidden columns; nil keeps the grid's hidden set
	Pins         map[string]string // Pinned side per column ("left" or "right")

	Analysis     []string          // Analysis column subset
	Aggregations map[string]string // Requested statistic per column
	Contribution string            // Contribution column

	Selected []int // Selected row ids

	Group    []string // Row-group columns; nil keeps the grid's grouping
	Expanded []string // Open group paths ("Eng/Berlin"); nil keeps the grid's

	Page int     // 1-based page number
	Size int     // Rows per page (0 = show all)
	Zoom float64 // Display zoom factor
}

// NewQuery creates a Query from a URL. Malformed numbers fall back to their
// defaults; parameter values are validated when converted to actions.
func NewQuery(u *url.URL) *Query {
	q := &Query{
		Path:         u.Path,
		Filters:      make(map[string]string),
		ColumnWidths: make(map[string]int),
		Pins:         make(map[string]string),
		Aggregations: make(map[string]string),
		Page:         1,
		Size:         DefaultPageSize,
		Zoom:         1,
	}

	params := u.Query()
	q.Sort = params.Get("sort")
	q.Contribution = params.Get("contribution")

	// Extract columns parameter (format: col1:width,col2,col3:width)
	for _, part := range splitList(params.Get("columns")) {
		if colonIdx := strings.LastIndex(part, ":"); colonIdx != -1 {
			colName := part[:colonIdx]
			if width, err := strconv.Atoi(part[colonIdx+1:]); err == nil && width > 0 {
				q.Columns = append(q.Columns, colName)
				q.ColumnWidths[colName] = width
				continue
			}
		}
		q.Columns = append(q.Columns, part)
	}

	if params.Has("hidden") {
		q.Hidden = append([]string{}, splitList(params.Get("hidden"))...)
	}
	q.Analysis = splitList(params.Get("analysis"))
	if params.Has("group") {
		q.Group = append([]string{}, splitList(params.Get("group"))...)
	}
	if params.Has("expanded") {
		q.Expanded = append([]string{}, splitList(params.Get("expanded"))...)
	}

	for _, s := range splitList(params.Get("selected")) {
		if id, err := strconv.Atoi(s); err == nil && id >= 0 {
			q.Selected = append(q.Selected, id)
		}
	}

	if page, err := strconv.Atoi(params.Get("page")); err == nil && page >= 1 {
		q.Page = page
	}
	if size, err := strconv.Atoi(params.Get("size")); err == nil && size >= 0 {
		q.Size = size
	}
	if zoom, err := strconv.ParseFloat(params.Get("zoom"), 64); err == nil && zoom > 0 {
		q.Zoom = zoom
	}

	for key, vals := range params {
		if len(vals) == 0 {
			continue
		}
		switch {
		case strings.HasPrefix(key, filterPrefix):
			q.Filters[strings.TrimPrefix(key, filterPrefix)] = vals[0]
		case strings.HasPrefix(key, pinPrefix):
			q.Pins[strings.TrimPrefix(key, pinPrefix)] = vals[0]
		case strings.HasPrefix(key, aggPrefix):
			q.Aggregations[strings.TrimPrefix(key, aggPrefix)] = vals[0]
		}
	}
	return q
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Clone creates a deep copy of the Query
func (q *Query) Clone() *Query {
	clone := *q
	clone.Filters = maps.Clone(q.Filters)
	clone.Columns = slices.Clone(q.Columns)
	clone.ColumnWidths = maps.Clone(q.ColumnWidths)
	clone.Hidden = slices.Clone(q.Hidden)
	clone.Pins = maps.Clone(q.Pins)
	clone.Analysis = slices.Clone(q.Analysis)
	clone.Aggregations = maps.Clone(q.Aggregations)
	clone.Selected = slices.Clone(q.Selected)
	clone.Group = slices.Clone(q.Group)
	clone.Expanded = slices.Clone(q.Expanded)
	return &clone
}

// Actions translates the query into the transitions that take base to the
// requested view. Every invalid parameter is reported; the returned error
// joins them.
func (q *Query) Actions(base state.State) ([]state.Action, error) {
	var actions []state.Action
	var errs []error
	defs := base.ColumnDefs.Index()

	if len(q.Columns) > 0 {
		actions = append(actions, state.ReorderColumns{Order: slices.Clone(q.Columns)})
	}
	for _, col := range sortedKeys(q.ColumnWidths) {
		actions = append(actions, state.ResizeColumn{ColID: col, Width: max(q.ColumnWidths[col], state.MinColumnWidth)})
	}

	if q.Hidden != nil {
		want := state.NewSet(q.Hidden...)
		for _, col := range base.ColumnDefs.Fields() {
			if want.Has(col) != base.HiddenColumns.Has(col) {
				actions = append(actions, state.ToggleColumnVisibility{ColID: col})
			}
		}
	}

	for _, col := range sortedKeys(q.Pins) {
		side, err := columns.ParsePinned(q.Pins[col])
		if err != nil {
			errs = append(errs, fmt.Errorf("pin %q: %w", col, err))
			continue
		}
		actions = append(actions, state.PinColumn{ColID: col, Side: side})
	}

	if q.Sort != "" {
		model, err := sorting.ParseModel(q.Sort)
		if err != nil {
			errs = append(errs, fmt.Errorf("sort: %w", err))
		} else {
			actions = append(actions, state.SetSortModel{Model: model})
		}
	}

	if len(q.Filters) > 0 {
		model := filters.Model{}
		for _, col := range sortedKeys(q.Filters) {
			cd, ok := defs[col]
			if !ok {
				errs = append(errs, fmt.Errorf("filter %q: unknown column", col))
				continue
			}
			f, err := ParseFilter(cd.FilterType, q.Filters[col])
			if err != nil {
				errs = append(errs, fmt.Errorf("filter %q: %w", col, err))
				continue
			}
			model[col] = f
		}
		actions = append(actions, state.SetFilterModel{Model: model})
	}

	if q.Group != nil || q.Expanded != nil {
		cfg := state.GroupConfiguration{
			GroupKeys:      slices.Clone(base.Group.GroupKeys),
			ExpandedGroups: base.Group.ExpandedGroups.Clone(),
		}
		if q.Group != nil {
			cfg.GroupKeys = []string{}
			for _, col := range q.Group {
				cd, ok := defs[col]
				switch {
				case !ok:
					errs = append(errs, fmt.Errorf("group %q: unknown column", col))
				case !cd.EnableRowGroup:
					errs = append(errs, fmt.Errorf("group %q: column does not allow row grouping", col))
				default:
					cfg.GroupKeys = append(cfg.GroupKeys, col)
				}
			}
		}
		if q.Expanded != nil {
			cfg.ExpandedGroups = state.NewSet(q.Expanded...)
		}
		actions = append(actions, state.SetGroupConfiguration{Config: cfg})
	}

	if cfg, err := q.analysisConfig(base.ColumnDefs); err != nil {
		errs = append(errs, err)
	} else if cfg != nil {
		actions = append(actions, state.SetAnalysisConfig{Config: cfg})
	}

	if len(q.Selected) > 0 {
		actions = append(actions, state.DeselectAllRows{})
		for _, id := range q.Selected {
			actions = append(actions, state.ToggleRowSelection{ID: id})
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return actions, nil
}

// analysisConfig builds the requested analysis. Without an analysis column
// list every column of defs stays in the analysis set.
func (q *Query) analysisConfig(defs columns.Defs) (*state.AnalysisConfig, error) {
	if len(q.Analysis) == 0 && len(q.Aggregations) == 0 && q.Contribution == "" {
		return nil, nil
	}
	subset := q.Analysis
	if len(subset) == 0 {
		subset = defs.Fields()
	}
	cfg := &state.AnalysisConfig{
		VisibleColumns:     state.NewSet(subset...),
		Aggregations:       aggregates.Spec{},
		ContributionColumn: q.Contribution,
	}
	var errs []error
	for _, col := range sortedKeys(q.Aggregations) {
		agg, err := columns.ParseAggregationType(q.Aggregations[col])
		if err != nil {
			errs = append(errs, fmt.Errorf("aggregation %q: %w", col, err))
			continue
		}
		cfg.Aggregations[col] = agg
	}
	return cfg, errors.Join(errs...)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ToURL converts the Query back to a URL string
func (q *Query) ToURL() string {
	u := &url.URL{Path: q.Path}
	params := url.Values{}

	if q.Sort != "" {
		params.Set("sort", q.Sort)
	}

	if len(q.Columns) > 0 {
		columnStrs := make([]string, 0, len(q.Columns))
		for _, col := range q.Columns {
			if width, hasWidth := q.ColumnWidths[col]; hasWidth {
				columnStrs = append(columnStrs, col+":"+strconv.Itoa(width))
			} else {
				columnStrs = append(columnStrs, col)
			}
		}
		params.Set("columns", strings.Join(columnStrs, ","))
	}

	if q.Hidden != nil {
		params.Set("hidden", strings.Join(q.Hidden, ","))
	}
	if q.Group != nil {
		params.Set("group", strings.Join(q.Group, ","))
	}
	if q.Expanded != nil {
		params.Set("expanded", strings.Join(q.Expanded, ","))
	}
	if len(q.Analysis) > 0 {
		params.Set("analysis", strings.Join(q.Analysis, ","))
	}
	if q.Contribution != "" {
		params.Set("contribution", q.Contribution)
	}
	if len(q.Selected) > 0 {
		ids := make([]string, len(q.Selected))
		for i, id := range q.Selected {
			ids[i] = strconv.Itoa(id)
		}
		params.Set("selected", strings.Join(ids, ","))
	}

	for col, v := range q.Filters {
		if v != "" {
			params.Set(filterPrefix+col, v)
		}
	}
	for col, v := range q.Pins {
		params.Set(pinPrefix+col, v)
	}
	for col, v := range q.Aggregations {
		params.Set(aggPrefix+col, v)
	}

	if q.Page > 1 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.Size != DefaultPageSize {
		params.Set("size", strconv.Itoa(q.Size))
	}
	if q.Zoom != 1 {
		params.Set("zoom", strconv.FormatFloat(q.Zoom, 'f', -1, 64))
	}

	u.RawQuery = params.Encode()
	return u.String()
}

// ToSafeURL converts the Query to a safehtml.URL
func (q *Query) ToSafeURL() safehtml.URL {
	return safehtml.URLSanitized(q.ToURL())
}

// WithSortToggled returns a URL with colID's sort cycled as a header
// activation would, returning to the first page.
func (q *Query) WithSortToggled(colID string, multi bool) safehtml.URL {
	model, err := sorting.ParseModel(q.Sort)
	if err != nil {
		model = sorting.Model{}
	}
	next := q.Clone()
	next.Sort = model.Toggle(colID, multi).String()
	next.Page = 1
	return next.ToSafeURL()
}

// WithFilter returns a URL with the column's filter replaced; an empty
// value removes it.
func (q *Query) WithFilter(column, value string) safehtml.URL {
	next := q.Clone()
	if value == "" {
		delete(next.Filters, column)
	} else {
		next.Filters[column] = value
	}
	next.Page = 1
	return next.ToSafeURL()
}

// WithColumnHiddenToggled returns a URL with the column's visibility
// flipped relative to hidden, the grid's current hidden set.
func (q *Query) WithColumnHiddenToggled(column string, hidden []string) safehtml.URL {
	next := q.Clone()
	if i := slices.Index(hidden, column); i >= 0 {
		next.Hidden = slices.Delete(slices.Clone(hidden), i, i+1)
	} else {
		next.Hidden = append(slices.Clone(hidden), column)
	}
	if next.Hidden == nil {
		next.Hidden = []string{}
	}
	return next.ToSafeURL()
}

// WithPage returns a URL showing page.
func (q *Query) WithPage(page int) safehtml.URL {
	next := q.Clone()
	next.Page = max(page, 1)
	return next.ToSafeURL()
}

// WithSize returns a URL with a different page size, on the first page.
func (q *Query) WithSize(size int) safehtml.URL {
	next := q.Clone()
	next.Size = max(size, 0)
	next.Page = 1
	return next.ToSafeURL()
}

// IsColumnVisible checks if a column is in the explicit column order
func (q *Query) IsColumnVisible(column string) bool {
	return slices.Contains(q.Columns, column)
}
