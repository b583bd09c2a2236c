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

// Package grouping builds the row-group hierarchy of a processed view.
//
// Terminology:
//   - the columns that make up the hierarchy are called grouped columns
//   - each distinct display value of a grouped column within its parent
//     group forms a group
//   - a group's path joins the keys from the top level down with "/"; a
//     group is open when its path is in the expanded set
package grouping

import (
	"fmt"
	"strings"

	"github.com/google/tabula/core/aggregates"
	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/pipeline"
	"github.com/google/tabula/core/state"
)

const (
	// BlankKey labels the group of rows whose grouped value is empty.
	BlankKey = "(blank)"
	// PathSeparator joins group keys into a path.
	PathSeparator = "/"
)

// Group is one node of the hierarchy. Groups appear in the order their
// first row appears in the view, so the sort model orders them.
type Group struct {
	Field      string
	Key        string
	Path       string
	Level      int
	RowIDs     []int
	Aggregates aggregates.Aggregates
	Expanded   bool
	Children   []*Group
}

// Length is the number of rows in the group.
func (g *Group) Length() int {
	return len(g.RowIDs)
}

// Height is the number of lines the group occupies when displayed: its own
// header, plus its children or rows when it is open.
func (g *Group) Height() int {
	if !g.Expanded {
		return 1
	}
	if len(g.Children) == 0 {
		return 1 + len(g.RowIDs)
	}
	height := 1
	for _, child := range g.Children {
		height += child.Height()
	}
	return height
}

// Keys returns the grouped columns for s: the pivot row-group columns in
// pivot mode, else the group configuration's keys.
func Keys(s state.State) []string {
	if s.PivotMode {
		return s.Pivot.RowGroupCols
	}
	return s.Group.GroupKeys
}

// Expanded returns the union of the expanded paths recorded on s.
func Expanded(s state.State) state.Set[string] {
	out := s.ExpandedGroups.Clone()
	if out == nil {
		out = state.Set[string]{}
	}
	for path := range s.Group.ExpandedGroups {
		out[path] = struct{}{}
	}
	return out
}

// FromState groups view by the grouped columns of s, computing each group's
// aggregates with the state's aggregation spec. It returns nil when s has no
// grouped columns.
func FromState(s state.State, view *pipeline.View) ([]*Group, error) {
	keys := Keys(s)
	if len(keys) == 0 {
		return nil, nil
	}
	spec, _ := pipeline.AggregationSpec(s)
	return Build(view.Rows, s.ColumnDefs, keys, Expanded(s), spec)
}

// Build groups rows by keys in order. Every key must name a column in defs.
func Build(rows []pipeline.ProcessedRow, defs columns.Defs, keys []string, expanded state.Set[string], spec aggregates.Spec) ([]*Group, error) {
	grouped := make([]*columns.ColumnDef, len(keys))
	for i, key := range keys {
		cd := defs.Find(key)
		if cd == nil {
			return nil, fmt.Errorf("group by %q: unknown column", key)
		}
		grouped[i] = cd
	}
	if len(grouped) == 0 {
		return nil, nil
	}
	return build(rows, grouped, 0, "", expanded, spec), nil
}

func build(rows []pipeline.ProcessedRow, grouped []*columns.ColumnDef, level int, parent string, expanded state.Set[string], spec aggregates.Spec) []*Group {
	cd := grouped[level]
	var groups []*Group
	members := map[string][]pipeline.ProcessedRow{}
	for _, r := range rows {
		key := cd.DisplayValue(r.Row)
		if key == "" {
			key = BlankKey
		}
		if _, ok := members[key]; !ok {
			path := key
			if parent != "" {
				path = parent + PathSeparator + key
			}
			groups = append(groups, &Group{Field: cd.Field, Key: key, Path: path, Level: level})
		}
		members[key] = append(members[key], r)
	}

	for _, g := range groups {
		rows := members[g.Key]
		data := make([]columns.Row, len(rows))
		g.RowIDs = make([]int, len(rows))
		for i, r := range rows {
			g.RowIDs[i] = r.ID
			data[i] = r.Row
		}
		g.Aggregates = aggregates.Compute(data, spec)
		g.Expanded = expanded.Has(g.Path)
		if level+1 < len(grouped) {
			g.Children = build(rows, grouped, level+1, g.Path, expanded, spec)
		}
	}
	return groups
}

// Line is one displayed line of a grouped view: a group header, or a row
// of an open group at the deepest level.
type Line struct {
	Group *Group
	// RowID is the source row shown on this line; -1 for a group header.
	RowID int
}

// Flatten lists the lines of groups in display order. Collapsed groups
// contribute only their header.
func Flatten(groups []*Group) []Line {
	var lines []Line
	var walk func([]*Group)
	walk = func(gs []*Group) {
		for _, g := range gs {
			lines = append(lines, Line{Group: g, RowID: -1})
			if !g.Expanded {
				continue
			}
			if len(g.Children) > 0 {
				walk(g.Children)
				continue
			}
			for _, id := range g.RowIDs {
				lines = append(lines, Line{Group: g, RowID: id})
			}
		}
	}
	walk(groups)
	return lines
}

// SplitPath returns the keys of a group path.
func SplitPath(path string) []string {
	return strings.Split(path, PathSeparator)
}
