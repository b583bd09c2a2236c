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

// Package charts builds chart series from grid data.
//
// Charts read either the full row data or the processed (filtered and
// sorted) rows, chosen per request. The full data is the default so a chart
// shows the whole distribution whatever the grid's current filter.
package charts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/pipeline"
	"github.com/google/tabula/core/state"
	"github.com/google/tabula/core/values"
)

var (
	ErrNoX = errors.New("charts: no x column selected")
	ErrNoY = errors.New("charts: no y column selected")
)

// Kind is a chart type.
type Kind int

const (
	Bar Kind = iota
	Line
	Pie
)

func (k Kind) String() string {
	switch k {
	case Line:
		return "line"
	case Pie:
		return "pie"
	default:
		return "bar"
	}
}

// ParseKind parses "bar", "line" or "pie". The empty string is Bar.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "bar":
		return Bar, nil
	case "line":
		return Line, nil
	case "pie":
		return Pie, nil
	}
	return Bar, fmt.Errorf("unknown chart type %q", s)
}

// Source selects the rows a chart reads.
type Source int

const (
	// SourceRaw reads the full row data, ignoring filters and sort.
	SourceRaw Source = iota
	// SourceProcessed reads the rows the grid displays.
	SourceProcessed
)

func (s Source) String() string {
	if s == SourceProcessed {
		return "processed"
	}
	return "raw"
}

// ParseSource parses "raw" or "processed". The empty string is SourceRaw.
func ParseSource(s string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "raw":
		return SourceRaw, nil
	case "processed":
		return SourceProcessed, nil
	}
	return SourceRaw, fmt.Errorf("unknown chart source %q", s)
}

// Request describes a chart. Y is optional for Pie, where it switches the
// slice value from a row count to a sum of Y.
type Request struct {
	Kind   Kind
	X      string
	Y      string
	Source Source
}

type Point struct {
	Label string
	Value float64
}

type Series struct {
	Kind   Kind
	X, Y   string
	Points []Point
}

// Classify splits defs into numeric and categorical columns. A column is
// numeric when at least one row holds a value that parses as a number.
func Classify(defs columns.Defs, rows []columns.Row) (numeric, categorical columns.Defs) {
	for _, cd := range defs {
		if cd == nil {
			continue
		}
		if hasNumber(rows, cd.Field) {
			numeric = append(numeric, cd)
		} else {
			categorical = append(categorical, cd)
		}
	}
	return numeric, categorical
}

func hasNumber(rows []columns.Row, field string) bool {
	for _, r := range rows {
		if _, ok := values.ParseNumber(r.Get(field)); ok {
			return true
		}
	}
	return false
}

// Rows returns the rows a chart with source src reads.
func Rows(src Source, s state.State, v *pipeline.View) []columns.Row {
	if src == SourceProcessed && v != nil {
		return v.Data()
	}
	return s.RowData
}

// Build computes the series for req. Bar and line charts get one point per
// row with Y parsed as a number, or 0. Pie charts get one slice per distinct
// X value in first-seen order.
func Build(req Request, s state.State, v *pipeline.View) (Series, error) {
	if req.X == "" {
		return Series{}, ErrNoX
	}
	if s.ColumnDefs.Find(req.X) == nil {
		return Series{}, fmt.Errorf("charts: unknown x column %q", req.X)
	}
	if req.Y == "" && req.Kind != Pie {
		return Series{}, ErrNoY
	}
	if req.Y != "" && s.ColumnDefs.Find(req.Y) == nil {
		return Series{}, fmt.Errorf("charts: unknown y column %q", req.Y)
	}

	rows := Rows(req.Source, s, v)
	series := Series{Kind: req.Kind, X: req.X, Y: req.Y}
	if req.Kind != Pie {
		series.Points = make([]Point, len(rows))
		for i, r := range rows {
			series.Points[i] = Point{Label: r.Get(req.X).String(), Value: yValue(r, req.Y)}
		}
		return series, nil
	}

	slot := map[string]int{}
	for _, r := range rows {
		label := r.Get(req.X).String()
		i, ok := slot[label]
		if !ok {
			i = len(series.Points)
			slot[label] = i
			series.Points = append(series.Points, Point{Label: label})
		}
		if req.Y == "" {
			series.Points[i].Value++
		} else {
			series.Points[i].Value += yValue(r, req.Y)
		}
	}
	return series, nil
}

func yValue(r columns.Row, field string) float64 {
	f, ok := values.ParseNumber(r.Get(field))
	if !ok {
		return 0
	}
	return f
}
