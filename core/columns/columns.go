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

// Package columns holds the row record type and the column definitions that
// describe how each field is displayed, filtered, sorted and aggregated.
package columns

import (
	"errors"
	"fmt"

	"github.com/google/tabula/core/values"
)

// Row is one opaque data record: field name to cell value. A missing field
// reads as Null.
type Row map[string]values.Value

// Get returns the value stored under field, or Null.
func (r Row) Get(field string) values.Value {
	return r[field]
}

// NewRow builds a Row from plain Go values.
func NewRow(fields map[string]any) Row {
	row := make(Row, len(fields))
	for k, v := range fields {
		row[k] = values.Of(v)
	}
	return row
}

// DefaultWidth is the base pixel width of a column with no declared width.
const DefaultWidth = 150

// ColumnDef describes one field's behavior. Field must be unique within a
// definition set and must not contain any of the following characters: & = : ,
type ColumnDef struct {
	Field      string
	HeaderName string

	Width     int
	MinWidth  int
	MaxWidth  int
	Resizable bool

	Sortable   bool
	Filter     bool
	FilterType FilterType

	// Optional per-column strategies, resolved when the pipeline runs.
	Comparator     Comparator
	ValueGetter    ValueGetter
	ValueFormatter ValueFormatter
	CellRenderer   CellRenderer

	Pinned Pinned
	Hide   bool

	EnableValue         bool
	AggregationFunction AggregationType
	EnablePivot         bool
	EnableRowGroup      bool
}

// DisplayName returns the header label, falling back to the field name.
func (cd *ColumnDef) DisplayName() string {
	if cd.HeaderName != "" {
		return cd.HeaderName
	}
	return cd.Field
}

// DefaultWidth returns the declared width or DefaultWidth.
func (cd *ColumnDef) DefaultWidth() int {
	if cd.Width > 0 {
		return cd.Width
	}
	return DefaultWidth
}

// RawValue resolves the value used for ordering: the value getter's result
// when one is set, else the field lookup.
func (cd *ColumnDef) RawValue(row Row) values.Value {
	if cd.ValueGetter != nil {
		return cd.ValueGetter.GetValue(row)
	}
	return row.Get(cd.Field)
}

// DisplayValue resolves the string shown for this column in row. The order
// is fixed so that exports match the screen: cell renderer, then value
// formatter applied to the field value, then value getter, then the field
// value itself.
func (cd *ColumnDef) DisplayValue(row Row) string {
	value := row.Get(cd.Field)
	switch {
	case cd.CellRenderer != nil:
		return cd.CellRenderer.RenderCell(value, row)
	case cd.ValueFormatter != nil:
		return cd.ValueFormatter.FormatValue(value, row)
	case cd.ValueGetter != nil:
		return cd.ValueGetter.GetValue(row).String()
	default:
		return value.String()
	}
}

// Defs is an ordered set of column definitions.
type Defs []*ColumnDef

// Find returns the definition for field, or nil.
func (d Defs) Find(field string) *ColumnDef {
	for _, cd := range d {
		if cd != nil && cd.Field == field {
			return cd
		}
	}
	return nil
}

// Index maps field to definition.
func (d Defs) Index() map[string]*ColumnDef {
	index := make(map[string]*ColumnDef, len(d))
	for _, cd := range d {
		if cd != nil {
			index[cd.Field] = cd
		}
	}
	return index
}

// Fields returns the field names in definition order.
func (d Defs) Fields() []string {
	fields := make([]string, 0, len(d))
	for _, cd := range d {
		if cd != nil {
			fields = append(fields, cd.Field)
		}
	}
	return fields
}

// Validate checks that every definition has a non-empty, unique field.
func (d Defs) Validate() error {
	var errs []error
	seen := make(map[string]bool, len(d))
	for i, cd := range d {
		if cd == nil {
			errs = append(errs, fmt.Errorf("column %d: nil definition", i))
			continue
		}
		if cd.Field == "" {
			errs = append(errs, fmt.Errorf("column %d: empty field", i))
			continue
		}
		if seen[cd.Field] {
			errs = append(errs, fmt.Errorf("column %d: duplicate field %q", i, cd.Field))
		}
		seen[cd.Field] = true
	}
	return errors.Join(errs...)
}
