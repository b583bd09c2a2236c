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

package columns

import "github.com/google/tabula/core/values"

// Column strategies must be pure and synchronous; the pipeline may call them
// any number of times per run.

// ValueGetter computes a column's value from the whole row.
type ValueGetter interface {
	GetValue(row Row) values.Value
}

// ValueFormatter turns a field value into display text.
type ValueFormatter interface {
	FormatValue(value values.Value, row Row) string
}

// Comparator orders two raw values; negative, zero or positive.
type Comparator interface {
	Compare(a, b values.Value) int
}

// CellRenderer produces the cell's rendered text.
type CellRenderer interface {
	RenderCell(value values.Value, row Row) string
}

// ValueGetterFunc adapts a function to ValueGetter.
type ValueGetterFunc func(row Row) values.Value

func (f ValueGetterFunc) GetValue(row Row) values.Value { return f(row) }

// ValueFormatterFunc adapts a function to ValueFormatter.
type ValueFormatterFunc func(value values.Value, row Row) string

func (f ValueFormatterFunc) FormatValue(value values.Value, row Row) string { return f(value, row) }

// ComparatorFunc adapts a function to Comparator.
type ComparatorFunc func(a, b values.Value) int

func (f ComparatorFunc) Compare(a, b values.Value) int { return f(a, b) }

// CellRendererFunc adapts a function to CellRenderer.
type CellRendererFunc func(value values.Value, row Row) string

func (f CellRendererFunc) RenderCell(value values.Value, row Row) string { return f(value, row) }
