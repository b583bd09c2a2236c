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

/*
Package expr provides a small Python-like expression language for computed
columns. It supports:
  - Field references by name (e.g., salary, bonus)
  - Arithmetic operators: +, -, *, /, %, **
  - Comparison operators: ==, !=, <, >, <=, >=
  - Logical operators: and, or, not
  - String concatenation with +
  - Literals: 123, 3.14, "text", 'text', true, false, null
  - Built-in functions: len, str, num, abs, floor, ceil, round, min, max,
    upper, lower, strip, contains, startswith, endswith, replace, concat,
    coalesce, if, year, month, day, days_between
  - Method syntax for any function: name.upper() is upper(name)

Arithmetic on null yields null, so a computed column over sparse data is
empty where its inputs are.
*/
package expr

import (
	"fmt"

	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/values"
)

// Expression represents a compiled expression ready for evaluation
type Expression struct {
	source string
	ast    Node
	fields []string
}

// Compile parses an expression and checks its function calls.
func Compile(source string) (*Expression, error) {
	if source == "" {
		return nil, fmt.Errorf("empty expression")
	}
	ast, err := NewParser(source).Parse()
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	if err := checkCalls(ast); err != nil {
		return nil, err
	}
	return &Expression{
		source: source,
		ast:    ast,
		fields: collectFields(ast, map[string]bool{}, nil),
	}, nil
}

// Source returns the original expression source
func (e *Expression) Source() string {
	return e.source
}

// Fields returns the fields the expression reads, in first-use order.
func (e *Expression) Fields() []string {
	return append([]string(nil), e.fields...)
}

// Eval evaluates the expression against row.
func (e *Expression) Eval(row columns.Row) (values.Value, error) {
	return eval(e.ast, row)
}

// ValueGetter adapts the expression to a column value getter. Evaluation
// errors, such as division by zero, read as null.
func (e *Expression) ValueGetter() columns.ValueGetter {
	return columns.ValueGetterFunc(func(row columns.Row) values.Value {
		v, err := e.Eval(row)
		if err != nil {
			return values.Null()
		}
		return v
	})
}
