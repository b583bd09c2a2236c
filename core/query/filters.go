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

package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/filters"
)

// Filter parameter values have the form "op:args".
//
//	text:   contains|equals|startsWith|endsWith|notContains:<text>
//	number: eq|ne|gt|gte|lt|lte:<n>, range:<from>..<to>
//	date:   on|before|after:<date>, between:<from>..<to>
//	set:    in:<a>|<b>|...
//
// A text filter without an operator means contains. Either side of a range
// may be empty.
const rangeSep = ".."

var numberOps = map[string]filters.NumberCondition{
	"eq":  filters.NumEquals,
	"ne":  filters.NumNotEquals,
	"gt":  filters.NumGreaterThan,
	"gte": filters.NumGreaterThanOrEqual,
	"lt":  filters.NumLessThan,
	"lte": filters.NumLessThanOrEqual,
}

var dateOps = map[string]filters.DateCondition{
	"on":     filters.DateOn,
	"before": filters.DateBefore,
	"after":  filters.DateAfter,
}

var textOps = map[string]filters.TextCondition{
	"contains":    filters.Contains,
	"equals":      filters.Equals,
	"startsWith":  filters.StartsWith,
	"endsWith":    filters.EndsWith,
	"notContains": filters.NotContains,
}

// ParseFilter parses a filter parameter value for a column of type ft.
func ParseFilter(ft columns.FilterType, s string) (filters.Filter, error) {
	op, args, hasOp := strings.Cut(s, ":")
	switch ft {
	case columns.FilterText:
		if !hasOp {
			return filters.TextFilter{Condition: filters.Contains, Value: s}, nil
		}
		cond, ok := textOps[op]
		if !ok {
			// The colon belongs to the text itself.
			return filters.TextFilter{Condition: filters.Contains, Value: s}, nil
		}
		return filters.TextFilter{Condition: cond, Value: args}, nil

	case columns.FilterNumber:
		if op == "range" {
			from, to, err := numberRange(args)
			if err != nil {
				return nil, err
			}
			return filters.NumberFilter{Condition: filters.NumInRange, From: from, To: to}, nil
		}
		cond, ok := numberOps[op]
		if !ok || !hasOp {
			return nil, fmt.Errorf("unknown number filter operator %q", op)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(args), 64)
		if err != nil {
			return nil, fmt.Errorf("number filter value %q: %w", args, err)
		}
		return filters.NumberFilter{Condition: cond, Value: filters.Float(f)}, nil

	case columns.FilterDate:
		if op == "between" {
			from, to, _ := strings.Cut(args, rangeSep)
			return filters.DateFilter{Condition: filters.DateInRange, From: from, To: to}, nil
		}
		cond, ok := dateOps[op]
		if !ok || !hasOp {
			return nil, fmt.Errorf("unknown date filter operator %q", op)
		}
		return filters.DateFilter{Condition: cond, Value: args}, nil

	case columns.FilterSet:
		if op != "in" || !hasOp {
			return nil, fmt.Errorf("unknown set filter operator %q", op)
		}
		if args == "" {
			return filters.NewSetFilter(), nil
		}
		return filters.NewSetFilter(strings.Split(args, "|")...), nil
	}
	return nil, fmt.Errorf("column is not filterable")
}

func numberRange(args string) (from, to *float64, err error) {
	lo, hi, ok := strings.Cut(args, rangeSep)
	if !ok {
		return nil, nil, fmt.Errorf("number range %q: missing %q", args, rangeSep)
	}
	bound := func(s string) (*float64, error) {
		if s = strings.TrimSpace(s); s == "" {
			return nil, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("number range bound %q: %w", s, err)
		}
		return &f, nil
	}
	if from, err = bound(lo); err != nil {
		return nil, nil, err
	}
	if to, err = bound(hi); err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

// FormatFilter renders f in the parameter form ParseFilter reads.
func FormatFilter(f filters.Filter) string {
	switch f := f.(type) {
	case filters.TextFilter:
		cond := f.Condition
		if cond == "" {
			cond = filters.Contains
		}
		return string(cond) + ":" + f.Value
	case filters.NumberFilter:
		if f.Condition == filters.NumInRange {
			return "range:" + formatBound(f.From) + rangeSep + formatBound(f.To)
		}
		for op, cond := range numberOps {
			if cond == f.Condition || (f.Condition == "" && cond == filters.NumEquals) {
				return op + ":" + formatBound(f.Value)
			}
		}
	case filters.DateFilter:
		if f.Condition == filters.DateInRange {
			return "between:" + f.From + rangeSep + f.To
		}
		for op, cond := range dateOps {
			if cond == f.Condition || (f.Condition == "" && cond == filters.DateOn) {
				return op + ":" + f.Value
			}
		}
	case filters.SetFilter:
		return "in:" + strings.Join(f.Selected(), "|")
	}
	return ""
}

func formatBound(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
