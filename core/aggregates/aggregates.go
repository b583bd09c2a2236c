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

// Package aggregates computes summary statistics over a column of the
// processed row set, plus the per-row contribution percentage.
package aggregates

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/values"
)

// NumericAggState stores intermediate state for numeric column aggregates.
// It can derive sum, avg, min, max, and count, and states can be combined.
type NumericAggState struct {
	Count int64   // Number of values
	Sum   float64 // Sum of values
	Min   float64 // Minimum value
	Max   float64 // Maximum value
}

// NewNumericAggState creates a new empty numeric aggregate state.
func NewNumericAggState() *NumericAggState {
	return &NumericAggState{
		Min: math.Inf(1),
		Max: math.Inf(-1),
	}
}

// Add adds a single value to the aggregate state.
func (s *NumericAggState) Add(value float64) {
	s.Count++
	s.Sum += value
	if value < s.Min {
		s.Min = value
	}
	if value > s.Max {
		s.Max = value
	}
}

// Combine merges another numeric state into this one.
func (s *NumericAggState) Combine(o *NumericAggState) {
	if o == nil || o.Count == 0 {
		return
	}
	s.Count += o.Count
	s.Sum += o.Sum
	if o.Min < s.Min {
		s.Min = o.Min
	}
	if o.Max > s.Max {
		s.Max = o.Max
	}
}

// Avg returns the average (mean) of the values.
func (s *NumericAggState) Avg() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}

// Value returns the statistic for aggType. ok is false for an empty state
// or AggNone.
func (s *NumericAggState) Value(aggType columns.AggregationType) (float64, bool) {
	if s.Count == 0 {
		return 0, false
	}
	switch aggType {
	case columns.AggSum:
		return s.Sum, true
	case columns.AggAvg:
		return s.Avg(), true
	case columns.AggMin:
		return s.Min, true
	case columns.AggMax:
		return s.Max, true
	case columns.AggCount:
		return float64(s.Count), true
	default:
		return 0, false
	}
}

// Spec maps field to the requested statistic.
type Spec map[string]columns.AggregationType

// Fields returns the spec's fields in sorted order.
func (s Spec) Fields() []string {
	fields := make([]string, 0, len(s))
	for f := range s {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// Aggregates maps field to its computed statistic. A field with no
// parseable values is absent, which distinguishes "no data" from zero.
type Aggregates map[string]float64

// Collect folds the parseable numeric values of field across rows.
func Collect(rows []columns.Row, field string) *NumericAggState {
	state := NewNumericAggState()
	for _, row := range rows {
		if f, ok := values.ParseFloat(row.Get(field)); ok {
			state.Add(f)
		}
	}
	return state
}

// Compute evaluates spec over rows.
func Compute(rows []columns.Row, spec Spec) Aggregates {
	out := make(Aggregates, len(spec))
	for _, field := range spec.Fields() {
		aggType := spec[field]
		if aggType == columns.AggNone {
			continue
		}
		if v, ok := Collect(rows, field).Value(aggType); ok {
			out[field] = v
		}
	}
	return out
}

// Analysis is the aggregate result for an analysis configuration.
type Analysis struct {
	Aggregates Aggregates
	// ContributionField is the column whose share each row shows, if any.
	ContributionField string
	// ContributionTotal is the sum of ContributionField, valid when
	// HasContribution is set.
	ContributionTotal float64
	HasContribution   bool
}

// Analyze computes spec over rows and, when contributionField is set, the
// sum that contribution percentages divide by. That sum is always the sum,
// whatever statistic was requested for the field; when none was requested
// it is also stored in Aggregates.
func Analyze(rows []columns.Row, spec Spec, contributionField string) Analysis {
	a := Analysis{
		Aggregates:        Compute(rows, spec),
		ContributionField: contributionField,
	}
	if contributionField == "" {
		return a
	}
	if sum, ok := Collect(rows, contributionField).Value(columns.AggSum); ok {
		a.ContributionTotal = sum
		a.HasContribution = true
		if _, present := a.Aggregates[contributionField]; !present {
			a.Aggregates[contributionField] = sum
		}
	}
	return a
}

// ContributionUsable reports whether the contribution total can divide:
// present, finite and non-zero.
func (a Analysis) ContributionUsable() bool {
	return a.HasContribution && a.ContributionTotal != 0 &&
		!math.IsNaN(a.ContributionTotal) && !math.IsInf(a.ContributionTotal, 0)
}

// ContributionPercent formats v as a percentage of total with two decimals,
// e.g. "25.00%". It returns "" when v does not parse or total is zero or
// not finite.
func ContributionPercent(v values.Value, total float64) string {
	if total == 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return ""
	}
	f, ok := values.ParseFloat(v)
	if !ok {
		return ""
	}
	return strconv.FormatFloat(f/total*100, 'f', 2, 64) + "%"
}

// FormatNumber renders an aggregate for compact display: integers without a
// fraction, everything else with two decimals and trailing zeros trimmed.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return "-"
	case f == math.Trunc(f) && math.Abs(f) < 1e15:
		return fmt.Sprintf("%.0f", f)
	}
	s := strconv.FormatFloat(f, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
