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

import (
	"fmt"
	"strings"
)

// FilterType selects how a column's filter entry is evaluated.
type FilterType int

const (
	FilterNone FilterType = iota
	FilterText
	FilterNumber
	FilterDate
	FilterSet
)

func (t FilterType) String() string {
	switch t {
	case FilterText:
		return "text"
	case FilterNumber:
		return "number"
	case FilterDate:
		return "date"
	case FilterSet:
		return "set"
	default:
		return ""
	}
}

// ParseFilterType parses "text", "number", "date" or "set". The empty
// string is FilterNone.
func ParseFilterType(s string) (FilterType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return FilterNone, nil
	case "text":
		return FilterText, nil
	case "number":
		return FilterNumber, nil
	case "date":
		return FilterDate, nil
	case "set":
		return FilterSet, nil
	}
	return FilterNone, fmt.Errorf("unknown filter type %q", s)
}

// Pinned is the side a column is pinned to.
type Pinned int

const (
	PinNone Pinned = iota
	PinLeft
	PinRight
)

func (p Pinned) String() string {
	switch p {
	case PinLeft:
		return "left"
	case PinRight:
		return "right"
	default:
		return ""
	}
}

// ParsePinned parses "left", "right" or "" / "none".
func ParsePinned(s string) (Pinned, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return PinNone, nil
	case "left":
		return PinLeft, nil
	case "right":
		return PinRight, nil
	}
	return PinNone, fmt.Errorf("unknown pin side %q", s)
}

// AggregationType is a summary statistic over a column.
type AggregationType int

const (
	AggNone AggregationType = iota
	AggSum
	AggAvg
	AggMin
	AggMax
	AggCount
)

func (a AggregationType) String() string {
	switch a {
	case AggSum:
		return "sum"
	case AggAvg:
		return "avg"
	case AggMin:
		return "min"
	case AggMax:
		return "max"
	case AggCount:
		return "count"
	default:
		return ""
	}
}

// ParseAggregationType parses "sum", "avg", "min", "max" or "count". The
// empty string is AggNone.
func ParseAggregationType(s string) (AggregationType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return AggNone, nil
	case "sum":
		return AggSum, nil
	case "avg":
		return AggAvg, nil
	case "min":
		return AggMin, nil
	case "max":
		return AggMax, nil
	case "count":
		return AggCount, nil
	}
	return AggNone, fmt.Errorf("unknown aggregation %q", s)
}
