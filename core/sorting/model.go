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

package sorting

import (
	"fmt"
	"strings"
)

// Direction is a sort direction.
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// ParseDirection parses "asc" or "desc". The empty string is Asc.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc":
		return Asc, nil
	case "desc":
		return Desc, nil
	}
	return Asc, fmt.Errorf("unknown sort direction %q", s)
}

// SortColumn is one sort instruction.
type SortColumn struct {
	ColID     string
	Direction Direction
}

// Model is an ordered list of sort instructions; the first entry is the
// primary key. A column appears at most once.
type Model []SortColumn

// Find returns the entry for colID and its position, or -1.
func (m Model) Find(colID string) (SortColumn, int) {
	for i, sc := range m {
		if sc.ColID == colID {
			return sc, i
		}
	}
	return SortColumn{}, -1
}

// Validate reports duplicate or empty column ids.
func (m Model) Validate() error {
	seen := make(map[string]bool, len(m))
	for i, sc := range m {
		if sc.ColID == "" {
			return fmt.Errorf("sort entry %d: empty column id", i)
		}
		if seen[sc.ColID] {
			return fmt.Errorf("sort entry %d: duplicate column %q", i, sc.ColID)
		}
		seen[sc.ColID] = true
	}
	return nil
}

// Toggle returns the model after the header of colID is activated. Each
// activation cycles the column none, asc, desc, none. A plain activation
// replaces the whole model with the column's next state. A multi activation
// keeps the other entries and moves the column to first priority, or drops
// it when its cycle ends.
func (m Model) Toggle(colID string, multi bool) Model {
	existing, pos := m.Find(colID)

	var next *SortColumn
	switch {
	case pos < 0:
		next = &SortColumn{ColID: colID, Direction: Asc}
	case existing.Direction == Asc:
		next = &SortColumn{ColID: colID, Direction: Desc}
	}

	if !multi {
		if next == nil {
			return Model{}
		}
		return Model{*next}
	}

	out := make(Model, 0, len(m)+1)
	if next != nil {
		out = append(out, *next)
	}
	for _, sc := range m {
		if sc.ColID != colID {
			out = append(out, sc)
		}
	}
	return out
}

// String renders the model as "col:dir,col:dir".
func (m Model) String() string {
	parts := make([]string, len(m))
	for i, sc := range m {
		parts[i] = sc.ColID + ":" + sc.Direction.String()
	}
	return strings.Join(parts, ",")
}

// ParseModel parses the String form. A bare column id sorts ascending.
func ParseModel(s string) (Model, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Model{}, nil
	}
	var m Model
	for _, part := range strings.Split(s, ",") {
		colID, dir, _ := strings.Cut(strings.TrimSpace(part), ":")
		d, err := ParseDirection(dir)
		if err != nil {
			return nil, fmt.Errorf("sort %q: %w", part, err)
		}
		m = append(m, SortColumn{ColID: colID, Direction: d})
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
