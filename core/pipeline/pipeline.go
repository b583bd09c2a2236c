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

// Package pipeline derives what a grid shows from its state: rows are
// filtered, then sorted, then aggregated, and the visible columns are laid
// out. Each stage is cached on the state revisions it reads and recomputes
// only when one of them changes.
package pipeline

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/google/tabula/core/aggregates"
	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/filters"
	"github.com/google/tabula/core/sorting"
	"github.com/google/tabula/core/state"
)

const (
	StageFilter    = "filter"
	StageSort      = "sort"
	StageAggregate = "aggregate"
	StageColumns   = "columns"
)

// ProcessedRow is a row in display order. ID is the row's index in the
// state's row data and is the identity used for selection; Index is its
// display position.
type ProcessedRow struct {
	ID    int
	Index int
	Row   columns.Row
}

// View is the output handed to presentation and export.
type View struct {
	Rows      []ProcessedRow
	Columns   []state.VisibleColumn
	Analysis  aggregates.Analysis
	Selection []int
	// TotalRows is the number of rows before filtering.
	TotalRows int
}

// Data returns the processed rows without their ids.
func (v *View) Data() []columns.Row {
	out := make([]columns.Row, len(v.Rows))
	for i, r := range v.Rows {
		out[i] = r.Row
	}
	return out
}

type filterKey struct {
	rows, defs, filter uint64
}

type sortKey struct {
	filtered filterKey
	sort     uint64
}

type aggregateKey struct {
	filtered filterKey
	analysis uint64
}

type columnsKey struct {
	defs, order, hidden, widths, pins, analysis uint64
	aggregates                                  aggregateKey
	zoom                                        float64
}

// memo caches the last value computed for a key.
type memo[K comparable, V any] struct {
	valid bool
	key   K
	value V
}

func (m *memo[K, V]) get(key K, compute func() V) (V, bool) {
	if m.valid && m.key == key {
		return m.value, true
	}
	m.key, m.value, m.valid = key, compute(), true
	return m.value, false
}

// Option configures a Pipeline.
type Option func(*Pipeline)

func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// Pipeline runs the derivation stages. It is safe for concurrent use; runs
// are serialized and the most recent inputs win.
type Pipeline struct {
	log     *zap.Logger
	metrics *Metrics

	mu       sync.Mutex
	filtered memo[filterKey, []int]
	sorted   memo[sortKey, []int]
	analysis memo[aggregateKey, aggregates.Analysis]
	columns  memo[columnsKey, []state.VisibleColumn]
}

func New(opts ...Option) *Pipeline {
	p := &Pipeline{log: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// stage evaluates one cached stage, recording metrics and logging misses.
func stage[K comparable, V any](p *Pipeline, name string, m *memo[K, V], key K, compute func() V) V {
	start := time.Now()
	v, hit := m.get(key, compute)
	if hit {
		p.metrics.hit(name)
		return v
	}
	elapsed := time.Since(start)
	p.metrics.miss(name, elapsed)
	p.log.Debug("stage recomputed", zap.String("stage", name), zap.Duration("elapsed", elapsed))
	return v
}

// Run derives the view for s at the given zoom factor. s is not modified.
func (p *Pipeline) Run(s state.State, zoom float64) *View {
	p.mu.Lock()
	defer p.mu.Unlock()

	rev := s.Revisions
	fk := filterKey{rows: rev.Rows, defs: rev.Defs, filter: rev.Filter}
	filtered := stage(p, StageFilter, &p.filtered, fk, func() []int {
		return filters.Indices(s.RowData, s.FilterModel, s.ColumnDefs)
	})

	sorted := stage(p, StageSort, &p.sorted, sortKey{filtered: fk, sort: rev.Sort}, func() []int {
		return sorting.Indices(s.RowData, filtered, s.SortModel, s.ColumnDefs)
	})

	ak := aggregateKey{filtered: fk, analysis: rev.Analysis}
	analysis := stage(p, StageAggregate, &p.analysis, ak, func() aggregates.Analysis {
		rows := make([]columns.Row, len(filtered))
		for i, id := range filtered {
			rows[i] = s.RowData[id]
		}
		spec, contribution := AggregationSpec(s)
		return aggregates.Analyze(rows, spec, contribution)
	})

	ck := columnsKey{
		defs:       rev.Defs,
		order:      rev.Order,
		hidden:     rev.Hidden,
		widths:     rev.Widths,
		pins:       rev.Pins,
		analysis:   rev.Analysis,
		aggregates: ak,
		zoom:       zoom,
	}
	visible := stage(p, StageColumns, &p.columns, ck, func() []state.VisibleColumn {
		return state.VisibleColumns(s, analysis, zoom)
	})

	view := &View{
		Rows:      make([]ProcessedRow, len(sorted)),
		Columns:   visible,
		Analysis:  analysis,
		Selection: s.SelectedRows.Sorted(),
		TotalRows: len(s.RowData),
	}
	for pos, id := range sorted {
		view.Rows[pos] = ProcessedRow{ID: id, Index: pos, Row: s.RowData[id]}
	}
	return view
}

// AggregationSpec returns the statistics to compute for s and the
// contribution column. An active analysis configuration supplies both;
// otherwise each value column's declared aggregation is used.
func AggregationSpec(s state.State) (aggregates.Spec, string) {
	spec := aggregates.Spec{}
	if s.Analysis != nil {
		for field, agg := range s.Analysis.Aggregations {
			if agg != columns.AggNone {
				spec[field] = agg
			}
		}
		return spec, s.Analysis.ContributionColumn
	}
	for _, cd := range s.ColumnDefs {
		if cd != nil && cd.EnableValue && cd.AggregationFunction != columns.AggNone {
			spec[cd.Field] = cd.AggregationFunction
		}
	}
	return spec, ""
}
