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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/google/tabula/core/charts"
	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/sorting"
	"github.com/google/tabula/core/state"
)

const sample = `
name: team
title: Team
source:
  kind: csv
  path: team.csv
columns:
  - field: name
    header_name: Name
    filter_type: text
    pinned: left
  - field: sal
    header_name: Salary
    filter_type: number
    enable_value: true
    aggregation: sum
    width: 90
  - field: notes
    filter_type: none
    sortable: false
    hide: true
row_height: 30
page_size: 50
sort: sal:desc
analysis:
  visible_columns: [name, sal]
  aggregations:
    sal: avg
  contribution: sal
charts:
  source: processed
server:
  addr: ":9000"
  shutdown_timeout: 3s
logging:
  level: debug
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "team", cfg.Name)
	assert.Equal(t, SourceConfig{Kind: "csv", Path: "team.csv"}, cfg.Source)
	assert.Equal(t, 30, cfg.RowHeight)
	assert.Equal(t, state.DefaultHeaderHeight, cfg.HeaderHeight)
	assert.Equal(t, 1.0, cfg.Zoom)
	assert.Equal(t, 50, cfg.PageSize)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, charts.SourceProcessed, cfg.ChartSource())

	defs := cfg.ColumnDefs()
	require.Len(t, defs, 3)
	assert.Equal(t, columns.PinLeft, defs[0].Pinned)
	assert.True(t, defs[0].Sortable)
	assert.True(t, defs[0].Filter)
	assert.Equal(t, columns.AggSum, defs[1].AggregationFunction)
	assert.Equal(t, 90, defs[1].Width)
	assert.False(t, defs[2].Sortable)
	assert.False(t, defs[2].Filter)
	assert.Equal(t, columns.FilterNone, defs[2].FilterType)
}

func TestInitialState(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)

	s := cfg.InitialState(nil, []columns.Row{columns.NewRow(map[string]any{"name": "Ann", "sal": 1})})
	assert.Equal(t, sorting.Model{{ColID: "sal", Direction: sorting.Desc}}, s.SortModel)
	require.NotNil(t, s.Analysis)
	assert.Equal(t, "sal", s.Analysis.ContributionColumn)
	assert.Equal(t, columns.AggAvg, s.Analysis.Aggregations["sal"])
	assert.Equal(t, []string{"name", "sal"}, s.Analysis.VisibleColumns.Sorted())
	assert.True(t, s.HiddenColumns.Has("notes"))
	assert.Equal(t, 30, s.RowHeight)

	// Inferred columns are used when none are configured.
	cfg.Columns = nil
	cfg.Sort = ""
	cfg.Analysis = AnalysisConfig{}
	inferred := columns.Defs{{Field: "x"}}
	s = cfg.InitialState(inferred, nil)
	assert.Equal(t, []string{"x"}, s.ColumnDefs.Fields())
	assert.Nil(t, s.Analysis)

	// Aggregations without visible_columns keep every column.
	cfg.Analysis = AnalysisConfig{Aggregations: map[string]string{"x": "sum"}, Contribution: "x"}
	s = cfg.InitialState(inferred, nil)
	require.NotNil(t, s.Analysis)
	assert.Equal(t, []string{"x"}, s.Analysis.VisibleColumns.Sorted())
	assert.Equal(t, "x", s.Analysis.ContributionColumn)
}

func TestComputedColumns(t *testing.T) {
	cfg, err := Parse([]byte(`
computed:
  - field: total
    header_name: Total
    expression: salary + coalesce(bonus, 0)
  - field: tag
    expression: upper(name)
    filter: true
    filter_type: text
`))
	require.NoError(t, err)

	inferred := columns.Defs{{Field: "name"}, {Field: "salary"}, {Field: "bonus"}}
	rows := []columns.Row{
		columns.NewRow(map[string]any{"name": "Ann", "salary": 100, "bonus": 10}),
		columns.NewRow(map[string]any{"name": "Bob", "salary": 200}),
	}
	s := cfg.InitialState(inferred, rows)
	assert.Equal(t, []string{"name", "salary", "bonus", "total", "tag"}, s.ColumnDefs.Fields())
	assert.Len(t, inferred, 3)

	total := s.ColumnDefs.Find("total")
	assert.False(t, total.Filter)
	assert.Equal(t, "110", total.DisplayValue(rows[0]))
	assert.Equal(t, "200", total.DisplayValue(rows[1]))
	assert.True(t, s.ColumnDefs.Find("tag").Filter)
	assert.Equal(t, "BOB", s.ColumnDefs.Find("tag").DisplayValue(rows[1]))
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Empty(t, cfg.InitialActions(nil))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want []string
	}{
		{"unknown key", "colour: red", []string{"colour"}},
		{"bad source", "source: {kind: sql}", []string{"source.kind"}},
		{"csv needs path", "source: {kind: csv}", []string{"source.path"}},
		{"bad zoom", "zoom: 9", []string{"zoom"}},
		{"bad field", "columns: [{field: 'a:b'}]", []string{"columns[0].field"}},
		{"duplicate field", "columns: [{field: a}, {field: a}]", []string{"duplicate"}},
		{"bad aggregation", "columns: [{field: a, aggregation: median}]", []string{"columns[0].aggregation"}},
		{"bad sort", "sort: 'a:sideways'", []string{"sort"}},
		{"unknown references", "columns: [{field: a}]\nsort: b\nanalysis: {contribution: c, visible_columns: [d]}",
			[]string{`sort: unknown column "b"`, `contribution: unknown column "c"`, `visible_columns: unknown column "d"`}},
		{"bad level", "logging: {level: loud}", []string{"logging.level"}},
		{"computed needs expression", "computed: [{field: t}]", []string{"computed[0].expression: required"}},
		{"bad expression", "computed: [{field: t, expression: 'a +'}]", []string{"computed[0].expression"}},
		{"computed clashes", "columns: [{field: a}]\ncomputed: [{field: a, expression: '1'}]", []string{"duplicate"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			for _, want := range tt.want {
				assert.ErrorContains(t, err, want)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TABULA_PAGE_SIZE", "10")
	t.Setenv("TABULA_LOGGING_LEVEL", "warn")
	t.Setenv("TABULA_SERVER_SHUTDOWN_TIMEOUT", "1m")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, time.Minute, cfg.Server.ShutdownTimeout)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Team", cfg.Title)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	logger, level, err := NewLogger(LoggingConfig{Level: "warn"})
	require.NoError(t, err)
	assert.NotNil(t, logger)
	assert.Equal(t, zapcore.WarnLevel, level.Level())
	level.SetLevel(zapcore.DebugLevel)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	_, _, err = NewLogger(LoggingConfig{Level: "loud"})
	assert.Error(t, err)
}
