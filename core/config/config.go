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

// Package config loads a grid's YAML configuration: data source, column
// definitions, initial view state, server and logging settings.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/google/tabula/core/charts"
	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/expr"
	"github.com/google/tabula/core/sorting"
	"github.com/google/tabula/core/state"
)

// EnvPrefix prefixes environment overrides, e.g. TABULA_LOGGING_LEVEL or
// TABULA_SERVER_SHUTDOWN_TIMEOUT.
const EnvPrefix = "TABULA"

// Config is a grid configuration file.
type Config struct {
	Name        string `yaml:"name" validate:"required,fieldname"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`

	Source   SourceConfig   `yaml:"source"`
	Columns  []ColumnConfig `yaml:"columns" ignored:"true" validate:"dive"`
	Computed []ColumnConfig `yaml:"computed" ignored:"true" validate:"dive"`

	RowHeight    int     `yaml:"row_height" split_words:"true" validate:"gte=0"`
	HeaderHeight int     `yaml:"header_height" split_words:"true" validate:"gte=0"`
	Zoom         float64 `yaml:"zoom" validate:"gte=0.25,lte=4"`
	PageSize     int     `yaml:"page_size" split_words:"true" validate:"gte=0"`
	Sort         string  `yaml:"sort"`

	Analysis AnalysisConfig `yaml:"analysis" ignored:"true"`
	Charts   ChartsConfig   `yaml:"charts"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SourceConfig selects where rows come from.
type SourceConfig struct {
	Kind  string `yaml:"kind" validate:"oneof=demo csv xlsx"`
	Path  string `yaml:"path" validate:"required_unless=Kind demo"`
	Sheet string `yaml:"sheet"`
}

// ColumnConfig declares one column. Unset sortable and filter default to
// true, except that computed columns are not filterable by default.
// Expression makes the column computed: its value is the expression
// evaluated over the row.
type ColumnConfig struct {
	Field          string `yaml:"field" validate:"required,fieldname"`
	Expression     string `yaml:"expression"`
	HeaderName     string `yaml:"header_name"`
	Width          int    `yaml:"width" validate:"gte=0"`
	MinWidth       int    `yaml:"min_width" validate:"gte=0"`
	MaxWidth       int    `yaml:"max_width" validate:"gte=0"`
	FilterType     string `yaml:"filter_type" validate:"omitempty,oneof=text number date set none"`
	Sortable       *bool  `yaml:"sortable"`
	Filter         *bool  `yaml:"filter"`
	Pinned         string `yaml:"pinned" validate:"omitempty,oneof=left right none"`
	Hide           bool   `yaml:"hide"`
	EnableValue    bool   `yaml:"enable_value"`
	Aggregation    string `yaml:"aggregation" validate:"omitempty,oneof=sum avg min max count"`
	EnablePivot    bool   `yaml:"enable_pivot"`
	EnableRowGroup bool   `yaml:"enable_row_group"`
}

// AnalysisConfig is the initial analysis configuration.
type AnalysisConfig struct {
	VisibleColumns []string          `yaml:"visible_columns"`
	Aggregations   map[string]string `yaml:"aggregations" validate:"dive,oneof=sum avg min max count none"`
	Contribution   string            `yaml:"contribution"`
}

// ChartsConfig configures the charting endpoint.
type ChartsConfig struct {
	Source string `yaml:"source" validate:"omitempty,oneof=raw processed"`
}

// ServerConfig configures `tabula serve`.
type ServerConfig struct {
	Addr            string        `yaml:"addr" validate:"required"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true" validate:"gte=0"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

// Default returns the configuration used when no file is given: the demo
// data set with its own column definitions.
func Default() *Config {
	return &Config{
		Name:         "employees",
		Title:        "Employees",
		Source:       SourceConfig{Kind: "demo"},
		RowHeight:    state.DefaultRowHeight,
		HeaderHeight: state.DefaultHeaderHeight,
		Zoom:         1,
		PageSize:     25,
		Charts:       ChartsConfig{Source: "raw"},
		Server:       ServerConfig{Addr: ":8097", ShutdownTimeout: 10 * time.Second},
		Logging:      LoggingConfig{Level: "info"},
	}
}

// Load reads the configuration at path. An empty path yields the defaults.
// Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	if path == "" {
		return finish(Default())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults, applies environment overrides and
// validates the result. Unknown keys are errors.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Field names travel in URLs as "col:value" lists.
	_ = v.RegisterValidation("fieldname", func(fl validator.FieldLevel) bool {
		return !strings.ContainsAny(fl.Field().String(), "&=:,")
	})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		return name
	})
	return v
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	var errs []error
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			errs = append(errs, fmt.Errorf("%s: failed %q check", yamlPath(fe.Namespace()), fe.Tag()))
		}
	}

	for i, cc := range c.Computed {
		if cc.Expression == "" {
			errs = append(errs, fmt.Errorf("computed[%d].expression: required", i))
		}
	}
	for _, group := range []struct {
		name string
		cols []ColumnConfig
	}{{"columns", c.Columns}, {"computed", c.Computed}} {
		for i, cc := range group.cols {
			if cc.Expression == "" {
				continue
			}
			if _, err := expr.Compile(cc.Expression); err != nil {
				errs = append(errs, fmt.Errorf("%s[%d].expression: %w", group.name, i, err))
			}
		}
	}

	defs := append(c.ColumnDefs(), c.ComputedDefs()...)
	if err := defs.Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := sorting.ParseModel(c.Sort); err != nil {
		errs = append(errs, fmt.Errorf("sort: %w", err))
	}

	// Columns referenced elsewhere must be declared, unless the columns come
	// from the data itself.
	if len(c.Columns) > 0 {
		known := defs.Index()
		check := func(where, field string) {
			if _, ok := known[field]; !ok {
				errs = append(errs, fmt.Errorf("%s: unknown column %q", where, field))
			}
		}
		if m, err := sorting.ParseModel(c.Sort); err == nil {
			for _, sc := range m {
				check("sort", sc.ColID)
			}
		}
		for _, f := range c.Analysis.VisibleColumns {
			check("analysis.visible_columns", f)
		}
		for _, f := range sortedKeys(c.Analysis.Aggregations) {
			check("analysis.aggregations", f)
		}
		if c.Analysis.Contribution != "" {
			check("analysis.contribution", c.Analysis.Contribution)
		}
	}
	return errors.Join(errs...)
}

// yamlPath turns "Config.columns[0].field" into "columns[0].field".
func yamlPath(ns string) string {
	_, rest, ok := strings.Cut(ns, ".")
	if !ok {
		return ns
	}
	return rest
}

// ColumnDefs converts the declared columns. Values were validated, so
// parse errors cannot occur here.
func (c *Config) ColumnDefs() columns.Defs {
	return toDefs(c.Columns)
}

// ComputedDefs converts the computed columns, which are appended to the
// grid's columns whether those are declared or inferred.
func (c *Config) ComputedDefs() columns.Defs {
	return toDefs(c.Computed)
}

func toDefs(cols []ColumnConfig) columns.Defs {
	defs := make(columns.Defs, 0, len(cols))
	for _, cc := range cols {
		var ft columns.FilterType
		if cc.FilterType != "none" {
			ft, _ = columns.ParseFilterType(cc.FilterType)
		}
		pinned, _ := columns.ParsePinned(cc.Pinned)
		agg, _ := columns.ParseAggregationType(cc.Aggregation)
		def := &columns.ColumnDef{
			Field:               cc.Field,
			HeaderName:          cc.HeaderName,
			Width:               cc.Width,
			MinWidth:            cc.MinWidth,
			MaxWidth:            cc.MaxWidth,
			Resizable:           true,
			Sortable:            boolOr(cc.Sortable, true),
			Filter:              boolOr(cc.Filter, cc.Expression == "") && cc.FilterType != "none",
			FilterType:          ft,
			Pinned:              pinned,
			Hide:                cc.Hide,
			EnableValue:         cc.EnableValue,
			AggregationFunction: agg,
			EnablePivot:         cc.EnablePivot,
			EnableRowGroup:      cc.EnableRowGroup,
		}
		if cc.Expression != "" {
			if e, err := expr.Compile(cc.Expression); err == nil {
				def.ValueGetter = e.ValueGetter()
			}
		}
		defs = append(defs, def)
	}
	return defs
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// InitialActions returns the actions that bring a fresh state over defs to
// the configured sort and analysis. An analysis without visible_columns
// keeps every column of defs.
func (c *Config) InitialActions(defs columns.Defs) []state.Action {
	var actions []state.Action
	if m, err := sorting.ParseModel(c.Sort); err == nil && len(m) > 0 {
		actions = append(actions, state.SetSortModel{Model: m})
	}
	a := c.Analysis
	if len(a.VisibleColumns) == 0 && len(a.Aggregations) == 0 && a.Contribution == "" {
		return actions
	}
	visible := a.VisibleColumns
	if len(visible) == 0 {
		visible = defs.Fields()
	}
	cfg := &state.AnalysisConfig{
		VisibleColumns:     state.NewSet(visible...),
		Aggregations:       map[string]columns.AggregationType{},
		ContributionColumn: a.Contribution,
	}
	for field, name := range a.Aggregations {
		agg, _ := columns.ParseAggregationType(name)
		cfg.Aggregations[field] = agg
	}
	return append(actions, state.SetAnalysisConfig{Config: cfg})
}

// InitialState builds the grid's starting state over rows. defs replaces
// the configured columns when the configuration declares none; computed
// columns follow either set.
func (c *Config) InitialState(defs columns.Defs, rows []columns.Row) state.State {
	if configured := c.ColumnDefs(); len(configured) > 0 {
		defs = configured
	}
	if computed := c.ComputedDefs(); len(computed) > 0 {
		defs = append(slices.Clone(defs), computed...)
	}
	s := state.New(defs, rows)
	for _, a := range c.InitialActions(defs) {
		s = state.Reduce(s, a)
	}
	if c.RowHeight > 0 {
		s.RowHeight = c.RowHeight
	}
	if c.HeaderHeight > 0 {
		s.HeaderHeight = c.HeaderHeight
	}
	return s
}

// ChartSource returns the configured chart data source.
func (c *Config) ChartSource() charts.Source {
	src, _ := charts.ParseSource(c.Charts.Source)
	return src
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
