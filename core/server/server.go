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

package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/google/safehtml"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/text/message"

	"github.com/google/tabula/core/charts"
	"github.com/google/tabula/core/pipeline"
	"github.com/google/tabula/core/query"
	"github.com/google/tabula/core/rendering"
	"github.com/google/tabula/core/state"
	"github.com/google/tabula/core/views"
)

// Grid is a named data set the server offers. State is the grid's initial
// state; every request starts from it. PageSize, when positive, replaces
// the default page size for URLs that do not set one. ChartSource is the
// chart data source for chart requests that do not name one.
type Grid struct {
	Name        string
	Title       string
	Description string
	State       state.State
	PageSize    int
	ChartSource charts.Source
}

// gridEntry holds a grid with its pipeline and the state derived for the
// most recent query, so that paging through one query reuses the
// pipeline's cached stages.
type gridEntry struct {
	grid     Grid
	pipeline *pipeline.Pipeline

	mu      sync.Mutex
	lastKey string
	last    state.State
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithRegistry sets the registry metrics are registered on and served from.
func WithRegistry(r *prometheus.Registry) Option {
	return func(s *Server) { s.registry = r }
}

// WithTitle sets the landing page title and subtitle.
func WithTitle(title, subtitle string) Option {
	return func(s *Server) {
		s.title = title
		s.subtitle = subtitle
	}
}

// WithPrinter sets the printer used for status bar numbers.
func WithPrinter(p *message.Printer) Option {
	return func(s *Server) { s.printer = p }
}

// Server represents the application server with all its dependencies
type Server struct {
	renderer *rendering.GridRenderer
	log      *zap.Logger
	printer  *message.Printer

	registry *prometheus.Registry
	metrics  *pipeline.Metrics
	requests *prometheus.CounterVec

	title    string
	subtitle string

	mu    sync.RWMutex
	grids map[string]*gridEntry
	order []string
}

// NewServer creates a server without grids; add them with AddGrid.
func NewServer(opts ...Option) (*Server, error) {
	renderer, err := rendering.NewGridRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	s := &Server{
		renderer: renderer,
		log:      zap.NewNop(),
		title:    "Tabula",
		grids:    make(map[string]*gridEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	if s.printer == nil {
		s.printer = views.DefaultPrinter()
	}

	if s.metrics, err = pipeline.NewMetrics(s.registry); err != nil {
		return nil, err
	}
	s.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tabula",
		Subsystem: "server",
		Name:      "requests_total",
		Help:      "HTTP requests by handler and status code.",
	}, []string{"handler", "code"})
	if err := s.registry.Register(s.requests); err != nil {
		return nil, fmt.Errorf("register request counter: %w", err)
	}
	return s, nil
}

// AddGrid registers g under g.Name.
func (s *Server) AddGrid(g Grid) error {
	if g.Name == "" {
		return errors.New("grid name is required")
	}
	if err := g.State.ColumnDefs.Validate(); err != nil {
		return fmt.Errorf("grid %q: %w", g.Name, err)
	}
	if g.Title == "" {
		g.Title = g.Name
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.grids[g.Name]; exists {
		return fmt.Errorf("grid %q already registered", g.Name)
	}
	s.grids[g.Name] = &gridEntry{
		grid: g,
		pipeline: pipeline.New(
			pipeline.WithLogger(s.log.With(zap.String("grid", g.Name))),
			pipeline.WithMetrics(s.metrics),
		),
	}
	s.order = append(s.order, g.Name)
	return nil
}

func (s *Server) entry(name string) *gridEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.grids[name]
}

// GridHandlerResult represents the result of handling a grid request
type GridHandlerResult struct {
	Error      error
	StatusCode int
	Message    string
}

// TimingCollector collects timing measurements for various operations
type TimingCollector struct {
	entries []views.TimingEntry
	start   time.Time
}

// NewTimingCollector creates a new timing collector
func NewTimingCollector() *TimingCollector {
	return &TimingCollector{start: time.Now()}
}

// Record records a timing entry
func (tc *TimingCollector) Record(operation string, duration time.Duration) {
	tc.entries = append(tc.entries, views.TimingEntry{
		Operation:  operation,
		DurationMs: fmt.Sprintf("%.2f", float64(duration.Microseconds())/1000.0),
	})
}

// GetEntries returns all timing entries
func (tc *TimingCollector) GetEntries() []views.TimingEntry {
	return tc.entries
}

// TotalMs returns total elapsed time in milliseconds as formatted string
func (tc *TimingCollector) TotalMs() string {
	return fmt.Sprintf("%.2f", float64(time.Since(tc.start).Microseconds())/1000.0)
}

// processed is a grid request resolved to state and pipeline output.
type processed struct {
	grid  Grid
	query *query.Query
	state state.State
	view  *pipeline.View
}

// stateKey identifies the state a query produces; paging and zoom do not
// change it.
func stateKey(q *query.Query) string {
	k := q.Clone()
	k.Page = 1
	k.Size = query.DefaultPageSize
	k.Zoom = 1
	return k.ToURL()
}

// process applies the query in requestURL to the named grid and runs the
// pipeline. A nil result means success.
func (s *Server) process(name string, requestURL *url.URL, timing *TimingCollector) (*processed, *GridHandlerResult) {
	e := s.entry(name)
	if e == nil {
		return nil, &GridHandlerResult{StatusCode: http.StatusNotFound, Message: fmt.Sprintf("Grid '%s' not found", name)}
	}

	start := time.Now()
	q := query.NewQuery(requestURL)
	if e.grid.PageSize > 0 && !requestURL.Query().Has("size") {
		q.Size = e.grid.PageSize
	}
	timing.Record("Parse Query", time.Since(start))

	start = time.Now()
	key := stateKey(q)
	e.mu.Lock()
	snapshot, cached := e.last, e.lastKey != "" && key == e.lastKey
	if !cached {
		actions, err := q.Actions(e.grid.State)
		if err != nil {
			e.mu.Unlock()
			return nil, &GridHandlerResult{StatusCode: http.StatusBadRequest, Message: err.Error(), Error: err}
		}
		snapshot = e.grid.State
		for _, a := range actions {
			snapshot = state.Reduce(snapshot, a)
		}
		s.log.Debug("query applied", zap.String("grid", name), zap.Int("actions", len(actions)))
		e.lastKey, e.last = key, snapshot
	}
	e.mu.Unlock()
	timing.Record("Apply Query", time.Since(start))

	start = time.Now()
	view := e.pipeline.Run(snapshot, q.Zoom)
	timing.Record("Run Pipeline", time.Since(start))

	return &processed{grid: e.grid, query: q, state: snapshot, view: view}, nil
}

// HandleGridRequest processes a grid request and writes the response
// Returns an error result if the request is invalid, nil on success
func (s *Server) HandleGridRequest(w io.Writer, name string, requestURL *url.URL, setHeader func(key, value string)) *GridHandlerResult {
	timing := NewTimingCollector()

	p, res := s.process(name, requestURL, timing)
	if res != nil {
		return res
	}

	vmStart := time.Now()
	viewModel := views.BuildGridViewModel(p.grid.Title, p.state, p.view, p.query, s.printer)
	timing.Record("Build ViewModel", time.Since(vmStart))

	viewModel.RenderTimeMs = timing.TotalMs()
	viewModel.TimingBreakdown = timing.GetEntries()

	setHeader("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.Render(w, viewModel); err != nil {
		s.log.Error("template rendering failed", zap.String("grid", name), zap.Error(err))
		return &GridHandlerResult{Error: err}
	}
	s.log.Debug("grid rendered",
		zap.String("grid", name),
		zap.Int("rows", len(p.view.Rows)),
		zap.String("ms", viewModel.RenderTimeMs))
	return nil
}

// HandleLandingRequest processes the landing page request
func (s *Server) HandleLandingRequest(w io.Writer, setHeader func(key, value string)) error {
	setHeader("Content-Type", "text/html; charset=utf-8")

	vm := views.LandingViewModel{
		Title:    s.title,
		Subtitle: s.subtitle,
	}
	s.mu.RLock()
	for _, name := range s.order {
		g := s.grids[name].grid
		vm.Grids = append(vm.Grids, views.GridLink{
			Name:        g.Name,
			Title:       g.Title,
			Description: g.Description,
			Rows:        len(g.State.RowData),
			URL:         safehtml.URLSanitized("/grid/" + url.PathEscape(g.Name)),
		})
	}
	s.mu.RUnlock()

	if err := s.renderer.RenderLanding(w, vm); err != nil {
		s.log.Error("landing page rendering failed", zap.Error(err))
		return err
	}
	return nil
}

// GridNames returns the registered grid names in registration order.
func (s *Server) GridNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order)
}
