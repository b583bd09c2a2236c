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
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/google/tabula/core/charts"
	"github.com/google/tabula/core/export"
	"github.com/google/tabula/core/grouping"
)

// ExportResponse is the JSON body of the export endpoint.
type ExportResponse struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// ChartPoint is one point of a chart series.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ChartResponse is the JSON body of the chart endpoint.
type ChartResponse struct {
	Kind   string       `json:"kind"`
	X      string       `json:"x"`
	Y      string       `json:"y,omitempty"`
	Points []ChartPoint `json:"points"`
}

// GroupNode is one row group in the groups endpoint's tree.
type GroupNode struct {
	Field      string             `json:"field"`
	Key        string             `json:"key"`
	Path       string             `json:"path"`
	Count      int                `json:"count"`
	Expanded   bool               `json:"expanded"`
	Aggregates map[string]float64 `json:"aggregates,omitempty"`
	RowIDs     []int              `json:"rowIds,omitempty"`
	Children   []GroupNode        `json:"children,omitempty"`
}

// ErrorResponse is the JSON body of a failed API request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler returns the server's routes:
//
//	GET /                       landing page
//	GET /grid/{name}            HTML grid for the query in the URL
//	GET /grid/{name}/export     resolved display values as JSON
//	GET /grid/{name}/chart      chart series as JSON (kind, x, y, source)
//	GET /grid/{name}/groups     row-group tree as JSON (group, expanded)
//	GET /metrics                Prometheus metrics
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleLanding)
	r.Route("/grid/{name}", func(r chi.Router) {
		r.Get("/", s.handleGrid)
		r.With(render.SetContentType(render.ContentTypeJSON)).Get("/export", s.handleExport)
		r.With(render.SetContentType(render.ContentTypeJSON)).Get("/chart", s.handleChart)
		r.With(render.SetContentType(render.ContentTypeJSON)).Get("/groups", s.handleGroups)
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))
	return r
}

func (s *Server) count(handler string, code int) {
	s.requests.WithLabelValues(handler, strconv.Itoa(code)).Inc()
}

func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	if err := s.HandleLandingRequest(w, w.Header().Set); err != nil {
		s.count("landing", http.StatusInternalServerError)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	s.count("landing", http.StatusOK)
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	res := s.HandleGridRequest(w, chi.URLParam(r, "name"), r.URL, w.Header().Set)
	if res == nil {
		s.count("grid", http.StatusOK)
		return
	}
	code := res.StatusCode
	if code == 0 {
		code = http.StatusInternalServerError
	}
	s.count("grid", code)
	if code == http.StatusInternalServerError {
		s.log.Error("grid request failed", zap.String("url", r.URL.String()), zap.Error(res.Error))
		http.Error(w, "Internal server error", code)
		return
	}
	s.log.Info("grid request rejected", zap.String("url", r.URL.String()), zap.Int("code", code), zap.String("reason", res.Message))
	http.Error(w, res.Message, code)
}

func (s *Server) apiError(w http.ResponseWriter, r *http.Request, handler string, res *GridHandlerResult) {
	code := res.StatusCode
	msg := res.Message
	if code == 0 {
		code = http.StatusInternalServerError
		msg = "internal server error"
	}
	s.count(handler, code)
	render.Status(r, code)
	render.JSON(w, r, ErrorResponse{Error: msg})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	p, res := s.process(chi.URLParam(r, "name"), r.URL, NewTimingCollector())
	if res != nil {
		s.apiError(w, r, "export", res)
		return
	}
	grid := export.Table(p.view)
	if r.URL.Query().Get("selected_only") == "1" {
		grid = export.Selected(p.view)
	}
	s.count("export", http.StatusOK)
	render.JSON(w, r, ExportResponse{Headers: grid.Headers, Rows: grid.Rows})
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	p, res := s.process(chi.URLParam(r, "name"), r.URL, NewTimingCollector())
	if res != nil {
		s.apiError(w, r, "chart", res)
		return
	}

	params := r.URL.Query()
	req, err := chartRequest(params.Get("kind"), params.Get("x"), params.Get("y"), params.Get("source"))
	if err == nil && !params.Has("source") {
		req.Source = p.grid.ChartSource
	}
	if err == nil {
		var series charts.Series
		if series, err = charts.Build(req, p.state, p.view); err == nil {
			resp := ChartResponse{Kind: series.Kind.String(), X: series.X, Y: series.Y, Points: make([]ChartPoint, len(series.Points))}
			for i, pt := range series.Points {
				resp.Points[i] = ChartPoint{Label: pt.Label, Value: pt.Value}
			}
			s.count("chart", http.StatusOK)
			render.JSON(w, r, resp)
			return
		}
	}
	s.apiError(w, r, "chart", &GridHandlerResult{StatusCode: http.StatusBadRequest, Message: err.Error()})
}

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	p, res := s.process(chi.URLParam(r, "name"), r.URL, NewTimingCollector())
	if res != nil {
		s.apiError(w, r, "groups", res)
		return
	}
	groups, err := grouping.FromState(p.state, p.view)
	if err != nil {
		s.apiError(w, r, "groups", &GridHandlerResult{StatusCode: http.StatusBadRequest, Message: err.Error()})
		return
	}
	s.count("groups", http.StatusOK)
	render.JSON(w, r, groupNodes(groups))
}

// groupNodes converts groups for the response. Row ids are listed only for
// open leaf groups.
func groupNodes(groups []*grouping.Group) []GroupNode {
	nodes := make([]GroupNode, len(groups))
	for i, g := range groups {
		nodes[i] = GroupNode{
			Field:      g.Field,
			Key:        g.Key,
			Path:       g.Path,
			Count:      g.Length(),
			Expanded:   g.Expanded,
			Aggregates: g.Aggregates,
			Children:   groupNodes(g.Children),
		}
		if g.Expanded && len(g.Children) == 0 {
			nodes[i].RowIDs = g.RowIDs
		}
	}
	return nodes
}

func chartRequest(kind, x, y, source string) (charts.Request, error) {
	k, err := charts.ParseKind(kind)
	if err != nil {
		return charts.Request{}, err
	}
	src, err := charts.ParseSource(source)
	if err != nil {
		return charts.Request{}, err
	}
	return charts.Request{Kind: k, X: x, Y: y, Source: src}, nil
}

// ListenAndServe serves Handler on addr until ctx is cancelled, then shuts
// down, allowing in-flight requests up to shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", addr), zap.Strings("grids", s.GridNames()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
