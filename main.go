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

// Command tabula serves a data grid over HTTP or prints one to the
// terminal.
package main

import (
	"fmt"
	"io"
	"maps"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/google/tabula/core/aggregates"
	"github.com/google/tabula/core/config"
	"github.com/google/tabula/core/grouping"
	"github.com/google/tabula/core/pipeline"
	"github.com/google/tabula/core/query"
	"github.com/google/tabula/core/rendering"
	"github.com/google/tabula/core/server"
	"github.com/google/tabula/core/state"
	"github.com/google/tabula/core/views"
	"github.com/google/tabula/datasources"
	"github.com/google/tabula/demo"
)

type app struct {
	configPath string
	verbose    bool

	cfg   *config.Config
	log   *zap.Logger
	level zap.AtomicLevel
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "tabula",
		Short:        "Interactive data grid over CSV, Excel or demo data",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "grid configuration file (YAML); the demo data set when empty")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(a.serveCmd(), a.viewCmd())
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	log, level, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	if a.verbose {
		level.SetLevel(zapcore.DebugLevel)
	}
	a.cfg, a.log, a.level = cfg, log, level
	return nil
}

// loadGrid reads the configured source and builds the grid's initial state.
func (a *app) loadGrid() (server.Grid, error) {
	manager := datasources.NewManager()
	manager.RegisterLoader(demo.Loader{})
	if a.configPath != "" {
		manager.SetBaseDir(filepath.Dir(a.configPath))
	}

	src := a.cfg.Source
	if err := manager.AddSource(datasources.Source{Name: a.cfg.Name, Kind: src.Kind, Path: src.Path, Sheet: src.Sheet}); err != nil {
		return server.Grid{}, err
	}
	res, err := manager.LoadData(a.cfg.Name)
	if err != nil {
		return server.Grid{}, err
	}
	a.log.Debug("source loaded",
		zap.String("grid", a.cfg.Name),
		zap.String("kind", src.Kind),
		zap.Int("rows", len(res.Rows)),
		zap.Strings("columns", res.Defs.Fields()))

	return server.Grid{
		Name:        a.cfg.Name,
		Title:       a.cfg.Title,
		Description: a.cfg.Description,
		State:       a.cfg.InitialState(res.Defs, res.Rows),
		PageSize:    a.cfg.PageSize,
		ChartSource: a.cfg.ChartSource(),
	}, nil
}

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the grid over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			grid, err := a.loadGrid()
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			srv, err := server.NewServer(
				server.WithLogger(a.log),
				server.WithRegistry(reg),
				server.WithTitle("Tabula", grid.Description),
			)
			if err != nil {
				return err
			}
			if err := srv.AddGrid(grid); err != nil {
				return err
			}

			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx, addr, a.cfg.Server.ShutdownTimeout)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func (a *app) viewCmd() *cobra.Command {
	var (
		params string
		page   int
		size   int
		zoom   float64
	)
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Print the grid as a text table",
		Long: `Print one page of the grid to standard output.

The grid state is given as URL query parameters, the same ones the web
view uses, for example:

  tabula view --query 'sort=salary:desc&filter:department=in:Sales&size=10'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			grid, err := a.loadGrid()
			if err != nil {
				return err
			}
			u, err := viewURL(params, page, size, zoom, grid.PageSize)
			if err != nil {
				return err
			}
			return a.printGrid(cmd.OutOrStdout(), grid, u)
		},
	}
	cmd.Flags().StringVarP(&params, "query", "q", "", "grid state as URL query parameters")
	cmd.Flags().IntVar(&page, "page", 0, "page number (1-based)")
	cmd.Flags().IntVar(&size, "size", -1, "rows per page, 0 for all rows")
	cmd.Flags().Float64Var(&zoom, "zoom", 0, "zoom factor")
	return cmd
}

// viewURL merges the query string with the paging flags. Flags win over
// parameters; unset flags leave them alone.
func viewURL(params string, page, size int, zoom float64, defaultSize int) (*url.URL, error) {
	u, err := url.Parse("/grid?" + params)
	if err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}
	values := u.Query()
	if page > 0 {
		values.Set("page", strconv.Itoa(page))
	}
	switch {
	case size >= 0:
		values.Set("size", strconv.Itoa(size))
	case !values.Has("size") && defaultSize > 0:
		values.Set("size", strconv.Itoa(defaultSize))
	}
	if zoom > 0 {
		values.Set("zoom", strconv.FormatFloat(zoom, 'g', -1, 64))
	}
	u.RawQuery = values.Encode()
	return u, nil
}

func (a *app) printGrid(w io.Writer, grid server.Grid, u *url.URL) error {
	q := query.NewQuery(u)
	actions, err := q.Actions(grid.State)
	if err != nil {
		return err
	}
	store := state.NewStore(grid.State, state.WithLogger(a.log))
	defer store.Close()
	if err := store.Dispatch(actions...); err != nil {
		return err
	}
	s := store.Snapshot()

	p := pipeline.New(pipeline.WithLogger(a.log))
	view := p.Run(s, q.Zoom)
	vm := views.BuildGridViewModel(grid.Title, s, view, q, views.DefaultPrinter())
	if err := rendering.RenderASCII(w, vm); err != nil {
		return err
	}

	groups, err := grouping.FromState(s, view)
	if err != nil || len(groups) == 0 {
		return err
	}
	return printGroups(w, groups)
}

// printGroups lists the open lines of a grouped view, one group header per
// line with its row count and aggregates.
func printGroups(w io.Writer, groups []*grouping.Group) error {
	if _, err := fmt.Fprintln(w, "\nGroups:"); err != nil {
		return err
	}
	for _, line := range grouping.Flatten(groups) {
		if line.RowID >= 0 {
			continue
		}
		g := line.Group
		marker := "+"
		if g.Expanded {
			marker = "-"
		}
		text := fmt.Sprintf("%s%s %s (%d)", strings.Repeat("  ", g.Level), marker, g.Key, g.Length())
		for _, field := range slices.Sorted(maps.Keys(g.Aggregates)) {
			text += fmt.Sprintf(" %s=%s", field, aggregates.FormatNumber(g.Aggregates[field]))
		}
		if _, err := fmt.Fprintln(w, text); err != nil {
			return err
		}
	}
	return nil
}
