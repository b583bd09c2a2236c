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

// Package rendering turns grid view models into output: the HTML print
// view and landing page, and the ASCII table used by the CLI.
package rendering

import (
	"embed"
	"fmt"
	"io"

	"github.com/google/safehtml/template"

	"github.com/google/tabula/core/views"
)

//go:embed templates/*
var templateFS embed.FS

// GridRenderer writes the print view of a grid and the landing page that
// lists the available grids. Templates are parsed once and are safe for
// concurrent use.
type GridRenderer struct {
	grid    *template.Template
	landing *template.Template
}

// NewGridRenderer parses the embedded templates.
func NewGridRenderer() (*GridRenderer, error) {
	grid, err := parseTemplate("grid.html")
	if err != nil {
		return nil, err
	}
	landing, err := parseTemplate("landing.html")
	if err != nil {
		return nil, err
	}
	return &GridRenderer{grid: grid, landing: landing}, nil
}

func parseTemplate(name string) (*template.Template, error) {
	t, err := template.New(name).ParseFS(template.TrustedFSFromEmbed(templateFS), "templates/"+name)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return t, nil
}

// Render writes the print view of vm: header row with sort links, the
// current page of rows, analysis summary and status bar.
func (r *GridRenderer) Render(w io.Writer, vm views.GridViewModel) error {
	return r.grid.Execute(w, vm)
}

// RenderLanding writes the grid index page.
func (r *GridRenderer) RenderLanding(w io.Writer, vm views.LandingViewModel) error {
	return r.landing.Execute(w, vm)
}
