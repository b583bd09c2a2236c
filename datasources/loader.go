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

// Package datasources provides a unified interface for loading grid rows
// from various sources (CSV, Excel workbooks, built-in data sets).
package datasources

import (
	"github.com/google/tabula/core/csvimport"
)

// Source names a data source and says where its rows live.
type Source struct {
	// Name is the grid the rows are loaded for.
	Name string
	// Kind selects the loader, e.g. "csv" or "xlsx".
	Kind string
	// Path is the file to read. Relative paths resolve against the
	// manager's base directory.
	Path string
	// Sheet selects a workbook sheet; empty means the first.
	Sheet string
}

// DataSourceLoader is the interface that all data source loaders must implement.
// Tabula provides built-in loaders for "csv" and "xlsx".
// Users can register additional loaders for databases, APIs, or custom formats.
type DataSourceLoader interface {
	// SourceType returns the type identifier used in config (e.g., "csv", "xlsx").
	SourceType() string

	// Load reads the source's rows and infers its column definitions.
	Load(src Source) (*csvimport.Result, error)
}
