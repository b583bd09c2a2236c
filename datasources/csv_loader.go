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

package datasources

import (
	"fmt"

	"github.com/google/tabula/core/csvimport"
)

// CsvLoader implements DataSourceLoader for CSV files. Column types are
// detected from the data unless Options forces them.
type CsvLoader struct {
	Options csvimport.ImportOptions
}

// NewCsvLoader creates a new CSV loader with default import options.
func NewCsvLoader() *CsvLoader {
	return &CsvLoader{Options: csvimport.DefaultOptions()}
}

// SourceType returns "csv".
func (l *CsvLoader) SourceType() string {
	return "csv"
}

// Load imports the file at src.Path.
func (l *CsvLoader) Load(src Source) (*csvimport.Result, error) {
	if src.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return csvimport.ImportFromFile(src.Path, l.Options)
}

// XlsxLoader implements DataSourceLoader for Excel workbooks.
type XlsxLoader struct {
	Options csvimport.ImportOptions
}

// NewXlsxLoader creates a new workbook loader with default import options.
func NewXlsxLoader() *XlsxLoader {
	return &XlsxLoader{Options: csvimport.DefaultOptions()}
}

// SourceType returns "xlsx".
func (l *XlsxLoader) SourceType() string {
	return "xlsx"
}

// Load imports src.Sheet of the workbook at src.Path.
func (l *XlsxLoader) Load(src Source) (*csvimport.Result, error) {
	if src.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return csvimport.ImportXLSXFile(src.Path, src.Sheet, l.Options)
}
