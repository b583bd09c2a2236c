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

// Package csvimport loads tabular files (CSV and XLSX) into grid rows and
// infers column definitions from the data.
package csvimport

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/tabula/core/columns"
	"github.com/google/tabula/core/values"
)

// CsvColumnType specifies the data type for a column
type CsvColumnType int

const (
	// CsvColumnTypeAuto auto-detects type from data (default)
	CsvColumnTypeAuto CsvColumnType = iota
	// CsvColumnTypeString forces text
	CsvColumnTypeString
	// CsvColumnTypeNumber forces numbers; unparseable cells stay text
	CsvColumnTypeNumber
	// CsvColumnTypeBool forces true/false values
	CsvColumnTypeBool
	// CsvColumnTypeDate keeps the text but filters and sorts it as a date
	CsvColumnTypeDate
)

func (t CsvColumnType) String() string {
	switch t {
	case CsvColumnTypeString:
		return "string"
	case CsvColumnTypeNumber:
		return "number"
	case CsvColumnTypeBool:
		return "bool"
	case CsvColumnTypeDate:
		return "date"
	default:
		return "auto"
	}
}

// CsvColumnSource defines source metadata for how a column is imported
type CsvColumnSource struct {
	// Name is the field name (defaults to the header with reserved
	// characters replaced)
	Name string
	// DisplayName is the header label
	DisplayName string
	// Type specifies the data type for this column (default: auto-detect)
	Type CsvColumnType
	// Hide starts the column hidden
	Hide bool
}

// ImportOptions configures CSV import behavior
type ImportOptions struct {
	// HasHeader indicates whether the first row contains column headers
	HasHeader bool
	// Delimiter is the field delimiter (defaults to comma)
	Delimiter rune
	// ColumnSources provides configuration for specific columns by header name
	ColumnSources map[string]CsvColumnSource
	// SampleSize is the number of rows to sample for type detection (default: 100)
	SampleSize int
	// MaxSetValues is the largest distinct count for which a text column
	// gets a set filter (default: 20)
	MaxSetValues int
}

// DefaultOptions returns default import options
func DefaultOptions() ImportOptions {
	return ImportOptions{
		HasHeader:     true,
		Delimiter:     ',',
		ColumnSources: make(map[string]CsvColumnSource),
		SampleSize:    100,
		MaxSetValues:  20,
	}
}

// Result is an imported data set.
type Result struct {
	Defs  columns.Defs
	Rows  []columns.Row
	Types []CsvColumnType
}

// ImportFromFile imports a CSV file
func ImportFromFile(filepath string, options ImportOptions) (*Result, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ImportFromReader(file, options)
}

// ImportFromReader imports CSV data from an io.Reader
func ImportFromReader(reader io.Reader, options ImportOptions) (*Result, error) {
	csvReader := csv.NewReader(reader)
	if options.Delimiter != 0 {
		csvReader.Comma = options.Delimiter
	}
	// Short trailing rows read as empty cells.
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return ImportRecords(records, options)
}

// ImportRecords builds rows and column definitions from string records, the
// first of which is the header when options.HasHeader is set.
func ImportRecords(records [][]string, options ImportOptions) (*Result, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("file is empty")
	}

	var headers []string
	var dataRows [][]string

	if options.HasHeader {
		headers = records[0]
		dataRows = records[1:]
	} else {
		// Generate column names if no header
		numCols := len(records[0])
		headers = make([]string, numCols)
		for i := 0; i < numCols; i++ {
			headers[i] = fmt.Sprintf("column_%d", i+1)
		}
		dataRows = records
	}

	if len(dataRows) == 0 {
		return nil, fmt.Errorf("file has no data rows")
	}

	sampleSize := options.SampleSize
	if sampleSize <= 0 {
		sampleSize = 100
	}
	maxSet := options.MaxSetValues
	if maxSet <= 0 {
		maxSet = 20
	}

	types := detectColumnTypes(headers, dataRows, sampleSize, options.ColumnSources)
	fields := fieldNames(headers, options.ColumnSources)

	rows := make([]columns.Row, len(dataRows))
	for i, record := range dataRows {
		row := make(columns.Row, len(headers))
		for col := range headers {
			cell := ""
			if col < len(record) {
				cell = record[col]
			}
			row[fields[col]] = convertCell(cell, types[col])
		}
		rows[i] = row
	}

	defs := make(columns.Defs, len(headers))
	for col, header := range headers {
		source := getColumnSource(header, options.ColumnSources)
		display := source.DisplayName
		if display == "" {
			display = strings.TrimSpace(header)
		}
		def := &columns.ColumnDef{
			Field:      fields[col],
			HeaderName: display,
			Resizable:  true,
			Sortable:   true,
			Filter:     true,
			Hide:       source.Hide,
		}
		switch types[col] {
		case CsvColumnTypeNumber:
			def.FilterType = columns.FilterNumber
			def.EnableValue = true
		case CsvColumnTypeDate:
			def.FilterType = columns.FilterDate
		case CsvColumnTypeBool:
			def.FilterType = columns.FilterSet
			def.EnableRowGroup = true
		default:
			if distinctValues(dataRows, col, maxSet+1) <= maxSet && distinctValues(dataRows, col, len(dataRows)) < len(dataRows) {
				def.FilterType = columns.FilterSet
				def.EnableRowGroup = true
				def.EnablePivot = true
			} else {
				def.FilterType = columns.FilterText
			}
		}
		defs[col] = def
	}

	return &Result{Defs: defs, Rows: rows, Types: types}, nil
}

// fieldNames derives unique field names. Characters reserved by the URL
// state encoding are replaced, and repeats get a numeric suffix.
func fieldNames(headers []string, sources map[string]CsvColumnSource) []string {
	replacer := strings.NewReplacer("&", "_", "=", "_", ":", "_", ",", "_", " ", "_")
	seen := make(map[string]int, len(headers))
	fields := make([]string, len(headers))
	for i, header := range headers {
		name := getColumnSource(header, sources).Name
		if name == "" {
			name = replacer.Replace(strings.TrimSpace(header))
		}
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s_%d", name, n)
		}
		fields[i] = name
	}
	return fields
}

// detectColumnTypes samples the data rows to pick a type for each column.
// Empty cells are ignored; a column with no values is text.
func detectColumnTypes(headers []string, dataRows [][]string, sampleSize int, sources map[string]CsvColumnSource) []CsvColumnType {
	types := make([]CsvColumnType, len(headers))
	for col, header := range headers {
		if forced := getColumnSource(header, sources).Type; forced != CsvColumnTypeAuto {
			types[col] = forced
			continue
		}

		isNumber, isBool, isDate := true, true, true
		sampled := 0
		for i := 0; i < len(dataRows) && i < sampleSize; i++ {
			if col >= len(dataRows[i]) {
				continue
			}
			val := strings.TrimSpace(dataRows[i][col])
			if val == "" {
				continue
			}
			sampled++
			if isNumber {
				if _, err := strconv.ParseFloat(val, 64); err != nil {
					isNumber = false
				}
			}
			if isBool {
				if _, err := parseBool(val); err != nil {
					isBool = false
				}
			}
			if isDate {
				if _, err := values.ParseDate(val); err != nil {
					isDate = false
				}
			}
		}

		switch {
		case sampled == 0:
			types[col] = CsvColumnTypeString
		case isNumber:
			types[col] = CsvColumnTypeNumber
		case isBool:
			types[col] = CsvColumnTypeBool
		case isDate:
			types[col] = CsvColumnTypeDate
		default:
			types[col] = CsvColumnTypeString
		}
	}
	return types
}

// parseBool accepts only the spelled-out forms; "1" and "0" are numbers.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("not a bool: %q", s)
}

func convertCell(cell string, t CsvColumnType) values.Value {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return values.Null()
	}
	switch t {
	case CsvColumnTypeNumber:
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return values.Number(f)
		}
	case CsvColumnTypeBool:
		if b, err := parseBool(trimmed); err == nil {
			return values.Bool(b)
		}
	}
	return values.Text(cell)
}

// distinctValues counts distinct non-empty cells in col, stopping at limit.
func distinctValues(dataRows [][]string, col, limit int) int {
	seen := make(map[string]bool)
	for _, record := range dataRows {
		if col >= len(record) {
			continue
		}
		if v := strings.TrimSpace(record[col]); v != "" {
			seen[v] = true
			if len(seen) >= limit {
				break
			}
		}
	}
	return len(seen)
}

// getColumnSource returns the column source for a header, or an empty one
func getColumnSource(header string, sources map[string]CsvColumnSource) CsvColumnSource {
	if sources == nil {
		return CsvColumnSource{}
	}
	if source, ok := sources[header]; ok {
		return source
	}
	return CsvColumnSource{}
}
