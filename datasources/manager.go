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
	"path/filepath"
	"slices"
	"sync"

	"github.com/google/tabula/core/csvimport"
)

// Manager handles loading and caching of data sources.
// Sources are registered eagerly; data is loaded lazily on demand.
type Manager struct {
	mu sync.RWMutex

	// Source metadata indexed by name
	sources map[string]Source
	// Registration order of source names
	order []string

	// Cached data indexed by source name - populated lazily
	tables map[string]*csvimport.Result

	// Registered loaders indexed by source type
	loaders map[string]DataSourceLoader

	// Base directory for resolving relative paths
	baseDir string
}

// NewManager creates a new data source manager with the CSV and XLSX
// loaders registered.
func NewManager() *Manager {
	m := &Manager{
		sources: make(map[string]Source),
		tables:  make(map[string]*csvimport.Result),
		loaders: make(map[string]DataSourceLoader),
	}
	m.RegisterLoader(NewCsvLoader())
	m.RegisterLoader(NewXlsxLoader())
	return m
}

// RegisterLoader registers a data source loader for a specific source type.
// If a loader is already registered for this type, it will be replaced.
func (m *Manager) RegisterLoader(loader DataSourceLoader) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaders[loader.SourceType()] = loader
}

// SetBaseDir sets the directory relative source paths resolve against,
// usually the directory of the configuration file.
func (m *Manager) SetBaseDir(dir string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baseDir = dir
}

// AddSource registers src. Its data is not read until LoadData.
func (m *Manager) AddSource(src Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if src.Name == "" {
		return fmt.Errorf("source name is required")
	}
	if _, ok := m.loaders[src.Kind]; !ok {
		return fmt.Errorf("source %q: no loader for kind %q", src.Name, src.Kind)
	}
	if _, exists := m.sources[src.Name]; !exists {
		m.order = append(m.order, src.Name)
	}
	m.sources[src.Name] = src
	delete(m.tables, src.Name)
	return nil
}

// GetSourceNames returns the registered source names in registration order.
func (m *Manager) GetSourceNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.order)
}

// GetSource returns the named source.
func (m *Manager) GetSource(name string) (Source, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src, ok := m.sources[name]
	return src, ok
}

// LoadData returns the named source's data, loading it on first use.
func (m *Manager) LoadData(sourceName string) (*csvimport.Result, error) {
	m.mu.RLock()
	if res, ok := m.tables[sourceName]; ok {
		m.mu.RUnlock()
		return res, nil
	}
	src, ok := m.sources[sourceName]
	loader := m.loaders[src.Kind]
	baseDir := m.baseDir
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("source %q not found", sourceName)
	}
	src.Path = resolvePath(src.Path, baseDir)
	res, err := loader.Load(src)
	if err != nil {
		return nil, fmt.Errorf("failed to load source %q: %w", sourceName, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another caller may have loaded it meanwhile; keep the first result.
	if cached, ok := m.tables[sourceName]; ok {
		return cached, nil
	}
	m.tables[sourceName] = res
	return res, nil
}

func resolvePath(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}

// InvalidateCache drops the cached data for a source so the next LoadData
// reads it again.
func (m *Manager) InvalidateCache(sourceName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tables, sourceName)
}

// IsLoaded reports whether the source's data is cached.
func (m *Manager) IsLoaded(sourceName string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.tables[sourceName]
	return ok
}
