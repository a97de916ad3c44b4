// Copyright 2025 Matthew Gall <me@matthewgall.dev>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const (
	optionCacheFile = "options_cache.json"
	manifestPattern = "report_*.json"
)

// Storage keeps report manifests and the filter option cache
type Storage struct {
	basePath string
	cache    *Cache
	logger   *Logger
}

// NewStorage creates a new storage handler with caching
func NewStorage(basePath string, logger *Logger) (*Storage, error) {
	// Ensure storage directory exists
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, &StorageError{
			Operation: "create_directory",
			Path:      basePath,
			Err:       err,
		}
	}

	cache, err := NewCache(filepath.Join(basePath, optionCacheFile), logger)
	if err != nil {
		return nil, &StorageError{
			Operation: "initialize_cache",
			Path:      basePath,
			Err:       err,
		}
	}

	logger.Debug("Storage initialized", "path", basePath)

	return &Storage{
		basePath: basePath,
		cache:    cache,
		logger:   logger,
	}, nil
}

// OptionCache returns the cache used by the filter sidebar
func (s *Storage) OptionCache() *Cache {
	return s.cache
}

// SaveReport writes a report manifest
func (s *Storage) SaveReport(report *Report) error {
	id := report.RunID
	if len(id) > 8 {
		id = id[:8]
	}
	filename := fmt.Sprintf("report_%s_%s.json", report.GeneratedAt.UTC().Format("2006-01-02_15-04-05"), id)
	path := filepath.Join(s.basePath, filename)

	s.logger.LogStorageOperation("save_report", path)

	return s.saveJSON(path, report)
}

// ListReports returns stored manifests, newest first. Unreadable files
// are skipped with a warning.
func (s *Storage) ListReports() ([]*Report, error) {
	pattern := filepath.Join(s.basePath, manifestPattern)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, &StorageError{
			Operation: "glob_reports",
			Path:      pattern,
			Err:       err,
		}
	}

	reports := make([]*Report, 0, len(matches))
	for _, path := range matches {
		var r Report
		if err := s.loadJSON(path, &r); err != nil {
			s.logger.Warn("Skipping unreadable report manifest", "path", path, "error", err)
			continue
		}
		reports = append(reports, &r)
	}

	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].GeneratedAt.After(reports[j].GeneratedAt)
	})
	return reports, nil
}

// LatestReport returns the most recent manifest, or nil when none exist
func (s *Storage) LatestReport() (*Report, error) {
	reports, err := s.ListReports()
	if err != nil || len(reports) == 0 {
		return nil, err
	}
	return reports[0], nil
}

// saveJSON saves data as JSON to a file
func (s *Storage) saveJSON(path string, data interface{}) error {
	file, err := os.Create(path)
	if err != nil {
		return &StorageError{
			Operation: "create_file",
			Path:      path,
			Err:       err,
		}
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(data); err != nil {
		return &StorageError{
			Operation: "encode_json",
			Path:      path,
			Err:       err,
		}
	}

	return nil
}

// loadJSON loads data from a JSON file
func (s *Storage) loadJSON(path string, target interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		return &StorageError{
			Operation: "open_file",
			Path:      path,
			Err:       err,
		}
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(target); err != nil {
		return &StorageError{
			Operation: "decode_json",
			Path:      path,
			Err:       err,
		}
	}

	return nil
}

// Close closes all storage resources
func (s *Storage) Close() error {
	if s.cache != nil {
		return s.cache.Close()
	}
	return nil
}
