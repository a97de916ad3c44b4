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
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// FilterSidebar tracks answer-option selections per question. Option lists
// are fetched lazily on first expansion and served from the cache after.
type FilterSidebar struct {
	api    SurveyAPI
	cache  *Cache
	ttl    time.Duration
	logger *Logger

	fetches singleflight.Group

	mu       sync.Mutex
	expanded map[string]bool
	selected map[string]map[string]bool

	// OnApply receives the compacted mapping on Apply and Clear
	OnApply func(map[string][]string)
}

// NewFilterSidebar creates a sidebar. A nil cache, or a zero ttl, keeps
// options in memory for the life of the sidebar.
func NewFilterSidebar(api SurveyAPI, cache *Cache, ttl time.Duration, logger *Logger) *FilterSidebar {
	logger = logger.WithComponent("sidebar")
	if cache == nil || (ttl <= 0 && cache.Persistent()) {
		cache = NewMemoryCache(logger)
	}
	return &FilterSidebar{
		api:      api,
		cache:    cache,
		ttl:      ttl,
		logger:   logger,
		expanded: make(map[string]bool),
		selected: make(map[string]map[string]bool),
	}
}

func optionCacheKey(questionID string) string {
	return fmt.Sprintf("options_%s", questionID)
}

// Options returns the cached option list of a question
func (s *FilterSidebar) Options(questionID string) ([]QuestionOption, bool) {
	var opts []QuestionOption
	ok, err := s.cache.Get(optionCacheKey(questionID), &opts)
	if err != nil {
		s.logger.Warn("Failed to read cached options", "question", questionID, "error", err)
		return nil, false
	}
	return opts, ok
}

// Toggle expands or collapses a question panel. Expanding fetches the
// options once; a failed fetch leaves the panel collapsed so the next
// expansion retries.
func (s *FilterSidebar) Toggle(ctx context.Context, questionID string) (bool, []QuestionOption, error) {
	s.mu.Lock()
	if s.expanded[questionID] {
		s.expanded[questionID] = false
		s.mu.Unlock()
		return false, nil, nil
	}
	s.mu.Unlock()

	opts, err := s.loadOptions(ctx, questionID)
	if err != nil {
		return false, nil, err
	}

	s.mu.Lock()
	s.expanded[questionID] = true
	s.mu.Unlock()
	return true, opts, nil
}

// loadOptions serves the cache or fetches once; concurrent misses for the
// same question share one request
func (s *FilterSidebar) loadOptions(ctx context.Context, questionID string) ([]QuestionOption, error) {
	if opts, ok := s.Options(questionID); ok {
		return opts, nil
	}

	v, err, _ := s.fetches.Do(questionID, func() (interface{}, error) {
		if opts, ok := s.Options(questionID); ok {
			return opts, nil
		}
		fetched, err := s.api.QuestionOptions(ctx, questionID)
		if err != nil {
			s.logger.Warn("Failed to load question options", "question", questionID, "error", err)
			return nil, err
		}
		if err := s.cache.Set(optionCacheKey(questionID), fetched, s.ttl); err != nil {
			s.logger.Warn("Failed to cache question options", "question", questionID, "error", err)
		}
		return fetched, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]QuestionOption), nil
}

// IsExpanded reports whether a question panel is open
func (s *FilterSidebar) IsExpanded(questionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expanded[questionID]
}

// SetSelected marks one option of a question as selected or not
func (s *FilterSidebar) SetSelected(questionID, optionID string, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	opts := s.selected[questionID]
	if opts == nil {
		opts = make(map[string]bool)
		s.selected[questionID] = opts
	}
	opts[optionID] = on
}

// Selections compacts the checkbox state: questions without a selected
// option are omitted and option ids are ordered
func (s *FilterSidebar) Selections() map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string][]string)
	for q, opts := range s.selected {
		var ids []string
		for id, on := range opts {
			if on {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			continue
		}
		sortIDs(ids)
		out[q] = ids
	}
	return out
}

// Apply emits the current selections
func (s *FilterSidebar) Apply() map[string][]string {
	m := s.Selections()
	s.logger.Debug("Applying answer filters", "questions", len(m))
	if s.OnApply != nil {
		s.OnApply(m)
	}
	return m
}

// Clear drops every selection and emits the empty mapping
func (s *FilterSidebar) Clear() map[string][]string {
	s.mu.Lock()
	s.selected = make(map[string]map[string]bool)
	s.mu.Unlock()
	return s.Apply()
}

// Load replaces the selections with an existing mapping
func (s *FilterSidebar) Load(m map[string][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selected = make(map[string]map[string]bool)
	for q, ids := range compactAnswerFilters(m) {
		opts := make(map[string]bool, len(ids))
		for _, id := range ids {
			opts[id] = true
		}
		s.selected[q] = opts
	}
}
