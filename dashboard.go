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
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DashboardData is everything loaded for one filter scope
type DashboardData struct {
	Scope     FilterScope
	Labels    ScopeLabels
	KPIs      *KpisGenerales
	Locations []Ubicacion
	Questions []SurveyQuestion
	Results   map[string][]QuestionResultDto
	FetchedAt time.Time
}

const numLevels = int(LevelComunidad) + 1

// Dashboard orchestrates the cascading geographic filters and the data
// loaded under them
type Dashboard struct {
	api    SurveyAPI
	config *Config
	logger *Logger

	mu            sync.Mutex
	values        [numLevels]string
	options       [numLevels][]Region
	questions     []SurveyQuestion
	answerFilters map[string][]string
	data          *DashboardData
	loading       bool
}

// NewDashboard creates a new dashboard
func NewDashboard(api SurveyAPI, config *Config, logger *Logger) *Dashboard {
	return &Dashboard{
		api:    api,
		config: config,
		logger: logger.WithComponent("dashboard"),
	}
}

// Init loads the question list and the top-level options, then resets
func (d *Dashboard) Init(ctx context.Context) (*DashboardData, error) {
	d.LoadQuestions(ctx)
	return d.Reset(ctx)
}

// LoadQuestions fetches the survey question list for the session. A
// failure leaves the list empty.
func (d *Dashboard) LoadQuestions(ctx context.Context) []SurveyQuestion {
	d.logger.Info("Loading survey questions")
	questions, err := d.api.Questions(ctx)
	if err != nil {
		d.logger.Warn("Failed to load survey questions", "error", err)
		questions = nil
	}

	d.mu.Lock()
	d.questions = questions
	d.mu.Unlock()
	return questions
}

// Reset clears every level, reloads the filter options and the data
func (d *Dashboard) Reset(ctx context.Context) (*DashboardData, error) {
	d.resetLevels(ctx)
	return d.Reload(ctx)
}

// resetLevels clears every level and loads the top-level options. When
// the top level offers exactly one region it is selected, and its
// children loaded.
func (d *Dashboard) resetLevels(ctx context.Context) {
	d.ClearDescendants(-1)

	top := Levels[0]
	regions := d.fetchRegions(ctx, top, "")

	d.mu.Lock()
	d.options[top] = regions
	var forced string
	if len(regions) == 1 {
		forced = string(regions[0].ID)
		d.values[top] = forced
	}
	d.mu.Unlock()

	if forced != "" {
		d.logger.Info("Single region available, selecting it", "level", top.String(), "id", forced)
		d.loadChildren(ctx, top, forced)
	}
}

// Select changes one level, clears everything below it, loads the next
// level's options and reloads the data
func (d *Dashboard) Select(ctx context.Context, level Level, id string) (*DashboardData, error) {
	if err := d.selectLevel(ctx, level, id); err != nil {
		return nil, err
	}
	return d.Reload(ctx)
}

// Resolve resets the cascade and selects every geographic level set in
// scope, top down, without loading data. Option lists and labels are
// available afterwards.
func (d *Dashboard) Resolve(ctx context.Context, scope FilterScope) error {
	d.resetLevels(ctx)
	for _, l := range Levels {
		v := scope.Get(l)
		if v == "" {
			continue
		}
		if err := d.selectLevel(ctx, l, v); err != nil {
			return err
		}
	}

	d.mu.Lock()
	d.answerFilters = compactAnswerFilters(scope.AnswerFilters)
	d.mu.Unlock()
	return nil
}

// ApplyScope resolves scope and reloads once
func (d *Dashboard) ApplyScope(ctx context.Context, scope FilterScope) (*DashboardData, error) {
	if err := d.Resolve(ctx, scope); err != nil {
		return nil, err
	}
	return d.Reload(ctx)
}

func (d *Dashboard) selectLevel(ctx context.Context, level Level, id string) error {
	if !level.valid() {
		return &ValidationError{Field: "level", Value: level.String(), Message: "unknown geographic level"}
	}

	var scope FilterScope
	scope.Set(level, id)
	id = scope.Get(level)

	d.mu.Lock()
	d.values[level] = id
	d.mu.Unlock()
	d.ClearDescendants(level)

	d.logger.Debug("Filter level changed", "level", level.String(), "id", id)

	// The leaf has no children and an unset level has nothing to scope by
	if level.IsLeaf() || id == "" {
		return nil
	}
	d.loadChildren(ctx, level, id)
	return nil
}

// ClearDescendants unsets the value and option list of every level below
// the given one. Passing -1 clears all levels.
func (d *Dashboard) ClearDescendants(level Level) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for l := level + 1; l <= LevelComunidad; l++ {
		d.values[l] = ""
		d.options[l] = nil
	}
}

func (d *Dashboard) loadChildren(ctx context.Context, level Level, id string) {
	child, ok := level.Child()
	if !ok {
		return
	}
	regions := d.fetchRegions(ctx, child, id)

	d.mu.Lock()
	defer d.mu.Unlock()
	// A concurrent change may have moved the parent on
	if d.values[level] == id {
		d.options[child] = regions
	}
}

func (d *Dashboard) fetchRegions(ctx context.Context, level Level, parentID string) []Region {
	regions, err := d.api.Regions(ctx, level, parentID)
	if err != nil {
		d.logger.Warn("Failed to load filter options", "level", level.String(), "parent", parentID, "error", err)
		return nil
	}
	return regions
}

// ApplyAnswerFilters stores the sidebar mapping and reloads
func (d *Dashboard) ApplyAnswerFilters(ctx context.Context, m map[string][]string) (*DashboardData, error) {
	d.mu.Lock()
	d.answerFilters = compactAnswerFilters(m)
	d.mu.Unlock()
	return d.Reload(ctx)
}

// Reload fetches KPIs, locations and every question's results under the
// current scope. Each failure degrades to an empty value and is logged.
func (d *Dashboard) Reload(ctx context.Context) (*DashboardData, error) {
	scope := d.Scope()
	questions := d.Questions()

	d.mu.Lock()
	d.loading = true
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.loading = false
		d.mu.Unlock()
	}()

	d.logger.Info("Loading dashboard data", "filters", len(BuildParams(scope)), "questions", len(questions))

	data := &DashboardData{
		Scope:     scope,
		Labels:    d.ScopeLabels(),
		Questions: questions,
		Results:   make(map[string][]QuestionResultDto, len(questions)),
	}
	var resultsMu sync.Mutex

	var g errgroup.Group
	if d.config != nil && d.config.FetchConcurrency > 0 {
		g.SetLimit(d.config.FetchConcurrency)
	}

	g.Go(func() error {
		kpis, err := d.api.KPIs(ctx, scope)
		if err != nil {
			d.logger.Warn("Failed to load KPIs", "error", err)
			kpis = &KpisGenerales{}
		}
		data.KPIs = kpis
		return nil
	})

	g.Go(func() error {
		points, err := d.api.Locations(ctx, scope)
		if err != nil {
			d.logger.Warn("Failed to load locations", "error", err)
			points = nil
		}
		data.Locations = points
		return nil
	})

	for _, q := range questions {
		q := q
		g.Go(func() error {
			id := string(q.ID)
			results, err := d.api.QuestionResults(ctx, id, scope)
			if err != nil {
				d.logger.Warn("Failed to load question results", "question", id, "error", err)
				results = []QuestionResultDto{}
			}
			resultsMu.Lock()
			data.Results[id] = results
			resultsMu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data.FetchedAt = time.Now()

	d.mu.Lock()
	d.data = data
	d.mu.Unlock()

	d.logger.Info("Dashboard data loaded",
		"total_encuestas", int64(data.KPIs.TotalEncuestas),
		"locations", len(data.Locations),
	)
	return data, nil
}

// Scope returns a snapshot of the current filters
func (d *Dashboard) Scope() FilterScope {
	d.mu.Lock()
	defer d.mu.Unlock()

	var scope FilterScope
	for _, l := range Levels {
		scope.Set(l, d.values[l])
	}
	scope.AnswerFilters = compactAnswerFilters(d.answerFilters)
	return scope
}

// ScopeLabels resolves display names for the current selection from the
// loaded option lists
func (d *Dashboard) ScopeLabels() ScopeLabels {
	d.mu.Lock()
	defer d.mu.Unlock()

	labels := ScopeLabels{}
	if d.config != nil {
		labels.Survey = d.config.SurveyName
	}
	labels.Municipio = d.labelFor(LevelMunicipio)
	labels.Seccion = d.labelFor(LevelSeccion)
	labels.Comunidad = d.labelFor(LevelComunidad)
	return labels
}

// labelFor must be called with the lock held
func (d *Dashboard) labelFor(l Level) string {
	id := d.values[l]
	if id == "" {
		return ""
	}
	for _, r := range d.options[l] {
		if string(r.ID) == id {
			return r.Nombre
		}
	}
	return id
}

// Value returns the selected id of a level, empty when unset
func (d *Dashboard) Value(l Level) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.values[l]
}

// Options returns the option list loaded for a level
func (d *Dashboard) Options(l Level) []Region {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.options[l]
}

// Questions returns the session's question list
func (d *Dashboard) Questions() []SurveyQuestion {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.questions
}

// Data returns the last loaded data, nil before the first reload
func (d *Dashboard) Data() *DashboardData {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.data
}

// Loading reports whether a reload is in flight
func (d *Dashboard) Loading() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loading
}
