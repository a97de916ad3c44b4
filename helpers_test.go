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
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"sync"
)

// fakeAPI is an in-memory SurveyAPI
type fakeAPI struct {
	mu sync.Mutex

	questions    []SurveyQuestion
	questionsErr error
	results      map[string][]QuestionResultDto
	resultErrs   map[string]error
	regions      map[Level]map[string][]Region // level → parent id → list
	options      map[string][]QuestionOption
	optionsErr   error
	kpis         *KpisGenerales
	kpisErr      error
	locations    []Ubicacion

	calls  map[string]int
	scopes []FilterScope
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		results:    make(map[string][]QuestionResultDto),
		resultErrs: make(map[string]error),
		regions:    make(map[Level]map[string][]Region),
		options:    make(map[string][]QuestionOption),
		calls:      make(map[string]int),
	}
}

func (f *fakeAPI) record(call string, scope *FilterScope) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[call]++
	if scope != nil {
		f.scopes = append(f.scopes, *scope)
	}
}

func (f *fakeAPI) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[call]
}

func (f *fakeAPI) setRegions(level Level, parent string, regions ...Region) {
	if f.regions[level] == nil {
		f.regions[level] = make(map[string][]Region)
	}
	f.regions[level][parent] = regions
}

func (f *fakeAPI) KPIs(_ context.Context, scope FilterScope) (*KpisGenerales, error) {
	f.record("kpis", &scope)
	if f.kpisErr != nil {
		return nil, f.kpisErr
	}
	if f.kpis == nil {
		return &KpisGenerales{}, nil
	}
	return f.kpis, nil
}

func (f *fakeAPI) Locations(_ context.Context, scope FilterScope) ([]Ubicacion, error) {
	f.record("locations", &scope)
	return f.locations, nil
}

func (f *fakeAPI) QuestionResults(_ context.Context, questionID string, scope FilterScope) ([]QuestionResultDto, error) {
	f.record("results:"+questionID, &scope)
	if err := f.resultErrs[questionID]; err != nil {
		return nil, err
	}
	return f.results[questionID], nil
}

func (f *fakeAPI) Regions(_ context.Context, level Level, parentID string) ([]Region, error) {
	f.record(fmt.Sprintf("regions:%s:%s", level, parentID), nil)
	return f.regions[level][parentID], nil
}

func (f *fakeAPI) Questions(context.Context) ([]SurveyQuestion, error) {
	f.record("questions", nil)
	return f.questions, f.questionsErr
}

func (f *fakeAPI) QuestionOptions(_ context.Context, questionID string) ([]QuestionOption, error) {
	f.record("options:"+questionID, nil)
	if f.optionsErr != nil {
		return nil, f.optionsErr
	}
	return f.options[questionID], nil
}

// fakeRenderer returns a blank image and records the kinds asked for
type fakeRenderer struct {
	mu      sync.Mutex
	kinds   []ChartKind
	failOn  int // 1-based call that errors
	panicOn int // 1-based call that panics
}

func (r *fakeRenderer) Render(kind ChartKind, items []ChartDataItem) (image.Image, error) {
	r.mu.Lock()
	r.kinds = append(r.kinds, kind)
	n := len(r.kinds)
	r.mu.Unlock()

	if n == r.panicOn {
		panic("renderer exploded")
	}
	if n == r.failOn {
		return nil, &RenderError{Kind: string(kind), Err: errors.New("boom")}
	}
	return image.NewRGBA(image.Rect(0, 0, 800, 500)), nil
}

func (r *fakeRenderer) rendered() []ChartKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ChartKind(nil), r.kinds...)
}

// fakeMap returns a blank heatmap
type fakeMap struct {
	err error
}

func (m *fakeMap) RenderHeatmap(points []Ubicacion) (image.Image, error) {
	if m.err != nil {
		return nil, m.err
	}
	return image.NewRGBA(image.Rect(0, 0, 10, 10)), nil
}

type pageText struct {
	page int
	text string
}

// fakeDocument records what is drawn on which page
type fakeDocument struct {
	pages   int
	texts   []pageText
	images  map[int]int
	saveErr error
}

func newFakeDocument() *fakeDocument {
	return &fakeDocument{pages: 1, images: make(map[int]int)}
}

func (d *fakeDocument) AddPage() { d.pages++ }
func (d *fakeDocument) PageCount() int { return d.pages }
func (d *fakeDocument) PageSize() (float64, float64) { return pageWidthMM, pageHeightMM }
func (d *fakeDocument) TextWidth(s string, _ TextStyle) float64 { return float64(len(s)) * 2 }

func (d *fakeDocument) DrawImage(img image.Image, _ RectMM) error {
	d.images[d.pages]++
	return nil
}

func (d *fakeDocument) DrawText(text string, _, _ float64, _ TextStyle) error {
	d.texts = append(d.texts, pageText{page: d.pages, text: text})
	return nil
}

func (d *fakeDocument) DrawLine(_, _, _, _ float64, _ color.Color) error { return nil }

func (d *fakeDocument) Save(w io.Writer) error {
	if d.saveErr != nil {
		return d.saveErr
	}
	_, err := fmt.Fprintf(w, "%%PDF-fake %d pages\n", d.pages)
	return err
}

func (d *fakeDocument) textsOn(page int) []string {
	var out []string
	for _, t := range d.texts {
		if t.page == page {
			out = append(out, t.text)
		}
	}
	return out
}

func (d *fakeDocument) allTexts() []string {
	out := make([]string, len(d.texts))
	for i, t := range d.texts {
		out[i] = t.text
	}
	return out
}

// recordingAlerter keeps every alert
type recordingAlerter struct {
	alerts []string
}

func (a *recordingAlerter) Alert(title, message string) {
	a.alerts = append(a.alerts, title+": "+message)
}
