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
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Alerter surfaces a problem to the person running the report
type Alerter interface {
	Alert(title, message string)
}

// ConsoleAlerter prints highlighted alerts to a terminal
type ConsoleAlerter struct {
	out io.Writer
}

// NewConsoleAlerter creates an alerter writing to w
func NewConsoleAlerter(w io.Writer) *ConsoleAlerter {
	return &ConsoleAlerter{out: w}
}

func (a *ConsoleAlerter) Alert(title, message string) {
	warn := color.New(color.FgRed, color.Bold).SprintFunc()
	fmt.Fprintf(a.out, "%s %s\n", warn("⚠ "+title+":"), message)
}

// ReportRequest is the input of one report run
type ReportRequest struct {
	Scope  FilterScope
	Labels ScopeLabels
	// Questions is the already loaded list; nil fetches it
	Questions []SurveyQuestion
}

// ReportGenerator renders one page per survey question into a PDF
type ReportGenerator struct {
	api     SurveyAPI
	charts  ChartRenderer
	config  *Config
	storage *Storage
	alerter Alerter
	logger  *Logger

	// NewDocument creates the document for each run
	NewDocument func() DocumentBuilder
}

// NewReportGenerator creates a report generator. storage may be nil.
func NewReportGenerator(api SurveyAPI, charts ChartRenderer, config *Config, storage *Storage, alerter Alerter, logger *Logger) *ReportGenerator {
	return &ReportGenerator{
		api:         api,
		charts:      charts,
		config:      config,
		storage:     storage,
		alerter:     alerter,
		logger:      logger.WithComponent("report"),
		NewDocument: NewPDFDocument,
	}
}

// batchChart is one question's rendered chart, kept only for its batch
type batchChart struct {
	img  image.Image
	kind ChartKind
	err  error
}

var (
	titleColor  = hexColor(DefaultChartColors[1])
	accentColor = hexColor(DefaultChartColors[0])
	mutedColor  = hexColor("#646464")
)

// Generate builds the report. Failures inside the page loop stop the run
// and save the completed pages under the partial file name; the returned
// error is only set when nothing could be written.
func (g *ReportGenerator) Generate(ctx context.Context, req ReportRequest) (*Report, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := g.logger.WithRunID(runID)

	report := &Report{
		RunID:       runID,
		Scope:       req.Scope.Clone(),
		GeneratedAt: start,
	}

	logger.Info("Generating survey report", "filters", len(BuildParams(req.Scope)))

	doc := g.NewDocument()
	err := g.build(ctx, req, doc, report, logger)
	if err == nil {
		path, saveErr := g.save(doc, ReportFileName)
		if saveErr == nil {
			report.Path = path
			report.Pages = doc.PageCount()
			report.Duration = time.Since(start)
			logger.Info("Report saved", "path", path, "pages", report.Pages, "duration", report.Duration.Round(time.Millisecond))
			g.saveManifest(report, logger)
			return report, nil
		}
		err = saveErr
	}

	return g.savePartial(doc, report, err, start, logger)
}

// build draws every page. Panics are turned into errors here.
func (g *ReportGenerator) build(ctx context.Context, req ReportRequest, doc DocumentBuilder, report *Report, logger *Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during report generation: %v", r)
		}
	}()

	questions := req.Questions
	if questions == nil {
		fetched, err := g.api.Questions(ctx)
		if err != nil {
			logger.Warn("Failed to load survey questions", "error", err)
		}
		questions = fetched
	}

	if len(questions) == 0 {
		logger.Info("No survey questions, writing empty report")
		return g.drawNoQuestions(doc)
	}

	limit := g.config.MaxQuestions
	if limit <= 0 || limit > DefaultMaxQuestions {
		limit = DefaultMaxQuestions
	}
	if len(questions) > limit {
		logger.Warn("Too many questions, truncating report", "questions", len(questions), "limit", limit)
		questions = questions[:limit]
	}
	report.Questions = len(questions)

	results := g.fetchResults(ctx, questions, req.Scope, logger)
	assets := g.loadAssets(logger)

	return g.renderPages(ctx, doc, questions, results, assets, req.Labels, logger)
}

// fetchResults loads every question's tallies concurrently. A failed
// request leaves that question with no results.
func (g *ReportGenerator) fetchResults(ctx context.Context, questions []SurveyQuestion, scope FilterScope, logger *Logger) [][]ChartDataItem {
	results := make([][]ChartDataItem, len(questions))

	var eg errgroup.Group
	if g.config.FetchConcurrency > 0 {
		eg.SetLimit(g.config.FetchConcurrency)
	}
	for i, q := range questions {
		i, q := i, q
		eg.Go(func() error {
			rows, err := g.api.QuestionResults(ctx, string(q.ID), scope)
			if err != nil {
				logger.Warn("Failed to load question results", "question", string(q.ID), "error", err)
				return nil
			}
			results[i] = ToChartItems(rows)
			return nil
		})
	}
	_ = eg.Wait()

	return results
}

func (g *ReportGenerator) loadAssets(logger *Logger) *PageAssets {
	assets, errs := LoadPageAssets(g.config)
	for _, err := range errs {
		logger.Warn("Page asset unavailable, continuing without it", "error", err)
	}
	return assets
}

func (g *ReportGenerator) renderPages(ctx context.Context, doc DocumentBuilder, questions []SurveyQuestion, results [][]ChartDataItem, assets *PageAssets, labels ScopeLabels, logger *Logger) error {
	size := g.config.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	total := len(questions)
	batches := (total + size - 1) / size
	override := g.config.ChartOverride()

	for b := 0; b < batches; b++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lo := b * size
		hi := min(lo+size, total)

		rendered := make([]batchChart, hi-lo)
		for i := lo; i < hi; i++ {
			rendered[i-lo] = g.renderChart(results[i], override, string(questions[i].ID), logger)
		}

		for i := lo; i < hi; i++ {
			if i > 0 {
				doc.AddPage()
			}
			if err := g.drawQuestionPage(doc, i, total, questions[i], results[i], rendered[i-lo], assets, labels, logger); err != nil {
				return fmt.Errorf("failed to draw page %d: %w", i+1, err)
			}
		}

		logger.LogBatch(b+1, batches, hi-lo)

		if b < batches-1 {
			if err := sleepContext(ctx, g.config.BatchPause); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *ReportGenerator) renderChart(items []ChartDataItem, override ChartKind, questionID string, logger *Logger) batchChart {
	if sumValues(items) <= 0 {
		return batchChart{err: ErrNoChartData}
	}
	kind := SelectChartKind(len(items), override, g.config.Thresholds)
	img, err := g.charts.Render(kind, items)
	if err != nil {
		logger.Warn("Failed to render chart", "question", questionID, "kind", string(kind), "error", err)
	}
	return batchChart{img: img, kind: kind, err: err}
}

func (g *ReportGenerator) drawQuestionPage(doc DocumentBuilder, index, total int, q SurveyQuestion, items []ChartDataItem, chart batchChart, assets *PageAssets, labels ScopeLabels, logger *Logger) error {
	pageW, pageH := doc.PageSize()
	contentW := pageW - 2*pageMarginMM

	drawDecorations(doc, assets, logger)

	if err := doc.DrawText(reportTitle, pageMarginMM, 14, TextStyle{Size: 18, Color: titleColor}); err != nil {
		return err
	}
	if err := doc.DrawLine(pageMarginMM, 23, pageMarginMM+contentW*0.6, 23, accentColor); err != nil {
		return err
	}
	if err := doc.DrawText(FormatScopeLine(labels), pageMarginMM, 26, TextStyle{Size: 10, Color: mutedColor}); err != nil {
		return err
	}

	header := TextStyle{Size: 13, Color: titleColor}
	y := 36.0
	for _, line := range WrapText(doc, fmt.Sprintf("%d. %s", index+1, strings.TrimSpace(q.Pregunta)), contentW, header) {
		if err := doc.DrawText(line, pageMarginMM, y, header); err != nil {
			return err
		}
		y += 6
	}

	top := max(headerBlockMM, y+4)
	box := RectMM{
		X: pageMarginMM,
		Y: top,
		W: contentW,
		H: pageH - footerBlockMM - top - 4,
	}

	switch {
	case sumValues(items) <= 0:
		if err := g.drawFallback(doc, noResultsText, box); err != nil {
			return err
		}
	case chart.err != nil || chart.img == nil:
		if err := g.drawFallback(doc, chartFailedText, box); err != nil {
			return err
		}
	default:
		b := chart.img.Bounds()
		rect := FitRect(b.Dx(), b.Dy(), box)
		placed := chart.img
		if assets != nil && assets.Background != nil {
			composed, err := ComposeOverBackground(assets.Background, chart.img, rect, assets.DPI)
			if err != nil {
				logger.Debug("Background composition failed, placing chart directly", "error", err)
			} else {
				placed = composed
			}
		}
		if err := doc.DrawImage(placed, rect); err != nil {
			logger.Warn("Failed to place chart", "question", string(q.ID), "error", err)
			if err := g.drawFallback(doc, chartFailedText, box); err != nil {
				return err
			}
		}
	}

	return drawFooter(doc, index+1, total)
}

func (g *ReportGenerator) drawFallback(doc DocumentBuilder, text string, box RectMM) error {
	return doc.DrawText(text, box.X+box.W/2, box.Y+8, TextStyle{Size: 11, Color: mutedColor, Align: AlignCenter})
}

func drawDecorations(doc DocumentBuilder, assets *PageAssets, logger *Logger) {
	if assets == nil {
		return
	}
	pageW, pageH := doc.PageSize()
	if assets.Background != nil {
		if err := doc.DrawImage(assets.Background, RectMM{W: pageW, H: pageH}); err != nil {
			logger.Warn("Failed to draw page background", "error", err)
		}
	}
	if assets.Logo != nil {
		if err := doc.DrawImage(assets.Logo, assets.LogoRect); err != nil {
			logger.Warn("Failed to draw logo", "error", err)
		}
	}
}

func drawFooter(doc DocumentBuilder, page, total int) error {
	pageW, pageH := doc.PageSize()
	if err := doc.DrawText(fmt.Sprintf(pageFooterTemplate, page, total), pageW-pageMarginMM, pageH-13, TextStyle{Size: 9, Color: mutedColor, Align: AlignRight}); err != nil {
		return err
	}
	return doc.DrawText(reportTagline, pageW/2, pageH-8, TextStyle{Size: 8, Color: mutedColor, Align: AlignCenter})
}

func (g *ReportGenerator) drawNoQuestions(doc DocumentBuilder) error {
	pageW, pageH := doc.PageSize()
	return doc.DrawText(noQuestionsText, pageW/2, pageH/2, TextStyle{Size: 14, Color: titleColor, Align: AlignCenter})
}

// FormatScopeLine renders the metadata line under the page title
func FormatScopeLine(labels ScopeLabels) string {
	orAll := func(s string) string {
		if strings.TrimSpace(s) == "" {
			return allRegionsLabel
		}
		return s
	}
	line := fmt.Sprintf("Encuesta: %s | Municipio: %s | Sección: %s", orAll(labels.Survey), orAll(labels.Municipio), orAll(labels.Seccion))
	if strings.TrimSpace(labels.Comunidad) != "" {
		line += " | Comunidad: " + labels.Comunidad
	}
	return line
}

func (g *ReportGenerator) save(doc DocumentBuilder, name string) (string, error) {
	dir := g.config.OutputDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", &StorageError{Operation: "create_directory", Path: dir, Err: err}
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", &StorageError{Operation: "create_file", Path: path, Err: err}
	}
	if err := doc.Save(f); err != nil {
		f.Close()
		return "", &StorageError{Operation: "write_pdf", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return "", &StorageError{Operation: "close_file", Path: path, Err: err}
	}
	return path, nil
}

func (g *ReportGenerator) savePartial(doc DocumentBuilder, report *Report, cause error, start time.Time, logger *Logger) (*Report, error) {
	logger.Error("Report generation failed, saving completed pages", "error", cause)

	report.Partial = true
	report.Cause = cause.Error()
	report.Err = cause
	report.Pages = doc.PageCount()

	path, err := g.save(doc, PartialReportFileName)
	report.Duration = time.Since(start)
	if err != nil {
		logger.Error("Failed to save partial report", "error", err)
		g.alert("Error al generar el reporte", fmt.Sprintf("no se pudo guardar el reporte parcial: %v", err))
		return report, fmt.Errorf("failed to save partial report after %v: %w", cause, err)
	}

	report.Path = path
	g.alert("Reporte incompleto", fmt.Sprintf("se guardaron %d páginas en %s (%v)", report.Pages, path, cause))
	g.saveManifest(report, logger)
	return report, nil
}

func (g *ReportGenerator) alert(title, message string) {
	if g.alerter != nil {
		g.alerter.Alert(title, message)
	}
}

func (g *ReportGenerator) saveManifest(report *Report, logger *Logger) {
	if g.storage == nil {
		return
	}
	if err := g.storage.SaveReport(report); err != nil {
		logger.Warn("Failed to save report manifest", "error", err)
	}
}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
