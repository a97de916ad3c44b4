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
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
	charts "github.com/vicanso/go-charts/v2"
	"github.com/wcharczuk/go-chart/v2"
)

// ChartKind names a chart style
type ChartKind string

const (
	ChartAuto  ChartKind = "auto"
	ChartGauge ChartKind = "gauge"
	ChartPie   ChartKind = "pie"
	ChartVBar  ChartKind = "vbar"
	ChartHBar  ChartKind = "hbar"
)

// ParseChartKind accepts the canonical names and a few common aliases
func ParseChartKind(s string) (ChartKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ChartAuto, nil
	case "gauge", "half-donut":
		return ChartGauge, nil
	case "pie", "donut", "doughnut":
		return ChartPie, nil
	case "vbar", "vertical-bar", "column":
		return ChartVBar, nil
	case "hbar", "bar", "horizontal-bar":
		return ChartHBar, nil
	}
	return "", &ValidationError{Field: "chart_style", Value: s, Message: "expected auto, gauge, pie, vbar or hbar"}
}

// Thresholds drive chart selection by result cardinality
type Thresholds struct {
	GaugeExact int `yaml:"gauge_exact" toml:"gauge_exact"`
	PieMax     int `yaml:"pie_max" toml:"pie_max"`
	VBarMax    int `yaml:"vbar_max" toml:"vbar_max"`
}

// DefaultThresholds mirrors the dashboard: 2 → gauge, ≤4 → pie, ≤8 → vbar
func DefaultThresholds() Thresholds {
	return Thresholds{GaugeExact: 2, PieMax: 4, VBarMax: 8}
}

// SelectChartKind picks the chart for n result rows. A non-auto override
// wins for every question.
func SelectChartKind(n int, override ChartKind, t Thresholds) ChartKind {
	if override != "" && override != ChartAuto {
		return override
	}
	switch {
	case n == t.GaugeExact:
		return ChartGauge
	case n <= t.PieMax:
		return ChartPie
	case n <= t.VBarMax:
		return ChartVBar
	default:
		return ChartHBar
	}
}

// ChartRenderer turns chart items into a raster image. Returning means the
// drawing is complete.
type ChartRenderer interface {
	Render(kind ChartKind, items []ChartDataItem) (image.Image, error)
}

// RenderOptions sizes offscreen charts
type RenderOptions struct {
	Width  int     // logical width
	Height int     // logical height
	Scale  float64 // supersampling factor, render pixels = logical × scale
}

// ChartGenerator renders charts with go-chart and go-charts
type ChartGenerator struct {
	opts RenderOptions
	font *truetype.Font
}

const hbarThemeName = "sondeo-transparent"

var registerThemeOnce sync.Once

// NewChartGenerator creates a new chart generator
func NewChartGenerator(opts RenderOptions) *ChartGenerator {
	if opts.Width <= 0 {
		opts.Width = 800
	}
	if opts.Height <= 0 {
		opts.Height = 500
	}
	if opts.Scale <= 0 {
		opts.Scale = 1
	}

	registerThemeOnce.Do(registerHBarTheme)

	cg := &ChartGenerator{opts: opts}
	if f, err := chart.GetDefaultFont(); err == nil {
		cg.font = f
	}
	return cg
}

func registerHBarTheme() {
	seriesColors := make([]charts.Color, len(DefaultChartColors))
	for i, hex := range DefaultChartColors {
		c := hexColor(hex)
		seriesColors[i] = charts.Color{R: c.R, G: c.G, B: c.B, A: 255}
	}
	charts.AddTheme(hbarThemeName, charts.ThemeOption{
		AxisStrokeColor:    charts.Color{R: 110, G: 112, B: 121, A: 255},
		AxisSplitLineColor: charts.Color{R: 224, G: 230, B: 242, A: 255},
		BackgroundColor:    charts.Color{R: 0, G: 0, B: 0, A: 0},
		TextColor:          charts.Color{R: 27, G: 38, B: 59, A: 255},
		SeriesColors:       seriesColors,
	})
}

// pixels returns the render size in pixels
func (cg *ChartGenerator) pixels() (int, int) {
	return int(float64(cg.opts.Width) * cg.opts.Scale), int(float64(cg.opts.Height) * cg.opts.Scale)
}

func (cg *ChartGenerator) dpi() float64 {
	return chart.DefaultDPI * cg.opts.Scale
}

// Render draws one chart. Library panics are converted to errors so a bad
// data set never takes the caller down.
func (cg *ChartGenerator) Render(kind ChartKind, items []ChartDataItem) (img image.Image, err error) {
	if len(items) == 0 {
		return nil, ErrNoChartData
	}
	if sumValues(items) <= 0 {
		return nil, &RenderError{Kind: string(kind), Err: ErrNoChartData}
	}
	items = ResolveColors(items)

	defer func() {
		if r := recover(); r != nil {
			img = nil
			err = &RenderError{Kind: string(kind), Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	var buf []byte
	switch kind {
	case ChartGauge:
		return cg.renderGauge(items)
	case ChartPie:
		buf, err = cg.renderPie(items)
	case ChartVBar:
		buf, err = cg.renderVBar(items)
	case ChartHBar, ChartAuto:
		buf, err = cg.renderHBar(items)
	default:
		return nil, &RenderError{Kind: string(kind), Err: fmt.Errorf("unsupported chart kind")}
	}
	if err != nil {
		return nil, &RenderError{Kind: string(kind), Err: err}
	}

	img, err = png.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, &RenderError{Kind: string(kind), Err: fmt.Errorf("failed to decode chart bytes: %w", err)}
	}
	return img, nil
}

// renderPie draws a pie with one palette colour per slice
func (cg *ChartGenerator) renderPie(items []ChartDataItem) ([]byte, error) {
	w, h := cg.pixels()
	values := make([]chart.Value, 0, len(items))
	for i, it := range items {
		if it.Value <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s %s", shortLabel(it.Label, 22), FormatPercentage(Share(items, i))),
			Value: it.Value,
			Style: chart.Style{
				FillColor:   hexColor(it.Color),
				StrokeColor: chart.ColorWhite,
				StrokeWidth: 2,
				FontColor:   chart.ColorWhite,
				FontSize:    11,
			},
		})
	}

	pie := chart.PieChart{
		Width:  w,
		Height: h,
		DPI:    cg.dpi(),
		Background: chart.Style{
			FillColor: chart.ColorTransparent,
		},
		Canvas: chart.Style{
			FillColor: chart.ColorTransparent,
		},
		Values: values,
	}
	if cg.font != nil {
		pie.Font = cg.font
	}

	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render pie chart: %w", err)
	}
	return buf.Bytes(), nil
}

// renderVBar draws vertical bars with one palette colour per bar
func (cg *ChartGenerator) renderVBar(items []ChartDataItem) ([]byte, error) {
	w, h := cg.pixels()
	bars := make([]chart.Value, len(items))
	var max float64
	for i, it := range items {
		if it.Value > max {
			max = it.Value
		}
		bars[i] = chart.Value{
			Label: shortLabel(it.Label, 14),
			Value: it.Value,
			Style: chart.Style{
				FillColor:   hexColor(it.Color),
				StrokeColor: hexColor(it.Color),
				StrokeWidth: 1,
			},
		}
	}

	barChart := chart.BarChart{
		Width:    w,
		Height:   h,
		DPI:      cg.dpi(),
		BarWidth: barWidth(w, len(items)),
		Background: chart.Style{
			FillColor: chart.ColorTransparent,
			Padding: chart.Box{
				Top:    20,
				Bottom: 20,
			},
		},
		Canvas: chart.Style{
			FillColor: chart.ColorTransparent,
		},
		XAxis: chart.Style{
			FontSize:            9,
			TextRotationDegrees: rotationFor(len(items)),
		},
		YAxis: chart.YAxis{
			Style: chart.Style{
				FontSize: 9,
			},
			Range: &chart.ContinuousRange{
				Min: 0,
				Max: max * 1.1,
			},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return FormatCount(f)
				}
				return ""
			},
		},
		Bars: bars,
	}
	if cg.font != nil {
		barChart.Font = cg.font
	}

	var buf bytes.Buffer
	if err := barChart.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render bar chart: %w", err)
	}
	return buf.Bytes(), nil
}

// renderHBar draws horizontal bars with go-charts; the largest category
// sits on top
func (cg *ChartGenerator) renderHBar(items []ChartDataItem) ([]byte, error) {
	w, h := cg.pixels()
	labels := make([]string, len(items))
	values := make([]float64, len(items))
	// go-charts draws the first category at the bottom
	for i, it := range items {
		j := len(items) - 1 - i
		labels[j] = shortLabel(it.Label, 28)
		values[j] = it.Value
	}

	pad := int(20 * cg.opts.Scale)
	p, err := charts.HorizontalBarRender(
		[][]float64{values},
		charts.YAxisDataOptionFunc(labels),
		charts.ThemeOptionFunc(hbarThemeName),
		charts.WidthOptionFunc(w),
		charts.HeightOptionFunc(h),
		charts.PaddingOptionFunc(charts.Box{
			Top:    pad,
			Right:  pad * 2,
			Bottom: pad,
			Left:   pad,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render horizontal bar chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate chart bytes: %w", err)
	}
	return buf, nil
}

// EncodePNG encodes a rendered chart for HTML embedding
func EncodePNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode png: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func shortLabel(s string, max int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= max {
		return string(r)
	}
	return string(r[:max-3]) + "..."
}

func barWidth(width, n int) int {
	if n <= 0 {
		return 40
	}
	bw := width / (n * 2)
	if bw > 120 {
		bw = 120
	}
	if bw < 10 {
		bw = 10
	}
	return bw
}

func rotationFor(n int) float64 {
	if n > 5 {
		return 30
	}
	return 0
}
