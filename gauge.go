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
	"fmt"
	"image"
	"image/png"
	"math"

	"github.com/wcharczuk/go-chart/v2"
)

// gaugeCutout is the inner radius as a fraction of the outer radius
const gaugeCutout = 0.7

// renderGauge draws a half donut straight onto a go-chart PNG renderer.
// Segments are proportional to each value, left to right; the centre shows
// the first item's share.
func (cg *ChartGenerator) renderGauge(items []ChartDataItem) (image.Image, error) {
	w, h := cg.pixels()
	r, err := chart.PNG(w, h)
	if err != nil {
		return nil, &RenderError{Kind: string(ChartGauge), Err: err}
	}
	r.SetDPI(cg.dpi())

	legendH := int(float64(h) * 0.22)
	cx := w / 2
	outer := math.Min(float64(w)*0.42, float64(h-legendH)*0.85)
	inner := outer * gaugeCutout
	cy := int(float64(h-legendH)*0.5 + outer*0.5)

	total := sumValues(items)
	start := math.Pi
	for _, it := range items {
		if it.Value <= 0 {
			continue
		}
		delta := it.Value / total * math.Pi
		r.SetFillColor(hexColor(it.Color))
		r.SetStrokeColor(chart.ColorWhite)
		r.SetStrokeWidth(2)
		// ArcTo starts a path on the first call and otherwise draws a line
		// to the arc's start point
		r.ArcTo(cx, cy, outer, outer, start, delta)
		r.ArcTo(cx, cy, inner, inner, start+delta, -delta)
		r.Close()
		r.FillStroke()
		start += delta
	}

	if cg.font != nil {
		r.SetFont(cg.font)
		r.SetFontColor(hexColor(DefaultChartColors[1]))

		r.SetFontSize(28)
		label := GaugeDisplayValue(items)
		box := r.MeasureText(label)
		r.Text(label, cx-box.Width()/2, cy-int(inner*0.2))

		cg.drawGaugeLegend(r, items, cy+int(float64(legendH)*0.45), w)
	}

	var buf bytes.Buffer
	if err := r.Save(&buf); err != nil {
		return nil, &RenderError{Kind: string(ChartGauge), Err: fmt.Errorf("failed to encode gauge: %w", err)}
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return nil, &RenderError{Kind: string(ChartGauge), Err: err}
	}
	return img, nil
}

// drawGaugeLegend writes one "■ label: value (pct)" entry per item on a
// centred row
func (cg *ChartGenerator) drawGaugeLegend(r chart.Renderer, items []ChartDataItem, y, width int) {
	r.SetFontSize(11)
	entries := make([]string, len(items))
	widths := make([]int, len(items))
	swatch := int(12 * cg.opts.Scale)
	gap := int(24 * cg.opts.Scale)
	total := 0
	for i, it := range items {
		entries[i] = fmt.Sprintf("%s: %s (%s)", shortLabel(it.Label, 24), FormatCount(it.Value), FormatPercentage(Share(items, i)))
		widths[i] = swatch + swatch/2 + r.MeasureText(entries[i]).Width()
		total += widths[i]
	}
	total += gap * (len(items) - 1)

	x := (width - total) / 2
	if x < 0 {
		x = 0
	}
	for i, it := range items {
		r.SetFillColor(hexColor(it.Color))
		r.SetStrokeColor(hexColor(it.Color))
		r.MoveTo(x, y-swatch)
		r.LineTo(x+swatch, y-swatch)
		r.LineTo(x+swatch, y)
		r.LineTo(x, y)
		r.Close()
		r.FillStroke()

		r.SetFontColor(hexColor(DefaultChartColors[1]))
		r.Text(entries[i], x+swatch+swatch/2, y)
		x += widths[i] + gap
	}
}
