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
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// DefaultChartColors is the brand palette, cycled by index
var DefaultChartColors = []string{
	"#E71D36", // brand red
	"#1B263B", // brand dark blue
	"#42A5F5",
	"#80CBC4",
	"#EF5350",
	"#78909C",
	"#FFCA28",
	"#0D1B2A", // brand darker blue
	"#B0BEC5",
	"#4DD0E1",
	"#C2172D", // brand red dark
	"#9E9E9E",
}

// PaletteColor returns the palette entry for an index
func PaletteColor(i int) string {
	n := len(DefaultChartColors)
	return DefaultChartColors[((i%n)+n)%n]
}

// ToChartItems maps API tallies into chart items with palette colours
func ToChartItems(results []QuestionResultDto) []ChartDataItem {
	items := make([]ChartDataItem, len(results))
	for i, r := range results {
		items[i] = ChartDataItem{
			Label: strings.TrimSpace(r.Label),
			Value: float64(r.Value),
		}
	}
	return ResolveColors(items)
}

// ResolveColors returns a copy where every item without an explicit colour
// takes the palette entry of its index
func ResolveColors(items []ChartDataItem) []ChartDataItem {
	out := make([]ChartDataItem, len(items))
	for i, it := range items {
		if it.Color == "" {
			it.Color = PaletteColor(i)
		}
		out[i] = it
	}
	return out
}

// GenderItems maps the gender participation breakdown into chart items
func GenderItems(kpis *KpisGenerales) []ChartDataItem {
	if kpis == nil {
		return nil
	}
	items := make([]ChartDataItem, 0, len(kpis.ParticipacionGenero))
	for _, g := range kpis.ParticipacionGenero {
		items = append(items, ChartDataItem{Label: g.Genero, Value: float64(g.Total)})
	}
	return ResolveColors(items)
}

// GaugeDisplayValue is the centre label of a gauge: the first item's share
// of the total
func GaugeDisplayValue(items []ChartDataItem) string {
	if len(items) == 0 {
		return "N/A"
	}
	total := sumValues(items)
	if total <= 0 {
		return "0%"
	}
	return fmt.Sprintf("%.0f%%", items[0].Value/total*100)
}

func sumValues(items []ChartDataItem) float64 {
	var total float64
	for _, it := range items {
		if it.Value > 0 && !math.IsInf(it.Value, 0) {
			total += it.Value
		}
	}
	return total
}

// Share returns an item's percentage of the total
func Share(items []ChartDataItem, i int) float64 {
	total := sumValues(items)
	if total <= 0 || i < 0 || i >= len(items) || items[i].Value <= 0 {
		return 0
	}
	return items[i].Value / total * 100
}

// hexColor converts "#RRGGBB" into a go-chart colour, falling back to the
// first palette entry on garbage
func hexColor(hex string) drawing.Color {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 && len(hex) != 3 {
		hex = strings.TrimPrefix(DefaultChartColors[0], "#")
	}
	return drawing.ColorFromHex(hex)
}

// FormatCount formats a tally with thousands separators
func FormatCount(value float64) string {
	if value == math.Trunc(value) {
		return humanize.Comma(int64(value))
	}
	return humanize.Commaf(math.Round(value*100) / 100)
}

// FormatPercentage formats a value as a percentage
func FormatPercentage(value float64) string {
	return fmt.Sprintf("%.1f%%", value)
}
