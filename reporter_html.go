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
	"errors"
	"fmt"
	"html"
	"io"
	"os"
	"strings"
)

// HTMLReporter writes a self-contained HTML snapshot of the dashboard
type HTMLReporter struct {
	charts     ChartRenderer
	maps       MapRenderer
	override   ChartKind
	thresholds Thresholds
	logger     *Logger
}

// NewHTMLReporter creates a new HTML report generator
func NewHTMLReporter(charts ChartRenderer, maps MapRenderer, config *Config, logger *Logger) *HTMLReporter {
	return &HTMLReporter{
		charts:     charts,
		maps:       maps,
		override:   config.ChartOverride(),
		thresholds: config.Thresholds,
		logger:     logger,
	}
}

// GenerateHTMLReport writes the snapshot to outputPath, or stdout when empty
func (r *HTMLReporter) GenerateHTMLReport(data *DashboardData, outputPath string) error {
	r.logger.Info("Generating HTML dashboard")

	var writer io.Writer
	if outputPath == "" {
		writer = os.Stdout
	} else {
		file, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create HTML report file: %w", err)
		}
		defer file.Close()
		writer = file
	}

	r.WriteHTMLReport(writer, data)

	if outputPath != "" {
		r.logger.Info("HTML report saved", "path", outputPath)
	}

	return nil
}

// WriteHTMLReport renders the snapshot into w
func (r *HTMLReporter) WriteHTMLReport(w io.Writer, data *DashboardData) {
	r.writeHTMLHeader(w, data)
	r.writeHTMLKPIs(w, data)
	r.writeHTMLHeatmap(w, data)
	r.writeHTMLQuestions(w, data)
	r.writeHTMLFooter(w)
}

func (r *HTMLReporter) writeHTMLHeader(w io.Writer, data *DashboardData) {
	fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="es">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Dashboard de Encuestas</title>
    <style>
        :root {
            --primary-color: #E71D36;
            --primary-dark: #C2172D;
            --secondary-color: #1B263B;
            --bg-color: #F4F6FA;
            --card-bg: #FFFFFF;
            --text-color: #0D1B2A;
            --text-muted: #78909C;
            --border-color: #E0E6F2;
        }

        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }

        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Oxygen, Ubuntu, Cantarell, sans-serif;
            background: var(--bg-color);
            color: var(--text-color);
            line-height: 1.6;
            padding: 20px;
        }

        .container {
            max-width: 1200px;
            margin: 0 auto;
        }

        header {
            background: linear-gradient(135deg, var(--secondary-color), var(--primary-dark));
            color: #FFFFFF;
            padding: 32px 40px;
            border-radius: 16px;
            margin-bottom: 30px;
            box-shadow: 0 8px 32px rgba(27, 38, 59, 0.2);
        }

        header .meta {
            opacity: 0.85;
            font-size: 0.95em;
        }

        .kpi-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(220px, 1fr));
            gap: 20px;
            margin-bottom: 30px;
        }

        .card {
            background: var(--card-bg);
            border: 1px solid var(--border-color);
            border-radius: 12px;
            padding: 24px;
            margin-bottom: 24px;
        }

        .kpi .value {
            font-size: 2em;
            font-weight: 700;
            color: var(--primary-color);
        }

        .kpi .label {
            color: var(--text-muted);
            text-transform: uppercase;
            font-size: 0.8em;
            letter-spacing: 0.05em;
        }

        .card img {
            display: block;
            max-width: 100%%;
            margin: 16px auto 0;
        }

        .empty {
            color: var(--text-muted);
            font-style: italic;
        }

        footer {
            text-align: center;
            color: var(--text-muted);
            font-size: 0.9em;
            padding: 20px 0;
        }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>Dashboard de Encuestas</h1>
            <p class="meta">%s</p>
            <p class="meta">Generado: %s</p>
        </header>
`,
		html.EscapeString(FormatScopeLine(data.Labels)),
		data.FetchedAt.Format("2006-01-02 15:04:05"),
	)
}

func (r *HTMLReporter) writeHTMLKPIs(w io.Writer, data *DashboardData) {
	kpis := data.KPIs
	if kpis == nil {
		kpis = &KpisGenerales{}
	}

	cards := []struct {
		label string
		value float64
	}{
		{"Total de encuestas", float64(kpis.TotalEncuestas)},
		{"Municipios", float64(kpis.Cobertura.Municipios)},
		{"Distritos locales", float64(kpis.Cobertura.DistritosLocales)},
		{"Ubicaciones", float64(len(data.Locations))},
	}

	fmt.Fprintf(w, "        <section class=\"kpi-grid\">\n")
	for _, c := range cards {
		fmt.Fprintf(w, "            <div class=\"card kpi\"><div class=\"value\">%s</div><div class=\"label\">%s</div></div>\n",
			html.EscapeString(FormatCount(c.value)),
			html.EscapeString(c.label),
		)
	}
	fmt.Fprintf(w, "        </section>\n")

	if items := GenderItems(kpis); len(items) > 0 {
		r.writeChartCard(w, "Participación por género", items)
	}
}

func (r *HTMLReporter) writeHTMLHeatmap(w io.Writer, data *DashboardData) {
	fmt.Fprintf(w, "        <section class=\"card\">\n            <h2>Mapa de calor</h2>\n")
	defer fmt.Fprintf(w, "        </section>\n")

	if r.maps == nil {
		return
	}
	img, err := r.maps.RenderHeatmap(data.Locations)
	if err != nil {
		if !errors.Is(err, ErrNoLocations) {
			r.logger.Warn("Failed to render heatmap", "error", err)
		}
		fmt.Fprintf(w, "            <p class=\"empty\">Sin ubicaciones para los filtros seleccionados.</p>\n")
		return
	}
	encoded, err := EncodePNG(img)
	if err != nil {
		r.logger.Warn("Failed to encode heatmap", "error", err)
		return
	}
	fmt.Fprintf(w, "            <img alt=\"Mapa de calor\" src=\"data:image/png;base64,%s\">\n", encoded)
}

func (r *HTMLReporter) writeHTMLQuestions(w io.Writer, data *DashboardData) {
	if len(data.Questions) == 0 {
		fmt.Fprintf(w, "        <section class=\"card\"><p class=\"empty\">%s</p></section>\n", html.EscapeString(noQuestionsText))
		return
	}

	for i, q := range data.Questions {
		title := fmt.Sprintf("%d. %s", i+1, strings.TrimSpace(q.Pregunta))
		r.writeChartCard(w, title, ToChartItems(data.Results[string(q.ID)]))
	}
}

// writeChartCard writes one titled chart, or a fallback line
func (r *HTMLReporter) writeChartCard(w io.Writer, title string, items []ChartDataItem) {
	fmt.Fprintf(w, "        <section class=\"card\">\n            <h3>%s</h3>\n", html.EscapeString(title))
	defer fmt.Fprintf(w, "        </section>\n")

	if len(items) == 0 {
		fmt.Fprintf(w, "            <p class=\"empty\">%s</p>\n", html.EscapeString(noResultsText))
		return
	}

	kind := SelectChartKind(len(items), r.override, r.thresholds)
	img, err := r.charts.Render(kind, items)
	if err != nil {
		r.logger.Warn("Failed to render chart", "title", title, "kind", string(kind), "error", err)
		fmt.Fprintf(w, "            <p class=\"empty\">%s</p>\n", html.EscapeString(chartFailedText))
		return
	}
	encoded, err := EncodePNG(img)
	if err != nil {
		r.logger.Warn("Failed to encode chart", "title", title, "error", err)
		fmt.Fprintf(w, "            <p class=\"empty\">%s</p>\n", html.EscapeString(chartFailedText))
		return
	}
	fmt.Fprintf(w, "            <img alt=\"%s\" src=\"data:image/png;base64,%s\">\n", html.EscapeString(title), encoded)
}

func (r *HTMLReporter) writeHTMLFooter(w io.Writer) {
	fmt.Fprintf(w, `
        <footer>
            <p><em>%s</em></p>
            <p style="margin-top: 10px;">Generated by <a href="https://github.com/matthewgall/sondeo" style="color: var(--primary-color); text-decoration: none;">sondeo</a> %s</p>
        </footer>
    </div>
</body>
</html>
`, html.EscapeString(reportTagline), html.EscapeString(GetVersion()))
}
