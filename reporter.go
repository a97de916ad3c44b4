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
	"io"
	"os"
	"strings"
)

// Reporter writes a Markdown summary of the dashboard
type Reporter struct {
	logger *Logger
}

// NewReporter creates a new Markdown reporter
func NewReporter(logger *Logger) *Reporter {
	return &Reporter{
		logger: logger,
	}
}

// GenerateReport writes the summary to outputPath, or stdout when empty
func (r *Reporter) GenerateReport(data *DashboardData, outputPath string) error {
	r.logger.Info("Generating dashboard summary")

	var writer io.Writer
	if outputPath == "" {
		writer = os.Stdout
	} else {
		file, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer file.Close()
		writer = file
	}

	r.WriteReport(writer, data)

	if outputPath != "" {
		r.logger.Info("Report saved", "path", outputPath)
	}

	return nil
}

// WriteReport renders the summary into w
func (r *Reporter) WriteReport(w io.Writer, data *DashboardData) {
	r.writeHeader(w, data)
	r.writeKPIs(w, data)
	r.writeGender(w, data)
	r.writeQuestions(w, data)
	r.writeFooter(w)
}

// writeHeader writes the report header
func (r *Reporter) writeHeader(w io.Writer, data *DashboardData) {
	fmt.Fprintf(w, "# Dashboard de Encuestas\n\n")
	fmt.Fprintf(w, "**Generado:** %s\n\n", data.FetchedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "**Filtros:** %s\n\n", FormatScopeLine(data.Labels))
	if af := data.Scope.AnswerFilters; len(af) > 0 {
		fmt.Fprintf(w, "**Filtros por respuesta:** %s\n\n", formatAnswerFilters(af))
	}
	fmt.Fprintf(w, "**sondeo version:** %s\n\n", GetVersion())
	fmt.Fprintf(w, "---\n\n")
}

// writeKPIs writes the aggregate counters
func (r *Reporter) writeKPIs(w io.Writer, data *DashboardData) {
	fmt.Fprintf(w, "## 📊 Indicadores generales\n\n")

	kpis := data.KPIs
	if kpis == nil {
		kpis = &KpisGenerales{}
	}

	fmt.Fprintf(w, "| Indicador | Valor |\n")
	fmt.Fprintf(w, "|-----------|-------|\n")
	fmt.Fprintf(w, "| Total de encuestas | %s |\n", FormatCount(float64(kpis.TotalEncuestas)))
	fmt.Fprintf(w, "| Municipios cubiertos | %s |\n", FormatCount(float64(kpis.Cobertura.Municipios)))
	fmt.Fprintf(w, "| Distritos locales cubiertos | %s |\n", FormatCount(float64(kpis.Cobertura.DistritosLocales)))
	fmt.Fprintf(w, "| Ubicaciones registradas | %s |\n", FormatCount(float64(len(data.Locations))))
	fmt.Fprintf(w, "\n")
}

// writeGender writes the participation breakdown
func (r *Reporter) writeGender(w io.Writer, data *DashboardData) {
	items := GenderItems(data.KPIs)
	if len(items) == 0 {
		return
	}

	fmt.Fprintf(w, "### 👥 Participación por género\n\n")
	r.writeItems(w, items)
}

// writeQuestions writes one table per question in list order
func (r *Reporter) writeQuestions(w io.Writer, data *DashboardData) {
	fmt.Fprintf(w, "## 🗳️ Resultados por pregunta\n\n")

	if len(data.Questions) == 0 {
		fmt.Fprintf(w, "%s\n\n", noQuestionsText)
		return
	}

	for i, q := range data.Questions {
		fmt.Fprintf(w, "### %d. %s\n\n", i+1, strings.TrimSpace(q.Pregunta))
		items := ToChartItems(data.Results[string(q.ID)])
		if len(items) == 0 {
			fmt.Fprintf(w, "_%s_\n\n", noResultsText)
			continue
		}
		r.writeItems(w, items)
	}
}

func (r *Reporter) writeItems(w io.Writer, items []ChartDataItem) {
	fmt.Fprintf(w, "| Respuesta | Total | Porcentaje |\n")
	fmt.Fprintf(w, "|-----------|-------|------------|\n")
	for i, it := range items {
		fmt.Fprintf(w, "| %s | %s | %s |\n",
			escapeCell(it.Label),
			FormatCount(it.Value),
			FormatPercentage(Share(items, i)),
		)
	}
	fmt.Fprintf(w, "\n")
}

// writeFooter writes the report footer
func (r *Reporter) writeFooter(w io.Writer) {
	fmt.Fprintf(w, "---\n\n")
	fmt.Fprintf(w, "*%s*\n\n", reportTagline)
	fmt.Fprintf(w, "*Generated by [sondeo](https://github.com/matthewgall/sondeo)*\n")
}

// formatAnswerFilters renders {"3":["1","2"]} as "3 = 1, 2; ..." with
// questions in numeric order
func formatAnswerFilters(m map[string][]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortIDs(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s = %s", k, strings.Join(m[k], ", ")))
	}
	return strings.Join(parts, "; ")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "|", "\\|")
}
