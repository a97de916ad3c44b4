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

const (
	// DefaultAPIBase is the survey API used when nothing is configured
	DefaultAPIBase = "http://localhost:3000"

	// AllSentinel marks a filter level as "no restriction"
	AllSentinel = "all"
)

// Dashboard and filter endpoints, relative to the API base
const (
	endpointKPIs            = "/dashboard/kpis-generales"
	endpointLocations       = "/dashboard/ubicaciones"
	endpointQuestionResults = "/dashboard/question-results/%s"
	endpointQuestions       = "/filters/questions"
	endpointOptions         = "/filters/options/%s"
)

// Report output
const (
	ReportFileName        = "reporte_encuesta.pdf"
	PartialReportFileName = "reporte_encuesta_parcial.pdf"

	// Hard cap on questions rendered in one report
	DefaultMaxQuestions = 200
	DefaultBatchSize    = 6
)

// Report page copy
const (
	reportTitle        = "Reporte de Resultados de Encuesta"
	reportTagline      = "Generado automáticamente desde el Dashboard de Encuestas"
	noQuestionsText    = "No se encontraron preguntas para generar el reporte."
	noResultsText      = "Sin resultados para esta pregunta con los filtros seleccionados."
	chartFailedText    = "No fue posible generar la gráfica para esta pregunta."
	allRegionsLabel    = "Todos"
	pageFooterTemplate = "Página %d de %d"
)

// A4 portrait page geometry in millimetres
const (
	pageWidthMM    = 210.0
	pageHeightMM   = 297.0
	pageMarginMM   = 15.0
	headerBlockMM  = 48.0
	footerBlockMM  = 18.0
	logoTopMM      = 8.0
	defaultLogoMM  = 28.0
	defaultOpacity = 0.12
)
