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
	"os"

	"github.com/spf13/cobra"
)

var (
	reportScope      scopeFlags
	reportOutputDir  string
	reportChartStyle string
	reportSurvey     string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the multi-page PDF survey report",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportScope.register(reportCmd.Flags())
	reportCmd.Flags().StringVarP(&reportOutputDir, "output-dir", "o", "", "directory for the PDF (overrides config)")
	reportCmd.Flags().StringVar(&reportChartStyle, "chart-style", "", "force one chart style: auto, gauge, pie, vbar, hbar")
	reportCmd.Flags().StringVar(&reportSurvey, "survey-name", "", "survey name printed on every page")
}

func runReport(cmd *cobra.Command, _ []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	if reportOutputDir != "" {
		a.config.OutputDir = reportOutputDir
	}
	if reportSurvey != "" {
		a.config.SurveyName = reportSurvey
	}
	if reportChartStyle != "" {
		if _, err := ParseChartKind(reportChartStyle); err != nil {
			return err
		}
		a.config.ChartStyle = reportChartStyle
	}

	scope, err := reportScope.scope()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	// Walk the cascade so the pages can print region names
	dashboard := NewDashboard(a.client, a.config, a.logger)
	if err := dashboard.Resolve(ctx, scope); err != nil {
		return err
	}

	charts := NewChartGenerator(RenderOptions{
		Width:  a.config.ChartWidth,
		Height: a.config.ChartHeight,
		Scale:  a.config.RenderScale,
	})
	generator := NewReportGenerator(a.client, charts, a.config, a.storage, NewConsoleAlerter(os.Stderr), a.logger)

	report, err := generator.Generate(ctx, ReportRequest{
		Scope:  dashboard.Scope(),
		Labels: dashboard.ScopeLabels(),
	})
	if err != nil {
		return err
	}

	if report.Partial {
		a.logger.UserMessage("Reporte parcial guardado en %s (%d páginas)", report.Path, report.Pages)
		return nil
	}
	a.logger.UserMessage("Reporte guardado en %s (%d páginas)", report.Path, report.Pages)
	return nil
}
