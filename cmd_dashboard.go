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
	"github.com/spf13/cobra"
)

var (
	dashboardScope  scopeFlags
	dashboardOutput string
	dashboardHTML   bool
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Load KPIs, locations and question results into a Markdown or HTML summary",
	Args:  cobra.NoArgs,
	RunE:  runDashboard,
}

func init() {
	dashboardScope.register(dashboardCmd.Flags())
	dashboardCmd.Flags().StringVarP(&dashboardOutput, "output", "o", "", "output file (default: stdout)")
	dashboardCmd.Flags().BoolVar(&dashboardHTML, "html", false, "write an HTML snapshot instead of Markdown")
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	scope, err := dashboardScope.scope()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	dashboard := NewDashboard(a.client, a.config, a.logger)
	dashboard.LoadQuestions(ctx)

	data, err := dashboard.ApplyScope(ctx, scope)
	if err != nil {
		return err
	}

	if dashboardHTML {
		charts := NewChartGenerator(RenderOptions{
			Width:  a.config.ChartWidth,
			Height: a.config.ChartHeight,
			Scale:  a.config.RenderScale,
		})
		reporter := NewHTMLReporter(charts, NewHeatmapRenderer(a.config.HeatmapGrid), a.config, a.logger)
		return reporter.GenerateHTMLReport(data, dashboardOutput)
	}

	return NewReporter(a.logger).GenerateReport(data, dashboardOutput)
}
