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
	"io"
	"math"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	historyLimit  int
	historyLatest bool
)

// relTimeMagnitudes renders relative times in Spanish
var relTimeMagnitudes = []humanize.RelTimeMagnitude{
	{D: time.Second, Format: "ahora", DivBy: time.Second},
	{D: 2 * time.Second, Format: "%s 1 segundo", DivBy: 1},
	{D: time.Minute, Format: "%s %d segundos", DivBy: time.Second},
	{D: 2 * time.Minute, Format: "%s 1 minuto", DivBy: 1},
	{D: time.Hour, Format: "%s %d minutos", DivBy: time.Minute},
	{D: 2 * time.Hour, Format: "%s 1 hora", DivBy: 1},
	{D: humanize.Day, Format: "%s %d horas", DivBy: time.Hour},
	{D: 2 * humanize.Day, Format: "%s 1 día", DivBy: 1},
	{D: humanize.Week, Format: "%s %d días", DivBy: humanize.Day},
	{D: 2 * humanize.Week, Format: "%s 1 semana", DivBy: 1},
	{D: humanize.Month, Format: "%s %d semanas", DivBy: humanize.Week},
	{D: 2 * humanize.Month, Format: "%s 1 mes", DivBy: 1},
	{D: humanize.Year, Format: "%s %d meses", DivBy: humanize.Month},
	{D: 2 * humanize.Year, Format: "%s 1 año", DivBy: 1},
	{D: humanize.LongTime, Format: "%s %d años", DivBy: humanize.Year},
	{D: math.MaxInt64, Format: "%s mucho tiempo", DivBy: 1},
}

func relTime(t, now time.Time) string {
	return humanize.CustomRelTime(t, now, "hace", "dentro de", relTimeMagnitudes)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List previously generated reports",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of reports to show (0 for all)")
	historyCmd.Flags().BoolVar(&historyLatest, "latest", false, "show only the most recent report")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	if a.storage == nil {
		return errors.New("storage is unavailable, no history to show")
	}

	if historyLatest {
		latest, err := a.storage.LatestReport()
		if err != nil {
			return err
		}
		var reports []*Report
		if latest != nil {
			reports = append(reports, latest)
		}
		writeHistory(cmd.OutOrStdout(), reports, time.Now())
		return nil
	}

	reports, err := a.storage.ListReports()
	if err != nil {
		return err
	}
	if historyLimit > 0 && len(reports) > historyLimit {
		reports = reports[:historyLimit]
	}

	writeHistory(cmd.OutOrStdout(), reports, time.Now())
	return nil
}

func writeHistory(w io.Writer, reports []*Report, now time.Time) {
	if len(reports) == 0 {
		fmt.Fprintln(w, "No hay reportes registrados.")
		return
	}

	partial := color.New(color.FgYellow).SprintFunc()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "GENERADO\tPÁGINAS\tPREGUNTAS\tESTADO\tARCHIVO\n")
	for _, r := range reports {
		status := "completo"
		if r.Partial {
			status = partial("parcial")
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n",
			relTime(r.GeneratedAt, now),
			r.Pages,
			r.Questions,
			status,
			r.Path,
		)
	}
	tw.Flush()
}
