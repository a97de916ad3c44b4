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
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	regionsParent  string
	optionsSelect  string
	optionsRefresh bool
	optionsClear   bool
)

var filtersCmd = &cobra.Command{
	Use:   "filters",
	Short: "Inspect geographic and answer filter options",
}

var filtersRegionsCmd = &cobra.Command{
	Use:   "regions <level>",
	Short: "List the regions of one level (estado, distrito-federal, distrito-local, municipio, seccion, comunidad)",
	Args:  cobra.ExactArgs(1),
	RunE:  runFiltersRegions,
}

var filtersOptionsCmd = &cobra.Command{
	Use:   "options <question-id>...",
	Short: "List answer options per question and build an --answers mapping",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFiltersOptions,
}

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "List the survey questions",
	Args:  cobra.NoArgs,
	RunE:  runQuestions,
}

func init() {
	filtersRegionsCmd.Flags().StringVar(&regionsParent, "parent", "", "id of the parent region")
	filtersOptionsCmd.Flags().StringVar(&optionsSelect, "select", "", "selections to compact, e.g. 3=1,2;4=7")
	filtersOptionsCmd.Flags().BoolVar(&optionsRefresh, "refresh", false, "drop the cached options of the listed questions first")
	filtersOptionsCmd.Flags().BoolVar(&optionsClear, "clear-cache", false, "drop every cached option list first")

	filtersCmd.AddCommand(filtersRegionsCmd)
	filtersCmd.AddCommand(filtersOptionsCmd)
}

func runFiltersRegions(cmd *cobra.Command, args []string) error {
	level, err := ParseLevel(args[0])
	if err != nil {
		return err
	}

	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	regions, err := a.client.Regions(cmd.Context(), level, regionsParent)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tNOMBRE\n")
	for _, r := range regions {
		fmt.Fprintf(tw, "%s\t%s\n", r.ID, r.Nombre)
	}
	return tw.Flush()
}

func runFiltersOptions(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	out := cmd.OutOrStdout()
	cache := a.optionCache()
	if cache != nil && (optionsRefresh || optionsClear) {
		if err := refreshOptionCache(out, cache, args, optionsClear); err != nil {
			return err
		}
	}

	sidebar := NewFilterSidebar(a.client, cache, a.config.OptionCacheTTL, a.logger)

	for _, q := range args {
		if sidebar.IsExpanded(q) {
			continue
		}
		_, opts, err := sidebar.Toggle(cmd.Context(), q)
		if err != nil {
			return fmt.Errorf("failed to load options for question %s: %w", q, err)
		}
		writeOptions(out, q, opts)
	}

	if optionsSelect == "" {
		return nil
	}
	selections, err := ParseAnswerFilters(optionsSelect)
	if err != nil {
		return err
	}
	for q, ids := range selections {
		for _, id := range ids {
			sidebar.SetSelected(q, id, true)
		}
	}

	sidebar.OnApply = func(m map[string][]string) {
		data, _ := json.Marshal(m)
		fmt.Fprintf(out, "\n--answers '%s'\n", data)
	}
	sidebar.Apply()
	return nil
}

// refreshOptionCache drops cached option lists and reports what is left
func refreshOptionCache(w io.Writer, cache *Cache, questions []string, all bool) error {
	if all {
		if err := cache.Clear(); err != nil {
			return err
		}
	} else {
		for _, q := range questions {
			if err := cache.Delete(optionCacheKey(q)); err != nil {
				return err
			}
		}
	}
	total, expired := cache.Stats()
	fmt.Fprintf(w, "Caché de opciones: %d en caché, %d expiradas\n", total, expired)
	return nil
}

func writeOptions(w io.Writer, questionID string, opts []QuestionOption) {
	fmt.Fprintf(w, "Pregunta %s\n", questionID)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, o := range opts {
		fmt.Fprintf(tw, "  %s\t%s\n", o.ID, o.Opcion)
	}
	tw.Flush()
}

func runQuestions(cmd *cobra.Command, _ []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	questions, err := a.client.Questions(cmd.Context())
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tPREGUNTA\n")
	for _, q := range questions {
		fmt.Fprintf(tw, "%s\t%s\n", q.ID, q.Pregunta)
	}
	return tw.Flush()
}
