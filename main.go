// Copyright 2025 Matthew Gall <me@matthewgall.dev>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Global flag values
var (
	configPath string
	apiURL     string
	debugLogs  bool
	logJSON    bool
)

var rootCmd = &cobra.Command{
	Use:   "sondeo",
	Short: "Electoral survey dashboards and PDF reports",
	Long: `sondeo reads an electoral survey API and produces KPI summaries,
per-question charts, a location heatmap and a paginated PDF report for any
combination of geographic and answer filters.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file (YAML or TOML)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "survey API base URL (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&debugLogs, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "write logs as JSON")

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(filtersCmd)
	rootCmd.AddCommand(questionsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is the wiring shared by every command
type app struct {
	config  *Config
	logger  *Logger
	client  *SurveyClient
	storage *Storage
}

// setup loads configuration, applies the global flags and connects the
// pieces. Storage is optional: a failure is logged and left nil.
func setup() (*app, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	if apiURL != "" {
		config.APIURL = apiURL
	}
	if debugLogs {
		config.Debug = true
	}

	logger := NewLogger(config.Debug)
	if logJSON {
		logger = NewJSONLogger(config.Debug)
	}
	logger.Debug("Starting sondeo", "version", GetVersion())

	if err := config.Validate(); err != nil {
		return nil, err
	}

	storage, err := NewStorage(config.StoragePath, logger)
	if err != nil {
		logger.Warn("Storage unavailable, history and option cache disabled", "error", err)
		storage = nil
	}

	return &app{
		config:  config,
		logger:  logger,
		client:  NewSurveyClient(config.APIURL, config.RequestTimeout, logger),
		storage: storage,
	}, nil
}

func (a *app) optionCache() *Cache {
	if a.storage == nil {
		return nil
	}
	return a.storage.OptionCache()
}

func (a *app) close() {
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			a.logger.Warn("Failed to close storage", "error", err)
		}
	}
}

// scopeFlags binds one flag per geographic level plus --answers
type scopeFlags struct {
	values  [numLevels]string
	answers string
}

func (sf *scopeFlags) register(fs *pflag.FlagSet) {
	for _, l := range Levels {
		fs.StringVar(&sf.values[l], l.String(), "", fmt.Sprintf("%s id (\"all\" for no restriction)", l.String()))
	}
	fs.StringVar(&sf.answers, "answers", "", `answer filters as JSON ({"3":["1","2"]}) or 3=1,2;4=7`)
}

func (sf *scopeFlags) scope() (FilterScope, error) {
	var scope FilterScope
	for _, l := range Levels {
		scope.Set(l, sf.values[l])
	}
	answers, err := ParseAnswerFilters(sf.answers)
	if err != nil {
		return FilterScope{}, err
	}
	scope.AnswerFilters = answers
	return scope, nil
}
