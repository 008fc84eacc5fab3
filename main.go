// Copyright 2025 The gridsight Authors
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
	"flag"
	"fmt"
	"os"
)

func main() {
	// Define command-line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	sourcePath := flag.String("source", "", "Path to the billing spreadsheet (overrides config)")
	sheetName := flag.String("sheet", "", "Worksheet name (overrides config)")
	serve := flag.Bool("serve", false, "Run the dashboard server instead of a one-shot report")
	listenAddr := flag.String("addr", "", "Dashboard listen address (overrides config)")
	outputPath := flag.String("output", "", "Output file for report (default: stdout)")
	exportDir := flag.String("export", "", "Directory to write CSV exports into")
	property := flag.String("property", "", "Restrict to one property")
	utility := flag.String("utility", "", "Restrict to one utility type")
	year := flag.Int("year", 0, "Restrict to one billing year")
	debug := flag.Bool("debug", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.Parse()

	// Show version and exit
	if *showVersion {
		fmt.Printf("gridsight %s\n", GetVersion())
		os.Exit(0)
	}

	// Initialize logger
	logger := NewLogger(*debug)
	logger.Info("Starting gridsight", "version", GetVersion())

	// Load configuration
	logger.Info("Loading configuration", "config_file", *configPath)
	config, err := LoadConfig(*configPath)
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Override with command-line flags
	if *sourcePath != "" {
		config.SourcePath = *sourcePath
	}
	if *sheetName != "" {
		config.SheetName = *sheetName
	}
	if *listenAddr != "" {
		config.ListenAddr = *listenAddr
	}
	if *debug {
		config.Debug = true
		// Recreate logger with debug enabled
		logger = NewLogger(true)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Configuration loaded successfully")

	// Wire the pipeline
	loader := NewLoader(config, logger)
	tables := NewTableCache(loader, logger)
	adapter := NewForecastAdapter(NewAdditiveForecaster(), config, logger)

	// Dashboard mode serves until interrupted
	if *serve {
		dashboard := NewDashboard(config, tables, adapter, logger)
		if err := dashboard.Start(); err != nil {
			logger.Error("Dashboard server failed", "error", err)
			os.Exit(1)
		}
		return
	}

	// One-shot mode: parse once, report, optionally export
	logger.Info("Loading billing data", "path", config.SourcePath)
	table, err := tables.Get()
	if err != nil {
		logger.Error("Failed to load billing data", "error", err)
		os.Exit(1)
	}

	filter := Filter{
		Property: *property,
		Utility:  *utility,
		Year:     *year,
	}

	reporter := NewReporter(adapter, logger)
	if err := reporter.GenerateReport(table, filter, *outputPath); err != nil {
		logger.Error("Failed to generate report", "error", err)
		os.Exit(1)
	}

	if *exportDir != "" {
		exporter := NewExporter(logger)
		view := filter.Apply(table)

		recordsPath, err := exporter.SaveRecords(*exportDir, filter, view)
		if err != nil {
			logger.Error("Failed to export records", "error", err)
			os.Exit(1)
		}
		summaryPath, err := exporter.SaveSummary(*exportDir, filter, PortfolioSummary(view))
		if err != nil {
			logger.Error("Failed to export summary", "error", err)
			os.Exit(1)
		}
		logger.UserMessage("Exports written: %s, %s", recordsPath, summaryPath)
	}

	logger.Info("Report completed successfully")
}
