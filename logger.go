// Copyright 2025 The gridsight Authors
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
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with domain-specific methods
type Logger struct {
	*slog.Logger
}

// NewLogger creates a text-formatted logger
func NewLogger(debug bool) *Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewTextHandler(os.Stderr, opts)
	return &Logger{slog.New(handler)}
}

// NewJSONLogger creates a JSON-formatted logger
func NewJSONLogger(debug bool) *Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewJSONHandler(os.Stderr, opts)
	return &Logger{slog.New(handler)}
}

// WithComponent adds a component field to the logger
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{l.With("component", component)}
}

// LogLoadSummary logs the outcome of a spreadsheet load
func (l *Logger) LogLoadSummary(path string, records, dropped int) {
	l.Info("Spreadsheet loaded",
		"path", path,
		"records", records,
		"dropped", dropped,
	)
	if dropped > 0 {
		l.Warn("Rows dropped during load",
			"path", path,
			"dropped", dropped,
		)
	}
}

// LogFilterApplied logs a filter application and its selectivity
func (l *Logger) LogFilterApplied(f Filter, matched int) {
	l.Debug("Filter applied",
		"filter", f.Key(),
		"matched", matched,
	)
}

// LogForecastStage logs a forecast invocation
func (l *Logger) LogForecastStage(mode string, observations, horizon int) {
	l.Info("Running forecast",
		"mode", mode,
		"observations", observations,
		"horizon", horizon,
	)
}

// LogForecastSkipped logs a forecast skipped for lack of history
func (l *Logger) LogForecastSkipped(mode string, needed, got int) {
	l.Info("Forecast skipped",
		"mode", mode,
		"needed", needed,
		"observations", got,
	)
}

// LogExport logs a CSV export
func (l *Logger) LogExport(name string, rows int) {
	l.Info("Export written",
		"name", name,
		"rows", rows,
	)
}

// UserMessage outputs a message directly to stdout (bypassing structured logging)
func (l *Logger) UserMessage(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
}
