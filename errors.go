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
)

// SourceError represents a fatal problem with the billing spreadsheet:
// missing file, unreadable workbook, missing sheet or unresolvable column.
type SourceError struct {
	Path      string
	Operation string
	Err       error
}

func (e *SourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("source error during %s at %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("source error during %s at %s", e.Operation, e.Path)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// MalformedRecordError describes a single source row that could not be
// normalized. Rows carrying this condition are dropped and counted; the
// load as a whole proceeds.
type MalformedRecordError struct {
	Row    int
	Field  string
	Value  string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record at row %d: field %s (%q): %s", e.Row, e.Field, e.Value, e.Reason)
}

// InsufficientHistoryError signals that a filtered series has fewer
// observations than the forecast floor. Informational: the forecast step
// is skipped, nothing else fails.
type InsufficientHistoryError struct {
	Mode   string
	Needed int
	Got    int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("insufficient history for %s forecast: need %d observations, have %d", e.Mode, e.Needed, e.Got)
}

// ForecastError wraps a failure from the forecasting collaborator. The
// fit is deterministic so the call is never retried.
type ForecastError struct {
	Mode string
	Err  error
}

func (e *ForecastError) Error() string {
	return fmt.Sprintf("forecast failed for %s series: %v", e.Mode, e.Err)
}

func (e *ForecastError) Unwrap() error {
	return e.Err
}

// ExportError represents a CSV export failure
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error at %s: %v", e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// ValidationError represents a configuration or input validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("validation error for %s (%s): %s", e.Field, e.Value, e.Message)
	}
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error for %s: %s", e.Field, e.Message)
}
