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
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Loader reads a billing spreadsheet into a NormalizedTable
type Loader struct {
	config *Config
	logger *Logger
}

// NewLoader creates a new spreadsheet loader
func NewLoader(config *Config, logger *Logger) *Loader {
	return &Loader{
		config: config,
		logger: logger.WithComponent("loader"),
	}
}

// Load reads the configured workbook sheet and normalizes it. Rows with an
// unparseable date or non-numeric amount/usage are dropped and counted on
// the returned table; a missing file, sheet or required column is fatal.
func (l *Loader) Load() (*NormalizedTable, error) {
	return l.LoadPath(l.config.SourcePath)
}

// LoadPath reads a specific workbook path with the configured mapping
func (l *Loader) LoadPath(path string) (*NormalizedTable, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &SourceError{Path: path, Operation: "stat", Err: err}
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &SourceError{Path: path, Operation: "open", Err: err}
	}
	defer f.Close()

	rows, err := f.GetRows(l.config.SheetName)
	if err != nil {
		return nil, &SourceError{Path: path, Operation: "read_sheet", Err: err}
	}

	table, err := l.normalizeRows(rows)
	if err != nil {
		return nil, &SourceError{Path: path, Operation: "normalize", Err: err}
	}

	table.SourcePath = path
	table.SourceModTime = info.ModTime()
	table.LoadedAt = time.Now()

	l.logger.LogLoadSummary(path, len(table.Records), table.Dropped)
	return table, nil
}

// columnIndex maps canonical fields to source column positions
type columnIndex map[string]int

// resolveColumns matches the header row against the configured aliases.
// Matching is case-insensitive and whitespace-insensitive; the first alias
// that appears in the header wins.
func resolveColumns(header []string, fields FieldMap) (columnIndex, error) {
	position := make(map[string]int, len(header))
	for i, h := range header {
		position[normalizeHeader(h)] = i
	}

	idx := make(columnIndex)
	assign := func(field string, aliases []string) {
		for _, alias := range aliases {
			if pos, ok := position[normalizeHeader(alias)]; ok {
				idx[field] = pos
				return
			}
		}
	}

	assign(FieldProperty, fields.Property)
	assign(FieldCity, fields.City)
	assign(FieldState, fields.State)
	assign(FieldUtility, fields.Utility)
	assign(FieldDate, fields.Date)
	assign(FieldUsage, fields.Usage)
	assign(FieldAmount, fields.Amount)
	assign(FieldUnits, fields.Units)

	// City, state and unit count are optional; everything else must resolve
	for _, required := range []string{FieldProperty, FieldUtility, FieldDate, FieldUsage, FieldAmount} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("no header matches required field %q", required)
		}
	}

	return idx, nil
}

// normalizeHeader collapses the spelling variations that don't matter
func normalizeHeader(h string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(h))), " ")
}

// normalizeRows turns raw sheet rows into billing records with derived
// fields. The first row is the header.
func (l *Loader) normalizeRows(rows [][]string) (*NormalizedTable, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet is empty")
	}

	idx, err := resolveColumns(rows[0], l.config.Fields)
	if err != nil {
		return nil, err
	}

	table := &NormalizedTable{
		Records: make([]BillingRecord, 0, len(rows)-1),
	}

	for rowNum, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}

		rec, err := buildRecord(row, idx, rowNum+2)
		if err != nil {
			table.Dropped++
			l.logger.Debug("Dropping malformed row", "error", err)
			continue
		}

		table.Records = append(table.Records, rec)
	}

	return table, nil
}

// buildRecord normalizes one source row. Returns MalformedRecordError for
// rows that cannot be normalized.
func buildRecord(row []string, idx columnIndex, rowNum int) (BillingRecord, error) {
	cell := func(field string) string {
		pos, ok := idx[field]
		if !ok || pos >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[pos])
	}

	dateCell := cell(FieldDate)
	date, ok := parseBillingDate(dateCell)
	if !ok {
		return BillingRecord{}, &MalformedRecordError{
			Row: rowNum, Field: FieldDate, Value: dateCell, Reason: "unparseable date",
		}
	}

	usageCell := cell(FieldUsage)
	usage, ok := parseNumber(usageCell)
	if !ok {
		return BillingRecord{}, &MalformedRecordError{
			Row: rowNum, Field: FieldUsage, Value: usageCell, Reason: "non-numeric usage",
		}
	}

	amountCell := cell(FieldAmount)
	amount, ok := parseNumber(amountCell)
	if !ok {
		return BillingRecord{}, &MalformedRecordError{
			Row: rowNum, Field: FieldAmount, Value: amountCell, Reason: "non-numeric amount",
		}
	}

	// Unit count is a property attribute repeated per row; a bad cell is
	// recorded as zero rather than dropping the bill
	units, ok := parseNumber(cell(FieldUnits))
	if !ok {
		units = 0
	}

	rec := BillingRecord{
		Property: cell(FieldProperty),
		City:     cell(FieldCity),
		State:    cell(FieldState),
		Utility:  cell(FieldUtility),
		Date:     date,
		Usage:    usage,
		Amount:   amount,
		Units:    units,
		Year:     date.Year(),
		Month:    MonthOf(date),
	}

	if usage == 0 {
		rec.CostPerUnit = math.NaN()
	} else {
		rec.CostPerUnit = amount / usage
	}

	return rec, nil
}

// parseBillingDate parses a date cell. Cells come back from the workbook as
// formatted strings or as raw Excel serial numbers depending on cell style,
// so both forms are accepted.
func parseBillingDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	// Excel serial date: days since 1899-12-30
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		epoch := time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
		return epoch.AddDate(0, 0, int(serial)), true
	}

	return time.Time{}, false
}

// parseNumber parses a numeric cell, tolerating currency formatting
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// isBlankRow reports whether every cell of a row is empty
func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
