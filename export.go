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
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
)

// Exporter writes filtered record sets and the portfolio summary as CSV
type Exporter struct {
	logger *Logger
}

// NewExporter creates a CSV exporter
func NewExporter(logger *Logger) *Exporter {
	return &Exporter{logger: logger.WithComponent("export")}
}

// RecordsFilename names a record export after the active filter, e.g.
// records_riverbend-lofts_electric_2024.csv or records_all.csv
func RecordsFilename(f Filter) string {
	return fmt.Sprintf("records_%s.csv", f.Key())
}

// SummaryFilename names a summary export after the active filter
func SummaryFilename(f Filter) string {
	return fmt.Sprintf("summary_%s.csv", f.Key())
}

// WriteRecords writes the records of a view as CSV
func (e *Exporter) WriteRecords(w io.Writer, v *View) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"property", "city", "state", "utility", "billing_date", "usage", "amount", "unit_count", "year", "month", "cost_per_unit"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for i := 0; i < v.Len(); i++ {
		r := v.At(i)
		row := []string{
			r.Property,
			r.City,
			r.State,
			r.Utility,
			r.Date.Format("2006-01-02"),
			formatFloat(r.Usage),
			formatFloat(r.Amount),
			formatFloat(r.Units),
			strconv.Itoa(r.Year),
			r.Month.String(),
			formatOptional(r.CostPerUnit),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteSummary writes portfolio summary rows as CSV. Missing means come
// out as empty cells, not zeros.
func (e *Exporter) WriteSummary(w io.Writer, summary []SummaryRow) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"property", "utility", "sum_amount", "sum_usage", "mean_amount", "mean_cost_per_unit", "bills"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, row := range summary {
		mean := ""
		if row.MeanCostPerUnit != nil {
			mean = formatFloat(*row.MeanCostPerUnit)
		}
		record := []string{
			row.Property,
			row.Utility,
			formatFloat(row.SumAmount),
			formatFloat(row.SumUsage),
			formatFloat(row.MeanAmount),
			mean,
			strconv.Itoa(row.Bills),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// SaveRecords writes a record export into a directory, named after the
// filter
func (e *Exporter) SaveRecords(dir string, f Filter, v *View) (string, error) {
	path := filepath.Join(dir, RecordsFilename(f))
	if err := e.saveCSV(path, func(w io.Writer) error {
		return e.WriteRecords(w, v)
	}); err != nil {
		return "", err
	}
	e.logger.LogExport(path, v.Len())
	return path, nil
}

// SaveSummary writes a summary export into a directory, named after the
// filter
func (e *Exporter) SaveSummary(dir string, f Filter, summary []SummaryRow) (string, error) {
	path := filepath.Join(dir, SummaryFilename(f))
	if err := e.saveCSV(path, func(w io.Writer) error {
		return e.WriteSummary(w, summary)
	}); err != nil {
		return "", err
	}
	e.logger.LogExport(path, len(summary))
	return path, nil
}

func (e *Exporter) saveCSV(path string, write func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return &ExportError{Path: path, Err: err}
	}
	defer file.Close()

	if err := write(file); err != nil {
		return &ExportError{Path: path, Err: err}
	}
	return nil
}

// formatFloat renders a value without trailing zero noise
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatOptional renders NaN as an empty cell
func formatOptional(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return formatFloat(v)
}
