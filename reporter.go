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
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
)

// Reporter generates markdown reports from the aggregation pipeline
type Reporter struct {
	adapter *ForecastAdapter
	logger  *Logger
}

// NewReporter creates a new report generator
func NewReporter(adapter *ForecastAdapter, logger *Logger) *Reporter {
	return &Reporter{
		adapter: adapter,
		logger:  logger.WithComponent("reporter"),
	}
}

// GenerateReport writes a markdown report for one filter selection. An
// empty outputPath writes to stdout.
func (r *Reporter) GenerateReport(table *NormalizedTable, filter Filter, outputPath string) error {
	r.logger.Info("Generating report", "filter", filter.Key())

	var writer io.Writer
	if outputPath == "" {
		writer = os.Stdout
	} else {
		file, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer file.Close()
		writer = file
	}

	view := filter.Apply(table)
	r.logger.LogFilterApplied(filter, view.Len())

	r.writeHeader(writer, table, filter)
	r.writeOverview(writer, table)
	r.writeMetrics(writer, view)
	r.writeTrend(writer, view)
	r.writeSummary(writer, view)
	// Ranking spans the whole portfolio regardless of the selection
	r.writeRanking(writer, Filter{}.Apply(table))
	r.writeForecast(writer, view)
	r.writeFooter(writer)

	if outputPath != "" {
		r.logger.Info("Report saved", "path", outputPath)
	}

	return nil
}

// writeHeader writes the report header
func (r *Reporter) writeHeader(w io.Writer, table *NormalizedTable, filter Filter) {
	fmt.Fprintf(w, "# Portfolio Utility Report\n\n")
	fmt.Fprintf(w, "**Generated:** %s\n\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "**Source:** %s\n\n", table.SourcePath)
	if last := table.LastUpdated(); !last.IsZero() {
		fmt.Fprintf(w, "**Last Updated:** %s\n\n", last.Format("2006-01-02"))
	}
	if !filter.IsAll() {
		fmt.Fprintf(w, "**Selection:** %s\n\n", filter.Key())
	}
	fmt.Fprintf(w, "**gridsight version:** %s\n\n", GetVersion())
	fmt.Fprintf(w, "---\n\n")
}

// writeOverview writes the portfolio-wide counters
func (r *Reporter) writeOverview(w io.Writer, table *NormalizedTable) {
	fmt.Fprintf(w, "## Portfolio Overview\n\n")
	fmt.Fprintf(w, "| Metric | Value |\n")
	fmt.Fprintf(w, "|--------|-------|\n")
	fmt.Fprintf(w, "| Total Properties | %d |\n", len(Properties(table)))
	fmt.Fprintf(w, "| Total Utilities | %d |\n", len(Utilities(table)))
	fmt.Fprintf(w, "| Years of History | %d |\n", len(Years(table)))
	fmt.Fprintf(w, "| Billing Records | %s |\n", humanize.Comma(int64(len(table.Records))))
	if table.Dropped > 0 {
		fmt.Fprintf(w, "| Rows Dropped at Load | %d |\n", table.Dropped)
	}
	fmt.Fprintf(w, "\n")
}

// writeMetrics writes the headline metrics for the selection
func (r *Reporter) writeMetrics(w io.Writer, view *View) {
	metrics := HeadlineMetrics(view)

	fmt.Fprintf(w, "## Selection Metrics\n\n")
	if view.Len() == 0 {
		fmt.Fprintf(w, "*No records match the current selection.*\n\n")
		return
	}

	fmt.Fprintf(w, "| Metric | Value |\n")
	fmt.Fprintf(w, "|--------|-------|\n")
	fmt.Fprintf(w, "| Total Spend | %s |\n", FormatCurrency(metrics.TotalSpend))
	fmt.Fprintf(w, "| Total Usage | %s |\n", humanize.CommafWithDigits(metrics.TotalUsage, 0))
	if metrics.MeanCostPerUnit != nil {
		fmt.Fprintf(w, "| Avg Cost/Unit | %s |\n", FormatCurrency(*metrics.MeanCostPerUnit))
	} else {
		fmt.Fprintf(w, "| Avg Cost/Unit | n/a |\n")
	}
	fmt.Fprintf(w, "| Bills | %s |\n", humanize.Comma(int64(metrics.Bills)))
	fmt.Fprintf(w, "\n")
}

// writeTrend writes the monthly cost/usage trend table
func (r *Reporter) writeTrend(w io.Writer, view *View) {
	trend := MonthlyTrend(view)
	if len(trend) == 0 {
		return
	}

	fmt.Fprintf(w, "## Monthly Trend\n\n")
	fmt.Fprintf(w, "| Year | Month | Spend | Usage |\n")
	fmt.Fprintf(w, "|------|-------|-------|-------|\n")
	for _, row := range trend {
		fmt.Fprintf(w, "| %d | %s | %s | %s |\n",
			row.Year,
			row.Month,
			FormatCurrency(row.SumAmount),
			humanize.CommafWithDigits(row.SumUsage, 0),
		)
	}
	fmt.Fprintf(w, "\n")
}

// writeSummary writes the per-property/utility portfolio summary
func (r *Reporter) writeSummary(w io.Writer, view *View) {
	summary := PortfolioSummary(view)
	if len(summary) == 0 {
		return
	}

	fmt.Fprintf(w, "## Portfolio Summary\n\n")
	fmt.Fprintf(w, "| Property | Utility | Total Spend | Total Usage | Avg Bill | Avg Cost/Unit | Bills |\n")
	fmt.Fprintf(w, "|----------|---------|-------------|-------------|----------|---------------|-------|\n")
	for _, row := range summary {
		mean := "n/a"
		if row.MeanCostPerUnit != nil {
			mean = FormatCurrency(*row.MeanCostPerUnit)
		}
		fmt.Fprintf(w, "| %s | %s | %s | %s | %s | %s | %d |\n",
			row.Property,
			row.Utility,
			FormatCurrency(row.SumAmount),
			humanize.CommafWithDigits(row.SumUsage, 0),
			FormatCurrency(row.MeanAmount),
			mean,
			row.Bills,
		)
	}
	fmt.Fprintf(w, "\n")

	rollup := PropertyRollup(summary)
	if len(rollup) > 1 {
		fmt.Fprintf(w, "### Property Totals\n\n")
		fmt.Fprintf(w, "| Property | Total Spend | Total Usage | Utilities |\n")
		fmt.Fprintf(w, "|----------|-------------|-------------|-----------|\n")
		for _, t := range rollup {
			fmt.Fprintf(w, "| %s | %s | %s | %d |\n",
				t.Property,
				FormatCurrency(t.SumAmount),
				humanize.CommafWithDigits(t.SumUsage, 0),
				t.Utilities,
			)
		}
		fmt.Fprintf(w, "\n")
	}
}

// writeRanking writes the property cost ranking
func (r *Reporter) writeRanking(w io.Writer, view *View) {
	ranking := PropertyRanking(view)
	if len(ranking) < 2 {
		return
	}

	fmt.Fprintf(w, "## Spend by Property\n\n")
	fmt.Fprintf(w, "| Rank | Property | Total Spend |\n")
	fmt.Fprintf(w, "|------|----------|-------------|\n")
	for i, row := range ranking {
		fmt.Fprintf(w, "| %d | %s | %s |\n", i+1, row.Property, FormatCurrency(row.SumAmount))
	}
	fmt.Fprintf(w, "\n")
}

// writeForecast writes the daily cost forecast section. Insufficient
// history is reported as a message, not an error.
func (r *Reporter) writeForecast(w io.Writer, view *View) {
	fmt.Fprintf(w, "## Cost Forecast\n\n")

	points, err := r.adapter.DailyForecast(view, MetricCost)
	if err != nil {
		var insufficient *InsufficientHistoryError
		if errors.As(err, &insufficient) {
			fmt.Fprintf(w, "*Not enough history for forecasting (%d observations, %d required).*\n\n",
				insufficient.Got, insufficient.Needed)
			return
		}
		fmt.Fprintf(w, "*Forecast unavailable: %v*\n\n", err)
		return
	}

	var predictedTotal float64
	var horizon int
	var lastPredicted *ForecastPoint
	for i := range points {
		p := &points[i]
		if p.Predicted != nil && p.Actual == nil {
			predictedTotal += *p.Predicted
			horizon++
			lastPredicted = p
		}
	}

	fmt.Fprintf(w, "Projected spend over the next %d days: **%s**\n\n", horizon, FormatCurrency(predictedTotal))
	if lastPredicted != nil {
		fmt.Fprintf(w, "Forecast extends through %s.\n\n", lastPredicted.Date.Format("2006-01-02"))
	}
}

// writeFooter writes the report footer
func (r *Reporter) writeFooter(w io.Writer) {
	fmt.Fprintf(w, "---\n\n")
	fmt.Fprintf(w, "*Report generated by gridsight %s*\n", GetVersion())
}

// FormatCurrency formats a value as currency
func FormatCurrency(value float64) string {
	return fmt.Sprintf("$%s", humanize.CommafWithDigits(value, 2))
}

// FormatPercentage formats a ratio as a percentage
func FormatPercentage(value float64) string {
	return fmt.Sprintf("%.1f%%", value*100)
}
