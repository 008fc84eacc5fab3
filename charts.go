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
	"sort"

	charts "github.com/vicanso/go-charts/v2"
)

// ChartGenerator renders aggregate shapes as PNG charts
type ChartGenerator struct {
	theme string
}

// NewChartGenerator creates a new chart generator
func NewChartGenerator() *ChartGenerator {
	return &ChartGenerator{
		theme: "light",
	}
}

// MonthlyTrendChart renders a monthly trend as one line per year across
// the fixed Jan..Dec axis. Months with no data become nulls so the line
// breaks instead of dipping to zero.
func (cg *ChartGenerator) MonthlyTrendChart(trend []TrendRow, metric SeriesMetric, title string) ([]byte, error) {
	if len(trend) == 0 {
		return nil, fmt.Errorf("no data for %s trend chart", metric)
	}

	var years []int
	seen := make(map[int]bool)
	for _, row := range trend {
		if !seen[row.Year] {
			seen[row.Year] = true
			years = append(years, row.Year)
		}
	}
	sort.Ints(years)

	null := charts.GetNullValue()
	values := make([][]float64, len(years))
	legend := make([]string, len(years))
	yearCol := make(map[int]int, len(years))
	for i, y := range years {
		series := make([]float64, 12)
		for m := range series {
			series[m] = null
		}
		values[i] = series
		legend[i] = fmt.Sprintf("%d", y)
		yearCol[y] = i
	}

	for _, row := range trend {
		value := row.SumAmount
		if metric == MetricUsage {
			value = row.SumUsage
		}
		values[yearCol[row.Year]][row.Month] = value
	}

	p, err := charts.LineRender(
		values,
		charts.TitleTextOptionFunc(title),
		charts.XAxisDataOptionFunc(monthAbbrevs[:]),
		charts.LegendLabelsOptionFunc(legend, charts.PositionRight),
		charts.ThemeOptionFunc(cg.theme),
		charts.WidthOptionFunc(1200),
		charts.HeightOptionFunc(400),
		charts.PaddingOptionFunc(charts.Box{
			Top:    20,
			Right:  20,
			Bottom: 20,
			Left:   20,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render trend chart: %w", err)
	}

	return p.Bytes()
}

// RankingChart renders the property cost ranking as a bar chart
func (cg *ChartGenerator) RankingChart(ranking []RankRow) ([]byte, error) {
	if len(ranking) == 0 {
		return nil, fmt.Errorf("no data for ranking chart")
	}

	labels := make([]string, len(ranking))
	values := make([]float64, len(ranking))
	for i, row := range ranking {
		labels[i] = row.Property
		values[i] = row.SumAmount
	}

	p, err := charts.BarRender(
		[][]float64{values},
		charts.TitleTextOptionFunc("Spend by Property"),
		charts.XAxisDataOptionFunc(labels),
		charts.ThemeOptionFunc(cg.theme),
		charts.WidthOptionFunc(1200),
		charts.HeightOptionFunc(450),
		charts.PaddingOptionFunc(charts.Box{
			Top:    20,
			Right:  20,
			Bottom: 20,
			Left:   20,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render ranking chart: %w", err)
	}

	return p.Bytes()
}

// MixChart renders the utility cost mix as a pie chart
func (cg *ChartGenerator) MixChart(mix []MixRow) ([]byte, error) {
	if len(mix) == 0 {
		return nil, fmt.Errorf("no data for mix chart")
	}

	labels := make([]string, len(mix))
	values := make([]float64, len(mix))
	for i, row := range mix {
		labels[i] = row.Utility
		values[i] = row.SumAmount
	}

	p, err := charts.PieRender(
		values,
		charts.TitleTextOptionFunc("Utility Cost Mix"),
		charts.LegendLabelsOptionFunc(labels, charts.PositionRight),
		charts.ThemeOptionFunc(cg.theme),
		charts.WidthOptionFunc(800),
		charts.HeightOptionFunc(450),
		charts.PaddingOptionFunc(charts.Box{
			Top:    20,
			Right:  20,
			Bottom: 20,
			Left:   20,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render mix chart: %w", err)
	}

	return p.Bytes()
}

// ForecastChart renders a reconciled series as actual and predicted
// lines sharing one date axis; nil cells become nulls
func (cg *ChartGenerator) ForecastChart(points []ForecastPoint, title string) ([]byte, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("no data for forecast chart")
	}

	null := charts.GetNullValue()
	labels := make([]string, len(points))
	actual := make([]float64, len(points))
	predicted := make([]float64, len(points))

	for i, p := range points {
		labels[i] = p.Date.Format("2006-01-02")
		actual[i] = null
		predicted[i] = null
		if p.Actual != nil {
			actual[i] = *p.Actual
		}
		if p.Predicted != nil {
			predicted[i] = *p.Predicted
		}
	}

	p, err := charts.LineRender(
		[][]float64{actual, predicted},
		charts.TitleTextOptionFunc(title),
		charts.XAxisDataOptionFunc(labels),
		charts.LegendLabelsOptionFunc([]string{"Actual", "Predicted"}, charts.PositionRight),
		charts.ThemeOptionFunc(cg.theme),
		charts.WidthOptionFunc(1200),
		charts.HeightOptionFunc(400),
		charts.PaddingOptionFunc(charts.Box{
			Top:    20,
			Right:  20,
			Bottom: 20,
			Left:   20,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render forecast chart: %w", err)
	}

	return p.Bytes()
}
