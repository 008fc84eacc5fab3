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
	"math"
	"sort"
)

// Aggregation semantics shared by everything below: sums over an empty
// group are 0, means over an empty group are nil (missing), and NaN
// cost-per-unit values are excluded from both the numerator and the
// denominator of means. All functions are pure: identical views produce
// identical output, so results may be memoized per filter key.

// HeadlineMetrics computes the headline numbers for a selection
func HeadlineMetrics(v *View) Metrics {
	m := Metrics{Bills: v.Len()}

	cpuSum := 0.0
	cpuCount := 0
	for i := 0; i < v.Len(); i++ {
		r := v.At(i)
		m.TotalSpend += r.Amount
		m.TotalUsage += r.Usage
		if !math.IsNaN(r.CostPerUnit) {
			cpuSum += r.CostPerUnit
			cpuCount++
		}
	}

	if cpuCount > 0 {
		mean := cpuSum / float64(cpuCount)
		m.MeanCostPerUnit = &mean
	}

	return m
}

// MonthlyTrend groups a view by (Year, Month) and sums amount and usage,
// sorted by year then month ordinal
func MonthlyTrend(v *View) []TrendRow {
	type key struct {
		year  int
		month Month
	}

	groups := make(map[key]*TrendRow)
	for i := 0; i < v.Len(); i++ {
		r := v.At(i)
		k := key{r.Year, r.Month}
		row, ok := groups[k]
		if !ok {
			row = &TrendRow{Year: r.Year, Month: r.Month}
			groups[k] = row
		}
		row.SumAmount += r.Amount
		row.SumUsage += r.Usage
	}

	rows := make([]TrendRow, 0, len(groups))
	for _, row := range groups {
		rows = append(rows, *row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Year != rows[j].Year {
			return rows[i].Year < rows[j].Year
		}
		return rows[i].Month < rows[j].Month
	})

	return rows
}

// YearOverYear pivots monthly usage from long form (one row per
// Year x Month) to wide form: twelve month rows, one column per year.
// Cells with no data stay nil. With fewer than two years present the
// comparison degrades gracefully and InsufficientYears is set.
func YearOverYear(v *View) *YoYPivot {
	type key struct {
		year  int
		month Month
	}

	sums := make(map[key]float64)
	yearSet := make(map[int]bool)
	for i := 0; i < v.Len(); i++ {
		r := v.At(i)
		sums[key{r.Year, r.Month}] += r.Usage
		yearSet[r.Year] = true
	}

	pivot := &YoYPivot{}
	for y := range yearSet {
		pivot.Years = append(pivot.Years, y)
	}
	sort.Ints(pivot.Years)
	pivot.InsufficientYears = len(pivot.Years) < 2

	for m := Jan; m <= Dec; m++ {
		cells := make([]*float64, len(pivot.Years))
		for col, y := range pivot.Years {
			if sum, ok := sums[key{y, m}]; ok {
				value := sum
				cells[col] = &value
			}
		}
		pivot.Usage[m] = cells
	}

	return pivot
}

// PortfolioSummary groups a view by (Property, Utility), sorted by
// property then utility
func PortfolioSummary(v *View) []SummaryRow {
	type key struct {
		property string
		utility  string
	}
	type acc struct {
		sumAmount float64
		sumUsage  float64
		cpuSum    float64
		cpuCount  int
		bills     int
	}

	groups := make(map[key]*acc)
	for i := 0; i < v.Len(); i++ {
		r := v.At(i)
		k := key{r.Property, r.Utility}
		a, ok := groups[k]
		if !ok {
			a = &acc{}
			groups[k] = a
		}
		a.sumAmount += r.Amount
		a.sumUsage += r.Usage
		a.bills++
		if !math.IsNaN(r.CostPerUnit) {
			a.cpuSum += r.CostPerUnit
			a.cpuCount++
		}
	}

	rows := make([]SummaryRow, 0, len(groups))
	for k, a := range groups {
		row := SummaryRow{
			Property:   k.property,
			Utility:    k.utility,
			SumAmount:  a.sumAmount,
			SumUsage:   a.sumUsage,
			MeanAmount: a.sumAmount / float64(a.bills),
			Bills:      a.bills,
		}
		if a.cpuCount > 0 {
			mean := a.cpuSum / float64(a.cpuCount)
			row.MeanCostPerUnit = &mean
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Property != rows[j].Property {
			return rows[i].Property < rows[j].Property
		}
		return rows[i].Utility < rows[j].Utility
	})

	return rows
}

// PropertyRollup totals the portfolio summary per property. It sums the
// already-aggregated per-(Property, Utility) sums rather than re-scanning
// raw records.
func PropertyRollup(summary []SummaryRow) []PropertyTotal {
	totals := make(map[string]*PropertyTotal)
	for _, row := range summary {
		t, ok := totals[row.Property]
		if !ok {
			t = &PropertyTotal{Property: row.Property}
			totals[row.Property] = t
		}
		t.SumAmount += row.SumAmount
		t.SumUsage += row.SumUsage
		t.Utilities++
	}

	rows := make([]PropertyTotal, 0, len(totals))
	for _, t := range totals {
		rows = append(rows, *t)
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Property < rows[j].Property
	})

	return rows
}

// PropertyRanking sums amount per property, sorted descending by total,
// ties broken by property name ascending
func PropertyRanking(v *View) []RankRow {
	sums := make(map[string]float64)
	for i := 0; i < v.Len(); i++ {
		r := v.At(i)
		sums[r.Property] += r.Amount
	}

	rows := make([]RankRow, 0, len(sums))
	for property, sum := range sums {
		rows = append(rows, RankRow{Property: property, SumAmount: sum})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].SumAmount != rows[j].SumAmount {
			return rows[i].SumAmount > rows[j].SumAmount
		}
		return rows[i].Property < rows[j].Property
	})

	return rows
}

// UtilityMix sums amount per utility and derives each utility's share of
// the selection total, sorted descending by amount
func UtilityMix(v *View) []MixRow {
	sums := make(map[string]float64)
	total := 0.0
	for i := 0; i < v.Len(); i++ {
		r := v.At(i)
		sums[r.Utility] += r.Amount
		total += r.Amount
	}

	rows := make([]MixRow, 0, len(sums))
	for utility, sum := range sums {
		row := MixRow{Utility: utility, SumAmount: sum}
		if total != 0 {
			row.Share = sum / total
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].SumAmount != rows[j].SumAmount {
			return rows[i].SumAmount > rows[j].SumAmount
		}
		return rows[i].Utility < rows[j].Utility
	})

	return rows
}
