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
	"time"
)

// Month is a calendar month as an ordered categorical: Jan=0 .. Dec=11.
// Grouping and sorting by month always uses this ordinal, never the label,
// so month sequences come out in calendar order rather than alphabetic.
type Month int

// Month ordinals
const (
	Jan Month = iota
	Feb
	Mar
	Apr
	May
	Jun
	Jul
	Aug
	Sep
	Oct
	Nov
	Dec
)

// monthAbbrevs holds the fixed three-letter labels in calendar order
var monthAbbrevs = [12]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

func (m Month) String() string {
	if m < Jan || m > Dec {
		return fmt.Sprintf("Month(%d)", int(m))
	}
	return monthAbbrevs[m]
}

// MarshalJSON renders the month as its three-letter label
func (m Month) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// MonthOf maps a calendar date to its ordinal month
func MonthOf(t time.Time) Month {
	return Month(int(t.Month()) - 1)
}

// ParseMonth resolves a three-letter label to its ordinal
func ParseMonth(s string) (Month, bool) {
	for i, abbrev := range monthAbbrevs {
		if abbrev == s {
			return Month(i), true
		}
	}
	return 0, false
}

// BillingRecord is one row of utility usage/cost data for a property-period.
// Year, Month and CostPerUnit are derived once at load time and immutable
// afterwards. CostPerUnit is NaN when usage is zero.
type BillingRecord struct {
	Property string
	City     string
	State    string
	Utility  string
	Date     time.Time
	Usage    float64
	Amount   float64
	Units    float64

	Year        int
	Month       Month
	CostPerUnit float64
}

// NormalizedTable is the full dataset after date parsing and derived-field
// computation. Built once per load and treated as read-only by every
// consumer. Dropped counts the source rows rejected during normalization.
type NormalizedTable struct {
	Records []BillingRecord
	Dropped int

	SourcePath    string
	SourceModTime time.Time
	LoadedAt      time.Time
}

// LastUpdated returns the most recent billing date in the table
func (t *NormalizedTable) LastUpdated() time.Time {
	var max time.Time
	for i := range t.Records {
		if t.Records[i].Date.After(max) {
			max = t.Records[i].Date
		}
	}
	return max
}

// View is a read-only subset of a NormalizedTable selected by a Filter.
// It holds indices into the table rather than copies; the table is never
// mutated through a view.
type View struct {
	table *NormalizedTable
	idx   []int
}

// Len returns the number of records in the view
func (v *View) Len() int {
	return len(v.idx)
}

// At returns the i-th record of the view
func (v *View) At(i int) *BillingRecord {
	return &v.table.Records[v.idx[i]]
}

// TrendRow is one (Year, Month) aggregate for trend charts
type TrendRow struct {
	Year      int     `json:"year"`
	Month     Month   `json:"month"`
	SumAmount float64 `json:"sum_amount"`
	SumUsage  float64 `json:"sum_usage"`
}

// YoYPivot is the year-over-year comparison: one row per calendar month,
// one usage column per year. Missing cells are nil, not zero, so charts
// omit them instead of plotting zero.
type YoYPivot struct {
	Years             []int          `json:"years"`
	Usage             [12][]*float64 `json:"usage"`
	InsufficientYears bool           `json:"insufficient_years"`
}

// SummaryRow is one (Property, Utility) aggregate of the portfolio summary.
// MeanCostPerUnit is nil when no record in the group has a finite
// cost-per-unit.
type SummaryRow struct {
	Property        string   `json:"property"`
	Utility         string   `json:"utility"`
	SumAmount       float64  `json:"sum_amount"`
	SumUsage        float64  `json:"sum_usage"`
	MeanAmount      float64  `json:"mean_amount"`
	MeanCostPerUnit *float64 `json:"mean_cost_per_unit"`
	Bills           int      `json:"bills"`
}

// PropertyTotal is the per-property roll-up of the portfolio summary,
// computed from the pre-aggregated per-(Property, Utility) sums
type PropertyTotal struct {
	Property  string  `json:"property"`
	SumAmount float64 `json:"sum_amount"`
	SumUsage  float64 `json:"sum_usage"`
	Utilities int     `json:"utilities"`
}

// RankRow is one entry of the property cost ranking
type RankRow struct {
	Property  string  `json:"property"`
	SumAmount float64 `json:"sum_amount"`
}

// MixRow is one entry of the utility cost mix
type MixRow struct {
	Utility   string  `json:"utility"`
	SumAmount float64 `json:"sum_amount"`
	Share     float64 `json:"share"`
}

// Metrics are the headline numbers for the current selection.
// MeanCostPerUnit is nil on an empty selection.
type Metrics struct {
	TotalSpend      float64  `json:"total_spend"`
	TotalUsage      float64  `json:"total_usage"`
	MeanCostPerUnit *float64 `json:"mean_cost_per_unit"`
	Bills           int      `json:"bills"`
}

// Overview are the portfolio-wide landing metrics, independent of filters
type Overview struct {
	Properties  int       `json:"properties"`
	Utilities   int       `json:"utilities"`
	Years       int       `json:"years"`
	Records     int       `json:"records"`
	Dropped     int       `json:"dropped"`
	LastUpdated time.Time `json:"last_updated"`
}

// SeriesPoint is one (date, observed value) pair of a forecast input series
type SeriesPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// ForecastPoint is one date of the reconciled history+prediction series.
// Actual is nil for future dates, Predicted is nil for historical dates
// the model was not asked to cover.
type ForecastPoint struct {
	Date      time.Time `json:"date"`
	Actual    *float64  `json:"actual"`
	Predicted *float64  `json:"predicted"`
}

// MapMarker is one property placed on the portfolio map. Only properties
// whose (city, state) resolve in the static lookup are emitted.
type MapMarker struct {
	Property  string  `json:"property"`
	City      string  `json:"city"`
	State     string  `json:"state"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	SumAmount float64 `json:"sum_amount"`
}
