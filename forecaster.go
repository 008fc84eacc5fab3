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

// AdditiveForecaster is a deterministic additive time-series model: a
// least-squares linear trend plus periodic seasonal components computed
// from the trend residuals. Daily series use day-of-week seasonality,
// monthly series use month-of-year seasonality.
type AdditiveForecaster struct{}

// NewAdditiveForecaster creates the default forecasting collaborator
func NewAdditiveForecaster() *AdditiveForecaster {
	return &AdditiveForecaster{}
}

// Forecast fits the model on history and predicts horizon periods past
// the last observation. Requires at least two observations.
func (f *AdditiveForecaster) Forecast(history []SeriesPoint, horizon int, step PeriodStep) ([]SeriesPoint, error) {
	if len(history) < 2 {
		return nil, fmt.Errorf("need at least 2 observations to fit, have %d", len(history))
	}
	if horizon < 1 {
		return nil, fmt.Errorf("horizon must be positive, got %d", horizon)
	}

	base := history[0].Date
	ordinal := func(t time.Time) float64 {
		if step == StepMonthly {
			return float64((t.Year()-base.Year())*12 + int(t.Month()) - int(base.Month()))
		}
		return t.Sub(base).Hours() / 24
	}

	intercept, slope := fitTrend(history, ordinal)
	seasonal := fitSeasonal(history, ordinal, intercept, slope, step)

	last := history[len(history)-1].Date
	out := make([]SeriesPoint, 0, horizon)
	for i := 1; i <= horizon; i++ {
		var date time.Time
		if step == StepMonthly {
			date = time.Date(last.Year(), last.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, i, 0)
		} else {
			date = last.AddDate(0, 0, i)
		}

		value := intercept + slope*ordinal(date) + seasonal[seasonBucket(date, step)]
		out = append(out, SeriesPoint{Date: date, Value: value})
	}

	return out, nil
}

// fitTrend computes the ordinary least squares line through the series
func fitTrend(history []SeriesPoint, ordinal func(time.Time) float64) (intercept, slope float64) {
	n := float64(len(history))
	var sumT, sumY, sumTT, sumTY float64
	for _, p := range history {
		t := ordinal(p.Date)
		sumT += t
		sumY += p.Value
		sumTT += t * t
		sumTY += t * p.Value
	}

	denom := n*sumTT - sumT*sumT
	if denom == 0 {
		// All observations share one ordinal; fall back to a flat line
		return sumY / n, 0
	}

	slope = (n*sumTY - sumT*sumY) / denom
	intercept = (sumY - slope*sumT) / n
	return intercept, slope
}

// fitSeasonal averages the trend residuals per seasonal bucket. Buckets
// with no observations contribute nothing.
func fitSeasonal(history []SeriesPoint, ordinal func(time.Time) float64, intercept, slope float64, step PeriodStep) []float64 {
	buckets := 7
	if step == StepMonthly {
		buckets = 12
	}

	sums := make([]float64, buckets)
	counts := make([]int, buckets)
	for _, p := range history {
		residual := p.Value - (intercept + slope*ordinal(p.Date))
		b := seasonBucket(p.Date, step)
		sums[b] += residual
		counts[b]++
	}

	components := make([]float64, buckets)
	for b := range components {
		if counts[b] > 0 {
			components[b] = sums[b] / float64(counts[b])
		}
	}
	return components
}

// seasonBucket maps a date to its seasonal component index
func seasonBucket(t time.Time, step PeriodStep) int {
	if step == StepMonthly {
		return int(t.Month()) - 1
	}
	return int(t.Weekday())
}
