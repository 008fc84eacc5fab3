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
	"sort"
	"time"
)

// SeriesMetric selects which record value a forecast series observes
type SeriesMetric int

// Series metrics
const (
	MetricCost SeriesMetric = iota
	MetricUsage
)

func (m SeriesMetric) String() string {
	if m == MetricUsage {
		return "usage"
	}
	return "cost"
}

// PeriodStep is the spacing of a forecast series
type PeriodStep int

// Period steps
const (
	StepDaily PeriodStep = iota
	StepMonthly
)

func (s PeriodStep) String() string {
	if s == StepMonthly {
		return "monthly"
	}
	return "daily"
}

// Forecaster is the external forecasting collaborator. Given an observed
// series and a horizon it returns predicted values for the periods after
// the last observation. Treated as a black box; its only contract here is
// determinism and a minimum of two observations.
type Forecaster interface {
	Forecast(history []SeriesPoint, horizon int, step PeriodStep) ([]SeriesPoint, error)
}

// ForecastAdapter shapes aggregates into collaborator input and joins the
// predictions back onto history for charting
type ForecastAdapter struct {
	forecaster   Forecaster
	logger       *Logger
	dailyFloor   int
	monthlyFloor int
	dailyHorizon int
	minHorizon   int
	maxHorizon   int
}

// NewForecastAdapter creates a forecast adapter around a collaborator
func NewForecastAdapter(forecaster Forecaster, config *Config, logger *Logger) *ForecastAdapter {
	return &ForecastAdapter{
		forecaster:   forecaster,
		logger:       logger.WithComponent("forecast"),
		dailyFloor:   config.DailyFloor,
		monthlyFloor: config.MonthlyFloor,
		dailyHorizon: config.DailyHorizon,
		minHorizon:   config.MinMonthlyHorizon,
		maxHorizon:   config.MaxMonthlyHorizon,
	}
}

// DailySeries collapses a view to one summed value per calendar day,
// strictly ascending, no duplicate dates
func DailySeries(v *View, metric SeriesMetric) []SeriesPoint {
	return collapseSeries(v, metric, func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	})
}

// MonthlySeries collapses a view to one summed value per first-of-month
func MonthlySeries(v *View, metric SeriesMetric) []SeriesPoint {
	return collapseSeries(v, metric, func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	})
}

// collapseSeries sums records per truncated period and sorts ascending.
// Duplicate source dates are summed here, never passed through.
func collapseSeries(v *View, metric SeriesMetric, truncate func(time.Time) time.Time) []SeriesPoint {
	sums := make(map[time.Time]float64)
	for i := 0; i < v.Len(); i++ {
		r := v.At(i)
		value := r.Amount
		if metric == MetricUsage {
			value = r.Usage
		}
		sums[truncate(r.Date)] += value
	}

	points := make([]SeriesPoint, 0, len(sums))
	for date, value := range sums {
		points = append(points, SeriesPoint{Date: date, Value: value})
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})

	return points
}

// DailyForecast runs the fixed-horizon daily forecast for a selection.
// Below the floor it returns InsufficientHistoryError without invoking
// the collaborator.
func (fa *ForecastAdapter) DailyForecast(v *View, metric SeriesMetric) ([]ForecastPoint, error) {
	history := DailySeries(v, metric)
	if len(history) < fa.dailyFloor {
		fa.logger.LogForecastSkipped("daily", fa.dailyFloor, len(history))
		return nil, &InsufficientHistoryError{Mode: "daily", Needed: fa.dailyFloor, Got: len(history)}
	}

	fa.logger.LogForecastStage("daily", len(history), fa.dailyHorizon)
	predicted, err := fa.forecaster.Forecast(history, fa.dailyHorizon, StepDaily)
	if err != nil {
		return nil, &ForecastError{Mode: "daily", Err: err}
	}

	return Reconcile(history, predicted), nil
}

// MonthlyForecast runs the operator-horizon monthly forecast. The horizon
// is clamped to the configured bounds; the floor check mirrors the daily
// path with the stricter monthly floor.
func (fa *ForecastAdapter) MonthlyForecast(v *View, metric SeriesMetric, horizon int) ([]ForecastPoint, error) {
	horizon = fa.ClampHorizon(horizon)

	history := MonthlySeries(v, metric)
	if len(history) < fa.monthlyFloor {
		fa.logger.LogForecastSkipped("monthly", fa.monthlyFloor, len(history))
		return nil, &InsufficientHistoryError{Mode: "monthly", Needed: fa.monthlyFloor, Got: len(history)}
	}

	fa.logger.LogForecastStage("monthly", len(history), horizon)
	predicted, err := fa.forecaster.Forecast(history, horizon, StepMonthly)
	if err != nil {
		return nil, &ForecastError{Mode: "monthly", Err: err}
	}

	return Reconcile(history, predicted), nil
}

// ClampHorizon bounds an operator-supplied monthly horizon
func (fa *ForecastAdapter) ClampHorizon(horizon int) int {
	if horizon < fa.minHorizon {
		return fa.minHorizon
	}
	if horizon > fa.maxHorizon {
		return fa.maxHorizon
	}
	return horizon
}

// Reconcile outer-joins predictions onto history by date: dates with only
// an actual keep a nil prediction, future dates keep a nil actual. The
// merged series is sorted ascending.
func Reconcile(actual, predicted []SeriesPoint) []ForecastPoint {
	merged := make(map[time.Time]*ForecastPoint)

	point := func(date time.Time) *ForecastPoint {
		p, ok := merged[date]
		if !ok {
			p = &ForecastPoint{Date: date}
			merged[date] = p
		}
		return p
	}

	for _, a := range actual {
		value := a.Value
		point(a.Date).Actual = &value
	}
	for _, pr := range predicted {
		value := pr.Value
		point(pr.Date).Predicted = &value
	}

	out := make([]ForecastPoint, 0, len(merged))
	for _, p := range merged {
		out = append(out, *p)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})

	return out
}
