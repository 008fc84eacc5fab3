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
	"reflect"
	"testing"
	"time"
)

// fakeForecaster records invocations and echoes a flat prediction
type fakeForecaster struct {
	calls   int
	lastLen int
	horizon int
	step    PeriodStep
	err     error
}

func (f *fakeForecaster) Forecast(history []SeriesPoint, horizon int, step PeriodStep) ([]SeriesPoint, error) {
	f.calls++
	f.lastLen = len(history)
	f.horizon = horizon
	f.step = step
	if f.err != nil {
		return nil, f.err
	}

	last := history[len(history)-1].Date
	out := make([]SeriesPoint, 0, horizon)
	for i := 1; i <= horizon; i++ {
		var date time.Time
		if step == StepMonthly {
			date = time.Date(last.Year(), last.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, i, 0)
		} else {
			date = last.AddDate(0, 0, i)
		}
		out = append(out, SeriesPoint{Date: date, Value: 1})
	}
	return out, nil
}

func testAdapter(f Forecaster) *ForecastAdapter {
	return NewForecastAdapter(f, testConfig("unused.xlsx"), NewLogger(false))
}

func TestDailySeriesCollapsesDuplicates(t *testing.T) {
	// Two bills on the same day are summed into one observation
	v := viewOf(
		bill("A", "Electric", "2024-01-02", 10, 100),
		bill("A", "Water", "2024-01-02", 5, 40),
		bill("A", "Electric", "2024-01-01", 10, 90),
	)

	series := DailySeries(v, MetricCost)
	if len(series) != 2 {
		t.Fatalf("expected 2 points, got %d", len(series))
	}
	if series[0].Value != 90 || series[1].Value != 140 {
		t.Errorf("unexpected values: %+v", series)
	}
	for i := 1; i < len(series); i++ {
		if !series[i-1].Date.Before(series[i].Date) {
			t.Fatalf("series not strictly ascending: %+v", series)
		}
	}
}

func TestMonthlySeriesTruncatesToFirstOfMonth(t *testing.T) {
	v := viewOf(
		bill("A", "Electric", "2024-01-05", 10, 100),
		bill("A", "Electric", "2024-01-28", 10, 50),
		bill("A", "Electric", "2024-02-10", 10, 70),
	)

	series := MonthlySeries(v, MetricUsage)
	if len(series) != 2 {
		t.Fatalf("expected 2 points, got %d", len(series))
	}
	jan := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	if !series[0].Date.Equal(jan) || series[0].Value != 20 {
		t.Errorf("unexpected January point: %+v", series[0])
	}
}

func TestDailyForecastBelowFloor(t *testing.T) {
	fake := &fakeForecaster{}
	adapter := testAdapter(fake)

	// 3 distinct days, floor is 4: the collaborator must never be invoked
	v := viewOf(
		bill("A", "Electric", "2024-01-01", 10, 100),
		bill("A", "Electric", "2024-01-02", 10, 110),
		bill("A", "Electric", "2024-01-03", 10, 120),
	)

	_, err := adapter.DailyForecast(v, MetricCost)
	var insufficient *InsufficientHistoryError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientHistoryError, got %v", err)
	}
	if insufficient.Needed != 4 || insufficient.Got != 3 {
		t.Errorf("unexpected bounds: %+v", insufficient)
	}
	if fake.calls != 0 {
		t.Errorf("collaborator invoked %d times below floor", fake.calls)
	}
}

func TestDailyForecastAtFloor(t *testing.T) {
	fake := &fakeForecaster{}
	adapter := testAdapter(fake)

	v := viewOf(
		bill("A", "Electric", "2024-01-01", 10, 100),
		bill("A", "Electric", "2024-01-02", 10, 110),
		bill("A", "Electric", "2024-01-03", 10, 120),
		bill("A", "Electric", "2024-01-04", 10, 130),
	)

	points, err := adapter.DailyForecast(v, MetricCost)
	if err != nil {
		t.Fatalf("DailyForecast: %v", err)
	}
	if fake.calls != 1 || fake.lastLen != 4 || fake.horizon != DefaultDailyHorizon || fake.step != StepDaily {
		t.Errorf("unexpected collaborator invocation: %+v", fake)
	}
	if len(points) != 4+DefaultDailyHorizon {
		t.Errorf("expected %d reconciled points, got %d", 4+DefaultDailyHorizon, len(points))
	}
}

func TestDailyForecastDuplicateDatesCountOnce(t *testing.T) {
	fake := &fakeForecaster{}
	adapter := testAdapter(fake)

	// 6 records on 3 distinct days: still below the floor of 4
	v := viewOf(
		bill("A", "Electric", "2024-01-01", 10, 100),
		bill("A", "Water", "2024-01-01", 1, 10),
		bill("A", "Electric", "2024-01-02", 10, 110),
		bill("A", "Water", "2024-01-02", 1, 10),
		bill("A", "Electric", "2024-01-03", 10, 120),
		bill("A", "Water", "2024-01-03", 1, 10),
	)

	if _, err := adapter.DailyForecast(v, MetricCost); err == nil {
		t.Fatal("expected insufficient history")
	}
	if fake.calls != 0 {
		t.Errorf("collaborator invoked on deduplicated short series")
	}
}

func TestMonthlyForecastClampsHorizon(t *testing.T) {
	fake := &fakeForecaster{}
	adapter := testAdapter(fake)

	records := make([]BillingRecord, 0, 8)
	for m := 1; m <= 8; m++ {
		records = append(records, bill("A", "Electric",
			fmt.Sprintf("2024-%02d-15", m), 10, float64(100+m)))
	}
	v := viewOf(records...)

	if _, err := adapter.MonthlyForecast(v, MetricCost, 100); err != nil {
		t.Fatalf("MonthlyForecast: %v", err)
	}
	if fake.horizon != MaxMonthlyHorizon {
		t.Errorf("horizon = %d, want clamped to %d", fake.horizon, MaxMonthlyHorizon)
	}

	if _, err := adapter.MonthlyForecast(v, MetricCost, 0); err != nil {
		t.Fatalf("MonthlyForecast: %v", err)
	}
	if fake.horizon != MinMonthlyHorizon {
		t.Errorf("horizon = %d, want clamped to %d", fake.horizon, MinMonthlyHorizon)
	}
	if fake.step != StepMonthly {
		t.Errorf("step = %v, want monthly", fake.step)
	}
}

func TestMonthlyForecastBelowFloor(t *testing.T) {
	fake := &fakeForecaster{}
	adapter := testAdapter(fake)

	v := viewOf(
		bill("A", "Electric", "2024-01-15", 10, 100),
		bill("A", "Electric", "2024-02-15", 10, 110),
		bill("A", "Electric", "2024-03-15", 10, 120),
		bill("A", "Electric", "2024-04-15", 10, 130),
		bill("A", "Electric", "2024-05-15", 10, 140),
	)

	_, err := adapter.MonthlyForecast(v, MetricCost, 6)
	var insufficient *InsufficientHistoryError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientHistoryError, got %v", err)
	}
	if insufficient.Mode != "monthly" || insufficient.Needed != 6 || insufficient.Got != 5 {
		t.Errorf("unexpected bounds: %+v", insufficient)
	}
}

func TestForecastErrorWrapsCollaborator(t *testing.T) {
	cause := errors.New("model diverged")
	adapter := testAdapter(&fakeForecaster{err: cause})

	v := viewOf(
		bill("A", "Electric", "2024-01-01", 10, 100),
		bill("A", "Electric", "2024-01-02", 10, 110),
		bill("A", "Electric", "2024-01-03", 10, 120),
		bill("A", "Electric", "2024-01-04", 10, 130),
	)

	_, err := adapter.DailyForecast(v, MetricCost)
	var ferr *ForecastError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected ForecastError, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Error("ForecastError must unwrap to the collaborator error")
	}
}

func TestReconcile(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
	}
	actual := []SeriesPoint{
		{Date: day(1), Value: 100},
		{Date: day(2), Value: 110},
	}
	predicted := []SeriesPoint{
		{Date: day(2), Value: 108},
		{Date: day(3), Value: 115},
	}

	points := Reconcile(actual, predicted)
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}

	// History-only date
	if points[0].Actual == nil || *points[0].Actual != 100 || points[0].Predicted != nil {
		t.Errorf("unexpected first point: %+v", points[0])
	}
	// Overlap date carries both
	if points[1].Actual == nil || points[1].Predicted == nil || *points[1].Predicted != 108 {
		t.Errorf("unexpected overlap point: %+v", points[1])
	}
	// Future date
	if points[2].Actual != nil || points[2].Predicted == nil || *points[2].Predicted != 115 {
		t.Errorf("unexpected future point: %+v", points[2])
	}

	for i := 1; i < len(points); i++ {
		if !points[i-1].Date.Before(points[i].Date) {
			t.Fatal("reconciled series not sorted")
		}
	}
}

func TestAdditiveForecasterDeterministic(t *testing.T) {
	f := NewAdditiveForecaster()

	history := make([]SeriesPoint, 0, 30)
	for i := 0; i < 30; i++ {
		date := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
		history = append(history, SeriesPoint{Date: date, Value: 100 + float64(i)*2})
	}

	first, err := f.Forecast(history, 10, StepDaily)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	second, err := f.Forecast(history, 10, StepDaily)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("identical input must produce identical predictions")
	}
	if len(first) != 10 {
		t.Errorf("expected 10 predictions, got %d", len(first))
	}

	last := history[len(history)-1].Date
	for i, p := range first {
		if want := last.AddDate(0, 0, i+1); !p.Date.Equal(want) {
			t.Errorf("prediction %d dated %v, want %v", i, p.Date, want)
		}
	}

	// A cleanly linear series should extrapolate close to the line
	if first[0].Value < 150 || first[0].Value > 175 {
		t.Errorf("first prediction %v far from trend", first[0].Value)
	}
}

func TestAdditiveForecasterMonthlyDates(t *testing.T) {
	f := NewAdditiveForecaster()

	history := make([]SeriesPoint, 0, 12)
	for i := 0; i < 12; i++ {
		history = append(history, SeriesPoint{
			Date:  time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, i, 0),
			Value: 100,
		})
	}

	out, err := f.Forecast(history, 3, StepMonthly)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}
	want := []time.Time{
		time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
	}
	for i, p := range out {
		if !p.Date.Equal(want[i]) {
			t.Errorf("prediction %d dated %v, want %v", i, p.Date, want[i])
		}
	}
}

func TestAdditiveForecasterTooShort(t *testing.T) {
	f := NewAdditiveForecaster()
	_, err := f.Forecast([]SeriesPoint{{Date: time.Now(), Value: 1}}, 5, StepDaily)
	if err == nil {
		t.Fatal("expected error for single observation")
	}
}
