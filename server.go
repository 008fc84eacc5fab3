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
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// Dashboard serves the interactive reporting views over HTTP. Every
// request recomputes the pipeline synchronously from the cached table;
// only the parsed spreadsheet and per-filter aggregates are cached.
type Dashboard struct {
	config   *Config
	logger   *Logger
	tables   *TableCache
	results  *ResultCache
	adapter  *ForecastAdapter
	charts   *ChartGenerator
	exporter *Exporter
	geo      *GeoIndex
}

// NewDashboard wires the dashboard around the pipeline components
func NewDashboard(config *Config, tables *TableCache, adapter *ForecastAdapter, logger *Logger) *Dashboard {
	return &Dashboard{
		config:   config,
		logger:   logger.WithComponent("dashboard"),
		tables:   tables,
		results:  NewResultCache(),
		adapter:  adapter,
		charts:   NewChartGenerator(),
		exporter: NewExporter(logger),
		geo:      NewGeoIndex(config.Locations),
	}
}

// Start registers routes and serves until the listener fails
func (d *Dashboard) Start() error {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(serverHeader)

	e.GET("/api/overview", d.handleOverview)
	e.GET("/api/options", d.handleOptions)
	e.GET("/api/metrics", d.handleMetrics)
	e.GET("/api/trend/cost", d.handleTrend)
	e.GET("/api/trend/usage", d.handleTrend)
	e.GET("/api/yoy", d.handleYoY)
	e.GET("/api/summary", d.handleSummary)
	e.GET("/api/ranking", d.handleRanking)
	e.GET("/api/mix", d.handleMix)
	e.GET("/api/map", d.handleMap)
	e.GET("/api/forecast/daily", d.handleDailyForecast)
	e.GET("/api/forecast/monthly", d.handleMonthlyForecast)

	e.GET("/charts/cost.png", d.handleCostChart)
	e.GET("/charts/usage.png", d.handleUsageChart)
	e.GET("/charts/ranking.png", d.handleRankingChart)
	e.GET("/charts/mix.png", d.handleMixChart)
	e.GET("/charts/forecast.png", d.handleForecastChart)

	e.GET("/export/records.csv", d.handleRecordsExport)
	e.GET("/export/summary.csv", d.handleSummaryExport)

	d.logger.Info("Dashboard listening", "addr", d.config.ListenAddr)
	return e.Start(d.config.ListenAddr)
}

// serverHeader identifies the application and version on every response
func serverHeader(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set("Server", GetUserAgent())
		return next(c)
	}
}

// parseFilter builds a Filter from query parameters. Missing parameters
// and the literal "All" both mean no constraint.
func parseFilter(c echo.Context) (Filter, error) {
	var f Filter

	if p := c.QueryParam("property"); p != "" && p != "All" {
		f.Property = p
	}
	if u := c.QueryParam("utility"); u != "" && u != "All" {
		f.Utility = u
	}
	if y := c.QueryParam("year"); y != "" && y != "All" {
		year, err := strconv.Atoi(y)
		if err != nil {
			return Filter{}, fmt.Errorf("year must be numeric, got %q", y)
		}
		f.Year = year
	}

	return f, nil
}

// view loads the table and applies the request filter
func (d *Dashboard) view(c echo.Context) (*NormalizedTable, *View, Filter, error) {
	filter, err := parseFilter(c)
	if err != nil {
		return nil, nil, Filter{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	table, err := d.tables.Get()
	if err != nil {
		d.logger.Error("Failed to load table", "error", err)
		return nil, nil, Filter{}, echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}

	view := filter.Apply(table)
	d.logger.LogFilterApplied(filter, view.Len())
	return table, view, filter, nil
}

// memo runs compute once per (generation, filter, product) and replays
// the cached value afterwards. Keyed by the exact filter tuple, never the
// slugged display key.
func (d *Dashboard) memo(filter Filter, product string, compute func() interface{}) interface{} {
	generation := d.tables.Generation()
	key := filter.CacheKey() + ":" + product

	if value, ok := d.results.Get(generation, key); ok {
		return value
	}

	value := compute()
	d.results.Set(generation, key, value)
	return value
}

// dailyForecast memoizes successful daily forecasts per filter and metric;
// failures are never cached
func (d *Dashboard) dailyForecast(filter Filter, v *View, metric SeriesMetric) ([]ForecastPoint, error) {
	generation := d.tables.Generation()
	key := filter.CacheKey() + ":forecast-daily:" + metric.String()

	if value, ok := d.results.Get(generation, key); ok {
		return value.([]ForecastPoint), nil
	}

	points, err := d.adapter.DailyForecast(v, metric)
	if err != nil {
		return nil, err
	}
	d.results.Set(generation, key, points)
	return points, nil
}

// monthlyForecast memoizes successful monthly forecasts per filter,
// metric and clamped horizon
func (d *Dashboard) monthlyForecast(filter Filter, v *View, metric SeriesMetric, horizon int) ([]ForecastPoint, error) {
	generation := d.tables.Generation()
	key := fmt.Sprintf("%s:forecast-monthly:%s:%d", filter.CacheKey(), metric, horizon)

	if value, ok := d.results.Get(generation, key); ok {
		return value.([]ForecastPoint), nil
	}

	points, err := d.adapter.MonthlyForecast(v, metric, horizon)
	if err != nil {
		return nil, err
	}
	d.results.Set(generation, key, points)
	return points, nil
}

func (d *Dashboard) handleOverview(c echo.Context) error {
	table, err := d.tables.Get()
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}

	return c.JSON(http.StatusOK, Overview{
		Properties:  len(Properties(table)),
		Utilities:   len(Utilities(table)),
		Years:       len(Years(table)),
		Records:     len(table.Records),
		Dropped:     table.Dropped,
		LastUpdated: table.LastUpdated(),
	})
}

func (d *Dashboard) handleOptions(c echo.Context) error {
	table, err := d.tables.Get()
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"properties": Properties(table),
		"utilities":  Utilities(table),
		"years":      Years(table),
	})
}

func (d *Dashboard) handleMetrics(c echo.Context) error {
	_, view, filter, err := d.view(c)
	if err != nil {
		return err
	}

	metrics := d.memo(filter, "metrics", func() interface{} {
		return HeadlineMetrics(view)
	})
	return c.JSON(http.StatusOK, metrics)
}

// handleTrend serves the (Year, Month) trend rows; each row carries both
// the cost and usage sums, so the cost and usage routes share it
func (d *Dashboard) handleTrend(c echo.Context) error {
	_, view, filter, err := d.view(c)
	if err != nil {
		return err
	}

	trend := d.memo(filter, "trend", func() interface{} {
		return MonthlyTrend(view)
	})
	return c.JSON(http.StatusOK, trend)
}

func (d *Dashboard) handleYoY(c echo.Context) error {
	_, view, filter, err := d.view(c)
	if err != nil {
		return err
	}

	pivot := d.memo(filter, "yoy", func() interface{} {
		return YearOverYear(view)
	})
	return c.JSON(http.StatusOK, pivot)
}

func (d *Dashboard) handleSummary(c echo.Context) error {
	_, view, filter, err := d.view(c)
	if err != nil {
		return err
	}

	type summaryResponse struct {
		Rows   []SummaryRow    `json:"rows"`
		Totals []PropertyTotal `json:"totals"`
	}

	response := d.memo(filter, "summary", func() interface{} {
		rows := PortfolioSummary(view)
		return summaryResponse{Rows: rows, Totals: PropertyRollup(rows)}
	})
	return c.JSON(http.StatusOK, response)
}

// handleRanking ranks the whole portfolio; filters are deliberately not
// applied so the ranking stays comparable while the operator drills in
func (d *Dashboard) handleRanking(c echo.Context) error {
	table, err := d.tables.Get()
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}

	ranking := d.memo(Filter{}, "ranking", func() interface{} {
		return PropertyRanking(Filter{}.Apply(table))
	})
	return c.JSON(http.StatusOK, ranking)
}

func (d *Dashboard) handleMix(c echo.Context) error {
	_, view, filter, err := d.view(c)
	if err != nil {
		return err
	}

	mix := d.memo(filter, "mix", func() interface{} {
		return UtilityMix(view)
	})
	return c.JSON(http.StatusOK, mix)
}

func (d *Dashboard) handleMap(c echo.Context) error {
	_, view, filter, err := d.view(c)
	if err != nil {
		return err
	}

	markers := d.memo(filter, "map", func() interface{} {
		return d.geo.Markers(view)
	})
	return c.JSON(http.StatusOK, markers)
}

// forecastResponse wraps a forecast result or its informational outcome
type forecastResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Points  []ForecastPoint `json:"points,omitempty"`
	Horizon int             `json:"horizon,omitempty"`
}

func (d *Dashboard) handleDailyForecast(c echo.Context) error {
	_, view, filter, err := d.view(c)
	if err != nil {
		return err
	}

	points, ferr := d.dailyForecast(filter, view, parseMetric(c))
	return d.respondForecast(c, points, d.config.DailyHorizon, ferr)
}

func (d *Dashboard) handleMonthlyForecast(c echo.Context) error {
	_, view, filter, err := d.view(c)
	if err != nil {
		return err
	}

	horizon := d.config.MinMonthlyHorizon
	if h := c.QueryParam("horizon"); h != "" {
		n, err := strconv.Atoi(h)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("horizon must be numeric, got %q", h))
		}
		horizon = n
	}
	horizon = d.adapter.ClampHorizon(horizon)

	points, ferr := d.monthlyForecast(filter, view, parseMetric(c), horizon)
	return d.respondForecast(c, points, horizon, ferr)
}

// respondForecast maps forecast outcomes onto the wire: insufficient
// history is informational (the operator just sees a message), a
// collaborator failure is surfaced without taking down the page
func (d *Dashboard) respondForecast(c echo.Context, points []ForecastPoint, horizon int, err error) error {
	if err == nil {
		return c.JSON(http.StatusOK, forecastResponse{
			Status:  "ok",
			Points:  points,
			Horizon: horizon,
		})
	}

	var insufficient *InsufficientHistoryError
	if errors.As(err, &insufficient) {
		return c.JSON(http.StatusOK, forecastResponse{
			Status:  "insufficient_history",
			Message: insufficient.Error(),
		})
	}

	d.logger.Error("Forecast failed", "error", err)
	return c.JSON(http.StatusBadGateway, forecastResponse{
		Status:  "forecast_failed",
		Message: err.Error(),
	})
}

// parseMetric reads the metric query parameter, defaulting to cost
func parseMetric(c echo.Context) SeriesMetric {
	if c.QueryParam("metric") == "usage" {
		return MetricUsage
	}
	return MetricCost
}

func (d *Dashboard) handleCostChart(c echo.Context) error {
	return d.trendChart(c, MetricCost, "Monthly Cost Trend")
}

func (d *Dashboard) handleUsageChart(c echo.Context) error {
	return d.trendChart(c, MetricUsage, "Monthly Usage Trend")
}

func (d *Dashboard) trendChart(c echo.Context, metric SeriesMetric, title string) error {
	_, view, filter, err := d.view(c)
	if err != nil {
		return err
	}

	trend := d.memo(filter, "trend", func() interface{} {
		return MonthlyTrend(view)
	}).([]TrendRow)

	png, err := d.charts.MonthlyTrendChart(trend, metric, title)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

func (d *Dashboard) handleRankingChart(c echo.Context) error {
	table, err := d.tables.Get()
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}

	ranking := d.memo(Filter{}, "ranking", func() interface{} {
		return PropertyRanking(Filter{}.Apply(table))
	}).([]RankRow)

	png, err := d.charts.RankingChart(ranking)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

func (d *Dashboard) handleMixChart(c echo.Context) error {
	_, view, filter, err := d.view(c)
	if err != nil {
		return err
	}

	mix := d.memo(filter, "mix", func() interface{} {
		return UtilityMix(view)
	}).([]MixRow)

	png, err := d.charts.MixChart(mix)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

func (d *Dashboard) handleForecastChart(c echo.Context) error {
	_, view, filter, err := d.view(c)
	if err != nil {
		return err
	}

	points, ferr := d.dailyForecast(filter, view, parseMetric(c))
	if ferr != nil {
		return echo.NewHTTPError(http.StatusNotFound, ferr.Error())
	}

	png, err := d.charts.ForecastChart(points, "Cost Forecast")
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.Blob(http.StatusOK, "image/png", png)
}

func (d *Dashboard) handleRecordsExport(c echo.Context) error {
	_, view, filter, err := d.view(c)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := d.exporter.WriteRecords(&buf, view); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	d.logger.LogExport(RecordsFilename(filter), view.Len())
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", RecordsFilename(filter)))
	return c.Blob(http.StatusOK, "text/csv", buf.Bytes())
}

func (d *Dashboard) handleSummaryExport(c echo.Context) error {
	_, view, filter, err := d.view(c)
	if err != nil {
		return err
	}

	summary := PortfolioSummary(view)

	var buf bytes.Buffer
	if err := d.exporter.WriteSummary(&buf, summary); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	d.logger.LogExport(SummaryFilename(filter), len(summary))
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", SummaryFilename(filter)))
	return c.Blob(http.StatusOK, "text/csv", buf.Bytes())
}
