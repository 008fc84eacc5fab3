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
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// FieldMap maps canonical billing record fields to the header names that
// may carry them in a given spreadsheet. Different exports use different
// spellings for the same semantic column ("$ Amount" vs "$ Amt"), so the
// mapping is configuration, not code.
type FieldMap struct {
	Property []string `yaml:"property"`
	City     []string `yaml:"city"`
	State    []string `yaml:"state"`
	Utility  []string `yaml:"utility"`
	Date     []string `yaml:"date"`
	Usage    []string `yaml:"usage"`
	Amount   []string `yaml:"amount"`
	Units    []string `yaml:"units"`
}

// GeoEntry is one row of the static (city, state) -> coordinate table
type GeoEntry struct {
	City  string  `yaml:"city"`
	State string  `yaml:"state"`
	Lat   float64 `yaml:"lat"`
	Lon   float64 `yaml:"lon"`
}

// Config holds the application configuration
type Config struct {
	// Source spreadsheet
	SourcePath string `yaml:"source_path"`
	SheetName  string `yaml:"sheet_name"`

	// Header name mapping
	Fields FieldMap `yaml:"fields"`

	// Forecast settings
	DailyHorizon      int `yaml:"daily_horizon"`
	DailyFloor        int `yaml:"daily_floor"`
	MonthlyFloor      int `yaml:"monthly_floor"`
	MinMonthlyHorizon int `yaml:"min_monthly_horizon"`
	MaxMonthlyHorizon int `yaml:"max_monthly_horizon"`

	// Dashboard
	ListenAddr string `yaml:"listen_addr"`

	// Static map coordinates
	Locations []GeoEntry `yaml:"locations"`

	// Debugging
	Debug bool `yaml:"debug"`
}

// defaultFieldMap covers the header spellings seen across known exports
func defaultFieldMap() FieldMap {
	return FieldMap{
		Property: []string{"Property Name", "Prop Name", "Property"},
		City:     []string{"City"},
		State:    []string{"State", "ST"},
		Utility:  []string{"Utility", "Utility Type"},
		Date:     []string{"Billing Date", "Bill Date", "Date"},
		Usage:    []string{"Usage", "# units", "Units Used"},
		Amount:   []string{"$ Amount", "$ Amt", "Amount"},
		Units:    []string{"Unit Count", "# of Units", "Units"},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	// Set defaults
	config := &Config{
		SheetName:         DefaultSheetName,
		Fields:            defaultFieldMap(),
		DailyHorizon:      DefaultDailyHorizon,
		DailyFloor:        DefaultDailyFloor,
		MonthlyFloor:      DefaultMonthlyFloor,
		MinMonthlyHorizon: MinMonthlyHorizon,
		MaxMonthlyHorizon: MaxMonthlyHorizon,
		ListenAddr:        DefaultListenAddr,
		Debug:             false,
	}

	// If no path provided, return defaults with env var overrides
	if path == "" {
		config.applyEnvironmentVariables()
		return config, nil
	}

	// Read the file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// A partial fields block falls back to the defaults per field
	config.Fields = mergeFieldMap(config.Fields, defaultFieldMap())

	// Apply environment variable overrides
	config.applyEnvironmentVariables()

	return config, nil
}

// mergeFieldMap fills empty alias lists from the defaults
func mergeFieldMap(fm, def FieldMap) FieldMap {
	if len(fm.Property) == 0 {
		fm.Property = def.Property
	}
	if len(fm.City) == 0 {
		fm.City = def.City
	}
	if len(fm.State) == 0 {
		fm.State = def.State
	}
	if len(fm.Utility) == 0 {
		fm.Utility = def.Utility
	}
	if len(fm.Date) == 0 {
		fm.Date = def.Date
	}
	if len(fm.Usage) == 0 {
		fm.Usage = def.Usage
	}
	if len(fm.Amount) == 0 {
		fm.Amount = def.Amount
	}
	if len(fm.Units) == 0 {
		fm.Units = def.Units
	}
	return fm
}

// applyEnvironmentVariables overrides config with environment variables
func (c *Config) applyEnvironmentVariables() {
	if val := os.Getenv("GRIDSIGHT_SOURCE"); val != "" {
		c.SourcePath = val
	}
	if val := os.Getenv("GRIDSIGHT_SHEET"); val != "" {
		c.SheetName = val
	}
	if val := os.Getenv("GRIDSIGHT_ADDR"); val != "" {
		c.ListenAddr = val
	}
	if val := os.Getenv("GRIDSIGHT_DAILY_HORIZON"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.DailyHorizon = n
		}
	}
	if val := os.Getenv("GRIDSIGHT_DEBUG"); val == "true" || val == "1" {
		c.Debug = true
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errors []string

	if c.SourcePath == "" {
		errors = append(errors, "source_path is required")
	}

	if c.SheetName == "" {
		errors = append(errors, "sheet_name must not be empty")
	}

	if c.DailyHorizon < 1 || c.DailyHorizon > 365 {
		errors = append(errors, "daily_horizon must be between 1 and 365")
	}

	if c.DailyFloor < 2 {
		errors = append(errors, "daily_floor must be at least 2")
	}

	if c.MonthlyFloor < 2 {
		errors = append(errors, "monthly_floor must be at least 2")
	}

	if c.MinMonthlyHorizon < 1 || c.MaxMonthlyHorizon < c.MinMonthlyHorizon {
		errors = append(errors, "monthly horizon bounds must satisfy 1 <= min <= max")
	}

	for i, loc := range c.Locations {
		if loc.City == "" || loc.State == "" {
			errors = append(errors, fmt.Sprintf("locations[%d] must have city and state", i))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}
