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
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if config.SheetName != DefaultSheetName {
		t.Errorf("sheet = %q", config.SheetName)
	}
	if config.DailyHorizon != DefaultDailyHorizon || config.DailyFloor != DefaultDailyFloor {
		t.Errorf("unexpected forecast defaults: %+v", config)
	}
	if len(config.Fields.Amount) == 0 {
		t.Error("default field map must cover amount")
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
source_path: /data/gridforge_1.1.xlsx
sheet_name: Property
daily_horizon: 60
fields:
  amount:
    - "Total Charge"
locations:
  - city: Austin
    state: TX
    lat: 30.2672
    lon: -97.7431
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if config.SourcePath != "/data/gridforge_1.1.xlsx" {
		t.Errorf("source = %q", config.SourcePath)
	}
	if config.DailyHorizon != 60 {
		t.Errorf("daily horizon = %d, want 60", config.DailyHorizon)
	}
	if len(config.Fields.Amount) != 1 || config.Fields.Amount[0] != "Total Charge" {
		t.Errorf("amount aliases = %v", config.Fields.Amount)
	}
	// Fields absent from the file keep their defaults
	if len(config.Fields.Property) == 0 {
		t.Error("property aliases must fall back to defaults")
	}
	if len(config.Locations) != 1 {
		t.Errorf("locations = %+v", config.Locations)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("GRIDSIGHT_SOURCE", "/env/billing.xlsx")
	t.Setenv("GRIDSIGHT_ADDR", ":9999")

	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if config.SourcePath != "/env/billing.xlsx" {
		t.Errorf("source = %q", config.SourcePath)
	}
	if config.ListenAddr != ":9999" {
		t.Errorf("addr = %q", config.ListenAddr)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing source",
			mutate:  func(c *Config) { c.SourcePath = "" },
			wantErr: "source_path",
		},
		{
			name:    "bad daily horizon",
			mutate:  func(c *Config) { c.DailyHorizon = 0 },
			wantErr: "daily_horizon",
		},
		{
			name:    "inverted monthly bounds",
			mutate:  func(c *Config) { c.MaxMonthlyHorizon = 1 },
			wantErr: "monthly horizon bounds",
		},
		{
			name:    "location missing state",
			mutate:  func(c *Config) { c.Locations = []GeoEntry{{City: "Austin"}} },
			wantErr: "locations[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := testConfig("/data/billing.xlsx")
			tt.mutate(config)

			err := config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}
