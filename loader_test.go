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
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

// writeWorkbook creates a temporary xlsx with the given rows on one sheet
func writeWorkbook(t *testing.T, sheet string, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(sheet); err != nil {
		t.Fatalf("NewSheet: %v", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		t.Fatalf("DeleteSheet: %v", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}

	path := filepath.Join(t.TempDir(), "billing.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return path
}

func testConfig(sourcePath string) *Config {
	return &Config{
		SourcePath:        sourcePath,
		SheetName:         DefaultSheetName,
		Fields:            defaultFieldMap(),
		DailyHorizon:      DefaultDailyHorizon,
		DailyFloor:        DefaultDailyFloor,
		MonthlyFloor:      DefaultMonthlyFloor,
		MinMonthlyHorizon: MinMonthlyHorizon,
		MaxMonthlyHorizon: MaxMonthlyHorizon,
		ListenAddr:        DefaultListenAddr,
	}
}

func TestLoadPath(t *testing.T) {
	path := writeWorkbook(t, "Property", [][]interface{}{
		{"Property Name", "City", "State", "Utility", "Billing Date", "Usage", "$ Amount", "Unit Count"},
		{"Riverbend Lofts", "Austin", "TX", "Electric", "2024-01-15", "1200", "$1,440.50", "48"},
		{"Riverbend Lofts", "Austin", "TX", "Water", "2024-01-15", "0", "75.00", "48"},
		{"", "", "", "", "", "", "", ""},
		{"Cedar Court", "Boise", "ID", "Gas", "not a date", "300", "120", "12"},
		{"Cedar Court", "Boise", "ID", "Gas", "2024-02-01", "300", "banana", "12"},
		{"Cedar Court", "Boise", "ID", "Gas", "2/1/2024", "310", "118.20", "12"},
	})

	loader := NewLoader(testConfig(path), NewLogger(false))
	table, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(table.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(table.Records))
	}
	if table.Dropped != 2 {
		t.Errorf("expected 2 dropped rows, got %d", table.Dropped)
	}

	first := table.Records[0]
	if first.Property != "Riverbend Lofts" || first.Utility != "Electric" {
		t.Errorf("unexpected first record: %+v", first)
	}
	if first.Amount != 1440.50 {
		t.Errorf("expected amount 1440.50, got %v", first.Amount)
	}
	if first.Year != 2024 || first.Month != Jan {
		t.Errorf("expected Jan 2024, got %v %d", first.Month, first.Year)
	}
	if got := first.CostPerUnit; math.Abs(got-1440.50/1200) > 1e-9 {
		t.Errorf("unexpected cost per unit: %v", got)
	}

	// Zero usage: cost per unit is missing, the record itself survives
	zero := table.Records[1]
	if !math.IsNaN(zero.CostPerUnit) {
		t.Errorf("expected NaN cost per unit for zero usage, got %v", zero.CostPerUnit)
	}

	if table.SourcePath != path {
		t.Errorf("expected source path %q, got %q", path, table.SourcePath)
	}
	if table.SourceModTime.IsZero() {
		t.Error("expected source mod time to be recorded")
	}
}

func TestLoadPathHeaderVariants(t *testing.T) {
	// A different export spelling for every mapped column
	path := writeWorkbook(t, "Property", [][]interface{}{
		{"Prop Name", "City", "ST", "Utility Type", "Bill Date", "# units", "$ Amt", "# of Units"},
		{"Cedar Court", "Boise", "ID", "Gas", "2024-03-10", "250", "98.75", "12"},
	})

	loader := NewLoader(testConfig(path), NewLogger(false))
	table, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(table.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(table.Records))
	}
	r := table.Records[0]
	if r.Property != "Cedar Court" || r.State != "ID" || r.Utility != "Gas" {
		t.Errorf("unexpected record: %+v", r)
	}
	if r.Usage != 250 || r.Amount != 98.75 || r.Units != 12 {
		t.Errorf("unexpected numerics: %+v", r)
	}
}

func TestLoadPathMissingFile(t *testing.T) {
	loader := NewLoader(testConfig("/nonexistent/billing.xlsx"), NewLogger(false))
	_, err := loader.Load()
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, ok := err.(*SourceError); !ok {
		t.Errorf("expected *SourceError, got %T", err)
	}
}

func TestLoadPathMissingSheet(t *testing.T) {
	path := writeWorkbook(t, "Wrong Sheet", [][]interface{}{
		{"Property Name", "Utility", "Billing Date", "Usage", "$ Amount"},
	})

	loader := NewLoader(testConfig(path), NewLogger(false))
	if _, err := loader.Load(); err == nil {
		t.Fatal("expected error for missing sheet")
	}
}

func TestResolveColumns(t *testing.T) {
	fields := defaultFieldMap()

	tests := []struct {
		name    string
		header  []string
		wantErr bool
	}{
		{
			name:   "canonical headers",
			header: []string{"Property Name", "City", "State", "Utility", "Billing Date", "Usage", "$ Amount", "Unit Count"},
		},
		{
			name:   "case and whitespace insensitive",
			header: []string{"  property name ", "UTILITY", "billing DATE", "usage", "$ amount"},
		},
		{
			name:    "missing amount column",
			header:  []string{"Property Name", "Utility", "Billing Date", "Usage"},
			wantErr: true,
		},
		{
			name:    "missing property column",
			header:  []string{"City", "Utility", "Billing Date", "Usage", "$ Amount"},
			wantErr: true,
		},
		{
			name:   "optional columns absent",
			header: []string{"Property Name", "Utility", "Billing Date", "Usage", "$ Amount"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := resolveColumns(tt.header, fields)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveColumns: %v", err)
			}
			for _, required := range []string{FieldProperty, FieldUtility, FieldDate, FieldUsage, FieldAmount} {
				if _, ok := idx[required]; !ok {
					t.Errorf("required field %q not resolved", required)
				}
			}
		})
	}
}

func TestParseBillingDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"2024-01-15", "2024-01-15", true},
		{"1/2/2024", "2024-01-02", true},
		{"2/1/24", "2024-02-01", true},
		{"2024/03/05", "2024-03-05", true},
		{"15-Jan-24", "2024-01-15", true},
		// Excel serial: 45292 days after 1899-12-30
		{"45292", "2024-01-01", true},
		{"", "", false},
		{"not a date", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := parseBillingDate(tt.input)
			if ok != tt.ok {
				t.Fatalf("parseBillingDate(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if !tt.ok {
				return
			}
			if got.Format("2006-01-02") != tt.want {
				t.Errorf("parseBillingDate(%q) = %s, want %s", tt.input, got.Format("2006-01-02"), tt.want)
			}
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		{"1200", 1200, true},
		{"1,440.50", 1440.50, true},
		{"$98.75", 98.75, true},
		{"$ 1,000", 1000, true},
		{"-12.5", -12.5, true},
		{"0", 0, true},
		{"", 0, false},
		{"banana", 0, false},
		{"NaN", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := parseNumber(tt.input)
			if ok != tt.ok {
				t.Fatalf("parseNumber(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if tt.ok && got != tt.want {
				t.Errorf("parseNumber(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestMonthOrdering(t *testing.T) {
	d := time.Date(2024, time.September, 1, 0, 0, 0, 0, time.UTC)
	if MonthOf(d) != Sep {
		t.Errorf("expected Sep, got %v", MonthOf(d))
	}
	if Jan >= Feb || Apr >= Aug || Nov >= Dec {
		t.Error("month ordinals must follow calendar order")
	}
	if Sep.String() != "Sep" {
		t.Errorf("expected label Sep, got %s", Sep.String())
	}
	if m, ok := ParseMonth("Dec"); !ok || m != Dec {
		t.Errorf("ParseMonth(Dec) = %v, %v", m, ok)
	}
	if _, ok := ParseMonth("December"); ok {
		t.Error("ParseMonth should only accept three-letter labels")
	}
}
