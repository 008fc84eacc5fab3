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

const (
	// DefaultSheetName is the worksheet holding billing records
	DefaultSheetName = "Property"

	// DefaultListenAddr is the dashboard listen address
	DefaultListenAddr = ":8080"

	// DefaultDailyHorizon is the fixed horizon (in days) of the one-off
	// daily forecast on the portfolio view
	DefaultDailyHorizon = 90

	// DefaultDailyFloor is the minimum number of daily observations
	// before the daily forecast runs
	DefaultDailyFloor = 4

	// DefaultMonthlyFloor is the minimum number of monthly observations
	// before the operator-horizon monthly forecast runs
	DefaultMonthlyFloor = 6

	// MinMonthlyHorizon and MaxMonthlyHorizon bound the operator-supplied
	// monthly forecast horizon
	MinMonthlyHorizon = 3
	MaxMonthlyHorizon = 24
)

// Canonical billing record fields, used as keys in the header mapping
const (
	FieldProperty = "property"
	FieldCity     = "city"
	FieldState    = "state"
	FieldUtility  = "utility"
	FieldDate     = "date"
	FieldUsage    = "usage"
	FieldAmount   = "amount"
	FieldUnits    = "units"
)

// dateLayouts are tried in order when parsing billing dates. Cells that
// match none of them fall back to Excel serial number parsing.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01-02-06",
	"1/2/2006",
	"1/2/06",
	"2006/01/02",
	"02-Jan-06",
	"Jan 2, 2006",
	"2006-01-02T15:04:05Z07:00",
}
