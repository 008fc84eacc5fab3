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
	"sort"
	"strings"

	"github.com/samber/lo"
)

// Filter selects billing records by equality on property, utility and
// year. Zero values ("" and 0) are the "All" sentinel: no constraint.
// Predicates combine with AND. Values absent from the table are legal and
// simply match nothing.
type Filter struct {
	Property string
	Utility  string
	Year     int
}

// IsAll reports whether the filter applies no constraint
func (f Filter) IsAll() bool {
	return f.Property == "" && f.Utility == "" && f.Year == 0
}

// Matches reports whether a record satisfies every set predicate
func (f Filter) Matches(r *BillingRecord) bool {
	if f.Property != "" && r.Property != f.Property {
		return false
	}
	if f.Utility != "" && r.Utility != f.Utility {
		return false
	}
	if f.Year != 0 && r.Year != f.Year {
		return false
	}
	return true
}

// Apply narrows a table to the records matching the filter. The table is
// never mutated; the view holds indices into it. An empty result is a
// valid empty view, never an error.
func (f Filter) Apply(t *NormalizedTable) *View {
	view := &View{table: t}
	for i := range t.Records {
		if f.Matches(&t.Records[i]) {
			view.idx = append(view.idx, i)
		}
	}
	return view
}

// Key returns a human-readable identifier for the filter, used in export
// filenames and logs. Slugging can conflate fields, so cache lookups use
// CacheKey instead.
func (f Filter) Key() string {
	if f.IsAll() {
		return "all"
	}

	var parts []string
	if f.Property != "" {
		parts = append(parts, slug(f.Property))
	}
	if f.Utility != "" {
		parts = append(parts, slug(f.Utility))
	}
	if f.Year != 0 {
		parts = append(parts, fmt.Sprintf("%d", f.Year))
	}
	return strings.Join(parts, "_")
}

// CacheKey returns an unambiguous encoding of the filter tuple for
// memoization. Every field is tagged and quoted, so distinct tuples can
// never encode to the same key the way slugged display keys can.
func (f Filter) CacheKey() string {
	return fmt.Sprintf("p=%q|u=%q|y=%d", f.Property, f.Utility, f.Year)
}

// slug lowercases and dash-joins a label for use in keys and filenames
func slug(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), "-")
}

// Properties returns the distinct property names of a table, sorted
func Properties(t *NormalizedTable) []string {
	names := lo.Uniq(lo.Map(t.Records, func(r BillingRecord, _ int) string {
		return r.Property
	}))
	sort.Strings(names)
	return names
}

// Utilities returns the distinct utility labels of a table, sorted
func Utilities(t *NormalizedTable) []string {
	names := lo.Uniq(lo.Map(t.Records, func(r BillingRecord, _ int) string {
		return r.Utility
	}))
	sort.Strings(names)
	return names
}

// Years returns the distinct billing years of a table, ascending
func Years(t *NormalizedTable) []int {
	years := lo.Uniq(lo.Map(t.Records, func(r BillingRecord, _ int) int {
		return r.Year
	}))
	sort.Ints(years)
	return years
}
