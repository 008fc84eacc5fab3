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
	"strings"
)

// GeoPoint is a latitude/longitude pair
type GeoPoint struct {
	Lat float64
	Lon float64
}

// GeoIndex is the static (city, state) -> coordinate lookup used for the
// portfolio map. It is built once from configuration and immutable after;
// no geocoding service is ever called, keeping map output deterministic
// and offline.
type GeoIndex struct {
	points map[string]GeoPoint
}

// NewGeoIndex builds the lookup from configured entries
func NewGeoIndex(entries []GeoEntry) *GeoIndex {
	idx := &GeoIndex{points: make(map[string]GeoPoint, len(entries))}
	for _, e := range entries {
		idx.points[geoKey(e.City, e.State)] = GeoPoint{Lat: e.Lat, Lon: e.Lon}
	}
	return idx
}

// Lookup resolves a city/state pair. Case and surrounding whitespace are
// ignored.
func (g *GeoIndex) Lookup(city, state string) (GeoPoint, bool) {
	p, ok := g.points[geoKey(city, state)]
	return p, ok
}

// Len returns the number of known locations
func (g *GeoIndex) Len() int {
	return len(g.points)
}

// Markers places each property of a view on the map with its summed
// spend. Properties whose city/state is not in the lookup are excluded,
// never defaulted to (0,0).
func (g *GeoIndex) Markers(v *View) []MapMarker {
	type site struct {
		city  string
		state string
		sum   float64
	}

	sites := make(map[string]*site)
	var order []string
	for i := 0; i < v.Len(); i++ {
		r := v.At(i)
		s, ok := sites[r.Property]
		if !ok {
			s = &site{city: r.City, state: r.State}
			sites[r.Property] = s
			order = append(order, r.Property)
		}
		s.sum += r.Amount
	}

	var markers []MapMarker
	for _, property := range order {
		s := sites[property]
		point, ok := g.Lookup(s.city, s.state)
		if !ok {
			continue
		}
		markers = append(markers, MapMarker{
			Property:  property,
			City:      s.city,
			State:     s.state,
			Lat:       point.Lat,
			Lon:       point.Lon,
			SumAmount: s.sum,
		})
	}

	return markers
}

// geoKey normalizes a city/state pair into a lookup key
func geoKey(city, state string) string {
	return strings.ToLower(strings.TrimSpace(city)) + "|" + strings.ToLower(strings.TrimSpace(state))
}
