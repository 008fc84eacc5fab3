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
	"sync"
)

// TableCache holds the parsed spreadsheet across interactions. Parsing is
// the only expensive step in the pipeline, so the table is loaded once
// and shared read-only; the cache is invalidated when the source file's
// modification time changes.
type TableCache struct {
	loader *Loader
	logger *Logger

	mutex sync.Mutex
	table *NormalizedTable
}

// NewTableCache creates a table cache around a loader
func NewTableCache(loader *Loader, logger *Logger) *TableCache {
	return &TableCache{
		loader: loader,
		logger: logger.WithComponent("cache"),
	}
}

// Get returns the cached table, reloading when the source has changed
// since the last parse
func (tc *TableCache) Get() (*NormalizedTable, error) {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if tc.table != nil {
		info, err := os.Stat(tc.table.SourcePath)
		if err == nil && info.ModTime().Equal(tc.table.SourceModTime) {
			tc.logger.Debug("Table cache hit", "path", tc.table.SourcePath)
			return tc.table, nil
		}
		tc.logger.Info("Source changed, reloading", "path", tc.table.SourcePath)
	}

	table, err := tc.loader.Load()
	if err != nil {
		return nil, err
	}

	tc.table = table
	return tc.table, nil
}

// Generation identifies the currently cached parse; aggregate memoization
// is only valid within one generation
func (tc *TableCache) Generation() string {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	if tc.table == nil {
		return ""
	}
	return fmt.Sprintf("%s@%d", tc.table.SourcePath, tc.table.SourceModTime.UnixNano())
}

// ResultCache memoizes aggregate results keyed by the exact filter tuple
// plus the product name. Recomputation is cheap; the memo only spares
// repeated group-bys while the operator flips between the same filters.
// Entries from an older table generation are discarded wholesale.
type ResultCache struct {
	mutex      sync.RWMutex
	generation string
	entries    map[string]interface{}
}

// NewResultCache creates an empty result cache
func NewResultCache() *ResultCache {
	return &ResultCache{entries: make(map[string]interface{})}
}

// Get retrieves a memoized result for the given generation and key
func (rc *ResultCache) Get(generation, key string) (interface{}, bool) {
	rc.mutex.RLock()
	defer rc.mutex.RUnlock()

	if rc.generation != generation {
		return nil, false
	}
	value, ok := rc.entries[key]
	return value, ok
}

// Set stores a result, resetting the cache when the generation moved
func (rc *ResultCache) Set(generation, key string, value interface{}) {
	rc.mutex.Lock()
	defer rc.mutex.Unlock()

	if rc.generation != generation {
		rc.generation = generation
		rc.entries = make(map[string]interface{})
	}
	rc.entries[key] = value
}

// Len returns the number of memoized entries
func (rc *ResultCache) Len() int {
	rc.mutex.RLock()
	defer rc.mutex.RUnlock()
	return len(rc.entries)
}
