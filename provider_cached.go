// Copyright 2024 The University of Queensland
// Copyright 2025 Contriboss
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pubgrub

import (
	"fmt"
	"iter"
)

// CachedProvider wraps a DependencyProvider and memoizes GetDependencies,
// which is the call CDCL backtracking repeats most: the same package
// version's dependency list is asked for again every time the solver
// revisits a decision after backtracking.
//
// ChoosePackageVersion and ShouldCancel are passed straight through — the
// former's answer depends on the caller-supplied candidate set, which
// changes on every call, so memoizing it would just be a cache that never
// hits.
//
// WHEN TO USE: wrap providers with expensive GetDependencies calls (network
// registries, databases). WHEN NOT TO USE: MemoryProvider is already O(1),
// so wrapping it only adds overhead.
type CachedProvider struct {
	inner DependencyProvider

	depsCache     map[string]DependencyResult
	depsCalls     int
	depsCacheHits int
}

// NewCachedProvider wraps inner with a dependency-list cache.
func NewCachedProvider(inner DependencyProvider) *CachedProvider {
	return &CachedProvider{
		inner:     inner,
		depsCache: make(map[string]DependencyResult),
	}
}

// ChoosePackageVersion implements DependencyProvider by delegating to inner.
func (c *CachedProvider) ChoosePackageVersion(candidates iter.Seq2[Name, VersionSet]) (Name, Version, error) {
	return c.inner.ChoosePackageVersion(candidates)
}

// GetDependencies implements DependencyProvider, caching inner's result.
func (c *CachedProvider) GetDependencies(name Name, version Version) (DependencyResult, error) {
	c.depsCalls++

	key := fmt.Sprintf("%s@%s", name.Value(), version)
	if result, ok := c.depsCache[key]; ok {
		c.depsCacheHits++
		return result, nil
	}

	result, err := c.inner.GetDependencies(name, version)
	if err != nil {
		return DependencyResult{}, err
	}

	c.depsCache[key] = result
	return result, nil
}

// ShouldCancel implements DependencyProvider by delegating to inner.
func (c *CachedProvider) ShouldCancel() error {
	return c.inner.ShouldCancel()
}

// CacheStats reports cache performance for diagnostics.
type CacheStats struct {
	DepsCalls     int
	DepsCacheHits int
	DepsHitRate   float64
}

// GetCacheStats returns cache performance statistics.
func (c *CachedProvider) GetCacheStats() CacheStats {
	stats := CacheStats{DepsCalls: c.depsCalls, DepsCacheHits: c.depsCacheHits}
	if stats.DepsCalls > 0 {
		stats.DepsHitRate = float64(stats.DepsCacheHits) / float64(stats.DepsCalls)
	}
	return stats
}

// ClearCache clears all cached data while preserving the wrapped provider.
func (c *CachedProvider) ClearCache() {
	c.depsCache = make(map[string]DependencyResult)
	c.depsCalls = 0
	c.depsCacheHits = 0
}

var _ DependencyProvider = (*CachedProvider)(nil)
