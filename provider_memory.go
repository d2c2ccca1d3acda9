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
	"iter"
	"slices"
)

// MemoryProvider is an in-memory DependencyProvider for testing and simple
// use cases: it stores every package version and dependency list in memory
// with no I/O.
//
// Its ChoosePackageVersion picks the candidate package with the fewest
// still-allowed versions (on a tie, the one listed first: the package whose
// first assignment came earliest), then the highest version
// within that package's allowed range. Preferring the most-constrained
// package first surfaces unsatisfiable constraints earlier in the search,
// before the solver has invested decisions in less-constrained packages.
//
// Example:
//
//	provider := NewMemoryProvider()
//	provider.AddPackage(lodash, SimpleVersion("1.0.0"), []Term{
//	    NewTerm(coreJS, EqualsCondition{Version: SimpleVersion("2.0.0")}),
//	})
//	provider.AddPackage(coreJS, SimpleVersion("2.0.0"), nil)
type MemoryProvider struct {
	Packages map[Name]map[Version][]Term
}

// NewMemoryProvider returns an empty MemoryProvider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{Packages: make(map[Name]map[Version][]Term)}
}

// AddPackage adds a package version with its dependencies to the provider.
func (p *MemoryProvider) AddPackage(name Name, version Version, deps []Term) {
	if p.Packages == nil {
		p.Packages = make(map[Name]map[Version][]Term)
	}
	if _, ok := p.Packages[name]; !ok {
		p.Packages[name] = make(map[Version][]Term)
	}
	p.Packages[name][version] = deps
}

// sortedVersions returns name's known versions in ascending order.
func (p *MemoryProvider) sortedVersions(name Name) []Version {
	versions, ok := p.Packages[name]
	if !ok {
		return nil
	}
	result := make([]Version, 0, len(versions))
	for v := range versions {
		result = append(result, v)
	}
	slices.SortFunc(result, func(a, b Version) int {
		return a.Sort(b)
	})
	return result
}

// ChoosePackageVersion implements DependencyProvider.
func (p *MemoryProvider) ChoosePackageVersion(candidates iter.Seq2[Name, VersionSet]) (Name, Version, error) {
	var bestName Name
	var bestAllowed []Version
	bestCount := -1
	haveCandidate := false

	for name, allowed := range candidates {
		matches := p.matchingVersions(name, allowed)
		if !haveCandidate || len(matches) < bestCount {
			bestName, bestAllowed, bestCount, haveCandidate = name, matches, len(matches), true
		}
	}

	if !haveCandidate {
		return EmptyName(), nil, nil
	}
	if len(bestAllowed) == 0 {
		return bestName, nil, nil
	}
	return bestName, bestAllowed[len(bestAllowed)-1], nil
}

func (p *MemoryProvider) matchingVersions(name Name, allowed VersionSet) []Version {
	var matches []Version
	for _, v := range p.sortedVersions(name) {
		if allowed == nil || allowed.Contains(v) {
			matches = append(matches, v)
		}
	}
	return matches
}

// GetDependencies implements DependencyProvider.
func (p *MemoryProvider) GetDependencies(name Name, version Version) (DependencyResult, error) {
	versions, ok := p.Packages[name]
	if !ok {
		return Unknown(), nil
	}
	deps, ok := versions[version]
	if !ok {
		return Unknown(), nil
	}
	return Known(deps), nil
}

// ShouldCancel implements DependencyProvider; MemoryProvider never cancels.
func (p *MemoryProvider) ShouldCancel() error {
	return nil
}

var _ DependencyProvider = (*MemoryProvider)(nil)
