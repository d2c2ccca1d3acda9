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

import "iter"

// CombinedProvider fans a solve out across several DependencyProviders,
// consulting them in order. GetDependencies returns the first provider's
// Known result; ChoosePackageVersion delegates to the first provider that
// offers a decision for the given candidates.
//
// Useful for combining a local override provider with a remote registry
// provider, or layering a test fixture over a production source.
//
// Example:
//
//	local := NewMemoryProvider()
//	remote := NewRegistryProvider(client)
//	combined := CombinedProvider{local, remote}
//	solver := NewSolver(combined)
type CombinedProvider []DependencyProvider

// ChoosePackageVersion implements DependencyProvider by asking each member
// provider in order and returning the first one that actually finds a
// version for its candidate package. A provider reporting a candidate
// package with no matching version (name set, version nil) is not a
// decision — it only wins if no later provider does better, so combining a
// narrow override provider with a full registry still lets the registry's
// match through.
func (c CombinedProvider) ChoosePackageVersion(candidates iter.Seq2[Name, VersionSet]) (Name, Version, error) {
	var fallbackName Name
	haveFallback := false

	for _, provider := range c {
		name, version, err := provider.ChoosePackageVersion(candidates)
		if err != nil {
			return EmptyName(), nil, err
		}
		if name == EmptyName() {
			continue
		}
		if version != nil {
			return name, version, nil
		}
		if !haveFallback {
			fallbackName, haveFallback = name, true
		}
	}
	if haveFallback {
		return fallbackName, nil, nil
	}
	return EmptyName(), nil, nil
}

// GetDependencies implements DependencyProvider by returning the first
// member provider's Known (or Err) result, falling through on Unknown.
func (c CombinedProvider) GetDependencies(name Name, version Version) (DependencyResult, error) {
	for _, provider := range c {
		result, err := provider.GetDependencies(name, version)
		if err != nil {
			return DependencyResult{}, err
		}
		if result.Kind != DependenciesUnknown {
			return result, nil
		}
	}
	return Unknown(), nil
}

// ShouldCancel implements DependencyProvider, cancelling if any member does.
func (c CombinedProvider) ShouldCancel() error {
	for _, provider := range c {
		if err := provider.ShouldCancel(); err != nil {
			return err
		}
	}
	return nil
}

var _ DependencyProvider = CombinedProvider{}
