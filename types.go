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

// Version represents a package version in the dependency resolution system.
// Implementations must provide string representation and comparison.
//
// The solver is version-type agnostic - any type can be used as long as it
// implements this interface. Built-in implementations include:
//   - SimpleVersion: Lexicographic string comparison
//   - SemanticVersion: semver.org ordering, backed by blang/semver
type Version interface {
	// String returns a human-readable representation of the version.
	String() string

	// Sort compares this version to another.
	// Returns:
	//   - negative if this version < other
	//   - zero if this version == other
	//   - positive if this version > other
	Sort(other Version) int
}

// Condition represents a constraint on package versions.
//
// Built-in implementations:
//   - EqualsCondition: Exact version match
//   - VersionSetCondition: Version range constraints
type Condition interface {
	// String returns a human-readable representation of the condition.
	String() string

	// Satisfies returns true if the given version meets the condition.
	Satisfies(ver Version) bool
}

// VersionSetConverter is an optional interface that Condition implementations
// can provide to enable conversion to VersionSet for use with the CDCL solver.
//
// The solver needs to perform set operations (intersection, union,
// complement) on version constraints. Conditions that implement this
// interface can participate in these operations, enabling them to work with
// unit propagation and conflict resolution. Built-in conditions
// (EqualsCondition, VersionSetCondition) already implement it.
type VersionSetConverter interface {
	// ToVersionSet converts the condition to a VersionSet for algebraic operations.
	ToVersionSet() VersionSet
}

// DependencyResultKind distinguishes the three outcomes GetDependencies can
// report for a package version: its dependencies are known, they are not yet
// knowable (the version doesn't actually exist, or was withdrawn), or
// retrieving them failed outright.
type DependencyResultKind int

const (
	// DependenciesUnknown means the requested package version does not
	// exist (or its dependency list could not be determined), without this
	// being a hard error — the solver simply treats it as unavailable.
	DependenciesUnknown DependencyResultKind = iota
	// DependenciesKnown carries the resolved dependency terms.
	DependenciesKnown
	// DependenciesErr carries a hard failure retrieving dependency data.
	DependenciesErr
)

// DependencyResult is the three-way return value of DependencyProvider.GetDependencies.
type DependencyResult struct {
	Kind DependencyResultKind
	Deps []Term
	Err  error
}

// Known builds a DependencyResult carrying a resolved dependency list.
func Known(deps []Term) DependencyResult {
	return DependencyResult{Kind: DependenciesKnown, Deps: deps}
}

// Unknown builds a DependencyResult reporting that the version's
// dependencies cannot be determined (it does not exist).
func Unknown() DependencyResult {
	return DependencyResult{Kind: DependenciesUnknown}
}

// ErrResult builds a DependencyResult reporting a hard retrieval failure.
func ErrResult(err error) DependencyResult {
	return DependencyResult{Kind: DependenciesErr, Err: err}
}

// DependencyProvider is the external oracle the solver consults for
// candidate versions and their dependencies. It is the only collaborator
// the core state machine talks to; everything about where packages and
// their metadata actually live is hidden behind this interface.
//
// Built-in implementations:
//   - MemoryProvider: static in-memory package/version/dependency table
//   - CombinedProvider: fan-out across several providers
//   - CachedProvider: memoizes a slower provider
type DependencyProvider interface {
	// ChoosePackageVersion is handed the set of packages the solver still
	// needs a decision for, each paired with the version range it is
	// currently constrained to, and picks one (package, version) to try
	// next. Returning a zero Name picks none and lets the solver report
	// completeness; any error aborts the solve as ErrorChoosingPackageVersion.
	ChoosePackageVersion(candidates iter.Seq2[Name, VersionSet]) (Name, Version, error)

	// GetDependencies returns the dependencies of a specific package
	// version, or reports that the version doesn't exist, or that
	// retrieval failed.
	GetDependencies(pkg Name, version Version) (DependencyResult, error)

	// ShouldCancel is polled once per top-level solver iteration. A
	// non-nil error aborts the solve as ErrorInShouldCancel.
	ShouldCancel() error
}
