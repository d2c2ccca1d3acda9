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
	"strings"
)

// IncompatibilityKind records why an incompatibility exists, mirroring the
// five provenance variants a CDCL version solver's incompatibility store
// tracks.
type IncompatibilityKind int

const (
	// KindNotRoot is the single incompatibility seeded at init: {not root}.
	// It never holds, which is exactly what makes the root package solvable.
	KindNotRoot IncompatibilityKind = iota
	// KindNoVersions means no published version satisfies a term.
	KindNoVersions
	// KindUnavailableDependencies means dependency retrieval for a package
	// version failed or reported it doesn't exist.
	KindUnavailableDependencies
	// KindFromDependencyOf means a specific package version depends on a term.
	KindFromDependencyOf
	// KindDerivedFrom means the incompatibility was learned during conflict
	// resolution's prior_cause loop, from two earlier incompatibilities.
	KindDerivedFrom
)

// Incompatibility is a conjunction of terms asserted to never all hold
// simultaneously. Derived incompatibilities reference the two
// incompatibilities they were resolved from by arena id, not by pointer, so
// the learned-incompatibility graph stays a plain DAG of small integers.
type Incompatibility struct {
	Terms []Term
	Kind  IncompatibilityKind

	// Cause1 and Cause2 are set when Kind == KindDerivedFrom.
	Cause1 IncompId
	Cause2 IncompId

	// Package and Version are set when Kind == KindFromDependencyOf or
	// KindUnavailableDependencies.
	Package Name
	Version Version
}

// NewIncompatibilityNotRoot builds the terminal {not root} incompatibility
// Init allocates for the given root package and version.
func NewIncompatibilityNotRoot(root Name, rootVersion Version) *Incompatibility {
	return &Incompatibility{
		Terms:   []Term{NewNegativeTerm(root, EqualsCondition{Version: rootVersion})},
		Kind:    KindNotRoot,
		Package: root,
		Version: rootVersion,
	}
}

// NewIncompatibilityNoVersions builds {term}, asserting no published version
// satisfies term.
func NewIncompatibilityNoVersions(term Term) *Incompatibility {
	return &Incompatibility{
		Terms: []Term{term},
		Kind:  KindNoVersions,
	}
}

// NewIncompatibilityUnavailableDependencies builds {pkg == version},
// asserting that pkg's dependency list could not be retrieved (distinct
// from KindNoVersions: the version exists, its metadata doesn't).
func NewIncompatibilityUnavailableDependencies(pkg Name, version Version) *Incompatibility {
	return &Incompatibility{
		Terms:   []Term{NewTerm(pkg, EqualsCondition{Version: version})},
		Kind:    KindUnavailableDependencies,
		Package: pkg,
		Version: version,
	}
}

// NewIncompatibilityFromDependency builds {pkg == version, not dependency}:
// "pkg version depends on dependency".
func NewIncompatibilityFromDependency(pkg Name, version Version, dependency Term) *Incompatibility {
	base := NewTerm(pkg, EqualsCondition{Version: version})
	terms := []Term{base, dependency.Negate()}
	return &Incompatibility{
		Terms:   terms,
		Kind:    KindFromDependencyOf,
		Package: pkg,
		Version: version,
	}
}

// NewIncompatibilityDerived builds a learned incompatibility from a
// prior_cause resolution step, deduplicating terms by package name (the
// same package can appear in both causes; the resolution rule merges them
// before this constructor ever sees duplicates, but a defensive dedup here
// keeps the invariant explicit).
func NewIncompatibilityDerived(terms []Term, cause1, cause2 IncompId) *Incompatibility {
	seen := make(map[Name]bool, len(terms))
	deduped := make([]Term, 0, len(terms))
	for _, term := range terms {
		if seen[term.Name] {
			continue
		}
		seen[term.Name] = true
		deduped = append(deduped, term)
	}

	return &Incompatibility{
		Terms:  deduped,
		Kind:   KindDerivedFrom,
		Cause1: cause1,
		Cause2: cause2,
	}
}

// IsTerminal reports whether inc is the stopping condition for conflict
// resolution: either the empty incompatibility, or a single term asserting
// the root package itself — meaning the contradiction has been traced all
// the way back to "the root cannot be installed" and there is no decision
// level left to backtrack to.
func (inc *Incompatibility) IsTerminal(root Name) bool {
	if len(inc.Terms) == 0 {
		return true
	}
	if len(inc.Terms) == 1 && inc.Terms[0].Name == root && inc.Terms[0].Positive {
		return true
	}
	return false
}

// String renders a human-readable explanation of the incompatibility,
// matching the conventional "X depends on Y" / "X is forbidden" phrasing a
// derivation tree reporter builds sentences from.
func (inc *Incompatibility) String() string {
	if len(inc.Terms) == 0 {
		return "version solving failed"
	}

	if len(inc.Terms) == 1 {
		if inc.Kind == KindNotRoot {
			return fmt.Sprintf("%s is forbidden", inc.Terms[0].Negate())
		}
		return fmt.Sprintf("%s is forbidden", inc.Terms[0])
	}

	if inc.Kind == KindFromDependencyOf && len(inc.Terms) == 2 {
		var dep Term
		for _, term := range inc.Terms {
			if term.Name != inc.Package {
				dep = term
				break
			}
		}
		if !dep.Positive {
			dep = dep.Negate()
		}
		return fmt.Sprintf("%s %s depends on %s", inc.Package.Value(), inc.Version, dep)
	}

	parts := make([]string, len(inc.Terms))
	for i, term := range inc.Terms {
		parts[i] = term.String()
	}
	return fmt.Sprintf("%s are incompatible", strings.Join(parts, " and "))
}
