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
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestComplexRubyGemsScenario tests a more realistic scenario with multiple
// packages that all transitively depend on a shared dependency.
//
// This simulates what happens in a real Rails project where many gems
// depend on common utilities like rubyzip, and wrong version choices
// early in the search can lead to dead ends.
//
// Package structure:
// - app → [roo, rubyXL, caxlsx, zip_tricks]
// - All four packages use rubyzip with different constraints
// - The solver must choose a rubyzip version that works for ALL of them
func TestComplexRubyGemsScenario(t *testing.T) {
	provider := NewMemoryProvider()
	mustVersion := func(s string) Version {
		v, err := ParseSemanticVersion(s)
		if err != nil {
			t.Fatalf("ParseSemanticVersion(%q): %v", s, err)
		}
		return v
	}
	mustRange := func(name Name, s string) Term {
		set, err := ParseVersionRange(s)
		if err != nil {
			t.Fatalf("ParseVersionRange(%q): %v", s, err)
		}
		return NewTerm(name, NewVersionSetCondition(set))
	}

	rubyzip := MakeName("rubyzip")
	roo := MakeName("roo")
	rubyXL := MakeName("rubyXL")
	caxlsx := MakeName("caxlsx")
	zipTricks := MakeName("zip_tricks")

	// rubyzip versions (shared dependency).
	for _, v := range []string{"1.3.0", "2.3.0", "2.4.0", "2.4.1", "3.0.0", "3.1.0"} {
		provider.AddPackage(rubyzip, mustVersion(v), nil)
	}

	// roo: old versions require rubyzip >= 3.0; only 2.10.1 works with the
	// older rubyzip line.
	provider.AddPackage(roo, mustVersion("2.1.0"), []Term{mustRange(rubyzip, ">=3.0.0, <4.0.0")})
	provider.AddPackage(roo, mustVersion("2.5.0"), []Term{mustRange(rubyzip, ">=3.0.0, <4.0.0")})
	provider.AddPackage(roo, mustVersion("2.9.0"), []Term{mustRange(rubyzip, ">=3.0.0, <4.0.0")})
	provider.AddPackage(roo, mustVersion("2.10.1"), []Term{mustRange(rubyzip, ">=1.3.0, <3.0.0")})
	provider.AddPackage(roo, mustVersion("3.0.0"), []Term{mustRange(rubyzip, ">=3.0.0, <4.0.0")})

	// rubyXL: every version requires rubyzip ~> 2.4.
	provider.AddPackage(rubyXL, mustVersion("3.4.14"), []Term{mustRange(rubyzip, ">=2.4.0, <3.0.0")})
	provider.AddPackage(rubyXL, mustVersion("3.4.25"), []Term{mustRange(rubyzip, ">=2.4.0, <3.0.0")})
	provider.AddPackage(rubyXL, mustVersion("3.4.34"), []Term{mustRange(rubyzip, ">=2.4.0, <3.0.0")})

	// caxlsx depends on rubyzip too, with a wider range.
	provider.AddPackage(caxlsx, mustVersion("3.3.0"), []Term{mustRange(rubyzip, ">=1.6.0, <3.0.0")})
	provider.AddPackage(caxlsx, mustVersion("4.0.0"), []Term{mustRange(rubyzip, ">=2.3.0, <4.0.0")})

	// zip_tricks prefers the older rubyzip line.
	provider.AddPackage(zipTricks, mustVersion("5.6.0"), []Term{mustRange(rubyzip, ">=1.3.0, <3.0.0")})

	app := MakeName("app")
	appVersion := SimpleVersion("0.0.0")
	provider.AddPackage(app, appVersion, []Term{
		NewTerm(roo, NewVersionSetCondition(FullVersionSet())),
		NewTerm(rubyXL, NewVersionSetCondition(FullVersionSet())),
		NewTerm(caxlsx, NewVersionSetCondition(FullVersionSet())),
		NewTerm(zipTricks, NewVersionSetCondition(FullVersionSet())),
	})

	solver := NewSolver(provider)
	solution, err := solver.Solve(app, appVersion)
	if err != nil {
		t.Fatalf("Expected solution but got error: %v", err)
	}

	solutionMap := make(map[string]string)
	for _, pkg := range solution {
		solutionMap[pkg.Name.Value()] = pkg.Version.String()
	}

	// The only assignment satisfying every constraint at once picks rubyzip
	// from the intersection >= 2.4.0, < 3.0.0 → rubyzip 2.4.1.
	want := map[string]string{
		"roo":     "2.10.1",
		"rubyzip": "2.4.1",
	}
	got := map[string]string{
		"roo":     solutionMap["roo"],
		"rubyzip": solutionMap["rubyzip"],
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("solution mismatch (-want +got):\n%s", diff)
	}

	t.Logf("Solution found:")
	for name, version := range solutionMap {
		t.Logf("  %s = %s", name, version)
	}
}
