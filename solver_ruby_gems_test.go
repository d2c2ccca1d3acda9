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

import "testing"

// TestRubyGemsRooRubyXLConflict exercises a real-world-shaped scenario from
// the Ruby gems ecosystem where a naive search order would waste time
// exploring incompatible high versions before backtracking to the one
// version that actually satisfies every constraint.
//
// The scenario:
//   - app depends on: roo (any) and rubyXL (any)
//   - roo has versions: 2.1.0, 2.10.1, 3.0.0
//   - roo 2.1.0 depends on rubyzip >= 3.0.0, < 4.0.0
//   - roo 2.10.1 depends on rubyzip >= 1.3.0, < 3.0.0  (compatible!)
//   - roo 3.0.0 depends on rubyzip >= 3.0.0, < 4.0.0
//   - rubyXL has versions: 3.4.14, 3.4.34
//   - rubyXL 3.4.14 depends on rubyzip ~> 2.4 (>= 2.4.0, < 3.0.0)
//   - rubyXL 3.4.34 depends on rubyzip ~> 2.4 (>= 2.4.0, < 3.0.0)
//   - rubyzip has versions: 2.3.0, 2.4.0, 2.4.1, 3.0.0
//
// Expected solution:
//   - roo 2.10.1 (requires rubyzip >= 1.3.0, < 3.0.0)
//   - rubyXL 3.4.34 (requires rubyzip >= 2.4.0, < 3.0.0)
//   - rubyzip 2.4.1 (satisfies both: >= 2.4.0 and < 3.0.0)
func TestRubyGemsRooRubyXLConflict(t *testing.T) {
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

	for _, v := range []string{"2.3.0", "2.4.0", "2.4.1", "3.0.0"} {
		provider.AddPackage(rubyzip, mustVersion(v), nil)
	}

	provider.AddPackage(roo, mustVersion("2.1.0"), []Term{mustRange(rubyzip, ">=3.0.0, <4.0.0")})
	provider.AddPackage(roo, mustVersion("2.10.1"), []Term{mustRange(rubyzip, ">=1.3.0, <3.0.0")})
	provider.AddPackage(roo, mustVersion("3.0.0"), []Term{mustRange(rubyzip, ">=3.0.0, <4.0.0")})

	provider.AddPackage(rubyXL, mustVersion("3.4.14"), []Term{mustRange(rubyzip, ">=2.4.0, <3.0.0")})
	provider.AddPackage(rubyXL, mustVersion("3.4.34"), []Term{mustRange(rubyzip, ">=2.4.0, <3.0.0")})

	app := MakeName("app")
	appVersion := SimpleVersion("0.0.0")
	provider.AddPackage(app, appVersion, []Term{
		NewTerm(roo, NewVersionSetCondition(FullVersionSet())),
		NewTerm(rubyXL, NewVersionSetCondition(FullVersionSet())),
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

	if solutionMap["roo"] != "2.10.1" {
		t.Errorf("Expected roo 2.10.1, got %s", solutionMap["roo"])
	}
	if solutionMap["rubyXL"] != "3.4.34" {
		t.Errorf("Expected rubyXL 3.4.34, got %s", solutionMap["rubyXL"])
	}
	if solutionMap["rubyzip"] != "2.4.1" {
		t.Errorf("Expected rubyzip 2.4.1, got %s", solutionMap["rubyzip"])
	}

	t.Logf("Solution found:")
	for name, version := range solutionMap {
		t.Logf("  %s = %s", name, version)
	}
}
