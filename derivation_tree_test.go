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

// TestBuildDerivationTree_Linear checks a simple two-leaf derived node builds
// a Derived root with two External children, neither shared.
func TestBuildDerivationTree_Linear(t *testing.T) {
	arena := NewArena()

	leaf1 := arena.Alloc(NewIncompatibilityNoVersions(
		NewTerm(MakeName("A"), EqualsCondition{Version: SimpleVersion("1.0.0")})))
	leaf2 := arena.Alloc(NewIncompatibilityNoVersions(
		NewTerm(MakeName("B"), EqualsCondition{Version: SimpleVersion("1.0.0")})))
	root := arena.Alloc(NewIncompatibilityDerived(nil, leaf1, leaf2))

	tree := BuildDerivationTree(arena, root)

	if tree.Kind != Derived {
		t.Fatalf("expected root node to be Derived, got %v", tree.Kind)
	}
	if tree.Cause1.Kind != External || tree.Cause2.Kind != External {
		t.Fatalf("expected both causes to be External leaves")
	}
	if tree.Shared || tree.Cause1.Shared || tree.Cause2.Shared {
		t.Fatalf("expected no node to be marked shared in a linear (non-diamond) tree")
	}
}

// TestBuildDerivationTree_DiamondSharesSubProof builds a diamond DAG where
// both branches of the top-level conflict resolve back through the same
// intermediate incompatibility, and checks that shared intermediate is
// marked Shared exactly once rather than duplicated.
func TestBuildDerivationTree_DiamondSharesSubProof(t *testing.T) {
	arena := NewArena()

	leafA := arena.Alloc(NewIncompatibilityNoVersions(
		NewTerm(MakeName("A"), EqualsCondition{Version: SimpleVersion("1.0.0")})))
	leafB := arena.Alloc(NewIncompatibilityNoVersions(
		NewTerm(MakeName("B"), EqualsCondition{Version: SimpleVersion("1.0.0")})))

	// shared is derived once, then referenced by id from two different
	// higher-level derivations below, forming the diamond.
	shared := arena.Alloc(NewIncompatibilityDerived(nil, leafA, leafB))

	leafC := arena.Alloc(NewIncompatibilityNoVersions(
		NewTerm(MakeName("C"), EqualsCondition{Version: SimpleVersion("1.0.0")})))
	branch1 := arena.Alloc(NewIncompatibilityDerived(nil, shared, leafC))

	leafD := arena.Alloc(NewIncompatibilityNoVersions(
		NewTerm(MakeName("D"), EqualsCondition{Version: SimpleVersion("1.0.0")})))
	branch2 := arena.Alloc(NewIncompatibilityDerived(nil, shared, leafD))

	top := arena.Alloc(NewIncompatibilityDerived(nil, branch1, branch2))

	tree := BuildDerivationTree(arena, top)

	if tree.Kind != Derived {
		t.Fatalf("expected top node to be Derived")
	}

	sharedFromBranch1 := tree.Cause1.Cause1
	sharedFromBranch2 := tree.Cause2.Cause1

	if sharedFromBranch1 != sharedFromBranch2 {
		t.Fatalf("expected both branches to reference the identical *DerivationTree node for the shared sub-proof")
	}
	if !sharedFromBranch1.Shared {
		t.Fatalf("expected the shared sub-proof to be marked Shared")
	}
	if tree.Shared || tree.Cause1.Shared || tree.Cause2.Shared {
		t.Fatalf("expected only the genuinely-revisited node to be marked Shared")
	}
}

func TestBuildDerivationTree_ExternalLeafHasNoCauses(t *testing.T) {
	arena := NewArena()
	leaf := arena.Alloc(NewIncompatibilityNoVersions(
		NewTerm(MakeName("A"), EqualsCondition{Version: SimpleVersion("1.0.0")})))

	tree := BuildDerivationTree(arena, leaf)

	if tree.Kind != External {
		t.Fatalf("expected leaf node to be External")
	}
	if tree.Cause1 != nil || tree.Cause2 != nil {
		t.Fatalf("expected an External node to carry no causes")
	}
}
