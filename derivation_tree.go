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

// DerivationTreeKind distinguishes a leaf of a derivation tree (an
// incompatibility handed to the solver directly, by Init or the
// dependency provider) from an internal node (one learned by resolving
// two earlier incompatibilities together).
type DerivationTreeKind int

const (
	// External marks a leaf: the incompatibility came from outside conflict
	// resolution (NotRoot, NoVersions, UnavailableDependencies, FromDependencyOf).
	External DerivationTreeKind = iota
	// Derived marks an internal node learned via prior_cause.
	Derived
)

// DerivationTree is the explanation graph built from the arena once the
// solver fails: walking it top-down reconstructs the chain of reasoning
// that proves no solution exists. Shared marks a node reached by more than
// one path, so a reporter can print it once and reference it thereafter
// instead of duplicating the sub-proof.
type DerivationTree struct {
	Kind     DerivationTreeKind
	Incompat *Incompatibility // always set; the incompatibility this node explains
	Cause1   *DerivationTree  // set when Kind == Derived
	Cause2   *DerivationTree
	Shared   bool
}

// BuildDerivationTree walks the arena starting at root and produces the
// corresponding DerivationTree, with shared sub-proofs detected ahead of
// time so the tree itself carries that information rather than requiring
// the reporter to track a visited set.
func BuildDerivationTree(arena *Arena, root IncompId) *DerivationTree {
	shared := findSharedIds(arena, root)
	built := make(map[IncompId]*DerivationTree)
	return buildNode(arena, root, shared, built)
}

func buildNode(arena *Arena, id IncompId, shared map[IncompId]bool, built map[IncompId]*DerivationTree) *DerivationTree {
	if node, ok := built[id]; ok {
		return node
	}

	incomp := arena.Get(id)
	node := &DerivationTree{Incompat: incomp, Shared: shared[id]}

	if incomp.Kind == KindDerivedFrom {
		node.Kind = Derived
		node.Cause1 = buildNode(arena, incomp.Cause1, shared, built)
		node.Cause2 = buildNode(arena, incomp.Cause2, shared, built)
	} else {
		node.Kind = External
	}

	built[id] = node
	return node
}

// findSharedIds performs a DFS from root over the cause DAG and marks an id
// shared the second time it is visited — the same rule the CDCL core's
// Rust original uses to detect sub-proofs reachable by more than one path.
func findSharedIds(arena *Arena, root IncompId) map[IncompId]bool {
	visited := make(map[IncompId]bool)
	shared := make(map[IncompId]bool)

	var visit func(id IncompId)
	visit = func(id IncompId) {
		if visited[id] {
			shared[id] = true
			return
		}
		visited[id] = true

		incomp := arena.Get(id)
		if incomp.Kind == KindDerivedFrom {
			visit(incomp.Cause1)
			visit(incomp.Cause2)
		}
	}
	visit(root)

	return shared
}
