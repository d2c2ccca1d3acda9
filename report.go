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

// Reporter formats a DerivationTree into a human-readable explanation of
// why version solving failed.
type Reporter interface {
	Report(tree *DerivationTree) string
}

// DefaultReporter renders the full derivation tree with nested indentation,
// printing a shared sub-proof in full once and referencing it by its
// incompatibility text on later visits.
type DefaultReporter struct{}

// Report implements Reporter.
func (r *DefaultReporter) Report(tree *DerivationTree) string {
	if tree == nil {
		return "no solution found"
	}
	var lines []string
	r.reportNode(tree, &lines, 0, make(map[*DerivationTree]bool))
	return strings.Join(lines, "\n")
}

func (r *DefaultReporter) reportNode(node *DerivationTree, lines *[]string, depth int, printed map[*DerivationTree]bool) {
	indent := strings.Repeat("  ", depth)
	incomp := node.Incompat

	if node.Kind == External {
		*lines = append(*lines, indent+externalLine(incomp))
		return
	}

	if printed[node] {
		*lines = append(*lines, fmt.Sprintf("%s(see above: %s)", indent, incomp.String()))
		return
	}

	*lines = append(*lines, indent+"Because:")
	r.reportNode(node.Cause1, lines, depth+1, printed)
	*lines = append(*lines, indent+"and:")
	r.reportNode(node.Cause2, lines, depth+1, printed)
	*lines = append(*lines, indent+conclusionLine(incomp))

	if node.Shared {
		printed[node] = true
	}
}

// CollapsedReporter produces a flatter format, one step per line with each
// line after the first prefixed by "And because ", without the nested
// indentation DefaultReporter uses.
type CollapsedReporter struct{}

// Report implements Reporter.
func (r *CollapsedReporter) Report(tree *DerivationTree) string {
	if tree == nil {
		return "no solution found"
	}

	var lines []string
	r.collectLines(tree, &lines, make(map[*DerivationTree]bool))

	if len(lines) == 0 {
		return "version solving failed"
	}

	result := lines[0]
	for _, line := range lines[1:] {
		result += "\nAnd because " + line
	}
	return result
}

func (r *CollapsedReporter) collectLines(node *DerivationTree, lines *[]string, printed map[*DerivationTree]bool) {
	incomp := node.Incompat

	if node.Kind == External {
		*lines = append(*lines, externalLine(incomp))
		return
	}

	if printed[node] {
		return
	}

	r.collectLines(node.Cause1, lines, printed)
	r.collectLines(node.Cause2, lines, printed)
	*lines = append(*lines, conclusionLine(incomp))

	if node.Shared {
		printed[node] = true
	}
}

// externalLine renders a leaf incompatibility (one handed to the solver
// directly, rather than learned via conflict resolution).
func externalLine(incomp *Incompatibility) string {
	switch incomp.Kind {
	case KindNoVersions:
		if len(incomp.Terms) > 0 {
			return fmt.Sprintf("no versions of %s satisfy the constraint", incomp.Terms[0])
		}
	case KindFromDependencyOf:
		if len(incomp.Terms) == 2 {
			dep := incomp.Terms[1]
			if !dep.Positive {
				dep = dep.Negate()
			}
			return fmt.Sprintf("%s %s depends on %s", incomp.Package.Value(), incomp.Version, dep)
		}
	case KindUnavailableDependencies:
		return fmt.Sprintf("dependencies of %s %s could not be determined", incomp.Package.Value(), incomp.Version)
	}
	return incomp.String()
}

// conclusionLine renders what a derived incompatibility's terms mean once
// both of its causes have been explained.
func conclusionLine(incomp *Incompatibility) string {
	switch len(incomp.Terms) {
	case 0:
		return "version solving has failed."
	case 1:
		return fmt.Sprintf("%s is forbidden.", incomp.Terms[0])
	default:
		parts := make([]string, len(incomp.Terms))
		for i, term := range incomp.Terms {
			parts[i] = term.String()
		}
		return fmt.Sprintf("these constraints conflict: %s", strings.Join(parts, " and "))
	}
}

var (
	_ Reporter = (*DefaultReporter)(nil)
	_ Reporter = (*CollapsedReporter)(nil)
)
