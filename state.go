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
	"errors"
	"iter"

	"github.com/sirupsen/logrus"
)

// solverState maintains all mutable state during CDCL-based dependency resolution.
// It coordinates between:
//   - The partial solution (current assignments and decisions)
//   - The arena of incompatibilities (learned conflicts and dependency constraints)
//   - The unit propagation queue (packages needing constraint propagation)
//
// The solver state implements the core CDCL algorithm:
//  1. Make decisions (pick package versions, via the DependencyProvider)
//  2. Propagate constraints (unit propagation)
//  3. Detect conflicts (incompatibility satisfaction)
//  4. Analyze conflicts (conflict resolution)
//  5. Learn clauses (merge derived incompatibilities into the arena's index)
//  6. Backtrack (undo decisions to an earlier level)
type solverState struct {
	provider          DependencyProvider  // package version/dependency oracle
	options           SolverOptions       // solver configuration
	partial           *partialSolution    // current partial solution
	arena             *Arena              // append-only store of all incompatibilities
	incompatibilities map[Name][]IncompId // per-package propagation index, oldest id first
	root              Name                // root package name
	queue             []Name              // unit propagation queue
	queued            map[Name]bool       // tracks which packages are queued
	learned           []IncompId          // every incompatibility merged, when options.TrackIncompatibilities
}

// newSolverState creates a solver state for root at rootVersion, seeding the
// arena with the NotRoot incompatibility init allocates.
func newSolverState(provider DependencyProvider, options SolverOptions, root Name, rootVersion Version) *solverState {
	st := &solverState{
		provider:          provider,
		options:           options,
		partial:           newPartialSolution(root),
		arena:             NewArena(),
		incompatibilities: make(map[Name][]IncompId),
		root:              root,
		queue:             make([]Name, 0),
		queued:            make(map[Name]bool),
	}
	st.init(root, rootVersion)
	return st
}

// init seeds the arena with {not root == rootVersion} and the partial
// solution with root's own decision at level 0, per the algorithm's
// standard starting position: root is never itself a candidate for
// backtracking.
func (st *solverState) init(root Name, rootVersion Version) {
	id := st.arena.Alloc(NewIncompatibilityNotRoot(root, rootVersion))
	st.mergeIncompatibility(id)
	st.partial.seedRoot(root, rootVersion)
}

// mergeIncompatibility registers an already-allocated incompatibility into
// the per-package propagation index for every package it mentions, not only
// whichever package triggered conflict resolution: a term for any of those
// packages can make the incompatibility almost-satisfied, so propagation
// must be able to discover it starting from any of them.
func (st *solverState) mergeIncompatibility(id IncompId) {
	inc := st.arena.Get(id)
	for _, term := range inc.Terms {
		st.incompatibilities[term.Name] = append(st.incompatibilities[term.Name], id)
	}
	if st.options.TrackIncompatibilities {
		st.learned = append(st.learned, id)
	}
}

// enqueue adds a package to the unit propagation queue if not already queued.
func (st *solverState) enqueue(name Name) {
	if name == EmptyName() || st.queued[name] {
		return
	}
	st.queue = append(st.queue, name)
	st.queued[name] = true
}

// dequeue removes and returns the next package from the propagation queue.
func (st *solverState) dequeue() (Name, bool) {
	if len(st.queue) == 0 {
		return EmptyName(), false
	}
	name := st.queue[0]
	st.queue = st.queue[1:]
	delete(st.queued, name)
	return name, true
}

func (st *solverState) debug(msg string, fields logrus.Fields) {
	if st.options.Logger == nil {
		return
	}
	st.options.Logger.WithFields(fields).Debug(msg)
}

func (st *solverState) traceAssignment(event string, assign *assignment) {
	if st.options.Logger == nil || assign == nil {
		return
	}
	st.options.Logger.WithFields(logrus.Fields{
		"event":   event,
		"package": assign.name.Value(),
		"detail":  assign.describe(),
	}).Debug("assignment")
}

// candidates yields every package still awaiting a decision paired with its
// current allowed version set, the input ChoosePackageVersion selects from.
func (st *solverState) candidates() iter.Seq2[Name, VersionSet] {
	return func(yield func(Name, VersionSet) bool) {
		for _, name := range st.partial.pendingPackages() {
			if !yield(name, st.partial.allowedSet(name)) {
				return
			}
		}
	}
}

// propagate performs unit propagation starting from start. Returns the id of
// a conflicting incompatibility and true if one is detected, or (0, false)
// if propagation drains the queue without finding one.
//
// Unit propagation iteratively:
//  1. Dequeues a package from the propagation queue
//  2. Checks that package's incompatibilities newest-first, so a clause
//     learned later (and therefore more specific to the current state)
//     is tried before older, broader ones
//  3. If an incompatibility is "almost satisfied" (one unsatisfied term),
//     derives the negation of that term as a new constraint
//  4. Enqueues newly constrained packages for further propagation
func (st *solverState) propagate(start Name) (IncompId, bool, error) {
	st.enqueue(start)

	for {
		pkg, ok := st.dequeue()
		if !ok {
			return 0, false, nil
		}

		for id := range newest(st.incompatibilities[pkg]) {
			inc := st.arena.Get(id)
			relation, unsatisfied, err := st.evaluateIncompatibility(inc)
			if err != nil {
				return 0, false, err
			}

			switch relation {
			case relationSatisfied:
				st.debug("conflict detected during propagation", logrus.Fields{
					"package":         pkg.Value(),
					"incompatibility": inc.String(),
				})
				return id, true, nil
			case relationAlmostSatisfied:
				if unsatisfied == nil {
					continue
				}
				derived := unsatisfied.Negate()
				st.debug("unit propagation", logrus.Fields{
					"package":         pkg.Value(),
					"incompatibility": inc.String(),
					"derived_term":    derived.String(),
				})
				assign, changed, err := st.partial.addDerivation(derived, id)
				if errors.Is(err, errNoAllowedVersions) {
					return id, true, nil
				}
				if err != nil {
					return 0, false, err
				}
				if assign != nil {
					st.traceAssignment("derivation", assign)
				}
				if changed && assign != nil {
					st.enqueue(assign.name)
				}
			}
		}
	}
}

// incompatibilityRelation describes the relationship between an incompatibility
// and the current partial solution.
type incompatibilityRelation int

const (
	relationSatisfied       incompatibilityRelation = iota // All terms satisfied (conflict!)
	relationAlmostSatisfied                                // All but one term satisfied (unit propagation)
	relationContradicted                                   // At least one term contradicted (incompatibility inapplicable)
	relationInconclusive                                   // Multiple terms unsatisfied (wait for more decisions)
)

// evaluateIncompatibility determines the relationship between an incompatibility
// and the current partial solution.
func (st *solverState) evaluateIncompatibility(inc *Incompatibility) (incompatibilityRelation, *Term, error) {
	var unsatisfied *Term

	for _, term := range inc.Terms {
		allowed := st.partial.allowedSet(term.Name)
		rel, err := relationForTerm(term, allowed, st.partial.hasAssignments(term.Name))
		if err != nil {
			return relationInconclusive, nil, err
		}

		switch rel {
		case relationContradicted:
			return relationContradicted, nil, nil
		case relationSatisfied:
			continue
		case relationInconclusive:
			if unsatisfied != nil {
				return relationInconclusive, nil, nil
			}
			temp := term
			unsatisfied = &temp
		}
	}

	if unsatisfied == nil {
		return relationSatisfied, nil, nil
	}
	return relationAlmostSatisfied, unsatisfied, nil
}

// relationForTerm determines the relationship between a single term and the
// current allowed version set for its package.
func relationForTerm(term Term, allowed VersionSet, hasAssignment bool) (incompatibilityRelation, error) {
	if allowed == nil {
		allowed = FullVersionSet()
	}

	if term.Positive {
		required, ok := termAllowedSet(term)
		if !ok {
			return relationInconclusive, nil
		}
		if allowed.IsSubset(required) {
			if hasAssignment {
				return relationSatisfied, nil
			}
			return relationInconclusive, nil
		}
		if allowed.IsDisjoint(required) {
			return relationContradicted, nil
		}
		return relationInconclusive, nil
	}

	forbidden, ok := termForbiddenSet(term)
	if !ok {
		return relationInconclusive, nil
	}

	if allowed.IsDisjoint(forbidden) {
		return relationSatisfied, nil
	}
	if allowed.IsSubset(forbidden) {
		if hasAssignment {
			return relationContradicted, nil
		}
		return relationInconclusive, nil
	}
	return relationInconclusive, nil
}

// resolveIncompatibility performs the prior_cause resolution step: given a
// conflict (satisfied by the current solution) and the cause of pivot's
// assignment, it builds the incompatibility that results from resolving
// them on pivot.
//
// Terms from both sides are kept except pivot's; where both sides constrain
// the same package the terms are merged (intersection for two positive
// terms, union of forbidden ranges for two negative terms).
func resolveIncompatibility(conflictID IncompId, conflict *Incompatibility, causeID IncompId, cause *Incompatibility, pivot Name) *Incompatibility {
	terms := make(map[Name]Term)

	for _, term := range conflict.Terms {
		if term.Name == pivot {
			continue
		}
		terms[term.Name] = term
	}

	for _, term := range cause.Terms {
		if term.Name == pivot {
			continue
		}
		if existing, ok := terms[term.Name]; ok {
			if merged, ok := mergeTerms(existing, term); ok {
				terms[term.Name] = merged
				continue
			}
		}
		terms[term.Name] = term
	}

	merged := make([]Term, 0, len(terms))
	for _, term := range conflict.Terms {
		if term.Name == pivot {
			continue
		}
		if t, ok := terms[term.Name]; ok {
			merged = append(merged, t)
			delete(terms, term.Name)
		}
	}
	for _, term := range cause.Terms {
		if term.Name == pivot {
			continue
		}
		if t, ok := terms[term.Name]; ok {
			merged = append(merged, t)
			delete(terms, term.Name)
		}
	}

	return NewIncompatibilityDerived(merged, conflictID, causeID)
}

// mergeTerms combines two terms for the same package during conflict resolution.
// For positive terms, takes intersection of version sets.
// For negative terms, takes union of forbidden sets.
func mergeTerms(a, b Term) (Term, bool) {
	if a.Name != b.Name {
		return Term{}, false
	}

	switch {
	case a.Positive && b.Positive:
		setA, okA := termAllowedSet(a)
		setB, okB := termAllowedSet(b)
		if !okA || !okB {
			return Term{}, false
		}
		return termFromAllowedSet(a.Name, setA.Intersection(setB)), true
	case !a.Positive && !b.Positive:
		forbA, okA := termForbiddenSet(a)
		forbB, okB := termForbiddenSet(b)
		if !okA || !okB {
			return Term{}, false
		}
		return termFromForbiddenSet(a.Name, forbA.Union(forbB)), true
	default:
		return Term{}, false
	}
}

// registerDependencies allocates a {pkg == version, not dep} incompatibility
// for each of a decided version's dependencies and applies it to the partial
// solution. Returns the id of a conflict incompatibility if one results.
func (st *solverState) registerDependencies(pkg Name, version Version, deps []Term) (IncompId, bool, error) {
	for _, dep := range deps {
		if dep.Name == pkg {
			return 0, false, &SelfDependencyError{Package: pkg, Version: version}
		}
		if dep.Positive {
			if allowed, ok := termAllowedSet(dep); ok && allowed.IsEmpty() {
				return 0, false, &DependencyOnTheEmptySetError{Package: pkg, Version: version, Dependency: dep}
			}
		}

		id := st.arena.Alloc(NewIncompatibilityFromDependency(pkg, version, dep))
		st.mergeIncompatibility(id)

		conflictID, hasConflict, err := st.applyConstraint(dep, id)
		if err != nil {
			return 0, false, err
		}
		if hasConflict {
			return conflictID, true, nil
		}
	}
	return 0, false, nil
}

// applyConstraint applies a dependency constraint to the partial solution.
// Returns the id of a conflict incompatibility if the constraint leaves no
// allowed version for its package.
func (st *solverState) applyConstraint(term Term, cause IncompId) (IncompId, bool, error) {
	assign, _, err := st.partial.addDerivation(term, cause)
	if errors.Is(err, errNoAllowedVersions) {
		causeInc := st.arena.Get(cause)
		st.debug("constraint left no allowed versions", logrus.Fields{
			"term":  term.String(),
			"cause": causeInc.String(),
		})

		base := NewIncompatibilityNoVersions(term)
		baseID := st.arena.Alloc(base)

		terms := make([]Term, 0, len(causeInc.Terms)+len(base.Terms))
		terms = append(terms, causeInc.Terms...)
		terms = append(terms, base.Terms...)

		mergedID := st.arena.Alloc(NewIncompatibilityDerived(terms, baseID, cause))
		return mergedID, true, nil
	}
	if err != nil {
		return 0, false, err
	}
	if assign != nil {
		st.traceAssignment("dependency-constraint", assign)
		st.enqueue(assign.name)
	}
	return 0, false, nil
}

// noVersionsConflict builds the incompatibility for a package the provider
// could not find an acceptable version for, folding in the cause of that
// package's latest constraint when one exists so the resulting explanation
// names the dependency that narrowed it rather than just "no version fits".
func (st *solverState) noVersionsConflict(pkg Name) (IncompId, bool) {
	allowed := st.partial.allowedSet(pkg)
	base := NewIncompatibilityNoVersions(termFromAllowedSet(pkg, allowed))
	id := st.arena.Alloc(base)

	if support := st.partial.latest(pkg); support != nil && support.hasCause {
		cause := st.arena.Get(support.cause)
		merged := resolveIncompatibility(id, base, support.cause, cause, pkg)
		id = st.arena.Alloc(merged)
	}

	return id, true
}

// resolveConflict performs conflict analysis and backtracking via CDCL.
//
// The algorithm repeatedly:
//  1. Checks whether the current conflict is terminal (traces back to the
//     root itself being unsatisfiable), in which case there is no solution
//  2. Finds the satisfier (most recent assignment satisfying the conflict)
//     and the highest decision level among the conflict's other participants
//  3. If the satisfier is a decision at a higher level than that, backtracks
//     to the previous level and learns the conflict for future propagation
//  4. Otherwise resolves the conflict with the satisfier's own cause
//     (prior_cause) and loops with the newly derived incompatibility
func (st *solverState) resolveConflict(conflictID IncompId) (pivot Name, terminal IncompId, isTerminal bool, err error) {
	for {
		conflict := st.arena.Get(conflictID)

		if conflict.IsTerminal(st.root) {
			return EmptyName(), conflictID, true, nil
		}

		satisfier, prevLevel := st.partial.findSatisfierAndPreviousSatisfierLevel(conflict)
		if satisfier == nil {
			return EmptyName(), conflictID, true, nil
		}

		st.debug("conflict analysis iteration", logrus.Fields{
			"conflict":        conflict.String(),
			"satisfier":       satisfier.describe(),
			"satisfier_level": satisfier.decisionLevel,
			"previous_level":  prevLevel,
		})

		if satisfier.isDecision() && prevLevel < satisfier.decisionLevel {
			st.partial.backtrack(prevLevel)
			st.mergeIncompatibility(conflictID)
			st.debug("backtracked after conflict", logrus.Fields{
				"pivot":        satisfier.name.Value(),
				"target_level": prevLevel,
				"learned":      conflict.String(),
			})
			return satisfier.name, 0, false, nil
		}

		if !satisfier.hasCause {
			return EmptyName(), 0, false, errors.New("derived assignment missing cause")
		}

		cause := st.arena.Get(satisfier.cause)
		st.debug("resolving with cause", logrus.Fields{
			"pivot": satisfier.name.Value(),
			"cause": cause.String(),
		})

		merged := resolveIncompatibility(conflictID, conflict, satisfier.cause, cause, satisfier.name)
		conflictID = st.arena.Alloc(merged)

		st.debug("derived new conflict", logrus.Fields{
			"pivot":    satisfier.name.Value(),
			"conflict": merged.String(),
		})
	}
}
