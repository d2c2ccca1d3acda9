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

import "github.com/sirupsen/logrus"

// Solver implements the PubGrub dependency resolution algorithm with CDCL.
//
// The solver uses Conflict-Driven Clause Learning to efficiently find valid
// package version assignments that satisfy all dependencies and
// constraints, consulting a DependencyProvider for candidate versions and
// their dependencies.
//
// Basic usage:
//
//	provider := NewMemoryProvider()
//	provider.AddPackage(myapp, version, deps...)
//
//	solver := NewSolver(provider)
//	solution, err := solver.Solve(myapp, version)
//
// With options:
//
//	solver := NewSolverWithOptions(provider,
//	    WithIncompatibilityTracking(true),
//	    WithMaxSteps(10000),
//	)
type Solver struct {
	Provider DependencyProvider
	options  SolverOptions

	arena   *Arena
	learned []IncompId
}

// NewSolver creates a solver with default options.
func NewSolver(provider DependencyProvider) *Solver {
	return NewSolverWithOptions(provider)
}

// NewSolverWithOptions creates a solver configured by opts.
func NewSolverWithOptions(provider DependencyProvider, opts ...SolverOption) *Solver {
	options := defaultSolverOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	return &Solver{
		Provider: provider,
		options:  options,
	}
}

// Configure applies additional options to an existing solver.
func (s *Solver) Configure(opts ...SolverOption) *Solver {
	for _, opt := range opts {
		if opt != nil {
			opt(&s.options)
		}
	}
	return s
}

// EnableIncompatibilityTracking turns on derivation-tree error reporting.
func (s *Solver) EnableIncompatibilityTracking() *Solver {
	return s.Configure(WithIncompatibilityTracking(true))
}

// DisableIncompatibilityTracking turns off derivation-tree error reporting.
func (s *Solver) DisableIncompatibilityTracking() *Solver {
	return s.Configure(WithIncompatibilityTracking(false))
}

// GetIncompatibilities returns every incompatibility merged into the most
// recent Solve call, in the order learned. Empty unless
// WithIncompatibilityTracking was enabled for that call.
func (s *Solver) GetIncompatibilities() []*Incompatibility {
	if s.arena == nil {
		return nil
	}
	out := make([]*Incompatibility, 0, len(s.learned))
	for _, id := range s.learned {
		out = append(out, s.arena.Get(id))
	}
	return out
}

// ClearIncompatibilities discards the incompatibilities recorded by the most
// recent Solve call.
func (s *Solver) ClearIncompatibilities() {
	s.arena = nil
	s.learned = nil
}

// Solve resolves root at rootVersion against the configured provider,
// returning the chosen version of root itself and of every transitive
// dependency.
func (s *Solver) Solve(root Name, rootVersion Version) (Solution, error) {
	if s.options.Logger != nil {
		s.options.Logger.WithFields(logrus.Fields{
			"root":    root.Value(),
			"version": rootVersion,
		}).Debug("starting solver")
	}

	state := newSolverState(s.Provider, s.options, root, rootVersion)

	conflict, hasConflict, err := s.applyRootDependencies(state, root, rootVersion)
	if err != nil {
		return nil, err
	}

	state.enqueue(root)

	var propagateSeed Name

	for steps := 0; ; steps++ {
		if s.options.MaxSteps > 0 && steps >= s.options.MaxSteps {
			return nil, ErrIterationLimit{Steps: s.options.MaxSteps}
		}

		if err := s.Provider.ShouldCancel(); err != nil {
			return nil, &ErrorInShouldCancelError{Err: err}
		}

		if hasConflict {
			pivot, terminalID, isTerminal, err := state.resolveConflict(conflict)
			if err != nil {
				return nil, err
			}
			if isTerminal {
				return s.fail(state, terminalID)
			}
			hasConflict = false
			propagateSeed = pivot
			continue
		}

		seed := propagateSeed
		propagateSeed = EmptyName()

		propConflict, propHasConflict, err := state.propagate(seed)
		if err != nil {
			return nil, err
		}
		if propHasConflict {
			conflict, hasConflict = propConflict, true
			continue
		}

		pkg, version, err := s.Provider.ChoosePackageVersion(state.candidates())
		if err != nil {
			return nil, &ErrorChoosingPackageVersionError{Err: err}
		}
		if pkg == EmptyName() {
			return state.partial.buildSolution(), nil
		}
		if version == nil {
			conflict, hasConflict = state.noVersionsConflict(pkg)
			continue
		}

		if s.options.Logger != nil {
			s.options.Logger.WithFields(logrus.Fields{
				"step":    steps,
				"package": pkg.Value(),
				"version": version,
			}).Debug("making decision")
		}

		assign := state.partial.addDecision(pkg, version)

		depConflict, depHasConflict, err := s.applyDependencies(state, pkg, version)
		if err != nil {
			return nil, err
		}
		if depHasConflict {
			conflict, hasConflict = depConflict, true
			continue
		}

		state.enqueue(assign.name)
	}
}

// applyRootDependencies retrieves and registers root's dependencies before
// the main loop begins, mirroring applyDependencies but against the root
// package init seeded rather than a later decision.
func (s *Solver) applyRootDependencies(state *solverState, root Name, rootVersion Version) (IncompId, bool, error) {
	return s.applyDependencies(state, root, rootVersion)
}

// applyDependencies retrieves pkg's dependencies from the provider and
// registers the incompatibilities they imply, returning a conflict id if
// the current partial solution can no longer accommodate them.
func (s *Solver) applyDependencies(state *solverState, pkg Name, version Version) (IncompId, bool, error) {
	result, err := s.Provider.GetDependencies(pkg, version)
	if err != nil {
		return 0, false, &ErrorRetrievingDependenciesError{Package: pkg, Version: version, Err: err}
	}

	switch result.Kind {
	case DependenciesErr:
		return 0, false, &ErrorRetrievingDependenciesError{Package: pkg, Version: version, Err: result.Err}
	case DependenciesUnknown:
		id := state.arena.Alloc(NewIncompatibilityUnavailableDependencies(pkg, version))
		return id, true, nil
	default:
		return state.registerDependencies(pkg, version, result.Deps)
	}
}

// fail builds the error Solve returns once conflict resolution reaches a
// terminal incompatibility. With tracking enabled it walks the arena into a
// full DerivationTree; otherwise it reports just the terminal clause.
func (s *Solver) fail(state *solverState, terminalID IncompId) (Solution, error) {
	if s.options.TrackIncompatibilities {
		s.arena, s.learned = state.arena, state.learned
		return nil, &NoSolutionError{Tree: BuildDerivationTree(state.arena, terminalID)}
	}
	return nil, ErrNoSolutionFound{Summary: state.arena.Get(terminalID).String()}
}
