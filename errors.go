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

import "fmt"

// NoSolutionError is returned when version solving fails and
// WithIncompatibilityTracking(true) is set. Tree is the full explanation
// graph; Reporter controls how it gets rendered into Error().
type NoSolutionError struct {
	Tree     *DerivationTree
	Reporter Reporter
}

// Error implements the error interface.
func (e *NoSolutionError) Error() string {
	if e.Tree == nil {
		return "no solution found"
	}
	reporter := e.Reporter
	if reporter == nil {
		reporter = &DefaultReporter{}
	}
	return reporter.Report(e.Tree)
}

// WithReporter returns a copy of e using reporter to render Error().
func (e *NoSolutionError) WithReporter(reporter Reporter) *NoSolutionError {
	return &NoSolutionError{Tree: e.Tree, Reporter: reporter}
}

// Unwrap returns nil: a NoSolutionError is a terminal diagnosis, not a
// wrapper around some other failure.
func (e *NoSolutionError) Unwrap() error {
	return nil
}

// ErrNoSolutionFound is returned when version solving fails and
// incompatibility tracking is disabled. Summary is a single-line rendering
// of the terminal incompatibility, not a full derivation tree.
type ErrNoSolutionFound struct {
	Summary string
}

// Error implements the error interface.
func (e ErrNoSolutionFound) Error() string {
	if e.Summary == "" {
		return "no solution found"
	}
	return e.Summary
}

// ErrorRetrievingDependenciesError wraps a DependencyProvider.GetDependencies
// failure for a specific package version.
type ErrorRetrievingDependenciesError struct {
	Package Name
	Version Version
	Err     error
}

// Error implements the error interface.
func (e *ErrorRetrievingDependenciesError) Error() string {
	return fmt.Sprintf("retrieving dependencies for %s %s: %v", e.Package.Value(), e.Version, e.Err)
}

// Unwrap returns the underlying provider error.
func (e *ErrorRetrievingDependenciesError) Unwrap() error {
	return e.Err
}

// DependencyOnTheEmptySetError is raised when a package version declares a
// dependency whose required range is the empty set — the dependency can
// never be satisfied by any published version, which signals a malformed
// dependency list rather than an ordinary conflict to resolve.
type DependencyOnTheEmptySetError struct {
	Package    Name
	Version    Version
	Dependency Term
}

// Error implements the error interface.
func (e *DependencyOnTheEmptySetError) Error() string {
	return fmt.Sprintf("%s %s depends on %s, which matches no version",
		e.Package.Value(), e.Version, e.Dependency)
}

// SelfDependencyError is raised when a package version lists itself as a
// dependency.
type SelfDependencyError struct {
	Package Name
	Version Version
}

// Error implements the error interface.
func (e *SelfDependencyError) Error() string {
	return fmt.Sprintf("%s %s depends on itself", e.Package.Value(), e.Version)
}

// ErrorChoosingPackageVersionError wraps a DependencyProvider.ChoosePackageVersion failure.
type ErrorChoosingPackageVersionError struct {
	Err error
}

// Error implements the error interface.
func (e *ErrorChoosingPackageVersionError) Error() string {
	return fmt.Sprintf("choosing package version: %v", e.Err)
}

// Unwrap returns the underlying provider error.
func (e *ErrorChoosingPackageVersionError) Unwrap() error {
	return e.Err
}

// ErrorInShouldCancelError wraps a DependencyProvider.ShouldCancel failure,
// raised when the caller has asked the solve to abort early.
type ErrorInShouldCancelError struct {
	Err error
}

// Error implements the error interface.
func (e *ErrorInShouldCancelError) Error() string {
	return fmt.Sprintf("solve cancelled: %v", e.Err)
}

// Unwrap returns the underlying cancellation error.
func (e *ErrorInShouldCancelError) Unwrap() error {
	return e.Err
}

// PackageNotFoundError indicates that a package is absent from a provider.
type PackageNotFoundError struct {
	Package Name
}

// Error implements the error interface.
func (e *PackageNotFoundError) Error() string {
	return fmt.Sprintf("package %s not found", e.Package.Value())
}

// PackageVersionNotFoundError indicates a specific version is unavailable.
type PackageVersionNotFoundError struct {
	Package Name
	Version Version
}

// Error implements the error interface.
func (e *PackageVersionNotFoundError) Error() string {
	return fmt.Sprintf("package %s version %s not found", e.Package.Value(), e.Version)
}

// ErrIterationLimit is returned when the solver exceeds its maximum
// iteration count. Configure with WithMaxSteps(0) to disable the limit
// (not recommended for untrusted inputs).
type ErrIterationLimit struct {
	Steps int
}

// Error implements the error interface.
func (e ErrIterationLimit) Error() string {
	if e.Steps <= 0 {
		return "solver exceeded iteration limit"
	}
	return fmt.Sprintf("solver exceeded iteration limit after %d steps", e.Steps)
}

var (
	_ error = (*NoSolutionError)(nil)
	_ error = ErrNoSolutionFound{}
	_ error = (*ErrorRetrievingDependenciesError)(nil)
	_ error = (*DependencyOnTheEmptySetError)(nil)
	_ error = (*SelfDependencyError)(nil)
	_ error = (*ErrorChoosingPackageVersionError)(nil)
	_ error = (*ErrorInShouldCancelError)(nil)
	_ error = (*PackageNotFoundError)(nil)
	_ error = (*PackageVersionNotFoundError)(nil)
	_ error = ErrIterationLimit{}
)
