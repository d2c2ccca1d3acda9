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

package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/contriboss/pubgrub-go"
)

// manifest is the YAML shape a demo run reads: a root package with its own
// dependency constraints, plus every other package version the in-memory
// provider should know about.
type manifest struct {
	Root     manifestRoot      `yaml:"root"`
	Packages []manifestPackage `yaml:"packages"`
}

type manifestRoot struct {
	Name         string            `yaml:"name"`
	Version      string            `yaml:"version"`
	Dependencies map[string]string `yaml:"dependencies"`
}

type manifestPackage struct {
	Name         string            `yaml:"name"`
	Version      string            `yaml:"version"`
	Dependencies map[string]string `yaml:"dependencies"`
}

// loadManifest parses path into a manifest.
func loadManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if m.Root.Name == "" {
		return nil, fmt.Errorf("manifest root.name is required")
	}
	if m.Root.Version == "" {
		return nil, fmt.Errorf("manifest root.version is required")
	}
	return &m, nil
}

// buildProvider turns a manifest into a populated MemoryProvider and
// returns the root name and version to solve for.
func buildProvider(m *manifest) (*pubgrub.MemoryProvider, pubgrub.Name, pubgrub.Version, error) {
	provider := pubgrub.NewMemoryProvider()

	for _, pkg := range m.Packages {
		version, err := parseVersion(pkg.Version)
		if err != nil {
			return nil, pubgrub.EmptyName(), nil, fmt.Errorf("package %s: %w", pkg.Name, err)
		}
		terms, err := buildDependencyTerms(pkg.Dependencies)
		if err != nil {
			return nil, pubgrub.EmptyName(), nil, fmt.Errorf("package %s %s: %w", pkg.Name, pkg.Version, err)
		}
		provider.AddPackage(pubgrub.MakeName(pkg.Name), version, terms)
	}

	rootVersion, err := parseVersion(m.Root.Version)
	if err != nil {
		return nil, pubgrub.EmptyName(), nil, fmt.Errorf("root: %w", err)
	}
	rootTerms, err := buildDependencyTerms(m.Root.Dependencies)
	if err != nil {
		return nil, pubgrub.EmptyName(), nil, fmt.Errorf("root: %w", err)
	}
	root := pubgrub.MakeName(m.Root.Name)
	provider.AddPackage(root, rootVersion, rootTerms)

	return provider, root, rootVersion, nil
}

// parseVersion tries semantic-version parsing first, falling back to a
// plain lexicographic version for manifests that use non-semver strings.
func parseVersion(s string) (pubgrub.Version, error) {
	if v, err := pubgrub.ParseSemanticVersion(s); err == nil {
		return v, nil
	}
	return pubgrub.SimpleVersion(s), nil
}

// buildDependencyTerms converts a name->constraint map into the Term slice
// GetDependencies expects, parsing each constraint as a version range and
// falling back to "any version" when the constraint is empty.
func buildDependencyTerms(deps map[string]string) ([]pubgrub.Term, error) {
	if len(deps) == 0 {
		return nil, nil
	}
	terms := make([]pubgrub.Term, 0, len(deps))
	for name, constraint := range deps {
		var set pubgrub.VersionSet
		if constraint == "" || constraint == "*" {
			set = pubgrub.FullVersionSet()
		} else {
			parsed, err := pubgrub.ParseVersionRange(constraint)
			if err != nil {
				return nil, fmt.Errorf("dependency %s: parsing constraint %q: %w", name, constraint, err)
			}
			set = parsed
		}
		terms = append(terms, pubgrub.NewTerm(pubgrub.MakeName(name), pubgrub.NewVersionSetCondition(set)))
	}
	return terms, nil
}
