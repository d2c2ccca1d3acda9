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

	"github.com/blang/semver/v4"
)

// SemanticVersion is a Version backed by blang/semver, giving the solver
// semver.org-compliant major.minor.patch[-prerelease][+build] ordering
// instead of the lexicographic fallback SimpleVersion provides.
type SemanticVersion struct {
	v semver.Version
}

// ParseSemanticVersion parses a semantic version string such as "1.2.3",
// "1.2.3-alpha.1" or "1.2.3+build". Versions with fewer than three numeric
// components ("1", "1.2") are padded with trailing zeros.
func ParseSemanticVersion(s string) (*SemanticVersion, error) {
	v, err := semver.Parse(normalizeSemver(s))
	if err != nil {
		return nil, fmt.Errorf("invalid version %q: %w", s, err)
	}
	return &SemanticVersion{v: v}, nil
}

func normalizeSemver(s string) string {
	splitAt := len(s)
	if i := strings.IndexAny(s, "-+"); i >= 0 {
		splitAt = i
	}
	core, suffix := s[:splitAt], s[splitAt:]

	parts := strings.Split(core, ".")
	for len(parts) < 3 {
		parts = append(parts, "0")
	}
	return strings.Join(parts, ".") + suffix
}

// NewSemanticVersion builds a release SemanticVersion from its numeric parts.
func NewSemanticVersion(major, minor, patch int) *SemanticVersion {
	return &SemanticVersion{v: semver.Version{Major: uint64(major), Minor: uint64(minor), Patch: uint64(patch)}}
}

// NewSemanticVersionWithPrerelease builds a prerelease SemanticVersion.
// Purely numeric dot-separated identifiers ("1", "2") are stored as
// numeric prerelease components so they compare numerically per semver.
func NewSemanticVersionWithPrerelease(major, minor, patch int, prerelease string) *SemanticVersion {
	sv := semver.Version{Major: uint64(major), Minor: uint64(minor), Patch: uint64(patch)}
	if prerelease != "" {
		for _, ident := range strings.Split(prerelease, ".") {
			if n, err := parsePRNumber(ident); err == nil {
				sv.Pre = append(sv.Pre, semver.PRVersion{VersionNum: n, IsNum: true})
			} else {
				sv.Pre = append(sv.Pre, semver.PRVersion{VersionStr: ident})
			}
		}
	}
	return &SemanticVersion{v: sv}
}

func parsePRNumber(s string) (uint64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty prerelease identifier")
	}
	var n uint64
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("not numeric")
		}
		n = n*10 + uint64(r-'0')
	}
	return n, nil
}

// Major, Minor, Patch and Prerelease mirror the teacher's flat field
// accessors so existing call sites and tests can keep reading them.
func (sv *SemanticVersion) Major() int { return int(sv.v.Major) }
func (sv *SemanticVersion) Minor() int { return int(sv.v.Minor) }
func (sv *SemanticVersion) Patch() int { return int(sv.v.Patch) }

func (sv *SemanticVersion) Prerelease() string {
	if len(sv.v.Pre) == 0 {
		return ""
	}
	parts := make([]string, len(sv.v.Pre))
	for i, p := range sv.v.Pre {
		parts[i] = p.String()
	}
	return strings.Join(parts, ".")
}

// String returns the canonical semver string representation.
func (sv *SemanticVersion) String() string {
	return sv.v.String()
}

// Sort implements Version, falling back to string comparison against
// non-SemanticVersion values so mixed-type ranges degrade gracefully
// instead of panicking.
func (sv *SemanticVersion) Sort(other Version) int {
	otherSV, ok := other.(*SemanticVersion)
	if !ok {
		return strings.Compare(sv.String(), other.String())
	}
	return sv.v.Compare(otherSV.v)
}

var (
	_ Version = (*SemanticVersion)(nil)
)
