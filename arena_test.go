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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArena_AllocAssignsDenseIncreasingIds(t *testing.T) {
	arena := NewArena()

	term := NewTerm(MakeName("foo"), EqualsCondition{Version: SimpleVersion("1.0.0")})
	id0 := arena.Alloc(NewIncompatibilityNoVersions(term))
	id1 := arena.Alloc(NewIncompatibilityNoVersions(term))
	id2 := arena.Alloc(NewIncompatibilityNoVersions(term))

	assert.Equal(t, IncompId(0), id0)
	assert.Equal(t, IncompId(1), id1)
	assert.Equal(t, IncompId(2), id2)
}

func TestArena_GetReturnsWhatWasAllocated(t *testing.T) {
	arena := NewArena()

	term := NewTerm(MakeName("foo"), EqualsCondition{Version: SimpleVersion("1.0.0")})
	incomp := NewIncompatibilityNoVersions(term)
	id := arena.Alloc(incomp)

	require.Same(t, incomp, arena.Get(id), "Get must return the exact incompatibility pointer that was allocated")
}

func TestArena_GetPanicsOnOutOfRangeId(t *testing.T) {
	arena := NewArena()
	term := NewTerm(MakeName("foo"), EqualsCondition{Version: SimpleVersion("1.0.0")})
	arena.Alloc(NewIncompatibilityNoVersions(term))

	assert.Panics(t, func() {
		arena.Get(IncompId(99))
	}, "expected Get to panic on a fabricated out-of-range id")
}

func TestArena_IdsAreNeverReused(t *testing.T) {
	arena := NewArena()
	term := NewTerm(MakeName("foo"), EqualsCondition{Version: SimpleVersion("1.0.0")})

	var ids []IncompId
	for i := 0; i < 5; i++ {
		ids = append(ids, arena.Alloc(NewIncompatibilityNoVersions(term)))
	}

	seen := make(map[IncompId]bool)
	for _, id := range ids {
		require.False(t, seen[id], "id %d was allocated more than once", id)
		seen[id] = true
	}
}
