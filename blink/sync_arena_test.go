// Copyright 2025 Mulga Defense Corporation (MDC). All rights reserved.
// Use of this source code is governed by an Apache 2.0 license
// that can be found in the LICENSE file.

package blink

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncArenaAllocateBasic(t *testing.T) {
	a := NewSyncArena(ArenaConfig{})

	p1, err := a.Allocate(Layout{Size: 8, Align: 8})
	require.NoError(t, err)
	p2, err := a.Allocate(Layout{Size: 8, Align: 8})
	require.NoError(t, err)
	assert.NotEqual(t, p1, p2)
}

// TestSyncArenaConcurrentAllocateNoOverlap exercises scenario S5: many
// goroutines racing to bump the same arena must never be handed
// overlapping regions, and every byte written through a returned pointer
// must still hold its own value afterward.
func TestSyncArenaConcurrentAllocateNoOverlap(t *testing.T) {
	a := NewSyncArena(ArenaConfig{InitialChunkSize: 64, MaxChunkSize: 1 << 20})

	const goroutines = 64
	const perGoroutine = 64

	var wg sync.WaitGroup
	results := make([][]*int64, goroutines)

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			ptrs := make([]*int64, perGoroutine)
			for i := 0; i < perGoroutine; i++ {
				p, err := a.Allocate(Layout{Size: 8, Align: 8})
				require.NoError(t, err)
				typed := (*int64)(p)
				*typed = int64(g*perGoroutine + i)
				ptrs[i] = typed
			}
			results[g] = ptrs
		}(g)
	}
	wg.Wait()

	seen := make(map[int64]bool)
	for g := 0; g < goroutines; g++ {
		for i, p := range results[g] {
			want := int64(g*perGoroutine + i)
			got := *p
			assert.Equal(t, want, got, "value written through one allocation was clobbered by another")
			assert.False(t, seen[got], "duplicate value observed, implying overlapping allocations")
			seen[got] = true
		}
	}
	assert.Len(t, seen, goroutines*perGoroutine)
}

func TestSyncArenaResetKeepsLargestChunk(t *testing.T) {
	a := NewSyncArena(ArenaConfig{InitialChunkSize: 16, MaxChunkSize: 1 << 20})

	_, err := a.Allocate(Layout{Size: 8, Align: 1})
	require.NoError(t, err)
	firstCapacity := a.Capacity()

	_, err = a.Allocate(Layout{Size: firstCapacity, Align: 1})
	require.NoError(t, err)
	require.Equal(t, 2, a.NumChunks())

	a.Reset()
	assert.Equal(t, 1, a.NumChunks())
}

func TestSyncArenaDropReleasesEverything(t *testing.T) {
	a := NewSyncArena(ArenaConfig{})
	_, err := a.Allocate(Layout{Size: 8, Align: 1})
	require.NoError(t, err)

	a.Drop()
	assert.Zero(t, a.NumChunks())
	assert.Zero(t, a.Capacity())
}
