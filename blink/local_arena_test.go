// Copyright 2025 Mulga Defense Corporation (MDC). All rights reserved.
// Use of this source code is governed by an Apache 2.0 license
// that can be found in the LICENSE file.

package blink

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalArenaAllocateWritesAreIsolated(t *testing.T) {
	a := NewDefaultLocalArena()

	p1, err := a.Allocate(Layout{Size: 8, Align: 8})
	require.NoError(t, err)
	p2, err := a.Allocate(Layout{Size: 8, Align: 8})
	require.NoError(t, err)

	*(*int64)(p1) = 1
	*(*int64)(p2) = 2

	assert.EqualValues(t, 1, *(*int64)(p1))
	assert.EqualValues(t, 2, *(*int64)(p2))
}

func TestLocalArenaAllocateTriggersChunkRotation(t *testing.T) {
	a := NewLocalArena(ArenaConfig{InitialChunkSize: 16, MaxChunkSize: 1 << 20})

	_, err := a.Allocate(Layout{Size: 8, Align: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, a.NumChunks())
	firstCapacity := a.Capacity()

	// Large enough that it cannot fit in whatever is left of the first
	// chunk after header slack, forcing a rotation.
	_, err = a.Allocate(Layout{Size: firstCapacity, Align: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, a.NumChunks())
}

func TestLocalArenaGrowInPlaceAtTip(t *testing.T) {
	a := NewDefaultLocalArena()

	ptr, err := a.Allocate(Layout{Size: 8, Align: 8})
	require.NoError(t, err)
	*(*int64)(ptr) = 42

	grown, err := a.Grow(ptr, Layout{Size: 8, Align: 8}, Layout{Size: 16, Align: 8})
	require.NoError(t, err)
	assert.Equal(t, ptr, grown)
	assert.EqualValues(t, 42, *(*int64)(grown))
}

// TestLocalArenaGrowFallbackAtTipWithBadAlignmentDoesNotClobber mirrors
// TestBumpGrowInPlaceFailsOnIncompatibleAlignment one layer up: ptr is at
// the chunk's tip (so the fast path is tempted) but its in-chunk offset
// isn't a multiple of the requested new alignment, so bumpGrowInPlace
// declines and grow must fall back to a fresh allocation. The freed tip
// space must be reclaimed before, not after, that fallback allocation —
// otherwise a later allocation bumps straight through the bytes grow just
// copied into the new location.
func TestLocalArenaGrowFallbackAtTipWithBadAlignmentDoesNotClobber(t *testing.T) {
	a := NewDefaultLocalArena()

	// Two 1-byte, 1-aligned allocations land ptr at offset 1 — not a
	// multiple of 16, so growing to a 16-byte alignment can't happen in
	// place even though ptr is still the tip.
	_, err := a.Allocate(Layout{Size: 1, Align: 1})
	require.NoError(t, err)
	ptr, err := a.Allocate(Layout{Size: 1, Align: 1})
	require.NoError(t, err)
	*(*byte)(ptr) = 0xAB

	grown, err := a.Grow(ptr, Layout{Size: 1, Align: 1}, Layout{Size: 16, Align: 16})
	require.NoError(t, err)
	require.NotEqual(t, ptr, grown, "alignment-incompatible tip growth must not be reported as in-place")
	assert.EqualValues(t, 0xAB, *(*byte)(grown), "fallback must have copied the old byte")

	// A further allocation large enough to reach past the freed offset-1
	// slot must not be placed on top of the region grown just returned.
	_, err = a.Allocate(Layout{Size: 64, Align: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 0xAB, *(*byte)(grown), "later allocation clobbered the grown region")
}

func TestLocalArenaGrowCopiesWhenNotAtTip(t *testing.T) {
	a := NewDefaultLocalArena()

	first, err := a.Allocate(Layout{Size: 8, Align: 8})
	require.NoError(t, err)
	*(*int64)(first) = 7
	_, err = a.Allocate(Layout{Size: 8, Align: 8})
	require.NoError(t, err)

	grown, err := a.Grow(first, Layout{Size: 8, Align: 8}, Layout{Size: 32, Align: 8})
	require.NoError(t, err)
	assert.NotEqual(t, first, grown)
	assert.EqualValues(t, 7, *(*int64)(grown))
}

func TestLocalArenaDeallocateReclaimsOnlyAtTip(t *testing.T) {
	a := NewDefaultLocalArena()

	first, err := a.Allocate(Layout{Size: 8, Align: 1})
	require.NoError(t, err)
	_, err = a.Allocate(Layout{Size: 8, Align: 1})
	require.NoError(t, err)
	before := a.SizeInUse()

	// Deallocating the first (non-tip) allocation changes nothing.
	a.Deallocate(first, Layout{Size: 8, Align: 1})
	assert.Equal(t, before, a.SizeInUse())

	second, err := a.Allocate(Layout{Size: 8, Align: 1})
	require.NoError(t, err)
	a.Deallocate(second, Layout{Size: 8, Align: 1})
	assert.Less(t, a.SizeInUse(), before+8)
}

func TestLocalArenaResetBumpsGenerationAndKeepsLargestChunk(t *testing.T) {
	a := NewLocalArena(ArenaConfig{InitialChunkSize: 16, MaxChunkSize: 1 << 20})

	_, err := a.Allocate(Layout{Size: 8, Align: 1})
	require.NoError(t, err)
	gen0 := a.Generation()
	firstCapacity := a.Capacity()

	_, err = a.Allocate(Layout{Size: firstCapacity, Align: 1})
	require.NoError(t, err)
	require.Equal(t, 2, a.NumChunks())

	a.Reset()

	assert.Equal(t, gen0+1, a.Generation())
	assert.Equal(t, 1, a.NumChunks())
	assert.Zero(t, a.SizeInUse())
}

func TestLocalArenaDropMakesFurtherUseFail(t *testing.T) {
	a := NewDefaultLocalArena()
	_, err := a.Allocate(Layout{Size: 8, Align: 1})
	require.NoError(t, err)

	a.Drop()

	_, err = a.Allocate(Layout{Size: 8, Align: 1})
	assert.ErrorIs(t, err, ErrArenaClosed)
}

func TestLocalArenaInvalidAlignmentRejected(t *testing.T) {
	a := NewDefaultLocalArena()
	_, err := a.Allocate(Layout{Size: 8, Align: 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidAlignment)
}

func TestLocalArenaZeroSizeAllocationIsDistinguishable(t *testing.T) {
	a := NewDefaultLocalArena()
	ptr, err := a.Allocate(Layout{Size: 0, Align: 4})
	require.NoError(t, err)
	assert.NotEqual(t, unsafe.Pointer(nil), ptr)
}
