// Copyright 2025 Mulga Defense Corporation (MDC). All rights reserved.
// Use of this source code is governed by an Apache 2.0 license
// that can be found in the LICENSE file.

package blink

import (
	"errors"
	"fmt"
)

// The error taxonomy has one kind by design: AllocationFailure. These
// sentinels distinguish its causes for callers that want to branch on
// errors.Is; AllocationError carries the layout that triggered it.
var (
	// ErrOutOfMemory is returned when a request cannot fit in a chunk no
	// larger than the arena's maximum chunk size. When the delegate itself
	// declines a chunk request, AllocationError carries the delegate's own
	// error instead.
	ErrOutOfMemory = errors.New("blink: out of memory")

	// ErrSizeOverflow is returned when a requested layout is
	// unrepresentable: size overflows after alignment.
	ErrSizeOverflow = errors.New("blink: requested layout overflows after alignment")

	// ErrInvalidAlignment is returned when Layout.Align is not a power
	// of two.
	ErrInvalidAlignment = errors.New("blink: alignment must be a power of two")

	// ErrArenaClosed is returned by any operation on an arena that has
	// already been dropped.
	ErrArenaClosed = errors.New("blink: arena was dropped")

	// ErrGenerationStale is the panic value Handle.Get raises when the
	// backing arena has been reset since the handle was issued.
	ErrGenerationStale = errors.New("blink: handle references a generation invalidated by reset")
)

// AllocationError reports why an allocate/grow request could not be
// serviced, along with the layout that was requested.
type AllocationError struct {
	Op     string
	Layout Layout
	Err    error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("blink: %s(size=%d, align=%d): %v", e.Op, e.Layout.Size, e.Layout.Align, e.Err)
}

func (e *AllocationError) Unwrap() error { return e.Err }
