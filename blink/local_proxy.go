// Copyright 2025 Mulga Defense Corporation (MDC). All rights reserved.
// Use of this source code is governed by an Apache 2.0 license
// that can be found in the LICENSE file.

package blink

import "unsafe"

// leaseDelegate adapts a SyncArena to the Delegate interface so a
// LocalProxy's chunkList can grow by leasing sub-chunks from its parent
// instead of asking a host allocator directly. Leases are never
// individually returned — ReleaseChunk is a no-op, matching the spec's
// bulk reclaim: the parent frees everything at once on its own Reset.
type leaseDelegate struct {
	parent *SyncArena
}

func (d leaseDelegate) AcquireChunk(size int) ([]byte, error) {
	return d.parent.lease(size)
}

func (d leaseDelegate) ReleaseChunk(buf []byte) {}

// LocalProxy is a thread-bound, single-owner view leasing sub-chunks
// from a parent SyncArena. Allocation runs the same bump engine as
// LocalArena against its leased chunks; on exhaustion it asks the
// parent for a new lease whose size doubles geometrically.
type LocalProxy struct {
	parent *SyncArena
	engine localEngine
}

func (p *LocalProxy) Allocate(layout Layout) (unsafe.Pointer, error) {
	return p.engine.allocate(layout)
}

func (p *LocalProxy) Deallocate(ptr unsafe.Pointer, layout Layout) {
	p.engine.deallocate(ptr, layout)
}

func (p *LocalProxy) Grow(ptr unsafe.Pointer, oldLayout, newLayout Layout) (unsafe.Pointer, error) {
	return p.engine.grow(ptr, oldLayout, newLayout)
}

func (p *LocalProxy) Shrink(ptr unsafe.Pointer, oldLayout, newLayout Layout) unsafe.Pointer {
	return p.engine.shrink(ptr, oldLayout, newLayout)
}

// Reset is a no-op for memory: leases are only ever released in bulk
// when the parent arena resets. It merely forgets the proxy's current
// lease chain and cursor knowledge, so a stale lease is never bumped
// again after the parent has reclaimed it. Conservative by design — see
// DESIGN.md for why a proxy never rewinds within its active lease.
func (p *LocalProxy) Reset() {
	p.engine.list.current = nil
	p.engine.list.lastCapacity = 0
}

// NumLeases returns the number of leases currently chained in the
// proxy's local view.
func (p *LocalProxy) NumLeases() int { return p.engine.list.numChunks() }
