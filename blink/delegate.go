// Copyright 2025 Mulga Defense Corporation (MDC). All rights reserved.
// Use of this source code is governed by an Apache 2.0 license
// that can be found in the LICENSE file.

package blink

// Delegate is the lower-level allocator a chunk engine asks for whole
// chunks. The delegate is the only external resource an arena touches;
// it must be safe for concurrent use when embedded in a SyncArena.
type Delegate interface {
	// AcquireChunk returns a buffer of at least size bytes, or an error
	// if the delegate declines the request.
	AcquireChunk(size int) ([]byte, error)

	// ReleaseChunk returns a chunk previously handed out by AcquireChunk.
	// It must tolerate being called from multiple goroutines and must
	// not retain buf.
	ReleaseChunk(buf []byte)
}

// heapDelegate is the default delegate: it draws chunks from the Go heap
// and relies on the garbage collector to reclaim them once unreferenced.
type heapDelegate struct{}

func (heapDelegate) AcquireChunk(size int) ([]byte, error) {
	return make([]byte, size), nil
}

func (heapDelegate) ReleaseChunk(buf []byte) {}

// DefaultDelegate is the host allocator used when an ArenaConfig omits
// one.
var DefaultDelegate Delegate = heapDelegate{}
