// Copyright 2025 Mulga Defense Corporation (MDC). All rights reserved.
// Use of this source code is governed by an Apache 2.0 license
// that can be found in the LICENSE file.

package blink

import (
	"iter"
	"log/slog"
	"unsafe"
)

// Dropper is implemented by types that own a resource outside the arena's
// memory (a file descriptor, a registry entry) and must be notified before
// their backing storage is reclaimed. Types without external resources
// need not implement it: DropArena still records their destructor entry,
// but running it is a no-op.
type Dropper interface {
	Drop()
}

// dropNode is one link in a DropArena's destructor chain: the address and
// element count of a placed value, plus the closure that knows how to run
// its destructor. New nodes are pushed onto the head, so walking from the
// head runs destructors in reverse insertion order.
type dropNode struct {
	addr  unsafe.Pointer
	count int
	run   func(addr unsafe.Pointer, count int)
	next  *dropNode
}

// DropArena wraps a LocalArena with a destructor chain: every value placed
// through Put, and every range placed through FromIter, gets an entry here,
// and Reset runs them all, newest first (a range's elements last to first),
// before reclaiming the underlying chunks.
type DropArena struct {
	arena *LocalArena
	drops *dropNode
}

// NewDropArena wraps an existing LocalArena.
func NewDropArena(arena *LocalArena) *DropArena {
	return &DropArena{arena: arena}
}

// NewDefaultDropArena wraps a freshly created, default-configured
// LocalArena.
func NewDefaultDropArena() *DropArena {
	return NewDropArena(NewDefaultLocalArena())
}

// Handle is a generation-stamped reference into a DropArena's backing
// arena. It substitutes for the borrow-checker guarantee the original
// design relied on: Get panics if the arena has been reset since the
// handle was issued, rather than silently handing back memory that may
// since have been overwritten.
type Handle[T any] struct {
	arena      *LocalArena
	ptr        *T
	generation uint64
}

// Get returns the handle's value. It panics with ErrGenerationStale if the
// arena has reset since Put issued this handle.
func (h Handle[T]) Get() *T {
	if h.arena.Generation() != h.generation {
		panic(ErrGenerationStale)
	}
	return h.ptr
}

func (d *DropArena) addDrop(addr unsafe.Pointer, count int, run func(unsafe.Pointer, int)) {
	d.drops = &dropNode{addr: addr, count: count, run: run, next: d.drops}
}

// Put copies value into the arena and records a destructor entry for it,
// returning a generation-checked handle to the placed copy.
func Put[T any](d *DropArena, value T) (Handle[T], error) {
	var zero T
	layout := Layout{Size: int(unsafe.Sizeof(zero)), Align: int(unsafe.Alignof(zero))}

	ptr, err := d.arena.Allocate(layout)
	if err != nil {
		return Handle[T]{}, err
	}

	typed := (*T)(ptr)
	*typed = value

	d.addDrop(ptr, 1, func(addr unsafe.Pointer, count int) {
		p := (*T)(addr)
		if dropper, ok := any(p).(Dropper); ok {
			dropper.Drop()
		}
	})

	return Handle[T]{arena: d.arena, ptr: typed, generation: d.arena.Generation()}, nil
}

// CopyBytes copies data into the arena and returns a slice over the copy.
// Byte slices are trivially destructible, so no drop entry is recorded.
func CopyBytes(d *DropArena, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	ptr, err := d.arena.Allocate(Layout{Size: len(data), Align: 1})
	if err != nil {
		return nil, err
	}
	dst := unsafe.Slice((*byte)(ptr), len(data))
	copy(dst, data)
	return dst, nil
}

// CopyString copies s into the arena and returns a string header over the
// copy, reusing CopyBytes rather than duplicating its allocation path.
func CopyString(d *DropArena, s string) (string, error) {
	b, err := CopyBytes(d, []byte(s))
	if err != nil {
		return "", err
	}
	if len(b) == 0 {
		return "", nil
	}
	return unsafe.String(unsafe.SliceData(b), len(b)), nil
}

// elemLayout describes the per-element size and alignment FromIter reasons
// about when growing its output buffer.
func elemLayout[T any]() (size, align int) {
	var zero T
	return int(unsafe.Sizeof(zero)), int(unsafe.Alignof(zero))
}

// FromIter drains seq into arena-owned storage without trusting any
// caller-supplied size hint: it starts with a modest buffer and grows it
// geometrically via the arena's Grow fast path as more elements arrive,
// so a sequence that produces far fewer (or far more) elements than a
// filter's upstream length suggested is handled correctly either way. On
// completion it records a single drop entry covering the whole range, whose
// elements are destroyed last to first, and shrinks the backing allocation
// to the exact count produced.
func FromIter[T any](d *DropArena, seq iter.Seq[T]) ([]T, error) {
	const initialCap = 8

	size, align := elemLayout[T]()
	capElems := initialCap
	layout := Layout{Size: size * capElems, Align: align}

	ptr, err := d.arena.Allocate(layout)
	if err != nil {
		return nil, err
	}

	count := 0
	next, stop := iter.Pull(seq)
	defer stop()

	for {
		v, ok := next()
		if !ok {
			break
		}
		if count == capElems {
			newCapElems := capElems * 2
			newLayout := Layout{Size: size * newCapElems, Align: align}
			newPtr, err := d.arena.Grow(ptr, layout, newLayout)
			if err != nil {
				return nil, err
			}
			ptr, layout, capElems = newPtr, newLayout, newCapElems
		}
		slot := (*T)(unsafe.Add(ptr, count*size))
		*slot = v
		count++
	}

	if count < capElems {
		ptr = d.arena.Shrink(ptr, layout, Layout{Size: size * count, Align: align})
	}

	if count > 0 {
		d.addDrop(ptr, count, func(addr unsafe.Pointer, n int) {
			for i := n - 1; i >= 0; i-- {
				elem := (*T)(unsafe.Add(addr, i*size))
				if dropper, ok := any(elem).(Dropper); ok {
					func() {
						defer func() {
							if r := recover(); r != nil {
								slog.Error("destructor panicked during drop arena reset", "panic", r)
							}
						}()
						dropper.Drop()
					}()
				}
			}
		})
	}

	return unsafe.Slice((*T)(ptr), count), nil
}

// Reset runs every recorded destructor, newest first, then resets the
// underlying arena. A destructor panic is logged and swallowed so the
// remaining destructors still run — one misbehaving Drop must not leak
// everything allocated before it.
func (d *DropArena) Reset() {
	for n := d.drops; n != nil; {
		next := n.next
		d.runDrop(n)
		n = next
	}
	d.drops = nil
	d.arena.Reset()
}

func (d *DropArena) runDrop(n *dropNode) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("destructor panicked during drop arena reset", "panic", r)
		}
	}()
	n.run(n.addr, n.count)
}

// Drop runs every recorded destructor, newest first, then releases the
// underlying arena's chunks permanently.
func (d *DropArena) Drop() {
	for n := d.drops; n != nil; {
		next := n.next
		d.runDrop(n)
		n = next
	}
	d.drops = nil
	d.arena.Drop()
}
