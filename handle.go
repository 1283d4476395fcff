// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wfq

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// Handle is a per-goroutine registration record (spec.md §3 Handle).
// Obtain one with [Queue.Register]; it must not be shared across
// goroutines, and must be released with [Queue.Unregister] once the
// owning goroutine is done calling Put/Get.
//
// All fields that a reclamation pass may inspect from another goroutine
// (hazard, nodeEnq, nodeDeq, next) are atomic; winner is also atomic
// because a future Get on this same handle — never another goroutine —
// is the only other reader, but it is still published across the
// publish/re-read hazard fence in acquire.
type Handle[T any] struct {
	q       *Queue[T]
	nodeEnq atomix.Pointer[segment[T]] // cached segment for Put
	nodeDeq atomix.Pointer[segment[T]] // cached segment for Get
	hazard  atomix.Pointer[segment[T]] // published segment in active use
	winner  atomix.Bool                // set when this handle installed a segment
	next    atomix.Pointer[Handle[T]]  // registry link

	// registered guards against double Unregister / use-after-unregister,
	// a debug-build assertion per spec.md §7 "Contract violation".
	registered atomix.Bool
}

// Register creates a Handle for the calling goroutine, seeds its cached
// segment references to the queue's current head, and publishes it into
// the registry (spec.md §4.3 register, §6).
//
// Registration is CAS-only — it never takes the registry lock, which is
// reserved for membership removal (spec.md §4.3 Rationale).
func (q *Queue[T]) Register() *Handle[T] {
	h := &Handle[T]{q: q}
	head := q.head.node.LoadAcquire()
	h.nodeEnq.StoreRelaxed(head)
	h.nodeDeq.StoreRelaxed(head)
	h.registered.StoreRelaxed(true)

	sw := spin.Wait{}
	for {
		curr := q.plist.LoadAcquire()
		h.next.StoreRelaxed(curr)
		if q.plist.CompareAndSwapAcqRel(curr, h) {
			break
		}
		sw.Once()
	}
	q.width.AddAcqRel(1)
	return h
}

// Unregister removes h from the registry and decrements the participant
// count (spec.md §4.3 unregister, §6). It takes the registry spinlock
// only for the splice; reclamation scans never block on it (spec.md §5).
//
// The caller must not call Put/Get on h again, and must not free h's
// storage until certain no reclamation pass that began before this call
// is still in flight (spec.md §9 Open Questions) — the simplest safe
// discipline is to only call Unregister once the calling goroutine is
// quiescent with respect to the queue.
func (q *Queue[T]) Unregister(h *Handle[T]) {
	if !h.registered.LoadAcquire() {
		panic("wfq: Unregister called on a handle that is not registered")
	}

	sw := spin.Wait{}
	for !q.lock.CompareAndSwapAcqRel(false, true) {
		sw.Once()
	}

	prev := (*Handle[T])(nil)
	curr := q.plist.LoadAcquire()
	for curr != nil && curr != h {
		prev = curr
		curr = curr.next.LoadAcquire()
	}
	if curr == h {
		next := h.next.LoadAcquire()
		if prev == nil {
			q.plist.StoreRelease(next)
		} else {
			prev.next.StoreRelease(next)
		}
	}
	q.width.AddAcqRel(-1)

	q.lock.StoreRelease(false)

	h.registered.StoreRelease(false)
}

// acquire obtains a segment reference the caller may safely dereference:
// it publishes the hazard pointer, fences, and re-reads the cached node
// to confirm no reclamation pass could have freed it between the read
// and the publish (spec.md §4.4, invariant HAZ-2).
func acquire[T any](cached, hazard *atomix.Pointer[segment[T]]) *segment[T] {
	for {
		n := cached.LoadAcquire()
		hazard.StoreRelease(n)
		n2 := cached.LoadAcquire()
		if n2 == n {
			return n
		}
	}
}

// Put enqueues item (spec.md §4.5). Put never blocks and does not fail
// except on allocation failure extending the segment list, which panics.
func (h *Handle[T]) Put(item T) {
	if !h.registered.LoadAcquire() {
		panic("wfq: Put called on a handle that is not registered")
	}

	n := acquire(&h.nodeEnq, &h.hazard)

	i := h.q.enqTicket.AddAcqRel(1) - 1
	ni := i / h.q.segCapacity
	li := i % h.q.segCapacity

	if uint64(n.id) != ni {
		n = h.q.update(n, ni, &h.winner)
		h.nodeEnq.StoreRelease(n)
	}

	target := &n.slots[li]
	target.data = item
	target.filled.StoreRelease(true)

	h.hazard.StoreRelease(nil)
}

// Get dequeues and returns the next item in FIFO order (spec.md §4.6).
// It busy-waits on its assigned slot until the matching Put has published
// its payload; there is no non-blocking variant, by design.
func (h *Handle[T]) Get() T {
	if !h.registered.LoadAcquire() {
		panic("wfq: Get called on a handle that is not registered")
	}

	n := acquire(&h.nodeDeq, &h.hazard)

	i := h.q.deqTicket.AddAcqRel(1) - 1
	ni := i / h.q.segCapacity
	li := i % h.q.segCapacity

	if uint64(n.id) != ni {
		n = h.q.update(n, ni, &h.winner)
		h.nodeDeq.StoreRelease(n)
	}

	target := &n.slots[li]
	sw := spin.Wait{}
	for !target.filled.LoadAcquire() {
		sw.Once()
	}
	val := target.data

	if h.winner.LoadAcquire() {
		h.q.cleanup(n)
		h.winner.StoreRelease(false)
	}

	h.hazard.StoreRelease(nil)
	return val
}
