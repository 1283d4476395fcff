// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wfq

import "code.hybscloud.com/atomix"

// cleanup is the reclamation pass (spec.md §4.7): it contracts
// headCandidate — always the segment the calling Get just operated on —
// down against every registered handle's hazard and cached node fields,
// then advances the queue's logical head past everything it proved is no
// longer referenced.
//
// Only the handle that just installed a new segment (handle.winner) runs
// cleanup, amortizing the scan over the operation that already extended
// the list (spec.md §4.6 "Why the dequeuer runs cleanup").
func (q *Queue[T]) cleanup(headCandidate *segment[T]) {
	index := q.head.index.LoadAcquire()
	if index == -1 {
		return // another reclamation is already in flight
	}

	threshold := q.hysteresis * int64(q.width.LoadRelaxed())
	if headCandidate.id-index <= threshold {
		return // too little drained to be worth scanning
	}

	if !q.head.index.CompareAndSwapAcqRel(index, -1) {
		return // lost the race to become the reclaimer
	}

	curr := q.head.node.LoadAcquire()
	for p := q.plist.LoadAcquire(); p != nil && curr != headCandidate; p = p.next.LoadAcquire() {
		headCandidate = checkHazard(&p.hazard, headCandidate)
		headCandidate = checkNode(&p.nodeEnq, &p.hazard, headCandidate)
		headCandidate = checkNode(&p.nodeDeq, &p.hazard, headCandidate)
	}

	for curr != headCandidate {
		next := curr.next.LoadAcquire()
		curr.reclaimed.StoreRelease(true)
		curr = next
	}

	q.head.node.StoreRelaxed(headCandidate)
	q.head.index.StoreRelease(headCandidate.id)
}

// checkHazard contracts to down to hazard's bare value if it references
// an older segment (original_source/fifo.c check() called with a nil
// phazard: a plain read-and-compare, no CAS).
func checkHazard[T any](hazard *atomix.Pointer[segment[T]], to *segment[T]) *segment[T] {
	node := hazard.LoadAcquire()
	if node != nil && node.id < to.id {
		return node
	}
	return to
}

// checkNode contracts to down via a handle's cached node field, guarded
// by its hazard pointer (original_source/fifo.c check() called with a
// non-nil phazard, spec.md §4.7 second bullet).
//
// The hazard is read *after* attempting to move the node field forward,
// and *before* trusting the CAS result, so that a hazard published
// concurrently with this scan is never missed (invariant HAZ-1, HAZ-2).
func checkNode[T any](pnode, hazard *atomix.Pointer[segment[T]], to *segment[T]) *segment[T] {
	node := pnode.LoadAcquire()
	if node.id >= to.id {
		return to
	}

	swapped := pnode.CompareAndSwapAcqRel(node, to)
	hz := hazard.LoadAcquire()
	switch {
	case hz != nil:
		node = hz
	case swapped:
		node = to
	default:
		node = pnode.LoadAcquire()
	}

	if node.id < to.id {
		to = node
	}
	return to
}
