// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wfq

import (
	"code.hybscloud.com/atomix"
)

// cacheLinePad prevents false sharing between fields that are touched by
// different threads; see spec.md §4.2, §6 and §9 "Cache-line alignment".
type cacheLinePad [64]byte

// slot is one cell of a segment: the unit of single-writer/single-reader
// handoff between the enqueuer whose ticket maps to it and the matching
// dequeuer (spec.md §3 Segment node, §4.8 slot cell state machine).
//
// filled carries the {EMPTY, FILLED} state explicitly rather than
// comparing data to a sentinel value, because Go generics have no
// universal "not a valid T" value the way the source's void* has NULL
// (see DESIGN.md).
type slot[T any] struct {
	filled atomix.Bool
	data   T
	_      cacheLinePad
}

// segment is a fixed-capacity array node in the backing list (spec.md §3
// Segment node). id is set once at construction and never mutated
// (invariant SEG-1: ids are monotone along next), so it needs no atomic
// wrapper; next and the slots it owns are read/written concurrently.
type segment[T any] struct {
	id   int64
	next atomix.Pointer[segment[T]]
	// reclaimed is set by a reclamation pass once this segment has been
	// walked past; it exists purely so tests can assert the "no
	// reclaim-use-after-free" property (spec.md §8) by checking that no
	// handle ever observes a reclaimed segment's id through node[*] or
	// hazard.
	reclaimed atomix.Bool
	slots     []slot[T]
	_         cacheLinePad
}

func newSegment[T any](id int64, capacity int) *segment[T] {
	return &segment[T]{
		id:    id,
		slots: make([]slot[T], capacity),
	}
}

// queueHead tracks the oldest segment still logically referenced
// (spec.md §3 Queue root: head.node, head.index).
//
// index doubles as the reclamation mutual-exclusion token: it holds
// head.node.id while reclamation is idle and the sentinel -1 while a
// reclamation pass is in flight (spec.md §4.8 "Reclamation head index").
type queueHead[T any] struct {
	node  atomix.Pointer[segment[T]]
	index atomix.Int64
}

// Queue is a wait-free, linearizable, multi-producer/multi-consumer FIFO
// queue. See the package doc comment for usage; every participating
// goroutine must call [Queue.Register] before [Handle.Put]/[Handle.Get]
// and [Queue.Unregister] when finished.
type Queue[T any] struct {
	_ cacheLinePad
	// enqTicket and deqTicket are the two independent monotone counters
	// from spec.md §4.1: a ticket i addresses segment i/S, slot i%S.
	enqTicket atomix.Uint64
	_         cacheLinePad
	deqTicket atomix.Uint64
	_         cacheLinePad
	head      queueHead[T]
	_         cacheLinePad
	// plist is the head of the singly-linked handle registry (spec.md
	// §3 Queue root: plist), CAS-pushed by Register and spliced under
	// lock by Unregister.
	plist atomix.Pointer[Handle[T]]
	_     cacheLinePad
	lock  atomix.Bool // test-and-set spinlock, registry membership only
	_     cacheLinePad
	width atomix.Int32 // W: registered participant count

	segCapacity uint64 // S
	hysteresis  int64
}

// New creates a queue and allocates its initial segment (spec.md §6
// init(queue, S, W0)). Default segment capacity is 510 (matching
// original_source/fifo.c's BENCHMARK harness), default reclamation
// hysteresis factor is 2 (spec.md §9), and default initial width W0 is 0;
// override with [WithSegmentCapacity], [WithHysteresis], and
// [WithInitialWidth].
func New[T any](opts ...Option) *Queue[T] {
	cfg := options{
		segmentCapacity: defaultSegmentCapacity,
		hysteresis:      defaultHysteresis,
		initialWidth:    defaultInitialWidth,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	q := &Queue[T]{
		segCapacity: uint64(cfg.segmentCapacity),
		hysteresis:  int64(cfg.hysteresis),
	}
	q.width.StoreRelaxed(int32(cfg.initialWidth))
	initial := newSegment[T](0, cfg.segmentCapacity)
	q.head.node.StoreRelaxed(initial)
	q.head.index.StoreRelaxed(0)
	return q
}

// Close frees the queue's remaining segments (spec.md §6 destroy).
// It requires the handle registry to be empty: every [Queue.Register]
// must be matched by a [Queue.Unregister] before calling Close.
func (q *Queue[T]) Close() error {
	if q.plist.LoadAcquire() != nil {
		return ErrNotEmpty
	}
	q.head.node.StoreRelaxed(nil)
	return nil
}

// update walks node forward by following next until it reaches the
// segment with id == to, lazily extending the list when it runs off the
// end (spec.md §4.2 "Walk-and-extend (update)", original_source/fifo.c
// update()). On CAS success the caller becomes the segment's "winner"
// and will run the next reclamation pass on its next Get.
func (q *Queue[T]) update(node *segment[T], to uint64, winner *atomix.Bool) *segment[T] {
	for uint64(node.id) < to {
		next := node.next.LoadAcquire()
		if next == nil {
			candidate := newSegment[T](node.id+1, int(q.segCapacity))
			if node.next.CompareAndSwapAcqRel(nil, candidate) {
				next = candidate
				winner.StoreRelease(true)
			} else {
				// Lost the race: adopt whatever the winner installed.
				// No explicit free is needed — the speculative
				// candidate is simply dropped, unreferenced, and left to
				// the garbage collector.
				next = node.next.LoadAcquire()
			}
		}
		node = next
	}
	return node
}
