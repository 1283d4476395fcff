// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package wfq provides a wait-free, linearizable, multi-producer /
// multi-consumer FIFO queue.
//
// Unlike bounded ring-buffer queues, wfq grows on demand: producers and
// consumers claim tickets from two monotone counters, tickets address
// slots in a lazily-extended linked list of fixed-capacity segments, and
// hazard pointers let the slowest participant safely reclaim segments
// that have fully drained. There is no "full" state and no backpressure.
//
// # Quick Start
//
//	q := wfq.New[Job]()
//	h := q.Register()
//	defer q.Unregister(h)
//
//	h.Put(Job{ID: 1})
//	job := h.Get() // blocks until an item is available
//
// # Threads
//
// Every goroutine that calls Put or Get must first obtain its own Handle
// via [Queue.Register], and must call [Queue.Unregister] when done. A
// Handle must not be shared across goroutines.
//
//	go func() { // producer
//	    h := q.Register()
//	    defer q.Unregister(h)
//	    for job := range jobs {
//	        h.Put(job)
//	    }
//	}()
//
//	go func() { // consumer
//	    h := q.Register()
//	    defer q.Unregister(h)
//	    for {
//	        process(h.Get())
//	    }
//	}()
//
// # Ordering
//
// Get returns items in the order Put calls completed: if Put(A) completes
// before Put(B) starts (regardless of producer), and Get(X) completes
// before Get(Y) starts (regardless of consumer), and Get(X) returns A,
// then Get(Y) returns some item whose enqueue ticket is >= A's.
//
// # Blocking
//
// Get busy-waits until its slot is filled; there is no non-blocking
// "try" variant, by design. Applications that need cancellable dequeues
// should layer that above Get, for example by enqueueing a poison value.
//
// # Memory
//
// Put never blocks and never fails except on allocation failure, which
// panics, matching the host allocator's own failure discipline. An idle
// queue does not retain unboundedly many drained segments — [Handle.Get]
// reclaims them via a hazard-pointer scan once enough of the list has
// drained (see [WithHysteresis]).
//
// # Dependencies
//
// This package uses [code.hybscloud.com/atomix] for atomic primitives
// with explicit memory ordering and [code.hybscloud.com/spin] for the
// CPU-pause busy wait in Get. [code.hybscloud.com/iox] provides the
// re-exported [Backoff] type; the one recoverable error this package
// exposes, [ErrNotEmpty], is a plain standard-library sentinel.
package wfq
