// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wfq

import "code.hybscloud.com/iox"

// Backoff is an adaptive backoff policy, re-exported from
// [code.hybscloud.com/iox] for ecosystem consistency.
//
// Get already busy-waits on its own slot using [code.hybscloud.com/spin];
// Backoff is for callers layering their own waiting strategy above the
// queue — for example a cancellable dequeue built from a poison value and
// a retry loop, or pacing producers that want to yield between Puts under
// sustained contention (spec.md §9 "adaptive backoff", "cancellable
// variant is out of scope" at the queue layer itself).
//
// Example:
//
//	done := make(chan struct{})
//	go func() {
//	    h := q.Register()
//	    defer q.Unregister(h)
//	    backoff := wfq.Backoff{}
//	    for {
//	        select {
//	        case <-done:
//	            return
//	        default:
//	        }
//	        item := h.Get() // still blocks; cancellation is cooperative
//	        process(item)
//	        backoff.Reset()
//	    }
//	}()
type Backoff = iox.Backoff
