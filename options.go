// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package wfq

// Default segment capacity and reclamation hysteresis factor, matching
// original_source/fifo.c's BENCHMARK harness (fifo_init(&fifo, 510, ...))
// and spec.md §4.7/§9.
const (
	defaultSegmentCapacity = 510
	defaultHysteresis      = 2
	defaultInitialWidth    = 0
)

type options struct {
	segmentCapacity int
	hysteresis      int
	initialWidth    int
}

// Option configures a [Queue] at construction time.
type Option func(*options)

// WithSegmentCapacity sets the number of slots per segment (spec.md §6
// parameter S): larger segments amortize allocation over more operations
// at the cost of more per-segment waste when a queue sits mostly empty.
// Panics if n <= 0.
func WithSegmentCapacity(n int) Option {
	if n <= 0 {
		panic("wfq: segment capacity must be > 0")
	}
	return func(o *options) { o.segmentCapacity = n }
}

// WithHysteresis sets the reclamation hysteresis factor (spec.md §4.7,
// §9 Open Questions). Reclamation only scans the registry once the
// segment a Get just touched has drained more than factor*W segments
// past the current head; a larger factor trades slower reclamation for
// fewer, cheaper scans. Panics if factor <= 0.
func WithHysteresis(factor int) Option {
	if factor <= 0 {
		panic("wfq: hysteresis factor must be > 0")
	}
	return func(o *options) { o.hysteresis = factor }
}

// WithInitialWidth sets W0 (spec.md §6 init parameter W0): the seed value
// for the registered-participant count W that [New] installs before any
// goroutine calls [Queue.Register]. [Queue.Register] and [Queue.Unregister]
// adjust W from there as usual (see DESIGN.md on why Register, unlike
// original_source/fifo.c's fifo_register, touches W at all). Defaults to 0,
// matching a queue with no participants until the first Register. Panics if
// n < 0.
func WithInitialWidth(n int) Option {
	if n < 0 {
		panic("wfq: initial width must be >= 0")
	}
	return func(o *options) { o.initialWidth = n }
}
