// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package quadrature

import (
	"sync/atomic"
	"time"
)

// UnknownPeriod is returned as the period until two edges have been timed.
const UnknownPeriod time.Duration = -1

// pulse is an immutable snapshot of the timer state.
type pulse struct {
	seq    uint64        // Number of edges recorded
	stamp  time.Duration // Time of the last odd numbered edge
	period time.Duration // Last computed period
}

// PulseTimer measures the period between pairs of edges.
// Odd numbered edges record a timestamp, and even numbered edges
// compute the period since that timestamp. The edge sequence,
// timestamp and period are replaced together as a single snapshot,
// so concurrent callers always see a period derived from the timestamp
// of the preceding edge.
type PulseTimer struct {
	now   func() time.Duration // Monotonic clock
	state atomic.Pointer[pulse]
}

// NewPulseTimer creates a PulseTimer using the monotonic clock.
func NewPulseTimer() *PulseTimer {
	start := time.Now()
	return newPulseTimer(func() time.Duration {
		return time.Since(start)
	})
}

func newPulseTimer(now func() time.Duration) *PulseTimer {
	t := &PulseTimer{now: now}
	t.state.Store(&pulse{period: UnknownPeriod})
	return t
}

// Record registers an edge. On even numbered edges the period since the
// previous edge is returned with true.
func (t *PulseTimer) Record() (time.Duration, bool) {
	for {
		old := t.state.Load()
		now := t.now()
		next := &pulse{seq: old.seq + 1, stamp: old.stamp, period: old.period}
		odd := next.seq%2 == 1
		if odd {
			next.stamp = now
		} else {
			next.period = now - old.stamp
		}
		if t.state.CompareAndSwap(old, next) {
			if odd {
				return 0, false
			}
			return next.period, true
		}
	}
}

// Period returns the most recent period, or UnknownPeriod.
func (t *PulseTimer) Period() time.Duration {
	return t.state.Load().period
}

// Count returns the number of edges recorded.
func (t *PulseTimer) Count() uint64 {
	return t.state.Load().seq
}
