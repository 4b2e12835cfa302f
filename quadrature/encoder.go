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

// Quadrature encoder driver.

package quadrature

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/aamcrae/quadrature/io"
)

// Logger receives debug and statistics output from an Encoder.
// *log.Logger satisfies this interface.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Direction is the direction of the last step decoded.
type Direction int32

const (
	Clockwise Direction = iota
	CounterClockwise
)

func (d Direction) String() string {
	if d == CounterClockwise {
		return "CCW"
	}
	return "CW"
}

// Tracking selects how the previous state used for decoding is kept.
type Tracking int

const (
	// PerChannel keeps a previous state for each channel, written only by
	// that channel's handler. A channel decodes the transition from the
	// state at its own last edge, so an edge of the other channel in
	// between is seen as a diagonal transition.
	PerChannel Tracking = iota
	// Shared keeps a single previous state for both channels, replaced
	// with compare-and-swap, so every edge decodes against the state
	// left by the edge before it on either channel.
	Shared
)

func (t Tracking) String() string {
	if t == Shared {
		return "shared"
	}
	return "channel"
}

// channel holds the state private to one channel's edge handler.
type channel struct {
	pin   int
	prev  int // Previous packed state, only accessed by this channel's handler
	edges atomic.Uint64
}

// Encoder decodes a two channel quadrature encoder.
// An edge on either channel samples both channels, and the transition
// from the previous state is decoded into a step that is added to the position.
// The position and direction are shared between the channel handlers,
// which the EdgeSource may invoke concurrently, and are updated atomically.
// With PerChannel tracking each channel keeps its own previous state, and
// with Shared tracking the state is replaced by compare-and-swap, so no
// locking is required for the decode itself.
type Encoder struct {
	Name      string
	src       io.EdgeSource
	log       Logger // May be nil
	tracking  Tracking
	a, b      channel
	shared    atomic.Int32 // Previous state when tracking is Shared
	position  atomic.Int64
	direction atomic.Int32
	missed    atomic.Uint64 // Diagonal transitions seen
	timer     *PulseTimer
	closed    atomic.Bool
	ready     atomic.Bool   // Previous states have been seeded
	seeded    chan struct{} // Closed once the previous states are seeded
}

// Stats is a snapshot of the encoder diagnostics.
type Stats struct {
	EdgesA    uint64
	EdgesB    uint64
	Missed    uint64
	Direction Direction
	Period    time.Duration
}

func (s Stats) String() string {
	return fmt.Sprintf("A edges %d, B edges %d, missed %d, direction %s, period %s",
		s.EdgesA, s.EdgesB, s.Missed, s.Direction, periodString(s.Period))
}

func periodString(p time.Duration) string {
	if p == UnknownPeriod {
		return "unknown"
	}
	return p.String()
}

// NewEncoder creates an Encoder for the channels on pinA and pinB,
// registering a handler for both edges of each channel.
// If either pin cannot be claimed, any registration already made is
// released and the error (wrapping io.ErrUnavailable) is returned.
// logger may be nil, in which case the encoder is silent.
func NewEncoder(name string, src io.EdgeSource, pinA, pinB int, logger Logger) (*Encoder, error) {
	return NewTrackingEncoder(name, src, pinA, pinB, PerChannel, logger)
}

// NewTrackingEncoder creates an Encoder using the selected Tracking.
func NewTrackingEncoder(name string, src io.EdgeSource, pinA, pinB int, tracking Tracking, logger Logger) (*Encoder, error) {
	e := new(Encoder)
	e.Name = name
	e.src = src
	e.log = logger
	e.tracking = tracking
	e.a.pin = pinA
	e.b.pin = pinB
	e.timer = NewPulseTimer()
	e.seeded = make(chan struct{})
	if err := src.Register(pinA, io.BOTH, io.HandlerFunc(e.edgeA)); err != nil {
		return nil, fmt.Errorf("%s: channel A: %w", name, err)
	}
	if err := src.Register(pinB, io.BOTH, io.HandlerFunc(e.edgeB)); err != nil {
		// Release any handler of A waiting for the seed.
		close(e.seeded)
		src.Unregister(pinA)
		return nil, fmt.Errorf("%s: channel B: %w", name, err)
	}
	// The pins are sampled once both are claimed, so the source reads the
	// real shaft position. Handlers invoked before this wait for the seed.
	e.seed(e.sample())
	e.printf("%s: quadrature encoder created (A=%d, B=%d, %s tracking)", name, pinA, pinB, tracking)
	return e, nil
}

// Close releases both channels. Once Close returns, no handler is running.
func (e *Encoder) Close() {
	if e.closed.Swap(true) {
		return
	}
	e.src.Unregister(e.a.pin)
	e.src.Unregister(e.b.pin)
}

// Position returns the current position counter.
func (e *Encoder) Position() int64 {
	p := e.position.Load()
	e.printf("%s: position %d", e.Name, p)
	return p
}

// SetZero resets the position counter to 0. Steps decoded concurrently
// are either discarded with the old position or applied to the new one.
func (e *Encoder) SetZero() {
	old := e.position.Swap(0)
	e.printf("%s: position reset to 0 (was %d)", e.Name, old)
}

// Direction returns the direction of the last non-zero step.
func (e *Encoder) Direction() Direction {
	d := Direction(e.direction.Load())
	e.printf("%s: direction %s", e.Name, d)
	return d
}

// Period returns the last measured period between edges,
// or UnknownPeriod if not enough edges have been seen.
func (e *Encoder) Period() time.Duration {
	p := e.timer.Period()
	e.printf("%s: period %s", e.Name, periodString(p))
	return p
}

// Diagnostics returns the number of edges seen on each channel.
func (e *Encoder) Diagnostics() (uint64, uint64) {
	return e.a.edges.Load(), e.b.edges.Load()
}

// Missed returns the number of diagonal transitions, each of which
// indicates at least one lost edge.
func (e *Encoder) Missed() uint64 {
	return e.missed.Load()
}

// Stats returns a snapshot of the diagnostics.
func (e *Encoder) Stats() Stats {
	return Stats{
		EdgesA:    e.a.edges.Load(),
		EdgesB:    e.b.edges.Load(),
		Missed:    e.missed.Load(),
		Direction: Direction(e.direction.Load()),
		Period:    e.timer.Period(),
	}
}

// LogStats writes the diagnostics to the logger.
func (e *Encoder) LogStats() {
	e.printf("%s: %s", e.Name, e.Stats())
}

func (e *Encoder) edgeA() {
	e.edge(&e.a)
}

func (e *Encoder) edgeB() {
	e.edge(&e.b)
}

// seed sets the previous state of both channels and releases the handlers.
func (e *Encoder) seed(state int) {
	e.a.prev = state
	e.b.prev = state
	e.shared.Store(int32(state))
	close(e.seeded)
	e.ready.Store(true)
}

func (e *Encoder) edge(c *channel) {
	if !e.ready.Load() {
		<-e.seeded
	}
	if e.tracking == Shared {
		e.decodeShared(c)
	} else {
		e.decode(c, e.sample())
	}
}

// decode applies the transition to state from the channel's previous state.
func (e *Encoder) decode(c *channel, state int) {
	e.apply(c, c.prev, state)
	c.prev = state
}

// decodeShared applies the transition from the shared previous state.
// If another edge replaces the shared state first, the levels are sampled again.
func (e *Encoder) decodeShared(c *channel) {
	for {
		prev := e.shared.Load()
		state := e.sample()
		if e.shared.CompareAndSwap(prev, int32(state)) {
			e.apply(c, int(prev), state)
			return
		}
	}
}

// apply updates the counters for one edge on channel c.
func (e *Encoder) apply(c *channel, prev, state int) {
	switch step := Decode(prev, state); {
	case step > 0:
		e.position.Add(1)
		e.direction.Store(int32(Clockwise))
	case step < 0:
		e.position.Add(-1)
		e.direction.Store(int32(CounterClockwise))
	case state != prev:
		e.missed.Add(1)
	}
	e.timer.Record()
	c.edges.Add(1)
}

// sample reads both channels and packs them as A<<1 | B.
func (e *Encoder) sample() int {
	a := e.src.ReadLevel(e.a.pin)
	b := e.src.ReadLevel(e.b.pin)
	if a&^1 != 0 || b&^1 != 0 {
		panic(fmt.Sprintf("%s: invalid channel levels A=%d B=%d", e.Name, a, b))
	}
	return a<<1 | b
}

func (e *Encoder) printf(format string, v ...interface{}) {
	if e.log != nil {
		e.log.Printf(format, v...)
	}
}
