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

package io

import (
	"sync/atomic"
	"time"
)

const generatorQueueSize = 20 // Size of queue for requests

type genMsg struct {
	rpm   float64
	steps int
	sync  chan bool
}

// Generator drives two outputs with a quadrature signal, as an
// encoder on a rotating shaft would.
// All output is done in a background goroutine, so requests can be queued.
// The current step number is maintained as an absolute number, referenced from
// 0 when the generator is first initialised. Positive steps are clockwise.
type Generator struct {
	pinA, pinB Setter  // Channel outputs
	factor     float64 // Nanoseconds per minute / steps per revolution.
	mChan      chan genMsg
	stopChan   chan bool // channel for signalling resets.
	index      int       // Index to Gray code sequence
	current    int64     // Current step number as an absolute number
}

// Gray code sequence of (A, B) outputs for clockwise rotation.
var graySequence = [][2]int{
	{0, 0},
	{0, 1},
	{1, 1},
	{1, 0},
}

// NewGenerator creates and initialises a Generator,
// rev is the number of steps in one revolution of the simulated
// shaft, used to convert a RPM value to a step delay.
// The outputs are initialised to the first state in the sequence.
func NewGenerator(rev int, pinA, pinB Setter) *Generator {
	g := new(Generator)
	g.factor = float64(time.Minute.Nanoseconds()) / float64(rev)
	g.pinA = pinA
	g.pinB = pinB
	g.mChan = make(chan genMsg, generatorQueueSize)
	g.stopChan = make(chan bool)
	g.output()
	go g.handler()
	return g
}

// Close stops the generator and frees any resources.
func (g *Generator) Close() {
	g.Stop()
	close(g.mChan)
	close(g.stopChan)
}

// Count returns the current step number, which is an accumulative
// signed value representing the steps generated.
func (g *Generator) Count() int64 {
	return atomic.LoadInt64(&g.current)
}

// State returns the (A, B) levels currently being output.
func (g *Generator) State() (int, int) {
	s := graySequence[int(atomic.LoadInt64(&g.current))&3]
	return s[0], s[1]
}

// Stop aborts any current stepping, and flushes all queued requests.
func (g *Generator) Stop() {
	g.stopChan <- true
	g.Wait()
}

// Step queues a request to generate steps at the RPM selected.
// If steps is positive, the signal represents clockwise rotation, otherwise ccw.
func (g *Generator) Step(rpm float64, steps int) {
	if steps != 0 && rpm > 0.0 {
		g.mChan <- genMsg{rpm: rpm, steps: steps}
	}
}

// Wait waits for all requests to complete
func (g *Generator) Wait() {
	c := make(chan bool)
	g.mChan <- genMsg{sync: c}
	<-c
}

// goroutine handler
// Listens on message channel, and generates the steps.
func (g *Generator) handler() {
	for {
		select {
		case m, ok := <-g.mChan:
			if !ok {
				return
			}
			if m.steps != 0 {
				if g.step(m.rpm, m.steps) {
					return
				}
			}
			if m.sync != nil {
				m.sync <- true
				close(m.sync)
			}
		case stop := <-g.stopChan:
			g.flush()
			if !stop {
				return
			}
		}
	}
}

// step outputs the number of steps requested. Once started,
// the stop channel is used to abort the sequence.
// Returns true if the generator has been closed.
func (g *Generator) step(rpm float64, steps int) bool {
	inc := 1
	if steps < 0 {
		inc = -1
		steps = -steps
	}
	ticker := time.NewTicker(time.Duration(g.factor / rpm))
	defer ticker.Stop()
	for i := 0; i < steps; i++ {
		g.index = (g.index + inc) & 3
		g.output()
		atomic.AddInt64(&g.current, int64(inc))
		select {
		case stop := <-g.stopChan:
			g.flush()
			return !stop
		case <-ticker.C:
		}
	}
	return false
}

// Flush all remaining requests from the message channel.
func (g *Generator) flush() {
	for {
		select {
		case m, ok := <-g.mChan:
			if !ok {
				return
			}
			if m.sync != nil {
				m.sync <- true
				close(m.sync)
			}
		default:
			return
		}
	}
}

// Set the outputs according to the current sequence index.
// Only one output changes between adjacent states, so only one
// edge is generated per step.
func (g *Generator) output() {
	s := graySequence[g.index]
	g.pinA.Set(s[0])
	g.pinB.Set(s[1])
}
