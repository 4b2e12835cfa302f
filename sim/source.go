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

// Package sim provides an in-memory EdgeSource for simulation and testing.

package sim

import (
	"fmt"
	"sync"

	"github.com/aamcrae/quadrature/io"
)

// Source is a simulated EdgeSource. Levels are held in memory, and
// handlers are invoked by the goroutine that changes a level.
// Like a hardware source, handlers for a single pin never run
// concurrently, but handlers for different pins may.
type Source struct {
	mu      sync.Mutex
	levels  map[int]int
	pins    map[int]*pin
	failing map[int]bool
}

type pin struct {
	edge    int
	handler io.Handler
	busy    *sync.Mutex // Held while the handler runs
}

// NewSource creates an empty simulated source with all pins low.
func NewSource() *Source {
	s := new(Source)
	s.levels = make(map[int]int)
	s.pins = make(map[int]*pin)
	s.failing = make(map[int]bool)
	return s
}

// Fail makes future registrations of the pin fail.
func (s *Source) Fail(p int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[p] = true
}

// Register installs the handler for the pin.
func (s *Source) Register(p, edge int, h io.Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing[p] {
		return fmt.Errorf("sim%d: claim failed: %w", p, io.ErrUnavailable)
	}
	if _, ok := s.pins[p]; ok {
		return fmt.Errorf("sim%d: already registered: %w", p, io.ErrUnavailable)
	}
	s.pins[p] = &pin{edge: edge, handler: h, busy: new(sync.Mutex)}
	return nil
}

// ReadLevel returns the simulated level of the pin.
func (s *Source) ReadLevel(p int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.levels[p]
}

// Unregister removes the handler, waiting for a running handler to return.
func (s *Source) Unregister(p int) {
	s.mu.Lock()
	r := s.pins[p]
	delete(s.pins, p)
	s.mu.Unlock()
	if r != nil {
		r.busy.Lock()
		r.busy.Unlock()
	}
}

// Active returns the number of registered pins.
func (s *Source) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pins)
}

// SetLevel changes the level of the pin without invoking a handler.
func (s *Source) SetLevel(p, level int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.levels[p] = level
}

// Fire invokes the handler of the pin, if one is registered.
func (s *Source) Fire(p int) {
	s.mu.Lock()
	r := s.pins[p]
	s.mu.Unlock()
	if r == nil {
		return
	}
	r.busy.Lock()
	defer r.busy.Unlock()
	// Skip the handler if it was unregistered while waiting.
	s.mu.Lock()
	cur := s.pins[p]
	s.mu.Unlock()
	if cur == r {
		r.handler.Edge()
	}
}

// Set changes the level of the pin, invoking the handler if
// the change matches the edge detection the pin was registered with.
func (s *Source) Set(p, level int) error {
	if level != io.LOW && level != io.HIGH {
		return fmt.Errorf("sim%d: illegal value", p)
	}
	s.mu.Lock()
	old := s.levels[p]
	s.levels[p] = level
	r := s.pins[p]
	s.mu.Unlock()
	if old == level || r == nil {
		return nil
	}
	switch r.edge {
	case io.BOTH:
	case io.RISING:
		if level != io.HIGH {
			return nil
		}
	case io.FALLING:
		if level != io.LOW {
			return nil
		}
	default:
		return nil
	}
	s.Fire(p)
	return nil
}

// Output returns an io.Setter that drives the pin.
func (s *Source) Output(p int) io.Setter {
	return output{s, p}
}

type output struct {
	s   *Source
	pin int
}

func (o output) Set(v int) error {
	return o.s.Set(o.pin, v)
}
