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
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// pollInterval bounds how long a dispatcher sits in poll before
// checking for a stop request.
const pollInterval = 100 * time.Millisecond

// SysfsSource is an EdgeSource using the sysfs GPIO interface.
// Each registered pin has a dispatcher goroutine that waits for
// edges and invokes the handler.
type SysfsSource struct {
	mu   sync.Mutex
	pins map[int]*watch
}

type watch struct {
	gpio    *Gpio
	level   atomic.Int32   // Last level read
	stop    chan chan bool // Stop request, acknowledged once the dispatcher exits
	closing bool           // Guarded by SysfsSource.mu
}

// NewSysfsSource creates an EdgeSource for sysfs GPIOs.
func NewSysfsSource() *SysfsSource {
	s := new(SysfsSource)
	s.pins = make(map[int]*watch)
	return s
}

// Register claims the GPIO as an input with the requested edge
// detection, and starts a dispatcher to invoke h on every edge.
func (s *SysfsSource) Register(pin, edge int, h Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pins[pin]; ok {
		return fmt.Errorf("gpio%d: already registered: %w", pin, ErrUnavailable)
	}
	g, err := Pin(pin)
	if err != nil {
		return fmt.Errorf("gpio%d: %v: %w", pin, err, ErrUnavailable)
	}
	if err := g.Edge(edge); err != nil {
		g.Close()
		return fmt.Errorf("gpio%d: %v: %w", pin, err, ErrUnavailable)
	}
	// The value must be read once to clear the initial poll notification.
	v, err := g.Read()
	if err != nil {
		g.Close()
		return fmt.Errorf("gpio%d: %v: %w", pin, err, ErrUnavailable)
	}
	w := &watch{gpio: g, stop: make(chan chan bool)}
	w.level.Store(int32(v))
	s.pins[pin] = w
	go w.dispatcher(h)
	return nil
}

// ReadLevel returns the current level of the pin. If the read fails,
// the last level seen is returned.
func (s *SysfsSource) ReadLevel(pin int) int {
	s.mu.Lock()
	w := s.pins[pin]
	closing := w != nil && w.closing
	s.mu.Unlock()
	if w == nil {
		v, err := readLevel(pin)
		if err != nil {
			log.Printf("gpio%d: read: %v", pin, err)
		}
		return v
	}
	v, err := w.gpio.Read()
	if err != nil {
		// The pin is closed while it is being unregistered.
		if !closing {
			log.Printf("gpio%d: read: %v", pin, err)
		}
		return int(w.level.Load())
	}
	w.level.Store(int32(v))
	return v
}

// Unregister stops the dispatcher for the pin, waits for it to exit,
// and releases the GPIO.
func (s *SysfsSource) Unregister(pin int) {
	s.mu.Lock()
	w := s.pins[pin]
	if w == nil || w.closing {
		s.mu.Unlock()
		return
	}
	w.closing = true
	s.mu.Unlock()
	// Create a channel to be used to signal when the dispatcher has exited.
	c := make(chan bool)
	w.stop <- c
	<-c
	// The entry is removed only once the pin is released, so a concurrent
	// ReadLevel either uses the cached level or reads the unclaimed pin.
	s.mu.Lock()
	w.gpio.Close()
	delete(s.pins, pin)
	s.mu.Unlock()
}

// Close unregisters all pins.
func (s *SysfsSource) Close() {
	s.mu.Lock()
	var pins []int
	for p := range s.pins {
		pins = append(pins, p)
	}
	s.mu.Unlock()
	for _, p := range pins {
		s.Unregister(p)
	}
}

// dispatcher waits for edges and invokes the handler.
// A stop channel is used to indicate when the dispatcher should terminate.
func (w *watch) dispatcher(h Handler) {
	for {
		select {
		case c := <-w.stop:
			// Send a value back to signal that the dispatcher has terminated.
			c <- true
			return
		default:
		}
		ok, err := w.gpio.Wait(pollInterval)
		if err != nil {
			log.Printf("gpio%d: poll: %v", w.gpio.Number(), err)
			c := <-w.stop
			c <- true
			return
		}
		if ok {
			if v, err := w.gpio.Read(); err == nil {
				w.level.Store(int32(v))
			}
			h.Edge()
		}
	}
}
