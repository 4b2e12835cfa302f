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

	"github.com/warthog618/go-gpiocdev"
)

// ChipSource is an EdgeSource using the GPIO character device.
// The kernel timestamps and queues edges, and gpiocdev delivers them
// to the handler from one goroutine per requested line.
type ChipSource struct {
	chip     string
	consumer string
	mu       sync.Mutex
	lines    map[int]*line
}

type line struct {
	*gpiocdev.Line
	closing bool // Guarded by ChipSource.mu
}

// NewChipSource creates an EdgeSource for lines on the named chip
// e.g "gpiochip0". The consumer label is shown by tools such as gpioinfo.
func NewChipSource(chip, consumer string) *ChipSource {
	c := new(ChipSource)
	c.chip = chip
	c.consumer = consumer
	c.lines = make(map[int]*line)
	return c
}

// Register requests the line as an input with edge detection,
// delivering each edge event to h.
func (c *ChipSource) Register(pin, edge int, h Handler) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.lines[pin]; ok {
		return fmt.Errorf("%s:%d: already registered: %w", c.chip, pin, ErrUnavailable)
	}
	opts := []gpiocdev.LineReqOption{gpiocdev.AsInput, gpiocdev.WithConsumer(c.consumer)}
	switch edge {
	case RISING:
		opts = append(opts, gpiocdev.WithRisingEdge)
	case FALLING:
		opts = append(opts, gpiocdev.WithFallingEdge)
	case BOTH:
		opts = append(opts, gpiocdev.WithBothEdges)
	}
	opts = append(opts, gpiocdev.WithEventHandler(func(gpiocdev.LineEvent) {
		h.Edge()
	}))
	l, err := gpiocdev.RequestLine(c.chip, pin, opts...)
	if err != nil {
		return fmt.Errorf("%s:%d: %v: %w", c.chip, pin, err, ErrUnavailable)
	}
	c.lines[pin] = &line{Line: l}
	return nil
}

// ReadLevel returns the current level of the line. A line that is not
// registered is requested just for the read.
func (c *ChipSource) ReadLevel(pin int) int {
	c.mu.Lock()
	var l *gpiocdev.Line
	if cl := c.lines[pin]; cl != nil {
		l = cl.Line
	}
	c.mu.Unlock()
	if l == nil {
		var err error
		l, err = gpiocdev.RequestLine(c.chip, pin, gpiocdev.AsInput, gpiocdev.WithConsumer(c.consumer))
		if err != nil {
			log.Printf("%s:%d: read: %v", c.chip, pin, err)
			return LOW
		}
		defer l.Close()
	}
	v, err := l.Value()
	if err != nil {
		log.Printf("%s:%d: read: %v", c.chip, pin, err)
		return LOW
	}
	return v
}

// Unregister releases the line. Closing the line stops its event
// watcher once any handler in progress has returned.
func (c *ChipSource) Unregister(pin int) {
	c.mu.Lock()
	l := c.lines[pin]
	if l == nil || l.closing {
		c.mu.Unlock()
		return
	}
	l.closing = true
	c.mu.Unlock()
	if err := l.Close(); err != nil {
		log.Printf("%s:%d: close: %v", c.chip, pin, err)
	}
	c.mu.Lock()
	delete(c.lines, pin)
	c.mu.Unlock()
}

// Close releases all lines.
func (c *ChipSource) Close() {
	c.mu.Lock()
	var pins []int
	for p := range c.lines {
		pins = append(pins, p)
	}
	c.mu.Unlock()
	for _, p := range pins {
		c.Unregister(p)
	}
}
