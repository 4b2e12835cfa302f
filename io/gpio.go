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

// Package io manages GPIO pins

package io

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// Mode
const (
	IN  = iota // Default
	OUT = iota
)

// Edge
const (
	NONE    = iota // Default
	RISING  = iota
	FALLING = iota
	BOTH    = iota
)

// Directory of the sysfs GPIO interface.
var baseDir = "/sys/class/gpio/"

const valueFile = "value"

// Gpio represents one sysfs GPIO pin.
type Gpio struct {
	number    int
	value     *os.File
	direction int
	edge      int
}

func pinFile(gpio int, name string) string {
	return fmt.Sprintf("%sgpio%d/%s", baseDir, gpio, name)
}

// OutputPin opens a GPIO pin and sets the direction as OUTPUT.
func OutputPin(gpio int) (*Gpio, error) {
	g, err := Pin(gpio)
	if err != nil {
		return nil, err
	}
	err = g.Direction(OUT)
	if err != nil {
		g.Close()
		return nil, err
	}
	return g, nil
}

// Pin opens a GPIO pin as an input (by default)
func Pin(gpio int) (*Gpio, error) {
	g := new(Gpio)
	g.number = gpio
	err := export(g.number)
	if err != nil {
		return nil, err
	}
	err = g.Direction(IN)
	if err != nil {
		unexport(gpio)
		return nil, err
	}
	err = g.Edge(NONE)
	if err != nil {
		unexport(gpio)
		return nil, err
	}
	g.value, err = os.OpenFile(pinFile(gpio, valueFile), os.O_RDWR, 0600)
	if err != nil {
		unexport(gpio)
		return nil, err
	}
	return g, nil
}

// Number returns the GPIO number of the pin.
func (g *Gpio) Number() int {
	return g.number
}

// Direction sets the mode (direction) of the GPIO pin.
func (g *Gpio) Direction(d int) error {
	var s string
	switch d {
	case IN:
		s = "in"
	case OUT:
		s = "out"
	default:
		return fmt.Errorf("gpio%d: unknown direction", g.number)
	}
	err := writeFile(pinFile(g.number, "direction"), s)
	if err == nil {
		g.direction = d
	}
	return err
}

// Edge sets the edge detection on the GPIO pin.
func (g *Gpio) Edge(e int) error {
	if g.direction != IN {
		return fmt.Errorf("gpio%d: not set as an input pin", g.number)
	}
	var s string
	switch e {
	case NONE:
		s = "none"
	case RISING:
		s = "rising"
	case FALLING:
		s = "falling"
	case BOTH:
		s = "both"
	default:
		return fmt.Errorf("gpio%d: unknown edge", g.number)
	}
	err := writeFile(pinFile(g.number, "edge"), s)
	if err == nil {
		g.edge = e
	}
	return err
}

// Set the output of the GPIO pin (only valid for OUTPUT pins)
func (g *Gpio) Set(v int) error {
	if g.direction != OUT {
		return fmt.Errorf("gpio%d: is not output", g.number)
	}
	var b []byte
	switch v {
	case LOW:
		b = []byte{'0'}
	case HIGH:
		b = []byte{'1'}
	default:
		return fmt.Errorf("gpio%d: illegal value", g.number)
	}
	_, err := g.value.WriteAt(b, 0)
	return err
}

// Read returns the current value of the pin without waiting for an edge.
// It is safe to call concurrently with Wait.
func (g *Gpio) Read() (int, error) {
	b := make([]byte, 1)
	_, err := g.value.ReadAt(b, 0)
	if err != nil {
		return LOW, err
	}
	v, err := levelOf(b[0])
	if err != nil {
		return LOW, fmt.Errorf("gpio%d: %v", g.number, err)
	}
	return v, nil
}

// Wait blocks until the kernel signals an edge on the pin, or the timeout
// expires. A negative timeout waits forever.
// Returns true if an edge was signalled. The value must be read after an
// edge to rearm the notification.
func (g *Gpio) Wait(tout time.Duration) (bool, error) {
	if g.edge == NONE {
		return false, fmt.Errorf("gpio%d: no edge detection set", g.number)
	}
	ms := -1
	if tout >= 0 {
		ms = int(tout.Milliseconds())
	}
	pfd := []unix.PollFd{{Fd: int32(g.value.Fd()), Events: unix.POLLPRI | unix.POLLERR}}
	n, err := unix.Poll(pfd, ms)
	if err == unix.EINTR {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close the GPIO pin and unexport it.
func (g *Gpio) Close() {
	g.value.Close()
	unexport(g.number)
}

// readLevel reads the value of a GPIO that is not open.
// If the GPIO is not exported, it is exported for the read and
// then released again.
func readLevel(gpio int) (int, error) {
	val := pinFile(gpio, valueFile)
	if unix.Access(val, unix.R_OK) != nil {
		if err := export(gpio); err != nil {
			return LOW, fmt.Errorf("gpio%d: export: %v", gpio, err)
		}
		defer unexport(gpio)
	}
	b, err := os.ReadFile(val)
	if err != nil {
		return LOW, err
	}
	if len(b) == 0 {
		return LOW, fmt.Errorf("gpio%d: empty value", gpio)
	}
	return levelOf(b[0])
}
