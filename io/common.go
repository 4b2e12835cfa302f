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

// Package io common constants, interfaces and sysfs helpers.

package io

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"time"

	"golang.org/x/sys/unix"
)

// Level
const (
	LOW  = 0
	HIGH = 1
)

// ErrUnavailable is returned (wrapped) when a pin cannot be claimed.
var ErrUnavailable = errors.New("hardware unavailable")

// Setter is an interface for setting an output value on a GPIO
type Setter interface {
	Set(int) error
}

// Handler is invoked by an EdgeSource each time a registered pin changes.
type Handler interface {
	Edge()
}

// HandlerFunc adapts an ordinary function to a Handler.
type HandlerFunc func()

// Edge calls f.
func (f HandlerFunc) Edge() {
	f()
}

// EdgeSource delivers edge notifications for input pins.
// Handlers for a single pin are invoked serially, in arrival order. There is
// no ordering between handlers of different pins, which may run concurrently.
// Unregister is idempotent, and returns only after any handler in progress
// for that pin has returned, so it must not be called from within a handler.
type EdgeSource interface {
	Register(pin, edge int, h Handler) error
	ReadLevel(pin int) int
	Unregister(pin int)
}

const verifyTimeout = 2 * time.Second

// Verify will enable waiting for exported files to become writable.
// This is necessary if the process is not running as root - systemd
// and udev will change the group permissions on the exported files, but
// this takes some time to do. If we try and access the files before
// the file group/modes are changed, we will get a permission error.
// This can be overridden.
var Verify = false

func init() {
	// If the user is not root, enable Verify mode
	u, err := user.Current()
	if err == nil && u.Uid != "0" {
		Verify = true
	}
}

// unexport releases a GPIO back to the kernel.
func unexport(gpio int) error {
	return writeFile(baseDir+"unexport", fmt.Sprintf("%d", gpio))
}

// export makes the sysfs files for a GPIO available, waiting
// for the value file to become writable if Verify is set.
// A GPIO that is already exported is left as is.
func export(gpio int) error {
	val := pinFile(gpio, valueFile)
	if unix.Access(val, unix.W_OK|unix.R_OK) == nil {
		return nil
	}
	err := writeFile(baseDir+"export", fmt.Sprintf("%d", gpio))
	if err == nil && Verify {
		return verifyFile(val)
	}
	return err
}

// Write a string to a file.
func writeFile(fname, s string) error {
	f, err := os.OpenFile(fname, os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write([]byte(s))
	return err
}

// Wait for file to become writable.
func verifyFile(f string) error {
	sl := time.Millisecond
	for tout := time.Duration(0); tout < verifyTimeout; tout += sl {
		if unix.Access(f, unix.W_OK) == nil {
			return nil
		}
		time.Sleep(sl)
	}
	return fmt.Errorf("%s: not writable", f)
}

// levelOf converts the first byte of a sysfs value file into a level.
func levelOf(b byte) (int, error) {
	switch b {
	case '0':
		return LOW, nil
	case '1':
		return HIGH, nil
	}
	return LOW, fmt.Errorf("unknown value %q", b)
}
