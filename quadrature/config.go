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
	"fmt"

	"github.com/aamcrae/config"

	"github.com/aamcrae/quadrature/io"
)

// Drivers
const (
	DriverSysfs = "sysfs"
	DriverCdev  = "cdev"
)

const defaultChip = "gpiochip0"

// JointConfig is the configuration of the encoder on one joint,
// read from a configuration file.
type JointConfig struct {
	Name     string
	PinA     int
	PinB     int
	Steps    int    // Counts per revolution
	Driver   string // sysfs or cdev
	Chip     string // GPIO chip for the cdev driver
	Tracking Tracking
}

// Config reads and validates a JointConfig from a config file section.
// Sample config:
//
//	[shoulder]               # name of joint
//	encoder=17,27            # GPIOs for channel A and channel B
//	steps=2400               # Counts per revolution (4 per encoder line)
//	driver=cdev              # Optional, sysfs (default) or cdev
//	chip=gpiochip0           # Optional, chip used by the cdev driver
//	tracking=shared          # Optional, channel (default) or shared
func Config(conf *config.Config, name string) (*JointConfig, error) {
	s := conf.GetSection(name)
	if s == nil {
		return nil, fmt.Errorf("no config for %s", name)
	}
	var j JointConfig
	j.Name = name
	n, err := s.Parse("encoder", "%d,%d", &j.PinA, &j.PinB)
	if err != nil {
		return nil, fmt.Errorf("%s: encoder: %v", name, err)
	}
	if n != 2 {
		return nil, fmt.Errorf("%s: encoder: argument count", name)
	}
	if j.PinA < 0 || j.PinB < 0 || j.PinA == j.PinB {
		return nil, fmt.Errorf("%s: encoder: invalid pins %d,%d", name, j.PinA, j.PinB)
	}
	n, err = s.Parse("steps", "%d", &j.Steps)
	if err != nil {
		return nil, fmt.Errorf("%s: steps: %v", name, err)
	}
	if n != 1 {
		return nil, fmt.Errorf("%s: steps: argument count", name)
	}
	if j.Steps <= 0 {
		return nil, fmt.Errorf("%s: steps: must be positive", name)
	}
	j.Driver = DriverSysfs
	if d, err := s.GetArg("driver"); err == nil {
		j.Driver = d
	}
	if j.Driver != DriverSysfs && j.Driver != DriverCdev {
		return nil, fmt.Errorf("%s: driver: unknown driver %q", name, j.Driver)
	}
	j.Chip = defaultChip
	if c, err := s.GetArg("chip"); err == nil {
		j.Chip = c
	}
	if t, err := s.GetArg("tracking"); err == nil {
		j.Tracking, err = ParseTracking(t)
		if err != nil {
			return nil, fmt.Errorf("%s: tracking: %v", name, err)
		}
	}
	return &j, nil
}

// ParseTracking converts the name of a Tracking mode.
func ParseTracking(s string) (Tracking, error) {
	switch s {
	case "channel":
		return PerChannel, nil
	case "shared":
		return Shared, nil
	}
	return PerChannel, fmt.Errorf("unknown tracking %q", s)
}

// NewSource creates the EdgeSource for the driver selected in the config.
func NewSource(jc *JointConfig) (io.EdgeSource, error) {
	switch jc.Driver {
	case DriverSysfs:
		return io.NewSysfsSource(), nil
	case DriverCdev:
		return io.NewChipSource(jc.Chip, "quadrature-"+jc.Name), nil
	}
	return nil, fmt.Errorf("%s: unknown driver %q", jc.Name, jc.Driver)
}
