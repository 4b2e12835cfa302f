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

// Program to demonstrate how to watch the edges of an encoder's channels

package main

import (
	"flag"
	"log"
	"sync/atomic"

	"github.com/aamcrae/quadrature/io"
)

var pinA = flag.Int("a", 17, "GPIO pin for channel A")
var pinB = flag.Int("b", 27, "GPIO pin for channel B")
var chip = flag.String("chip", "", "GPIO chip for the character device, or sysfs if empty")

func main() {
	flag.Parse()
	var src io.EdgeSource
	if *chip == "" {
		s := io.NewSysfsSource()
		defer s.Close()
		src = s
	} else {
		s := io.NewChipSource(*chip, "watch")
		defer s.Close()
		src = s
	}
	var count atomic.Int64
	report := func(name string) io.Handler {
		return io.HandlerFunc(func() {
			a := src.ReadLevel(*pinA)
			b := src.ReadLevel(*pinB)
			log.Printf("%s edge %d: state %d%d", name, count.Add(1), a, b)
		})
	}
	if err := src.Register(*pinA, io.BOTH, report("A")); err != nil {
		log.Fatalf("Pin %d: %v", *pinA, err)
	}
	if err := src.Register(*pinB, io.BOTH, report("B")); err != nil {
		log.Fatalf("Pin %d: %v", *pinB, err)
	}
	select {}
}
