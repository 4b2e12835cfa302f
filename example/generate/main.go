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

// Program to drive two outputs with a quadrature signal,
// for bench testing a decoder on another board.

package main

import (
	"flag"
	"log"

	"github.com/aamcrae/quadrature/io"
)

var pinA = flag.Int("a", 5, "GPIO pin for channel A output")
var pinB = flag.Int("b", 6, "GPIO pin for channel B output")
var rpm = flag.Float64("rpm", 10.0, "RPM")
var rev = flag.Int("rev", 2400, "Steps per revolution")
var steps = flag.Int("steps", 2400, "Steps per move")
var moves = flag.Int("moves", 10, "Number of moves, alternating direction")

func main() {
	flag.Parse()
	a, err := io.OutputPin(*pinA)
	if err != nil {
		log.Fatalf("Pin %d: %v", *pinA, err)
	}
	defer a.Close()
	b, err := io.OutputPin(*pinB)
	if err != nil {
		log.Fatalf("Pin %d: %v", *pinB, err)
	}
	defer b.Close()
	gen := io.NewGenerator(*rev, a, b)
	defer gen.Close()
	st := *steps
	for i := 0; i < *moves; i++ {
		gen.Step(*rpm, st)
		gen.Wait()
		log.Printf("Move %d: %d steps, count %d", i, st, gen.Count())
		st = -st
	}
}
