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

// Quadrature decode table.

package quadrature

import (
	"fmt"
)

// decodeTable maps a transition between packed channel states
// (A in bit 1, B in bit 0), indexed as previous*4 + current, to a step.
// The clockwise Gray code cycle is 00 -> 01 -> 11 -> 10 -> 00.
// Unchanged states, and diagonal transitions that can only occur
// if an edge was missed, are 0.
var decodeTable = [16]int8{
	// to:  00  01  10  11
	0, +1, -1, 0, // from 00
	-1, 0, 0, +1, // from 01
	+1, 0, 0, -1, // from 10
	0, -1, +1, 0, // from 11
}

// Decode returns the step (-1, 0 or +1) for the transition
// from the previous state to the current state.
// States must be in the range 0-3.
func Decode(previous, current int) int {
	if previous < 0 || previous > 3 || current < 0 || current > 3 {
		panic(fmt.Sprintf("quadrature: invalid state transition %d -> %d", previous, current))
	}
	return int(decodeTable[previous*4+current])
}
