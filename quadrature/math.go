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
	"golang.org/x/exp/constraints"
)

// Wrap returns v modulo m, in the range [0, m).
func Wrap[T constraints.Signed](v, m T) T {
	v %= m
	if v < 0 {
		v += m
	}
	return v
}

// Diff returns the forward distance from b to a on a circle of m steps.
func Diff[T constraints.Signed](a, b, m T) T {
	return Wrap(a-b, m)
}
