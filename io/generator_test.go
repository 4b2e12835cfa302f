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
	"sync"
	"testing"
)

// fakeOutput records the values set, and counts the changes.
type fakeOutput struct {
	mu      sync.Mutex
	value   int
	changes int
}

func (f *fakeOutput) Set(v int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v != f.value {
		f.changes++
	}
	f.value = v
	return nil
}

func (f *fakeOutput) get() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.changes
}

func TestGeneratorSteps(t *testing.T) {
	var a, b fakeOutput
	g := NewGenerator(1000, &a, &b)
	defer g.Close()
	g.Step(6000, 8)
	g.Wait()
	if c := g.Count(); c != 8 {
		t.Errorf("Count %d, want 8", c)
	}
	if sa, sb := g.State(); sa != 0 || sb != 0 {
		t.Errorf("State (%d, %d), want (0, 0)", sa, sb)
	}
	g.Step(6000, -3)
	g.Wait()
	if c := g.Count(); c != 5 {
		t.Errorf("Count %d, want 5", c)
	}
	va, ca := a.get()
	vb, cb := b.get()
	if va != 0 || vb != 1 {
		t.Errorf("outputs (%d, %d), want (0, 1)", va, vb)
	}
	if sa, sb := g.State(); sa != va || sb != vb {
		t.Errorf("State (%d, %d) does not match outputs (%d, %d)", sa, sb, va, vb)
	}
	// One edge per step.
	if ca+cb != 11 {
		t.Errorf("%d output changes, want 11", ca+cb)
	}
}

func TestGeneratorIgnored(t *testing.T) {
	var a, b fakeOutput
	g := NewGenerator(1000, &a, &b)
	defer g.Close()
	g.Step(0, 10)
	g.Step(100, 0)
	g.Wait()
	if c := g.Count(); c != 0 {
		t.Errorf("Count %d, want 0", c)
	}
}

func TestGeneratorStop(t *testing.T) {
	var a, b fakeOutput
	g := NewGenerator(1000, &a, &b)
	defer g.Close()
	g.Step(60, 1000000)
	g.Step(60, 1000000)
	g.Stop()
	c := g.Count()
	if c >= 1000000 {
		t.Errorf("Count %d after Stop", c)
	}
	// Generator still accepts requests after a stop.
	g.Step(60000, 4)
	g.Wait()
	if n := g.Count(); n != c+4 {
		t.Errorf("Count %d, want %d", n, c+4)
	}
}
