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
	"os"
	"path/filepath"
	"testing"

	"github.com/aamcrae/config"

	"github.com/aamcrae/quadrature/io"
)

func parseConfig(t *testing.T, text string) *config.Config {
	t.Helper()
	f := filepath.Join(t.TempDir(), "test.conf")
	if err := os.WriteFile(f, []byte(text), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	conf, err := config.ParseFile(f)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	return conf
}

const testConfig = `[shoulder]
encoder=17,27
steps=2400
[elbow]
encoder=5,6
steps=1200
driver=cdev
chip=gpiochip1
tracking=shared
[wrist]
encoder=5,5
steps=100
[base]
encoder=20,21
steps=0
[hand]
encoder=22,23
steps=400
driver=serial
[finger]
encoder=24,25
steps=400
tracking=none
[thumb]
steps=400
`

func TestConfig(t *testing.T) {
	conf := parseConfig(t, testConfig)
	jc, err := Config(conf, "shoulder")
	if err != nil {
		t.Fatalf("shoulder: %v", err)
	}
	want := JointConfig{Name: "shoulder", PinA: 17, PinB: 27, Steps: 2400, Driver: DriverSysfs, Chip: defaultChip, Tracking: PerChannel}
	if *jc != want {
		t.Errorf("shoulder: got %+v, want %+v", *jc, want)
	}
	jc, err = Config(conf, "elbow")
	if err != nil {
		t.Fatalf("elbow: %v", err)
	}
	want = JointConfig{Name: "elbow", PinA: 5, PinB: 6, Steps: 1200, Driver: DriverCdev, Chip: "gpiochip1", Tracking: Shared}
	if *jc != want {
		t.Errorf("elbow: got %+v, want %+v", *jc, want)
	}
}

func TestConfigErrors(t *testing.T) {
	conf := parseConfig(t, testConfig)
	for _, name := range []string{"wrist", "base", "hand", "finger", "thumb", "missing"} {
		if jc, err := Config(conf, name); err == nil {
			t.Errorf("%s: expected error, got %+v", name, *jc)
		}
	}
}

func TestParseTracking(t *testing.T) {
	for _, tr := range []Tracking{PerChannel, Shared} {
		got, err := ParseTracking(tr.String())
		if err != nil || got != tr {
			t.Errorf("ParseTracking(%q): got %v, %v", tr.String(), got, err)
		}
	}
}

func TestNewSource(t *testing.T) {
	src, err := NewSource(&JointConfig{Name: "a", Driver: DriverSysfs})
	if err != nil {
		t.Fatalf("sysfs: %v", err)
	}
	if _, ok := src.(*io.SysfsSource); !ok {
		t.Errorf("sysfs: got %T", src)
	}
	src, err = NewSource(&JointConfig{Name: "a", Driver: DriverCdev, Chip: defaultChip})
	if err != nil {
		t.Fatalf("cdev: %v", err)
	}
	if _, ok := src.(*io.ChipSource); !ok {
		t.Errorf("cdev: got %T", src)
	}
	if _, err := NewSource(&JointConfig{Name: "a", Driver: "serial"}); err == nil {
		t.Errorf("unknown driver accepted")
	}
}
