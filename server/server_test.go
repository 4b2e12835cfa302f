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

package server

import (
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aamcrae/quadrature/quadrature"
)

type fakeReader struct {
	r quadrature.Reading
}

func (f *fakeReader) Read() quadrature.Reading {
	return f.r
}

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := New(0, 10*time.Millisecond,
		&fakeReader{quadrature.Reading{Name: "shoulder", Position: 100, Angle: 90, Direction: "CW", Period: time.Millisecond}},
		&fakeReader{quadrature.Reading{Name: "elbow", Position: -5, Angle: 355, Direction: "CCW", Period: quadrature.UnknownPeriod}})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestStatus(t *testing.T) {
	ts := testServer(t)
	resp, err := http.Get(ts.URL + "/status")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type %q", ct)
	}
	var rs []quadrature.Reading
	if err := json.NewDecoder(resp.Body).Decode(&rs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rs) != 2 {
		t.Fatalf("got %d readings, want 2", len(rs))
	}
	if rs[0].Name != "shoulder" || rs[0].Position != 100 || rs[0].Period != time.Millisecond {
		t.Errorf("reading 0: %+v", rs[0])
	}
	if rs[1].Name != "elbow" || rs[1].Direction != "CCW" || rs[1].Period != quadrature.UnknownPeriod {
		t.Errorf("reading 1: %+v", rs[1])
	}
}

func TestDial(t *testing.T) {
	ts := testServer(t)
	resp, err := http.Get(ts.URL + "/dial.png")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatalf("png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 2*dialSize || b.Dy() != dialSize {
		t.Errorf("image size %dx%d", b.Dx(), b.Dy())
	}
}

func TestWebsocket(t *testing.T) {
	ts := testServer(t)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	for i := 0; i < 3; i++ {
		var rs []quadrature.Reading
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		if err := conn.ReadJSON(&rs); err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if len(rs) != 2 || rs[0].Name != "shoulder" {
			t.Errorf("read %d: %+v", i, rs)
		}
	}
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
