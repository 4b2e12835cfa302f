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
	"time"

	"github.com/aamcrae/quadrature/io"
)

// Reading is a snapshot of the state of a joint's encoder.
type Reading struct {
	Name      string        `json:"name"`
	Position  int64         `json:"position"`
	Angle     float64       `json:"angle"`
	Direction string        `json:"direction"`
	Period    time.Duration `json:"period_ns"`
	RPM       float64       `json:"rpm"`
	EdgesA    uint64        `json:"edges_a"`
	EdgesB    uint64        `json:"edges_b"`
	Missed    uint64        `json:"missed"`
}

// Joint combines the encoder of a joint with its configuration,
// so that the position can be converted to a shaft angle and speed.
type Joint struct {
	Config  *JointConfig
	Encoder *Encoder
	src     io.EdgeSource
	owned   bool // src was created by the joint
}

// NewJoint creates the encoder for the joint. If src is nil, an EdgeSource
// is created for the configured driver and is closed with the joint.
func NewJoint(jc *JointConfig, src io.EdgeSource, logger Logger) (*Joint, error) {
	j := new(Joint)
	j.Config = jc
	if src == nil {
		var err error
		src, err = NewSource(jc)
		if err != nil {
			return nil, err
		}
		j.owned = true
	}
	j.src = src
	var err error
	j.Encoder, err = NewTrackingEncoder(jc.Name, src, jc.PinA, jc.PinB, jc.Tracking, logger)
	if err != nil {
		j.closeSource()
		return nil, err
	}
	return j, nil
}

// Angle returns the shaft angle in degrees, in the range [0, 360),
// relative to the last zero.
func (j *Joint) Angle() float64 {
	return j.angle(j.Encoder.Position())
}

func (j *Joint) angle(pos int64) float64 {
	steps := int64(j.Config.Steps)
	return float64(Wrap(pos, steps)) * 360 / float64(steps)
}

// RPM returns the shaft speed estimated from the last period, negative
// for counter-clockwise rotation. 0 is returned if the period is unknown.
func (j *Joint) RPM() float64 {
	return j.rpm(j.Encoder.Period(), j.Encoder.Direction())
}

func (j *Joint) rpm(p time.Duration, d Direction) float64 {
	if p <= 0 {
		return 0
	}
	r := float64(time.Minute) / (float64(p) * float64(j.Config.Steps))
	if d == CounterClockwise {
		r = -r
	}
	return r
}

// Read returns a snapshot of the joint's encoder.
func (j *Joint) Read() Reading {
	e := j.Encoder
	pos := e.position.Load()
	st := e.Stats()
	return Reading{
		Name:      j.Config.Name,
		Position:  pos,
		Angle:     j.angle(pos),
		Direction: st.Direction.String(),
		Period:    st.Period,
		RPM:       j.rpm(st.Period, st.Direction),
		EdgesA:    st.EdgesA,
		EdgesB:    st.EdgesB,
		Missed:    st.Missed,
	}
}

// Close releases the encoder, and the EdgeSource if the joint created it.
func (j *Joint) Close() {
	j.Encoder.Close()
	j.closeSource()
}

func (j *Joint) closeSource() {
	if c, ok := j.src.(interface{ Close() }); ok && j.owned {
		c.Close()
	}
}
