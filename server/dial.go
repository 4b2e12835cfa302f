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
	"fmt"
	"math"

	"github.com/fogleman/gg"

	"github.com/aamcrae/quadrature/quadrature"
)

const dialSize = 240

// drawDials draws a dial for each reading, side by side,
// with the needle at the shaft angle.
func drawDials(rs []quadrature.Reading) *gg.Context {
	n := len(rs)
	if n == 0 {
		n = 1
	}
	c := gg.NewContext(dialSize*n, dialSize)
	c.SetRGB(1, 1, 1)
	c.Clear()
	for i, r := range rs {
		drawDial(c, float64(i*dialSize+dialSize/2), float64(dialSize/2), r)
	}
	return c
}

func drawDial(c *gg.Context, x, y float64, r quadrature.Reading) {
	radius := float64(dialSize/2 - 10)
	c.SetRGB(0, 0, 0)
	c.SetLineWidth(2)
	c.DrawCircle(x, y, radius)
	c.Stroke()
	// Ticks every 30 degrees.
	for a := 0; a < 360; a += 30 {
		s, co := math.Sincos(gg.Radians(float64(a)))
		c.DrawLine(x+radius*0.9*s, y-radius*0.9*co, x+radius*s, y-radius*co)
	}
	c.Stroke()
	s, co := math.Sincos(gg.Radians(r.Angle))
	c.SetRGB(0, 0, 1)
	c.SetLineWidth(4)
	c.DrawLine(x, y, x+radius*0.8*s, y-radius*0.8*co)
	c.Stroke()
	c.SetRGB(0, 0, 0)
	c.DrawStringAnchored(r.Name, x, y+radius/2, 0.5, 0.5)
	c.DrawStringAnchored(fmt.Sprintf("%d (%.1f rpm)", r.Position, r.RPM), x, y+radius/2+15, 0.5, 0.5)
}
