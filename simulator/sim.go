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

// Simulator for joint encoders

package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/aamcrae/quadrature/io"
	"github.com/aamcrae/quadrature/quadrature"
	"github.com/aamcrae/quadrature/server"
	"github.com/aamcrae/quadrature/sim"
)

type SimJoint struct {
	joint *quadrature.Joint
	gen   *io.Generator
	rpm   float64
	swing int // Steps moved before reversing
}

var params = []struct {
	name       string
	pinA, pinB int
	steps      int
	rpm        float64
	swing      int
}{
	{"shoulder", 0, 1, 2400, 20, 1800},
	{"elbow", 2, 3, 2000, 45, 3000},
	{"wrist", 4, 5, 1024, 90, 4096},
}

var port = flag.Int("port", 8080, "Status server port number, 0 to disable")
var report = flag.Duration("report", 5*time.Second, "Reporting interval")
var debug = flag.Bool("debug", false, "Log every encoder query")
var tracking = flag.String("tracking", "shared", "Decoder state tracking, channel or shared")

func main() {
	flag.Parse()
	tr, err := quadrature.ParseTracking(*tracking)
	if err != nil {
		log.Fatalf("tracking: %v", err)
	}
	src := sim.NewSource()
	var logger quadrature.Logger
	if *debug {
		logger = log.Default()
	}
	var joints []*SimJoint
	var readers []server.Reader
	for _, p := range params {
		jc := &quadrature.JointConfig{Name: p.name, PinA: p.pinA, PinB: p.pinB, Steps: p.steps, Tracking: tr}
		j, err := quadrature.NewJoint(jc, src, logger)
		if err != nil {
			log.Fatalf("%s: %v", p.name, err)
		}
		defer j.Close()
		sj := &SimJoint{joint: j, rpm: p.rpm, swing: p.swing}
		sj.gen = io.NewGenerator(p.steps, src.Output(p.pinA), src.Output(p.pinB))
		defer sj.gen.Close()
		joints = append(joints, sj)
		readers = append(readers, j)
		go sj.run()
	}
	if *port != 0 {
		go func() {
			if err := server.New(*port, 250*time.Millisecond, readers...).ListenAndServe(); err != nil {
				log.Fatalf("Server: %v", err)
			}
		}()
	}
	for {
		time.Sleep(*report)
		for _, sj := range joints {
			r := sj.joint.Read()
			count := sj.gen.Count()
			drift := count - r.Position
			// Offset of the decoded shaft position behind the generated one.
			lag := quadrature.Diff(count, r.Position, int64(sj.joint.Config.Steps))
			fmt.Printf("%-8s generated %7d decoded %7d drift %d (lag %d), %6.1f rpm, missed %d\n",
				r.Name, count, r.Position, drift, lag, r.RPM, r.Missed)
		}
	}
}

// run swings the joint back and forth.
func (s *SimJoint) run() {
	steps := s.swing
	for {
		s.gen.Step(s.rpm, steps)
		s.gen.Wait()
		steps = -steps
	}
}
