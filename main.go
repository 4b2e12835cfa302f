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

// Joint encoder program

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aamcrae/config"

	"github.com/aamcrae/quadrature/quadrature"
	"github.com/aamcrae/quadrature/server"
)

var configFile = flag.String("config", "encoders.conf", "Configuration file")
var joints = flag.String("joints", "shoulder,elbow,wrist", "Comma separated joints to decode")
var port = flag.Int("port", 8080, "Status server port number, 0 to disable")
var refresh = flag.Duration("refresh", 250*time.Millisecond, "Websocket refresh interval")
var stats = flag.Duration("stats", time.Minute, "Interval for logging statistics, 0 to disable")
var debug = flag.Bool("debug", false, "Log every encoder query")

func main() {
	flag.Parse()
	conf, err := config.ParseFile(*configFile)
	if err != nil {
		log.Fatalf("%s: %v", *configFile, err)
	}
	var logger quadrature.Logger
	if *debug {
		logger = log.Default()
	}
	var js []*quadrature.Joint
	var readers []server.Reader
	for _, name := range strings.Split(*joints, ",") {
		jc, err := quadrature.Config(conf, name)
		if err != nil {
			log.Fatalf("%s: %v", *configFile, err)
		}
		j, err := quadrature.NewJoint(jc, nil, logger)
		if err != nil {
			log.Fatalf("Joint %s: %v", name, err)
		}
		defer j.Close()
		log.Printf("%s: encoder on %d,%d (%s), %d steps", name, jc.PinA, jc.PinB, jc.Driver, jc.Steps)
		js = append(js, j)
		readers = append(readers, j)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *port != 0 {
		srv := server.New(*port, *refresh, readers...)
		go func() {
			if err := srv.ListenAndServe(); err != nil {
				log.Printf("Server: %v", err)
			}
		}()
		defer srv.Close()
	}
	var tick <-chan time.Time
	if *stats > 0 {
		t := time.NewTicker(*stats)
		defer t.Stop()
		tick = t.C
	}
	for {
		select {
		case <-ctx.Done():
			log.Printf("Shutting down")
			return
		case <-tick:
			for _, j := range js {
				r := j.Read()
				log.Printf("%s: position %d, angle %.2f, %s", r.Name, r.Position, r.Angle, j.Encoder.Stats())
			}
		}
	}
}
