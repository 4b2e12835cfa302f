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

// Interactive encoder monitor and zeroing utility

package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/aamcrae/config"
	"github.com/google/shlex"

	"github.com/aamcrae/quadrature/quadrature"
)

var configFile = flag.String("config", "", "Configuration file")
var section = flag.String("joint", "", "Joint to monitor e.g shoulder, elbow, wrist")

func main() {
	flag.Parse()
	conf, err := config.ParseFile(*configFile)
	if err != nil {
		log.Fatalf("%s: %v", *configFile, err)
	}
	jc, err := quadrature.Config(conf, *section)
	if err != nil {
		log.Fatalf("%s: %v", *configFile, err)
	}
	j, err := quadrature.NewJoint(jc, nil, nil)
	if err != nil {
		log.Fatalf("Joint: %s %v", *section, err)
	}
	defer j.Close()
	reader := bufio.NewReader(os.Stdin)
	e := j.Encoder
	for {
		fmt.Print("Enter command ('help' for help) ")
		text, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		args, err := shlex.Split(text)
		if err != nil || len(args) == 0 {
			continue
		}
		switch args[0] {
		case "help":
			fmt.Println("  help - print help")
			fmt.Println("  p - print position and angle")
			fmt.Println("  z - set current position as zero")
			fmt.Println("  d - print direction")
			fmt.Println("  t - print pulse period and speed")
			fmt.Println("  s - print statistics")
			fmt.Println("  watch SECONDS - print position every 100ms")
			fmt.Println("  q - quit")
		case "q":
			return
		case "p":
			r := j.Read()
			fmt.Printf("Position %d, angle %.2f (%d steps per revolution)\n", r.Position, r.Angle, jc.Steps)
		case "z":
			e.SetZero()
			fmt.Println("Position zeroed")
		case "d":
			fmt.Printf("Direction %s\n", e.Direction())
		case "t":
			p := e.Period()
			if p == quadrature.UnknownPeriod {
				fmt.Println("Period unknown")
			} else {
				fmt.Printf("Period %s, %.2f RPM\n", p, j.RPM())
			}
		case "s":
			fmt.Println(e.Stats())
		case "watch":
			secs := 5
			if len(args) > 1 {
				secs, err = strconv.Atoi(args[1])
				if err != nil || secs <= 0 {
					fmt.Printf("%s: invalid duration\n", args[1])
					continue
				}
			}
			watch(j, time.Duration(secs)*time.Second)
		default:
			fmt.Printf("Unrecognised input\n")
		}
	}
}

func watch(j *quadrature.Joint, d time.Duration) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	end := time.After(d)
	last := int64(-1)
	first := true
	for {
		select {
		case <-end:
			return
		case <-ticker.C:
			r := j.Read()
			if first || r.Position != last {
				fmt.Printf("%d (%.2f) %s\n", r.Position, r.Angle, r.Direction)
				last = r.Position
				first = false
			}
		}
	}
}
