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

// Package server provides an HTTP status server for joint encoders.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aamcrae/quadrature/quadrature"
)

const writeWait = 10 * time.Second

// Reader provides a snapshot of an encoder.
type Reader interface {
	Read() quadrature.Reading
}

// Server serves the status of a set of encoders:
//
//	/status   - JSON array of readings
//	/dial.png - image of a dial for each encoder
//	/ws       - websocket streaming the readings every refresh interval
type Server struct {
	readers  []Reader
	refresh  time.Duration
	upgrader websocket.Upgrader
	server   *http.Server
}

// New creates a server listening on the port.
func New(port int, refresh time.Duration, readers ...Reader) *Server {
	s := new(Server)
	s.readers = readers
	s.refresh = refresh
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	s.server = &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: s.Handler()}
	return s
}

// Handler returns the handler for the server endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/dial.png", s.handleDial)
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

// ListenAndServe runs the server until it is closed.
func (s *Server) ListenAndServe() error {
	log.Printf("Starting server on %s", s.server.Addr)
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Close shuts down the server.
func (s *Server) Close() error {
	return s.server.Close()
}

func (s *Server) readings() []quadrature.Reading {
	rs := make([]quadrature.Reading, 0, len(s.readers))
	for _, r := range s.readers {
		rs = append(rs, r.Read())
	}
	return rs
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.readings()); err != nil {
		log.Printf("Error writing status: %v", err)
	}
}

func (s *Server) handleDial(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/png")
	c := drawDials(s.readings())
	if err := c.EncodePNG(w); err != nil {
		log.Printf("Error writing image: %v", err)
	}
}

// handleWS sends the readings on connection and then every refresh
// interval, until the client goes away.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()
	// Reads are only needed to process control messages and notice a close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("websocket read: %v", err)
				}
				return
			}
		}
	}()
	ticker := time.NewTicker(s.refresh)
	defer ticker.Stop()
	for {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(s.readings()); err != nil {
			return
		}
		select {
		case <-done:
			return
		case <-ticker.C:
		}
	}
}
