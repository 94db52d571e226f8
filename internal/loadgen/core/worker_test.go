// Copyright 2026 David Meisner. All Rights Reserved.
//
// Created: July 2026
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmeisner/cachebash-go/internal/loadgen/codec"
	"github.com/dmeisner/cachebash-go/internal/loadgen/conn"
	"github.com/dmeisner/cachebash-go/internal/loadgen/gen"
	"github.com/dmeisner/cachebash-go/internal/loadgen/stats"
)

// fakeServer listens on loopback TCP and answers every request with a
// success response carrying a 0-byte value after a fixed artificial
// latency, emulating spec.md §8's end-to-end fixture server.
type fakeServer struct {
	ln      net.Listener
	latency time.Duration
}

func newFakeServer(t *testing.T, latency time.Duration) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &fakeServer{ln: ln, latency: latency}
	go s.serve()
	return s
}

func (s *fakeServer) addr() string {
	return s.ln.Addr().(*net.TCPAddr).IP.String()
}

func (s *fakeServer) port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

func (s *fakeServer) serve() {
	for {
		c, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(c)
	}
}

func (s *fakeServer) handle(c net.Conn) {
	defer c.Close()
	header := make([]byte, codec.HeaderLen)
	for {
		if _, err := readAll(c, header); err != nil {
			return
		}
		keyLen := int(header[2])<<8 | int(header[3])
		extrasLen := int(header[4])
		totalBody := int(header[8])<<24 | int(header[9])<<16 | int(header[10])<<8 | int(header[11])
		body := make([]byte, totalBody)
		if totalBody > 0 {
			if _, err := readAll(c, body); err != nil {
				return
			}
		}
		_ = keyLen
		_ = extrasLen

		time.Sleep(s.latency)

		resp := make([]byte, codec.HeaderLen)
		resp[0] = 0x81
		resp[1] = header[1]
		if _, err := c.Write(resp); err != nil {
			return
		}
	}
}

func readAll(c net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := c.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func dialWorker(t *testing.T, host string, port int, id int, rps float64, nWorkers int) *Worker {
	t.Helper()
	c, err := conn.Open(host, conn.Options{Port: port})
	if err != nil {
		t.Fatalf("conn.Open: %v", err)
	}

	genCfg := gen.Config{FractionGets: 0.9, MaxKeySize: 16, MaxValueSize: 16}
	g := gen.New(genCfg, 1, uint64(id))

	template := stats.NewCollection()
	for _, name := range []string{"get_requests", "get_request_size", "set_requests", "set_request_size"} {
		template.Register(stats.NewStatistic(name, false))
	}
	latency := stats.NewStatistic("latency", false)
	latency.AddPrinter(stats.NewQuantilePrinter(0.50))
	template.Register(latency)

	return NewWorker(id, c, g, template, rps, nWorkers, false)
}

func TestWorkerEndToEndPacingAndLatency(t *testing.T) {
	srv := newFakeServer(t, 100*time.Microsecond)
	defer srv.ln.Close()

	const nWorkers = 2
	const rps = 1000.0
	const runtime = 5 * time.Second

	workers := make([]*Worker, nWorkers)
	for i := 0; i < nWorkers; i++ {
		workers[i] = dialWorker(t, srv.addr(), srv.port(), i, rps, nWorkers)
	}

	ctx, cancel := context.WithTimeout(context.Background(), runtime)
	defer cancel()

	done := make(chan error, nWorkers)
	for _, w := range workers {
		w := w
		go func() { done <- w.Run(ctx) }()
	}
	for i := 0; i < nWorkers; i++ {
		<-done
	}

	var totalRequests, totalLatencyCount int64
	for _, w := range workers {
		c := w.collection()
		totalRequests += c.Get("get_requests").Count() + c.Get("set_requests").Count()
		totalLatencyCount += c.Get("latency").Count()
	}

	want := rps * runtime.Seconds()
	lowerBound := want * 0.5
	if float64(totalRequests) < lowerBound {
		t.Errorf("totalRequests = %d, want at least %v (target %v ± slack)", totalRequests, lowerBound, want)
	}
	if totalLatencyCount != totalRequests {
		t.Errorf("latency.count = %d, want == get+set = %d", totalLatencyCount, totalRequests)
	}
}

func TestWorkerFIFOPairingInOrder(t *testing.T) {
	srv := newFakeServer(t, 0)
	defer srv.ln.Close()

	w := dialWorker(t, srv.addr(), srv.port(), 0, 0, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if err := w.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	c := w.collection()
	total := c.Get("get_requests").Count() + c.Get("set_requests").Count()
	if total == 0 {
		t.Fatal("worker sent no requests in 200ms with unbounded rps")
	}
	if got := c.Get("latency").Count(); got != total {
		t.Errorf("latency.count = %d, want %d (every sent request paired with a response)", got, total)
	}
}
