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
	"fmt"
	"log"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/dmeisner/cachebash-go/internal/loadgen/codec"
	"github.com/dmeisner/cachebash-go/internal/loadgen/conn"
	"github.com/dmeisner/cachebash-go/internal/loadgen/gen"
	"github.com/dmeisner/cachebash-go/internal/loadgen/stats"
)

// epollWaitMillis bounds each epoll_wait call so a worker notices context
// cancellation promptly even with no socket activity.
const epollWaitMillis = 200

// Worker binds one server connection and exposes two readiness-driven
// hooks: onWritable enforces rate pacing and sends the next request;
// onReadable matches an inbound response with the oldest outstanding
// request and records a latency sample. It owns its Connection, its
// outstanding-request FIFO, and one stats.Collection exclusively — nothing
// else touches them except the Reporter's synchronized snapshot swap.
type Worker struct {
	id       int
	conn     *conn.Connection
	gen      *gen.Generator
	Stats    *stats.Collection
	rps      float64
	nWorkers int
	debug    bool

	lastSend time.Time
	fifo     []outstandingRequest
	fifoHead int

	// pinCPU is the CPU core to pin this worker's OS thread to, or -1 to
	// leave scheduling to the OS. Set via SetPinCPU; optional and off by
	// default (spec.md §9 flags the source's affinity attempt as dead code,
	// so here it is a deliberate opt-in rather than silently broken).
	pinCPU int

	// live holds the Collection workers currently append samples to.
	// Worker.snapshot, called by the Reporter, swaps this out atomically so a print never races a
	// worker's AddSample call, per spec.md §5's synchronized hand-off
	// requirement (the source does this unsynchronized).
	live atomic.Pointer[stats.Collection]
}

// NewWorker constructs a Worker. statsTemplate is deep-copied immediately
// so the caller's template is never mutated.
func NewWorker(id int, c *conn.Connection, g *gen.Generator, statsTemplate *stats.Collection, rps float64, nWorkers int, debug bool) *Worker {
	w := &Worker{
		id:       id,
		conn:     c,
		gen:      g,
		Stats:    statsTemplate.Copy(),
		rps:      rps,
		nWorkers: nWorkers,
		debug:    debug,
		pinCPU:   -1,
	}
	w.live.Store(w.Stats)
	return w
}

// SetPinCPU requests that this worker's OS thread be pinned to the given
// CPU core once Run starts. Pass -1 (the default) to leave it unpinned.
func (w *Worker) SetPinCPU(cpu int) {
	w.pinCPU = cpu
}

// snapshot atomically swaps in a fresh, empty collection cloned from base
// and returns the retired one — the Reporter's hand-off primitive.
func (w *Worker) snapshot(base *stats.Collection) *stats.Collection {
	fresh := base.Copy()
	return w.live.Swap(fresh)
}

// collection returns the Collection currently receiving samples. Read
// methods on *stats.Collection are not otherwise synchronized against
// concurrent Add calls from the worker goroutine, but the Reporter only
// ever reads a retired snapshot after the swap above, never the live one.
func (w *Worker) collection() *stats.Collection {
	return w.live.Load()
}

// Run pins the calling goroutine to its OS thread (spec.md §5's
// one-OS-thread-per-worker model), opens a private epoll reactor over this
// worker's one socket, and services it until ctx is canceled or a fatal
// I/O error occurs.
func (w *Worker) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if w.pinCPU >= 0 {
		if err := pinCurrentThread(w.pinCPU); err != nil {
			log.Printf("worker %d: pin to CPU %d failed: %v", w.id, w.pinCPU, err)
		}
	}

	fd, err := w.conn.Fd()
	if err != nil {
		return fmt.Errorf("worker %d: %w", w.id, err)
	}

	r, err := newReactor()
	if err != nil {
		return fmt.Errorf("worker %d: %w", w.id, err)
	}
	defer r.close()

	runCtx, stopRun := context.WithCancel(ctx)
	defer stopRun()

	var runErr error
	onRead := func() {
		if err := w.onReadable(); err != nil && runErr == nil {
			runErr = err
			stopRun()
		}
	}
	onWrite := func() {
		if runErr != nil {
			return
		}
		if err := w.onWritable(); err != nil {
			runErr = err
			stopRun()
		}
	}
	if err := r.register(fd, onRead, onWrite); err != nil {
		return fmt.Errorf("worker %d: %w", w.id, err)
	}
	defer r.unregister(fd)

	if err := r.run(runCtx, epollWaitMillis); err != nil {
		return fmt.Errorf("worker %d: %w", w.id, err)
	}
	return runErr
}

// onWritable is the pacing gate. Target per-worker inter-send interval is
// (1/rps)/nWorkers when rps>0, else 0 (send as fast as writable). If less
// than that interval has elapsed since the last send, it returns without
// generating a request at all — the REDESIGN FLAG fix: the source
// generates the request and then discards it when the gate isn't met,
// wasting the generator's RNG draw for nothing observable.
func (w *Worker) onWritable() error {
	now := time.Now()
	if w.rps > 0 {
		interval := time.Duration((1.0 / w.rps) / float64(w.nWorkers) * float64(time.Second))
		if !w.lastSend.IsZero() && now.Sub(w.lastSend) < interval {
			return nil
		}
	}

	req := w.gen.Next()
	wire := toCodecRequest(req.IsSet, req.Key, req.Value)
	if w.debug {
		log.Printf("worker %d: send %+v", w.id, wire)
	}
	if err := w.conn.Send(wire); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	// Matches original_source/request.cc's CalculateRequestSize(): the full
	// wire packet, not just the payload — the fixed header always, plus
	// SET's 8-byte flags/expiration extras, plus key and value.
	extrasLen := 0
	if req.IsSet {
		extrasLen = codec.SetExtrasLen
	}
	size := codec.HeaderLen + extrasLen + len(req.Key) + len(req.Value)
	w.fifo = append(w.fifo, outstandingRequest{isSet: req.IsSet, sendTime: now, size: size})
	w.lastSend = now
	return nil
}

// onReadable reads one full response and pairs it with the oldest
// outstanding request (strict FIFO — sound because the server processes
// commands in order per connection), then records a latency sample and the
// request's category-specific statistics.
func (w *Worker) onReadable() error {
	_, _, err := w.conn.Recv()
	if err != nil {
		return fmt.Errorf("recv: %w", err)
	}

	if w.fifoHead >= len(w.fifo) {
		return fmt.Errorf("recv: response with no outstanding request")
	}
	req := w.fifo[w.fifoHead]
	w.fifoHead++
	if w.fifoHead > 1024 && w.fifoHead*2 > len(w.fifo) {
		w.fifo = append([]outstandingRequest(nil), w.fifo[w.fifoHead:]...)
		w.fifoHead = 0
	}

	latency := time.Since(req.sendTime).Seconds()
	c := w.collection()
	if err := c.AddSample("latency", float32(latency)); err != nil {
		return err
	}

	if req.isSet {
		if err := c.AddSample("set_requests", 1); err != nil {
			return err
		}
		return c.AddSample("set_request_size", float32(req.size))
	}
	if err := c.AddSample("get_requests", 1); err != nil {
		return err
	}
	return c.AddSample("get_request_size", float32(req.size))
}
