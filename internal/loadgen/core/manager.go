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

	"github.com/dmeisner/cachebash-go/internal/loadgen/conn"
	"github.com/dmeisner/cachebash-go/internal/loadgen/distribution"
	"github.com/dmeisner/cachebash-go/internal/loadgen/gen"
	"github.com/dmeisner/cachebash-go/internal/loadgen/stats"
)

// ManagerConfig carries everything Manager needs to open connections and
// seed per-worker generators. It mirrors the subset of config.Config the
// core layer depends on, kept separate so core has no import of the config
// package; cmd/cachebash copies the fields across.
type ManagerConfig struct {
	ServerHost      string
	NumWorkers      int
	RPS             float64
	FractionGets    float32
	Distribution    *distribution.Distribution
	FixedObjectSize int
	DisableNagle    bool
	Debug           bool
	Seed            uint64
	PinWorkers      bool
}

// Manager creates and owns the fleet of Workers: it builds each worker's
// connection and generator, runs the one-time warmup pass, and starts
// every worker's event loop.
type Manager struct {
	cfg     ManagerConfig
	Workers []*Worker
}

// NewManager constructs an empty Manager; call CreateWorkers next.
func NewManager(cfg ManagerConfig) *Manager {
	return &Manager{cfg: cfg}
}

// CreateWorkers opens cfg.NumWorkers connections and builds one Worker per
// connection, each given an independent deep copy of template (the base
// StatisticsCollection). Mirrors
// original_source/worker_manager.cc's CreateAndInitializeWorkerThreads,
// which hands every WorkerThread a Copy() of the base collection.
func (m *Manager) CreateWorkers(template *stats.Collection) error {
	m.Workers = make([]*Worker, 0, m.cfg.NumWorkers)
	for i := 0; i < m.cfg.NumWorkers; i++ {
		c, err := conn.Open(m.cfg.ServerHost, conn.Options{DisableNagle: m.cfg.DisableNagle, Debug: m.cfg.Debug})
		if err != nil {
			return fmt.Errorf("manager: worker %d: %w", i, err)
		}
		genCfg := gen.Config{
			FractionGets: m.cfg.FractionGets,
			Distribution: m.cfg.Distribution,
			MaxKeySize:   maxKeySize,
			MaxValueSize: m.cfg.FixedObjectSize,
		}
		g := gen.New(genCfg, m.cfg.Seed, i)
		w := NewWorker(i, c, g, template, m.cfg.RPS, m.cfg.NumWorkers, m.cfg.Debug)
		if m.cfg.PinWorkers {
			w.SetPinCPU(i)
		}
		m.Workers = append(m.Workers, w)
	}
	return nil
}

// maxKeySize bounds the fallback random-key generator when no popularity
// distribution is configured. The source hardcodes an equivalent
// MAX_KEY_SIZE constant in generator.cc.
const maxKeySize = 250

// Warmup issues one SET per distribution entry against a single temporary
// connection, priming the server's cache before the timed run starts. It
// runs synchronously on the calling goroutine — a single-threaded pass,
// matching original_source/worker_manager.cc's Warmup(), which constructs
// one WarmupWorkerThread and calls its MainLoop() directly rather than
// spawning a thread for it. If no distribution is configured there is
// nothing to warm, and Warmup is a no-op.
func (m *Manager) Warmup(ctx context.Context) error {
	if m.cfg.Distribution == nil {
		return nil
	}

	c, err := conn.Open(m.cfg.ServerHost, conn.Options{DisableNagle: m.cfg.DisableNagle, Debug: m.cfg.Debug})
	if err != nil {
		return fmt.Errorf("manager: warmup: %w", err)
	}
	defer c.Close()

	for _, entry := range m.cfg.Distribution.Entries() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		value := make([]byte, entry.Size)
		for i := range value {
			value[i] = 'w'
		}
		req := toCodecRequest(true, entry.Key, string(value))
		if err := c.Send(req); err != nil {
			return fmt.Errorf("manager: warmup: send %s: %w", entry.Key, err)
		}
		if _, _, err := c.Recv(); err != nil {
			return fmt.Errorf("manager: warmup: recv %s: %w", entry.Key, err)
		}
	}
	return nil
}

// Start launches one goroutine per worker running Worker.Run, and returns
// a channel that receives each worker's terminal error (nil on a clean
// ctx-cancellation shutdown) exactly once per worker.
func (m *Manager) Start(ctx context.Context) <-chan error {
	done := make(chan error, len(m.Workers))
	for _, w := range m.Workers {
		w := w
		go func() { done <- w.Run(ctx) }()
	}
	return done
}
