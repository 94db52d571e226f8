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

// Package gen produces the next request a worker should send, mixing GETs
// and SETs against either a configured popularity distribution or a
// bounded-random fallback.
package gen

import (
	"math/rand/v2"

	"github.com/dmeisner/cachebash-go/internal/loadgen/distribution"
)

const alphanumeric = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// Request is the tagged variant the generator hands to a worker: either a
// Get naming a key, or a Set naming a key and carrying a freshly generated
// value. flags/expiry are not modeled here since the codec hardcodes them
// (see codec.setExtras); the generator only needs to decide opcode, key,
// and value.
type Request struct {
	IsSet bool
	Key   string
	Value string
}

// Config holds the knobs Generator.Next needs on every call. FractionGets
// is the probability of producing a Get rather than a Set. Distribution,
// when non-nil, drives (key, size) sampling; when nil, Next falls back to
// MaxKeySize/MaxValueSize bounded-random generation, mirroring the source's
// behavior when no -f flag is given.
type Config struct {
	FractionGets float32
	Distribution *distribution.Distribution
	MaxKeySize   int
	MaxValueSize int
}

// Generator produces Requests for one worker. Each worker owns its own
// Generator with its own PRNG stream, seeded from a shared master seed plus
// the worker's index, so workers never contend on RNG state and a run is
// reproducible given (seed, worker count) — see original_source/generator.cc's
// global rand()-based GenerateNextRequest, replaced here per spec's
// per-worker-PRNG design note.
type Generator struct {
	cfg Config
	rng *rand.Rand
}

// New constructs a Generator seeded deterministically from (seed, workerID).
func New(cfg Config, seed uint64, workerID int) *Generator {
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(seed, uint64(workerID))),
	}
}

// Next returns the next request to send, sampling the configured
// popularity distribution if present, otherwise falling back to
// bounded-random key/value generation.
func (g *Generator) Next() Request {
	var key string
	var size int

	if g.cfg.Distribution != nil {
		entry := g.cfg.Distribution.Sample(g.rng.Float32())
		key = entry.Key
		size = int(entry.Size)
	} else {
		key = g.randomString(g.cfg.MaxKeySize)
		size = g.boundedInt(g.cfg.MaxValueSize)
	}

	if g.rng.Float32() < g.cfg.FractionGets {
		return Request{IsSet: false, Key: key}
	}
	return Request{IsSet: true, Key: key, Value: g.randomString(size)}
}

// randomString returns an alphanumeric string whose length is drawn
// uniformly from [1, maxLength], as original_source/generator.cc's
// GenerateRandomString does for its random-length values.
func (g *Generator) randomString(maxLength int) string {
	if maxLength < 1 {
		maxLength = 1
	}
	length := g.boundedInt(maxLength)
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = alphanumeric[g.rng.IntN(len(alphanumeric))]
	}
	return string(buf)
}

// boundedInt returns a value in [1, max].
func (g *Generator) boundedInt(max int) int {
	if max <= 1 {
		return 1
	}
	return g.rng.IntN(max) + 1
}
