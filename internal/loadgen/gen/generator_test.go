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

package gen

import (
	"testing"

	"github.com/dmeisner/cachebash-go/internal/loadgen/distribution"
)

func TestNextFallbackProducesBoundedKeyAndValue(t *testing.T) {
	cfg := Config{FractionGets: 0.0, MaxKeySize: 8, MaxValueSize: 16}
	g := New(cfg, 1, 0)

	for i := 0; i < 100; i++ {
		req := g.Next()
		if !req.IsSet {
			t.Fatalf("FractionGets=0: got a Get request")
		}
		if len(req.Key) < 1 || len(req.Key) > cfg.MaxKeySize {
			t.Errorf("key length %d outside [1,%d]", len(req.Key), cfg.MaxKeySize)
		}
		if len(req.Value) < 1 || len(req.Value) > cfg.MaxValueSize {
			t.Errorf("value length %d outside [1,%d]", len(req.Value), cfg.MaxValueSize)
		}
	}
}

func TestNextAllGetsWhenFractionGetsIsOne(t *testing.T) {
	cfg := Config{FractionGets: 1.0, MaxKeySize: 8, MaxValueSize: 16}
	g := New(cfg, 1, 0)
	for i := 0; i < 50; i++ {
		if req := g.Next(); req.IsSet {
			t.Fatalf("FractionGets=1: got a Set request")
		}
	}
}

func TestNextUsesDistributionWhenConfigured(t *testing.T) {
	dist := distribution.New([]distribution.Entry{
		{CDF: 1.0, Size: 4, Key: "only-key"},
	})
	cfg := Config{FractionGets: 0.0, Distribution: dist, MaxKeySize: 8, MaxValueSize: 16}
	g := New(cfg, 1, 0)

	req := g.Next()
	if req.Key != "only-key" {
		t.Errorf("Key = %q, want %q", req.Key, "only-key")
	}
	if len(req.Value) < 1 || len(req.Value) > 4 {
		t.Errorf("value length %d outside [1,4]", len(req.Value))
	}
}

func TestGeneratorsWithSameSeedAndWorkerAreDeterministic(t *testing.T) {
	cfg := Config{FractionGets: 0.5, MaxKeySize: 8, MaxValueSize: 16}
	a := New(cfg, 42, 3)
	b := New(cfg, 42, 3)

	for i := 0; i < 20; i++ {
		ra, rb := a.Next(), b.Next()
		if ra != rb {
			t.Fatalf("iteration %d: %+v != %+v", i, ra, rb)
		}
	}
}

func TestGeneratorsWithDifferentWorkerIDsDiverge(t *testing.T) {
	cfg := Config{FractionGets: 0.5, MaxKeySize: 8, MaxValueSize: 16}
	a := New(cfg, 42, 0)
	b := New(cfg, 42, 1)

	same := true
	for i := 0; i < 20; i++ {
		if a.Next() != b.Next() {
			same = false
			break
		}
	}
	if same {
		t.Fatal("generators seeded with different worker IDs produced identical streams")
	}
}
