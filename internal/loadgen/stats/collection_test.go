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

package stats

import (
	"strings"
	"testing"
)

func newTestCollection() *Collection {
	c := NewCollection()

	getRequests := NewStatistic("get_requests", false)
	getRequests.AddPrinter(NewCountPrinter())
	c.Register(getRequests)

	latency := NewStatistic("latency", false)
	latency.AddPrinter(NewAveragePrinter())
	latency.AddPrinter(NewQuantilePrinter(0.50))
	latency.AddPrinter(NewQuantilePrinter(0.99))
	c.Register(latency)

	return c
}

func TestCollectionAddSampleUnknownNameIsFatal(t *testing.T) {
	c := newTestCollection()
	if err := c.AddSample("nonexistent", 1.0); err == nil {
		t.Fatal("AddSample on unregistered name: expected error, got nil")
	}
}

func TestCollectionAddSampleRoutesToStatistic(t *testing.T) {
	c := newTestCollection()
	if err := c.AddSample("get_requests", 1.0); err != nil {
		t.Fatalf("AddSample: %v", err)
	}
	if got := c.Get("get_requests").Count(); got != 1 {
		t.Errorf("Count() = %d, want 1", got)
	}
}

func TestCollectionMergeRejectsUnknownStatistic(t *testing.T) {
	a := newTestCollection()
	b := NewCollection()
	b.Register(NewStatistic("not_in_a", false))
	if err := a.Merge(b); err == nil {
		t.Fatal("Merge with unknown statistic: expected error, got nil")
	}
}

func TestCollectionMergeSumsRegisteredStatistics(t *testing.T) {
	a := newTestCollection()
	b := a.Copy()

	if err := a.AddSample("get_requests", 1.0); err != nil {
		t.Fatal(err)
	}
	if err := b.AddSample("get_requests", 1.0); err != nil {
		t.Fatal(err)
	}
	if err := a.Merge(b); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if got := a.Get("get_requests").Count(); got != 2 {
		t.Errorf("Count() after merge = %d, want 2", got)
	}
}

func TestCollectionResetNonCumulative(t *testing.T) {
	c := NewCollection()
	cumulative := NewStatistic("lifetime_total", true)
	nonCumulative := NewStatistic("per_interval", false)
	c.Register(cumulative)
	c.Register(nonCumulative)

	if err := c.AddSample("lifetime_total", 1); err != nil {
		t.Fatal(err)
	}
	if err := c.AddSample("per_interval", 1); err != nil {
		t.Fatal(err)
	}
	c.ResetNonCumulative()

	if got := c.Get("lifetime_total").Count(); got != 1 {
		t.Errorf("cumulative Count() after reset = %d, want 1 (untouched)", got)
	}
	if got := c.Get("per_interval").Count(); got != 0 {
		t.Errorf("non-cumulative Count() after reset = %d, want 0", got)
	}
}

func TestCollectionPrintFormat(t *testing.T) {
	c := newTestCollection()
	if err := c.AddSample("get_requests", 1.0); err != nil {
		t.Fatal(err)
	}

	var buf strings.Builder
	c.Print(&buf)
	out := buf.String()

	if !strings.HasPrefix(out, "==============================\n") {
		t.Errorf("Print output missing banner: %q", out)
	}
	if !strings.Contains(out, "get_requests - Count: 1 \n") {
		t.Errorf("Print output missing get_requests line: %q", out)
	}
	if !strings.HasSuffix(out, "\n\n") {
		t.Errorf("Print output missing trailing blank line: %q", out)
	}
}

func TestCollectionCopyIsIndependent(t *testing.T) {
	c := newTestCollection()
	clone := c.Copy()
	if err := c.AddSample("get_requests", 1.0); err != nil {
		t.Fatal(err)
	}
	if got := clone.Get("get_requests").Count(); got != 0 {
		t.Errorf("clone Count() = %d, want 0 (unaffected by original mutation)", got)
	}
}
