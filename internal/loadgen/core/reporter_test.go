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
	"strings"
	"testing"
	"time"

	"github.com/dmeisner/cachebash-go/internal/loadgen/stats"
)

func reportTemplate() *stats.Collection {
	c := stats.NewCollection()
	s := stats.NewStatistic("get_requests", false)
	s.AddPrinter(stats.NewCountPrinter())
	c.Register(s)
	return c
}

func TestReporterPrintOnceMergesAndResets(t *testing.T) {
	template := reportTemplate()
	w1 := NewWorker(0, nil, nil, template, 0, 1, false)
	w2 := NewWorker(1, nil, nil, template, 0, 1, false)

	if err := w1.collection().AddSample("get_requests", 1); err != nil {
		t.Fatal(err)
	}
	if err := w1.collection().AddSample("get_requests", 1); err != nil {
		t.Fatal(err)
	}
	if err := w2.collection().AddSample("get_requests", 1); err != nil {
		t.Fatal(err)
	}

	var out strings.Builder
	r := NewReporter(template, []*Worker{w1, w2}, &out, time.Second, 0)
	r.printOnce()

	if !strings.Contains(out.String(), "get_requests - Count: 3 ") {
		t.Errorf("Print output = %q, want it to contain \"get_requests - Count: 3 \"", out.String())
	}

	// After the swap, each worker's live collection should be freshly reset.
	if got := w1.collection().Get("get_requests").Count(); got != 0 {
		t.Errorf("worker 1 live Count() after printOnce = %d, want 0", got)
	}
}

func TestReporterLoopStopsAtRuntimeDeadline(t *testing.T) {
	template := reportTemplate()
	w := NewWorker(0, nil, nil, template, 0, 1, false)

	var out strings.Builder
	r := NewReporter(template, []*Worker{w}, &out, 10*time.Millisecond, 30*time.Millisecond)

	done := make(chan struct{})
	stopped := make(chan struct{})
	stop := func() { close(stopped) }

	loopDone := make(chan struct{})
	go func() {
		r.Loop(done, stop)
		close(loopDone)
	}()

	select {
	case <-loopDone:
	case <-time.After(time.Second):
		t.Fatal("Loop did not return after its runtime deadline elapsed")
	}

	select {
	case <-stopped:
	default:
		t.Error("Loop returned without calling stop at the runtime deadline")
	}
}
