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
	"io"
	"log"
	"time"

	"github.com/dmeisner/cachebash-go/internal/loadgen/stats"
	"github.com/dmeisner/cachebash-go/internal/loadgen/telemetry"
)

// Reporter periodically merges every worker's statistics into a running
// aggregate and prints it, matching original_source/worker_manager.cc's
// manager thread (which just sleeps between prints, the actual print loop
// living in StatisticsManager) and StatisticsCollection::PrintStatInterval's
// output format. Ticker-driven background loop grounded on the teacher's
// core/worker.go commitLoop/evictionLoop time.Ticker + select idiom.
type Reporter struct {
	template *stats.Collection
	workers  []*Worker
	out      io.Writer
	interval time.Duration
	runtime  time.Duration
}

// NewReporter constructs a Reporter. template is the empty base collection
// (the one every worker's Stats was copied from); interval is the print
// period; runtime is the total run duration, or 0 for unbounded.
func NewReporter(template *stats.Collection, workers []*Worker, out io.Writer, interval, runtime time.Duration) *Reporter {
	return &Reporter{template: template, workers: workers, out: out, interval: interval, runtime: runtime}
}

// Loop prints a snapshot every r.interval until done is closed. When
// r.runtime > 0, it also calls stop and returns once that much wall time
// has elapsed since Loop started — the idiomatic-Go replacement for the
// source's direct exit() call from the manager thread, which let in-flight
// requests simply vanish with the process; here cancellation instead
// propagates to every worker goroutine via the context stop cancels.
func (r *Reporter) Loop(done <-chan struct{}, stop func()) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	var deadline time.Time
	if r.runtime > 0 {
		deadline = time.Now().Add(r.runtime)
	}

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			r.printOnce()
			if !deadline.IsZero() && time.Now().After(deadline) {
				stop()
				return
			}
		}
	}
}

// printOnce performs one snapshot-merge-print-reset cycle: clone the
// template as a fresh aggregate, swap each worker's live collection for an
// empty copy of the template and merge the retired snapshot in, then print
// the aggregate. The swap is the reset: every statistic a worker holds,
// cumulative or not, starts from zero each interval, and
// Collection.ResetNonCumulative is not used here. Because the swap is atomic
// (Worker.snapshot), this hand-off is synchronized against concurrent
// AddSample calls — unlike the source, which reads a worker's collection
// without any lock (spec.md §5/§9).
func (r *Reporter) printOnce() {
	aggregate := r.template.Copy()
	for _, w := range r.workers {
		retired := w.snapshot(r.template)
		if err := aggregate.Merge(retired); err != nil {
			log.Fatalf("reporter: %v", err)
		}
	}
	aggregate.Print(r.out)
	telemetry.Observe(aggregate)
}
