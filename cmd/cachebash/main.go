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

// Package main wires cachebash-go's components into a runnable load
// generator: parse flags, hydrate the size/key distribution, warm the
// server's cache, start one Worker per connection, and print periodic
// statistics until the runtime elapses or the process is signaled.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmeisner/cachebash-go/internal/loadgen/config"
	"github.com/dmeisner/cachebash-go/internal/loadgen/core"
	"github.com/dmeisner/cachebash-go/internal/loadgen/distribution"
	"github.com/dmeisner/cachebash-go/internal/loadgen/stats"
	"github.com/dmeisner/cachebash-go/internal/loadgen/telemetry"
)

func main() {
	cfg, err := config.Parse(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Printf("cachebash: %v", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		fmt.Fprintln(os.Stderr, "\ncachebash: shutting down...")
		cancel()
	}()

	telemetry.Enable(telemetry.Config{Addr: cfg.MetricsAddr})

	dist, err := loadDistribution(ctx, cfg)
	if err != nil {
		log.Fatalf("cachebash: %v", err)
	}

	manager := core.NewManager(core.ManagerConfig{
		ServerHost:      cfg.ServerHost,
		NumWorkers:      cfg.NumWorkers,
		RPS:             cfg.RPS,
		FractionGets:    float32(cfg.FractionGets),
		Distribution:    dist,
		FixedObjectSize: cfg.FixedObjectSize,
		DisableNagle:    !cfg.EnableNagle,
		Debug:           cfg.Debug,
		Seed:            1,
		PinWorkers:      cfg.PinWorkers,
	})

	template := newStatsTemplate(cfg.AllowOverflowSamples)

	if err := manager.CreateWorkers(template); err != nil {
		log.Fatalf("cachebash: %v", err)
	}

	if err := manager.Warmup(ctx); err != nil {
		log.Fatalf("cachebash: warmup: %v", err)
	}

	workerErrs := manager.Start(ctx)

	reporter := core.NewReporter(template, manager.Workers, os.Stdout, cfg.StatPrintInterval, cfg.Runtime)
	reporterDone := make(chan struct{})
	go func() {
		reporter.Loop(ctx.Done(), cancel)
		close(reporterDone)
	}()

	var firstErr error
	for range manager.Workers {
		if err := <-workerErrs; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	<-reporterDone

	if firstErr != nil {
		log.Fatalf("cachebash: worker error: %v", firstErr)
	}
}

// loadDistribution resolves the configured size/key distribution, if any,
// from either a flat file (-f) or Redis (-distribution_redis). At most one
// of the two is set — config.Parse already rejected both being set.
func loadDistribution(ctx context.Context, cfg config.Config) (*distribution.Distribution, error) {
	switch {
	case cfg.DistributionFile != "":
		d, err := distribution.Load(cfg.DistributionFile)
		if err != nil {
			return nil, fmt.Errorf("load distribution file %s: %w", cfg.DistributionFile, err)
		}
		return d, nil
	case cfg.DistributionRedis != "":
		src := distribution.NewRedisSource(cfg.DistributionRedis)
		entries, err := src.FetchEntries(ctx, cfg.DistributionRedisKey)
		if err != nil {
			return nil, fmt.Errorf("fetch distribution from redis %s: %w", cfg.DistributionRedis, err)
		}
		return distribution.New(entries), nil
	default:
		return nil, nil
	}
}

// newStatsTemplate registers the fixed statistic namespace the core
// produces, per spec.md §4.C: get_requests/set_requests (count),
// get_request_size/set_request_size (avg/min/max), and latency
// (avg + quantiles 0.50/0.90/0.95/0.99). All are non-cumulative so the
// Reporter's periodic print reflects only the preceding interval.
// allowOverflow is threaded onto every statistic from -allow-overflow-samples:
// without it, a single sample >= 1000 (a size in bytes easily exceeds this,
// and so can a stalled response's latency in seconds) is fatal.
func newStatsTemplate(allowOverflow bool) *stats.Collection {
	c := stats.NewCollection()

	newStat := func(name string) *stats.Statistic {
		s := stats.NewStatistic(name, false)
		s.AllowOverflow = allowOverflow
		return s
	}

	getRequests := newStat("get_requests")
	getRequests.AddPrinter(stats.NewCountPrinter())
	c.Register(getRequests)

	setRequests := newStat("set_requests")
	setRequests.AddPrinter(stats.NewCountPrinter())
	c.Register(setRequests)

	getSize := newStat("get_request_size")
	getSize.AddPrinter(stats.NewAveragePrinter())
	getSize.AddPrinter(stats.NewMinPrinter())
	getSize.AddPrinter(stats.NewMaxPrinter())
	c.Register(getSize)

	setSize := newStat("set_request_size")
	setSize.AddPrinter(stats.NewAveragePrinter())
	setSize.AddPrinter(stats.NewMinPrinter())
	setSize.AddPrinter(stats.NewMaxPrinter())
	c.Register(setSize)

	latency := newStat("latency")
	latency.AddPrinter(stats.NewAveragePrinter())
	latency.AddPrinter(stats.NewQuantilePrinter(0.50))
	latency.AddPrinter(stats.NewQuantilePrinter(0.90))
	latency.AddPrinter(stats.NewQuantilePrinter(0.95))
	latency.AddPrinter(stats.NewQuantilePrinter(0.99))
	c.Register(latency)

	return c
}
