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

// Package config parses and validates cachebash-go's command-line flags
// into a single immutable Config, the same shared-read-only role
// original_source/config.cc's Config class plays for the C++ original.
package config

import (
	"flag"
	"fmt"
	"time"
)

// NoRuntimeLimit is the sentinel Runtime value meaning "run until killed",
// matching the source's NO_RUNTIME_LIMIT.
const NoRuntimeLimit = 0

// Config holds every run-time knob, one field per CLI flag in spec.md §6
// plus cachebash-go's ambient additions (metrics, distribution-over-redis,
// overflow handling, CPU pinning). The zero value is never used directly —
// construct via Parse, which applies the same defaults as
// original_source/config.cc's Config::Config().
type Config struct {
	ConnectionsPerWorker int           // -c, reserved: the design fixes this at 1
	Debug                bool          // -d
	DistributionFile     string        // -f
	FixedObjectSize      int           // -F
	FractionGets         float64       // -g
	FixedGetsPerMultiget int           // -l, reserved, not implemented
	FractionMultiget     float64       // -m, reserved, not implemented
	EnableNagle          bool          // -n
	RPS                  float64       // -r; <=0 means unbounded
	ServerHost           string        // -s
	Runtime              time.Duration // -t; 0 means NoRuntimeLimit
	StatPrintInterval    time.Duration // -T
	NumWorkers           int           // -w

	// Ambient additions beyond spec.md's CLI table.
	MetricsAddr          string // -metrics_addr, empty disables the endpoint
	DistributionRedis    string // -distribution_redis, empty uses the flat file
	DistributionRedisKey string // -distribution_redis_key
	AllowOverflowSamples bool   // -allow-overflow-samples
	PinWorkers           bool   // -pin-workers
}

// defaults mirrors original_source/config.cc's Config::Config() exactly:
// debug_=false, fixed_object_size_=1024, fraction_gets_=0.9, n_cpus_=1,
// n_connections_per_worker_=1, n_worker_threads_=1,
// server_ip_address_="127.0.0.1", runtime_=NO_RUNTIME_LIMIT, rps_=-1.0
// (unbounded), stat_print_interval_=1.0, use_naggles_=false.
func defaults() Config {
	return Config{
		ConnectionsPerWorker: 1,
		Debug:                false,
		FixedObjectSize:      1024,
		FractionGets:         0.9,
		EnableNagle:          false,
		RPS:                  -1.0,
		ServerHost:           "127.0.0.1",
		Runtime:              NoRuntimeLimit,
		StatPrintInterval:    time.Second,
		NumWorkers:           1,
	}
}

// Parse parses args (typically os.Args[1:]) into a Config, starting from
// defaults(). It returns a *flag.FlagSet-level error for unparseable
// flags, matching spec.md §7's "configuration errors ... report and exit
// non-zero" handling — the caller decides how to report it.
func Parse(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaults()

	var runtimeSeconds, intervalSeconds float64

	fs.IntVar(&cfg.ConnectionsPerWorker, "c", cfg.ConnectionsPerWorker, "connections per worker (reserved)")
	fs.BoolVar(&cfg.Debug, "d", cfg.Debug, "enable packet byte-dump debugging")
	fs.StringVar(&cfg.DistributionFile, "f", cfg.DistributionFile, "size/key distribution file")
	fs.IntVar(&cfg.FixedObjectSize, "F", cfg.FixedObjectSize, "fixed object size fallback")
	fs.Float64Var(&cfg.FractionGets, "g", cfg.FractionGets, "fraction of requests that are GETs")
	fs.IntVar(&cfg.FixedGetsPerMultiget, "l", cfg.FixedGetsPerMultiget, "fixed gets per multiget (reserved)")
	fs.Float64Var(&cfg.FractionMultiget, "m", cfg.FractionMultiget, "fraction multiget (reserved, not implemented)")
	fs.BoolVar(&cfg.EnableNagle, "n", cfg.EnableNagle, "enable Nagle's algorithm (default off)")
	fs.Float64Var(&cfg.RPS, "r", cfg.RPS, "target requests/sec (default: unbounded)")
	fs.StringVar(&cfg.ServerHost, "s", cfg.ServerHost, "server host")
	fs.Float64Var(&runtimeSeconds, "t", cfg.Runtime.Seconds(), "runtime in seconds (default: infinite)")
	fs.Float64Var(&intervalSeconds, "T", cfg.StatPrintInterval.Seconds(), "reporting interval in seconds")
	fs.IntVar(&cfg.NumWorkers, "w", cfg.NumWorkers, "worker threads")

	fs.StringVar(&cfg.MetricsAddr, "metrics_addr", "", "address to serve Prometheus /metrics on (empty disables)")
	fs.StringVar(&cfg.DistributionRedis, "distribution_redis", "", "redis addr to hydrate the distribution from (empty uses -f)")
	fs.StringVar(&cfg.DistributionRedisKey, "distribution_redis_key", "cachebash:distribution", "redis sorted-set key for -distribution_redis")
	fs.BoolVar(&cfg.AllowOverflowSamples, "allow-overflow-samples", false, "clamp samples >= 1000s into the top bin instead of treating them as fatal")
	fs.BoolVar(&cfg.PinWorkers, "pin-workers", false, "pin each worker goroutine's OS thread to a CPU core (Linux only; no-op elsewhere)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.Runtime = time.Duration(runtimeSeconds * float64(time.Second))
	cfg.StatPrintInterval = time.Duration(intervalSeconds * float64(time.Second))

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.NumWorkers < 1 {
		return fmt.Errorf("config: -w must be >= 1, got %d", c.NumWorkers)
	}
	if c.FractionGets < 0 || c.FractionGets > 1 {
		return fmt.Errorf("config: -g must be in [0,1], got %v", c.FractionGets)
	}
	if c.FixedObjectSize < 1 {
		return fmt.Errorf("config: -F must be >= 1, got %d", c.FixedObjectSize)
	}
	if c.StatPrintInterval <= 0 {
		return fmt.Errorf("config: -T must be > 0, got %v", c.StatPrintInterval)
	}
	if c.DistributionFile != "" && c.DistributionRedis != "" {
		return fmt.Errorf("config: -f and -distribution_redis are mutually exclusive")
	}
	return nil
}
