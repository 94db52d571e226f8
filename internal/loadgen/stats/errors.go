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

// Package stats implements the multi-resolution latency histograms and
// running moment accumulators that the load generator uses to turn raw
// per-request samples into periodic reports.
package stats

import "fmt"

// FatalError marks a protocol/state violation that the source treats as
// unrecoverable: a sample landing outside every histogram band, a merge
// between collections with mismatched namespaces, an AddSample against an
// unregistered statistic. Callers at the top of the program (cmd/cachebash)
// are expected to report it and exit non-zero rather than attempt recovery.
type FatalError struct {
	Msg string
}

func (e *FatalError) Error() string { return e.Msg }

func fatalf(format string, args ...interface{}) *FatalError {
	return &FatalError{Msg: fmt.Sprintf(format, args...)}
}
