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

// Package core implements the request-pacing, response-matching, and
// periodic-reporting engine: Worker, Manager, and Reporter.
package core

import (
	"time"

	"github.com/dmeisner/cachebash-go/internal/loadgen/codec"
)

// outstandingRequest is the minimal record a Worker keeps for each request
// it has sent but not yet matched with a response: enough to know which
// category-specific statistics to update and when it was sent. The source
// models Request/Response as a class hierarchy with a back-pointer; here a
// small descriptor plays the same role, per spec.md §9's "no heap-level
// back pointer needed" design note.
type outstandingRequest struct {
	isSet    bool
	sendTime time.Time
	size     int
}

func toCodecRequest(isSet bool, key, value string) codec.Request {
	if isSet {
		return codec.Request{Opcode: codec.OpSet, Key: []byte(key), Value: []byte(value)}
	}
	return codec.Request{Opcode: codec.OpGet, Key: []byte(key)}
}
