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

//go:build linux

package core

import "golang.org/x/sys/unix"

// pinCurrentThread pins the calling OS thread to cpu via sched_setaffinity.
// The caller must have already called runtime.LockOSThread so the pin
// sticks to the goroutine actually servicing this worker's socket —
// grounded on original_source/worker_thread.cc's (dead) CPU_SET/
// pthread_setaffinity_np attempt, reintroduced here as a real, opt-in flag.
func pinCurrentThread(cpu int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	return unix.SchedSetaffinity(0, &set)
}
