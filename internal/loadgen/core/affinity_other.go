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

//go:build !linux

package core

import "fmt"

// pinCurrentThread has no implementation outside Linux; -pin-workers is a
// no-op everywhere else, matching the reactor's own Linux-only epoll
// dependency.
func pinCurrentThread(cpu int) error {
	return fmt.Errorf("affinity: CPU pinning is not supported on this platform")
}
