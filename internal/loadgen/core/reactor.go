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
	"context"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// reactor is a minimal readiness-driven event loop over one epoll
// instance, in the spirit of original_source/worker_thread.cc's libevent
// registration (EV_READ priority 1, EV_WRITE priority 2 — lower number
// serviced first). Each registered descriptor carries an onRead and an
// onWrite callback; within one reactor.run iteration, a descriptor's read
// callback always fires before its write callback when both are ready, so
// read-over-write priority holds without needing the underlying poll API
// to support priorities itself.
type reactor struct {
	epfd int

	mu    sync.Mutex
	hooks map[int32]hookPair
}

type hookPair struct {
	onRead  func()
	onWrite func()
}

// newReactor creates a fresh epoll instance.
func newReactor() (*reactor, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("reactor: epoll_create1: %w", err)
	}
	return &reactor{epfd: epfd, hooks: make(map[int32]hookPair)}, nil
}

// register adds fd to the epoll set with both read and write interest
// persistently armed (level-triggered, the epoll default), storing the
// callbacks to invoke when the corresponding condition is ready.
func (r *reactor) register(fd int, onRead, onWrite func()) error {
	r.mu.Lock()
	r.hooks[int32(fd)] = hookPair{onRead: onRead, onWrite: onWrite}
	r.mu.Unlock()

	ev := unix.EpollEvent{Events: unix.EPOLLIN | unix.EPOLLOUT, Fd: int32(fd)}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return fmt.Errorf("reactor: epoll_ctl add fd=%d: %w", fd, err)
	}
	return nil
}

// unregister removes fd from the epoll set. Safe to call even if fd was
// never registered.
func (r *reactor) unregister(fd int) {
	r.mu.Lock()
	delete(r.hooks, int32(fd))
	r.mu.Unlock()
	unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

// close releases the epoll file descriptor.
func (r *reactor) close() error {
	return unix.Close(r.epfd)
}

// run blocks servicing readiness events until ctx is canceled. Each
// epoll_wait call is bounded by waitMillis so cancellation is noticed
// promptly even under idle load.
func (r *reactor) run(ctx context.Context, waitMillis int) error {
	events := make([]unix.EpollEvent, 64)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, err := unix.EpollWait(r.epfd, events, waitMillis)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("reactor: epoll_wait: %w", err)
		}

		for i := 0; i < n; i++ {
			ev := events[i]
			r.mu.Lock()
			hooks, ok := r.hooks[ev.Fd]
			r.mu.Unlock()
			if !ok {
				continue
			}
			if ev.Events&unix.EPOLLIN != 0 && hooks.onRead != nil {
				hooks.onRead()
			}
			if ev.Events&unix.EPOLLOUT != 0 && hooks.onWrite != nil {
				hooks.onWrite()
			}
		}
	}
}
