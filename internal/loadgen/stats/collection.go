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
	"fmt"
	"io"
)

// Collection is a named set of Statistics, keyed by metric name. A Worker
// owns one Collection per connection; the Reporter merges every worker's
// Collection into a running total on each print interval. This mirrors the
// source's StatisticsCollection / StatisticsManager split, collapsed into a
// single type since cachebash-go's Reporter already serializes access to
// the merged collection.
type Collection struct {
	order  []string
	byName map[string]*Statistic
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{byName: make(map[string]*Statistic)}
}

// Register adds a statistic to the collection under its own Name. Print
// renders statistics in registration order, matching the source's
// insertion-ordered vector of Statistic*.
func (c *Collection) Register(s *Statistic) {
	if _, exists := c.byName[s.Name]; !exists {
		c.order = append(c.order, s.Name)
	}
	c.byName[s.Name] = s
}

// Get returns the statistic registered under name, or nil if none exists.
func (c *Collection) Get(name string) *Statistic {
	return c.byName[name]
}

// Names returns every registered statistic name, in registration order.
func (c *Collection) Names() []string {
	return append([]string(nil), c.order...)
}

// AddSample records v against the statistic named name. It is a FatalError
// to sample a name that was never Registered — the source's
// AddStatisticSample does a map lookup with no fallback and would
// dereference a null Statistic*.
func (c *Collection) AddSample(name string, v float32) error {
	s, ok := c.byName[name]
	if !ok {
		return fatalf("collection: AddSample on unregistered statistic %q", name)
	}
	return s.Add(v)
}

// Copy deep-clones every statistic into a fresh, independently-mutable
// Collection. Workers take one of these per connection at startup so
// concurrent Add calls never share histogram storage.
func (c *Collection) Copy() *Collection {
	clone := NewCollection()
	for _, name := range c.order {
		clone.Register(c.byName[name].Copy())
	}
	return clone
}

// Merge folds other into c, statistic by statistic. It is a FatalError for
// other to contain a name c does not already have registered, or for the
// two same-named statistics to disagree on their histogram layout (surfaced
// by the underlying Statistic.Merge).
func (c *Collection) Merge(other *Collection) error {
	for _, name := range other.order {
		dst, ok := c.byName[name]
		if !ok {
			return fatalf("collection: merge source has unknown statistic %q", name)
		}
		if err := dst.Merge(other.byName[name]); err != nil {
			return err
		}
	}
	return nil
}

// ResetNonCumulative zeroes every registered statistic that is not marked
// Cumulative, so that per-interval statistics restart from zero while
// cumulative ones (e.g. a lifetime request counter) keep accumulating. The
// Reporter does not call it: its snapshot swap replaces every worker
// statistic, cumulative or not.
func (c *Collection) ResetNonCumulative() {
	for _, name := range c.order {
		s := c.byName[name]
		if !s.Cumulative {
			s.Reset()
		}
	}
}

// Print renders every statistic in registration order, one line each,
// formatted as "<name> - <printer> <printer> ...\n", preceded by a banner
// line of 30 '=' characters and followed by a trailing blank line. This
// matches StatisticsCollection::PrintStatInterval in the source byte for
// byte, since downstream tooling parses cachebash's stdout.
func (c *Collection) Print(w io.Writer) {
	fmt.Fprintln(w, "==============================")
	for _, name := range c.order {
		s := c.byName[name]
		fmt.Fprintf(w, "%s - ", s.Name)
		for _, p := range s.Printers {
			p.Print(w, s)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)
}
