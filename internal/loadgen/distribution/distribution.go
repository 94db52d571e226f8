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

// Package distribution implements the weighted (size, key) popularity
// distribution the generator samples from: an immutable, CDF-ordered list
// of entries loaded once at startup and shared read-only across every
// worker.
package distribution

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Entry is one row of the popularity distribution: the cumulative
// probability mass up to and including this entry, the object size in
// bytes, and the key to use when this entry is selected.
type Entry struct {
	CDF  float32
	Size uint32
	Key  string
}

// Distribution is an immutable, CDF-ordered sequence of Entry. It is safe
// for concurrent read-only use by many workers.
type Distribution struct {
	entries []Entry
}

// New wraps a pre-built, already CDF-sorted entry slice. Mainly useful for
// tests and for building a Distribution from something other than the flat
// file format (e.g. RedisSource).
func New(entries []Entry) *Distribution {
	return &Distribution{entries: entries}
}

// Load reads the distribution file format from path: one entry per line,
// "cdf, size, key" comma-and-space delimited, blank lines skipped. cdf
// parses as float32, size as uint32, and key is the remainder of the line
// after the second delimiter, trimmed of leading whitespace but not
// otherwise escaped (so keys may contain commas).
func Load(path string) (*Distribution, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("distribution: open %s: %w", path, err)
	}
	defer f.Close()
	return parse(f)
}

func parse(r io.Reader) (*Distribution, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		first := strings.Index(line, ",")
		if first < 0 {
			return nil, fmt.Errorf("distribution: line %d: missing field separator: %q", lineNo, line)
		}
		rest := line[first+1:]
		second := strings.Index(rest, ",")
		if second < 0 {
			return nil, fmt.Errorf("distribution: line %d: missing field separator: %q", lineNo, line)
		}

		cdfField := strings.TrimSpace(line[:first])
		sizeField := strings.TrimSpace(rest[:second])
		keyField := strings.TrimLeft(rest[second+1:], " \t")

		cdf, err := strconv.ParseFloat(cdfField, 32)
		if err != nil {
			return nil, fmt.Errorf("distribution: line %d: bad cdf %q: %w", lineNo, cdfField, err)
		}
		size, err := strconv.ParseUint(sizeField, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("distribution: line %d: bad size %q: %w", lineNo, sizeField, err)
		}

		entries = append(entries, Entry{CDF: float32(cdf), Size: uint32(size), Key: keyField})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("distribution: read: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("distribution: no entries")
	}
	return &Distribution{entries: entries}, nil
}

// Len returns the number of entries in the distribution.
func (d *Distribution) Len() int { return len(d.entries) }

// Entries returns the full ordered entry list. The caller must not mutate
// it — it is shared read-only across workers.
func (d *Distribution) Entries() []Entry { return d.entries }

// Sample returns the first entry whose CDF is >= u, for u in [0, 1). This
// is inverse-CDF sampling by lower bound: the least index i with
// entries[i].CDF >= u, ties on CDF broken by lowest index. The source's
// GetRandomEntry has a dead branch (two identical predicates in its binary
// search) and remaps its input through a lossy `% 1000000` modulo before
// scaling to [0,1) — neither is reproduced here; Sample takes the uniform
// float directly and does a plain sort.Search lower bound.
func (d *Distribution) Sample(u float32) *Entry {
	if len(d.entries) == 0 {
		return nil
	}
	i := sort.Search(len(d.entries), func(i int) bool {
		return d.entries[i].CDF >= u
	})
	if i == len(d.entries) {
		i = len(d.entries) - 1
	}
	return &d.entries[i]
}
