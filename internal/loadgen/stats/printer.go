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

// Printer renders one field of a Statistic when a report is printed. The
// source models these as a small class hierarchy (AveragePrinter,
// QuantilePrinter, MinPrinter, MaxPrinter, CountPrinter); a Go Printer plays
// the same role as a closed, tagged set of print kinds instead.
type Printer struct {
	kind printerKind
	// Quantile is only meaningful when kind is printerQuantile.
	Quantile float32
}

type printerKind int

const (
	printerAverage printerKind = iota
	printerQuantile
	printerMin
	printerMax
	printerCount
)

// NewAveragePrinter, NewQuantilePrinter, NewMinPrinter, NewMaxPrinter, and
// NewCountPrinter construct the corresponding printer kind. Field order and
// spacing in Print match the source's printf formats exactly, since the
// spec's stdout contract is compared byte-for-byte by downstream tooling.
func NewAveragePrinter() Printer           { return Printer{kind: printerAverage} }
func NewQuantilePrinter(q float32) Printer { return Printer{kind: printerQuantile, Quantile: q} }
func NewMinPrinter() Printer               { return Printer{kind: printerMin} }
func NewMaxPrinter() Printer               { return Printer{kind: printerMax} }
func NewCountPrinter() Printer             { return Printer{kind: printerCount} }

// Print writes this printer's rendering of s to w, matching the source's
// per-field formats: "Avg: %f ", "%.3fth: %.3f ", "Min: %f ", "Max: %f ",
// "Count: %d ".
func (p Printer) Print(w io.Writer, s *Statistic) {
	switch p.kind {
	case printerAverage:
		fmt.Fprintf(w, "Avg: %f ", s.Average())
	case printerQuantile:
		fmt.Fprintf(w, "%.3fth: %.3f ", p.Quantile, s.Quantile(p.Quantile))
	case printerMin:
		fmt.Fprintf(w, "Min: %f ", s.Min())
	case printerMax:
		fmt.Fprintf(w, "Max: %f ", s.Max())
	case printerCount:
		fmt.Fprintf(w, "Count: %d ", s.Count())
	}
}
