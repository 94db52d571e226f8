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

// BinsPerHistogram is the fixed bin count every Histogram is constructed
// with. The source uses 1000 bins per band; cachebash-go keeps that density.
const BinsPerHistogram = 1000

// Histogram is a fixed-range, fixed-bin-count counter over [Min, Max).
// Bin i covers [Min + i*(Max-Min)/NBins, Min + (i+1)*(Max-Min)/NBins) when
// Min is 0; the source's bin scheme assumes Min==0 for the indexing formula
// (bin = floor(v*NBins/Max)) and simply truncates the first bin when Min>0,
// which is what AddSample below replicates verbatim.
type Histogram struct {
	Min, Max float32
	NBins    uint32
	Bins     []uint64
	NSamples uint64
}

// NewHistogram allocates a zeroed histogram over [min, max) with nBins bins.
func NewHistogram(min, max float32, nBins uint32) *Histogram {
	return &Histogram{
		Min:   min,
		Max:   max,
		NBins: nBins,
		Bins:  make([]uint64, nBins),
	}
}

// Add records one sample. It is a FatalError for v to fall outside
// [Min, Max) — the caller (Statistic.Add) is responsible for routing a
// sample to the correct band before calling this.
func (h *Histogram) Add(v float32) error {
	if v < h.Min || v >= h.Max {
		return fatalf("histogram: value %v outside [%v, %v)", v, h.Min, h.Max)
	}
	bin := uint32(v / (h.Max / float32(h.NBins)))
	if bin >= h.NBins {
		bin = h.NBins - 1
	}
	h.Bins[bin]++
	h.NSamples++
	return nil
}

// Quantile returns the lower edge of the first bin whose cumulative count
// reaches ceil(q * NSamples). An empty histogram returns 0. There is no
// interpolation within a bin, matching the source's GetQuantile.
func (h *Histogram) Quantile(q float32) float32 {
	if h.NSamples == 0 {
		return 0
	}
	needed := ceilQuantile(q, h.NSamples)
	var seen uint64
	for i := uint32(0); i < h.NBins; i++ {
		seen += h.Bins[i]
		if seen >= needed {
			return float32(i) * h.Max / float32(h.NBins)
		}
	}
	return float32(h.NBins-1) * h.Max / float32(h.NBins)
}

// ceilQuantile computes ceil(q * n) in integer arithmetic, treating q==0 as
// "the first sample" so Quantile(0) lands on bin 0 rather than skipping
// ahead of every bin with a zero threshold.
func ceilQuantile(q float32, n uint64) uint64 {
	if q <= 0 {
		return 1
	}
	needed := uint64(q * float32(n))
	if float32(needed) < q*float32(n) {
		needed++
	}
	if needed == 0 {
		needed = 1
	}
	if needed > n {
		needed = n
	}
	return needed
}

// Merge adds other's bins into h elementwise. Both histograms must share
// the same Min/Max/NBins; this is the per-metric "same named statistic"
// precondition from the spec, enforced band-to-band (the source has a
// copy-paste bug that merges the second-band histogram against the other's
// microsecond-band histogram — not replicated here).
func (h *Histogram) Merge(other *Histogram) error {
	if h.Min != other.Min || h.Max != other.Max || h.NBins != other.NBins {
		return fatalf("histogram: merge of mismatched histograms [%v,%v)/%d vs [%v,%v)/%d",
			h.Min, h.Max, h.NBins, other.Min, other.Max, other.NBins)
	}
	for i := range h.Bins {
		h.Bins[i] += other.Bins[i]
	}
	h.NSamples += other.NSamples
	return nil
}

// Reset zeroes every bin and the sample count.
func (h *Histogram) Reset() {
	for i := range h.Bins {
		h.Bins[i] = 0
	}
	h.NSamples = 0
}

// Copy returns a deep, independent clone of h.
func (h *Histogram) Copy() *Histogram {
	clone := NewHistogram(h.Min, h.Max, h.NBins)
	copy(clone.Bins, h.Bins)
	clone.NSamples = h.NSamples
	return clone
}
