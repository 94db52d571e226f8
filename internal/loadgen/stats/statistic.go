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

import "math"

// Magnitude bands a non-negative sample is routed into. Samples are assumed
// to be latencies in seconds; the three bands together partition
// [0, 1000) seconds.
const (
	microBinMax = 1e-3
	milliBinMax = 1.0
	secBinMax   = 1000.0
)

// Statistic accumulates a named, optionally-cumulative series of samples:
// running count/sum/sum-of-squares for average and standard deviation, a
// running min/max, and three band histograms for quantile estimation.
type Statistic struct {
	Name       string
	Cumulative bool

	s0, s1, s2 float64
	min, max   float32

	Micro *Histogram
	Milli *Histogram
	Sec   *Histogram

	Printers []Printer

	// AllowOverflow, when set, clamps samples >= secBinMax into the top bin
	// of the second-band histogram instead of returning a FatalError, and
	// counts them in Overflow. This is an explicit opt-in (see DESIGN.md);
	// by default Add is as strict as the source.
	AllowOverflow bool
	Overflow      uint64
}

// NewStatistic constructs an empty statistic with fresh, zeroed histograms.
func NewStatistic(name string, cumulative bool) *Statistic {
	return &Statistic{
		Name:       name,
		Cumulative: cumulative,
		min:        float32(math.MaxFloat32),
		max:        -float32(math.MaxFloat32),
		Micro:      NewHistogram(0, microBinMax, BinsPerHistogram),
		Milli:      NewHistogram(microBinMax, milliBinMax, BinsPerHistogram),
		Sec:        NewHistogram(milliBinMax, secBinMax, BinsPerHistogram),
	}
}

// AddPrinter registers a printer that Print will invoke, in registration
// order, when the statistic is reported.
func (s *Statistic) AddPrinter(p Printer) {
	s.Printers = append(s.Printers, p)
}

// Add always updates the moments and min/max. A negative value updates
// those and returns, skipping histogram routing entirely (the source does
// not support negative samples in its histograms). A value at or above
// secBinMax is a FatalError unless AllowOverflow is set, in which case it
// is clamped into the last bin of the second-band histogram and counted in
// Overflow.
func (s *Statistic) Add(v float32) error {
	s.s0++
	s.s1 += float64(v)
	s.s2 += float64(v) * float64(v)
	if v < s.min {
		s.min = v
	}
	if v > s.max {
		s.max = v
	}

	if v < 0 {
		return nil
	}

	switch {
	case v < microBinMax:
		return s.Micro.Add(v)
	case v < milliBinMax:
		return s.Milli.Add(v)
	case v < secBinMax:
		return s.Sec.Add(v)
	default:
		if s.AllowOverflow {
			s.Overflow++
			return s.Sec.Add(nextDown(secBinMax))
		}
		return fatalf("statistic %q: unhandled value %v (>= %v)", s.Name, v, secBinMax)
	}
}

// nextDown returns the largest float32 strictly less than v, used to clamp
// an overflow sample into the last valid bin of a [min, v) histogram.
func nextDown(v float32) float32 {
	return math.Float32frombits(math.Float32bits(v) - 1)
}

// Count returns the number of samples seen, including negative ones.
func (s *Statistic) Count() int64 { return int64(s.s0) }

// Average returns s1/s0, or 0 when no samples have been recorded.
func (s *Statistic) Average() float64 {
	if s.s0 == 0 {
		return 0
	}
	return s.s1 / s.s0
}

// Min and Max return the running extrema. Prior to any Add call, Min is
// +MaxFloat32 and Max is -MaxFloat32, matching the source's sentinel reset
// state.
func (s *Statistic) Min() float32 { return s.min }
func (s *Statistic) Max() float32 { return s.max }

// SampleStandardDeviation returns the unbiased sample standard deviation.
// It is only meaningful for s0 > 1.
func (s *Statistic) SampleStandardDeviation() float64 {
	if s.s0 <= 1 {
		return 0
	}
	return math.Sqrt((s.s0*s.s2 - s.s1*s.s1) / (s.s0 * (s.s0 - 1)))
}

// Quantile walks the three band histograms in order (micro, milli, sec),
// looking for the bin that contains the ceil(q*s0)-th sample overall. If
// every band is exhausted before the target count is reached (e.g. because
// negative samples inflated s0 without landing in any histogram), it
// returns the lower edge of the seconds-band histogram's last bin.
func (s *Statistic) Quantile(q float32) float32 {
	if s.s0 <= 0 {
		return 0
	}
	needed := ceilQuantile(q, uint64(s.s0))

	var seen uint64
	for _, h := range []*Histogram{s.Micro, s.Milli, s.Sec} {
		if needed > seen+h.NSamples {
			seen += h.NSamples
			continue
		}
		var bandSeen uint64
		target := needed - seen
		for i := uint32(0); i < h.NBins; i++ {
			bandSeen += h.Bins[i]
			if bandSeen >= target {
				return float32(i) * (h.Max / float32(h.NBins))
			}
		}
		break
	}
	return float32(s.Sec.NBins-1) * (s.Sec.Max / float32(s.Sec.NBins))
}

// Merge folds other's moments, extrema, and band histograms into s,
// band-to-band. Both statistics must be the same named metric; the source
// does not enforce this, but cachebash-go treats a name mismatch as a
// programmer error surfaced through Collection.Merge rather than here.
func (s *Statistic) Merge(other *Statistic) error {
	s.s0 += other.s0
	s.s1 += other.s1
	s.s2 += other.s2
	if other.min < s.min {
		s.min = other.min
	}
	if other.max > s.max {
		s.max = other.max
	}
	s.Overflow += other.Overflow
	if err := s.Micro.Merge(other.Micro); err != nil {
		return err
	}
	if err := s.Milli.Merge(other.Milli); err != nil {
		return err
	}
	return s.Sec.Merge(other.Sec)
}

// Reset zeroes moments, resets min/max to their sentinel values, and clears
// every histogram bin. Used only on non-cumulative statistics at the end of
// a reporting interval.
func (s *Statistic) Reset() {
	s.s0, s.s1, s.s2 = 0, 0, 0
	s.min = float32(math.MaxFloat32)
	s.max = -float32(math.MaxFloat32)
	s.Overflow = 0
	s.Micro.Reset()
	s.Milli.Reset()
	s.Sec.Reset()
}

// Copy deep-clones the statistic including its histograms and printers.
func (s *Statistic) Copy() *Statistic {
	clone := &Statistic{
		Name:          s.Name,
		Cumulative:    s.Cumulative,
		s0:            s.s0,
		s1:            s.s1,
		s2:            s.s2,
		min:           s.min,
		max:           s.max,
		Micro:         s.Micro.Copy(),
		Milli:         s.Milli.Copy(),
		Sec:           s.Sec.Copy(),
		AllowOverflow: s.AllowOverflow,
		Overflow:      s.Overflow,
	}
	clone.Printers = make([]Printer, len(s.Printers))
	copy(clone.Printers, s.Printers)
	return clone
}
