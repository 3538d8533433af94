// Copyright 2026 The Mimic Developers. All rights reserved.
// Use of this source code is governed by a GNU GENERAL PUBLIC LICENSE v3
// license that can be found in the LICENSE file.

package metrics

import (
	"math"
	"sort"
	"time"
)

// Histogram is a point-in-time capture of recorded samples, rounded to
// integers and sorted for percentile queries.
type Histogram struct {
	values []uint64
}

func newHistogram(samples []float64) *Histogram {
	values := make([]uint64, 0, len(samples))
	for _, s := range samples {
		if s < 0 {
			s = 0
		}
		values = append(values, uint64(math.Round(s)))
	}

	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	return &Histogram{values: values}
}

// Count returns the number of recorded samples.
func (h *Histogram) Count() int {
	if h == nil {
		return 0
	}
	return len(h.values)
}

// Min returns the smallest sample, zero when empty.
func (h *Histogram) Min() uint64 {
	if h.Count() == 0 {
		return 0
	}
	return h.values[0]
}

// Max returns the largest sample, zero when empty.
func (h *Histogram) Max() uint64 {
	if h.Count() == 0 {
		return 0
	}
	return h.values[len(h.values)-1]
}

// Mean returns the average of all samples.
func (h *Histogram) Mean() float64 {
	if h.Count() == 0 {
		return 0
	}

	var sum float64
	for _, v := range h.values {
		sum += float64(v)
	}

	return sum / float64(len(h.values))
}

// StdDev returns the population standard deviation of the samples.
func (h *Histogram) StdDev() float64 {
	if h.Count() == 0 {
		return 0
	}

	mean := h.Mean()
	var sum float64
	for _, v := range h.values {
		d := float64(v) - mean
		sum += d * d
	}

	return math.Sqrt(sum / float64(len(h.values)))
}

// Percentile returns the nearest-rank p-th percentile, p in [0, 100].
func (h *Histogram) Percentile(p float64) uint64 {
	n := h.Count()
	if n == 0 {
		return 0
	}

	rank := int(math.Ceil(p / 100 * float64(n)))
	if rank < 1 {
		rank = 1
	}
	if rank > n {
		rank = n
	}

	return h.values[rank-1]
}

// DurationAsMs converts d to fractional milliseconds for histogram
// samples.
func DurationAsMs(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / float64(time.Millisecond)
}
