// Copyright 2026 The Mimic Developers. All rights reserved.
// Use of this source code is governed by a GNU GENERAL PUBLIC LICENSE v3
// license that can be found in the LICENSE file.

// Package metrics is a test-oracle recorder: named counters and
// histograms without a real metrics backend. One process-wide instance
// is installed once and cleared between scenarios so samples from one
// run never leak into the next.
package metrics

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Recorder stores registered counters and histograms. All methods are
// safe for concurrent use and safe on a nil receiver, which lets callers
// record unconditionally whether or not a recorder was installed.
type Recorder struct {
	mu         sync.Mutex
	counters   map[string]uint64
	histograms map[string][]float64
}

var (
	defaultMu       sync.Mutex
	defaultRecorder *Recorder
)

// Install sets up the process-wide recorder. Idempotent: repeated calls
// across scenarios return the same instance.
func Install() *Recorder {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultRecorder == nil {
		defaultRecorder = NewRecorder()
	}

	return defaultRecorder
}

// Default returns the installed recorder, or nil when Install has never
// run.
func Default() *Recorder {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultRecorder
}

// NewRecorder builds a standalone recorder, for scenarios that prefer
// passing a handle over the process-wide default.
func NewRecorder() *Recorder {
	return &Recorder{
		counters:   make(map[string]uint64),
		histograms: make(map[string][]float64),
	}
}

// RegisterCounter creates the named counter at zero. Re-registering is a
// no-op.
func (r *Recorder) RegisterCounter(name string) {
	if r == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.counters[name]; !ok {
		r.counters[name] = 0
	}
}

// RegisterHistogram creates the named histogram with no samples.
// Re-registering is a no-op.
func (r *Recorder) RegisterHistogram(name string) {
	if r == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.histograms[name]; !ok {
		r.histograms[name] = nil
	}
}

// IncrCounter adds delta to the named counter. Writes to a counter that
// was never registered are dropped and logged; they never abort the
// caller.
func (r *Recorder) IncrCounter(name string, delta uint64) {
	if r == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.counters[name]; !ok {
		logrus.Warnf("metrics: dropping write to unregistered counter %q", name)
		return
	}

	r.counters[name] += delta
}

// RecordHistogram appends one sample to the named histogram. Writes to
// an unregistered histogram are dropped and logged.
func (r *Recorder) RecordHistogram(name string, value float64) {
	if r == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.histograms[name]; !ok {
		logrus.Warnf("metrics: dropping write to unregistered histogram %q", name)
		return
	}

	r.histograms[name] = append(r.histograms[name], value)
}

// Counters returns a point-in-time copy of every registered counter.
func (r *Recorder) Counters() map[string]uint64 {
	if r == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := make(map[string]uint64, len(r.counters))
	for name, value := range r.counters {
		snapshot[name] = value
	}

	return snapshot
}

// Histograms converts the raw samples of every registered histogram into
// integer-bucketed snapshots for percentile queries.
func (r *Recorder) Histograms() map[string]*Histogram {
	if r == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := make(map[string]*Histogram, len(r.histograms))
	for name, samples := range r.histograms {
		snapshot[name] = newHistogram(samples)
	}

	return snapshot
}

// Clear drops every registered series. Must run between scenarios that
// share a process.
func (r *Recorder) Clear() {
	if r == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.counters = make(map[string]uint64)
	r.histograms = make(map[string][]float64)
}
