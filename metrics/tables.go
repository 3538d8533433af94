// Copyright 2026 The Mimic Developers. All rights reserved.
// Use of this source code is governed by a GNU GENERAL PUBLIC LICENSE v3
// license that can be found in the LICENSE file.

package metrics

import (
	"fmt"
	"strings"
)

// RequestStats summarizes one scenario run: how many peers sent how many
// requests, and what the latency distribution looked like.
type RequestStats struct {
	Peers     int
	Requests  int
	Latencies *Histogram
	// TimeTaken is the wall-clock duration of the run in seconds.
	TimeTaken float64
}

// NewRequestStats builds a row from a latency histogram snapshot.
func NewRequestStats(peers, requests int, latencies *Histogram, timeTaken float64) RequestStats {
	return RequestStats{
		Peers:     peers,
		Requests:  requests,
		Latencies: latencies,
		TimeTaken: timeTaken,
	}
}

// Completion returns the percentage of expected requests that finished.
func (s RequestStats) Completion() float64 {
	expected := s.Peers * s.Requests
	if expected == 0 {
		return 0
	}

	return float64(s.Latencies.Count()) / float64(expected) * 100
}

// RequestsPerSecond returns the completed-request throughput.
func (s RequestStats) RequestsPerSecond() float64 {
	if s.TimeTaken == 0 {
		return 0
	}

	return float64(s.Latencies.Count()) / s.TimeTaken
}

var tableColumns = []struct {
	title string
	width int
}{
	{"peers", 7},
	{"requests", 10},
	{"min (ms)", 10},
	{"max (ms)", 10},
	{"std dev (ms)", 14},
	{"10% (ms)", 10},
	{"50% (ms)", 10},
	{"75% (ms)", 10},
	{"90% (ms)", 10},
	{"99% (ms)", 10},
	{"completion %", 14},
	{"time (s)", 10},
	{"requests/s", 12},
}

// Table renders scenario rows as the box-drawn summary printed at the
// end of a performance run.
type Table struct {
	rows []RequestStats
}

// AddRow appends one scenario result.
func (t *Table) AddRow(stats RequestStats) {
	t.rows = append(t.rows, stats)
}

func (t *Table) String() string {
	var b strings.Builder

	t.writeRule(&b, "┌", "┬", "┐")
	b.WriteString("│")
	for _, col := range tableColumns {
		fmt.Fprintf(&b, " %-*s│", col.width-1, col.title)
	}
	b.WriteString("\n")

	for _, row := range t.rows {
		t.writeRule(&b, "├", "┼", "┤")

		lat := row.Latencies
		cells := []string{
			fmt.Sprintf("%d", row.Peers),
			fmt.Sprintf("%d", row.Requests),
			fmt.Sprintf("%d", lat.Min()),
			fmt.Sprintf("%d", lat.Max()),
			fmt.Sprintf("%.0f", lat.StdDev()),
			fmt.Sprintf("%d", lat.Percentile(10)),
			fmt.Sprintf("%d", lat.Percentile(50)),
			fmt.Sprintf("%d", lat.Percentile(75)),
			fmt.Sprintf("%d", lat.Percentile(90)),
			fmt.Sprintf("%d", lat.Percentile(99)),
			fmt.Sprintf("%.2f", row.Completion()),
			fmt.Sprintf("%.2f", row.TimeTaken),
			fmt.Sprintf("%.2f", row.RequestsPerSecond()),
		}

		b.WriteString("│")
		for i, col := range tableColumns {
			fmt.Fprintf(&b, "%*s│", col.width, cells[i])
		}
		b.WriteString("\n")
	}

	t.writeRule(&b, "└", "┴", "┘")
	return b.String()
}

func (t *Table) writeRule(b *strings.Builder, left, mid, right string) {
	b.WriteString(left)
	for i, col := range tableColumns {
		b.WriteString(strings.Repeat("─", col.width))
		if i < len(tableColumns)-1 {
			b.WriteString(mid)
		}
	}
	b.WriteString(right)
	b.WriteString("\n")
}
