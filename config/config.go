// Copyright 2026 The Mimic Developers. All rights reserved.
// Use of this source code is governed by a GNU GENERAL PUBLIC LICENSE v3
// license that can be found in the LICENSE file.

// Package config loads harness scenario settings from TOML files.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration wraps time.Duration so TOML files can say "5s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for toml.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}

	d.Duration = parsed
	return nil
}

// Scenario describes one harness run: where the node under test
// listens, how many synthetic peers to throw at it and how hard.
type Scenario struct {
	// NodeAddr is the address of the node under test.
	NodeAddr string `toml:"node_addr"`

	// SynthCounts lists the concurrent-peer counts to sweep.
	SynthCounts []int `toml:"synth_counts"`

	// Pings is the number of ping round trips each peer performs.
	Pings int `toml:"pings"`

	// RecvTimeout bounds each wait for a reply.
	RecvTimeout Duration `toml:"recv_timeout"`

	// ConnectTimeout and IOTimeout are handed to every synthetic node.
	ConnectTimeout Duration `toml:"connect_timeout"`
	IOTimeout      Duration `toml:"io_timeout"`
}

// Default returns the scenario the original harness runs: a peer-count
// sweep up to 800 with 1000 pings each.
func Default() Scenario {
	return Scenario{
		NodeAddr:       "127.0.0.1:8233",
		SynthCounts:    []int{1, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100, 200, 300, 500, 750, 800},
		Pings:          1000,
		RecvTimeout:    Duration{5 * time.Second},
		ConnectTimeout: Duration{5 * time.Second},
		IOTimeout:      Duration{5 * time.Second},
	}
}

// Load reads path over the defaults, so a scenario file only states what
// it changes.
func Load(path string) (Scenario, error) {
	scenario := Default()

	if _, err := toml.DecodeFile(path, &scenario); err != nil {
		return Scenario{}, fmt.Errorf("load scenario %s: %w", path, err)
	}

	if err := scenario.validate(); err != nil {
		return Scenario{}, fmt.Errorf("scenario %s: %w", path, err)
	}

	return scenario, nil
}

func (s Scenario) validate() error {
	if s.NodeAddr == "" {
		return fmt.Errorf("node_addr is required")
	}
	if s.Pings <= 0 {
		return fmt.Errorf("pings must be positive, got %d", s.Pings)
	}
	if len(s.SynthCounts) == 0 {
		return fmt.Errorf("synth_counts must not be empty")
	}
	for _, n := range s.SynthCounts {
		if n <= 0 {
			return fmt.Errorf("synth_counts entries must be positive, got %d", n)
		}
	}

	return nil
}
