// Copyright 2026 The Mimic Developers. All rights reserved.
// Use of this source code is governed by a GNU GENERAL PUBLIC LICENSE v3
// license that can be found in the LICENSE file.

// The harness command runs the ping-pong throughput scenario against a
// running node under test and prints a latency results table.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/probelab/mimic/config"
	"github.com/probelab/mimic/metrics"
	"github.com/probelab/mimic/p2p"
	"github.com/probelab/mimic/wire"
)

const metricLatency = "ping_perf_latency"

func init() {
	// Output to stdout instead of the default stderr.
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)
}

func main() {
	var (
		scenarioPath = flag.String("scenario", "", "TOML scenario file; defaults apply when empty")
		verbose      = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	scenario := config.Default()
	if *scenarioPath != "" {
		var err error
		if scenario, err = config.Load(*scenarioPath); err != nil {
			logrus.Fatal(err)
		}
	}

	rec := metrics.Install()
	var table metrics.Table

	logrus.Infof("ping-pong throughput against %s", scenario.NodeAddr)

	for _, synthCount := range scenario.SynthCounts {
		rec.Clear()
		rec.RegisterHistogram(metricLatency)

		start := time.Now()

		var wg sync.WaitGroup
		for i := 0; i < synthCount; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				simulatePeer(scenario, rec)
			}()
		}
		wg.Wait()

		elapsed := time.Since(start).Seconds()

		latencies := rec.Histograms()[metricLatency]
		table.AddRow(metrics.NewRequestStats(synthCount, scenario.Pings, latencies, elapsed))

		logrus.Infof("%d peers: %d/%d round trips in %.2fs",
			synthCount, latencies.Count(), synthCount*scenario.Pings, elapsed)
	}

	fmt.Println(table.String())
}

// simulatePeer connects one synthetic node and sends pings as fast as
// the node under test answers them, recording each round-trip latency.
func simulatePeer(scenario config.Scenario, rec *metrics.Recorder) {
	cfg := p2p.DefaultConfig()
	cfg.ConnectTimeout = scenario.ConnectTimeout.Duration
	cfg.IOTimeout = scenario.IOTimeout.Duration
	cfg.Recorder = rec

	node := p2p.NewSyntheticNode(cfg)
	defer node.Shutdown()

	if err := node.Connect(scenario.NodeAddr); err != nil {
		logrus.Warnf("peer failed to connect: %v", err)
		return
	}

	for i := 0; i < scenario.Pings; i++ {
		nonce := rand.Uint64()

		if err := node.SendDirectMessage(scenario.NodeAddr, &wire.Ping{Nonce: nonce}); err != nil {
			logrus.Warnf("ping send failed: %v", err)
			return
		}

		start := time.Now()
		_, reply, err := node.RecvMessageTimeout(scenario.RecvTimeout.Duration)
		if err != nil {
			// Peer stopped responding; end this exchange.
			logrus.Debugf("no reply: %v", err)
			return
		}

		pong, ok := reply.(*wire.Pong)
		if !ok || pong.Nonce != nonce {
			logrus.Warnf("unexpected reply %s to ping", reply.Command())
			return
		}

		rec.RecordHistogram(metricLatency, metrics.DurationAsMs(time.Since(start)))
	}
}
