package metrics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstallIdempotent(t *testing.T) {
	first := Install()
	second := Install()

	require.NotNil(t, first)
	assert.Same(t, first, second, "Install must return the same process-wide instance")
	assert.Same(t, first, Default())
}

func TestCounterLifecycle(t *testing.T) {
	r := NewRecorder()
	r.RegisterCounter("pings_sent")

	r.IncrCounter("pings_sent", 1)
	r.IncrCounter("pings_sent", 2)

	counters := r.Counters()
	assert.Equal(t, uint64(3), counters["pings_sent"])

	// the snapshot is a copy, not a live view
	counters["pings_sent"] = 99
	assert.Equal(t, uint64(3), r.Counters()["pings_sent"])
}

func TestUnregisteredWritesDropped(t *testing.T) {
	r := NewRecorder()

	// must not panic, must not create the series
	r.IncrCounter("never_registered", 1)
	r.RecordHistogram("never_registered", 1.0)

	_, ok := r.Counters()["never_registered"]
	assert.False(t, ok)
	_, ok = r.Histograms()["never_registered"]
	assert.False(t, ok)
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder

	r.RegisterCounter("x")
	r.IncrCounter("x", 1)
	r.RegisterHistogram("y")
	r.RecordHistogram("y", 1.0)
	r.Clear()

	assert.Nil(t, r.Counters())
	assert.Nil(t, r.Histograms())
}

func TestClearIsolatesScenarios(t *testing.T) {
	r := NewRecorder()
	r.RegisterHistogram("latency")
	r.RecordHistogram("latency", 5.0)
	r.RegisterCounter("pings_sent")
	r.IncrCounter("pings_sent", 10)

	r.Clear()

	assert.Empty(t, r.Counters())
	assert.Empty(t, r.Histograms())

	// a series used by a prior scenario must come back empty
	r.RegisterHistogram("latency")
	assert.Zero(t, r.Histograms()["latency"].Count())
}

func TestConcurrentWrites(t *testing.T) {
	r := NewRecorder()
	r.RegisterCounter("hits")
	r.RegisterHistogram("latency")

	const writers = 16
	const perWriter = 500

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				r.IncrCounter("hits", 1)
				r.RecordHistogram("latency", float64(j))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(writers*perWriter), r.Counters()["hits"])
	assert.Equal(t, writers*perWriter, r.Histograms()["latency"].Count())
}
