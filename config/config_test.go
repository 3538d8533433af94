package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "scenario.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeScenario(t, `
node_addr = "10.0.0.5:18233"
synth_counts = [1, 5]
pings = 50
recv_timeout = "2s"
`)

	scenario, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.5:18233", scenario.NodeAddr)
	assert.Equal(t, []int{1, 5}, scenario.SynthCounts)
	assert.Equal(t, 50, scenario.Pings)
	assert.Equal(t, 2*time.Second, scenario.RecvTimeout.Duration)

	// untouched keys keep their defaults
	assert.Equal(t, 5*time.Second, scenario.ConnectTimeout.Duration)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"zero pings":        "pings = 0\n",
		"empty node addr":   `node_addr = ""` + "\n",
		"negative count":    "synth_counts = [-1]\n",
		"malformed timeout": `recv_timeout = "soon"` + "\n",
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeScenario(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().validate())
}
