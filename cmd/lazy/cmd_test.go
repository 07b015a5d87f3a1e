package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	t.Setenv("LAZY_GPU", "false")
	var out bytes.Buffer
	cmd := NewCLI()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestVersion(t *testing.T) {
	assert.Equal(t, "lazy "+version+"\n", run(t, "version"))
}

func TestDevices(t *testing.T) {
	out := run(t, "devices")
	assert.Contains(t, out, "DEVICE")
	assert.Contains(t, out, "cpu:0")
}

func TestConfig(t *testing.T) {
	t.Setenv("LAZY_STREAMS_PER_DEVICE", "4")
	out := run(t, "config")
	assert.Contains(t, out, "LAZY_STREAMS_PER_DEVICE")
	assert.Contains(t, out, "LAZY_GPU")
	assert.Regexp(t, `LAZY_STREAMS_PER_DEVICE\s+4`, out)
}

func TestDemoTable(t *testing.T) {
	out := run(t, "demo")
	assert.Contains(t, out, "pending graph:")
	assert.Contains(t, out, "[6 14 24 36]")
	assert.Contains(t, out, "[6 7 8 9]")
	assert.Contains(t, out, "[1 2 3 4]")
}

func TestDemoJSON(t *testing.T) {
	out := run(t, "demo", "--format", "json")
	var ex struct {
		Targets []uint64         `json:"targets"`
		Nodes   []map[string]any `json:"nodes"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &ex))
	assert.Len(t, ex.Targets, 3)
	assert.NotEmpty(t, ex.Nodes)
}

func TestDemoCBOR(t *testing.T) {
	out := run(t, "demo", "--format", "cbor")
	var decoded map[any]any
	require.NoError(t, cbor.Unmarshal([]byte(out), &decoded))
	assert.NotEmpty(t, decoded)
}

func TestDemoRejectsFormat(t *testing.T) {
	t.Setenv("LAZY_GPU", "false")
	cmd := NewCLI()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"demo", "--format", "yaml"})
	assert.ErrorContains(t, cmd.Execute(), "unknown format")
}
