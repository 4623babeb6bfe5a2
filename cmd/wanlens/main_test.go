package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wanlens/internal/codec"
	"wanlens/internal/domain"
	"wanlens/internal/graph"
)

const cliServiceability = `{
  "locations": {
    "loc-ams": {"lat": 52.37, "lng": 4.89, "code": "ams", "name": "Amsterdam"},
    "loc-lon": {"lat": 51.50, "lng": -0.12, "code": "lon", "name": "London"}
  },
  "devices": {
    "dev-ams": {"code": "ams-dz1", "location_pk": "loc-ams"},
    "dev-lon": {"code": "lon-dz1", "location_pk": "loc-lon"}
  },
  "links": {
    "l1": {"code": "ams-dz1:lon-dz1", "delay_ns": 10000, "bandwidth": "10 Gbps"}
  }
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRun_JSON(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), options{
		serviceability: writeFile(t, "s.json", cliServiceability),
		telemetry:      writeFile(t, "t.json", `{"device_latency_samples":[{"link_pk":"l1","samples":[12]}]}`),
		format:         "json",
	}, &out)
	require.NoError(t, err)

	var result domain.Result
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	require.Len(t, result.Topology, 1)
	assert.Equal(t, domain.HealthMissingISIS, result.Topology[0].HealthStatus)
}

func TestRun_HealthFilter(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), options{
		serviceability: writeFile(t, "s.json", cliServiceability),
		format:         "json",
		health:         "healthy",
	}, &out)
	require.NoError(t, err)

	var result domain.Result
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Empty(t, result.Topology)
	assert.Equal(t, 1, result.Summary.MissingTelemetry)
}

func TestRun_YAML(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), options{
		serviceability: writeFile(t, "s.json", cliServiceability),
		format:         "yaml",
	}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "link_pk: l1")
}

func TestRun_Path(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), options{
		serviceability: writeFile(t, "s.json", cliServiceability),
		path:           "ams-dz1:lon-dz1",
		strategy:       "hops",
	}, &out)
	require.NoError(t, err)

	var path graph.PathResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &path))
	assert.Equal(t, 1, path.TotalHops)
	assert.Equal(t, graph.StrategyHops, path.Strategy)
}

func TestRun_Errors(t *testing.T) {
	svc := writeFile(t, "s.json", cliServiceability)

	tests := []struct {
		name string
		opts options
	}{
		{"malformed path", options{serviceability: svc, path: "ams-dz1", strategy: "latency"}},
		{"bad strategy", options{serviceability: svc, path: "ams-dz1:lon-dz1", strategy: "cost"}},
		{"bad format", options{serviceability: svc, format: "xml"}},
		{"bad health", options{serviceability: svc, format: "json", health: "sad"}},
		{"missing file", options{serviceability: filepath.Join(t.TempDir(), "nope.json")}},
		{"unknown input format", options{input: writeFile(t, "last.txt", "{}"), format: "json"}},
		{"malformed input", options{input: writeFile(t, "last.json", "{"), format: "json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			assert.Error(t, run(context.Background(), tt.opts, &out))
		})
	}
}

func TestRun_Input(t *testing.T) {
	var exported bytes.Buffer
	err := run(context.Background(), options{
		serviceability: writeFile(t, "s.json", cliServiceability),
		telemetry:      writeFile(t, "t.json", `{"device_latency_samples":[{"link_pk":"l1","samples":[12]}]}`),
		format:         "yaml",
	}, &exported)
	require.NoError(t, err)
	input := writeFile(t, "last.yaml", exported.String())

	t.Run("export", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, run(context.Background(), options{input: input, format: "json"}, &out))

		var result domain.Result
		require.NoError(t, json.Unmarshal(out.Bytes(), &result))
		require.Len(t, result.Topology, 1)
		assert.Equal(t, "ams-dz1:lon-dz1", result.Topology[0].Code)
		assert.Equal(t, domain.HealthMissingISIS, result.Topology[0].HealthStatus)
		assert.Equal(t, 1, result.Summary.TotalLinks)
	})

	t.Run("health filter", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, run(context.Background(), options{input: input, format: "json", health: "healthy"}, &out))

		var result domain.Result
		require.NoError(t, json.Unmarshal(out.Bytes(), &result))
		assert.Empty(t, result.Topology)
	})

	t.Run("path", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, run(context.Background(), options{
			input:    input,
			path:     "ams-dz1:lon-dz1",
			strategy: string(graph.StrategyHops),
		}, &out))

		var path graph.PathResult
		require.NoError(t, json.Unmarshal(out.Bytes(), &path))
		assert.Equal(t, 1, path.TotalHops)
	})
}

func TestRun_InvalidDocument(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), options{
		serviceability: writeFile(t, "s.json", `{"links": [1, 2]}`),
		format:         "json",
	}, &out)
	require.Error(t, err)
	assert.True(t, codec.IsInputError(err))
}
