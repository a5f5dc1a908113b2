package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/grephite/pkg/errors"
	"github.com/matzehuels/grephite/pkg/graph"
	"github.com/matzehuels/grephite/pkg/observability"
	"github.com/matzehuels/grephite/pkg/observability/prom"
	"github.com/matzehuels/grephite/pkg/script"
	"github.com/matzehuels/grephite/pkg/sim"
)

func weight(w float64) *float64 { return &w }

// fixture serves a 1-2-3 chain (weights 1 and 2) with physics off. Node
// handles equal labels because the edge list introduces them in order.
type fixture struct {
	t     *testing.T
	world *sim.World
	srv   *httptest.Server
	dir   string
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	g, err := graph.Build([]graph.Triple{
		{From: 1, To: 2, Weight: weight(1)},
		{From: 2, To: 3, Weight: weight(2)},
	}, graph.RandomPlacement(1))
	require.NoError(t, err)

	wopts := sim.DefaultOptions()
	wopts.Layout.Enabled = false
	w := sim.New(g, wopts)

	dir := t.TempDir()
	if opts.Library == nil {
		opts.Library = script.NewLibrary(dir, nil)
	}
	ts := httptest.NewServer(New(w, opts).Handler())
	t.Cleanup(ts.Close)
	return &fixture{t: t, world: w, srv: ts, dir: dir}
}

func (f *fixture) do(method, path, body string) (*http.Response, map[string]any) {
	f.t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, strings.NewReader(body))
	require.NoError(f.t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(f.t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusAccepted {
		require.NoError(f.t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func (f *fixture) tick() sim.TickReport {
	return f.world.Tick(context.Background(), 0)
}

func TestFrame(t *testing.T) {
	f := newFixture(t, Options{})
	resp, body := f.do(http.MethodGet, "/api/frame", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Len(t, body["nodes"], 3)
	assert.Len(t, body["edges"], 2)
	assert.Equal(t, false, body["has_path"])
	assert.Equal(t, "idle", body["script_state"])
}

func TestPathRequest(t *testing.T) {
	f := newFixture(t, Options{})

	resp, _ := f.do(http.MethodGet, "/api/path", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = f.do(http.MethodPost, "/api/path", `{"source": 1}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	require.True(t, f.tick().PathComputed)

	resp, body := f.do(http.MethodGet, "/api/path", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3.0, body["max_distance"])
	dist := body["distances"].(map[string]any)
	assert.Equal(t, 0.0, dist["1"])
	assert.Equal(t, 1.0, dist["2"])
	assert.Equal(t, 3.0, dist["3"])

	resp, body = f.do(http.MethodPost, "/api/path", `{"source": 99}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NODE_NOT_FOUND", body["error"])

	resp, body = f.do(http.MethodPost, "/api/path", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_INPUT", body["error"])

	resp, _ = f.do(http.MethodDelete, "/api/path", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_, _, ok := f.world.Distances()
	assert.False(t, ok)
}

func TestLayoutParams(t *testing.T) {
	f := newFixture(t, Options{})

	resp, body := f.do(http.MethodPut, "/api/layout", `{"gravity": 1.5, "repulsion": 100}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1.5, body["gravity"])
	assert.Equal(t, 1.5, f.world.LayoutParams().Gravity)
	assert.Equal(t, 0.1, f.world.LayoutParams().WeightExponent, "unspecified fields keep their value")

	resp, body = f.do(http.MethodPut, "/api/layout", `{"gravity": -1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["message"], "Gravity")
	assert.Equal(t, 1.5, f.world.LayoutParams().Gravity)

	resp, _ = f.do(http.MethodPut, "/api/layout", `{"bogus": 1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = f.do(http.MethodPost, "/api/layout/physics", `{"enabled": true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["enabled"])
	assert.False(t, f.tick().Layout.Skipped)
}

func TestScriptLifecycle(t *testing.T) {
	f := newFixture(t, Options{})
	src := `
for _, id in ipairs(graph:nodes()) do
	set_color(id, "#0000ff")
	coroutine.yield()
end
`
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "blue.lua"), []byte(src), 0o644))

	resp, body := f.do(http.MethodGet, "/api/scripts", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{"blue.lua"}, body["scripts"])

	resp, _ = f.do(http.MethodPost, "/api/scripts/step", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = f.do(http.MethodPost, "/api/scripts/load", `{"name": "blue.lua"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "loaded", body["state"])

	resp, _ = f.do(http.MethodPost, "/api/scripts/step", "")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	rep := f.tick()
	assert.True(t, rep.Stepped)
	assert.Equal(t, 1, rep.Applied)

	_, body = f.do(http.MethodGet, "/api/frame", "")
	first := body["nodes"].([]any)[0].(map[string]any)
	assert.Equal(t, "#0000ff", first["color"])

	resp, body = f.do(http.MethodPut, "/api/scripts/speed", `{"speed": 20}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 20.0, body["speed"])

	resp, _ = f.do(http.MethodPut, "/api/scripts/speed", `{"speed": 0}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, body = f.do(http.MethodPost, "/api/scripts/toggle", "")
	assert.Equal(t, true, body["running"])

	resp, body = f.do(http.MethodGet, "/api/scripts/session", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "running", body["state"])

	resp, _ = f.do(http.MethodPost, "/api/scripts/stop", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = f.do(http.MethodGet, "/api/scripts/session", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestScriptLoadErrors(t *testing.T) {
	f := newFixture(t, Options{})

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"traversal", `{"name": "../etc.lua"}`, http.StatusBadRequest, "INVALID_SCRIPT_NAME"},
		{"missing file", `{"name": "gone.lua"}`, http.StatusNotFound, "FILE_NOT_FOUND"},
		{"compile error", `{"name": "x.lua", "source": "for i = 1, do end"}`, http.StatusUnprocessableEntity, "SCRIPT_COMPILE"},
		{"no name", `{"source": "return"}`, http.StatusBadRequest, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := f.do(http.MethodPost, "/api/scripts/load", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, body["error"])
		})
	}
}

func TestNodeColorAndEdits(t *testing.T) {
	f := newFixture(t, Options{})

	resp, _ := f.do(http.MethodPut, "/api/nodes/2/color", `{"color": "#ff0000"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, 1, f.tick().Applied)

	resp, body := f.do(http.MethodPut, "/api/nodes/2/color", `{"color": "red"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_COLOR", body["error"])

	resp, _ = f.do(http.MethodPut, "/api/nodes/42/color", `{"color": "#fff"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = f.do(http.MethodDelete, "/api/nodes/2/color", "")
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, 1, f.tick().Applied)

	resp, body = f.do(http.MethodPost, "/api/nodes", `{"x": 10, "y": -5}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := body["id"].(float64)

	resp, body = f.do(http.MethodPost, "/api/edges", `{"from": 1, "to": 4, "weight": 2}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 4.0, id)
	eid := body["id"].(float64)

	resp, _ = f.do(http.MethodPost, "/api/edges", `{"from": 1, "to": 99}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = f.do(http.MethodPost, "/api/edges", `{"from": 1, "to": 2, "weight": -1}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = f.do(http.MethodDelete, "/api/edges/"+jsonNumber(eid), "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = f.do(http.MethodDelete, "/api/edges/"+jsonNumber(eid), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = f.do(http.MethodDelete, "/api/nodes/3", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = f.do(http.MethodDelete, "/api/nodes/abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, body = f.do(http.MethodGet, "/api/frame", "")
	assert.Len(t, body["nodes"], 3)
	assert.Len(t, body["edges"], 1)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	prom.New(reg).Register()
	t.Cleanup(observability.Reset)

	f := newFixture(t, Options{Gatherer: reg})
	f.do(http.MethodPost, "/api/path", `{"source": 1}`)
	f.tick()

	resp, err := http.Get(f.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sb strings.Builder
	_, err = io.Copy(&sb, resp.Body)
	require.NoError(t, err)
	assert.Contains(t, sb.String(), "grephite_path_searches_total")
}

func TestRunStopsOnCancel(t *testing.T) {
	g := graph.New()
	g.AddNode(graph.Vec2{})
	s := New(sim.New(g, sim.DefaultOptions()), Options{TickRate: 200})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()

	require.Eventually(t, func() bool { return s.world.Ticks() > 2 }, 5*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestTickLogsScriptFault(t *testing.T) {
	f := newFixture(t, Options{})
	var logs bytes.Buffer
	s := New(f.world, Options{Logger: log.NewWithOptions(&logs, log.Options{})})

	require.NoError(t, f.world.LoadScript(context.Background(), "boom.lua", `error("boom")`))
	f.world.RequestStep()
	rep := s.tick(context.Background(), 0)
	require.Error(t, rep.ScriptErr)
	assert.True(t, errors.IsScriptFault(rep.ScriptErr))
	assert.Contains(t, logs.String(), "script failed")
	assert.Contains(t, logs.String(), "WARN")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unknown node", graph.ErrUnknownNode, http.StatusNotFound},
		{"bad weight", graph.ErrInvalidWeight, http.StatusBadRequest},
		{"compile", errors.New(errors.ErrCodeScriptCompile, "x"), http.StatusUnprocessableEntity},
		{"runtime", errors.New(errors.ErrCodeScriptRuntime, "x"), http.StatusUnprocessableEntity},
		{"timeout", errors.New(errors.ErrCodeScriptTimeout, "x"), http.StatusUnprocessableEntity},
		{"no script", errors.New(errors.ErrCodeNoScriptActive, "x"), http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func jsonNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
