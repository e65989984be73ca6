package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, cfg Config) *App {
	t.Helper()
	c, err := NewConfig(cfg)
	require.NoError(t, err)
	return NewApp(context.Background(), io.Discard, c)
}

func TestHealthHandler(t *testing.T) {
	a := newTestApp(t, Config{PoolPaths: []string{"unused"}})
	rec := httptest.NewRecorder()

	a.statusRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK\n", rec.Body.String())
}

func TestPoolsHandler(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "turntables.csv")
	require.NoError(t, os.WriteFile(path, []byte("h\n#name;R1\ntrack;A;0\ntrack;B;270\n#name;R2\ntrack;X;0\n"), 0o600))
	scenarioPath := filepath.Join(dir, "s.hcl")
	require.NoError(t, os.WriteFile(scenarioPath, []byte("event \"admit\" {\n  pool  = \"R1\"\n  track = \"B\"\n  train = \"IC1\"\n}\n"), 0o600))

	a := newTestApp(t, Config{PoolPaths: []string{dir}, ScenarioPath: scenarioPath})
	require.NoError(t, a.Run(context.Background()))

	rec := httptest.NewRecorder()
	a.statusRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pools", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp poolsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, a.RunID(), resp.RunID)
	require.Len(t, resp.Pools, 2)
	assert.Equal(t, "R1", resp.Pools[0].Name)
	assert.Equal(t, path+":2", resp.Pools[0].Source)
	assert.Equal(t, []trackStatus{{ID: "A", Degrees: 0}, {ID: "B", Degrees: 270}}, resp.Pools[0].Tracks)
	require.NotNil(t, resp.Pools[0].Turntable, "R1 saw a transition")
	assert.Equal(t, map[string][]string{"B": {"IC1"}}, resp.Pools[0].Turntable.Queues)
	assert.Nil(t, resp.Pools[1].Turntable, "R2 was never used")
}

func TestPoolHandler(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "turntables.csv"), []byte("h\n#name;R1\ntrack;A;0\n"), 0o600))
	a := newTestApp(t, Config{PoolPaths: []string{dir}})

	rec := httptest.NewRecorder()
	a.statusRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pools/R1", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	require.NoError(t, a.Run(context.Background()))

	rec = httptest.NewRecorder()
	a.statusRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pools/R1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var st poolStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, "R1", st.Name)
	assert.Nil(t, st.Turntable)

	rec = httptest.NewRecorder()
	a.statusRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pools/Nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "turntables.csv"), []byte("h\n#name;R1\ntrack;A;0\ntrack;A;90\n"), 0o600))
	a := newTestApp(t, Config{PoolPaths: []string{dir}})
	require.NoError(t, a.Run(context.Background()))

	rec := httptest.NewRecorder()
	a.statusRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "turntablepool_pools_loaded 1")
	assert.Contains(t, rec.Body.String(), `turntablepool_diagnostics_total{severity="warning"} 1`)
}

func TestPoolsHandler_BeforeLoad(t *testing.T) {
	a := newTestApp(t, Config{PoolPaths: []string{"unused"}})
	rec := httptest.NewRecorder()

	a.statusRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pools", nil))

	assert.JSONEq(t, `{"run_id":"`+a.RunID()+`","pools":[]}`, rec.Body.String())
}
