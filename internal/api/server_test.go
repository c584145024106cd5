package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/barter-world/internal/engine"
	"github.com/talgya/barter-world/internal/scenario"
	"github.com/talgya/barter-world/internal/telemetry"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	sc := scenario.Default()
	sc.Seed = 11
	sc.Grid = scenario.GridSpec{Width: 12, Height: 12}
	sc.Agents.Count = 6

	rec := telemetry.NewMemory()
	sim, err := engine.New(sc, rec)
	require.NoError(t, err)
	return &Server{Sim: sim, Recorder: rec, AdminKey: "sekrit"}
}

func TestStatusEndpoint(t *testing.T) {
	s := testServer(t)
	w := httptest.NewRecorder()
	s.handleStatus(w, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "default", body["scenario"])
	assert.Equal(t, float64(0), body["tick"])
}

func TestAgentEndpoints(t *testing.T) {
	s := testServer(t)

	w := httptest.NewRecorder()
	s.handleAgents(w, httptest.NewRequest(http.MethodGet, "/api/v1/agents", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list []agentSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 6)
	assert.GreaterOrEqual(t, list[0].Ask, list[0].Bid)

	w = httptest.NewRecorder()
	s.handleAgentDetail(w, httptest.NewRequest(http.MethodGet, "/api/v1/agent/1", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	s.handleAgentDetail(w, httptest.NewRequest(http.MethodGet, "/api/v1/agent/999", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	s.handleAgentDetail(w, httptest.NewRequest(http.MethodGet, "/api/v1/agent/abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStepRequiresBearerToken(t *testing.T) {
	s := testServer(t)
	h := s.adminOnly(s.handleStep)

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/api/v1/step", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodPost, "/api/v1/step", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/step", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	h(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/step", nil)
	req.Header.Set("Authorization", "Bearer sekrit")
	h(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint64(1), s.Sim.CurrentTick())
}

func TestStepDisabledWithoutKey(t *testing.T) {
	s := testServer(t)
	s.AdminKey = ""
	h := s.adminOnly(s.handleStep)

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodPost, "/api/v1/step", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRunValidatesBody(t *testing.T) {
	s := testServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/run", strings.NewReader("{}"))
	s.handleRun(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
