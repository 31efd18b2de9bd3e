package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paramind/paramind/internal/aggregator"
	"github.com/paramind/paramind/internal/planner"
	"github.com/paramind/paramind/internal/scheduler"
	"github.com/paramind/paramind/internal/worker"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testWorkers = []string{"llama-3.3-70b-versatile", "llama-3.1-8b-instant"}

// cannedClient answers every call with the same text.
type cannedClient struct {
	reply string
}

func (c *cannedClient) Call(ctx context.Context, w, instruction string, _ ...worker.CallOption) (worker.Response, error) {
	return worker.Response{Text: c.reply, Tokens: 10, Elapsed: 0.1}, nil
}

func newTestServer(client worker.Client) *Server {
	controller := planner.New(client, "llama-3.1-8b-instant", testWorkers, nil)
	executor := scheduler.NewExecutor(scheduler.NewRunner(client), nil, nil)
	agg := aggregator.New(client, "llama-3.1-8b-instant")
	return NewServer(controller, executor, agg, nil)
}

func doRequest(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv := newTestServer(&cannedClient{reply: "ok"})
	rec := doRequest(t, srv.Router(), http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "paramind", body["system"])
}

func TestAnalyze(t *testing.T) {
	client := &cannedClient{
		reply: `{"mode":"A","reasoning":"comparison","plan":{"workers":["llama-3.3-70b-versatile","llama-3.1-8b-instant"]}}`,
	}
	srv := newTestServer(client)

	rec := doRequest(t, srv.Router(), http.MethodPost, "/analyze", gin.H{"prompt": "Compare Go and Rust"})
	require.Equal(t, http.StatusOK, rec.Code)

	var plan planner.Plan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
	assert.Equal(t, planner.ModeFanOut, plan.Mode)
	assert.Equal(t, testWorkers, plan.Workers)
}

func TestAnalyzeMissingPrompt(t *testing.T) {
	srv := newTestServer(&cannedClient{reply: "ok"})
	rec := doRequest(t, srv.Router(), http.MethodPost, "/analyze", gin.H{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type executeResponse struct {
	Results []struct {
		TaskID   int    `json:"task_id"`
		Worker   string `json:"worker"`
		Response string `json:"response"`
		Error    string `json:"error"`
	} `json:"results"`
	CombinedResult string `json:"combined_result"`
	Metrics        struct {
		ParallelTime       float64 `json:"parallel_time"`
		SequentialBaseline float64 `json:"sequential_baseline"`
		Speedup            float64 `json:"speedup"`
	} `json:"metrics"`
}

func TestExecuteFanOut(t *testing.T) {
	client := &cannedClient{
		reply: "A detailed canned answer with more than enough substance to stand on its own.",
	}
	srv := newTestServer(client)

	rec := doRequest(t, srv.Router(), http.MethodPost, "/execute", gin.H{
		"mode":   "A",
		"prompt": "Explain the CAP theorem",
		"plan":   gin.H{"workers": testWorkers},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body executeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Results, 2)
	for _, r := range body.Results {
		assert.Empty(t, r.Error)
		assert.Equal(t, client.reply, r.Response)
	}
	assert.Equal(t, client.reply, body.CombinedResult)
	assert.InDelta(t, 0.2, body.Metrics.SequentialBaseline, 1e-9)
	assert.GreaterOrEqual(t, body.Metrics.Speedup, 0.0)
}

func TestExecuteDecompose(t *testing.T) {
	client := &cannedClient{
		reply: "A detailed canned answer with more than enough substance to stand on its own.",
	}
	srv := newTestServer(client)

	rec := doRequest(t, srv.Router(), http.MethodPost, "/execute", gin.H{
		"mode": "B",
		"plan": gin.H{
			"subtasks": []gin.H{
				{"id": 1, "description": "research the topic", "worker": testWorkers[0], "depends_on": []int{}},
				{"id": 2, "description": "summarize the findings", "worker": testWorkers[1], "depends_on": []int{1}},
			},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body executeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Results, 2)
	// Layer order holds in the wire format too.
	assert.Equal(t, 1, body.Results[0].TaskID)
	assert.Equal(t, 2, body.Results[1].TaskID)
}

func TestExecuteInvalidGraph(t *testing.T) {
	srv := newTestServer(&cannedClient{reply: "unused"})

	rec := doRequest(t, srv.Router(), http.MethodPost, "/execute", gin.H{
		"mode": "B",
		"plan": gin.H{
			"subtasks": []gin.H{
				{"id": 1, "description": "a", "worker": testWorkers[0], "depends_on": []int{2}},
				{"id": 2, "description": "b", "worker": testWorkers[1], "depends_on": []int{1}},
			},
		},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "cycle")
}

func TestExecuteBadRequests(t *testing.T) {
	srv := newTestServer(&cannedClient{reply: "unused"})
	router := srv.Router()

	tests := []struct {
		name string
		body gin.H
	}{
		{name: "missing mode", body: gin.H{"prompt": "x"}},
		{name: "unknown mode", body: gin.H{"mode": "C", "prompt": "x"}},
		{name: "fan-out without prompt", body: gin.H{"mode": "A", "plan": gin.H{"workers": testWorkers}}},
		{name: "fan-out without workers", body: gin.H{"mode": "A", "prompt": "x"}},
		{name: "decompose without subtasks", body: gin.H{"mode": "B"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, "/execute", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
