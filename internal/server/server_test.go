package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"made/internal/engine"
	"made/internal/linguistic"
	"made/internal/snapshot"
	"made/internal/store"
	"made/internal/types"
)

var serverStart = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

type stubSpeaker struct {
	mu   sync.Mutex
	resp linguistic.Response
	reqs []linguistic.Request
}

func (s *stubSpeaker) Generate(_ context.Context, req linguistic.Request) linguistic.Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, req)
	return s.resp
}

func (s *stubSpeaker) requests() []linguistic.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]linguistic.Request(nil), s.reqs...)
}

// failPingStore wraps a working store with a failing health probe.
type failPingStore struct {
	store.Store
	pingErr error
}

func (s *failPingStore) Ping(context.Context) error { return s.pingErr }

// steppingClock advances a fixed amount on every read so consecutive writes
// get distinct timestamps.
func steppingClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(step)
		return current
	}
}

func newTestServer(t *testing.T, cfg engine.Config) (*Server, *store.MemStore, *stubSpeaker) {
	t.Helper()

	mem := store.NewMemStore()
	speak := &stubSpeaker{resp: linguistic.Response{Text: "All systems nominal.", Model: "gemini-1.5-flash"}}

	if cfg.Store == nil {
		cfg.Store = mem
	}
	if cfg.Speaker == nil {
		cfg.Speaker = speak
	}
	if cfg.MonitorTick == 0 {
		cfg.MonitorTick = time.Millisecond
	}
	eng := engine.New(cfg)
	t.Cleanup(eng.StopAllMonitors)

	srv := New(Config{
		Engine:         eng,
		Addr:           "127.0.0.1:0",
		AllowedOrigins: []string{"http://localhost:3000"},
		Database:       "bigfive",
	})
	return srv, mem, speak
}

func doJSON(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func parseBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

func asObject(t *testing.T, v any) map[string]any {
	t.Helper()
	obj, ok := v.(map[string]any)
	require.True(t, ok, "expected JSON object, got %T", v)
	return obj
}

func asArray(t *testing.T, v any) []any {
	t.Helper()
	arr, ok := v.([]any)
	require.True(t, ok, "expected JSON array, got %T", v)
	return arr
}

func asFloat(t *testing.T, v any) float64 {
	t.Helper()
	f, ok := v.(float64)
	require.True(t, ok, "expected number, got %T", v)
	return f
}

// scoresPayload builds a save request whose normalized vector projects to
// exactly 1.4787: 1 + 0.188 + 0.2061 + 0.085 + 0.038 - 0.0384.
func scoresPayload(reportID string) map[string]any {
	return map[string]any{
		"report_id": reportID,
		"timestamp": "2025-06-01T08:00:00Z",
		"ocean_scores": map[string]any{
			"openness":          96,
			"conscientiousness": 108,
			"extraversion":      60,
			"agreeableness":     60,
			"neuroticism":       24,
		},
		"ocean_normalized": map[string]any{
			"openness":          0.80,
			"conscientiousness": 0.90,
			"extraversion":      0.5,
			"agreeableness":     0.5,
			"neuroticism":       0.20,
		},
	}
}

func TestRootEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t, engine.Config{})

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := parseBody(t, rec)
	assert.Equal(t, "running", body["status"])
	assert.NotEmpty(t, body["message"])

	endpoints := asObject(t, body["endpoints"])
	assert.Contains(t, endpoints, "POST /api/save-ocean-scores")
	assert.Contains(t, endpoints, "POST /api/start-monitor/{report_id}")
}

func TestHealthEndpoint(t *testing.T) {
	t.Run("healthy store", func(t *testing.T) {
		srv, _, _ := newTestServer(t, engine.Config{})

		rec := doJSON(t, srv.Handler(), http.MethodGet, "/health", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		body := parseBody(t, rec)
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "connected", body["mongodb"])
		assert.Equal(t, "bigfive", body["database"])
		assert.Equal(t, "ocean_scores", body["collection"])
	})

	t.Run("unreachable store stays 200", func(t *testing.T) {
		failing := &failPingStore{Store: store.NewMemStore(), pingErr: errors.New("connection refused")}
		srv, _, _ := newTestServer(t, engine.Config{Store: failing})

		rec := doJSON(t, srv.Handler(), http.MethodGet, "/health", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		body := parseBody(t, rec)
		assert.Equal(t, "unhealthy", body["status"])
		assert.Equal(t, "disconnected", body["mongodb"])
		assert.Equal(t, "connection refused", body["error"])
		assert.NotContains(t, body, "database")
	})
}

func TestSaveOceanScores(t *testing.T) {
	t.Run("projects and persists", func(t *testing.T) {
		srv, mem, speak := newTestServer(t, engine.Config{})

		rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/save-ocean-scores", scoresPayload("npc-001"))
		require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

		body := parseBody(t, rec)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "OCEAN scores saved successfully", body["message"])

		data := asObject(t, body["data"])
		assert.Equal(t, "npc-001", data["report_id"])
		assert.Equal(t, 1.4787, data["p_factor"])
		assert.NotEmpty(t, data["store_id"])

		reqs := speak.requests()
		require.Len(t, reqs, 1)
		assert.Equal(t, engine.InitialMemory, reqs[0].Memory)

		stored, err := mem.GetByReport(context.Background(), "npc-001")
		require.NoError(t, err)
		assert.Equal(t, "All systems nominal.", stored.LastUtterance)
		assert.False(t, stored.CreatedAt.IsZero())
	})

	t.Run("defaults absent dimensions", func(t *testing.T) {
		srv, _, _ := newTestServer(t, engine.Config{})

		payload := scoresPayload("npc-002")
		payload["ocean_normalized"] = map[string]any{
			"openness":          0.80,
			"conscientiousness": 0.90,
			"neuroticism":       0.20,
		}
		rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/save-ocean-scores", payload)
		require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

		// Defaulted E and A contribute the same 0.085 and 0.038 as the
		// fully-specified payload.
		data := asObject(t, parseBody(t, rec)["data"])
		assert.Equal(t, 1.4787, data["p_factor"])
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		srv, _, _ := newTestServer(t, engine.Config{})

		payload := scoresPayload("npc-003")
		delete(payload, "report_id")
		rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/save-ocean-scores", payload)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		body := parseBody(t, rec)
		assert.Equal(t, false, body["success"])
		assert.Contains(t, body["error"], "report_id is required")
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		srv, _, _ := newTestServer(t, engine.Config{})

		req := httptest.NewRequest(http.MethodPost, "/api/save-ocean-scores", strings.NewReader("{not json"))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, parseBody(t, rec)["error"], "invalid request body")
	})
}

func TestSimulateMemory(t *testing.T) {
	srv, _, _ := newTestServer(t, engine.Config{})
	h := srv.Handler()

	t.Run("fast phase after one day", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/api/simulate-memory?p_factor=1.0&days=1", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		body := parseBody(t, rec)
		inputs := asObject(t, body["inputs"])
		assert.Equal(t, 1.0, inputs["p_factor"])
		assert.Equal(t, 1.0, inputs["days_passed"])
		assert.Equal(t, 2.8, inputs["memory_strength"])

		results := asObject(t, body["results"])
		msg := asArray(t, results["retention_msg"])
		require.Len(t, msg, 2)
		assert.Equal(t, 0.5065, asFloat(t, msg[0]))
		assert.Equal(t, "Phase 1 (Fast)", msg[1])

		score := asFloat(t, results["confidence_score"])
		assert.GreaterOrEqual(t, score, 0.3565-1e-4)
		assert.LessOrEqual(t, score, 0.6565+1e-4)
		assert.NotEmpty(t, results["confidence_label"])
	})

	t.Run("deep slow phase floors", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/api/simulate-memory?p_factor=1.0&days=6", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		results := asObject(t, parseBody(t, rec)["results"])
		msg := asArray(t, results["retention_msg"])
		require.Len(t, msg, 2)
		assert.Equal(t, 0.30, asFloat(t, msg[0]))
		assert.Equal(t, "Phase 2 (Slow)", msg[1])
	})

	t.Run("echoes explicit strength", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/api/simulate-memory?p_factor=1.0&days=1&strength=3.5", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		inputs := asObject(t, parseBody(t, rec)["inputs"])
		assert.Equal(t, 3.5, inputs["memory_strength"])
	})

	t.Run("requires days", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/api/simulate-memory?p_factor=1.0", nil)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, parseBody(t, rec)["error"], "days is required")
	})

	t.Run("rejects non-numeric input", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/api/simulate-memory?p_factor=high&days=1", nil)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, parseBody(t, rec)["error"], "p_factor must be a number")
	})
}

func TestRecordRoutes(t *testing.T) {
	srv, _, _ := newTestServer(t, engine.Config{Now: steppingClock(serverStart, time.Second)})
	h := srv.Handler()

	for _, id := range []string{"npc-001", "npc-002"} {
		rec := doJSON(t, h, http.MethodPost, "/api/save-ocean-scores", scoresPayload(id))
		require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	}

	t.Run("get by report", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/api/get-ocean-scores/npc-001", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		data := asObject(t, parseBody(t, rec)["data"])
		assert.Equal(t, "npc-001", data["report_id"])
		assert.Equal(t, 1.4787, data["p_factor"])
		assert.Equal(t, "All systems nominal.", data["last_utterance"])
		assert.NotEmpty(t, data["store_id"])
	})

	t.Run("get unknown report", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/api/get-ocean-scores/ghost", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)

		body := parseBody(t, rec)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Report not found", body["error"])
	})

	t.Run("all records newest first", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/api/all-ocean-scores", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		body := parseBody(t, rec)
		assert.EqualValues(t, 2, body["count"])

		data := asArray(t, body["data"])
		require.Len(t, data, 2)
		assert.Equal(t, "npc-002", asObject(t, data[0])["report_id"])
		assert.Equal(t, "npc-001", asObject(t, data[1])["report_id"])
	})

	t.Run("delete removes the record", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodDelete, "/api/delete-ocean-scores/npc-001", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Report npc-001 deleted successfully", parseBody(t, rec)["message"])

		rec = doJSON(t, h, http.MethodDelete, "/api/delete-ocean-scores/npc-001", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Report not found", parseBody(t, rec)["error"])

		rec = doJSON(t, h, http.MethodGet, "/api/all-ocean-scores", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.EqualValues(t, 1, parseBody(t, rec)["count"])
	})
}

func TestTaskRoutes(t *testing.T) {
	srv, _, _ := newTestServer(t, engine.Config{Now: steppingClock(serverStart, time.Second)})
	h := srv.Handler()

	taskPayload := func(name string) map[string]any {
		return map[string]any{
			"report_id":      "npc-001",
			"task_name":      name,
			"importance":     0.8,
			"required_time":  2.0,
			"available_time": 5.0,
		}
	}

	t.Run("save and list newest first", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/api/save-task", taskPayload("Scan the perimeter"))
		require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

		body := parseBody(t, rec)
		assert.Equal(t, "Task saved successfully", body["message"])
		assert.NotEmpty(t, body["task_id"])

		rec = doJSON(t, h, http.MethodPost, "/api/save-task", taskPayload("Recalibrate the antenna"))
		require.Equal(t, http.StatusOK, rec.Code)

		rec = doJSON(t, h, http.MethodGet, "/api/get-tasks/npc-001", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		tasks := asArray(t, parseBody(t, rec)["tasks"])
		require.Len(t, tasks, 2)
		assert.Equal(t, "Recalibrate the antenna", asObject(t, tasks[0])["task_name"])
		assert.Equal(t, "Scan the perimeter", asObject(t, tasks[1])["task_name"])
	})

	t.Run("unknown agent has empty task list", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/api/get-tasks/ghost", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, asArray(t, parseBody(t, rec)["tasks"]))
	})

	t.Run("rejects out-of-range importance", func(t *testing.T) {
		payload := taskPayload("Overweighted")
		payload["importance"] = 1.5
		rec := doJSON(t, h, http.MethodPost, "/api/save-task", payload)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, parseBody(t, rec)["error"], "importance must be at most 1")
	})

	t.Run("rejects zero required time", func(t *testing.T) {
		payload := taskPayload("Instant")
		payload["required_time"] = 0
		rec := doJSON(t, h, http.MethodPost, "/api/save-task", payload)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, parseBody(t, rec)["error"], "required_time must be greater than 0")
	})

	t.Run("rejects missing task name", func(t *testing.T) {
		payload := taskPayload("")
		rec := doJSON(t, h, http.MethodPost, "/api/save-task", payload)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, parseBody(t, rec)["error"], "task_name is required")
	})
}

func TestGenerateNPCResponse(t *testing.T) {
	// One game-day after creation at the default scale.
	now := serverStart.Add(60 * time.Second)
	srv, mem, speak := newTestServer(t, engine.Config{Now: func() time.Time { return now }})
	h := srv.Handler()

	_, err := mem.Put(context.Background(), types.CognitiveRecord{
		ReportID:  "npc-001",
		Timestamp: "2025-06-01T08:00:00Z",
		CreatedAt: serverStart,
		PFactor:   1.0,
	})
	require.NoError(t, err)

	t.Run("regenerates from current retention", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/api/generate-npc-response/npc-001?base_memory=Storage+bay+inventory", nil)
		require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

		body := parseBody(t, rec)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "All systems nominal.", body["response"])

		meta := asObject(t, body["metadata"])
		assert.Equal(t, 0.5065, asFloat(t, meta["retention"]))
		assert.Equal(t, "Phase 1 (Fast)", meta["phase"])
		assert.NotEmpty(t, meta["confidence_band"])

		score := asFloat(t, meta["confidence_score"])
		assert.GreaterOrEqual(t, score, 0.3565-1e-4)
		assert.LessOrEqual(t, score, 0.6565+1e-4)

		reqs := speak.requests()
		require.Len(t, reqs, 1)
		assert.Equal(t, "Storage bay inventory", reqs[0].Memory)
		assert.Equal(t, 0.5065, reqs[0].Retention)

		stored, err := mem.GetByReport(context.Background(), "npc-001")
		require.NoError(t, err)
		assert.Equal(t, "All systems nominal.", stored.LastUtterance)
		assert.Equal(t, 0.5065, stored.LastUtteranceRetention)
		assert.True(t, stored.LastUtteranceAt.Equal(now))
	})

	t.Run("defaults the base memory", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/api/generate-npc-response/npc-001", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		reqs := speak.requests()
		require.Len(t, reqs, 2)
		assert.Equal(t, engine.DefaultBaseMemory, reqs[1].Memory)
	})

	t.Run("unknown report", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/api/generate-npc-response/ghost", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Report not found", parseBody(t, rec)["error"])
	})
}

func TestMonitorRoutes(t *testing.T) {
	// Frozen clock: the session keeps evaluating day zero and never halts.
	srv, mem, _ := newTestServer(t, engine.Config{Now: func() time.Time { return serverStart }})
	h := srv.Handler()

	_, err := mem.Put(context.Background(), types.CognitiveRecord{
		ReportID:  "npc-001",
		CreatedAt: serverStart,
		PFactor:   1.2,
	})
	require.NoError(t, err)

	rec := doJSON(t, h, http.MethodPost, "/api/start-monitor/npc-001", nil)
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	assert.Equal(t, "Monitor started for npc-001", parseBody(t, rec)["message"])

	rec = doJSON(t, h, http.MethodPost, "/api/start-monitor/npc-001", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, parseBody(t, rec)["error"], "already active")

	require.Eventually(t, func() bool {
		req := httptest.NewRequest(http.MethodGet, "/api/monitor-status/npc-001", nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			return false
		}
		var body struct {
			Active bool `json:"active"`
			State  struct {
				ReportID  string  `json:"report_id"`
				Retention float64 `json:"retention"`
				Status    string  `json:"status"`
			} `json:"state"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			return false
		}
		return body.Active && body.State.ReportID == "npc-001" &&
			body.State.Retention == 1.2 && body.State.Status == "CLEAR"
	}, 2*time.Second, 5*time.Millisecond, "session never reported an observed state")

	rec = doJSON(t, h, http.MethodGet, "/api/monitor-status/ghost", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := parseBody(t, rec)
	assert.Equal(t, false, body["active"])
	assert.NotContains(t, body, "state")

	rec = doJSON(t, h, http.MethodPost, "/api/start-monitor/ghost", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Report not found", parseBody(t, rec)["error"])

	rec = doJSON(t, h, http.MethodPost, "/api/stop-monitor/npc-001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Monitor stopped for npc-001", parseBody(t, rec)["message"])

	rec = doJSON(t, h, http.MethodPost, "/api/stop-monitor/npc-001", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, parseBody(t, rec)["error"], "no active monitor session")
}

func TestSnapshotHistoryRoute(t *testing.T) {
	t.Run("replays archived events", func(t *testing.T) {
		archive, err := snapshot.NewArchive(":memory:", nil)
		require.NoError(t, err)
		t.Cleanup(func() { archive.Close() })

		srv, _, _ := newTestServer(t, engine.Config{Archive: archive})
		ctx := context.Background()

		require.NoError(t, archive.Append(ctx, snapshot.Snapshot{
			ReportID:        "npc-001",
			Event:           snapshot.EventDay,
			Day:             1,
			Retention:       0.4558,
			ConfidenceScore: 0.41,
			ConfidenceBand:  "Low Confidence",
			Phase:           "Phase 1 (Fast)",
			Utterance:       "Scanning the perimeter fence.",
			RecordedAt:      serverStart.Add(60 * time.Second),
		}))
		require.NoError(t, archive.Append(ctx, snapshot.Snapshot{
			ReportID:        "npc-001",
			Event:           snapshot.EventHalt,
			Day:             2,
			Retention:       0.30,
			ConfidenceScore: 0.22,
			ConfidenceBand:  "Confused",
			Phase:           "Phase 2 (Slow)",
			RecordedAt:      serverStart.Add(144 * time.Second),
		}))

		rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/snapshot-history/npc-001", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		body := parseBody(t, rec)
		assert.EqualValues(t, 2, body["count"])

		history := asArray(t, body["history"])
		require.Len(t, history, 2)

		first := asObject(t, history[0])
		assert.Equal(t, "day", first["event"])
		assert.EqualValues(t, 1, first["day"])
		assert.Equal(t, 0.4558, asFloat(t, first["retention"]))
		assert.Equal(t, "Scanning the perimeter fence.", first["utterance"])

		last := asObject(t, history[1])
		assert.Equal(t, "halt", last["event"])
		assert.Equal(t, 0.30, asFloat(t, last["retention"]))
		assert.Empty(t, last["utterance"])
	})

	t.Run("no archive configured", func(t *testing.T) {
		srv, _, _ := newTestServer(t, engine.Config{})

		rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/snapshot-history/npc-001", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		body := parseBody(t, rec)
		assert.EqualValues(t, 0, body["count"])
		assert.Empty(t, asArray(t, body["history"]))
	})
}

func TestCORSPreflight(t *testing.T) {
	srv, _, _ := newTestServer(t, engine.Config{})
	h := srv.Handler()

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/save-ocean-scores", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unlisted origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/save-ocean-scores", nil)
		req.Header.Set("Origin", "http://evil.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}
