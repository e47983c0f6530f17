package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantsweep/quantsweep/internal/core"
	"github.com/quantsweep/quantsweep/internal/job"
	"github.com/quantsweep/quantsweep/internal/metrics"
	"github.com/quantsweep/quantsweep/internal/sim"
	"github.com/quantsweep/quantsweep/internal/strategy"
	"github.com/quantsweep/quantsweep/internal/strategy/emacross"
)

func newTestServer(t *testing.T, apiKey string) *Server {
	t.Helper()

	reg := strategy.NewRegistry()
	reg.Register(emacross.New(nil))

	backend := sim.NewPool(2)
	t.Cleanup(backend.Close)

	store := job.NewStore(10, time.Hour)
	runner := job.NewRunner(job.RunnerConfig{
		Store:    store,
		Registry: reg,
		Backend:  backend,
	})

	return NewServer(
		Config{Host: "127.0.0.1", Port: 0, APIKey: apiKey, MetricsPath: "/metrics"},
		Deps{
			Store:           store,
			Runner:          runner,
			Registry:        reg,
			Backend:         backend,
			Metrics:         metrics.NewRegistry(),
			InitialCapital:  10000,
			MaxDetailTrades: 100,
		},
	)
}

func testCandles(n int) []core.Candle {
	candles := make([]core.Candle, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range candles {
		px := 100 + float64(i)
		candles[i] = core.Candle{
			Time:  base.Add(time.Duration(i) * time.Minute),
			Open:  px,
			High:  px + 1,
			Low:   px - 1,
			Close: px,
		}
	}
	return candles
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func dataField(t *testing.T, w *httptest.ResponseRecorder) json.RawMessage {
	t.Helper()

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "")

	w := doJSON(t, s, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHealth_SkipsAuth(t *testing.T) {
	s := newTestServer(t, "secret")

	w := doJSON(t, s, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_ProtectsAPIRoutes(t *testing.T) {
	s := newTestServer(t, "secret")

	w := doJSON(t, s, http.MethodGet, "/api/strategies", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStrategies_Listing(t *testing.T) {
	s := newTestServer(t, "")

	w := doJSON(t, s, http.MethodGet, "/api/strategies", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var views []StrategyView
	require.NoError(t, json.Unmarshal(dataField(t, w), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "ema_crossover", views[0].Name)
	assert.Len(t, views[0].Params, 4)
}

func TestSubmitJob_Lifecycle(t *testing.T) {
	s := newTestServer(t, "")

	w := doJSON(t, s, http.MethodPost, "/api/jobs", job.Request{
		Candles: testCandles(60),
		Ranges:  nil, // defaults: single combination
	})
	require.Equal(t, http.StatusAccepted, w.Code)

	var accepted struct {
		JobID  string `json:"job_id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(dataField(t, w), &accepted))
	require.NotEmpty(t, accepted.JobID)
	assert.Equal(t, "queued", accepted.Status)

	// poll status until terminal
	var got job.Job
	require.Eventually(t, func() bool {
		sw := doJSON(t, s, http.MethodGet, "/api/jobs/"+accepted.JobID, nil)
		if sw.Code != http.StatusOK {
			return false
		}
		require.NoError(t, json.Unmarshal(dataField(t, sw), &got))
		return got.Status.Terminal()
	}, 5*time.Second, 10*time.Millisecond)
	require.Equal(t, job.StatusCompleted, got.Status)
	assert.Empty(t, got.Results) // status endpoint strips payloads

	rw := doJSON(t, s, http.MethodGet, "/api/jobs/"+accepted.JobID+"/results", nil)
	require.Equal(t, http.StatusOK, rw.Code)

	var results []job.Result
	require.NoError(t, json.Unmarshal(dataField(t, rw), &results))
	require.Len(t, results, 1)
}

func TestJobStatus_NotFound(t *testing.T) {
	s := newTestServer(t, "")

	w := doJSON(t, s, http.MethodGet, "/api/jobs/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestJobResults_NotFoundVsNotReady(t *testing.T) {
	s := newTestServer(t, "")

	w := doJSON(t, s, http.MethodGet, "/api/jobs/nope/results", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// a queued job exists but has no results yet
	id := s.deps.Store.Create().ID
	w = doJSON(t, s, http.MethodGet, "/api/jobs/"+id+"/results", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestListJobs(t *testing.T) {
	s := newTestServer(t, "")

	s.deps.Store.Create()
	s.deps.Store.Create()

	w := doJSON(t, s, http.MethodGet, "/api/jobs", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var jobs []job.Job
	require.NoError(t, json.Unmarshal(dataField(t, w), &jobs))
	assert.Len(t, jobs, 2)
}

func TestBacktest_Synchronous(t *testing.T) {
	s := newTestServer(t, "")

	w := doJSON(t, s, http.MethodPost, "/api/backtest", BacktestRequest{
		Candles: testCandles(60),
		Params:  map[string]float64{"fast_period": 3, "slow_period": 10},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp BacktestResponse
	require.NoError(t, json.Unmarshal(dataField(t, w), &resp))
	assert.Equal(t, 3, resp.Params.FastPeriod)
	require.NotNil(t, resp.Detail)
	assert.Len(t, resp.Detail.Times, 60)
	assert.Len(t, resp.Detail.Equity, 60)
}

func TestBacktest_BadInput(t *testing.T) {
	s := newTestServer(t, "")

	// no candles
	w := doJSON(t, s, http.MethodPost, "/api/backtest", BacktestRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// unknown strategy
	w = doJSON(t, s, http.MethodPost, "/api/backtest", BacktestRequest{
		Candles:  testCandles(10),
		Strategy: "momentum",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// out-of-bounds parameter
	w = doJSON(t, s, http.MethodPost, "/api/backtest", BacktestRequest{
		Candles: testCandles(10),
		Params:  map[string]float64{"fast_period": 9999},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, "secret") // metrics must not require the key

	w := doJSON(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
