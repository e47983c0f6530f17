package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/quantsweep/quantsweep/internal/api/response"
	"github.com/quantsweep/quantsweep/internal/candle"
	"github.com/quantsweep/quantsweep/internal/core"
	"github.com/quantsweep/quantsweep/internal/job"
	"github.com/quantsweep/quantsweep/internal/perf"
	"github.com/quantsweep/quantsweep/internal/sim"
	"github.com/quantsweep/quantsweep/internal/strategy"
)

const backtestTimeout = 5 * time.Minute

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleSubmitJob accepts a sweep request and returns the queued job id.
// Input validation happens inside the job so submission never blocks on
// the size of the sweep.
func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	var req job.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrInvalidParams, err))
		return
	}
	if req.InitialCapital == 0 {
		req.InitialCapital = s.deps.InitialCapital
	}

	id := s.deps.Runner.Submit(req)
	response.JSON(w, http.StatusAccepted, map[string]any{
		"job_id": id,
		"status": job.StatusQueued,
	})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.deps.Store.List()
	// status listing stays light: strip result payloads
	for i := range jobs {
		jobs[i].Results = nil
	}
	response.JSON(w, http.StatusOK, jobs)
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	j, err := s.deps.Store.Get(r.PathValue("id"))
	if err != nil {
		response.Error(w, http.StatusNotFound, err)
		return
	}
	j.Results = nil
	response.JSON(w, http.StatusOK, j)
}

// handleJobResults serves a completed job's ranked results. An unknown id
// is 404; a job that exists but has not completed is 409 so pollers can
// tell the two apart.
func (s *Server) handleJobResults(w http.ResponseWriter, r *http.Request) {
	results, err := s.deps.Store.Results(r.PathValue("id"))
	if err != nil {
		status := http.StatusNotFound
		if errors.Is(err, core.ErrJobNotReady) {
			status = http.StatusConflict
		}
		response.Error(w, status, err)
		return
	}
	response.JSON(w, http.StatusOK, results)
}

// BacktestRequest is the request body for a synchronous single backtest.
type BacktestRequest struct {
	Candles        []core.Candle      `json:"candles"`
	Strategy       string             `json:"strategy,omitempty"`
	Params         map[string]float64 `json:"params,omitempty"`
	ExecPrice      string             `json:"exec_price,omitempty"`
	InitialCapital float64            `json:"initial_capital"`
}

// BacktestResponse is the synchronous backtest result: summary metrics
// plus the full trade and equity trace.
type BacktestResponse struct {
	Params  sim.Params   `json:"params"`
	Metrics perf.Metrics `json:"metrics"`
	Detail  *sim.Detail  `json:"detail"`
}

// handleBacktest runs one combination to completion in the request and
// returns the detailed trace.
func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	var req BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrInvalidParams, err))
		return
	}

	if len(req.Candles) == 0 {
		response.Error(w, http.StatusBadRequest, core.ErrNoData)
		return
	}
	if err := candle.Validate(req.Candles); err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	name := req.Strategy
	if name == "" {
		name = "ema_crossover"
	}
	def, ok := s.deps.Registry.Get(name)
	if !ok {
		response.Error(w, http.StatusBadRequest, core.ErrStrategyNotFound)
		return
	}

	params, err := def.Build(req.Params)
	if err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrInvalidParams, err))
		return
	}
	if params.ExecPrice, err = core.ParseExecPrice(req.ExecPrice); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrInvalidParams, err))
		return
	}

	capital := req.InitialCapital
	if capital == 0 {
		capital = s.deps.InitialCapital
	}

	ctx, cancel := context.WithTimeout(r.Context(), backtestTimeout)
	defer cancel()

	engine := sim.NewEngine(s.deps.Backend, s.logger)
	res, err := engine.Run(ctx, req.Candles, []sim.Params{params}, sim.Options{
		InitialCapital:  capital,
		Detail:          true,
		MaxDetailTrades: s.deps.MaxDetailTrades,
	})
	if err != nil {
		response.Error(w, http.StatusInternalServerError, err)
		return
	}

	s.logger.Info("backtest served",
		zap.String("strategy", name),
		zap.Int("candles", len(req.Candles)),
		zap.Int("trades", res.Combinations[0].TotalTrades),
	)

	response.JSON(w, http.StatusOK, BacktestResponse{
		Params:  res.Combinations[0].Params,
		Metrics: perf.Summarize(res.Combinations[0], capital),
		Detail:  res.Detail,
	})
}

// StrategyView is the listing entry for one registered strategy.
type StrategyView struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Params      []strategy.ParamSpec `json:"params"`
}

func (s *Server) handleStrategies(w http.ResponseWriter, r *http.Request) {
	defs := s.deps.Registry.All()
	views := make([]StrategyView, len(defs))
	for i, d := range defs {
		views[i] = StrategyView{
			Name:        d.Name(),
			Description: d.Description(),
			Params:      d.Params(),
		}
	}
	response.JSON(w, http.StatusOK, views)
}
