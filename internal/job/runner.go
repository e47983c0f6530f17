package job

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/quantsweep/quantsweep/internal/archive"
	"github.com/quantsweep/quantsweep/internal/candle"
	"github.com/quantsweep/quantsweep/internal/core"
	"github.com/quantsweep/quantsweep/internal/grid"
	"github.com/quantsweep/quantsweep/internal/metrics"
	"github.com/quantsweep/quantsweep/internal/perf"
	"github.com/quantsweep/quantsweep/internal/sim"
	"github.com/quantsweep/quantsweep/internal/strategy"
)

// Request is one optimization job submission: the candle series plus the
// parameter ranges to sweep.
type Request struct {
	Candles        []core.Candle `json:"candles"`
	Strategy       string        `json:"strategy,omitempty"`
	Ranges         []grid.Range  `json:"ranges"`
	ExecPrice      string        `json:"exec_price,omitempty"`
	InitialCapital float64       `json:"initial_capital"`
}

// RunnerConfig wires the runner's collaborators. Logger, Metrics and
// Archive are optional.
type RunnerConfig struct {
	Store    *Store
	Registry *strategy.Registry
	Backend  sim.Backend
	Logger   *zap.Logger
	Metrics  *metrics.Registry
	Archive  archive.Storage
}

// Runner executes optimization jobs in the background: submission
// returns immediately with a queued job id, and exactly one goroutine
// per job drives the simulation engine to a terminal status. A running
// job is never interrupted.
type Runner struct {
	store   *Store
	reg     *strategy.Registry
	backend sim.Backend
	logger  *zap.Logger
	metrics *metrics.Registry
	arch    archive.Storage
}

// NewRunner creates a runner.
func NewRunner(cfg RunnerConfig) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		store:   cfg.Store,
		reg:     cfg.Registry,
		backend: cfg.Backend,
		logger:  logger,
		metrics: cfg.Metrics,
		arch:    cfg.Archive,
	}
}

// Submit queues a job and starts its execution goroutine. Input problems
// do not surface here; they fail the job itself.
func (r *Runner) Submit(req Request) string {
	job := r.store.Create()
	r.logger.Info("job submitted",
		zap.String("job_id", job.ID),
		zap.Int("candles", len(req.Candles)),
		zap.Int("ranges", len(req.Ranges)),
	)
	go r.run(job.ID, req)
	return job.ID
}

func (r *Runner) run(id string, req Request) {
	started := time.Now()
	r.store.Update(id, func(j *Job) {
		j.Status = StatusRunning
		j.StartedAt = &started
	})
	if r.metrics != nil {
		r.metrics.JobStarted()
	}

	fail := func(msg string) {
		r.logger.Warn("job failed", zap.String("job_id", id), zap.String("reason", msg))
		r.finish(id, StatusFailed, msg, nil, started)
	}

	if len(req.Candles) == 0 {
		fail("empty candle series")
		return
	}
	if err := candle.Validate(req.Candles); err != nil {
		fail(err.Error())
		return
	}

	params, err := r.buildParams(req)
	if err != nil {
		fail(err.Error())
		return
	}
	if len(params) == 0 {
		fail("no valid parameter combinations")
		return
	}

	r.store.Update(id, func(j *Job) { j.TotalCombinations = len(params) })

	engine := sim.NewEngine(r.backend, r.logger)
	res, err := engine.Run(context.Background(), req.Candles, params, sim.Options{
		InitialCapital: req.InitialCapital,
		OnProgress: func(processed, total int) {
			progress := float64(processed) / float64(total)
			eta := 0.0
			if progress > 0 && progress < 1 {
				elapsed := time.Since(started).Seconds()
				eta = elapsed / progress * (1 - progress)
			}
			r.store.Update(id, func(j *Job) {
				j.Progress = progress
				j.ETASeconds = eta
			})
		},
	})
	if err != nil {
		fail(err.Error())
		return
	}

	results := make([]Result, len(res.Combinations))
	for i, c := range res.Combinations {
		results[i] = Result{Params: c.Params, Metrics: perf.Summarize(c, req.InitialCapital)}
	}

	if r.metrics != nil {
		r.metrics.AddCombinations(len(res.Combinations))
		r.metrics.AddBars(len(req.Candles))
	}
	r.finish(id, StatusCompleted, "", results, started)

	r.logger.Info("job completed",
		zap.String("job_id", id),
		zap.Int("combinations", len(results)),
		zap.Duration("elapsed", time.Since(started)),
	)
}

func (r *Runner) buildParams(req Request) ([]sim.Params, error) {
	name := req.Strategy
	if name == "" {
		name = "ema_crossover"
	}
	def, ok := r.reg.Get(name)
	if !ok {
		return nil, core.WrapError(core.ErrStrategyNotFound, fmt.Errorf("strategy %q", name))
	}

	execPrice, err := core.ParseExecPrice(req.ExecPrice)
	if err != nil {
		return nil, err
	}

	combos := grid.Expand(req.Ranges)
	params := make([]sim.Params, 0, len(combos))
	for i, values := range combos {
		p, err := def.Build(values)
		if err != nil {
			// partial failure: skip the combination, keep the batch
			r.logger.Warn("skipping combination",
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}
		p.ExecPrice = execPrice
		params = append(params, p)
	}
	return params, nil
}

func (r *Runner) finish(id string, status Status, msg string, results []Result, started time.Time) {
	ended := time.Now()
	r.store.Update(id, func(j *Job) {
		j.Status = status
		j.Message = msg
		j.EndedAt = &ended
		j.ETASeconds = 0
		if status == StatusCompleted {
			j.Progress = 1
			j.Results = results
		}
	})
	if r.metrics != nil {
		r.metrics.JobFinished(string(status), ended.Sub(started).Seconds())
	}

	if r.arch != nil && status == StatusCompleted {
		if job, err := r.store.Get(id); err == nil {
			if err := archive.SaveJob(context.Background(), r.arch, id, job); err != nil {
				r.logger.Warn("archiving job results failed",
					zap.String("job_id", id),
					zap.Error(err),
				)
			}
		}
	}
}
