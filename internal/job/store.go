// Package job owns the optimization job lifecycle: the in-memory
// job table and the background runner that drives the simulation engine.
package job

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quantsweep/quantsweep/internal/core"
	"github.com/quantsweep/quantsweep/internal/perf"
	"github.com/quantsweep/quantsweep/internal/sim"
)

// Status represents the job lifecycle state. Terminal states are never
// revisited.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Result pairs one combination's parameters with its performance metrics.
type Result struct {
	Params  sim.Params   `json:"params"`
	Metrics perf.Metrics `json:"metrics"`
}

// Job is one optimization run. It is created at submission, mutated only
// by the runner's execution goroutine, and read through store snapshots.
type Job struct {
	ID                string     `json:"id"`
	Status            Status     `json:"status"`
	Progress          float64    `json:"progress"` // 0..1
	TotalCombinations int        `json:"total_combinations"`
	Message           string     `json:"message,omitempty"`
	ETASeconds        float64    `json:"eta_seconds,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
	EndedAt           *time.Time `json:"ended_at,omitempty"`
	Results           []Result   `json:"results,omitempty"`
}

// Store manages jobs keyed by id. Reads may happen concurrently with the
// single writer mutating a job; all access goes through the store's lock
// and Get returns snapshots, never live pointers.
type Store struct {
	mu      sync.RWMutex
	jobs    map[string]*Job
	order   []string // insertion order for eviction
	maxSize int
	ttl     time.Duration
}

// NewStore creates a job store holding at most maxSize jobs; terminal
// jobs older than ttl are pruned on the next submission.
func NewStore(maxSize int, ttl time.Duration) *Store {
	return &Store{
		jobs:    make(map[string]*Job),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
	}
}

// Create registers a new queued job and returns its snapshot.
func (s *Store) Create() Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked()

	job := &Job{
		ID:        uuid.NewString(),
		Status:    StatusQueued,
		CreatedAt: time.Now(),
	}

	// evict oldest if at capacity
	if len(s.jobs) >= s.maxSize && len(s.order) > 0 {
		oldest := s.order[0]
		delete(s.jobs, oldest)
		s.order = s.order[1:]
	}

	s.jobs[job.ID] = job
	s.order = append(s.order, job.ID)
	return *job
}

// Get retrieves a snapshot of a job by id.
func (s *Store) Get(id string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return Job{}, core.ErrJobNotFound
	}
	return *job, nil
}

// Results returns a completed job's results. A job that exists but has
// not completed reports "not ready", which is distinct from failure.
func (s *Store) Results(id string) ([]Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, core.ErrJobNotFound
	}
	if job.Status != StatusCompleted {
		return nil, core.ErrJobNotReady
	}
	return job.Results, nil
}

// Update modifies a job under the store's write lock. Terminal jobs are
// left untouched.
func (s *Store) Update(id string, fn func(*Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return core.ErrJobNotFound
	}
	if job.Status.Terminal() {
		return nil
	}
	fn(job)
	return nil
}

// List returns snapshots of all jobs in insertion order.
func (s *Store) List() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Job, 0, len(s.jobs))
	for _, id := range s.order {
		result = append(result, *s.jobs[id])
	}
	return result
}

func (s *Store) pruneLocked() {
	if s.ttl <= 0 {
		return
	}
	cutoff := time.Now().Add(-s.ttl)
	kept := s.order[:0]
	for _, id := range s.order {
		job := s.jobs[id]
		if job.Status.Terminal() && job.EndedAt != nil && job.EndedAt.Before(cutoff) {
			delete(s.jobs, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
}
