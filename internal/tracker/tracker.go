// Package tracker records sweep executions for observability. It is an
// operational aid, not an audit ledger: history lives in memory, bounded by
// a fixed capacity, and does not survive restarts. The durable audit trail
// is the generated transaction rows themselves.
package tracker

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCapacity is how many finalized executions are retained.
const DefaultCapacity = 100

// Status is the lifecycle state of a tracked execution.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Execution is one tracked run of a job.
type Execution struct {
	ID          uuid.UUID  `json:"id"`
	JobName     string     `json:"job_name"`
	Status      Status     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	// DurationMS is end - start in milliseconds, set when the execution is
	// finalized.
	DurationMS int64  `json:"duration_ms"`
	Result     string `json:"result,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Stats are aggregate figures derived from history at query time. There is
// no separate running aggregate to keep drift-free.
type Stats struct {
	Total         int        `json:"total"`
	Succeeded     int        `json:"succeeded"`
	Failed        int        `json:"failed"`
	AvgDurationMS int64      `json:"avg_duration_ms"`
	LastExecution *Execution `json:"last_execution,omitempty"`
}

// Tracker tracks running executions and retains a bounded history of
// finalized ones. It is an explicitly-owned component: construct one per
// process (or per test) and inject it, there is no package-level instance.
type Tracker struct {
	mu       sync.Mutex
	log      *slog.Logger
	capacity int
	now      func() time.Time

	running map[uuid.UUID]*Execution
	history []Execution // oldest first; evicted from the front
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithCapacity overrides the retained history size.
func WithCapacity(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.capacity = n
		}
	}
}

// WithClock overrides the time source. Tests use this to make durations
// deterministic.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// New creates a new Tracker.
func New(log *slog.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		log:      log,
		capacity: DefaultCapacity,
		now:      time.Now,
		running:  make(map[uuid.UUID]*Execution),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start opens an execution record for the named job and returns its id.
func (t *Tracker) Start(jobName string) uuid.UUID {
	t.mu.Lock()
	defer t.mu.Unlock()

	exec := &Execution{
		ID:        uuid.New(),
		JobName:   jobName,
		Status:    StatusRunning,
		StartedAt: t.now(),
	}
	t.running[exec.ID] = exec
	return exec.ID
}

// Complete finalizes an execution as succeeded with a result summary.
func (t *Tracker) Complete(id uuid.UUID, result string) {
	t.finalize(id, StatusCompleted, result, "")
}

// Fail finalizes an execution as failed.
func (t *Tracker) Fail(id uuid.UUID, err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	t.finalize(id, StatusFailed, "", msg)
}

// finalize computes the duration and moves the execution into history.
// An unknown id is logged and ignored; observability bugs must never crash
// the scheduler.
func (t *Tracker) finalize(id uuid.UUID, status Status, result, errMsg string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	exec, ok := t.running[id]
	if !ok {
		t.log.Warn("finalize for unknown execution", slog.String("execution_id", id.String()), slog.String("status", string(status)))
		return
	}
	delete(t.running, id)

	end := t.now()
	exec.Status = status
	exec.CompletedAt = &end
	exec.DurationMS = end.Sub(exec.StartedAt).Milliseconds()
	exec.Result = result
	exec.Error = errMsg

	t.history = append(t.history, *exec)
	if len(t.history) > t.capacity {
		t.history = t.history[len(t.history)-t.capacity:]
	}
}

// Running returns currently open executions.
func (t *Tracker) Running() []Execution {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Execution, 0, len(t.running))
	for _, exec := range t.running {
		out = append(out, *exec)
	}
	return out
}

// History returns finalized executions, most recent first. jobName filters
// when non-empty; limit caps the result when positive.
func (t *Tracker) History(jobName string, limit int) []Execution {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []Execution
	for i := len(t.history) - 1; i >= 0; i-- {
		if jobName != "" && t.history[i].JobName != jobName {
			continue
		}
		out = append(out, t.history[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// Get returns a finalized or running execution by id.
func (t *Tracker) Get(id uuid.UUID) (Execution, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if exec, ok := t.running[id]; ok {
		return *exec, true
	}
	for i := len(t.history) - 1; i >= 0; i-- {
		if t.history[i].ID == id {
			return t.history[i], true
		}
	}
	return Execution{}, false
}

// Stats derives aggregates from retained history. jobName filters when
// non-empty.
func (t *Tracker) Stats(jobName string) Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	var s Stats
	var totalDurationMS int64
	for i := range t.history {
		exec := &t.history[i]
		if jobName != "" && exec.JobName != jobName {
			continue
		}
		s.Total++
		switch exec.Status {
		case StatusCompleted:
			s.Succeeded++
		case StatusFailed:
			s.Failed++
		}
		totalDurationMS += exec.DurationMS
		last := *exec
		s.LastExecution = &last
	}
	if s.Total > 0 {
		s.AvgDurationMS = totalDurationMS / int64(s.Total)
	}
	return s
}
