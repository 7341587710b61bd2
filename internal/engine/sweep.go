// Package engine contains the rule sweep orchestrator and the occurrence
// generator. One sweep is one full pass over the currently-due rules; the
// rule claim in durable storage is the only synchronization primitive, so
// overlapping sweeps (scheduled plus manual, or two deployed instances)
// stay safe without in-process locks.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"finsweep/internal/logger"
	"finsweep/internal/store"
	"finsweep/internal/tracker"
)

// JobName is how sweep executions are labeled in the tracker.
const JobName = "recurring-sweep"

// Store is the storage surface the sweep needs.
type Store interface {
	store.RuleStore
	store.TransactionStore
}

// SweepResult aggregates one sweep pass.
type SweepResult struct {
	// ExecutionID identifies the tracked execution for this pass. It is
	// also the run token stamped into rule claims.
	ExecutionID uuid.UUID `json:"execution_id"`

	// Processed counts rules that generated at least one occurrence.
	Processed int `json:"processed"`
	// Skipped counts rules another run claimed first or that stopped being
	// due between selection and claim.
	Skipped int `json:"skipped"`
	// Failed counts rules whose processing errored. One bad rule never
	// aborts the sweep for the others.
	Failed int `json:"failed"`
	// Generated counts occurrences written, which exceeds Processed when
	// overdue rules catch up on several periods.
	Generated int `json:"generated"`

	Errors []RuleError `json:"errors,omitempty"`
}

// RuleError is a per-rule failure surfaced in the sweep result.
type RuleError struct {
	RuleID  uuid.UUID `json:"rule_id"`
	Message string    `json:"message"`
}

// Summary renders the result for execution records and logs.
func (r SweepResult) Summary() string {
	return fmt.Sprintf("processed=%d skipped=%d failed=%d generated=%d",
		r.Processed, r.Skipped, r.Failed, r.Generated)
}

// Sweeper iterates due rules and drives claim, generation, and state
// advancement for each.
type Sweeper struct {
	store   Store
	tracker *tracker.Tracker
	log     *slog.Logger

	concurrency int
	maxCatchUp  int
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithConcurrency bounds the per-rule worker pool.
func WithConcurrency(n int) Option {
	return func(s *Sweeper) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithMaxCatchUp bounds how many overdue occurrences one rule may generate
// in a single sweep.
func WithMaxCatchUp(n int) Option {
	return func(s *Sweeper) {
		if n > 0 {
			s.maxCatchUp = n
		}
	}
}

// New creates a new Sweeper. The tracker is injected, never a package
// singleton, so tests can substitute a fresh one per test.
func New(st Store, tr *tracker.Tracker, log *slog.Logger, opts ...Option) *Sweeper {
	s := &Sweeper{
		store:       st,
		tracker:     tr,
		log:         log,
		concurrency: 4,
		maxCatchUp:  24,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunSweep performs one full pass over all rules due at now.
//
// The tracker execution id doubles as the run token written into rule
// claims, which makes a stuck claim traceable back to the run that took it.
// Rules are processed independently on a bounded pool; a per-rule failure
// is recorded and isolated, while failure to query the due set at all fails
// the whole execution.
func (s *Sweeper) RunSweep(ctx context.Context, now time.Time) (SweepResult, error) {
	execID := s.tracker.Start(JobName)
	runToken := execID
	result := SweepResult{ExecutionID: execID}

	// Stamp the execution id into the context so every log line written
	// anywhere inside this sweep correlates back to the execution record.
	ctx = logger.WithExecutionID(ctx, execID.String())
	log := logger.FromContext(ctx, s.log)
	log.Info("sweep started", slog.Time("now", now))

	rules, err := s.store.ListDueRules(ctx, now)
	if err != nil {
		err = fmt.Errorf("%w: listing due rules: %v", ErrStorage, err)
		s.tracker.Fail(execID, err)
		log.Error("sweep aborted", slog.String("err", err.Error()))
		return result, err
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, s.concurrency)
	)

	tracer := otel.Tracer("finsweep-engine")

	for _, rule := range rules {
		sem <- struct{}{}
		wg.Add(1)
		go func(rule *store.RecurringRule) {
			defer wg.Done()
			defer func() { <-sem }()

			spanCtx, span := tracer.Start(ctx, "process_rule",
				trace.WithAttributes(
					attribute.String("rule.id", rule.ID.String()),
					attribute.String("rule.frequency", string(rule.Frequency)),
					attribute.String("execution.id", execID.String()),
				),
			)
			defer span.End()

			generated, err := s.processRule(spanCtx, rule, runToken, now)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				span.RecordError(err)
				result.Failed++
				result.Generated += generated
				result.Errors = append(result.Errors, RuleError{RuleID: rule.ID, Message: err.Error()})
				log.Warn("rule processing failed",
					slog.String("rule_id", rule.ID.String()),
					slog.String("err", err.Error()))
			case generated == 0:
				result.Skipped++
			default:
				result.Processed++
				result.Generated += generated
			}
			span.SetAttributes(attribute.Int("rule.generated", generated))
		}(rule)
	}

	wg.Wait()

	s.tracker.Complete(execID, result.Summary())
	log.Info("sweep finished", slog.String("result", result.Summary()))
	return result, nil
}
