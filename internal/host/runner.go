package host

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Checker is a single scheduled unit of work, such as Agent.Check.
type Checker interface {
	Check(ctx context.Context) error
}

// FailureRecorder persists check failures for the working predicate.
type FailureRecorder interface {
	Error(ctx context.Context, message string) error
}

// FailureNotifier announces check failures.
type FailureNotifier interface {
	NotifyFailure(ctx context.Context, agentName string, err error) error
}

// RunStatus describes the runner's most recent check.
type RunStatus struct {
	Runs      int       `json:"runs"`
	Failures  int       `json:"failures"`
	LastRunAt time.Time `json:"last_run_at,omitempty"`
	LastError string    `json:"last_error,omitempty"`
	Interval  string    `json:"interval"`
}

// Runner invokes a Checker on a fixed interval, one check at a time.
type Runner struct {
	checker   Checker
	agentName string
	interval  time.Duration
	failures  FailureRecorder
	notifier  FailureNotifier
	logger    zerolog.Logger
	now       func() time.Time

	// checkMu serializes checks; mu only guards status.
	checkMu sync.Mutex
	mu      sync.Mutex
	status  RunStatus
}

// NewRunner creates a runner. A zero interval means the checker only runs
// when RunOnce is called or once at the start of Run.
func NewRunner(checker Checker, agentName string, interval time.Duration, logger zerolog.Logger) *Runner {
	intervalText := "never"
	if interval > 0 {
		intervalText = interval.String()
	}
	return &Runner{
		checker:   checker,
		agentName: agentName,
		interval:  interval,
		logger:    logger.With().Str("component", "Runner").Str("agent", agentName).Logger(),
		now:       time.Now,
		status:    RunStatus{Interval: intervalText},
	}
}

// WithFailureRecorder sets where check failures are recorded
func (r *Runner) WithFailureRecorder(recorder FailureRecorder) *Runner {
	r.failures = recorder
	return r
}

// WithFailureNotifier sets who is told about check failures
func (r *Runner) WithFailureNotifier(notifier FailureNotifier) *Runner {
	r.notifier = notifier
	return r
}

// Status returns a copy of the current run status.
func (r *Runner) Status() RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// RunOnce performs a single check and records its outcome.
func (r *Runner) RunOnce(ctx context.Context) error {
	r.checkMu.Lock()
	defer r.checkMu.Unlock()

	start := r.now()
	err := r.checker.Check(ctx)
	r.recordRun(start, err)

	if err == nil {
		r.logger.Debug().Dur("duration", r.now().Sub(start)).Msg("Check completed")
		return nil
	}
	if errors.Is(err, context.Canceled) {
		r.logger.Info().Msg("Check interrupted by cancellation")
		return err
	}

	r.logger.Error().Err(err).Msg("Check failed")
	if r.failures != nil {
		if recErr := r.failures.Error(ctx, err.Error()); recErr != nil {
			r.logger.Warn().Err(recErr).Msg("Failed to record check failure")
		}
	}
	if r.notifier != nil {
		if notifyErr := r.notifier.NotifyFailure(ctx, r.agentName, err); notifyErr != nil {
			r.logger.Warn().Err(notifyErr).Msg("Failed to send failure notification")
		}
	}
	return err
}

func (r *Runner) recordRun(start time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.status.Runs++
	r.status.LastRunAt = start
	r.status.LastError = ""
	if err != nil {
		r.status.Failures++
		r.status.LastError = err.Error()
	}
}

// Run checks immediately and then on every interval until ctx is done.
// Check failures are recorded, not returned.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info().Str("interval", r.Status().Interval).Msg("Runner started")
	_ = r.RunOnce(ctx)

	if r.interval <= 0 {
		<-ctx.Done()
		r.logger.Info().Msg("Runner stopped")
		return nil
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("Runner stopped")
			return nil
		case <-ticker.C:
			_ = r.RunOnce(ctx)
		}
	}
}
