package host

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	mu    sync.Mutex
	calls int
	errs  []error
}

func (f *fakeChecker) Check(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

func (f *fakeChecker) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeFailureRecorder struct {
	messages []string
}

func (f *fakeFailureRecorder) Error(_ context.Context, message string) error {
	f.messages = append(f.messages, message)
	return nil
}

type fakeFailureNotifier struct {
	agents []string
	errs   []error
}

func (f *fakeFailureNotifier) NotifyFailure(_ context.Context, agentName string, err error) error {
	f.agents = append(f.agents, agentName)
	f.errs = append(f.errs, err)
	return errors.New("webhook down")
}

func TestRunner_RunOnce(t *testing.T) {
	checkErr := errors.New("failed to fetch firefox versions")
	checker := &fakeChecker{errs: []error{checkErr}}
	recorder := &fakeFailureRecorder{}
	notifier := &fakeFailureNotifier{}

	runner := NewRunner(checker, "firefox-versions", time.Hour, zerolog.Nop()).
		WithFailureRecorder(recorder).
		WithFailureNotifier(notifier)

	err := runner.RunOnce(context.Background())
	assert.ErrorIs(t, err, checkErr)
	assert.Equal(t, []string{checkErr.Error()}, recorder.messages)
	assert.Equal(t, []string{"firefox-versions"}, notifier.agents)

	status := runner.Status()
	assert.Equal(t, 1, status.Runs)
	assert.Equal(t, 1, status.Failures)
	assert.Equal(t, checkErr.Error(), status.LastError)
	assert.Equal(t, "1h0m0s", status.Interval)

	require.NoError(t, runner.RunOnce(context.Background()))
	status = runner.Status()
	assert.Equal(t, 2, status.Runs)
	assert.Equal(t, 1, status.Failures)
	assert.Empty(t, status.LastError)
	assert.Len(t, recorder.messages, 1)
}

func TestRunner_CancellationIsNotRecorded(t *testing.T) {
	checker := &fakeChecker{errs: []error{context.Canceled}}
	recorder := &fakeFailureRecorder{}

	runner := NewRunner(checker, "firefox-versions", 0, zerolog.Nop()).WithFailureRecorder(recorder)

	err := runner.RunOnce(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, recorder.messages)
}

func TestRunner_RunNever(t *testing.T) {
	checker := &fakeChecker{}
	runner := NewRunner(checker, "firefox-versions", 0, zerolog.Nop())
	assert.Equal(t, "never", runner.Status().Interval)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	assert.Eventually(t, func() bool { return checker.Calls() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("runner did not stop")
	}
	assert.Equal(t, 1, checker.Calls())
}

func TestRunner_RunInterval(t *testing.T) {
	checker := &fakeChecker{errs: []error{errors.New("boom")}}
	runner := NewRunner(checker, "firefox-versions", 10*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()

	// The first failure does not stop the loop.
	assert.Eventually(t, func() bool { return checker.Calls() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("runner did not stop")
	}
	assert.GreaterOrEqual(t, runner.Status().Failures, 1)
}

type blockingChecker struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingChecker) Check(ctx context.Context) error {
	close(b.started)
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestRunner_StatusDuringCheck(t *testing.T) {
	checker := &blockingChecker{started: make(chan struct{}), release: make(chan struct{})}
	runner := NewRunner(checker, "firefox-versions", time.Hour, zerolog.Nop())

	done := make(chan error, 1)
	go func() { done <- runner.RunOnce(context.Background()) }()
	<-checker.started

	statusCh := make(chan RunStatus, 1)
	go func() { statusCh <- runner.Status() }()
	select {
	case status := <-statusCh:
		assert.Zero(t, status.Runs)
	case <-time.After(time.Second):
		t.Fatal("Status blocked while a check was running")
	}

	close(checker.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, runner.Status().Runs)
}
