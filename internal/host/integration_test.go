package host

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aleister1102/firefoxversions/internal/agent"
	"github.com/aleister1102/firefoxversions/internal/datastore"
	"github.com/aleister1102/firefoxversions/internal/httpclient"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// upstreamFetcher sends every request to a local test server.
type upstreamFetcher struct {
	client *httpclient.HTTPClient
	url    string
}

func (f *upstreamFetcher) Get(ctx context.Context, _ string) (*httpclient.Response, error) {
	return f.client.Get(ctx, f.url)
}

func versionsBody(latest string) string {
	return `{"FIREFOX_ESR":"102.2.0esr","FIREFOX_NIGHTLY":"106.0a1","LAST_RELEASE_DATE":"2022-08-23","LATEST_FIREFOX_VERSION":"` + latest + `"}`
}

func TestHost_EndToEnd(t *testing.T) {
	var latest atomic.Value
	latest.Store("104.0")
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(versionsBody(latest.Load().(string))))
	}))
	defer upstream.Close()

	client, err := httpclient.NewHTTPClientBuilder(zerolog.Nop()).Build()
	require.NoError(t, err)

	store, err := datastore.NewStore(filepath.Join(t.TempDir(), "host.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	agentStore := store.ForAgent("firefox-versions", 2*time.Minute)

	options, err := agent.ParseOptions(agent.DefaultOptions())
	require.NoError(t, err)

	a, err := agent.NewAgentBuilder(zerolog.Nop()).
		WithOptions(options).
		WithFetcher(&upstreamFetcher{client: client, url: upstream.URL}).
		WithMemory(agentStore).
		WithEventSink(NewEventPipeline(agentStore, zerolog.Nop())).
		Build()
	require.NoError(t, err)

	runner := NewRunner(a, "firefox-versions", 0, zerolog.Nop()).WithFailureRecorder(agentStore)
	ctx := context.Background()

	require.NoError(t, runner.RunOnce(ctx))
	require.NoError(t, runner.RunOnce(ctx))

	events, err := agentStore.Events(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1, "unchanged upstream must not create a second event")

	latest.Store("105.0")
	require.NoError(t, runner.RunOnce(ctx))

	events, err = agentStore.Events(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "105.0", events[0].Payload["LATEST_FIREFOX_VERSION"])

	server := NewServer("firefox-versions", func(ctx context.Context) bool { return a.Working(ctx, agentStore) }, agentStore, runner, time.Second, zerolog.Nop())
	rec, body := doRequest(t, server, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["working"])

	_, body = doRequest(t, server, "/api/v1/events/latest")
	assert.Equal(t, events[0].ID, body["id"])
}

func TestHost_DryRunLeavesStoreUntouched(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(versionsBody("104.0")))
	}))
	defer upstream.Close()

	client, err := httpclient.NewHTTPClientBuilder(zerolog.Nop()).Build()
	require.NoError(t, err)

	store, err := datastore.NewStore(filepath.Join(t.TempDir(), "host.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	agentStore := store.ForAgent("firefox-versions", 2*time.Minute)

	options, err := agent.ParseOptions(agent.DefaultOptions())
	require.NoError(t, err)

	memory := NewOverlayMemory(agentStore)
	sink := &CollectingSink{}
	a, err := agent.NewAgentBuilder(zerolog.Nop()).
		WithOptions(options).
		WithFetcher(&upstreamFetcher{client: client, url: upstream.URL}).
		WithMemory(memory).
		WithEventSink(sink).
		Build()
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, a.Check(ctx))

	require.Len(t, sink.Events(), 1)
	assert.Contains(t, memory.Writes(), agent.MemoryKeyLastStatus)

	_, ok, err := agentStore.Get(ctx, agent.MemoryKeyLastStatus)
	require.NoError(t, err)
	assert.False(t, ok)

	events, err := agentStore.Events(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}
