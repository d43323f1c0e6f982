package host

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/aleister1102/firefoxversions/internal/datastore"
	"github.com/aleister1102/firefoxversions/internal/snapshot"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecorder struct {
	err      error
	recorded []snapshot.Document
}

func (f *fakeRecorder) Record(_ context.Context, payload snapshot.Document) (datastore.Event, error) {
	if f.err != nil {
		return datastore.Event{}, f.err
	}
	f.recorded = append(f.recorded, payload)
	return datastore.Event{
		ID:        "event-1",
		Agent:     "firefox-versions",
		Payload:   payload,
		CreatedAt: time.Date(2022, 8, 23, 10, 0, 0, 0, time.UTC),
	}, nil
}

type fakeSubscriber struct {
	name  string
	err   error
	calls *[]string
}

func (f *fakeSubscriber) Publish(_ context.Context, event datastore.Event) error {
	*f.calls = append(*f.calls, f.name+":"+event.ID)
	return f.err
}

func TestEventPipeline_Emit(t *testing.T) {
	var calls []string
	recorder := &fakeRecorder{}
	pipeline := NewEventPipeline(recorder, zerolog.Nop()).
		Subscribe("archive", &fakeSubscriber{name: "archive", err: errors.New("disk full"), calls: &calls}).
		Subscribe("notifier", &fakeSubscriber{name: "notifier", calls: &calls})

	payload := snapshot.Document{snapshot.KeyLatestFirefoxVersion: "104.0"}
	require.NoError(t, pipeline.Emit(context.Background(), payload))

	assert.Equal(t, []snapshot.Document{payload}, recorder.recorded)
	// A failing subscriber does not stop the next one.
	assert.Equal(t, []string{"archive:event-1", "notifier:event-1"}, calls)
}

func TestEventPipeline_RecordFailure(t *testing.T) {
	var calls []string
	recorder := &fakeRecorder{err: errors.New("database is locked")}
	pipeline := NewEventPipeline(recorder, zerolog.Nop()).
		Subscribe("notifier", &fakeSubscriber{name: "notifier", calls: &calls})

	err := pipeline.Emit(context.Background(), snapshot.Document{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to record event")
	assert.Empty(t, calls)
}

func TestEventPipeline_StoreAndArchive(t *testing.T) {
	dir := t.TempDir()
	store, err := datastore.NewStore(filepath.Join(dir, "host.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	archive, err := datastore.NewEventArchive(filepath.Join(dir, "archive"), "zstd", zerolog.Nop())
	require.NoError(t, err)

	agentStore := store.ForAgent("firefox-versions", 2*time.Minute)
	pipeline := NewEventPipeline(agentStore, zerolog.Nop()).Subscribe("archive", archive)

	payload := snapshot.Document{
		snapshot.KeyLatestFirefoxVersion: "104.0",
		snapshot.KeyFirefoxESR:           "102.2.0esr",
	}
	require.NoError(t, pipeline.Emit(context.Background(), payload))

	latest, ok, err := agentStore.LatestEvent(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, payload, latest.Payload)

	archived, err := archive.Load(context.Background(), "firefox-versions")
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, latest.ID, archived[0].ID)
	assert.Equal(t, "104.0", archived[0].LatestFirefoxVersion)
}
