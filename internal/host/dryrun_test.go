package host

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aleister1102/firefoxversions/internal/datastore"
	"github.com/aleister1102/firefoxversions/internal/snapshot"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverlayMemory(t *testing.T) {
	ctx := context.Background()
	store, err := datastore.NewStore(filepath.Join(t.TempDir(), "host.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	base := store.ForAgent("firefox-versions", time.Minute)
	require.NoError(t, base.Set(ctx, "last_status", `{"A":"1"}`))

	overlay := NewOverlayMemory(base)

	value, ok, err := overlay.Get(ctx, "last_status")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"A":"1"}`, value)

	require.NoError(t, overlay.Set(ctx, "last_status", `{"A":"2"}`))

	value, _, err = overlay.Get(ctx, "last_status")
	require.NoError(t, err)
	assert.Equal(t, `{"A":"2"}`, value)
	assert.Equal(t, map[string]string{"last_status": `{"A":"2"}`}, overlay.Writes())

	stored, _, err := base.Get(ctx, "last_status")
	require.NoError(t, err)
	assert.Equal(t, `{"A":"1"}`, stored)
}

func TestOverlayMemory_NilBase(t *testing.T) {
	overlay := NewOverlayMemory(nil)

	_, ok, err := overlay.Get(context.Background(), "last_status")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, overlay.Writes())
}

func TestCollectingSink(t *testing.T) {
	sink := &CollectingSink{}
	payload := snapshot.Document{"A": "1"}

	require.NoError(t, sink.Emit(context.Background(), payload))
	payload["A"] = "changed"

	events := sink.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "1", events[0]["A"])
}
