package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Load(ctx, KeyFlows)
	assert.ErrorIs(t, err, ErrNotFound)

	doc := []byte(`[{"id":"f1","name":"login"}]`)
	require.NoError(t, store.Store(ctx, KeyFlows, doc))

	got, err := store.Load(ctx, KeyFlows)
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestFileStoreOverwriteIsWholesale(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Store(ctx, KeySettings, []byte(`{"a":"1","b":"2"}`)))
	require.NoError(t, store.Store(ctx, KeySettings, []byte(`{"a":"1"}`)))

	got, err := store.Load(ctx, KeySettings)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"1"}`, string(got))
}

func TestFileStoreWatchSeesExternalWrites(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := store.Watch(ctx)
	require.NoError(t, err)

	// A second process sharing the directory writes a document.
	other, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, other.Store(context.Background(), KeyReports, []byte(`[]`)))

	select {
	case ev := <-events:
		assert.Equal(t, KeyReports, ev.Key)
	case <-time.After(3 * time.Second):
		t.Fatal("no watch event for an external write")
	}
}

func TestFileStoreWatchSuppressesOwnWrites(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := store.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Store(context.Background(), KeyFlows, []byte(`[]`)))

	select {
	case ev := <-events:
		t.Fatalf("own write surfaced as an external event: %+v", ev)
	case <-time.After(500 * time.Millisecond):
	}
}
