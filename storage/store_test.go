// ABOUTME: Tests for the badger-backed file store
// ABOUTME: Runs against an in-memory store
package storage

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("", "http://localhost:8080/", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPutGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	obj, err := s.Put(ctx, "../../notes/deck.pdf", "application/pdf", []byte("%PDF-1.7"))
	require.NoError(t, err)

	_, err = ulid.Parse(obj.Key)
	assert.NoError(t, err, "keys are ULIDs")
	assert.Equal(t, "deck.pdf", obj.Name)
	assert.Equal(t, "http://localhost:8080/files/"+obj.Key, obj.URL)

	got, data, err := s.Get(ctx, obj.Key)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7"), data)
	assert.Equal(t, "application/pdf", got.ContentType)
	assert.Equal(t, 8, got.Size)
}

func TestPutDefaultsAndErrors(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	obj, err := s.Put(ctx, "blob", "", []byte{1})
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", obj.ContentType)

	_, err = s.Put(ctx, "empty", "text/plain", nil)
	assert.ErrorIs(t, err, ErrEmpty)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = s.Put(cancelled, "late", "text/plain", []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDeleteAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.Put(ctx, "a.png", "image/png", []byte("a"))
	require.NoError(t, err)
	second, err := s.Put(ctx, "b.png", "image/png", []byte("b"))
	require.NoError(t, err)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.Key, list[0].Key, "ULID keys sort by creation")

	require.NoError(t, s.Delete(ctx, first.Key))
	_, _, err = s.Get(ctx, first.Key)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, first.Key), ErrNotFound)

	list, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, second.Key, list[0].Key)
}
