package storage

import (
	"testing"

	"grid-harness/core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleStorePutGet(t *testing.T) {
	store := NewHandleStore("http://127.0.0.1:7070")

	h := store.Put(models.HandleFrame, "payload")
	assert.NotEmpty(t, h.ID)
	assert.Equal(t, models.HandleFrame, h.Kind)
	assert.Equal(t, "http://127.0.0.1:7070", h.NodeAddr)
	assert.Equal(t, 1, store.Len())

	value, err := store.Get(h.ID)
	require.NoError(t, err)
	assert.Equal(t, "payload", value)
}

func TestHandleStoreGetUnknown(t *testing.T) {
	store := NewHandleStore("http://127.0.0.1:7070")

	_, err := store.Get("no-such-handle")
	assert.ErrorIs(t, err, ErrUnknownHandle)
}

func TestHandleStoreDelete(t *testing.T) {
	store := NewHandleStore("http://127.0.0.1:7070")
	h := store.Put(models.HandleModel, 42)

	require.NoError(t, store.Delete(h.ID))
	assert.Equal(t, 0, store.Len())

	// destroying the same handle twice reports it as already gone
	err := store.Delete(h.ID)
	assert.ErrorIs(t, err, ErrUnknownHandle)
}

func TestHandleStoreMintsDistinctIDs(t *testing.T) {
	store := NewHandleStore("http://127.0.0.1:7070")

	a := store.Put(models.HandleFrame, 1)
	b := store.Put(models.HandleFrame, 2)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, store.Len())
}
