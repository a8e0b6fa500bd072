package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/nodrystarts/site-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorePutOpenDelete(t *testing.T) {
	t.Parallel()

	store, err := NewLocalStore(t.TempDir(), "https://api.example.com/")
	require.NoError(t, err)
	ctx := context.Background()

	obj, err := store.Put(ctx, "documents/investor/deck.pdf", strings.NewReader("%PDF-1.7"), 8, "")
	require.NoError(t, err)
	assert.Equal(t, int64(8), obj.Size)
	assert.Equal(t, "application/pdf", obj.ContentType)

	rc, err := store.Open(ctx, "documents/investor/deck.pdf")
	require.NoError(t, err)
	raw, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(raw))

	u, err := store.URL(ctx, "documents/investor/deck.pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/media/documents/investor/deck.pdf", u)

	require.NoError(t, store.Delete(ctx, "documents/investor/deck.pdf"))
	_, err = store.Open(ctx, "documents/investor/deck.pdf")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.NoError(t, store.Delete(ctx, "documents/investor/deck.pdf"), "delete is idempotent")
}

func TestLocalStoreRejectsTraversalAndShortWrites(t *testing.T) {
	t.Parallel()

	store, err := NewLocalStore(t.TempDir(), "")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Put(ctx, "", strings.NewReader("x"), 1, "")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = store.Put(ctx, "../../etc/passwd", strings.NewReader("x"), 1, "")
	require.NoError(t, err, "cleaned keys stay under root")
	rc, err := store.Open(ctx, "etc/passwd")
	require.NoError(t, err)
	_ = rc.Close()

	_, err = store.Put(ctx, "short.bin", strings.NewReader("abc"), 10, "")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}
