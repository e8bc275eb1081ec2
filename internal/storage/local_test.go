package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalBackendRoundTrip(t *testing.T) {
	b, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	info, err := b.Write(ctx, "photos/a.jpg", strings.NewReader("jpeg-bytes"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, int64(10), info.Size)

	exists, err := b.Exists(ctx, "photos/a.jpg")
	require.NoError(t, err)
	assert.True(t, exists)

	r, info, err := b.Reader(ctx, "photos/a.jpg")
	require.NoError(t, err)
	defer r.Close()
	content, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(content))
	assert.Equal(t, "image/jpeg", info.ContentType)

	require.NoError(t, b.Delete(ctx, "photos/a.jpg"))
	exists, err = b.Exists(ctx, "photos/a.jpg")
	require.NoError(t, err)
	assert.False(t, exists)

	// Idempotent delete.
	require.NoError(t, b.Delete(ctx, "photos/a.jpg"))
}

func TestLocalBackendMissingObject(t *testing.T) {
	b, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, _, err = b.Reader(context.Background(), "photos/missing.jpg")
	assert.True(t, IsNotFound(err), "expected not-found error, got %v", err)
}

func TestLocalBackendRejectsTraversal(t *testing.T) {
	b, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"", "../escape", "photos/../../etc/passwd", "/abs/path"} {
		_, err := b.Write(ctx, key, strings.NewReader("x"), "")
		assert.Error(t, err, "key %q should be rejected", key)
	}
}

func TestServiceSavePhoto(t *testing.T) {
	b, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	svc := NewServiceWithBackend(b)
	ctx := context.Background()

	key, err := svc.SavePhoto(ctx, strings.NewReader("png-bytes"), "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "photos/"))
	assert.True(t, strings.HasSuffix(key, ".png"))

	r, info, err := svc.OpenPhoto(ctx, key)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, "image/png", info.ContentType)

	// Keys are unique per save.
	key2, err := svc.SavePhoto(ctx, strings.NewReader("png-bytes"), "image/png")
	require.NoError(t, err)
	assert.NotEqual(t, key, key2)
}
