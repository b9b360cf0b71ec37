package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "chat_files/a/report.txt", strings.NewReader("hello"), 5, "text/plain"))

	rc, err := s.Read(ctx, "chat_files/a/report.txt")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))

	t.Run("overwrite", func(t *testing.T) {
		require.NoError(t, s.Write(ctx, "chat_files/a/report.txt", strings.NewReader("bye"), -1, ""))
		rc, err := s.Read(ctx, "chat_files/a/report.txt")
		require.NoError(t, err)
		defer rc.Close()
		body, _ := io.ReadAll(rc)
		assert.Equal(t, "bye", string(body))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, "chat_files/a/report.txt"))
		_, err := s.Read(ctx, "chat_files/a/report.txt")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, s.Delete(ctx, "chat_files/a/report.txt"), "deleting twice is fine")
	})

	t.Run("rejects escaping keys", func(t *testing.T) {
		for _, key := range []string{"../outside", "a/../../outside", "/etc/passwd", ""} {
			assert.Error(t, s.Write(ctx, key, strings.NewReader("x"), 1, ""), key)
		}
	})
}
