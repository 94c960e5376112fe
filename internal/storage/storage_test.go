package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_SaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(Config{BasePath: dir, BaseURL: "/uploads/"})
	require.NoError(t, err)

	key := DocumentKey("insurance", "pilot-1", ".pdf")
	require.NoError(t, s.Save(context.Background(), key, bytes.NewReader([]byte("%PDF-1.4")), "application/pdf"))

	data, err := os.ReadFile(filepath.Join(dir, key))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
	assert.Equal(t, "/uploads/"+key, s.URL(key))

	require.NoError(t, s.Delete(context.Background(), key))
	_, err = os.Stat(filepath.Join(dir, key))
	assert.True(t, os.IsNotExist(err))

	// повторное удаление не ошибка
	assert.NoError(t, s.Delete(context.Background(), key))
}

func TestLocalStorage_KeyStaysInsideBase(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(Config{BasePath: dir})
	require.NoError(t, err)

	require.NoError(t, s.Save(context.Background(), "../../escape.txt", strings.NewReader("x"), "text/plain"))
	_, err = os.Stat(filepath.Join(dir, "escape.txt"))
	assert.NoError(t, err)

	assert.ErrorIs(t, s.Save(context.Background(), "", strings.NewReader("x"), "text/plain"), ErrInvalidKey)
}

func TestDetectDocumentType(t *testing.T) {
	ct, ext, ok := DetectDocumentType([]byte("%PDF-1.7\n"))
	assert.True(t, ok)
	assert.Equal(t, "application/pdf", ct)
	assert.Equal(t, ".pdf", ext)

	_, ext, ok = DetectDocumentType([]byte("\x89PNG\r\n\x1a\n"))
	assert.True(t, ok)
	assert.Equal(t, ".png", ext)

	_, _, ok = DetectDocumentType([]byte("plain text"))
	assert.False(t, ok)
}

func TestNew_RejectsUnknownType(t *testing.T) {
	_, err := New(Config{Type: "ftp"})
	assert.Error(t, err)

	_, err = New(Config{Type: "cloudflare_r2", Bucket: "b"})
	assert.ErrorContains(t, err, "endpoint")
}
