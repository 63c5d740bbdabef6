package storage

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// однопиксельный PNG
var tinyPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4,
	0x89, 0x00, 0x00, 0x00, 0x0a, 0x49, 0x44, 0x41,
	0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00,
	0x00, 0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae,
	0x42, 0x60, 0x82,
}

func pngDataURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(tinyPNG)
}

func TestFSImageStore_Upload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFSImageStore(dir, 0)
	require.NoError(t, err)

	ref, err := store.Upload(context.Background(), pngDataURL())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(ref, "/uploads/"))
	require.True(t, strings.HasSuffix(ref, ".png"))

	data, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(ref, "/uploads/")))
	require.NoError(t, err)
	require.Equal(t, tinyPNG, data)
}

func TestFSImageStore_BareBase64(t *testing.T) {
	store, err := NewFSImageStore(t.TempDir(), 0)
	require.NoError(t, err)

	_, err = store.Upload(context.Background(), base64.StdEncoding.EncodeToString(tinyPNG))
	require.NoError(t, err)
}

func TestFSImageStore_RejectsNonImage(t *testing.T) {
	store, err := NewFSImageStore(t.TempDir(), 0)
	require.NoError(t, err)

	_, err = store.Upload(context.Background(),
		"data:text/plain;base64,"+base64.StdEncoding.EncodeToString([]byte("hello")))
	require.ErrorIs(t, err, ErrBadImage)
}

func TestFSImageStore_RejectsBadBase64(t *testing.T) {
	store, err := NewFSImageStore(t.TempDir(), 0)
	require.NoError(t, err)

	_, err = store.Upload(context.Background(), "data:image/png;base64,!!!not-base64!!!")
	require.ErrorIs(t, err, ErrBadImage)
}

func TestFSImageStore_RejectsOversized(t *testing.T) {
	store, err := NewFSImageStore(t.TempDir(), 16)
	require.NoError(t, err)

	_, err = store.Upload(context.Background(), pngDataURL())
	require.ErrorIs(t, err, ErrBadImage)
}
