package objectstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorePutCreatesIntermediateDirectories(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	key := "logs/checkout/year=2026/month=01/day=01/hour=00/file.parquet"
	err = store.Put(context.Background(), key, []byte("hello"))
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}

func TestFileStorePutOverwritesExistingKey(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Put(context.Background(), "a/b.parquet", []byte("v1")))
	require.NoError(t, store.Put(context.Background(), "a/b.parquet", []byte("v2")))

	got, err := os.ReadFile(filepath.Join(dir, "a", "b.parquet"))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got))
}

func TestNewFileStoreCreatesRootDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "root")
	_, err := NewFileStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
