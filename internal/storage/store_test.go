package storage

import (
	"encoding/binary"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get("missing")
	require.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, store.Put("key1", []byte("value1")))
	got, err := store.Get("key1")
	require.NoError(t, err)
	require.Equal(t, []byte("value1"), got)

	// Overwrites replace.
	require.NoError(t, store.Put("key1", []byte("value2")))
	got, err = store.Get("key1")
	require.NoError(t, err)
	require.Equal(t, []byte("value2"), got)

	// Mutating the returned slice leaves the store untouched.
	got[0] = 'X'
	again, err := store.Get("key1")
	require.NoError(t, err)
	require.Equal(t, []byte("value2"), again)

	require.NoError(t, store.Delete("key1"))
	require.NoError(t, store.Delete("key1"))
	_, err = store.Get("key1")
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Put("shard_0_0_10_10", []byte("snapshot")))
	got, err := store.Get("shard_0_0_10_10")
	require.NoError(t, err)
	require.Equal(t, []byte("snapshot"), got)

	keys, err := store.List()
	require.NoError(t, err)
	require.Equal(t, []string{"shard_0_0_10_10"}, keys)

	require.NoError(t, store.Delete("shard_0_0_10_10"))
	_, err = store.Get("shard_0_0_10_10")
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestFileStoreDetectsCorruption(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Put("state", []byte("important")))

	// Flip one payload byte without fixing the checksum.
	path := filepath.Join(dir, "state"+fileExt)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[0] ^= 0xff
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = store.Get("state")
	require.ErrorIs(t, err, ErrChecksum)

	// A well-formed rewrite recovers.
	value := []byte("rewritten")
	buf := make([]byte, len(value)+4)
	copy(buf, value)
	binary.LittleEndian.PutUint32(buf[len(value):], crc32.ChecksumIEEE(value))
	require.NoError(t, os.WriteFile(path, buf, 0o644))
	got, err := store.Get("state")
	require.NoError(t, err)
	require.Equal(t, value, got)
}

func TestFileStoreTruncatedFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "short"+fileExt), []byte{1, 2}, 0o644))
	_, err = store.Get("short")
	require.ErrorIs(t, err, ErrChecksum)
}
