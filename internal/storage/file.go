package storage

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const fileExt = ".bin"

// FileStore writes one file per key under a directory. Each file carries
// the value followed by a little-endian CRC32 (IEEE) of the value, verified
// on Get so a torn write surfaces as ErrChecksum rather than as garbage
// state after a restart.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) path(key string) string {
	return filepath.Join(f.dir, sanitizeKey(key)+fileExt)
}

// sanitizeKey keeps keys usable as file names. Keys are internal
// identifiers like "shard_0_0_100_100" so this only guards separators.
func sanitizeKey(key string) string {
	return strings.NewReplacer("/", "_", string(filepath.Separator), "_").Replace(key)
}

// Get reads and checksum-verifies a value.
func (f *FileStore) Get(key string) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	data, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	if len(data) < 4 {
		return nil, fmt.Errorf("%s: %w", key, ErrChecksum)
	}

	value := data[:len(data)-4]
	want := binary.LittleEndian.Uint32(data[len(data)-4:])
	if crc32.ChecksumIEEE(value) != want {
		return nil, fmt.Errorf("%s: %w", key, ErrChecksum)
	}
	return value, nil
}

// Put writes value plus checksum atomically via a rename.
func (f *FileStore) Put(key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	buf := make([]byte, len(value)+4)
	copy(buf, value)
	binary.LittleEndian.PutUint32(buf[len(value):], crc32.ChecksumIEEE(value))

	path := f.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("commit %s: %w", key, err)
	}
	return nil
}

// Delete removes a key's file, idempotently.
func (f *FileStore) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := os.Remove(f.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// List returns the keys of all stored files.
func (f *FileStore) List() ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", f.dir, err)
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, fileExt))
	}
	return keys, nil
}
