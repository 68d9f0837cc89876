package kvstore

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileBackend stores each key as <dir>/<key>.json
type FileBackend struct {
	dir string
}

func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{dir: dir}
}

func (b *FileBackend) path(key string) string {
	return filepath.Join(b.dir, key+".json")
}

func (b *FileBackend) Read(key string) ([]byte, error) {
	raw, err := os.ReadFile(b.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &OpError{Class: FailureRead, Key: key, Err: err}
	}
	return raw, nil
}

func (b *FileBackend) Write(key string, raw []byte) error {
	if err := os.MkdirAll(b.dir, 0755); err != nil {
		return &OpError{Class: FailureMkdir, Key: key, Err: err}
	}
	if err := os.WriteFile(b.path(key), raw, 0644); err != nil {
		return &OpError{Class: FailureWrite, Key: key, Err: err}
	}
	return nil
}

// MemoryBackend keeps values in a map
type MemoryBackend struct {
	mu     sync.Mutex
	values map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string][]byte)}
}

func (b *MemoryBackend) Read(key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	raw, ok := b.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), raw...), nil
}

func (b *MemoryBackend) Write(key string, raw []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[key] = append([]byte(nil), raw...)
	return nil
}
