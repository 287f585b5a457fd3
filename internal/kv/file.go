package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrNotJSON is returned by File.Set for values that are not valid JSON.
var ErrNotJSON = errors.New("value is not valid JSON")

// File is a Store persisted as a single JSON document on disk. Every write
// rewrites the file, which is fine for the handful of keys a client keeps.
type File struct {
	mu   sync.RWMutex
	path string
	m    map[string]json.RawMessage
}

// NewFile opens (or lazily creates) the JSON store at path.
func NewFile(path string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f := &File{path: path, m: map[string]json.RawMessage{}}
	if err := f.load(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(b) == 0 {
		return nil
	}
	loaded := map[string]json.RawMessage{}
	if err := json.Unmarshal(b, &loaded); err != nil {
		return err
	}
	f.m = loaded
	return nil
}

func (f *File) saveLocked() error {
	b, err := json.MarshalIndent(f.m, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

func (f *File) Get(_ context.Context, key string) ([]byte, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.m[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set stores value, which must be valid JSON so the file stays one document
// and Get returns the same bytes.
func (f *File) Set(_ context.Context, key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("kv: value for %q: %w", key, ErrNotJSON)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.m[key] = append(json.RawMessage(nil), value...)
	return f.saveLocked()
}

func (f *File) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.m[key]; !ok {
		return nil
	}
	delete(f.m, key)
	return f.saveLocked()
}
