package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/dmxconsole/internal/storage/kv"
)

// Backend persists the raw scene map (scene name -> encoded snapshot).
// WriteAll always receives the complete map.
type Backend interface {
	ReadAll() (map[string]json.RawMessage, error)
	WriteAll(entries map[string]json.RawMessage) error
}

// FileBackend stores all scenes in one JSON document.
type FileBackend struct {
	path string
}

// NewFileBackend creates a backend writing to path.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Path returns the scene file location.
func (b *FileBackend) Path() string {
	return b.path
}

// ReadAll returns an empty map when the file does not exist yet.
func (b *FileBackend) ReadAll() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeDocument(data)
}

// WriteAll replaces the file atomically (write to a temp file, then rename).
func (b *FileBackend) WriteAll(entries map[string]json.RawMessage) error {
	return writeDocument(b.path, entries)
}

// BucketBackend stores one scene per key of a KV bucket.
type BucketBackend struct {
	bucket kv.Bucket
}

// NewBucketBackend creates a backend on top of bucket.
func NewBucketBackend(bucket kv.Bucket) *BucketBackend {
	return &BucketBackend{bucket: bucket}
}

// ReadAll skips keys whose value cannot be read back.
func (b *BucketBackend) ReadAll() (map[string]json.RawMessage, error) {
	keys, err := b.bucket.Keys()
	if err != nil {
		return nil, err
	}

	entries := make(map[string]json.RawMessage, len(keys))
	for _, key := range keys {
		value, err := b.bucket.Get(key)
		if err != nil {
			log.Warn().Err(err).Str("scene", key).Str("bucket", b.bucket.Name()).Msg("Skipping unreadable scene")
			continue
		}
		data, err := json.Marshal(value)
		if err != nil {
			log.Warn().Err(err).Str("scene", key).Msg("Skipping unreadable scene")
			continue
		}
		entries[key] = data
	}
	return entries, nil
}

// WriteAll replaces the bucket content.
func (b *BucketBackend) WriteAll(entries map[string]json.RawMessage) error {
	values := make(map[string]any, len(entries))
	for key, raw := range entries {
		values[key] = raw
	}
	return b.bucket.Replace(values)
}

func decodeDocument(data []byte) (map[string]json.RawMessage, error) {
	entries := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("malformed scene file: %w", err)
	}
	return entries, nil
}

func writeDocument(path string, entries map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode scenes: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write scenes: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write scenes: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace scene file: %w", err)
	}
	return nil
}
