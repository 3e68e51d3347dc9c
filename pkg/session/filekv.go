package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileKV stores every key in one JSON object on disk. Each Set rewrites the
// file through a temp file and rename, so a batch lands completely or not at all.
type FileKV struct {
	path string
	mu   sync.RWMutex
	data map[string]json.RawMessage
}

// NewFileKV opens (or prepares to create) the store at path.
// If path is empty, defaults to ~/.tabpilot/storage.json
func NewFileKV(path string) (*FileKV, error) {
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(homeDir, ".tabpilot", "storage.json")
	}

	kv := &FileKV{
		path: path,
		data: make(map[string]json.RawMessage),
	}
	if err := kv.load(); err != nil {
		return nil, fmt.Errorf("failed to load storage from %s: %w", path, err)
	}
	return kv, nil
}

func (f *FileKV) load() error {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read storage file: %w", err)
	}
	if len(raw) == 0 {
		return nil
	}

	var data map[string]json.RawMessage
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("failed to decode storage file: %w", err)
	}
	if data != nil {
		f.data = data
	}
	return nil
}

// Get returns the stored values for keys.
func (f *FileKV) Get(keys ...string) (map[string][]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok := f.data[k]; ok {
			out[k] = append([]byte(nil), v...)
		}
	}
	return out, nil
}

// Set validates and writes values, then persists the whole store.
func (f *FileKV) Set(values map[string][]byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	next := make(map[string]json.RawMessage, len(f.data)+len(values))
	for k, v := range f.data {
		next[k] = v
	}
	for k, v := range values {
		if !json.Valid(v) {
			return fmt.Errorf("value for %q is not valid JSON", k)
		}
		next[k] = append(json.RawMessage(nil), v...)
	}

	if err := f.writeFile(next); err != nil {
		return err
	}
	f.data = next
	return nil
}

func (f *FileKV) writeFile(data map[string]json.RawMessage) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	// Create temp file for atomic write
	tempPath := f.path + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create temp storage file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode storage: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tempPath, f.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Path returns the file path of the store.
func (f *FileKV) Path() string {
	return f.path
}
