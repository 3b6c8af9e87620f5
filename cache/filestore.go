package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const fileFormatVersion = 1

// FileStore persists the cache as a JSON document on local disk.
type FileStore struct {
	path string
}

type fileDocument struct {
	Version int              `json:"version"`
	Entries map[string]Entry `json:"entries"`
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

// Load reads the cache file. A missing file is a first run and yields an
// empty cache; anything unreadable or malformed is an error.
func (s *FileStore) Load(ctx context.Context) (*Cache, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read cache file %s: %w", s.path, err)
	}

	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unable to decode cache file %s: %w", s.path, err)
	}
	if doc.Version != fileFormatVersion {
		return nil, fmt.Errorf("unsupported cache file version %d in %s", doc.Version, s.path)
	}

	c := New()
	for sourceID, e := range doc.Entries {
		if sourceID == "" || e.RemoteID == "" {
			return nil, fmt.Errorf("invalid cache entry %q in %s: missing source or remote id", sourceID, s.path)
		}
		e.SourceID = sourceID
		c.entries[sourceID] = e
	}
	return c, nil
}

// Save writes the cache to a temporary file next to the target and renames
// it into place, so a crash never leaves a truncated cache behind.
func (s *FileStore) Save(ctx context.Context, c *Cache) error {
	doc := fileDocument{
		Version: fileFormatVersion,
		Entries: make(map[string]Entry, c.Len()),
	}
	for _, e := range c.Entries() {
		doc.Entries[e.SourceID] = e
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to encode cache: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("unable to create temporary cache file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("unable to write cache file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("unable to sync cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("unable to close cache file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("unable to replace cache file %s: %w", s.path, err)
	}
	return nil
}
