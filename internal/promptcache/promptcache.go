// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package promptcache is the durable prompt-hash → verdict cache shared
// across validation runs. Entries are never evicted; a key holds the
// outcome of exactly one Claude call regardless of how many URLs share
// the content.
package promptcache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Entry is one cached classification outcome.
type Entry struct {
	IsSkill bool   `json:"is_skill"`
	Reason  string `json:"reason"`
}

// Store is the key→verdict cache. Get reports (entry, found, error);
// Put overwrites whole entries. Implementations must make Put atomic so
// racing writers can interleave but never corrupt an entry.
type Store interface {
	Get(key string) (Entry, bool, error)
	Put(key string, e Entry) error
}

// DirStore keeps one {key}.json file per entry under a flat directory.
type DirStore struct {
	dir string
}

// NewDirStore creates the cache directory if needed and returns a store
// over it.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory %s: %w", dir, err)
	}
	return &DirStore{dir: dir}, nil
}

// Get reads the entry for key. A missing file is not an error.
func (s *DirStore) Get(key string) (Entry, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("reading cache entry %s: %w", key, err)
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, false, fmt.Errorf("decoding cache entry %s: %w", key, err)
	}
	return e, true, nil
}

// Put writes the entry to a temp file and renames it into place, so a
// reader never observes a partial entry.
func (s *DirStore) Put(key string, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding cache entry %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(s.dir, key+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing cache entry %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing temp cache file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("renaming cache entry %s: %w", key, err)
	}
	return nil
}

func (s *DirStore) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}
