package transactions

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Entry is the persisted snapshot.
type Entry struct {
	LastUpdated  time.Time               `json:"last_updated"`
	Transactions []ClassifiedTransaction `json:"transactions"`
}

// Cache stores the last successful fetch. Implementations need not be safe
// for use by more than one process at a time.
type Cache interface {
	Load() (Entry, bool, error)
	Save(txs []ClassifiedTransaction) (time.Time, error)
	Clear() (bool, error)
}

// FileCache keeps the entry in a single JSON file.
type FileCache struct {
	path string
	now  func() time.Time
}

// NewFileCache returns a cache backed by path.
func NewFileCache(path string) *FileCache {
	return &FileCache{path: path, now: time.Now}
}

// Path returns the backing file.
func (c *FileCache) Path() string { return c.path }

// Load reads the entry. A missing file is reported as absent, not as an error.
func (c *FileCache) Load() (Entry, bool, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("read cache %s: %w", c.path, err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, false, fmt.Errorf("decode cache %s: %w", c.path, err)
	}
	return entry, true, nil
}

// Save replaces the entry with txs stamped at the current time and returns the
// stamp. The file is written next to the target and renamed over it.
func (c *FileCache) Save(txs []ClassifiedTransaction) (time.Time, error) {
	if txs == nil {
		txs = []ClassifiedTransaction{}
	}
	entry := Entry{LastUpdated: c.now().UTC(), Transactions: txs}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return time.Time{}, fmt.Errorf("encode cache: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return time.Time{}, fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return time.Time{}, fmt.Errorf("create temp cache: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return time.Time{}, fmt.Errorf("write temp cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return time.Time{}, fmt.Errorf("close temp cache: %w", err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		return time.Time{}, fmt.Errorf("replace cache %s: %w", c.path, err)
	}
	return entry.LastUpdated, nil
}

// Clear removes the file and reports whether anything was there.
func (c *FileCache) Clear() (bool, error) {
	err := os.Remove(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("remove cache %s: %w", c.path, err)
	}
	return true, nil
}

var _ Cache = (*FileCache)(nil)
