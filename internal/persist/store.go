// Package persist saves query cache snapshots between runs.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"pmdesk/internal/config"
	"pmdesk/internal/query"
)

var (
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrInvalidName      = errors.New("invalid snapshot name")
)

var validName = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Snapshot is a named dump of cache entries.
type Snapshot struct {
	Name    string                  `json:"name"`
	SavedAt time.Time               `json:"savedAt"`
	Entries []query.DehydratedEntry `json:"entries"`
}

type Store interface {
	Save(ctx context.Context, snap *Snapshot) error
	Load(ctx context.Context, name string) (*Snapshot, error)
	Delete(ctx context.Context, name string) error
}

func checkName(name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Open builds the store cfg selects. The none driver keeps snapshots in
// process memory only.
func Open(ctx context.Context, cfg config.PersistConfig) (Store, error) {
	switch cfg.Driver {
	case config.PersistNone, "":
		return NewMemoryStore(), nil
	case config.PersistFile:
		return NewFileStore(cfg.Path), nil
	case config.PersistCouch:
		store, err := OpenCouchStore(ctx, cfg.CouchURL, cfg.CouchDB)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown persist driver %q", cfg.Driver)
}

// SaveCache dehydrates cache into store under name.
func SaveCache(ctx context.Context, store Store, cache *query.Cache, name string) error {
	entries, err := cache.Dehydrate()
	if err != nil {
		return fmt.Errorf("failed to dehydrate cache: %w", err)
	}
	return store.Save(ctx, &Snapshot{Name: name, SavedAt: time.Now().UTC(), Entries: entries})
}

// RestoreCache hydrates cache from the snapshot called name. A missing
// snapshot restores nothing.
func RestoreCache(ctx context.Context, store Store, cache *query.Cache, name string) (int, error) {
	snap, err := store.Load(ctx, name)
	if errors.Is(err, ErrSnapshotNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return cache.Hydrate(snap.Entries), nil
}

type MemoryStore struct {
	mu    sync.RWMutex
	snaps map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snaps: make(map[string][]byte)}
}

func (s *MemoryStore) Save(ctx context.Context, snap *Snapshot) error {
	if err := checkName(snap.Name); err != nil {
		return err
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.snaps[snap.Name] = b
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, name string) (*Snapshot, error) {
	s.mu.RLock()
	b, ok := s.snaps[name]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *MemoryStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.snaps[name]; !ok {
		return ErrSnapshotNotFound
	}
	delete(s.snaps, name)
	return nil
}

// FileStore keeps one JSON file per snapshot under dir.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func (s *FileStore) Save(ctx context.Context, snap *Snapshot) error {
	if err := checkName(snap.Name); err != nil {
		return err
	}
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create snapshot dir: %w", err)
	}
	tmp := s.path(snap.Name) + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path(snap.Name)); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context, name string) (*Snapshot, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	s.mu.Lock()
	b, err := os.ReadFile(s.path(name))
	s.mu.Unlock()
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return &snap, nil
}

func (s *FileStore) Delete(ctx context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return ErrSnapshotNotFound
	}
	return err
}
