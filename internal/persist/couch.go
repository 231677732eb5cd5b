package persist

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-kivik/kivik/v4"
	_ "github.com/go-kivik/kivik/v4/couchdb"

	"pmdesk/internal/query"
)

var ErrSnapshotConflict = errors.New("snapshot was modified concurrently")

const snapshotDocType = "cache_snapshot"

// CouchStore keeps one CouchDB document per snapshot.
type CouchStore struct {
	db *kivik.DB
}

type snapshotDoc struct {
	ID      string                  `json:"_id"`
	Rev     string                  `json:"_rev,omitempty"`
	DocType string                  `json:"doc_type"`
	Name    string                  `json:"name"`
	SavedAt string                  `json:"saved_at"`
	Entries []query.DehydratedEntry `json:"entries"`
}

func docID(name string) string {
	return "snapshot:" + name
}

// OpenCouchStore connects to url and creates dbName when it is missing.
func OpenCouchStore(ctx context.Context, url, dbName string) (*CouchStore, error) {
	client, err := kivik.New("couch", url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to CouchDB: %w", err)
	}

	exists, err := client.DBExists(ctx, dbName)
	if err != nil {
		return nil, fmt.Errorf("failed to check database existence: %w", err)
	}
	if !exists {
		if err := client.CreateDB(ctx, dbName); err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}
	return NewCouchStore(client, dbName), nil
}

func NewCouchStore(client *kivik.Client, dbName string) *CouchStore {
	return &CouchStore{db: client.DB(dbName)}
}

func (s *CouchStore) current(ctx context.Context, name string) (*snapshotDoc, error) {
	var doc snapshotDoc
	if err := s.db.Get(ctx, docID(name)).ScanDoc(&doc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return &doc, nil
}

func (s *CouchStore) Save(ctx context.Context, snap *Snapshot) error {
	if err := checkName(snap.Name); err != nil {
		return err
	}

	doc := snapshotDoc{
		ID:      docID(snap.Name),
		DocType: snapshotDocType,
		Name:    snap.Name,
		SavedAt: snap.SavedAt.Format(time.RFC3339Nano),
		Entries: snap.Entries,
	}
	existing, err := s.current(ctx, snap.Name)
	switch {
	case err == nil:
		doc.Rev = existing.Rev
	case !errors.Is(err, ErrSnapshotNotFound):
		return err
	}

	if _, err := s.db.Put(ctx, doc.ID, doc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusConflict {
			return ErrSnapshotConflict
		}
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (s *CouchStore) Load(ctx context.Context, name string) (*Snapshot, error) {
	doc, err := s.current(ctx, name)
	if err != nil {
		return nil, err
	}
	savedAt, err := time.Parse(time.RFC3339Nano, doc.SavedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse saved_at: %w", err)
	}
	return &Snapshot{Name: doc.Name, SavedAt: savedAt, Entries: doc.Entries}, nil
}

func (s *CouchStore) Delete(ctx context.Context, name string) error {
	doc, err := s.current(ctx, name)
	if err != nil {
		return err
	}
	if _, err := s.db.Delete(ctx, doc.ID, doc.Rev); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}
