// Package store persists discovery runs.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	bolt "go.etcd.io/bbolt"
)

// ErrNotFound is returned when a run ID is unknown.
var ErrNotFound = errors.New("run not found")

// Store persists runs.
type Store interface {
	SaveRun(run *Run) error
	LoadRun(id string) (*Run, error)
	ListRuns() ([]RunSummary, error)
	DeleteRun(id string) error
	Close() error
}

var (
	bucketRuns  = []byte("runs")
	bucketIndex = []byte("index")
)

// BoltStore implements Store using BoltDB. Runs are stored gzip-compressed;
// a separate bucket holds their summaries for listing.
type BoltStore struct {
	db   *bolt.DB
	path string
}

// NewBoltStore opens or creates a BoltDB-backed run store.
func NewBoltStore(path string) (*BoltStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketRuns, bucketIndex} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &BoltStore{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *BoltStore) Path() string {
	return s.path
}

// SaveRun saves or replaces a run.
func (s *BoltStore) SaveRun(run *Run) error {
	if run.ID == "" {
		return fmt.Errorf("run has no ID")
	}
	data, err := compress(run)
	if err != nil {
		return err
	}
	summary, err := json.Marshal(run.Summary())
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketRuns).Put([]byte(run.ID), data); err != nil {
			return err
		}
		return tx.Bucket(bucketIndex).Put([]byte(run.ID), summary)
	})
}

// LoadRun loads a run by ID.
func (s *BoltStore) LoadRun(id string) (*Run, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketRuns).Get([]byte(id))
		if v == nil {
			return ErrNotFound
		}
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decompress(data)
}

// ListRuns returns run summaries, newest first.
func (s *BoltStore) ListRuns() ([]RunSummary, error) {
	var runs []RunSummary
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketIndex).ForEach(func(k, v []byte) error {
			var rs RunSummary
			if err := json.Unmarshal(v, &rs); err != nil {
				return fmt.Errorf("failed to unmarshal summary %s: %w", k, err)
			}
			runs = append(runs, rs)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortSummaries(runs)
	return runs, nil
}

// DeleteRun removes a run.
func (s *BoltStore) DeleteRun(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRuns)
		if b.Get([]byte(id)) == nil {
			return ErrNotFound
		}
		if err := b.Delete([]byte(id)); err != nil {
			return err
		}
		return tx.Bucket(bucketIndex).Delete([]byte(id))
	})
}

// Close closes the database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func compress(run *Run) ([]byte, error) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if err := json.NewEncoder(gw).Encode(run); err != nil {
		return nil, fmt.Errorf("failed to marshal run: %w", err)
	}
	if err := gw.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress run: %w", err)
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) (*Run, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open run: %w", err)
	}
	defer gr.Close()

	raw, err := io.ReadAll(gr)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress run: %w", err)
	}
	var run Run
	if err := json.Unmarshal(raw, &run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run: %w", err)
	}
	return &run, nil
}

func sortSummaries(runs []RunSummary) {
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
}

// MemoryStore implements Store in memory.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewMemoryStore creates a new in-memory run store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]*Run)}
}

// SaveRun saves a copy of the run.
func (s *MemoryStore) SaveRun(run *Run) error {
	if run.ID == "" {
		return fmt.Errorf("run has no ID")
	}
	cp := *run
	cp.Endpoints = append(cp.Endpoints[:0:0], run.Endpoints...)
	s.mu.Lock()
	s.runs[run.ID] = &cp
	s.mu.Unlock()
	return nil
}

// LoadRun returns the stored run.
func (s *MemoryStore) LoadRun(id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *run
	return &cp, nil
}

// ListRuns returns run summaries, newest first.
func (s *MemoryStore) ListRuns() ([]RunSummary, error) {
	s.mu.RLock()
	runs := make([]RunSummary, 0, len(s.runs))
	for _, r := range s.runs {
		runs = append(runs, r.Summary())
	}
	s.mu.RUnlock()
	sortSummaries(runs)
	return runs, nil
}

// DeleteRun removes a run.
func (s *MemoryStore) DeleteRun(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[id]; !ok {
		return ErrNotFound
	}
	delete(s.runs, id)
	return nil
}

// Close is a no-op for MemoryStore.
func (s *MemoryStore) Close() error {
	return nil
}
