// Package store provides a thin bbolt wrapper for bbcompare's local data store.
//
// The store holds what the user chose to keep: named searches and a log of
// generated URLs. Generated URLs themselves are never cached here; the
// in-memory result cache lives in package cache.
//
// Buckets:
//
//	searches: saved parameter sets keyed by lower-cased name
//	history: generation log keyed by an 8-byte big-endian sequence
//	_meta: schema version and creation time (internal)
package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/derickschaefer/bbcompare/internal/model"
)

// Current schema version. Bump when bucket layout or key format changes.
const schemaVersion = 1

// Bucket name constants.
var (
	bucketSearches = []byte("searches")
	bucketHistory  = []byte("history")
	bucketInternal = []byte("_meta")
)

// AllBuckets lists every user-facing bucket for stats and clear operations.
var AllBuckets = []string{"searches", "history"}

// ErrNotFound is returned when a saved search does not exist.
var ErrNotFound = errors.New("not found")

// Store wraps a bbolt database.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the bbolt database at path.
// Parent directories are created automatically.
// Runs schema migrations on every open.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening db %s: %w", path, err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the filesystem path of the open database.
func (s *Store) Path() string {
	return s.db.Path()
}

// ─── Migrations ───────────────────────────────────────────────────────────────

// migrate ensures all buckets exist and schema is current.
func (s *Store) migrate() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketSearches, bucketHistory, bucketInternal} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}

		meta := tx.Bucket(bucketInternal)
		if meta.Get([]byte("schema_version")) == nil {
			if err := meta.Put([]byte("schema_version"), []byte(fmt.Sprintf("%d", schemaVersion))); err != nil {
				return err
			}
			if err := meta.Put([]byte("created_at"), []byte(time.Now().UTC().Format(time.RFC3339))); err != nil {
				return err
			}
		}
		return nil
	})
}

// ─── Saved Searches ───────────────────────────────────────────────────────────

// searchKey folds case so "Home" and "home" name the same search.
func searchKey(name string) []byte {
	return []byte(strings.ToLower(strings.TrimSpace(name)))
}

// PutSearch creates or replaces the search with s.Name. Replacing keeps the
// original ID and CreatedAt. The stored record is returned.
func (s *Store) PutSearch(search model.SavedSearch) (model.SavedSearch, error) {
	search.Name = strings.TrimSpace(search.Name)
	if search.Name == "" {
		return search, errors.New("saved search name is required")
	}
	now := time.Now().UTC()
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSearches)
		key := searchKey(search.Name)
		if v := b.Get(key); v != nil {
			var prev model.SavedSearch
			if err := json.Unmarshal(v, &prev); err != nil {
				return fmt.Errorf("decoding saved search: %w", err)
			}
			search.ID = prev.ID
			search.CreatedAt = prev.CreatedAt
		} else {
			search.ID = uuid.NewString()
			search.CreatedAt = now
		}
		search.UpdatedAt = now
		data, err := json.Marshal(search)
		if err != nil {
			return fmt.Errorf("encoding saved search: %w", err)
		}
		return b.Put(key, data)
	})
	return search, err
}

// GetSearch looks a search up by name, falling back to an exact ID match.
// Returns (search, true, nil) if found, (zero, false, nil) if not found.
func (s *Store) GetSearch(nameOrID string) (model.SavedSearch, bool, error) {
	var found model.SavedSearch
	var ok bool
	err := s.db.View(func(tx *bolt.Tx) error {
		key, v := lookupSearch(tx.Bucket(bucketSearches), nameOrID)
		if key == nil {
			return nil
		}
		ok = true
		return json.Unmarshal(v, &found)
	})
	if err != nil {
		return model.SavedSearch{}, false, err
	}
	return found, ok, nil
}

// lookupSearch resolves nameOrID to its key and value, or nil, nil.
func lookupSearch(b *bolt.Bucket, nameOrID string) ([]byte, []byte) {
	key := searchKey(nameOrID)
	if v := b.Get(key); v != nil {
		return key, v
	}
	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		var probe struct {
			ID string `json:"id"`
		}
		if json.Unmarshal(v, &probe) == nil && probe.ID == nameOrID {
			return k, v
		}
	}
	return nil, nil
}

// ListSearches returns all saved searches ordered by name.
func (s *Store) ListSearches() ([]model.SavedSearch, error) {
	var out []model.SavedSearch
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSearches).ForEach(func(k, v []byte) error {
			var search model.SavedSearch
			if err := json.Unmarshal(v, &search); err != nil {
				return err
			}
			out = append(out, search)
			return nil
		})
	})
	return out, err
}

// RecordRun stores url as the last URL generated for the named search.
func (s *Store) RecordRun(nameOrID, url string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSearches)
		key, v := lookupSearch(b, nameOrID)
		if key == nil {
			return fmt.Errorf("saved search %q: %w", nameOrID, ErrNotFound)
		}
		var search model.SavedSearch
		if err := json.Unmarshal(v, &search); err != nil {
			return err
		}
		search.LastURL = url
		data, err := json.Marshal(search)
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
}

// DeleteSearch removes a saved search by name or ID.
func (s *Store) DeleteSearch(nameOrID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSearches)
		key, _ := lookupSearch(b, nameOrID)
		if key == nil {
			return fmt.Errorf("saved search %q: %w", nameOrID, ErrNotFound)
		}
		return b.Delete(key)
	})
}

// ─── History ──────────────────────────────────────────────────────────────────

func seqKey(n uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, n)
	return k
}

// AppendHistory adds e to the generation log, assigning an ID and
// timestamp when they are unset.
func (s *Store) AppendHistory(e model.HistoryEntry) (model.HistoryEntry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketHistory)
		n, err := b.NextSequence()
		if err != nil {
			return err
		}
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encoding history entry: %w", err)
		}
		return b.Put(seqKey(n), data)
	})
	return e, err
}

// ListHistory returns up to limit entries, newest first.
// limit <= 0 returns everything.
func (s *Store) ListHistory(limit int) ([]model.HistoryEntry, error) {
	var out []model.HistoryEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketHistory).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(out) >= limit {
				break
			}
			var e model.HistoryEntry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			out = append(out, e)
		}
		return nil
	})
	return out, err
}

// PruneHistory deletes the oldest entries so that at most keep remain.
// Returns the number of entries removed.
func (s *Store) PruneHistory(keep int) (int, error) {
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketHistory)
		excess := b.Stats().KeyN - keep
		if excess <= 0 {
			return nil
		}
		var doomed [][]byte
		c := b.Cursor()
		for k, _ := c.First(); k != nil && len(doomed) < excess; k, _ = c.Next() {
			doomed = append(doomed, append([]byte(nil), k...))
		}
		for _, k := range doomed {
			if err := b.Delete(k); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}

// ─── Stats & Maintenance ──────────────────────────────────────────────────────

// BucketStats holds row count and byte size for a single bucket.
type BucketStats struct {
	Name  string
	Count int
	Bytes int64
}

// Stats returns row counts and approximate sizes for all buckets, in
// AllBuckets order.
func (s *Store) Stats() ([]BucketStats, error) {
	var stats []BucketStats
	err := s.db.View(func(tx *bolt.Tx) error {
		for _, name := range AllBuckets {
			b := tx.Bucket([]byte(name))
			if b == nil {
				continue
			}
			var count int
			var bytes int64
			_ = b.ForEach(func(k, v []byte) error {
				count++
				bytes += int64(len(k) + len(v))
				return nil
			})
			stats = append(stats, BucketStats{Name: name, Count: count, Bytes: bytes})
		}
		return nil
	})
	return stats, err
}

// ClearBucket deletes all entries in the named bucket.
func (s *Store) ClearBucket(name string) error {
	bname := []byte(name)
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bname); err != nil {
			return fmt.Errorf("clearing bucket %s: %w", name, err)
		}
		_, err := tx.CreateBucket(bname)
		return err
	})
}

// ClearHistory empties the generation log.
func (s *Store) ClearHistory() error {
	return s.ClearBucket(string(bucketHistory))
}

// ClearAll deletes all entries from every user-facing bucket.
func (s *Store) ClearAll() error {
	for _, name := range AllBuckets {
		if err := s.ClearBucket(name); err != nil {
			return err
		}
	}
	return nil
}
