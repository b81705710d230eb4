// ABOUTME: BadgerDB journal of censored documents
// ABOUTME: Provides Put, Get, newest-first List, Delete and Count with optional TTL

package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const keyPrefix = "record:"

// ErrRecordNotFound is returned when no record has the requested ID.
var ErrRecordNotFound = errors.New("record not found")

// StoreConfig holds configuration for the journal store.
type StoreConfig struct {
	// Path to the database directory. Required unless InMemory is true.
	Path string

	// InMemory runs the database in memory (for testing).
	InMemory bool

	// SyncWrites enables synchronous writes (slower but safer).
	SyncWrites bool

	// TTL expires records after the given duration. Zero keeps them forever.
	TTL time.Duration

	// Logger for BadgerDB operations.
	Logger badger.Logger
}

// Record is one censored document. Document never holds unmasked values.
type Record struct {
	ID            string          `json:"id"`
	Source        string          `json:"source"`
	Document      json.RawMessage `json:"document"`
	Masked        int             `json:"masked"`
	Failed        int             `json:"failed"`
	CreatedAt     time.Time       `json:"created_at"`
	CorrelationID string          `json:"correlation_id,omitempty"`
}

// Store wraps BadgerDB for record storage.
type Store struct {
	db     *badger.DB
	config StoreConfig
}

// Open opens or creates the journal.
func Open(cfg StoreConfig) (*Store, error) {
	if cfg.Path == "" && !cfg.InMemory {
		return nil, fmt.Errorf("journal path is required unless running in memory")
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	if cfg.SyncWrites {
		opts = opts.WithSyncWrites(true)
	}
	if cfg.Logger != nil {
		opts = opts.WithLogger(cfg.Logger)
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	return &Store{
		db:     db,
		config: cfg,
	}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put stores rec, assigning an ID and creation time when unset.
// IDs are UUIDv7 so key order follows creation order.
func (s *Store) Put(ctx context.Context, rec *Record) error {
	if rec == nil {
		return fmt.Errorf("record is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if rec.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate record id: %w", err)
		}
		rec.ID = id.String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(recordKey(rec.ID), data)
		if s.config.TTL > 0 {
			entry = entry.WithTTL(s.config.TTL)
		}
		if err := txn.SetEntry(entry); err != nil {
			return fmt.Errorf("failed to set record %s: %w", rec.ID, err)
		}
		return nil
	})
}

// Get retrieves a record by ID.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rec *Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrRecordNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get record %s: %w", id, err)
		}
		return item.Value(func(val []byte) error {
			rec = &Record{}
			if err := json.Unmarshal(val, rec); err != nil {
				return fmt.Errorf("failed to unmarshal record: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns up to limit records, newest first. A limit of zero or less
// returns every record.
func (s *Store) List(ctx context.Context, limit int) ([]*Record, error) {
	var records []*Record

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		// In reverse mode Seek lands on the last key <= the seek key.
		seek := append([]byte(keyPrefix), 0xFF)
		for it.Seek(seek); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if limit > 0 && len(records) >= limit {
				break
			}
			err := it.Item().Value(func(val []byte) error {
				rec := &Record{}
				if err := json.Unmarshal(val, rec); err != nil {
					return fmt.Errorf("failed to unmarshal record: %w", err)
				}
				records = append(records, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Delete removes a record by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(recordKey(id)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrRecordNotFound
			}
			return fmt.Errorf("failed to get record %s: %w", id, err)
		}
		return txn.Delete(recordKey(id))
	})
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var count int64

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

func recordKey(id string) []byte {
	return []byte(keyPrefix + id)
}
