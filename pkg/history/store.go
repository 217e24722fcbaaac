// Package history persists run summaries in BadgerDB so the report server can
// list past runs without re-parsing NDJSON output.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"k6-harness/pkg/models"
)

// ErrRunNotFound is returned by Get for unknown run IDs
var ErrRunNotFound = errors.New("run not found")

// runKeyPrefix namespaces run records. Run IDs are timestamp-prefixed and
// therefore sort chronologically, so a reverse key scan yields newest-first.
const runKeyPrefix = "run:"

// Options configures the history store
type Options struct {
	Dir       string        // Directory for BadgerDB files
	CacheSize int64         // Block cache size in bytes (0 disables)
	GCEnabled bool          // Run periodic value-log garbage collection
	GCPeriod  time.Duration // GC interval when enabled
	Logger    *zap.Logger
}

// Store is a BadgerDB-backed run history
type Store struct {
	db     *badger.DB
	logger *zap.Logger

	gcStop chan struct{}
	gcWG   sync.WaitGroup

	mu      sync.Mutex
	gcRuns  int64
	gcFails int64
	lastGC  time.Time
}

// NewStore opens (or creates) the history database
func NewStore(opts Options) (*Store, error) {
	if opts.Dir == "" {
		opts.Dir = "data/history"
	}
	if opts.GCPeriod <= 0 {
		opts.GCPeriod = 10 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	dir := filepath.Clean(opts.Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	// Run summaries are tiny and written once per test run, so the options
	// favor durability and a small footprint over write throughput.
	badgerOpts := badger.DefaultOptions(dir).
		WithLogger(nil).
		WithSyncWrites(true).
		WithMemTableSize(8 << 20).
		WithValueLogFileSize(16 << 20).
		WithNumVersionsToKeep(1)
	if opts.CacheSize > 0 {
		badgerOpts = badgerOpts.WithBlockCacheSize(opts.CacheSize)
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	s := &Store{
		db:     db,
		logger: opts.Logger,
		gcStop: make(chan struct{}),
	}

	if opts.GCEnabled {
		s.gcWG.Add(1)
		go s.gcLoop(opts.GCPeriod)
	}

	return s, nil
}

// Put stores or replaces a run record
func (s *Store) Put(record *models.RunRecord) error {
	if record.ID == "" {
		return errors.New("run record has no ID")
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode run record: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(runKeyPrefix+record.ID), data)
	})
	if err != nil {
		return fmt.Errorf("failed to store run %s: %w", record.ID, err)
	}

	s.logger.Info("Run recorded",
		zap.String("run_id", record.ID),
		zap.String("label", record.Label()),
		zap.Bool("passed", record.Passed))
	return nil
}

// Get retrieves one run record by ID
func (s *Store) Get(id string) (*models.RunRecord, error) {
	var record models.RunRecord

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(runKeyPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}

	return &record, nil
}

// List returns run records newest-first. Records that fail to decode are
// skipped rather than failing the listing.
func (s *Store) List(limit, offset int) ([]*models.RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var records []*models.RunRecord
	err := s.db.View(func(txn *badger.Txn) error {
		itOpts := badger.DefaultIteratorOptions
		itOpts.Reverse = true
		itOpts.Prefix = []byte(runKeyPrefix)
		it := txn.NewIterator(itOpts)
		defer it.Close()

		skipped := 0
		// Reverse iteration must seek past the end of the prefix range
		for it.Seek([]byte(runKeyPrefix + "\xff")); it.ValidForPrefix([]byte(runKeyPrefix)); it.Next() {
			if skipped < offset {
				skipped++
				continue
			}
			if len(records) >= limit {
				break
			}

			var record models.RunRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err != nil {
				s.logger.Warn("Skipping undecodable run record",
					zap.ByteString("key", it.Item().KeyCopy(nil)),
					zap.Error(err))
				continue
			}
			records = append(records, &record)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	return records, nil
}

// Count returns the number of stored run records
func (s *Store) Count() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		itOpts := badger.DefaultIteratorOptions
		itOpts.PrefetchValues = false
		itOpts.Prefix = []byte(runKeyPrefix)
		it := txn.NewIterator(itOpts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix([]byte(runKeyPrefix)); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return count, nil
}

// Close stops the GC loop and closes the database
func (s *Store) Close() error {
	close(s.gcStop)
	s.gcWG.Wait()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close history database: %w", err)
	}
	return nil
}
