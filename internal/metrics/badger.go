package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/dgraph-io/badger/v4"
)

const analysisKeyPrefix = "analysis:"

// BadgerStore keeps analysis records as JSON values keyed by thread, time
// and run id, so a prefix scan over one thread is chronological.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens the Badger directory at path
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(expandPath(path)).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	return &BadgerStore{db: db}, nil
}

// NewInMemoryBadgerStore opens a Badger instance without a data directory
func NewInMemoryBadgerStore() (*BadgerStore, error) {
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	return &BadgerStore{db: db}, nil
}

// runIndexKey maps a run id to its record key
func runIndexKey(runID string) []byte {
	return []byte("run:" + runID)
}

func recordKey(r Record) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d:%s", analysisKeyPrefix, r.Key.ThreadID, r.CreatedAt.UnixNano(), r.Key.RunID))
}

// Save writes a record, replacing any earlier record with the same run id
func (s *BadgerStore) Save(ctx context.Context, record Record) error {
	record.CreatedAt = record.CreatedAt.UTC()
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	key := recordKey(record)
	err = s.db.Update(func(txn *badger.Txn) error {
		index := runIndexKey(record.Key.RunID)
		item, err := txn.Get(index)
		switch {
		case err == nil:
			previous, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := txn.Delete(previous); err != nil {
				return err
			}
		case err != badger.ErrKeyNotFound:
			return err
		}

		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set(index, key)
	})
	if err != nil {
		return fmt.Errorf("failed to save analysis %s: %w", record.Key.RunID, err)
	}
	return nil
}

// Query scans the thread prefix (or every record) and returns matches newest first
func (s *BadgerStore) Query(ctx context.Context, filter Filter) ([]Record, error) {
	prefix := []byte(analysisKeyPrefix)
	if filter.ThreadID != "" {
		prefix = []byte(analysisKeyPrefix + filter.ThreadID + ":")
	}

	var records []Record
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var r Record
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			})
			if err != nil {
				return fmt.Errorf("corrupt record %s: %w", it.Item().Key(), err)
			}
			if filter.matches(r) {
				records = append(records, r)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(records, func(a, b Record) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if filter.Limit > 0 && len(records) > filter.Limit {
		records = records[:filter.Limit]
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// Close closes the BadgerDB instance
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
