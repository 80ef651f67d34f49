// Package badger implements the cache backend on an embedded Badger database, for single
// instance deployments without Redis.
package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/kailas-cloud/searchc/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// memberSep separates a set key from its members. Set members are stored as one entry each.
const memberSep = "\x00"

// Config holds the database location. An empty Path opens an in-memory database.
type Config struct {
	Path string
}

// Store implements db.Store on Badger.
type Store struct {
	db *badgerdb.DB
}

// NewStore opens the database.
func NewStore(cfg Config) (*Store, error) {
	opts := badgerdb.DefaultOptions(cfg.Path)
	opts.Logger = nil
	if cfg.Path == "" {
		opts = opts.WithInMemory(true)
	}
	return open(opts)
}

func open(opts badgerdb.Options) (*Store, error) {
	bdb, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	return &Store{db: bdb}, nil
}

// Ping reports whether the database is open.
func (s *Store) Ping(_ context.Context) error {
	if s.db.IsClosed() {
		return &db.Error{Op: db.OpPing, Err: db.ErrClosed}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() {
	_ = s.db.Close()
}

// WaitForReady returns at once: an embedded database is ready when it is open.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

// Get retrieves a value by key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, db.ErrKeyNotFound
	}
	if err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return out, nil
}

// Set stores a value at the given key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// SetWithTTL stores a value with an expiration.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.SetEntry(badgerdb.NewEntry([]byte(key), value).WithTTL(ttl))
	})
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// Del removes keys, set members included. Missing keys are ignored. Deletes go through a
// write batch, which commits as often as needed to stay under the transaction size limit.
func (s *Store) Del(_ context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	var targets [][]byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		for _, key := range keys {
			targets = append(targets, []byte(key))
			targets = append(targets, keysWithPrefix(txn, []byte(key+memberSep))...)
		}
		return nil
	})
	if err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}

	wb := s.db.NewWriteBatch()
	for _, k := range targets {
		if err := wb.Delete(k); err != nil {
			wb.Cancel()
			return &db.Error{Op: db.OpDel, Err: err}
		}
	}
	if err := wb.Flush(); err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

// Expire rewrites the entry at key (or the members of the set at key) with a new TTL.
func (s *Store) Expire(_ context.Context, key string, ttl time.Duration) error {
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(key))
		switch {
		case err == nil:
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			return txn.SetEntry(badgerdb.NewEntry([]byte(key), val).WithTTL(ttl))
		case !errors.Is(err, badgerdb.ErrKeyNotFound):
			return err
		}
		for _, member := range membersInTxn(txn, key) {
			if err := txn.SetEntry(badgerdb.NewEntry([]byte(key+memberSep+member), nil).WithTTL(ttl)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &db.Error{Op: db.OpExpire, Err: err}
	}
	return nil
}

// SAdd adds members to the set at key.
func (s *Store) SAdd(_ context.Context, key string, members ...string) error {
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		for _, m := range members {
			if err := txn.Set([]byte(key+memberSep+m), nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &db.Error{Op: db.OpSAdd, Err: err}
	}
	return nil
}

// SMembers returns the members of the set at key in key order.
func (s *Store) SMembers(_ context.Context, key string) ([]string, error) {
	var out []string
	err := s.db.View(func(txn *badgerdb.Txn) error {
		out = membersInTxn(txn, key)
		return nil
	})
	if err != nil {
		return nil, &db.Error{Op: db.OpSMembers, Err: err}
	}
	return out, nil
}

// SetNX stores value at key with ttl unless the key exists. A concurrent writer winning the
// transaction counts as the key existing.
func (s *Store) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	acquired := false
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		_, err := txn.Get([]byte(key))
		if err == nil {
			return nil
		}
		if !errors.Is(err, badgerdb.ErrKeyNotFound) {
			return err
		}
		if err := txn.SetEntry(badgerdb.NewEntry([]byte(key), value).WithTTL(ttl)); err != nil {
			return err
		}
		acquired = true
		return nil
	})
	if errors.Is(err, badgerdb.ErrConflict) {
		return false, nil
	}
	if err != nil {
		return false, &db.Error{Op: db.OpSetNX, Err: err}
	}
	return acquired, nil
}

func membersInTxn(txn *badgerdb.Txn, key string) []string {
	prefix := []byte(key + memberSep)
	opts := badgerdb.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false

	it := txn.NewIterator(opts)
	defer it.Close()

	var out []string
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		out = append(out, string(it.Item().Key()[len(prefix):]))
	}
	return out
}

func keysWithPrefix(txn *badgerdb.Txn, prefix []byte) [][]byte {
	opts := badgerdb.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false

	it := txn.NewIterator(opts)
	defer it.Close()

	var out [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		out = append(out, it.Item().KeyCopy(nil))
	}
	return out
}
