package keyfile

import (
	"context"
	"errors"
	"fmt"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
)

// BadgerStore is a Store backed by an embedded badger database. App-level
// locking (mu) sits on top of badger's own single-writer transactions so
// that Atomic's multi-step sequences are never interleaved with a
// concurrent Set/Delete/Atomic, matching the writer-preference discipline
// the core requires.
type BadgerStore struct {
	mu sync.RWMutex
	db *badger.DB
}

// OpenBadgerStore opens (creating if necessary) a badger database rooted
// at dir.
func OpenBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open keyfile store at %q: %w", dir, err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) Exists(ctx context.Context, key []byte) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found bool
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, Other(fmt.Errorf("check key existence: %w", err))
	}
	return found, nil
}

func (s *BadgerStore) Get(ctx context.Context, key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, NotFound(key)
	}
	if err != nil {
		return nil, Other(fmt.Errorf("get keyfile: %w", err))
	}
	return value, nil
}

func (s *BadgerStore) Set(ctx context.Context, key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
	if err != nil {
		return Other(fmt.Errorf("set keyfile: %w", err))
	}
	return nil
}

func (s *BadgerStore) Delete(ctx context.Context, key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(txn *badger.Txn) error {
		_, getErr := txn.Get(key)
		if errors.Is(getErr, badger.ErrKeyNotFound) {
			return badger.ErrKeyNotFound
		}
		if getErr != nil {
			return getErr
		}
		return txn.Delete(key)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return NotFound(key)
	}
	if err != nil {
		return Other(fmt.Errorf("delete keyfile: %w", err))
	}
	return nil
}

// Atomic runs fn inside one write lock and one badger transaction, so a
// read-delete-set sequence observes a consistent snapshot and no other
// writer can interleave.
func (s *BadgerStore) Atomic(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		return fn(&badgerTx{txn: txn})
	})
}

// badgerTx adapts a badger.Txn to the keyfile.Tx interface.
type badgerTx struct {
	txn *badger.Txn
}

func (t *badgerTx) Exists(key []byte) (bool, error) {
	_, err := t.txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, Other(fmt.Errorf("check key existence: %w", err))
	}
	return true, nil
}

func (t *badgerTx) Get(key []byte) ([]byte, error) {
	item, err := t.txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, NotFound(key)
	}
	if err != nil {
		return nil, Other(fmt.Errorf("get keyfile: %w", err))
	}
	return item.ValueCopy(nil)
}

func (t *badgerTx) Set(key, value []byte) error {
	if err := t.txn.Set(key, value); err != nil {
		return Other(fmt.Errorf("set keyfile: %w", err))
	}
	return nil
}

func (t *badgerTx) Delete(key []byte) error {
	_, err := t.txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return NotFound(key)
	}
	if err != nil {
		return Other(fmt.Errorf("delete keyfile: %w", err))
	}
	if err := t.txn.Delete(key); err != nil {
		return Other(fmt.Errorf("delete keyfile: %w", err))
	}
	return nil
}
