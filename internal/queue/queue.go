// Package queue provides the durable offline transaction queue.
//
// The queue lives under a single store key holding a JSON array. Every
// mutation reads the full list, changes it in memory, and writes the full
// list back; there is no append-only or partial persistence format.
package queue

import (
	"encoding/json"
	"sync"

	"github.com/eparkir/setoran/internal/logging"
	"github.com/eparkir/setoran/internal/models"
	"github.com/eparkir/setoran/internal/store"
)

// Key is the store key holding the serialized queue.
const Key = "offline_transactions"

// Store is the offline queue over the durable key/value store.
// All mutations are serialized by an internal lock, so each read-then-write
// sequence is atomic with respect to the others.
type Store struct {
	mu sync.Mutex
	kv *store.KV
}

// New creates a queue Store over kv.
func New(kv *store.KV) *Store {
	return &Store{kv: kv}
}

// load reads and parses the stored list. Corrupt content is discarded and
// treated as an empty queue rather than surfaced as an error.
func (s *Store) load() ([]models.PendingTransaction, error) {
	value, ok, err := s.kv.Get(Key)
	if err != nil {
		return nil, err
	}
	if !ok || value == "" {
		return nil, nil
	}

	var items []models.PendingTransaction
	if err := json.Unmarshal([]byte(value), &items); err != nil {
		logging.Warn("Discarding corrupt offline queue", logging.Fields{
			"bytes": len(value),
		})
		if delErr := s.kv.Delete(Key); delErr != nil {
			return nil, delErr
		}
		return nil, nil
	}
	return items, nil
}

func (s *Store) save(items []models.PendingTransaction) error {
	if items == nil {
		items = []models.PendingTransaction{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return s.kv.Set(Key, string(data))
}

// Enqueue appends tx to the queue. A rejected durable write (quota exceeded,
// storage failure) propagates to the caller and leaves the stored queue, and
// therefore the observable count, unchanged.
func (s *Store) Enqueue(tx models.PendingTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return err
	}
	items = append(items, tx)
	if err := s.save(items); err != nil {
		return err
	}

	logging.Info("Enqueued offline transaction", logging.Fields{
		"id":      tx.ID,
		"pending": len(items),
	})
	return nil
}

// Snapshot returns a point-in-time copy of the queue in FIFO order.
func (s *Store) Snapshot() ([]models.PendingTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]models.PendingTransaction, len(items))
	copy(out, items)
	return out, nil
}

// Reconcile replaces the queue after a sync pass: retained holds the items
// from snapshot that failed to submit, in their original relative order.
// Items enqueued after the snapshot was taken are preserved behind them, so
// a pass never drops a transaction it did not process.
func (s *Store) Reconcile(snapshot, retained []models.PendingTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	processed := make(map[string]bool, len(snapshot))
	for _, tx := range snapshot {
		processed[tx.ID] = true
	}

	current, err := s.load()
	if err != nil {
		return err
	}

	next := make([]models.PendingTransaction, 0, len(retained))
	next = append(next, retained...)
	for _, tx := range current {
		if !processed[tx.ID] {
			next = append(next, tx)
		}
	}

	return s.save(next)
}

// Count returns the number of pending transactions.
func (s *Store) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// Clear removes every pending transaction.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kv.Delete(Key)
}
