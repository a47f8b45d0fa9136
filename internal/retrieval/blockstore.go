package retrieval

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"
)

// Blockstore is a persistent content-addressed block cache backed by badger.
// Content-addressing makes the store append-only and conflict-free: the same
// hash always names the same bytes, so a hit never needs revalidation.
type Blockstore struct {
	db     *badger.DB
	logger *logrus.Logger
}

// OpenBlockstore opens (or creates) the block cache at the given path
func OpenBlockstore(path string, logger *logrus.Logger) (*Blockstore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.ValueLogFileSize = 1024 * 1024 * 100
	opts.SyncWrites = false

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open blockstore at %s: %w", path, err)
	}

	logger.WithField("path", path).Info("Blockstore opened")

	return &Blockstore{
		db:     db,
		logger: logger,
	}, nil
}

// Get returns the cached bytes for a content hash, or (nil, false) on miss
func (b *Blockstore) Get(contentHash string) ([]byte, bool) {
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(contentHash))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if err != badger.ErrKeyNotFound {
			b.logger.WithError(err).WithField("contentHash", contentHash).Warn("Blockstore read failed")
		}
		return nil, false
	}
	return data, true
}

// Put stores the bytes for a content hash. Failures are logged and swallowed:
// the disk tier is an optimization, never a correctness dependency.
func (b *Blockstore) Put(contentHash string, data []byte) {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(contentHash), data)
	})
	if err != nil {
		b.logger.WithError(err).WithField("contentHash", contentHash).Warn("Blockstore write failed")
	}
}

// Has reports whether the store holds content for a hash
func (b *Blockstore) Has(contentHash string) bool {
	err := b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(contentHash))
		return err
	})
	return err == nil
}

// Close closes the underlying badger database
func (b *Blockstore) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}
