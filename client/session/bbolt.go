package session

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const bucketName = "session"

// BoltStorage is a file-backed Storage so a session survives process
// restarts, the way localStorage survives page loads.
type BoltStorage struct {
	db *bbolt.DB
}

// OpenBoltStorage opens (creating if needed) the session database at path.
func OpenBoltStorage(path string) (*BoltStorage, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create session db directory %s: %w", dir, err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open session db at %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create session bucket: %w", err)
	}

	return &BoltStorage{db: db}, nil
}

func (b *BoltStorage) Get(key string) (string, error) {
	var val []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		val = tx.Bucket([]byte(bucketName)).Get([]byte(key))
		return nil
	})
	if err != nil {
		return "", err
	}
	if val == nil {
		return "", ErrNotFound
	}
	return string(val), nil
}

func (b *BoltStorage) Set(key, value string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(key), []byte(value))
	})
}

func (b *BoltStorage) Delete(key string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Delete([]byte(key))
	})
}

// Close closes the underlying database file.
func (b *BoltStorage) Close() error {
	return b.db.Close()
}
