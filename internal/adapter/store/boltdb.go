package store

import (
	"bytes"
	"fmt"

	"go.etcd.io/bbolt"
)

var (
	bucketMeta       = []byte("meta")
	vectorBucketPref = []byte("vectors:")
)

// BoltStore owns the bolt database file shared by collections and schema metadata.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketMeta); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketMeta, err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) DB() *bbolt.DB {
	return s.db
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Collections lists the names of collections stored in the file.
func (s *BoltStore) Collections() ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
			if bytes.HasPrefix(name, vectorBucketPref) {
				names = append(names, string(name[len(vectorBucketPref):]))
			}
			return nil
		})
	})
	return names, err
}

func collectionBucket(collection string) []byte {
	return append(append([]byte{}, vectorBucketPref...), collection...)
}
