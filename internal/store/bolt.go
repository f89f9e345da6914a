package store

import (
	"encoding/binary"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var handledBucket = []byte("handled_messages")

// Ledger remembers which inbound message ids already got an answer, so a
// redelivered webhook does not produce a second reply.
type Ledger interface {
	// MarkHandled records id and reports whether this is the first time it was seen.
	MarkHandled(id string) (bool, error)
	// Prune forgets ids recorded more than maxAge ago and returns how many were dropped.
	Prune(maxAge time.Duration) (int, error)
	Close() error
}

type BoltStore struct {
	db  *bolt.DB
	now func() time.Time
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(handledBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating handled bucket: %w", err)
	}

	return &BoltStore{db: db, now: time.Now}, nil
}

func (s *BoltStore) MarkHandled(id string) (bool, error) {
	first := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(handledBucket)
		if b.Get([]byte(id)) != nil {
			return nil
		}
		first = true
		return b.Put([]byte(id), encodeTime(s.now()))
	})
	if err != nil {
		return false, err
	}
	return first, nil
}

func (s *BoltStore) Prune(maxAge time.Duration) (int, error) {
	cutoff := s.now().Add(-maxAge)
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(handledBucket)
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			if decodeTime(v).Before(cutoff) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	return removed, err
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func encodeTime(t time.Time) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(t.UnixNano()))
	return buf
}

func decodeTime(b []byte) time.Time {
	if len(b) != 8 {
		return time.Time{}
	}
	return time.Unix(0, int64(binary.BigEndian.Uint64(b)))
}
