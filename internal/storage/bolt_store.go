package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	readingBucket    = "readings"
	expiryValueBytes = 8
)

var errBucketMissing = errors.New("reading bucket missing")

// boltStore implements a Store backed by BoltDB. Values are big-endian unix
// expiry times keyed by reading ID.
type boltStore struct {
	db              *bolt.DB
	now             func() time.Time
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	readingTTL      time.Duration
	cleanupInterval time.Duration
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (*boltStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(readingBucket))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	store := &boltStore{
		db:              db,
		now:             time.Now,
		readingTTL:      opts.ReadingTTL,
		cleanupInterval: opts.CleanupInterval,
	}
	store.lastCleanup.Store(store.now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// SeenReading reports whether id was marked and has not expired yet.
// An expired entry is removed on lookup.
func (b *boltStore) SeenReading(id string) (bool, error) {
	if b == nil || b.db == nil {
		return false, nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return false, err
	}

	key := []byte(id)
	var (
		found   bool
		expired bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(readingBucket))
		if bucket == nil {
			return errBucketMissing
		}
		value := bucket.Get(key)
		if value == nil {
			return nil
		}
		found = true
		expiry, ok := decodeExpiry(value)
		expired = !ok || !expiry.After(now)
		return nil
	})
	if err != nil || !found {
		return false, err
	}
	if !expired {
		return true, nil
	}

	return false, b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(readingBucket))
		if bucket == nil {
			return errBucketMissing
		}
		return bucket.Delete(key)
	})
}

// MarkReading records the reading ID with an expiry of now + TTL.
func (b *boltStore) MarkReading(id string) error {
	if b == nil || b.db == nil {
		return nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(readingBucket))
		if bucket == nil {
			return errBucketMissing
		}
		return bucket.Put([]byte(id), encodeExpiry(now.Add(b.readingTTL)))
	})
}

// maybeCleanupExpired removes expired reading IDs once per cleanup interval.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	if now.Sub(time.Unix(b.lastCleanup.Load(), 0)) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	if now.Sub(time.Unix(b.lastCleanup.Load(), 0)) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(readingBucket))
		if bucket == nil {
			return errBucketMissing
		}

		// Deleting through the cursor mid-iteration can skip keys, so collect first.
		var expired [][]byte
		err := bucket.ForEach(func(k, v []byte) error {
			if expiry, ok := decodeExpiry(v); !ok || !expiry.After(now) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range expired {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

func encodeExpiry(t time.Time) []byte {
	buf := make([]byte, expiryValueBytes)
	binary.BigEndian.PutUint64(buf, uint64(t.Unix()))
	return buf
}

func decodeExpiry(value []byte) (time.Time, bool) {
	if len(value) != expiryValueBytes {
		return time.Time{}, false
	}
	unix := int64(binary.BigEndian.Uint64(value))
	if unix <= 0 {
		return time.Time{}, false
	}
	return time.Unix(unix, 0), true
}
