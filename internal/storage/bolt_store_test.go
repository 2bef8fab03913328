package storage

import (
	"path/filepath"
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"
)

func TestBoltStoreMarksAndExpiresReadings(t *testing.T) {
	store, err := openBolt(filepath.Join(t.TempDir(), "nested", "readings.db"), Options{
		ReadingTTL:      time.Minute,
		CleanupInterval: time.Hour,
	})
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	defer store.Close()

	now := time.Unix(1_700_000_000, 0)
	store.now = func() time.Time { return now }
	store.lastCleanup.Store(now.Unix())

	seen, err := store.SeenReading("wind-1")
	if err != nil || seen {
		t.Fatalf("expected unseen reading, seen=%v err=%v", seen, err)
	}

	if err := store.MarkReading("wind-1"); err != nil {
		t.Fatalf("MarkReading: %v", err)
	}

	seen, err = store.SeenReading("wind-1")
	if err != nil || !seen {
		t.Fatalf("expected reading marked as seen, got seen=%v err=%v", seen, err)
	}

	now = now.Add(2 * time.Minute)
	seen, err = store.SeenReading("wind-1")
	if err != nil {
		t.Fatalf("SeenReading after expiry: %v", err)
	}
	if seen {
		t.Fatalf("expected entry to expire")
	}
	if n, err := store.count(); err != nil || n != 0 {
		t.Fatalf("expected expired entry removed on lookup, count=%d err=%v", n, err)
	}
}

func TestBoltStoreCleanupSweepsExpired(t *testing.T) {
	store, err := openBolt(filepath.Join(t.TempDir(), "readings.db"), Options{
		ReadingTTL:      time.Minute,
		CleanupInterval: time.Hour,
	})
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	defer store.Close()

	now := time.Unix(1_700_000_000, 0)
	store.now = func() time.Time { return now }
	store.lastCleanup.Store(now.Unix())

	for _, id := range []string{"a", "b", "c"} {
		if err := store.MarkReading(id); err != nil {
			t.Fatalf("MarkReading %s: %v", id, err)
		}
	}

	now = now.Add(2 * time.Hour)
	if err := store.MarkReading("fresh"); err != nil {
		t.Fatalf("MarkReading fresh: %v", err)
	}
	if n, err := store.count(); err != nil || n != 1 {
		t.Fatalf("expected sweep to leave only fresh entry, count=%d err=%v", n, err)
	}
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readings.db")
	store, err := NewStore("bbolt", path, Options{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.MarkReading("persisted"); err != nil {
		t.Fatalf("MarkReading: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewStore("bbolt", path, Options{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	seen, err := reopened.SeenReading("persisted")
	if err != nil || !seen {
		t.Fatalf("expected persisted id, seen=%v err=%v", seen, err)
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.MarkReading("x"); err != nil {
		t.Fatalf("noop store MarkReading: %v", err)
	}
	if seen, _ := store.SeenReading("x"); seen {
		t.Fatalf("noop store should never report seen")
	}
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	if _, err := NewStore("redis", "", Options{}); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
	if _, err := NewStore("bbolt", " ", Options{}); err == nil {
		t.Fatalf("expected error for missing bbolt path")
	}
}

func TestMemoryStoreExpires(t *testing.T) {
	store := newMemoryStore(Options{ReadingTTL: time.Second})
	now := time.Unix(100, 0)
	store.now = func() time.Time { return now }

	if err := store.MarkReading("m"); err != nil {
		t.Fatalf("MarkReading: %v", err)
	}
	if seen, _ := store.SeenReading("m"); !seen {
		t.Fatalf("expected seen before expiry")
	}
	now = now.Add(2 * time.Second)
	if seen, _ := store.SeenReading("m"); seen {
		t.Fatalf("expected expiry")
	}
}

// count returns the number of stored IDs, expired or not.
func (b *boltStore) count() (int, error) {
	var n int
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(readingBucket))
		if bucket == nil {
			return errBucketMissing
		}
		n = bucket.Stats().KeyN
		return nil
	})
	return n, err
}
