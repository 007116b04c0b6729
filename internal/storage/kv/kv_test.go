package kv

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/dokzlo13/dmxconsole/internal/db"
)

func openTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "kv.sqlite"))
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func buckets(t *testing.T) map[string]Bucket {
	database := openTestDB(t)
	return map[string]Bucket{
		"memory": NewMemoryBucket("test"),
		"sqlite": NewSQLiteBucket(database.DB, "test"),
	}
}

func TestBucketStoreGet(t *testing.T) {
	for name, b := range buckets(t) {
		t.Run(name, func(t *testing.T) {
			if err := b.Store("a", map[string]any{"x": 1, "y": "two"}); err != nil {
				t.Fatalf("Store: %v", err)
			}

			v, err := b.Get("a")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			m, ok := v.(map[string]any)
			if !ok {
				t.Fatalf("Get returned %T, want map", v)
			}
			if m["x"] != float64(1) || m["y"] != "two" {
				t.Errorf("Get = %v", m)
			}

			missing, err := b.Get("missing")
			if err != nil || missing != nil {
				t.Errorf("Get(missing) = %v, %v; want nil, nil", missing, err)
			}
		})
	}
}

func TestBucketExistsDelete(t *testing.T) {
	for name, b := range buckets(t) {
		t.Run(name, func(t *testing.T) {
			_ = b.Store("k", true)

			if ok, _ := b.Exists("k"); !ok {
				t.Error("Exists(k) = false after Store")
			}
			if ok, _ := b.Delete("k"); !ok {
				t.Error("Delete(k) = false for existing key")
			}
			if ok, _ := b.Delete("k"); ok {
				t.Error("Delete(k) = true for deleted key")
			}
			if ok, _ := b.Exists("k"); ok {
				t.Error("Exists(k) = true after Delete")
			}
		})
	}
}

func TestBucketReplace(t *testing.T) {
	for name, b := range buckets(t) {
		t.Run(name, func(t *testing.T) {
			_ = b.Store("old", 1)

			if err := b.Replace(map[string]any{"a": 1, "b": 2}); err != nil {
				t.Fatalf("Replace: %v", err)
			}

			keys, err := b.Keys()
			if err != nil {
				t.Fatal(err)
			}
			sort.Strings(keys)
			if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
				t.Errorf("Keys() = %v, want [a b]", keys)
			}

			if err := b.Clear(); err != nil {
				t.Fatal(err)
			}
			if keys, _ := b.Keys(); len(keys) != 0 {
				t.Errorf("Keys() after Clear = %v", keys)
			}
		})
	}
}

func TestSQLiteBucketsAreIsolated(t *testing.T) {
	database := openTestDB(t)
	a := NewSQLiteBucket(database.DB, "a")
	b := NewSQLiteBucket(database.DB, "b")

	_ = a.Store("k", "from-a")
	_ = b.Replace(map[string]any{"other": 1})

	v, _ := a.Get("k")
	if v != "from-a" {
		t.Errorf("bucket a lost its key after replacing bucket b: %v", v)
	}
}

func TestManagerFallsBackToMemory(t *testing.T) {
	m := NewManager(nil)
	b := m.Bucket("scenes", true)
	if b.IsPersistent() {
		t.Error("bucket without database should not be persistent")
	}
	if m.Bucket("scenes", true) != b {
		t.Error("Bucket should return the same instance for the same name")
	}
}
