package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/eparkir/setoran/internal/apperr"
)

func openTestKV(t *testing.T, quota int64) *KV {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "setoran_store_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	kv, err := Open(tmpDir, quota)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { kv.Close() })

	return kv
}

func TestSetGetDelete(t *testing.T) {
	kv := openTestKV(t, 0)

	if _, ok, err := kv.Get("missing"); err != nil || ok {
		t.Fatalf("Expected absent key, got ok=%v err=%v", ok, err)
	}

	if err := kv.Set("offline_transactions", `[]`); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	value, ok, err := kv.Get("offline_transactions")
	if err != nil || !ok {
		t.Fatalf("Get failed: ok=%v err=%v", ok, err)
	}
	if value != `[]` {
		t.Errorf("Expected empty list, got %s", value)
	}

	// Overwrite replaces the whole value.
	if err := kv.Set("offline_transactions", `[{"id":"1"}]`); err != nil {
		t.Fatalf("Overwrite failed: %v", err)
	}
	value, _, _ = kv.Get("offline_transactions")
	if value != `[{"id":"1"}]` {
		t.Errorf("Overwrite did not replace value: %s", value)
	}

	if err := kv.Delete("offline_transactions"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := kv.Get("offline_transactions"); ok {
		t.Error("Expected key to be gone after Delete")
	}

	// Deleting again is fine.
	if err := kv.Delete("offline_transactions"); err != nil {
		t.Errorf("Deleting absent key should not fail: %v", err)
	}
}

func TestQuotaRejectsOversizedValue(t *testing.T) {
	kv := openTestKV(t, 64)

	big := strings.Repeat("x", 65)
	err := kv.Set("offline_transactions", big)
	if !apperr.Is(err, apperr.ErrQuotaExceeded) {
		t.Fatalf("Expected QUOTA_EXCEEDED, got %v", err)
	}

	// The rejected write must not leave anything behind.
	if _, ok, _ := kv.Get("offline_transactions"); ok {
		t.Error("Rejected write must not persist a value")
	}

	// A value at the bound is accepted.
	if err := kv.Set("offline_transactions", strings.Repeat("x", 64)); err != nil {
		t.Errorf("Value at quota bound rejected: %v", err)
	}
}

func TestValuesSurviveReopen(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "setoran_store_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	kv, err := Open(tmpDir, 0)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if err := kv.Set("feedback_muted", "true"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	kv.Close()

	if _, err := os.Stat(filepath.Join(tmpDir, "setoran.db")); err != nil {
		t.Fatalf("Expected database file on disk: %v", err)
	}

	reopened, err := Open(tmpDir, 0)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer reopened.Close()

	value, ok, err := reopened.Get("feedback_muted")
	if err != nil || !ok {
		t.Fatalf("Get after reopen failed: ok=%v err=%v", ok, err)
	}
	if value != "true" {
		t.Errorf("Expected persisted value, got %s", value)
	}
}
