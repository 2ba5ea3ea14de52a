package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rumor-ml/commons.systems/smsledger/internal/domain"
)

func openTestDB(t *testing.T) *SQLite {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "smsledger.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDedupTable_RoundTrip(t *testing.T) {
	table := openTestDB(t).DedupTable()

	firstSeen := time.Date(2024, 12, 20, 10, 0, 0, 0, time.UTC)

	if _, seen, err := table.Get("h1"); err != nil || seen {
		t.Fatalf("Get(unseen) = seen=%v, err=%v", seen, err)
	}

	if err := table.Put("h1", firstSeen); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, seen, err := table.Get("h1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !seen {
		t.Fatal("expected hash to be seen")
	}
	if !got.Equal(firstSeen) {
		t.Errorf("firstSeen = %v, want %v", got, firstSeen)
	}
}

func TestDedupTable_PutKeepsOriginalFirstSeen(t *testing.T) {
	table := openTestDB(t).DedupTable()

	original := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	later := original.Add(48 * time.Hour)

	if err := table.Put("h1", original); err != nil {
		t.Fatal(err)
	}
	if err := table.Put("h1", later); err != nil {
		t.Fatal(err)
	}

	got, _, err := table.Get("h1")
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(original) {
		t.Errorf("firstSeen = %v, want original %v", got, original)
	}
}

func TestDedupTable_DeleteBefore(t *testing.T) {
	table := openTestDB(t).DedupTable()

	now := time.Now()
	if err := table.Put("old", now.Add(-100*24*time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := table.Put("recent", now.Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}

	removed, err := table.DeleteBefore(now.Add(-90 * 24 * time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	if _, seen, _ := table.Get("old"); seen {
		t.Error("old record should be gone")
	}
	if _, seen, _ := table.Get("recent"); !seen {
		t.Error("recent record should remain")
	}
}

func queuedTxn(id string, amount float64) *domain.PersistedTransaction {
	return &domain.PersistedTransaction{
		ParsedTransaction: domain.ParsedTransaction{
			Amount:        amount,
			Type:          domain.TypeDebit,
			Date:          "2024-12-15",
			Time:          "10:30:00",
			SourceContent: "content",
			SourceSender:  "sender",
			Confidence:    0.9,
		},
		ID:        id,
		OwnerID:   "owner-1",
		DedupHash: "hash-" + id,
	}
}

func TestQueueTable_FIFORoundTrip(t *testing.T) {
	table := openTestDB(t).QueueTable()

	for i, id := range []string{"a", "b", "c"} {
		if err := table.Put(queuedTxn(id, float64(100+i))); err != nil {
			t.Fatalf("Put(%s) error = %v", id, err)
		}
	}

	n, err := table.Count()
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Count() = %d, want 3", n)
	}

	txns, err := table.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(txns) != 3 {
		t.Fatalf("List() returned %d records, want 3", len(txns))
	}
	for i, id := range []string{"a", "b", "c"} {
		if txns[i].ID != id {
			t.Errorf("List()[%d].ID = %q, want %q (FIFO order)", i, txns[i].ID, id)
		}
	}
	if txns[0].Amount != 100 || txns[0].OwnerID != "owner-1" {
		t.Errorf("record fields did not round-trip: %+v", txns[0])
	}
}

func TestQueueTable_Delete(t *testing.T) {
	table := openTestDB(t).QueueTable()

	if err := table.Put(queuedTxn("a", 10)); err != nil {
		t.Fatal(err)
	}
	if err := table.Put(queuedTxn("b", 20)); err != nil {
		t.Fatal(err)
	}

	if err := table.Delete("a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	txns, err := table.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(txns) != 1 || txns[0].ID != "b" {
		t.Errorf("List() after delete = %v", txns)
	}

	// Deleting a missing ID is not an error
	if err := table.Delete("missing"); err != nil {
		t.Errorf("Delete(missing) error = %v", err)
	}
}
