package track

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testRecord(hash string) *OrderRecord {
	return &OrderRecord{
		OrderHash:   hash,
		ChainID:     1,
		Chain:       "evm",
		SourceToken: "WETH",
		DestToken:   "USDC",
		AmountIn:    "1.5",
		Status:      "pending",
	}
}

func TestStorageCreateAndGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")
	storage, err := NewStorage(path)
	if err != nil {
		t.Fatalf("create storage: %v", err)
	}

	record := testRecord("0xabc")
	if err := storage.Create(record); err != nil {
		t.Fatalf("create record: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file on disk: %v", err)
	}

	got, err := storage.Get("0xabc")
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if got.SourceToken != "WETH" || got.Status != "pending" {
		t.Fatalf("unexpected record: %+v", got)
	}
	if got.Created.IsZero() || got.LastUpdated.IsZero() {
		t.Fatal("timestamps not set on create")
	}

	if err := storage.Create(testRecord("0xabc")); err == nil {
		t.Fatal("expected error for duplicate order hash")
	}
}

func TestStorageCreateRejectsIncomplete(t *testing.T) {
	storage, err := NewStorage(filepath.Join(t.TempDir(), "orders.json"))
	if err != nil {
		t.Fatalf("create storage: %v", err)
	}

	record := testRecord("0xabc")
	record.AmountIn = ""
	if err := storage.Create(record); err == nil {
		t.Fatal("expected error for missing amount")
	}
}

func TestStorageUpdateStatus(t *testing.T) {
	storage, err := NewStorage(filepath.Join(t.TempDir(), "orders.json"))
	if err != nil {
		t.Fatalf("create storage: %v", err)
	}

	if err := storage.Create(testRecord("0xabc")); err != nil {
		t.Fatalf("create record: %v", err)
	}

	if err := storage.UpdateStatus("0xabc", "filled", "0xfilltx"); err != nil {
		t.Fatalf("update status: %v", err)
	}

	got, _ := storage.Get("0xabc")
	if got.Status != "filled" || got.FillTxHash != "0xfilltx" {
		t.Fatalf("unexpected record after update: %+v", got)
	}

	if err := storage.UpdateStatus("0xmissing", "filled", ""); err == nil {
		t.Fatal("expected error for unknown order")
	}
}

func TestStoragePersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")

	storage, err := NewStorage(path)
	if err != nil {
		t.Fatalf("create storage: %v", err)
	}
	if err := storage.Create(testRecord("0xabc")); err != nil {
		t.Fatalf("create record: %v", err)
	}

	reopened, err := NewStorage(path)
	if err != nil {
		t.Fatalf("re-open storage: %v", err)
	}
	if !reopened.Exists("0xabc") {
		t.Fatal("record lost after reopen")
	}
}

func TestStorageListNewestFirst(t *testing.T) {
	storage, err := NewStorage(filepath.Join(t.TempDir(), "orders.json"))
	if err != nil {
		t.Fatalf("create storage: %v", err)
	}

	older := testRecord("0xold")
	older.Created = time.Now().Add(-time.Hour)
	if err := storage.Create(older); err != nil {
		t.Fatalf("create older: %v", err)
	}
	if err := storage.Create(testRecord("0xnew")); err != nil {
		t.Fatalf("create newer: %v", err)
	}

	records := storage.List()
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].OrderHash != "0xnew" {
		t.Fatalf("expected newest first, got %s", records[0].OrderHash)
	}
}
