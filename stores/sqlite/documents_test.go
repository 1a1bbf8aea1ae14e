package sqlite

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pdfsync-server/core"
)

func TestMain(m *testing.M) {
	if !CGOEnabled {
		fmt.Println("skipping sqlite store tests: CGO disabled")
		os.Exit(0)
	}

	os.Exit(m.Run())
}

func setupTestDB(t *testing.T) *documentStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store := NewDocumentStore(dbPath).(*documentStore)
	return store
}

func TestNewDocumentStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store := NewDocumentStore(dbPath)

	if store == nil {
		t.Fatal("NewDocumentStore() returned nil")
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("NewDocumentStore() did not create database file")
	}
}

func TestNewDocumentStore_TableCreated(t *testing.T) {
	store := setupTestDB(t)

	var tableName string
	err := store.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='documents'").Scan(&tableName)
	if err != nil {
		t.Fatalf("documents table not created: %v", err)
	}
}

func TestCreateAndFind_Roundtrip(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	testData := "%PDF-1.4 sqlite data"
	doc := &core.Document{
		Data: *bytes.NewBufferString(testData),
	}

	id, err := store.Create(ctx, doc)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if len(id) != 26 {
		t.Errorf("Create() returned invalid ID length: got %d, want 26", len(id))
	}

	found, err := store.FindID(ctx, id)
	if err != nil {
		t.Fatalf("FindID() failed: %v", err)
	}
	if found.Data.String() != testData {
		t.Errorf("Data mismatch: got %q, want %q", found.Data.String(), testData)
	}
}

func TestFindID_NotFound(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	_, err := store.FindID(ctx, "nonexistent")
	if err == nil {
		t.Fatal("FindID() did not fail for unknown id")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("Error message mismatch: got %q", err.Error())
	}
}

func TestCreate_BinaryData(t *testing.T) {
	store := setupTestDB(t)
	ctx := context.Background()

	binary := []byte{0x25, 0x50, 0x44, 0x46, 0x00, 0x01, 0xFF, 0xFE}
	doc := &core.Document{
		Data: *bytes.NewBuffer(binary),
	}

	id, err := store.Create(ctx, doc)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	found, err := store.FindID(ctx, id)
	if err != nil {
		t.Fatalf("FindID() failed: %v", err)
	}
	if !bytes.Equal(found.Data.Bytes(), binary) {
		t.Errorf("Binary data mismatch: got %v, want %v", found.Data.Bytes(), binary)
	}
}
