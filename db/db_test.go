package db_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/harperreed/orgmap/db"
	"github.com/harperreed/orgmap/db/storetest"
	"github.com/harperreed/orgmap/models"
)

func TestOpenDatabase(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "nested", "test.db")

	conn, err := db.OpenDatabase(dbPath)
	if err != nil {
		t.Fatalf("OpenDatabase failed: %v", err)
	}
	defer conn.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}

	var count int
	err = conn.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name IN ('accounts', 'persons')").Scan(&count)
	if err != nil {
		t.Fatalf("Failed to query tables: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected accounts and persons tables, got %d", count)
	}

	var mode string
	if err := conn.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("Failed to query journal mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("Expected WAL mode, got %s", mode)
	}
}

func TestOpenDatabaseInvalidPath(t *testing.T) {
	dbPath := "/invalid/nonexistent/path/that/cannot/be/created/test.db"

	_, err := db.OpenDatabase(dbPath)
	if err == nil {
		t.Errorf("Expected error for invalid path, but OpenDatabase succeeded")
	}
}

func TestInitSchemaIsIdempotent(t *testing.T) {
	conn, err := db.OpenDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenDatabase failed: %v", err)
	}
	defer conn.Close()

	if err := db.InitSchema(conn); err != nil {
		t.Errorf("second InitSchema failed: %v", err)
	}
}

func TestSQLiteStoreConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) db.Store {
		s, err := db.OpenSQLiteStore(filepath.Join(t.TempDir(), "orgmap.db"))
		if err != nil {
			t.Fatalf("OpenSQLiteStore failed: %v", err)
		}
		return s
	})
}

func TestCheckDeletable(t *testing.T) {
	if err := db.CheckDeletable(&models.Person{Email: "a@x.io"}); err != nil {
		t.Errorf("expected leaf to be deletable, got %v", err)
	}
	err := db.CheckDeletable(&models.Person{Email: "a@x.io", Reportees: []string{"b@x.io", "c@x.io"}})
	if err == nil || err.Error() != "cannot delete a@x.io: 2 direct report(s) must be reassigned first: person has direct reports" {
		t.Errorf("unexpected error %v", err)
	}
}
