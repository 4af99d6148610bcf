package repo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tbourn/go-batchcode-backend/internal/domain"
)

func TestOpenSQLite_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codes.db")
	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = Close(db) })

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("db file should exist: %v", err)
	}
}

func TestOpenSQLite_MissingParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "codes.db")
	if _, err := OpenSQLite(path); err == nil {
		t.Fatalf("expected error for missing parent directory")
	}
}

func TestAutoMigrate_Idempotent(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "codes.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = Close(db) })

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("first AutoMigrate: %v", err)
	}
	// Second run must not fail or duplicate schema.
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("second AutoMigrate: %v", err)
	}

	if !db.Migrator().HasTable(&domain.BatchCode{}) || !db.Migrator().HasTable(&domain.WebhookLog{}) {
		t.Fatalf("expected both tables after migration")
	}
}

func TestClose_Idempotent(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "codes.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := Close(db); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := Close(db); err != nil {
		t.Fatalf("second Close should be a no-op: %v", err)
	}
}
