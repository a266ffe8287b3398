package db

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

const failedToInitDB = "Failed to initialize database: %v"

func TestSetLogger(t *testing.T) {
	logger := zerolog.New(os.Stdout).Level(zerolog.InfoLevel)
	SetLogger(logger)
}

func TestNewSQLite(t *testing.T) {
	db := NewSQLite(":memory:")

	if db == nil {
		t.Fatal("Expected non-nil SQLite instance")
	}
	if db.conn != nil {
		t.Error("Expected connection to be nil initially")
	}
	if err := db.Close(); err != nil {
		t.Errorf("Expected closing an unopened handle to succeed, got %v", err)
	}
}

func TestSQLiteBasicOperations(t *testing.T) {
	SetLogger(zerolog.Nop())

	db := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	defer db.Close()

	t.Run("InitDB creates kv table", func(t *testing.T) {
		if err := db.InitDB(); err != nil {
			t.Fatalf(failedToInitDB, err)
		}
		if err := db.Get().Ping(); err != nil {
			t.Errorf("Failed to ping database: %v", err)
		}

		var name string
		row := db.QueryRow(context.Background(), "SELECT name FROM sqlite_master WHERE type='table' AND name=?", "kv")
		if err := row.Scan(&name); err != nil {
			t.Fatalf("Expected kv table to exist: %v", err)
		}
	})

	t.Run("Verify kv schema", func(t *testing.T) {
		rows, err := db.Get().Query("PRAGMA table_info(kv)")
		if err != nil {
			t.Fatalf("Failed to get kv table info: %v", err)
		}
		defer rows.Close()

		columns := make(map[string]bool)
		for rows.Next() {
			var cid int
			var name, dataType string
			var notNull, pk int
			var defaultValue sql.NullString

			if err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultValue, &pk); err != nil {
				t.Errorf("Failed to scan column info: %v", err)
				continue
			}
			columns[name] = true
		}

		for _, col := range []string{"key", "value", "modified_at"} {
			if !columns[col] {
				t.Errorf("Expected kv table to have column %s", col)
			}
		}
	})

	t.Run("Exec and QueryRow", func(t *testing.T) {
		ctx := context.Background()
		res, err := db.Exec(ctx, "INSERT INTO kv (key, value) VALUES (?, ?)", "k", []byte("v"))
		if err != nil {
			t.Fatalf("Failed to insert: %v", err)
		}
		if n, _ := res.RowsAffected(); n != 1 {
			t.Errorf("Expected 1 row affected, got %d", n)
		}

		var value []byte
		if err := db.QueryRow(ctx, "SELECT value FROM kv WHERE key = ?", "k").Scan(&value); err != nil {
			t.Fatalf("Failed to read back: %v", err)
		}
		if string(value) != "v" {
			t.Errorf("Expected 'v', got %q", value)
		}
	})

	t.Run("InitDB is idempotent", func(t *testing.T) {
		again := NewSQLite(db.path)
		defer again.Close()
		if err := again.InitDB(); err != nil {
			t.Fatalf(failedToInitDB, err)
		}
	})
}

func TestInitDBBadPath(t *testing.T) {
	db := NewSQLite(filepath.Join(t.TempDir(), "missing", "dir", "test.db"))
	if err := db.InitDB(); err == nil {
		db.Close()
		t.Fatal("Expected error opening a database in a missing directory")
	}
}
