package sqlitemigrate

import (
	"database/sql"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	sqlDB, err := sql.Open("sqlite", "file:"+t.TempDir()+"/migrate.db")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return sqlDB
}

// TestApplyMigrationsRunsOnce ensures a migration executes a single time.
func TestApplyMigrationsRunsOnce(t *testing.T) {
	sqlDB := openTestDB(t)
	migrations := fstest.MapFS{
		"0001_create.sql": &fstest.MapFile{
			Data: []byte("CREATE TABLE bans (ipid TEXT PRIMARY KEY);"),
		},
	}

	if err := ApplyMigrations(sqlDB, migrations); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if err := ApplyMigrations(sqlDB, migrations); err != nil {
		t.Fatalf("second apply: %v", err)
	}

	var count int
	if err := sqlDB.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 recorded migration, got %d", count)
	}
}

// TestApplyMigrationsOrdersLexically ensures files run in sorted order.
func TestApplyMigrationsOrdersLexically(t *testing.T) {
	sqlDB := openTestDB(t)
	migrations := fstest.MapFS{
		"0002_insert.sql": &fstest.MapFile{
			Data: []byte("INSERT INTO bans (ipid) VALUES ('123456789012');"),
		},
		"0001_create.sql": &fstest.MapFile{
			Data: []byte("CREATE TABLE bans (ipid TEXT PRIMARY KEY);"),
		},
	}

	if err := ApplyMigrations(sqlDB, migrations); err != nil {
		t.Fatalf("apply: %v", err)
	}

	var ipid string
	if err := sqlDB.QueryRow("SELECT ipid FROM bans").Scan(&ipid); err != nil {
		t.Fatalf("select ban: %v", err)
	}
	if ipid != "123456789012" {
		t.Fatalf("unexpected ipid %q", ipid)
	}
}

// TestApplyMigrationsRequiresDB ensures a nil handle is rejected.
func TestApplyMigrationsRequiresDB(t *testing.T) {
	if err := ApplyMigrations(nil, fstest.MapFS{}); err == nil {
		t.Fatal("expected error for nil db")
	}
}
