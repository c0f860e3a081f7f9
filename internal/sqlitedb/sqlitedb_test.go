package sqlitedb_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	"studyhall/internal/sqlitedb"
)

func TestOpenAppliesMigrationsOnce(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "test.db")
	migrations := fstest.MapFS{
		"0002_add_note.sql": {Data: []byte("ALTER TABLE items ADD COLUMN note TEXT;")},
		"0001_items.sql":    {Data: []byte("CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT NOT NULL);")},
		"README.md":         {Data: []byte("ignored")},
	}

	db, err := sqlitedb.Open(ctx, path, migrations)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if _, err := db.ExecContext(ctx, "INSERT INTO items (name, note) VALUES ('a', 'b')"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db, err = sqlitedb.Open(ctx, path, migrations)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	defer db.Close()

	versions, err := sqlitedb.Versions(ctx, db)
	if err != nil {
		t.Fatalf("Versions returned error: %v", err)
	}
	if len(versions) != 2 || versions[0] != "0001_items" || versions[1] != "0002_add_note" {
		t.Fatalf("unexpected versions %v", versions)
	}
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(1) FROM items").Scan(&count); err != nil || count != 1 {
		t.Fatalf("expected row to survive reopen, count=%d err=%v", count, err)
	}
}

func TestOpenFailsOnBadMigration(t *testing.T) {
	migrations := fstest.MapFS{"0001_bad.sql": {Data: []byte("CREATE TABLE (")}}
	if _, err := sqlitedb.Open(context.Background(), filepath.Join(t.TempDir(), "bad.db"), migrations); err == nil {
		t.Fatal("expected migration error")
	}
}

func TestEveryPooledConnectionEnforcesForeignKeys(t *testing.T) {
	ctx := context.Background()
	migrations := fstest.MapFS{
		"0001_tree.sql": {Data: []byte(`CREATE TABLE parents (id INTEGER PRIMARY KEY);
CREATE TABLE children (id INTEGER PRIMARY KEY, parent_id INTEGER NOT NULL REFERENCES parents(id) ON DELETE CASCADE);`)},
	}
	db, err := sqlitedb.Open(ctx, filepath.Join(t.TempDir(), "fk.db"), migrations)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer db.Close()

	held, err := db.Conn(ctx)
	if err != nil {
		t.Fatalf("Conn: %v", err)
	}
	defer held.Close()

	second, err := db.Conn(ctx)
	if err != nil {
		t.Fatalf("second Conn: %v", err)
	}
	defer second.Close()
	for name, conn := range map[string]*sql.Conn{"held": held, "second": second} {
		var enabled, timeout int
		if err := conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&enabled); err != nil || enabled != 1 {
			t.Fatalf("%s connection foreign_keys=%d err=%v", name, enabled, err)
		}
		if err := conn.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout); err != nil || timeout != 5000 {
			t.Fatalf("%s connection busy_timeout=%d err=%v", name, timeout, err)
		}
	}

	if _, err := second.ExecContext(ctx, "INSERT INTO parents (id) VALUES (1)"); err != nil {
		t.Fatalf("insert parent: %v", err)
	}
	if _, err := second.ExecContext(ctx, "INSERT INTO children (id, parent_id) VALUES (1, 1)"); err != nil {
		t.Fatalf("insert child: %v", err)
	}
	if _, err := second.ExecContext(ctx, "DELETE FROM parents WHERE id = 1"); err != nil {
		t.Fatalf("delete parent: %v", err)
	}
	var orphans int
	if err := held.QueryRowContext(ctx, "SELECT COUNT(*) FROM children").Scan(&orphans); err != nil || orphans != 0 {
		t.Fatalf("expected cascade on a second connection, orphans=%d err=%v", orphans, err)
	}
}
