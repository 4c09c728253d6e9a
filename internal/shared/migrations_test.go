package shared

import "testing"

func TestLoadMigrations(t *testing.T) {
	migrations, err := loadMigrations()
	if err != nil {
		t.Fatalf("loadMigrations failed: %v", err)
	}
	if len(migrations) == 0 {
		t.Fatal("expected embedded migrations")
	}

	first := migrations[0]
	if first.Version != 0 {
		t.Errorf("expected version 0 first, got %d", first.Version)
	}
	if first.Name != "create_tables" {
		t.Errorf("expected name parsed from filename, got %q", first.Name)
	}
	if first.Up == "" || first.Down == "" {
		t.Error("expected both halves of the script pair")
	}
}

func TestRunMigrations(t *testing.T) {
	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	defer db.Close()

	if err := RunMigrations(db); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}

	// Re-running must be a no-op.
	if err := RunMigrations(db); err != nil {
		t.Fatalf("second RunMigrations failed: %v", err)
	}

	for _, table := range []string{"songs", "song_versions", "programs"} {
		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			t.Errorf("table %s should exist: %v", table, err)
		}
	}

	var value int
	if err := db.QueryRow("SELECT value FROM songs_sequence WHERE id = 1").Scan(&value); err != nil {
		t.Fatalf("songs_sequence should be seeded: %v", err)
	}
	if value != 0 {
		t.Errorf("expected initial sequence value 0, got %d", value)
	}
}

func TestRollbackMigration(t *testing.T) {
	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	defer db.Close()

	if err := RunMigrations(db); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}

	if err := RollbackMigration(db); err != nil {
		t.Fatalf("RollbackMigration failed: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM songs").Scan(&count); err == nil {
		t.Error("songs table should be dropped after rollback")
	}

	if err := RollbackMigration(db); err == nil {
		t.Error("expected error rolling back with no applied migrations")
	}
}
