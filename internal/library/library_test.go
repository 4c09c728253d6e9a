package library

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/desertthunder/songbook/internal/archive"
	"github.com/desertthunder/songbook/internal/models"
	"github.com/desertthunder/songbook/internal/repositories"
	"github.com/desertthunder/songbook/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

type fixture struct {
	songs    *repositories.SongRepository
	versions *repositories.VersionRepository
	detector *Detector
	lineage  *Lineage
	blobs    *LocalBlobStore
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()

	db := setupTestDB(t)
	t.Cleanup(func() { db.Close() })

	blobs, err := NewLocalBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create blob store: %v", err)
	}

	songs := repositories.NewSongRepository(db)
	versions := repositories.NewVersionRepository(db)

	return &fixture{
		songs:    songs,
		versions: versions,
		detector: NewDetector(versions, blobs),
		lineage:  NewLineage(songs, versions, nil, nil),
		blobs:    blobs,
	}
}

func (f *fixture) importText(t *testing.T, title, label, content string, createdAt time.Time) *models.SongVersion {
	t.Helper()

	song, err := f.lineage.EnsureSong(context.Background(), title, "tester")
	if err != nil {
		t.Fatalf("EnsureSong failed: %v", err)
	}
	version, err := f.lineage.Append(context.Background(), song.ID(), label, content, "", "tester", createdAt)
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	return version
}

func textFile(label, content string, ts time.Time) archive.File {
	return archive.File{
		Name:      label + ".txt",
		Label:     label,
		Data:      []byte(content),
		Timestamp: ts.Truncate(time.Second),
	}
}
