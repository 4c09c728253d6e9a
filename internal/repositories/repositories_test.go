package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/songbook/internal/models"
	"github.com/desertthunder/songbook/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

// mustCreateSong creates a song or fails the test
func mustCreateSong(t *testing.T, repo *SongRepository, title string) *models.Song {
	t.Helper()
	song := models.NewSong(0, title, "tester")
	if err := repo.Create(song); err != nil {
		t.Fatalf("failed to create song %q: %v", title, err)
	}
	return song
}

// mustCreateVersion appends a version or fails the test
func mustCreateVersion(t *testing.T, repo *VersionRepository, songID, label, content, previousID string, createdAt time.Time) *models.SongVersion {
	t.Helper()
	version := models.NewSongVersion(0, songID, label, "tester", createdAt)
	version.SetContent(content)
	version.SetPreviousVersionID(previousID)
	if err := repo.Create(version); err != nil {
		t.Fatalf("failed to create version %q: %v", label, err)
	}
	return version
}

func TestSongRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		song := mustCreateSong(t, repo, "Brighter Than Today")

		if song.ID() == "" {
			t.Error("song ID should be set after creation")
		}
		if song.Sequence() == 0 {
			t.Error("song sequence should be set after creation")
		}
	})

	t.Run("Create duplicate title", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		mustCreateSong(t, repo, "Brighter Than Today")

		dup := models.NewSong(0, "brighter than today", "tester")
		err := repo.Create(dup)
		if err == nil {
			t.Fatal("expected error creating duplicate title")
		}
		if !errors.Is(err, shared.ErrDuplicateTitle) {
			t.Errorf("expected ErrDuplicateTitle, got %v", err)
		}
	})

	t.Run("GetByTitle normalizes", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		song := mustCreateSong(t, repo, "Time Wrote the Rocks")

		retrieved, err := repo.GetByTitle("time_wrote_the_rocks")
		if err != nil {
			t.Fatalf("GetByTitle failed: %v", err)
		}
		if retrieved.ID() != song.ID() {
			t.Errorf("expected ID %s, got %s", song.ID(), retrieved.ID())
		}
	})

	t.Run("GetByTitle missing", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		_, err := repo.GetByTitle("No Such Song")
		if !errors.Is(err, shared.ErrSongNotFound) {
			t.Errorf("expected ErrSongNotFound, got %v", err)
		}
	})

	t.Run("AddTags merges", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		song := mustCreateSong(t, repo, "Bitter Wind Blown")

		if err := repo.AddTags(song.ID(), "act 1", "song"); err != nil {
			t.Fatalf("AddTags failed: %v", err)
		}
		if err := repo.AddTags(song.ID(), "act 1"); err != nil {
			t.Fatalf("repeat AddTags failed: %v", err)
		}

		retrieved, err := repo.Get(song.ID())
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if len(retrieved.Tags()) != 2 {
			t.Errorf("expected 2 tags, got %v", retrieved.Tags())
		}
	})

	t.Run("Delete archives and frees title", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSongRepository(db)
		song := mustCreateSong(t, repo, "Old Song")

		if err := repo.Delete(song.ID()); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := repo.Get(song.ID()); err == nil {
			t.Error("expected error getting archived song")
		}

		// Archived rows are outside the unique index.
		mustCreateSong(t, repo, "Old Song")
	})
}

func TestVersionRepository(t *testing.T) {
	t.Run("lineage chain", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		songs := NewSongRepository(db)
		versions := NewVersionRepository(db)
		song := mustCreateSong(t, songs, "Five Thousand Years")

		base := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
		v1 := mustCreateVersion(t, versions, song.ID(), "five thousand years", "first", "", base)
		v2 := mustCreateVersion(t, versions, song.ID(), "five thousand years", "second", v1.ID(), base.Add(time.Hour))
		v3 := mustCreateVersion(t, versions, song.ID(), "five thousand years", "third", v2.ID(), base.Add(2*time.Hour))

		tip, err := versions.LatestBySongID(song.ID())
		if err != nil {
			t.Fatalf("LatestBySongID failed: %v", err)
		}
		if tip.ID() != v3.ID() {
			t.Errorf("expected tip %s, got %s", v3.ID(), tip.ID())
		}

		// Walk the chain back to the root.
		count := 0
		for cursor := tip; ; {
			count++
			if cursor.PreviousVersionID() == "" {
				break
			}
			cursor, err = versions.Get(cursor.PreviousVersionID())
			if err != nil {
				t.Fatalf("failed to walk chain: %v", err)
			}
		}
		if count != 3 {
			t.Errorf("expected chain of 3 versions, got %d", count)
		}
	})

	t.Run("LatestByTitle", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		songs := NewSongRepository(db)
		versions := NewVersionRepository(db)
		song := mustCreateSong(t, songs, "Singularity")

		mustCreateVersion(t, versions, song.ID(), "singularity", "text", "", time.Now())

		tip, err := versions.LatestByTitle("singularity")
		if err != nil {
			t.Fatalf("LatestByTitle failed: %v", err)
		}
		if tip.SongID() != song.ID() {
			t.Errorf("expected song %s, got %s", song.ID(), tip.SongID())
		}

		if _, err := versions.LatestByTitle("Unknown"); !errors.Is(err, shared.ErrVersionNotFound) {
			t.Errorf("expected ErrVersionNotFound, got %v", err)
		}
	})

	t.Run("FindByLabels prefers newest", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		songs := NewSongRepository(db)
		versions := NewVersionRepository(db)
		song := mustCreateSong(t, songs, "Uplift")

		base := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
		mustCreateVersion(t, versions, song.ID(), "uplift", "one", "", base)
		newest := mustCreateVersion(t, versions, song.ID(), "uplift_final", "two", "", base.Add(time.Hour))

		found, err := versions.FindByLabels("Uplift", []string{"uplift", "uplift_final"})
		if err != nil {
			t.Fatalf("FindByLabels failed: %v", err)
		}
		if len(found) != 2 {
			t.Fatalf("expected 2 versions, got %d", len(found))
		}
		if found[0].ID() != newest.ID() {
			t.Error("expected newest version first")
		}

		none, err := versions.FindByLabels("Uplift", []string{"other"})
		if err != nil {
			t.Fatalf("FindByLabels failed: %v", err)
		}
		if len(none) != 0 {
			t.Errorf("expected no versions, got %d", len(none))
		}
	})

	t.Run("SetRenderedContent", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		songs := NewSongRepository(db)
		versions := NewVersionRepository(db)
		song := mustCreateSong(t, songs, "Renderable")
		version := mustCreateVersion(t, versions, song.ID(), "renderable", "\\score{}", "", time.Now())

		if err := versions.SetRenderedContent(version.ID(), "<svg/>"); err != nil {
			t.Fatalf("SetRenderedContent failed: %v", err)
		}

		retrieved, err := versions.Get(version.ID())
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if retrieved.RenderedContent() != "<svg/>" {
			t.Errorf("expected rendered content stored, got %q", retrieved.RenderedContent())
		}

		if err := versions.SetRenderedContent("missing-id", "x"); !errors.Is(err, shared.ErrVersionNotFound) {
			t.Errorf("expected ErrVersionNotFound, got %v", err)
		}
	})
}

func TestProgramRepository(t *testing.T) {
	t.Run("Create and GetByTitle", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewProgramRepository(db)
		program := models.NewProgram(0, "Winter Solstice 2024", "tester", false)
		program.SetElementIDs([]string{"v1", "v2"})
		if err := repo.Create(program); err != nil {
			t.Fatalf("failed to create program: %v", err)
		}

		retrieved, err := repo.GetByTitle("Winter Solstice 2024")
		if err != nil {
			t.Fatalf("GetByTitle failed: %v", err)
		}
		if len(retrieved.ElementIDs()) != 2 {
			t.Errorf("expected 2 elements, got %v", retrieved.ElementIDs())
		}

		// Program titles match exactly, unlike song titles.
		if _, err := repo.GetByTitle("winter solstice 2024"); !errors.Is(err, shared.ErrProgramNotFound) {
			t.Errorf("expected ErrProgramNotFound for case mismatch, got %v", err)
		}
	})

	t.Run("ReplaceRefs", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewProgramRepository(db)
		program := models.NewProgram(0, "Act One", "tester", true)
		program.SetElementIDs([]string{"a"})
		if err := repo.Create(program); err != nil {
			t.Fatalf("failed to create program: %v", err)
		}

		if err := repo.ReplaceRefs(program.ID(), []string{"b", "c"}, []string{"sub"}); err != nil {
			t.Fatalf("ReplaceRefs failed: %v", err)
		}

		retrieved, err := repo.Get(program.ID())
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if len(retrieved.ElementIDs()) != 2 || len(retrieved.ProgramIDs()) != 1 {
			t.Errorf("refs not replaced: %v %v", retrieved.ElementIDs(), retrieved.ProgramIDs())
		}

		if err := repo.ReplaceRefs("missing-id", nil, nil); !errors.Is(err, shared.ErrProgramNotFound) {
			t.Errorf("expected ErrProgramNotFound, got %v", err)
		}
	})

	t.Run("List filters subprograms", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewProgramRepository(db)
		top := models.NewProgram(0, "Main", "tester", false)
		sub := models.NewProgram(0, "Section", "tester", true)
		for _, p := range []*models.Program{top, sub} {
			if err := repo.Create(p); err != nil {
				t.Fatalf("failed to create program: %v", err)
			}
		}

		subs, err := repo.List(map[string]any{"is_subprogram": true})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(subs) != 1 || subs[0].Title() != "Section" {
			t.Errorf("expected only subprogram, got %d rows", len(subs))
		}
	})
}
