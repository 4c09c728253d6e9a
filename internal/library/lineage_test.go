package library

import (
	"context"
	"testing"
	"time"
)

func TestEnsureSong(t *testing.T) {
	ctx := context.Background()

	t.Run("creates when absent", func(t *testing.T) {
		f := setupFixture(t)

		song, err := f.lineage.EnsureSong(ctx, "new_song_title", "tester")
		if err != nil {
			t.Fatalf("EnsureSong failed: %v", err)
		}
		if song.Title() != "new song title" {
			t.Errorf("expected normalized title, got %q", song.Title())
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		f := setupFixture(t)

		first, err := f.lineage.EnsureSong(ctx, "Brighter Than Today", "tester")
		if err != nil {
			t.Fatalf("EnsureSong failed: %v", err)
		}
		second, err := f.lineage.EnsureSong(ctx, "brighter_than_today", "tester")
		if err != nil {
			t.Fatalf("second EnsureSong failed: %v", err)
		}
		if first.ID() != second.ID() {
			t.Error("expected both calls to return the same song")
		}
	})
}

func TestAppend(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)

	t.Run("chain grows from tip", func(t *testing.T) {
		f := setupFixture(t)
		song, err := f.lineage.EnsureSong(ctx, "Lineage Song", "tester")
		if err != nil {
			t.Fatalf("EnsureSong failed: %v", err)
		}

		const n = 4
		var lastID string
		for i := 0; i < n; i++ {
			v, err := f.lineage.Append(ctx, song.ID(), "lineage song", "revision", "", "tester", base.Add(time.Duration(i)*time.Hour))
			if err != nil {
				t.Fatalf("Append %d failed: %v", i, err)
			}
			if v.PreviousVersionID() != lastID {
				t.Errorf("version %d: expected previous %q, got %q", i, lastID, v.PreviousVersionID())
			}
			lastID = v.ID()
		}

		// Following previousVersionID from the tip visits exactly n versions.
		tip, err := f.versions.LatestBySongID(song.ID())
		if err != nil {
			t.Fatalf("LatestBySongID failed: %v", err)
		}
		count := 0
		for cursor := tip; ; {
			count++
			if cursor.PreviousVersionID() == "" {
				break
			}
			cursor, err = f.versions.Get(cursor.PreviousVersionID())
			if err != nil {
				t.Fatalf("failed to walk chain: %v", err)
			}
		}
		if count != n {
			t.Errorf("expected chain of %d versions, got %d", n, count)
		}
	})

	t.Run("nil render queue is safe", func(t *testing.T) {
		f := setupFixture(t)
		song, err := f.lineage.EnsureSong(ctx, "Quiet Song", "tester")
		if err != nil {
			t.Fatalf("EnsureSong failed: %v", err)
		}
		if _, err := f.lineage.Append(ctx, song.ID(), "quiet song", "text", "", "tester", base); err != nil {
			t.Fatalf("Append with nil queue failed: %v", err)
		}
	})
}
