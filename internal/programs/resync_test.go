package programs

import (
	"context"
	"testing"
	"time"

	"github.com/desertthunder/songbook/internal/archive"
	"github.com/desertthunder/songbook/internal/models"
)

func programFile(name, contents string) archive.File {
	return archive.File{
		Name:      name,
		Label:     name,
		Data:      []byte(contents),
		Timestamp: time.Now().Truncate(time.Second),
	}
}

// importProgram resolves a program file for the first time and stores the
// resulting program row, the way the import pipeline does.
func (f *fixture) importProgram(t *testing.T, file archive.File) *models.Program {
	t.Helper()

	ctx := context.Background()
	parsed := Parse(string(file.Data))
	res, err := f.resolver.Resolve(ctx, parsed.Items, ResolveOpts{CreatedBy: "tester"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	program := models.NewProgram(0, DeriveTitle(file.Name, parsed.Title), "tester", false)
	program.SetElementIDs(models.RefIDs(res.Elements))
	program.SetProgramIDs(models.RefIDs(res.Programs))
	if err := f.programs.Create(program); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return program
}

func TestResyncFile(t *testing.T) {
	ctx := context.Background()

	t.Run("skips files with no program row", func(t *testing.T) {
		f := setupFixture(t)

		outcome, err := f.resync.ResyncFile(ctx, programFile("unknown.list", "Some Song\n"), false, "tester")
		if err != nil {
			t.Fatalf("ResyncFile failed: %v", err)
		}
		if outcome != nil {
			t.Errorf("expected skip, got %+v", outcome)
		}
	})

	t.Run("skips empty files", func(t *testing.T) {
		f := setupFixture(t)

		outcome, err := f.resync.ResyncFile(ctx, programFile("empty.list", "\n{Title Only}\n"), false, "tester")
		if err != nil {
			t.Fatalf("ResyncFile failed: %v", err)
		}
		if outcome != nil {
			t.Errorf("expected skip, got %+v", outcome)
		}
	})

	t.Run("settled program is a no-op", func(t *testing.T) {
		f := setupFixture(t)
		f.addSong(t, "Song A")
		f.addSong(t, "Song B")
		file := programFile("service.list", "Song A\nSong B\n")
		program := f.importProgram(t, file)
		before, err := f.programs.Get(program.ID())
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}

		outcome, err := f.resync.ResyncFile(ctx, file, false, "tester")
		if err != nil {
			t.Fatalf("ResyncFile failed: %v", err)
		}
		if outcome != nil {
			t.Errorf("expected no-op for settled program, got %+v", outcome)
		}

		after, err := f.programs.Get(program.ID())
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !after.UpdatedAt().Equal(before.UpdatedAt()) {
			t.Error("no-op resync must not touch the row")
		}
	})

	t.Run("settled sectioned program leaves subprogram rows untouched", func(t *testing.T) {
		f := setupFixture(t)
		f.addSong(t, "Song A")
		f.addSong(t, "Song B")
		file := programFile("service.list", "Song A\n#Act One\nSong B\n")
		f.importProgram(t, file)

		sub, err := f.programs.GetByTitle("Act One")
		if err != nil {
			t.Fatalf("GetByTitle failed: %v", err)
		}
		before, err := f.programs.Get(sub.ID())
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}

		// Resolution re-visits the subprogram on every pass, so a skipped
		// parent must also mean zero subprogram writes. Twice, to cover a
		// first pass that settles state and a second that must not.
		for i := 0; i < 2; i++ {
			outcome, err := f.resync.ResyncFile(ctx, file, false, "tester")
			if err != nil {
				t.Fatalf("ResyncFile %d failed: %v", i+1, err)
			}
			if outcome != nil {
				t.Errorf("pass %d: expected no-op, got %+v", i+1, outcome)
			}
		}

		after, err := f.programs.Get(sub.ID())
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !after.UpdatedAt().Equal(before.UpdatedAt()) {
			t.Error("no-op resync must not rewrite subprogram rows")
		}
		if got := after.ElementIDs(); len(got) != 1 {
			t.Errorf("subprogram refs changed: %v", got)
		}
	})

	t.Run("picks up songs imported since", func(t *testing.T) {
		f := setupFixture(t)
		a := f.addSong(t, "Song A")
		file := programFile("service.list", "Song A\nLate Arrival\n")

		// The stored program is short one reference, as happens when a
		// referenced song could not be resolved at first import.
		program := models.NewProgram(0, "service", "tester", false)
		program.SetElementIDs([]string{a})
		if err := f.programs.Create(program); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		late := f.addSong(t, "Late Arrival")

		outcome, err := f.resync.ResyncFile(ctx, file, false, "tester")
		if err != nil {
			t.Fatalf("ResyncFile failed: %v", err)
		}
		if outcome == nil {
			t.Fatal("expected resync to apply")
		}
		if !outcome.Applied {
			t.Error("expected Applied")
		}
		if outcome.Added != 1 {
			t.Errorf("expected 1 added element, got %d", outcome.Added)
		}

		after, err := f.programs.Get(program.ID())
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		got := after.ElementIDs()
		if len(got) != 2 || got[0] != a || got[1] != late {
			t.Errorf("expected refs [%s %s], got %v", a, late, got)
		}
	})

	t.Run("dry-run predicts the write without performing it", func(t *testing.T) {
		f := setupFixture(t)
		f.addSong(t, "Song A")
		file := programFile("service.list", "Song A\n")
		program := f.importProgram(t, file)

		// Grow the file with a song that does not exist yet.
		grown := programFile("service.list", "Song A\nBrand New\n")

		outcome, err := f.resync.ResyncFile(ctx, grown, true, "tester")
		if err != nil {
			t.Fatalf("ResyncFile failed: %v", err)
		}
		if outcome == nil {
			t.Fatal("expected would-resync outcome")
		}
		if outcome.Applied {
			t.Error("dry-run must not apply")
		}
		if len(outcome.Missing) != 1 || outcome.Missing[0] != "Brand New" {
			t.Errorf("expected Brand New reported missing, got %v", outcome.Missing)
		}

		after, err := f.programs.Get(program.ID())
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if after.RefCount() != 1 {
			t.Error("dry-run must not change stored refs")
		}

		// The real run then creates the placeholder and applies.
		real, err := f.resync.ResyncFile(ctx, grown, false, "tester")
		if err != nil {
			t.Fatalf("real ResyncFile failed: %v", err)
		}
		if real == nil || !real.Applied {
			t.Fatal("expected real resync to apply")
		}
		if len(real.Placeholders) != 1 || real.Placeholders[0] != "Brand New" {
			t.Errorf("expected placeholder created, got %v", real.Placeholders)
		}
	})

	t.Run("title override selects the program", func(t *testing.T) {
		f := setupFixture(t)
		f.addSong(t, "Song A")
		file := programFile("december.list", "{Winter Show}\nSong A\n")
		program := f.importProgram(t, file)
		if program.Title() != "december - Winter Show" {
			t.Fatalf("unexpected derived title %q", program.Title())
		}

		f.addSong(t, "Song B")
		grown := programFile("december.list", "{Winter Show}\nSong A\nSong B\n")

		outcome, err := f.resync.ResyncFile(ctx, grown, false, "tester")
		if err != nil {
			t.Fatalf("ResyncFile failed: %v", err)
		}
		if outcome == nil || outcome.Title != "december - Winter Show" {
			t.Fatalf("expected resync against derived title, got %+v", outcome)
		}
	})
}
