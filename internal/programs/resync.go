package programs

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songbook/internal/archive"
	"github.com/desertthunder/songbook/internal/models"
	"github.com/desertthunder/songbook/internal/repositories"
	"github.com/desertthunder/songbook/internal/shared"
)

// ResyncOutcome reports one program that resync would write or wrote.
type ResyncOutcome struct {
	Title        string
	Added        int
	Placeholders []string
	Missing      []string
	Applied      bool
}

// Resynchronizer re-resolves existing programs from their source files.
//
// Resync exists for the gap between imports: a program file may reference
// songs that did not exist when the program was first imported. Once those
// songs arrive, resync replaces the program's reference lists wholesale with
// a fresh resolution of the same file.
type Resynchronizer struct {
	programs *repositories.ProgramRepository
	resolver *Resolver
	logger   *log.Logger
}

// NewResynchronizer creates a Resynchronizer using the given resolver.
func NewResynchronizer(programRepo *repositories.ProgramRepository, resolver *Resolver, logger *log.Logger) *Resynchronizer {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Resynchronizer{programs: programRepo, resolver: resolver, logger: logger}
}

// ResyncFile re-resolves one program file against the current library.
//
// Files that parse to nothing, and files whose derived title has no existing
// program row, are skipped with a nil outcome; resync never creates programs.
// A program whose fresh resolution adds no references and needs no
// placeholders is also skipped, so repeated resyncs of a settled library
// write nothing.
func (s *Resynchronizer) ResyncFile(ctx context.Context, file archive.File, dryRun bool, createdBy string) (*ResyncOutcome, error) {
	parsed := Parse(string(file.Data))
	if parsed.Empty() {
		s.logger.Debug("skipping empty program file", "file", file.Name)
		return nil, nil
	}

	title := DeriveTitle(file.Name, parsed.Title)
	existing, err := s.programs.GetByTitle(title)
	if errors.Is(err, shared.ErrProgramNotFound) {
		s.logger.Debug("no program to resync", "title", title)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	resolution, err := s.resolver.Resolve(ctx, parsed.Items, ResolveOpts{
		DryRun:           dryRun,
		ReuseSubprograms: true,
		CreatedBy:        createdBy,
	})
	if err != nil {
		return nil, err
	}

	added := resolution.RefCount() - existing.RefCount()
	wouldWrite := added != 0 ||
		len(resolution.Placeholders) > 0 ||
		(dryRun && len(resolution.Missing) > 0)
	if !wouldWrite {
		s.logger.Debug("program already in sync", "title", title)
		return nil, nil
	}

	outcome := &ResyncOutcome{
		Title:        title,
		Added:        added,
		Placeholders: resolution.Placeholders,
		Missing:      resolution.Missing,
	}

	if dryRun {
		return outcome, nil
	}

	err = s.programs.ReplaceRefs(existing.ID(), models.RefIDs(resolution.Elements), models.RefIDs(resolution.Programs))
	if err != nil {
		return nil, err
	}
	outcome.Applied = true

	s.logger.Info("resynced program", "title", title, "added", added, "placeholders", len(resolution.Placeholders))
	return outcome, nil
}
