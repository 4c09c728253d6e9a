package programs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songbook/internal/library"
	"github.com/desertthunder/songbook/internal/models"
	"github.com/desertthunder/songbook/internal/repositories"
	"github.com/desertthunder/songbook/internal/shared"
)

// ResolveOpts controls a single resolution pass.
type ResolveOpts struct {
	// DryRun suppresses every write; rows that would be created surface as
	// simulated refs or missing names instead.
	DryRun bool
	// ReuseSubprograms makes section markers overwrite an existing program
	// with the section's exact title instead of creating a duplicate. Resync
	// always sets this; first import usually does not need it.
	ReuseSubprograms bool
	CreatedBy        string
}

// Resolution is the outcome of resolving one program file's items.
//
// Elements holds refs for top-level song items, Programs one ref per section
// in order of appearance. Section-local song refs live inside the subprogram
// rows, not here, so RefCount matches the program row's stored RefCount.
type Resolution struct {
	Elements     []models.Ref
	Programs     []models.Ref
	Missing      []string
	Placeholders []string
}

// RefCount returns the number of top-level references the resolution produced.
func (r *Resolution) RefCount() int {
	return len(r.Elements) + len(r.Programs)
}

// Resolver turns parsed program items into version and program references.
type Resolver struct {
	songs    *repositories.SongRepository
	versions *repositories.VersionRepository
	programs *repositories.ProgramRepository
	lineage  *library.Lineage
	logger   *log.Logger
}

// NewResolver creates a Resolver over the given repositories. The lineage
// builder is used to create placeholder songs for unknown names.
func NewResolver(songs *repositories.SongRepository, versions *repositories.VersionRepository, programRepo *repositories.ProgramRepository, lineage *library.Lineage, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Resolver{songs: songs, versions: versions, programs: programRepo, lineage: lineage, logger: logger}
}

// songStep is one planned song item. A nil version means nothing matched the
// name and a placeholder is required.
type songStep struct {
	name    string
	version *models.SongVersion
}

// sectionStep is one planned section with its accumulated songs. number is
// the 1-based position among sections, used for act tagging.
type sectionStep struct {
	name     string
	number   int
	existing *models.Program
	songs    []songStep
}

type resolvePlan struct {
	top      []songStep
	sections []*sectionStep
}

// Resolve plans the resolution with reads only, then applies it. Dry-run and
// real mode share the plan verbatim; only the apply step branches, so a
// dry-run preview cannot drift from what a real run would do.
//
// Items are processed strictly in order and never concurrently.
func (r *Resolver) Resolve(ctx context.Context, items []models.ParsedItem, opts ResolveOpts) (*Resolution, error) {
	plan, err := r.plan(items, opts.ReuseSubprograms)
	if err != nil {
		return nil, err
	}
	return r.apply(ctx, plan, opts)
}

func (r *Resolver) plan(items []models.ParsedItem, reuse bool) (*resolvePlan, error) {
	plan := &resolvePlan{}
	var current *sectionStep

	for _, item := range items {
		switch item.Kind {
		case models.SectionItem:
			section := &sectionStep{name: item.Name, number: len(plan.sections) + 1}
			if reuse {
				existing, err := r.programs.GetByTitle(item.Name)
				if err == nil {
					section.existing = existing
				} else if !errors.Is(err, shared.ErrProgramNotFound) {
					return nil, err
				}
			}
			plan.sections = append(plan.sections, section)
			current = section

		case models.SongItem:
			step := songStep{name: item.Name}
			version, err := r.versions.LatestByTitle(item.Name)
			if err == nil {
				step.version = version
			} else if !errors.Is(err, shared.ErrVersionNotFound) {
				return nil, err
			}
			if current != nil {
				current.songs = append(current.songs, step)
			} else {
				plan.top = append(plan.top, step)
			}
		}
	}

	return plan, nil
}

func (r *Resolver) apply(ctx context.Context, plan *resolvePlan, opts ResolveOpts) (*Resolution, error) {
	res := &Resolution{}

	for _, step := range plan.top {
		if ref, ok := r.applySong(ctx, step, 0, opts, res); ok {
			res.Elements = append(res.Elements, ref)
		}
	}

	for _, section := range plan.sections {
		var elements []models.Ref
		for _, step := range section.songs {
			if ref, ok := r.applySong(ctx, step, section.number, opts, res); ok {
				elements = append(elements, ref)
			}
		}

		ref, err := r.applySection(section, elements, opts)
		if err != nil {
			return nil, err
		}
		res.Programs = append(res.Programs, ref)
	}

	return res, nil
}

// applySong resolves one song step into a ref. The returned bool is false
// when nothing can be referenced (missing in dry-run, or creation failed).
func (r *Resolver) applySong(ctx context.Context, step songStep, act int, opts ResolveOpts, res *Resolution) (models.Ref, bool) {
	if step.version != nil {
		if act > 0 && !opts.DryRun {
			if err := r.songs.AddTags(step.version.SongID(), fmt.Sprintf("act %d", act)); err != nil {
				r.logger.Warn("failed to tag song", "title", step.name, "act", act, "error", err)
			}
		}
		return models.ConcreteRef(step.version.ID()), true
	}

	if opts.DryRun {
		res.Missing = append(res.Missing, step.name)
		return models.Ref{}, false
	}

	song, err := r.lineage.EnsureSong(ctx, step.name, opts.CreatedBy)
	if err != nil {
		r.logger.Error("failed to create placeholder song", "title", step.name, "error", err)
		res.Missing = append(res.Missing, step.name)
		return models.Ref{}, false
	}
	version, err := r.lineage.Append(ctx, song.ID(), step.name, "", "", opts.CreatedBy, time.Now())
	if err != nil {
		r.logger.Error("failed to create placeholder version", "title", step.name, "error", err)
		res.Missing = append(res.Missing, step.name)
		return models.Ref{}, false
	}

	res.Placeholders = append(res.Placeholders, step.name)
	return models.ConcreteRef(version.ID()), true
}

// applySection materializes a section's subprogram and returns its ref.
func (r *Resolver) applySection(section *sectionStep, elements []models.Ref, opts ResolveOpts) (models.Ref, error) {
	if opts.DryRun {
		if section.existing != nil {
			return models.ConcreteRef(section.existing.ID()), nil
		}
		return models.SimulatedRef(section.name), nil
	}

	ids := models.RefIDs(elements)

	if section.existing != nil {
		return r.overwriteSection(section.existing, section.name, ids)
	}

	subprogram := models.NewProgram(0, section.name, opts.CreatedBy, true)
	subprogram.SetElementIDs(ids)
	if err := r.programs.Create(subprogram); err != nil {
		// A concurrent run may have created the subprogram first.
		if errors.Is(err, shared.ErrDuplicateTitle) {
			existing, getErr := r.programs.GetByTitle(section.name)
			if getErr != nil {
				return models.Ref{}, fmt.Errorf("failed to recover duplicate subprogram %q: %w", section.name, getErr)
			}
			return r.overwriteSection(existing, section.name, ids)
		}
		return models.Ref{}, fmt.Errorf("failed to create subprogram %q: %w", section.name, err)
	}

	return models.ConcreteRef(subprogram.ID()), nil
}

// overwriteSection replaces an existing subprogram's refs with ids. The write
// is skipped when the row already stores exactly these refs, so re-resolving
// an unchanged file leaves subprogram rows untouched.
func (r *Resolver) overwriteSection(existing *models.Program, name string, ids []string) (models.Ref, error) {
	if sameElementIDs(existing, ids) {
		return models.ConcreteRef(existing.ID()), nil
	}
	if err := r.programs.ReplaceRefs(existing.ID(), ids, nil); err != nil {
		return models.Ref{}, fmt.Errorf("failed to overwrite subprogram %q: %w", name, err)
	}
	return models.ConcreteRef(existing.ID()), nil
}

// sameElementIDs reports whether the program stores exactly these element IDs
// in order and no nested programs.
func sameElementIDs(program *models.Program, ids []string) bool {
	stored := program.ElementIDs()
	if len(program.ProgramIDs()) != 0 || len(stored) != len(ids) {
		return false
	}
	for i := range ids {
		if stored[i] != ids[i] {
			return false
		}
	}
	return true
}

// Flatten returns every element ID reachable from the program, depth-first in
// reference order. The visited set guards against cycles: a program is
// expanded at most once per walk, so even a corrupted self-referencing graph
// terminates.
func (r *Resolver) Flatten(programID string) ([]string, error) {
	return r.flatten(programID, make(map[string]bool))
}

func (r *Resolver) flatten(programID string, visited map[string]bool) ([]string, error) {
	if visited[programID] {
		r.logger.Warn("reference cycle detected, skipping repeat expansion", "program_id", programID)
		return nil, nil
	}
	visited[programID] = true

	program, err := r.programs.Get(programID)
	if err != nil {
		return nil, err
	}

	elements := append([]string{}, program.ElementIDs()...)
	for _, subID := range program.ProgramIDs() {
		nested, err := r.flatten(subID, visited)
		if err != nil {
			return nil, err
		}
		elements = append(elements, nested...)
	}

	return elements, nil
}
