package tasks

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songbook/internal/archive"
	"github.com/desertthunder/songbook/internal/library"
	"github.com/desertthunder/songbook/internal/models"
	"github.com/desertthunder/songbook/internal/programs"
	"github.com/desertthunder/songbook/internal/repositories"
	"github.com/desertthunder/songbook/internal/shared"
)

// programExts are the playlist file extensions processed by the program and
// resync stages.
var programExts = map[string]bool{".list": true, ".lst": true}

// activityExts are tried in order when matching an allow-list name to a
// speech file before falling back to a prefix scan.
var activityExts = []string{".txt", ".md"}

const (
	defaultSpeechWorkers  = 8
	defaultSongDirWorkers = 4
)

// ImportOpts configures one import run.
type ImportOpts struct {
	// DryRun computes and reports every decision without persisting anything.
	DryRun bool
	// CreatedBy is recorded on created rows; falls back to the configured
	// library creator when empty.
	CreatedBy string
	// OnResult is invoked immediately as each per-item result is computed,
	// before the overall run completes. May be nil.
	OnResult func(ImportResult)
}

// ImportEngine orchestrates the full import pipeline: speeches, activities,
// song directories, program files, then a resync pass.
type ImportEngine struct {
	collector *archive.Collector
	detector  *library.Detector
	lineage   *library.Lineage
	songs     *repositories.SongRepository
	programs  *repositories.ProgramRepository
	resolver  *programs.Resolver
	resync    *programs.Resynchronizer
	blobs     library.BlobStore
	logger    *log.Logger

	mu sync.Mutex // serializes OnResult and progress emission from workers
}

// NewImportEngine creates an ImportEngine over the given collaborators.
func NewImportEngine(
	collector *archive.Collector,
	detector *library.Detector,
	lineage *library.Lineage,
	songs *repositories.SongRepository,
	programRepo *repositories.ProgramRepository,
	resolver *programs.Resolver,
	resync *programs.Resynchronizer,
	blobs library.BlobStore,
	logger *log.Logger,
) *ImportEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &ImportEngine{
		collector: collector,
		detector:  detector,
		lineage:   lineage,
		songs:     songs,
		programs:  programRepo,
		resolver:  resolver,
		resync:    resync,
		blobs:     blobs,
		logger:    logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *ImportEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// emit delivers one computed result to the callback and progress channel.
// Called from worker goroutines, so delivery is serialized.
func (e *ImportEngine) emit(progress chan<- ProgressUpdate, opts ImportOpts, phase Phase, step, total int, result ImportResult) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if opts.OnResult != nil {
		opts.OnResult(result)
	}
	e.sendProgress(progress, itemUpdate(phase, step, total, result))
}

// Run executes the import pipeline against the configured source tree.
//
// Stage order is fixed: speeches, activities, song directories, programs,
// resync. Programs run after songs so references resolve; resync runs last so
// programs see every entity the run created. Item failures are isolated into
// failed results; only infrastructure failures (an unreadable root, a broken
// allow-list) abort the run.
func (e *ImportEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, cfg *shared.Config, opts ImportOpts) (*ImportRunResult, error) {
	if opts.CreatedBy == "" {
		opts.CreatedBy = cfg.Library.CreatedBy
	}

	result := &ImportRunResult{}

	var err error
	if result.Speeches, err = e.runSpeeches(ctx, progress, cfg, opts); err != nil {
		return result, err
	}
	if result.Activities, err = e.runActivities(ctx, progress, cfg, opts); err != nil {
		return result, err
	}
	if result.Songs, err = e.runSongDirs(ctx, progress, cfg, opts); err != nil {
		return result, err
	}
	if result.Programs, err = e.runPrograms(ctx, progress, cfg, opts); err != nil {
		return result, err
	}
	if result.Resyncs, err = e.runResync(ctx, progress, cfg, opts); err != nil {
		return result, err
	}

	return result, nil
}

// Resync runs only the resync stage against the configured program
// directories, outside of a full import run.
func (e *ImportEngine) Resync(ctx context.Context, progress chan<- ProgressUpdate, cfg *shared.Config, opts ImportOpts) ([]ImportResult, error) {
	if opts.CreatedBy == "" {
		opts.CreatedBy = cfg.Library.CreatedBy
	}
	return e.runResync(ctx, progress, cfg, opts)
}

// runSpeeches imports every file in the speeches directory, each under its
// own title, with bounded concurrency.
func (e *ImportEngine) runSpeeches(ctx context.Context, progress chan<- ProgressUpdate, cfg *shared.Config, opts ImportOpts) ([]ImportResult, error) {
	if cfg.Library.SpeechesDir == "" {
		return nil, nil
	}

	files, err := e.collector.Collect(cfg.Library.SpeechesDir)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, stageStartUpdate(ImportSpeeches, len(files), "speeches"))

	workers := cfg.Import.SpeechWorkers
	if workers <= 0 {
		workers = defaultSpeechWorkers
	}

	results := make([]ImportResult, len(files))
	var step int
	runBounded(ctx, workers, len(files), func(i int) {
		f := files[i]
		results[i] = e.importFile(ctx, KindSpeech, f.Label, "speech", f, opts)

		e.mu.Lock()
		step++
		current := step
		e.mu.Unlock()
		e.emit(progress, opts, ImportSpeeches, current, len(files), results[i])
	})

	return results, nil
}

// runActivities re-imports the speech files named by the activities
// allow-list under the activity tag, strictly sequentially.
func (e *ImportEngine) runActivities(ctx context.Context, progress chan<- ProgressUpdate, cfg *shared.Config, opts ImportOpts) ([]ImportResult, error) {
	if cfg.Library.ActivitiesFile == "" {
		return nil, nil
	}

	names, err := shared.ReadAllowList(cfg.Library.ActivitiesFile)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, stageStartUpdate(ImportActivities, len(names), "activities"))

	var results []ImportResult
	for i, name := range names {
		var result ImportResult
		f, err := e.findActivityFile(cfg.Library.SpeechesDir, name)
		if err != nil {
			result = ImportResult{Kind: KindActivity, Title: shared.NormalizeTitle(name), Status: StatusFailed, Err: err}
		} else {
			result = e.importFile(ctx, KindActivity, f.Label, "activity", f, opts)
		}
		results = append(results, result)
		e.emit(progress, opts, ImportActivities, i+1, len(names), result)
	}

	return results, nil
}

// findActivityFile locates the speech file behind an allow-list name: the
// known extensions are tried first, then the directory is scanned for a
// filename prefix match.
func (e *ImportEngine) findActivityFile(dir, name string) (archive.File, error) {
	for _, ext := range activityExts {
		f, err := e.collector.CollectFile(filepath.Join(dir, name+ext))
		if err == nil {
			return f, nil
		}
	}

	match, err := archive.FindByPrefix(dir, name)
	if err != nil {
		return archive.File{}, err
	}
	return e.collector.CollectFile(match)
}

// runSongDirs imports song directories with bounded concurrency. Files within
// one directory are imported strictly in listing order, on the assumption
// that the natural enumeration order approximates the intended version order.
func (e *ImportEngine) runSongDirs(ctx context.Context, progress chan<- ProgressUpdate, cfg *shared.Config, opts ImportOpts) ([]ImportResult, error) {
	if cfg.Library.SongsDir == "" {
		return nil, nil
	}

	dirs, err := e.collector.ListSubdirs(cfg.Library.SongsDir)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, stageStartUpdate(ImportSongs, len(dirs), "song directories"))

	workers := cfg.Import.SongDirWorkers
	if workers <= 0 {
		workers = defaultSongDirWorkers
	}

	perDir := make([][]ImportResult, len(dirs))
	var step int
	runBounded(ctx, workers, len(dirs), func(i int) {
		dir := dirs[i]
		title := shared.NormalizeTitle(filepath.Base(dir))

		files, err := e.collector.Collect(dir)
		if err != nil {
			perDir[i] = []ImportResult{{Kind: KindSong, Title: title, Status: StatusFailed, Err: err}}
		} else {
			for _, f := range files {
				perDir[i] = append(perDir[i], e.importFile(ctx, KindSong, title, "", f, opts))
			}
		}

		e.mu.Lock()
		step++
		current := step
		e.mu.Unlock()
		for _, result := range perDir[i] {
			e.emit(progress, opts, ImportSongs, current, len(dirs), result)
		}
	})

	var results []ImportResult
	for _, batch := range perDir {
		results = append(results, batch...)
	}
	return results, nil
}

// runPrograms imports playlist files strictly sequentially so two section
// markers with the same title cannot race into duplicate subprograms.
func (e *ImportEngine) runPrograms(ctx context.Context, progress chan<- ProgressUpdate, cfg *shared.Config, opts ImportOpts) ([]ImportResult, error) {
	files, err := e.collectProgramFiles(cfg.Library.ProgramDirs)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, stageStartUpdate(ImportPrograms, len(files), "programs"))

	var results []ImportResult
	for i, f := range files {
		result, ok := e.importProgram(ctx, f, opts)
		if !ok {
			continue
		}
		results = append(results, result)
		e.emit(progress, opts, ImportPrograms, i+1, len(files), result)
	}

	return results, nil
}

// runResync re-derives existing programs from the same playlist files, after
// every other stage, so programs pick up entities created during this run.
func (e *ImportEngine) runResync(ctx context.Context, progress chan<- ProgressUpdate, cfg *shared.Config, opts ImportOpts) ([]ImportResult, error) {
	files, err := e.collectProgramFiles(cfg.Library.ProgramDirs)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, resyncStartUpdate(len(files)))

	var results []ImportResult
	for i, f := range files {
		outcome, err := e.resync.ResyncFile(ctx, f, opts.DryRun, opts.CreatedBy)
		if err != nil {
			result := ImportResult{Kind: KindResync, Title: f.Label, Label: f.Label, Status: StatusFailed, Err: err}
			results = append(results, result)
			e.emit(progress, opts, ResyncPrograms, i+1, len(files), result)
			continue
		}
		if outcome == nil {
			continue
		}

		status := StatusWouldResync
		if outcome.Applied {
			status = StatusResynced
		}
		result := ImportResult{
			Kind:         KindResync,
			Title:        outcome.Title,
			Label:        f.Label,
			Status:       status,
			Added:        outcome.Added,
			Missing:      outcome.Missing,
			Placeholders: outcome.Placeholders,
		}
		results = append(results, result)
		e.emit(progress, opts, ResyncPrograms, i+1, len(files), result)
	}

	return results, nil
}

// collectProgramFiles enumerates the playlist files of every program
// directory in order.
func (e *ImportEngine) collectProgramFiles(dirs []string) ([]archive.File, error) {
	var files []archive.File
	for _, dir := range dirs {
		collected, err := e.collector.Collect(dir)
		if err != nil {
			return nil, err
		}
		for _, f := range collected {
			if programExts[strings.ToLower(filepath.Ext(f.Name))] {
				files = append(files, f)
			}
		}
	}
	return files, nil
}

// importFile runs the single-file import path: detect, then apply. Dry-run
// and real mode share the same detection; only the apply step branches.
func (e *ImportEngine) importFile(ctx context.Context, kind ResultKind, title, tag string, f archive.File, opts ImportOpts) ImportResult {
	result := ImportResult{Kind: kind, Title: title, Label: f.Label}

	match, err := e.detector.FindExisting(title, f.Labels(), f.Timestamp)
	if err != nil {
		return e.failed(result, err)
	}
	decision, err := e.detector.Classify(ctx, match, f)
	if err != nil {
		return e.failed(result, err)
	}

	switch decision {
	case library.DecisionUnchanged, library.DecisionUnchangedContent:
		result.Status = StatusExists
		result.URL = match.Version.BlobURL()
		// The entity may gain a stage tag even when its content is current,
		// e.g. a speech re-listed as an activity.
		if tag != "" && !opts.DryRun {
			if err := e.songs.AddTags(match.Version.SongID(), tag); err != nil {
				e.logger.Warn("failed to tag song", "title", title, "tag", tag, "error", err)
			}
		}
		return result
	}

	if opts.DryRun {
		switch {
		case decision == library.DecisionChanged:
			result.Status = StatusWouldUpdate
		case f.Binary:
			result.Status = StatusWouldCreateBinary
		default:
			result.Status = StatusWouldCreate
		}
		return result
	}

	song, err := e.lineage.EnsureSong(ctx, title, opts.CreatedBy)
	if err != nil {
		return e.failed(result, err)
	}
	if tag != "" {
		if err := e.songs.AddTags(song.ID(), tag); err != nil {
			e.logger.Warn("failed to tag song", "title", title, "tag", tag, "error", err)
		}
	}

	var content, blobURL string
	if f.Binary {
		blobURL, err = e.blobs.Put(ctx, library.BlobKey(f.Label, len(f.Data)), f.Data)
		if err != nil {
			return e.failed(result, err)
		}
	} else {
		content = string(f.Data)
	}

	if _, err := e.lineage.Append(ctx, song.ID(), f.Label, content, blobURL, opts.CreatedBy, f.Timestamp); err != nil {
		return e.failed(result, err)
	}

	result.URL = blobURL
	if f.Binary {
		result.Status = StatusCreatedBinary
	} else {
		result.Status = StatusCreated
	}
	return result
}

// importProgram imports one playlist file. The second return is false when
// the file produces no result at all: empty parses and, in any mode, programs
// that already exist under their derived title are reported as exists.
func (e *ImportEngine) importProgram(ctx context.Context, f archive.File, opts ImportOpts) (ImportResult, bool) {
	parsed := programs.Parse(string(f.Data))
	if parsed.Empty() {
		e.logger.Debug("skipping empty program file", "file", f.Name)
		return ImportResult{}, false
	}

	title := programs.DeriveTitle(f.Name, parsed.Title)
	result := ImportResult{Kind: KindProgram, Title: title, Label: f.Label}

	if _, err := e.programs.GetByTitle(title); err == nil {
		result.Status = StatusExists
		return result, true
	} else if !errors.Is(err, shared.ErrProgramNotFound) {
		return e.failed(result, err), true
	}

	resolution, err := e.resolver.Resolve(ctx, parsed.Items, programs.ResolveOpts{
		DryRun:    opts.DryRun,
		CreatedBy: opts.CreatedBy,
	})
	if err != nil {
		return e.failed(result, err), true
	}

	result.ElementCount = resolution.RefCount()
	result.Missing = resolution.Missing
	result.Placeholders = resolution.Placeholders

	if opts.DryRun {
		result.Status = StatusWouldCreate
		return result, true
	}

	program := models.NewProgram(0, title, opts.CreatedBy, false)
	program.SetElementIDs(models.RefIDs(resolution.Elements))
	program.SetProgramIDs(models.RefIDs(resolution.Programs))
	if err := e.programs.Create(program); err != nil {
		return e.failed(result, err), true
	}

	result.Status = StatusCreated
	return result, true
}

func (e *ImportEngine) failed(result ImportResult, err error) ImportResult {
	e.logger.Error("import item failed", "kind", result.Kind, "title", result.Title, "error", err)
	result.Status = StatusFailed
	result.Err = err
	return result
}
