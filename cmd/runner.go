package main

import (
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songbook/internal/archive"
	"github.com/desertthunder/songbook/internal/library"
	"github.com/desertthunder/songbook/internal/programs"
	"github.com/desertthunder/songbook/internal/repositories"
	"github.com/desertthunder/songbook/internal/shared"
	"github.com/desertthunder/songbook/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger replaces the runner's logger, e.g. to redirect logs to a file
// while a TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, importCommand, resyncCommand, libraryCommand, watchCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig loads the config file at path, falling back to the runner's
// default config when the file is absent or unreadable.
func (r *Runner) loadConfig(path string) *shared.Config {
	if path == "" {
		path = "config.toml"
	}
	if _, err := os.Stat(path); err != nil {
		return r.config
	}
	config, err := shared.LoadConfig(path)
	if err != nil {
		r.logger.Warn("failed to load config, using defaults", "path", path, "error", err)
		return r.config
	}
	return config
}

// store bundles the database connection with the collaborator graph every
// import-facing command needs.
type store struct {
	db       *sql.DB
	songs    *repositories.SongRepository
	versions *repositories.VersionRepository
	programs *repositories.ProgramRepository
	lineage  *library.Lineage
	resolver *programs.Resolver
	renders  *library.RenderQueue
	engine   *tasks.ImportEngine
}

// openStore opens the configured database and wires the full import engine.
// The caller must Close the returned store.
func (r *Runner) openStore(config *shared.Config) (*store, error) {
	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	blobs, err := library.NewLocalBlobStore(config.Library.BlobDir)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open blob store: %w", err)
	}

	var renders *library.RenderQueue
	if config.Render.Enabled {
		renders = library.NewRenderQueue(config.Render.BaseURL, r.httpClient, config.Render.RateLimit, r.logger)
	}

	songs := repositories.NewSongRepository(db)
	versions := repositories.NewVersionRepository(db)
	programRepo := repositories.NewProgramRepository(db)

	lineage := library.NewLineage(songs, versions, renders, r.logger)
	detector := library.NewDetector(versions, blobs)
	collector := archive.NewCollector(nil, r.logger)
	resolver := programs.NewResolver(songs, versions, programRepo, lineage, r.logger)
	resync := programs.NewResynchronizer(programRepo, resolver, r.logger)
	engine := tasks.NewImportEngine(collector, detector, lineage, songs, programRepo, resolver, resync, blobs, r.logger)

	return &store{
		db:       db,
		songs:    songs,
		versions: versions,
		programs: programRepo,
		lineage:  lineage,
		resolver: resolver,
		renders:  renders,
		engine:   engine,
	}, nil
}

// Close drains the render queue before closing the database so in-flight
// render results can still be persisted.
func (s *store) Close() {
	s.renders.Close()
	s.db.Close()
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
