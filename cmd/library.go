package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/songbook/internal/shared"
	"github.com/urfave/cli/v3"
)

// songRow and programRow project the persisted models for output; the models
// themselves keep their fields private.
type songRow struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Tags      []string  `json:"tags,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type programRow struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Elements     int    `json:"elements"`
	Subprograms  int    `json:"subprograms"`
	IsSubprogram bool   `json:"is_subprogram"`
}

type lineageRow struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	BlobURL   string    `json:"blob_url,omitempty"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// LibrarySongs lists every non-archived song.
func (r *Runner) LibrarySongs(ctx context.Context, cmd *cli.Command) error {
	st, err := r.openStore(r.loadConfig(cmd.String("config")))
	if err != nil {
		return err
	}
	defer st.Close()

	songs, err := st.songs.List(map[string]any{"created_by": cmd.String("created-by")})
	if err != nil {
		return err
	}

	rows := make([]songRow, 0, len(songs))
	for _, song := range songs {
		rows = append(rows, songRow{ID: song.ID(), Title: song.Title(), Tags: song.Tags(), UpdatedAt: song.UpdatedAt()})
	}

	if cmd.Bool("json") {
		return r.writeJSON(rows, true)
	}

	r.writePlainHeader(fmt.Sprintf("Songs (%d)", len(rows)))
	for _, row := range rows {
		r.writePlain("%-40s %s", row.Title, row.ID)
		if len(row.Tags) > 0 {
			r.writePlain("  [%s]", strings.Join(row.Tags, ", "))
		}
		r.writePlain("\n")
	}
	return nil
}

// LibraryPrograms lists programs, or flattens one program into its full
// song-version order when --flatten is given.
func (r *Runner) LibraryPrograms(ctx context.Context, cmd *cli.Command) error {
	st, err := r.openStore(r.loadConfig(cmd.String("config")))
	if err != nil {
		return err
	}
	defer st.Close()

	if title := cmd.String("flatten"); title != "" {
		return r.flattenProgram(st, title, cmd.Bool("json"))
	}

	criteria := map[string]any{}
	if !cmd.Bool("all") {
		criteria["is_subprogram"] = false
	}

	programs, err := st.programs.List(criteria)
	if err != nil {
		return err
	}

	rows := make([]programRow, 0, len(programs))
	for _, program := range programs {
		rows = append(rows, programRow{
			ID:           program.ID(),
			Title:        program.Title(),
			Elements:     len(program.ElementIDs()),
			Subprograms:  len(program.ProgramIDs()),
			IsSubprogram: program.IsSubprogram(),
		})
	}

	if cmd.Bool("json") {
		return r.writeJSON(rows, true)
	}

	r.writePlainHeader(fmt.Sprintf("Programs (%d)", len(rows)))
	for _, row := range rows {
		r.writePlain("%-40s %d element(s), %d subprogram(s)", row.Title, row.Elements, row.Subprograms)
		if row.IsSubprogram {
			r.writePlain("  (subprogram)")
		}
		r.writePlain("\n")
	}
	return nil
}

func (r *Runner) flattenProgram(st *store, title string, asJSON bool) error {
	program, err := st.programs.GetByTitle(title)
	if err != nil {
		return err
	}

	versionIDs, err := st.resolver.Flatten(program.ID())
	if err != nil {
		return err
	}

	rows := make([]songRow, 0, len(versionIDs))
	for _, versionID := range versionIDs {
		version, err := st.versions.Get(versionID)
		if err != nil {
			return err
		}
		song, err := st.songs.Get(version.SongID())
		if err != nil {
			return err
		}
		rows = append(rows, songRow{ID: versionID, Title: song.Title(), Tags: song.Tags()})
	}

	if asJSON {
		return r.writeJSON(rows, true)
	}

	r.writePlainHeader(fmt.Sprintf("%s (%d songs)", program.Title(), len(rows)))
	for i, row := range rows {
		r.writePlain("%3d. %s\n", i+1, row.Title)
	}
	return nil
}

// LibraryLineage walks a song's version chain from the tip backwards.
func (r *Runner) LibraryLineage(ctx context.Context, cmd *cli.Command) error {
	title := cmd.String("title")
	if title == "" {
		return fmt.Errorf("%w: --title is required", shared.ErrMissingArgument)
	}

	st, err := r.openStore(r.loadConfig(cmd.String("config")))
	if err != nil {
		return err
	}
	defer st.Close()

	version, err := st.versions.LatestByTitle(title)
	if err != nil {
		return err
	}

	var rows []lineageRow
	seen := map[string]bool{}
	for {
		if seen[version.ID()] {
			r.logger.Warn("version chain cycle, stopping walk", "version", version.ID())
			break
		}
		seen[version.ID()] = true

		rows = append(rows, lineageRow{
			ID:        version.ID(),
			Label:     version.Label(),
			BlobURL:   version.BlobURL(),
			CreatedBy: version.CreatedBy(),
			CreatedAt: version.CreatedAt(),
		})
		previousID := version.PreviousVersionID()
		if previousID == "" {
			break
		}
		if version, err = st.versions.Get(previousID); err != nil {
			return fmt.Errorf("broken version chain at %s: %w", previousID, err)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(rows, true)
	}

	r.writePlainHeader(fmt.Sprintf("%s (%d versions, newest first)", title, len(rows)))
	for _, row := range rows {
		r.writePlain("%s  %-24s %s", row.CreatedAt.Format(time.DateTime), row.Label, row.CreatedBy)
		if row.BlobURL != "" {
			r.writePlain("  (binary)")
		}
		r.writePlain("\n")
	}
	return nil
}

func libraryCommand(r *Runner) *cli.Command {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
	jsonFlag := &cli.BoolFlag{
		Name:  "json",
		Usage: "Emit JSON instead of a table",
	}

	return &cli.Command{
		Name:  "library",
		Usage: "Inspect the imported library",
		Commands: []*cli.Command{
			{
				Name:  "songs",
				Usage: "List songs",
				Flags: []cli.Flag{
					configFlag,
					jsonFlag,
					&cli.StringFlag{
						Name:  "created-by",
						Usage: "Only songs created by this identity",
					},
				},
				Action: r.LibrarySongs,
			},
			{
				Name:  "programs",
				Usage: "List programs, or flatten one into song order",
				Flags: []cli.Flag{
					configFlag,
					jsonFlag,
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Include subprograms in the listing",
					},
					&cli.StringFlag{
						Name:  "flatten",
						Usage: "Flatten the named program into its full song order",
					},
				},
				Action: r.LibraryPrograms,
			},
			{
				Name:  "lineage",
				Usage: "Show a song's version chain",
				Flags: []cli.Flag{
					configFlag,
					jsonFlag,
					&cli.StringFlag{
						Name:  "title",
						Usage: "Song title",
					},
				},
				Action: r.LibraryLineage,
			},
		},
	}
}
