package main

import (
	"context"

	"github.com/desertthunder/songbook/internal/formatter"
	"github.com/desertthunder/songbook/internal/tasks"
	"github.com/urfave/cli/v3"
)

// ImportRun walks the configured archive directories and imports every
// speech, activity, song, and program, then resyncs program lineages.
func (r *Runner) ImportRun(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd.String("config"))
	dryRun := cmd.Bool("dry-run")
	asJSON := cmd.Bool("json")
	manifestPath := cmd.String("manifest")

	if cmd.Bool("tui") {
		return r.runTUI(ctx, config, dryRun)
	}

	st, err := r.openStore(config)
	if err != nil {
		return err
	}
	defer st.Close()

	r.logger.Info("starting import", "dry_run", dryRun)
	if !asJSON {
		if dryRun {
			r.writePlain("Starting import (dry run)...\n\n")
		} else {
			r.writePlain("Starting import...\n\n")
		}
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			if asJSON {
				continue
			}
			if _, ok := update.Data.(tasks.ImportResult); ok {
				r.writePlain("  %s\n", update.Message)
			} else {
				r.writePlain("%s\n", update.Message)
			}
		}
	}()

	result, err := st.engine.Run(ctx, progressCh, config, tasks.ImportOpts{DryRun: dryRun})
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	if manifestPath != "" {
		if err := formatter.WriteImportManifest(result, dryRun, manifestPath); err != nil {
			return err
		}
		r.logger.Info("manifest written", "path", manifestPath)
	}

	if asJSON {
		return r.writeJSON(formatter.NewImportManifest(result, dryRun), true)
	}

	r.writePlainln("Import Complete!")
	return r.writePlain("%s", formatter.ReportToText(result))
}

func importCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import the archive into the library",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"n"},
				Usage:   "Report what would change without writing",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Emit the run manifest as JSON instead of a text report",
			},
			&cli.StringFlag{
				Name:  "manifest",
				Usage: "Write the run manifest to this path",
			},
			&cli.BoolFlag{
				Name:  "tui",
				Usage: "Run inside the interactive terminal UI",
			},
		},
		Action: r.ImportRun,
	}
}
