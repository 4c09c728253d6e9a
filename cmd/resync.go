package main

import (
	"context"

	"github.com/desertthunder/songbook/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Resync re-resolves every program file against the current library without
// re-importing content, picking up songs that arrived after the program did.
func (r *Runner) Resync(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd.String("config"))
	dryRun := cmd.Bool("dry-run")

	st, err := r.openStore(config)
	if err != nil {
		return err
	}
	defer st.Close()

	r.logger.Info("starting resync", "dry_run", dryRun)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			if _, ok := update.Data.(tasks.ImportResult); !ok {
				r.writePlain("%s\n", update.Message)
			}
		}
	}()

	results, err := st.engine.Resync(ctx, progressCh, config, tasks.ImportOpts{DryRun: dryRun})
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	if len(results) == 0 {
		r.writePlain("All programs are up to date.\n")
		return nil
	}

	for _, result := range results {
		r.writePlain("  %-14s %s", result.Status, result.Title)
		if result.Added != 0 {
			r.writePlain(" (%+d elements)", result.Added)
		}
		if len(result.Placeholders) > 0 {
			r.writePlain(" (placeholders: %d)", len(result.Placeholders))
		}
		r.writePlain("\n")
	}
	r.writePlainln("%d program(s) affected", len(results))
	return nil
}

func resyncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "resync",
		Usage: "Re-resolve program references against the current library",
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
				Usage:   "Report which programs would change without writing",
			},
		},
		Action: r.Resync,
	}
}
