package main

import (
	"context"
	"time"

	"github.com/desertthunder/songbook/internal/archive"
	"github.com/desertthunder/songbook/internal/formatter"
	"github.com/desertthunder/songbook/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Watch monitors the archive directories and reruns the import pipeline on
// every debounced batch of filesystem changes. Runs are dry-run scans unless
// --apply is given.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd.String("config"))
	dryRun := !cmd.Bool("apply")

	st, err := r.openStore(config)
	if err != nil {
		return err
	}
	defer st.Close()

	watcher, err := archive.NewWatcher(cmd.Duration("debounce"), r.logger)
	if err != nil {
		return err
	}
	defer watcher.Close()

	roots := append([]string{config.Library.SongsDir, config.Library.SpeechesDir}, config.Library.ProgramDirs...)
	watched := 0
	for _, root := range roots {
		if root == "" {
			continue
		}
		if err := watcher.AddRecursive(root); err != nil {
			r.logger.Warn("failed to watch directory", "path", root, "error", err)
			continue
		}
		watched++
	}

	r.writePlain("Watching %d directories (ctrl+c to stop)...\n", watched)

	return watcher.Run(ctx, func(changed []string) {
		r.logger.Info("change detected, re-importing", "files", len(changed))

		progressCh := make(chan tasks.ProgressUpdate, 50)
		done := make(chan struct{})
		go func() {
			defer close(done)
			for range progressCh {
			}
		}()

		result, err := st.engine.Run(ctx, progressCh, config, tasks.ImportOpts{DryRun: dryRun})
		close(progressCh)
		<-done

		if err != nil {
			r.logger.Error("import failed", "error", err)
			return
		}
		r.writePlain("[%s] %s\n", time.Now().Format(time.TimeOnly), formatter.SummaryLine(result))
	})
}

func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Re-import automatically when the archive changes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
			&cli.DurationFlag{
				Name:  "debounce",
				Usage: "Quiet period before a change batch triggers an import",
				Value: 2 * time.Second,
			},
			&cli.BoolFlag{
				Name:  "apply",
				Usage: "Perform real imports instead of dry-run scans",
			},
		},
		Action: r.Watch,
	}
}
