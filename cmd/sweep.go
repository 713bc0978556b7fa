package main

import (
	"context"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/topmix/internal/tasks"
	"github.com/desertthunder/topmix/internal/ui"
	"github.com/urfave/cli/v3"
)

// Sweep refreshes playlists for every stored user.
//
// Intended to be invoked by an external scheduler (e.g. a monthly cron
// entry); per-user failures are reported, not fatal.
func (r *Runner) Sweep(ctx context.Context, cmd *cli.Command) error {
	d, closer, err := r.build(cmd)
	if err != nil {
		return err
	}
	defer closer()

	sweeper := tasks.NewSweeper(d.store, d.tokens, d.service, d.mode)

	progress := make(chan tasks.ProgressUpdate, 16)

	var result *tasks.SweepResult
	var sweepErr error
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(progress)
		result, sweepErr = sweeper.RunAll(ctx, progress)
	}()

	if cmd.Bool("ui") {
		program := tea.NewProgram(ui.NewSweepModel(progress))
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run sweep UI: %w", err)
		}
	} else {
		for update := range progress {
			if update.Phase == tasks.UserDone || update.Phase == tasks.SweepDone {
				r.writePlain("%s\n", update.Message)
			}
		}
	}

	wg.Wait()

	if sweepErr != nil {
		return sweepErr
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	r.writePlainln("✓ %d succeeded, %d failed", len(result.Succeeded), len(result.Failed))
	for _, failure := range result.Failed {
		r.writePlain("  ✗ %s: %s\n", failure.UserID, failure.Reason)
	}

	return nil
}
