package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/topmix/internal/tasks"
	"github.com/urfave/cli/v3"
)

// reconcilerFor resolves the target user, validates their credential, and
// returns a reconciler bound to a fresh session.
func (r *Runner) reconcilerFor(ctx context.Context, cmd *cli.Command, d *deps) (*tasks.Reconciler, string, error) {
	userID, err := r.resolveUser(ctx, cmd, d)
	if err != nil {
		return nil, "", err
	}

	cred, err := d.store.Get(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	token, err := d.tokens.EnsureValid(ctx, cred)
	if err != nil {
		return nil, "", fmt.Errorf("credential for %s is unusable: %w", userID, err)
	}

	return tasks.NewReconciler(d.service.WithToken(token)), userID, nil
}

// writeOutcome renders a reconciliation outcome as JSON or a message.
func (r *Runner) writeOutcome(cmd *cli.Command, outcome *tasks.Outcome) error {
	if cmd.Bool("json") {
		return r.writeJSON(outcome, true)
	}

	switch outcome.Action {
	case tasks.ActionCreated:
		r.writePlain("✓ Playlist %q created successfully!\n", outcome.Name)
	case tasks.ActionUpdated:
		r.writePlain("✓ Playlist %q updated successfully!\n", outcome.Name)
	case tasks.ActionUnchanged:
		r.writePlain("Playlist %q already exists.\n", outcome.Name)
	case tasks.ActionDeleted:
		r.writePlain("✓ Playlist deleted successfully.\n")
	case tasks.ActionNone:
		r.writePlain("No playlist found.\n")
	}

	if outcome.PlaylistURL != "" {
		r.writePlain("  %s\n", outcome.PlaylistURL)
	}

	return nil
}

// PlaylistStatus reports whether the managed playlist exists.
func (r *Runner) PlaylistStatus(ctx context.Context, cmd *cli.Command) error {
	d, closer, err := r.build(cmd)
	if err != nil {
		return err
	}
	defer closer()

	reconciler, userID, err := r.reconcilerFor(ctx, cmd, d)
	if err != nil {
		return err
	}

	playlist, err := reconciler.Status(ctx, userID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlist, true)
	}

	if playlist == nil {
		r.writePlain("No managed playlist for %s. Run: topmix playlist create\n", userID)
		return nil
	}

	r.writePlain("Playlist: %s\n", playlist.Name)
	r.writePlain("  Tracks: %d\n", playlist.TrackCount)
	r.writePlain("  %s\n", playlist.URL())

	return nil
}

// PlaylistCreate creates the managed playlist when it does not exist.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	d, closer, err := r.build(cmd)
	if err != nil {
		return err
	}
	defer closer()

	reconciler, userID, err := r.reconcilerFor(ctx, cmd, d)
	if err != nil {
		return err
	}

	r.logger.Infof("creating playlist for %v", userID)

	outcome, err := reconciler.Create(ctx, userID, d.mode)
	if err != nil {
		return err
	}

	return r.writeOutcome(cmd, outcome)
}

// PlaylistUpdate refreshes the managed playlist's name and track list.
func (r *Runner) PlaylistUpdate(ctx context.Context, cmd *cli.Command) error {
	d, closer, err := r.build(cmd)
	if err != nil {
		return err
	}
	defer closer()

	reconciler, userID, err := r.reconcilerFor(ctx, cmd, d)
	if err != nil {
		return err
	}

	r.logger.Infof("updating playlist for %v", userID)

	outcome, err := reconciler.Update(ctx, userID, d.mode)
	if err != nil {
		return err
	}

	return r.writeOutcome(cmd, outcome)
}

// PlaylistDelete unfollows the managed playlist.
func (r *Runner) PlaylistDelete(ctx context.Context, cmd *cli.Command) error {
	d, closer, err := r.build(cmd)
	if err != nil {
		return err
	}
	defer closer()

	reconciler, userID, err := r.reconcilerFor(ctx, cmd, d)
	if err != nil {
		return err
	}

	r.logger.Infof("deleting playlist for %v", userID)

	outcome, err := reconciler.Delete(ctx, userID)
	if err != nil {
		return err
	}

	return r.writeOutcome(cmd, outcome)
}
