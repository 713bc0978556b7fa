// Package tasks implements playlist reconciliation and the scheduled
// credential sweep.
//
// # Reconciliation
//
// The [Reconciler] decides between creating and updating the managed
// top-tracks playlist for one user. A managed playlist is the first
// playlist in listing order whose name starts with the configured prefix
// and is owned by the user; at most one exists per user under correct
// operation.
//
//   - [Reconciler.Create] is idempotent: an existing match short-circuits
//     with ActionUnchanged and no top-tracks fetch.
//   - [Reconciler.Update] refreshes the name, description, and track list
//     of an existing match (track replacement is wholesale, never append),
//     creating the playlist when none exists.
//   - [Reconciler.Delete] unfollows the match, reporting ActionNone when
//     there is nothing to delete.
//
// # Scheduled Sweep
//
// [Sweeper.RunAll] iterates every stored credential once, refreshing
// tokens via the auth package and reconciling in update mode. Per-user
// failures are collected, never propagated, so one expired account cannot
// block the rest of the fleet. Progress is emitted over a non-blocking
// channel for CLI/TUI display.
package tasks
