package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/topmix/internal/auth"
	"github.com/desertthunder/topmix/internal/repositories"
	"github.com/desertthunder/topmix/internal/services"
	"github.com/desertthunder/topmix/internal/shared"
)

// SweepFailure records one user whose update failed during a sweep.
type SweepFailure struct {
	UserID string
	Reason string
}

// SweepResult collects per-user outcomes of one sweep invocation.
type SweepResult struct {
	RunID     string // Unique id for correlating logs of one invocation
	Succeeded []string
	Failed    []SweepFailure
}

// Sweeper iterates all stored credentials and reconciles each user's
// managed playlist in update mode.
//
// The sweep is sequential; records are independent per user and the
// fleet sizes this targets do not warrant coordination overhead. The
// caller schedules invocations (e.g. monthly cron); there is no
// internal timer.
type Sweeper struct {
	store   repositories.CredentialStore
	tokens  *auth.TokenManager
	service services.Service
	mode    NamingMode
}

// NewSweeper creates a [Sweeper] for the given store, token manager, and
// unauthenticated base service.
func NewSweeper(store repositories.CredentialStore, tokens *auth.TokenManager, service services.Service, mode NamingMode) *Sweeper {
	return &Sweeper{
		store:   store,
		tokens:  tokens,
		service: service,
		mode:    mode,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (s *Sweeper) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// RunAll processes every stored credential exactly once.
//
// Per-user failures (expired authorization, API errors) are recorded in
// the result and never abort the remaining iteration; partial failure is
// the expected steady state of independently-expiring credentials.
func (s *Sweeper) RunAll(ctx context.Context, progress chan<- ProgressUpdate) (*SweepResult, error) {
	creds, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}

	result := &SweepResult{RunID: shared.GenerateID()}
	total := len(creds)

	for i, cred := range creds {
		step := i + 1

		s.sendProgress(progress, ensureTokenUpdate(step, total, cred.UserID))

		token, err := s.tokens.EnsureValid(ctx, cred)
		if err != nil {
			result.Failed = append(result.Failed, SweepFailure{UserID: cred.UserID, Reason: err.Error()})
			s.sendProgress(progress, userDoneUpdate(step, total, cred.UserID, nil, err))
			continue
		}

		s.sendProgress(progress, reconcileUpdate(step, total, cred.UserID))

		reconciler := NewReconciler(s.service.WithToken(token))
		outcome, err := reconciler.Update(ctx, cred.UserID, s.mode)
		if err != nil {
			result.Failed = append(result.Failed, SweepFailure{UserID: cred.UserID, Reason: err.Error()})
			s.sendProgress(progress, userDoneUpdate(step, total, cred.UserID, nil, err))
			continue
		}

		result.Succeeded = append(result.Succeeded, cred.UserID)
		s.sendProgress(progress, userDoneUpdate(step, total, cred.UserID, outcome, nil))
	}

	s.sendProgress(progress, sweepDoneUpdate(total, len(result.Failed)))

	return result, nil
}
