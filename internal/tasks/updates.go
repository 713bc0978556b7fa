package tasks

import "fmt"

// ProgressUpdate represents a progress event during a sweep.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current user number within the sweep
	Total   int    // Total users in the sweep
	UserID  string // External user being processed
	Message string // Human-readable message for display
	Err     error  // Set when the user's reconciliation failed
}

// Operation phase enumeration
type Phase int

const (
	EnsureToken Phase = iota
	ReconcileUser
	UserDone
	SweepDone
)

func (p Phase) String() string {
	switch p {
	case EnsureToken:
		return "ensure_token"
	case ReconcileUser:
		return "reconcile_user"
	case UserDone:
		return "user_done"
	case SweepDone:
		return "sweep_done"
	default:
		return ""
	}
}

func ensureTokenUpdate(step, total int, userID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   EnsureToken,
		Step:    step,
		Total:   total,
		UserID:  userID,
		Message: fmt.Sprintf("[%d/%d] Validating credentials for %s...", step, total, userID),
	}
}

func reconcileUpdate(step, total int, userID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReconcileUser,
		Step:    step,
		Total:   total,
		UserID:  userID,
		Message: fmt.Sprintf("[%d/%d] Reconciling playlist for %s...", step, total, userID),
	}
}

func userDoneUpdate(step, total int, userID string, outcome *Outcome, err error) ProgressUpdate {
	update := ProgressUpdate{
		Phase:  UserDone,
		Step:   step,
		Total:  total,
		UserID: userID,
		Err:    err,
	}

	if err != nil {
		update.Message = fmt.Sprintf("[%d/%d] %s: %v", step, total, userID, err)
	} else {
		update.Message = fmt.Sprintf("[%d/%d] %s: %s %q", step, total, userID, outcome.Action, outcome.Name)
	}

	return update
}

func sweepDoneUpdate(total, failed int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SweepDone,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("Sweep complete: %d users, %d failed", total, failed),
	}
}
