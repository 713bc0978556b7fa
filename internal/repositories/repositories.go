// package repositories provides persistence for credential records.
//
// The storage capability is a small interface so backends stay
// interchangeable: SQLite for deployments that run the scheduled sweep
// across restarts, an in-memory map for tests and session-only use.
package repositories

import (
	"context"

	"github.com/desertthunder/topmix/internal/models"
)

// CredentialStore defines the storage capability for credential records.
//
// Implementations must support concurrent reads and atomic per-record
// upserts; no cross-record coordination is required since records are
// keyed independently by user id.
type CredentialStore interface {
	// Get retrieves the credential for the given external user id.
	// Returns shared.ErrCredentialNotFound when no record exists.
	Get(ctx context.Context, userID string) (*models.Credential, error)

	// Upsert inserts or replaces the credential for its user id.
	// The whole token pair is written in one statement.
	Upsert(ctx context.Context, cred *models.Credential) error

	// Delete removes the credential for the given user id.
	Delete(ctx context.Context, userID string) error

	// List returns all stored credentials ordered by creation time.
	List(ctx context.Context) ([]*models.Credential, error)
}
