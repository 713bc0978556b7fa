package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/topmix/internal/models"
	"github.com/desertthunder/topmix/internal/shared"
)

// CredentialRepository implements [CredentialStore] backed by SQLite.
//
// This is the durable backend: credentials survive process restarts, which
// the scheduled sweep depends on.
type CredentialRepository struct {
	db *sql.DB
}

// NewCredentialRepository creates a new [CredentialRepository] with the given database connection.
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Get retrieves a credential by external user id.
func (r *CredentialRepository) Get(ctx context.Context, userID string) (*models.Credential, error) {
	query := `
		SELECT user_id, access_token, refresh_token, expires_at, created_at, updated_at
		FROM credentials
		WHERE user_id = ?
	`

	cred, err := scanCredential(r.db.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrCredentialNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query credential: %w", err)
	}

	return cred, nil
}

// Upsert inserts or replaces the credential row for its user id.
//
// The token pair lands in a single statement so a concurrent reader never
// observes a partial update.
func (r *CredentialRepository) Upsert(ctx context.Context, cred *models.Credential) error {
	if err := cred.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	cred.UpdatedAt = now
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = now
	}

	query := `
		INSERT INTO credentials (user_id, access_token, refresh_token, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`

	var refresh sql.NullString
	if cred.RefreshToken != "" {
		refresh = sql.NullString{String: cred.RefreshToken, Valid: true}
	}
	var expires sql.NullTime
	if cred.ExpiresAt != nil {
		expires = sql.NullTime{Time: cred.ExpiresAt.UTC(), Valid: true}
	}

	if _, err := r.db.ExecContext(ctx, query, cred.UserID, cred.AccessToken, refresh, expires, cred.CreatedAt, cred.UpdatedAt); err != nil {
		return fmt.Errorf("failed to upsert credential: %w", err)
	}

	return nil
}

// Delete removes the credential row for the given user id.
func (r *CredentialRepository) Delete(ctx context.Context, userID string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM credentials WHERE user_id = ?", userID)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrCredentialNotFound, userID)
	}

	return nil
}

// List retrieves all stored credentials ordered by creation time.
func (r *CredentialRepository) List(ctx context.Context) ([]*models.Credential, error) {
	query := `
		SELECT user_id, access_token, refresh_token, expires_at, created_at, updated_at
		FROM credentials
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query credentials: %w", err)
	}
	defer rows.Close()

	var creds []*models.Credential
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan credential: %w", err)
		}
		creds = append(creds, cred)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return creds, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredential(row rowScanner) (*models.Credential, error) {
	var (
		cred    models.Credential
		refresh sql.NullString
		expires sql.NullTime
	)

	err := row.Scan(&cred.UserID, &cred.AccessToken, &refresh, &expires, &cred.CreatedAt, &cred.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if refresh.Valid {
		cred.RefreshToken = refresh.String
	}
	if expires.Valid {
		t := expires.Time
		cred.ExpiresAt = &t
	}

	return &cred, nil
}
