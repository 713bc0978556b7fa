package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/desertthunder/topmix/internal/models"
	"github.com/desertthunder/topmix/internal/shared"
)

// MemoryCredentialStore implements [CredentialStore] with an in-process map.
//
// Suitable for tests and single-session use. Records do not survive a
// restart, so deployments running the scheduled sweep should use
// [CredentialRepository] instead.
type MemoryCredentialStore struct {
	mu    sync.RWMutex
	creds map[string]models.Credential
}

// NewMemoryCredentialStore creates an empty in-memory store.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{creds: make(map[string]models.Credential)}
}

// Get retrieves a credential by external user id.
func (s *MemoryCredentialStore) Get(ctx context.Context, userID string) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.creds[userID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrCredentialNotFound, userID)
	}

	copied := cred
	return &copied, nil
}

// Upsert inserts or replaces the credential for its user id.
func (s *MemoryCredentialStore) Upsert(ctx context.Context, cred *models.Credential) error {
	if err := cred.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	cred.UpdatedAt = now
	if existing, ok := s.creds[cred.UserID]; ok {
		cred.CreatedAt = existing.CreatedAt
	} else if cred.CreatedAt.IsZero() {
		cred.CreatedAt = now
	}

	s.creds[cred.UserID] = *cred
	return nil
}

// Delete removes the credential for the given user id.
func (s *MemoryCredentialStore) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.creds[userID]; !ok {
		return fmt.Errorf("%w: %s", shared.ErrCredentialNotFound, userID)
	}

	delete(s.creds, userID)
	return nil
}

// List returns all stored credentials ordered by creation time.
func (s *MemoryCredentialStore) List(ctx context.Context) ([]*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	creds := make([]*models.Credential, 0, len(s.creds))
	for _, cred := range s.creds {
		copied := cred
		creds = append(creds, &copied)
	}

	sort.Slice(creds, func(i, j int) bool {
		return creds[i].CreatedAt.Before(creds[j].CreatedAt)
	})

	return creds, nil
}
