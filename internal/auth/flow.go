package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/topmix/internal/models"
	"github.com/desertthunder/topmix/internal/repositories"
	"github.com/desertthunder/topmix/internal/services"
	"github.com/desertthunder/topmix/internal/shared"
)

// FlowState enumerates the states of one authorization attempt.
type FlowState int

const (
	Unauthenticated FlowState = iota
	PendingCallback
	Authenticated
)

func (s FlowState) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case PendingCallback:
		return "pending_callback"
	case Authenticated:
		return "authenticated"
	default:
		return ""
	}
}

// stateTTL bounds how long an issued state token stays redeemable.
const stateTTL = 10 * time.Minute

// StateRegistry tracks issued anti-forgery state tokens.
//
// Tokens are single-use: Consume removes the token, so a replayed
// callback fails the state check.
type StateRegistry struct {
	mu     sync.Mutex
	issued map[string]time.Time
	ttl    time.Duration
	now    func() time.Time
}

// NewStateRegistry creates an empty registry with the default TTL.
func NewStateRegistry() *StateRegistry {
	return &StateRegistry{
		issued: make(map[string]time.Time),
		ttl:    stateTTL,
		now:    time.Now,
	}
}

// Issue registers a new random state token and returns it.
func (r *StateRegistry) Issue() (string, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for token, issuedAt := range r.issued {
		if now.Sub(issuedAt) > r.ttl {
			delete(r.issued, token)
		}
	}
	r.issued[state] = now

	return state, nil
}

// Consume redeems a state token, reporting whether it was issued by this
// registry, unexpired, and not previously consumed.
func (r *StateRegistry) Consume(state string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	issuedAt, ok := r.issued[state]
	if !ok {
		return false
	}
	delete(r.issued, state)

	return r.now().Sub(issuedAt) <= r.ttl
}

// Flow drives the redirect-based authorization handshake.
type Flow struct {
	service services.OAuthService
	store   repositories.CredentialStore
	states  *StateRegistry
}

// NewFlow creates a [Flow] persisting completed authorizations to the given store.
func NewFlow(service services.OAuthService, store repositories.CredentialStore) *Flow {
	return &Flow{
		service: service,
		store:   store,
		states:  NewStateRegistry(),
	}
}

// Begin transitions Unauthenticated → PendingCallback: issues a state
// token and returns the authorization URL to redirect the user to.
func (f *Flow) Begin() (authURL, state string, err error) {
	state, err = f.states.Issue()
	if err != nil {
		return "", "", err
	}

	return f.service.GetAuthURL(state), state, nil
}

// Complete transitions PendingCallback → Authenticated: verifies the
// returned state, exchanges the code, resolves the external user id, and
// persists the credential record.
//
// The state check happens before any token exchange; a mismatch aborts
// with shared.ErrInvalidState.
func (f *Flow) Complete(ctx context.Context, state, code, errParam string) (*models.Credential, error) {
	if !f.states.Consume(state) {
		return nil, fmt.Errorf("%w: state mismatch or replay", shared.ErrInvalidState)
	}

	if errParam != "" {
		return nil, fmt.Errorf("%w: provider returned %q", shared.ErrAuthFailed, errParam)
	}
	if code == "" {
		return nil, fmt.Errorf("%w: callback missing authorization code", shared.ErrAuthFailed)
	}

	token, err := f.service.GetOAuthConfig().Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange failed: %v", shared.ErrAuthFailed, err)
	}

	session := f.service.WithToken(token.AccessToken)
	user, err := session.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user identity: %w", err)
	}

	cred := &models.Credential{
		UserID:       user.ID,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		cred.ExpiresAt = &expiry
	}

	if err := f.store.Upsert(ctx, cred); err != nil {
		return nil, fmt.Errorf("failed to persist credential: %w", err)
	}

	return cred, nil
}
