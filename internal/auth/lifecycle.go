package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/topmix/internal/models"
	"github.com/desertthunder/topmix/internal/repositories"
	"github.com/desertthunder/topmix/internal/shared"
	"golang.org/x/oauth2"
)

// RefreshMargin is the safety window before expiry inside which a token
// is treated as stale and refreshed.
const RefreshMargin = 60 * time.Second

// Prober checks whether an access token of unknown age is still accepted
// by the external service. Implemented by the Spotify service via a
// current-user call.
type Prober interface {
	Probe(ctx context.Context, accessToken string) error
}

// TokenManager validates and refreshes stored credentials.
type TokenManager struct {
	store  repositories.CredentialStore
	config *oauth2.Config
	prober Prober
	margin time.Duration
	now    func() time.Time
}

// NewTokenManager creates a [TokenManager] writing refreshed tokens back
// to the given store. The prober may be nil, in which case tokens without
// expiry or refresh metadata are treated as expired.
func NewTokenManager(store repositories.CredentialStore, config *oauth2.Config, prober Prober) *TokenManager {
	return &TokenManager{
		store:  store,
		config: config,
		prober: prober,
		margin: RefreshMargin,
		now:    time.Now,
	}
}

// EnsureValid returns an access token for the credential that is not
// known to be expired, refreshing and persisting it when necessary.
//
// The credential is mutated in place on refresh so callers keep a
// consistent view of the stored record.
func (m *TokenManager) EnsureValid(ctx context.Context, cred *models.Credential) (string, error) {
	if cred.FreshFor(m.margin, m.now()) {
		return cred.AccessToken, nil
	}

	if cred.RefreshToken == "" {
		// Nothing to refresh with. An unknown expiry might still be
		// valid, so probe before giving up.
		if cred.ExpiresAt == nil && m.prober != nil {
			if err := m.prober.Probe(ctx, cred.AccessToken); err == nil {
				return cred.AccessToken, nil
			}
		}
		return "", fmt.Errorf("%w: %v", shared.ErrAuthExpired, shared.ErrNoRefreshToken)
	}

	token, err := m.refresh(ctx, cred)
	if err != nil {
		return "", fmt.Errorf("%w: refresh rejected: %v", shared.ErrAuthExpired, err)
	}

	cred.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		cred.RefreshToken = token.RefreshToken
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		cred.ExpiresAt = &expiry
	}

	if err := m.store.Upsert(ctx, cred); err != nil {
		return "", fmt.Errorf("failed to persist refreshed token: %w", err)
	}

	return cred.AccessToken, nil
}

// refresh exchanges the stored refresh token for a new token pair.
func (m *TokenManager) refresh(ctx context.Context, cred *models.Credential) (*oauth2.Token, error) {
	stale := &oauth2.Token{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		Expiry:       m.now().Add(-time.Hour),
	}

	return m.config.TokenSource(ctx, stale).Token()
}
