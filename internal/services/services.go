// package services defines interface Service for interacting with the Spotify Web API
package services

import (
	"context"

	"github.com/desertthunder/topmix/internal/models"
	"golang.org/x/oauth2"
)

// Service defines the operations the playlist reconciler and auth flow
// need from the external music service.
type Service interface {
	// Name returns the name of the service (e.g., "Spotify")
	Name() string

	// WithToken returns a session bound to the given access token.
	// The underlying HTTP client and rate limiter are shared.
	WithToken(accessToken string) Service

	// CurrentUser retrieves the authenticated user's profile.
	CurrentUser(ctx context.Context) (*SpotifyUser, error)

	// AllPlaylists retrieves the user's playlists, following pagination
	// to completion up to a fixed item bound.
	AllPlaylists(ctx context.Context) ([]models.Playlist, error)

	// TopTracks retrieves the user's most-played tracks over the
	// short-term window, most-played first.
	TopTracks(ctx context.Context, limit int) ([]models.Track, error)

	// CreatePlaylist creates a playlist owned by the given user.
	CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error)

	// UpdatePlaylistDetails changes a playlist's name and description.
	UpdatePlaylistDetails(ctx context.Context, playlistID, name, description string) error

	// ReplacePlaylistItems replaces the playlist's entire track list.
	ReplacePlaylistItems(ctx context.Context, playlistID string, uris []string) error

	// AddPlaylistItems appends tracks to a playlist. Used to populate a
	// freshly created, empty playlist.
	AddPlaylistItems(ctx context.Context, playlistID string, uris []string) error

	// UnfollowPlaylist removes the playlist from the user's library.
	UnfollowPlaylist(ctx context.Context, playlistID string) error
}

// OAuthService is implemented by services that authenticate end users via
// the OAuth2 authorization code flow.
type OAuthService interface {
	Service

	// GetAuthURL returns the authorization URL carrying the given state token.
	GetAuthURL(state string) string

	// GetOAuthConfig exposes the underlying OAuth2 configuration for
	// code exchange and token refresh.
	GetOAuthConfig() *oauth2.Config
}
