// package models defines the data model for the playlist automation service
package models

import (
	"fmt"
	"time"
)

// Credential holds the stored token pair for one external user.
//
// There is at most one Credential per UserID. The access/refresh pair is
// always read and written together so a refresh can never leave a record
// half-updated.
type Credential struct {
	UserID       string     // Stable Spotify user id, unique key
	AccessToken  string     // Short-lived bearer token
	RefreshToken string     // Long-lived, optional (absent for some flows)
	ExpiresAt    *time.Time // Optional; nil means validity must be probed
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate checks that the credential has the fields required for persistence.
func (c *Credential) Validate() error {
	if c.UserID == "" {
		return fmt.Errorf("credential missing user id")
	}
	if c.AccessToken == "" {
		return fmt.Errorf("credential missing access token")
	}
	return nil
}

// FreshFor reports whether the access token is known to remain valid for
// at least the given margin. A nil ExpiresAt returns false so callers
// fall through to a refresh or live probe.
func (c *Credential) FreshFor(margin time.Duration, now time.Time) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return c.ExpiresAt.After(now.Add(margin))
}

// Playlist represents a playlist on the external service.
type Playlist struct {
	ID          string
	Name        string
	Description string
	OwnerID     string
	TrackCount  int
	Public      bool
}

// URL returns the public web URL for the playlist.
func (p Playlist) URL() string {
	return "https://open.spotify.com/playlist/" + p.ID
}

// Track represents a single track from the external service.
type Track struct {
	ID     string
	URI    string // Spotify URI used for playlist item operations
	Title  string
	Artist string
	Album  string
}
