// package testing contains shared testing utilities
package testing

import (
	"context"
	"fmt"

	"github.com/desertthunder/topmix/internal/models"
	"github.com/desertthunder/topmix/internal/services"
	"golang.org/x/oauth2"
)

// MockService is a recording test double for [services.Service] and
// [services.OAuthService].
//
// Playlist mutations are applied to PlaylistList so successive calls
// observe each other, which is what reconciliation tests exercise.
type MockService struct {
	UserID       string
	PlaylistList []models.Playlist
	TopTrackList []models.Track
	Cfg          *oauth2.Config

	// Err, when set, is returned by every API call.
	Err error

	BoundToken   string
	Created      []models.Playlist
	Renamed      map[string]string
	Replacements map[string][]string
	Additions    map[string][]string
	Unfollowed   []string

	nextID int
}

var (
	_ services.Service      = (*MockService)(nil)
	_ services.OAuthService = (*MockService)(nil)
)

func (m *MockService) Name() string { return "mock" }

func (m *MockService) WithToken(accessToken string) services.Service {
	m.BoundToken = accessToken
	return m
}

func (m *MockService) CurrentUser(ctx context.Context) (*services.SpotifyUser, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return &services.SpotifyUser{ID: m.UserID}, nil
}

func (m *MockService) AllPlaylists(ctx context.Context) ([]models.Playlist, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]models.Playlist(nil), m.PlaylistList...), nil
}

func (m *MockService) TopTracks(ctx context.Context, limit int) ([]models.Track, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if limit < len(m.TopTrackList) {
		return append([]models.Track(nil), m.TopTrackList[:limit]...), nil
	}
	return append([]models.Track(nil), m.TopTrackList...), nil
}

func (m *MockService) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	m.nextID++
	playlist := models.Playlist{
		ID:          fmt.Sprintf("pl_%d", m.nextID),
		Name:        name,
		Description: description,
		OwnerID:     userID,
		Public:      public,
	}

	m.PlaylistList = append(m.PlaylistList, playlist)
	m.Created = append(m.Created, playlist)

	return &playlist, nil
}

func (m *MockService) UpdatePlaylistDetails(ctx context.Context, playlistID, name, description string) error {
	if m.Err != nil {
		return m.Err
	}

	if m.Renamed == nil {
		m.Renamed = make(map[string]string)
	}
	m.Renamed[playlistID] = name

	for i := range m.PlaylistList {
		if m.PlaylistList[i].ID == playlistID {
			m.PlaylistList[i].Name = name
			m.PlaylistList[i].Description = description
		}
	}

	return nil
}

func (m *MockService) ReplacePlaylistItems(ctx context.Context, playlistID string, uris []string) error {
	if m.Err != nil {
		return m.Err
	}

	if m.Replacements == nil {
		m.Replacements = make(map[string][]string)
	}
	m.Replacements[playlistID] = append([]string(nil), uris...)

	return nil
}

func (m *MockService) AddPlaylistItems(ctx context.Context, playlistID string, uris []string) error {
	if m.Err != nil {
		return m.Err
	}

	if m.Additions == nil {
		m.Additions = make(map[string][]string)
	}
	m.Additions[playlistID] = append(m.Additions[playlistID], uris...)

	return nil
}

func (m *MockService) UnfollowPlaylist(ctx context.Context, playlistID string) error {
	if m.Err != nil {
		return m.Err
	}

	var remaining []models.Playlist
	for _, playlist := range m.PlaylistList {
		if playlist.ID != playlistID {
			remaining = append(remaining, playlist)
		}
	}
	m.PlaylistList = remaining
	m.Unfollowed = append(m.Unfollowed, playlistID)

	return nil
}

func (m *MockService) GetAuthURL(state string) string {
	if m.Cfg != nil {
		return m.Cfg.AuthCodeURL(state)
	}
	return "https://accounts.example.com/authorize?state=" + state
}

func (m *MockService) GetOAuthConfig() *oauth2.Config {
	if m.Cfg == nil {
		m.Cfg = &oauth2.Config{}
	}
	return m.Cfg
}
