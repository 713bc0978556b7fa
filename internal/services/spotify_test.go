package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/desertthunder/topmix/internal/shared"
)

func newTestService(t *testing.T, handler http.Handler) (*SpotifyService, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	service, err := NewSpotifyService(map[string]string{
		"client_id":     "client",
		"client_secret": "secret",
		"redirect_uri":  "http://localhost:8080/callback",
	})
	if err != nil {
		t.Fatalf("NewSpotifyService() returned error: %v", err)
	}
	service.baseURL = server.URL

	return service, server
}

func TestNewSpotifyService(t *testing.T) {
	t.Run("requires client credentials", func(t *testing.T) {
		cases := []map[string]string{
			{},
			{"client_id": "client"},
			{"client_secret": "secret"},
		}
		for _, creds := range cases {
			if _, err := NewSpotifyService(creds); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("NewSpotifyService(%v) error = %v, want ErrMissingCredentials", creds, err)
			}
		}
	})

	t.Run("defaults the redirect uri", func(t *testing.T) {
		service, err := NewSpotifyService(map[string]string{
			"client_id":     "client",
			"client_secret": "secret",
		})
		if err != nil {
			t.Fatalf("NewSpotifyService() returned error: %v", err)
		}
		if service.config.RedirectURL == "" {
			t.Error("expected a default redirect URL")
		}
	})
}

func TestGetAuthURL(t *testing.T) {
	service, err := NewSpotifyService(map[string]string{
		"client_id":     "client",
		"client_secret": "secret",
	})
	if err != nil {
		t.Fatalf("NewSpotifyService() returned error: %v", err)
	}

	authURL := service.GetAuthURL("abc123")

	for _, want := range []string{"state=abc123", "show_dialog=true", "access_type=offline", "playlist-modify-public"} {
		if !strings.Contains(authURL, want) {
			t.Errorf("auth URL missing %q: %s", want, authURL)
		}
	}
}

func TestCurrentUser(t *testing.T) {
	t.Run("decodes the profile", func(t *testing.T) {
		service, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/me" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer tok" {
				t.Errorf("authorization header = %q", got)
			}
			json.NewEncoder(w).Encode(SpotifyUser{ID: "alice", DisplayName: "Alice"})
		}))

		user, err := service.WithToken("tok").CurrentUser(context.Background())
		if err != nil {
			t.Fatalf("CurrentUser() returned error: %v", err)
		}
		if user.ID != "alice" {
			t.Errorf("user id = %q, want alice", user.ID)
		}
	})

	t.Run("401 reports expired authorization", func(t *testing.T) {
		service, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))

		_, err := service.WithToken("tok").CurrentUser(context.Background())
		if !errors.Is(err, shared.ErrAuthExpired) {
			t.Errorf("error = %v, want ErrAuthExpired", err)
		}
	})

	t.Run("server error wraps ErrAPIRequest", func(t *testing.T) {
		service, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))

		_, err := service.WithToken("tok").CurrentUser(context.Background())
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("error = %v, want ErrAPIRequest", err)
		}
	})

	t.Run("unbound service refuses requests", func(t *testing.T) {
		service, _ := newTestService(t, http.NotFoundHandler())

		if _, err := service.CurrentUser(context.Background()); !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("error = %v, want ErrAuthFailed", err)
		}
	})
}

func TestAllPlaylists(t *testing.T) {
	t.Run("follows pagination", func(t *testing.T) {
		const total = 70

		mux := http.NewServeMux()
		mux.HandleFunc("/me/playlists", func(w http.ResponseWriter, r *http.Request) {
			offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
			limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

			var items []SpotifySimplePlaylist
			for i := offset; i < offset+limit && i < total; i++ {
				items = append(items, SpotifySimplePlaylist{
					ID:    fmt.Sprintf("pl_%d", i),
					Name:  fmt.Sprintf("Playlist %d", i),
					Owner: Owner{ID: "alice"},
				})
			}

			response := SpotifyPaginatedPlaylists{Items: items, Total: total, Limit: limit, Offset: offset}
			if offset+limit < total {
				next := "next-page"
				response.Next = &next
			}
			json.NewEncoder(w).Encode(response)
		})
		service, _ := newTestService(t, mux)

		playlists, err := service.WithToken("tok").AllPlaylists(context.Background())
		if err != nil {
			t.Fatalf("AllPlaylists() returned error: %v", err)
		}
		if len(playlists) != total {
			t.Errorf("got %d playlists, want %d", len(playlists), total)
		}
		if playlists[0].OwnerID != "alice" {
			t.Errorf("owner = %q, want alice", playlists[0].OwnerID)
		}
	})

	t.Run("stops at the item bound", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/me/playlists", func(w http.ResponseWriter, r *http.Request) {
			offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
			limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

			items := make([]SpotifySimplePlaylist, limit)
			for i := range items {
				items[i] = SpotifySimplePlaylist{ID: fmt.Sprintf("pl_%d", offset+i)}
			}

			// Always claims another page exists.
			next := "next-page"
			json.NewEncoder(w).Encode(SpotifyPaginatedPlaylists{Items: items, Next: &next})
		})
		service, _ := newTestService(t, mux)

		playlists, err := service.WithToken("tok").AllPlaylists(context.Background())
		if err != nil {
			t.Fatalf("AllPlaylists() returned error: %v", err)
		}
		if len(playlists) > maxPlaylistItems {
			t.Errorf("collected %d items, bound is %d", len(playlists), maxPlaylistItems)
		}
	})
}

func TestTopTracks(t *testing.T) {
	service, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/me/top/tracks" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		query := r.URL.Query()
		if got := query.Get("time_range"); got != "short_term" {
			t.Errorf("time_range = %q, want short_term", got)
		}
		if got := query.Get("limit"); got != "50" {
			t.Errorf("limit = %q, want 50", got)
		}

		json.NewEncoder(w).Encode(SpotifyTopTracks{
			Items: []SpotifyTrack{
				{
					ID:      "t1",
					Name:    "First",
					URI:     "spotify:track:t1",
					Artists: []SpotifyArtist{{Name: "A"}, {Name: "B"}},
					Album:   SpotifyAlbum{Name: "LP"},
				},
			},
		})
	}))

	tracks, err := service.WithToken("tok").TopTracks(context.Background(), 50)
	if err != nil {
		t.Fatalf("TopTracks() returned error: %v", err)
	}
	if len(tracks) != 1 {
		t.Fatalf("got %d tracks, want 1", len(tracks))
	}

	track := tracks[0]
	if track.URI != "spotify:track:t1" {
		t.Errorf("uri = %q", track.URI)
	}
	if track.Artist != "A" {
		t.Errorf("artist = %q, want primary artist", track.Artist)
	}
	if track.Album != "LP" {
		t.Errorf("album = %q", track.Album)
	}
}

func TestPlaylistMutations(t *testing.T) {
	type recorded struct {
		method string
		path   string
		body   map[string]any
	}

	var last recorded
	service, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		last = recorded{method: r.Method, path: r.URL.Path}
		json.NewDecoder(r.Body).Decode(&last.body)

		if r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/users/") {
			json.NewEncoder(w).Encode(SpotifySimplePlaylist{
				ID:     "pl_new",
				Name:   last.body["name"].(string),
				Owner:  Owner{ID: "alice"},
				Public: true,
			})
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	session := service.WithToken("tok")
	ctx := context.Background()

	t.Run("create posts to the user's playlists", func(t *testing.T) {
		playlist, err := session.CreatePlaylist(ctx, "alice", "Mix", "desc", true)
		if err != nil {
			t.Fatalf("CreatePlaylist() returned error: %v", err)
		}
		if playlist.ID != "pl_new" {
			t.Errorf("playlist id = %q", playlist.ID)
		}
		if last.method != http.MethodPost || last.path != "/users/alice/playlists" {
			t.Errorf("request = %s %s", last.method, last.path)
		}
		if last.body["public"] != true {
			t.Errorf("public = %v, want true", last.body["public"])
		}
	})

	t.Run("details update puts to the playlist", func(t *testing.T) {
		if err := session.UpdatePlaylistDetails(ctx, "pl_new", "Renamed", "desc"); err != nil {
			t.Fatalf("UpdatePlaylistDetails() returned error: %v", err)
		}
		if last.method != http.MethodPut || last.path != "/playlists/pl_new" {
			t.Errorf("request = %s %s", last.method, last.path)
		}
	})

	t.Run("replace puts the full uri list", func(t *testing.T) {
		if err := session.ReplacePlaylistItems(ctx, "pl_new", []string{"spotify:track:t1"}); err != nil {
			t.Fatalf("ReplacePlaylistItems() returned error: %v", err)
		}
		if last.method != http.MethodPut || last.path != "/playlists/pl_new/tracks" {
			t.Errorf("request = %s %s", last.method, last.path)
		}
		if uris, ok := last.body["uris"].([]any); !ok || len(uris) != 1 {
			t.Errorf("uris = %v", last.body["uris"])
		}
	})

	t.Run("add posts to the track list", func(t *testing.T) {
		if err := session.AddPlaylistItems(ctx, "pl_new", []string{"spotify:track:t2"}); err != nil {
			t.Fatalf("AddPlaylistItems() returned error: %v", err)
		}
		if last.method != http.MethodPost || last.path != "/playlists/pl_new/tracks" {
			t.Errorf("request = %s %s", last.method, last.path)
		}
	})

	t.Run("unfollow deletes the follower", func(t *testing.T) {
		if err := session.UnfollowPlaylist(ctx, "pl_new"); err != nil {
			t.Fatalf("UnfollowPlaylist() returned error: %v", err)
		}
		if last.method != http.MethodDelete || last.path != "/playlists/pl_new/followers" {
			t.Errorf("request = %s %s", last.method, last.path)
		}
	})
}

func TestProbe(t *testing.T) {
	var sawToken string
	service, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawToken = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(SpotifyUser{ID: "alice"})
	}))

	if err := service.Probe(context.Background(), "probe-token"); err != nil {
		t.Fatalf("Probe() returned error: %v", err)
	}
	if sawToken != "Bearer probe-token" {
		t.Errorf("authorization header = %q", sawToken)
	}
}
