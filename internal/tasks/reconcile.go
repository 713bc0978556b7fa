package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/topmix/internal/models"
	"github.com/desertthunder/topmix/internal/services"
	"github.com/desertthunder/topmix/internal/shared"
)

const (
	// PlaylistPrefix is the common prefix of every managed playlist name
	// in both naming modes; existence checks match against it.
	PlaylistPrefix = "My Monthly Top Tracks"

	playlistDescription = "This playlist was created automatically."

	// SnapshotSize bounds the top-tracks snapshot per playlist.
	SnapshotSize = 50
)

// NamingMode selects how the managed playlist is named. Fixed per
// deployment so the prefix-match invariant stays meaningful.
type NamingMode int

const (
	// ModeMonthly names the playlist after the previous calendar month.
	ModeMonthly NamingMode = iota
	// ModeFixed reuses one unqualified playlist name.
	ModeFixed
)

func (m NamingMode) String() string {
	switch m {
	case ModeMonthly:
		return shared.NamingModeMonthly
	case ModeFixed:
		return shared.NamingModeFixed
	default:
		return ""
	}
}

// ParseNamingMode maps a configured naming_mode value to a [NamingMode].
func ParseNamingMode(value string) (NamingMode, error) {
	switch value {
	case shared.NamingModeMonthly, "":
		return ModeMonthly, nil
	case shared.NamingModeFixed:
		return ModeFixed, nil
	default:
		return ModeMonthly, fmt.Errorf("%w: unknown naming mode %q", shared.ErrInvalidArgument, value)
	}
}

// Action describes the outcome of one reconciliation.
type Action string

const (
	ActionCreated   Action = "created"
	ActionUpdated   Action = "updated"
	ActionUnchanged Action = "unchanged"
	ActionDeleted   Action = "deleted"
	// ActionNone reports that no managed playlist existed to act on.
	// This is a normal outcome, not an error.
	ActionNone Action = "none"
)

// Outcome is the result of a reconciliation for one user.
type Outcome struct {
	Action      Action
	PlaylistID  string
	PlaylistURL string
	Name        string
}

// Reconciler performs create/update/delete decisions for one user's
// managed playlist against an authenticated service session.
type Reconciler struct {
	service services.Service
	now     func() time.Time
}

// NewReconciler creates a [Reconciler] using the given authenticated session.
func NewReconciler(service services.Service) *Reconciler {
	return &Reconciler{service: service, now: time.Now}
}

// TargetName returns the playlist name for the mode at the given time.
// Monthly names are bound to the previous calendar month.
func TargetName(mode NamingMode, now time.Time) string {
	if mode == ModeFixed {
		return PlaylistPrefix
	}

	// Last day of the previous month; AddDate on the raw time would
	// normalize day overflow into the wrong month.
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastMonth := firstOfMonth.AddDate(0, 0, -1)

	return fmt.Sprintf("%s - %s", PlaylistPrefix, lastMonth.Format("January 2006"))
}

// findManaged returns the first playlist in listing order whose name
// starts with the managed prefix and is owned by the user, or nil.
func (r *Reconciler) findManaged(ctx context.Context, userID string) (*models.Playlist, error) {
	playlists, err := r.service.AllPlaylists(ctx)
	if err != nil {
		return nil, err
	}

	for _, playlist := range playlists {
		if playlist.OwnerID == userID && strings.HasPrefix(playlist.Name, PlaylistPrefix) {
			found := playlist
			return &found, nil
		}
	}

	return nil, nil
}

// Status returns the current managed playlist for the user, or nil when
// none exists. No mutation is performed.
func (r *Reconciler) Status(ctx context.Context, userID string) (*models.Playlist, error) {
	return r.findManaged(ctx, userID)
}

// snapshot fetches the current top-tracks snapshot as playlist item URIs.
func (r *Reconciler) snapshot(ctx context.Context) ([]string, error) {
	tracks, err := r.service.TopTracks(ctx, SnapshotSize)
	if err != nil {
		return nil, err
	}

	uris := make([]string, 0, len(tracks))
	for _, track := range tracks {
		uris = append(uris, track.URI)
	}

	return uris, nil
}

// create builds a fresh managed playlist from the current snapshot.
func (r *Reconciler) create(ctx context.Context, userID, name string) (*Outcome, error) {
	uris, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	playlist, err := r.service.CreatePlaylist(ctx, userID, name, playlistDescription, true)
	if err != nil {
		return nil, err
	}

	if len(uris) > 0 {
		if err := r.service.AddPlaylistItems(ctx, playlist.ID, uris); err != nil {
			return nil, err
		}
	}

	return &Outcome{
		Action:      ActionCreated,
		PlaylistID:  playlist.ID,
		PlaylistURL: playlist.URL(),
		Name:        name,
	}, nil
}

// Create ensures a managed playlist exists, never touching an existing one.
//
// Calling Create twice for the same user yields one playlist: the second
// call returns ActionUnchanged with the existing playlist's id.
func (r *Reconciler) Create(ctx context.Context, userID string, mode NamingMode) (*Outcome, error) {
	name := TargetName(mode, r.now())

	existing, err := r.findManaged(ctx, userID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		return &Outcome{
			Action:      ActionUnchanged,
			PlaylistID:  existing.ID,
			PlaylistURL: existing.URL(),
			Name:        existing.Name,
		}, nil
	}

	return r.create(ctx, userID, name)
}

// Update refreshes the managed playlist with the current target name and
// a fresh snapshot, creating it when none exists.
//
// The track list is replaced wholesale; appending would grow the playlist
// without bound across repeated runs.
func (r *Reconciler) Update(ctx context.Context, userID string, mode NamingMode) (*Outcome, error) {
	name := TargetName(mode, r.now())

	existing, err := r.findManaged(ctx, userID)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		return r.create(ctx, userID, name)
	}

	uris, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	if err := r.service.UpdatePlaylistDetails(ctx, existing.ID, name, playlistDescription); err != nil {
		return nil, err
	}
	if err := r.service.ReplacePlaylistItems(ctx, existing.ID, uris); err != nil {
		return nil, err
	}

	return &Outcome{
		Action:      ActionUpdated,
		PlaylistID:  existing.ID,
		PlaylistURL: existing.URL(),
		Name:        name,
	}, nil
}

// Delete unfollows the managed playlist. A missing playlist is reported
// as ActionNone rather than an error.
func (r *Reconciler) Delete(ctx context.Context, userID string) (*Outcome, error) {
	existing, err := r.findManaged(ctx, userID)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		return &Outcome{Action: ActionNone}, nil
	}

	if err := r.service.UnfollowPlaylist(ctx, existing.ID); err != nil {
		return nil, err
	}

	return &Outcome{
		Action:     ActionDeleted,
		PlaylistID: existing.ID,
		Name:       existing.Name,
	}, nil
}
