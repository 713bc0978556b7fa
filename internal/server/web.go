package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/topmix/internal/auth"
	"github.com/desertthunder/topmix/internal/models"
	"github.com/desertthunder/topmix/internal/repositories"
	"github.com/desertthunder/topmix/internal/services"
	"github.com/desertthunder/topmix/internal/shared"
	"github.com/desertthunder/topmix/internal/tasks"
)

// App serves the interactive web surface: the authorization flow plus
// per-user playlist actions.
type App struct {
	flow    *auth.Flow
	tokens  *auth.TokenManager
	store   repositories.CredentialStore
	service services.Service
	mode    tasks.NamingMode
	secret  string
	logger  *log.Logger
}

// AppOpts contains the dependencies for creating an [App].
type AppOpts struct {
	Flow    *auth.Flow
	Tokens  *auth.TokenManager
	Store   repositories.CredentialStore
	Service services.Service
	Mode    tasks.NamingMode
	Secret  string
	Logger  *log.Logger
}

// NewApp creates a new [App] handler.
func NewApp(opts AppOpts) *App {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &App{
		flow:    opts.Flow,
		tokens:  opts.Tokens,
		store:   opts.Store,
		service: opts.Service,
		mode:    opts.Mode,
		secret:  opts.Secret,
		logger:  opts.Logger,
	}
}

// Routes returns the HTTP routes this handler serves.
func (a *App) Routes() []string {
	return []string{
		"/{$}",
		"/login",
		"/callback",
		"/playlist",
		"/playlist/create",
		"/playlist/update",
		"/playlist/delete",
		"/logout",
		"/healthz",
	}
}

// ServeHTTP dispatches to the route-specific handlers.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/":
		a.index(w, r)
	case "/login":
		a.login(w, r)
	case "/callback":
		a.callback(w, r)
	case "/playlist":
		a.playlistStatus(w, r)
	case "/playlist/create":
		a.playlistCreate(w, r)
	case "/playlist/update":
		a.playlistUpdate(w, r)
	case "/playlist/delete":
		a.playlistDelete(w, r)
	case "/logout":
		a.logout(w, r)
	case "/healthz":
		a.healthz(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (a *App) index(w http.ResponseWriter, r *http.Request) {
	a.page(w, `<h1>topmix</h1>
<p>Keep a playlist of your most-played tracks, refreshed automatically.</p>
<p><a href="/login">Log in with Spotify</a> · <a href="/playlist">My playlist</a></p>`)
}

// login begins the authorization flow and redirects to Spotify.
func (a *App) login(w http.ResponseWriter, r *http.Request) {
	authURL, _, err := a.flow.Begin()
	if err != nil {
		a.fail(w, http.StatusInternalServerError, "failed to start authorization", err)
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

// callback completes the authorization flow and establishes the session.
func (a *App) callback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	cred, err := a.flow.Complete(r.Context(), query.Get("state"), query.Get("code"), query.Get("error"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, shared.ErrInvalidState) || errors.Is(err, shared.ErrAuthFailed) {
			status = http.StatusBadRequest
		}
		a.fail(w, status, "authorization failed", err)
		return
	}

	setSession(w, a.secret, cred.UserID)
	http.Redirect(w, r, "/playlist", http.StatusFound)
}

// session resolves the request's credential and a valid access token,
// redirecting through /login when authorization is missing or expired.
func (a *App) session(w http.ResponseWriter, r *http.Request) (*models.Credential, services.Service, bool) {
	userID, err := sessionUser(r, a.secret)
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusFound)
		return nil, nil, false
	}

	cred, err := a.store.Get(r.Context(), userID)
	if err != nil {
		clearSession(w)
		http.Redirect(w, r, "/login", http.StatusFound)
		return nil, nil, false
	}

	token, err := a.tokens.EnsureValid(r.Context(), cred)
	if err != nil {
		if errors.Is(err, shared.ErrAuthExpired) {
			clearSession(w)
			http.Redirect(w, r, "/login", http.StatusFound)
			return nil, nil, false
		}
		a.fail(w, http.StatusInternalServerError, "failed to validate credentials", err)
		return nil, nil, false
	}

	return cred, a.service.WithToken(token), true
}

func (a *App) playlistStatus(w http.ResponseWriter, r *http.Request) {
	cred, session, ok := a.session(w, r)
	if !ok {
		return
	}

	playlist, err := tasks.NewReconciler(session).Status(r.Context(), cred.UserID)
	if err != nil {
		a.fail(w, http.StatusBadGateway, "failed to look up playlist", err)
		return
	}

	if playlist == nil {
		a.page(w, `<p>No managed playlist yet.</p>
<p><a href="/playlist/create">Create it</a></p>`)
		return
	}

	a.page(w, fmt.Sprintf(`<p>Playlist %q exists with %d tracks.</p>
<p><a href="%s">Open in Spotify</a> · <a href="/playlist/update">Update</a> · <a href="/playlist/delete">Delete</a></p>`,
		playlist.Name, playlist.TrackCount, playlist.URL()))
}

func (a *App) playlistCreate(w http.ResponseWriter, r *http.Request) {
	cred, session, ok := a.session(w, r)
	if !ok {
		return
	}

	outcome, err := tasks.NewReconciler(session).Create(r.Context(), cred.UserID, a.mode)
	if err != nil {
		a.fail(w, http.StatusBadGateway, "failed to create playlist", err)
		return
	}

	a.outcomePage(w, outcome)
}

func (a *App) playlistUpdate(w http.ResponseWriter, r *http.Request) {
	cred, session, ok := a.session(w, r)
	if !ok {
		return
	}

	outcome, err := tasks.NewReconciler(session).Update(r.Context(), cred.UserID, a.mode)
	if err != nil {
		a.fail(w, http.StatusBadGateway, "failed to update playlist", err)
		return
	}

	a.outcomePage(w, outcome)
}

func (a *App) playlistDelete(w http.ResponseWriter, r *http.Request) {
	cred, session, ok := a.session(w, r)
	if !ok {
		return
	}

	outcome, err := tasks.NewReconciler(session).Delete(r.Context(), cred.UserID)
	if err != nil {
		a.fail(w, http.StatusBadGateway, "failed to delete playlist", err)
		return
	}

	a.outcomePage(w, outcome)
}

// logout removes the stored credential (explicit opt-out) and ends the session.
func (a *App) logout(w http.ResponseWriter, r *http.Request) {
	if userID, err := sessionUser(r, a.secret); err == nil {
		if err := a.store.Delete(r.Context(), userID); err != nil && !errors.Is(err, shared.ErrCredentialNotFound) {
			a.logger.Warn("failed to delete credential on logout", "user", userID, "error", err)
		}
	}

	clearSession(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (a *App) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}

// outcomePage renders a reconciliation outcome as a user-visible message.
func (a *App) outcomePage(w http.ResponseWriter, outcome *tasks.Outcome) {
	var msg string
	switch outcome.Action {
	case tasks.ActionCreated:
		msg = fmt.Sprintf("Playlist %q created successfully!", outcome.Name)
	case tasks.ActionUpdated:
		msg = fmt.Sprintf("Playlist %q updated successfully!", outcome.Name)
	case tasks.ActionUnchanged:
		msg = fmt.Sprintf("Playlist %q already exists.", outcome.Name)
	case tasks.ActionDeleted:
		msg = "Playlist deleted successfully."
	case tasks.ActionNone:
		msg = "No playlist found."
	}

	body := "<p>" + msg + "</p>"
	if outcome.PlaylistURL != "" {
		body += fmt.Sprintf(`<p><a href="%s">Open in Spotify</a></p>`, outcome.PlaylistURL)
	}
	body += `<p><a href="/playlist">Back</a></p>`

	a.page(w, body)
}

func (a *App) page(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<!DOCTYPE html>\n<html><body>%s</body></html>\n", body)
}

// fail logs the error and aborts the request with an explicit message.
func (a *App) fail(w http.ResponseWriter, status int, msg string, err error) {
	a.logger.Error(msg, "error", err)
	http.Error(w, fmt.Sprintf("%s: %v", msg, err), status)
}
