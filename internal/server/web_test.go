package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/desertthunder/topmix/internal/auth"
	"github.com/desertthunder/topmix/internal/models"
	"github.com/desertthunder/topmix/internal/repositories"
	"github.com/desertthunder/topmix/internal/tasks"
	mock "github.com/desertthunder/topmix/internal/testing"
	"golang.org/x/oauth2"
)

const testSecret = "session-secret"

// webFixture wires an App against a mock service and a token endpoint.
type webFixture struct {
	app     *App
	service *mock.MockService
	store   *repositories.MemoryCredentialStore
}

func newWebFixture(t *testing.T) *webFixture {
	t.Helper()

	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "granted",
			"refresh_token": "long-lived",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}))
	t.Cleanup(endpoint.Close)

	service := &mock.MockService{
		UserID:       "alice",
		TopTrackList: []models.Track{{ID: "t1", URI: "spotify:track:t1"}},
		Cfg: &oauth2.Config{
			ClientID:     "client",
			ClientSecret: "secret",
			Endpoint:     oauth2.Endpoint{AuthURL: endpoint.URL + "/authorize", TokenURL: endpoint.URL},
		},
	}
	store := repositories.NewMemoryCredentialStore()

	app := NewApp(AppOpts{
		Flow:    auth.NewFlow(service, store),
		Tokens:  auth.NewTokenManager(store, service.Cfg, nil),
		Store:   store,
		Service: service,
		Mode:    tasks.ModeMonthly,
		Secret:  testSecret,
	})

	return &webFixture{app: app, service: service, store: store}
}

// authorize walks /login and /callback and returns the session cookies.
func (f *webFixture) authorize(t *testing.T) []*http.Cookie {
	t.Helper()

	login := httptest.NewRecorder()
	f.app.ServeHTTP(login, httptest.NewRequest(http.MethodGet, "/login", nil))
	if login.Code != http.StatusFound {
		t.Fatalf("login status = %d, want %d", login.Code, http.StatusFound)
	}

	location, err := url.Parse(login.Header().Get("Location"))
	if err != nil {
		t.Fatalf("failed to parse redirect: %v", err)
	}
	state := location.Query().Get("state")
	if state == "" {
		t.Fatal("login redirect carries no state")
	}

	callback := httptest.NewRecorder()
	f.app.ServeHTTP(callback, httptest.NewRequest(http.MethodGet, "/callback?state="+state+"&code=auth-code", nil))
	if callback.Code != http.StatusFound {
		t.Fatalf("callback status = %d, body %q", callback.Code, callback.Body.String())
	}

	return callback.Result().Cookies()
}

func withCookies(r *http.Request, cookies []*http.Cookie) *http.Request {
	for _, cookie := range cookies {
		r.AddCookie(cookie)
	}
	return r
}

func TestAppAuthorization(t *testing.T) {
	t.Run("callback establishes a session and stores the credential", func(t *testing.T) {
		fixture := newWebFixture(t)

		cookies := fixture.authorize(t)
		if len(cookies) == 0 {
			t.Fatal("expected a session cookie")
		}

		cred, err := fixture.store.Get(context.Background(), "alice")
		if err != nil {
			t.Fatalf("credential was not stored: %v", err)
		}
		if cred.AccessToken != "granted" {
			t.Errorf("access token = %q", cred.AccessToken)
		}
	})

	t.Run("forged state is rejected", func(t *testing.T) {
		fixture := newWebFixture(t)

		recorder := httptest.NewRecorder()
		fixture.app.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/callback?state=forged&code=x", nil))

		if recorder.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", recorder.Code, http.StatusBadRequest)
		}
	})

	t.Run("provider error is rejected", func(t *testing.T) {
		fixture := newWebFixture(t)

		login := httptest.NewRecorder()
		fixture.app.ServeHTTP(login, httptest.NewRequest(http.MethodGet, "/login", nil))
		location, _ := url.Parse(login.Header().Get("Location"))
		state := location.Query().Get("state")

		recorder := httptest.NewRecorder()
		fixture.app.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/callback?state="+state+"&error=access_denied", nil))

		if recorder.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", recorder.Code, http.StatusBadRequest)
		}
	})
}

func TestAppPlaylistPages(t *testing.T) {
	t.Run("requires a session", func(t *testing.T) {
		fixture := newWebFixture(t)

		recorder := httptest.NewRecorder()
		fixture.app.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/playlist", nil))

		if recorder.Code != http.StatusFound {
			t.Fatalf("status = %d, want redirect", recorder.Code)
		}
		if got := recorder.Header().Get("Location"); got != "/login" {
			t.Errorf("redirect = %q, want /login", got)
		}
	})

	t.Run("status before and after create", func(t *testing.T) {
		fixture := newWebFixture(t)
		cookies := fixture.authorize(t)

		recorder := httptest.NewRecorder()
		fixture.app.ServeHTTP(recorder, withCookies(httptest.NewRequest(http.MethodGet, "/playlist", nil), cookies))
		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d, body %q", recorder.Code, recorder.Body.String())
		}
		if !strings.Contains(recorder.Body.String(), "No managed playlist") {
			t.Errorf("body = %q, expected empty state", recorder.Body.String())
		}

		create := httptest.NewRecorder()
		fixture.app.ServeHTTP(create, withCookies(httptest.NewRequest(http.MethodGet, "/playlist/create", nil), cookies))
		if create.Code != http.StatusOK {
			t.Fatalf("create status = %d, body %q", create.Code, create.Body.String())
		}
		if !strings.Contains(create.Body.String(), "created successfully") {
			t.Errorf("create body = %q", create.Body.String())
		}

		after := httptest.NewRecorder()
		fixture.app.ServeHTTP(after, withCookies(httptest.NewRequest(http.MethodGet, "/playlist", nil), cookies))
		if !strings.Contains(after.Body.String(), "exists") {
			t.Errorf("status body = %q, expected existing playlist", after.Body.String())
		}
	})

	t.Run("update and delete round trip", func(t *testing.T) {
		fixture := newWebFixture(t)
		cookies := fixture.authorize(t)

		update := httptest.NewRecorder()
		fixture.app.ServeHTTP(update, withCookies(httptest.NewRequest(http.MethodGet, "/playlist/update", nil), cookies))
		if !strings.Contains(update.Body.String(), "created successfully") {
			t.Errorf("first update body = %q, expected creation", update.Body.String())
		}

		again := httptest.NewRecorder()
		fixture.app.ServeHTTP(again, withCookies(httptest.NewRequest(http.MethodGet, "/playlist/update", nil), cookies))
		if !strings.Contains(again.Body.String(), "updated successfully") {
			t.Errorf("second update body = %q", again.Body.String())
		}

		remove := httptest.NewRecorder()
		fixture.app.ServeHTTP(remove, withCookies(httptest.NewRequest(http.MethodGet, "/playlist/delete", nil), cookies))
		if !strings.Contains(remove.Body.String(), "deleted successfully") {
			t.Errorf("delete body = %q", remove.Body.String())
		}

		gone := httptest.NewRecorder()
		fixture.app.ServeHTTP(gone, withCookies(httptest.NewRequest(http.MethodGet, "/playlist/delete", nil), cookies))
		if !strings.Contains(gone.Body.String(), "No playlist found") {
			t.Errorf("second delete body = %q", gone.Body.String())
		}
	})
}

func TestAppLogout(t *testing.T) {
	fixture := newWebFixture(t)
	cookies := fixture.authorize(t)

	recorder := httptest.NewRecorder()
	request := withCookies(httptest.NewRequest(http.MethodGet, "/logout", nil), cookies)
	fixture.app.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusFound {
		t.Fatalf("status = %d, want redirect", recorder.Code)
	}

	if _, err := fixture.store.Get(request.Context(), "alice"); err == nil {
		t.Error("credential should be deleted on logout")
	}
}

func TestAppHealthz(t *testing.T) {
	fixture := newWebFixture(t)

	recorder := httptest.NewRecorder()
	fixture.app.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if recorder.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", recorder.Code, http.StatusOK)
	}
	if !strings.Contains(recorder.Body.String(), `"ok"`) {
		t.Errorf("body = %q", recorder.Body.String())
	}
}
