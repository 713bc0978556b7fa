package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/topmix/internal/auth"
	"github.com/desertthunder/topmix/internal/repositories"
	mock "github.com/desertthunder/topmix/internal/testing"
	"golang.org/x/oauth2"
)

func callbackFixture(t *testing.T) (*CallbackHandler, *auth.Flow) {
	t.Helper()

	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "granted",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	t.Cleanup(endpoint.Close)

	service := &mock.MockService{
		UserID: "alice",
		Cfg: &oauth2.Config{
			ClientID:     "client",
			ClientSecret: "secret",
			Endpoint:     oauth2.Endpoint{AuthURL: endpoint.URL + "/authorize", TokenURL: endpoint.URL},
		},
	}

	flow := auth.NewFlow(service, repositories.NewMemoryCredentialStore())
	return NewCallbackHandler(flow), flow
}

func TestCallbackHandler(t *testing.T) {
	t.Run("successful callback delivers the credential", func(t *testing.T) {
		handler, flow := callbackFixture(t)

		_, state, err := flow.Begin()
		if err != nil {
			t.Fatalf("Begin() returned error: %v", err)
		}

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/callback?state="+state+"&code=auth-code", nil))

		if recorder.Code != http.StatusOK {
			t.Fatalf("status = %d, body %q", recorder.Code, recorder.Body.String())
		}

		result := <-handler.Result()
		if result.Error() != nil {
			t.Fatalf("result error: %v", result.Error())
		}
		if result.Credential == nil || result.Credential.UserID != "alice" {
			t.Errorf("credential = %+v", result.Credential)
		}
	})

	t.Run("second callback is rejected", func(t *testing.T) {
		handler, flow := callbackFixture(t)

		_, state, err := flow.Begin()
		if err != nil {
			t.Fatalf("Begin() returned error: %v", err)
		}

		first := httptest.NewRecorder()
		handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/callback?state="+state+"&code=auth-code", nil))
		if first.Code != http.StatusOK {
			t.Fatalf("first status = %d", first.Code)
		}

		second := httptest.NewRecorder()
		handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/callback?state="+state+"&code=auth-code", nil))
		if second.Code != http.StatusBadRequest {
			t.Errorf("second status = %d, want %d", second.Code, http.StatusBadRequest)
		}
	})

	t.Run("invalid state surfaces through the result channel", func(t *testing.T) {
		handler, _ := callbackFixture(t)

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/callback?state=forged&code=auth-code", nil))

		if recorder.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", recorder.Code, http.StatusBadRequest)
		}

		result := <-handler.Result()
		if result.Error() == nil {
			t.Error("expected an error result")
		}
	})

	t.Run("result channel closes after one send", func(t *testing.T) {
		handler, _ := callbackFixture(t)

		handler.Send(AuthResult{})
		handler.Send(AuthResult{})

		if _, ok := <-handler.Result(); !ok {
			t.Fatal("expected the buffered result")
		}
		if _, ok := <-handler.Result(); ok {
			t.Error("expected the channel to be closed")
		}
	})
}
