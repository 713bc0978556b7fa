package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSignedSessionValues(t *testing.T) {
	const secret = "session-secret"

	t.Run("round trip", func(t *testing.T) {
		signed := signValue(secret, "alice")

		value, err := verifyValue(secret, signed)
		if err != nil {
			t.Fatalf("verifyValue() returned error: %v", err)
		}
		if value != "alice" {
			t.Errorf("value = %q, want alice", value)
		}
	})

	t.Run("tampered value is rejected", func(t *testing.T) {
		signed := signValue(secret, "alice")
		forged := "mallory" + signed[len("alice"):]

		if _, err := verifyValue(secret, forged); err == nil {
			t.Error("expected signature mismatch")
		}
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		signed := signValue(secret, "alice")

		if _, err := verifyValue("other-secret", signed); err == nil {
			t.Error("expected signature mismatch")
		}
	})

	t.Run("malformed value is rejected", func(t *testing.T) {
		if _, err := verifyValue(secret, "no-separator"); err == nil {
			t.Error("expected malformed value error")
		}
	})
}

func TestSessionCookie(t *testing.T) {
	const secret = "session-secret"

	t.Run("set and read back", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		setSession(recorder, secret, "alice")

		request := httptest.NewRequest(http.MethodGet, "/playlist", nil)
		for _, cookie := range recorder.Result().Cookies() {
			request.AddCookie(cookie)
		}

		userID, err := sessionUser(request, secret)
		if err != nil {
			t.Fatalf("sessionUser() returned error: %v", err)
		}
		if userID != "alice" {
			t.Errorf("user id = %q, want alice", userID)
		}
	})

	t.Run("missing cookie", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/playlist", nil)
		if _, err := sessionUser(request, secret); err == nil {
			t.Error("expected error without a session cookie")
		}
	})

	t.Run("clear expires the cookie", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		clearSession(recorder)

		cookies := recorder.Result().Cookies()
		if len(cookies) != 1 {
			t.Fatalf("got %d cookies, want 1", len(cookies))
		}
		if cookies[0].MaxAge >= 0 {
			t.Errorf("max age = %d, want negative", cookies[0].MaxAge)
		}
	})
}
