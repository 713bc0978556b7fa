package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
)

const sessionCookie = "topmix_user"

// signValue returns value plus an HMAC-SHA256 signature derived from the
// session secret, so the cookie carries the user id tamper-evidently.
func signValue(secret, value string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(value))
	return value + "." + hex.EncodeToString(mac.Sum(nil))
}

// verifyValue checks the signature and returns the embedded value.
func verifyValue(secret, signed string) (string, error) {
	idx := strings.LastIndex(signed, ".")
	if idx < 0 {
		return "", fmt.Errorf("malformed session value")
	}

	value := signed[:idx]
	if !hmac.Equal([]byte(signValue(secret, value)), []byte(signed)) {
		return "", fmt.Errorf("session signature mismatch")
	}

	return value, nil
}

// setSession writes the signed user id cookie.
func setSession(w http.ResponseWriter, secret, userID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    signValue(secret, userID),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSession expires the session cookie.
func clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   sessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}

// sessionUser extracts and verifies the user id from the request cookie.
func sessionUser(r *http.Request, secret string) (string, error) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return "", err
	}

	return verifyValue(secret, cookie.Value)
}
