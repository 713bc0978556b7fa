package server

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/desertthunder/topmix/internal/auth"
	"github.com/desertthunder/topmix/internal/models"
	"github.com/desertthunder/topmix/internal/shared"
)

// AuthResult contains the result of an OAuth authorization flow.
type AuthResult struct {
	Credential *models.Credential
	err        error
}

func (a *AuthResult) Error() error {
	return a.err
}

// CallbackHandler handles OAuth2 callback requests for the CLI login flow.
// Implements the Handler interface for registration with a Router.
//
// State verification, code exchange, and credential persistence are
// delegated to [auth.Flow]; this handler only adapts HTTP to the flow.
type CallbackHandler struct {
	flow        *auth.Flow
	resultChan  chan AuthResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewCallbackHandler creates a new callback handler completing the given flow.
func NewCallbackHandler(flow *auth.Flow) *CallbackHandler {
	return &CallbackHandler{
		flow:       flow,
		resultChan: make(chan AuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP handles the OAuth callback request.
//
// Completes the authorization flow and sends the persisted credential
// through the result channel. Only one callback is processed.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	query := r.URL.Query()
	cred, err := h.flow.Complete(r.Context(), query.Get("state"), query.Get("code"), query.Get("error"))
	if err != nil {
		h.Send(AuthResult{err: err})
		status := http.StatusBadRequest
		if !errors.Is(err, shared.ErrInvalidState) && !errors.Is(err, shared.ErrAuthFailed) {
			status = http.StatusInternalServerError
		}
		http.Error(w, fmt.Sprintf("Authorization failed: %v", err), status)
		return
	}

	h.Send(AuthResult{Credential: cred})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `
<!DOCTYPE html>
<html>
<head>
    <title>Authorization Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ Authorization Successful</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`)
}

// Send sends the auth result through the channel (only once).
func (h *CallbackHandler) Send(result AuthResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving flow completion.
//
// Channel will receive exactly one result and then be closed.
func (h *CallbackHandler) Result() <-chan AuthResult {
	return h.resultChan
}
