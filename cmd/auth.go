package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/topmix/internal/auth"
	"github.com/desertthunder/topmix/internal/server"
	"github.com/desertthunder/topmix/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin performs the OAuth2 authorization flow for a Spotify account.
//
// Starts a local HTTP server for the callback, opens the browser for user
// authorization, and persists the resulting credential record.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	d, closer, err := r.build(cmd)
	if err != nil {
		return err
	}
	defer closer()

	flow := auth.NewFlow(d.service, d.store)

	authURL, _, err := flow.Begin()
	if err != nil {
		return err
	}

	callbackHandler := server.NewCallbackHandler(flow)
	router := server.NewBasicRouter()
	router.Handler(callbackHandler)

	httpServer := &http.Server{
		Addr:              d.config.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server at %v", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.AuthResult

	select {
	case result = <-callbackHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return fmt.Errorf("authorization failed: %w", result.Error())
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Credentials stored for %s\n\n", result.Credential.UserID)
	r.writePlain("You can now use: topmix playlist create\n")

	return nil
}

// AuthStatus lists stored credentials with their refresh and expiry state.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	d, closer, err := r.build(cmd)
	if err != nil {
		return err
	}
	defer closer()

	creds, err := d.store.List(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(creds, true)
	}

	if len(creds) == 0 {
		r.writePlain("No stored credentials. Run: topmix auth login\n")
		return nil
	}

	r.writePlain("Found %d stored credentials:\n\n", len(creds))
	for i, cred := range creds {
		r.writePlain("%d. %s\n", i+1, cred.UserID)
		if cred.ExpiresAt != nil {
			r.writePlain("   Expires: %s\n", cred.ExpiresAt.Format(time.RFC3339))
		} else {
			r.writePlain("   Expires: unknown\n")
		}
		if cred.RefreshToken != "" {
			r.writePlain("   Refresh: available\n")
		} else {
			r.writePlain("   Refresh: none\n")
		}
	}

	return nil
}

// AuthLogout deletes a stored credential.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	d, closer, err := r.build(cmd)
	if err != nil {
		return err
	}
	defer closer()

	userID, err := r.resolveUser(ctx, cmd, d)
	if err != nil {
		return err
	}

	if err := d.store.Delete(ctx, userID); err != nil {
		if errors.Is(err, shared.ErrCredentialNotFound) {
			r.writePlain("No stored credential for %s\n", userID)
			return nil
		}
		return err
	}

	r.writePlain("✓ Credential removed for %s\n", userID)

	return nil
}

// resolveUser returns the target user id: the --user flag, or the only
// stored credential when exactly one exists.
func (r *Runner) resolveUser(ctx context.Context, cmd *cli.Command, d *deps) (string, error) {
	if userID := cmd.String("user"); userID != "" {
		return userID, nil
	}

	creds, err := d.store.List(ctx)
	if err != nil {
		return "", err
	}

	switch len(creds) {
	case 0:
		return "", fmt.Errorf("%w: no stored credentials, run: topmix auth login", shared.ErrAuthExpired)
	case 1:
		return creds[0].UserID, nil
	default:
		return "", fmt.Errorf("%w: multiple users stored, pass --user", shared.ErrMissingArgument)
	}
}
