// Package auth manages the credential lifecycle for stored users.
//
// # Token Lifecycle
//
// [TokenManager.EnsureValid] is the single entry point for obtaining a
// usable access token. A token with more than the safety margin left on
// its expiry is returned as-is; anything else triggers a refresh, and the
// refreshed pair is written back to the credential store in one upsert.
// When no refresh token exists the access token is probed with a live
// call, and a rejection surfaces as shared.ErrAuthExpired so the caller
// can route the user back through authorization.
//
// # Authorization Flow
//
// [Flow] drives the redirect-based authorization handshake as an explicit
// state machine: Unauthenticated issues a redirect carrying a single-use
// anti-forgery state token, PendingCallback verifies the returned state
// before any code exchange, and Authenticated persists the resulting
// credential record.
package auth
