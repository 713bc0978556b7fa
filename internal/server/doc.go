// Package server provides HTTP routing, middleware, and the web surface
// for the playlist automation service.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// [CallbackHandler] adapts the OAuth2 authorization code callback to
// [auth.Flow] for CLI logins: the flow validates the state parameter,
// exchanges the code, persists the credential, and the handler reports
// the result through a channel. Only one callback is processed per
// handler to prevent replay.
//
// # Web Application
//
// [App] implements the interactive surface: /login redirects into the
// authorization flow, /callback establishes a signed session cookie, and
// the /playlist routes run the reconciler for the logged-in user. Logout
// deletes the stored credential.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
