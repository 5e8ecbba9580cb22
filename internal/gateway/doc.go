// Package gateway serves the coven-account HTTP API.
//
// # Overview
//
// The Gateway owns the SQLite store, the user session backend (SQLite or
// Redis), the admin-first principal resolver and the account service, and
// exposes them over a net/http ServeMux:
//
//   - PUT /session/account - Sign up (no credentials accepted)
//   - GET /session/account - Current account, ?include=profile embeds the profile
//   - DELETE /session/account - Remove the current account, ?include=<any> returns a snapshot
//   - GET /session/account/profile - Current account's profile
//   - GET /health - Liveness check
//
// # Principals
//
// Every account route resolves the bearer token through auth.Resolver. An
// admin token is refused with FORBIDDEN_ADMIN_ACCOUNT and audited. A token
// unknown to both stores yields NOT_FOUND, except on the profile route where
// it yields NO_ACTIVE_SESSION. Admin store failures other than not-found
// surface as 500 and never fall back to the user session lookup.
//
// # Documents
//
// Responses use JSON:API (application/vnd.api+json). Errors are rendered as:
//
//	{"errors":[{"status":"403","code":"FORBIDDEN_ADMIN_ACCOUNT","title":"Forbidden","detail":"Admins have no accounts"}]}
//
// # Lifecycle
//
//	gw, err := gateway.New(cfg, logger)
//	err = gw.Run(ctx) // blocks until ctx is canceled, then shuts down
//
// Run also sweeps expired user and admin sessions every sessions.sweep_interval.
package gateway
