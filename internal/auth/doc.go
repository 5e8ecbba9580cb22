// Package auth resolves bearer tokens to principals for coven-account.
//
// # Principals
//
// A token identifies either an administrator or a user session, never both.
// Admins are operators: they authenticate with admin sessions or HS256 JWTs
// and are forbidden from every account route.
//
// # Resolution
//
//	resolver := auth.NewResolver(auth.AdminChain{storeValidator, jwtValidator}, sessions)
//	res := resolver.Resolve(ctx, auth.BearerToken(r), store.IncludeNone)
//	session, err := res.Session()
//
// Resolve consults the admin validators first:
//
//   - admin match: ResolvedAdmin; Session() returns apierr.ErrForbiddenAdminAccount
//   - not found (errors.Is store.ErrNotFound): fall through to the session store
//   - any other error: ResolvedError with that error; the session store is not consulted
//
// The session lookup then yields ResolvedSession, ResolvedNotFound (an apierr
// NOT_FOUND with status 404) or ResolvedError.
//
// # Admin tokens
//
// Admin JWTs carry the admin user ID in "sub" and are signed with
// auth.jwt_secret. JWT validation is only part of the chain when a secret is
// configured. Tokens that fail verification count as not found, so user
// session tokens pass through the JWT validator untouched.
package auth
