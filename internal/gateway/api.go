// ABOUTME: HTTP handlers for the account lifecycle routes under /session/account
// ABOUTME: Resolves the bearer principal, rejects admins, and renders JSON:API documents

package gateway

import (
	"context"
	"net/http"

	"github.com/2389/coven-account/internal/account"
	"github.com/2389/coven-account/internal/apierr"
	"github.com/2389/coven-account/internal/auth"
	"github.com/2389/coven-account/internal/store"
)

// errBearerOnSignUp rejects sign-up requests that already carry credentials.
var errBearerOnSignUp = apierr.New(apierr.CodeValidation, http.StatusForbidden,
	"Sign-up does not accept an Authorization header", nil)

func (g *Gateway) baseURL() string {
	return g.config.Server.BaseURL
}

// handleSignUp handles PUT /session/account. Any Authorization header is
// refused; admin bearer tokens are refused as admins.
func (g *Gateway) handleSignUp(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "" {
		token := auth.BearerToken(r)
		if token == "" {
			g.writeError(w, r, errBearerOnSignUp, http.StatusBadRequest)
			return
		}

		res := g.resolver.Resolve(r.Context(), token, store.IncludeNone)
		switch res.Kind {
		case auth.ResolvedAdmin:
			_, err := g.sessionFrom(r.Context(), res, r)
			g.writeError(w, r, err, http.StatusBadRequest)
		case auth.ResolvedError:
			g.writeError(w, r, res.Err(), http.StatusInternalServerError)
		default:
			g.writeError(w, r, errBearerOnSignUp, http.StatusBadRequest)
		}
		return
	}

	include := r.URL.Query().Get("include")
	if err := validateInclude(include); err != nil {
		g.writeError(w, r, err, http.StatusBadRequest)
		return
	}

	in, err := decodeSignUp(w, r)
	if err != nil {
		g.writeError(w, r, err, http.StatusBadRequest)
		return
	}

	acct, err := g.accounts.Add(r.Context(), in, auth.IncludeFromQuery(include))
	if err != nil {
		g.writeError(w, r, err, http.StatusBadRequest)
		return
	}

	g.logger.Info("account created", "account_id", acct.ID, "username", acct.Username)
	g.writeDocument(w, http.StatusCreated, SerializeAccount(g.baseURL(), acct))
}

// handleGetAccount handles GET /session/account.
func (g *Gateway) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	include := r.URL.Query().Get("include")
	if err := validateInclude(include); err != nil {
		g.writeError(w, r, err, http.StatusBadRequest)
		return
	}

	res := g.resolver.Resolve(r.Context(), auth.BearerToken(r), auth.IncludeFromQuery(include))
	session, err := g.sessionFrom(r.Context(), res, r)
	if err != nil {
		g.writeError(w, r, err, http.StatusInternalServerError)
		return
	}

	g.writeDocument(w, http.StatusOK, SerializeAccount(g.baseURL(), session.Account))
}

// handleDestroyAccount handles DELETE /session/account. Any non-empty include
// returns the account as it was before removal.
func (g *Gateway) handleDestroyAccount(w http.ResponseWriter, r *http.Request) {
	include := r.URL.Query().Get("include")

	res := g.resolver.Resolve(r.Context(), auth.BearerToken(r), auth.IncludeFromQuery(include))
	session, err := g.sessionFrom(r.Context(), res, r)
	if err != nil {
		g.writeError(w, r, err, http.StatusInternalServerError)
		return
	}

	snapshot, err := g.accounts.Remove(r.Context(), session.Account, account.RemoveOptions{Include: include})
	if err != nil {
		g.writeError(w, r, err, http.StatusInternalServerError)
		return
	}

	if snapshot == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	g.writeDocument(w, http.StatusOK, SerializeAccount(g.baseURL(), snapshot))
}

// handleGetProfile handles GET /session/account/profile. A token that names
// no live session is reported as an invalid session rather than not found.
func (g *Gateway) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	res := g.resolver.Resolve(r.Context(), auth.BearerToken(r), store.IncludeAccountProfile)
	session, err := g.sessionFrom(r.Context(), res, r)
	if err != nil {
		if res.Kind == auth.ResolvedNotFound {
			if status, _ := apierr.Translate(err, http.StatusInternalServerError); status == http.StatusNotFound {
				err = apierr.ErrNoActiveSession
			}
		}
		g.writeError(w, r, err, http.StatusInternalServerError)
		return
	}

	profile := session.Account.Profile
	if profile == nil {
		profile = &store.Profile{AccountID: session.Account.ID}
	}
	g.writeDocument(w, http.StatusOK, SerializeProfile(g.baseURL(), profile))
}

// sessionFrom unwraps a resolution, auditing admins that reach an account route.
func (g *Gateway) sessionFrom(ctx context.Context, res auth.Resolution, r *http.Request) (*store.Session, error) {
	if res.Kind == auth.ResolvedAdmin {
		route := r.Method + " " + r.URL.Path
		g.logger.Warn("admin token used on account route", "admin_id", res.Admin.UserID, "route", route)
		if g.denials.First(res.Admin.UserID + " " + route) {
			g.accounts.RecordAdminDenied(ctx, res.Admin.UserID, route)
		}
	}
	return res.Session()
}
