// ABOUTME: Bearer token extraction from the Authorization header
// ABOUTME: A missing or malformed header yields an empty token

package auth

import (
	"net/http"
	"strings"
)

const bearerPrefix = "Bearer "

// BearerToken returns the credential carried by the request's Authorization
// header, or "" if there is none. The scheme is matched case-insensitively.
// An empty token is never special-cased: every store reports it as not found.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}
