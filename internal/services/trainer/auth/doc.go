// Package auth authenticates trainer users.
//
// Browsers hold an opaque token in the session cookie; only its SHA-256
// digest is stored server-side. Non-browser clients may exchange a session
// for a short-lived HS256 bearer token. The middleware accepts either.
package auth
