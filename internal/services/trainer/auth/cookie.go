package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// CookieName is the session cookie name.
const CookieName = "cardtrainer_session"

// CookiePolicy controls session cookie attributes.
type CookiePolicy struct {
	Secure   bool
	SameSite http.SameSite
}

// ParseSameSite maps a config value to an http.SameSite mode. Blank means lax.
func ParseSameSite(value string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("unknown SameSite mode %q", value)
	}
}

func (p CookiePolicy) attributes() (bool, http.SameSite) {
	sameSite := p.SameSite
	if sameSite == 0 || sameSite == http.SameSiteDefaultMode {
		sameSite = http.SameSiteLaxMode
	}
	// Browsers drop SameSite=None cookies that are not Secure.
	secure := p.Secure || sameSite == http.SameSiteNoneMode
	return secure, sameSite
}

// ReadCookie returns the trimmed session token when present.
func ReadCookie(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie == nil {
		return "", false
	}
	value := strings.TrimSpace(cookie.Value)
	if value == "" {
		return "", false
	}
	return value, true
}

// Write sets the session cookie.
func (p CookiePolicy) Write(w http.ResponseWriter, token string, expiresAt time.Time) {
	if w == nil {
		return
	}
	secure, sameSite := p.attributes()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    strings.TrimSpace(token),
		Path:     "/",
		Expires:  expiresAt.UTC(),
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
}

// Clear expires the session cookie.
func (p CookiePolicy) Clear(w http.ResponseWriter) {
	if w == nil {
		return
	}
	secure, sameSite := p.attributes()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		MaxAge:   -1,
	})
}
