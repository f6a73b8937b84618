// Package i18n negotiates the response locale and formats catalog messages.
//
// The API serves two locales: en-US (default) and pt-BR, matching the card
// catalog's Name (Portuguese) and NameEn (English) columns.
package i18n

import (
	"net/http"
	"strings"
	"time"

	_ "github.com/louisbranch/cardtrainer/internal/platform/i18n/catalog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// LangParam is the query parameter used to select a language.
	LangParam = "lang"
	// LangCookieName stores the client's language preference.
	LangCookieName = "cardtrainer_lang"
)

var (
	supportedTags = []language.Tag{language.AmericanEnglish, language.BrazilianPortuguese}
	matcher       = language.NewMatcher(supportedTags)
)

// SupportedTags returns the supported language tags, default first.
func SupportedTags() []language.Tag {
	out := make([]language.Tag, len(supportedTags))
	copy(out, supportedTags)
	return out
}

// DefaultTag returns the default language tag.
func DefaultTag() language.Tag {
	return supportedTags[0]
}

// ParseTag parses value and reports whether it maps onto a supported tag.
func ParseTag(value string) (language.Tag, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return DefaultTag(), false
	}
	tag, err := language.Parse(value)
	if err != nil {
		return DefaultTag(), false
	}
	matched, _, confidence := matcher.Match(tag)
	if confidence == language.No {
		return DefaultTag(), false
	}
	return canonical(matched), true
}

// MatchTags picks the best supported tag for an ordered preference list.
func MatchTags(tags []language.Tag) language.Tag {
	if len(tags) == 0 {
		return DefaultTag()
	}
	matched, _, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return DefaultTag()
	}
	return canonical(matched)
}

// IsPortuguese reports whether locale selects the pt-BR catalog.
func IsPortuguese(locale string) bool {
	tag, ok := ParseTag(locale)
	return ok && tag == language.BrazilianPortuguese
}

// ResolveTag determines the best language tag for the request.
// The bool indicates whether the lang query param should be persisted as a cookie.
func ResolveTag(r *http.Request) (language.Tag, bool) {
	if r == nil {
		return DefaultTag(), false
	}

	if langValue := strings.TrimSpace(r.URL.Query().Get(LangParam)); langValue != "" {
		if tag, ok := ParseTag(langValue); ok {
			return tag, true
		}
	}

	if cookie, err := r.Cookie(LangCookieName); err == nil {
		if tag, ok := ParseTag(cookie.Value); ok {
			return tag, false
		}
	}

	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil {
			return MatchTags(tags), false
		}
	}

	return DefaultTag(), false
}

// SetLanguageCookie persists the selected language on the response.
func SetLanguageCookie(w http.ResponseWriter, tag language.Tag) {
	if w == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     LangCookieName,
		Value:    tag.String(),
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}

// Sprintf formats a catalog key for locale.
func Sprintf(locale string, key string, args ...any) string {
	tag, _ := ParseTag(locale)
	return message.NewPrinter(tag).Sprintf(key, args...)
}

// canonical strips matcher extensions (e.g. -u-rg-) so tags compare equal to
// the supported list.
func canonical(tag language.Tag) language.Tag {
	base, _ := tag.Base()
	region, _ := tag.Region()
	for _, supported := range supportedTags {
		sb, _ := supported.Base()
		sr, _ := supported.Region()
		if sb == base && sr == region {
			return supported
		}
	}
	for _, supported := range supportedTags {
		sb, _ := supported.Base()
		if sb == base {
			return supported
		}
	}
	return DefaultTag()
}
