// Package i18n renders localized, user-facing messages for error codes.
package i18n

import (
	"bytes"
	"strings"
	"sync"
	"text/template"

	i18ncatalog "github.com/louisbranch/cardtrainer/internal/platform/i18n/catalog"
)

// Code is a machine-readable error code (duplicated from errors package to avoid cycle).
type Code = string

const namespace = "errors"

// Catalog maps error codes to message templates for a specific locale.
type Catalog struct {
	locale    string
	messages  map[Code]string
	templates sync.Map // Code -> *template.Template
}

var (
	catalogsMu sync.RWMutex
	catalogs   = map[string]*Catalog{}
)

// GetCatalog returns the catalog for the given locale.
// Falls back to en-US if the locale is not found.
func GetCatalog(locale string) *Catalog {
	requested := strings.TrimSpace(locale)
	if requested == "" {
		requested = i18ncatalog.BaseLocale
	}

	catalogsMu.RLock()
	cached, ok := catalogs[requested]
	catalogsMu.RUnlock()
	if ok {
		return cached
	}

	resolvedLocale, messages := i18ncatalog.Default().NamespaceMessagesWithFallback(requested, namespace)

	catalogsMu.Lock()
	defer catalogsMu.Unlock()
	if existing, ok := catalogs[resolvedLocale]; ok {
		catalogs[requested] = existing
		return existing
	}
	built := NewCatalog(resolvedLocale, messages)
	catalogs[resolvedLocale] = built
	catalogs[requested] = built
	return built
}

// NewCatalog creates a new catalog with the given locale and messages.
func NewCatalog(locale string, messages map[Code]string) *Catalog {
	cloned := make(map[Code]string, len(messages))
	for key, value := range messages {
		cloned[key] = value
	}
	return &Catalog{
		locale:   locale,
		messages: cloned,
	}
}

// Locale returns the locale of this catalog.
func (c *Catalog) Locale() string {
	return c.locale
}

// Format renders the message template with the given metadata.
// Falls back to the error code itself if no template is found, and to the raw
// template text when it cannot be parsed or executed.
func (c *Catalog) Format(code Code, metadata map[string]string) string {
	text, ok := c.messages[code]
	if !ok {
		return code
	}
	if !strings.Contains(text, "{{") {
		return text
	}

	tmpl, err := c.template(code, text)
	if err != nil {
		return text
	}
	if metadata == nil {
		metadata = map[string]string{}
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, metadata); err != nil {
		return text
	}
	return buf.String()
}

func (c *Catalog) template(code Code, text string) (*template.Template, error) {
	if cached, ok := c.templates.Load(code); ok {
		return cached.(*template.Template), nil
	}
	tmpl, err := template.New(code).Option("missingkey=zero").Parse(text)
	if err != nil {
		return nil, err
	}
	actual, _ := c.templates.LoadOrStore(code, tmpl)
	return actual.(*template.Template), nil
}
