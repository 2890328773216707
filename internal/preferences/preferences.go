// Package preferences persists the visitor's language and theme choices.
package preferences

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"finitefield.org/holding-web/internal/i18n"
)

const (
	LanguageKey = "neom-language"
	ThemeKey    = "theme"

	ThemeDark  = "dark"
	ThemeLight = "light"

	cookieMaxAge = 365 * 24 * time.Hour
)

// Store is a string key/value store for preferences.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// MemoryStore keeps preferences in memory.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]string{}}
}

func (m *MemoryStore) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *MemoryStore) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

// CookieStore reads preferences from request cookies and writes them as response cookies.
type CookieStore struct {
	r      *http.Request
	w      http.ResponseWriter
	secure bool
	set    map[string]string
}

// NewCookieStore binds a store to one request/response pair.
func NewCookieStore(w http.ResponseWriter, r *http.Request, secure bool) *CookieStore {
	return &CookieStore{r: r, w: w, secure: secure, set: map[string]string{}}
}

func (c *CookieStore) Get(key string) (string, bool) {
	if v, ok := c.set[key]; ok {
		return v, true
	}
	ck, err := c.r.Cookie(key)
	if err != nil || ck.Value == "" {
		return "", false
	}
	return ck.Value, true
}

func (c *CookieStore) Set(key, value string) {
	c.set[key] = value
	http.SetCookie(c.w, &http.Cookie{
		Name:     key,
		Value:    value,
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Language returns the stored language when supported, else fallback.
func Language(s Store, bundle *i18n.Bundle, fallback string) string {
	if v, ok := s.Get(LanguageKey); ok {
		v = strings.ToLower(strings.TrimSpace(v))
		if bundle.IsSupported(v) {
			return v
		}
	}
	return fallback
}

// SetLanguage persists lang if supported and reports whether it did.
func SetLanguage(s Store, bundle *i18n.Bundle, lang string) bool {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if !bundle.IsSupported(lang) {
		return false
	}
	s.Set(LanguageKey, lang)
	return true
}

// ValidTheme reports whether t is a known theme.
func ValidTheme(t string) bool {
	return t == ThemeDark || t == ThemeLight
}

// Theme returns the stored theme, else the OS preference when known, else fallback.
func Theme(s Store, systemDark *bool, fallback string) string {
	if v, ok := s.Get(ThemeKey); ok && ValidTheme(v) {
		return v
	}
	if systemDark != nil {
		if *systemDark {
			return ThemeDark
		}
		return ThemeLight
	}
	if ValidTheme(fallback) {
		return fallback
	}
	return ThemeDark
}

// SetTheme persists t if valid.
func SetTheme(s Store, t string) bool {
	if !ValidTheme(t) {
		return false
	}
	s.Set(ThemeKey, t)
	return true
}

// ToggleTheme flips the current theme, persists it and returns it.
func ToggleTheme(s Store, systemDark *bool, fallback string) string {
	next := ThemeDark
	if Theme(s, systemDark, fallback) == ThemeDark {
		next = ThemeLight
	}
	s.Set(ThemeKey, next)
	return next
}

// Snapshot is the resolved preference state sent to clients.
type Snapshot struct {
	Language  string `json:"language"`
	Direction string `json:"direction"`
	Theme     string `json:"theme"`
}

// Resolve builds a Snapshot from s.
func Resolve(s Store, bundle *i18n.Bundle, systemDark *bool, fallbackTheme string) Snapshot {
	lang := Language(s, bundle, bundle.Fallback())
	return Snapshot{Language: lang, Direction: i18n.Dir(lang), Theme: Theme(s, systemDark, fallbackTheme)}
}

// SystemDark reads the Sec-CH-Prefers-Color-Scheme client hint.
func SystemDark(r *http.Request) *bool {
	v := strings.Trim(strings.ToLower(strings.TrimSpace(r.Header.Get("Sec-CH-Prefers-Color-Scheme"))), `"`)
	var dark bool
	switch v {
	case "dark":
		dark = true
	case "light":
		dark = false
	default:
		return nil
	}
	return &dark
}
