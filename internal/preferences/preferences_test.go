package preferences

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"finitefield.org/holding-web/internal/i18n"
)

func bundle(t *testing.T) *i18n.Bundle {
	t.Helper()
	b, err := i18n.Default("ar")
	require.NoError(t, err)
	return b
}

func TestLanguageFallsBackWhenUnsupported(t *testing.T) {
	b := bundle(t)
	s := NewMemoryStore()
	require.Equal(t, "ar", Language(s, b, "ar"))

	s.Set(LanguageKey, "fr")
	require.Equal(t, "ar", Language(s, b, "ar"))

	require.True(t, SetLanguage(s, b, " EN "))
	require.Equal(t, "en", Language(s, b, "ar"))
	require.False(t, SetLanguage(s, b, "de"))
	require.Equal(t, "en", Language(s, b, "ar"))
}

func TestThemePrecedence(t *testing.T) {
	s := NewMemoryStore()
	light := false
	require.Equal(t, ThemeDark, Theme(s, nil, ""))
	require.Equal(t, ThemeLight, Theme(s, &light, ThemeDark))

	require.True(t, SetTheme(s, ThemeDark))
	require.Equal(t, ThemeDark, Theme(s, &light, ThemeLight))
	require.False(t, SetTheme(s, "sepia"))
}

func TestToggleThemePersists(t *testing.T) {
	s := NewMemoryStore()
	require.Equal(t, ThemeLight, ToggleTheme(s, nil, ThemeDark))
	v, ok := s.Get(ThemeKey)
	require.True(t, ok)
	require.Equal(t, ThemeLight, v)
	require.Equal(t, ThemeDark, ToggleTheme(s, nil, ThemeDark))
}

func TestCookieStoreRoundTrip(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: LanguageKey, Value: "en"})
	rec := httptest.NewRecorder()

	s := NewCookieStore(rec, req, true)
	v, ok := s.Get(LanguageKey)
	require.True(t, ok)
	require.Equal(t, "en", v)

	s.Set(ThemeKey, ThemeLight)
	v, _ = s.Get(ThemeKey)
	require.Equal(t, ThemeLight, v)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, ThemeKey, cookies[0].Name)
	require.True(t, cookies[0].Secure)
	require.Equal(t, "/", cookies[0].Path)
}

func TestResolveAndSystemDark(t *testing.T) {
	b := bundle(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Sec-CH-Prefers-Color-Scheme", `"light"`)
	sys := SystemDark(req)
	require.NotNil(t, sys)
	require.False(t, *sys)

	snap := Resolve(NewMemoryStore(), b, sys, ThemeDark)
	require.Equal(t, Snapshot{Language: "ar", Direction: "rtl", Theme: ThemeLight}, snap)

	req.Header.Del("Sec-CH-Prefers-Color-Scheme")
	require.Nil(t, SystemDark(req))
}
