package middleware

import (
    "context"
    "net/http"
    "strings"

    "finitefield.org/holding-web/internal/i18n"
    "finitefield.org/holding-web/internal/preferences"
)

// Locale resolves the preferred language: `lang` query override (persisted to the
// `neom-language` cookie), then the cookie, then Accept-Language, then the bundle fallback.
func Locale(bundle *i18n.Bundle, secure bool) func(http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            ctx := context.WithValue(r.Context(), ctxKeyLocaleFB, bundle.Fallback())
            store := preferences.NewCookieStore(w, r, secure)

            var lang string
            if q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("lang"))); q != "" && preferences.SetLanguage(store, bundle, q) {
                lang = q
            } else if v, ok := store.Get(preferences.LanguageKey); ok && bundle.IsSupported(strings.ToLower(v)) {
                lang = strings.ToLower(v)
            } else {
                lang = bundle.Resolve(r.Header.Get("Accept-Language"))
            }

            // surface Content-Language
            w.Header().Set("Content-Language", lang)
            next.ServeHTTP(w, r.WithContext(WithLang(ctx, lang)))
        })
    }
}

// Lang returns the resolved language, the bundle fallback, or "ar".
func Lang(r *http.Request) string {
    if v, ok := r.Context().Value(ctxKeyLang).(string); ok && v != "" {
        return v
    }
    if v := r.Context().Value(ctxKeyLocaleFB); v != nil {
        if fb, ok := v.(string); ok && fb != "" {
            return fb
        }
    }
    return "ar"
}
