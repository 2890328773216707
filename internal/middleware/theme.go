package middleware

import (
    "net/http"

    "finitefield.org/holding-web/internal/preferences"
)

// Theme resolves the color theme: `theme` cookie, then the
// Sec-CH-Prefers-Color-Scheme hint, then fallback.
func Theme(fallback string) func(http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            w.Header().Set("Accept-CH", "Sec-CH-Prefers-Color-Scheme")
            theme := preferences.Theme(preferences.NewCookieStore(w, r, false), preferences.SystemDark(r), fallback)
            next.ServeHTTP(w, r.WithContext(WithTheme(r.Context(), theme)))
        })
    }
}
