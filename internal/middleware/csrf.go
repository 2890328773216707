package middleware

import (
    "context"
    "crypto/rand"
    "encoding/hex"
    "net/http"
    "time"
)

const (
    csrfCookieName = "csrf_token"
    CSRFHeader     = "X-CSRF-Token"
)

// CSRF issues a double-submit token cookie and verifies that modifying requests
// echo it in the X-CSRF-Token header.
func CSRF(secure bool) func(http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            token := ""
            if c, err := r.Cookie(csrfCookieName); err == nil && len(c.Value) == 32 {
                token = c.Value
            }

            if !isSafeMethod(r.Method) {
                if hdr := r.Header.Get(CSRFHeader); token == "" || hdr != token {
                    writeError(w, r, http.StatusForbidden, "csrf_invalid", "invalid CSRF token")
                    return
                }
            }

            if token == "" {
                token = newCSRFToken()
                http.SetCookie(w, &http.Cookie{
                    Name:     csrfCookieName,
                    Value:    token,
                    Path:     "/",
                    HttpOnly: false,
                    Secure:   secure,
                    SameSite: http.SameSiteLaxMode,
                    Expires:  time.Now().Add(24 * time.Hour),
                })
            }
            next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyCSRF, token)))
        })
    }
}

func newCSRFToken() string {
    b := make([]byte, 16)
    _, _ = rand.Read(b)
    return hex.EncodeToString(b)
}

func isSafeMethod(m string) bool {
    switch m {
    case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
        return true
    default:
        return false
    }
}
