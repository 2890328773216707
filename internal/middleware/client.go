package middleware

import (
    "net/http"
    "strings"
    "time"

    "github.com/oklog/ulid/v2"
)

const clientCookieName = "HOLDING_WEB_CLIENT"

// ClientIdentity assigns each visitor a stable anonymous id cookie. The id keys
// per-visitor state such as the contact submission guard.
func ClientIdentity(secure bool) func(http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            id := ""
            if c, err := r.Cookie(clientCookieName); err == nil {
                if _, perr := ulid.ParseStrict(c.Value); perr == nil {
                    id = c.Value
                }
            }
            if id == "" {
                id = ulid.Make().String()
                http.SetCookie(w, &http.Cookie{
                    Name:     clientCookieName,
                    Value:    id,
                    Path:     "/",
                    HttpOnly: true,
                    Secure:   secure,
                    SameSite: http.SameSiteLaxMode,
                    Expires:  time.Now().Add(30 * 24 * time.Hour),
                })
            }
            next.ServeHTTP(w, r.WithContext(WithClientID(r.Context(), id)))
        })
    }
}

// ClientKey returns the visitor id, falling back to the client IP.
func ClientKey(r *http.Request) string {
    if id, ok := ClientID(r.Context()); ok {
        return id
    }
    return "ip:" + clientIP(r)
}

func clientIP(r *http.Request) string {
    // Trust X-Forwarded-For set by Cloud Run (last IP is client)
    if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
        p := strings.Split(xff, ",")
        return strings.TrimSpace(p[len(p)-1])
    }
    if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
        return xrip
    }
    host := r.RemoteAddr
    if i := strings.LastIndex(host, ":"); i != -1 {
        return host[:i]
    }
    return host
}
