package middleware

import (
    "context"
)

// context keys are unexported to avoid collisions
type ctxKey string

const (
    ctxKeyLang     ctxKey = "lang"
    ctxKeyLocaleFB ctxKey = "locale_fallback"
    ctxKeyTheme    ctxKey = "theme"
    ctxKeyClientID ctxKey = "client_id"
    ctxKeyCSRF     ctxKey = "csrf_token"
)

// WithLang stores the resolved language in context
func WithLang(ctx context.Context, lang string) context.Context {
    return context.WithValue(ctx, ctxKeyLang, lang)
}

// WithTheme stores the resolved theme in context
func WithTheme(ctx context.Context, theme string) context.Context {
    return context.WithValue(ctx, ctxKeyTheme, theme)
}

// ThemeFromContext returns the resolved theme or "".
func ThemeFromContext(ctx context.Context) string {
    v, _ := ctx.Value(ctxKeyTheme).(string)
    return v
}

// WithClientID stores the visitor id in context
func WithClientID(ctx context.Context, id string) context.Context {
    return context.WithValue(ctx, ctxKeyClientID, id)
}

// ClientID returns the visitor id if present
func ClientID(ctx context.Context) (string, bool) {
    v, ok := ctx.Value(ctxKeyClientID).(string)
    return v, ok && v != ""
}

// CSRFToken returns the token issued for this request, if any.
func CSRFToken(ctx context.Context) string {
    v, _ := ctx.Value(ctxKeyCSRF).(string)
    return v
}
