package handlers

import (
    "encoding/json"
    "io"
    "net/http"

    "finitefield.org/holding-web/internal/i18n"
    mw "finitefield.org/holding-web/internal/middleware"
    "finitefield.org/holding-web/internal/platform/httpx"
    "finitefield.org/holding-web/internal/preferences"
)

type preferencesRequest struct {
    Language    string `json:"language,omitempty"`
    Theme       string `json:"theme,omitempty"`
    ToggleTheme bool   `json:"toggle_theme,omitempty"`
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
    store := preferences.NewCookieStore(w, r, s.cfg.SecureCookies)
    httpx.WriteJSON(w, http.StatusOK, s.resolvePreferences(store, r))
}

// handleSetPreferences persists language and theme choices as cookies.
func (s *Server) handleSetPreferences(w http.ResponseWriter, r *http.Request) {
    var req preferencesRequest
    if err := json.NewDecoder(io.LimitReader(r.Body, 4<<10)).Decode(&req); err != nil {
        httpx.WriteError(r.Context(), w, httpx.NewError("invalid_json", "request body must be JSON", http.StatusBadRequest))
        return
    }
    store := preferences.NewCookieStore(w, r, s.cfg.SecureCookies)

    var invalid []string
    if req.Language != "" && !preferences.SetLanguage(store, s.bundle, req.Language) {
        invalid = append(invalid, "language")
    }
    switch {
    case req.ToggleTheme:
        preferences.ToggleTheme(store, preferences.SystemDark(r), s.cfg.Site.DefaultTheme)
    case req.Theme != "" && !preferences.SetTheme(store, req.Theme):
        invalid = append(invalid, "theme")
    }
    if len(invalid) > 0 {
        httpx.WriteError(r.Context(), w, httpx.NewError("invalid_preferences", "unsupported preference values", http.StatusUnprocessableEntity).
            WithDetails(map[string]any{"fields": invalid}))
        return
    }
    httpx.WriteJSON(w, http.StatusOK, s.resolvePreferences(store, r))
}

func (s *Server) resolvePreferences(store preferences.Store, r *http.Request) preferences.Snapshot {
    snap := preferences.Resolve(store, s.bundle, preferences.SystemDark(r), s.cfg.Site.DefaultTheme)
    if _, ok := store.Get(preferences.LanguageKey); !ok {
        snap.Language = mw.Lang(r)
        snap.Direction = i18n.Dir(snap.Language)
    }
    return snap
}
