package handlers

import (
    "net/http"

    "finitefield.org/holding-web/internal/platform/httpx"
    "finitefield.org/holding-web/internal/status"
)

// handleReady reports 503 while any cached resource is failing.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
    lang := s.bundle.Resolve(r.Header.Get("Accept-Language"))
    summary := status.Summarize(s.content.Store(), lang, s.now())
    code := http.StatusOK
    if !summary.Ready() {
        code = http.StatusServiceUnavailable
    }
    w.Header().Set("Cache-Control", "no-store")
    httpx.WriteJSON(w, code, summary)
}
