package handlers

import (
    "encoding/json"
    "errors"
    "html/template"
    "io"
    "net/http"
    "strings"

    "go.uber.org/zap"

    "finitefield.org/holding-web/internal/cms"
    "finitefield.org/holding-web/internal/content"
    mw "finitefield.org/holding-web/internal/middleware"
    "finitefield.org/holding-web/internal/nav"
    "finitefield.org/holding-web/internal/platform/httpx"
    "finitefield.org/holding-web/internal/scrollspy"
)

const maxRevalidateBody = 4 << 10

// handleHome serves the aggregated view model. With mode=snapshot it never blocks
// and answers 202 while collections are still loading.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
    agg := s.content.Aggregator(mw.Lang(r))

    var vm content.ViewModel
    if r.URL.Query().Get("mode") == "snapshot" {
        vm = agg.Snapshot(r.Context())
    } else {
        vm = agg.Load(r.Context())
    }

    w.Header().Set("Cache-Control", "no-store")
    if vm.IsError {
        s.log(r).Warn("home aggregate failed", zap.Any("failed", vm.Failed), zap.Error(vm.Err))
        httpx.WriteError(r.Context(), w, contentError(vm.Err, "home").
            WithDetails(map[string]any{"failed": vm.Failed, "content": vm}))
        return
    }
    if vm.IsLoading {
        httpx.WriteJSON(w, http.StatusAccepted, vm)
        return
    }
    httpx.WriteJSON(w, http.StatusOK, vm)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
    lang := mw.Lang(r)
    settings, err := s.content.Settings(r.Context(), lang)
    if err != nil {
        writeContentError(r.Context(), w, err, "settings")
        return
    }
    httpx.WriteJSON(w, http.StatusOK, map[string]any{"lang": lang, "settings": settings})
}

type navigationResponse struct {
    Lang        string         `json:"lang"`
    Menu        []nav.MenuItem `json:"menu"`
    Sections    []string       `json:"sections"`
    Breadcrumbs []nav.Crumb    `json:"breadcrumbs"`
    Scroll      scrollSettings `json:"scroll"`
}

type scrollSettings struct {
    HeaderOffset float64 `json:"header_offset"`
    SpyOffset    float64 `json:"spy_offset"`
    RetryDelayMS int64   `json:"retry_delay_ms"`
}

// handleNavigation returns the menu, the in-page anchors the scroll spy tracks
// and the offsets it uses.
func (s *Server) handleNavigation(w http.ResponseWriter, r *http.Request) {
    lang := mw.Lang(r)
    menu, err := s.content.Menu(r.Context(), lang)
    if err != nil {
        writeContentError(r.Context(), w, err, "menu")
        return
    }
    hrefs := make([]string, 0, len(menu))
    for _, it := range menu {
        hrefs = append(hrefs, it.Href)
    }
    crumbs := nav.Breadcrumbs(r.URL.Query().Get("path"))
    for i := range crumbs {
        if crumbs[i].LabelKey != "" {
            crumbs[i].Label = s.bundle.T(lang, crumbs[i].LabelKey)
        }
    }
    opts := scrollspy.Options{
        HeaderOffset: float64(s.cfg.Scroll.HeaderOffset),
        SpyOffset:    float64(s.cfg.Scroll.SpyOffset),
        RetryDelay:   s.cfg.Scroll.RetryDelay,
    }.WithDefaults()
    httpx.WriteJSON(w, http.StatusOK, navigationResponse{
        Lang:        lang,
        Menu:        menu,
        Sections:    scrollspy.Anchors(hrefs),
        Breadcrumbs: crumbs,
        Scroll: scrollSettings{
            HeaderOffset: opts.HeaderOffset,
            SpyOffset:    opts.SpyOffset,
            RetryDelayMS: opts.RetryDelay.Milliseconds(),
        },
    })
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
    q := strings.TrimSpace(r.URL.Query().Get("q"))
    if q == "" {
        httpx.WriteError(r.Context(), w, httpx.NewError("invalid_query", "q is required", http.StatusBadRequest))
        return
    }
    hits, err := s.content.Search(r.Context(), q, mw.Lang(r))
    if err != nil {
        writeContentError(r.Context(), w, err, "search")
        return
    }
    httpx.WriteJSON(w, http.StatusOK, map[string]any{"query": q, "results": hits})
}

func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
    lang := mw.Lang(r)
    sections, err := s.content.Sections(r.Context(), lang)
    if err != nil {
        writeContentError(r.Context(), w, err, "sections")
        return
    }
    httpx.WriteJSON(w, http.StatusOK, map[string]any{"lang": lang, "sections": sections})
}

type legalDocument struct {
    cms.LegalPage
    HTML template.HTML `json:"html"`
}

// handleLegal lists legal documents with their sanitized bodies.
func (s *Server) handleLegal(w http.ResponseWriter, r *http.Request) {
    lang := mw.Lang(r)
    pages, err := s.content.Legal(r.Context(), lang)
    if err != nil {
        writeContentError(r.Context(), w, err, "legal")
        return
    }
    docs := make([]legalDocument, 0, len(pages))
    for _, p := range pages {
        docs = append(docs, legalDocument{LegalPage: p, HTML: s.renderBody(p.Content, p.Body)})
    }
    httpx.WriteJSON(w, http.StatusOK, map[string]any{"lang": lang, "pages": docs})
}

func (s *Server) handleContactInfo(w http.ResponseWriter, r *http.Request) {
    lang := mw.Lang(r)
    info, err := s.content.ContactInfo(r.Context(), lang)
    if err != nil {
        writeContentError(r.Context(), w, err, "contact")
        return
    }
    httpx.WriteJSON(w, http.StatusOK, map[string]any{"lang": lang, "contact": info})
}

// handleRevalidate applies focus or reconnect revalidation to the cache. The event
// comes from a JSON body, or from the event query parameter when there is none.
func (s *Server) handleRevalidate(w http.ResponseWriter, r *http.Request) {
    var body struct {
        Event string `json:"event"`
    }
    if err := json.NewDecoder(io.LimitReader(r.Body, maxRevalidateBody)).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
        httpx.WriteError(r.Context(), w, httpx.NewError("invalid_json", "request body must be JSON", http.StatusBadRequest))
        return
    }
    raw := body.Event
    if strings.TrimSpace(raw) == "" {
        raw = r.URL.Query().Get("event")
    }
    event := content.Event(strings.ToLower(strings.TrimSpace(raw)))
    n, err := s.content.Revalidate(r.Context(), event)
    if err != nil {
        httpx.WriteError(r.Context(), w, httpx.NewError("invalid_event", err.Error(), http.StatusBadRequest))
        return
    }
    httpx.WriteJSON(w, http.StatusAccepted, map[string]any{"event": event, "scheduled": n})
}
