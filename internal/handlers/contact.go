package handlers

import (
    "encoding/json"
    "errors"
    "io"
    "net/http"

    "finitefield.org/holding-web/internal/content"
    mw "finitefield.org/holding-web/internal/middleware"
    "finitefield.org/holding-web/internal/platform/httpx"
)

const maxContactBody = 64 << 10

type contactResponse struct {
    Success bool   `json:"success"`
    Message string `json:"message"`
    Key     string `json:"key,omitempty"`
}

// handleContact submits the contact form. One submission per visitor runs at a time.
func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
    var form content.ContactForm
    dec := json.NewDecoder(io.LimitReader(r.Body, maxContactBody))
    if err := dec.Decode(&form); err != nil {
        httpx.WriteError(r.Context(), w, httpx.NewError("invalid_json", "request body must be a JSON contact form", http.StatusBadRequest))
        return
    }

    res := s.submitters.Submit(r.Context(), mw.ClientKey(r), mw.Lang(r), &form, nil)

    var verr *content.ValidationError
    var serr *content.SubmissionError
    switch {
    case res.Skipped:
        httpx.WriteError(r.Context(), w, httpx.NewError("submission_in_flight", res.Notice.Message, http.StatusConflict))
    case errors.As(res.Err, &verr):
        httpx.WriteError(r.Context(), w, httpx.NewError("invalid_form", res.Notice.Message, http.StatusUnprocessableEntity).
            WithDetails(map[string]any{"fields": verr.Fields}))
    case errors.As(res.Err, &serr):
        details := map[string]any{}
        if serr.Message != "" {
            details["reason"] = serr.Message
        }
        httpx.WriteError(r.Context(), w, httpx.NewError("submission_failed", res.Notice.Message, http.StatusBadGateway).WithDetails(details))
    case res.Err != nil:
        httpx.WriteError(r.Context(), w, httpx.NewError("submission_failed", res.Err.Error(), http.StatusBadGateway))
    default:
        httpx.WriteJSON(w, http.StatusOK, contactResponse{Success: true, Message: res.Notice.Message, Key: res.Data.Key})
    }
}
