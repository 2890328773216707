package handlers

import (
    "context"
    "errors"
    "net/http"

    "finitefield.org/holding-web/internal/cms"
    "finitefield.org/holding-web/internal/platform/httpx"
)

// contentError maps fetch layer failures onto the error envelope.
func contentError(err error, resource string) httpx.Error {
    switch {
    case errors.Is(err, cms.ErrNotFound):
        return httpx.NewError("not_found", resource+" not found", http.StatusNotFound)
    case errors.Is(err, cms.ErrTransientTimeout), errors.Is(err, context.DeadlineExceeded):
        return httpx.NewError("cms_timeout", err.Error(), http.StatusGatewayTimeout).AsRetryable()
    case errors.Is(err, cms.ErrNetworkUnreachable):
        return httpx.NewError("cms_unreachable", err.Error(), http.StatusServiceUnavailable).AsRetryable()
    case errors.Is(err, context.Canceled):
        return httpx.NewError("request_cancelled", "request cancelled", http.StatusServiceUnavailable)
    default:
        return httpx.NewError("content_unavailable", err.Error(), http.StatusBadGateway).AsRetryable()
    }
}

func writeContentError(ctx context.Context, w http.ResponseWriter, err error, resource string) {
    httpx.WriteError(ctx, w, contentError(err, resource))
}
