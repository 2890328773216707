package middleware

import (
	"net/http"

	"finitefield.org/holding-web/internal/platform/httpx"
)

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	httpx.WriteError(r.Context(), w, httpx.NewError(code, msg, status))
}
