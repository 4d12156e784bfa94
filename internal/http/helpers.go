package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/middleware/auth"
)

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

// writeError maps domain errors to status codes and logs server faults.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		BadRequestError(reqErr.msg).Write(w)
	case core.IsValidationError(err):
		BadRequestError(err.Error()).Write(w)
	case errors.Is(err, core.ErrNotFound):
		NotFoundError("not found").Write(w)
	case errors.Is(err, core.ErrStoreUnavailable), errors.Is(err, context.DeadlineExceeded):
		logFault(r, "Store unavailable", err)
		ServiceUnavailableError("store unavailable").Write(w)
	case errors.Is(err, context.Canceled):
		// client went away; nothing useful to send
		log.FromContext(r.Context()).DebugContext(r.Context(), "Request canceled", log.FieldError, err)
	default:
		logFault(r, "Request failed", err)
		InternalServerError("internal error").Write(w)
	}
}

func logFault(r *http.Request, msg string, err error) {
	ctx := r.Context()
	log.FromContext(ctx).LogFields(ctx, slog.LevelError, msg,
		log.NewFields().WithOwner(ownerOf(r)).WithError(err))
}

// ownerOf returns the owner resolved by the auth middleware.
func ownerOf(r *http.Request) string {
	owner, _ := auth.OwnerFrom(r.Context())
	return owner
}
