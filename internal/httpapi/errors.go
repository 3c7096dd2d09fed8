package httpapi

import (
	"errors"
	"net/http"

	"github.com/mhpenta/mifoto"
	"github.com/mhpenta/mifoto/credential"
	"github.com/mhpenta/mifoto/session"
)

func statusForKind(kind mifoto.ErrorKind) int {
	switch kind {
	case session.KindInvalidInput:
		return http.StatusBadRequest
	case session.KindBusy:
		return http.StatusConflict
	case mifoto.KindMissingCredential, mifoto.KindInvalidCredential:
		return http.StatusUnauthorized
	case mifoto.KindBlockedByPolicy, mifoto.KindSafetyRejected,
		mifoto.KindTextInsteadOfImage, mifoto.KindNoImageProduced:
		return http.StatusUnprocessableEntity
	case mifoto.KindQuotaExceeded:
		return http.StatusTooManyRequests
	case mifoto.KindNoResponse, mifoto.KindRemote:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders {"error":{"kind","message","retryDelay","links"}}.
func (r *Router) writeError(w http.ResponseWriter, err error) {
	view := session.ViewOf(err)
	status := statusForKind(view.Kind)

	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.Is(err, credential.ErrEmptyKey):
		view.Kind = session.KindInvalidInput
		status = http.StatusBadRequest
	case errors.Is(err, credential.ErrNoHostSelector):
		status = http.StatusNotImplemented
	case errors.As(err, &maxBytesErr):
		view.Kind = session.KindInvalidInput
		view.Message = "image is too large"
		status = http.StatusRequestEntityTooLarge
	}

	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		r.logger.Error("request failed", "kind", string(view.Kind), "error", err.Error())
	}
	writeJSON(w, status, map[string]any{"error": view})
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{"error": session.ErrorView{
		Kind:    session.KindInvalidInput,
		Message: message,
	}})
}
