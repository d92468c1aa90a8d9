package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/centry-onboarding/internal/domain"
	"go.uber.org/zap"
)

// Client-facing messages for each domain failure.
const (
	msgDuplicateIdentity     = "Email already registered."
	msgNotFound              = "User not found."
	msgInvalidCode           = "Invalid verification code."
	msgCodeExpired           = "Verification code has expired."
	msgNotVerifiedOrNotFound = "User not verified or not found."
	msgInvalidBody           = "Invalid request body."
)

// httpError maps a service error to a status code and envelope. Anything not
// recognised is logged and answered with fallback and a 500.
func httpError(w http.ResponseWriter, log *zap.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusUnprocessableEntity, KindValidationFailed, validationMessage(err))
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, KindInvalidRequest, msgInvalidBody)
	case errors.Is(err, domain.ErrDuplicateIdentity):
		writeError(w, http.StatusConflict, KindDuplicateIdentity, msgDuplicateIdentity)
	case errors.Is(err, domain.ErrNotVerifiedOrNotFound):
		writeError(w, http.StatusBadRequest, KindNotVerifiedOrNotFound, msgNotVerifiedOrNotFound)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, KindNotFound, msgNotFound)
	case errors.Is(err, domain.ErrInvalidCode):
		writeError(w, http.StatusBadRequest, KindInvalidCode, msgInvalidCode)
	case errors.Is(err, domain.ErrCodeExpired):
		writeError(w, http.StatusBadRequest, KindCodeExpired, msgCodeExpired)
	case errors.Is(err, domain.ErrDispatchFailure):
		log.Error("dispatch failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, KindDispatchFailure, fallback)
	default:
		log.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, KindInternal, fallback)
	}
}

// validationMessage strips the sentinel prefix so clients see only the field
// messages.
func validationMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, domain.ErrValidation.Error()+": "); i >= 0 {
		return msg[i+len(domain.ErrValidation.Error())+2:]
	}
	return msg
}
