package handler

import (
	"encoding/json"
	"net/http"
)

// Error kinds returned in MessageEnvelope.Kind.
const (
	KindDuplicateIdentity     = "DUPLICATE_IDENTITY"
	KindNotFound              = "NOT_FOUND"
	KindInvalidCode           = "INVALID_CODE"
	KindCodeExpired           = "CODE_EXPIRED"
	KindNotVerifiedOrNotFound = "NOT_VERIFIED_OR_NOT_FOUND"
	KindValidationFailed      = "VALIDATION_FAILED"
	KindInvalidRequest        = "INVALID_REQUEST"
	KindDispatchFailure       = "DISPATCH_FAILURE"
	KindInternal              = "INTERNAL"
	KindUnavailable           = "UNAVAILABLE"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Warning string `json:"warning,omitempty"`
	Error   string `json:"error,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg, Kind: kind})
}
