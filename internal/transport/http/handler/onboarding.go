package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/centry-onboarding/internal/application/onboarding"
	"github.com/centry-onboarding/internal/domain"
	"go.uber.org/zap"
)

const maxBodyBytes = 64 << 10

const (
	msgRegistered      = "User registered. Check email for verification code."
	msgDispatchWarning = "Verification code could not be delivered. Request a new code."
	msgVerified        = "Email verified. Proceed to create a PIN."
	msgResent          = "Verification code resent."
	msgPINCreated      = "PIN created successfully."

	msgRegisterFailed = "Failed to register user."
	msgVerifyFailed   = "Verification failed."
	msgResendFailed   = "Failed to resend code."
	msgCreatePINFail  = "Failed to create PIN."
)

// OnboardingHandler serves the register, verify, resend-code and create-pin
// endpoints.
type OnboardingHandler struct {
	svc onboarding.Service
	log *zap.Logger
}

func NewOnboardingHandler(svc onboarding.Service, log *zap.Logger) *OnboardingHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &OnboardingHandler{svc: svc, log: log}
}

func (h *OnboardingHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := decode(w, r, &req); err != nil {
		httpError(w, h.log, err, msgRegisterFailed)
		return
	}
	res, err := h.svc.Register(r.Context(), req)
	if err != nil {
		httpError(w, h.log, err, msgRegisterFailed)
		return
	}
	env := MessageEnvelope{Message: msgRegistered}
	if res.DispatchErr != nil {
		env.Warning = msgDispatchWarning
	}
	writeJSON(w, http.StatusCreated, env)
}

func (h *OnboardingHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyRequest
	if err := decode(w, r, &req); err != nil {
		httpError(w, h.log, err, msgVerifyFailed)
		return
	}
	if err := h.svc.Verify(r.Context(), req); err != nil {
		httpError(w, h.log, err, msgVerifyFailed)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: msgVerified})
}

func (h *OnboardingHandler) ResendCode(w http.ResponseWriter, r *http.Request) {
	var req domain.ResendCodeRequest
	if err := decode(w, r, &req); err != nil {
		httpError(w, h.log, err, msgResendFailed)
		return
	}
	if err := h.svc.ResendCode(r.Context(), req); err != nil {
		httpError(w, h.log, err, msgResendFailed)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: msgResent})
}

func (h *OnboardingHandler) CreatePIN(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePINRequest
	if err := decode(w, r, &req); err != nil {
		httpError(w, h.log, err, msgCreatePINFail)
		return
	}
	if err := h.svc.CreatePIN(r.Context(), req); err != nil {
		httpError(w, h.log, err, msgCreatePINFail)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: msgPINCreated})
}

// decode reads a single JSON object from the body into v.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode body: %v: %w", err, domain.ErrBadRequest)
	}
	return nil
}
