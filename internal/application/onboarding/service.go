// Package onboarding implements the register, verify, resend-code and
// create-PIN flows over a single account record.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/centry-onboarding/internal/application/notification"
	"github.com/centry-onboarding/internal/domain"
	"github.com/centry-onboarding/internal/pkg/id"
	"github.com/centry-onboarding/internal/pkg/otp"
	"github.com/centry-onboarding/internal/pkg/validate"
	"go.uber.org/zap"
)

type accountStore interface {
	Create(ctx context.Context, a *domain.Account) error
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	ReplaceOTP(ctx context.Context, email, digest string, expiresAt time.Time) error
	MarkVerified(ctx context.Context, email, digest string) error
	SetPIN(ctx context.Context, email, pinHash string) error
}

type secretHasher interface {
	Hash(secret string) (string, error)
}

// RegisterResult is returned for every persisted registration. DispatchErr is
// set when the account was stored but the code could not be delivered.
type RegisterResult struct {
	Account     *domain.Account
	DispatchErr error
}

type Service interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*RegisterResult, error)
	Verify(ctx context.Context, req domain.VerifyRequest) error
	ResendCode(ctx context.Context, req domain.ResendCodeRequest) error
	CreatePIN(ctx context.Context, req domain.CreatePINRequest) error
}

// ServiceDeps holds the interface dependencies for the onboarding service.
type ServiceDeps struct {
	Accounts accountStore
	Notifier notification.Sender
	Hasher   secretHasher
	Logger   *zap.Logger
	Now      func() time.Time
}

type service struct {
	accounts accountStore
	notifier notification.Sender
	hasher   secretHasher
	log      *zap.Logger
	now      func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		accounts: deps.Accounts,
		notifier: deps.Notifier,
		hasher:   deps.Hasher,
		log:      deps.Logger,
		now:      deps.Now,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// NormalizeEmail trims surrounding space and lower-cases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (*RegisterResult, error) {
	req.Email = NormalizeEmail(req.Email)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	issued, err := otp.Issue(now)
	if err != nil {
		return nil, fmt.Errorf("issue code: %w", err)
	}

	a := &domain.Account{
		AccountID:    id.NewAt(now),
		FullName:     strings.TrimSpace(req.FullName),
		Email:        req.Email,
		PhoneNumber:  strings.TrimSpace(req.PhoneNumber),
		PasswordHash: passwordHash,
		ReferralCode: nonEmpty(req.ReferralCode),
		OTPDigest:    issued.Digest,
		OTPExpiresAt: &issued.ExpiresAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		return nil, err
	}
	s.log.Info("account registered", zap.String("account_id", a.AccountID))

	res := &RegisterResult{Account: a}
	if err := s.notifier.SendVerificationCode(ctx, a, issued.Code, notification.KindWelcome); err != nil {
		s.log.Warn("registration code not delivered", zap.String("account_id", a.AccountID), zap.Error(err))
		res.DispatchErr = err
	}
	return res, nil
}

func (s *service) Verify(ctx context.Context, req domain.VerifyRequest) error {
	req.Email = NormalizeEmail(req.Email)
	if err := validate.Struct(req); err != nil {
		return err
	}

	a, err := s.accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		return err
	}
	if !a.HasPendingCode() || !otp.Matches(strings.TrimSpace(req.VerificationCode), a.OTPDigest) {
		return fmt.Errorf("verify %s: %w", a.AccountID, domain.ErrInvalidCode)
	}
	if otp.Expired(a.OTPExpiresAt, s.now()) {
		return fmt.Errorf("verify %s: %w", a.AccountID, domain.ErrCodeExpired)
	}
	if err := s.accounts.MarkVerified(ctx, a.Email, a.OTPDigest); err != nil {
		return err
	}
	s.log.Info("email verified", zap.String("account_id", a.AccountID))
	return nil
}

func (s *service) ResendCode(ctx context.Context, req domain.ResendCodeRequest) error {
	req.Email = NormalizeEmail(req.Email)
	if err := validate.Struct(req); err != nil {
		return err
	}

	a, err := s.accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		return err
	}
	issued, err := otp.Issue(s.now())
	if err != nil {
		return fmt.Errorf("issue code: %w", err)
	}
	if err := s.accounts.ReplaceOTP(ctx, a.Email, issued.Digest, issued.ExpiresAt); err != nil {
		return err
	}
	a.OTPDigest, a.OTPExpiresAt = issued.Digest, &issued.ExpiresAt

	if err := s.notifier.SendVerificationCode(ctx, a, issued.Code, notification.KindResend); err != nil {
		if !errors.Is(err, domain.ErrDispatchFailure) {
			err = fmt.Errorf("%w: %w", domain.ErrDispatchFailure, err)
		}
		return err
	}
	s.log.Info("verification code resent", zap.String("account_id", a.AccountID))
	return nil
}

func (s *service) CreatePIN(ctx context.Context, req domain.CreatePINRequest) error {
	req.Email = NormalizeEmail(req.Email)
	if err := validate.Struct(req); err != nil {
		return err
	}

	a, err := s.accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("create pin: %w", domain.ErrNotVerifiedOrNotFound)
		}
		return err
	}
	if !a.IsVerified {
		return fmt.Errorf("create pin: %w", domain.ErrNotVerifiedOrNotFound)
	}

	pinHash, err := s.hasher.Hash(req.PIN)
	if err != nil {
		return fmt.Errorf("hash pin: %w", err)
	}
	if err := s.accounts.SetPIN(ctx, a.Email, pinHash); err != nil {
		return err
	}
	s.log.Info("pin set", zap.String("account_id", a.AccountID))
	return nil
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
