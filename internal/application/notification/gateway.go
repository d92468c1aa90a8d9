// Package notification delivers verification codes to account holders.
package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/centry-onboarding/internal/domain"
	"github.com/centry-onboarding/internal/infrastructure/smtp"
	"github.com/centry-onboarding/internal/pkg/otp"
	"go.uber.org/zap"
)

const brand = "Centry"

type mailer interface {
	SendEmail(ctx context.Context, msg smtp.Message) error
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// Sender is what the onboarding flows need from the gateway.
type Sender interface {
	SendVerificationCode(ctx context.Context, a *domain.Account, code string, kind Kind) error
}

// GatewayDeps bundles the gateway's collaborators. SMSSender is optional;
// when nil there is no fallback channel.
type GatewayDeps struct {
	Mailer    mailer
	SMSSender smsSender
	Templates *Templates
	Logger    *zap.Logger
}

type Gateway struct {
	mailer    mailer
	sms       smsSender
	templates *Templates
	log       *zap.Logger
}

func NewGateway(deps GatewayDeps) *Gateway {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Gateway{
		mailer:    deps.Mailer,
		sms:       deps.SMSSender,
		templates: deps.Templates,
		log:       log.Named("notification"),
	}
}

// SendVerificationCode emails code to the account holder, falling back to
// SMS when configured. It fails with domain.ErrDispatchFailure only when no
// channel delivered the code.
func (g *Gateway) SendVerificationCode(ctx context.Context, a *domain.Account, code string, kind Kind) error {
	data := templateData{
		Brand:         brand,
		FirstName:     a.FirstName(),
		Code:          code,
		ExpiryMinutes: int(otp.TTL.Minutes()),
	}
	subject, text, html, err := g.templates.render(kind, data)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrDispatchFailure, err)
	}

	emailErr := g.mailer.SendEmail(ctx, smtp.Message{
		To:      a.Email,
		Subject: subject,
		Text:    text,
		HTML:    html,
	})
	if emailErr == nil {
		g.log.Info("verification code emailed",
			zap.String("account_id", a.AccountID), zap.Stringer("kind", kind))
		return nil
	}
	g.log.Warn("email delivery failed",
		zap.String("account_id", a.AccountID), zap.Stringer("kind", kind), zap.Error(emailErr))

	if g.sms == nil || a.PhoneNumber == "" {
		return fmt.Errorf("%w: email: %w", domain.ErrDispatchFailure, emailErr)
	}
	msg := fmt.Sprintf("Your %s verification code is %s. It expires in %d minutes.",
		brand, code, data.ExpiryMinutes)
	if smsErr := g.sms.SendSMS(ctx, a.PhoneNumber, msg); smsErr != nil {
		g.log.Warn("sms fallback failed", zap.String("account_id", a.AccountID), zap.Error(smsErr))
		return fmt.Errorf("%w: %w", domain.ErrDispatchFailure, errors.Join(emailErr, smsErr))
	}
	g.log.Info("verification code sent by sms fallback", zap.String("account_id", a.AccountID))
	return nil
}
