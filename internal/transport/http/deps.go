package http

import (
	"context"
	"time"

	"github.com/centry-onboarding/internal/application/notification"
	"github.com/centry-onboarding/internal/domain"
	"go.uber.org/zap"
)

// AccountStore is the minimal interface the router requires from an account store.
// Both the DynamoDB and Postgres repositories satisfy it.
type AccountStore interface {
	Create(ctx context.Context, a *domain.Account) error
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	ReplaceOTP(ctx context.Context, email, digest string, expiresAt time.Time) error
	MarkVerified(ctx context.Context, email, digest string) error
	SetPIN(ctx context.Context, email, pinHash string) error
	Ping(ctx context.Context) error
}

// SecretHasher hashes passwords and PINs.
type SecretHasher interface {
	Hash(secret string) (string, error)
}

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	Accounts AccountStore
	Notifier notification.Sender
	Hasher   SecretHasher
	Logger   *zap.Logger
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}
