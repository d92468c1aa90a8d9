package onboarding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/centry-onboarding/internal/application/notification"
	"github.com/centry-onboarding/internal/domain"
	"github.com/centry-onboarding/internal/pkg/credential"
	"github.com/centry-onboarding/internal/pkg/otp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockAccountStore struct{ mock.Mock }

func (m *mockAccountStore) Create(ctx context.Context, a *domain.Account) error {
	return m.Called(ctx, a).Error(0)
}
func (m *mockAccountStore) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	args := m.Called(ctx, email)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAccountStore) ReplaceOTP(ctx context.Context, email, digest string, expiresAt time.Time) error {
	return m.Called(ctx, email, digest, expiresAt).Error(0)
}
func (m *mockAccountStore) MarkVerified(ctx context.Context, email, digest string) error {
	return m.Called(ctx, email, digest).Error(0)
}
func (m *mockAccountStore) SetPIN(ctx context.Context, email, pinHash string) error {
	return m.Called(ctx, email, pinHash).Error(0)
}

type mockNotifier struct {
	mock.Mock
	lastCode string
}

func (m *mockNotifier) SendVerificationCode(ctx context.Context, a *domain.Account, code string, kind notification.Kind) error {
	m.lastCode = code
	return m.Called(ctx, a, code, kind).Error(0)
}

type mockHasher struct{ mock.Mock }

func (m *mockHasher) Hash(secret string) (string, error) {
	args := m.Called(secret)
	return args.String(0), args.Error(1)
}

// --- builder ---

var fixedNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newService(as *mockAccountStore, n *mockNotifier, h secretHasher, now time.Time) Service {
	if h == nil {
		h = credential.NewHasher(bcrypt.MinCost)
	}
	return NewService(ServiceDeps{
		Accounts: as,
		Notifier: n,
		Hasher:   h,
		Now:      func() time.Time { return now },
	})
}

func validRegister() domain.RegisterRequest {
	return domain.RegisterRequest{
		FullName:    "Ada Lovelace",
		Email:       "  Ada@Example.COM ",
		PhoneNumber: "+2348000000000",
		Password:    "correct horse",
	}
}

func pendingAccount(code string, expiresAt time.Time) *domain.Account {
	return &domain.Account{
		AccountID:    "01HTEST",
		FullName:     "Ada Lovelace",
		Email:        "ada@example.com",
		OTPDigest:    otp.Digest(code),
		OTPExpiresAt: &expiresAt,
	}
}

func strPtr(s string) *string { return &s }

// --- Register ---

func TestRegister_Success(t *testing.T) {
	as := &mockAccountStore{}
	n := &mockNotifier{}
	var created *domain.Account
	as.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { created = args.Get(1).(*domain.Account) }).
		Return(nil)
	n.On("SendVerificationCode", mock.Anything, mock.Anything, mock.Anything, notification.KindWelcome).Return(nil)

	req := validRegister()
	req.ReferralCode = strPtr(" REF1 ")
	res, err := newService(as, n, nil, fixedNow).Register(context.Background(), req)
	require.NoError(t, err)
	require.NoError(t, res.DispatchErr)

	require.NotNil(t, created)
	assert.Equal(t, "ada@example.com", created.Email)
	assert.False(t, created.IsVerified)
	assert.NotEmpty(t, created.AccountID)
	assert.Equal(t, "REF1", *created.ReferralCode)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("correct horse")))
	assert.NotEqual(t, "correct horse", created.PasswordHash)

	// Only the digest of the dispatched code is stored.
	require.Len(t, n.lastCode, otp.Length)
	assert.Equal(t, otp.Digest(n.lastCode), created.OTPDigest)
	assert.NotContains(t, created.OTPDigest, n.lastCode)
	require.NotNil(t, created.OTPExpiresAt)
	assert.Equal(t, fixedNow.Add(otp.TTL), *created.OTPExpiresAt)
}

func TestRegister_ValidationFails(t *testing.T) {
	as := &mockAccountStore{}
	req := validRegister()
	req.FullName = "   "

	_, err := newService(as, &mockNotifier{}, nil, fixedNow).Register(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
	as.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_Duplicate(t *testing.T) {
	as := &mockAccountStore{}
	n := &mockNotifier{}
	as.On("Create", mock.Anything, mock.Anything).Return(domain.ErrDuplicateIdentity)

	_, err := newService(as, n, nil, fixedNow).Register(context.Background(), validRegister())
	assert.True(t, errors.Is(err, domain.ErrDuplicateIdentity))
	n.AssertNotCalled(t, "SendVerificationCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRegister_DispatchFailureKeepsAccount(t *testing.T) {
	as := &mockAccountStore{}
	n := &mockNotifier{}
	as.On("Create", mock.Anything, mock.Anything).Return(nil)
	n.On("SendVerificationCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(domain.ErrDispatchFailure)

	res, err := newService(as, n, nil, fixedNow).Register(context.Background(), validRegister())
	require.NoError(t, err)
	assert.True(t, errors.Is(res.DispatchErr, domain.ErrDispatchFailure))
	assert.False(t, res.Account.IsVerified)
	as.AssertExpectations(t)
}

func TestRegister_HashFailure(t *testing.T) {
	as := &mockAccountStore{}
	h := &mockHasher{}
	h.On("Hash", mock.Anything).Return("", domain.ErrHashing)

	_, err := newService(as, &mockNotifier{}, h, fixedNow).Register(context.Background(), validRegister())
	assert.True(t, errors.Is(err, domain.ErrHashing))
	as.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// --- Verify ---

func TestVerify_Success(t *testing.T) {
	as := &mockAccountStore{}
	a := pendingAccount("123456", fixedNow.Add(5*time.Minute))
	as.On("GetByEmail", mock.Anything, "ada@example.com").Return(a, nil)
	as.On("MarkVerified", mock.Anything, "ada@example.com", otp.Digest("123456")).Return(nil)

	err := newService(as, nil, nil, fixedNow).Verify(context.Background(), domain.VerifyRequest{
		Email: "ADA@example.com", VerificationCode: "123456",
	})
	require.NoError(t, err)
	as.AssertExpectations(t)
}

func TestVerify_UnknownEmail(t *testing.T) {
	as := &mockAccountStore{}
	as.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, domain.ErrNotFound)

	err := newService(as, nil, nil, fixedNow).Verify(context.Background(), domain.VerifyRequest{
		Email: "ghost@example.com", VerificationCode: "123456",
	})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestVerify_WrongCode(t *testing.T) {
	as := &mockAccountStore{}
	as.On("GetByEmail", mock.Anything, "ada@example.com").Return(pendingAccount("123456", fixedNow.Add(time.Minute)), nil)

	err := newService(as, nil, nil, fixedNow).Verify(context.Background(), domain.VerifyRequest{
		Email: "ada@example.com", VerificationCode: "654321",
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidCode))
	as.AssertNotCalled(t, "MarkVerified", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerify_Expired(t *testing.T) {
	as := &mockAccountStore{}
	as.On("GetByEmail", mock.Anything, "ada@example.com").Return(pendingAccount("123456", fixedNow), nil)

	err := newService(as, nil, nil, fixedNow).Verify(context.Background(), domain.VerifyRequest{
		Email: "ada@example.com", VerificationCode: "123456",
	})
	assert.True(t, errors.Is(err, domain.ErrCodeExpired))
	as.AssertNotCalled(t, "MarkVerified", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerify_WrongCodeReportedBeforeExpiry(t *testing.T) {
	as := &mockAccountStore{}
	as.On("GetByEmail", mock.Anything, "ada@example.com").Return(pendingAccount("123456", fixedNow.Add(-time.Hour)), nil)

	err := newService(as, nil, nil, fixedNow).Verify(context.Background(), domain.VerifyRequest{
		Email: "ada@example.com", VerificationCode: "000000",
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidCode))
}

func TestVerify_NoPendingCode(t *testing.T) {
	as := &mockAccountStore{}
	as.On("GetByEmail", mock.Anything, "ada@example.com").
		Return(&domain.Account{Email: "ada@example.com", IsVerified: true}, nil)

	err := newService(as, nil, nil, fixedNow).Verify(context.Background(), domain.VerifyRequest{
		Email: "ada@example.com", VerificationCode: "123456",
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidCode))
}

func TestVerify_ConsumedConcurrently(t *testing.T) {
	as := &mockAccountStore{}
	as.On("GetByEmail", mock.Anything, "ada@example.com").Return(pendingAccount("123456", fixedNow.Add(time.Minute)), nil)
	as.On("MarkVerified", mock.Anything, mock.Anything, mock.Anything).Return(domain.ErrInvalidCode)

	err := newService(as, nil, nil, fixedNow).Verify(context.Background(), domain.VerifyRequest{
		Email: "ada@example.com", VerificationCode: "123456",
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidCode))
}

func TestVerify_MissingCode(t *testing.T) {
	err := newService(&mockAccountStore{}, nil, nil, fixedNow).Verify(context.Background(), domain.VerifyRequest{
		Email: "ada@example.com",
	})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

// --- ResendCode ---

func TestResendCode_ReplacesAndDispatches(t *testing.T) {
	as := &mockAccountStore{}
	n := &mockNotifier{}
	a := pendingAccount("123456", fixedNow.Add(-time.Minute))
	as.On("GetByEmail", mock.Anything, "ada@example.com").Return(a, nil)

	var storedDigest string
	as.On("ReplaceOTP", mock.Anything, "ada@example.com", mock.Anything, fixedNow.Add(otp.TTL)).
		Run(func(args mock.Arguments) { storedDigest = args.String(2) }).
		Return(nil)
	n.On("SendVerificationCode", mock.Anything, a, mock.Anything, notification.KindResend).Return(nil)

	err := newService(as, n, nil, fixedNow).ResendCode(context.Background(), domain.ResendCodeRequest{Email: "ada@example.com"})
	require.NoError(t, err)
	assert.Equal(t, otp.Digest(n.lastCode), storedDigest)
	assert.NotEqual(t, otp.Digest("123456"), storedDigest)
	as.AssertExpectations(t)
	n.AssertExpectations(t)
}

func TestResendCode_UnknownEmail(t *testing.T) {
	as := &mockAccountStore{}
	n := &mockNotifier{}
	as.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, domain.ErrNotFound)

	err := newService(as, n, nil, fixedNow).ResendCode(context.Background(), domain.ResendCodeRequest{Email: "ghost@example.com"})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	n.AssertNotCalled(t, "SendVerificationCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestResendCode_DispatchFailure(t *testing.T) {
	as := &mockAccountStore{}
	n := &mockNotifier{}
	as.On("GetByEmail", mock.Anything, mock.Anything).Return(pendingAccount("1", fixedNow), nil)
	as.On("ReplaceOTP", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	n.On("SendVerificationCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	err := newService(as, n, nil, fixedNow).ResendCode(context.Background(), domain.ResendCodeRequest{Email: "ada@example.com"})
	assert.True(t, errors.Is(err, domain.ErrDispatchFailure))
}

// --- CreatePIN ---

func TestCreatePIN_Success(t *testing.T) {
	as := &mockAccountStore{}
	as.On("GetByEmail", mock.Anything, "ada@example.com").
		Return(&domain.Account{AccountID: "01HTEST", Email: "ada@example.com", IsVerified: true}, nil)
	var pinHash string
	as.On("SetPIN", mock.Anything, "ada@example.com", mock.Anything).
		Run(func(args mock.Arguments) { pinHash = args.String(2) }).
		Return(nil)

	err := newService(as, nil, nil, fixedNow).CreatePIN(context.Background(), domain.CreatePINRequest{
		Email: "ada@example.com", PIN: "1234",
	})
	require.NoError(t, err)
	assert.NotEqual(t, "1234", pinHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(pinHash), []byte("1234")))
}

func TestCreatePIN_UnverifiedAndMissingLookAlike(t *testing.T) {
	as := &mockAccountStore{}
	as.On("GetByEmail", mock.Anything, "new@example.com").
		Return(&domain.Account{Email: "new@example.com", IsVerified: false}, nil)
	as.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, domain.ErrNotFound)
	svc := newService(as, nil, nil, fixedNow)

	errUnverified := svc.CreatePIN(context.Background(), domain.CreatePINRequest{Email: "new@example.com", PIN: "1234"})
	errMissing := svc.CreatePIN(context.Background(), domain.CreatePINRequest{Email: "ghost@example.com", PIN: "1234"})

	assert.True(t, errors.Is(errUnverified, domain.ErrNotVerifiedOrNotFound))
	assert.True(t, errors.Is(errMissing, domain.ErrNotVerifiedOrNotFound))
	assert.False(t, errors.Is(errMissing, domain.ErrNotFound))
	as.AssertNotCalled(t, "SetPIN", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreatePIN_InvalidPIN(t *testing.T) {
	as := &mockAccountStore{}
	svc := newService(as, nil, nil, fixedNow)
	for _, pin := range []string{"12", "1234567", "12a4", ""} {
		err := svc.CreatePIN(context.Background(), domain.CreatePINRequest{Email: "ada@example.com", PIN: pin})
		assert.Truef(t, errors.Is(err, domain.ErrValidation), "pin %q", pin)
	}
	as.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
}

func TestCreatePIN_StoreFailure(t *testing.T) {
	as := &mockAccountStore{}
	as.On("GetByEmail", mock.Anything, mock.Anything).Return(nil, domain.ErrPersistence)

	err := newService(as, nil, nil, fixedNow).CreatePIN(context.Background(), domain.CreatePINRequest{Email: "ada@example.com", PIN: "1234"})
	assert.True(t, errors.Is(err, domain.ErrPersistence))
	assert.False(t, errors.Is(err, domain.ErrNotVerifiedOrNotFound))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ada@example.com", NormalizeEmail("  Ada@Example.COM\t"))
}
