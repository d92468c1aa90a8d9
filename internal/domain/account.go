package domain

import (
	"strings"
	"time"
)

// Account is the persisted identity record, keyed by Email.
type Account struct {
	AccountID    string     `json:"id" dynamodbav:"account_id"`
	FullName     string     `json:"fullName" dynamodbav:"full_name"`
	Email        string     `json:"email" dynamodbav:"email"`
	PhoneNumber  string     `json:"phoneNumber" dynamodbav:"phone_number"`
	PasswordHash string     `json:"-" dynamodbav:"password_hash"`
	ReferralCode *string    `json:"referralCode,omitempty" dynamodbav:"referral_code,omitempty"`
	OTPDigest    string     `json:"-" dynamodbav:"otp_digest,omitempty"`
	OTPExpiresAt *time.Time `json:"-" dynamodbav:"otp_expires_at,omitempty"`
	IsVerified   bool       `json:"isVerified" dynamodbav:"is_verified"`
	PINHash      string     `json:"-" dynamodbav:"pin_hash,omitempty"`
	CreatedAt    time.Time  `json:"createdAt" dynamodbav:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" dynamodbav:"updated_at"`
}

// HasPendingCode reports whether an OTP digest is outstanding.
func (a *Account) HasPendingCode() bool {
	return a.OTPDigest != ""
}

// FirstName returns the first word of FullName, used to personalise emails.
func (a *Account) FirstName() string {
	if f := strings.Fields(a.FullName); len(f) > 0 {
		return f[0]
	}
	return ""
}

type RegisterRequest struct {
	FullName     string  `json:"fullName" validate:"required,notblank"`
	Email        string  `json:"email" validate:"required,email"`
	PhoneNumber  string  `json:"phoneNumber" validate:"required,notblank"`
	Password     string  `json:"password" validate:"required,notblank,maxbytes=72"`
	ReferralCode *string `json:"referralCode"`
}

type VerifyRequest struct {
	Email            string `json:"email" validate:"required,email"`
	VerificationCode string `json:"verificationCode" validate:"required"`
}

type ResendCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type CreatePINRequest struct {
	Email string `json:"email" validate:"required,email"`
	PIN   string `json:"pin" validate:"required,number,min=4,max=6"`
}
