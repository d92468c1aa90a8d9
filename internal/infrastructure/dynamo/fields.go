package dynamo

// DynamoDB attribute names used in key, condition and update expressions.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldEmail        = "email"
	fieldOTPDigest    = "otp_digest"
	fieldOTPExpiresAt = "otp_expires_at"
	fieldIsVerified   = "is_verified"
	fieldPINHash      = "pin_hash"
	fieldUpdatedAt    = "updated_at"
)
