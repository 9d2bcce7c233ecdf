package redis

import "fmt"

// Key templates. Phone numbers and token ids are interpolated by the
// builder methods below.
const (
	keyOTPCode     = "auth:otp:%s"          // auth:otp:{phone}
	keyOTPAttempts = "auth:otp:%s:attempts" // auth:otp:{phone}:attempts
	keyRevoked     = "auth:revoked:%s"      // auth:revoked:{tokenID}
)

// KeyBuilder provides environment-aware Redis key building functionality
type KeyBuilder struct {
	prefix string // Environment prefix (staging/prod)
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	if environment == "development" || environment == "staging" || environment == "test" {
		prefix = "staging"
	}

	return &KeyBuilder{
		prefix: prefix,
	}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

// KeyOTPCode is where the pending OTP for a phone number lives.
func (kb *KeyBuilder) KeyOTPCode(phone string) string {
	return kb.BuildKey(fmt.Sprintf(keyOTPCode, phone))
}

// KeyOTPAttempts counts failed verification attempts for a phone number.
func (kb *KeyBuilder) KeyOTPAttempts(phone string) string {
	return kb.BuildKey(fmt.Sprintf(keyOTPAttempts, phone))
}

// KeyRevokedToken marks a token id as logged out before expiry.
func (kb *KeyBuilder) KeyRevokedToken(tokenID string) string {
	return kb.BuildKey(fmt.Sprintf(keyRevoked, tokenID))
}

// KeyCustom builds a key from an arbitrary pattern.
func (kb *KeyBuilder) KeyCustom(pattern string, args ...interface{}) string {
	return kb.BuildKey(fmt.Sprintf(pattern, args...))
}
