package redis

import (
	"testing"
)

func TestKeyBuilder_Environment_Prefixes(t *testing.T) {
	tests := []struct {
		name           string
		environment    string
		expectedPrefix string
	}{
		{
			name:           "Production environment should use prod prefix",
			environment:    "production",
			expectedPrefix: "prod",
		},
		{
			name:           "Development environment should use staging prefix",
			environment:    "development",
			expectedPrefix: "staging",
		},
		{
			name:           "Staging environment should use staging prefix",
			environment:    "staging",
			expectedPrefix: "staging",
		},
		{
			name:           "Test environment should use staging prefix",
			environment:    "test",
			expectedPrefix: "staging",
		},
		{
			name:           "Unknown environment should default to prod prefix",
			environment:    "unknown",
			expectedPrefix: "prod",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kb := NewKeyBuilder(tt.environment)
			if kb.GetPrefix() != tt.expectedPrefix {
				t.Errorf("NewKeyBuilder(%s).GetPrefix() = %s, want %s",
					tt.environment, kb.GetPrefix(), tt.expectedPrefix)
			}
		})
	}
}

func TestKeyBuilder_KeyGeneration(t *testing.T) {
	kb := NewKeyBuilder("production")

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{
			name:     "OTP code key",
			got:      kb.KeyOTPCode("9876543210"),
			expected: "prod:auth:otp:9876543210",
		},
		{
			name:     "OTP attempts key",
			got:      kb.KeyOTPAttempts("9876543210"),
			expected: "prod:auth:otp:9876543210:attempts",
		},
		{
			name:     "Revoked token key",
			got:      kb.KeyRevokedToken("tok-123"),
			expected: "prod:auth:revoked:tok-123",
		},
		{
			name:     "Custom pattern key",
			got:      kb.KeyCustom("visits:%s:lock", "v1"),
			expected: "prod:visits:v1:lock",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("%s = %s, want %s", tt.name, tt.got, tt.expected)
			}
		})
	}
}

func TestKeyBuilder_EnvironmentSeparation(t *testing.T) {
	prodKB := NewKeyBuilder("production")
	stagingKB := NewKeyBuilder("development")

	prodKey := prodKB.KeyOTPCode("555")
	stagingKey := stagingKB.KeyOTPCode("555")

	if prodKey == stagingKey {
		t.Errorf("Production and staging keys should be different. Got: prod=%s, staging=%s",
			prodKey, stagingKey)
	}

	if prodKey != "prod:auth:otp:555" {
		t.Errorf("Production key = %s, want prod:auth:otp:555", prodKey)
	}

	if stagingKey != "staging:auth:otp:555" {
		t.Errorf("Staging key = %s, want staging:auth:otp:555", stagingKey)
	}
}
