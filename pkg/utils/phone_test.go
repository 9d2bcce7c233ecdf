package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    string
		expectError bool
	}{
		{name: "already E.164", input: "+919876543210", expected: "+919876543210"},
		{name: "bare national number", input: "9876543210", expected: "+919876543210"},
		{name: "national with leading zero", input: "09876543210", expected: "+919876543210"},
		{name: "hyphens stripped", input: "98765-43210", expected: "+919876543210"},
		{name: "spaces and parens stripped", input: "+91 (98765) 43210", expected: "+919876543210"},
		{name: "foreign E.164 kept", input: "+14155550123", expected: "+14155550123"},
		{name: "empty", input: "", expectError: true},
		{name: "no digits", input: "abc-def", expectError: true},
		{name: "too short", input: "12345", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhone(tt.input)
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDisplayPhone(t *testing.T) {
	assert.Equal(t, "+91 98765 43210", DisplayPhone("+919876543210"))
	assert.Equal(t, "not-a-number", DisplayPhone("not-a-number"))
}
