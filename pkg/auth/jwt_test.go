package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer_AccessTokenRoundTrip(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)

	token, err := issuer.IssueAccessToken("user-1", "guard", "")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := issuer.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "guard", claims.Role)
	assert.NotEmpty(t, claims.ID, "token id is required for revocation")
}

func TestIssuer_RejectsForeignSignature(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)
	other := NewIssuer("other-secret", time.Hour)

	token, err := other.IssueAccessToken("user-1", "guard", "")
	require.NoError(t, err)

	_, err = issuer.VerifyAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuer_RejectsExpiredToken(t *testing.T) {
	issuer := NewIssuer("test-secret", -time.Minute)

	token, err := issuer.IssueAccessToken("user-1", "resident", "flat-12")
	require.NoError(t, err)

	_, err = issuer.VerifyAccessToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestIssuer_RejectsGarbage(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)

	tests := []string{"", "not-a-token", "a.b.c"}
	for _, token := range tests {
		_, err := issuer.VerifyAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestIssuer_QRTokenRoundTrip(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)

	tests := []struct {
		name      string
		tokenType string
		ttl       time.Duration
	}{
		{name: "regular pass without expiry", tokenType: QRTypeRegular, ttl: 0},
		{name: "temporary pass with expiry", tokenType: QRTypeTemporary, ttl: time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := issuer.IssueQRToken("visitor-1", tt.tokenType, "owner-1", tt.ttl)
			require.NoError(t, err)

			claims, err := issuer.VerifyQRToken(token)
			require.NoError(t, err)
			assert.Equal(t, "visitor-1", claims.VisitorID)
			assert.Equal(t, tt.tokenType, claims.TokenType)
			assert.Equal(t, "owner-1", claims.OwnerID)
		})
	}
}

func TestIssuer_ExpiredQRTokenRejected(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)

	token, err := issuer.IssueQRToken("visitor-1", QRTypeTemporary, "owner-1", -time.Minute)
	require.NoError(t, err)

	_, err = issuer.VerifyQRToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}
