// Package auth issues and verifies the bearer tokens used across the
// system: access tokens for guards and residents, and the signed QR
// tokens that known visitors present at the gate.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultAccessTokenTTL is how long a login session stays valid.
const DefaultAccessTokenTTL = 7 * 24 * time.Hour

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims is the payload of an access token.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	FlatID string `json:"flat_id,omitempty"`
	jwt.RegisteredClaims
}

// QRClaims is the payload of a visitor QR token.
type QRClaims struct {
	VisitorID string `json:"visitor_id,omitempty"`
	TokenType string `json:"type"`
	OwnerID   string `json:"owner_id,omitempty"`
	jwt.RegisteredClaims
}

// QR token types.
const (
	QRTypeRegular   = "regular"
	QRTypeTemporary = "temporary"
)

// Issuer signs and verifies tokens with a shared HMAC secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer creates an issuer. A zero ttl takes the default.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl == 0 {
		ttl = DefaultAccessTokenTTL
	}
	return &Issuer{secret: []byte(secret), ttl: ttl}
}

// IssueAccessToken mints a signed access token for a user. The token id
// (jti) supports revocation on logout.
func (i *Issuer) IssueAccessToken(userID, role, flatID string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		FlatID: flatID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// VerifyAccessToken parses and validates an access token.
func (i *Issuer) VerifyAccessToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, i.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// IssueQRToken mints a signed QR token. A zero ttl produces a token
// without expiry (regular visitor passes are revoked by deactivating the
// visitor instead).
func (i *Issuer) IssueQRToken(visitorID, tokenType, ownerID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := QRClaims{
		VisitorID: visitorID,
		TokenType: tokenType,
		OwnerID:   ownerID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign qr token: %w", err)
	}
	return signed, nil
}

// VerifyQRToken parses and validates a QR token.
func (i *Issuer) VerifyQRToken(tokenString string) (*QRClaims, error) {
	claims := &QRClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, i.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.TokenType == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (i *Issuer) keyFunc(*jwt.Token) (interface{}, error) {
	return i.secret, nil
}
