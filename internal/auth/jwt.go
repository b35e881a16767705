package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenClaims is the payload of a timed access token. Token is an opaque
// random string; the registered claims carry issue and expiry times.
type TokenClaims struct {
	Token string `json:"token"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies signed, time-limited access tokens.
// Validity is checked from the signature alone, without a server-side table.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// NewTokenService creates a service keyed by secret.
func NewTokenService(secret []byte) *TokenService {
	return &TokenService{secret: secret, now: time.Now}
}

// WithClock replaces the time source used for issuing and verifying.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// GenerateToken returns two random UUIDs concatenated with the dashes removed.
func GenerateToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

// IssueTimedToken wraps a fresh random token in an HS256 signature that
// expires ttl from now.
func (s *TokenService) IssueTimedToken(ttl time.Duration) (string, error) {
	now := s.now()
	claims := TokenClaims{
		Token: GenerateToken(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiryAfter(now, ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// expiryAfter returns now+ttl rounded up to the whole second, since
// NumericDate drops fractions and would otherwise shorten the token's life.
func expiryAfter(now time.Time, ttl time.Duration) time.Time {
	exp := now.Add(ttl)
	if t := exp.Truncate(jwt.TimePrecision); t.Before(exp) {
		return t.Add(jwt.TimePrecision)
	}
	return exp
}

// VerifyTimedToken reports whether signed carries a valid signature and has
// not expired. Every failure collapses to false.
func (s *TokenService) VerifyTimedToken(signed string) bool {
	if signed == "" {
		return false
	}
	token, err := jwt.ParseWithClaims(signed, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired(), jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return false
	}

	claims, ok := token.Claims.(*TokenClaims)
	return ok && token.Valid && claims.Token != ""
}
