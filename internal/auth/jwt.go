// Package auth turns a request into an access.Viewer.
//
// VIEWER TOKENS:
// The portal does not manage sessions. A viewer is whoever a signed JWT says
// they are:
//
//	{"sub": "42", "role": "member", "iss": "lesson-portal", "exp": ...}
//
// The token arrives either as "Authorization: Bearer <jwt>" or in the
// HttpOnly "token" cookie set by the GitHub login. No token means the
// anonymous free-tier viewer.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/lesson-portal/internal/access"
	"github.com/sakif/lesson-portal/internal/model"
)

const issuer = "lesson-portal"

// DefaultTTL is used when NewTokenService is given a non-positive ttl.
const DefaultTTL = 24 * time.Hour

// TokenService signs and verifies viewer tokens with an HMAC secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// claims carries the role next to the registered claims. "sub" holds the user id.
type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Generate signs a token for v that lives for the service's ttl.
func (s *TokenService) Generate(v access.Viewer) (string, error) {
	return s.GenerateWithDuration(v, s.ttl)
}

// GenerateWithDuration is Generate with an explicit lifetime.
// Used by tests and by cmd/devtoken.
func (s *TokenService) GenerateWithDuration(v access.Viewer, d time.Duration) (string, error) {
	if v.UserID <= 0 {
		return "", errors.New("auth: cannot issue a token without a user id")
	}
	if !v.Role.Valid() {
		return "", fmt.Errorf("auth: cannot issue a token for role %q", v.Role)
	}

	now := time.Now()
	c := claims{
		Role: string(v.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(v.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies signature, issuer, expiry and algorithm, then rebuilds
// the viewer. A role outside the five known tiers invalidates the token.
func (s *TokenService) Validate(tokenStr string) (access.Viewer, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return access.Viewer{}, fmt.Errorf("auth: token expired")
		}
		return access.Viewer{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return access.Viewer{}, fmt.Errorf("auth: invalid token claims")
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return access.Viewer{}, fmt.Errorf("auth: token subject %q is not a user id", c.Subject)
	}

	role, err := model.ParseRole(c.Role)
	if err != nil {
		return access.Viewer{}, fmt.Errorf("auth: token role: %w", err)
	}

	return access.Viewer{UserID: userID, Role: role}, nil
}

// TTL is how long tokens from Generate live. The login cookie uses the same lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}
