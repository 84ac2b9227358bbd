// Package auth implements first-party email/password authentication with
// HS256 bearer tokens.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/sentinelhq/sentinel-api/internal/models"
)

// Claims is the validated content of a bearer token
type Claims struct {
	UserID    uuid.UUID
	Email     string
	TokenID   string
	ExpiresAt time.Time
}

// TokenService issues and verifies signed tokens. A non-nil Revoker makes
// sign-out effective server side; without one tokens simply expire.
type TokenService struct {
	secret  []byte
	issuer  string
	ttl     time.Duration
	revoker Revoker
}

// NewTokenService creates a token service
func NewTokenService(secret []byte, issuer string, ttl time.Duration, revoker Revoker) *TokenService {
	return &TokenService{
		secret:  secret,
		issuer:  issuer,
		ttl:     ttl,
		revoker: revoker,
	}
}

// Issue creates a signed token for a user
func (t *TokenService) Issue(user *models.User) (string, error) {
	now := time.Now()
	token, err := jwt.NewBuilder().
		Issuer(t.issuer).
		Subject(user.ID.String()).
		JwtID(uuid.NewString()).
		Claim("email", user.Email).
		IssuedAt(now).
		Expiration(now.Add(t.ttl)).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, t.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return string(signed), nil
}

// Verify parses and validates a token and extracts claims
func (t *TokenService) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.Parse([]byte(tokenString),
		jwt.WithKey(jwa.HS256, t.secret),
		jwt.WithValidate(true),
		jwt.WithIssuer(t.issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse/verify token: %w", err)
	}

	claims := &Claims{
		TokenID:   token.JwtID(),
		ExpiresAt: token.Expiration(),
	}

	userID, err := uuid.Parse(token.Subject())
	if err != nil {
		return nil, fmt.Errorf("token subject is not a user id: %w", err)
	}
	claims.UserID = userID

	if email, ok := token.Get("email"); ok {
		if emailStr, ok := email.(string); ok {
			claims.Email = emailStr
		}
	}

	if t.revoker != nil && claims.TokenID != "" {
		revoked, err := t.revoker.IsRevoked(ctx, claims.TokenID)
		if err != nil {
			return nil, fmt.Errorf("failed to check token revocation: %w", err)
		}
		if revoked {
			return nil, fmt.Errorf("token has been revoked")
		}
	}

	return claims, nil
}

// Revoke invalidates a token until its natural expiry
func (t *TokenService) Revoke(ctx context.Context, claims *Claims) error {
	if t.revoker == nil || claims.TokenID == "" {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	return t.revoker.Revoke(ctx, claims.TokenID, ttl)
}
