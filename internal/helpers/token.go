package helpers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenValidator verifies Supabase access tokens. Asymmetric tokens are
// checked against the project's JWKS, which keyfunc refreshes in the
// background; HS256 tokens are checked against the project JWT secret.
type TokenValidator struct {
	jwks   *keyfunc.JWKS
	secret []byte
}

func JWKSURL(supabaseURL string) string {
	return strings.TrimRight(supabaseURL, "/") + "/auth/v1/.well-known/jwks.json"
}

func NewTokenValidator(ctx context.Context, supabaseURL, secret string, logger *slog.Logger) (*TokenValidator, error) {
	v := &TokenValidator{secret: []byte(secret)}

	if supabaseURL != "" {
		jwks, err := keyfunc.Get(JWKSURL(supabaseURL), keyfunc.Options{
			Ctx:               ctx,
			RefreshInterval:   time.Hour,
			RefreshRateLimit:  5 * time.Minute,
			RefreshTimeout:    10 * time.Second,
			RefreshUnknownKID: true,
			RefreshErrorHandler: func(err error) {
				logger.Warn("JWKS refresh failed", "error", err)
			},
		})
		switch {
		case err == nil:
			v.jwks = jwks
		case secret == "":
			return nil, fmt.Errorf("failed to load JWKS: %w", err)
		default:
			logger.Warn("JWKS unavailable, accepting HS256 tokens only", "error", err)
		}
	}

	if v.jwks == nil && len(v.secret) == 0 {
		return nil, errors.New("no token verification key configured")
	}
	return v, nil
}

// NewSecretValidator verifies HS256 tokens only.
func NewSecretValidator(secret string) *TokenValidator {
	return &TokenValidator{secret: []byte(secret)}
}

func (v *TokenValidator) keyFor(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); ok {
		if len(v.secret) == 0 {
			return nil, errors.New("HS256 tokens are not accepted")
		}
		return v.secret, nil
	}
	if v.jwks == nil {
		return nil, fmt.Errorf("%s tokens are not accepted", token.Method.Alg())
	}
	return v.jwks.Keyfunc(token)
}

func (v *TokenValidator) Validate(tokenStr string) (*CustomClaims, error) {
	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, v.keyFor,
		jwt.WithValidMethods([]string{"HS256", "RS256", "ES256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Close stops the background JWKS refresh.
func (v *TokenValidator) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}
