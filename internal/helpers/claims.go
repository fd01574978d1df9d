package helpers

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// CustomClaims mirrors the access tokens Supabase auth issues.
type CustomClaims struct {
	Role        string `json:"role"`
	Email       string `json:"email"`
	AppMetadata struct {
		Provider  string   `json:"provider"`
		Providers []string `json:"providers"`
	} `json:"app_metadata"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
	jwt.RegisteredClaims
}

// UserID parses the subject as the auth user id.
func (c *CustomClaims) UserID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: subject %q is not a user id", ErrInvalidToken, c.Subject)
	}
	return id, nil
}

// MetadataName returns the name stored in user metadata at signup, if any.
func (c *CustomClaims) MetadataName() string {
	if name, ok := c.UserMetadata["name"].(string); ok {
		return strings.TrimSpace(name)
	}
	return ""
}
