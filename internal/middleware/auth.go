package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/eventease/internal/access"
	"github.com/joshua-takyi/eventease/internal/helpers"
	"github.com/joshua-takyi/eventease/internal/logging"
	"github.com/joshua-takyi/eventease/internal/models"
	"github.com/supabase-community/gotrue-go/types"
)

const (
	ActorKey       = "actor"
	AccessTokenKey = "access_token"

	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"

	refreshTokenMaxAge = 3600 * 24 * 30
)

type TokenVerifier interface {
	Validate(token string) (*helpers.CustomClaims, error)
}

// AuthUsers is what the auth middleware needs from the user service.
type AuthUsers interface {
	Profile(ctx context.Context, id uuid.UUID, accessToken string) (*models.User, error)
	RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error)
}

// SetAuthCookies stores a fresh session in http-only cookies.
func SetAuthCookies(c *gin.Context, res *types.TokenResponse, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, res.AccessToken, res.ExpiresIn, "/", "", secure, true)
	c.SetCookie(RefreshTokenCookie, res.RefreshToken, refreshTokenMaxAge, "/", "", secure, true)
}

func ClearAuthCookies(c *gin.Context, secure bool) {
	c.SetCookie(AccessTokenCookie, "", -1, "/", "", secure, true)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", "", secure, true)
}

// BearerToken returns the access token from the Authorization header or,
// failing that, the access token cookie.
func BearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	token, _ := c.Cookie(AccessTokenCookie)
	return token
}

// AuthMiddleware resolves the caller into an access.Actor. An expired access
// token is refreshed once from the refresh cookie. A valid token without a
// profile row, or with an unknown role, is refused.
func AuthMiddleware(verifier TokenVerifier, users AuthUsers, secureCookies bool, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		log := logging.FromContext(ctx, logger)

		token := BearerToken(c)
		var (
			claims *helpers.CustomClaims
			err    = errors.New("access token not found")
		)
		if token != "" {
			claims, err = verifier.Validate(token)
		}

		if err != nil {
			refreshToken, cookieErr := c.Cookie(RefreshTokenCookie)
			if cookieErr != nil || refreshToken == "" {
				abort(c, http.StatusUnauthorized, "Unauthorized access")
				return
			}

			res, refreshErr := users.RefreshToken(ctx, refreshToken)
			if refreshErr != nil || res == nil || res.AccessToken == "" {
				log.Warn("Token refresh failed", "error", refreshErr)
				abort(c, http.StatusUnauthorized, "Token expired and refresh failed")
				return
			}
			SetAuthCookies(c, res, secureCookies)
			token = res.AccessToken

			if claims, err = verifier.Validate(token); err != nil {
				abort(c, http.StatusUnauthorized, "Refreshed token validation failed")
				return
			}
			log.Info("Token refreshed", "user_id", claims.Subject, "expires_in", res.ExpiresIn)
		}

		userID, err := claims.UserID()
		if err != nil {
			abort(c, http.StatusUnauthorized, "Unauthorized access")
			return
		}

		profile, err := users.Profile(ctx, userID, token)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				log.Warn("Profile not found for authenticated user", "user_id", userID)
				abort(c, http.StatusForbidden, "Profile not found")
				return
			}
			log.Error("Profile lookup failed", "user_id", userID, "error", err, "error_kind", "profile")
			abort(c, http.StatusInternalServerError, "Internal server error")
			return
		}

		role, ok := access.ParseRole(profile.Role)
		if !ok {
			log.Warn("Profile has unknown role", "user_id", userID, "role", profile.Role)
			abort(c, http.StatusForbidden, "Forbidden")
			return
		}

		actor := &access.Actor{
			ID:    userID,
			Email: firstNonEmpty(profile.Email, claims.Email),
			Name:  firstNonEmpty(profile.Name, claims.MetadataName()),
			Role:  role,
		}
		c.Set(ActorKey, actor)
		c.Set(AccessTokenKey, token)

		ctx = access.WithActor(ctx, actor)
		ctx = logging.WithLogger(ctx, log.With("actor_id", actor.ID, "role", actor.Role))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func abort(c *gin.Context, status int, message string) {
	resp := helpers.ErrorResponse(message)
	resp.RequestID = c.GetString(RequestIDKey)
	c.AbortWithStatusJSON(status, resp)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
