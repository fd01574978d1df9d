package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventease/internal/helpers"
	"github.com/joshua-takyi/eventease/internal/middleware"
	"github.com/joshua-takyi/eventease/internal/models"
	"github.com/joshua-takyi/eventease/internal/services"
)

func Signup(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.Signup
		if !bindJSON(c, &req) {
			return
		}

		if _, err := u.Signup(c.Request.Context(), req); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, helpers.SuccessResponse(nil, "Account created, check your email to confirm it"))
	}
}

func Login(u *services.UserService, secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.Login
		if !bindJSON(c, &req) {
			return
		}

		res, err := u.Login(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}

		middleware.SetAuthCookies(c, res, secureCookies)
		// tokens stay in http-only cookies
		c.JSON(http.StatusOK, helpers.SuccessResponse(gin.H{"user": res.User}, "Logged in"))
	}
}

func Logout(u *services.UserService, secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := middleware.BearerToken(c); token != "" {
			if err := u.Logout(c.Request.Context(), token); err != nil {
				// the cookies go either way; the session simply expires
				_ = c.Error(err).SetType(gin.ErrorTypePrivate)
			}
		}
		middleware.ClearAuthCookies(c, secureCookies)
		c.JSON(http.StatusOK, helpers.SuccessResponse(nil, "Logged out successfully"))
	}
}

// Profile returns the actor resolved by the auth middleware.
func Profile() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(actor, ""))
	}
}
