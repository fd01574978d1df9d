package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/eventease/internal/access"
	"github.com/joshua-takyi/eventease/internal/helpers"
	"github.com/joshua-takyi/eventease/internal/middleware"
	"github.com/joshua-takyi/eventease/internal/models"
	"github.com/joshua-takyi/eventease/internal/services"
)

// respondError maps domain errors to status codes. Anything unrecognised is
// attached to the gin context for ErrorHandler to log and answered with 500.
func respondError(c *gin.Context, err error) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, helpers.ValidationResponse(verr.Fields))
		return
	}

	switch {
	case errors.Is(err, access.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, helpers.ErrorResponse("Unauthorized"))
	case errors.Is(err, access.ErrForbidden):
		c.JSON(http.StatusForbidden, helpers.ErrorResponse("Forbidden"))
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, helpers.ErrorResponse("Not found"))
	case errors.Is(err, services.ErrFull):
		c.JSON(http.StatusConflict, helpers.ErrorResponse("Event is full"))
	case errors.Is(err, models.ErrConflict):
		c.JSON(http.StatusConflict, helpers.ErrorResponse("Conflict"))
	case errors.Is(err, services.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, helpers.ErrorResponse(err.Error()))
	default:
		_ = c.Error(err)
		resp := helpers.ErrorResponse("Internal server error")
		resp.RequestID = c.GetString(middleware.RequestIDKey)
		c.JSON(http.StatusInternalServerError, resp)
	}
}

func badRequest(c *gin.Context, field, message string) {
	c.JSON(http.StatusBadRequest, helpers.ValidationResponse(map[string]string{field: message}))
}

func currentActor(c *gin.Context) (*access.Actor, bool) {
	actor, err := access.ActorFrom(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return actor, true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, name, "must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func pagination(c *gin.Context) (offset, limit int, ok bool) {
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil {
		badRequest(c, "offset", "must be an integer")
		return 0, 0, false
	}
	limit, err = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(services.DefaultPageSize)))
	if err != nil {
		badRequest(c, "limit", "must be an integer")
		return 0, 0, false
	}
	offset, limit = services.ClampPage(offset, limit)
	return offset, limit, true
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		resp := helpers.ErrorResponse("invalid request payload")
		resp.Message = err.Error()
		c.JSON(http.StatusBadRequest, resp)
		return false
	}
	return true
}
