package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventease/internal/helpers"
	"github.com/joshua-takyi/eventease/internal/services"
)

func Dashboard(ls *services.LedgerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}

		stats, err := ls.Dashboard(c.Request.Context(), actor)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(stats, ""))
	}
}
