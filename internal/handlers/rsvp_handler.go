package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/eventease/internal/admission"
	"github.com/joshua-takyi/eventease/internal/helpers"
	"github.com/joshua-takyi/eventease/internal/models"
	"github.com/joshua-takyi/eventease/internal/services"
)

// SubmitRsvp is the public RSVP form endpoint. A new registration answers 201,
// an update of an existing one 200.
func SubmitRsvp(rs *services.RsvpService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RsvpInput
		if !bindJSON(c, &req) {
			return
		}

		rsvp, decision, err := rs.UpsertRsvp(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}

		status, message := http.StatusCreated, "RSVP confirmed"
		if decision == admission.AlreadyRegistered {
			status, message = http.StatusOK, "RSVP updated"
		}
		c.JSON(status, helpers.SuccessResponse(gin.H{
			"rsvp":     rsvp,
			"decision": decision,
		}, message))
	}
}

func EventAttendees(rs *services.RsvpService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		id, ok := uuidParam(c, "id")
		if !ok {
			return
		}

		rsvps, err := rs.EventAttendees(c.Request.Context(), actor, id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(rsvps, ""))
	}
}

func RemoveAttendee(rs *services.RsvpService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		eventID, ok := uuidParam(c, "id")
		if !ok {
			return
		}
		rsvpID, ok := uuidParam(c, "rsvpId")
		if !ok {
			return
		}

		if err := rs.RemoveAttendee(c.Request.Context(), actor, eventID, rsvpID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(nil, "Attendee removed"))
	}
}

func ListAttendees(rs *services.RsvpService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		filter, ok := attendeeFilter(c)
		if !ok {
			return
		}

		rsvps, err := rs.ListAttendees(c.Request.Context(), actor, filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, helpers.SuccessResponse(rsvps, ""))
	}
}

func attendeeFilter(c *gin.Context) (models.RsvpFilter, bool) {
	filter := models.RsvpFilter{
		Status: models.RsvpStatus(c.Query("status")),
		Query:  c.Query("q"),
	}
	if raw := c.Query("event_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			badRequest(c, "event_id", "must be a valid UUID")
			return filter, false
		}
		filter.EventID = id
	}
	return filter, true
}
