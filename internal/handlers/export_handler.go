package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventease/internal/export"
	"github.com/joshua-takyi/eventease/internal/services"
)

func ExportAttendees(rs *services.RsvpService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		filter, ok := attendeeFilter(c)
		if !ok {
			return
		}
		loc, ok := exportLocation(c)
		if !ok {
			return
		}

		rsvps, err := rs.ExportAttendees(c.Request.Context(), actor, filter)
		if err != nil {
			respondError(c, err)
			return
		}

		csvHeaders(c, export.Filename("attendees", time.Now().In(loc)))
		if err := export.WriteAttendees(c.Writer, rsvps, loc); err != nil {
			_ = c.Error(err)
		}
	}
}

func ExportEvents(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := currentActor(c)
		if !ok {
			return
		}
		loc, ok := exportLocation(c)
		if !ok {
			return
		}

		events, err := es.ExportEvents(c.Request.Context(), actor)
		if err != nil {
			respondError(c, err)
			return
		}

		csvHeaders(c, export.Filename("events", time.Now().In(loc)))
		if err := export.WriteEvents(c.Writer, events, loc); err != nil {
			_ = c.Error(err)
		}
	}
}

// exportLocation reads the optional tz query parameter, defaulting to UTC.
func exportLocation(c *gin.Context) (*time.Location, bool) {
	tz := c.Query("tz")
	if tz == "" {
		return time.UTC, true
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		badRequest(c, "tz", "must be an IANA time zone name")
		return nil, false
	}
	return loc, true
}

func csvHeaders(c *gin.Context, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)
}
