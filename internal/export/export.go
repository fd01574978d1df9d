// Package export renders attendee and event lists as CSV downloads.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/joshua-takyi/eventease/internal/models"
)

const timeLayout = "2006-01-02 15:04:05"

var (
	attendeeHeader = []string{"Name", "Email", "Event", "Status", "RSVP Date"}
	eventHeader    = []string{"Title", "Description", "Date & Time", "Location", "Capacity", "Attendees"}
)

// cell neutralises values a spreadsheet would evaluate as a formula by
// prefixing them with a quote.
func cell(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}

// Filename returns "<prefix>-YYYY-MM-DD.csv" for the given day.
func Filename(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%s.csv", prefix, now.Format("2006-01-02"))
}

// WriteAttendees writes one row per RSVP. Times are rendered in loc.
func WriteAttendees(w io.Writer, rsvps []*models.Rsvp, loc *time.Location) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(attendeeHeader); err != nil {
		return err
	}
	for _, r := range rsvps {
		title := ""
		if r.Event != nil {
			title = r.Event.Title
		}
		if err := cw.Write([]string{
			cell(r.Name),
			cell(r.Email),
			cell(title),
			string(r.Status),
			r.CreatedAt.In(loc).Format(timeLayout),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEvents writes one row per event. An unlimited event has an empty
// capacity cell.
func WriteEvents(w io.Writer, events []*models.EventSummary, loc *time.Location) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(eventHeader); err != nil {
		return err
	}
	for _, e := range events {
		capacity := ""
		if e.MaxAttendeeCount != nil {
			capacity = strconv.Itoa(*e.MaxAttendeeCount)
		}
		if err := cw.Write([]string{
			cell(e.Title),
			cell(e.Description),
			e.Date.In(loc).Format(timeLayout),
			cell(e.Location),
			capacity,
			strconv.Itoa(e.AttendeeCount),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
