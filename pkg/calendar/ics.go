// Package calendar exports rendered deadlines as an iCalendar feed.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/umputun/deadlines/pkg/deadline"
	"github.com/umputun/deadlines/pkg/domain"
)

// Options control calendar generation
type Options struct {
	Location    *time.Location // zone of deadlines without offset
	Placeholder string         // row text treated as absent
	Stamp       time.Time      // DTSTAMP of every event
}

// GenerateICS builds a calendar with one event per row whose deadline parses.
// Each event starts and ends at the deadline and carries a one day reminder.
func GenerateICS(rows []domain.Row, opts Options) string {
	var ics strings.Builder

	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	ics.WriteString("PRODID:-//Deadlines//deadlines//EN\r\n")
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")
	ics.WriteString("X-WR-CALNAME:Conference deadlines\r\n")

	for _, row := range rows {
		ts, ok := deadline.ParseDeadline(row.RawDeadline, opts.Location)
		if !ok {
			continue
		}
		writeEvent(&ics, row, ts, opts)
	}

	ics.WriteString("END:VCALENDAR\r\n")
	return ics.String()
}

func writeEvent(ics *strings.Builder, row domain.Row, ts time.Time, opts Options) {
	present := func(s string) bool { return s != "" && s != opts.Placeholder }

	ics.WriteString("BEGIN:VEVENT\r\n")
	fmt.Fprintf(ics, "UID:%s@deadlines\r\n", eventUID(row, ts))
	fmt.Fprintf(ics, "DTSTAMP:%s\r\n", formatICSTime(opts.Stamp))
	fmt.Fprintf(ics, "DTSTART:%s\r\n", formatICSTime(ts))
	fmt.Fprintf(ics, "DTEND:%s\r\n", formatICSTime(ts))
	fmt.Fprintf(ics, "SUMMARY:%s\r\n", escapeICS(row.Title+" submission deadline"))

	description := row.Label
	if present(row.Date) {
		description = fmt.Sprintf("%s\nConference date: %s", description, row.Date)
	}
	fmt.Fprintf(ics, "DESCRIPTION:%s\r\n", escapeICS(description))
	if present(row.Place) {
		fmt.Fprintf(ics, "LOCATION:%s\r\n", escapeICS(row.Place))
	}
	if row.Link != "" {
		fmt.Fprintf(ics, "URL:%s\r\n", row.Link)
	}
	ics.WriteString("TRANSP:TRANSPARENT\r\n")

	// reminder
	ics.WriteString("BEGIN:VALARM\r\n")
	ics.WriteString("ACTION:DISPLAY\r\n")
	fmt.Fprintf(ics, "DESCRIPTION:%s\r\n", escapeICS(row.Title+" deadline tomorrow"))
	ics.WriteString("TRIGGER:-P1D\r\n")
	ics.WriteString("END:VALARM\r\n")

	ics.WriteString("END:VEVENT\r\n")
}

// eventUID is stable for the same source and deadline
func eventUID(row domain.Row, ts time.Time) string {
	src := strings.TrimSuffix(strings.TrimSuffix(row.Source, ".yml"), ".yaml")
	if src == "" {
		src = strings.ToLower(strings.ReplaceAll(row.Title, " ", "-"))
	}
	return fmt.Sprintf("%s-%s", src, ts.UTC().Format("20060102T150405"))
}

// formatICSTime formats a time.Time as an iCalendar UTC datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// escapeICS escapes special characters for iCalendar text values (RFC 5545)
func escapeICS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
