package deadline

import (
	"fmt"
	"time"

	"github.com/umputun/deadlines/pkg/domain"
)

// Thresholds are the day limits of urgency tiers, rows with fewer days left than
// Urgent are urgent, fewer than Warning are warnings, the rest are normal
type Thresholds struct {
	Urgent  int
	Warning int
}

// DefaultThresholds are the 7 and 30 day tiers
var DefaultThresholds = Thresholds{Urgent: 7, Warning: 30}

// Evaluator turns raw deadline strings into countdown cells
type Evaluator struct {
	Location    *time.Location
	Layout      string // layout of the absolute deadline text
	Placeholder string // text of unparseable deadlines
	ClosedLabel string // text of passed deadlines
	Thresholds  Thresholds
}

// Evaluate re-parses raw and builds the cell shown at now
func (e Evaluator) Evaluate(raw string, now time.Time) domain.Cell {
	ts, ok := ParseDeadline(raw, e.Location)
	if !ok {
		return domain.Cell{State: domain.CellInvalid, Text: e.Placeholder}
	}

	diff := ts.Sub(now)
	if diff <= 0 {
		return domain.Cell{State: domain.CellClosed, Text: e.ClosedLabel, Urgency: domain.UrgencyMuted}
	}

	rem := Breakdown(diff)
	layout := e.Layout
	if layout == "" {
		layout = time.DateTime
	}
	return domain.Cell{
		State:     domain.CellOpen,
		Text:      ts.In(e.location()).Format(layout),
		Remaining: rem,
		Countdown: FormatRemaining(rem),
		Urgency:   TierFor(rem.Days, e.Thresholds),
	}
}

func (e Evaluator) location() *time.Location {
	if e.Location == nil {
		return time.Local
	}
	return e.Location
}

// Breakdown splits a positive duration into whole days, hours within the day,
// minutes within the hour and seconds within the minute. Sub-second parts are dropped.
func Breakdown(d time.Duration) domain.Remaining {
	if d <= 0 {
		return domain.Remaining{}
	}
	secs := int64(d / time.Second)
	return domain.Remaining{
		Days:    int(secs / 86400),
		Hours:   int(secs / 3600 % 24),
		Minutes: int(secs / 60 % 60),
		Seconds: int(secs % 60),
	}
}

// FormatRemaining renders a breakdown as "1d 2h 3m 4s"
func FormatRemaining(r domain.Remaining) string {
	return fmt.Sprintf("%dd %dh %dm %ds", r.Days, r.Hours, r.Minutes, r.Seconds)
}

// TierFor returns the urgency tier for the number of whole days left
func TierFor(days int, th Thresholds) domain.Urgency {
	if th.Urgent == 0 && th.Warning == 0 {
		th = DefaultThresholds
	}
	switch {
	case days < th.Urgent:
		return domain.UrgencyUrgent
	case days < th.Warning:
		return domain.UrgencyWarning
	default:
		return domain.UrgencyNormal
	}
}
