// Package deadline picks the relevant edition of a conference and turns its
// deadline into countdown cells.
package deadline

import (
	"strings"
	"time"

	"github.com/umputun/deadlines/pkg/domain"
)

// layouts accepted after the date/time separator is normalized
var layouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDeadline parses a "YYYY-MM-DD HH:MM:SS" deadline in loc. The first space is
// replaced by the ISO date/time separator before parsing; strings carrying an explicit
// offset keep it. Returns false for empty or unparseable text.
func ParseDeadline(raw string, loc *time.Location) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	s = strings.Replace(s, " ", "T", 1)

	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// SelectLatest picks the edition with the earliest deadline at or after now.
// If no edition qualifies the last edition in document order is returned,
// whatever its deadline. Returns nil when the feed has no header or no editions.
func SelectLatest(feed domain.Feed, now time.Time, loc *time.Location) *domain.Selected {
	header := feed.Header()
	if header == nil || len(header.Confs) == 0 {
		return nil
	}

	var best *domain.Selected
	for _, inst := range header.Confs {
		ts, ok := ParseDeadline(inst.RawDeadline(), loc)
		if !ok || ts.Before(now) {
			continue
		}
		// strict comparison keeps the first edition on equal deadlines
		if best == nil || ts.Before(best.Deadline) {
			best = newSelected(header, inst, ts, true)
		}
	}
	if best != nil {
		return best
	}

	last := header.Confs[len(header.Confs)-1]
	ts, ok := ParseDeadline(last.RawDeadline(), loc)
	return newSelected(header, last, ts, ok)
}

func newSelected(header *domain.Series, inst domain.Instance, ts time.Time, ok bool) *domain.Selected {
	return &domain.Selected{
		Instance:    inst,
		Title:       header.Title,
		Description: header.Description,
		Deadline:    ts,
		HasDeadline: ok,
	}
}
