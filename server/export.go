package server

import (
	"log"
	"net/http"
	"time"

	"github.com/umputun/deadlines/pkg/calendar"
)

// rssHandler serves the table as an RSS feed, one item per row
func (s *Server) rssHandler(w http.ResponseWriter, _ *http.Request) {
	builtAt := s.board.Status().RenderedAt
	if builtAt.IsZero() {
		builtAt = time.Now()
	}

	rss, err := s.generator.GenerateRSS(s.board.Rows(), builtAt)
	if err != nil {
		log.Printf("[ERROR] failed to generate RSS feed: %v", err)
		http.Error(w, "Failed to generate RSS feed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	if _, err := w.Write([]byte(rss)); err != nil {
		log.Printf("[ERROR] failed to write RSS response: %v", err)
	}
}

// calendarHandler serves upcoming and passed deadlines as an iCalendar file
func (s *Server) calendarHandler(w http.ResponseWriter, _ *http.Request) {
	ics := calendar.GenerateICS(s.board.Rows(), calendar.Options{
		Location:    s.cfg.Location,
		Placeholder: s.cfg.Placeholder,
		Stamp:       time.Now().UTC(),
	})

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="deadlines.ics"`)
	if _, err := w.Write([]byte(ics)); err != nil {
		log.Printf("[ERROR] failed to write calendar response: %v", err)
	}
}
