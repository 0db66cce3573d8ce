package server

import (
	"log"
	"net/http"
	"time"

	"github.com/umputun/deadlines/pkg/domain"
	"github.com/umputun/deadlines/pkg/table"
)

// statusHandler returns server status with the last render and tick of the board
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":  "ok",
		"version": s.cfg.Version,
		"time":    time.Now().UTC(),
		"board":   s.board.Status(),
	}
	RenderJSON(w, r, http.StatusOK, status)
}

// deadlinesResponse is the JSON view of the table
type deadlinesResponse struct {
	RenderedAt time.Time    `json:"rendered_at"`
	TickedAt   time.Time    `json:"ticked_at"`
	Count      int          `json:"count"`
	Rows       []domain.Row `json:"rows"`
	Failed     []string     `json:"failed,omitempty"`
}

// deadlinesHandler returns the rows in table order with their latest countdown cells
func (s *Server) deadlinesHandler(w http.ResponseWriter, r *http.Request) {
	rows := s.board.Rows()
	st := s.board.Status()
	RenderJSON(w, r, http.StatusOK, newDeadlinesResponse(rows, st))
}

// refreshAPIHandler re-renders the whole table and returns the fresh rows as JSON
func (s *Server) refreshAPIHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.refreshContext(r)
	defer cancel()

	if err := s.renderer.RenderAll(ctx); err != nil {
		log.Printf("[WARN] refresh failed: %v", err)
		RenderError(w, r, err, http.StatusServiceUnavailable)
		return
	}
	RenderJSON(w, r, http.StatusOK, newDeadlinesResponse(s.board.Rows(), s.board.Status()))
}

func newDeadlinesResponse(rows []domain.Row, st table.Status) deadlinesResponse {
	if rows == nil {
		rows = []domain.Row{}
	}
	return deadlinesResponse{
		RenderedAt: st.RenderedAt,
		TickedAt:   st.TickedAt,
		Count:      len(rows),
		Rows:       rows,
		Failed:     st.Failed,
	}
}
