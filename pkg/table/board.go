// Package table builds the sorted deadline table and keeps its rows for display surfaces.
package table

import (
	"sync"
	"time"

	"github.com/umputun/deadlines/pkg/domain"
)

// Evaluator builds the countdown cell of a raw deadline at a given moment
type Evaluator interface {
	Evaluate(raw string, now time.Time) domain.Cell
}

// Status describes the last render and tick of a board
type Status struct {
	RenderedAt time.Time `json:"rendered_at"`
	TickedAt   time.Time `json:"ticked_at"`
	Rows       int       `json:"rows"`
	Failed     []string  `json:"failed,omitempty"` // identifiers skipped by the last render
	Rendering  bool      `json:"rendering"`
}

// Board is the display surface shared by the renderer, the countdown ticker and readers.
// Rows are replaced as a whole on every render; a tick re-evaluates every row's cell
// from its raw deadline text.
type Board struct {
	eval Evaluator

	mu     sync.RWMutex
	rows   []domain.Row
	status Status
}

// NewBoard makes an empty board evaluating cells with eval
func NewBoard(eval Evaluator) *Board {
	return &Board{eval: eval}
}

// Clear drops all rows and marks the board as being rendered
func (b *Board) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rows = nil
	b.status.Rows = 0
	b.status.Rendering = true
}

// Replace publishes a new set of rows and evaluates their cells at now
func (b *Board) Replace(rows []domain.Row, now time.Time, failed []string) {
	fresh := make([]domain.Row, len(rows))
	copy(fresh, rows)
	for i := range fresh {
		fresh[i].Cell = b.eval.Evaluate(fresh[i].RawDeadline, now)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.rows = fresh
	b.status = Status{
		RenderedAt: now,
		TickedAt:   now,
		Rows:       len(fresh),
		Failed:     append([]string(nil), failed...),
	}
}

// Tick re-evaluates the cell of every row at now and returns the number of rows updated
func (b *Board) Tick(now time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.rows {
		b.rows[i].Cell = b.eval.Evaluate(b.rows[i].RawDeadline, now)
	}
	b.status.TickedAt = now
	return len(b.rows)
}

// Rows returns a copy of the current rows in display order
func (b *Board) Rows() []domain.Row {
	b.mu.RLock()
	defer b.mu.RUnlock()
	res := make([]domain.Row, len(b.rows))
	copy(res, b.rows)
	return res
}

// Status returns render and tick information
func (b *Board) Status() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	st := b.status
	st.Failed = append([]string(nil), b.status.Failed...)
	return st
}
