package domain

import "time"

// Selected is the edition picked for a feed together with its parsed deadline
type Selected struct {
	Instance
	Title       string
	Description string
	Deadline    time.Time
	HasDeadline bool // false when the first timeline deadline is missing or unparseable
}

// Record is a selected deadline merged with its series metadata, one per rendered feed
type Record struct {
	Source      string // feed identifier the record was loaded from
	Title       string
	Description string
	Place       Optional
	Date        Optional
	Link        Optional
	Deadline    time.Time
	HasDeadline bool
	RawDeadline string
}

// Label returns the description, or the title when the description is empty
func (r Record) Label() string {
	return Some(r.Description).Or(r.Title)
}

// CellState describes what a countdown cell displays
type CellState int

// cell states
const (
	CellInvalid CellState = iota // deadline text can't be parsed
	CellClosed                   // deadline is in the past
	CellOpen                     // deadline is upcoming
)

// Urgency is a coloring bucket derived from the number of whole days left
type Urgency string

// urgency tiers
const (
	UrgencyNone    Urgency = ""
	UrgencyUrgent  Urgency = "urgent"
	UrgencyWarning Urgency = "warning"
	UrgencyNormal  Urgency = "normal"
	UrgencyMuted   Urgency = "muted"
)

// Remaining is a countdown split into whole days and time-of-day parts
type Remaining struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// Cell is the countdown output of a single row for one tick
type Cell struct {
	State     CellState `json:"state"`
	Text      string    `json:"text"`               // placeholder, closed label or absolute deadline
	Remaining Remaining `json:"remaining"`          // zero unless State is CellOpen
	Countdown string    `json:"countdown,omitempty"` // formatted Remaining for open cells
	Urgency   Urgency   `json:"urgency,omitempty"`
}

// Row is one rendered table row. It keeps the raw deadline text and re-parses it on every tick.
type Row struct {
	Source      string `json:"source"`
	Label       string `json:"label"`
	Title       string `json:"title"`
	Place       string `json:"place"`
	Date        string `json:"date"`
	RawDeadline string `json:"raw_deadline"`
	Link        string `json:"link,omitempty"`
	Cell        Cell   `json:"cell"`
}
