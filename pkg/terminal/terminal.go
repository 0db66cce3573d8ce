// Package terminal shows the deadline board in the terminal, repainting the countdown on every tick.
package terminal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	"github.com/go-pkgz/lgr"

	"github.com/umputun/deadlines/pkg/domain"
	"github.com/umputun/deadlines/pkg/table"
)

//go:generate moq -out mocks/renderer.go -pkg mocks -skip-ensure -fmt goimports . Renderer

// Board provides the rendered rows and their status
type Board interface {
	Rows() []domain.Row
	Status() table.Status
}

// Renderer rebuilds the board on demand
type Renderer interface {
	RenderAll(ctx context.Context) error
}

// Options for the terminal board
type Options struct {
	Interval    time.Duration // repaint interval
	Placeholder string        // link column text for rows without link
	Version     string
}

type keyMap struct {
	Refresh key.Binding
	Quit    key.Binding
}

// ShortHelp returns bindings for the help line
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Quit}
}

// FullHelp returns bindings for the expanded help
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Refresh, k.Quit}}
}

var defaultKeyMap = keyMap{
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c", "esc"),
		key.WithHelp("q", "quit"),
	),
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	urgencyStyle = map[domain.Urgency]lipgloss.Style{
		domain.UrgencyUrgent:  cellStyle.Foreground(lipgloss.Color("196")).Bold(true),
		domain.UrgencyWarning: cellStyle.Foreground(lipgloss.Color("208")),
		domain.UrgencyNormal:  cellStyle.Foreground(lipgloss.Color("34")),
		domain.UrgencyMuted:   cellStyle.Foreground(lipgloss.Color("245")),
	}
)

const deadlineColumn = 4

type tickMsg time.Time

type renderedMsg struct {
	err error
}

// Model is the bubbletea model of the board
type Model struct {
	ctx      context.Context
	board    Board
	renderer Renderer
	opts     Options

	rows       []domain.Row
	status     table.Status
	refreshing bool
	lastErr    error
	width      int

	keys keyMap
	help help.Model
}

// New makes a model showing the current board content
func New(ctx context.Context, board Board, renderer Renderer, opts Options) Model {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.Placeholder == "" {
		opts.Placeholder = "-"
	}
	h := help.New()
	h.Styles.ShortKey = footerStyle.Bold(true)
	h.Styles.ShortDesc = footerStyle
	h.Styles.ShortSeparator = footerStyle

	return Model{
		ctx:      ctx,
		board:    board,
		renderer: renderer,
		opts:     opts,
		rows:     board.Rows(),
		status:   board.Status(),
		keys:     defaultKeyMap,
		help:     h,
	}
}

// Run shows the board until the user quits or ctx is canceled
func Run(ctx context.Context, board Board, renderer Renderer, opts Options) error {
	p := tea.NewProgram(New(ctx, board, renderer, opts), tea.WithContext(ctx), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("terminal board: %w", err)
	}
	return nil
}

// Init starts the repaint ticker
func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles ticks, render results and key presses
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.rows = m.board.Rows()
		m.status = m.board.Status()
		return m, m.tick()

	case renderedMsg:
		m.refreshing = false
		m.lastErr = msg.err
		m.rows = m.board.Rows()
		m.status = m.board.Status()
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			if m.refreshing {
				return m, nil
			}
			m.refreshing = true
			m.lastErr = nil
			return m, m.refresh()
		}
	}
	return m, nil
}

// View draws the table, the status line and the help line
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Conference deadlines"))
	b.WriteString("\n")

	if len(m.rows) == 0 {
		if m.status.Rendering || m.refreshing {
			b.WriteString("loading…\n")
		} else {
			b.WriteString("no conferences\n")
		}
	} else {
		b.WriteString(m.grid().Render())
		b.WriteString("\n")
	}

	b.WriteString(footerStyle.Render(m.statusLine()))
	b.WriteString("\n")
	if m.lastErr != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("refresh failed: %v", m.lastErr)))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) grid() *ltable.Table {
	rows := m.rows
	t := ltable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("Conference", "Acronym", "Place", "Date", "Deadline", "Link").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == ltable.HeaderRow {
				return headerStyle
			}
			if col == deadlineColumn && row >= 0 && row < len(rows) {
				if st, ok := urgencyStyle[rows[row].Cell.Urgency]; ok {
					return st
				}
			}
			return cellStyle
		})
	if m.width > 0 {
		t = t.Width(m.width)
	}

	for _, r := range rows {
		link := r.Link
		if link == "" {
			link = m.opts.Placeholder
		}
		t.Row(r.Label, r.Title, r.Place, r.Date, deadlineText(r.Cell), link)
	}
	return t
}

func (m Model) statusLine() string {
	parts := []string{fmt.Sprintf("%d conferences", len(m.rows))}
	if !m.status.RenderedAt.IsZero() {
		parts = append(parts, "rendered "+m.status.RenderedAt.Format(time.TimeOnly))
	}
	if len(m.status.Failed) > 0 {
		parts = append(parts, "skipped "+strings.Join(m.status.Failed, ", "))
	}
	if m.refreshing {
		parts = append(parts, "refreshing…")
	}
	if m.opts.Version != "" {
		parts = append(parts, m.opts.Version)
	}
	return strings.Join(parts, " · ")
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.opts.Interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) refresh() tea.Cmd {
	ctx, renderer := m.ctx, m.renderer
	return func() tea.Msg {
		err := renderer.RenderAll(ctx)
		if err != nil {
			lgr.Printf("[WARN] refresh failed: %v", err)
		}
		return renderedMsg{err: err}
	}
}

// deadlineText is the absolute deadline with the countdown for open cells, the cell text otherwise
func deadlineText(c domain.Cell) string {
	if c.State == domain.CellOpen && c.Countdown != "" {
		return c.Text + "  " + c.Countdown
	}
	return c.Text
}
