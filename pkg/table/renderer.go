package table

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/deadlines/pkg/deadline"
	"github.com/umputun/deadlines/pkg/domain"
)

//go:generate moq -out mocks/loader.go -pkg mocks -skip-ensure -fmt goimports . Loader

// Loader retrieves a decoded conference feed by identifier
type Loader interface {
	Load(ctx context.Context, id string) (domain.Feed, error)
}

// Config holds renderer parameters
type Config struct {
	Files       []string         // identifiers in declared order
	Concurrency int              // max parallel loads, 1 loads sequentially
	Location    *time.Location   // zone of deadlines without offset
	Placeholder string           // text for absent values
	Now         func() time.Time // clock, time.Now if nil
}

// Renderer loads all feeds, selects their deadlines and publishes sorted rows to a board
type Renderer struct {
	loader      Loader
	board       *Board
	files       []string
	concurrency int
	loc         *time.Location
	placeholder string
	now         func() time.Time
	policy      *bluemonday.Policy

	renderMu sync.Mutex // serializes renders
}

// NewRenderer makes a renderer publishing to board
func NewRenderer(loader Loader, board *Board, cfg Config) *Renderer {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Placeholder == "" {
		cfg.Placeholder = "-"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Renderer{
		loader:      loader,
		board:       board,
		files:       append([]string(nil), cfg.Files...),
		concurrency: cfg.Concurrency,
		loc:         cfg.Location,
		placeholder: cfg.Placeholder,
		now:         cfg.Now,
		policy:      bluemonday.StrictPolicy(),
	}
}

// RenderAll clears the board, loads every feed, selects deadlines, sorts them and
// publishes one row per selected deadline. Failed or empty feeds are logged and skipped.
// The only error returned is the context's.
func (r *Renderer) RenderAll(ctx context.Context) error {
	r.renderMu.Lock()
	defer r.renderMu.Unlock()

	st := time.Now()
	r.board.Clear()

	now := r.now()
	records, failed := r.collect(ctx, now)
	if err := ctx.Err(); err != nil {
		r.board.Replace(nil, r.now(), failed)
		return fmt.Errorf("render canceled: %w", err)
	}

	SortRecords(records)
	rows := make([]domain.Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, r.makeRow(rec))
	}
	r.board.Replace(rows, r.now(), failed)

	lgr.Printf("[INFO] rendered %d of %d conferences in %v, skipped %d", len(rows), len(r.files),
		time.Since(st).Truncate(time.Millisecond), len(failed))
	return nil
}

// collect loads and selects every feed, keeping declared order in the result
func (r *Renderer) collect(ctx context.Context, now time.Time) (records []domain.Record, failed []string) {
	results := make([]*domain.Record, len(r.files))

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, id := range r.files {
		g.Go(func() error {
			rec, err := r.loadRecord(ctx, id, now)
			if err != nil {
				lgr.Printf("[WARN] skip %s: %v", id, err)
				return nil
			}
			results[i] = rec
			return nil
		})
	}
	_ = g.Wait() // loads never return errors, failures are logged and skipped

	records = make([]domain.Record, 0, len(results))
	for i, rec := range results {
		if rec == nil {
			failed = append(failed, r.files[i])
			continue
		}
		records = append(records, *rec)
	}
	return records, failed
}

// loadRecord loads a single feed and merges its selected edition with the series metadata
func (r *Renderer) loadRecord(ctx context.Context, id string, now time.Time) (*domain.Record, error) {
	feed, err := r.loader.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	sel := deadline.SelectLatest(feed, now, r.loc)
	if sel == nil {
		return nil, fmt.Errorf("no conference editions in %s", id)
	}
	lgr.Printf("[DEBUG] %s: selected %s %s, deadline %q", id, sel.Title, sel.Year, sel.RawDeadline())

	return &domain.Record{
		Source:      id,
		Title:       sel.Title,
		Description: sel.Description,
		Place:       sel.Place,
		Date:        sel.Date,
		Link:        sel.Link,
		Deadline:    sel.Deadline,
		HasDeadline: sel.HasDeadline,
		RawDeadline: sel.RawDeadline(),
	}, nil
}

// SortRecords orders records by deadline, earliest first. Records without a valid
// deadline go after all others; equal keys keep their relative order.
func SortRecords(records []domain.Record) {
	slices.SortStableFunc(records, func(a, b domain.Record) int {
		switch {
		case a.HasDeadline && b.HasDeadline:
			return a.Deadline.Compare(b.Deadline)
		case a.HasDeadline:
			return -1
		case b.HasDeadline:
			return 1
		default:
			return 0
		}
	})
}

// makeRow converts a record to a display row, applying the placeholder to absent fields
func (r *Renderer) makeRow(rec domain.Record) domain.Row {
	title := r.text(domain.Some(rec.Title))
	label := r.clean(rec.Label())
	if label == "" {
		label = title
	}
	return domain.Row{
		Source:      rec.Source,
		Label:       label,
		Title:       title,
		Place:       r.text(rec.Place),
		Date:        r.text(rec.Date),
		RawDeadline: rec.RawDeadline,
		Link:        safeLink(rec.Link),
	}
}

// text returns the cleaned value or the placeholder
func (r *Renderer) text(o domain.Optional) string {
	if v := r.clean(o.Or("")); v != "" {
		return v
	}
	return r.placeholder
}

// clean strips markup from upstream text, leaving plain unescaped text
func (r *Renderer) clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(r.policy.Sanitize(s)))
}

// safeLink keeps absolute http(s) links only
func safeLink(o domain.Optional) string {
	v, ok := o.Get()
	if !ok {
		return ""
	}
	u, err := url.Parse(strings.TrimSpace(v))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	return u.String()
}
