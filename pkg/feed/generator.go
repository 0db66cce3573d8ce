package feed

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/umputun/deadlines/pkg/domain"
)

// rssDocument is the root RSS 2.0 element
type rssDocument struct {
	XMLName xml.Name    `xml:"rss"`
	Version string      `xml:"version,attr"`
	Atom    string      `xml:"xmlns:atom,attr"`
	Channel *rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string     `xml:"title"`
	Link          string     `xml:"link"`
	Description   string     `xml:"description"`
	AtomLink      *atomLink  `xml:"http://www.w3.org/2005/Atom link"`
	LastBuildDate string     `xml:"lastBuildDate"`
	Items         []*rssItem `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	GUID        rssGUID  `xml:"guid"`
	Description string   `xml:"description"`
	PubDate     string   `xml:"pubDate"`
	Categories  []string `xml:"category"`
}

type rssGUID struct {
	Value       string `xml:",chardata"`
	IsPermaLink bool   `xml:"isPermaLink,attr"`
}

// Generator creates an RSS feed of the rendered deadline table
type Generator struct {
	baseURL string
}

// NewGenerator creates a new feed generator with links under baseURL
func NewGenerator(baseURL string) *Generator {
	return &Generator{
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// GenerateRSS creates an RSS 2.0 document with one item per row, in table order.
// builtAt is the time the rows were rendered.
func (g *Generator) GenerateRSS(rows []domain.Row, builtAt time.Time) (string, error) {
	items := make([]*rssItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, g.convertToRSSItem(row, builtAt))
	}

	feed := &rssDocument{
		Version: "2.0",
		Atom:    "http://www.w3.org/2005/Atom",
		Channel: &rssChannel{
			Title:         "Conference deadlines",
			Link:          g.baseURL + "/",
			Description:   fmt.Sprintf("Next submission deadlines of %d conferences", len(rows)),
			AtomLink:      &atomLink{Href: g.baseURL + "/rss", Rel: "self", Type: "application/rss+xml"},
			LastBuildDate: builtAt.Format(time.RFC1123Z),
			Items:         items,
		},
	}

	output, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal RSS: %w", err)
	}

	return xml.Header + string(output), nil
}

// convertToRSSItem converts a table row to an RSS item
func (g *Generator) convertToRSSItem(row domain.Row, builtAt time.Time) *rssItem {
	var desc strings.Builder
	desc.WriteString(row.Label)
	fmt.Fprintf(&desc, "\nDeadline: %s", row.Cell.Text)
	if row.Cell.Countdown != "" {
		fmt.Fprintf(&desc, " (%s left)", row.Cell.Countdown)
	}
	fmt.Fprintf(&desc, "\nPlace: %s\nDate: %s", row.Place, row.Date)

	link := row.Link
	if link == "" {
		link = g.baseURL + "/"
	}

	item := &rssItem{
		Title:       fmt.Sprintf("%s deadline: %s", row.Title, row.Cell.Text),
		Link:        link,
		GUID:        rssGUID{Value: row.Source + "#" + row.RawDeadline},
		Description: desc.String(),
		PubDate:     builtAt.Format(time.RFC1123Z),
	}
	if row.Cell.Urgency != domain.UrgencyNone {
		item.Categories = []string{string(row.Cell.Urgency)}
	}
	return item
}
