package domain

// Feed is one decoded conference document. The document root is a YAML sequence,
// only its first element carries the metadata header and the editions list.
type Feed []Series

// Header returns the metadata header of the feed, or nil for an empty document
func (f Feed) Header() *Series {
	if len(f) == 0 {
		return nil
	}
	return &f[0]
}

// Series describes a conference across all its editions
type Series struct {
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Sub         string         `yaml:"sub"`
	Rank        map[string]any `yaml:"rank"` // rating per ranking system, values are strings or lists
	DBLP        string         `yaml:"dblp"`
	Confs       []Instance     `yaml:"confs"`
}

// Instance is a single edition of a conference
type Instance struct {
	Year     string          `yaml:"year"`
	ID       string          `yaml:"id"`
	Link     Optional        `yaml:"link"`
	Place    Optional        `yaml:"place"`
	Date     Optional        `yaml:"date"`
	Timezone string          `yaml:"timezone"`
	Timeline []TimelineEntry `yaml:"timeline"`
}

// TimelineEntry is a deadline milestone of an edition
type TimelineEntry struct {
	Deadline         string `yaml:"deadline"`
	AbstractDeadline string `yaml:"abstract_deadline"`
	Comment          string `yaml:"comment"`
}

// RawDeadline returns the deadline of the first timeline entry, empty if there is none
func (i Instance) RawDeadline() string {
	if len(i.Timeline) == 0 {
		return ""
	}
	return i.Timeline[0].Deadline
}
