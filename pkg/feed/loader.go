package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater/v2"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/umputun/deadlines/pkg/domain"
)

// maxBodySize limits a single conference document
const maxBodySize = 4 * 1024 * 1024

// Stage tells which step of a load failed
type Stage string

// load stages
const (
	StageResolve Stage = "resolve"
	StageFetch   Stage = "fetch"
	StageDecode  Stage = "decode"
)

// LoadError is returned by Loader.Load when a conference file can't be fetched or decoded
type LoadError struct {
	ID    string
	Stage Stage
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %s: %v", e.ID, e.Stage, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoaderConfig holds Loader parameters
type LoaderConfig struct {
	BaseURL    string
	Timeout    time.Duration
	UserAgent  string
	Attempts   int           // total fetch attempts, 1 means no retry
	RetryDelay time.Duration // delay between attempts
	RateLimit  time.Duration // minimum interval between requests, 0 disables
	Client     *http.Client  // optional, built from Timeout if nil
}

// Loader fetches conference YAML files under a fixed base URL
type Loader struct {
	client     *http.Client
	base       *url.URL
	userAgent  string
	attempts   int
	retryDelay time.Duration
	limiter    *rate.Limiter
}

// NewLoader creates a loader for files under cfg.BaseURL
func NewLoader(cfg LoaderConfig) (*Loader, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", cfg.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.RateLimit), 1)
	}

	return &Loader{
		client:     client,
		base:       base,
		userAgent:  cfg.UserAgent,
		attempts:   attempts,
		retryDelay: cfg.RetryDelay,
		limiter:    limiter,
	}, nil
}

// Load fetches the file identified by id and decodes it as a conference feed.
// The document is returned as decoded, without validation.
func (l *Loader) Load(ctx context.Context, id string) (domain.Feed, error) {
	target, err := l.Resolve(id)
	if err != nil {
		return nil, &LoadError{ID: id, Stage: StageResolve, Err: err}
	}

	var body []byte
	retrier := repeater.NewFixed(l.attempts, l.retryDelay)
	err = retrier.Do(ctx, func() error {
		if werr := l.limiter.Wait(ctx); werr != nil {
			return werr
		}
		data, ferr := l.fetch(ctx, target)
		if ferr != nil {
			return ferr
		}
		body = data
		return nil
	}, context.Canceled, context.DeadlineExceeded)
	if err != nil {
		return nil, &LoadError{ID: id, Stage: StageFetch, Err: err}
	}

	var feed domain.Feed
	if err := yaml.Unmarshal(body, &feed); err != nil {
		// mistyped fields leave the rest of the document decoded
		var te *yaml.TypeError
		if !errors.As(err, &te) || len(feed) == 0 {
			return nil, &LoadError{ID: id, Stage: StageDecode, Err: err}
		}
		lgr.Printf("[WARN] %s decoded partially: %v", id, err)
	}
	return feed, nil
}

// Resolve returns the absolute URL of id under the base URL.
// Absolute URLs and identifiers escaping the base are rejected.
func (l *Loader) Resolve(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.New("empty identifier")
	}
	ref, err := url.Parse(id)
	if err != nil {
		return "", fmt.Errorf("parse identifier: %w", err)
	}
	if ref.Scheme != "" || ref.Host != "" || strings.HasPrefix(ref.Path, "/") {
		return "", fmt.Errorf("identifier %q is not relative", id)
	}
	for _, seg := range strings.Split(ref.Path, "/") {
		if seg == ".." {
			return "", fmt.Errorf("identifier %q escapes base", id)
		}
	}

	resolved := l.base.ResolveReference(ref)
	if !strings.HasPrefix(path.Clean(resolved.Path)+"/", l.base.Path) {
		return "", fmt.Errorf("identifier %q escapes base", id)
	}
	return resolved.String(), nil
}

// fetch retrieves the raw document
func (l *Loader) fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	addRequestHeaders(req, l.userAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}
