// Package scraper fetches a student's public credential page and extracts
// the student number (and, best effort, the full name) from its HTML.
//
// The fetch is the only unreliable collaborator in the redemption flow, so
// it carries the retry budget: a fixed per-attempt timeout and a bounded
// exponential backoff. Callers never retry on top of this.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"

	"github.com/classtrack/rollcall/internal/apperrors"
	"github.com/classtrack/rollcall/internal/logger"
)

const (
	defaultTimeout        = 10 * time.Second
	defaultMaxRetries     = 2
	defaultInitialBackoff = 1 * time.Second
	defaultUserAgent      = "rollcall-scraper/1.0"

	// Class of the element carrying the student number on the portal page
	defaultNumberSelector = ".student-number"
)

// Best effort selectors for the student's display name
var nameSelectors = []string{
	".student-name",
	".fullname",
	".nombre",
	"#student-name",
}

type Config struct {
	// Per attempt HTTP timeout
	Timeout time.Duration

	// Retries after the first attempt, exponential backoff between them
	MaxRetries     uint64
	InitialBackoff time.Duration

	UserAgent string

	// CSS selector of the student number element
	NumberSelector string
}

// Extracted identity as read from the portal page
type Extracted struct {
	StudentNumber string
	FullName      string
	SourceURL     string
}

type Client struct {
	rest           *resty.Client
	maxRetries     uint64
	initialBackoff time.Duration
	numberSelector string
	logger         logger.Logger
}

func NewClient(cfg Config, l logger.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.InitialBackoff == 0 {
		cfg.InitialBackoff = defaultInitialBackoff
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.NumberSelector == "" {
		cfg.NumberSelector = defaultNumberSelector
	}

	rest := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml")

	return &Client{
		rest:           rest,
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		numberSelector: cfg.NumberSelector,
		logger:         l,
	}
}

// ExtractStudent fetches the page and pulls the identity out of it.
// Network failures and 5xx responses are retried inside the backoff budget,
// a page that loads but has no student number is terminal.
func (c *Client) ExtractStudent(ctx context.Context, pageURL string) (Extracted, error) {
	html, err := c.fetch(ctx, pageURL)
	if err != nil {
		return Extracted{}, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Extracted{}, fmt.Errorf("error while parsing page html. Err: %w", err)
	}

	number := strings.TrimSpace(doc.Find(c.numberSelector).First().Text())
	if number == "" {
		c.logger.Warn("student number element missing or empty", "url", pageURL, "selector", c.numberSelector)
		return Extracted{}, apperrors.ErrStudentNumberNotFound
	}

	return Extracted{
		StudentNumber: number,
		FullName:      c.extractName(doc),
		SourceURL:     pageURL,
	}, nil
}

func (c *Client) fetch(ctx context.Context, pageURL string) (string, error) {
	var body string

	attempt := 0
	op := func() error {
		attempt++

		resp, err := c.rest.NewRequest().SetContext(ctx).Get(pageURL)
		if err != nil {
			c.logger.Warn("student page fetch failed", "url", pageURL, "attempt", attempt, "error", err.Error())
			return err
		}

		switch {
		case resp.StatusCode() == http.StatusOK:
			body = resp.String()
			return nil
		case resp.StatusCode() >= http.StatusInternalServerError:
			c.logger.Warn("student page fetch got server error", "url", pageURL, "attempt", attempt, "status", resp.StatusCode())
			return fmt.Errorf("http %d from student page", resp.StatusCode())
		default:
			// 3xx/4xx will not get better on retry
			return backoff.Permanent(fmt.Errorf("http %d from student page", resp.StatusCode()))
		}
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.initialBackoff
	eb.Multiplier = 2
	eb.RandomizationFactor = 0

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(eb, c.maxRetries), ctx))
	switch {
	case err == nil:
		return body, nil
	case errors.Is(err, context.DeadlineExceeded) || isTimeout(err):
		return "", fmt.Errorf("%w: %s", apperrors.ErrExtractTimeout, pageURL)
	default:
		return "", fmt.Errorf("error while fetching student page. Err: %w", err)
	}
}

func (c *Client) extractName(doc *goquery.Document) string {
	for _, selector := range nameSelectors {
		if name := strings.TrimSpace(doc.Find(selector).First().Text()); name != "" {
			return name
		}
	}

	return ""
}

func isTimeout(err error) bool {
	var timeoutErr interface{ Timeout() bool }
	return errors.As(err, &timeoutErr) && timeoutErr.Timeout()
}
