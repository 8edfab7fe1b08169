// Package query is the data-source query capability: it fetches a
// source's payload over HTTP with bounded retry, caches the raw body,
// and runs it through normalization and schema validation. Filtering,
// sorting and pagination never hit this package; they operate on the
// batch it returns.
package query

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"catex/internal/article"
	"catex/internal/cache"
	"catex/internal/config"
	"catex/internal/schema"
	"catex/internal/telemetry"
)

// maxBodySize bounds how much of a response is read.
const maxBodySize = 8 << 20

// Result is what a load yields. A non-nil Err with non-empty Articles is
// the stale-while-error case: the fetch failed but cached data exists.
type Result struct {
	Articles  []article.Article
	Err       error
	UpdatedAt time.Time
	Stale     bool
	FromCache bool
}

// Client fetches and caches source payloads.
type Client struct {
	http       *http.Client
	cache      *cache.Cache
	normalizer *article.Normalizer
	validator  *schema.Validator
	reporter   telemetry.Reporter
	feedParser *gofeed.Parser
	staleAfter time.Duration
	retries    int
	now        func() time.Time
}

// Options configures a Client. Cache may be nil (no persistence,
// everything is a cold fetch).
type Options struct {
	Cache      *cache.Cache
	Validator  *schema.Validator
	Reporter   telemetry.Reporter
	StaleAfter time.Duration
	Retries    int
	HTTPClient *http.Client
}

func New(opts Options) *Client {
	reporter := opts.Reporter
	if reporter == nil {
		reporter = telemetry.Nop{}
	}
	validator := opts.Validator
	if validator == nil {
		validator = schema.NewFailOpen(reporter)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	staleAfter := opts.StaleAfter
	if staleAfter <= 0 {
		staleAfter = time.Minute
	}
	return &Client{
		http:       httpClient,
		cache:      opts.Cache,
		normalizer: article.NewNormalizer(reporter),
		validator:  validator,
		reporter:   reporter,
		feedParser: gofeed.NewParser(),
		staleAfter: staleAfter,
		retries:    opts.Retries,
		now:        time.Now,
	}
}

// Load returns the batch for a source, serving the cached payload while
// it is fresh and fetching otherwise.
func (c *Client) Load(ctx context.Context, src config.Source) Result {
	if body, at, err := c.cached(src.ID); err == nil {
		if c.now().Sub(at) <= c.staleAfter {
			return c.process(src, body, at, Result{FromCache: true})
		}
	}
	return c.fetch(ctx, src)
}

// Refresh always fetches, bypassing freshness.
func (c *Client) Refresh(ctx context.Context, src config.Source) Result {
	return c.fetch(ctx, src)
}

func (c *Client) fetch(ctx context.Context, src config.Source) Result {
	body, err := c.fetchBody(ctx, src.URL)
	if err != nil {
		c.reporter.Report(telemetry.EventFetchError, map[string]any{
			"source":  src.URL,
			"message": err.Error(),
		})
		// Stale-while-error: a failed refresh keeps showing cached data.
		if cached, at, cacheErr := c.cached(src.ID); cacheErr == nil {
			return c.process(src, cached, at, Result{Err: err, Stale: true, FromCache: true})
		}
		return Result{Err: err}
	}

	at := c.now()
	if c.cache != nil {
		// Best-effort: a cache write failure must not fail the load.
		_ = c.cache.PutPayload(src.ID, body, at)
	}
	return c.process(src, body, at, Result{})
}

func (c *Client) cached(sourceID string) ([]byte, time.Time, error) {
	if c.cache == nil {
		return nil, time.Time{}, cache.ErrNoPayload
	}
	return c.cache.GetPayload(sourceID)
}

// process runs a raw body through the source's normalization strategy and
// the schema validator, marking staleness from the fetch time.
func (c *Client) process(src config.Source, body []byte, at time.Time, base Result) Result {
	res := base
	res.UpdatedAt = at
	if !at.IsZero() && c.now().Sub(at) > c.staleAfter {
		res.Stale = true
	}

	records, err := c.decode(src, body)
	if err != nil {
		if res.Err == nil {
			res.Err = err
		}
		return res
	}
	res.Articles, _ = c.validator.Validate(records, src.URL)
	return res
}

func (c *Client) decode(src config.Source, body []byte) ([]article.Article, error) {
	if src.Type == "rss" {
		feed, err := c.feedParser.Parse(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("parsing feed %s: %w", src.ID, err)
		}
		records := make([]article.Article, 0, len(feed.Items))
		for _, item := range feed.Items {
			records = append(records, article.AdaptFeedItem(item, src.Label))
		}
		return records, nil
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding payload %s: %w", src.ID, err)
	}
	return c.normalizer.Normalize(payload), nil
}

// fetchBody GETs a URL, retrying transient failures with a short backoff.
func (c *Client) fetchBody(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * 250 * time.Millisecond):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		body, err := c.get(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json, application/rss+xml, application/atom+xml, */*")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	return body, nil
}
