// Package literature searches medical literature sources and formats the
// references for prompts and display.
package literature

import (
	"cmp"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/one2ten/stetho-agent/pkg/cache"
)

// ErrSearchFailed indicates that no active source returned results.
var ErrSearchFailed = errors.New("literature search failed")

// Reference is a single article, normalized across sources.
type Reference struct {
	Source    string   `json:"source"`
	SourceID  string   `json:"source_id"`
	Title     string   `json:"title"`
	Authors   []string `json:"authors"`
	Journal   string   `json:"journal"`
	Year      string   `json:"year"`
	DOI       string   `json:"doi,omitempty"`
	URL       string   `json:"url"`
	Relevance float64  `json:"relevance_score"`
}

// Result aggregates the references returned by every active source.
type Result struct {
	Query        string      `json:"query"`
	TotalCount   int         `json:"total_count"`
	References   []Reference `json:"references"`
	SourcesUsed  []string    `json:"sources_used"`
	Successful   bool        `json:"search_successful"`
	ErrorMessage string      `json:"error_message,omitempty"`
}

// Failed returns a result recording a search that produced nothing.
func Failed(query string, err error) *Result {
	r := &Result{
		Query:       query,
		References:  []Reference{},
		SourcesUsed: []string{},
	}
	if err != nil {
		r.ErrorMessage = err.Error()
	}
	return r
}

// Provider searches a single literature source.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]Reference, error)
}

// Client fans a query out to its providers and caches successful results.
type Client struct {
	providers  []Provider
	maxResults int
	cache      cache.System
	ttl        time.Duration
	logger     *slog.Logger
}

// New creates a client. When no providers are passed, providers are built
// from cfg.Sources. store may be nil to disable caching.
func New(cfg *Config, store cache.System, logger *slog.Logger, providers ...Provider) *Client {
	if len(providers) == 0 {
		for _, name := range cfg.Sources {
			if factory, ok := registry[name]; ok {
				providers = append(providers, factory(cfg))
			}
		}
	}

	return &Client{
		providers:  providers,
		maxResults: cfg.MaxResults,
		cache:      store,
		ttl:        cfg.CacheTTLDuration(),
		logger:     logger.With("system", "literature"),
	}
}

// Sources returns the names of the active providers.
func (c *Client) Sources() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// Search queries every provider and merges the references by descending
// relevance. It returns a non-nil Result in every case; the error is
// ErrSearchFailed when no provider succeeded.
func (c *Client) Search(ctx context.Context, query string) (*Result, error) {
	key := c.cacheKey(query)
	if cached, ok := c.lookup(ctx, key); ok {
		c.logger.DebugContext(ctx, "literature cache hit", "query", query)
		return cached, nil
	}

	result := &Result{
		Query:       query,
		References:  []Reference{},
		SourcesUsed: []string{},
	}

	var errs []string
	for _, p := range c.providers {
		refs, err := p.Search(ctx, query, c.maxResults)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s search failed: %v", p.Name(), err))
			c.logger.WarnContext(ctx, "literature source failed", "source", p.Name(), "error", err)
			continue
		}
		result.References = append(result.References, refs...)
		result.SourcesUsed = append(result.SourcesUsed, p.Name())
	}

	slices.SortStableFunc(result.References, func(a, b Reference) int {
		return cmp.Compare(b.Relevance, a.Relevance)
	})

	result.TotalCount = len(result.References)
	result.Successful = len(result.SourcesUsed) > 0
	result.ErrorMessage = strings.Join(errs, "; ")

	if !result.Successful {
		if len(c.providers) == 0 {
			result.ErrorMessage = "no literature sources configured"
		}
		return result, fmt.Errorf("%w: %s", ErrSearchFailed, result.ErrorMessage)
	}

	c.store(ctx, key, result)
	c.logger.InfoContext(ctx, "literature search complete",
		"query", query,
		"total_count", result.TotalCount,
		"sources", result.SourcesUsed,
	)
	return result, nil
}

func (c *Client) cacheKey(query string) string {
	sum := sha256.Sum256([]byte(strings.Join(c.Sources(), ",") + "|" + strconv.Itoa(c.maxResults) + "|" + query))
	return "literature:" + hex.EncodeToString(sum[:])
}

func (c *Client) lookup(ctx context.Context, key string) (*Result, bool) {
	if c.cache == nil {
		return nil, false
	}

	data, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.WarnContext(ctx, "literature cache read failed", "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, false
	}
	return &r, true
}

func (c *Client) store(ctx context.Context, key string, r *Result) {
	if c.cache == nil || c.ttl <= 0 {
		return
	}

	data, err := json.Marshal(r)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.WarnContext(ctx, "literature cache write failed", "error", err)
	}
}
