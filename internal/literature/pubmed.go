package literature

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/one2ten/stetho-agent/pkg/retry"
)

// SourcePubMed identifies the NCBI PubMed provider.
const SourcePubMed = "pubmed"

var registry = map[string]func(*Config) Provider{
	SourcePubMed: func(cfg *Config) Provider { return NewPubMed(cfg) },
}

// PubMed searches NCBI E-utilities with an ESearch for article ids followed
// by an ESummary for their metadata.
type PubMed struct {
	baseURL     string
	apiKey      string
	minYear     int
	sort        string
	urlTemplate string
	client      *http.Client
	limiter     *rate.Limiter
	policy      retry.Policy
}

// NewPubMed creates a PubMed provider from cfg.
func NewPubMed(cfg *Config) *PubMed {
	return &PubMed{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		minYear:     cfg.MinYear,
		sort:        cfg.Sort,
		urlTemplate: cfg.URLTemplate,
		client:      &http.Client{Timeout: cfg.TimeoutDuration()},
		limiter:     rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		policy:      retry.Exponential(cfg.MaxRetries),
	}
}

func (p *PubMed) Name() string { return SourcePubMed }

type esearchResponse struct {
	Result struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type esummaryArticle struct {
	Title   string `json:"title"`
	Source  string `json:"source"`
	PubDate string `json:"pubdate"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	ELocationID string `json:"elocationid"`
}

type esummaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

// Search returns up to maxResults references ranked in ESearch order.
// Relevance decreases linearly from 1.0 for the first hit.
func (p *PubMed) Search(ctx context.Context, query string, maxResults int) ([]Reference, error) {
	var search esearchResponse
	err := p.get(ctx, "esearch.fcgi", url.Values{
		"db":       {"pubmed"},
		"term":     {query},
		"retmode":  {"json"},
		"retmax":   {strconv.Itoa(maxResults)},
		"sort":     {p.sort},
		"mindate":  {strconv.Itoa(p.minYear)},
		"datetype": {"pdat"},
	}, &search)
	if err != nil {
		return nil, fmt.Errorf("esearch: %w", err)
	}

	ids := search.Result.IDList
	if len(ids) == 0 {
		return []Reference{}, nil
	}

	var summary esummaryResponse
	err = p.get(ctx, "esummary.fcgi", url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(ids, ",")},
		"retmode": {"json"},
	}, &summary)
	if err != nil {
		return nil, fmt.Errorf("esummary: %w", err)
	}

	refs := make([]Reference, 0, len(ids))
	for i, id := range ids {
		raw, ok := summary.Result[id]
		if !ok {
			continue
		}

		var article esummaryArticle
		if err := json.Unmarshal(raw, &article); err != nil {
			continue
		}

		refs = append(refs, p.reference(id, article, i, len(ids)))
	}

	return refs, nil
}

func (p *PubMed) reference(id string, a esummaryArticle, rank, total int) Reference {
	authors := make([]string, 0, len(a.Authors))
	for _, au := range a.Authors {
		if au.Name != "" {
			authors = append(authors, au.Name)
		}
	}

	var doi string
	if rest, ok := strings.CutPrefix(a.ELocationID, "doi:"); ok {
		doi = strings.TrimSpace(rest)
	}

	var year string
	if fields := strings.Fields(a.PubDate); len(fields) > 0 {
		year = fields[0]
	}

	return Reference{
		Source:    SourcePubMed,
		SourceID:  id,
		Title:     a.Title,
		Authors:   authors,
		Journal:   a.Source,
		Year:      year,
		DOI:       doi,
		URL:       strings.ReplaceAll(p.urlTemplate, "{id}", id),
		Relevance: relevance(rank, total),
	}
}

func relevance(rank, total int) float64 {
	score := 1.0 - float64(rank)/float64(max(total, 1))*0.5
	return math.Round(score*100) / 100
}

func (p *PubMed) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	if p.apiKey != "" {
		params.Set("api_key", p.apiKey)
	}
	target := p.baseURL + "/" + endpoint + "?" + params.Encode()

	return p.policy.Do(ctx, func(attempt int) error {
		if err := p.limiter.Wait(ctx); err != nil {
			return retry.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return retry.Permanent(err)
		}

		resp, err := p.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("unexpected status %d", resp.StatusCode)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return retry.Permanent(err)
			}
			return err
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	})
}
