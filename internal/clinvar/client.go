package clinvar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// Client queries ClinVar through the NCBI E-utilities endpoints.
// Without an API key NCBI allows 3 requests per second, with a key 10.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter

	mu    sync.Mutex
	cache map[string]*Record
}

// NewClient creates a ClinVar client. apiKey may be empty.
func NewClient(apiKey string) *Client {
	interval := 340 * time.Millisecond
	if apiKey != "" {
		interval = 100 * time.Millisecond
	}

	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(interval), 1),
		cache:   make(map[string]*Record),
	}
}

// SetBaseURL overrides the E-utilities endpoint. Used in tests.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// Lookup searches ClinVar for a variant and returns its record, or
// nil, nil when ClinVar has no entry for it.
func (c *Client) Lookup(ctx context.Context, chrom string, pos int64, ref, alt string) (*Record, error) {
	cacheKey := fmt.Sprintf("%s:%d:%s:%s", chrom, pos, ref, alt)
	c.mu.Lock()
	if rec, ok := c.cache[cacheKey]; ok {
		c.mu.Unlock()
		return rec, nil
	}
	c.mu.Unlock()

	ids, err := c.search(ctx, buildQuery(chrom, pos))
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	rec, err := c.summary(ctx, ids[0])
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[cacheKey] = rec
	c.mu.Unlock()

	return rec, nil
}

// buildQuery builds an esearch term for a variant position.
// ClinVar indexes by GRCh38 chromosome position.
func buildQuery(chrom string, pos int64) string {
	chrom = strings.TrimPrefix(chrom, "chr")
	return fmt.Sprintf("%s[chr] AND %d[chrpos38]", chrom, pos)
}

func (c *Client) search(ctx context.Context, term string) ([]string, error) {
	params := url.Values{}
	params.Set("db", "clinvar")
	params.Set("term", term)
	params.Set("retmode", "json")
	params.Set("retmax", "10")
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}

	var result struct {
		ESearchResult struct {
			IDList []string `json:"idlist"`
		} `json:"esearchresult"`
	}
	if err := c.getJSON(ctx, "/esearch.fcgi", params, &result); err != nil {
		return nil, fmt.Errorf("clinvar search: %w", err)
	}

	return result.ESearchResult.IDList, nil
}

func (c *Client) summary(ctx context.Context, id string) (*Record, error) {
	params := url.Values{}
	params.Set("db", "clinvar")
	params.Set("id", id)
	params.Set("retmode", "json")
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}

	var env struct {
		Result map[string]json.RawMessage `json:"result"`
	}
	if err := c.getJSON(ctx, "/esummary.fcgi", params, &env); err != nil {
		return nil, fmt.Errorf("clinvar summary: %w", err)
	}

	raw, ok := env.Result[id]
	if !ok {
		return nil, fmt.Errorf("clinvar summary: no result for id %s", id)
	}

	var s summaryRecord
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode clinvar summary: %w", err)
	}

	rec := &Record{
		VariationID:          id,
		ClinicalSignificance: s.ClinicalSignificance.Description,
		ReviewStatus:         s.ReviewStatus,
		LastEvaluated:        s.ClinicalSignificance.LastEvaluated,
		SubmitterCount:       len(s.SupportingSubmissions.SCV),
		StarRating:           StarRatingFor(s.ReviewStatus),
	}
	if len(s.TraitSet) > 0 {
		rec.Condition = s.TraitSet[0].TraitName
	}

	return rec, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("api error %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// summaryRecord mirrors the subset of the esummary response we use.
type summaryRecord struct {
	ClinicalSignificance struct {
		Description   string `json:"description"`
		LastEvaluated string `json:"last_evaluated"`
	} `json:"clinical_significance"`
	ReviewStatus string `json:"review_status"`
	TraitSet     []struct {
		TraitName string `json:"trait_name"`
	} `json:"trait_set"`
	SupportingSubmissions struct {
		SCV []string `json:"scv"`
	} `json:"supporting_submissions"`
}
