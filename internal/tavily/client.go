package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config holds Tavily search configuration.
type Config struct {
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// MarketData is the average-salary enrichment attached to predictions.
type MarketData struct {
	AverageSalary float64 `json:"average_salary"`
	Source        string  `json:"source"`
}

// Client queries the Tavily search API for market salary figures, with a
// per-query TTL cache.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cacheTTL   time.Duration
	cache      sync.Map // map[string]cacheEntry
}

type cacheEntry struct {
	at   time.Time
	data MarketData
}

// ErrDisabled is returned when no API key is configured.
var ErrDisabled = errors.New("tavily client disabled")

// NewClient constructs a Tavily client if the configuration is valid.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrDisabled
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = "https://api.tavily.com"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		cacheTTL:   ttl,
	}, nil
}

// Enabled reports whether the client can make outbound calls.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// AverageSalary searches for the average salary of a role in a location.
func (c *Client) AverageSalary(ctx context.Context, role, location string) (MarketData, error) {
	if c == nil || !c.Enabled() {
		return MarketData{}, ErrDisabled
	}

	key := strings.ToLower(strings.TrimSpace(role)) + "|" + strings.ToLower(strings.TrimSpace(location))
	if entry, ok := c.cache.Load(key); ok {
		cached := entry.(cacheEntry)
		if time.Since(cached.at) < c.cacheTTL {
			return cached.data, nil
		}
		c.cache.Delete(key)
	}

	data, err := c.performSearch(ctx, role, location)
	if err != nil {
		return MarketData{}, err
	}

	c.cache.Store(key, cacheEntry{at: time.Now(), data: data})
	return data, nil
}

func (c *Client) performSearch(ctx context.Context, role, location string) (MarketData, error) {
	payload := map[string]any{
		"api_key":        c.apiKey,
		"query":          fmt.Sprintf("average salary for %s in %s", role, location),
		"include_answer": true,
		"max_results":    3,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return MarketData{}, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return MarketData{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return MarketData{}, fmt.Errorf("tavily request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return MarketData{}, fmt.Errorf("tavily status %d", resp.StatusCode)
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return MarketData{}, fmt.Errorf("decode tavily response: %w", err)
	}

	if avg, ok := ExtractSalary(decoded.Answer); ok {
		return MarketData{AverageSalary: avg, Source: firstSource(decoded)}, nil
	}
	for _, result := range decoded.Results {
		if avg, ok := ExtractSalary(result.Content); ok {
			return MarketData{AverageSalary: avg, Source: result.URL}, nil
		}
	}
	return MarketData{}, errors.New("no salary figure in search results")
}

type searchResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

func firstSource(resp searchResponse) string {
	if len(resp.Results) > 0 && strings.TrimSpace(resp.Results[0].URL) != "" {
		return resp.Results[0].URL
	}
	return "tavily"
}

var salaryRe = regexp.MustCompile(`\$\s?([0-9]{1,3}(?:,[0-9]{3})+|[0-9]{4,7}|[0-9]{2,3}(?:\.[0-9])?[kK])`)

// ExtractSalary pulls the first dollar amount out of free text. Figures below
// a plausible annual salary floor are rejected.
func ExtractSalary(text string) (float64, bool) {
	match := salaryRe.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}
	raw := strings.ReplaceAll(match[1], ",", "")
	multiplier := 1.0
	if strings.HasSuffix(raw, "k") || strings.HasSuffix(raw, "K") {
		raw = raw[:len(raw)-1]
		multiplier = 1000
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	value *= multiplier
	if value < 10000 {
		return 0, false
	}
	return value, true
}
