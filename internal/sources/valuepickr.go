package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/finwatch/sentinel/internal/models"
)

// ValuePickrSource searches the ValuePickr investing forum (a Discourse
// instance) for active threads mentioning a keyword.
type ValuePickrSource struct {
	baseURL        string
	userAgent      string
	maxItems       int
	httpClient     *http.Client
	maxRetries     int
	retryDelayBase time.Duration
}

// NewValuePickrSource creates a forum search source.
func NewValuePickrSource(baseURL, userAgent string, maxItems int, timeout time.Duration, maxRetries int, retryDelayBase time.Duration) *ValuePickrSource {
	if maxItems <= 0 {
		maxItems = 10
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}
	return &ValuePickrSource{
		baseURL:        strings.TrimRight(baseURL, "/"),
		userAgent:      userAgent,
		maxItems:       maxItems,
		httpClient:     &http.Client{Timeout: timeout},
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}
}

// Name returns the provenance tag used on stored samples.
func (v *ValuePickrSource) Name() string {
	return "ValuePickr Forum"
}

type discourseSearchResult struct {
	Topics []struct {
		ID    int64  `json:"id"`
		Title string `json:"title"`
		Slug  string `json:"slug"`
	} `json:"topics"`
}

// Search returns active threads whose title mentions the keyword. The
// matching is strict and case-insensitive on the cleaned term, mirroring
// the Reddit source.
func (v *ValuePickrSource) Search(ctx context.Context, keyword string) ([]models.TextItem, error) {
	// "RELIANCE.NS" → "RELIANCE"
	cleanTerm := strings.TrimSpace(strings.SplitN(keyword, ".", 2)[0])
	if cleanTerm == "" {
		return nil, fmt.Errorf("valuepickr search: empty keyword: %w", ErrNoData)
	}

	q := url.Values{}
	q.Set("term", cleanTerm)
	q.Set("include_blurbs", "true")

	resp, err := v.doRequest(ctx, v.baseURL+"/search/query.json?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("valuepickr search %q: %w", cleanTerm, ErrNoData)
	}
	defer resp.Body.Close()

	var result discourseSearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("valuepickr search %q: %w", cleanTerm, ErrNoData)
	}

	termLower := strings.ToLower(cleanTerm)
	now := time.Now()
	var items []models.TextItem
	for _, topic := range result.Topics {
		if len(items) >= v.maxItems {
			break
		}
		if !strings.Contains(strings.ToLower(topic.Title), termLower) {
			continue
		}
		items = append(items, models.TextItem{
			Source:    v.Name(),
			Title:     topic.Title,
			URL:       fmt.Sprintf("%s/t/%s/%d", v.baseURL, topic.Slug, topic.ID),
			Timestamp: now,
		})
	}
	return items, nil
}

func (v *ValuePickrSource) doRequest(ctx context.Context, urlStr string) (*http.Response, error) {
	var lastErr error
	for i := 0; i < v.maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", v.userAgent)

		resp, err := v.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else if resp.StatusCode >= 400 {
			resp.Body.Close()
			lastErr = fmt.Errorf("unexpected status: %d", resp.StatusCode)
		} else {
			return resp, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(v.retryDelayBase * time.Duration(i+1)):
		}
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
