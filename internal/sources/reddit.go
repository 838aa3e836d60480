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

// RedditSource searches Reddit's public JSON endpoint for recent posts
// mentioning a keyword.
type RedditSource struct {
	baseURL        string
	userAgent      string
	limit          int
	httpClient     *http.Client
	maxRetries     int
	retryDelayBase time.Duration
}

// NewRedditSource creates a Reddit search source.
func NewRedditSource(baseURL, userAgent string, limit int, timeout time.Duration, maxRetries int, retryDelayBase time.Duration) *RedditSource {
	if limit <= 0 {
		limit = 15
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}
	return &RedditSource{
		baseURL:        strings.TrimRight(baseURL, "/"),
		userAgent:      userAgent,
		limit:          limit,
		httpClient:     &http.Client{Timeout: timeout},
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}
}

// Name returns the provenance tag used on stored samples. It is a single
// stable tag so social items can be excluded from news views.
func (r *RedditSource) Name() string {
	return "Reddit"
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title       string  `json:"title"`
				Subreddit   string  `json:"subreddit"`
				Permalink   string  `json:"permalink"`
				Score       int     `json:"score"`
				NumComments int     `json:"num_comments"`
				CreatedUTC  float64 `json:"created_utc"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Search returns recent posts whose title mentions the keyword. Posts from
// unrelated subreddits are filtered out; a clean term is matched
// case-insensitively so "RELIANCE.NS" still finds "Reliance".
func (r *RedditSource) Search(ctx context.Context, keyword string) ([]models.TextItem, error) {
	// "RELIANCE.NS" → "RELIANCE"
	cleanTerm := strings.TrimSpace(strings.SplitN(keyword, ".", 2)[0])
	if cleanTerm == "" {
		return nil, fmt.Errorf("reddit search: empty keyword: %w", ErrNoData)
	}

	q := url.Values{}
	q.Set("q", cleanTerm)
	q.Set("sort", "new")
	q.Set("t", "day")
	q.Set("limit", fmt.Sprintf("%d", r.limit))
	q.Set("raw_json", "1")

	resp, err := r.doRequest(ctx, r.baseURL+"/search.json?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("reddit search %q: %w", cleanTerm, ErrNoData)
	}
	defer resp.Body.Close()

	var listing redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("reddit search %q: %w", cleanTerm, ErrNoData)
	}

	termLower := strings.ToLower(cleanTerm)
	var items []models.TextItem
	seen := make(map[string]bool)
	for _, child := range listing.Data.Children {
		post := child.Data
		if !strings.Contains(strings.ToLower(post.Title), termLower) {
			continue
		}
		if !relevantSubreddit(post.Subreddit) {
			continue
		}
		if post.Permalink == "" || seen[post.Permalink] {
			continue
		}
		seen[post.Permalink] = true

		items = append(items, models.TextItem{
			Source:     r.Name(),
			Title:      post.Title,
			URL:        "https://www.reddit.com" + post.Permalink,
			Engagement: post.Score + post.NumComments,
			Timestamp:  time.Unix(int64(post.CreatedUTC), 0),
		})
	}
	return items, nil
}

var marketSubreddits = map[string]bool{
	"IndianStreetBets":  true,
	"DalalStreetTalks":  true,
	"IndianStockMarket": true,
	"IndiaInvestments":  true,
	"stocks":            true,
}

func relevantSubreddit(name string) bool {
	if marketSubreddits[name] {
		return true
	}
	lower := strings.ToLower(name)
	return strings.Contains(lower, "stock") || strings.Contains(lower, "invest")
}

// doRequest performs a GET with linear-backoff retry on transport errors
// and server-side failures.
func (r *RedditSource) doRequest(ctx context.Context, urlStr string) (*http.Response, error) {
	var lastErr error
	for i := 0; i < r.maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", r.userAgent)

		resp, err := r.httpClient.Do(req)
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
		case <-time.After(r.retryDelayBase * time.Duration(i+1)):
		}
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
