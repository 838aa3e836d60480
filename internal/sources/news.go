package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/finwatch/sentinel/internal/models"
)

// NewsSource searches Google News RSS for a keyword, once per configured
// site scope plus one unscoped query. Items are deduplicated by link within
// a batch, which keeps the stored text samples free of cross-feed repeats.
type NewsSource struct {
	baseURL      string
	sites        []string
	language     string
	country      string
	itemsPerFeed int
	parser       *gofeed.Parser
}

// NewNewsSource creates a news source. sites holds optional site filters
// ("moneycontrol.com") that narrow dedicated queries; the unscoped query
// always runs.
func NewNewsSource(sites []string, language, country string, itemsPerFeed int) *NewsSource {
	if itemsPerFeed <= 0 {
		itemsPerFeed = 3
	}
	return &NewsSource{
		baseURL:      "https://news.google.com/rss/search",
		sites:        sites,
		language:     language,
		country:      country,
		itemsPerFeed: itemsPerFeed,
		parser:       gofeed.NewParser(),
	}
}

// Name returns the provenance family tag for this source.
func (n *NewsSource) Name() string {
	return "News"
}

func (n *NewsSource) feedURL(query string) string {
	v := url.Values{}
	v.Set("q", query)
	v.Set("hl", n.language)
	v.Set("gl", n.country)
	v.Set("ceid", fmt.Sprintf("%s:%s", n.country, "en"))
	return n.baseURL + "?" + v.Encode()
}

// Search fetches every configured feed for keyword. Feeds that fail are
// skipped; ErrNoData is returned only when no feed could be fetched at all.
func (n *NewsSource) Search(ctx context.Context, keyword string) ([]models.TextItem, error) {
	queries := []string{keyword}
	for _, site := range n.sites {
		queries = append(queries, keyword+" site:"+site)
	}

	var items []models.TextItem
	seen := make(map[string]bool)
	fetched := 0

	for _, q := range queries {
		feed, err := n.parser.ParseURLWithContext(n.feedURL(q), ctx)
		if err != nil {
			continue
		}
		fetched++
		for i, entry := range feed.Items {
			if i >= n.itemsPerFeed {
				break
			}
			if entry.Link == "" || seen[entry.Link] {
				continue
			}
			seen[entry.Link] = true

			ts := time.Now()
			if entry.PublishedParsed != nil {
				ts = *entry.PublishedParsed
			}
			items = append(items, models.TextItem{
				Source:    sourceNameForLink(entry.Link),
				Title:     entry.Title,
				URL:       entry.Link,
				Timestamp: ts,
			})
		}
	}

	if fetched == 0 {
		return nil, fmt.Errorf("news search %q: %w", keyword, ErrNoData)
	}
	return items, nil
}

// sourceNameForLink maps an article link to a display source tag.
func sourceNameForLink(link string) string {
	switch {
	case strings.Contains(link, "moneycontrol"):
		return "MoneyControl"
	case strings.Contains(link, "livemint"):
		return "LiveMint"
	case strings.Contains(link, "economictimes"):
		return "Economic Times"
	case strings.Contains(link, "yahoo"):
		return "Yahoo Finance"
	default:
		return "Google News"
	}
}
