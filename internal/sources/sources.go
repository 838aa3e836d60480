// Package sources implements the upstream data collaborators: market
// quotes, news feeds, and social search. Every source converts its internal
// failures into ErrNoData at the boundary so the pipeline can treat any
// upstream problem as an absent signal instead of an exception.
package sources

import (
	"context"
	"errors"

	"github.com/finwatch/sentinel/internal/models"
)

// ErrNoData signals that an upstream source produced nothing usable for the
// request: timeout, empty response, or missing credentials. It is never
// fatal; the affected branch simply carries no signal this cycle.
var ErrNoData = errors.New("no data available")

// MarketDataSource returns the latest price/volume observation for an
// entity, or ErrNoData.
type MarketDataSource interface {
	Latest(ctx context.Context, symbol string) (*models.Quote, error)
}

// TextDataSource searches one discussion or news source for a keyword. An
// empty result with a nil error is a valid "nothing matched" outcome;
// ErrNoData means the source itself was unreachable or unconfigured.
type TextDataSource interface {
	Name() string
	Search(ctx context.Context, keyword string) ([]models.TextItem, error)
}
