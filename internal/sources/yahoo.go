package sources

import (
	"context"
	"fmt"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/equity"
	"github.com/piquette/finance-go/quote"

	"github.com/finwatch/sentinel/internal/models"
)

// YahooClient fetches quotes, historical bars, and fundamentals from Yahoo
// Finance. The underlying client has no context support, so every call is
// run on a goroutine and raced against the caller's deadline.
type YahooClient struct {
	timeout time.Duration
}

// NewYahooClient creates a Yahoo Finance client with a per-call timeout
// used when the caller's context carries no deadline of its own.
func NewYahooClient(timeout time.Duration) *YahooClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &YahooClient{timeout: timeout}
}

func callWithDeadline[T any](ctx context.Context, timeout time.Duration, call func() (T, error)) (T, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type result struct {
		value T
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := call()
		ch <- result{v, err}
	}()

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-ch:
		return r.value, r.err
	}
}

// Latest returns the most recent regular-market quote for symbol.
func (c *YahooClient) Latest(ctx context.Context, symbol string) (*models.Quote, error) {
	q, err := callWithDeadline(ctx, c.timeout, func() (*finance.Quote, error) {
		return quote.Get(symbol)
	})
	if err != nil || q == nil {
		return nil, fmt.Errorf("quote %s: %w", symbol, ErrNoData)
	}

	ts := time.Unix(int64(q.RegularMarketTime), 0)
	if q.RegularMarketTime == 0 {
		ts = time.Now()
	}
	return &models.Quote{
		Symbol:    symbol,
		Price:     q.RegularMarketPrice,
		Volume:    int64(q.RegularMarketVolume),
		Timestamp: ts,
	}, nil
}

// History returns OHLC bars covering the lookback period ending now. Bar
// granularity follows the lookback the same way the charting views do:
// intraday bars for short windows, daily bars otherwise.
func (c *YahooClient) History(ctx context.Context, symbol string, lookback time.Duration) ([]models.OHLCBar, error) {
	interval := datetime.OneDay
	switch {
	case lookback <= 24*time.Hour:
		interval = datetime.FiveMins
	case lookback <= 5*24*time.Hour:
		interval = datetime.FifteenMins
	}

	end := time.Now()
	start := end.Add(-lookback)

	bars, err := callWithDeadline(ctx, c.timeout, func() ([]models.OHLCBar, error) {
		iter := chart.Get(&chart.Params{
			Symbol:   symbol,
			Interval: interval,
			Start:    datetime.New(&start),
			End:      datetime.New(&end),
		})
		var out []models.OHLCBar
		for iter.Next() {
			b := iter.Bar()
			open, _ := b.Open.Float64()
			high, _ := b.High.Float64()
			low, _ := b.Low.Float64()
			closePx, _ := b.Close.Float64()
			out = append(out, models.OHLCBar{
				Timestamp: time.Unix(int64(b.Timestamp), 0),
				Open:      open,
				High:      high,
				Low:       low,
				Close:     closePx,
				Volume:    int64(b.Volume),
			})
		}
		return out, iter.Err()
	})
	if err != nil || len(bars) == 0 {
		return nil, fmt.Errorf("history %s: %w", symbol, ErrNoData)
	}
	return bars, nil
}

// Fundamentals returns extended reference data for symbol. Yahoo reports
// missing numerics as zero; those become nil so "N/A" handling stays with
// the caller.
func (c *YahooClient) Fundamentals(ctx context.Context, symbol string) (*models.Fundamentals, error) {
	e, err := callWithDeadline(ctx, c.timeout, func() (*finance.Equity, error) {
		return equity.Get(symbol)
	})
	if err != nil || e == nil {
		return nil, fmt.Errorf("fundamentals %s: %w", symbol, ErrNoData)
	}

	name := e.LongName
	if name == "" {
		name = e.ShortName
	}
	return &models.Fundamentals{
		Symbol:           symbol,
		Name:             name,
		MarketCap:        optInt(e.MarketCap),
		TrailingPE:       optFloat(e.TrailingPE),
		ForwardPE:        optFloat(e.ForwardPE),
		EPS:              optFloat(e.EpsTrailingTwelveMonths),
		BookValue:        optFloat(e.BookValue),
		DividendRate:     optFloat(e.TrailingAnnualDividendRate),
		FiftyTwoWeekHigh: optFloat(e.FiftyTwoWeekHigh),
		FiftyTwoWeekLow:  optFloat(e.FiftyTwoWeekLow),
	}, nil
}

func optFloat(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}

func optInt(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}
