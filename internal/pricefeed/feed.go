package pricefeed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

type Source string

const (
	SourceExternal  Source = "external"
	SourceSimulated Source = "simulated"
)

// Sample is one price observation. Immutable once taken.
type Sample struct {
	Price     decimal.Decimal
	Source    Source
	SampledAt time.Time
}

// Feed fetches a reference price for one asset/currency pair from a
// CoinGecko-style simple price endpoint and falls back to its Walk on any failure.
type Feed struct {
	HTTP     *http.Client
	Logger   *zap.Logger
	Endpoint string
	Asset    string
	Currency string
	Timeout  time.Duration
	Walk     *Walk

	// SeedFromExternal keeps the walk anchored to the last good external price.
	SeedFromExternal bool

	now func() time.Time
}

// Sample never fails: a single bounded attempt at the external source, then the walk.
func (f *Feed) Sample(ctx context.Context) Sample {
	now := time.Now
	if f.now != nil {
		now = f.now
	}
	logger := f.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if f.Walk == nil {
		f.Walk = NewWalk(DefaultWalkConfig(), nil)
	}

	price, err := f.fetch(ctx)
	if err == nil {
		logger.Info("price sample",
			zap.String("source", string(SourceExternal)),
			zap.String("asset", f.Asset),
			zap.String("price", price.String()),
		)
		if f.SeedFromExternal {
			f.Walk.Seed(price)
		}
		return Sample{Price: price, Source: SourceExternal, SampledAt: now().UTC()}
	}

	sim := f.Walk.Next()
	logger.Warn("price feed unavailable, using simulated price",
		zap.String("asset", f.Asset),
		zap.String("price", sim.String()),
		zap.Error(err),
	)
	return Sample{Price: sim, Source: SourceSimulated, SampledAt: now().UTC()}
}

func (f *Feed) fetch(ctx context.Context) (decimal.Decimal, error) {
	endpoint := strings.TrimSpace(f.Endpoint)
	if endpoint == "" {
		return decimal.Zero, errors.New("missing endpoint")
	}
	asset := strings.TrimSpace(f.Asset)
	currency := strings.TrimSpace(f.Currency)
	if asset == "" || currency == "" {
		return decimal.Zero, errors.New("missing asset or currency")
	}
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	u, err := url.Parse(endpoint)
	if err != nil {
		return decimal.Zero, err
	}
	q := u.Query()
	q.Set("ids", asset)
	q.Set("vs_currencies", currency)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return decimal.Zero, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := f.httpClient().Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return decimal.Zero, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decimal.Zero, fmt.Errorf("http %d", resp.StatusCode)
	}
	return parsePrice(body, asset, currency)
}

func parsePrice(body []byte, asset, currency string) (decimal.Decimal, error) {
	if !gjson.ValidBytes(body) {
		return decimal.Zero, errors.New("malformed payload")
	}
	res := gjson.GetBytes(body, gjson.Escape(asset)+"."+gjson.Escape(currency))
	if res.Type != gjson.Number {
		return decimal.Zero, fmt.Errorf("no numeric price for %s/%s", asset, currency)
	}
	price, err := decimal.NewFromString(res.Raw)
	if err != nil {
		return decimal.Zero, err
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("invalid price %s", price)
	}
	return price, nil
}

func (f *Feed) httpClient() *http.Client {
	if f.HTTP != nil {
		return f.HTTP
	}
	return &http.Client{Timeout: 10 * time.Second}
}
