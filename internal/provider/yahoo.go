// Package provider fetches raw OHLCV history from external sources. Rows
// come back as loosely typed RawBar values; callers run them through
// models.Normalize before analysis.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"stocklab/internal/errors"
	"stocklab/internal/models"
	"stocklab/internal/resilience"
)

// HistoryProvider fetches raw history rows for a symbol and timeframe.
type HistoryProvider interface {
	FetchHistory(ctx context.Context, symbol, interval, rng string) ([]models.RawBar, error)
}

// YahooProvider implements HistoryProvider using the Yahoo Finance chart API.
type YahooProvider struct {
	baseURL    string
	client     *http.Client
	limiter    *rate.Limiter
	breaker    *resilience.Breaker
	maxRetries int
	logger     zerolog.Logger
}

// Option configures a YahooProvider.
type Option func(*YahooProvider)

// WithBaseURL overrides the API base URL. Used in tests.
func WithBaseURL(u string) Option {
	return func(p *YahooProvider) { p.baseURL = u }
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *YahooProvider) { p.client.Timeout = d }
}

// WithMaxRetries sets the retry attempt count for transient failures.
func WithMaxRetries(n int) Option {
	return func(p *YahooProvider) { p.maxRetries = n }
}

// WithRateLimit sets the outbound request rate.
func WithRateLimit(rps float64) Option {
	return func(p *YahooProvider) { p.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// WithLogger sets the provider logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *YahooProvider) { p.logger = logger }
}

// WithBreaker replaces the default circuit breaker. Used in tests.
func WithBreaker(b *resilience.Breaker) Option {
	return func(p *YahooProvider) { p.breaker = b }
}

// NewYahooProvider creates a new Yahoo Finance provider.
func NewYahooProvider(opts ...Option) *YahooProvider {
	p := &YahooProvider{
		baseURL:    "https://query1.finance.yahoo.com",
		client:     &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(2), 1),
		breaker:    resilience.NewBreaker("yahoo", resilience.DefaultSettings()),
		maxRetries: 3,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// yahooChart is the response structure from the Yahoo Finance chart API.
// Null entries mark holidays and partial rows, so the numeric fields are
// pointers rather than plain floats.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchHistory fetches raw bars for the given symbol. interval is a Yahoo
// interval string ("1d", "1wk", "1mo") and rng a range string ("1y", "2y").
func (p *YahooProvider) FetchHistory(ctx context.Context, symbol, interval, rng string) ([]models.RawBar, error) {
	var bars []models.RawBar

	operation := func() error {
		if err := p.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		err := p.breaker.Do(ctx, func() error {
			fetched, err := p.fetchChart(ctx, symbol, interval, rng)
			if err != nil {
				return err
			}
			bars = fetched
			return nil
		})
		if err != nil {
			// An open circuit will reject every attempt until the
			// cooldown passes, so retrying is pointless.
			if errors.Is(err, errors.ErrDataNotFound) || errors.Is(err, resilience.ErrOpen) {
				return backoff.Permanent(err)
			}
			p.logger.Warn().Err(err).Str("symbol", symbol).Msg("history fetch failed, retrying")
			return err
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(p.maxRetries)),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, errors.NewDataError("yahoo", symbol, "fetch history", err)
	}

	p.logger.Debug().
		Str("symbol", symbol).
		Str("interval", interval).
		Int("rows", len(bars)).
		Msg("history fetched")

	return bars, nil
}

func (p *YahooProvider) fetchChart(ctx context.Context, symbol, interval, rng string) ([]models.RawBar, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		p.baseURL, url.PathEscape(symbol), url.QueryEscape(interval), url.QueryEscape(rng))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("yahoo: %s: %w", symbol, errors.ErrDataNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo: status %d", resp.StatusCode)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s: %w", chart.Chart.Error.Description, errors.ErrDataNotFound)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo: %s: %w", symbol, errors.ErrDataNotFound)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]models.RawBar, 0, len(result.Timestamp))

	dateFormat := "2006-01-02"
	for i, ts := range result.Timestamp {
		bar := models.RawBar{Date: time.Unix(ts, 0).UTC().Format(dateFormat)}
		if i < len(quote.Open) {
			bar.Open = quote.Open[i]
		}
		if i < len(quote.High) {
			bar.High = quote.High[i]
		}
		if i < len(quote.Low) {
			bar.Low = quote.Low[i]
		}
		if i < len(quote.Close) {
			bar.Close = quote.Close[i]
		}
		if i < len(quote.Volume) {
			bar.Volume = quote.Volume[i]
		}
		bars = append(bars, bar)
	}

	return bars, nil
}

// RangeForDays maps a calendar-day lookback onto a Yahoo range string.
func RangeForDays(days int) string {
	switch {
	case days <= 30:
		return "1mo"
	case days <= 90:
		return "3mo"
	case days <= 180:
		return "6mo"
	case days <= 365:
		return "1y"
	case days <= 730:
		return "2y"
	default:
		return "5y"
	}
}
