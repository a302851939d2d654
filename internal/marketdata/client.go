// Package marketdata fetches option-chain snapshots over HTTP.
package marketdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/CarsonBurke/options-arb/pkg/types"
)

// Client fetches expirations, strikes and quotes from the market-data
// provider and composes them into a chain snapshot.
type Client struct {
	baseURL    string
	apiKey     string
	symbol     string
	httpClient *http.Client
	logger     *zap.Logger
}

// Config holds market-data client configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Symbol  string
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewClient creates a new market-data client.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	if cfg.Symbol == "" {
		return nil, fmt.Errorf("symbol cannot be empty")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		symbol:  cfg.Symbol,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: cfg.Logger,
	}, nil
}

type expirationsResponse struct {
	Expirations []string `json:"expirations"`
}

// Expirations fetches the listed expiration dates in provider order.
// Dates use the compact "YYMMDD" form.
func (c *Client) Expirations(ctx context.Context) ([]string, error) {
	endpoint := fmt.Sprintf("%s/chain/%s/expirations", c.baseURL, url.PathEscape(c.symbol))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch expirations: %w", err)
	}

	var resp expirationsResponse
	err = json.Unmarshal(body, &resp)
	if err != nil {
		return nil, fmt.Errorf("unmarshal expirations: %w", err)
	}

	if len(resp.Expirations) == 0 {
		return nil, fmt.Errorf("provider listed no expirations for %s", c.symbol)
	}

	return resp.Expirations, nil
}

type chainEntry struct {
	Strike  float64 `json:"strike"`
	Bid     float64 `json:"bid"`
	Ask     float64 `json:"ask"`
	AskSize float64 `json:"askSize"`
}

type chainResponse struct {
	Calls []chainEntry `json:"calls"`
	Puts  []chainEntry `json:"puts"`
}

// chainForDate fetches the strikes and top-of-book quotes for one
// expiration. Mid price is derived from bid and ask.
func (c *Client) chainForDate(ctx context.Context, date string) (map[types.Right][]float64, map[types.Right]map[float64]types.Quote, error) {
	params := url.Values{}
	params.Add("expiration", date)
	endpoint := fmt.Sprintf("%s/chain/%s/quotes?%s", c.baseURL, url.PathEscape(c.symbol), params.Encode())

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch chain for %s: %w", date, err)
	}

	var resp chainResponse
	err = json.Unmarshal(body, &resp)
	if err != nil {
		return nil, nil, fmt.Errorf("unmarshal chain for %s: %w", date, err)
	}

	strikes := make(map[types.Right][]float64, 2)
	quotes := make(map[types.Right]map[float64]types.Quote, 2)

	sides := map[types.Right][]chainEntry{
		types.Call: resp.Calls,
		types.Put:  resp.Puts,
	}

	for right, entries := range sides {
		if len(entries) == 0 {
			continue
		}
		quotes[right] = make(map[float64]types.Quote, len(entries))
		for _, entry := range entries {
			strikes[right] = append(strikes[right], entry.Strike)
			quotes[right][entry.Strike] = types.Quote{
				MidPrice: (entry.Bid + entry.Ask) / 2.0,
				Bid:      entry.Bid,
				AskSize:  entry.AskSize,
			}
		}
	}

	return strikes, quotes, nil
}

// Snapshot composes a full chain snapshot: the expiration list plus the
// per-date strike and quote maps, fetched concurrently per date.
func (c *Client) Snapshot(ctx context.Context) (*types.Snapshot, error) {
	start := time.Now()

	dates, err := c.Expirations(ctx)
	if err != nil {
		return nil, err
	}

	snapshot := &types.Snapshot{
		Dates:   dates,
		Strikes: make(map[string]map[types.Right][]float64, len(dates)),
		Quotes:  make(map[string]map[types.Right]map[float64]types.Quote, len(dates)),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, date := range dates {
		g.Go(func() error {
			strikes, quotes, err := c.chainForDate(gctx, date)
			if err != nil {
				return err
			}

			mu.Lock()
			snapshot.Strikes[date] = strikes
			snapshot.Quotes[date] = quotes
			mu.Unlock()

			return nil
		})
	}

	err = g.Wait()
	if err != nil {
		SnapshotFailuresTotal.Inc()
		return nil, err
	}

	SnapshotsTotal.Inc()
	SnapshotDurationSeconds.Observe(time.Since(start).Seconds())

	c.logger.Debug("fetched-snapshot",
		zap.Int("dates", len(dates)),
		zap.Duration("elapsed", time.Since(start)))

	return snapshot, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
