// Package broker is an HTTP client for the IBKR Client Portal gateway.
package broker

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/CarsonBurke/options-arb/internal/chain"
	"github.com/CarsonBurke/options-arb/pkg/cache"
	"github.com/CarsonBurke/options-arb/pkg/types"
)

// conidCacheTTL bounds how long a resolved contract id is reused.
// Contract ids are stable for the life of a listing.
const conidCacheTTL = 24 * time.Hour

// Client talks to a locally running Client Portal gateway. The gateway
// serves a self-signed certificate, so TLS verification is disabled for
// the loopback connection.
type Client struct {
	baseURL         string
	accountID       string
	symbol          string
	httpClient      *http.Client
	logger          *zap.Logger
	conidCache      cache.Cache
	underlyingConid string
}

// Config holds broker client configuration.
type Config struct {
	BaseURL   string
	AccountID string
	Symbol    string
	Timeout   time.Duration
	Logger    *zap.Logger
	Cache     cache.Cache
}

// NewClient creates a new gateway client.
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
		baseURL:   cfg.BaseURL,
		accountID: cfg.AccountID,
		symbol:    cfg.Symbol,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
		logger:     cfg.Logger,
		conidCache: cfg.Cache,
	}, nil
}

// AccountID returns the account the client submits orders for. When the
// configured account is empty it is discovered from the gateway on the
// first PortfolioValue call.
func (c *Client) AccountID() string {
	return c.accountID
}

type accountSummaryField struct {
	Amount float64 `json:"amount"`
}

type accountSummaryResponse struct {
	NetLiquidation accountSummaryField `json:"netliquidation"`
}

type portfolioAccount struct {
	ID string `json:"id"`
}

// PortfolioValue fetches the account's net liquidation value.
func (c *Client) PortfolioValue(ctx context.Context) (float64, error) {
	if c.accountID == "" {
		err := c.discoverAccount(ctx)
		if err != nil {
			return 0, err
		}
	}

	endpoint := fmt.Sprintf("%s/portfolio/%s/summary", c.baseURL, c.accountID)

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return 0, fmt.Errorf("fetch portfolio summary: %w", err)
	}

	var summary accountSummaryResponse
	err = json.Unmarshal(body, &summary)
	if err != nil {
		return 0, fmt.Errorf("unmarshal portfolio summary: %w", err)
	}

	PortfolioValueGauge.Set(summary.NetLiquidation.Amount)

	c.logger.Debug("fetched-portfolio-value",
		zap.Float64("net-liquidation", summary.NetLiquidation.Amount))

	return summary.NetLiquidation.Amount, nil
}

// discoverAccount picks the first account the gateway session exposes.
func (c *Client) discoverAccount(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/portfolio/accounts", c.baseURL)

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return fmt.Errorf("fetch accounts: %w", err)
	}

	var accounts []portfolioAccount
	err = json.Unmarshal(body, &accounts)
	if err != nil {
		return fmt.Errorf("unmarshal accounts: %w", err)
	}

	if len(accounts) == 0 {
		return fmt.Errorf("gateway session has no accounts")
	}

	c.accountID = accounts[0].ID
	c.logger.Info("discovered-account", zap.String("account-id", c.accountID))

	return nil
}

type secdefSearchResult struct {
	Conid       json.Number `json:"conid"`
	CompanyName string      `json:"companyName"`
}

type secdefInfo struct {
	Conid        json.Number `json:"conid"`
	MaturityDate string      `json:"maturityDate"`
	Right        string      `json:"right"`
	Strike       float64     `json:"strike"`
}

// underlyingSearch resolves the underlying index conid once per session.
func (c *Client) underlyingSearch(ctx context.Context) (string, error) {
	if c.underlyingConid != "" {
		return c.underlyingConid, nil
	}

	params := url.Values{}
	params.Add("symbol", c.symbol)
	params.Add("secType", "IND")
	endpoint := fmt.Sprintf("%s/iserver/secdef/search?%s", c.baseURL, params.Encode())

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return "", fmt.Errorf("search underlying: %w", err)
	}

	var results []secdefSearchResult
	err = json.Unmarshal(body, &results)
	if err != nil {
		return "", fmt.Errorf("unmarshal secdef search: %w", err)
	}

	if len(results) == 0 {
		return "", fmt.Errorf("no security definition for symbol %s", c.symbol)
	}

	c.underlyingConid = results[0].Conid.String()
	c.logger.Info("resolved-underlying",
		zap.String("symbol", c.symbol),
		zap.String("conid", c.underlyingConid))

	return c.underlyingConid, nil
}

// ResolveConids builds the expiration/right/strike to contract ID index
// for the given chain coordinates. Lookups hit the conid cache first;
// misses query the gateway's secdef endpoint per month, right and
// strike and fan the results out by maturity date.
func (c *Client) ResolveConids(ctx context.Context, dates []string, strikes []float64) (chain.Index[string], error) {
	underlying, err := c.underlyingSearch(ctx)
	if err != nil {
		return nil, err
	}

	index := make(chain.Index[string])

	months, err := chain.DistinctMonthLabels(dates)
	if err != nil {
		return nil, fmt.Errorf("derive month labels: %w", err)
	}

	datesByMonth := make(map[string][]string, len(months))
	for _, date := range dates {
		label, err := chain.MonthLabel(date)
		if err != nil {
			return nil, fmt.Errorf("derive month label: %w", err)
		}
		datesByMonth[label] = append(datesByMonth[label], date)
	}

	resolved := 0
	for _, month := range months {
		for _, right := range types.Rights {
			for _, strike := range strikes {
				n, err := c.resolveMonthStrike(ctx, index, underlying, month, datesByMonth[month], right, strike)
				if err != nil {
					return nil, err
				}
				resolved += n
			}
		}
	}

	ConidsResolvedTotal.Add(float64(resolved))

	c.logger.Debug("resolved-conids",
		zap.Int("months", len(months)),
		zap.Int("strikes", len(strikes)),
		zap.Int("resolved", resolved))

	return index, nil
}

// resolveMonthStrike fills the index for one (month, right, strike)
// query, serving cached dates without a gateway round trip.
func (c *Client) resolveMonthStrike(ctx context.Context, index chain.Index[string], underlying, month string, monthDates []string, right types.Right, strike float64) (int, error) {
	if len(monthDates) == 0 {
		return 0, nil
	}

	if c.conidCache != nil {
		hits := 0
		for _, date := range monthDates {
			key := fmt.Sprintf("%s|%s|%.2f", date, right, strike)
			cached, found := c.conidCache.Get(key)
			if !found {
				continue
			}
			conid, ok := cached.(string)
			if !ok {
				continue
			}
			index.Insert(date, right, strike, conid)
			hits++
		}
		if hits == len(monthDates) {
			ConidCacheHitsTotal.Add(float64(hits))
			return hits, nil
		}
	}

	params := url.Values{}
	params.Add("conid", underlying)
	params.Add("sectype", "OPT")
	params.Add("month", month)
	params.Add("strike", fmt.Sprintf("%g", strike))
	params.Add("right", string(right))
	endpoint := fmt.Sprintf("%s/iserver/secdef/info?%s", c.baseURL, params.Encode())

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return 0, fmt.Errorf("fetch secdef info for %s %s %g: %w", month, right, strike, err)
	}

	var infos []secdefInfo
	err = json.Unmarshal(body, &infos)
	if err != nil {
		return 0, fmt.Errorf("unmarshal secdef info: %w", err)
	}

	wanted := make(map[string]struct{}, len(monthDates))
	for _, date := range monthDates {
		wanted[date] = struct{}{}
	}

	resolved := 0
	for _, info := range infos {
		_, ok := wanted[info.MaturityDate]
		if !ok {
			continue
		}
		conid := info.Conid.String()
		index.Insert(info.MaturityDate, right, strike, conid)
		if c.conidCache != nil {
			key := fmt.Sprintf("%s|%s|%.2f", info.MaturityDate, right, strike)
			c.conidCache.Set(key, conid, conidCacheTTL)
		}
		resolved++
	}

	return resolved, nil
}

type orderConfirmation struct {
	ID       string   `json:"id"`
	OrderID  string   `json:"order_id"`
	Message  []string `json:"message"`
	OrderSts string   `json:"order_status"`
}

// SubmitOrders posts an order batch and answers the gateway's
// confirmation prompts. The gateway replies with a question ID for
// warnings such as price caps; each one is acknowledged so the order
// reaches the book.
func (c *Client) SubmitOrders(ctx context.Context, batch *types.OrderBatch) error {
	if batch == nil || len(batch.Orders) == 0 {
		return nil
	}

	if c.accountID == "" {
		err := c.discoverAccount(ctx)
		if err != nil {
			return err
		}
	}

	payload, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("marshal order batch: %w", err)
	}

	endpoint := fmt.Sprintf("%s/iserver/account/%s/orders", c.baseURL, c.accountID)

	body, err := c.post(ctx, endpoint, payload)
	if err != nil {
		OrderSubmitFailuresTotal.Inc()
		return fmt.Errorf("submit orders: %w", err)
	}

	var confirmations []orderConfirmation
	err = json.Unmarshal(body, &confirmations)
	if err != nil {
		return fmt.Errorf("unmarshal order response: %w", err)
	}

	// Answer confirmation prompts until the gateway stops asking.
	for i := 0; i < 5 && len(confirmations) > 0 && confirmations[0].ID != ""; i++ {
		confirmations, err = c.reply(ctx, confirmations[0].ID)
		if err != nil {
			OrderSubmitFailuresTotal.Inc()
			return err
		}
	}

	OrdersSubmittedTotal.Add(float64(len(batch.Orders)))

	c.logger.Info("orders-submitted",
		zap.Int("count", len(batch.Orders)),
		zap.String("account-id", c.accountID))

	return nil
}

// reply acknowledges one gateway confirmation prompt.
func (c *Client) reply(ctx context.Context, questionID string) ([]orderConfirmation, error) {
	endpoint := fmt.Sprintf("%s/iserver/reply/%s", c.baseURL, questionID)

	body, err := c.post(ctx, endpoint, []byte(`{"confirmed":true}`))
	if err != nil {
		return nil, fmt.Errorf("confirm order prompt %s: %w", questionID, err)
	}

	var confirmations []orderConfirmation
	err = json.Unmarshal(body, &confirmations)
	if err != nil {
		return nil, fmt.Errorf("unmarshal confirmation reply: %w", err)
	}

	return confirmations, nil
}

type liveOrder struct {
	OrderID json.Number `json:"orderId"`
	Status  string      `json:"status"`
}

type liveOrdersResponse struct {
	Orders []liveOrder `json:"orders"`
}

// cancellableStatuses are the gateway states a working order can be
// pulled from.
var cancellableStatuses = map[string]struct{}{
	"Submitted":     {},
	"PreSubmitted":  {},
	"PendingSubmit": {},
	"Inactive":      {},
}

// CancelPendingOrders cancels every working order on the account. Used
// at the top of each scan cycle so stale quotes never rest on the book.
func (c *Client) CancelPendingOrders(ctx context.Context) error {
	if c.accountID == "" {
		err := c.discoverAccount(ctx)
		if err != nil {
			return err
		}
	}

	endpoint := fmt.Sprintf("%s/iserver/account/orders", c.baseURL)

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return fmt.Errorf("fetch live orders: %w", err)
	}

	var live liveOrdersResponse
	err = json.Unmarshal(body, &live)
	if err != nil {
		return fmt.Errorf("unmarshal live orders: %w", err)
	}

	cancelled := 0
	for _, order := range live.Orders {
		_, ok := cancellableStatuses[order.Status]
		if !ok {
			continue
		}

		cancelURL := fmt.Sprintf("%s/iserver/account/%s/order/%s", c.baseURL, c.accountID, order.OrderID.String())
		err = c.delete(ctx, cancelURL)
		if err != nil {
			c.logger.Warn("cancel-order-failed",
				zap.String("order-id", order.OrderID.String()),
				zap.Error(err))
			continue
		}
		cancelled++
	}

	if cancelled > 0 {
		OrdersCancelledTotal.Add(float64(cancelled))
		c.logger.Info("cancelled-pending-orders", zap.Int("count", cancelled))
	}

	return nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	return c.do(req)
}

func (c *Client) post(ctx context.Context, endpoint string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

func (c *Client) delete(ctx context.Context, endpoint string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	_, err = c.do(req)
	return err
}

func (c *Client) do(req *http.Request) ([]byte, error) {
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
