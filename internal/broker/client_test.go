package broker

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/CarsonBurke/options-arb/pkg/types"
)

func newTestClient(t *testing.T, baseURL, accountID string) *Client {
	t.Helper()

	client, err := NewClient(&Config{
		BaseURL:   baseURL,
		AccountID: accountID,
		Symbol:    "SPX",
		Timeout:   5 * time.Second,
		Logger:    zap.NewNop(),
	})
	require.NoError(t, err)
	return client
}

func TestNewClientValidation(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil config", nil},
		{"empty base URL", &Config{Symbol: "SPX", Logger: logger}},
		{"empty symbol", &Config{BaseURL: "http://localhost:5000/v1/api", Logger: logger}},
		{"nil logger", &Config{BaseURL: "http://localhost:5000/v1/api", Symbol: "SPX"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestPortfolioValue(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/portfolio/DU12345/summary", r.URL.Path)
		fmt.Fprint(w, `{"netliquidation":{"amount":98765.43,"currency":"USD"}}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "DU12345")

	value, err := client.PortfolioValue(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 98765.43, value, 1e-9)
}

func TestPortfolioValueDiscoversAccount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/portfolio/accounts":
			fmt.Fprint(w, `[{"id":"DU99999"}]`)
		case "/portfolio/DU99999/summary":
			fmt.Fprint(w, `{"netliquidation":{"amount":50000}}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "")

	value, err := client.PortfolioValue(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 50000.0, value, 1e-9)
	assert.Equal(t, "DU99999", client.AccountID())
}

func TestPortfolioValueGatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "DU12345")

	_, err := client.PortfolioValue(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestResolveConids(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/iserver/secdef/search":
			assert.Equal(t, "SPX", r.URL.Query().Get("symbol"))
			fmt.Fprint(w, `[{"conid":416904,"companyName":"S&P 500 Stock Index"}]`)
		case "/iserver/secdef/info":
			month := r.URL.Query().Get("month")
			right := r.URL.Query().Get("right")
			strike := r.URL.Query().Get("strike")
			assert.Equal(t, "NOV21", month)
			fmt.Fprintf(w, `[
				{"conid":111,"maturityDate":"211101","right":%q,"strike":%s},
				{"conid":222,"maturityDate":"211102","right":%q,"strike":%s}
			]`, right, strike, right, strike)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "DU12345")

	index, err := client.ResolveConids(context.Background(), []string{"211101", "211102"}, []float64{3000.0})
	require.NoError(t, err)

	conid, ok := index.Lookup("211101", types.Call, 3000.0)
	require.True(t, ok)
	assert.Equal(t, "111", conid)

	conid, ok = index.Lookup("211102", types.Put, 3000.0)
	require.True(t, ok)
	assert.Equal(t, "222", conid)
}

func TestResolveConidsMalformedDateFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/iserver/secdef/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `[{"conid":416904}]`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "DU12345")

	_, err := client.ResolveConids(context.Background(), []string{"211101", "221301"}, []float64{3000.0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "month label")
}

func TestResolveConidsSkipsUnknownMaturities(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/iserver/secdef/search":
			fmt.Fprint(w, `[{"conid":416904}]`)
		case "/iserver/secdef/info":
			fmt.Fprint(w, `[{"conid":333,"maturityDate":"211125","strike":3000}]`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "DU12345")

	index, err := client.ResolveConids(context.Background(), []string{"211101"}, []float64{3000.0})
	require.NoError(t, err)

	_, ok := index.Lookup("211125", types.Call, 3000.0)
	assert.False(t, ok)
	_, ok = index.Lookup("211101", types.Call, 3000.0)
	assert.False(t, ok)
}

func TestSubmitOrders(t *testing.T) {
	var replies atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/iserver/account/DU12345/orders":
			assert.Equal(t, http.MethodPost, r.Method)
			fmt.Fprint(w, `[{"id":"q1","message":["price cap warning"]}]`)
		case "/iserver/reply/q1":
			replies.Add(1)
			fmt.Fprint(w, `[{"order_id":"987","order_status":"Submitted"}]`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "DU12345")

	batch := &types.OrderBatch{Orders: []types.OrderRequest{{
		AccountID: "DU12345",
		ConIDEx:   "111/-1,222/1",
		OrderType: types.OrderTypeLimit,
		Price:     -0.9,
		Side:      types.OrderSideBuy,
		Ticker:    "SPX",
		TIF:       types.TimeInForceDay,
		Quantity:  1,
	}}}

	err := client.SubmitOrders(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, int32(1), replies.Load())
}

func TestSubmitOrdersEmptyBatchIsNoop(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1", "DU12345")

	assert.NoError(t, client.SubmitOrders(context.Background(), nil))
	assert.NoError(t, client.SubmitOrders(context.Background(), &types.OrderBatch{}))
}

func TestCancelPendingOrders(t *testing.T) {
	var cancels atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/iserver/account/orders":
			fmt.Fprint(w, `{"orders":[
				{"orderId":100,"status":"Submitted"},
				{"orderId":101,"status":"Filled"},
				{"orderId":102,"status":"PreSubmitted"}
			]}`)
		case r.Method == http.MethodDelete:
			cancels.Add(1)
			fmt.Fprint(w, `{"msg":"cancelled"}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, "DU12345")

	err := client.CancelPendingOrders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), cancels.Load())
}
