package types

// Order submission defaults. Every order this system emits is a
// limit-priced combo bought for a negative debit during regular hours.
const (
	OrderTypeLimit  = "LMT"
	ListingExchange = "SMART"
	OrderSideBuy    = "BUY"
	TimeInForceDay  = "DAY"
	ReferrerTag     = "NO_REFERRER_PROVIDED"
)

// OrderRequest is the broker-formatted body for one multi-leg combo order.
// ConIDEx encodes the legs as contract-id/signed-ratio pairs, comma
// separated, in the strategy's fixed order.
type OrderRequest struct {
	AccountID       string  `json:"acctId"`
	ConIDEx         string  `json:"conidex"`
	OrderType       string  `json:"orderType"`
	ListingExchange string  `json:"listingExchange"`
	OutsideRTH      bool    `json:"outsideRTH"`
	Price           float64 `json:"price"`
	Side            string  `json:"side"`
	Ticker          string  `json:"ticker"`
	TIF             string  `json:"tif"`
	Referrer        string  `json:"referrer"`
	Quantity        int     `json:"quantity"`
	UseAdaptive     bool    `json:"useAdaptive"`
}

// OrderBatch is the submission payload: all selected contenders' orders
// submitted together.
type OrderBatch struct {
	Orders []OrderRequest `json:"orders"`
}
