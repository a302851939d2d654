// Package orders turns ranked contenders into broker-formatted combo
// order requests.
package orders

import (
	"fmt"
	"math"

	"github.com/CarsonBurke/options-arb/internal/chain"
	"github.com/CarsonBurke/options-arb/pkg/types"
	"go.uber.org/zap"
)

// Builder converts contenders into OrderRequest values using a resolved
// contract-id index from the same snapshot generation.
type Builder struct {
	accountID string
	discount  float64
	symbol    string
	logger    *zap.Logger
}

// Config holds builder configuration.
type Config struct {
	AccountID string
	// DiscountFactor is the fraction of the theoretical edge priced into
	// the limit order, in (0, 1]. 0.9 leaves 10% execution cushion.
	DiscountFactor float64
	Symbol         string
	Logger         *zap.Logger
}

// New creates a new order builder.
func New(cfg Config) *Builder {
	return &Builder{
		accountID: cfg.AccountID,
		discount:  cfg.DiscountFactor,
		symbol:    cfg.Symbol,
		logger:    cfg.Logger,
	}
}

// Build constructs the order request for one contender. A contract id
// missing for any referenced leg is a DataInconsistencyError: the
// scanner sourced that triple from the same snapshot that produced the
// id index, so absence means the snapshot is stale or mismatched. Only
// this order is aborted.
func (b *Builder) Build(c *types.Contender, conids chain.Index[string], numFills int) (types.OrderRequest, error) {
	encoding, err := b.legEncoding(c, conids)
	if err != nil {
		OrdersFailedTotal.WithLabelValues(string(c.Strategy)).Inc()
		return types.OrderRequest{}, err
	}

	req := types.OrderRequest{
		AccountID:       b.accountID,
		ConIDEx:         encoding,
		OrderType:       types.OrderTypeLimit,
		ListingExchange: types.ListingExchange,
		OutsideRTH:      false,
		Price:           -roundCents(c.ArbValue * b.discount),
		Side:            types.OrderSideBuy,
		Ticker:          b.symbol,
		TIF:             types.TimeInForceDay,
		Referrer:        types.ReferrerTag,
		Quantity:        numFills,
		UseAdaptive:     false,
	}

	OrdersBuiltTotal.WithLabelValues(string(c.Strategy)).Inc()

	return req, nil
}

// BuildBatch builds orders for all contenders, skipping any whose
// construction fails. Failures are logged; the batch keeps going. The
// returned contender slice aligns index-for-index with the batch
// orders, so callers can attribute each built order to its source.
func (b *Builder) BuildBatch(contenders []*types.Contender, conids chain.Index[string], numFills int) (types.OrderBatch, []*types.Contender) {
	batch := types.OrderBatch{Orders: make([]types.OrderRequest, 0, len(contenders))}
	built := make([]*types.Contender, 0, len(contenders))

	for _, c := range contenders {
		req, err := b.Build(c, conids, numFills)
		if err != nil {
			b.logger.Error("order-build-failed",
				zap.String("contender-id", c.ID),
				zap.String("strategy", string(c.Strategy)),
				zap.Error(err))
			continue
		}
		batch.Orders = append(batch.Orders, req)
		built = append(built, c)
	}

	return batch, built
}

// legEncoding renders each leg as contract-id/signed-ratio, in the fixed
// per-strategy order the broker expects.
func (b *Builder) legEncoding(c *types.Contender, conids chain.Index[string]) (string, error) {
	switch c.Strategy {
	case types.Calendar:
		near, far := c.CalendarLegs()
		nearID, err := resolve(conids, near)
		if err != nil {
			return "", err
		}
		farID, err := resolve(conids, far)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s/-1,%s/1", nearID, farID), nil

	case types.Butterfly:
		low, mid, high := c.ButterflyLegs()
		lowID, err := resolve(conids, low)
		if err != nil {
			return "", err
		}
		midID, err := resolve(conids, mid)
		if err != nil {
			return "", err
		}
		highID, err := resolve(conids, high)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s/-2,%s/1,%s/1", midID, lowID, highID), nil

	case types.Boxspread:
		lowCall, highCall, lowPut, highPut := c.BoxspreadLegs()
		lowCallID, err := resolve(conids, lowCall)
		if err != nil {
			return "", err
		}
		highCallID, err := resolve(conids, highCall)
		if err != nil {
			return "", err
		}
		lowPutID, err := resolve(conids, lowPut)
		if err != nil {
			return "", err
		}
		highPutID, err := resolve(conids, highPut)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s/-1,%s/1,%s/1,%s/-1", highPutID, lowPutID, lowCallID, highCallID), nil

	default:
		return "", fmt.Errorf("unsupported strategy %q", c.Strategy)
	}
}

func resolve(conids chain.Index[string], leg types.Leg) (string, error) {
	id, ok := conids.Lookup(leg.Date, leg.Right, leg.Strike)
	if !ok {
		return "", &DataInconsistencyError{Date: leg.Date, Right: leg.Right, Strike: leg.Strike}
	}
	return id, nil
}

// roundCents rounds half away from zero to two decimals.
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
