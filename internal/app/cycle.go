package app

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/CarsonBurke/options-arb/internal/chain"
	"github.com/CarsonBurke/options-arb/internal/sizing"
	"github.com/CarsonBurke/options-arb/internal/storage"
	"github.com/CarsonBurke/options-arb/pkg/types"
)

// ErrInsufficientCapital halts the poll loop: equity is below the
// capital floor and no sizing policy can produce a tradable order.
var ErrInsufficientCapital = errors.New("portfolio value below capital floor")

// referenceDateLayout is the compact expiration form used throughout
// the chain.
const referenceDateLayout = "060102"

// Cycle runs one full scan pass: fetch equity and a chain snapshot,
// detect and rank contenders, then build and submit orders in live
// mode. Paper mode stops after ranking and logs the trades it would
// have placed.
func (a *App) Cycle(ctx context.Context) error {
	now := time.Now()
	live := a.cfg.Mode == "live"

	if live && !a.clock.IsOpen(now) {
		a.logger.Debug("market-closed-skipping-cycle")
		return nil
	}

	portfolioValue := a.cfg.PaperEquity
	if live {
		var err error
		portfolioValue, err = a.broker.PortfolioValue(ctx)
		if err != nil {
			return err
		}
	}

	numOrders, numFills := sizing.Size(sizing.FillType(a.cfg.FillType), portfolioValue)
	if numOrders == 0 {
		a.logger.Error("insufficient-capital",
			zap.Float64("portfolio-value", portfolioValue),
			zap.Float64("capital-floor", sizing.CapitalFloor))
		return ErrInsufficientCapital
	}

	snapshot, err := a.marketData.Snapshot(ctx)
	if err != nil {
		return err
	}

	quotes := chain.Build(snapshot.Dates, snapshot.Strikes, snapshot.Quotes)
	contenders := a.scanner.ScanAll(ctx, quotes, snapshot.Dates, snapshot.Strikes)
	ranked := a.ranker.Rank(contenders, now.Format(referenceDateLayout), numOrders)

	a.setLastContenders(ranked, now)
	a.healthChecker.CycleCompleted()

	a.logger.Info("cycle-scanned",
		zap.Int("detected", len(contenders)),
		zap.Int("ranked", len(ranked)),
		zap.Int("num-orders", numOrders),
		zap.Int("num-fills", numFills),
		zap.Float64("portfolio-value", portfolioValue))

	if len(ranked) == 0 {
		return nil
	}

	if !live {
		a.logPaperTrades(ranked, numFills)
		return nil
	}

	if a.gate != nil && !a.gate.IsEnabled() {
		a.logger.Warn("submission-gated-by-equity-breaker",
			zap.Int("contenders", len(ranked)))
		return nil
	}

	return a.submit(ctx, ranked, numFills)
}

// submit cancels stale working orders, resolves contract ids for the
// ranked legs and routes the batch. Orders are recorded only after the
// batch is accepted.
func (a *App) submit(ctx context.Context, ranked []*types.Contender, numFills int) error {
	err := a.broker.CancelPendingOrders(ctx)
	if err != nil {
		return err
	}

	dates, strikes := legCoordinates(ranked)

	conids, err := a.broker.ResolveConids(ctx, dates, strikes)
	if err != nil {
		return err
	}

	batch, built := a.builder.BuildBatch(ranked, conids, numFills)
	if len(batch.Orders) == 0 {
		return nil
	}

	err = a.broker.SubmitOrders(ctx, &batch)
	if err != nil {
		return err
	}

	for i, c := range built {
		order := batch.Orders[i]

		err = a.store.RecordOrder(ctx, &storage.OrderRecord{
			ContenderID: c.ID,
			Strategy:    c.Strategy,
			Expiration:  c.Expiration,
			ArbValue:    c.ArbValue,
			RankScore:   c.RankScore,
			LimitPrice:  order.Price,
			Quantity:    order.Quantity,
			ConIDEx:     order.ConIDEx,
			SubmittedAt: time.Now(),
		})
		if err != nil {
			a.logger.Error("order-record-failed",
				zap.String("contender-id", c.ID),
				zap.Error(err))
		}

		if a.gate != nil {
			a.gate.RecordOrder(orderNotional(order))
		}
	}

	return nil
}

// logPaperTrades prints the per-leg actions a live run would have
// submitted.
func (a *App) logPaperTrades(ranked []*types.Contender, numFills int) {
	for _, c := range ranked {
		for i, leg := range c.Legs {
			a.logger.Info("paper-trade",
				zap.String("contender-id", c.ID),
				zap.String("strategy", string(c.Strategy)),
				zap.String("side", c.LegSide(i)),
				zap.Int("quantity", c.LegQuantity(numFills, i)),
				zap.String("date", leg.Date),
				zap.String("right", string(leg.Right)),
				zap.Float64("strike", leg.Strike),
				zap.Float64("mid-price", leg.MidPrice),
				zap.Float64("rank-score", c.RankScore))
		}
	}
}

// legCoordinates collects the distinct dates and strikes the ranked
// contenders reference, in sorted order.
func legCoordinates(ranked []*types.Contender) ([]string, []float64) {
	dateSet := make(map[string]struct{})
	strikeSet := make(map[float64]struct{})

	for _, c := range ranked {
		for _, leg := range c.Legs {
			dateSet[leg.Date] = struct{}{}
			strikeSet[leg.Strike] = struct{}{}
		}
	}

	dates := make([]string, 0, len(dateSet))
	for date := range dateSet {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	strikes := make([]float64, 0, len(strikeSet))
	for strike := range strikeSet {
		strikes = append(strikes, strike)
	}
	sort.Float64s(strikes)

	return dates, strikes
}

// orderNotional approximates the capital committed by one combo order.
// Index option contracts carry a multiplier of 100.
func orderNotional(order types.OrderRequest) float64 {
	return math.Abs(order.Price) * 100.0 * float64(order.Quantity)
}
