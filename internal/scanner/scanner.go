package scanner

import (
	"context"
	"sort"
	"time"

	"github.com/CarsonBurke/options-arb/internal/chain"
	"github.com/CarsonBurke/options-arb/pkg/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Scanner runs the three spread strategies over one immutable snapshot.
// Each strategy is a pure read of the quote index; they share no mutable
// state and may run concurrently.
type Scanner struct {
	minEdge float64
	logger  *zap.Logger
}

// Config holds scanner configuration.
type Config struct {
	// MinEdge is the scan-time profitability gate: a candidate is emitted
	// only when its arb value strictly exceeds it. Zero keeps the plain
	// positive-edge gate. Independent of the order-time discount factor.
	MinEdge float64
	Logger  *zap.Logger
}

// New creates a new scanner.
func New(cfg Config) *Scanner {
	return &Scanner{
		minEdge: cfg.MinEdge,
		logger:  cfg.Logger,
	}
}

// ScanAll runs all three strategies and merges their candidates in fixed
// strategy order (calendar, butterfly, boxspread) so that downstream
// stable sorting sees a deterministic input order.
func (s *Scanner) ScanAll(
	ctx context.Context,
	quotes chain.Index[types.Quote],
	dates []string,
	strikes map[string]map[types.Right][]float64,
) []*types.Contender {
	var calendar, butterfly, boxspread []*types.Contender

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		calendar = s.Calendar(quotes, dates, strikes)
		return nil
	})
	g.Go(func() error {
		butterfly = s.Butterfly(quotes, dates, strikes)
		return nil
	})
	g.Go(func() error {
		boxspread = s.Boxspread(quotes, dates, strikes)
		return nil
	})
	_ = g.Wait()

	merged := make([]*types.Contender, 0, len(calendar)+len(butterfly)+len(boxspread))
	merged = append(merged, calendar...)
	merged = append(merged, butterfly...)
	merged = append(merged, boxspread...)

	return merged
}

// Calendar scans adjacent expiration pairs for same-right, same-strike
// contracts where the nearer expiration is priced above the farther one.
// Legs are [near, far]: sell the near, buy the far.
func (s *Scanner) Calendar(
	quotes chain.Index[types.Quote],
	dates []string,
	strikes map[string]map[types.Right][]float64,
) []*types.Contender {
	start := time.Now()
	defer observeScan(string(types.Calendar), start)

	var out []*types.Contender

	for i := 0; i+1 < len(dates); i++ {
		nearDate, farDate := dates[i], dates[i+1]

		nearStrikes, ok := strikes[nearDate]
		if !ok {
			continue
		}
		farStrikes, ok := strikes[farDate]
		if !ok {
			continue
		}

		for _, right := range types.Rights {
			farSet := strikeSet(farStrikes[right])

			for _, strike := range sortedStrikes(nearStrikes[right]) {
				if _, ok := farSet[strike]; !ok {
					s.skipMissing(types.Calendar, farDate, right, strike)
					continue
				}

				nearQuote, ok := quotes.Lookup(nearDate, right, strike)
				if !ok {
					s.skipMissing(types.Calendar, nearDate, right, strike)
					continue
				}
				farQuote, ok := quotes.Lookup(farDate, right, strike)
				if !ok {
					s.skipMissing(types.Calendar, farDate, right, strike)
					continue
				}

				arb := nearQuote.MidPrice - farQuote.MidPrice
				if arb <= s.minEdge {
					continue
				}

				near := types.Leg{Date: nearDate, Right: right, Strike: strike, MidPrice: nearQuote.MidPrice}
				far := types.Leg{Date: farDate, Right: right, Strike: strike, MidPrice: farQuote.MidPrice}
				avgAsk := (nearQuote.AskSize + farQuote.AskSize) / 2

				out = append(out, types.NewCalendarContender(arb, near, far, avgAsk))
				ContendersDetectedTotal.WithLabelValues(string(types.Calendar)).Inc()
			}
		}
	}

	return out
}

// Butterfly scans every window of three consecutive strikes per date and
// right for a body priced above the average of its wings.
// Legs are [low, mid, high]: long the wings, short 2 of the body.
func (s *Scanner) Butterfly(
	quotes chain.Index[types.Quote],
	dates []string,
	strikes map[string]map[types.Right][]float64,
) []*types.Contender {
	start := time.Now()
	defer observeScan(string(types.Butterfly), start)

	var out []*types.Contender

	for _, date := range dates {
		byRight, ok := strikes[date]
		if !ok {
			continue
		}

		for _, right := range types.Rights {
			sorted := sortedStrikes(byRight[right])
			if len(sorted) < 3 {
				// Not enough strikes to form a window; not an error.
				continue
			}

			for i := 0; i+2 < len(sorted); i++ {
				low, mid, high := sorted[i], sorted[i+1], sorted[i+2]

				lowQuote, ok := quotes.Lookup(date, right, low)
				if !ok {
					s.skipMissing(types.Butterfly, date, right, low)
					continue
				}
				midQuote, ok := quotes.Lookup(date, right, mid)
				if !ok {
					s.skipMissing(types.Butterfly, date, right, mid)
					continue
				}
				highQuote, ok := quotes.Lookup(date, right, high)
				if !ok {
					s.skipMissing(types.Butterfly, date, right, high)
					continue
				}

				arb := 2*midQuote.MidPrice - (lowQuote.MidPrice + highQuote.MidPrice)
				if arb <= s.minEdge {
					continue
				}

				avgAsk := (lowQuote.AskSize + midQuote.AskSize + highQuote.AskSize) / 3

				out = append(out, types.NewButterflyContender(
					arb,
					types.Leg{Date: date, Right: right, Strike: low, MidPrice: lowQuote.MidPrice},
					types.Leg{Date: date, Right: right, Strike: mid, MidPrice: midQuote.MidPrice},
					types.Leg{Date: date, Right: right, Strike: high, MidPrice: highQuote.MidPrice},
					avgAsk,
				))
				ContendersDetectedTotal.WithLabelValues(string(types.Butterfly)).Inc()
			}
		}
	}

	return out
}

// Boxspread scans every strike pair with calls and puts listed at both
// strikes for a call spread priced under the matching put spread.
// Legs are [lowCall, highCall, lowPut, highPut].
func (s *Scanner) Boxspread(
	quotes chain.Index[types.Quote],
	dates []string,
	strikes map[string]map[types.Right][]float64,
) []*types.Contender {
	start := time.Now()
	defer observeScan(string(types.Boxspread), start)

	var out []*types.Contender

	for _, date := range dates {
		byRight, ok := strikes[date]
		if !ok {
			continue
		}

		putSet := strikeSet(byRight[types.Put])

		// Strikes with both a listed call and a listed put.
		var common []float64
		for _, strike := range sortedStrikes(byRight[types.Call]) {
			if _, ok := putSet[strike]; ok {
				common = append(common, strike)
			}
		}

		for i := 0; i < len(common); i++ {
			for j := i + 1; j < len(common); j++ {
				low, high := common[i], common[j]

				lowCall, ok := quotes.Lookup(date, types.Call, low)
				if !ok {
					s.skipMissing(types.Boxspread, date, types.Call, low)
					continue
				}
				highCall, ok := quotes.Lookup(date, types.Call, high)
				if !ok {
					s.skipMissing(types.Boxspread, date, types.Call, high)
					continue
				}
				lowPut, ok := quotes.Lookup(date, types.Put, low)
				if !ok {
					s.skipMissing(types.Boxspread, date, types.Put, low)
					continue
				}
				highPut, ok := quotes.Lookup(date, types.Put, high)
				if !ok {
					s.skipMissing(types.Boxspread, date, types.Put, high)
					continue
				}

				arb := (lowCall.MidPrice + highPut.MidPrice) - (highCall.MidPrice + lowPut.MidPrice)
				if arb <= s.minEdge {
					continue
				}

				avgAsk := (lowCall.AskSize + highCall.AskSize + lowPut.AskSize + highPut.AskSize) / 4

				out = append(out, types.NewBoxspreadContender(
					arb,
					types.Leg{Date: date, Right: types.Call, Strike: low, MidPrice: lowCall.MidPrice},
					types.Leg{Date: date, Right: types.Call, Strike: high, MidPrice: highCall.MidPrice},
					types.Leg{Date: date, Right: types.Put, Strike: low, MidPrice: lowPut.MidPrice},
					types.Leg{Date: date, Right: types.Put, Strike: high, MidPrice: highPut.MidPrice},
					avgAsk,
				))
				ContendersDetectedTotal.WithLabelValues(string(types.Boxspread)).Inc()
			}
		}
	}

	return out
}

// skipMissing records a quote absent for a triple the strike enumeration
// listed. The candidate is dropped; scanning continues.
func (s *Scanner) skipMissing(strategy types.Strategy, date string, right types.Right, strike float64) {
	LookupErrorsTotal.WithLabelValues(string(strategy)).Inc()
	s.logger.Warn("quote-missing",
		zap.String("strategy", string(strategy)),
		zap.Error(&LookupError{Date: date, Right: right, Strike: strike}))
}

func observeScan(strategy string, start time.Time) {
	ScanDurationSeconds.WithLabelValues(strategy).Observe(time.Since(start).Seconds())
}

// sortedStrikes returns an ascending copy; combinations are always formed
// from sorted strikes regardless of source order.
func sortedStrikes(strikes []float64) []float64 {
	if len(strikes) == 0 {
		return nil
	}

	sorted := make([]float64, len(strikes))
	copy(sorted, strikes)
	sort.Float64s(sorted)

	return sorted
}

func strikeSet(strikes []float64) map[float64]struct{} {
	set := make(map[float64]struct{}, len(strikes))
	for _, strike := range strikes {
		set[strike] = struct{}{}
	}
	return set
}
