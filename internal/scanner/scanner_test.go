package scanner

import (
	"context"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/CarsonBurke/options-arb/internal/chain"
	"github.com/CarsonBurke/options-arb/pkg/types"
)

func newTestScanner(minEdge float64) *Scanner {
	logger, _ := zap.NewDevelopment()
	return New(Config{MinEdge: minEdge, Logger: logger})
}

func buildQuotes(
	dates []string,
	strikes map[string]map[types.Right][]float64,
	quotes map[string]map[types.Right]map[float64]types.Quote,
) chain.Index[types.Quote] {
	return chain.Build(dates, strikes, quotes)
}

func TestCalendar(t *testing.T) {
	dates := []string{"210101", "210102"}
	strikes := map[string]map[types.Right][]float64{
		"210101": {types.Call: {100.0}},
		"210102": {types.Call: {100.0}},
	}
	quotes := buildQuotes(dates, strikes, map[string]map[types.Right]map[float64]types.Quote{
		"210101": {types.Call: {100.0: {MidPrice: 2.2, Bid: 1.3, AskSize: 8.0}}},
		"210102": {types.Call: {100.0: {MidPrice: 1.9, Bid: 1.3, AskSize: 12.0}}},
	})

	got := newTestScanner(0).Calendar(quotes, dates, strikes)

	if len(got) != 1 {
		t.Fatalf("expected 1 contender, got %d", len(got))
	}

	c := got[0]
	if math.Abs(c.ArbValue-0.3) > 1e-9 {
		t.Errorf("ArbValue = %v, want 0.3", c.ArbValue)
	}
	if c.AvgAskSize != 10.0 {
		t.Errorf("AvgAskSize = %v, want 10.0", c.AvgAskSize)
	}
	if c.Strategy != types.Calendar {
		t.Errorf("Strategy = %v, want Calendar", c.Strategy)
	}
	if c.Expiration != "210101" {
		t.Errorf("Expiration = %v, want 210101", c.Expiration)
	}

	near, far := c.CalendarLegs()
	if near.Date != "210101" || far.Date != "210102" {
		t.Errorf("leg order = [%s, %s], want [210101, 210102]", near.Date, far.Date)
	}
	if near.Strike != 100.0 || far.Strike != 100.0 {
		t.Errorf("leg strikes = [%v, %v], want both 100.0", near.Strike, far.Strike)
	}
}

func TestCalendar_NoEdge(t *testing.T) {
	// Far expiration priced above near; no mispricing.
	dates := []string{"210101", "210102"}
	strikes := map[string]map[types.Right][]float64{
		"210101": {types.Call: {100.0}},
		"210102": {types.Call: {100.0}},
	}
	quotes := buildQuotes(dates, strikes, map[string]map[types.Right]map[float64]types.Quote{
		"210101": {types.Call: {100.0: {MidPrice: 1.9, AskSize: 8.0}}},
		"210102": {types.Call: {100.0: {MidPrice: 2.2, AskSize: 12.0}}},
	})

	if got := newTestScanner(0).Calendar(quotes, dates, strikes); len(got) != 0 {
		t.Errorf("expected no contenders, got %d", len(got))
	}
}

func TestCalendar_StrikeOnlyAtOneDate(t *testing.T) {
	dates := []string{"210101", "210102"}
	strikes := map[string]map[types.Right][]float64{
		"210101": {types.Call: {100.0, 105.0}},
		"210102": {types.Call: {100.0}},
	}
	quotes := buildQuotes(dates, strikes, map[string]map[types.Right]map[float64]types.Quote{
		"210101": {types.Call: {
			100.0: {MidPrice: 2.2, AskSize: 8.0},
			105.0: {MidPrice: 3.0, AskSize: 4.0},
		}},
		"210102": {types.Call: {100.0: {MidPrice: 1.9, AskSize: 12.0}}},
	})

	counter := LookupErrorsTotal.WithLabelValues(string(types.Calendar))
	before := testutil.ToFloat64(counter)

	got := newTestScanner(0).Calendar(quotes, dates, strikes)

	// 105.0 is not listed at the second date, so only the 100.0 pair scans.
	if len(got) != 1 {
		t.Fatalf("expected 1 contender, got %d", len(got))
	}
	if got[0].Legs[0].Strike != 100.0 {
		t.Errorf("strike = %v, want 100.0", got[0].Legs[0].Strike)
	}

	// The one-sided strike counts as a lookup error, it is not dropped
	// silently.
	if delta := testutil.ToFloat64(counter) - before; delta != 1 {
		t.Errorf("lookup errors recorded = %v, want 1", delta)
	}
}

func TestCalendar_MissingQuoteSkipsCandidate(t *testing.T) {
	dates := []string{"210101", "210102"}
	strikes := map[string]map[types.Right][]float64{
		"210101": {types.Call: {100.0, 105.0}},
		"210102": {types.Call: {100.0, 105.0}},
	}
	// The 105.0 quote is missing at the far date despite being listed.
	quotes := buildQuotes(dates, strikes, map[string]map[types.Right]map[float64]types.Quote{
		"210101": {types.Call: {
			100.0: {MidPrice: 2.2, AskSize: 8.0},
			105.0: {MidPrice: 3.0, AskSize: 4.0},
		}},
		"210102": {types.Call: {100.0: {MidPrice: 1.9, AskSize: 12.0}}},
	})

	got := newTestScanner(0).Calendar(quotes, dates, strikes)

	if len(got) != 1 {
		t.Fatalf("expected the 100.0 candidate to survive, got %d contenders", len(got))
	}
	if got[0].Legs[0].Strike != 100.0 {
		t.Errorf("strike = %v, want 100.0", got[0].Legs[0].Strike)
	}
}

func TestButterfly(t *testing.T) {
	dates := []string{"210101"}
	strikes := map[string]map[types.Right][]float64{
		"210101": {types.Call: {95.0, 100.0, 105.0}},
	}
	quotes := buildQuotes(dates, strikes, map[string]map[types.Right]map[float64]types.Quote{
		"210101": {types.Call: {
			95.0:  {MidPrice: 2.1, Bid: 1.3, AskSize: 8.0},
			100.0: {MidPrice: 2.3, Bid: 1.3, AskSize: 10.0},
			105.0: {MidPrice: 2.2, Bid: 1.3, AskSize: 12.0},
		}},
	})

	got := newTestScanner(0).Butterfly(quotes, dates, strikes)

	if len(got) != 1 {
		t.Fatalf("expected 1 contender, got %d", len(got))
	}

	c := got[0]
	// 2*2.3 - (2.1 + 2.2)
	if math.Abs(c.ArbValue-0.3) > 1e-9 {
		t.Errorf("ArbValue = %v, want 0.3", c.ArbValue)
	}
	if c.AvgAskSize != 10.0 {
		t.Errorf("AvgAskSize = %v, want 10.0", c.AvgAskSize)
	}
	if c.Strategy != types.Butterfly {
		t.Errorf("Strategy = %v, want Butterfly", c.Strategy)
	}
	if c.Expiration != "210101" {
		t.Errorf("Expiration = %v, want 210101", c.Expiration)
	}

	low, mid, high := c.ButterflyLegs()
	if low.Strike != 95.0 || mid.Strike != 100.0 || high.Strike != 105.0 {
		t.Errorf("leg strikes = [%v, %v, %v], want [95, 100, 105]", low.Strike, mid.Strike, high.Strike)
	}
}

func TestButterfly_UnsortedInputStrikes(t *testing.T) {
	dates := []string{"210101"}
	strikes := map[string]map[types.Right][]float64{
		"210101": {types.Call: {105.0, 95.0, 100.0}},
	}
	quotes := buildQuotes(dates, strikes, map[string]map[types.Right]map[float64]types.Quote{
		"210101": {types.Call: {
			95.0:  {MidPrice: 2.1, AskSize: 8.0},
			100.0: {MidPrice: 2.3, AskSize: 10.0},
			105.0: {MidPrice: 2.2, AskSize: 12.0},
		}},
	})

	got := newTestScanner(0).Butterfly(quotes, dates, strikes)

	if len(got) != 1 {
		t.Fatalf("expected 1 contender, got %d", len(got))
	}
	low, mid, high := got[0].ButterflyLegs()
	if low.Strike != 95.0 || mid.Strike != 100.0 || high.Strike != 105.0 {
		t.Errorf("windows must form over sorted strikes, got [%v, %v, %v]", low.Strike, mid.Strike, high.Strike)
	}
}

func TestButterfly_TooFewStrikes(t *testing.T) {
	dates := []string{"210101"}
	strikes := map[string]map[types.Right][]float64{
		"210101": {types.Call: {95.0, 100.0}},
	}
	quotes := buildQuotes(dates, strikes, map[string]map[types.Right]map[float64]types.Quote{
		"210101": {types.Call: {
			95.0:  {MidPrice: 2.1, AskSize: 8.0},
			100.0: {MidPrice: 2.3, AskSize: 10.0},
		}},
	})

	if got := newTestScanner(0).Butterfly(quotes, dates, strikes); len(got) != 0 {
		t.Errorf("expected no contenders with fewer than 3 strikes, got %d", len(got))
	}
}

func TestBoxspread(t *testing.T) {
	dates := []string{"210101"}
	strikes := map[string]map[types.Right][]float64{
		"210101": {
			types.Call: {95.0, 100.0},
			types.Put:  {95.0, 100.0},
		},
	}
	quotes := buildQuotes(dates, strikes, map[string]map[types.Right]map[float64]types.Quote{
		"210101": {
			types.Call: {
				95.0:  {MidPrice: 1.4, Bid: 1.3, AskSize: 8.0},
				100.0: {MidPrice: 2.1, Bid: 1.3, AskSize: 12.0},
			},
			types.Put: {
				95.0:  {MidPrice: 1.5, Bid: 1.3, AskSize: 12.0},
				100.0: {MidPrice: 2.5, Bid: 1.3, AskSize: 8.0},
			},
		},
	})

	got := newTestScanner(0).Boxspread(quotes, dates, strikes)

	if len(got) != 1 {
		t.Fatalf("expected 1 contender, got %d", len(got))
	}

	c := got[0]
	// (1.4 + 2.5) - (2.1 + 1.5)
	if math.Abs(c.ArbValue-0.3) > 1e-9 {
		t.Errorf("ArbValue = %v, want 0.3", c.ArbValue)
	}
	if c.AvgAskSize != 10.0 {
		t.Errorf("AvgAskSize = %v, want 10.0", c.AvgAskSize)
	}
	if c.Strategy != types.Boxspread {
		t.Errorf("Strategy = %v, want Boxspread", c.Strategy)
	}
	if c.Expiration != "210101" {
		t.Errorf("Expiration = %v, want 210101", c.Expiration)
	}

	lowCall, highCall, lowPut, highPut := c.BoxspreadLegs()
	if lowCall.Strike != 95.0 || lowCall.Right != types.Call {
		t.Errorf("lowCall = %+v", lowCall)
	}
	if highCall.Strike != 100.0 || highCall.Right != types.Call {
		t.Errorf("highCall = %+v", highCall)
	}
	if lowPut.Strike != 95.0 || lowPut.Right != types.Put {
		t.Errorf("lowPut = %+v", lowPut)
	}
	if highPut.Strike != 100.0 || highPut.Right != types.Put {
		t.Errorf("highPut = %+v", highPut)
	}
}

func TestBoxspread_PutOnlyStrikeSkipped(t *testing.T) {
	dates := []string{"210101"}
	strikes := map[string]map[types.Right][]float64{
		"210101": {
			types.Call: {95.0, 100.0},
			types.Put:  {95.0, 100.0, 110.0},
		},
	}
	quotes := buildQuotes(dates, strikes, map[string]map[types.Right]map[float64]types.Quote{
		"210101": {
			types.Call: {
				95.0:  {MidPrice: 1.4, AskSize: 8.0},
				100.0: {MidPrice: 2.1, AskSize: 12.0},
			},
			types.Put: {
				95.0:  {MidPrice: 1.5, AskSize: 12.0},
				100.0: {MidPrice: 2.5, AskSize: 8.0},
				110.0: {MidPrice: 9.5, AskSize: 3.0},
			},
		},
	})

	got := newTestScanner(0).Boxspread(quotes, dates, strikes)

	// 110.0 has no call side, so only the (95, 100) pair is eligible.
	if len(got) != 1 {
		t.Fatalf("expected 1 contender, got %d", len(got))
	}
}

func TestScanAll_MergesInStrategyOrder(t *testing.T) {
	dates := []string{"210101", "210102"}
	strikes := map[string]map[types.Right][]float64{
		"210101": {
			types.Call: {95.0, 100.0, 105.0},
			types.Put:  {95.0, 100.0},
		},
		"210102": {types.Call: {100.0}},
	}
	quotes := buildQuotes(dates, strikes, map[string]map[types.Right]map[float64]types.Quote{
		"210101": {
			types.Call: {
				95.0:  {MidPrice: 1.4, AskSize: 8.0},
				100.0: {MidPrice: 2.3, AskSize: 10.0},
				105.0: {MidPrice: 2.2, AskSize: 12.0},
			},
			types.Put: {
				95.0:  {MidPrice: 1.5, AskSize: 12.0},
				100.0: {MidPrice: 2.5, AskSize: 8.0},
			},
		},
		"210102": {types.Call: {100.0: {MidPrice: 1.9, AskSize: 12.0}}},
	})

	got := newTestScanner(0).ScanAll(context.Background(), quotes, dates, strikes)

	if len(got) != 3 {
		t.Fatalf("expected 3 contenders (one per strategy), got %d", len(got))
	}
	if got[0].Strategy != types.Calendar || got[1].Strategy != types.Butterfly || got[2].Strategy != types.Boxspread {
		t.Errorf("merge order = [%s, %s, %s], want [Calendar, Butterfly, Boxspread]",
			got[0].Strategy, got[1].Strategy, got[2].Strategy)
	}
}

func TestScanAll_EmptySnapshot(t *testing.T) {
	got := newTestScanner(0).ScanAll(context.Background(), chain.Index[types.Quote]{}, nil, nil)
	if len(got) != 0 {
		t.Errorf("expected no contenders for empty snapshot, got %d", len(got))
	}
}

func TestMinEdgeGate(t *testing.T) {
	dates := []string{"210101", "210102"}
	strikes := map[string]map[types.Right][]float64{
		"210101": {types.Call: {100.0}},
		"210102": {types.Call: {100.0}},
	}
	quotes := buildQuotes(dates, strikes, map[string]map[types.Right]map[float64]types.Quote{
		"210101": {types.Call: {100.0: {MidPrice: 2.2, AskSize: 8.0}}},
		"210102": {types.Call: {100.0: {MidPrice: 1.9, AskSize: 12.0}}},
	})

	// Gate above the 0.3 edge: the candidate must be dropped.
	if got := newTestScanner(0.5).Calendar(quotes, dates, strikes); len(got) != 0 {
		t.Errorf("expected min-edge gate to drop the candidate, got %d contenders", len(got))
	}

	// Gate below it: emitted.
	if got := newTestScanner(0.1).Calendar(quotes, dates, strikes); len(got) != 1 {
		t.Errorf("expected candidate above min edge to pass, got %d contenders", len(got))
	}
}
