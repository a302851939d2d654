package types

import (
	"fmt"

	"github.com/google/uuid"
)

// Right identifies the option right of a contract leg.
type Right string

const (
	Call Right = "C"
	Put  Right = "P"
)

// Rights lists both option rights in canonical scan order.
//
//nolint:gochecknoglobals // Fixed enumeration
var Rights = []Right{Call, Put}

// Strategy identifies one of the supported spread constructions.
type Strategy string

const (
	Calendar  Strategy = "Calendar"
	Butterfly Strategy = "Butterfly"
	Boxspread Strategy = "Boxspread"
)

// Quote is a top-of-book snapshot for one (date, right, strike).
type Quote struct {
	MidPrice float64
	Bid      float64
	AskSize  float64
}

// Leg is one contract of a spread: an expiration date ("YYMMDD"),
// an option right, a strike and the mid price observed at scan time.
// Strike doubles as an exact map key; lookups never use tolerance.
type Leg struct {
	Date     string
	Right    Right
	Strike   float64
	MidPrice float64
}

// Snapshot is one discrete per-cycle view of the option chain.
// Dates preserves the order the market-data source listed expirations in;
// the maps carry no ordering of their own.
type Snapshot struct {
	Dates   []string
	Strikes map[string]map[Right][]float64
	Quotes  map[string]map[Right]map[float64]Quote
}

// Contender is a detected, positive-edge spread candidate pending
// ranking, sizing and submission. Leg order is fixed per strategy:
// Calendar [near, far], Butterfly [low, mid, high],
// Boxspread [lowCall, highCall, lowPut, highPut].
type Contender struct {
	ID         string
	Strategy   Strategy
	ArbValue   float64
	Legs       []Leg
	AvgAskSize float64
	Expiration string
	RankScore  float64
}

// NewCalendarContender builds a calendar spread candidate.
// The near leg expires first; it is the leg the spread sells.
func NewCalendarContender(arbValue float64, near, far Leg, avgAskSize float64) *Contender {
	return &Contender{
		ID:         uuid.New().String(),
		Strategy:   Calendar,
		ArbValue:   arbValue,
		Legs:       []Leg{near, far},
		AvgAskSize: avgAskSize,
		Expiration: near.Date,
	}
}

// NewButterflyContender builds a butterfly spread candidate:
// short 2 units of mid, long 1 unit each of low and high.
func NewButterflyContender(arbValue float64, low, mid, high Leg, avgAskSize float64) *Contender {
	return &Contender{
		ID:         uuid.New().String(),
		Strategy:   Butterfly,
		ArbValue:   arbValue,
		Legs:       []Leg{low, mid, high},
		AvgAskSize: avgAskSize,
		Expiration: low.Date,
	}
}

// NewBoxspreadContender builds a box spread candidate:
// long lowCall and lowPut, short highCall and highPut.
func NewBoxspreadContender(arbValue float64, lowCall, highCall, lowPut, highPut Leg, avgAskSize float64) *Contender {
	return &Contender{
		ID:         uuid.New().String(),
		Strategy:   Boxspread,
		ArbValue:   arbValue,
		Legs:       []Leg{lowCall, highCall, lowPut, highPut},
		AvgAskSize: avgAskSize,
		Expiration: lowCall.Date,
	}
}

// CalendarLegs returns the legs of a Calendar contender by role.
func (c *Contender) CalendarLegs() (near, far Leg) {
	return c.Legs[0], c.Legs[1]
}

// ButterflyLegs returns the legs of a Butterfly contender by role.
func (c *Contender) ButterflyLegs() (low, mid, high Leg) {
	return c.Legs[0], c.Legs[1], c.Legs[2]
}

// BoxspreadLegs returns the legs of a Boxspread contender by role.
func (c *Contender) BoxspreadLegs() (lowCall, highCall, lowPut, highPut Leg) {
	return c.Legs[0], c.Legs[1], c.Legs[2], c.Legs[3]
}

// LegRatio returns the signed unit ratio of leg i: positive buys,
// negative sells. The ratios mirror the order leg encoding.
func (c *Contender) LegRatio(i int) int {
	switch c.Strategy {
	case Calendar:
		// Sell near, buy far.
		return [...]int{-1, 1}[i]
	case Butterfly:
		// Long the wings, short 2 of the body.
		return [...]int{1, -2, 1}[i]
	case Boxspread:
		// Long the low call and low put, short the high call and high put.
		return [...]int{1, -1, 1, -1}[i]
	}
	return 0
}

// LegSide returns "BUY" or "SELL" for leg i.
func (c *Contender) LegSide(i int) string {
	if c.LegRatio(i) < 0 {
		return "SELL"
	}
	return "BUY"
}

// LegQuantity returns the absolute number of contracts traded on leg i
// for the given fill count.
func (c *Contender) LegQuantity(numFills, i int) int {
	ratio := c.LegRatio(i)
	if ratio < 0 {
		ratio = -ratio
	}
	return ratio * numFills
}

// String returns a human-readable representation of the contender.
func (c *Contender) String() string {
	return fmt.Sprintf(
		"Contender[%s] %s exp=%s arb=%.2f avgAsk=%.2f rank=%.4f legs=%d",
		shortID(c.ID),
		c.Strategy,
		c.Expiration,
		c.ArbValue,
		c.AvgAskSize,
		c.RankScore,
		len(c.Legs),
	)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
