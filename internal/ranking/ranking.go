// Package ranking orders spread contenders by a liquidity- and
// time-weighted priority score.
package ranking

import (
	"fmt"
	"sort"
	"time"

	"github.com/CarsonBurke/options-arb/pkg/types"
	"go.uber.org/zap"
)

const dateLayout = "060102"

// DayDifference returns the signed whole-day count from reference to
// target, both "YYMMDD". It is antisymmetric and zero for equal dates.
func DayDifference(reference, target string) (int, error) {
	ref, err := time.Parse(dateLayout, reference)
	if err != nil {
		return 0, fmt.Errorf("parse reference date %q: %w", reference, err)
	}

	tgt, err := time.Parse(dateLayout, target)
	if err != nil {
		return 0, fmt.Errorf("parse target date %q: %w", target, err)
	}

	return int(tgt.Sub(ref).Hours() / 24), nil
}

// Score computes the rank score: the product of liquidity and edge,
// decayed by days to expiration with a one-day floor so same-day
// expirations don't divide by zero.
func Score(avgAskSize, arbValue float64, reference, expiration string) (float64, error) {
	days, err := DayDifference(reference, expiration)
	if err != nil {
		return 0, err
	}

	if days < 1 {
		days = 1
	}

	return (avgAskSize * arbValue) / float64(days), nil
}

// Ranker scores and orders contenders.
type Ranker struct {
	logger *zap.Logger
}

// New creates a new ranker.
func New(logger *zap.Logger) *Ranker {
	return &Ranker{logger: logger}
}

// Rank scores every contender against the reference date, sorts them
// descending by score and truncates to depth. The sort is stable: equal
// scores keep first-encountered order. A negative depth keeps all.
// A contender whose expiration fails to parse scores zero and sinks.
func (r *Ranker) Rank(contenders []*types.Contender, referenceDate string, depth int) []*types.Contender {
	for _, c := range contenders {
		score, err := Score(c.AvgAskSize, c.ArbValue, referenceDate, c.Expiration)
		if err != nil {
			r.logger.Warn("rank-score-failed",
				zap.String("contender-id", c.ID),
				zap.String("expiration", c.Expiration),
				zap.Error(err))
			score = 0
		}
		c.RankScore = score
	}

	sort.SliceStable(contenders, func(i, j int) bool {
		return contenders[i].RankScore > contenders[j].RankScore
	})

	if depth >= 0 && len(contenders) > depth {
		contenders = contenders[:depth]
	}

	RankedContendersTotal.Add(float64(len(contenders)))

	return contenders
}
