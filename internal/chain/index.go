package chain

import (
	"github.com/CarsonBurke/options-arb/pkg/types"
)

// Index is a nested lookup structure over one snapshot generation:
// expiration date → option right → strike → leaf. The same shape indexes
// quotes during scanning and resolved contract ids during order
// construction. Strikes are raw float64 map keys; Go maps compare them by
// exact representation, so a strike only matches the bits the source sent.
type Index[T any] map[string]map[types.Right]map[float64]T

// Build inserts leaves[date][right][strike] for every (right, strike)
// pair the strike enumeration lists under each date. The last write for a
// triple wins, so rebuilding from a fresh snapshot overwrites rather than
// merges. Dates absent from the strike or leaf maps contribute nothing.
func Build[T any](
	dates []string,
	strikes map[string]map[types.Right][]float64,
	leaves map[string]map[types.Right]map[float64]T,
) Index[T] {
	idx := make(Index[T], len(dates))

	for _, date := range dates {
		byRight, ok := strikes[date]
		if !ok {
			continue
		}

		for right, strikeList := range byRight {
			for _, strike := range strikeList {
				leaf, ok := lookupLeaf(leaves, date, right, strike)
				if !ok {
					continue
				}

				if idx[date] == nil {
					idx[date] = make(map[types.Right]map[float64]T, len(byRight))
				}
				if idx[date][right] == nil {
					idx[date][right] = make(map[float64]T, len(strikeList))
				}
				idx[date][right][strike] = leaf
			}
		}
	}

	return idx
}

// Insert stores a single leaf, creating intermediate maps as needed.
func (idx Index[T]) Insert(date string, right types.Right, strike float64, leaf T) {
	if idx[date] == nil {
		idx[date] = make(map[types.Right]map[float64]T)
	}
	if idx[date][right] == nil {
		idx[date][right] = make(map[float64]T)
	}
	idx[date][right][strike] = leaf
}

// Lookup returns the leaf for an exact (date, right, strike) triple.
func (idx Index[T]) Lookup(date string, right types.Right, strike float64) (T, bool) {
	byRight, ok := idx[date]
	if !ok {
		var zero T
		return zero, false
	}

	byStrike, ok := byRight[right]
	if !ok {
		var zero T
		return zero, false
	}

	leaf, ok := byStrike[strike]
	return leaf, ok
}

func lookupLeaf[T any](
	leaves map[string]map[types.Right]map[float64]T,
	date string,
	right types.Right,
	strike float64,
) (T, bool) {
	byRight, ok := leaves[date]
	if !ok {
		var zero T
		return zero, false
	}

	byStrike, ok := byRight[right]
	if !ok {
		var zero T
		return zero, false
	}

	leaf, ok := byStrike[strike]
	return leaf, ok
}
