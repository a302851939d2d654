package scanner

import (
	"fmt"

	"github.com/CarsonBurke/options-arb/pkg/types"
)

// LookupError reports a quote missing for a (date, right, strike) triple
// that the strike enumeration said should exist. It indicates a transient
// inconsistency between the snapshot's date/strike listing and its quote
// map; the affected candidate is skipped and scanning continues.
type LookupError struct {
	Date   string
	Right  types.Right
	Strike float64
}

// Error implements the error interface.
func (e *LookupError) Error() string {
	return fmt.Sprintf("no quote for %s %s %.2f", e.Date, e.Right, e.Strike)
}
