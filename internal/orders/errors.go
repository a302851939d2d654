package orders

import (
	"fmt"

	"github.com/CarsonBurke/options-arb/pkg/types"
)

// DataInconsistencyError reports a contract identifier missing for a
// (date, right, strike) triple the scanner already proved present in the
// quote snapshot. Fatal for the affected order; the cycle continues for
// other contenders.
type DataInconsistencyError struct {
	Date   string
	Right  types.Right
	Strike float64
}

// Error implements the error interface.
func (e *DataInconsistencyError) Error() string {
	return fmt.Sprintf("no contract id for %s %s %.2f", e.Date, e.Right, e.Strike)
}
