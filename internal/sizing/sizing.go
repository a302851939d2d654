// Package sizing converts account capital and a fill-type selector into
// a trading allocation: how many distinct contenders to trade and how
// many fills to submit per contender.
package sizing

// CapitalFloor is the minimum account equity committed per traded
// spread. Accounts below it trade nothing. Policy constant, not derived.
const CapitalFloor = 600.0

// FillType selects how an allocation scales with capital.
type FillType string

const (
	// FillSingle trades one contender at one fill regardless of capital.
	FillSingle FillType = "1"
	// FillScaledDepth trades one contender, scaling fills with capital.
	FillScaledDepth FillType = "2"
	// FillScaledBreadth scales distinct contenders with capital at one
	// fill each.
	FillScaledBreadth FillType = "3"
)

// Valid reports whether the fill type is one of the three selectors.
func (f FillType) Valid() bool {
	return f == FillSingle || f == FillScaledDepth || f == FillScaledBreadth
}

// Size returns (numOrders, numFills) for the given portfolio value.
// (0, 0) is the insufficient-capital signal: the caller stops trading
// this cycle. It is not an error.
func Size(fillType FillType, portfolioValue float64) (numOrders, numFills int) {
	if portfolioValue < CapitalFloor {
		return 0, 0
	}

	units := int(portfolioValue / CapitalFloor)

	switch fillType {
	case FillSingle:
		return 1, 1
	case FillScaledDepth:
		return 1, units
	case FillScaledBreadth:
		return units, 1
	default:
		return 0, 0
	}
}
