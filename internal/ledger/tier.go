package ledger

import "github.com/shopspring/decimal"

var (
	tierPlatinumFloor = decimal.NewFromInt(10000)
	tierGoldFloor     = decimal.NewFromInt(5000)
	tierSilverFloor   = decimal.NewFromInt(1000)

	tierPlatinumRate = decimal.RequireFromString("0.05")
	tierGoldRate     = decimal.RequireFromString("0.04")
	tierSilverRate   = decimal.RequireFromString("0.03")
	tierBaseRate     = decimal.RequireFromString("0.02")
)

// RateForInitialDeposit maps the first funding amount of a savings account to
// its fixed interest rate.
func RateForInitialDeposit(amount decimal.Decimal) decimal.Decimal {
	switch {
	case amount.GreaterThanOrEqual(tierPlatinumFloor):
		return tierPlatinumRate
	case amount.GreaterThanOrEqual(tierGoldFloor):
		return tierGoldRate
	case amount.GreaterThanOrEqual(tierSilverFloor):
		return tierSilverRate
	default:
		return tierBaseRate
	}
}
