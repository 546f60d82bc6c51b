package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

// CoinPackage is a purchasable bundle of coins at a fixed price. Inactive
// packages stay in the table for payment history but cannot be bought.
type CoinPackage struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Coins      int64           `json:"coins"`
	BonusCoins int64           `json:"bonus_coins"`
	Price      decimal.Decimal `json:"price"`
	Active     bool            `json:"active"`
	CreatedAt  time.Time       `json:"created_at"`
}

// TotalCoins is the amount credited on purchase, base plus bonus
func (p *CoinPackage) TotalCoins() int64 {
	return p.Coins + p.BonusCoins
}

// coinTier maps a minimum custom payment amount to a coin total. Larger
// payments earn proportionally more coins than the base rate.
type coinTier struct {
	threshold decimal.Decimal
	coins     int64
}

var coinTiers = []coinTier{
	{decimal.NewFromInt(2000000), 24000},
	{decimal.NewFromInt(1000000), 11500},
	{decimal.NewFromInt(500000), 5500},
	{decimal.NewFromInt(200000), 2150},
	{decimal.NewFromInt(100000), 1050},
	{decimal.NewFromInt(50000), 500},
}

// baseRate is the currency-per-coin price below the lowest tier
var baseRate = decimal.NewFromInt(100)

// CoinsForAmount converts a custom payment amount to the coin total it buys.
// Tiers are checked from largest to smallest; amounts below every tier pay
// the base rate.
func CoinsForAmount(amount decimal.Decimal) int64 {
	for _, tier := range coinTiers {
		if amount.GreaterThanOrEqual(tier.threshold) {
			return tier.coins
		}
	}
	return amount.Div(baseRate).IntPart()
}
