// Package progression derives rank and net worth from the ledger. Pure
// reads; nothing here mutates state.
package progression

import (
	"github.com/sirsapient/slangbang/internal/config"
	"github.com/sirsapient/slangbang/internal/game"
)

// Pricer supplies current prices for inventory valuation.
type Pricer interface {
	Price(cityID, commodityID string) int
}

// NetWorth values the whole operation: pocket cash, held inventory at
// current-city prices, banked base cash, the crew, asset resale value, and
// a flat goodwill constant per base.
func NetWorth(cfg *config.Config, ledger *game.Ledger, prices Pricer) int {
	total := ledger.Cash()
	city := ledger.CurrentCity()
	for com, qty := range ledger.Inventory() {
		total += prices.Price(city, com) * qty
	}
	ledger.EachBase(func(b *game.Base) {
		total += b.CashStored
	})
	total += ledger.GangSize() * cfg.Tuning.GangValuation
	total += ledger.Assets().ResaleTotal()
	total += ledger.BaseCount() * cfg.Tuning.BaseGoodwill
	return total
}

// Rank walks the rank tiers from highest to lowest and returns the first
// whose thresholds are all met. The lowest tier is the floor.
func Rank(cfg *config.Config, ledger *game.Ledger, prices Pricer) config.RankTier {
	worth := NetWorth(cfg, ledger, prices)
	bases := ledger.BaseCount()
	gang := ledger.GangSize()
	assets := len(ledger.Assets().Owned)

	for i := len(cfg.Ranks) - 1; i >= 0; i-- {
		tier := cfg.Ranks[i]
		if worth >= tier.MinNetWorth && bases >= tier.MinBases && gang >= tier.MinGang && assets >= tier.MinAssets {
			return tier
		}
	}
	return cfg.Ranks[0]
}
