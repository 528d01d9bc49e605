// Package market implements per-city price generation, daily drift and
// clamping, supply tracking with restock, and buy/sell validation against
// the player ledger.
package market

import (
	"math"
	"sort"

	"github.com/sirsapient/slangbang/internal/config"
	"github.com/sirsapient/slangbang/internal/entropy"
	"github.com/sirsapient/slangbang/internal/game"
)

// Market owns city price and supply state. Construct with New (fresh roll)
// or Restore (from a save).
type Market struct {
	cfg    *config.Config
	ledger *game.Ledger
	rng    entropy.Source

	// city → commodity → value
	prices map[string]map[string]int
	supply map[string]map[string]int
}

// State is the serializable market snapshot.
type State struct {
	Prices map[string]map[string]int `json:"prices"`
	Supply map[string]map[string]int `json:"supply"`
}

// New rolls initial prices and supply for every city/commodity pair.
func New(cfg *config.Config, ledger *game.Ledger, rng entropy.Source) *Market {
	m := &Market{
		cfg:    cfg,
		ledger: ledger,
		rng:    rng,
		prices: make(map[string]map[string]int),
		supply: make(map[string]map[string]int),
	}
	for _, city := range cfg.Cities {
		m.prices[city.ID] = make(map[string]int, len(cfg.Commodities))
		m.supply[city.ID] = make(map[string]int, len(cfg.Commodities))
		for _, com := range cfg.Commodities {
			m.prices[city.ID][com.ID] = m.generatePrice(&city, &com)
			m.supply[city.ID][com.ID] = entropy.IntBetween(rng, 40, 120)
		}
	}
	return m
}

// Restore rebuilds a market from saved state, rolling fresh values for any
// city/commodity pair the save is missing (merge, not replace).
func Restore(cfg *config.Config, ledger *game.Ledger, rng entropy.Source, s State) *Market {
	m := New(cfg, ledger, rng)
	for cityID, coms := range s.Prices {
		if m.prices[cityID] == nil {
			continue
		}
		for comID, price := range coms {
			if _, ok := m.prices[cityID][comID]; ok && price > 0 {
				m.prices[cityID][comID] = price
			}
		}
	}
	for cityID, coms := range s.Supply {
		if m.supply[cityID] == nil {
			continue
		}
		for comID, supply := range coms {
			if _, ok := m.supply[cityID][comID]; ok && supply >= 0 {
				m.supply[cityID][comID] = minInt(supply, m.cfg.Tuning.SupplyCap)
			}
		}
	}
	return m
}

// Export deep-copies the market state for persistence.
func (m *Market) Export() State {
	s := State{
		Prices: make(map[string]map[string]int, len(m.prices)),
		Supply: make(map[string]map[string]int, len(m.supply)),
	}
	for city, coms := range m.prices {
		s.Prices[city] = make(map[string]int, len(coms))
		for com, p := range coms {
			s.Prices[city][com] = p
		}
	}
	for city, coms := range m.supply {
		s.Supply[city] = make(map[string]int, len(coms))
		for com, n := range coms {
			s.Supply[city][com] = n
		}
	}
	return s
}

// generatePrice rolls the opening price for one city/commodity:
// base × (1 + U(-vol/2, vol/2)) × cityHeatModifier, rounded, minimum 1.
func (m *Market) generatePrice(city *config.City, com *config.Commodity) int {
	roll := entropy.Between(m.rng, -com.Volatility/2, com.Volatility/2)
	price := int(math.Round(float64(com.BasePrice) * (1 + roll) * city.HeatModifier))
	if price < 1 {
		price = 1
	}
	return price
}

// Bounds returns the daily clamp window for a city/commodity pair.
func Bounds(city *config.City, com *config.Commodity) (lo, hi int) {
	lo = int(math.Floor(float64(com.BasePrice) * city.HeatModifier * 0.5))
	hi = int(math.Floor(float64(com.BasePrice) * city.HeatModifier * 2.0))
	if lo < 1 {
		lo = 1
	}
	return lo, hi
}

// DailyUpdate drifts every price by U(0.95, 1.05), clamps to the bound
// window, then restocks supplies.
func (m *Market) DailyUpdate() {
	for i := range m.cfg.Cities {
		city := &m.cfg.Cities[i]
		for j := range m.cfg.Commodities {
			com := &m.cfg.Commodities[j]
			drift := entropy.Between(m.rng, 0.95, 1.05)
			price := int(math.Floor(float64(m.prices[city.ID][com.ID]) * drift))
			lo, hi := Bounds(city, com)
			if price < lo {
				price = lo
			}
			if price > hi {
				price = hi
			}
			m.prices[city.ID][com.ID] = price
		}
	}
	m.restock()
}

// restock tops up thin supplies: below 20 units add U(10,30), below 50 add
// U(5,15), hard cap at the configured ceiling. Restocking a dry commodity
// in the player's current city emits a notification event.
func (m *Market) restock() {
	cap := m.cfg.Tuning.SupplyCap
	for _, city := range m.cfg.Cities {
		for _, com := range m.cfg.Commodities {
			have := m.supply[city.ID][com.ID]
			var added int
			switch {
			case have < 20:
				added = entropy.IntBetween(m.rng, 10, 30)
			case have < 50:
				added = entropy.IntBetween(m.rng, 5, 15)
			default:
				continue
			}
			next := have + added
			if next > cap {
				next = cap
			}
			m.supply[city.ID][com.ID] = next
			if have == 0 && city.ID == m.ledger.CurrentCity() {
				m.ledger.Emit(game.Event{
					Kind:      game.EventSupplyRestocked,
					City:      city.ID,
					Commodity: com.ID,
					Value:     next,
				})
			}
		}
	}
}

// Price reports the current price in a city. Zero for unknown pairs.
func (m *Market) Price(cityID, commodityID string) int {
	return m.prices[cityID][commodityID]
}

// Supply reports remaining purchasable units in a city.
func (m *Market) Supply(cityID, commodityID string) int {
	return m.supply[cityID][commodityID]
}

// CityPrices returns a copy of one city's price sheet.
func (m *Market) CityPrices(cityID string) map[string]int {
	out := make(map[string]int, len(m.prices[cityID]))
	for com, p := range m.prices[cityID] {
		out[com] = p
	}
	return out
}

// Buy purchases qty units at the player's current city. All-or-nothing:
// every precondition is checked before any mutation. Purchases at or above
// the large-purchase threshold add warrant heat.
func (m *Market) Buy(commodityID string, qty int) error {
	if qty <= 0 {
		return game.Errf(game.CodeInvalidQuantity, "buy %d", qty)
	}
	if m.cfg.CommodityByID(commodityID) == nil {
		return game.Errf(game.CodeNotFound, "commodity %s", commodityID)
	}
	city := m.ledger.CurrentCity()
	available := m.supply[city][commodityID]
	if qty > available {
		return game.Errf(game.CodeInsufficientSupply, "%s in %s: want %d, supply %d", commodityID, city, qty, available)
	}
	cost := m.prices[city][commodityID] * qty
	if m.ledger.Cash() < cost {
		return game.Errf(game.CodeInsufficientFunds, "need %d, have %d", cost, m.ledger.Cash())
	}
	if err := m.ledger.Debit(cost); err != nil {
		return err
	}
	if err := m.ledger.AddItems(commodityID, qty); err != nil {
		return err
	}
	m.supply[city][commodityID] = available - qty
	if qty >= m.cfg.Tuning.LargePurchaseQty {
		m.ledger.AddWarrant(qty * m.cfg.Tuning.LargePurchaseHeat)
	}
	return nil
}

// Sell liquidates qty held units at the current city price. Sold goods
// leave the simulated economy; city supply does not replenish.
func (m *Market) Sell(commodityID string, qty int) error {
	if qty <= 0 {
		return game.Errf(game.CodeInvalidQuantity, "sell %d", qty)
	}
	held := m.ledger.ItemCount(commodityID)
	if qty > held {
		return game.Errf(game.CodeInsufficientInventory, "%s: want %d, have %d", commodityID, qty, held)
	}
	revenue := m.prices[m.ledger.CurrentCity()][commodityID] * qty
	if err := m.ledger.RemoveItems(commodityID, qty); err != nil {
		return err
	}
	return m.ledger.Credit(revenue)
}

// SellAll liquidates the entire held inventory at current-city prices in
// one batch. Empty inventory is a NoOp failure, not a silent success.
func (m *Market) SellAll() (int, error) {
	inv := m.ledger.Inventory()
	if len(inv) == 0 {
		return 0, game.Errf(game.CodeNoOp, "nothing to sell")
	}
	commodities := make([]string, 0, len(inv))
	for com := range inv {
		commodities = append(commodities, com)
	}
	sort.Strings(commodities)
	total := 0
	for _, com := range commodities {
		qty := inv[com]
		revenue := m.prices[m.ledger.CurrentCity()][com] * qty
		if err := m.ledger.RemoveItems(com, qty); err != nil {
			return total, err
		}
		if err := m.ledger.Credit(revenue); err != nil {
			return total, err
		}
		total += revenue
	}
	return total, nil
}

// TravelCost prices a trip by distance-index separation, capped.
func (m *Market) TravelCost(destID string) (int, error) {
	from := m.cfg.CityByID(m.ledger.CurrentCity())
	to := m.cfg.CityByID(destID)
	if to == nil {
		return 0, game.Errf(game.CodeNotFound, "city %s", destID)
	}
	steps := from.DistanceIndex - to.DistanceIndex
	if steps < 0 {
		steps = -steps
	}
	cost := m.cfg.Tuning.BaseTravelCost + m.cfg.Tuning.TravelCostPerStep*steps
	if cost > m.cfg.Tuning.MaxTravelCost {
		cost = m.cfg.Tuning.MaxTravelCost
	}
	return cost, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
