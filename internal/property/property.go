// Package property implements the base engine: purchase and upgrade of
// income properties, gang staffing, daily income generation bounded by safe
// capacity, drug storage, and the real-time trickle sales path.
package property

import (
	"math"
	"sort"

	"github.com/sirsapient/slangbang/internal/config"
	"github.com/sirsapient/slangbang/internal/entropy"
	"github.com/sirsapient/slangbang/internal/game"
	"github.com/sirsapient/slangbang/internal/market"
)

// Engine operates every player-owned base through the ledger.
type Engine struct {
	cfg    *config.Config
	ledger *game.Ledger
	market *market.Market
	rng    entropy.Source
}

// New wires the property engine to its collaborators. The market is needed
// for trickle-sale pricing.
func New(cfg *config.Config, ledger *game.Ledger, mkt *market.Market, rng entropy.Source) *Engine {
	return &Engine{cfg: cfg, ledger: ledger, market: mkt, rng: rng}
}

// Purchase buys a level-1 base in a city. Requires no existing base there,
// a minimum crew, and the tier cost scaled by the city's heat modifier.
func (e *Engine) Purchase(cityID string) (*game.Base, error) {
	city := e.cfg.CityByID(cityID)
	if city == nil {
		return nil, game.Errf(game.CodeNotFound, "city %s", cityID)
	}
	if e.ledger.BaseAt(cityID) != nil {
		return nil, game.Errf(game.CodeAlreadyOwned, "base in %s", cityID)
	}
	tier1 := e.cfg.Tier(1)
	if e.ledger.GangSize() < tier1.GangRequired {
		return nil, game.Errf(game.CodeInsufficientGang, "need %d members, have %d", tier1.GangRequired, e.ledger.GangSize())
	}
	cost := int(math.Floor(float64(tier1.Cost) * city.HeatModifier))
	if err := e.ledger.Debit(cost); err != nil {
		return nil, err
	}
	b := game.NewBase(cityID)
	if err := e.ledger.AddBase(b); err != nil {
		return nil, err
	}
	return b, nil
}

// AssignGang staffs a base from the city's unassigned roster. The request
// is clamped to what is available; the clamped amount is returned.
func (e *Engine) AssignGang(cityID string, n int) (int, error) {
	if n <= 0 {
		return 0, game.Errf(game.CodeInvalidQuantity, "assign %d", n)
	}
	b := e.ledger.BaseAt(cityID)
	if b == nil {
		return 0, game.Errf(game.CodeNotFound, "no base in %s", cityID)
	}
	if free := e.ledger.UnassignedIn(cityID); n > free {
		n = free
	}
	if n == 0 {
		return 0, game.Errf(game.CodeInsufficientGang, "no unassigned members in %s", cityID)
	}
	b.AssignedGang += n
	b.Recompute(e.tier(b).GangRequired)
	e.ledger.Emit(game.Event{Kind: game.EventBaseChanged, City: cityID, Value: b.AssignedGang})
	return n, nil
}

// RemoveGang pulls staff off a base back into the unassigned roster.
func (e *Engine) RemoveGang(cityID string, n int) (int, error) {
	if n <= 0 {
		return 0, game.Errf(game.CodeInvalidQuantity, "remove %d", n)
	}
	b := e.ledger.BaseAt(cityID)
	if b == nil {
		return 0, game.Errf(game.CodeNotFound, "no base in %s", cityID)
	}
	if n > b.AssignedGang {
		n = b.AssignedGang
	}
	if n == 0 {
		return 0, game.Errf(game.CodeNoOp, "base in %s is unstaffed", cityID)
	}
	b.AssignedGang -= n
	b.Recompute(e.tier(b).GangRequired)
	e.ledger.Emit(game.Event{Kind: game.EventBaseChanged, City: cityID, Value: b.AssignedGang})
	return n, nil
}

// Income computes one day of income for a base: tier income scaled by
// staffing efficiency, with a bonus multiplier when drugs are in stock.
func (e *Engine) Income(b *game.Base) int {
	tier := e.tier(b)
	efficiency := math.Min(1, float64(b.AssignedGang)/float64(tier.GangRequired))
	bonus := 1.0
	if b.TotalInventory() > 0 {
		bonus = e.cfg.Tuning.IncomeDrugBonus
	}
	return int(math.Floor(float64(tier.Income) * efficiency * bonus))
}

// DailyIncomeTick credits income into every operational base's safe (capped
// at the tier limit) and consumes one unit of one randomly chosen in-stock
// commodity. A base can flip non-operational mid-tick when that unit was
// its last.
func (e *Engine) DailyIncomeTick() {
	for _, b := range e.sortedBases() {
		if !b.Operational {
			continue
		}
		tier := e.tier(b)
		b.Deposit(e.Income(b), tier.MaxSafe)

		stocked := b.StockedCommodities()
		if len(stocked) > 0 {
			sort.Strings(stocked)
			pick := stocked[entropy.IntBetween(e.rng, 0, len(stocked)-1)]
			_ = b.Take(pick, 1)
		}
		b.Recompute(tier.GangRequired)
		e.ledger.Emit(game.Event{Kind: game.EventBaseChanged, City: b.City, Value: b.CashStored})
	}
}

// RealtimeSalesTick advances the trickle-sale accumulator for every
// operational base: each stocked commodity sells at a fixed fractional rate
// per tick at a markup over the base city's market price. Whole units are
// deducted as the accumulator crosses 1.0 and revenue lands in the safe,
// capped at the tier limit like the daily path.
func (e *Engine) RealtimeSalesTick() {
	rate := e.cfg.Tuning.RealtimeSaleRate
	markup := e.cfg.Tuning.RealtimeMarkup
	for _, b := range e.sortedBases() {
		if !b.Operational {
			continue
		}
		tier := e.tier(b)
		changed := false
		for _, com := range sortedKeys(b.Inventory) {
			if b.Inventory[com] <= 0 {
				continue
			}
			b.SaleProgress[com] += rate
			for b.SaleProgress[com] >= 1 && b.Inventory[com] > 0 {
				b.SaleProgress[com] -= 1
				_ = b.Take(com, 1)
				revenue := int(math.Floor(float64(e.market.Price(b.City, com)) * markup))
				b.Deposit(revenue, tier.MaxSafe)
				changed = true
			}
			if b.Inventory[com] == 0 {
				delete(b.SaleProgress, com)
			}
		}
		if changed {
			b.Recompute(tier.GangRequired)
			e.ledger.Emit(game.Event{Kind: game.EventBaseChanged, City: b.City, Value: b.CashStored})
		}
	}
}

// Upgrade advances a base to the next tier. Top-tier bases cannot upgrade.
func (e *Engine) Upgrade(cityID string) error {
	b := e.ledger.BaseAt(cityID)
	if b == nil {
		return game.Errf(game.CodeNotFound, "no base in %s", cityID)
	}
	tier := e.tier(b)
	if tier.UpgradeCost == 0 {
		return game.Errf(game.CodeLocked, "%s base is already a %s", cityID, tier.Name)
	}
	if err := e.ledger.Debit(tier.UpgradeCost); err != nil {
		return err
	}
	b.Level++
	b.Recompute(e.tier(b).GangRequired)
	e.ledger.Emit(game.Event{Kind: game.EventBaseChanged, City: cityID, Value: b.Level})
	return nil
}

// StoreDrugs moves held drugs into a base, bounded by the aggregate and
// per-commodity capacities. All-or-nothing.
func (e *Engine) StoreDrugs(cityID, commodityID string, qty int) error {
	if qty <= 0 {
		return game.Errf(game.CodeInvalidQuantity, "store %d", qty)
	}
	b := e.ledger.BaseAt(cityID)
	if b == nil {
		return game.Errf(game.CodeNotFound, "no base in %s", cityID)
	}
	if held := e.ledger.ItemCount(commodityID); held < qty {
		return game.Errf(game.CodeInsufficientInventory, "%s: need %d, have %d", commodityID, qty, held)
	}
	tier := e.tier(b)
	if err := b.Store(commodityID, qty, tier.MaxInventory, e.cfg.PerCommodityCap(tier)); err != nil {
		return err
	}
	// Held quantity was checked above; removal cannot fail.
	_ = e.ledger.RemoveItems(commodityID, qty)
	b.Recompute(tier.GangRequired)
	e.ledger.Emit(game.Event{Kind: game.EventBaseChanged, City: cityID, Commodity: commodityID, Delta: qty})
	return nil
}

// TakeDrugs moves drugs from a base back into the player's inventory.
func (e *Engine) TakeDrugs(cityID, commodityID string, qty int) error {
	b := e.ledger.BaseAt(cityID)
	if b == nil {
		return game.Errf(game.CodeNotFound, "no base in %s", cityID)
	}
	if err := b.Take(commodityID, qty); err != nil {
		return err
	}
	_ = e.ledger.AddItems(commodityID, qty)
	b.Recompute(e.tier(b).GangRequired)
	e.ledger.Emit(game.Event{Kind: game.EventBaseChanged, City: cityID, Commodity: commodityID, Delta: -qty})
	return nil
}

// CollectCash empties a base's safe into the player's pocket.
func (e *Engine) CollectCash(cityID string) (int, error) {
	b := e.ledger.BaseAt(cityID)
	if b == nil {
		return 0, game.Errf(game.CodeNotFound, "no base in %s", cityID)
	}
	if b.CashStored == 0 {
		return 0, game.Errf(game.CodeNoOp, "safe in %s is empty", cityID)
	}
	amount := b.CashStored
	b.CashStored = 0
	if err := e.ledger.Credit(amount); err != nil {
		return 0, err
	}
	e.ledger.Emit(game.Event{Kind: game.EventBaseChanged, City: cityID, Value: 0})
	return amount, nil
}

func (e *Engine) tier(b *game.Base) *config.PropertyTier {
	return e.cfg.Tier(b.Level)
}

// sortedBases returns bases in city order so random commodity picks consume
// entropy deterministically.
func (e *Engine) sortedBases() []*game.Base {
	var bases []*game.Base
	e.ledger.EachBase(func(b *game.Base) { bases = append(bases, b) })
	sort.Slice(bases, func(i, j int) bool { return bases[i].City < bases[j].City })
	return bases
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
