// Package heat implements the warrant/heat risk engine: accumulation,
// stationary decay, travel reduction, police raid resolution, and bribery.
package heat

import (
	"math"

	"github.com/sirsapient/slangbang/internal/config"
	"github.com/sirsapient/slangbang/internal/entropy"
	"github.com/sirsapient/slangbang/internal/game"
)

// Engine derives heat from the ledger and resolves punitive events.
type Engine struct {
	cfg    *config.Config
	ledger *game.Ledger
	rng    entropy.Source
}

// New wires the heat engine to its collaborators.
func New(cfg *config.Config, ledger *game.Ledger, rng entropy.Source) *Engine {
	return &Engine{cfg: cfg, ledger: ledger, rng: rng}
}

// HeatLevel derives the bounded 0..100 risk metric from the unbounded
// warrant and time spent in the current city:
// min(100, min(warrant/10000, 50) + max(0, daysInCity-3)×5).
func (e *Engine) HeatLevel() int {
	warrantPart := math.Min(float64(e.ledger.Warrant())/10000, 50)
	stayPart := float64(max(0, e.ledger.DaysInCurrentCity()-3) * 5)
	return int(math.Min(100, warrantPart+stayPart))
}

// decayRate escalates the longer the player stays put.
func decayRate(daysSinceTravel int) float64 {
	switch {
	case daysSinceTravel >= 14:
		return 0.08
	case daysSinceTravel >= 7:
		return 0.05
	case daysSinceTravel >= 3:
		return 0.035
	default:
		return 0.02
	}
}

// DecayWarrant applies the daily stationary decay. No effect on the day of
// travel (daysSinceTravel == 0).
func (e *Engine) DecayWarrant() {
	days := e.ledger.DaysSinceTravel()
	if days <= 0 {
		return
	}
	e.ledger.ReduceWarrant(int(math.Floor(float64(e.ledger.Warrant()) * decayRate(days))))
}

// TravelReduction knocks 40% off the warrant on every trip.
func (e *Engine) TravelReduction() {
	e.ledger.ReduceWarrant(int(math.Floor(float64(e.ledger.Warrant()) * 0.4)))
}

// PoliceRaidOutcome reports a resolved police raid in full detail. A raid
// is a valid terminal state of a probabilistic process, not an error.
type PoliceRaidOutcome struct {
	LuckyEscape  bool           `json:"lucky_escape"`
	LossPercent  float64        `json:"loss_percent,omitempty"`
	DrugsLost    map[string]int `json:"drugs_lost,omitempty"`
	CashLost     int            `json:"cash_lost,omitempty"`
	GunsLost     int            `json:"guns_lost,omitempty"`
	WarrantDelta int            `json:"warrant_delta"`
}

// RaidCheck rolls for a police raid after travel. heatAtDeparture is the
// heat level captured before the travel reset (post-travel heat cannot
// reach the trigger threshold since the day counter restarts at 1).
// Returns nil when heat is below 70 or the roll misses.
func (e *Engine) RaidCheck(heatAtDeparture int) *PoliceRaidOutcome {
	if heatAtDeparture < 70 {
		return nil
	}
	chance := math.Min(0.3, float64(heatAtDeparture-70)/100)
	if e.rng.Float() >= chance {
		return nil
	}
	return e.ExecuteRaid()
}

// ExecuteRaid resolves a triggered police raid against the player.
// Roll order: loss percent, cash fraction, gun fraction, warrant bump.
func (e *Engine) ExecuteRaid() *PoliceRaidOutcome {
	l := e.ledger
	city := l.CurrentCity()
	guns := l.GunsIn(city)
	inv := l.Inventory()

	if len(inv) == 0 && guns == 0 {
		// Nothing to find. The scare still halves the warrant.
		w := l.Warrant()
		cut := w - w/2
		l.ReduceWarrant(cut)
		out := &PoliceRaidOutcome{LuckyEscape: true, WarrantDelta: -cut}
		l.Emit(game.Event{Kind: game.EventPoliceRaid, City: city, Detail: out})
		return out
	}

	protection := math.Min(0.4, float64(guns)*0.02)
	lossPct := math.Max(0.1, entropy.Between(e.rng, 0.3, 0.7)-protection)

	out := &PoliceRaidOutcome{LossPercent: lossPct, DrugsLost: make(map[string]int)}
	for com, held := range inv {
		lost := int(math.Floor(float64(held) * lossPct))
		if lost > 0 {
			// Held quantity was just read; removal cannot fail.
			_ = l.RemoveItems(com, lost)
			out.DrugsLost[com] = lost
		}
	}
	out.CashLost = int(math.Floor(float64(l.Cash()) * entropy.Between(e.rng, 0.1, 0.3)))
	if out.CashLost > 0 {
		_ = l.Debit(out.CashLost)
	}
	out.GunsLost = int(math.Floor(float64(guns) * entropy.Between(e.rng, 0.1, 0.3)))
	if out.GunsLost > 0 {
		_ = l.RemoveGuns(city, out.GunsLost)
	}
	out.WarrantDelta = entropy.IntBetween(e.rng, 5000, 15000)
	l.AddWarrant(out.WarrantDelta)

	l.Emit(game.Event{Kind: game.EventPoliceRaid, City: city, Detail: out})
	return out
}

// BriberyCost quotes the price of making the warrant mostly disappear.
func (e *Engine) BriberyCost() (cost, reduction int) {
	w := e.ledger.Warrant()
	return w * 2, int(math.Floor(float64(w) * 0.75))
}

// BriberyOutcome reports a processed bribe.
type BriberyOutcome struct {
	Cost      int  `json:"cost"`
	Reduction int  `json:"reduction"`
	Backfired bool `json:"backfired"`
	Backfire  int  `json:"backfire,omitempty"`
}

// ProcessBribery pays off the authorities: deducts cost, reduces warrant by
// 75%, with a 5% chance the bribe backfires and adds 10% of the cost back
// as fresh warrant.
func (e *Engine) ProcessBribery() (*BriberyOutcome, error) {
	cost, reduction := e.BriberyCost()
	if e.ledger.Warrant() == 0 {
		return nil, game.Errf(game.CodeNoOp, "no warrant to bribe away")
	}
	if e.ledger.Cash() < cost {
		return nil, game.Errf(game.CodeInsufficientFunds, "bribe costs %d, have %d", cost, e.ledger.Cash())
	}
	if err := e.ledger.Debit(cost); err != nil {
		return nil, err
	}
	e.ledger.ReduceWarrant(reduction)

	out := &BriberyOutcome{Cost: cost, Reduction: reduction}
	if e.rng.Float() < 0.05 {
		out.Backfired = true
		out.Backfire = int(math.Floor(float64(cost) * 0.1))
		e.ledger.AddWarrant(out.Backfire)
	}
	e.ledger.Emit(game.Event{Kind: game.EventBribePaid, Value: cost, Detail: out})
	return out, nil
}
