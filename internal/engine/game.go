// Package engine wires the economic subsystems into one Game facade and
// provides the tick driver. Every player action and scheduled tick enters
// through here; engine operations run to completion one at a time.
package engine

import (
	"sync"
	"time"

	"github.com/sirsapient/slangbang/internal/config"
	"github.com/sirsapient/slangbang/internal/entropy"
	"github.com/sirsapient/slangbang/internal/game"
	"github.com/sirsapient/slangbang/internal/heat"
	"github.com/sirsapient/slangbang/internal/market"
	"github.com/sirsapient/slangbang/internal/progression"
	"github.com/sirsapient/slangbang/internal/property"
	"github.com/sirsapient/slangbang/internal/raid"
)

const maxRecentEvents = 1000

// Game owns the ledger and every engine. Construct with New or Load; no
// ambient globals. The mutex serializes engine operations against
// observation reads from the API.
type Game struct {
	mu sync.Mutex

	cfg      *config.Config
	ledger   *game.Ledger
	market   *market.Market
	heat     *heat.Engine
	property *property.Engine
	raid     *raid.Engine

	events []game.Event
}

// New starts a fresh game: new ledger at the configured start city, freshly
// rolled markets, and generated rival targets.
func New(cfg *config.Config, rng entropy.Source) *Game {
	g := &Game{cfg: cfg}
	g.ledger = game.NewLedger(cfg.Tuning.StartCity, cfg.Tuning.StartingCash)
	g.wire(rng)
	g.raid.GenerateTargets()
	return g
}

// Snapshot is the complete versioned serializable game state.
type Snapshot struct {
	SaveVersion int           `json:"save_version"`
	SavedAt     time.Time     `json:"saved_at,omitzero"`
	Ledger      game.State    `json:"ledger"`
	Market      market.State  `json:"market"`
	Targets     []raid.Target `json:"targets,omitempty"`
}

// SaveVersion tags snapshots for forward migration.
const SaveVersion = 1

// Load rebuilds a game from a snapshot with merge semantics: missing
// pieces fall back to freshly generated defaults.
func Load(cfg *config.Config, rng entropy.Source, s Snapshot) *Game {
	g := &Game{cfg: cfg}
	g.ledger = game.RestoreLedger(s.Ledger, cfg.Tuning.StartCity)
	g.wire(rng)
	g.market = market.Restore(cfg, g.ledger, rng, s.Market)
	g.property = property.New(cfg, g.ledger, g.market, rng)
	g.raid.RestoreTargets(s.Targets)
	// Operational is derived from staffing and stock; re-derive it instead
	// of trusting whatever the save claims.
	g.ledger.EachBase(func(b *game.Base) {
		b.Recompute(cfg.Tier(b.Level).GangRequired)
	})
	return g
}

func (g *Game) wire(rng entropy.Source) {
	g.ledger.Subscribe(g.recordEvent)
	g.market = market.New(g.cfg, g.ledger, rng)
	g.heat = heat.New(g.cfg, g.ledger, rng)
	g.property = property.New(g.cfg, g.ledger, g.market, rng)
	g.raid = raid.New(g.cfg, g.ledger, rng)
}

// recordEvent keeps a bounded ring of recent events for observers.
func (g *Game) recordEvent(e game.Event) {
	g.events = append(g.events, e)
	if len(g.events) > maxRecentEvents {
		g.events = g.events[len(g.events)-maxRecentEvents:]
	}
}

// Subscribe forwards ledger events to an external listener.
func (g *Game) Subscribe(fn game.Listener) {
	g.ledger.Subscribe(fn)
}

// RecentEvents returns up to n of the latest events, newest last.
func (g *Game) RecentEvents(n int) []game.Event {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n <= 0 || n > len(g.events) {
		n = len(g.events)
	}
	return append([]game.Event(nil), g.events[len(g.events)-n:]...)
}

// ── Scheduled entry points ───────────────────────────────────────────

// AdvanceDay runs the daily cycle in fixed order: warrant decay, base
// income, market drift and restock, then the day cursors advance.
func (g *Game) AdvanceDay() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.heat.DecayWarrant()
	g.property.DailyIncomeTick()
	g.market.DailyUpdate()
	g.ledger.TickDay()
}

// RealtimeSalesTick advances the base trickle-sale accumulators.
// Independent of the day boundary; invoked by the external scheduler.
func (g *Game) RealtimeSalesTick() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.property.RealtimeSalesTick()
}

// ── Trading ──────────────────────────────────────────────────────────

// Buy purchases commodity units at the current city.
func (g *Game) Buy(commodityID string, qty int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.market.Buy(commodityID, qty)
}

// Sell liquidates held units at the current city.
func (g *Game) Sell(commodityID string, qty int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.market.Sell(commodityID, qty)
}

// SellAll liquidates the whole inventory in one batch.
func (g *Game) SellAll() (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.market.SellAll()
}

// TravelResult reports a completed trip, including a police raid when the
// departure heat triggered one.
type TravelResult struct {
	Destination string                  `json:"destination"`
	Cost        int                     `json:"cost"`
	PoliceRaid  *heat.PoliceRaidOutcome `json:"police_raid,omitempty"`
}

// Travel moves to another city: pay the fare, capture heat at departure,
// relocate, shed 40% warrant, then roll the police raid check against the
// departure heat.
func (g *Game) Travel(destID string) (*TravelResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if destID == g.ledger.CurrentCity() {
		return nil, game.Errf(game.CodeNoOp, "already in %s", destID)
	}
	cost, err := g.market.TravelCost(destID)
	if err != nil {
		return nil, err
	}
	heatAtDeparture := g.heat.HeatLevel()
	if err := g.ledger.Debit(cost); err != nil {
		return nil, err
	}
	g.ledger.MoveTo(destID)
	g.heat.TravelReduction()
	return &TravelResult{
		Destination: destID,
		Cost:        cost,
		PoliceRaid:  g.heat.RaidCheck(heatAtDeparture),
	}, nil
}

// ── Workforce and armory ─────────────────────────────────────────────

// Recruit hires gang members into the current city's roster.
func (g *Game) Recruit(n int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n <= 0 {
		return game.Errf(game.CodeInvalidQuantity, "recruit %d", n)
	}
	if err := g.ledger.Debit(n * g.cfg.Tuning.RecruitCost); err != nil {
		return err
	}
	return g.ledger.AddGang(g.ledger.CurrentCity(), n)
}

// BuyGuns arms the current city's stash. Arming up draws attention: each
// gun adds warrant heat.
func (g *Game) BuyGuns(n int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n <= 0 {
		return game.Errf(game.CodeInvalidQuantity, "buy %d guns", n)
	}
	if err := g.ledger.Debit(n * g.cfg.Tuning.GunCost); err != nil {
		return err
	}
	if err := g.ledger.AddGuns(g.ledger.CurrentCity(), n); err != nil {
		return err
	}
	g.ledger.AddWarrant(n * g.cfg.Tuning.GunHeat)
	return nil
}

// ── Bases ────────────────────────────────────────────────────────────

// PurchaseBase buys a level-1 base in a city.
func (g *Game) PurchaseBase(cityID string) (*game.Base, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.property.Purchase(cityID)
}

// AssignGang staffs a base; returns the clamped amount assigned.
func (g *Game) AssignGang(cityID string, n int) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.property.AssignGang(cityID, n)
}

// RemoveGang unstaffs a base; returns the clamped amount removed.
func (g *Game) RemoveGang(cityID string, n int) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.property.RemoveGang(cityID, n)
}

// UpgradeBase advances a base to the next tier.
func (g *Game) UpgradeBase(cityID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.property.Upgrade(cityID)
}

// StoreDrugs moves held drugs into a base.
func (g *Game) StoreDrugs(cityID, commodityID string, qty int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.property.StoreDrugs(cityID, commodityID, qty)
}

// TakeDrugs moves drugs from a base back to the player.
func (g *Game) TakeDrugs(cityID, commodityID string, qty int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.property.TakeDrugs(cityID, commodityID, qty)
}

// CollectBaseCash empties a base safe into pocket cash.
func (g *Game) CollectBaseCash(cityID string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.property.CollectCash(cityID)
}

// ── Raids and heat ───────────────────────────────────────────────────

// AvailableTargets lists raidable rivals in a city at the given time.
// Like LedgerState, the result is a copy safe to hold outside the mutex.
func (g *Game) AvailableTargets(cityID string, now time.Time) []raid.Target {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.raid.AvailableTargets(cityID, now)
}

// ExecuteRaid attacks a rival target with a committed crew. The feature is
// rank-gated; the current rank is derived on the spot.
func (g *Game) ExecuteRaid(targetID string, gangCommitted int, now time.Time) (*raid.Outcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	rank := progression.Rank(g.cfg, g.ledger, g.market)
	return g.raid.Execute(targetID, gangCommitted, now, rank.Level)
}

// Bribe pays down the warrant.
func (g *Game) Bribe() (*heat.BriberyOutcome, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.heat.ProcessBribery()
}

// ── Assets ───────────────────────────────────────────────────────────

// BuyAsset purchases a catalog asset by template ID.
func (g *Game) BuyAsset(templateID string) (*game.OwnedAsset, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	tpl := g.cfg.AssetByID(templateID)
	if tpl == nil {
		return nil, game.Errf(game.CodeNotFound, "asset %s", templateID)
	}
	return g.ledger.BuyAsset(tpl, g.cfg.Tuning.BaseJewelryStorage, g.cfg.Tuning.BaseCarStorage)
}

// SellAsset liquidates an owned asset.
func (g *Game) SellAsset(id string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ledger.SellAsset(id, g.cfg.Tuning.BaseJewelryStorage, g.cfg.Tuning.BaseCarStorage)
}

// WearJewelry puts an owned piece on.
func (g *Game) WearJewelry(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ledger.WearJewelry(id)
}

// RemoveJewelry takes a worn piece off.
func (g *Game) RemoveJewelry(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ledger.RemoveJewelry(id)
}

// ── Observation ──────────────────────────────────────────────────────

// Status is the read-side summary for observers.
type Status struct {
	Day        int    `json:"day"`
	City       string `json:"city"`
	Cash       int    `json:"cash"`
	Warrant    int    `json:"warrant"`
	HeatLevel  int    `json:"heat_level"`
	NetWorth   int    `json:"net_worth"`
	Rank       string `json:"rank"`
	RankLevel  int    `json:"rank_level"`
	GangSize   int    `json:"gang_size"`
	BaseCount  int    `json:"base_count"`
	FlexScore  int    `json:"flex_score"`
	AssetCount int    `json:"asset_count"`
}

// Status summarizes the current game state.
func (g *Game) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	rank := progression.Rank(g.cfg, g.ledger, g.market)
	return Status{
		Day:        g.ledger.Day(),
		City:       g.ledger.CurrentCity(),
		Cash:       g.ledger.Cash(),
		Warrant:    g.ledger.Warrant(),
		HeatLevel:  g.heat.HeatLevel(),
		NetWorth:   progression.NetWorth(g.cfg, g.ledger, g.market),
		Rank:       rank.Name,
		RankLevel:  rank.Level,
		GangSize:   g.ledger.GangSize(),
		BaseCount:  g.ledger.BaseCount(),
		FlexScore:  g.ledger.Assets().FlexScore(),
		AssetCount: len(g.ledger.Assets().Owned),
	}
}

// CityPrices exposes one city's price sheet.
func (g *Game) CityPrices(cityID string) map[string]int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.market.CityPrices(cityID)
}

// HeatLevel exposes the derived heat metric.
func (g *Game) HeatLevel() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.heat.HeatLevel()
}

// LedgerState exports a deep copy of the ledger for observers.
func (g *Game) LedgerState() game.State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ledger.Export()
}

// Snapshot captures the full versioned state for persistence.
func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Snapshot{
		SaveVersion: SaveVersion,
		SavedAt:     time.Now().UTC(),
		Ledger:      g.ledger.Export(),
		Market:      g.market.Export(),
		Targets:     g.raid.Export(),
	}
}
