// Package raid implements attacks on generated rival properties: target
// generation, cooldown tracking, the success-probability model, and
// loot/loss resolution.
package raid

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/sirsapient/slangbang/internal/config"
	"github.com/sirsapient/slangbang/internal/entropy"
	"github.com/sirsapient/slangbang/internal/game"
)

// Target is a synthetic rival property. A target is raidable only when its
// cooldown window has elapsed.
type Target struct {
	ID         string         `json:"id"`
	City       string         `json:"city"`
	Difficulty float64        `json:"difficulty"`
	TierLevel  int            `json:"tier_level"`
	Cash       int            `json:"cash"`
	Drugs      map[string]int `json:"drugs"`
	GangSize   int            `json:"gang_size"`
	LastRaid   time.Time      `json:"last_raid,omitzero"`
}

// Engine generates and resolves raids against rival targets.
type Engine struct {
	cfg    *config.Config
	ledger *game.Ledger
	rng    entropy.Source

	targets map[string][]*Target // city → targets
}

// New creates a raid engine with no targets. Call GenerateTargets for a
// fresh game or RestoreTargets when loading a save.
func New(cfg *config.Config, ledger *game.Ledger, rng entropy.Source) *Engine {
	return &Engine{cfg: cfg, ledger: ledger, rng: rng, targets: make(map[string][]*Target)}
}

// GenerateTargets seeds 2–4 rival properties per city. Difficulty maps to a
// property tier (<0.3 tier 1, <0.7 tier 2, else tier 3); cash, stock, and
// crew scale with difficulty.
func (e *Engine) GenerateTargets() {
	for _, city := range e.cfg.Cities {
		count := entropy.IntBetween(e.rng, 2, 4)
		targets := make([]*Target, 0, count)
		for i := 0; i < count; i++ {
			targets = append(targets, e.generateTarget(city.ID))
		}
		e.targets[city.ID] = targets
	}
}

func (e *Engine) generateTarget(cityID string) *Target {
	difficulty := e.rng.Float()
	level := 1
	switch {
	case difficulty >= 0.7:
		level = 3
	case difficulty >= 0.3:
		level = 2
	}
	tier := e.cfg.Tier(level)

	t := &Target{
		ID:         uuid.NewString(),
		City:       cityID,
		Difficulty: difficulty,
		TierLevel:  level,
		Cash:       int(math.Floor(float64(tier.MaxSafe) * (0.25 + 0.75*difficulty))),
		Drugs:      make(map[string]int),
		GangSize:   int(math.Floor(float64(tier.GangRequired) * (0.5 + 0.5*difficulty))),
	}

	// Stock one to three commodities, amounts scaling with difficulty.
	perCap := e.cfg.PerCommodityCap(tier)
	stockLines := entropy.IntBetween(e.rng, 1, 3)
	for i := 0; i < stockLines; i++ {
		com := e.cfg.Commodities[entropy.IntBetween(e.rng, 0, len(e.cfg.Commodities)-1)]
		qty := int(math.Floor(float64(perCap) * (0.3 + 0.7*difficulty)))
		if qty < 1 {
			qty = 1
		}
		t.Drugs[com.ID] += qty
	}
	return t
}

// TargetsIn lists every target in a city, raidable or not.
func (e *Engine) TargetsIn(cityID string) []*Target {
	return e.targets[cityID]
}

// cooldown is the window during which a raided target cannot be hit again.
func (e *Engine) cooldown() time.Duration {
	return time.Duration(e.cfg.Tuning.RaidCooldownHours) * time.Hour
}

// AvailableTargets filters a city's targets to those outside the cooldown
// window at the given time. The returned targets are copies; observers
// never hold live engine state.
func (e *Engine) AvailableTargets(cityID string, now time.Time) []Target {
	var out []Target
	for _, t := range e.targets[cityID] {
		if t.LastRaid.IsZero() || now.Sub(t.LastRaid) > e.cooldown() {
			copied := *t
			copied.Drugs = copyIntMap(t.Drugs)
			out = append(out, copied)
		}
	}
	return out
}

// SuccessChance models the odds of a raid succeeding:
// base 0.5, adjusted by crew ratio, gun support (capped), and target
// difficulty, clamped to [0.05, 0.95].
func SuccessChance(attackerGang, attackerGuns int, difficulty float64, defenderGang int) float64 {
	defenders := defenderGang
	if defenders < 1 {
		defenders = 1
	}
	chance := 0.5
	chance += (float64(attackerGang)/float64(defenders) - 1) * 0.3
	chance += math.Min(float64(attackerGuns)*0.1, 0.3)
	chance -= difficulty * 0.4
	return math.Min(0.95, math.Max(0.05, chance))
}

// Outcome reports a resolved raid in full detail. Failure is a valid
// terminal state, not an error.
type Outcome struct {
	TargetID     string         `json:"target_id"`
	Success      bool           `json:"success"`
	Chance       float64        `json:"chance"`
	Roll         float64        `json:"roll"`
	LootCash     int            `json:"loot_cash,omitempty"`
	LootDrugs    map[string]int `json:"loot_drugs,omitempty"`
	GangLost     int            `json:"gang_lost"`
	WarrantDelta int            `json:"warrant_delta"`
}

// Execute raids a rival target in the player's current city with a
// committed crew. Guns in that city must match the crew one to one.
// rankLevel gates the whole feature. On success the loot fraction grows
// with the success chance and the target's cooldown resets; a failed crew
// slips away unnoticed, so failure leaves the cooldown untouched.
func (e *Engine) Execute(targetID string, gangCommitted int, now time.Time, rankLevel int) (*Outcome, error) {
	if rankLevel < e.cfg.Tuning.RaidRankRequired {
		return nil, game.Errf(game.CodeLocked, "raiding unlocks at rank %d", e.cfg.Tuning.RaidRankRequired)
	}
	if gangCommitted <= 0 {
		return nil, game.Errf(game.CodeInvalidQuantity, "commit %d", gangCommitted)
	}
	city := e.ledger.CurrentCity()
	target := e.findTarget(city, targetID)
	if target == nil {
		return nil, game.Errf(game.CodeNotFound, "target %s in %s", targetID, city)
	}
	if !target.LastRaid.IsZero() && now.Sub(target.LastRaid) <= e.cooldown() {
		return nil, game.Errf(game.CodeOnCooldown, "target raided %s ago", now.Sub(target.LastRaid))
	}
	if free := e.ledger.UnassignedIn(city); free < gangCommitted {
		return nil, game.Errf(game.CodeInsufficientGang, "need %d unassigned, have %d", gangCommitted, free)
	}
	guns := e.ledger.GunsIn(city)
	if guns < gangCommitted {
		return nil, game.Errf(game.CodeInsufficientGuns, "need %d guns in %s, have %d", gangCommitted, city, guns)
	}

	chance := SuccessChance(gangCommitted, guns, target.Difficulty, target.GangSize)
	roll := e.rng.Float()
	out := &Outcome{TargetID: target.ID, Chance: chance, Roll: roll}

	baseHeat := int(math.Floor(float64(gangCommitted) * 1000 * (1 + target.Difficulty)))

	if roll < chance {
		out.Success = true
		lootFrac := 0.3 + chance*0.7
		out.LootCash = int(math.Floor(float64(target.Cash) * lootFrac))
		target.Cash -= out.LootCash
		if err := e.ledger.Credit(out.LootCash); err != nil {
			return nil, err
		}
		out.LootDrugs = make(map[string]int)
		for _, com := range sortedKeys(target.Drugs) {
			looted := int(math.Floor(float64(target.Drugs[com]) * lootFrac))
			if looted <= 0 {
				continue
			}
			target.Drugs[com] -= looted
			out.LootDrugs[com] = looted
			_ = e.ledger.AddItems(com, looted)
		}
		out.GangLost = int(math.Floor(float64(gangCommitted) * successLossPercent(chance)))
		out.WarrantDelta = baseHeat
		target.LastRaid = now
	} else {
		out.GangLost = int(math.Floor(float64(gangCommitted) * 0.6))
		out.WarrantDelta = baseHeat + baseHeat/2
	}

	if out.GangLost > 0 {
		_ = e.ledger.RemoveGang(city, out.GangLost)
	}
	e.ledger.AddWarrant(out.WarrantDelta)
	e.ledger.Emit(game.Event{Kind: game.EventRaidResolved, City: city, Detail: out})
	return out, nil
}

// successLossPercent bands gang casualties by how comfortable the win was.
func successLossPercent(chance float64) float64 {
	switch {
	case chance > 0.8:
		return 0
	case chance > 0.6:
		return 0.1
	case chance > 0.4:
		return 0.2
	default:
		return 0.4
	}
}

func (e *Engine) findTarget(cityID, targetID string) *Target {
	for _, t := range e.targets[cityID] {
		if t.ID == targetID {
			return t
		}
	}
	return nil
}

// Export snapshots every target for persistence.
func (e *Engine) Export() []Target {
	var out []Target
	for _, city := range sortedCityKeys(e.targets) {
		for _, t := range e.targets[city] {
			copied := *t
			copied.Drugs = copyIntMap(t.Drugs)
			out = append(out, copied)
		}
	}
	return out
}

// RestoreTargets rebuilds the target set from a save. An empty save falls
// back to fresh generation (merge semantics).
func (e *Engine) RestoreTargets(saved []Target) {
	if len(saved) == 0 {
		e.GenerateTargets()
		return
	}
	e.targets = make(map[string][]*Target)
	for i := range saved {
		t := saved[i]
		if e.cfg.CityByID(t.City) == nil {
			continue
		}
		if t.Drugs == nil {
			t.Drugs = make(map[string]int)
		}
		e.targets[t.City] = append(e.targets[t.City], &t)
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedCityKeys(m map[string][]*Target) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func copyIntMap(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
