package engine

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sirsapient/slangbang/internal/config"
	"github.com/sirsapient/slangbang/internal/entropy"
	"github.com/sirsapient/slangbang/internal/game"
)

func newGame(t *testing.T, rng entropy.Source) (*Game, *config.Config) {
	t.Helper()
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return New(cfg, rng), cfg
}

func TestNewGameStartsAtConfiguredCity(t *testing.T) {
	g, cfg := newGame(t, &entropy.Fixed{Rolls: []float64{0.5}})
	s := g.Status()
	if s.City != cfg.Tuning.StartCity || s.Cash != cfg.Tuning.StartingCash {
		t.Fatalf("fresh game: city=%s cash=%d", s.City, s.Cash)
	}
	if s.Day != 1 || s.Rank == "" {
		t.Fatalf("fresh status: %+v", s)
	}
	for _, city := range cfg.Cities {
		if len(g.AvailableTargets(city.ID, time.Now())) == 0 {
			t.Fatalf("fresh game has no targets in %s", city.ID)
		}
	}
}

func TestTravel(t *testing.T) {
	g, _ := newGame(t, &entropy.Fixed{Rolls: []float64{0.5}})

	if _, err := g.Travel("atlanta"); game.CodeOf(err) != game.CodeNoOp {
		t.Fatalf("same-city travel should be a no-op, got %v", err)
	}
	if _, err := g.Travel("narnia"); game.CodeOf(err) != game.CodeNotFound {
		t.Fatalf("unknown destination: %v", err)
	}

	res, err := g.Travel("houston")
	if err != nil {
		t.Fatalf("travel: %v", err)
	}
	if res.Cost != 300 || res.Destination != "houston" {
		t.Fatalf("travel result: %+v", res)
	}
	if res.PoliceRaid != nil {
		t.Fatalf("cold player should never be raided")
	}
	s := g.Status()
	if s.City != "houston" || s.Cash != 5000-300 {
		t.Fatalf("post-travel: city=%s cash=%d", s.City, s.Cash)
	}
}

func TestTravelShedsWarrant(t *testing.T) {
	g, _ := newGame(t, &entropy.Fixed{Rolls: []float64{0.5}})
	g.ledger.AddWarrant(10000)
	if _, err := g.Travel("houston"); err != nil {
		t.Fatalf("travel: %v", err)
	}
	if got := g.Status().Warrant; got != 6000 {
		t.Fatalf("warrant after travel = %d, want 6000", got)
	}
}

func TestAdvanceDayOrdering(t *testing.T) {
	g, _ := newGame(t, &entropy.Fixed{Rolls: []float64{0.5}})
	g.ledger.AddWarrant(10000)

	g.AdvanceDay()
	s := g.Status()
	if s.Day != 2 {
		t.Fatalf("day = %d", s.Day)
	}
	// Decay runs before the cursor advance: daysSinceTravel was still 0,
	// so the travel-day exemption applies on day one.
	if s.Warrant != 10000 {
		t.Fatalf("warrant = %d, want untouched on day 1", s.Warrant)
	}

	g.AdvanceDay()
	if got := g.Status().Warrant; got != 9800 {
		t.Fatalf("warrant = %d, want 9800 after 2%% decay", got)
	}
}

func TestRecruitAndBuyGuns(t *testing.T) {
	g, cfg := newGame(t, &entropy.Fixed{Rolls: []float64{0.5}})
	g.ledger.Credit(100000)

	if err := g.Recruit(0); game.CodeOf(err) != game.CodeInvalidQuantity {
		t.Fatalf("zero recruit: %v", err)
	}
	before := g.Status().Cash
	if err := g.Recruit(2); err != nil {
		t.Fatalf("recruit: %v", err)
	}
	if got := g.Status(); got.GangSize != 2 || got.Cash != before-2*cfg.Tuning.RecruitCost {
		t.Fatalf("post-recruit: gang=%d cash=%d", got.GangSize, got.Cash)
	}

	if err := g.BuyGuns(4); err != nil {
		t.Fatalf("buy guns: %v", err)
	}
	if got := g.Status().Warrant; got != 4*cfg.Tuning.GunHeat {
		t.Fatalf("gun warrant = %d", got)
	}
	if got := g.ledger.GunsIn(cfg.Tuning.StartCity); got != 4 {
		t.Fatalf("guns = %d", got)
	}
}

func TestRaidIsRankGated(t *testing.T) {
	g, _ := newGame(t, &entropy.Fixed{Rolls: []float64{0.5}})
	targets := g.AvailableTargets("atlanta", time.Now())
	if len(targets) == 0 {
		t.Fatalf("no targets generated")
	}
	_, err := g.ExecuteRaid(targets[0].ID, 1, time.Now())
	if game.CodeOf(err) != game.CodeLocked {
		t.Fatalf("fresh player should be rank-locked, got %v", err)
	}
}

func TestAvailableTargetsDetachedFromEngine(t *testing.T) {
	g, _ := newGame(t, &entropy.Fixed{Rolls: []float64{0.5}})
	held := g.AvailableTargets("atlanta", time.Now())
	if len(held) == 0 {
		t.Fatalf("no targets generated")
	}
	held[0].Cash = -1
	if again := g.AvailableTargets("atlanta", time.Now()); again[0].Cash == -1 {
		t.Fatalf("observer write reached engine state")
	}
}

func TestRecentEventsRing(t *testing.T) {
	g, _ := newGame(t, &entropy.Fixed{Rolls: []float64{0.5}})
	for i := 0; i < maxRecentEvents+100; i++ {
		g.ledger.Credit(1)
	}
	all := g.RecentEvents(0)
	if len(all) != maxRecentEvents {
		t.Fatalf("ring size = %d, want %d", len(all), maxRecentEvents)
	}
	last := g.RecentEvents(5)
	if len(last) != 5 {
		t.Fatalf("limited fetch = %d", len(last))
	}
	if last[4].Value != all[len(all)-1].Value {
		t.Fatalf("newest event should come last")
	}
}

func TestSnapshotLoadRoundTrip(t *testing.T) {
	g, cfg := newGame(t, &entropy.Fixed{Rolls: []float64{0.5}})
	g.ledger.Credit(250000)
	g.Recruit(4)
	g.Buy("weed", 5)
	if _, err := g.PurchaseBase("atlanta"); err != nil {
		t.Fatalf("purchase base: %v", err)
	}
	g.AssignGang("atlanta", 4)
	g.StoreDrugs("atlanta", "weed", 3)
	g.AdvanceDay()

	snap := g.Snapshot()
	if snap.SaveVersion != SaveVersion {
		t.Fatalf("snapshot version = %d", snap.SaveVersion)
	}

	// Loading through JSON mirrors the persistence path.
	raw, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Snapshot
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	restored := Load(cfg, &entropy.Fixed{Rolls: []float64{0.5}}, decoded)
	a, b := g.Status(), restored.Status()
	if a != b {
		t.Fatalf("status diverged after load:\n%+v\nvs\n%+v", a, b)
	}
	// The daily tick consumed one of the three stored units.
	if got := restored.ledger.BaseAt("atlanta"); got == nil || got.Inventory["weed"] != 2 {
		t.Fatalf("base stock lost on load")
	}
	if len(restored.raid.TargetsIn("atlanta")) != len(g.raid.TargetsIn("atlanta")) {
		t.Fatalf("targets lost on load")
	}
}

func TestLoadEmptySnapshotYieldsPlayableGame(t *testing.T) {
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	g := Load(cfg, &entropy.Fixed{Rolls: []float64{0.5}}, Snapshot{})
	s := g.Status()
	if s.City != cfg.Tuning.StartCity || s.Day != 1 {
		t.Fatalf("empty load: %+v", s)
	}
	// Merge semantics regenerate what the save lacks.
	if g.CityPrices("atlanta")["weed"] == 0 {
		t.Fatalf("markets not regenerated")
	}
	if len(g.AvailableTargets("atlanta", time.Now())) == 0 {
		t.Fatalf("targets not regenerated")
	}
}

func TestLoadRederivesOperational(t *testing.T) {
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	snap := Snapshot{
		SaveVersion: SaveVersion,
		Ledger: game.State{
			Cash:        1000,
			CurrentCity: "atlanta",
			Day:         3,
			Bases: map[string]game.Base{
				// Claims to be running with nothing to sell.
				"atlanta": {City: "atlanta", Level: 1, AssignedGang: 4, Operational: true},
				// Staffed and stocked but saved as idle.
				"miami": {City: "miami", Level: 1, AssignedGang: 4,
					Inventory: map[string]int{"weed": 2}},
			},
		},
	}
	g := Load(cfg, &entropy.Fixed{Rolls: []float64{0.5}}, snap)
	if g.ledger.BaseAt("atlanta").Operational {
		t.Fatalf("empty base restored as operational")
	}
	if !g.ledger.BaseAt("miami").Operational {
		t.Fatalf("staffed, stocked base restored as idle")
	}
}

func TestDriverCadence(t *testing.T) {
	d := NewDriver(3, 6)
	var ticks, days, saves int
	d.OnTick = func(uint64) { ticks++ }
	d.OnDay = func(uint64) { days++ }
	d.OnAutosave = func(uint64) { saves++ }

	for i := 0; i < 12; i++ {
		d.step()
	}
	if ticks != 12 || days != 4 || saves != 2 {
		t.Fatalf("cadence = %d/%d/%d, want 12/4/2", ticks, days, saves)
	}
	if d.Tick != 12 {
		t.Fatalf("tick counter = %d", d.Tick)
	}
}

func TestDriverStopFromAnotherGoroutine(t *testing.T) {
	d := NewDriver(3, 6)
	d.Interval = time.Millisecond
	done := make(chan struct{})
	go func() {
		d.Run()
		close(done)
	}()
	for !d.running.Load() {
		time.Sleep(time.Millisecond)
	}
	d.Stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("driver kept running after Stop")
	}
}
