package heat

import (
	"testing"

	"github.com/sirsapient/slangbang/internal/config"
	"github.com/sirsapient/slangbang/internal/entropy"
	"github.com/sirsapient/slangbang/internal/game"
)

func newEngine(t *testing.T, cash int, rng entropy.Source) (*Engine, *game.Ledger) {
	t.Helper()
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	ledger := game.NewLedger(cfg.Tuning.StartCity, cash)
	return New(cfg, ledger, rng), ledger
}

func TestHeatLevel(t *testing.T) {
	cases := []struct {
		warrant   int
		extraDays int // days beyond the starting 1
		want      int
	}{
		{0, 0, 0},
		{10000, 0, 1},
		{10000, 5, 16},    // 1 + (6-3)*5
		{500000, 0, 50},   // warrant part capped at 50
		{500000, 20, 100}, // stay part pushes to the ceiling
	}
	for _, tc := range cases {
		e, ledger := newEngine(t, 0, &entropy.Fixed{})
		ledger.AddWarrant(tc.warrant)
		for i := 0; i < tc.extraDays; i++ {
			ledger.TickDay()
		}
		if got := e.HeatLevel(); got != tc.want {
			t.Fatalf("warrant=%d days=%d: heat = %d, want %d", tc.warrant, tc.extraDays+1, got, tc.want)
		}
	}
}

func TestDecayRateEscalates(t *testing.T) {
	cases := []struct {
		days int
		want float64
	}{
		{0, 0.02}, {1, 0.02}, {2, 0.02},
		{3, 0.035}, {6, 0.035},
		{7, 0.05}, {13, 0.05},
		{14, 0.08}, {100, 0.08},
	}
	for _, tc := range cases {
		if got := decayRate(tc.days); got != tc.want {
			t.Fatalf("decayRate(%d) = %v, want %v", tc.days, got, tc.want)
		}
	}
}

func TestDecayWarrant(t *testing.T) {
	e, ledger := newEngine(t, 0, &entropy.Fixed{})
	ledger.AddWarrant(10000)

	// Day of travel: no decay.
	e.DecayWarrant()
	if ledger.Warrant() != 10000 {
		t.Fatalf("decay applied on travel day: %d", ledger.Warrant())
	}

	ledger.TickDay() // daysSinceTravel = 1 → 2% rate
	e.DecayWarrant()
	if ledger.Warrant() != 9800 {
		t.Fatalf("warrant = %d, want 9800", ledger.Warrant())
	}
}

func TestTravelReduction(t *testing.T) {
	e, ledger := newEngine(t, 0, &entropy.Fixed{})
	ledger.AddWarrant(10001)
	e.TravelReduction()
	// 40% of 10001 floors to 4000.
	if ledger.Warrant() != 6001 {
		t.Fatalf("warrant = %d, want 6001", ledger.Warrant())
	}
}

func TestRaidCheckThreshold(t *testing.T) {
	e, _ := newEngine(t, 0, &entropy.Fixed{Rolls: []float64{0.0}})
	if e.RaidCheck(69) != nil {
		t.Fatalf("heat below 70 must never raid")
	}

	// Heat 100 → chance capped at 0.3. A 0.29 roll triggers, 0.3 misses.
	e2, ledger := newEngine(t, 0, &entropy.Fixed{Rolls: []float64{0.3}})
	ledger.AddWarrant(1)
	if e2.RaidCheck(100) != nil {
		t.Fatalf("roll at the chance boundary should miss")
	}
	e3, _ := newEngine(t, 0, &entropy.Fixed{Rolls: []float64{0.29}})
	if e3.RaidCheck(100) == nil {
		t.Fatalf("roll under the chance should raid")
	}
}

func TestExecuteRaidLuckyEscape(t *testing.T) {
	e, ledger := newEngine(t, 5000, &entropy.Fixed{})
	ledger.AddWarrant(9001)
	out := e.ExecuteRaid()
	if !out.LuckyEscape {
		t.Fatalf("nothing to seize should be a lucky escape")
	}
	if ledger.Warrant() != 4500 {
		t.Fatalf("warrant = %d, want halved (4500)", ledger.Warrant())
	}
	if ledger.Cash() != 5000 {
		t.Fatalf("lucky escape took cash: %d", ledger.Cash())
	}
}

func TestExecuteRaidLosses(t *testing.T) {
	// Midpoint rolls: lossPct = max(0.1, 0.5 - protection), cash and gun
	// fractions 0.2, warrant bump 10000.
	e, ledger := newEngine(t, 10000, &entropy.Fixed{Rolls: []float64{0.5}})
	city := ledger.CurrentCity()
	ledger.AddItems("weed", 10)
	ledger.AddGuns(city, 10)

	out := e.ExecuteRaid()
	if out.LuckyEscape {
		t.Fatalf("stocked player cannot luckily escape")
	}
	if out.LossPercent != 0.3 { // 0.5 − min(0.4, 10×0.02)
		t.Fatalf("loss percent = %v, want 0.3", out.LossPercent)
	}
	if out.DrugsLost["weed"] != 3 || ledger.ItemCount("weed") != 7 {
		t.Fatalf("drugs lost = %v, held = %d", out.DrugsLost, ledger.ItemCount("weed"))
	}
	if out.CashLost != 2000 || ledger.Cash() != 8000 {
		t.Fatalf("cash lost = %d, cash = %d", out.CashLost, ledger.Cash())
	}
	if out.GunsLost != 2 || ledger.GunsIn(city) != 8 {
		t.Fatalf("guns lost = %d, guns = %d", out.GunsLost, ledger.GunsIn(city))
	}
	if out.WarrantDelta != 10000 || ledger.Warrant() != 10000 {
		t.Fatalf("warrant delta = %d, warrant = %d", out.WarrantDelta, ledger.Warrant())
	}
}

func TestGunProtectionFloorsLoss(t *testing.T) {
	// Heavy armory: protection caps at 0.4, loss floors at 0.1.
	e, ledger := newEngine(t, 0, &entropy.Fixed{Rolls: []float64{0.5}})
	ledger.AddItems("weed", 100)
	ledger.AddGuns(ledger.CurrentCity(), 50)
	out := e.ExecuteRaid()
	if out.LossPercent != 0.1 {
		t.Fatalf("loss percent = %v, want floor 0.1", out.LossPercent)
	}
}

func TestBriberyCost(t *testing.T) {
	e, ledger := newEngine(t, 0, &entropy.Fixed{})
	ledger.AddWarrant(10000)
	cost, reduction := e.BriberyCost()
	if cost != 20000 || reduction != 7500 {
		t.Fatalf("quote = %d/%d, want 20000/7500", cost, reduction)
	}
}

func TestProcessBribery(t *testing.T) {
	e, ledger := newEngine(t, 25000, &entropy.Fixed{Rolls: []float64{0.5}})
	ledger.AddWarrant(10000)

	out, err := e.ProcessBribery()
	if err != nil {
		t.Fatalf("bribe: %v", err)
	}
	if out.Backfired {
		t.Fatalf("0.5 roll should not backfire")
	}
	if ledger.Cash() != 5000 || ledger.Warrant() != 2500 {
		t.Fatalf("post-bribe: cash=%d warrant=%d", ledger.Cash(), ledger.Warrant())
	}
}

func TestProcessBriberyBackfire(t *testing.T) {
	e, ledger := newEngine(t, 25000, &entropy.Fixed{Rolls: []float64{0.01}})
	ledger.AddWarrant(10000)
	out, err := e.ProcessBribery()
	if err != nil {
		t.Fatalf("bribe: %v", err)
	}
	if !out.Backfired || out.Backfire != 2000 {
		t.Fatalf("expected backfire of 2000, got %+v", out)
	}
	if ledger.Warrant() != 4500 { // 2500 + 2000
		t.Fatalf("warrant = %d, want 4500", ledger.Warrant())
	}
}

func TestProcessBriberyGuards(t *testing.T) {
	e, _ := newEngine(t, 1_000_000, &entropy.Fixed{})
	if _, err := e.ProcessBribery(); game.CodeOf(err) != game.CodeNoOp {
		t.Fatalf("zero warrant bribe should be a no-op, got %v", err)
	}

	e2, ledger := newEngine(t, 100, &entropy.Fixed{})
	ledger.AddWarrant(10000)
	if _, err := e2.ProcessBribery(); game.CodeOf(err) != game.CodeInsufficientFunds {
		t.Fatalf("broke bribe should fail, got %v", err)
	}
	if ledger.Cash() != 100 || ledger.Warrant() != 10000 {
		t.Fatalf("failed bribe mutated state")
	}
}
