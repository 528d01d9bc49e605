// Command slangbang runs the Slang Bang economy engine: a headless
// simulation server that owns the player ledger, the city markets, the
// heat and raid systems, and the property network, persisting state to
// SQL and serving observation endpoints over HTTP.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dustin/go-humanize"

	"github.com/sirsapient/slangbang/internal/api"
	"github.com/sirsapient/slangbang/internal/config"
	"github.com/sirsapient/slangbang/internal/engine"
	"github.com/sirsapient/slangbang/internal/entropy"
	"github.com/sirsapient/slangbang/internal/game"
	"github.com/sirsapient/slangbang/internal/persistence"
)

func main() {
	var (
		apiPort    = flag.Int("port", 8080, "HTTP API port")
		configPath = flag.String("config", "", "game data YAML (default: embedded)")
		exportPath = flag.String("export", "", "write a compressed snapshot to this path and exit")
		importPath = flag.String("import", "", "load game state from a snapshot file instead of the database")
		speed      = flag.Float64("speed", 1.0, "tick speed multiplier (0 = paused)")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("Slang Bang — economy engine")

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load game data", "error", err)
		os.Exit(1)
	}
	slog.Info("game data loaded",
		"cities", len(cfg.Cities),
		"commodities", len(cfg.Commodities),
		"tiers", len(cfg.Tiers),
		"ranks", len(cfg.Ranks),
	)

	// ── Database ──────────────────────────────────────────────────────
	store, err := persistence.OpenFromEnv()
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// ── Load or start fresh ──────────────────────────────────────────
	rng := entropy.Crypto{}
	g, err := loadGame(cfg, rng, store, *importPath)
	if err != nil {
		slog.Error("failed to load game", "error", err)
		os.Exit(1)
	}

	if *exportPath != "" {
		if err := persistence.ExportFile(*exportPath, g.Snapshot()); err != nil {
			slog.Error("export failed", "error", err)
			os.Exit(1)
		}
		slog.Info("snapshot exported", "path", *exportPath)
		return
	}

	status := g.Status()
	slog.Info("game ready",
		"day", status.Day,
		"city", status.City,
		"cash", humanize.Comma(int64(status.Cash)),
		"net_worth", humanize.Comma(int64(status.NetWorth)),
		"rank", status.Rank,
	)

	// ── Event log ────────────────────────────────────────────────────
	// Emitted events are buffered and flushed to the store alongside
	// each autosave, keeping the append path off the hot loop.
	var pendingMu sync.Mutex
	var pending []game.Event
	g.Subscribe(func(e game.Event) {
		pendingMu.Lock()
		pending = append(pending, e)
		pendingMu.Unlock()
	})
	flushEvents := func() {
		pendingMu.Lock()
		batch := pending
		pending = nil
		pendingMu.Unlock()
		if err := store.AppendEvents(batch); err != nil {
			slog.Error("event log append failed", "error", err)
		}
	}

	// ── Tick driver ──────────────────────────────────────────────────
	driver := engine.NewDriver(cfg.Tuning.TicksPerDay, cfg.Tuning.AutosaveTicks)
	driver.Speed = *speed
	if tick, err := store.LoadTick(); err != nil {
		slog.Warn("tick cursor unreadable, starting at 0", "error", err)
	} else {
		driver.Tick = tick
	}

	save := func() {
		snap := g.Snapshot()
		if err := store.SaveSnapshot(snap); err != nil {
			slog.Error("save failed", "error", err)
		}
		if err := store.SaveTick(driver.Tick); err != nil {
			slog.Error("tick cursor save failed", "error", err)
		}
		flushEvents()
	}

	driver.OnTick = func(uint64) { g.RealtimeSalesTick() }
	driver.OnDay = func(tick uint64) {
		g.AdvanceDay()
		s := g.Status()
		slog.Info("day advanced",
			"day", s.Day,
			"cash", humanize.Comma(int64(s.Cash)),
			"net_worth", humanize.Comma(int64(s.NetWorth)),
			"heat", s.HeatLevel,
		)
	}
	driver.OnAutosave = func(uint64) { save() }

	// ── HTTP API ──────────────────────────────────────────────────────
	adminKey := os.Getenv("SLANGBANG_ADMIN_KEY")
	if adminKey == "" {
		slog.Warn("SLANGBANG_ADMIN_KEY not set — admin POST endpoints will be disabled")
	}
	apiServer := &api.Server{
		Cfg:      cfg,
		Game:     g,
		Store:    store,
		Port:     *apiPort,
		AdminKey: adminKey,
	}
	apiServer.Start()

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		driver.Stop()
	}()

	fmt.Printf("Slang Bang engine running. API: http://localhost:%d/api/v1/status\n", *apiPort)
	fmt.Println("Ctrl+C to stop.")

	driver.Run()

	slog.Info("final save...")
	save()
	fmt.Println("Engine stopped. Game saved.")
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// loadGame restores from a snapshot file when -import is given, otherwise
// from the database, otherwise starts a fresh game.
func loadGame(cfg *config.Config, rng entropy.Source, store *persistence.Store, importPath string) (*engine.Game, error) {
	if importPath != "" {
		snap, err := persistence.ImportFile(importPath)
		if err != nil {
			return nil, err
		}
		slog.Info("snapshot imported", "path", importPath, "day", snap.Ledger.Day)
		return engine.Load(cfg, rng, snap), nil
	}

	snap, found, err := store.LoadSnapshot()
	if err != nil {
		return nil, err
	}
	if found {
		slog.Info("saved game found, loading", "version", snap.SaveVersion, "day", snap.Ledger.Day)
		return engine.Load(cfg, rng, snap), nil
	}

	slog.Info("no saved game, starting fresh",
		"city", cfg.Tuning.StartCity,
		"cash", humanize.Comma(int64(cfg.Tuning.StartingCash)),
	)
	return engine.New(cfg, rng), nil
}
