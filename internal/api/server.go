// Package api serves read-only observation of the game state over HTTP.
// GET endpoints are public; the save endpoint requires a bearer token.
// The UI layer consumes these endpoints and the event feed — the engine
// never renders display strings.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirsapient/slangbang/internal/config"
	"github.com/sirsapient/slangbang/internal/engine"
	"github.com/sirsapient/slangbang/internal/persistence"
)

// Server exposes a running game over HTTP.
type Server struct {
	Cfg      *config.Config
	Game     *engine.Game
	Store    *persistence.Store
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.
}

// Start begins serving in a goroutine.
func (s *Server) Start() {
	saveLimiter := NewRateLimiter(12, time.Hour)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/prices", s.handlePrices)
	mux.HandleFunc("/api/v1/ledger", s.handleLedger)
	mux.HandleFunc("/api/v1/targets", s.handleTargets)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/catalog", s.handleCatalog)

	mux.HandleFunc("/api/v1/save", RateLimitMiddleware(saveLimiter, s.adminOnly(s.handleSave)))

	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		handler := corsMiddleware(mux)
		if err := http.ListenAndServe(addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware allows configured frontend origins. Set CORS_ORIGINS to a
// comma-separated list; localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled", http.StatusForbidden)
			return
		}
		auth := r.Header.Get("Authorization")
		if auth != "Bearer "+s.AdminKey {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Game.Status())
}

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	cityID := r.URL.Query().Get("city")
	if cityID != "" {
		if s.Cfg.CityByID(cityID) == nil {
			http.Error(w, "unknown city", http.StatusNotFound)
			return
		}
		writeJSON(w, s.Game.CityPrices(cityID))
		return
	}
	all := make(map[string]map[string]int, len(s.Cfg.Cities))
	for _, city := range s.Cfg.Cities {
		all[city.ID] = s.Game.CityPrices(city.ID)
	}
	writeJSON(w, all)
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Game.LedgerState())
}

func (s *Server) handleTargets(w http.ResponseWriter, r *http.Request) {
	cityID := r.URL.Query().Get("city")
	if s.Cfg.CityByID(cityID) == nil {
		http.Error(w, "unknown city", http.StatusNotFound)
		return
	}
	writeJSON(w, s.Game.AvailableTargets(cityID, time.Now()))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	writeJSON(w, s.Game.RecentEvents(limit))
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"cities":      s.Cfg.Cities,
		"commodities": s.Cfg.Commodities,
		"tiers":       s.Cfg.Tiers,
		"ranks":       s.Cfg.Ranks,
		"assets":      s.Cfg.Assets,
	})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	if s.Store == nil {
		http.Error(w, "no store configured", http.StatusServiceUnavailable)
		return
	}
	snap := s.Game.Snapshot()
	if err := s.Store.SaveSnapshot(snap); err != nil {
		slog.Error("manual save failed", "error", err)
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"saved": true, "day": snap.Ledger.Day})
}
