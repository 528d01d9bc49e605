package engine

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// Driver runs the external clock. The engines hold no timers of their own;
// the driver invokes their idempotent entry points on a fixed cadence.
type Driver struct {
	Tick     uint64        // Current tick counter (monotonic, never resets)
	Speed    float64       // Multiplier: 1.0 = real-time, 0 = paused
	Interval time.Duration // Base tick interval (default 1 second)

	// Stop is called from the signal goroutine while Run loops.
	running atomic.Bool

	// Cadence in ticks for the layered callbacks.
	DayTicks      int
	AutosaveTicks int

	// Callbacks — populated during setup.
	OnTick     func(tick uint64) // Every tick: realtime base sales
	OnDay      func(tick uint64) // Every DayTicks: daily cycle
	OnAutosave func(tick uint64) // Every AutosaveTicks
}

// NewDriver creates a tick driver with default settings.
func NewDriver(dayTicks, autosaveTicks int) *Driver {
	return &Driver{
		Speed:         1.0,
		Interval:      time.Second,
		DayTicks:      dayTicks,
		AutosaveTicks: autosaveTicks,
	}
}

// Run starts the clock loop. Blocks until Stop is called.
func (d *Driver) Run() {
	d.running.Store(true)
	slog.Info("tick driver started", "tick", d.Tick, "speed", d.Speed, "day_ticks", d.DayTicks)

	for d.running.Load() {
		if d.Speed <= 0 {
			// Paused — sleep briefly and check again.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()

		d.step()

		// Sleep for the remainder of the tick interval, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(d.Interval) / d.Speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}

	slog.Info("tick driver stopped", "tick", d.Tick)
}

// Stop halts the clock loop. Safe to call from another goroutine.
func (d *Driver) Stop() {
	d.running.Store(false)
}

// step advances the clock by one tick.
func (d *Driver) step() {
	d.Tick++

	if d.OnTick != nil {
		d.OnTick(d.Tick)
	}
	if d.DayTicks > 0 && d.Tick%uint64(d.DayTicks) == 0 && d.OnDay != nil {
		d.OnDay(d.Tick)
	}
	if d.AutosaveTicks > 0 && d.Tick%uint64(d.AutosaveTicks) == 0 && d.OnAutosave != nil {
		d.OnAutosave(d.Tick)
	}
}
