// Package game holds the player ledger — the single source of truth for all
// mutable game state — together with the typed event and error vocabulary
// shared by every engine. The ledger is mutated exclusively through its
// methods; engines receive it by reference at construction and observers
// read it through accessors, never through a writable handle.
package game

// Ledger is the complete mutable player state. All invariants (non-negative
// cash, non-negative inventories, bounded base safes) are enforced at the
// mutator boundary.
type Ledger struct {
	cash       int
	inventory  map[string]int
	gangByCity map[string]int
	gunsByCity map[string]int
	warrant    int

	currentCity       string
	daysInCurrentCity int
	daysSinceTravel   int
	day               int

	bases  map[string]*Base
	assets AssetState

	listeners []Listener
}

// NewLedger creates a fresh ledger at the given city with starting cash.
func NewLedger(startCity string, startCash int) *Ledger {
	return &Ledger{
		cash:              startCash,
		inventory:         make(map[string]int),
		gangByCity:        make(map[string]int),
		gunsByCity:        make(map[string]int),
		currentCity:       startCity,
		daysInCurrentCity: 1,
		day:               1,
		bases:             make(map[string]*Base),
		assets:            newAssetState(),
	}
}

// Subscribe registers a listener for every emitted event.
func (l *Ledger) Subscribe(fn Listener) {
	l.listeners = append(l.listeners, fn)
}

// Emit publishes an event to all listeners. Engines use it for composite
// outcomes (police raids, rival raids); primitive mutators emit their own.
func (l *Ledger) Emit(e Event) {
	if e.Day == 0 {
		e.Day = l.day
	}
	for _, fn := range l.listeners {
		fn(e)
	}
}

// ── Read side ────────────────────────────────────────────────────────

func (l *Ledger) Cash() int              { return l.cash }
func (l *Ledger) Warrant() int           { return l.warrant }
func (l *Ledger) Day() int               { return l.day }
func (l *Ledger) CurrentCity() string    { return l.currentCity }
func (l *Ledger) DaysInCurrentCity() int { return l.daysInCurrentCity }
func (l *Ledger) DaysSinceTravel() int   { return l.daysSinceTravel }

// ItemCount reports held units of one commodity.
func (l *Ledger) ItemCount(commodity string) int { return l.inventory[commodity] }

// Inventory returns a copy of the held inventory.
func (l *Ledger) Inventory() map[string]int {
	out := make(map[string]int, len(l.inventory))
	for k, v := range l.inventory {
		if v > 0 {
			out[k] = v
		}
	}
	return out
}

func (l *Ledger) GangIn(city string) int { return l.gangByCity[city] }
func (l *Ledger) GunsIn(city string) int { return l.gunsByCity[city] }

// GangSize is the total roster across all cities.
func (l *Ledger) GangSize() int {
	total := 0
	for _, n := range l.gangByCity {
		total += n
	}
	return total
}

// UnassignedIn reports gang members in a city not staffing its base.
func (l *Ledger) UnassignedIn(city string) int {
	n := l.gangByCity[city]
	if b := l.bases[city]; b != nil {
		n -= b.AssignedGang
	}
	if n < 0 {
		n = 0
	}
	return n
}

// BaseAt returns the base in a city, or nil.
func (l *Ledger) BaseAt(city string) *Base { return l.bases[city] }

// BaseCount reports how many bases the player owns.
func (l *Ledger) BaseCount() int { return len(l.bases) }

// EachBase visits every owned base.
func (l *Ledger) EachBase(fn func(*Base)) {
	for _, b := range l.bases {
		fn(b)
	}
}

// Assets exposes the asset state (read-mutate through asset methods only).
func (l *Ledger) Assets() *AssetState { return &l.assets }

// ── Cash ─────────────────────────────────────────────────────────────

// Credit adds cash. Negative amounts are rejected.
func (l *Ledger) Credit(n int) error {
	if n < 0 {
		return Errf(CodeInvalidQuantity, "credit %d", n)
	}
	l.cash += n
	l.Emit(Event{Kind: EventCashChanged, Delta: n, Value: l.cash})
	return nil
}

// Debit removes cash, failing without mutation if funds are short.
func (l *Ledger) Debit(n int) error {
	if n < 0 {
		return Errf(CodeInvalidQuantity, "debit %d", n)
	}
	if l.cash < n {
		return Errf(CodeInsufficientFunds, "need %d, have %d", n, l.cash)
	}
	l.cash -= n
	l.Emit(Event{Kind: EventCashChanged, Delta: -n, Value: l.cash})
	return nil
}

// ── Inventory ────────────────────────────────────────────────────────

// AddItems credits held units of a commodity.
func (l *Ledger) AddItems(commodity string, qty int) error {
	if qty < 0 {
		return Errf(CodeInvalidQuantity, "add %d %s", qty, commodity)
	}
	l.inventory[commodity] += qty
	l.Emit(Event{Kind: EventInventoryChanged, Commodity: commodity, Delta: qty, Value: l.inventory[commodity]})
	return nil
}

// RemoveItems debits held units, failing without mutation if short.
func (l *Ledger) RemoveItems(commodity string, qty int) error {
	if qty < 0 {
		return Errf(CodeInvalidQuantity, "remove %d %s", qty, commodity)
	}
	if l.inventory[commodity] < qty {
		return Errf(CodeInsufficientInventory, "%s: need %d, have %d", commodity, qty, l.inventory[commodity])
	}
	l.inventory[commodity] -= qty
	if l.inventory[commodity] == 0 {
		delete(l.inventory, commodity)
	}
	l.Emit(Event{Kind: EventInventoryChanged, Commodity: commodity, Delta: -qty, Value: l.inventory[commodity]})
	return nil
}

// ── Warrant ──────────────────────────────────────────────────────────

// AddWarrant raises the heat accumulator.
func (l *Ledger) AddWarrant(n int) {
	if n <= 0 {
		return
	}
	l.warrant += n
	l.Emit(Event{Kind: EventWarrantChanged, Delta: n, Value: l.warrant})
}

// ReduceWarrant lowers the accumulator, floored at zero.
func (l *Ledger) ReduceWarrant(n int) {
	if n <= 0 {
		return
	}
	if n > l.warrant {
		n = l.warrant
	}
	if n == 0 {
		return
	}
	l.warrant -= n
	l.Emit(Event{Kind: EventWarrantChanged, Delta: -n, Value: l.warrant})
}

// ── Gang and guns ────────────────────────────────────────────────────

// AddGang adds recruits to a city roster.
func (l *Ledger) AddGang(city string, n int) error {
	if n < 0 {
		return Errf(CodeInvalidQuantity, "add gang %d", n)
	}
	l.gangByCity[city] += n
	l.Emit(Event{Kind: EventGangChanged, City: city, Delta: n, Value: l.gangByCity[city]})
	return nil
}

// RemoveGang removes members from a city roster, failing if short.
func (l *Ledger) RemoveGang(city string, n int) error {
	if n < 0 {
		return Errf(CodeInvalidQuantity, "remove gang %d", n)
	}
	if l.gangByCity[city] < n {
		return Errf(CodeInsufficientGang, "%s: need %d, have %d", city, n, l.gangByCity[city])
	}
	l.gangByCity[city] -= n
	if l.gangByCity[city] == 0 {
		delete(l.gangByCity, city)
	}
	l.Emit(Event{Kind: EventGangChanged, City: city, Delta: -n, Value: l.gangByCity[city]})
	return nil
}

// AddGuns adds guns to a city stash.
func (l *Ledger) AddGuns(city string, n int) error {
	if n < 0 {
		return Errf(CodeInvalidQuantity, "add guns %d", n)
	}
	l.gunsByCity[city] += n
	l.Emit(Event{Kind: EventGunsChanged, City: city, Delta: n, Value: l.gunsByCity[city]})
	return nil
}

// RemoveGuns removes guns from a city stash, failing if short.
func (l *Ledger) RemoveGuns(city string, n int) error {
	if n < 0 {
		return Errf(CodeInvalidQuantity, "remove guns %d", n)
	}
	if l.gunsByCity[city] < n {
		return Errf(CodeInsufficientGuns, "%s: need %d, have %d", city, n, l.gunsByCity[city])
	}
	l.gunsByCity[city] -= n
	if l.gunsByCity[city] == 0 {
		delete(l.gunsByCity, city)
	}
	l.Emit(Event{Kind: EventGunsChanged, City: city, Delta: -n, Value: l.gunsByCity[city]})
	return nil
}

// ── Cursors ──────────────────────────────────────────────────────────

// MoveTo relocates the player, resetting the stationary counters.
func (l *Ledger) MoveTo(city string) {
	l.currentCity = city
	l.daysInCurrentCity = 1
	l.daysSinceTravel = 0
	l.Emit(Event{Kind: EventTravelled, City: city})
}

// TickDay advances the day clock and the stationary counters.
func (l *Ledger) TickDay() {
	l.day++
	l.daysInCurrentCity++
	l.daysSinceTravel++
	l.Emit(Event{Kind: EventDayAdvanced, Value: l.day})
}

// ── Bases ────────────────────────────────────────────────────────────

// AddBase registers a newly purchased base. One base per city.
func (l *Ledger) AddBase(b *Base) error {
	if _, ok := l.bases[b.City]; ok {
		return Errf(CodeAlreadyOwned, "base in %s", b.City)
	}
	l.bases[b.City] = b
	l.Emit(Event{Kind: EventBaseAdded, City: b.City, Value: b.Level})
	return nil
}
