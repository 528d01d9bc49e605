package game

// Base is a player-owned income property in one city. At most one per city.
// Operational status is derived state and must be recomputed after every
// mutation to staffing or stock; the property engine owns that discipline.
type Base struct {
	City         string             `json:"city"`
	Level        int                `json:"level"`
	AssignedGang int                `json:"assigned_gang"`
	Inventory    map[string]int     `json:"inventory"`
	CashStored   int                `json:"cash_stored"`
	Operational  bool               `json:"operational"`
	SaleProgress map[string]float64 `json:"sale_progress,omitempty"`
}

// NewBase creates a fresh level-1 base: unstaffed, empty, non-operational.
func NewBase(city string) *Base {
	return &Base{
		City:         city,
		Level:        1,
		Inventory:    make(map[string]int),
		SaleProgress: make(map[string]float64),
	}
}

// TotalInventory is the aggregate stock across all commodities.
func (b *Base) TotalInventory() int {
	total := 0
	for _, n := range b.Inventory {
		total += n
	}
	return total
}

// Recompute re-derives the operational flag from staffing and stock.
// Idempotent: calling it twice without an intervening mutation is a no-op.
func (b *Base) Recompute(gangRequired int) {
	b.Operational = b.AssignedGang >= gangRequired && b.TotalInventory() > 0
}

// Deposit credits cash into the safe, capped at maxSafe. Returns the amount
// actually banked (overflow above the cap is discarded).
func (b *Base) Deposit(n, maxSafe int) int {
	if n <= 0 {
		return 0
	}
	room := maxSafe - b.CashStored
	if room <= 0 {
		return 0
	}
	if n > room {
		n = room
	}
	b.CashStored += n
	return n
}

// Store adds stock, bounded by the aggregate and per-commodity capacities.
func (b *Base) Store(commodity string, qty, aggregateCap, perCommodityCap int) error {
	if qty <= 0 {
		return Errf(CodeInvalidQuantity, "store %d %s", qty, commodity)
	}
	if b.TotalInventory()+qty > aggregateCap {
		return Errf(CodeCapacityExceeded, "%s base holds %d of %d", b.City, b.TotalInventory(), aggregateCap)
	}
	if b.Inventory[commodity]+qty > perCommodityCap {
		return Errf(CodeCapacityExceeded, "%s base %s cap %d", b.City, commodity, perCommodityCap)
	}
	b.Inventory[commodity] += qty
	return nil
}

// Take removes stock, failing without mutation if short.
func (b *Base) Take(commodity string, qty int) error {
	if qty <= 0 {
		return Errf(CodeInvalidQuantity, "take %d %s", qty, commodity)
	}
	if b.Inventory[commodity] < qty {
		return Errf(CodeInsufficientInventory, "%s base: need %d %s, have %d", b.City, qty, commodity, b.Inventory[commodity])
	}
	b.Inventory[commodity] -= qty
	if b.Inventory[commodity] == 0 {
		delete(b.Inventory, commodity)
	}
	return nil
}

// StockedCommodities lists commodities with at least one whole unit.
func (b *Base) StockedCommodities() []string {
	var out []string
	for c, n := range b.Inventory {
		if n > 0 {
			out = append(out, c)
		}
	}
	return out
}
