package game

// State is the serializable mirror of a Ledger. Persistence reads and
// writes this shape; the live Ledger is reconstructed through RestoreLedger
// so the mutator boundary stays intact.
type State struct {
	Cash              int             `json:"cash"`
	Inventory         map[string]int  `json:"inventory,omitempty"`
	GangByCity        map[string]int  `json:"gang_by_city,omitempty"`
	GunsByCity        map[string]int  `json:"guns_by_city,omitempty"`
	Warrant           int             `json:"warrant"`
	CurrentCity       string          `json:"current_city"`
	DaysInCurrentCity int             `json:"days_in_current_city"`
	DaysSinceTravel   int             `json:"days_since_travel"`
	Day               int             `json:"day"`
	Bases             map[string]Base `json:"bases,omitempty"`
	Assets            AssetState      `json:"assets"`
}

// Export deep-copies the ledger into its serializable form.
func (l *Ledger) Export() State {
	s := State{
		Cash:              l.cash,
		Inventory:         copyIntMap(l.inventory),
		GangByCity:        copyIntMap(l.gangByCity),
		GunsByCity:        copyIntMap(l.gunsByCity),
		Warrant:           l.warrant,
		CurrentCity:       l.currentCity,
		DaysInCurrentCity: l.daysInCurrentCity,
		DaysSinceTravel:   l.daysSinceTravel,
		Day:               l.day,
		Bases:             make(map[string]Base, len(l.bases)),
		Assets: AssetState{
			Owned:          make(map[string]*OwnedAsset, len(l.assets.Owned)),
			WornJewelry:    append([]string(nil), l.assets.WornJewelry...),
			JewelryStorage: l.assets.JewelryStorage,
			CarStorage:     l.assets.CarStorage,
		},
	}
	for city, b := range l.bases {
		copied := *b
		copied.Inventory = copyIntMap(b.Inventory)
		copied.SaleProgress = copyFloatMap(b.SaleProgress)
		s.Bases[city] = copied
	}
	for id, owned := range l.assets.Owned {
		copied := *owned
		s.Assets.Owned[id] = &copied
	}
	return s
}

// RestoreLedger rebuilds a live ledger from saved state with merge
// semantics: absent fields fall back to sane defaults instead of replacing
// the whole structure. Invariant floors (day ≥ 1, non-negative balances)
// are re-imposed on whatever the save contains.
func RestoreLedger(s State, defaultCity string) *Ledger {
	l := NewLedger(orString(s.CurrentCity, defaultCity), maxInt(s.Cash, 0))
	l.inventory = orIntMap(s.Inventory)
	l.gangByCity = orIntMap(s.GangByCity)
	l.gunsByCity = orIntMap(s.GunsByCity)
	l.warrant = maxInt(s.Warrant, 0)
	l.day = maxInt(s.Day, 1)
	l.daysInCurrentCity = maxInt(s.DaysInCurrentCity, 1)
	l.daysSinceTravel = maxInt(s.DaysSinceTravel, 0)
	for city, saved := range s.Bases {
		b := NewBase(orString(saved.City, city))
		b.Level = maxInt(saved.Level, 1)
		b.AssignedGang = maxInt(saved.AssignedGang, 0)
		b.Inventory = orIntMap(saved.Inventory)
		b.CashStored = maxInt(saved.CashStored, 0)
		b.Operational = saved.Operational
		b.SaleProgress = orFloatMap(saved.SaleProgress)
		l.bases[b.City] = b
	}
	if s.Assets.Owned != nil {
		for id, owned := range s.Assets.Owned {
			copied := *owned
			l.assets.Owned[id] = &copied
		}
	}
	l.assets.WornJewelry = append([]string(nil), s.Assets.WornJewelry...)
	l.assets.JewelryStorage = maxInt(s.Assets.JewelryStorage, 0)
	l.assets.CarStorage = maxInt(s.Assets.CarStorage, 0)
	return l
}

func copyIntMap(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyFloatMap(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func orIntMap(m map[string]int) map[string]int {
	if m == nil {
		return make(map[string]int)
	}
	return copyIntMap(m)
}

func orFloatMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return make(map[string]float64)
	}
	return copyFloatMap(m)
}

func orString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func maxInt(v, floor int) int {
	if v < floor {
		return floor
	}
	return v
}
