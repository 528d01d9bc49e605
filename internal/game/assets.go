package game

import (
	"slices"

	"github.com/google/uuid"

	"github.com/sirsapient/slangbang/internal/config"
)

// OwnedAsset is a purchased catalog asset. Template stats are copied at
// purchase time so later catalog changes never rewrite owned history.
type OwnedAsset struct {
	ID            string               `json:"id"`
	TemplateID    string               `json:"template_id"`
	Name          string               `json:"name"`
	Type          config.AssetType     `json:"type"`
	ResaleValue   int                  `json:"resale_value"`
	FlexScore     int                  `json:"flex_score"`
	Capacity      config.AssetCapacity `json:"capacity,omitempty"`
	PurchaseDay   int                  `json:"purchase_day"`
	PurchasePrice int                  `json:"purchase_price"`
}

// AssetState tracks owned cosmetic assets, worn jewelry, and the storage
// capacity derived from owned property assets.
type AssetState struct {
	Owned          map[string]*OwnedAsset `json:"owned"`
	WornJewelry    []string               `json:"worn_jewelry,omitempty"`
	JewelryStorage int                    `json:"jewelry_storage"`
	CarStorage     int                    `json:"car_storage"`
}

func newAssetState() AssetState {
	return AssetState{Owned: make(map[string]*OwnedAsset)}
}

// CountType reports how many owned assets match a type.
func (a *AssetState) CountType(t config.AssetType) int {
	n := 0
	for _, asset := range a.Owned {
		if asset.Type == t {
			n++
		}
	}
	return n
}

// FlexScore sums owned asset flex, counting worn jewelry double.
func (a *AssetState) FlexScore() int {
	score := 0
	for _, asset := range a.Owned {
		score += asset.FlexScore
	}
	for _, id := range a.WornJewelry {
		if asset, ok := a.Owned[id]; ok {
			score += asset.FlexScore
		}
	}
	return score
}

// ResaleTotal sums resale value across all owned assets.
func (a *AssetState) ResaleTotal() int {
	total := 0
	for _, asset := range a.Owned {
		total += asset.ResaleValue
	}
	return total
}

// recomputeStorage re-derives storage capacity from base storage plus every
// owned property asset.
func (a *AssetState) recomputeStorage(baseJewelry, baseCars int) {
	jewelry, cars := baseJewelry, baseCars
	for _, asset := range a.Owned {
		if asset.Type == config.AssetProperty {
			jewelry += asset.Capacity.Jewelry
			cars += asset.Capacity.Cars
		}
	}
	a.JewelryStorage = jewelry
	a.CarStorage = cars
}

// BuyAsset purchases a catalog asset: debit cost, instantiate an owned copy,
// recompute storage. Jewelry and cars are bounded by current storage.
func (l *Ledger) BuyAsset(tpl *config.AssetTemplate, baseJewelry, baseCars int) (*OwnedAsset, error) {
	if tpl == nil {
		return nil, Errf(CodeNotFound, "unknown asset")
	}
	l.assets.recomputeStorage(baseJewelry, baseCars)
	switch tpl.Type {
	case config.AssetJewelry:
		if l.assets.CountType(config.AssetJewelry) >= l.assets.JewelryStorage {
			return nil, Errf(CodeCapacityExceeded, "jewelry storage %d full", l.assets.JewelryStorage)
		}
	case config.AssetCar:
		if l.assets.CountType(config.AssetCar) >= l.assets.CarStorage {
			return nil, Errf(CodeCapacityExceeded, "car storage %d full", l.assets.CarStorage)
		}
	}
	if err := l.Debit(tpl.Cost); err != nil {
		return nil, err
	}
	owned := &OwnedAsset{
		ID:            uuid.NewString(),
		TemplateID:    tpl.ID,
		Name:          tpl.Name,
		Type:          tpl.Type,
		ResaleValue:   tpl.ResaleValue,
		FlexScore:     tpl.FlexScore,
		Capacity:      tpl.Capacity,
		PurchaseDay:   l.day,
		PurchasePrice: tpl.Cost,
	}
	l.assets.Owned[owned.ID] = owned
	l.assets.recomputeStorage(baseJewelry, baseCars)
	l.Emit(Event{Kind: EventAssetBought, Value: tpl.Cost, Detail: owned.TemplateID})
	return owned, nil
}

// SellAsset liquidates an owned asset at its resale value. Worn jewelry is
// removed from the wearing list; storage capacity is recomputed from the
// remaining property assets.
func (l *Ledger) SellAsset(id string, baseJewelry, baseCars int) (int, error) {
	owned, ok := l.assets.Owned[id]
	if !ok {
		return 0, Errf(CodeNotFound, "asset %s", id)
	}
	delete(l.assets.Owned, id)
	l.assets.WornJewelry = slices.DeleteFunc(l.assets.WornJewelry, func(w string) bool { return w == id })
	l.assets.recomputeStorage(baseJewelry, baseCars)
	if err := l.Credit(owned.ResaleValue); err != nil {
		return 0, err
	}
	l.Emit(Event{Kind: EventAssetSold, Value: owned.ResaleValue, Detail: owned.TemplateID})
	return owned.ResaleValue, nil
}

// WearJewelry puts an owned jewelry piece on.
func (l *Ledger) WearJewelry(id string) error {
	owned, ok := l.assets.Owned[id]
	if !ok {
		return Errf(CodeNotFound, "asset %s", id)
	}
	if owned.Type != config.AssetJewelry {
		return Errf(CodeInvalidQuantity, "%s is not jewelry", owned.Name)
	}
	if slices.Contains(l.assets.WornJewelry, id) {
		return Errf(CodeAlreadyOwned, "already wearing %s", owned.Name)
	}
	l.assets.WornJewelry = append(l.assets.WornJewelry, id)
	return nil
}

// RemoveJewelry takes a worn piece off.
func (l *Ledger) RemoveJewelry(id string) error {
	if !slices.Contains(l.assets.WornJewelry, id) {
		return Errf(CodeNotFound, "not wearing %s", id)
	}
	l.assets.WornJewelry = slices.DeleteFunc(l.assets.WornJewelry, func(w string) bool { return w == id })
	return nil
}
