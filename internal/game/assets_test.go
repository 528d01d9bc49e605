package game

import (
	"testing"

	"github.com/sirsapient/slangbang/internal/config"
)

var (
	chainTpl = &config.AssetTemplate{
		ID: "chain", Name: "Chain", Type: config.AssetJewelry,
		Cost: 15000, ResaleValue: 9000, FlexScore: 10,
	}
	carTpl = &config.AssetTemplate{
		ID: "car", Name: "Car", Type: config.AssetCar,
		Cost: 25000, ResaleValue: 14000, FlexScore: 15,
	}
	condoTpl = &config.AssetTemplate{
		ID: "condo", Name: "Condo", Type: config.AssetProperty,
		Cost: 350000, ResaleValue: 280000, FlexScore: 80,
		Capacity: config.AssetCapacity{Jewelry: 6, Cars: 2},
	}
)

func TestBuyAssetDebitsAndCopies(t *testing.T) {
	l := NewLedger("atlanta", 20000)
	owned, err := l.BuyAsset(chainTpl, 2, 1)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if l.Cash() != 5000 {
		t.Fatalf("cash = %d", l.Cash())
	}
	if owned.TemplateID != "chain" || owned.PurchasePrice != 15000 || owned.PurchaseDay != 1 {
		t.Fatalf("owned copy wrong: %+v", owned)
	}
	if _, err := l.BuyAsset(chainTpl, 2, 1); CodeOf(err) != CodeInsufficientFunds {
		t.Fatalf("broke buy should fail, got %v", err)
	}
}

func TestStorageBoundsPurchases(t *testing.T) {
	l := NewLedger("atlanta", 10_000_000)
	// Base storage: 1 car slot.
	if _, err := l.BuyAsset(carTpl, 2, 1); err != nil {
		t.Fatalf("first car: %v", err)
	}
	if _, err := l.BuyAsset(carTpl, 2, 1); CodeOf(err) != CodeCapacityExceeded {
		t.Fatalf("second car should hit storage, got %v", err)
	}
	// A property asset expands storage.
	if _, err := l.BuyAsset(condoTpl, 2, 1); err != nil {
		t.Fatalf("condo: %v", err)
	}
	if l.Assets().CarStorage != 3 || l.Assets().JewelryStorage != 8 {
		t.Fatalf("storage = %d cars / %d jewelry", l.Assets().CarStorage, l.Assets().JewelryStorage)
	}
	if _, err := l.BuyAsset(carTpl, 2, 1); err != nil {
		t.Fatalf("car after condo: %v", err)
	}
}

func TestFlexScoreWornDouble(t *testing.T) {
	l := NewLedger("atlanta", 100000)
	chain, err := l.BuyAsset(chainTpl, 2, 1)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if got := l.Assets().FlexScore(); got != 10 {
		t.Fatalf("unworn flex = %d", got)
	}
	if err := l.WearJewelry(chain.ID); err != nil {
		t.Fatalf("wear: %v", err)
	}
	if got := l.Assets().FlexScore(); got != 20 {
		t.Fatalf("worn flex = %d, want double", got)
	}
	if CodeOf(l.WearJewelry(chain.ID)) != CodeAlreadyOwned {
		t.Fatalf("double wear should fail")
	}
	if err := l.RemoveJewelry(chain.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := l.Assets().FlexScore(); got != 10 {
		t.Fatalf("flex after removal = %d", got)
	}
}

func TestWearRejectsNonJewelry(t *testing.T) {
	l := NewLedger("atlanta", 100000)
	car, err := l.BuyAsset(carTpl, 2, 1)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if err := l.WearJewelry(car.ID); err == nil {
		t.Fatalf("wearing a car should fail")
	}
}

func TestSellAssetRemovesWornAndRecomputes(t *testing.T) {
	l := NewLedger("atlanta", 1_000_000)
	chain, _ := l.BuyAsset(chainTpl, 2, 1)
	condo, _ := l.BuyAsset(condoTpl, 2, 1)
	l.WearJewelry(chain.ID)

	before := l.Cash()
	got, err := l.SellAsset(chain.ID, 2, 1)
	if err != nil || got != 9000 {
		t.Fatalf("sell = %d, %v", got, err)
	}
	if l.Cash() != before+9000 {
		t.Fatalf("resale not credited")
	}
	if len(l.Assets().WornJewelry) != 0 {
		t.Fatalf("sold jewelry still worn")
	}

	// Selling the condo shrinks storage back to the base numbers.
	if _, err := l.SellAsset(condo.ID, 2, 1); err != nil {
		t.Fatalf("sell condo: %v", err)
	}
	if l.Assets().JewelryStorage != 2 || l.Assets().CarStorage != 1 {
		t.Fatalf("storage after condo sale = %d/%d", l.Assets().JewelryStorage, l.Assets().CarStorage)
	}

	if _, err := l.SellAsset("ghost", 2, 1); CodeOf(err) != CodeNotFound {
		t.Fatalf("selling unknown asset should fail")
	}
}
