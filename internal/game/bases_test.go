package game

import "testing"

func TestDepositCappedAtSafe(t *testing.T) {
	b := NewBase("atlanta")
	if got := b.Deposit(20000, 25000); got != 20000 {
		t.Fatalf("banked %d, want 20000", got)
	}
	// Only the remaining room is banked; overflow is discarded.
	if got := b.Deposit(10000, 25000); got != 5000 {
		t.Fatalf("banked %d, want 5000", got)
	}
	if b.CashStored != 25000 {
		t.Fatalf("CashStored = %d", b.CashStored)
	}
	if got := b.Deposit(1, 25000); got != 0 {
		t.Fatalf("full safe banked %d", got)
	}
}

func TestStoreCapacityBounds(t *testing.T) {
	b := NewBase("atlanta")
	if CodeOf(b.Store("weed", 11, 60, 10)) != CodeCapacityExceeded {
		t.Fatalf("per-commodity cap should reject")
	}
	if err := b.Store("weed", 10, 60, 10); err != nil {
		t.Fatalf("store at cap: %v", err)
	}
	if CodeOf(b.Store("weed", 1, 60, 10)) != CodeCapacityExceeded {
		t.Fatalf("cap already reached")
	}
	// Aggregate cap binds across commodities.
	if err := b.Store("meth", 10, 15, 10); err == nil {
		t.Fatalf("aggregate cap should reject")
	}
	if b.TotalInventory() != 10 {
		t.Fatalf("failed stores mutated inventory: %d", b.TotalInventory())
	}
}

func TestTakeDeletesAtZero(t *testing.T) {
	b := NewBase("atlanta")
	if err := b.Store("weed", 3, 60, 10); err != nil {
		t.Fatalf("store: %v", err)
	}
	if CodeOf(b.Take("weed", 4)) != CodeInsufficientInventory {
		t.Fatalf("over-take should fail")
	}
	if err := b.Take("weed", 3); err != nil {
		t.Fatalf("take: %v", err)
	}
	if len(b.StockedCommodities()) != 0 {
		t.Fatalf("zeroed stock should vanish")
	}
}

func TestRecomputeIdempotent(t *testing.T) {
	b := NewBase("atlanta")
	b.AssignedGang = 4
	b.Store("weed", 1, 60, 10)

	b.Recompute(4)
	if !b.Operational {
		t.Fatalf("staffed and stocked base should be operational")
	}
	b.Recompute(4)
	if !b.Operational {
		t.Fatalf("second recompute flipped the flag")
	}

	b.Take("weed", 1)
	b.Recompute(4)
	if b.Operational {
		t.Fatalf("empty base should not be operational")
	}

	b.Store("weed", 1, 60, 10)
	b.AssignedGang = 3
	b.Recompute(4)
	if b.Operational {
		t.Fatalf("understaffed base should not be operational")
	}
}
