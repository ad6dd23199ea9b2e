package orderbook

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rishav/matching-core/internal/orders"
	"github.com/rishav/matching-core/internal/session"
)

func mustPrice(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testOrder(id uint64, side orders.Side, p string, qty int64) *orders.Order {
	return orders.NewLimit(id, side, mustPrice(p), qty, orders.Day,
		orders.Instrument{Symbol: "AAPL"}, session.NewGenerator(), time.Now())
}

func TestBook_BestBidAsk(t *testing.T) {
	b := New(orders.Instrument{Symbol: "AAPL"})

	if b.BestBid() != nil || b.BestAsk() != nil {
		t.Fatal("empty book must have no best bid/ask")
	}

	if err := b.BuyPage().Add(testOrder(1, orders.Buy, "100.00", 10)); err != nil {
		t.Fatal(err)
	}
	if err := b.BuyPage().Add(testOrder(2, orders.Buy, "101.00", 10)); err != nil {
		t.Fatal(err)
	}
	if err := b.SellPage().Add(testOrder(3, orders.Sell, "102.00", 10)); err != nil {
		t.Fatal(err)
	}

	if got := b.BestBid().Price; !got.Equal(mustPrice("101.00")) {
		t.Errorf("BestBid = %s, want 101.00 (highest bid wins)", got)
	}
	if got := b.BestAsk().Price; !got.Equal(mustPrice("102.00")) {
		t.Errorf("BestAsk = %s, want 102.00 (lowest ask wins)", got)
	}
}

func TestPage_Add_DuplicateIDRejected(t *testing.T) {
	p := newPage(true)
	if err := p.Add(testOrder(1, orders.Buy, "10.00", 5)); err != nil {
		t.Fatal(err)
	}
	if err := p.Add(testOrder(1, orders.Buy, "11.00", 5)); err == nil {
		t.Error("expected error re-adding the same order id")
	}
}

func TestPage_Remove_DropsEmptyLevel(t *testing.T) {
	p := newPage(true)
	if err := p.Add(testOrder(1, orders.Buy, "10.00", 5)); err != nil {
		t.Fatal(err)
	}
	if p.LevelCount() != 1 {
		t.Fatalf("LevelCount = %d, want 1", p.LevelCount())
	}
	removed := p.Remove(1)
	if removed == nil {
		t.Fatal("expected removed order, got nil")
	}
	if p.LevelCount() != 0 {
		t.Errorf("LevelCount after removing last order at level = %d, want 0", p.LevelCount())
	}
}

func TestPage_Levels_FIFOWithinLevel(t *testing.T) {
	p := newPage(true)
	if err := p.Add(testOrder(1, orders.Buy, "10.00", 5)); err != nil {
		t.Fatal(err)
	}
	if err := p.Add(testOrder(2, orders.Buy, "10.00", 7)); err != nil {
		t.Fatal(err)
	}
	levels := p.Levels(0)
	if len(levels) != 1 {
		t.Fatalf("expected 1 level, got %d", len(levels))
	}
	head := levels[0].Head()
	if head.Order.ID != 1 {
		t.Errorf("head order id = %d, want 1 (arrival order)", head.Order.ID)
	}
	if head.Next().Order.ID != 2 {
		t.Errorf("second order id = %d, want 2", head.Next().Order.ID)
	}
	if levels[0].TotalQty != 12 {
		t.Errorf("TotalQty = %d, want 12", levels[0].TotalQty)
	}
}

func TestPriceLevel_RemoveUpdatesTotalQty(t *testing.T) {
	pl := NewPriceLevel(mustPrice("5.00"))
	o1 := testOrder(1, orders.Buy, "5.00", 10)
	node := pl.Append(o1)
	if pl.TotalQty != 10 {
		t.Fatalf("TotalQty = %d, want 10", pl.TotalQty)
	}
	pl.Remove(node)
	if pl.TotalQty != 0 {
		t.Errorf("TotalQty after remove = %d, want 0", pl.TotalQty)
	}
	if !pl.IsEmpty() {
		t.Error("expected level to be empty after removing its only order")
	}
}

func TestPage_RemoveFilled(t *testing.T) {
	p := newPage(true)
	o1 := testOrder(1, orders.Buy, "10.00", 10)
	o2 := testOrder(2, orders.Buy, "10.00", 10)
	if err := p.Add(o1); err != nil {
		t.Fatal(err)
	}
	if err := p.Add(o2); err != nil {
		t.Fatal(err)
	}
	o1.Execute(10) // fully filled
	level := p.Best()
	removed := p.RemoveFilled(level)
	if removed != 1 {
		t.Errorf("RemoveFilled returned %d, want 1", removed)
	}
	if p.Get(1) != nil {
		t.Error("filled order 1 should have been removed")
	}
	if p.Get(2) == nil {
		t.Error("resting order 2 should still be present")
	}
}

func TestBook_Lookup_AcrossSides(t *testing.T) {
	b := New(orders.Instrument{Symbol: "AAPL"})
	if err := b.BuyPage().Add(testOrder(1, orders.Buy, "10.00", 5)); err != nil {
		t.Fatal(err)
	}
	if err := b.SellPage().Add(testOrder(2, orders.Sell, "11.00", 5)); err != nil {
		t.Fatal(err)
	}

	o, page := b.Lookup(1)
	if o == nil || page != b.BuyPage() {
		t.Error("expected order 1 found on buy page")
	}
	o, page = b.Lookup(2)
	if o == nil || page != b.SellPage() {
		t.Error("expected order 2 found on sell page")
	}
	if o, _ := b.Lookup(999); o != nil {
		t.Error("expected nil for unknown order id")
	}
}
