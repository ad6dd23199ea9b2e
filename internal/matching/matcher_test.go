package matching

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rishav/matching-core/internal/orderbook"
	"github.com/rishav/matching-core/internal/orders"
	"github.com/rishav/matching-core/internal/session"
)

func mustPrice(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testBook() *orderbook.Book { return orderbook.New(orders.Instrument{Symbol: "AAPL"}) }

func testLimit(id uint64, side orders.Side, p string, qty int64, tif orders.TimeInForce) *orders.Order {
	return orders.NewLimit(id, side, mustPrice(p), qty, tif, orders.Instrument{Symbol: "AAPL"}, session.NewGenerator(), time.Now())
}

func TestHasFacingOrders_PriceBounded(t *testing.T) {
	book := testBook()
	if err := book.SellPage().Add(testLimit(1, orders.Sell, "10.00", 5, orders.Day)); err != nil {
		t.Fatal(err)
	}

	if !HasFacingOrders(book, orders.Buy, mustPrice("10.00"), true) {
		t.Error("buy at 10.00 should face a resting ask at 10.00")
	}
	if HasFacingOrders(book, orders.Buy, mustPrice("9.99"), true) {
		t.Error("buy at 9.99 should not face a resting ask at 10.00")
	}
}

func TestHasFacingOrders_MarketIgnoresPrice(t *testing.T) {
	book := testBook()
	if err := book.SellPage().Add(testLimit(1, orders.Sell, "100.00", 5, orders.Day)); err != nil {
		t.Fatal(err)
	}
	if !HasFacingOrders(book, orders.Buy, decimal.Zero, false) {
		t.Error("market taker should face any resting order regardless of price")
	}
}

func TestCanFullyTrade_AggregatesAcrossLevels(t *testing.T) {
	book := testBook()
	if err := book.SellPage().Add(testLimit(1, orders.Sell, "10.00", 4, orders.Day)); err != nil {
		t.Fatal(err)
	}
	if err := book.SellPage().Add(testLimit(2, orders.Sell, "10.05", 4, orders.Day)); err != nil {
		t.Fatal(err)
	}

	if CanFullyTrade(book, orders.Buy, mustPrice("10.05"), 9) {
		t.Error("9 shares requested but only 8 available at acceptable prices")
	}
	if !CanFullyTrade(book, orders.Buy, mustPrice("10.05"), 8) {
		t.Error("exactly 8 shares available should satisfy a request for 8")
	}
	if !CanFullyTrade(book, orders.Buy, mustPrice("10.00"), 4) {
		t.Error("4 shares at 10.00 alone should satisfy a request for 4")
	}
}

func TestMatchLimit_PriceTimePriority(t *testing.T) {
	book := testBook()
	early := testLimit(1, orders.Sell, "10.00", 5, orders.Day)
	late := testLimit(2, orders.Sell, "10.00", 5, orders.Day)
	if err := book.SellPage().Add(early); err != nil {
		t.Fatal(err)
	}
	if err := book.SellPage().Add(late); err != nil {
		t.Fatal(err)
	}

	taker := testLimit(3, orders.Buy, "10.00", 5, orders.Day)
	fills := MatchLimit(book, taker, time.Now())

	if len(fills) != 1 {
		t.Fatalf("fills = %d, want 1", len(fills))
	}
	if fills[0].Maker.ID != 1 {
		t.Errorf("matched maker id = %d, want 1 (earlier order at same price wins)", fills[0].Maker.ID)
	}
	if late.Executed != 0 {
		t.Error("later order at the same price should not have traded")
	}
}

func TestMatchLimit_RestsUnmatchedRemainder(t *testing.T) {
	book := testBook()
	maker := testLimit(1, orders.Sell, "10.00", 3, orders.Day)
	if err := book.SellPage().Add(maker); err != nil {
		t.Fatal(err)
	}

	taker := testLimit(2, orders.Buy, "10.00", 10, orders.Day)
	fills := MatchLimit(book, taker, time.Now())

	if len(fills) != 1 || fills[0].TradeQuantity != 3 {
		t.Fatalf("fills = %+v, want one fill of 3", fills)
	}
	if taker.Leaves() != 7 {
		t.Errorf("taker leaves = %d, want 7 remaining to rest", taker.Leaves())
	}
	if taker.IsFilled() {
		t.Error("taker should not be fully filled")
	}
}

func TestMatchIOC_CancelsRemainderOnLastFill(t *testing.T) {
	book := testBook()
	maker := testLimit(1, orders.Sell, "10.00", 3, orders.Day)
	if err := book.SellPage().Add(maker); err != nil {
		t.Fatal(err)
	}

	taker := testLimit(2, orders.Buy, "10.00", 10, orders.IOC)
	fills := MatchIOC(book, taker, time.Now())

	if len(fills) != 1 {
		t.Fatalf("fills = %d, want 1", len(fills))
	}
	if !fills[0].TakerCancelled {
		t.Error("expected taker's unfilled IOC remainder to be cancelled on the final fill")
	}
	if taker.Status != orders.Cancelled {
		t.Errorf("taker Status = %s, want Cancelled", taker.Status)
	}
}

func TestMatchMarket_UnboundedByPrice(t *testing.T) {
	book := testBook()
	if err := book.SellPage().Add(testLimit(1, orders.Sell, "9999.00", 5, orders.Day)); err != nil {
		t.Fatal(err)
	}

	taker := orders.NewMarket(2, orders.Buy, 5, orders.Instrument{Symbol: "AAPL"}, session.NewGenerator(), time.Now())
	fills := MatchMarket(book, taker, time.Now())

	if len(fills) != 1 || fills[0].TradeQuantity != 5 {
		t.Fatalf("fills = %+v, want one fill of 5 regardless of the resting price", fills)
	}
}

func TestRemoveFilledLevels_LeavesPartialMakerResting(t *testing.T) {
	book := testBook()
	maker := testLimit(1, orders.Sell, "10.00", 10, orders.Day)
	if err := book.SellPage().Add(maker); err != nil {
		t.Fatal(err)
	}

	taker := testLimit(2, orders.Buy, "10.00", 4, orders.Day)
	MatchLimit(book, taker, time.Now())

	if book.SellPage().Get(1) == nil {
		t.Error("partially filled maker should still be resting")
	}
	if maker.Leaves() != 6 {
		t.Errorf("maker leaves = %d, want 6", maker.Leaves())
	}
}
