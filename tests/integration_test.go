// Package tests provides end-to-end integration tests that demonstrate
// the core system design concepts of the matching core.
//
// Run with: go test -v ./tests/...
//
// Each test section demonstrates a specific concept and explains what
// you should observe at each step.
package tests

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rishav/matching-core/internal/engine"
	"github.com/rishav/matching-core/internal/events"
	"github.com/rishav/matching-core/internal/marketdata"
	"github.com/rishav/matching-core/internal/orders"
	"github.com/rishav/matching-core/internal/requests"
	"github.com/rishav/matching-core/internal/session"
	"github.com/rishav/matching-core/internal/subscriptions"
)

func repeat(s string, n int) string {
	result := ""
	for i := 0; i < n; i++ {
		result += s
	}
	return result
}

func priceptr(s string) *decimal.Decimal {
	p := decimal.RequireFromString(s)
	return &p
}

// recordingNotifier captures every client-addressed event the engine
// emits, in order, for assertions.
type recordingNotifier struct {
	events []events.Event
}

func (n *recordingNotifier) Notify(instrument orders.Instrument, e events.Event) {
	n.events = append(n.events, e)
}

// noopMarketDataNotifier discards every subscription reply — these
// tests drive the engine directly and assert on the event stream, not
// on the market-data fan-out.
type noopMarketDataNotifier struct{}

func (noopMarketDataNotifier) Snapshot(session.Session, string, orders.Instrument, []marketdata.Entry) {
}
func (noopMarketDataNotifier) Update(session.Session, string, orders.Instrument, []marketdata.Entry) {
}
func (noopMarketDataNotifier) Reject(session.Session, string, string) {}

func newTestEngine(t *testing.T, symbol string) (*engine.Engine, *recordingNotifier) {
	t.Helper()
	notifier := &recordingNotifier{}
	cfg := engine.Config{
		Subscription: subscriptions.Config{EnableTradesStreaming: true},
	}
	eng := engine.New(cfg, notifier, noopMarketDataNotifier{}, nil, nil)
	eng.AddInstrument(orders.Instrument{Symbol: symbol})
	return eng, notifier
}

func place(t *testing.T, eng *engine.Engine, symbol, clientOrderID, side, orderType, tif string, price *decimal.Decimal, qty int64, now time.Time) {
	t.Helper()
	req := requests.PlacementRequest{
		Session:       session.NewGenerator(),
		Instrument:    orders.Instrument{Symbol: symbol},
		ClientOrderID: &clientOrderID,
		OrderType:     &orderType,
		Side:          &side,
		TimeInForce:   &tif,
		Price:         price,
		Quantity:      &qty,
	}
	if err := eng.PlaceOrder(req, now); err != nil {
		t.Fatalf("place order %s: %v", clientOrderID, err)
	}
}

// ============================================================================
// TEST 1: SINGLE-THREADED CORE (LMAX pattern)
// ============================================================================

func TestSingleThreadedCore_Determinism(t *testing.T) {
	fmt.Println()
	fmt.Println(repeat("=", 70))
	fmt.Println("TEST: Single-Threaded Core (LMAX Pattern)")
	fmt.Println(repeat("=", 70))

	fmt.Println(`
CONCEPT: Every request against one instrument is handled by a single
         goroutine, in arrival order. That guarantees deterministic
         output for the same input sequence.

WHAT TO EXPECT:
- We replay the same order sequence through two fresh engines
- Both runs produce an identical sequence of client-addressed events`)

	now := time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC)

	runSequence := func() []string {
		eng, notifier := newTestEngine(t, "AAPL")
		place(t, eng, "AAPL", "sell-1", "Sell", "Limit", "Day", priceptr("151.00"), 100, now)
		place(t, eng, "AAPL", "sell-2", "Sell", "Limit", "Day", priceptr("150.50"), 50, now)
		place(t, eng, "AAPL", "buy-1", "Buy", "Limit", "Day", priceptr("150.00"), 200, now)
		place(t, eng, "AAPL", "buy-2", "Buy", "Limit", "Day", priceptr("150.50"), 75, now)

		var out []string
		for _, e := range notifier.events {
			out = append(out, fmt.Sprintf("%s/%s", e.Kind.String(), e.Reason))
		}
		return out
	}

	first := runSequence()
	second := runSequence()

	if len(first) != len(second) {
		t.Fatalf("run lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("event %d differs: %q vs %q", i, first[i], second[i])
		}
	}
	fmt.Printf("Both runs produced %d identical events.\n", len(first))
}

// ============================================================================
// TEST 2: PRICE-TIME PRIORITY
// ============================================================================

func TestPriceTimePriority(t *testing.T) {
	fmt.Println()
	fmt.Println(repeat("=", 70))
	fmt.Println("TEST: Price-Time Priority")
	fmt.Println(repeat("=", 70))

	now := time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC)
	eng, notifier := newTestEngine(t, "AAPL")

	// Two resting buy orders at the same price; first in, first filled.
	place(t, eng, "AAPL", "buy-early", "Buy", "Limit", "Day", priceptr("150.00"), 100, now)
	place(t, eng, "AAPL", "buy-late", "Buy", "Limit", "Day", priceptr("150.00"), 100, now.Add(time.Millisecond))

	// An incoming sell for 100 shares should trade against buy-early only.
	place(t, eng, "AAPL", "sell-1", "Sell", "Limit", "Day", priceptr("150.00"), 100, now.Add(2*time.Millisecond))

	var trade *events.Event
	for i := range notifier.events {
		if notifier.events[i].Kind == events.KindTrade {
			trade = &notifier.events[i]
			break
		}
	}
	if trade == nil {
		t.Fatal("expected a trade event")
	}
	if trade.Maker == nil || trade.Maker.ClientOrderID == nil || *trade.Maker.ClientOrderID != "buy-early" {
		t.Errorf("expected buy-early to be the maker, time priority violated")
	}
	fmt.Println("Resting order placed first was matched first, as expected.")
}

// ============================================================================
// TEST 3: STATE RECOVERY (store_state / recover_state)
// ============================================================================

func TestStateRecovery_SurvivesRestart(t *testing.T) {
	fmt.Println()
	fmt.Println(repeat("=", 70))
	fmt.Println("TEST: State Recovery")
	fmt.Println(repeat("=", 70))

	fmt.Println(`
CONCEPT: StoreState/RecoverState let a fresh engine pick up exactly
         where a crashed one left off, without replaying the event log.`)

	now := time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC)
	eng, _ := newTestEngine(t, "AAPL")
	place(t, eng, "AAPL", "buy-1", "Buy", "Limit", "Day", priceptr("150.00"), 100, now)
	place(t, eng, "AAPL", "buy-2", "Buy", "Limit", "Day", priceptr("149.50"), 200, now)

	snapshot, err := eng.StoreState("AAPL")
	if err != nil {
		t.Fatalf("store state: %v", err)
	}
	if len(snapshot.Book.Buy) != 2 {
		t.Fatalf("expected 2 resting buy orders in snapshot, got %d", len(snapshot.Book.Buy))
	}

	recovered, _ := newTestEngine(t, "AAPL")
	if err := recovered.RecoverState(orders.Instrument{Symbol: "AAPL"}, snapshot); err != nil {
		t.Fatalf("recover state: %v", err)
	}

	afterRecovery, err := recovered.StoreState("AAPL")
	if err != nil {
		t.Fatalf("store state after recovery: %v", err)
	}
	if len(afterRecovery.Book.Buy) != 2 {
		t.Errorf("expected recovered engine to carry 2 resting buy orders, got %d", len(afterRecovery.Book.Buy))
	}
	fmt.Println("Recovered engine's book matches the snapshot taken before restart.")
}

// ============================================================================
// TEST 4: DECIMAL PRICE ARITHMETIC
// ============================================================================

func TestDecimalPriceArithmetic(t *testing.T) {
	fmt.Println()
	fmt.Println(repeat("=", 70))
	fmt.Println("TEST: Decimal Price Arithmetic")
	fmt.Println(repeat("=", 70))

	fmt.Println(`
CONCEPT: Prices are shopspring/decimal values, not fixed-point cents,
         so a tick size like 0.0001 is representable without a
         hard-coded scale.`)

	now := time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC)
	eng, notifier := newTestEngine(t, "EURUSD")
	place(t, eng, "EURUSD", "sell-1", "Sell", "Limit", "Day", priceptr("1.0855"), 1000, now)
	place(t, eng, "EURUSD", "buy-1", "Buy", "Limit", "Day", priceptr("1.0855"), 1000, now.Add(time.Millisecond))

	for _, e := range notifier.events {
		if e.Kind == events.KindTrade {
			want := decimal.RequireFromString("1.0855")
			if !e.TradePrice.Equal(want) {
				t.Errorf("expected trade price %s, got %s", want, e.TradePrice)
			}
			fmt.Printf("Traded at %s with no floating-point rounding drift.\n", e.TradePrice)
			return
		}
	}
	t.Fatal("expected a trade event")
}

// ============================================================================
// TEST 5: MARKET DATA SUBSCRIPTIONS
// ============================================================================

func TestMarketDataSubscription_ReceivesSnapshotAndUpdate(t *testing.T) {
	fmt.Println()
	fmt.Println(repeat("=", 70))
	fmt.Println("TEST: Market Data Subscriptions")
	fmt.Println(repeat("=", 70))

	type capture struct {
		snapshots int
		updates   int
	}
	var c capture
	mdNotifier := &capturingMarketDataNotifier{onSnapshot: func() { c.snapshots++ }, onUpdate: func() { c.updates++ }}

	now := time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC)
	cfg := engine.Config{Subscription: subscriptions.Config{EnableTradesStreaming: true}}
	eng := engine.New(cfg, &recordingNotifier{}, mdNotifier, nil, nil)
	eng.AddInstrument(orders.Instrument{Symbol: "AAPL"})

	requestID := "sub-1"
	subReqType := subscriptions.Subscribe
	if err := eng.ProcessMarketDataRequest(subscriptions.Request{
		RequestID:   &requestID,
		RequestType: &subReqType,
		Session:     session.NewGenerator(),
		Instruments: []orders.Instrument{{Symbol: "AAPL"}},
		MarketDataTypes: []marketdata.EntryType{marketdata.EntryBid, marketdata.EntryOffer},
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if c.snapshots != 1 {
		t.Fatalf("expected 1 snapshot on subscribe, got %d", c.snapshots)
	}

	place(t, eng, "AAPL", "sell-1", "Sell", "Limit", "Day", priceptr("151.00"), 100, now)
	eng.Publish()

	if c.updates != 1 {
		t.Errorf("expected 1 update after publish, got %d", c.updates)
	}
	fmt.Println("Subscriber received an initial snapshot, then one incremental update.")
}

type capturingMarketDataNotifier struct {
	onSnapshot func()
	onUpdate   func()
}

func (n *capturingMarketDataNotifier) Snapshot(session.Session, string, orders.Instrument, []marketdata.Entry) {
	n.onSnapshot()
}
func (n *capturingMarketDataNotifier) Update(session.Session, string, orders.Instrument, []marketdata.Entry) {
	n.onUpdate()
}
func (n *capturingMarketDataNotifier) Reject(session.Session, string, string) {}

// ============================================================================
// TEST 6: CORRECTNESS — VERIFY REAL MATCHING, NOT A STUB
// ============================================================================

func TestCorrectness_VerifyRealMatching(t *testing.T) {
	fmt.Println()
	fmt.Println(repeat("=", 70))
	fmt.Println("TEST: Correctness — full fill, partial fill, and resting balance")
	fmt.Println(repeat("=", 70))

	now := time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC)
	eng, notifier := newTestEngine(t, "AAPL")

	place(t, eng, "AAPL", "sell-1", "Sell", "Limit", "Day", priceptr("150.00"), 300, now)
	place(t, eng, "AAPL", "buy-1", "Buy", "Limit", "Day", priceptr("150.00"), 120, now.Add(time.Millisecond))

	var traded int64
	for _, e := range notifier.events {
		if e.Kind == events.KindTrade {
			traded += e.TradeQuantity
		}
	}
	if traded != 120 {
		t.Fatalf("expected 120 shares traded, got %d", traded)
	}

	snapshot, err := eng.StoreState("AAPL")
	if err != nil {
		t.Fatalf("store state: %v", err)
	}
	if len(snapshot.Book.Sell) != 1 {
		t.Fatalf("expected 1 resting sell order, got %d", len(snapshot.Book.Sell))
	}
	if leaves := snapshot.Book.Sell[0].Quantity - snapshot.Book.Sell[0].Executed; leaves != 180 {
		t.Errorf("expected 180 shares left resting, got %d", leaves)
	}
	fmt.Println("120 of 300 shares traded; 180 shares correctly remain resting.")
}
