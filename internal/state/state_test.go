package state

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishav/matching-core/internal/marketdata"
	"github.com/rishav/matching-core/internal/orderbook"
	"github.com/rishav/matching-core/internal/orders"
	"github.com/rishav/matching-core/internal/session"
)

func mustPrice(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testOrder(id uint64, side orders.Side, p string, qty int64) *orders.Order {
	return orders.NewLimit(id, side, mustPrice(p), qty, orders.Day,
		orders.Instrument{Symbol: "AAPL"}, session.NewFix(), time.Now())
}

func TestStoreBook_RecoverBook_RoundTrip(t *testing.T) {
	book := orderbook.New(orders.Instrument{Symbol: "AAPL"})
	require.NoError(t, book.BuyPage().Add(testOrder(1, orders.Buy, "10.00", 5)))
	require.NoError(t, book.BuyPage().Add(testOrder(2, orders.Buy, "10.50", 3)))
	require.NoError(t, book.SellPage().Add(testOrder(3, orders.Sell, "11.00", 7)))

	snapshot := StoreBook(book)
	require.Len(t, snapshot.Buy, 2)
	require.Len(t, snapshot.Sell, 1)

	recovered, err := RecoverBook(snapshot)
	require.NoError(t, err)

	assert.Equal(t, "10.50", recovered.BestBid().Price.String(), "highest bid must recover as best")

	o, _ := recovered.Lookup(3)
	require.NotNil(t, o)
	assert.Equal(t, orders.Sell, o.Side)
	assert.Equal(t, int64(7), o.Quantity)
}

func TestRecoverOrder_PreservesExecutedAndStatus(t *testing.T) {
	orig := testOrder(1, orders.Buy, "10.00", 10)
	orig.Execute(4)

	row := snapshotOrder(orig)
	recovered := recoverOrder(row)

	assert.Equal(t, int64(4), recovered.Executed)
	assert.Equal(t, orders.PartiallyFilled, recovered.Status)
	assert.Equal(t, int64(6), recovered.Leaves())
}

type fakeMarketDataProvider struct {
	trade *marketdata.TradeState
	info  *marketdata.InstrumentInfoState
}

func (f *fakeMarketDataProvider) StoreState() (*marketdata.TradeState, *marketdata.InstrumentInfoState) {
	return f.trade, f.info
}

type fakeMarketDataRecoverer struct {
	pushed []marketdata.Notification
}

func (f *fakeMarketDataRecoverer) Push(n marketdata.Notification) {
	f.pushed = append(f.pushed, n)
}

func TestStoreAndRecover_ReplaysMarketDataNotifications(t *testing.T) {
	book := orderbook.New(orders.Instrument{Symbol: "AAPL"})
	require.NoError(t, book.BuyPage().Add(testOrder(1, orders.Buy, "10.00", 5)))

	tradeState := &marketdata.TradeState{}
	provider := &fakeMarketDataProvider{trade: tradeState}
	snapshot := Store(book, provider)

	assert.Same(t, tradeState, snapshot.Trade, "Store must carry through the provider's trade state")

	recoverer := &fakeMarketDataRecoverer{}
	recoveredBook, err := Recover(snapshot, recoverer)
	require.NoError(t, err)
	assert.NotNil(t, recoveredBook.BestBid(), "recovered book should carry over the resting order")

	require.Len(t, recoverer.pushed, 2)
	assert.Equal(t, marketdata.NotifyOrderAdded, recoverer.pushed[0].Kind, "resting order must be replayed before the trade/info recovery notifications")
	assert.Equal(t, marketdata.NotifyLastTradeRecover, recoverer.pushed[1].Kind)
}

func TestRecover_ReplaysRestingOrdersAsOrderAdded(t *testing.T) {
	book := orderbook.New(orders.Instrument{Symbol: "AAPL"})
	require.NoError(t, book.BuyPage().Add(testOrder(1, orders.Buy, "10.00", 5)))
	require.NoError(t, book.SellPage().Add(testOrder(2, orders.Sell, "11.00", 3)))

	snapshot := Store(book, &fakeMarketDataProvider{})
	recoverer := &fakeMarketDataRecoverer{}
	_, err := Recover(snapshot, recoverer)
	require.NoError(t, err)

	require.Len(t, recoverer.pushed, 2)
	for _, n := range recoverer.pushed {
		assert.Equal(t, marketdata.NotifyOrderAdded, n.Kind)
	}
	assert.Equal(t, int64(5), recoverer.pushed[0].Quantity)
	assert.Equal(t, 0, recoverer.pushed[0].Side, "buy side notification must use side 0")
	assert.Equal(t, int64(3), recoverer.pushed[1].Quantity)
	assert.Equal(t, 1, recoverer.pushed[1].Side, "sell side notification must use side 1")
}
