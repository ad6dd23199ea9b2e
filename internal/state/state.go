// Package state implements the engine's store_state / recover_state
// operations: a symmetric snapshot/restore of one instrument's order
// book plus its market-data caches, so a process can be restarted
// without losing resting orders or the last reported trade/instrument-
// info values. The wire encoding of the snapshot is intentionally
// opaque to the caller and left to gob, matching events.Log's own
// encoding choice.
package state

import (
	"time"

	"github.com/google/uuid"

	"github.com/rishav/matching-core/internal/marketdata"
	"github.com/rishav/matching-core/internal/orderbook"
	"github.com/rishav/matching-core/internal/orders"
	"github.com/rishav/matching-core/internal/price"
	"github.com/rishav/matching-core/internal/session"
)

func parseSessionID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

// OrderSnapshot is one resting order's full persisted attributes,
// flattened out of orders.Order for encoding.
type OrderSnapshot struct {
	ID                    uint64
	Type                  orders.Type
	Side                  orders.Side
	Price                 price.Price
	Quantity              int64
	Executed              int64
	Status                orders.Status
	TIF                   orders.TimeInForce
	ExpireTime            *time.Time
	ExpireDate            *time.Time
	ShortSaleExemptReason *string
	ClientOrderID         *string
	Parties               []orders.Party
	SessionKind           session.Kind
	SessionID             string
	Instrument            orders.Instrument
	OrderTime             time.Time
}

// BookSnapshot is the order-book half of the persisted layout: two
// vectors (buy side, sell side), best-price first within each, matching
// the book's own price-time order.
type BookSnapshot struct {
	Instrument orders.Instrument
	Buy        []OrderSnapshot
	Sell       []OrderSnapshot
}

// Snapshot is the full opaque persisted-state value store_state returns
// and recover_state consumes: the book plus the last trade and
// instrument-info cache state.
type Snapshot struct {
	Book           BookSnapshot
	Trade          *marketdata.TradeState
	InstrumentInfo *marketdata.InstrumentInfoState
}

func snapshotOrder(o *orders.Order) OrderSnapshot {
	return OrderSnapshot{
		ID:                    o.ID,
		Type:                  o.Type,
		Side:                  o.Side,
		Price:                 o.Price,
		Quantity:              o.Quantity,
		Executed:              o.Executed,
		Status:                o.Status,
		TIF:                   o.TIF,
		ExpireTime:            o.ExpireTime,
		ExpireDate:            o.ExpireDate,
		ShortSaleExemptReason: o.ShortSaleExemptReason,
		ClientOrderID:         o.ClientOrderID,
		Parties:               o.Parties,
		SessionKind:           o.Session.Kind,
		SessionID:             o.Session.ID.String(),
		Instrument:            o.Instrument,
		OrderTime:             o.OrderTime,
	}
}

func snapshotPage(p *orderbook.Page) []OrderSnapshot {
	var out []OrderSnapshot
	for _, level := range p.Levels(0) {
		for _, o := range level.Orders() {
			out = append(out, snapshotOrder(o))
		}
	}
	return out
}

// StoreBook builds a BookSnapshot from a live book, best price first on
// each side, preserving time priority within a level.
func StoreBook(book *orderbook.Book) BookSnapshot {
	return BookSnapshot{
		Instrument: book.Instrument(),
		Buy:        snapshotPage(book.BuyPage()),
		Sell:       snapshotPage(book.SellPage()),
	}
}

// RecoverBook rebuilds a live book from a snapshot, re-inserting each
// side in its stored (best-first) order so price-time priority is
// restored exactly.
func RecoverBook(snapshot BookSnapshot) (*orderbook.Book, error) {
	book := orderbook.New(snapshot.Instrument)
	for _, rows := range [][]OrderSnapshot{snapshot.Buy, snapshot.Sell} {
		for _, row := range rows {
			if err := book.Page(row.Side).Add(recoverOrder(row)); err != nil {
				return nil, err
			}
		}
	}
	return book, nil
}

func recoverOrder(row OrderSnapshot) *orders.Order {
	sessionID, err := parseSessionID(row.SessionID)
	if err != nil {
		sessionID = session.NewGenerator().ID
	}
	var o *orders.Order
	if row.Type == orders.Market {
		o = orders.NewMarket(row.ID, row.Side, row.Quantity, row.Instrument, session.Session{Kind: row.SessionKind, ID: sessionID}, row.OrderTime)
	} else {
		o = orders.NewLimit(row.ID, row.Side, row.Price, row.Quantity, row.TIF, row.Instrument, session.Session{Kind: row.SessionKind, ID: sessionID}, row.OrderTime)
	}
	o.Executed = row.Executed
	o.Status = row.Status
	o.ExpireTime = row.ExpireTime
	o.ExpireDate = row.ExpireDate
	o.ShortSaleExemptReason = row.ShortSaleExemptReason
	o.ClientOrderID = row.ClientOrderID
	o.Parties = row.Parties
	return o
}

// MarketDataProvider is the subset of cache.Manager store_state exposes
// state against.
type MarketDataProvider interface {
	StoreState() (*marketdata.TradeState, *marketdata.InstrumentInfoState)
}

// Store builds the full persisted Snapshot for one instrument's engine
// state: the book plus both market-data cache states.
func Store(book *orderbook.Book, md MarketDataProvider) Snapshot {
	trade, info := md.StoreState()
	return Snapshot{Book: StoreBook(book), Trade: trade, InstrumentInfo: info}
}

// MarketDataRecoverer is the subset of cache.Manager recover_state feeds
// into, via notifications the manager folds on its next ApplyPending.
type MarketDataRecoverer interface {
	Push(n marketdata.Notification)
}

// sideOf maps a resting order's sell-ness onto the market-data cache's
// 0=buy/1=sell side convention.
func sideOf(isSell bool) int {
	if isSell {
		return 1
	}
	return 0
}

// pushRestingOrders replays one NotifyOrderAdded per order recovered
// into the live book, so the recovering instrument's depth cache starts
// populated with every resting level instead of empty — mirroring what
// the engine's market-data bridge does for KindOrderAddedToBook on the
// live placement path.
func pushRestingOrders(book *orderbook.Book, md MarketDataRecoverer) {
	for _, page := range []*orderbook.Page{book.BuyPage(), book.SellPage()} {
		for _, level := range page.Levels(0) {
			for _, o := range level.Orders() {
				hash, _ := marketdata.ExecutingFirmHash(o.Parties)
				md.Push(marketdata.Notification{
					Kind:      marketdata.NotifyOrderAdded,
					Side:      sideOf(o.Side.IsSell()),
					Price:     o.Price,
					Quantity:  o.Leaves(),
					OwnerHash: hash,
				})
			}
		}
	}
}

// Recover rebuilds a live book and replays the market-data cache state
// as recovery notifications, so the recovering engine's caches report
// the same resting depth and last trade/low/high the snapshot was taken
// with.
func Recover(snapshot Snapshot, md MarketDataRecoverer) (*orderbook.Book, error) {
	book, err := RecoverBook(snapshot.Book)
	if err != nil {
		return nil, err
	}
	pushRestingOrders(book, md)
	if snapshot.Trade != nil {
		md.Push(marketdata.Notification{Kind: marketdata.NotifyLastTradeRecover, RecoveredTrade: snapshot.Trade})
	}
	if snapshot.InstrumentInfo != nil {
		md.Push(marketdata.Notification{Kind: marketdata.NotifyInstrumentInfoRecover, RecoveredInfo: snapshot.InstrumentInfo})
	}
	return book, nil
}
