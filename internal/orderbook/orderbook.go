// Package orderbook (continued): the Book ties a buy page and a sell
// page together, keyed by price via the RBTree and exposing O(1) order
// lookup by id for the order actions layer.
package orderbook

import (
	"fmt"
	"strings"

	"github.com/rishav/matching-core/internal/orders"
)

// Page is one side of the book: a price-ordered sequence of resting
// limit orders. Buy pages sort best-first by descending price; sell
// pages (Sell/SellShort/SellShortExempt all rest here) sort best-first
// by ascending price.
type Page struct {
	tree   *RBTree
	orders map[uint64]*OrderNode
}

func newPage(descending bool) *Page {
	return &Page{tree: NewRBTree(descending), orders: make(map[uint64]*OrderNode)}
}

// Add inserts ord into the page at its price, creating the level if
// necessary. Errors if an order with the same id is already resting.
func (p *Page) Add(ord *orders.Order) error {
	if _, exists := p.orders[ord.ID]; exists {
		return fmt.Errorf("order %d already exists", ord.ID)
	}
	level := p.tree.Get(ord.Price)
	if level == nil {
		level = NewPriceLevel(ord.Price)
		p.tree.Insert(level)
	}
	node := level.Append(ord)
	p.orders[ord.ID] = node
	return nil
}

// Remove detaches the order with the given id from the page, dropping
// its price level if it becomes empty. Returns nil if not resting.
func (p *Page) Remove(orderID uint64) *orders.Order {
	node, exists := p.orders[orderID]
	if !exists {
		return nil
	}
	ord := node.Order
	level := node.level
	level.Remove(node)
	delete(p.orders, orderID)
	if level.IsEmpty() {
		p.tree.Delete(level.Price)
	}
	return ord
}

// Get returns the resting order with the given id, or nil.
func (p *Page) Get(orderID uint64) *orders.Order {
	node, exists := p.orders[orderID]
	if !exists {
		return nil
	}
	return node.Order
}

// Best returns the best (highest-priority) price level, or nil if empty.
func (p *Page) Best() *PriceLevel {
	return p.tree.Min()
}

// Levels returns up to maxLevels price levels, best first. maxLevels<=0 means all.
func (p *Page) Levels(maxLevels int) []*PriceLevel {
	result := make([]*PriceLevel, 0)
	count := 0
	p.tree.ForEach(func(level *PriceLevel) bool {
		result = append(result, level)
		count++
		return maxLevels <= 0 || count < maxLevels
	})
	return result
}

// LevelCount returns the number of distinct price levels.
func (p *Page) LevelCount() int { return p.tree.Size() }

// Size returns the total number of resting orders on this page.
func (p *Page) Size() int { return len(p.orders) }

// RemoveFilled drops every fully-filled order at level, and the level
// itself if it becomes empty. This is the page-level counterpart of the
// original's "erase(begin, first-non-filled)" contiguous prefix erase:
// since the matcher only ever exhausts a level entirely or stops mid
// level (leaving a non-filled order at the front, which blocks further
// iteration), removing filled orders level-by-level as the matcher
// finishes with each level is equivalent to a single prefix erase over
// the whole page.
func (p *Page) RemoveFilled(level *PriceLevel) int {
	removed := 0
	node := level.Head()
	for node != nil {
		next := node.Next()
		if node.Order.IsFilled() {
			level.Remove(node)
			delete(p.orders, node.Order.ID)
			removed++
		}
		node = next
	}
	if level.IsEmpty() {
		p.tree.Delete(level.Price)
	}
	return removed
}

// Book holds both sides of one instrument's resting limit orders.
type Book struct {
	instrument orders.Instrument
	buy        *Page
	sell       *Page
}

// New creates an empty book for the given instrument.
func New(instrument orders.Instrument) *Book {
	return &Book{
		instrument: instrument,
		buy:        newPage(true),  // descending: best bid is highest price
		sell:       newPage(false), // ascending: best ask is lowest price
	}
}

func (b *Book) Instrument() orders.Instrument { return b.instrument }

// Page returns the resting page an order of the given side belongs to:
// Buy rests on the buy page, every Sell variant rests on the sell page.
func (b *Book) Page(side orders.Side) *Page {
	if side.IsSell() {
		return b.sell
	}
	return b.buy
}

func (b *Book) BuyPage() *Page  { return b.buy }
func (b *Book) SellPage() *Page { return b.sell }

// Lookup finds a resting order by id across both pages.
func (b *Book) Lookup(orderID uint64) (*orders.Order, *Page) {
	if o := b.buy.Get(orderID); o != nil {
		return o, b.buy
	}
	if o := b.sell.Get(orderID); o != nil {
		return o, b.sell
	}
	return nil, nil
}

// BestBid / BestAsk return the top-of-book level for each side, or nil.
func (b *Book) BestBid() *PriceLevel { return b.buy.Best() }
func (b *Book) BestAsk() *PriceLevel { return b.sell.Best() }

func (b *Book) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("=== %s Order Book ===\n", b.instrument.Symbol))
	asks := b.sell.Levels(5)
	sb.WriteString("ASKS:\n")
	for i := len(asks) - 1; i >= 0; i-- {
		level := asks[i]
		sb.WriteString(fmt.Sprintf("  %s: %d shares (%d orders)\n", level.Price.String(), level.TotalQty, level.Count()))
	}
	bestBid, bestAsk := b.BestBid(), b.BestAsk()
	if bestBid != nil && bestAsk != nil {
		spread := bestAsk.Price.Sub(bestBid.Price)
		sb.WriteString(fmt.Sprintf("--- Spread: %s ---\n", spread.String()))
	} else {
		sb.WriteString("--- No Spread ---\n")
	}
	bids := b.buy.Levels(5)
	sb.WriteString("BIDS:\n")
	for _, level := range bids {
		sb.WriteString(fmt.Sprintf("  %s: %d shares (%d orders)\n", level.Price.String(), level.TotalQty, level.Count()))
	}
	return sb.String()
}
