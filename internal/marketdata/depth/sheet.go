package depth

import (
	"github.com/rishav/matching-core/internal/price"
)

// Sheet holds both sides' depth nodes for one instrument, grounded on
// depth_sheet.cpp.
type Sheet struct {
	Bid *Node
	Ask *Node
}

func NewSheet() *Sheet {
	return &Sheet{
		Bid: NewNode(func(a, b price.Price) bool { return a.GreaterThan(b) }), // best bid = highest price
		Ask: NewNode(func(a, b price.Price) bool { return a.LessThan(b) }),    // best ask = lowest price
	}
}

func (s *Sheet) node(isBid bool) *Node {
	if isBid {
		return s.Bid
	}
	return s.Ask
}

// Add/Remove route a side's order-level quantity change into the right
// node.
func (s *Sheet) Add(isBid bool, p price.Price, ownerHash uint64, qty int64) {
	s.node(isBid).Add(p, ownerHash, qty)
}

func (s *Sheet) Remove(isBid bool, p price.Price, ownerHash uint64, qty int64) {
	s.node(isBid).Remove(p, ownerHash, qty)
}

// Fold folds both sides, the point at which current == previous on every
// node.
func (s *Sheet) Fold() {
	s.Bid.Fold()
	s.Ask.Fold()
}
