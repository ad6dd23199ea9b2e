package depth

import (
	"sort"

	"github.com/rishav/matching-core/internal/price"
)

// Level is one price level's quantity breakdown, keyed into a Node's
// ordered level lists.
type Level struct {
	Price    price.Price
	Quantity *QuantityList
}

// Node holds one side's depth view across two generations: current (the
// state after folding in this cycle's notifications) and previous (the
// state as of the last publish), so an incremental update can be built by
// diffing the two.
type Node struct {
	less     func(a, b price.Price) bool // true if a is better-priced than b
	current  map[string]*Level
	previous map[string]*Level
	order    []string // current's price keys, ordered best-first
}

func NewNode(less func(a, b price.Price) bool) *Node {
	return &Node{less: less, current: make(map[string]*Level), previous: make(map[string]*Level)}
}

func key(p price.Price) string { return p.String() }

// Add records an order's contribution to its price level, creating the
// level if it did not already exist in current.
func (n *Node) Add(p price.Price, ownerHash uint64, qty int64) {
	k := key(p)
	lvl, exists := n.current[k]
	if !exists {
		lvl = &Level{Price: p, Quantity: NewQuantityList()}
		n.current[k] = lvl
		n.insertSorted(k, p)
	}
	lvl.Quantity.Add(ownerHash, qty)
}

// Remove withdraws an order's contribution, dropping the level entirely
// once its quantity reaches zero. Used for both full removals and
// quantity reductions (pass the delta as qty).
func (n *Node) Remove(p price.Price, ownerHash uint64, qty int64) {
	k := key(p)
	lvl, exists := n.current[k]
	if !exists {
		return
	}
	lvl.Quantity.Remove(ownerHash, qty)
	if lvl.Quantity.IsEmpty() {
		delete(n.current, k)
		n.removeSorted(k)
	}
}

func (n *Node) insertSorted(k string, p price.Price) {
	idx := sort.Search(len(n.order), func(i int) bool {
		return !n.less(n.current[n.order[i]].Price, p)
	})
	n.order = append(n.order, "")
	copy(n.order[idx+1:], n.order[idx:])
	n.order[idx] = k
}

func (n *Node) removeSorted(k string) {
	for i, ok := range n.order {
		if ok == k {
			n.order = append(n.order[:i], n.order[i+1:]...)
			return
		}
	}
}

// Levels returns current's levels, best-first, up to max (0 = all).
func (n *Node) Levels(max int) []*Level {
	limit := len(n.order)
	if max > 0 && max < limit {
		limit = max
	}
	result := make([]*Level, limit)
	for i := 0; i < limit; i++ {
		result[i] = n.current[n.order[i]]
	}
	return result
}

// Fold copies current into previous, the point at which "no node is
// empty and current == previous" — called
// once per publish cycle after incremental updates have been composed.
func (n *Node) Fold() {
	previous := make(map[string]*Level, len(n.current))
	for k, lvl := range n.current {
		previous[k] = &Level{Price: lvl.Price, Quantity: lvl.Quantity.Clone()}
	}
	n.previous = previous
}

// priceAt returns the price for a key present in current and/or previous.
func (n *Node) priceAt(k string) price.Price {
	if lvl, ok := n.current[k]; ok {
		return lvl.Price
	}
	return n.previous[k].Price
}

