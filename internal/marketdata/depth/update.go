package depth

import (
	"sort"

	"github.com/rishav/matching-core/internal/marketdata"
)

// quantityFor applies the subscription's party-exclusion filter, if any.
func quantityFor(l *Level, settings marketdata.StreamingSettings) int64 {
	if settings.HasExcludeOwner {
		return l.Quantity.TotalExcluding(settings.ExcludeOwnerHash)
	}
	return l.Quantity.Total()
}

func entryFor(l *Level, entryType marketdata.EntryType, action marketdata.EntryAction, settings marketdata.StreamingSettings) marketdata.Entry {
	return marketdata.Entry{
		Type:        entryType,
		Action:      action,
		Price:       l.Price,
		Quantity:    quantityFor(l, settings),
		HasQuantity: true,
	}
}

func window(settings marketdata.StreamingSettings, available int) int {
	if settings.TopOfBookOnly {
		return 1
	}
	return available
}

// ComposeFull builds a full snapshot: every in-window current level as a
// new entry (FullDepthUpdateBuilder, full_depth_update.cpp).
func ComposeFull(sheet *Sheet, settings marketdata.StreamingSettings, destination *[]marketdata.Entry) {
	composeFullSide(sheet.Bid, marketdata.EntryBid, settings, destination)
	composeFullSide(sheet.Ask, marketdata.EntryOffer, settings, destination)
}

func composeFullSide(n *Node, entryType marketdata.EntryType, settings marketdata.StreamingSettings, destination *[]marketdata.Entry) {
	levels := n.Levels(window(settings, len(n.order)))
	for _, l := range levels {
		*destination = append(*destination, entryFor(l, entryType, marketdata.ActionNew, settings))
	}
}

// ComposeIncremental builds an unbounded incremental update: every level
// that differs between previous and current, by price identity, emitting
// Added/Changed/Removed (Unchanged levels are skipped). This is the
// unlimited-depth case, where there is no window and thus nothing for a
// correction factor to compensate (incremental_depth_update.cpp
// IncrementalDepthUpdateBuilder).
func ComposeIncremental(sheet *Sheet, settings marketdata.StreamingSettings, destination *[]marketdata.Entry) {
	composeIncrementalSide(sheet.Bid, marketdata.EntryBid, settings, destination)
	composeIncrementalSide(sheet.Ask, marketdata.EntryOffer, settings, destination)
}

func composeIncrementalSide(n *Node, entryType marketdata.EntryType, settings marketdata.StreamingSettings, destination *[]marketdata.Entry) {
	seen := make(map[string]bool)
	for _, k := range n.order {
		cur := n.current[k]
		seen[k] = true
		if prev, ok := n.previous[k]; ok {
			if prev.Quantity.Total() != cur.Quantity.Total() {
				*destination = append(*destination, entryFor(cur, entryType, marketdata.ActionChange, settings))
			}
			continue
		}
		*destination = append(*destination, entryFor(cur, entryType, marketdata.ActionNew, settings))
	}
	for k, prev := range n.previous {
		if !seen[k] {
			*destination = append(*destination, entryFor(prev, entryType, marketdata.ActionDelete, settings))
		}
	}
}

// limitedEntry pairs one price key's current and previous level view, for
// windowed diffing by price identity: either may be nil, but never both,
// since a key only ever enters this merge by appearing in current and/or
// previous.
type limitedEntry struct {
	cur, prev *Level
}

// mergedLevels returns, best-first, one entry per price key present in
// current and/or previous — the merged, price-ordered sequence a window
// is drawn from, so a level entering or leaving the window can never be
// mistaken for a level at a neighboring position (incremental_depth_
// update.cpp's LimitedIncrementalDepthUpdateBuilder iterates the same
// kind of merged, per-identity sequence rather than two parallel slices).
func mergedLevels(n *Node) []limitedEntry {
	keys := append([]string(nil), n.order...)
	seen := make(map[string]bool, len(keys)+len(n.previous))
	for _, k := range keys {
		seen[k] = true
	}
	for k := range n.previous {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return n.less(n.priceAt(keys[i]), n.priceAt(keys[j]))
	})

	entries := make([]limitedEntry, len(keys))
	for i, k := range keys {
		entries[i] = limitedEntry{cur: n.current[k], prev: n.previous[k]}
	}
	return entries
}

// ComposeLimitedIncremental builds a limited-depth incremental update:
// the first window levels of the merged current/previous sequence are
// diffed by price identity (Added/Changed/Removed, skipping Unchanged);
// once the window is exhausted, a correction factor (incremented for
// each Added seen inside the window, decremented for each Removed) is
// compensated by pulling additional levels from just beyond the window —
// a compensating Added pulled from current while the factor is negative,
// a compensating Removed pulled from previous while it is positive —
// until the factor reaches zero or the side runs out of levels to pull
// from (incremental_depth_update.cpp LimitedIncrementalDepthUpdateBuilder).
func ComposeLimitedIncremental(sheet *Sheet, limit int, settings marketdata.StreamingSettings, destination *[]marketdata.Entry) {
	composeLimitedSide(sheet.Bid, marketdata.EntryBid, limit, settings, destination)
	composeLimitedSide(sheet.Ask, marketdata.EntryOffer, limit, settings, destination)
}

func composeLimitedSide(n *Node, entryType marketdata.EntryType, limit int, settings marketdata.StreamingSettings, destination *[]marketdata.Entry) {
	win := limit
	if settings.TopOfBookOnly {
		win = 1
	}

	correction := 0
	for i, e := range mergedLevels(n) {
		if i < win {
			switch {
			case e.cur != nil && e.prev == nil:
				*destination = append(*destination, entryFor(e.cur, entryType, marketdata.ActionNew, settings))
				correction++
			case e.cur == nil && e.prev != nil:
				*destination = append(*destination, entryFor(e.prev, entryType, marketdata.ActionDelete, settings))
				correction--
			case e.cur.Quantity.Total() != e.prev.Quantity.Total():
				*destination = append(*destination, entryFor(e.cur, entryType, marketdata.ActionChange, settings))
			}
			continue
		}

		if correction == 0 {
			break
		}
		switch {
		case correction < 0 && e.cur != nil:
			*destination = append(*destination, entryFor(e.cur, entryType, marketdata.ActionNew, settings))
			correction++
		case correction > 0 && e.prev != nil:
			*destination = append(*destination, entryFor(e.prev, entryType, marketdata.ActionDelete, settings))
			correction--
		}
	}
}
