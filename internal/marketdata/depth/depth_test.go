package depth

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rishav/matching-core/internal/marketdata"
	"github.com/rishav/matching-core/internal/price"
)

func px(s string) price.Price { return decimal.RequireFromString(s) }

func TestQuantityList_AddRemove(t *testing.T) {
	q := NewQuantityList()
	q.Add(1, 10)
	q.Add(2, 5)
	if q.Total() != 15 {
		t.Fatalf("total = %d, want 15", q.Total())
	}
	if q.TotalExcluding(1) != 5 {
		t.Fatalf("TotalExcluding(1) = %d, want 5", q.TotalExcluding(1))
	}
	q.Remove(1, 10)
	if _, ok := q.byOwner[1]; ok {
		t.Fatalf("owner 1 should have been dropped once its contribution hit zero")
	}
	if q.Total() != 5 {
		t.Fatalf("total after remove = %d, want 5", q.Total())
	}
}

func TestQuantityList_IsEmpty(t *testing.T) {
	q := NewQuantityList()
	if !q.IsEmpty() {
		t.Fatalf("new list should be empty")
	}
	q.Add(1, 3)
	if q.IsEmpty() {
		t.Fatalf("list with quantity should not be empty")
	}
	q.Remove(1, 3)
	if !q.IsEmpty() {
		t.Fatalf("list should be empty once its only contribution is withdrawn")
	}
}

func TestNode_Add_KeepsBestFirstOrder(t *testing.T) {
	n := NewNode(func(a, b price.Price) bool { return a.GreaterThan(b) })
	n.Add(px("10.00"), 1, 5)
	n.Add(px("10.50"), 1, 5)
	n.Add(px("9.50"), 1, 5)

	levels := n.Levels(0)
	if len(levels) != 3 {
		t.Fatalf("len(levels) = %d, want 3", len(levels))
	}
	want := []string{"10.5", "10", "9.5"}
	for i, w := range want {
		if got := levels[i].Price.String(); got != w {
			t.Errorf("level %d price = %s, want %s", i, got, w)
		}
	}
}

func TestNode_Remove_DropsEmptyLevel(t *testing.T) {
	n := NewNode(func(a, b price.Price) bool { return a.GreaterThan(b) })
	n.Add(px("10.00"), 1, 5)
	n.Remove(px("10.00"), 1, 5)
	if len(n.Levels(0)) != 0 {
		t.Fatalf("level should be gone once its quantity reaches zero")
	}
}

func TestComposeFull_RespectsTopOfBookOnly(t *testing.T) {
	sheet := NewSheet()
	sheet.Add(true, px("10.00"), 1, 5)
	sheet.Add(true, px("9.50"), 1, 5)
	sheet.Add(false, px("11.00"), 1, 5)

	var out []marketdata.Entry
	ComposeFull(sheet, marketdata.StreamingSettings{TopOfBookOnly: true}, &out)

	bidCount := 0
	for _, e := range out {
		if e.Type == marketdata.EntryBid {
			bidCount++
		}
	}
	if bidCount != 1 {
		t.Fatalf("bid entries = %d, want 1 under top-of-book-only", bidCount)
	}
}

// TestComposeLimitedSide_WindowShiftDoesNotMisattributeLevels reproduces the
// scenario a positional cur[i]-vs-prev[i] diff gets wrong: a new best price
// pushes every other level one slot over. The client's previously-visible
// window was [100, 99, 98]; its new window is [101, 100, 99] — so the only
// real change is 101 entering view and 98 falling out of it. 100 and 99
// must NOT be reported as changed just because their slot index moved.
func TestComposeLimitedSide_WindowShiftDoesNotMisattributeLevels(t *testing.T) {
	n := NewNode(func(a, b price.Price) bool { return a.GreaterThan(b) })
	n.Add(px("100"), 1, 1)
	n.Add(px("99"), 1, 1)
	n.Add(px("98"), 1, 1)
	n.Fold() // previous = [100, 99, 98]

	n.Add(px("101"), 1, 1) // current = [101, 100, 99, 98]

	var out []marketdata.Entry
	composeLimitedSide(n, marketdata.EntryBid, 3, marketdata.StreamingSettings{}, &out)

	if len(out) != 2 {
		t.Fatalf("entries = %d, want exactly 2 (101 added, 98 fell out of the window); got %+v", len(out), out)
	}
	byPrice := map[string]marketdata.EntryAction{}
	for _, e := range out {
		byPrice[e.Price.String()] = e.Action
	}
	if a, ok := byPrice["101"]; !ok || a != marketdata.ActionNew {
		t.Errorf("want 101 Added, got %+v", out)
	}
	if a, ok := byPrice["98"]; !ok || a != marketdata.ActionDelete {
		t.Errorf("want 98 Removed as it fell out of the window, got %+v", out)
	}
	if _, ok := byPrice["100"]; ok {
		t.Errorf("100 stayed in the window unchanged and must not appear, got %+v", out)
	}
	if _, ok := byPrice["99"]; ok {
		t.Errorf("99 stayed in the window unchanged and must not appear, got %+v", out)
	}
}

// TestComposeLimitedSide_OutOfWindowRemovalPullsReplacement covers the
// correction-factor carry-over: removing the best price inside the window
// must pull the next price beyond the window in as a compensating Added.
func TestComposeLimitedSide_OutOfWindowRemovalPullsReplacement(t *testing.T) {
	n := NewNode(func(a, b price.Price) bool { return a.GreaterThan(b) })
	n.Add(px("100"), 1, 1)
	n.Add(px("99"), 1, 1)
	n.Add(px("98"), 1, 1)
	n.Add(px("97"), 1, 1)
	n.Fold() // previous = [100, 99, 98, 97]

	n.Remove(px("100"), 1, 1) // current = [99, 98, 97]

	var out []marketdata.Entry
	composeLimitedSide(n, marketdata.EntryBid, 3, marketdata.StreamingSettings{}, &out)

	var removed, added int
	for _, e := range out {
		switch e.Action {
		case marketdata.ActionDelete:
			removed++
			if e.Price.String() != "100" {
				t.Errorf("removed price = %s, want 100", e.Price.String())
			}
		case marketdata.ActionNew:
			added++
			if e.Price.String() != "97" {
				t.Errorf("compensating added price = %s, want 97 (the level just beyond the old window)", e.Price.String())
			}
		}
	}
	if removed != 1 || added != 1 {
		t.Fatalf("got removed=%d added=%d, want exactly one of each", removed, added)
	}
}

func TestComposeLimitedSide_UnchangedLevelEmitsNothing(t *testing.T) {
	n := NewNode(func(a, b price.Price) bool { return a.GreaterThan(b) })
	n.Add(px("100"), 1, 5)
	n.Fold()

	var out []marketdata.Entry
	composeLimitedSide(n, marketdata.EntryBid, 3, marketdata.StreamingSettings{}, &out)

	if len(out) != 0 {
		t.Fatalf("unchanged level should produce no entries, got %+v", out)
	}
}

func TestComposeIncremental_ReportsChangeOnQuantityMove(t *testing.T) {
	sheet := NewSheet()
	sheet.Add(true, px("10.00"), 1, 5)
	sheet.Fold()
	sheet.Add(true, px("10.00"), 2, 3)

	var out []marketdata.Entry
	ComposeIncremental(sheet, marketdata.StreamingSettings{}, &out)

	if len(out) != 1 || out[0].Action != marketdata.ActionChange {
		t.Fatalf("entries = %+v, want a single Change entry", out)
	}
	if out[0].Quantity != 8 {
		t.Fatalf("quantity = %d, want 8", out[0].Quantity)
	}
}
