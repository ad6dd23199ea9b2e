package instrumentinfo

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rishav/matching-core/internal/marketdata"
)

func mustPrice(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func entryFor(t marketdata.EntryType, entries []marketdata.Entry) (marketdata.Entry, bool) {
	for _, e := range entries {
		if e.Type == t {
			return e, true
		}
	}
	return marketdata.Entry{}, false
}

func TestUpdate_TradeWidensLowHighAndRecomputesMid(t *testing.T) {
	c := New()
	c.Update([]marketdata.Notification{{Kind: marketdata.NotifyTrade, TradePrice: mustPrice("10.00")}})
	c.Update([]marketdata.Notification{{Kind: marketdata.NotifyTrade, TradePrice: mustPrice("20.00")}})

	var out []marketdata.Entry
	c.ComposeInitial(marketdata.StreamingSettings{}, &out)

	low, _ := entryFor(marketdata.EntryLowPrice, out)
	high, _ := entryFor(marketdata.EntryHighPrice, out)
	mid, _ := entryFor(marketdata.EntryMidPrice, out)
	if low.Price.String() != "10" {
		t.Errorf("low = %s, want 10", low.Price.String())
	}
	if high.Price.String() != "20" {
		t.Errorf("high = %s, want 20", high.Price.String())
	}
	if mid.Price.String() != "15" {
		t.Errorf("mid = %s, want 15", mid.Price.String())
	}
}

func TestUpdate_TradeWithinRangeLeavesLowHighUnchanged(t *testing.T) {
	c := New()
	c.Update([]marketdata.Notification{{Kind: marketdata.NotifyTrade, TradePrice: mustPrice("10.00")}})
	c.Update([]marketdata.Notification{{Kind: marketdata.NotifyTrade, TradePrice: mustPrice("20.00")}})
	c.Update([]marketdata.Notification{{Kind: marketdata.NotifyTrade, TradePrice: mustPrice("15.00")}})

	var out []marketdata.Entry
	c.ComposeUpdate(marketdata.StreamingSettings{}, &out)
	if len(out) != 0 {
		t.Fatalf("a trade inside the existing low/high range must not be reported as a change, got %+v", out)
	}
}

// TestRecoverLow_NoOpWhenValueUnchanged is the regression test for the
// recover path only copying into lastUpdate on an actual change: recovering
// the same low price twice in a row must report a change exactly once.
func TestRecoverLow_NoOpWhenValueUnchanged(t *testing.T) {
	c := New()
	info := &marketdata.InstrumentInfoState{LowPrice: mustPrice("10.00"), HighPrice: mustPrice("20.00")}

	c.Update([]marketdata.Notification{{Kind: marketdata.NotifyInstrumentInfoRecover, RecoveredInfo: info}})
	var first []marketdata.Entry
	c.ComposeUpdate(marketdata.StreamingSettings{}, &first)
	if len(first) == 0 {
		t.Fatalf("first recovery of a fresh cache must report a change")
	}

	c.Update([]marketdata.Notification{{Kind: marketdata.NotifyInstrumentInfoRecover, RecoveredInfo: info}})
	var second []marketdata.Entry
	c.ComposeUpdate(marketdata.StreamingSettings{}, &second)
	if len(second) != 0 {
		t.Fatalf("recovering the same low/high/mid values again must report no change, got %+v", second)
	}
}

func TestRecoverLow_ReportsChangeWhenValueMoves(t *testing.T) {
	c := New()
	c.Update([]marketdata.Notification{{Kind: marketdata.NotifyInstrumentInfoRecover, RecoveredInfo: &marketdata.InstrumentInfoState{LowPrice: mustPrice("10.00"), HighPrice: mustPrice("20.00")}}})

	c.Update([]marketdata.Notification{{Kind: marketdata.NotifyInstrumentInfoRecover, RecoveredInfo: &marketdata.InstrumentInfoState{LowPrice: mustPrice("9.00"), HighPrice: mustPrice("20.00")}}})

	var out []marketdata.Entry
	c.ComposeUpdate(marketdata.StreamingSettings{}, &out)
	low, ok := entryFor(marketdata.EntryLowPrice, out)
	if !ok || low.Price.String() != "9" {
		t.Fatalf("want a low-price change entry at 9, got %+v", out)
	}
}

func TestUpdate_RecoverWithNilInfoMarksDeleted(t *testing.T) {
	c := New()
	c.Update([]marketdata.Notification{{Kind: marketdata.NotifyTrade, TradePrice: mustPrice("10.00")}})
	c.Update([]marketdata.Notification{{Kind: marketdata.NotifyInstrumentInfoRecover, RecoveredInfo: nil}})

	var out []marketdata.Entry
	c.ComposeUpdate(marketdata.StreamingSettings{}, &out)
	if len(out) == 0 {
		t.Fatalf("clearing a previously-set cache must report deletions")
	}
	for _, e := range out {
		if e.Action != marketdata.ActionDelete {
			t.Errorf("entry %+v should be a delete", e)
		}
	}
	if c.StoreState() != nil {
		t.Fatalf("cache should hold nothing after a nil-info recover")
	}
}

func TestStoreState_NilUntilBothLowAndHighSet(t *testing.T) {
	c := New()
	if c.StoreState() != nil {
		t.Fatalf("fresh cache should have no persisted state")
	}
	c.Update([]marketdata.Notification{{Kind: marketdata.NotifyTrade, TradePrice: mustPrice("10.00")}})
	if c.StoreState() == nil {
		t.Fatalf("a single trade sets both low and high and should be persistable")
	}
}
