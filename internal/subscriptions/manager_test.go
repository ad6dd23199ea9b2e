package subscriptions

import (
	"testing"

	"github.com/rishav/matching-core/internal/marketdata"
	"github.com/rishav/matching-core/internal/orders"
	"github.com/rishav/matching-core/internal/session"
)

type fakeProvider struct {
	initial []marketdata.Entry
	update  []marketdata.Entry
}

func (p *fakeProvider) ComposeInitial(marketdata.StreamingSettings) []marketdata.Entry { return p.initial }
func (p *fakeProvider) ComposeUpdate(marketdata.StreamingSettings) []marketdata.Entry  { return p.update }

type fakeNotifier struct {
	snapshots int
	updates   int
	rejects   []string
}

func (n *fakeNotifier) Snapshot(session.Session, string, orders.Instrument, []marketdata.Entry) {
	n.snapshots++
}
func (n *fakeNotifier) Update(session.Session, string, orders.Instrument, []marketdata.Entry) {
	n.updates++
}
func (n *fakeNotifier) Reject(_ session.Session, _ string, reason string) {
	n.rejects = append(n.rejects, reason)
}

func reqID(s string) *string { return &s }
func reqType(t RequestType) *RequestType { return &t }

func baseRequest() Request {
	return Request{
		RequestID:       reqID("req-1"),
		RequestType:     reqType(Subscribe),
		Session:         session.NewGenerator(),
		Instruments:     []orders.Instrument{{Symbol: "AAPL"}},
		MarketDataTypes: []marketdata.EntryType{marketdata.EntryBid, marketdata.EntryOffer},
	}
}

func TestManager_Subscribe_SendsInitialSnapshot(t *testing.T) {
	provider := &fakeProvider{initial: []marketdata.Entry{{Type: marketdata.EntryBid}}}
	notifier := &fakeNotifier{}
	m := New(Config{}, provider, notifier)

	m.Process(baseRequest())

	if notifier.snapshots != 1 {
		t.Errorf("snapshots = %d, want 1", notifier.snapshots)
	}
	if len(notifier.rejects) != 0 {
		t.Errorf("unexpected rejects: %v", notifier.rejects)
	}
}

func TestManager_Subscribe_DuplicateRequestIDRejected(t *testing.T) {
	provider := &fakeProvider{}
	notifier := &fakeNotifier{}
	m := New(Config{}, provider, notifier)

	req := baseRequest()
	m.Process(req)
	m.Process(req)

	if len(notifier.rejects) != 1 {
		t.Fatalf("rejects = %v, want exactly 1 duplicate rejection", notifier.rejects)
	}
}

func TestManager_RejectsTradesWhenStreamingDisabled(t *testing.T) {
	provider := &fakeProvider{}
	notifier := &fakeNotifier{}
	m := New(Config{EnableTradesStreaming: false}, provider, notifier)

	req := baseRequest()
	req.MarketDataTypes = []marketdata.EntryType{marketdata.EntryTrade}
	m.Process(req)

	if len(notifier.rejects) != 1 {
		t.Fatalf("expected trade subscription rejected while streaming disabled, got %v", notifier.rejects)
	}
}

func TestManager_Publish_SuppressesEmptyUpdates(t *testing.T) {
	provider := &fakeProvider{initial: []marketdata.Entry{{Type: marketdata.EntryBid}}}
	notifier := &fakeNotifier{}
	m := New(Config{}, provider, notifier)
	m.Process(baseRequest())

	m.Publish() // provider.update is nil/empty

	if notifier.updates != 0 {
		t.Errorf("updates = %d, want 0 (empty composed update must be suppressed)", notifier.updates)
	}

	provider.update = []marketdata.Entry{{Type: marketdata.EntryOffer}}
	m.Publish()

	if notifier.updates != 1 {
		t.Errorf("updates = %d, want 1 after a non-empty compose", notifier.updates)
	}
}

func TestManager_UnsubscribeSession_DropsOnlyThatSessionsSubs(t *testing.T) {
	provider := &fakeProvider{}
	notifier := &fakeNotifier{}
	m := New(Config{}, provider, notifier)

	s1 := session.NewGenerator()
	s2 := session.NewGenerator()

	req1 := baseRequest()
	req1.Session = s1
	req1.RequestID = reqID("req-a")
	m.Process(req1)

	req2 := baseRequest()
	req2.Session = s2
	req2.RequestID = reqID("req-b")
	m.Process(req2)

	m.UnsubscribeSession(s1)

	if m.find("req-a", s1) != nil {
		t.Error("session 1's subscription should have been dropped")
	}
	if m.find("req-b", s2) == nil {
		t.Error("session 2's subscription should remain")
	}
}

func TestManager_Process_RejectsInvalidInstrumentCount(t *testing.T) {
	provider := &fakeProvider{}
	notifier := &fakeNotifier{}
	m := New(Config{}, provider, notifier)

	req := baseRequest()
	req.Instruments = nil
	m.Process(req)

	if len(notifier.rejects) != 1 {
		t.Fatalf("expected rejection for zero instruments, got %v", notifier.rejects)
	}
}
