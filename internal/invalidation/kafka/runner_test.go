package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"

	"github.com/open-spatial/geocell/internal/config"
	"github.com/open-spatial/geocell/internal/invalidation"
	"github.com/open-spatial/geocell/internal/model"
)

func configStub(driver string, enabled bool, brokers string) config.InvalidationCfg {
	return config.InvalidationCfg{
		Enabled: enabled, Driver: driver, Brokers: brokers,
		Topic: "cell-invalidation", GroupID: "covering-invalidator",
	}
}

type fakeInvalidator struct {
	mu     sync.Mutex
	calls  [][]string
	scheme string
	err    error
}

func (f *fakeInvalidator) Invalidate(_ context.Context, scheme string, tokens []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheme = scheme
	f.calls = append(f.calls, tokens)
	return f.err
}

func (f *fakeInvalidator) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += len(c)
	}
	return n
}

type fakeCoverer struct{ tokens []string }

func (f fakeCoverer) Cover(_ string, _ model.BBox, _ int) ([]string, error) {
	return f.tokens, nil
}

func message(t *testing.T, ev invalidation.Event) *sarama.ConsumerMessage {
	t.Helper()
	raw, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return &sarama.ConsumerMessage{Value: raw, Timestamp: ev.TS}
}

func testEvent(seq uint64, tokens ...string) invalidation.Event {
	return invalidation.Event{
		Version: 1, Op: "invalidate", Scheme: "h3",
		Tokens: tokens, Seq: seq, TS: time.Now().UTC(),
	}
}

func TestHandleMessage_TokensApplied(t *testing.T) {
	inv := &fakeInvalidator{}
	r := New(Config{}, inv, nil, Options{})

	ev := testEvent(1, "89283082803ffff", "89283082807ffff")
	if err := r.handleMessage(context.Background(), message(t, ev)); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}
	if inv.total() != 2 || inv.scheme != "h3" {
		t.Fatalf("invalidator saw %d tokens for %q", inv.total(), inv.scheme)
	}
}

func TestHandleMessage_SeqDedupe(t *testing.T) {
	inv := &fakeInvalidator{}
	r := New(Config{}, inv, nil, Options{})

	ev := testEvent(5, "89283082803ffff")
	if err := r.handleMessage(context.Background(), message(t, ev)); err != nil {
		t.Fatalf("first: %v", err)
	}
	// Replay and an older event must both be ignored.
	if err := r.handleMessage(context.Background(), message(t, ev)); err != nil {
		t.Fatalf("replay: %v", err)
	}
	old := testEvent(4, "89283082803ffff")
	if err := r.handleMessage(context.Background(), message(t, old)); err != nil {
		t.Fatalf("older: %v", err)
	}
	if inv.total() != 1 {
		t.Fatalf("dedupe failed: invalidator saw %d tokens", inv.total())
	}

	newer := testEvent(6, "89283082803ffff")
	if err := r.handleMessage(context.Background(), message(t, newer)); err != nil {
		t.Fatalf("newer: %v", err)
	}
	if inv.total() != 2 {
		t.Fatalf("newer seq not applied: %d", inv.total())
	}
}

func TestHandleMessage_ZeroSeqAlwaysApplies(t *testing.T) {
	inv := &fakeInvalidator{}
	r := New(Config{}, inv, nil, Options{})

	ev := testEvent(0, "89283082803ffff")
	_ = r.handleMessage(context.Background(), message(t, ev))
	_ = r.handleMessage(context.Background(), message(t, ev))
	if inv.total() != 2 {
		t.Fatalf("unsequenced events must apply every time, got %d", inv.total())
	}
}

func TestHandleMessage_BBoxResolvedThroughCoverer(t *testing.T) {
	inv := &fakeInvalidator{}
	cov := fakeCoverer{tokens: []string{"89283082803ffff", "89283082807ffff", "8928308280bffff"}}
	r := New(Config{}, inv, cov, Options{})

	ev := invalidation.Event{
		Version: 1, Op: "invalidate", Scheme: "h3",
		BBox:      &invalidation.BBox{West: 17.9, South: 59.25, East: 18.2, North: 59.45},
		Precision: 9, Seq: 1, TS: time.Now().UTC(),
	}
	if err := r.handleMessage(context.Background(), message(t, ev)); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}
	if inv.total() != 3 {
		t.Fatalf("bbox event applied %d tokens, want 3", inv.total())
	}
}

func TestHandleMessage_RejectsGarbage(t *testing.T) {
	r := New(Config{}, &fakeInvalidator{}, nil, Options{})

	msg := &sarama.ConsumerMessage{Value: []byte("{not json")}
	if err := r.handleMessage(context.Background(), msg); err == nil {
		t.Fatalf("expected decode error")
	}

	bad := testEvent(1)
	bad.Op = "refresh"
	if err := r.handleMessage(context.Background(), message(t, bad)); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestStart_DisabledIsNoop(t *testing.T) {
	r := New(Config{Enabled: false, Driver: DriverNone}, &fakeInvalidator{}, nil, Options{})
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("disabled Start: %v", err)
	}
	if ready, _ := r.Readiness(); ready {
		t.Fatalf("disabled runner must not report partitions assigned")
	}
	r.Stop()
}

func TestConfigFrom_SplitsBrokers(t *testing.T) {
	cfg := ConfigFrom(configStub("kafka", true, " k1:9092, k2:9092 ,"))
	if cfg.Driver != DriverKafka || !cfg.Enabled {
		t.Fatalf("cfg = %+v", cfg)
	}
	if len(cfg.Brokers) != 2 || cfg.Brokers[0] != "k1:9092" || cfg.Brokers[1] != "k2:9092" {
		t.Fatalf("brokers = %v", cfg.Brokers)
	}
	if cfg.SessionTimeout == 0 || cfg.Heartbeat == 0 {
		t.Fatalf("timing defaults missing: %+v", cfg)
	}
}
