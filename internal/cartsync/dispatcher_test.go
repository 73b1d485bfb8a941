package cartsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/homeplast-storefront/internal/cart"
	"github.com/angelmondragon/homeplast-storefront/pkg/auth"
	pkgerrors "github.com/angelmondragon/homeplast-storefront/pkg/errors"
	"github.com/angelmondragon/homeplast-storefront/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type recordedCall struct {
	token     string
	op        Op
	productID string
	quantity  int
}

func (c recordedCall) String() string {
	return fmt.Sprintf("%s:%s:%s:%d", c.token, c.op, c.productID, c.quantity)
}

type stubGateway struct {
	mu    sync.Mutex
	calls []recordedCall
	err   error
	block chan struct{}
	start chan struct{}
}

func (s *stubGateway) record(ctx context.Context, call recordedCall) error {
	if s.start != nil {
		s.start <- struct{}{}
	}
	if s.block != nil {
		<-s.block
	}
	call.token = auth.TokenFromContext(ctx)
	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()
	return s.err
}

func (s *stubGateway) AddCartItem(ctx context.Context, line cart.Line) error {
	return s.record(ctx, recordedCall{op: OpAdd, productID: line.ProductID, quantity: line.Quantity})
}

func (s *stubGateway) UpdateCartItem(ctx context.Context, productID string, quantity int) error {
	return s.record(ctx, recordedCall{op: OpUpdate, productID: productID, quantity: quantity})
}

func (s *stubGateway) RemoveCartItem(ctx context.Context, productID string) error {
	return s.record(ctx, recordedCall{op: OpRemove, productID: productID})
}

func (s *stubGateway) ClearCart(ctx context.Context) error {
	return s.record(ctx, recordedCall{op: OpClear})
}

func (s *stubGateway) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.calls))
	for _, c := range s.calls {
		out = append(out, c.String())
	}
	return out
}

func (s *stubGateway) callsFor(token string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, c := range s.calls {
		if c.token == token {
			out = append(out, c.String())
		}
	}
	return out
}

func newDispatcher(t *testing.T, gw Gateway, window time.Duration, reg *prometheus.Registry) *Dispatcher {
	t.Helper()
	params := DispatcherParams{Gateway: gw, Workers: 4, QueueSize: 16, DebounceWindow: window}
	if reg != nil {
		params.Metrics = metrics.NewSyncMetrics(reg)
	}
	d, err := NewDispatcher(params)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	return d
}

func closeDispatcher(t *testing.T, d *Dispatcher) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := d.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func update(session, productID string, qty int) Job {
	return Job{Op: OpUpdate, SessionID: session, Token: session, ProductID: productID, Quantity: qty}
}

func assertCalls(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected calls %v, got %v", want, got)
		}
	}
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
	metricLoop:
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				if want, ok := labels[label.GetName()]; ok && want != label.GetValue() {
					continue metricLoop
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestNewDispatcherRequiresGateway(t *testing.T) {
	_, err := NewDispatcher(DispatcherParams{})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for missing gateway, got %v", err)
	}
}

func TestUpdatesAreCoalesced(t *testing.T) {
	gw := &stubGateway{}
	reg := prometheus.NewRegistry()
	d := newDispatcher(t, gw, time.Hour, reg)

	d.Enqueue(update("s1", "p1", 2))
	d.Enqueue(update("s1", "p1", 3))
	d.Enqueue(update("s1", "p1", 4))
	closeDispatcher(t, d)

	assertCalls(t, gw.snapshot(), "s1:update:p1:4")
	if got := counterValue(t, reg, "cart_sync_coalesced_total", nil); got != 2 {
		t.Fatalf("expected 2 coalesced updates, got %v", got)
	}
	if got := counterValue(t, reg, "cart_sync_dispatched_total", map[string]string{"op": "update"}); got != 1 {
		t.Fatalf("expected 1 dispatched update, got %v", got)
	}
}

func TestDebouncedUpdateFiresAfterWindow(t *testing.T) {
	gw := &stubGateway{}
	d := newDispatcher(t, gw, 10*time.Millisecond, nil)
	defer closeDispatcher(t, d)

	d.Enqueue(update("s1", "p1", 2))
	d.Enqueue(update("s1", "p1", 5))

	deadline := time.Now().Add(2 * time.Second)
	for len(gw.snapshot()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("debounced update never fired")
		}
		time.Sleep(5 * time.Millisecond)
	}
	assertCalls(t, gw.snapshot(), "s1:update:p1:5")
}

func TestUpdatesForDifferentProductsAreIndependent(t *testing.T) {
	gw := &stubGateway{}
	d := newDispatcher(t, gw, time.Hour, nil)

	d.Enqueue(update("s1", "p1", 2))
	d.Enqueue(update("s1", "p2", 7))
	closeDispatcher(t, d)

	if got := len(gw.snapshot()); got != 2 {
		t.Fatalf("expected both updates sent, got %v", gw.snapshot())
	}
}

func TestRemoveSupersedesPendingUpdate(t *testing.T) {
	gw := &stubGateway{}
	d := newDispatcher(t, gw, time.Hour, nil)

	d.Enqueue(update("s1", "p1", 2))
	d.Enqueue(Job{Op: OpRemove, SessionID: "s1", Token: "s1", ProductID: "p1"})
	closeDispatcher(t, d)

	assertCalls(t, gw.snapshot(), "s1:remove:p1:0")
}

func TestAddFlushesPendingUpdateFirst(t *testing.T) {
	gw := &stubGateway{}
	d := newDispatcher(t, gw, time.Hour, nil)

	d.Enqueue(update("s1", "p1", 2))
	d.Enqueue(Job{Op: OpAdd, SessionID: "s1", Token: "s1", Line: cart.Line{ProductID: "p1", Quantity: 1}})
	closeDispatcher(t, d)

	assertCalls(t, gw.snapshot(), "s1:update:p1:2", "s1:add:p1:1")
}

func TestClearOnlyDropsItsOwnSession(t *testing.T) {
	gw := &stubGateway{}
	d := newDispatcher(t, gw, time.Hour, nil)

	d.Enqueue(update("s1", "p1", 2))
	d.Enqueue(update("s2", "p1", 3))
	d.Enqueue(Job{Op: OpClear, SessionID: "s1", Token: "s1"})
	closeDispatcher(t, d)

	assertCalls(t, gw.callsFor("s1"), "s1:clear::0")
	assertCalls(t, gw.callsFor("s2"), "s2:update:p1:3")
}

func TestSessionJobsRunInOrder(t *testing.T) {
	gw := &stubGateway{}
	d := newDispatcher(t, gw, 0, nil)

	d.Enqueue(Job{Op: OpAdd, SessionID: "s1", Token: "s1", Line: cart.Line{ProductID: "p1", Quantity: 1}})
	d.Enqueue(update("s1", "p1", 3))
	d.Enqueue(Job{Op: OpRemove, SessionID: "s1", Token: "s1", ProductID: "p1"})
	d.Enqueue(Job{Op: OpClear, SessionID: "s1", Token: "s1"})
	closeDispatcher(t, d)

	assertCalls(t, gw.snapshot(), "s1:add:p1:1", "s1:update:p1:3", "s1:remove:p1:0", "s1:clear::0")
}

func TestFailuresAreCountedNotSurfaced(t *testing.T) {
	gw := &stubGateway{err: errors.New("boom")}
	reg := prometheus.NewRegistry()
	d := newDispatcher(t, gw, 0, reg)

	d.Enqueue(Job{Op: OpClear, SessionID: "s1", Token: "s1"})
	closeDispatcher(t, d)

	if got := counterValue(t, reg, "cart_sync_failed_total", map[string]string{"op": "clear"}); got != 1 {
		t.Fatalf("expected 1 failed clear, got %v", got)
	}
}

func TestFullQueueDropsJobs(t *testing.T) {
	gw := &stubGateway{block: make(chan struct{}), start: make(chan struct{}, 1)}
	reg := prometheus.NewRegistry()
	d, err := NewDispatcher(DispatcherParams{Gateway: gw, Workers: 1, QueueSize: 1, Metrics: metrics.NewSyncMetrics(reg)})
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}

	d.Enqueue(Job{Op: OpClear, SessionID: "s1", Token: "s1"})
	<-gw.start
	d.Enqueue(Job{Op: OpRemove, SessionID: "s1", Token: "s1", ProductID: "p1"})
	d.Enqueue(Job{Op: OpRemove, SessionID: "s1", Token: "s1", ProductID: "p2"})

	gw.start = nil
	close(gw.block)
	closeDispatcher(t, d)

	if got := counterValue(t, reg, "cart_sync_failed_total", map[string]string{"op": "remove"}); got != 1 {
		t.Fatalf("expected 1 dropped remove, got %v", got)
	}
	assertCalls(t, gw.snapshot(), "s1:clear::0", "s1:remove:p1:0")
}

func TestEnqueueAfterCloseIsDropped(t *testing.T) {
	gw := &stubGateway{}
	d := newDispatcher(t, gw, 0, nil)
	closeDispatcher(t, d)

	d.Enqueue(Job{Op: OpClear, SessionID: "s1", Token: "s1"})
	if got := gw.snapshot(); len(got) != 0 {
		t.Fatalf("expected no calls after close, got %v", got)
	}
	if err := d.Close(context.Background()); err != nil {
		t.Fatalf("second close should be a no-op, got %v", err)
	}
}
