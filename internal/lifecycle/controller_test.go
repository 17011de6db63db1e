package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/example/notivlaai-service/internal/domain"
	"github.com/example/notivlaai-service/internal/protocol"
	"github.com/example/notivlaai-service/internal/store"
)

// fakeChannel feeds frames to the subscribed handler on demand.
type fakeChannel struct {
	handler    func(ctx context.Context, frame []byte) error
	sent       [][]byte
	subscribeE error
	closed     chan struct{}
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{closed: make(chan struct{})}
}

func (f *fakeChannel) Subscribe(ctx context.Context, handler func(ctx context.Context, frame []byte) error) error {
	if f.subscribeE != nil {
		return f.subscribeE
	}
	f.handler = handler
	return nil
}

func (f *fakeChannel) Send(ctx context.Context, frame []byte) error {
	f.sent = append(f.sent, frame)
	return nil
}

func (f *fakeChannel) Closed() <-chan struct{} { return f.closed }

func (f *fakeChannel) deliver(t *testing.T, frame string) {
	t.Helper()
	if f.handler == nil {
		t.Fatal("no handler subscribed")
	}
	if err := f.handler(context.Background(), []byte(frame)); err != nil {
		t.Fatalf("handler error = %v", err)
	}
}

// fakeGateway records calls and can be told to fail.
type fakeGateway struct {
	fail      error
	inTransit []int
	pickedUp  []int
}

func (g *fakeGateway) SetInTransit(ctx context.Context, id int) error {
	if g.fail != nil {
		return g.fail
	}
	g.inTransit = append(g.inTransit, id)
	return nil
}

func (g *fakeGateway) SetPickedUp(ctx context.Context, id int) error {
	if g.fail != nil {
		return g.fail
	}
	g.pickedUp = append(g.pickedUp, id)
	return nil
}

func newTestController(ch domain.FrameChannel, gw domain.CommandGateway) *Controller {
	return NewController(store.NewOrderStore(), ch, gw, NoRetry())
}

func TestConnectTransitionsToConnected(t *testing.T) {
	ch := newFakeChannel()
	c := newTestController(ch, &fakeGateway{})

	if c.State() != Disconnected {
		t.Fatalf("initial state = %v, want disconnected", c.State())
	}
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if c.State() != Connected {
		t.Errorf("state = %v after Connect, want connected", c.State())
	}
}

func TestConnectFailureStaysDisconnected(t *testing.T) {
	ch := newFakeChannel()
	ch.subscribeE = errors.New("refused")
	c := newTestController(ch, &fakeGateway{})

	err := c.Connect(context.Background())
	if err == nil {
		t.Fatal("Connect() = nil, want error")
	}
	if !errors.Is(err, domain.ErrConnection) {
		t.Errorf("Connect() error = %v, want ErrConnection", err)
	}
	if c.State() != Disconnected {
		t.Errorf("state = %v, want disconnected", c.State())
	}
}

func TestNotificationsFlowIntoStore(t *testing.T) {
	ch := newFakeChannel()
	c := newTestController(ch, &fakeGateway{})
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	ch.deliver(t, `{"addOrder":{"id":0,"customerName":"Tim de Jager","inTransit":true,"rows":[{"vlaai":"Kers","amount":3}]}}`)
	ch.deliver(t, `{"addOrder":{"id":1,"customerName":"Saskia Winkeler","inTransit":true,"rows":[]}}`)
	if got := c.Store().Len(); got != 2 {
		t.Fatalf("store len = %d, want 2", got)
	}

	ch.deliver(t, `{"removeOrder":0}`)
	orders := c.Store().Orders()
	if len(orders) != 1 || orders[0].ID != 1 {
		t.Errorf("store = %+v, want only order 1", orders)
	}

	ch.deliver(t, `{"initialize":[]}`)
	if c.Store().Len() != 0 {
		t.Errorf("store len = %d after initialize([]), want 0", c.Store().Len())
	}
}

func TestBadFrameIsDroppedSessionContinues(t *testing.T) {
	ch := newFakeChannel()
	c := newTestController(ch, &fakeGateway{})
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	ch.deliver(t, `{"garbage":true}`)
	if c.State() != Connected {
		t.Errorf("state = %v after bad frame, want connected", c.State())
	}

	ch.deliver(t, `{"addOrder":{"id":2,"customerName":"Piet Pokerface","inTransit":true,"rows":[]}}`)
	if c.Store().Len() != 1 {
		t.Errorf("store len = %d, want 1", c.Store().Len())
	}
}

func TestMarkPickedUpConfirmedRemovesOrder(t *testing.T) {
	ch := newFakeChannel()
	gw := &fakeGateway{}
	c := newTestController(ch, gw)

	c.Store().Apply(protocol.AddOrder(domain.Order{ID: 0, CustomerName: "Tim de Jager", InTransit: true}))

	if err := c.MarkPickedUp(context.Background(), 0); err != nil {
		t.Fatalf("MarkPickedUp() error = %v", err)
	}
	if len(gw.pickedUp) != 1 || gw.pickedUp[0] != 0 {
		t.Errorf("gateway calls = %v, want [0]", gw.pickedUp)
	}
	if c.Store().Len() != 0 {
		t.Errorf("store len = %d, want 0 after confirmed pickup", c.Store().Len())
	}
}

func TestMarkPickedUpGatewayFailureLeavesStore(t *testing.T) {
	ch := newFakeChannel()
	gw := &fakeGateway{fail: domain.ErrCommand}
	c := newTestController(ch, gw)

	c.Store().Apply(protocol.AddOrder(domain.Order{ID: 0, CustomerName: "Tim de Jager", InTransit: true}))

	err := c.MarkPickedUp(context.Background(), 0)
	if !errors.Is(err, domain.ErrCommand) {
		t.Fatalf("MarkPickedUp() error = %v, want ErrCommand", err)
	}
	orders := c.Store().Orders()
	if len(orders) != 1 || orders[0].ID != 0 || !orders[0].InTransit {
		t.Errorf("store = %+v, want order 0 untouched", orders)
	}
}

func TestMarkInTransitConfirmedUpdatesStatus(t *testing.T) {
	ch := newFakeChannel()
	gw := &fakeGateway{}
	c := newTestController(ch, gw)

	c.Store().Apply(protocol.AddOrder(domain.Order{ID: 3, CustomerName: "Piet Pokerface"}))

	if err := c.MarkInTransit(context.Background(), 3); err != nil {
		t.Fatalf("MarkInTransit() error = %v", err)
	}
	if got := c.Store().Orders()[0].Status(); got != domain.StatusInTransit {
		t.Errorf("status = %v, want in transit", got)
	}
}

func TestMarkInTransitSkipsGatewayOnBadTransition(t *testing.T) {
	ch := newFakeChannel()
	gw := &fakeGateway{}
	c := newTestController(ch, gw)

	// Already in transit: a second MarkInTransit must not go through.
	c.Store().Apply(protocol.AddOrder(domain.Order{ID: 3, InTransit: true}))

	err := c.MarkInTransit(context.Background(), 3)
	if !errors.Is(err, domain.ErrCommand) {
		t.Fatalf("MarkInTransit() error = %v, want ErrCommand", err)
	}
	if len(gw.inTransit) != 0 {
		t.Errorf("gateway was called %v times for an invalid transition", len(gw.inTransit))
	}
}

func TestMarkPickedUpOnPendingOrderFails(t *testing.T) {
	ch := newFakeChannel()
	gw := &fakeGateway{}
	c := newTestController(ch, gw)

	c.Store().Apply(protocol.AddOrder(domain.Order{ID: 1}))

	err := c.MarkPickedUp(context.Background(), 1)
	if !errors.Is(err, domain.ErrCommand) {
		t.Fatalf("MarkPickedUp() error = %v, want ErrCommand", err)
	}
	if c.Store().Len() != 1 {
		t.Errorf("store len = %d, want pending order kept", c.Store().Len())
	}
}

func TestResyncSendsFrame(t *testing.T) {
	ch := newFakeChannel()
	c := newTestController(ch, &fakeGateway{})

	if err := c.Resync(context.Background()); !errors.Is(err, domain.ErrConnection) {
		t.Fatalf("Resync() while disconnected = %v, want ErrConnection", err)
	}

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := c.Resync(context.Background()); err != nil {
		t.Fatalf("Resync() error = %v", err)
	}
	if len(ch.sent) != 1 || string(ch.sent[0]) != `{"resync":true}` {
		t.Errorf("sent frames = %q, want one resync frame", ch.sent)
	}
}

func TestRetryPolicyDelays(t *testing.T) {
	p := ExponentialBackoff(100, 400)
	tests := []struct {
		attempt int
		want    int64
	}{
		{0, 100},
		{1, 200},
		{2, 400},
		{5, 400},
	}
	for _, tt := range tests {
		if got := p.delay(tt.attempt); got.Nanoseconds() != tt.want {
			t.Errorf("delay(%d) = %v, want %v", tt.attempt, got.Nanoseconds(), tt.want)
		}
	}
}
