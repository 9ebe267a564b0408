package engine_test

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/argusvision/dashsync/internal/domain"
	"github.com/argusvision/dashsync/internal/gateway"
	"github.com/argusvision/dashsync/internal/transport"
)

// fakeChannel — ручная реализация EventChannel для тестов.
type fakeChannel struct {
	mu          sync.Mutex
	events      chan transport.Event
	done        chan struct{}
	subscribed  [][]transport.DataType
	summaryReqs int
	closed      bool
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{
		events: make(chan transport.Event, 64),
		done:   make(chan struct{}),
	}
}

func (c *fakeChannel) Subscribe(_ context.Context, types []transport.DataType) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribed = append(c.subscribed, types)
	return nil
}

func (c *fakeChannel) RequestSummary(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summaryReqs++
	return nil
}

func (c *fakeChannel) Events() <-chan transport.Event { return c.events }
func (c *fakeChannel) Done() <-chan struct{}          { return c.done }

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.events)
		close(c.done)
	}
	return nil
}

// push кладет событие с JSON-сериализованным payload.
func (c *fakeChannel) push(kind transport.EventKind, payload interface{}) {
	raw, _ := json.Marshal(payload)
	c.events <- transport.Event{Kind: kind, Payload: raw}
}

func (c *fakeChannel) pushRaw(kind transport.EventKind, raw string) {
	c.events <- transport.Event{Kind: kind, Payload: json.RawMessage(raw)}
}

func (c *fakeChannel) subscriptions() [][]transport.DataType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]transport.DataType(nil), c.subscribed...)
}

func (c *fakeChannel) summaryRequests() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summaryReqs
}

// fakeDialer отдает заранее подготовленные каналы либо ошибки.
type fakeDialer struct {
	mu    sync.Mutex
	queue []func() (transport.EventChannel, error)
	dials int
}

func (d *fakeDialer) Dial(context.Context) (transport.EventChannel, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if len(d.queue) == 0 {
		ch := newFakeChannel()
		return ch, nil
	}
	next := d.queue[0]
	d.queue = d.queue[1:]
	return next()
}

func (d *fakeDialer) enqueue(fn func() (transport.EventChannel, error)) {
	d.mu.Lock()
	d.queue = append(d.queue, fn)
	d.mu.Unlock()
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

// fakeGateway — программируемая заглушка RemoteGateway.
// Нулевое значение: все команды успешны, данные пустые.
type fakeGateway struct {
	mu sync.Mutex

	summary      *domain.DashboardSummary
	summaryErr   error
	summaryCalls int

	cameras     []domain.CameraStatus
	cameraCalls int

	ackOK  bool
	ackErr error
	acked  []string

	cmdResult gateway.CommandResult

	streamResult gateway.StreamResult
	streamErr    error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		ackOK:        true,
		cmdResult:    gateway.CommandResult{Success: true},
		streamResult: gateway.StreamResult{Success: true, SessionID: "sess-1"},
	}
}

func (g *fakeGateway) GetDashboardSummary(context.Context) (*domain.DashboardSummary, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.summaryCalls++
	if g.summaryErr != nil {
		return nil, g.summaryErr
	}
	if g.summary != nil {
		return g.summary, nil
	}
	return &domain.DashboardSummary{}, nil
}

func (g *fakeGateway) summaryCallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.summaryCalls
}

func (g *fakeGateway) GetCameraStatus(context.Context) ([]domain.CameraStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cameraCalls++
	return append([]domain.CameraStatus(nil), g.cameras...), nil
}

func (g *fakeGateway) cameraCallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cameraCalls
}

func (g *fakeGateway) GetRecentDetections(context.Context, gateway.DetectionFilter) ([]domain.Detection, error) {
	return nil, nil
}

func (g *fakeGateway) GetActiveAlerts(context.Context, int) ([]domain.Alert, error) {
	return nil, nil
}

func (g *fakeGateway) GetPerformanceSummary(context.Context) (*domain.PerformanceSummary, error) {
	return &domain.PerformanceSummary{}, nil
}

func (g *fakeGateway) AcknowledgeAlert(_ context.Context, alertID, _ string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ackErr != nil {
		return false, g.ackErr
	}
	if g.ackOK {
		g.acked = append(g.acked, alertID)
	}
	return g.ackOK, nil
}

func (g *fakeGateway) AddCamera(context.Context, domain.CameraStatus) (gateway.CommandResult, error) {
	return g.cmdResult, nil
}

func (g *fakeGateway) RemoveCamera(context.Context, string) (gateway.CommandResult, error) {
	return g.cmdResult, nil
}

func (g *fakeGateway) StartCamera(context.Context, string) (gateway.CommandResult, error) {
	return g.cmdResult, nil
}

func (g *fakeGateway) StopCamera(context.Context, string) (gateway.CommandResult, error) {
	return g.cmdResult, nil
}

func (g *fakeGateway) UpdateDetectionConfig(context.Context, string, map[string]interface{}) (bool, error) {
	return true, nil
}

func (g *fakeGateway) CreateWebRTCStream(context.Context, string, string) (gateway.StreamResult, error) {
	if g.streamErr != nil {
		return gateway.StreamResult{}, g.streamErr
	}
	return g.streamResult, nil
}

func (g *fakeGateway) DestroyWebRTCStream(context.Context, string) (gateway.CommandResult, error) {
	return g.cmdResult, nil
}
