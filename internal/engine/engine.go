package engine

import (
	"context"
	"sync"
	"time"

	"github.com/argusvision/dashsync/internal/gateway"
	"github.com/argusvision/dashsync/internal/store"
	"github.com/argusvision/dashsync/internal/transport"
	"go.uber.org/zap"
)

// Engine собирает ядро синхронизации в один управляемый объект.
// Явно конструируется и явно гасится: никакого глобального состояния,
// несколько инстансов (например, в тестах) не мешают друг другу.
type Engine struct {
	Store      *store.Store
	Registry   *Registry
	Conn       *ConnManager
	Dispatcher *Dispatcher

	supervisor *Supervisor
	poller     *Poller
	gw         gateway.RemoteGateway
	logger     *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Options — зависимости и настройки ядра.
type Options struct {
	Gateway         gateway.RemoteGateway
	Dialer          transport.Dialer
	Metrics         *Metrics // nil — метрики в никуда
	ReconnectPolicy ReconnectPolicy
	InitialState    store.DashboardState
	StoreOptions    []store.Option
}

func New(opts Options, logger *zap.Logger) *Engine {
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	st := store.New(opts.InitialState, logger, opts.StoreOptions...)
	registry := NewRegistry()
	cm := NewConnManager(opts.Dialer, st, registry, metrics, logger)

	return &Engine{
		Store:      st,
		Registry:   registry,
		Conn:       cm,
		Dispatcher: NewDispatcher(opts.Gateway, st, metrics, logger),
		supervisor: NewSupervisor(cm, opts.ReconnectPolicy, metrics, logger),
		poller:     NewPoller(opts.Gateway, st, metrics, logger),
		gw:         opts.Gateway,
		logger:     logger.Named("engine"),
	}
}

// Start запускает супервизор канала и фолбэк-поллер, плюс делает
// немедленную начальную загрузку сводки, не дожидаясь ни канала, ни
// первого тика.
func (e *Engine) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	e.Store.Dispatch(store.LoadingStarted{})

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.initialFetch(runCtx)
	}()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := e.supervisor.Run(runCtx); err != nil && runCtx.Err() == nil {
			e.logger.Error("supervisor stopped", zap.Error(err))
		}
	}()

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.poller.Run(runCtx)
	}()
}

func (e *Engine) initialFetch(ctx context.Context) {
	baseRev := e.Store.State().AlertsRev

	reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	sum, err := e.gw.GetDashboardSummary(reqCtx)
	if err != nil {
		e.logger.Warn("initial summary fetch failed", zap.Error(err))
		e.Store.Dispatch(store.ErrorOccurred{Message: "initial summary fetch failed: " + err.Error()})
		return
	}
	e.Store.Dispatch(store.SummaryReceived{Summary: *sum, Guarded: true, BasedOnAlertsRev: baseRev})
}

// Stop гасит ядро: отменяет фоновые циклы, рвет канал, закрывает стор.
// Обязателен при teardown — иначе повиснут таймеры и сокеты.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
	e.wg.Wait()
	e.Conn.Disconnect()
	e.Store.Close()
}
