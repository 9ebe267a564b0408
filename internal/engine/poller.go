package engine

import (
	"context"
	"time"

	"github.com/argusvision/dashsync/internal/domain"
	"github.com/argusvision/dashsync/internal/store"
	"go.uber.org/zap"
)

// SummaryFetcher — минимальный срез шлюза, нужный поллеру.
type SummaryFetcher interface {
	GetDashboardSummary(ctx context.Context) (*domain.DashboardSummary, error)
}

// Poller — фолбэк-поллинг сводки, когда живого канала нет.
// Таймер управляется исключительно тройкой (autoRefresh, connection,
// refreshInterval): любое ее изменение — stop, затем maybe-start.
// Параллельных таймеров не бывает: тикер всегда ровно один или ни одного.
type Poller struct {
	gw      SummaryFetcher
	st      *store.Store
	metrics *Metrics
	logger  *zap.Logger

	// Таймаут одного poll-запроса
	requestTimeout time.Duration
}

func NewPoller(gw SummaryFetcher, st *store.Store, metrics *Metrics, logger *zap.Logger) *Poller {
	return &Poller{
		gw:             gw,
		st:             st,
		metrics:        metrics,
		logger:         logger.Named("poller"),
		requestTimeout: 10 * time.Second,
	}
}

type pollTuple struct {
	autoRefresh bool
	connected   bool
	interval    time.Duration
}

func tupleOf(s store.DashboardState) pollTuple {
	return pollTuple{
		autoRefresh: s.AutoRefresh,
		connected:   s.Connection == domain.Connected,
		interval:    s.RefreshInterval,
	}
}

func (t pollTuple) active() bool {
	return t.autoRefresh && !t.connected && t.interval > 0
}

// Run блокирует до отмены ctx. Наблюдает снапшоты стора и пересобирает
// тикер при изменении управляющей тройки.
func (p *Poller) Run(ctx context.Context) {
	snapshots, cancel := p.st.Subscribe()
	defer cancel()

	cur := tupleOf(p.st.State())

	var ticker *time.Ticker
	var tickC <-chan time.Time

	stop := func() {
		if ticker != nil {
			ticker.Stop()
			ticker = nil
			tickC = nil
		}
	}
	defer stop()

	// stop-then-maybe-start: единственное место, где тикер создается
	reeval := func() {
		stop()
		if cur.active() {
			ticker = time.NewTicker(cur.interval)
			tickC = ticker.C
			p.logger.Info("fallback polling started", zap.Duration("interval", cur.interval))
		}
	}
	reeval()

	for {
		select {
		case <-ctx.Done():
			return

		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			next := tupleOf(snap)
			if next != cur {
				wasActive := cur.active()
				cur = next
				reeval()
				if wasActive && !cur.active() {
					p.logger.Info("fallback polling stopped")
				}
			}

		case <-tickC:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	p.metrics.PollTicks.Inc()

	// Ревизию тревог фиксируем до запроса: если пока сводка летела,
	// случилась точечная мутация — снапшот проиграет
	baseRev := p.st.State().AlertsRev

	reqCtx, cancel := context.WithTimeout(ctx, p.requestTimeout)
	defer cancel()

	sum, err := p.gw.GetDashboardSummary(reqCtx)
	if err != nil {
		p.metrics.PollErrors.Inc()
		p.logger.Warn("poll failed", zap.Error(err))
		p.st.Dispatch(store.ErrorOccurred{Message: "summary poll failed: " + err.Error()})
		return
	}

	p.st.Dispatch(store.SummaryReceived{Summary: *sum, Guarded: true, BasedOnAlertsRev: baseRev})
}
