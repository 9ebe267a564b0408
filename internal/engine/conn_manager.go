package engine

import (
	"context"
	"sync"

	"github.com/argusvision/dashsync/internal/domain"
	"github.com/argusvision/dashsync/internal/store"
	"github.com/argusvision/dashsync/internal/transport"
	"go.uber.org/zap"
)

// ConnManager владеет единственным логическим живым каналом.
// Сам не ретраит: при смерти канала закрывает down-канал, а решение о
// переподключении принимает Supervisor со своей политикой бэкоффа.
type ConnManager struct {
	dialer   transport.Dialer
	st       *store.Store
	registry *Registry
	metrics  *Metrics
	logger   *zap.Logger

	mu sync.Mutex
	ch transport.EventChannel
}

func NewConnManager(dialer transport.Dialer, st *store.Store, registry *Registry, metrics *Metrics, logger *zap.Logger) *ConnManager {
	return &ConnManager{
		dialer:   dialer,
		st:       st,
		registry: registry,
		metrics:  metrics,
		logger:   logger.Named("conn-manager"),
	}
}

// Connect устанавливает канал. Если канал уже есть — сначала рвет его
// (идемпотентность). Возвращенный down закрывается при смерти нового
// канала; ошибка подключения переводит стор в Erroring, но данные
// не трогает (устаревшее лучше пустого).
func (m *ConnManager) Connect(ctx context.Context) (<-chan struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.teardownLocked()
	m.st.Dispatch(store.ConnectionChanged{Status: domain.Connecting})

	ch, err := m.dialer.Dial(ctx)
	if err != nil {
		m.st.Dispatch(store.ConnectionChanged{Status: domain.Erroring})
		m.st.Dispatch(store.ErrorOccurred{Message: "live channel unavailable: " + err.Error()})
		return nil, err
	}
	m.ch = ch

	m.st.Dispatch(store.ConnectionChanged{Status: domain.Connected})
	m.st.Dispatch(store.ErrorCleared{})
	m.metrics.ConnectionState.Set(1)

	// Подписки не переживают реконнект — декларируем заново.
	// Отказ не фатален: дашборд просто будет частичным.
	m.registry.DeclareTo(ctx, ch, m.logger)

	// Сразу просим свежую сводку: закрывает зазор между "канал открыт"
	// и первым живым событием
	if err := ch.RequestSummary(ctx); err != nil {
		m.logger.Warn("initial summary request failed", zap.Error(err))
	}

	go m.pump(ch)
	return ch.Done(), nil
}

// Disconnect — явный teardown. Легален всегда, безопасен повторно.
func (m *ConnManager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ch == nil {
		return
	}
	m.teardownLocked()
	m.st.Dispatch(store.ConnectionChanged{Status: domain.Disconnected})
}

func (m *ConnManager) teardownLocked() {
	if m.ch != nil {
		m.ch.Close()
		m.ch = nil
		m.metrics.ConnectionState.Set(0)
	}
}

// pump читает события канала до его смерти и транслирует их в действия
// стора. Полей DashboardState менеджер не касается — только Dispatch.
func (m *ConnManager) pump(ch transport.EventChannel) {
	for ev := range ch.Events() {
		for _, a := range m.translate(ev) {
			m.st.Dispatch(a)
			m.metrics.ActionsApplied.WithLabelValues(a.Kind()).Inc()
		}
	}

	// Канал умер. Если его уже заменил новый Connect — статус не трогаем.
	m.mu.Lock()
	current := m.ch == ch
	if current {
		m.ch = nil
		m.metrics.ConnectionState.Set(0)
	}
	m.mu.Unlock()

	if current {
		m.logger.Info("live channel lost")
		m.st.Dispatch(store.ConnectionChanged{Status: domain.Disconnected})
		m.st.Dispatch(store.ErrorOccurred{Message: "live channel lost"})
	}
}
