package engine

import (
	"context"
	"sort"
	"sync"

	"github.com/argusvision/dashsync/internal/transport"
	"go.uber.org/zap"
)

// Registry хранит, какие категории серверных событий клиент хочет получать.
// Подписки живут на уровне соединения и не переживают реконнект, поэтому
// реестр декларирует их заново после каждого успешного подключения.
type Registry struct {
	mu    sync.RWMutex
	types map[transport.DataType]bool
}

// NewRegistry — по умолчанию включены все категории: отсутствие одной
// деградирует только свой кусок дашборда, остальные не блокирует.
func NewRegistry() *Registry {
	r := &Registry{types: make(map[transport.DataType]bool)}
	for _, dt := range transport.AllDataTypes() {
		r.types[dt] = true
	}
	return r
}

func (r *Registry) Enable(dt transport.DataType) {
	r.mu.Lock()
	r.types[dt] = true
	r.mu.Unlock()
}

func (r *Registry) Disable(dt transport.DataType) {
	r.mu.Lock()
	delete(r.types, dt)
	r.mu.Unlock()
}

// Declared возвращает активные категории в стабильном порядке.
func (r *Registry) Declared() []transport.DataType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]transport.DataType, 0, len(r.types))
	for dt := range r.types {
		out = append(out, dt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DeclareTo отправляет декларацию в канал. Отказ сервера не фатален:
// логируем и живем с частичным дашбордом.
func (r *Registry) DeclareTo(ctx context.Context, ch transport.EventChannel, logger *zap.Logger) error {
	declared := r.Declared()
	if err := ch.Subscribe(ctx, declared); err != nil {
		logger.Warn("subscription declaration failed, dashboard will be partial",
			zap.Int("categories", len(declared)), zap.Error(err))
		return err
	}
	return nil
}
