package engine

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Supervisor — внешний цикл, который водит ConnManager по жизненному
// циклу: подключить, дождаться смерти канала, выждать по политике,
// повторить. Сам менеджер не ретраит (это его контракт), вся политика
// сосредоточена здесь.
type Supervisor struct {
	cm      *ConnManager
	policy  ReconnectPolicy
	metrics *Metrics
	logger  *zap.Logger
}

func NewSupervisor(cm *ConnManager, policy ReconnectPolicy, metrics *Metrics, logger *zap.Logger) *Supervisor {
	return &Supervisor{
		cm:      cm,
		policy:  policy,
		metrics: metrics,
		logger:  logger.Named("supervisor"),
	}
}

// Run блокирует до отмены ctx. Возвращает ошибку только если политика
// исчерпала попытки; фолбэк-поллинг при этом продолжает держать дашборд
// живым.
func (s *Supervisor) Run(ctx context.Context) error {
	var attempt uint
	hadConnection := false

	for {
		if ctx.Err() != nil {
			s.cm.Disconnect()
			return ctx.Err()
		}

		down, err := s.cm.Connect(ctx)
		if err != nil {
			attempt++
			if s.policy.Exhausted(attempt) {
				s.logger.Error("reconnect attempts exhausted, falling back to polling only",
					zap.Uint("attempts", attempt-1))
				return err
			}

			delay := s.policy.Delay(attempt)
			s.logger.Warn("connect failed, will retry",
				zap.Uint("attempt", attempt), zap.Duration("delay", delay), zap.Error(err))

			if !sleepCtx(ctx, delay) {
				s.cm.Disconnect()
				return ctx.Err()
			}
			continue
		}

		// Успешное подключение обнуляет счетчик попыток
		if hadConnection {
			s.metrics.Reconnects.Inc()
		}
		hadConnection = true
		attempt = 0

		select {
		case <-ctx.Done():
			s.cm.Disconnect()
			return ctx.Err()
		case <-down:
			// Канал умер; следующая итерация переподключится
			attempt = 1
			delay := s.policy.Delay(attempt)
			s.logger.Info("channel down, reconnecting", zap.Duration("delay", delay))
			if !sleepCtx(ctx, delay) {
				s.cm.Disconnect()
				return ctx.Err()
			}
		}
	}
}

// sleepCtx ждет d или отмены ctx; false — если ctx отменили раньше.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
