package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// ReliabilityOptions — настройки обвязки надежности вокруг HTTP-вызовов.
type ReliabilityOptions struct {
	Attempts       uint
	AttemptTimeout time.Duration
	RateLimit      float64
	RateBurst      int
	CBMaxRequests  uint32
	CBInterval     time.Duration
	CBTimeout      time.Duration
}

func DefaultReliabilityOptions() ReliabilityOptions {
	return ReliabilityOptions{
		Attempts:       3,
		AttemptTimeout: 10 * time.Second,
		RateLimit:      50,
		RateBurst:      10,
		CBMaxRequests:  3,
		CBInterval:     5 * time.Second,
		CBTimeout:      30 * time.Second,
	}
}

// Reliability — единая точка защиты всех запросов к шлюзу:
// Rate Limiter -> Circuit Breaker -> Retry с пер-попыточным таймаутом.
type Reliability struct {
	cb       *gobreaker.CircuitBreaker
	limiter  *rate.Limiter
	attempts uint
	timeout  time.Duration
}

func NewReliability(opts ReliabilityOptions) *Reliability {
	// Настройка предохранителя
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "dashboard-gateway",
		MaxRequests: opts.CBMaxRequests,
		Interval:    opts.CBInterval,
		Timeout:     opts.CBTimeout, // Время, через которое CB попробует "закрыться"
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Если более 5 ошибок подряд — открываемся (блокируем трафик)
			return counts.ConsecutiveFailures > 5
		},
	})

	return &Reliability{
		cb:       cb,
		limiter:  rate.NewLimiter(rate.Limit(opts.RateLimit), opts.RateBurst),
		attempts: opts.Attempts,
		timeout:  opts.AttemptTimeout,
	}
}

// Do выполняет fn со всей обвязкой. fn должен уважать переданный контекст.
func (rw *Reliability) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	// 1. Rate Limiter
	if err := rw.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit exceeded: %w", err)
	}

	// 2. Circuit Breaker
	_, err := rw.cb.Execute(func() (interface{}, error) {
		r := retry.New(
			retry.Context(ctx),
			retry.Attempts(rw.attempts),
			// Умный расчет задержки
			retry.DelayType(func(n uint, err error, config retry.DelayContext) time.Duration {
				// Если шлюз вернул ThrottleError (считали Retry-After заголовок)
				var tErr *ThrottleError
				if errors.As(err, &tErr) {
					return tErr.RetryAfter
				}

				// В остальных случаях (сетевой лаг, 500-ка) — стандартный экспоненциальный бэкофф
				return retry.BackOffDelay(n, err, config)
			}),
		)

		retryErr := r.Do(func() error {
			tCtx, cancel := context.WithTimeout(ctx, rw.timeout)
			defer cancel()
			return fn(tCtx)
		})

		return nil, retryErr
	})

	return err
}
