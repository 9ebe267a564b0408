package engine

import (
	"math"
	"time"
)

// ReconnectPolicy — явная, отдельно тестируемая политика переподключения.
// Экспоненциальный бэкофф с потолком; MaxAttempts == 0 значит "без лимита".
type ReconnectPolicy struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	MaxAttempts  uint
}

func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		MaxAttempts:  0,
	}
}

// Delay возвращает паузу перед попыткой attempt (нумерация с 1).
func (p ReconnectPolicy) Delay(attempt uint) time.Duration {
	if attempt <= 1 {
		return p.InitialDelay
	}

	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}

	d := float64(p.InitialDelay) * math.Pow(mult, float64(attempt-1))
	if d > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(d)
}

// Exhausted сообщает, что попытка attempt уже была последней допустимой.
func (p ReconnectPolicy) Exhausted(attempt uint) bool {
	return p.MaxAttempts > 0 && attempt >= p.MaxAttempts
}
