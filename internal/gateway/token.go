package gateway

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// TokenSource выдает bearer-токен для запросов к шлюзу.
type TokenSource interface {
	Token() string
}

// StaticTokenSource — фиксированный токен из конфига.
// При создании разбираем JWT (без проверки подписи — она дело сервера),
// чтобы знать срок действия и предупредить о протухании заранее.
type StaticTokenSource struct {
	raw       string
	expiresAt time.Time
	logger    *zap.Logger

	warnOnce sync.Once
}

func NewStaticTokenSource(raw string, logger *zap.Logger) *StaticTokenSource {
	ts := &StaticTokenSource{
		raw:    raw,
		logger: logger.Named("token-source"),
	}

	if raw == "" {
		return ts
	}

	// ParseUnverified: нам нужен только claim exp, валидирует сервер
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(raw, &jwt.RegisteredClaims{})
	if err != nil {
		ts.logger.Warn("token is not a parseable JWT, expiry tracking disabled", zap.Error(err))
		return ts
	}

	if claims, ok := token.Claims.(*jwt.RegisteredClaims); ok && claims.ExpiresAt != nil {
		ts.expiresAt = claims.ExpiresAt.Time
	}
	return ts
}

func (ts *StaticTokenSource) Token() string {
	if !ts.expiresAt.IsZero() && time.Now().After(ts.expiresAt) {
		// Логируем один раз, чтобы не заспамить логи на каждом запросе
		ts.warnOnce.Do(func() {
			ts.logger.Warn("gateway token has expired, requests will likely be rejected",
				zap.Time("expired_at", ts.expiresAt))
		})
	}
	return ts.raw
}
