package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisDialer — живой канал поверх Redis Pub/Sub, для инсталляций где
// события дашборда фанятся через Redis, а не через прямой websocket.
// События приходят в events-канале, команды клиента публикуются в commands.
type RedisDialer struct {
	Client   *redis.Client
	Events   string
	Commands string
	Logger   *zap.Logger
}

func (d *RedisDialer) Dial(ctx context.Context) (EventChannel, error) {
	pubsub := d.Client.Subscribe(ctx, d.Events)

	// Проверка успешности подписки
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", d.Events, err)
	}

	ch := &redisChannel{
		rdb:      d.Client,
		pubsub:   pubsub,
		commands: d.Commands,
		events:   make(chan Event, 256),
		done:     make(chan struct{}),
		logger:   d.Logger.Named("redis-channel"),
	}

	go ch.pump()
	return ch, nil
}

type redisChannel struct {
	rdb      *redis.Client
	pubsub   *redis.PubSub
	commands string
	events   chan Event
	done     chan struct{}
	logger   *zap.Logger

	closeOnce sync.Once
}

func (c *redisChannel) publish(ctx context.Context, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Publish(ctx, c.commands, raw).Err()
}

func (c *redisChannel) Subscribe(ctx context.Context, types []DataType) error {
	return c.publish(ctx, map[string]interface{}{
		"type":       "subscribe",
		"data_types": types,
	})
}

func (c *redisChannel) RequestSummary(ctx context.Context) error {
	return c.publish(ctx, map[string]string{"type": "request_dashboard_summary"})
}

func (c *redisChannel) Events() <-chan Event { return c.events }

func (c *redisChannel) Done() <-chan struct{} { return c.done }

func (c *redisChannel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.pubsub.Close()
	})
	return err
}

func (c *redisChannel) pump() {
	defer func() {
		close(c.events)
		close(c.done)
		c.pubsub.Close()
	}()

	// Канал закрывается при Close() — это и есть сигнал завершения
	for msg := range c.pubsub.Channel() {
		var env envelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			c.logger.Error("malformed message dropped", zap.String("payload", msg.Payload))
			continue
		}

		select {
		case c.events <- Event{Kind: EventKind(env.Type), Payload: env.Payload, Reason: env.Reason}:
		default:
			c.logger.Warn("event buffer full, dropping", zap.String("kind", env.Type))
		}
	}
}
