package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPongTimeout  = 60 * time.Second
	wsPingPeriod   = 25 * time.Second
)

// WSDialer открывает websocket-подключения к шлюзу.
type WSDialer struct {
	URL    string
	Header http.Header
	Logger *zap.Logger
}

func (d *WSDialer) Dial(ctx context.Context) (EventChannel, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, d.URL, d.Header)
	if err != nil {
		if resp != nil {
			// При неудачном хендшейке gorilla отдает ответ с открытым телом
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("websocket dial %s: %w (http %d)", d.URL, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("websocket dial %s: %w", d.URL, err)
	}

	ch := &wsChannel{
		conn:   conn,
		events: make(chan Event, 256),
		done:   make(chan struct{}),
		logger: d.Logger.Named("ws-channel").With(zap.String("client_id", uuid.New().String())),
	}

	go ch.readPump()
	go ch.pingLoop()
	return ch, nil
}

// wsChannel — живой канал поверх gorilla/websocket.
// Запись сериализуется мьютексом: у gorilla один писатель на соединение.
type wsChannel struct {
	conn   *websocket.Conn
	events chan Event
	done   chan struct{}
	logger *zap.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func (c *wsChannel) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteJSON(v)
}

func (c *wsChannel) Subscribe(ctx context.Context, types []DataType) error {
	return c.writeJSON(map[string]interface{}{
		"type":       "subscribe",
		"data_types": types,
	})
}

func (c *wsChannel) RequestSummary(ctx context.Context) error {
	return c.writeJSON(map[string]string{"type": "request_dashboard_summary"})
}

func (c *wsChannel) Events() <-chan Event { return c.events }

func (c *wsChannel) Done() <-chan struct{} { return c.done }

func (c *wsChannel) Close() error {
	c.closeOnce.Do(func() {
		// Вежливый close frame; если не ушел — все равно рвем соединение
		c.writeMu.Lock()
		c.conn.SetWriteDeadline(time.Now().Add(time.Second))
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		c.conn.Close()
	})
	return nil
}

func (c *wsChannel) pingLoop() {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.writeMu.Lock()
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// readPump — единственный читатель соединения. Закрывает events и done
// при любой ошибке чтения; потребитель узнает о смерти канала оттуда.
func (c *wsChannel) readPump() {
	defer func() {
		close(c.events)
		close(c.done)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("read failed, channel is dead", zap.Error(err))
			}
			return
		}

		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			// Одно битое сообщение не убивает канал
			c.logger.Error("malformed frame dropped", zap.ByteString("raw", raw))
			continue
		}

		ev := Event{Kind: EventKind(env.Type), Payload: env.Payload, Reason: env.Reason}
		select {
		case c.events <- ev:
		default:
			// Потребитель не успевает — теряем событие, но не блокируем чтение.
			// Пропущенное компенсирует следующая сводка.
			c.logger.Warn("event buffer full, dropping", zap.String("kind", env.Type))
		}
	}
}
