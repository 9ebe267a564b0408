package transport_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/argusvision/dashsync/internal/transport"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{}

// wsTestServer поднимает websocket-эндпоинт и отдает диалер на него.
func wsTestServer(t *testing.T, handler func(conn *websocket.Conn)) *transport.WSDialer {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(srv.Close)

	return &transport.WSDialer{
		URL:    "ws" + strings.TrimPrefix(srv.URL, "http"),
		Logger: zap.NewNop(),
	}
}

func TestWSChannel_DeliversServerEvents(t *testing.T) {
	d := wsTestServer(t, func(conn *websocket.Conn) {
		require.NoError(t, conn.WriteJSON(map[string]interface{}{
			"type":    "new_detection",
			"payload": map[string]string{"id": "d1", "camera_id": "cam-1"},
		}))
		// Держим соединение, пока клиент не закроется
		conn.ReadMessage()
	})

	ch, err := d.Dial(context.Background())
	require.NoError(t, err)
	defer ch.Close()

	select {
	case ev := <-ch.Events():
		require.Equal(t, transport.EventNewDetection, ev.Kind)

		var payload map[string]string
		require.NoError(t, json.Unmarshal(ev.Payload, &payload))
		require.Equal(t, "d1", payload["id"])
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}

func TestWSChannel_SubscribeSendsDeclaration(t *testing.T) {
	received := make(chan map[string]interface{}, 1)
	d := wsTestServer(t, func(conn *websocket.Conn) {
		var msg map[string]interface{}
		if err := conn.ReadJSON(&msg); err == nil {
			received <- msg
		}
		conn.ReadMessage()
	})

	ch, err := d.Dial(context.Background())
	require.NoError(t, err)
	defer ch.Close()

	require.NoError(t, ch.Subscribe(context.Background(), []transport.DataType{
		transport.DataAlerts, transport.DataDetections,
	}))

	select {
	case msg := <-received:
		require.Equal(t, "subscribe", msg["type"])
		require.Len(t, msg["data_types"], 2)
	case <-time.After(2 * time.Second):
		t.Fatal("server never received subscription")
	}
}

func TestWSChannel_DoneClosesWhenServerDrops(t *testing.T) {
	d := wsTestServer(t, func(conn *websocket.Conn) {
		// Сервер сразу рвет соединение
	})

	ch, err := d.Dial(context.Background())
	require.NoError(t, err)

	select {
	case <-ch.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done() not closed after server dropped connection")
	}
}

func TestWSChannel_MalformedFrameDoesNotKillChannel(t *testing.T) {
	d := wsTestServer(t, func(conn *websocket.Conn) {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
		require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": "new_alert"}))
		conn.ReadMessage()
	})

	ch, err := d.Dial(context.Background())
	require.NoError(t, err)
	defer ch.Close()

	select {
	case ev := <-ch.Events():
		// Битый кадр молча пропущен, следующий валидный дошел
		require.Equal(t, transport.EventNewAlert, ev.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("valid event after malformed frame never arrived")
	}
}

func TestWSDialer_FailsOnUnreachableServer(t *testing.T) {
	d := &transport.WSDialer{URL: "ws://127.0.0.1:1/ws", Logger: zap.NewNop()}
	_, err := d.Dial(context.Background())
	require.Error(t, err)
}

func TestWSDialer_RejectedHandshakeReportsStatus(t *testing.T) {
	// Сервер не апгрейдит, а отвечает 403 с телом
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	d := &transport.WSDialer{
		URL:    "ws" + strings.TrimPrefix(srv.URL, "http"),
		Logger: zap.NewNop(),
	}
	_, err := d.Dial(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "http 403")
}
