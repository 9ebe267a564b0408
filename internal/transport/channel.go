package transport

import (
	"context"
	"encoding/json"
)

// EventKind — закрытый набор типов событий живого канала (server -> client).
type EventKind string

const (
	EventConnected        EventKind = "connected"
	EventDisconnected     EventKind = "disconnected"
	EventError            EventKind = "error"
	EventDashboardSummary EventKind = "dashboard_summary"
	EventCameraStatus     EventKind = "camera_status_update"
	EventRecentDetections EventKind = "recent_detections"
	EventActiveAlerts     EventKind = "active_alerts"
	EventPerformance      EventKind = "performance_update"
	EventNewDetection     EventKind = "new_detection"
	EventNewAlert         EventKind = "new_alert"
)

// DataType — категория серверных событий, на которую клиент подписывается.
type DataType string

const (
	DataCameraStatus DataType = "camera_status"
	DataDetections   DataType = "detections"
	DataAlerts       DataType = "alerts"
	DataPerformance  DataType = "performance"
	DataBehaviors    DataType = "behaviors"
	DataSystemHealth DataType = "system_health"
)

// AllDataTypes возвращает полный набор категорий в стабильном порядке.
func AllDataTypes() []DataType {
	return []DataType{
		DataCameraStatus, DataDetections, DataAlerts,
		DataPerformance, DataBehaviors, DataSystemHealth,
	}
}

// Event — одно событие живого канала. Payload разбирается уже в ядре:
// транспорт не знает доменных типов.
type Event struct {
	Kind    EventKind
	Payload json.RawMessage
	Reason  string // для EventError / EventDisconnected
}

// envelope — проводной формат сообщений в обе стороны.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Reason  string          `json:"reason,omitempty"`
}

// EventChannel — одно логическое подключение живого канала.
// Events() закрывается когда канал умер; причину несет последний Event.
type EventChannel interface {
	// Subscribe декларирует категории событий. Вызывается заново
	// после каждого успешного подключения.
	Subscribe(ctx context.Context, types []DataType) error

	// RequestSummary просит сервер прислать свежую сводку пушем.
	RequestSummary(ctx context.Context) error

	// Events отдает события в порядке прихода.
	Events() <-chan Event

	// Done закрывается при смерти канала (любая причина).
	Done() <-chan struct{}

	Close() error
}

// Dialer открывает новое подключение живого канала.
type Dialer interface {
	Dial(ctx context.Context) (EventChannel, error)
}
