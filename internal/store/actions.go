package store

import (
	"time"

	"github.com/argusvision/dashsync/internal/domain"
)

// Action — дискретный именованный переход состояния. Набор закрыт:
// редьюсер делает type switch, новые переходы добавляются только здесь.
// Kind идет в метрики и журнал, Entity — идентификатор затронутой сущности.
type Action interface {
	Kind() string
	Entity() string
}

// ConnectionChanged меняет только флаг соединения, данные не трогает.
type ConnectionChanged struct {
	Status domain.ConnectionStatus
}

// ErrorOccurred сохраняет человекочитаемую причину сбоя и снимает loading.
// Закэшированные данные остаются: устаревшее лучше пустого.
type ErrorOccurred struct {
	Message string
}

// ErrorCleared снимает сохраненную ошибку (например, после переподключения).
type ErrorCleared struct{}

// LoadingStarted поднимает флаг loading на время начальной загрузки.
type LoadingStarted struct{}

// SummaryReceived — полный снапшот. Отсутствующие (nil) секции не
// затирают известные данные.
//
// Guarded ставится только для ответов request/response (poll, начальная
// загрузка): такой ответ мог лететь параллельно с точечной мутацией
// тревог, и BasedOnAlertsRev (ревизия на момент выдачи запроса) не дает
// ему перезаписать более свежее изменение. События живого канала приходят
// строго упорядоченными и применяются без охраны.
type SummaryReceived struct {
	Summary          domain.DashboardSummary
	Guarded          bool
	BasedOnAlertsRev uint64
}

// CameraStatusReceived — полная замена списка камер (сервер авторитетен
// для коллекции целиком).
type CameraStatusReceived struct {
	Cameras []domain.CameraStatus
}

// DetectionAppended добавляет обнаружение в начало списка с дедупликацией
// по ID и обрезкой до вместимости.
type DetectionAppended struct {
	Detection domain.Detection
}

// RecentDetectionsReplaced — полная замена списка обнаружений.
type RecentDetectionsReplaced struct {
	Detections []domain.Detection
}

// AlertAppended добавляет тревогу в начало списка. Без дедупликации:
// тревоги редки и каждая значима.
type AlertAppended struct {
	Alert domain.Alert
}

// ActiveAlertsReplaced — полная замена списка тревог.
// Семантика Guarded/BasedOnAlertsRev та же, что у SummaryReceived.
type ActiveAlertsReplaced struct {
	Alerts           []domain.Alert
	Guarded          bool
	BasedOnAlertsRev uint64
}

// AlertAcked помечает тревогу подтвержденной. No-op если тревоги нет
// или она уже resolved (из resolved обратных переходов нет).
type AlertAcked struct {
	AlertID string
	By      string
	At      time.Time
}

// PeerSessionAdded фиксирует подтвержденную сервером WebRTC-сессию.
type PeerSessionAdded struct {
	CameraID  string
	SessionID string
}

// PeerSessionRemoved убирает сессию камеры.
type PeerSessionRemoved struct {
	CameraID string
}

// CameraRemoved — подтвержденное сервером удаление камеры: убирает ее из
// списка, из peer-сессий и из выбора.
type CameraRemoved struct {
	CameraID string
}

// PerformanceUpdated — latest-wins обновление метрик производительности.
type PerformanceUpdated struct {
	Performance domain.PerformanceSummary
}

// BehaviorAppended добавляет поведенческое событие в начало списка.
type BehaviorAppended struct {
	Event domain.BehaviorEvent
}

// LogAppended добавляет строку журнала в начало списка.
type LogAppended struct {
	Entry domain.LogEntry
}

// FiltersUpdated — shallow-merge частичного обновления фильтров.
type FiltersUpdated struct {
	Patch domain.FilterPatch
}

// CameraSelected выбирает камеру (пустой ID снимает выбор).
type CameraSelected struct {
	CameraID string
}

// AlertSelected выбирает тревогу (пустой ID снимает выбор).
type AlertSelected struct {
	AlertID string
}

// AutoRefreshSet включает/выключает фолбэк-поллинг.
type AutoRefreshSet struct {
	Enabled bool
}

// RefreshIntervalSet задает период фолбэк-поллинга.
type RefreshIntervalSet struct {
	Interval time.Duration
}

func (ConnectionChanged) Kind() string        { return "connection_changed" }
func (ErrorOccurred) Kind() string            { return "error_occurred" }
func (ErrorCleared) Kind() string             { return "error_cleared" }
func (LoadingStarted) Kind() string           { return "loading_started" }
func (SummaryReceived) Kind() string          { return "summary_received" }
func (CameraStatusReceived) Kind() string     { return "camera_status_received" }
func (DetectionAppended) Kind() string        { return "detection_appended" }
func (RecentDetectionsReplaced) Kind() string { return "recent_detections_replaced" }
func (AlertAppended) Kind() string            { return "alert_appended" }
func (ActiveAlertsReplaced) Kind() string     { return "active_alerts_replaced" }
func (AlertAcked) Kind() string               { return "alert_acknowledged" }
func (PeerSessionAdded) Kind() string         { return "peer_session_added" }
func (PeerSessionRemoved) Kind() string       { return "peer_session_removed" }
func (CameraRemoved) Kind() string            { return "camera_removed" }
func (PerformanceUpdated) Kind() string       { return "performance_updated" }
func (BehaviorAppended) Kind() string         { return "behavior_appended" }
func (LogAppended) Kind() string              { return "log_appended" }
func (FiltersUpdated) Kind() string           { return "filters_updated" }
func (CameraSelected) Kind() string           { return "camera_selected" }
func (AlertSelected) Kind() string            { return "alert_selected" }
func (AutoRefreshSet) Kind() string           { return "auto_refresh_set" }
func (RefreshIntervalSet) Kind() string       { return "refresh_interval_set" }

func (a ConnectionChanged) Entity() string        { return string(a.Status) }
func (ErrorOccurred) Entity() string              { return "" }
func (ErrorCleared) Entity() string               { return "" }
func (LoadingStarted) Entity() string             { return "" }
func (SummaryReceived) Entity() string            { return "" }
func (CameraStatusReceived) Entity() string       { return "" }
func (a DetectionAppended) Entity() string        { return a.Detection.ID }
func (RecentDetectionsReplaced) Entity() string   { return "" }
func (a AlertAppended) Entity() string            { return a.Alert.ID }
func (ActiveAlertsReplaced) Entity() string       { return "" }
func (a AlertAcked) Entity() string               { return a.AlertID }
func (a PeerSessionAdded) Entity() string         { return a.CameraID }
func (a PeerSessionRemoved) Entity() string       { return a.CameraID }
func (a CameraRemoved) Entity() string            { return a.CameraID }
func (PerformanceUpdated) Entity() string         { return "" }
func (a BehaviorAppended) Entity() string         { return a.Event.ID }
func (LogAppended) Entity() string                { return "" }
func (FiltersUpdated) Entity() string             { return "" }
func (a CameraSelected) Entity() string           { return a.CameraID }
func (a AlertSelected) Entity() string            { return a.AlertID }
func (AutoRefreshSet) Entity() string             { return "" }
func (RefreshIntervalSet) Entity() string         { return "" }
