package store

import (
	"time"

	"github.com/argusvision/dashsync/internal/domain"
)

// DefaultDetectionCapacity — сколько последних обнаружений держим в сторе.
const DefaultDetectionCapacity = 100

// Selection — текущий выбор оператора в UI.
type Selection struct {
	CameraID string `json:"camera_id,omitempty"`
	AlertID  string `json:"alert_id,omitempty"`
}

// DashboardState — единственное авторитетное представление дашборда.
// Мутируется только редьюсером внутри Store; наружу уходят глубокие копии.
//
// AlertsRev растет на каждой точечной мутации списка тревог и защищает
// его от перезаписи устаревшим снапшотом (poll-ответ, догнавший более
// свежий acknowledge).
type DashboardState struct {
	AlertsRev uint64 `json:"alerts_rev"`

	Connection  domain.ConnectionStatus `json:"connection"`
	Loading     bool                    `json:"loading"`
	Error       string                  `json:"error,omitempty"`
	LastUpdated time.Time               `json:"last_updated"`

	Cameras     []domain.CameraStatus      `json:"cameras"`
	Detections  []domain.Detection         `json:"detections"`
	Alerts      []domain.Alert             `json:"alerts"`
	Performance *domain.PerformanceSummary `json:"performance,omitempty"`
	Behaviors   []domain.BehaviorEvent     `json:"behaviors"`
	Logs        []domain.LogEntry          `json:"logs"`

	PeerSessions map[string]string `json:"peer_sessions"` // cameraID -> sessionID

	Filters   domain.FilterSet `json:"filters"`
	Selection Selection        `json:"selection"`

	AutoRefresh     bool          `json:"auto_refresh"`
	RefreshInterval time.Duration `json:"refresh_interval"`

	DetectionCapacity int `json:"-"`
}

// NewState возвращает исходное состояние до первого контакта с сервером.
func NewState(detectionCapacity int) DashboardState {
	if detectionCapacity <= 0 {
		detectionCapacity = DefaultDetectionCapacity
	}
	return DashboardState{
		Connection:        domain.Disconnected,
		Loading:           true,
		PeerSessions:      make(map[string]string),
		Filters:           domain.FilterSet{TimeRangeHours: 24},
		AutoRefresh:       true,
		RefreshInterval:   30 * time.Second,
		DetectionCapacity: detectionCapacity,
	}
}

// Clone делает глубокую копию: снапшоты наружу не должны делить память
// с внутренним состоянием.
func (s DashboardState) Clone() DashboardState {
	out := s
	out.Cameras = append([]domain.CameraStatus(nil), s.Cameras...)
	out.Detections = append([]domain.Detection(nil), s.Detections...)
	out.Alerts = append([]domain.Alert(nil), s.Alerts...)
	out.Behaviors = append([]domain.BehaviorEvent(nil), s.Behaviors...)
	out.Logs = append([]domain.LogEntry(nil), s.Logs...)

	if s.Performance != nil {
		perf := *s.Performance
		out.Performance = &perf
	}

	out.PeerSessions = make(map[string]string, len(s.PeerSessions))
	for k, v := range s.PeerSessions {
		out.PeerSessions[k] = v
	}

	out.Filters.CameraIDs = append([]string(nil), s.Filters.CameraIDs...)
	out.Filters.AlertLevels = append([]domain.AlertSeverity(nil), s.Filters.AlertLevels...)
	out.Filters.DetectionClasses = append([]string(nil), s.Filters.DetectionClasses...)

	return out
}
